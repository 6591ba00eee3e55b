package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/usdc_batchpay/service"
)

type ContactHandler struct {
	directory service.ContactDirectory
}

func NewContactHandler(directory service.ContactDirectory) *ContactHandler {
	return &ContactHandler{directory: directory}
}

// GET /api/contacts?owner=
// Read-through to the external contact directory; the pairs it returns are
// inserted into lists by the caller like any manually entered recipient.
func (h *ContactHandler) List(c *gin.Context) {
	if h.directory == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "contact directory not configured"})
		return
	}
	owner := c.Query("owner")
	if owner == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "owner is required"})
		return
	}
	contacts, err := h.directory.ListContacts(c.Request.Context(), owner)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"total": len(contacts), "contacts": contacts})
}
