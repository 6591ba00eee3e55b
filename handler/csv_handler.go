package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/usdc_batchpay/service"
)

type CSVHandler struct {
	lists *service.ListService
}

func NewCSVHandler(lists *service.ListService) *CSVHandler {
	return &CSVHandler{lists: lists}
}

type importRequest struct {
	Owner   string `json:"owner" binding:"required"`
	Content string `json:"content" binding:"required"`
}

// POST /api/lists/:id/import
// Parses the uploaded CSV against the list's current type and returns the
// candidate recipients; saving them is a separate list update.
func (h *CSVHandler) Import(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		return
	}
	var req importRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	list, _, err := h.lists.Get(c.Request.Context(), req.Owner, id)
	if err != nil {
		respondErr(c, err)
		return
	}
	result, err := service.ParseRecipientsCSV(req.Content, list.ListType)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GET /api/lists/:id/export?owner=
func (h *CSVHandler) Export(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		return
	}
	list, recipients, err := h.lists.Get(c.Request.Context(), c.Query("owner"), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+list.Name+`.csv"`)
	c.Data(http.StatusOK, "text/csv", []byte(service.ExportRecipientsCSV(recipients)))
}

// GET /api/csv/template?listType=
func (h *CSVHandler) Template(c *gin.Context) {
	template, err := service.CSVTemplate(c.DefaultQuery("listType", "fixed"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.Data(http.StatusOK, "text/csv", []byte(template))
}
