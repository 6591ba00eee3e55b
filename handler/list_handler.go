package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/usdc_batchpay/service"
)

type ListHandler struct {
	svc *service.ListService
}

func NewListHandler(svc *service.ListService) *ListHandler {
	return &ListHandler{svc: svc}
}

type listRequest struct {
	Owner       string                   `json:"owner" binding:"required"`
	Name        string                   `json:"name"`
	Description string                   `json:"description"`
	ListType    string                   `json:"listType"`
	Recipients  []service.RecipientInput `json:"recipients"`
}

// POST /api/lists
func (h *ListHandler) Create(c *gin.Context) {
	var req listRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	list, err := h.svc.Create(c.Request.Context(), req.Owner, req.Name, req.Description, req.ListType, req.Recipients)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, list)
}

// GET /api/lists?owner=
func (h *ListHandler) Overview(c *gin.Context) {
	owner := c.Query("owner")
	if owner == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "owner is required"})
		return
	}
	lists, err := h.svc.Overview(c.Request.Context(), owner)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"total": len(lists), "lists": lists})
}

// GET /api/lists/:id?owner=
func (h *ListHandler) Get(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		return
	}
	list, recipients, err := h.svc.Get(c.Request.Context(), c.Query("owner"), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"list": list, "recipients": recipients})
}

// PUT /api/lists/:id
func (h *ListHandler) Update(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		return
	}
	var req listRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	list, err := h.svc.Update(c.Request.Context(), req.Owner, id, req.Name, req.Description, req.ListType, req.Recipients)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// DELETE /api/lists/:id?owner=
func (h *ListHandler) Delete(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), c.Query("owner"), id); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

func parseID(c *gin.Context) (uint64, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid list id"})
	}
	return id, err
}
