package http

import (
	"net/http"
	"strconv"

	"github.com/RigelNana/vitalicio/filter"
	"github.com/RigelNana/vitalicio/models"
	"github.com/RigelNana/vitalicio/service"
	"github.com/gin-gonic/gin"
)

// ListMaterials GET /api/materials?search=&category=&tab=
//
// Criteria belong to the request; omitted ones match everything.
func (h *Handler) ListMaterials(c *gin.Context) {
	criteria := filter.Criteria{
		Search:   c.Query("search"),
		Category: c.DefaultQuery("category", filter.AllCategories),
		Tab:      c.DefaultQuery("tab", filter.AllTypes),
	}
	items := filter.Apply(h.portal.Catalog.Items(), criteria)
	c.JSON(http.StatusOK, gin.H{
		"items":    items,
		"total":    len(items),
		"criteria": criteria,
		"status":   h.portal.Catalog.Status(),
	})
}

// GetMaterial GET /api/materials/:id
func (h *Handler) GetMaterial(c *gin.Context) {
	m, ok := h.portal.Catalog.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Conteúdo não encontrado.", "kind": "not_found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"material": m, "isRead": m.IsReadBy(currentUser(c).ID)})
}

// ViewMaterial POST /api/materials/:id/view
func (h *Handler) ViewMaterial(c *gin.Context) {
	id := c.Param("id")
	h.portal.Catalog.IncrementViews(c.Request.Context(), id)
	m, ok := h.portal.Catalog.Get(id)
	if !ok {
		c.JSON(http.StatusAccepted, gin.H{"id": id})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"id": id, "views": m.Views})
}

// MarkRead POST /api/materials/:id/read
func (h *Handler) MarkRead(c *gin.Context) {
	if err := h.portal.Catalog.MarkRead(c.Request.Context(), c.Param("id"), currentUser(c).ID); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

type commentRequest struct {
	Text string `json:"text"`
}

// AddComment POST /api/materials/:id/comments
func (h *Handler) AddComment(c *gin.Context) {
	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "kind": "validation"})
		return
	}
	id := c.Param("id")
	if err := h.portal.Catalog.AddComment(c.Request.Context(), id, currentUser(c).Name, req.Text); err != nil {
		h.fail(c, err)
		return
	}
	m, _ := h.portal.Catalog.Get(id)
	c.JSON(http.StatusCreated, gin.H{"comments": m.Comments})
}

// CreateMaterial POST /api/materials
func (h *Handler) CreateMaterial(c *gin.Context) {
	var draft service.MaterialDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "kind": "validation"})
		return
	}
	m, err := h.portal.Catalog.Create(c.Request.Context(), draft)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"material": m})
}

// UpdateMaterial PUT /api/materials/:id
func (h *Handler) UpdateMaterial(c *gin.Context) {
	var patch service.MaterialPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "kind": "validation"})
		return
	}
	id := c.Param("id")
	if err := h.portal.Catalog.Update(c.Request.Context(), id, patch); err != nil {
		h.fail(c, err)
		return
	}
	m, _ := h.portal.Catalog.Get(id)
	c.JSON(http.StatusOK, gin.H{"material": m})
}

// DeleteMaterial DELETE /api/materials/:id?confirm=true
func (h *Handler) DeleteMaterial(c *gin.Context) {
	confirmed, _ := strconv.ParseBool(c.Query("confirm"))
	err := h.portal.Catalog.Delete(c.Request.Context(), c.Param("id"), func(models.Material) bool {
		return confirmed
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
