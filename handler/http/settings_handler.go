package http

import (
	"net/http"

	"github.com/RigelNana/vitalicio/models"
	"github.com/RigelNana/vitalicio/service"
	"github.com/gin-gonic/gin"
)

// GetSettings GET /api/settings
func (h *Handler) GetSettings(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"settings": h.portal.Settings.Current(),
		"status":   h.portal.Settings.Status(),
	})
}

// SaveSettings PUT /api/settings
func (h *Handler) SaveSettings(c *gin.Context) {
	var req models.AppSettings
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "kind": "validation"})
		return
	}
	if err := h.portal.Settings.Save(c.Request.Context(), req); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": h.portal.Settings.Current()})
}

// Upload POST /api/uploads?target=material|settings
//
// The URL is written into a draft only; saving the draft stays with the caller.
func (h *Handler) Upload(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "arquivo obrigatório", "kind": "validation"})
		return
	}
	f, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "kind": "validation"})
		return
	}
	defer f.Close()

	file := service.File{
		Name:        header.Filename,
		Size:        header.Size,
		ContentType: header.Header.Get("Content-Type"),
		Reader:      f,
	}

	switch target := c.DefaultQuery("target", "material"); target {
	case "material":
		var draft service.MaterialDraft
		url, err := h.portal.Uploads.UploadInto(c.Request.Context(), file, &draft)
		if err != nil {
			h.fail(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"url": url, "target": target, "draft": draft})
	case "settings":
		draft := h.portal.Settings.Current()
		url, err := h.portal.Uploads.UploadInto(c.Request.Context(), file, &draft)
		if err != nil {
			h.fail(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"url": url, "target": target, "settings": draft})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "target inválido: " + target, "kind": "validation"})
	}
}

// Notifications GET /api/notifications
func (h *Handler) Notifications(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"toasts": h.portal.Toasts.Entries()})
}

// Status GET /api/status
func (h *Handler) Status(c *gin.Context) {
	resp := gin.H{
		"catalog":  h.portal.Catalog.Status(),
		"settings": h.portal.Settings.Status(),
	}
	if err := h.portal.Catalog.LastError(); err != nil {
		resp["lastError"] = err.Error()
	}
	c.JSON(http.StatusOK, resp)
}

// Refresh POST /api/refresh
func (h *Handler) Refresh(c *gin.Context) {
	if err := h.portal.RefreshAll(c.Request.Context()); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"catalog":  h.portal.Catalog.Status(),
		"settings": h.portal.Settings.Status(),
	})
}
