package http

import (
	metricsgin "github.com/RigelNana/vitalicio/pkg/metrics/gin"
	"github.com/gin-gonic/gin"
)

func Setup(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(h.logger), metricsgin.PrometheusMiddleware("portal"))
	RegisterDocs(r)

	api := r.Group("/api")
	{
		auth := api.Group("/auth")
		auth.POST("/login", h.Login)
		auth.POST("/register", h.Register)
		auth.GET("/session", h.Session)
		auth.POST("/logout", h.RequireSession(), h.Logout)
	}

	member := api.Group("", h.RequireSession())
	{
		member.GET("/materials", h.ListMaterials)
		member.GET("/materials/:id", h.GetMaterial)
		member.POST("/materials/:id/view", h.ViewMaterial)
		member.POST("/materials/:id/read", h.MarkRead)
		member.POST("/materials/:id/comments", h.AddComment)
		member.GET("/settings", h.GetSettings)
		member.GET("/notifications", h.Notifications)
		member.GET("/status", h.Status)
		member.POST("/refresh", h.Refresh)
	}

	admin := member.Group("", h.RequireAdmin())
	{
		admin.POST("/materials", h.CreateMaterial)
		admin.PUT("/materials/:id", h.UpdateMaterial)
		admin.DELETE("/materials/:id", h.DeleteMaterial)
		admin.PUT("/settings", h.SaveSettings)
		admin.POST("/uploads", h.Upload)
	}
	return r
}
