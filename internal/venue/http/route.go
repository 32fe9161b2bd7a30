package http

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware gin.HandlerFunc) {
	group := g.Group("/venues")

	group.GET("", h.List)
	group.GET("/:id", h.Get)
	group.GET("/:id/slot-config", h.GetSlotConfig)

	// === Authenticated Routes ===
	authed := group.Group("")
	authed.Use(authMiddleware)
	{
		authed.POST("", h.Create)
		authed.PUT("/:id/slot-config", h.UpdateSlotConfig)
	}
}
