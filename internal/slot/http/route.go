package http

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware gin.HandlerFunc) {
	group := g.Group("/venues/:id/slots")

	group.GET("", h.GetAvailability)

	// === Authenticated Routes ===
	authed := group.Group("")
	authed.Use(authMiddleware)
	{
		authed.POST("/hold", h.Hold)

		// Venue-owner operations; ownership is checked in the handler.
		authed.POST("/book", h.Book)
		authed.POST("/unbook", h.Unbook)
		authed.POST("/release", h.Release)
		authed.POST("/block", h.Block)
		authed.POST("/unblock", h.Unblock)
		authed.POST("/reserve", h.Reserve)
		authed.POST("/unreserve", h.Unreserve)
	}
}
