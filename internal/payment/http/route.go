package http

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware gin.HandlerFunc) {
	group := g.Group("/payments")

	// Initiation requires the paying user; verification may come from the
	// gateway redirect without a session.
	group.POST("/verify", h.Verify)

	authed := group.Group("")
	authed.Use(authMiddleware)
	{
		authed.POST("/initiate", h.Initiate)
	}
}
