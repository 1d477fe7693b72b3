package route

import (
	"github.com/gin-gonic/gin"
)

type AuthHandler interface {
	Login(c *gin.Context)
	Refresh(c *gin.Context)
	Me(c *gin.Context)
}

func RegisterAuth(g *gin.RouterGroup, h AuthHandler, jwtAuthMiddleware gin.HandlerFunc) {
	g.POST("/login", h.Login)
	g.POST("/refresh", h.Refresh)
	g.GET("/me", jwtAuthMiddleware, h.Me)
}
