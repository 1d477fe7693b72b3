package route

import (
	"github.com/gin-gonic/gin"
)

type StokHareketHandler interface {
	GetByID(c *gin.Context)
	Recent(c *gin.Context)
}

type WSHandler interface {
	Connect(c *gin.Context)
}

func RegisterStok(g *gin.RouterGroup, h StokHareketHandler, jwtAuthMiddleware gin.HandlerFunc) {
	g.Use(jwtAuthMiddleware)

	g.GET("/recent", h.Recent)
	g.GET("/:id", h.GetByID)
}

func RegisterWS(g *gin.RouterGroup, h WSHandler, jwtAuthMiddleware gin.HandlerFunc) {
	g.GET("", jwtAuthMiddleware, h.Connect)
}
