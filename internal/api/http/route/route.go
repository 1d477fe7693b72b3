package route

import (
	"crypto/ecdsa"
	"io"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"stokhub/internal/api/http/handler"
	"stokhub/internal/api/http/middleware"
	"stokhub/internal/config"
)

func SetupRouter(
	log *zap.Logger,
	cfg *config.Config,
	publicKey *ecdsa.PublicKey,
	healthHdl HealthHandler,
	authHdl AuthHandler,
	stokHdl StokHareketHandler,
	wsHdl WSHandler,
) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	gin.DefaultWriter = io.Discard

	router := gin.Default()

	// middleware
	router.Use(middleware.Logger(log))
	router.Use(middleware.RequestTimeout(cfg.HTTPServer.Timeout.Request))
	router.Use(middleware.CORS(cfg.HTTPServer.CORS))

	jwtAuthMiddleware := middleware.JWTAuth(publicKey)

	router.HandleMethodNotAllowed = true
	router.NoMethod(handler.NoMethod)
	router.NoRoute(handler.NoRoute)

	basePath := router.Group(cfg.HTTPServer.BasePath)

	healthPath := basePath.Group("/health")
	RegisterHealth(healthPath, healthHdl, jwtAuthMiddleware)

	authPath := basePath.Group("/auth")
	RegisterAuth(authPath, authHdl, jwtAuthMiddleware)

	stokPath := basePath.Group("/stok")
	RegisterStok(stokPath, stokHdl, jwtAuthMiddleware)

	wsPath := basePath.Group("/ws")
	RegisterWS(wsPath, wsHdl, jwtAuthMiddleware)

	return router
}
