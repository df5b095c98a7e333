package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mnemo-dev/mnemo/internal/middleware"
)

type RouterDeps struct {
	Auth             *AuthHandler
	Memory           *MemoryHandler
	Chat             *ChatHandler
	Health           *HealthHandler
	JWTSecret        []byte
	AuthRateWindow   time.Duration
	IngestRateWindow time.Duration
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	api.GET("/health", deps.Health.Health)
	api.POST("/auth/register", middleware.RateLimit(deps.AuthRateWindow), deps.Auth.Register)
	api.POST("/auth/login", deps.Auth.Login)

	authGroup := api.Group("")
	authGroup.Use(middleware.JWTAuth(deps.JWTSecret))
	authGroup.POST("/memory/ingest", middleware.RateLimit(deps.IngestRateWindow), deps.Memory.Ingest)
	authGroup.GET("/memory/documents", deps.Memory.Documents)
	authGroup.POST("/chat", deps.Chat.Chat)
	authGroup.GET("/chat/history", deps.Chat.History)
}
