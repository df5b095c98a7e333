package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/mnemo-dev/mnemo/internal/pkg/response"
	"github.com/mnemo-dev/mnemo/internal/service"
)

type HealthHandler struct {
	memory *service.MemoryService
}

func NewHealthHandler(memory *service.MemoryService) *HealthHandler {
	return &HealthHandler{memory: memory}
}

func (h *HealthHandler) Health(c *gin.Context) {
	response.Success(c, h.memory.Health())
}
