package handler

import (
	"io"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mnemo-dev/mnemo/internal/pkg/errcode"
	"github.com/mnemo-dev/mnemo/internal/pkg/response"
	"github.com/mnemo-dev/mnemo/internal/service"
)

type MemoryHandler struct {
	memory      *service.MemoryService
	uploadLimit int64
}

func NewMemoryHandler(memory *service.MemoryService, uploadLimit int64) *MemoryHandler {
	return &MemoryHandler{memory: memory, uploadLimit: uploadLimit}
}

// Ingest accepts one multipart file under "file" and folds it into the
// caller's memory.
func (h *MemoryHandler) Ingest(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		response.Error(c, errcode.ErrInvalid, "file is required")
		return
	}
	if h.uploadLimit > 0 && file.Size > h.uploadLimit {
		response.Error(c, errcode.ErrInvalid, "file exceeds upload limit of "+formatUploadLimit(h.uploadLimit))
		return
	}
	opened, err := file.Open()
	if err != nil {
		response.Error(c, errcode.ErrInvalid, "failed to open file")
		return
	}
	defer opened.Close()
	data, err := io.ReadAll(opened)
	if err != nil {
		response.Error(c, errcode.ErrInvalid, "failed to read file")
		return
	}

	result, err := h.memory.Ingest(c.Request.Context(), getUserID(c), file.Filename, data)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, result)
}

func (h *MemoryHandler) Documents(c *gin.Context) {
	docs, err := h.memory.Documents(c.Request.Context(), getUserID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, docs)
}

func formatUploadLimit(bytes int64) string {
	const mb = 1024 * 1024
	if bytes <= 0 {
		return "0MB"
	}
	value := bytes / mb
	if value <= 0 {
		value = 1
	}
	return strconv.FormatInt(value, 10) + "MB"
}
