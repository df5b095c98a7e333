package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mnemo-dev/mnemo/internal/pkg/errcode"
	"github.com/mnemo-dev/mnemo/internal/pkg/response"
	"github.com/mnemo-dev/mnemo/internal/service"
)

type ChatHandler struct {
	chat *service.ChatService
}

func NewChatHandler(chat *service.ChatService) *ChatHandler {
	return &ChatHandler{chat: chat}
}

type chatRequest struct {
	Message string `json:"message"`
	TopK    int    `json:"top_k"`
}

type historyEntry struct {
	ID        int64  `json:"id"`
	Role      string `json:"role"`
	Text      string `json:"text"`
	CreatedAt string `json:"created_at"`
}

func (h *ChatHandler) Chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	result, err := h.chat.Chat(c.Request.Context(), getUserID(c), req.Message, req.TopK)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, result)
}

func (h *ChatHandler) History(c *gin.Context) {
	items, err := h.chat.History(c.Request.Context(), getUserID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	entries := make([]historyEntry, 0, len(items))
	for _, item := range items {
		entries = append(entries, historyEntry{
			ID:        item.ID,
			Role:      item.Role,
			Text:      item.Text,
			CreatedAt: time.Unix(item.CreatedAt, 0).UTC().Format(time.RFC3339),
		})
	}
	response.Success(c, entries)
}
