package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/mnemo-dev/mnemo/internal/config"
	"github.com/mnemo-dev/mnemo/internal/model"
	appErr "github.com/mnemo-dev/mnemo/internal/pkg/errors"
	"github.com/mnemo-dev/mnemo/internal/repo"
)

const (
	replyNoMatches   = "I couldn't find any relevant information in your stored documents. Please upload some documents first."
	replyStorageDown = "The memory store is not available right now. Please try again later."
)

// ChatService answers a user message from their ingested memory and
// keeps the conversation transcript.
type ChatService struct {
	memory        *MemoryService
	conversations *repo.ConversationRepo
	retrieval     config.RetrievalConfig
}

func NewChatService(memory *MemoryService, conversations *repo.ConversationRepo, retrieval config.RetrievalConfig) *ChatService {
	return &ChatService{
		memory:        memory,
		conversations: conversations,
		retrieval:     retrieval,
	}
}

type ChatResult struct {
	Reply      string            `json:"reply"`
	Candidates []model.Candidate `json:"retrieved"`
}

// Chat persists the user turn, retrieves owner-scoped candidates and
// composes a templated reply. A storage outage degrades to a canned
// reply rather than an error: the transcript stays consistent and the
// user gets an answer either way.
func (s *ChatService) Chat(ctx context.Context, ownerID int64, message string, topK int) (*ChatResult, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, appErr.ErrEmptyMessage
	}
	if topK <= 0 {
		topK = s.retrieval.DefaultTopK
	}
	if topK > s.retrieval.MaxTopK {
		topK = s.retrieval.MaxTopK
	}

	if err := s.appendTurn(ctx, ownerID, model.RoleUser, message); err != nil {
		return nil, err
	}

	candidates, err := s.memory.Retrieve(ctx, ownerID, message, topK)
	if errors.Is(err, appErr.ErrStorageUnavailable) {
		logutil.GetLogger(ctx).Warn("chat served without retrieval, storage unavailable",
			zap.Int64("owner_id", ownerID))
		if err := s.appendTurn(ctx, ownerID, model.RoleAssistant, replyStorageDown); err != nil {
			return nil, err
		}
		return &ChatResult{Reply: replyStorageDown, Candidates: []model.Candidate{}}, nil
	}
	if err != nil {
		return nil, err
	}

	reply := s.composeReply(candidates)
	if err := s.appendTurn(ctx, ownerID, model.RoleAssistant, reply); err != nil {
		return nil, err
	}
	if candidates == nil {
		candidates = []model.Candidate{}
	}
	return &ChatResult{Reply: reply, Candidates: candidates}, nil
}

func (s *ChatService) History(ctx context.Context, ownerID int64) ([]model.Conversation, error) {
	return s.conversations.ListByUser(ctx, ownerID)
}

func (s *ChatService) appendTurn(ctx context.Context, ownerID int64, role, text string) error {
	return s.conversations.Append(ctx, &model.Conversation{
		UserID:    ownerID,
		Role:      role,
		Text:      text,
		CreatedAt: time.Now().Unix(),
	})
}

// composeReply is a template stand-in for model-generated answers: it
// stitches the top candidates into a bounded context string.
func (s *ChatService) composeReply(candidates []model.Candidate) string {
	if len(candidates) == 0 {
		return replyNoMatches
	}
	n := s.retrieval.ContextChunks
	if n > len(candidates) {
		n = len(candidates)
	}
	texts := make([]string, 0, n)
	for _, cand := range candidates[:n] {
		texts = append(texts, cand.Text)
	}
	context := strings.Join(texts, "\n\n---\n\n")
	if runes := []rune(context); len(runes) > s.retrieval.ContextMaxChars {
		context = string(runes[:s.retrieval.ContextMaxChars])
	}
	return fmt.Sprintf("I found %d relevant document chunks in your memory. Based on this information: %s...", len(candidates), context)
}
