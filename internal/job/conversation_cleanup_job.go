package job

import (
	"context"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/mnemo-dev/mnemo/internal/repo"
)

// ConversationCleanupJob trims transcript rows older than the retention
// window.
type ConversationCleanupJob struct {
	conversations *repo.ConversationRepo
	maxAge        time.Duration
}

func NewConversationCleanupJob(conversations *repo.ConversationRepo, maxAge time.Duration) *ConversationCleanupJob {
	return &ConversationCleanupJob{conversations: conversations, maxAge: maxAge}
}

func (j *ConversationCleanupJob) Name() string {
	return "conversation_cleanup"
}

func (j *ConversationCleanupJob) Run(ctx context.Context) error {
	if j.conversations == nil || j.maxAge <= 0 {
		return nil
	}
	cutoff := time.Now().Add(-j.maxAge).Unix()
	removed, err := j.conversations.DeleteBefore(ctx, cutoff)
	if err != nil {
		return err
	}
	if removed > 0 {
		logutil.GetLogger(ctx).Info("expired conversations removed", zap.Int64("rows", removed))
	}
	return nil
}
