package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/mnemo-dev/mnemo/internal/model"
)

type ConversationRepo struct {
	db *sql.DB
}

func NewConversationRepo(db *sql.DB) *ConversationRepo {
	return &ConversationRepo{db: db}
}

func (r *ConversationRepo) Append(ctx context.Context, conv *model.Conversation) error {
	data := map[string]interface{}{
		"user_id":    conv.UserID,
		"role":       conv.Role,
		"text":       conv.Text,
		"created_at": conv.CreatedAt,
	}
	sqlStr, args, err := builder.BuildInsert("conversations", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	result, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	conv.ID = id
	return nil
}

func (r *ConversationRepo) ListByUser(ctx context.Context, userID int64) ([]model.Conversation, error) {
	where := map[string]interface{}{
		"user_id":  userID,
		"_orderby": "created_at asc, id asc",
	}
	sqlStr, args, err := builder.BuildSelect("conversations", where,
		[]string{"id", "user_id", "role", "text", "created_at"})
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var items []model.Conversation
	for rows.Next() {
		var conv model.Conversation
		if err := rows.Scan(&conv.ID, &conv.UserID, &conv.Role, &conv.Text, &conv.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, conv)
	}
	return items, rows.Err()
}

// DeleteBefore drops transcript rows older than cutoff, returning how
// many were removed. Used by the retention job.
func (r *ConversationRepo) DeleteBefore(ctx context.Context, cutoff int64) (int64, error) {
	where := map[string]interface{}{
		"created_at <": cutoff,
	}
	sqlStr, args, err := builder.BuildDelete("conversations", where)
	if err != nil {
		return 0, err
	}
	result, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
