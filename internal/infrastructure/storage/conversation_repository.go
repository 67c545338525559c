package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/formabot/backend/internal/domain/conversation"
	"github.com/formabot/backend/internal/infrastructure/log"
	"github.com/google/uuid"
)

// 确保 ConversationRepository 实现了 conversation.Repository 接口
var _ conversation.Repository = (*ConversationRepository)(nil)

// ConversationRepository 对话仓储的 SQLite 实现
type ConversationRepository struct {
	db     *sql.DB
	now    func() time.Time
	logger *slog.Logger
}

// NewConversationRepository 创建对话仓储实例
func NewConversationRepository(db *sql.DB) *ConversationRepository {
	return &ConversationRepository{
		db:     db,
		now:    time.Now,
		logger: log.NewModuleLogger("storage", "conversation"),
	}
}

// queryer 事务与连接共用的查询接口
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// withTx 在事务中执行 fn，出错时回滚，所有错误包装为 ErrStoreFailure
// fn 返回的 ErrConversationNotFound 保持原样
func (r *ConversationRepository) withTx(ctx context.Context, op string, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %s: begin: %v", conversation.ErrStoreFailure, op, err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		if errors.Is(err, conversation.ErrConversationNotFound) {
			return err
		}
		r.logger.Warn("Transaction rolled back", "op", op, "error", err)
		return fmt.Errorf("%w: %s: %w", conversation.ErrStoreFailure, op, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: %s: commit: %w", conversation.ErrStoreFailure, op, err)
	}
	return nil
}

// CreateOrTouch 创建对话或更新其 updated_at
func (r *ConversationRepository) CreateOrTouch(ctx context.Context, conversationID string) (*conversation.Conversation, error) {
	var conv *conversation.Conversation
	err := r.withTx(ctx, "create_or_touch", func(tx *sql.Tx) error {
		if err := upsertConversation(ctx, tx, conversationID, r.now()); err != nil {
			return err
		}
		var err error
		conv, err = getConversation(ctx, tx, conversationID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return conv, nil
}

// AppendMessage 向已存在的对话追加消息
func (r *ConversationRepository) AppendMessage(ctx context.Context, conversationID string, role conversation.Role, content string) (*conversation.Message, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: %q", conversation.ErrInvalidRole, role)
	}

	var msg *conversation.Message
	err := r.withTx(ctx, "append_message", func(tx *sql.Tx) error {
		now := r.now()
		res, err := tx.ExecContext(ctx, `UPDATE conversations SET updated_at = ? WHERE id = ?`, now.UnixMilli(), conversationID)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return conversation.ErrConversationNotFound
		}
		msg, err = insertMessage(ctx, tx, conversationID, role, content, now)
		if err != nil {
			return err
		}
		return applyTitleRule(ctx, tx, conversationID, role)
	})
	if err != nil {
		return nil, err
	}
	return msg, nil
}

// RecordMessage 创建或更新对话并追加消息，第二条消息为助手回复时设置标题
func (r *ConversationRepository) RecordMessage(ctx context.Context, conversationID string, role conversation.Role, content string) (*conversation.Message, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: %q", conversation.ErrInvalidRole, role)
	}

	var msg *conversation.Message
	err := r.withTx(ctx, "record_message", func(tx *sql.Tx) error {
		now := r.now()
		if err := upsertConversation(ctx, tx, conversationID, now); err != nil {
			return err
		}
		var err error
		msg, err = insertMessage(ctx, tx, conversationID, role, content, now)
		if err != nil {
			return err
		}
		return applyTitleRule(ctx, tx, conversationID, role)
	})
	if err != nil {
		return nil, err
	}

	r.logger.Debug("Message recorded",
		"conversation_id", conversationID,
		"role", role,
		"message_id", msg.ID,
	)
	return msg, nil
}

// GetConversation 获取对话（含消息数）
func (r *ConversationRepository) GetConversation(ctx context.Context, conversationID string) (*conversation.Conversation, error) {
	conv, err := getConversation(ctx, r.db, conversationID)
	if err != nil {
		if errors.Is(err, conversation.ErrConversationNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: get conversation: %w", conversation.ErrStoreFailure, err)
	}
	return conv, nil
}

// ListConversations 按 updated_at 倒序分页列出对话
func (r *ConversationRepository) ListConversations(ctx context.Context, offset, limit int) ([]*conversation.Conversation, error) {
	offset, limit = normalizePage(offset, limit)

	rows, err := r.db.QueryContext(ctx, `
		SELECT c.id, c.title, c.created_at, c.updated_at, COUNT(m.id)
		FROM conversations c
		LEFT JOIN messages m ON m.conversation_id = c.id
		GROUP BY c.id
		ORDER BY c.updated_at DESC, c.rowid DESC
		LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%w: list conversations: %w", conversation.ErrStoreFailure, err)
	}
	defer rows.Close()

	result := make([]*conversation.Conversation, 0)
	for rows.Next() {
		conv, err := scanConversation(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scan conversation: %w", conversation.ErrStoreFailure, err)
		}
		result = append(result, conv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list conversations: %w", conversation.ErrStoreFailure, err)
	}
	return result, nil
}

// ListMessages 按 created_at 正序分页列出消息
// 同一毫秒内写入的消息按插入顺序（rowid）排列
func (r *ConversationRepository) ListMessages(ctx context.Context, conversationID string, offset, limit int) ([]*conversation.Message, error) {
	offset, limit = normalizePage(offset, limit)

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, conversation_id, role, content, created_at
		FROM messages
		WHERE conversation_id = ?
		ORDER BY created_at ASC, rowid ASC
		LIMIT ? OFFSET ?`, conversationID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%w: list messages: %w", conversation.ErrStoreFailure, err)
	}
	defer rows.Close()

	result := make([]*conversation.Message, 0)
	for rows.Next() {
		var (
			msg       conversation.Message
			role      string
			createdAt int64
		)
		if err := rows.Scan(&msg.ID, &msg.ConversationID, &role, &msg.Content, &createdAt); err != nil {
			return nil, fmt.Errorf("%w: scan message: %w", conversation.ErrStoreFailure, err)
		}
		msg.Role = conversation.Role(role)
		msg.CreatedAt = time.UnixMilli(createdAt)
		result = append(result, &msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list messages: %w", conversation.ErrStoreFailure, err)
	}
	return result, nil
}

// DeleteConversation 删除对话，消息随外键级联删除
func (r *ConversationRepository) DeleteConversation(ctx context.Context, conversationID string) error {
	err := r.withTx(ctx, "delete_conversation", func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE conversation_id = ?`, conversationID); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM conversations WHERE id = ?`, conversationID)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return conversation.ErrConversationNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}

	r.logger.Info("Conversation deleted", "conversation_id", conversationID)
	return nil
}

// Stats 统计对话与消息数量
func (r *ConversationRepository) Stats(ctx context.Context) (*conversation.Stats, error) {
	since := r.now().Add(-conversation.RecentWindow).UnixMilli()

	var stats conversation.Stats
	err := r.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM conversations),
			(SELECT COUNT(*) FROM messages),
			(SELECT COUNT(*) FROM conversations WHERE updated_at >= ?),
			(SELECT COUNT(*) FROM messages WHERE role = 'user'),
			(SELECT COUNT(*) FROM messages WHERE role = 'assistant')`, since).Scan(
		&stats.TotalConversations,
		&stats.TotalMessages,
		&stats.RecentConversations,
		&stats.UserMessages,
		&stats.AssistantMessages,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: stats: %w", conversation.ErrStoreFailure, err)
	}
	return &stats, nil
}

// upsertConversation 主键冲突时只更新 updated_at，同一 ID 永远只有一行
func upsertConversation(ctx context.Context, q queryer, id string, now time.Time) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO conversations (id, title, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET updated_at = excluded.updated_at`,
		id, conversation.DefaultTitle(now), now.UnixMilli(), now.UnixMilli())
	return err
}

// insertMessage 插入一条消息
func insertMessage(ctx context.Context, q queryer, conversationID string, role conversation.Role, content string, now time.Time) (*conversation.Message, error) {
	msg := &conversation.Message{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		Role:           role,
		Content:        content,
		CreatedAt:      time.UnixMilli(now.UnixMilli()),
	}
	_, err := q.ExecContext(ctx, `
		INSERT INTO messages (id, conversation_id, role, content, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		msg.ID, msg.ConversationID, string(msg.Role), msg.Content, msg.CreatedAt.UnixMilli())
	if err != nil {
		return nil, err
	}
	return msg, nil
}

// applyTitleRule 消息数恰好为 2 且最新消息为助手回复时，用第一条用户消息设置标题
func applyTitleRule(ctx context.Context, q queryer, conversationID string, role conversation.Role) error {
	if role != conversation.RoleAssistant {
		return nil
	}

	var count int
	if err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM messages WHERE conversation_id = ?`, conversationID).Scan(&count); err != nil {
		return err
	}
	if count != conversation.TitleTriggerCount {
		return nil
	}

	var first string
	err := q.QueryRowContext(ctx, `
		SELECT content FROM messages
		WHERE conversation_id = ? AND role = 'user'
		ORDER BY created_at ASC, rowid ASC
		LIMIT 1`, conversationID).Scan(&first)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return err
	}

	_, err = q.ExecContext(ctx, `UPDATE conversations SET title = ? WHERE id = ?`,
		conversation.TitleFromFirstMessage(first), conversationID)
	return err
}

// getConversation 查询单个对话
func getConversation(ctx context.Context, q queryer, id string) (*conversation.Conversation, error) {
	row := q.QueryRowContext(ctx, `
		SELECT c.id, c.title, c.created_at, c.updated_at,
			(SELECT COUNT(*) FROM messages m WHERE m.conversation_id = c.id)
		FROM conversations c
		WHERE c.id = ?`, id)
	conv, err := scanConversation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, conversation.ErrConversationNotFound
	}
	return conv, err
}

// rowScanner sql.Row 与 sql.Rows 的共同接口
type rowScanner interface {
	Scan(dest ...any) error
}

// scanConversation 扫描一行对话记录
func scanConversation(s rowScanner) (*conversation.Conversation, error) {
	var (
		conv                 conversation.Conversation
		createdAt, updatedAt int64
	)
	if err := s.Scan(&conv.ID, &conv.Title, &createdAt, &updatedAt, &conv.MessageCount); err != nil {
		return nil, err
	}
	conv.CreatedAt = time.UnixMilli(createdAt)
	conv.UpdatedAt = time.UnixMilli(updatedAt)
	return &conv, nil
}

// normalizePage 规范化分页参数，limit <= 0 表示不限制
func normalizePage(offset, limit int) (int, int) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = -1
	}
	return offset, limit
}
