package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"server/internal/domain"
	"server/internal/infra"
	"server/internal/sqlinline"
)

// ChatSessionRepositoryPG implements domain.ChatSessionRepository backed
// by PostgreSQL. Transcripts are stored as a jsonb message array.
type ChatSessionRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewChatSessionRepository creates a new ChatSessionRepositoryPG.
func NewChatSessionRepository(sql infra.SQLExecutor) *ChatSessionRepositoryPG {
	return &ChatSessionRepositoryPG{sql: sql}
}

func (r *ChatSessionRepositoryPG) Create(ctx context.Context, session *domain.ChatSession) (string, error) {
	payload, err := json.Marshal(session.Messages)
	if err != nil {
		return "", fmt.Errorf("encode messages: %w", err)
	}
	var id string
	var createdAt time.Time
	err = r.sql.QueryRow(ctx, sqlinline.QInsertFortuneSession,
		session.AccountID, payload, session.MessagesUsed, session.IsPremiumSession, session.CreditCost,
	).Scan(&id, &createdAt)
	if err != nil {
		return "", err
	}
	session.CreatedAt = createdAt
	session.UpdatedAt = createdAt
	return id, nil
}

func (r *ChatSessionRepositoryPG) UpdateMessages(ctx context.Context, accountID, id string, messages []domain.ChatMessage, messagesUsed int) error {
	payload, err := json.Marshal(messages)
	if err != nil {
		return fmt.Errorf("encode messages: %w", err)
	}
	tag, err := r.sql.Exec(ctx, sqlinline.QUpdateFortuneSessionMessages, accountID, id, payload, messagesUsed)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *ChatSessionRepositoryPG) GetByID(ctx context.Context, accountID, id string) (*domain.ChatSession, error) {
	return r.scanOne(r.sql.QueryRow(ctx, sqlinline.QSelectFortuneSession, accountID, id))
}

func (r *ChatSessionRepositoryPG) ListRecent(ctx context.Context, accountID string, limit int) ([]domain.ChatSession, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QListRecentFortuneSessions, accountID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.ChatSession
	for rows.Next() {
		var s domain.ChatSession
		var payload []byte
		if err := rows.Scan(&s.ID, &s.AccountID, &payload, &s.MessagesUsed, &s.IsPremiumSession, &s.CreditCost, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(payload, &s.Messages); err != nil {
			return nil, fmt.Errorf("decode messages: %w", err)
		}
		items = append(items, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *ChatSessionRepositoryPG) FindActive(ctx context.Context, accountID string, maxMessages int, since time.Time) (*domain.ChatSession, error) {
	return r.scanOne(r.sql.QueryRow(ctx, sqlinline.QFindActiveFortuneSession, accountID, since, maxMessages))
}

func (r *ChatSessionRepositoryPG) scanOne(row interface{ Scan(...any) error }) (*domain.ChatSession, error) {
	var s domain.ChatSession
	var payload []byte
	err := row.Scan(&s.ID, &s.AccountID, &payload, &s.MessagesUsed, &s.IsPremiumSession, &s.CreditCost, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(payload, &s.Messages); err != nil {
		return nil, fmt.Errorf("decode messages: %w", err)
	}
	return &s, nil
}
