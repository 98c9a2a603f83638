package domain

import (
	"context"
	"time"
)

// ChatSessionRepository persists fortune chat sessions for authenticated
// accounts. Guest sessions live only in process memory.
type ChatSessionRepository interface {
	Create(ctx context.Context, session *ChatSession) (string, error)
	UpdateMessages(ctx context.Context, accountID, id string, messages []ChatMessage, messagesUsed int) error
	GetByID(ctx context.Context, accountID, id string) (*ChatSession, error)
	ListRecent(ctx context.Context, accountID string, limit int) ([]ChatSession, error)
	// FindActive returns the newest session created at or after since whose
	// MessagesUsed is below maxMessages, or ErrNotFound.
	FindActive(ctx context.Context, accountID string, maxMessages int, since time.Time) (*ChatSession, error)
}

// PromoRepository reads the admin-managed discount window.
type PromoRepository interface {
	Get(ctx context.Context) (PromoWindow, error)
}
