package message

import (
	"context"
	"errors"
	"time"
)

// Sender identifies who authored a message.
type Sender string

const (
	SenderCustomer Sender = "customer"
	SenderAgent    Sender = "agent"
)

func (s Sender) Valid() bool {
	return s == SenderCustomer || s == SenderAgent
}

// ErrDuplicate is returned when a platform message id was already stored for
// the conversation.
var ErrDuplicate = errors.New("message already stored")

// Message is a single persisted conversation message.
type Message struct {
	ID                string    `json:"id"`
	ConversationID    string    `json:"conversation_id"`
	Sender            Sender    `json:"sender"`
	Content           string    `json:"content"`
	PlatformMessageID string    `json:"platform_message_id,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

// PersistInput is the input for persisting a message. AccountID only scopes
// the live event; it is not stored on the row.
type PersistInput struct {
	ConversationID    string
	AccountID         string
	Sender            Sender
	Content           string
	PlatformMessageID string
	// CreatedAt is the platform timestamp for inbound messages. Zero means now.
	CreatedAt time.Time
}

// Writer defines write behavior needed by the inbound pipeline and the
// orchestrator.
type Writer interface {
	Persist(ctx context.Context, input PersistInput) (Message, error)
}

// Service defines message read/write behavior.
type Service interface {
	Writer
	List(ctx context.Context, conversationID string) ([]Message, error)
	ListRecent(ctx context.Context, conversationID string, limit int32) ([]Message, error)
	SeenPlatformMessage(ctx context.Context, pageID, platformMessageID string) (bool, error)
}
