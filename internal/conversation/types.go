// Package conversation defines conversation domain types and rules.
package conversation

import (
	"context"
	"errors"
	"time"

	"github.com/beybot/beybot/internal/platform"
)

// Conversation status constants.
const (
	StatusActive   = "active"
	StatusPending  = "pending"
	StatusResolved = "resolved"
)

var (
	// ErrNotFound is returned when no conversation matches.
	ErrNotFound = errors.New("conversation not found")
	// ErrUpdateFailed is returned by ResolveInbound when the conversation
	// exists but its preview could not be updated. The returned conversation
	// is the row as it was found.
	ErrUpdateFailed = errors.New("update conversation failed")
)

// ValidStatus reports whether s is a known conversation status.
func ValidStatus(s string) bool {
	switch s {
	case StatusActive, StatusPending, StatusResolved:
		return true
	default:
		return false
	}
}

// Conversation is one customer thread on one page of one account.
type Conversation struct {
	ID                     string        `json:"id"`
	AccountID              string        `json:"account_id"`
	CustomerName           string        `json:"customer_name"`
	Platform               platform.Kind `json:"platform"`
	PlatformConversationID string        `json:"platform_conversation_id"`
	PageID                 string        `json:"page_id"`
	Status                 string        `json:"status"`
	LastMessage            string        `json:"last_message"`
	LastMessageAt          time.Time     `json:"last_message_at"`
	UnreadCount            int           `json:"unread_count"`
	CreatedAt              time.Time     `json:"created_at"`
	UpdatedAt              time.Time     `json:"updated_at"`
}

// Thread is the identity tuple of a conversation.
type Thread struct {
	AccountID string
	Platform  platform.Kind
	SenderID  string
	PageID    string
}

// InboundInput describes one customer message that touches a conversation.
type InboundInput struct {
	Thread
	Text string
	At   time.Time
}

// Resolver finds or creates the conversation for an inbound message.
type Resolver interface {
	ResolveInbound(ctx context.Context, input InboundInput) (Conversation, bool, error)
}

// ReplyRecorder updates the preview fields after an agent reply.
type ReplyRecorder interface {
	RecordReply(ctx context.Context, conversationID, text string, at time.Time) (Conversation, error)
}

// Service defines conversation read/write behavior.
type Service interface {
	Resolver
	ReplyRecorder
	Lookup(ctx context.Context, thread Thread) (Conversation, error)
	Get(ctx context.Context, conversationID string) (Conversation, error)
	ListByAccount(ctx context.Context, accountID string, limit int32) ([]Conversation, error)
	SetStatus(ctx context.Context, conversationID, status string) (Conversation, error)
	MarkRead(ctx context.Context, conversationID string) (Conversation, error)
}
