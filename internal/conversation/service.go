package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	dbpkg "github.com/beybot/beybot/internal/db"
	"github.com/beybot/beybot/internal/db/sqlc"
	"github.com/beybot/beybot/internal/platform"
)

const defaultListLimit = 100

// DBService persists conversations through the sqlc query layer.
type DBService struct {
	queries sqlc.Querier
	logger  *slog.Logger
}

func NewService(log *slog.Logger, queries sqlc.Querier) *DBService {
	if log == nil {
		log = slog.Default()
	}
	return &DBService{
		queries: queries,
		logger:  log.With(slog.String("service", "conversation")),
	}
}

var _ Service = (*DBService)(nil)

// DisplayName is the customer name given to a new conversation.
func DisplayName(kind platform.Kind, senderID string) string {
	suffix := senderID
	if r := []rune(senderID); len(r) > 6 {
		suffix = string(r[len(r)-6:])
	}
	return fmt.Sprintf("%s User %s", kind, suffix)
}

// ResolveInbound returns the conversation for the thread, creating it when
// absent. The bool reports whether a new row was created. An existing
// conversation gets the new preview, one more unread message and status
// active. Concurrent updates are last-write-wins. A failed update returns the
// existing conversation together with ErrUpdateFailed.
func (s *DBService) ResolveInbound(ctx context.Context, input InboundInput) (Conversation, bool, error) {
	existing, err := s.Lookup(ctx, input.Thread)
	switch {
	case err == nil:
		pgID, err := dbpkg.ParseUUID(existing.ID)
		if err != nil {
			return Conversation{}, false, err
		}
		row, err := s.queries.UpdateConversationInbound(ctx, sqlc.UpdateConversationInboundParams{
			ID:            pgID,
			LastMessage:   input.Text,
			LastMessageAt: toTimestamptz(input.At),
		})
		if err != nil {
			return existing, false, fmt.Errorf("%w: %w", ErrUpdateFailed, err)
		}
		return toConversation(row), false, nil
	case !errors.Is(err, ErrNotFound):
		return Conversation{}, false, err
	}

	pgAccountID, err := dbpkg.ParseUUID(input.AccountID)
	if err != nil {
		return Conversation{}, false, fmt.Errorf("invalid account id: %w", err)
	}
	row, err := s.queries.CreateConversation(ctx, sqlc.CreateConversationParams{
		UserID:                 pgAccountID,
		CustomerName:           DisplayName(input.Platform, input.SenderID),
		Platform:               input.Platform.String(),
		PlatformConversationID: input.SenderID,
		PageID:                 input.PageID,
		LastMessage:            input.Text,
		LastMessageAt:          toTimestamptz(input.At),
	})
	if err != nil {
		return Conversation{}, false, fmt.Errorf("create conversation: %w", err)
	}
	s.logger.Info("conversation created",
		slog.String("conversation_id", dbpkg.UUIDToString(row.ID)),
		slog.String("platform", row.Platform),
		slog.String("page_id", row.PageID),
	)
	return toConversation(row), true, nil
}

// Lookup finds the conversation for a thread tuple.
func (s *DBService) Lookup(ctx context.Context, thread Thread) (Conversation, error) {
	pgAccountID, err := dbpkg.ParseUUID(thread.AccountID)
	if err != nil {
		return Conversation{}, fmt.Errorf("invalid account id: %w", err)
	}
	if !thread.Platform.Valid() {
		return Conversation{}, fmt.Errorf("invalid platform %q", thread.Platform)
	}
	row, err := s.queries.GetConversationByThread(ctx, sqlc.GetConversationByThreadParams{
		UserID:                 pgAccountID,
		Platform:               thread.Platform.String(),
		PlatformConversationID: thread.SenderID,
		PageID:                 thread.PageID,
	})
	if err != nil {
		return Conversation{}, mapNotFound(err)
	}
	return toConversation(row), nil
}

// RecordReply sets the preview fields after an agent reply. Unread count and
// status are untouched.
func (s *DBService) RecordReply(ctx context.Context, conversationID, text string, at time.Time) (Conversation, error) {
	pgID, err := dbpkg.ParseUUID(conversationID)
	if err != nil {
		return Conversation{}, err
	}
	row, err := s.queries.UpdateConversationLastMessage(ctx, sqlc.UpdateConversationLastMessageParams{
		ID:            pgID,
		LastMessage:   text,
		LastMessageAt: toTimestamptz(at),
	})
	if err != nil {
		return Conversation{}, mapNotFound(err)
	}
	return toConversation(row), nil
}

func (s *DBService) Get(ctx context.Context, conversationID string) (Conversation, error) {
	pgID, err := dbpkg.ParseUUID(conversationID)
	if err != nil {
		return Conversation{}, err
	}
	row, err := s.queries.GetConversationByID(ctx, pgID)
	if err != nil {
		return Conversation{}, mapNotFound(err)
	}
	return toConversation(row), nil
}

// ListByAccount returns the account's conversations, most recent activity first.
func (s *DBService) ListByAccount(ctx context.Context, accountID string, limit int32) ([]Conversation, error) {
	pgAccountID, err := dbpkg.ParseUUID(accountID)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	rows, err := s.queries.ListConversationsByUser(ctx, sqlc.ListConversationsByUserParams{
		UserID: pgAccountID,
		Limit:  limit,
	})
	if err != nil {
		return nil, err
	}
	items := make([]Conversation, 0, len(rows))
	for _, row := range rows {
		items = append(items, toConversation(row))
	}
	return items, nil
}

func (s *DBService) SetStatus(ctx context.Context, conversationID, status string) (Conversation, error) {
	status = strings.ToLower(strings.TrimSpace(status))
	if !ValidStatus(status) {
		return Conversation{}, fmt.Errorf("invalid status %q", status)
	}
	pgID, err := dbpkg.ParseUUID(conversationID)
	if err != nil {
		return Conversation{}, err
	}
	row, err := s.queries.UpdateConversationStatus(ctx, sqlc.UpdateConversationStatusParams{ID: pgID, Status: status})
	if err != nil {
		return Conversation{}, mapNotFound(err)
	}
	return toConversation(row), nil
}

// MarkRead zeroes the unread count. Only the admin surface calls this.
func (s *DBService) MarkRead(ctx context.Context, conversationID string) (Conversation, error) {
	pgID, err := dbpkg.ParseUUID(conversationID)
	if err != nil {
		return Conversation{}, err
	}
	row, err := s.queries.MarkConversationRead(ctx, pgID)
	if err != nil {
		return Conversation{}, mapNotFound(err)
	}
	return toConversation(row), nil
}

func mapNotFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func toTimestamptz(t time.Time) pgtype.Timestamptz {
	if t.IsZero() {
		t = time.Now()
	}
	return pgtype.Timestamptz{Time: t.UTC(), Valid: true}
}

func toConversation(row sqlc.Conversation) Conversation {
	kind, _ := platform.Parse(row.Platform)
	return Conversation{
		ID:                     dbpkg.UUIDToString(row.ID),
		AccountID:              dbpkg.UUIDToString(row.UserID),
		CustomerName:           row.CustomerName,
		Platform:               kind,
		PlatformConversationID: row.PlatformConversationID,
		PageID:                 row.PageID,
		Status:                 row.Status,
		LastMessage:            row.LastMessage,
		LastMessageAt:          row.LastMessageAt.Time,
		UnreadCount:            int(row.UnreadCount),
		CreatedAt:              row.CreatedAt.Time,
		UpdatedAt:              row.UpdatedAt.Time,
	}
}
