package message

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	dbpkg "github.com/beybot/beybot/internal/db"
	"github.com/beybot/beybot/internal/db/sqlc"
	"github.com/beybot/beybot/internal/message/event"
)

// DBService persists and reads conversation messages.
type DBService struct {
	queries   sqlc.Querier
	logger    *slog.Logger
	publisher event.Publisher
	now       func() time.Time
}

// NewService creates a message service.
func NewService(log *slog.Logger, queries sqlc.Querier, publishers ...event.Publisher) *DBService {
	if log == nil {
		log = slog.Default()
	}
	var publisher event.Publisher
	if len(publishers) > 0 {
		publisher = publishers[0]
	}
	return &DBService{
		queries:   queries,
		logger:    log.With(slog.String("service", "message")),
		publisher: publisher,
		now:       time.Now,
	}
}

var _ Service = (*DBService)(nil)

// Persist appends a single message row. Rows are never updated afterwards.
func (s *DBService) Persist(ctx context.Context, input PersistInput) (Message, error) {
	pgConversationID, err := dbpkg.ParseUUID(input.ConversationID)
	if err != nil {
		return Message{}, fmt.Errorf("invalid conversation id: %w", err)
	}
	if !input.Sender.Valid() {
		return Message{}, fmt.Errorf("invalid sender %q", input.Sender)
	}
	createdAt := input.CreatedAt
	if createdAt.IsZero() {
		createdAt = s.now()
	}

	row, err := s.queries.CreateMessage(ctx, sqlc.CreateMessageParams{
		ConversationID:    pgConversationID,
		Sender:            string(input.Sender),
		Content:           input.Content,
		PlatformMessageID: dbpkg.StringToText(input.PlatformMessageID),
		CreatedAt:         pgtype.Timestamptz{Time: createdAt.UTC(), Valid: true},
	})
	if err != nil {
		if dbpkg.IsUniqueViolation(err) {
			return Message{}, ErrDuplicate
		}
		return Message{}, err
	}

	result := toMessage(row)
	s.publishMessageCreated(input.AccountID, result)
	return result, nil
}

// List returns every message of a conversation, oldest first.
func (s *DBService) List(ctx context.Context, conversationID string) ([]Message, error) {
	pgConversationID, err := dbpkg.ParseUUID(conversationID)
	if err != nil {
		return nil, err
	}
	rows, err := s.queries.ListMessagesByConversation(ctx, pgConversationID)
	if err != nil {
		return nil, err
	}
	return toMessages(rows), nil
}

// ListRecent returns the latest limit messages of a conversation, oldest first.
func (s *DBService) ListRecent(ctx context.Context, conversationID string, limit int32) ([]Message, error) {
	pgConversationID, err := dbpkg.ParseUUID(conversationID)
	if err != nil {
		return nil, err
	}
	rows, err := s.queries.ListRecentMessages(ctx, sqlc.ListRecentMessagesParams{
		ConversationID: pgConversationID,
		Limit:          limit,
	})
	if err != nil {
		return nil, err
	}
	return toMessages(rows), nil
}

// SeenPlatformMessage reports whether a platform message id was already
// stored for any conversation of the page.
func (s *DBService) SeenPlatformMessage(ctx context.Context, pageID, platformMessageID string) (bool, error) {
	platformMessageID = strings.TrimSpace(platformMessageID)
	if platformMessageID == "" {
		return false, nil
	}
	return s.queries.ExistsMessageByPlatformID(ctx, sqlc.ExistsMessageByPlatformIDParams{
		PageID:            strings.TrimSpace(pageID),
		PlatformMessageID: dbpkg.StringToText(platformMessageID),
	})
}

func toMessage(row sqlc.Message) Message {
	return Message{
		ID:                dbpkg.UUIDToString(row.ID),
		ConversationID:    dbpkg.UUIDToString(row.ConversationID),
		Sender:            Sender(row.Sender),
		Content:           row.Content,
		PlatformMessageID: dbpkg.TextToString(row.PlatformMessageID),
		CreatedAt:         row.CreatedAt.Time,
	}
}

func toMessages(rows []sqlc.Message) []Message {
	messages := make([]Message, 0, len(rows))
	for _, row := range rows {
		messages = append(messages, toMessage(row))
	}
	return messages
}

func (s *DBService) publishMessageCreated(accountID string, message Message) {
	if s.publisher == nil || strings.TrimSpace(accountID) == "" {
		return
	}
	payload, err := json.Marshal(message)
	if err != nil {
		s.logger.Warn("marshal message event failed", slog.Any("error", err))
		return
	}
	s.publisher.Publish(event.Event{
		Type:      event.EventTypeMessageCreated,
		AccountID: strings.TrimSpace(accountID),
		Data:      payload,
	})
}
