// Package inbound turns one platform messaging event into conversation and
// message state, then schedules the AI reply.
package inbound

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/beybot/beybot/internal/agent"
	"github.com/beybot/beybot/internal/conversation"
	"github.com/beybot/beybot/internal/jobs"
	"github.com/beybot/beybot/internal/message"
	"github.com/beybot/beybot/internal/pages"
	"github.com/beybot/beybot/internal/platform"
)

// Outcome says what happened to an event.
type Outcome string

const (
	OutcomeStored          Outcome = "stored"
	OutcomeSkippedNoText   Outcome = "skipped_no_text"
	OutcomeSkippedDisabled Outcome = "skipped_disabled"
	OutcomeSkippedEcho     Outcome = "skipped_echo"
	OutcomeDuplicate       Outcome = "duplicate"
)

// Event is one messaging entry of a page notification.
type Event struct {
	SenderID    string
	RecipientID string
	// Timestamp is the platform time in Unix milliseconds.
	Timestamp int64
	Text      string
	MessageID string
	IsEcho    bool
}

type MessageStore interface {
	message.Writer
	SeenPlatformMessage(ctx context.Context, pageID, platformMessageID string) (bool, error)
}

type Enqueuer interface {
	Enqueue(ctx context.Context, job jobs.Job) error
}

type Processor struct {
	conversations conversation.Resolver
	messages      MessageStore
	queue         Enqueuer
	logger        *slog.Logger
}

func NewProcessor(log *slog.Logger, conversations conversation.Resolver, messages MessageStore, queue Enqueuer) *Processor {
	if log == nil {
		log = slog.Default()
	}
	return &Processor{
		conversations: conversations,
		messages:      messages,
		queue:         queue,
		logger:        log.With(slog.String("component", "inbound")),
	}
}

// HandleEvent processes one event for page. A returned error concerns this
// event only; the caller logs it and moves on to the next event.
//
// The conversation is updated before the message is inserted and the two
// writes are independent: a failed insert leaves the conversation update in
// place and schedules no reply.
func (p *Processor) HandleEvent(ctx context.Context, page pages.Page, ev Event) (Outcome, error) {
	if ev.IsEcho {
		return OutcomeSkippedEcho, nil
	}
	text := ev.Text
	if strings.TrimSpace(text) == "" {
		return OutcomeSkippedNoText, nil
	}
	senderID := strings.TrimSpace(ev.SenderID)
	if senderID == "" {
		return "", errors.New("event has no sender id")
	}
	kind := platform.Classify(senderID)
	if !page.Enabled(kind) {
		p.logger.Debug("platform disabled for page",
			slog.String("page_id", page.PageID),
			slog.String("platform", kind.String()),
		)
		return OutcomeSkippedDisabled, nil
	}

	seen, err := p.messages.SeenPlatformMessage(ctx, page.PageID, ev.MessageID)
	if err != nil {
		return "", fmt.Errorf("check duplicate: %w", err)
	}
	if seen {
		return OutcomeDuplicate, nil
	}

	at := eventTime(ev.Timestamp)
	conv, _, err := p.conversations.ResolveInbound(ctx, conversation.InboundInput{
		Thread: conversation.Thread{
			AccountID: page.AccountID,
			Platform:  kind,
			SenderID:  senderID,
			PageID:    page.PageID,
		},
		Text: text,
		At:   at,
	})
	switch {
	case errors.Is(err, conversation.ErrUpdateFailed) && conv.ID != "":
		// The message is stored against the existing row anyway.
		p.logger.Error("update conversation failed",
			slog.String("conversation_id", conv.ID),
			slog.Any("error", err),
		)
	case err != nil:
		return "", fmt.Errorf("resolve conversation: %w", err)
	}

	if _, err := p.messages.Persist(ctx, message.PersistInput{
		ConversationID:    conv.ID,
		AccountID:         page.AccountID,
		Sender:            message.SenderCustomer,
		Content:           text,
		PlatformMessageID: ev.MessageID,
		CreatedAt:         at,
	}); err != nil {
		if errors.Is(err, message.ErrDuplicate) {
			return OutcomeDuplicate, nil
		}
		return "", fmt.Errorf("persist message: %w", err)
	}

	p.scheduleReply(ctx, agent.Request{
		ConversationID: conv.ID,
		AccountID:      page.AccountID,
		PageID:         page.PageID,
		SenderID:       senderID,
		MessageText:    text,
	})
	return OutcomeStored, nil
}

func (p *Processor) scheduleReply(ctx context.Context, req agent.Request) {
	if p.queue == nil {
		return
	}
	job, err := agent.NewRespondJob(req)
	if err == nil {
		err = p.queue.Enqueue(ctx, job)
	}
	if err != nil {
		p.logger.Error("enqueue ai response failed",
			slog.String("conversation_id", req.ConversationID),
			slog.Any("error", err),
		)
	}
}

func eventTime(ms int64) time.Time {
	if ms <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}
