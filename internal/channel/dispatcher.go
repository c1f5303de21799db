package channel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/beybot/beybot/internal/platform"
)

var (
	ErrNoRecipient       = errors.New("recipient id is required")
	ErrEmptyText         = errors.New("message text is required")
	ErrMissingCredential = errors.New("page access token is required")
)

// Delivery reports how a dispatch went.
type Delivery struct {
	Channel ChannelType
	Chunks  int
}

// Dispatcher picks the adapter for a recipient and sends text through it.
type Dispatcher struct {
	registry *Registry
	logger   *slog.Logger
}

func NewDispatcher(log *slog.Logger, registry *Registry) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	return &Dispatcher{
		registry: registry,
		logger:   log.With(slog.String("component", "dispatcher")),
	}
}

// Send delivers text to recipientID over the channel implied by the id's
// shape. Text longer than the channel limit goes out as several messages in
// order; the first failing chunk stops the dispatch.
func (d *Dispatcher) Send(ctx context.Context, creds Credentials, recipientID, text string) (Delivery, error) {
	recipientID = strings.TrimSpace(recipientID)
	if recipientID == "" {
		return Delivery{}, ErrNoRecipient
	}
	if strings.TrimSpace(creds.AccessToken) == "" {
		return Delivery{}, ErrMissingCredential
	}
	channelType := TypeFor(platform.Classify(recipientID))
	sender, ok := d.registry.GetSender(channelType)
	if !ok {
		return Delivery{}, fmt.Errorf("no sender registered for channel %s", channelType)
	}
	policy, _ := d.registry.GetOutboundPolicy(channelType)
	chunks := policy.Chunker(text, policy.TextChunkLimit)
	if len(chunks) == 0 {
		return Delivery{}, ErrEmptyText
	}

	delivery := Delivery{Channel: channelType}
	for i, chunk := range chunks {
		if err := sender.Send(ctx, creds, OutboundMessage{Target: recipientID, Text: chunk}); err != nil {
			d.logger.Warn("send chunk failed",
				slog.String("channel", channelType.String()),
				slog.String("page_id", creds.PageID),
				slog.Int("chunk", i+1),
				slog.Int("chunks", len(chunks)),
				slog.Any("error", err),
			)
			return delivery, fmt.Errorf("send via %s: %w", channelType, err)
		}
		delivery.Chunks++
	}
	return delivery, nil
}
