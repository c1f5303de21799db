// Package messenger sends replies through the Graph Send API for both
// Messenger and Instagram recipients.
package messenger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/beybot/beybot/internal/channel"
	"github.com/beybot/beybot/internal/platform"
)

const (
	MessengerType = channel.ChannelType(platform.Messenger)
	InstagramType = channel.ChannelType(platform.Instagram)

	messengerTextLimit = 2000
	instagramTextLimit = 1000
)

// Adapter is a Graph-backed channel adapter. One instance serves one
// channel type; both share the same GraphClient.
type Adapter struct {
	channelType channel.ChannelType
	displayName string
	textLimit   int
	client      *GraphClient
	logger      *slog.Logger
}

func NewMessengerAdapter(log *slog.Logger, client *GraphClient) *Adapter {
	return newAdapter(log, client, MessengerType, "Messenger", messengerTextLimit)
}

func NewInstagramAdapter(log *slog.Logger, client *GraphClient) *Adapter {
	return newAdapter(log, client, InstagramType, "Instagram", instagramTextLimit)
}

func newAdapter(log *slog.Logger, client *GraphClient, ct channel.ChannelType, name string, limit int) *Adapter {
	if log == nil {
		log = slog.Default()
	}
	return &Adapter{
		channelType: ct,
		displayName: name,
		textLimit:   limit,
		client:      client,
		logger:      log.With(slog.String("adapter", ct.String())),
	}
}

func (a *Adapter) Type() channel.ChannelType {
	return a.channelType
}

func (a *Adapter) Descriptor() channel.Descriptor {
	return channel.Descriptor{
		Type:        a.channelType,
		DisplayName: a.displayName,
		OutboundPolicy: channel.OutboundPolicy{
			TextChunkLimit: a.textLimit,
			ChunkerMode:    channel.ChunkerModeParagraph,
		},
	}
}

func (a *Adapter) Send(ctx context.Context, creds channel.Credentials, msg channel.OutboundMessage) error {
	if a.client == nil {
		return fmt.Errorf("%s graph client not configured", a.channelType)
	}
	target := strings.TrimSpace(msg.Target)
	if target == "" {
		return fmt.Errorf("%s target is required", a.channelType)
	}
	result, err := a.client.SendText(ctx, creds.AccessToken, target, msg.Text)
	if err != nil {
		return err
	}
	a.logger.Debug("message sent",
		slog.String("page_id", creds.PageID),
		slog.String("message_id", result.MessageID),
	)
	return nil
}

// Register adds the Messenger and Instagram adapters to registry.
func Register(log *slog.Logger, registry *channel.Registry, client *GraphClient) {
	registry.MustRegister(NewMessengerAdapter(log, client))
	registry.MustRegister(NewInstagramAdapter(log, client))
}
