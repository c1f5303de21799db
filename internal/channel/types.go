package channel

import (
	"strings"

	"github.com/beybot/beybot/internal/platform"
)

// ChannelType identifies an outbound channel. Values match platform.Kind.
type ChannelType string

func (c ChannelType) String() string {
	return string(c)
}

// TypeFor maps a platform kind onto its channel type.
func TypeFor(kind platform.Kind) ChannelType {
	return ChannelType(kind)
}

func normalizeChannelType(raw string) ChannelType {
	return ChannelType(strings.ToLower(strings.TrimSpace(raw)))
}

// Credentials is the page-scoped credential an adapter sends with.
type Credentials struct {
	PageID      string
	AccessToken string
}

// OutboundMessage is one already-chunked text message to a single recipient.
type OutboundMessage struct {
	Target string
	Text   string
}
