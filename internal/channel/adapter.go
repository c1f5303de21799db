package channel

import "context"

// Adapter is the base interface every channel adapter must implement.
type Adapter interface {
	Type() ChannelType
	Descriptor() Descriptor
}

// Descriptor holds read-only metadata for a registered channel type.
type Descriptor struct {
	Type           ChannelType
	DisplayName    string
	OutboundPolicy OutboundPolicy
}

// Sender is an adapter capable of sending outbound messages.
type Sender interface {
	Send(ctx context.Context, creds Credentials, msg OutboundMessage) error
}
