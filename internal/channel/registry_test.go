package channel_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/beybot/beybot/internal/channel"
)

type recordingAdapter struct {
	channelType channel.ChannelType
	limit       int
	failOn      int

	mu   sync.Mutex
	sent []channel.OutboundMessage
}

func (a *recordingAdapter) Type() channel.ChannelType { return a.channelType }

func (a *recordingAdapter) Descriptor() channel.Descriptor {
	return channel.Descriptor{
		Type:           a.channelType,
		DisplayName:    "Recording",
		OutboundPolicy: channel.OutboundPolicy{TextChunkLimit: a.limit},
	}
}

func (a *recordingAdapter) Send(_ context.Context, _ channel.Credentials, msg channel.OutboundMessage) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.failOn > 0 && len(a.sent)+1 == a.failOn {
		return errors.New("graph down")
	}
	a.sent = append(a.sent, msg)
	return nil
}

type describeOnly struct{ channelType channel.ChannelType }

func (a describeOnly) Type() channel.ChannelType { return a.channelType }
func (a describeOnly) Descriptor() channel.Descriptor {
	return channel.Descriptor{Type: a.channelType}
}

func TestRegistryRegisterRejectsDuplicates(t *testing.T) {
	t.Parallel()
	reg := channel.NewRegistry()
	if err := reg.Register(&recordingAdapter{channelType: "messenger"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := reg.Register(&recordingAdapter{channelType: " Messenger "}); err == nil {
		t.Fatal("expected duplicate registration error")
	}
	if err := reg.Register(nil); err == nil {
		t.Fatal("expected nil adapter error")
	}
	if got := reg.Types(); len(got) != 1 || got[0] != "messenger" {
		t.Fatalf("Types() = %v", got)
	}
}

func TestRegistryGetSenderRequiresSender(t *testing.T) {
	t.Parallel()
	reg := channel.NewRegistry()
	reg.MustRegister(describeOnly{channelType: "instagram"})
	if _, ok := reg.GetSender("instagram"); ok {
		t.Fatal("describe-only adapter must not be a sender")
	}
	policy, ok := reg.GetOutboundPolicy("instagram")
	if !ok || policy.TextChunkLimit != 2000 {
		t.Fatalf("GetOutboundPolicy = %+v, %v", policy, ok)
	}
}

func TestDispatcherRoutesByRecipientShape(t *testing.T) {
	t.Parallel()
	messenger := &recordingAdapter{channelType: "messenger", limit: 2000}
	instagram := &recordingAdapter{channelType: "instagram", limit: 1000}
	reg := channel.NewRegistry()
	reg.MustRegister(messenger)
	reg.MustRegister(instagram)
	d := channel.NewDispatcher(nil, reg)
	creds := channel.Credentials{PageID: "p", AccessToken: "tok"}

	if _, err := d.Send(context.Background(), creds, "1234567890", "hello"); err != nil {
		t.Fatalf("messenger send: %v", err)
	}
	delivery, err := d.Send(context.Background(), creds, "ig_1234", "salam")
	if err != nil {
		t.Fatalf("instagram send: %v", err)
	}
	if delivery.Channel != "instagram" || delivery.Chunks != 1 {
		t.Fatalf("unexpected delivery %+v", delivery)
	}
	if len(messenger.sent) != 1 || messenger.sent[0].Target != "1234567890" {
		t.Fatalf("messenger sent %+v", messenger.sent)
	}
	if len(instagram.sent) != 1 || instagram.sent[0].Text != "salam" {
		t.Fatalf("instagram sent %+v", instagram.sent)
	}
}

func TestDispatcherChunksAndStopsOnFailure(t *testing.T) {
	t.Parallel()
	adapter := &recordingAdapter{channelType: "messenger", limit: 5, failOn: 2}
	reg := channel.NewRegistry()
	reg.MustRegister(adapter)
	d := channel.NewDispatcher(nil, reg)

	delivery, err := d.Send(context.Background(), channel.Credentials{AccessToken: "tok"}, "42", strings.Repeat("a", 12))
	if err == nil {
		t.Fatal("expected error from second chunk")
	}
	if delivery.Chunks != 1 || len(adapter.sent) != 1 {
		t.Fatalf("expected exactly one delivered chunk, got %+v / %d", delivery, len(adapter.sent))
	}
}

func TestDispatcherValidatesInput(t *testing.T) {
	t.Parallel()
	reg := channel.NewRegistry()
	reg.MustRegister(&recordingAdapter{channelType: "messenger"})
	d := channel.NewDispatcher(nil, reg)
	ctx := context.Background()

	if _, err := d.Send(ctx, channel.Credentials{AccessToken: "tok"}, " ", "hi"); !errors.Is(err, channel.ErrNoRecipient) {
		t.Fatalf("expected ErrNoRecipient, got %v", err)
	}
	if _, err := d.Send(ctx, channel.Credentials{}, "42", "hi"); !errors.Is(err, channel.ErrMissingCredential) {
		t.Fatalf("expected ErrMissingCredential, got %v", err)
	}
	if _, err := d.Send(ctx, channel.Credentials{AccessToken: "tok"}, "42", "  "); !errors.Is(err, channel.ErrEmptyText) {
		t.Fatalf("expected ErrEmptyText, got %v", err)
	}
	if _, err := d.Send(ctx, channel.Credentials{AccessToken: "tok"}, "ig_1", "hi"); err == nil {
		t.Fatal("expected error for unregistered instagram adapter")
	}
}
