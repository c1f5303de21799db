package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubDeliversToMatchingAccount(t *testing.T) {
	hub := NewHub()
	_, mine, cancelMine := hub.Subscribe("acct-1", 4)
	defer cancelMine()
	_, other, cancelOther := hub.Subscribe("acct-2", 4)
	defer cancelOther()

	hub.Publish(Event{Type: EventTypeMessageCreated, AccountID: "acct-1", Data: []byte(`{"id":"m1"}`)})

	select {
	case ev := <-mine:
		assert.Equal(t, EventTypeMessageCreated, ev.Type)
		assert.JSONEq(t, `{"id":"m1"}`, string(ev.Data))
	default:
		t.Fatal("expected event for acct-1")
	}
	select {
	case ev := <-other:
		t.Fatalf("unexpected event for acct-2: %+v", ev)
	default:
	}
}

func TestHubDropsWhenSubscriberIsFull(t *testing.T) {
	hub := NewHub()
	_, ch, cancel := hub.Subscribe("acct", 1)
	defer cancel()

	hub.Publish(Event{Type: EventTypeMessageCreated, AccountID: "acct"})
	hub.Publish(Event{Type: EventTypeMessageCreated, AccountID: "acct"})

	require.Len(t, ch, 1)
}

func TestHubCancelIsIdempotent(t *testing.T) {
	hub := NewHub()
	_, ch, cancel := hub.Subscribe("acct", 1)
	assert.Equal(t, 1, hub.SubscriberCount("acct"))
	cancel()
	cancel()
	assert.Equal(t, 0, hub.SubscriberCount("acct"))
	_, ok := <-ch
	assert.False(t, ok)

	hub.Publish(Event{Type: EventTypeMessageCreated, AccountID: "acct"})
}
