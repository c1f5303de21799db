package message

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dbpkg "github.com/beybot/beybot/internal/db"
	"github.com/beybot/beybot/internal/db/memdb"
	"github.com/beybot/beybot/internal/db/sqlc"
	"github.com/beybot/beybot/internal/message/event"
)

func newConversation(t *testing.T, store *memdb.Store) string {
	t.Helper()
	conv, err := store.CreateConversation(context.Background(), sqlc.CreateConversationParams{
		UserID:                 dbpkg.NewUUID(),
		CustomerName:           "Messenger User 123456",
		Platform:               "messenger",
		PlatformConversationID: "123456",
		PageID:                 "page-1",
	})
	require.NoError(t, err)
	return dbpkg.UUIDToString(conv.ID)
}

func TestPersistStoresPlatformTimestampAndPublishes(t *testing.T) {
	store := memdb.New()
	hub := event.NewHub()
	svc := NewService(nil, store, hub)
	convID := newConversation(t, store)

	_, events, cancel := hub.Subscribe("acct-1", 4)
	defer cancel()

	at := time.UnixMilli(1_700_000_000_000).UTC()
	msg, err := svc.Persist(context.Background(), PersistInput{
		ConversationID:    convID,
		AccountID:         "acct-1",
		Sender:            SenderCustomer,
		Content:           "Bonjour",
		PlatformMessageID: "mid.1",
		CreatedAt:         at,
	})
	require.NoError(t, err)
	assert.Equal(t, convID, msg.ConversationID)
	assert.Equal(t, SenderCustomer, msg.Sender)
	assert.True(t, at.Equal(msg.CreatedAt))
	assert.Equal(t, "mid.1", msg.PlatformMessageID)

	select {
	case ev := <-events:
		assert.Equal(t, event.EventTypeMessageCreated, ev.Type)
		var published Message
		require.NoError(t, json.Unmarshal(ev.Data, &published))
		assert.Equal(t, msg.ID, published.ID)
	default:
		t.Fatal("expected message.created event")
	}
}

func TestPersistZeroTimeUsesNow(t *testing.T) {
	store := memdb.New()
	svc := NewService(nil, store)
	fixed := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	msg, err := svc.Persist(context.Background(), PersistInput{
		ConversationID: newConversation(t, store),
		Sender:         SenderAgent,
		Content:        "Merci",
	})
	require.NoError(t, err)
	assert.True(t, fixed.Equal(msg.CreatedAt))
	assert.Empty(t, msg.PlatformMessageID)
}

func TestPersistDuplicatePlatformID(t *testing.T) {
	store := memdb.New()
	svc := NewService(nil, store)
	input := PersistInput{
		ConversationID:    newConversation(t, store),
		Sender:            SenderCustomer,
		Content:           "hi",
		PlatformMessageID: "mid.dup",
	}
	_, err := svc.Persist(context.Background(), input)
	require.NoError(t, err)
	_, err = svc.Persist(context.Background(), input)
	assert.ErrorIs(t, err, ErrDuplicate)

	seen, err := svc.SeenPlatformMessage(context.Background(), "page-1", "mid.dup")
	require.NoError(t, err)
	assert.True(t, seen)
}

func TestPersistRejectsBadInput(t *testing.T) {
	svc := NewService(nil, memdb.New())
	_, err := svc.Persist(context.Background(), PersistInput{ConversationID: "nope", Sender: SenderAgent})
	assert.Error(t, err)
	_, err = svc.Persist(context.Background(), PersistInput{ConversationID: dbpkg.UUIDToString(dbpkg.NewUUID()), Sender: "bot"})
	assert.Error(t, err)
}

func TestPersistPropagatesStoreError(t *testing.T) {
	store := memdb.New()
	svc := NewService(nil, store)
	convID := newConversation(t, store)
	boom := errors.New("db down")
	store.FailOn("CreateMessage", boom)

	_, err := svc.Persist(context.Background(), PersistInput{ConversationID: convID, Sender: SenderAgent, Content: "x"})
	assert.ErrorIs(t, err, boom)
}

func TestListRecentOrdersAscending(t *testing.T) {
	store := memdb.New()
	svc := NewService(nil, store)
	convID := newConversation(t, store)
	base := time.Unix(1_700_000_000, 0).UTC()
	for i := 0; i < 3; i++ {
		_, err := svc.Persist(context.Background(), PersistInput{
			ConversationID: convID,
			Sender:         SenderCustomer,
			Content:        string(rune('a' + i)),
			CreatedAt:      base.Add(time.Duration(2-i) * time.Minute),
		})
		require.NoError(t, err)
	}
	msgs, err := svc.ListRecent(context.Background(), convID, 20)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, "c", msgs[0].Content)
	assert.Equal(t, "a", msgs[2].Content)

	seen, err := svc.SeenPlatformMessage(context.Background(), "page-1", "")
	require.NoError(t, err)
	assert.False(t, seen)
}
