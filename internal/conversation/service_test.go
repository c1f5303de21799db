package conversation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dbpkg "github.com/beybot/beybot/internal/db"
	"github.com/beybot/beybot/internal/db/memdb"
	"github.com/beybot/beybot/internal/platform"
)

func testThread() Thread {
	return Thread{
		AccountID: dbpkg.UUIDToString(dbpkg.NewUUID()),
		Platform:  platform.Messenger,
		SenderID:  "24011234567890",
		PageID:    "page-1",
	}
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "messenger User 567890", DisplayName(platform.Messenger, "24011234567890"))
	assert.Equal(t, "instagram User _ab12", DisplayName(platform.Instagram, "_ab12"))
}

func TestResolveInboundCreatesThenUpdates(t *testing.T) {
	store := memdb.New()
	svc := NewService(nil, store)
	ctx := context.Background()
	thread := testThread()
	t0 := time.Unix(1_700_000_000, 0).UTC()

	created, isNew, err := svc.ResolveInbound(ctx, InboundInput{Thread: thread, Text: "Salut", At: t0})
	require.NoError(t, err)
	assert.True(t, isNew)
	assert.Equal(t, "messenger User 567890", created.CustomerName)
	assert.Equal(t, StatusActive, created.Status)
	assert.Equal(t, 1, created.UnreadCount)
	assert.Equal(t, "Salut", created.LastMessage)
	assert.True(t, t0.Equal(created.LastMessageAt))

	_, err = svc.SetStatus(ctx, created.ID, StatusResolved)
	require.NoError(t, err)

	t1 := t0.Add(time.Minute)
	updated, isNew, err := svc.ResolveInbound(ctx, InboundInput{Thread: thread, Text: "Encore", At: t1})
	require.NoError(t, err)
	assert.False(t, isNew)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, 2, updated.UnreadCount)
	assert.Equal(t, StatusActive, updated.Status)
	assert.Equal(t, "Encore", updated.LastMessage)

	assert.Len(t, store.Conversations(), 1)
}

func TestResolveInboundSeparatesPlatformsAndPages(t *testing.T) {
	store := memdb.New()
	svc := NewService(nil, store)
	ctx := context.Background()
	thread := testThread()

	_, _, err := svc.ResolveInbound(ctx, InboundInput{Thread: thread, Text: "a"})
	require.NoError(t, err)
	other := thread
	other.PageID = "page-2"
	_, isNew, err := svc.ResolveInbound(ctx, InboundInput{Thread: other, Text: "b"})
	require.NoError(t, err)
	assert.True(t, isNew)
	assert.Len(t, store.Conversations(), 2)
}

func TestResolveInboundLookupFailureAborts(t *testing.T) {
	store := memdb.New()
	svc := NewService(nil, store)
	boom := errors.New("db down")
	store.FailOn("GetConversationByThread", boom)

	_, _, err := svc.ResolveInbound(context.Background(), InboundInput{Thread: testThread(), Text: "a"})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, store.Calls("CreateConversation"))
}

func TestResolveInboundUpdateFailureReturnsExisting(t *testing.T) {
	store := memdb.New()
	svc := NewService(nil, store)
	ctx := context.Background()
	thread := testThread()

	created, _, err := svc.ResolveInbound(ctx, InboundInput{Thread: thread, Text: "a"})
	require.NoError(t, err)
	boom := errors.New("deadlock detected")
	store.FailOn("UpdateConversationInbound", boom)

	conv, isNew, err := svc.ResolveInbound(ctx, InboundInput{Thread: thread, Text: "b"})
	assert.ErrorIs(t, err, ErrUpdateFailed)
	assert.ErrorIs(t, err, boom)
	assert.False(t, isNew)
	assert.Equal(t, created.ID, conv.ID)
	assert.Equal(t, "a", conv.LastMessage)
}

func TestRecordReplyLeavesUnreadAlone(t *testing.T) {
	store := memdb.New()
	svc := NewService(nil, store)
	ctx := context.Background()
	conv, _, err := svc.ResolveInbound(ctx, InboundInput{Thread: testThread(), Text: "q"})
	require.NoError(t, err)

	at := time.Unix(1_700_000_500, 0).UTC()
	updated, err := svc.RecordReply(ctx, conv.ID, "answer", at)
	require.NoError(t, err)
	assert.Equal(t, "answer", updated.LastMessage)
	assert.True(t, at.Equal(updated.LastMessageAt))
	assert.Equal(t, 1, updated.UnreadCount)
}

func TestAdminOperations(t *testing.T) {
	store := memdb.New()
	svc := NewService(nil, store)
	ctx := context.Background()
	thread := testThread()
	conv, _, err := svc.ResolveInbound(ctx, InboundInput{Thread: thread, Text: "q"})
	require.NoError(t, err)

	read, err := svc.MarkRead(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, read.UnreadCount)

	_, err = svc.SetStatus(ctx, conv.ID, "archived")
	assert.Error(t, err)

	list, err := svc.ListByAccount(ctx, thread.AccountID, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, conv.ID, list[0].ID)

	_, err = svc.Get(ctx, dbpkg.UUIDToString(dbpkg.NewUUID()))
	assert.ErrorIs(t, err, ErrNotFound)
}
