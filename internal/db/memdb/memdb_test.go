package memdb

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beybot/beybot/internal/db"
	"github.com/beybot/beybot/internal/db/sqlc"
)

func ts(sec int64) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: time.Unix(sec, 0).UTC(), Valid: true}
}

func TestStoreMissesReturnErrNoRows(t *testing.T) {
	s := New()
	ctx := context.Background()

	_, err := s.GetPageByPageID(ctx, "nope")
	assert.True(t, errors.Is(err, pgx.ErrNoRows))
	_, err = s.GetAgentConfig(ctx, db.NewUUID())
	assert.True(t, errors.Is(err, pgx.ErrNoRows))
	_, err = s.GetSystemSetting(ctx, "gemini_api_key")
	assert.True(t, errors.Is(err, pgx.ErrNoRows))
}

func TestStoreRecentMessagesWindow(t *testing.T) {
	s := New()
	ctx := context.Background()
	conv, err := s.CreateConversation(ctx, sqlc.CreateConversationParams{
		UserID: db.NewUUID(), CustomerName: "x", Platform: "messenger",
		PlatformConversationID: "1", PageID: "p", LastMessageAt: ts(1),
	})
	require.NoError(t, err)
	for i := int64(1); i <= 25; i++ {
		_, err := s.CreateMessage(ctx, sqlc.CreateMessageParams{
			ConversationID: conv.ID, Sender: "customer", Content: "m", CreatedAt: ts(i),
		})
		require.NoError(t, err)
	}
	recent, err := s.ListRecentMessages(ctx, sqlc.ListRecentMessagesParams{ConversationID: conv.ID, Limit: 20})
	require.NoError(t, err)
	require.Len(t, recent, 20)
	assert.Equal(t, int64(6), recent[0].CreatedAt.Time.Unix())
	assert.Equal(t, int64(25), recent[19].CreatedAt.Time.Unix())
}

func TestStoreDuplicatePlatformMessage(t *testing.T) {
	s := New()
	ctx := context.Background()
	conv, err := s.CreateConversation(ctx, sqlc.CreateConversationParams{
		UserID: db.NewUUID(), Platform: "messenger", PlatformConversationID: "1", PageID: "p",
	})
	require.NoError(t, err)
	params := sqlc.CreateMessageParams{
		ConversationID: conv.ID, Sender: "customer", Content: "hi",
		PlatformMessageID: db.StringToText("mid.1"),
	}
	_, err = s.CreateMessage(ctx, params)
	require.NoError(t, err)
	_, err = s.CreateMessage(ctx, params)
	assert.True(t, db.IsUniqueViolation(err))

	exists, err := s.ExistsMessageByPlatformID(ctx, sqlc.ExistsMessageByPlatformIDParams{
		PageID: "p", PlatformMessageID: db.StringToText("mid.1"),
	})
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestStoreFailOn(t *testing.T) {
	s := New()
	boom := errors.New("boom")
	s.FailOn("GetPageByPageID", boom)
	_, err := s.GetPageByPageID(context.Background(), "p")
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, s.Calls("GetPageByPageID"))

	s.FailOn("GetPageByPageID", nil)
	_, err = s.GetPageByPageID(context.Background(), "p")
	assert.ErrorIs(t, err, pgx.ErrNoRows)
}
