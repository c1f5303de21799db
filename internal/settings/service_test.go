package settings

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beybot/beybot/internal/db/memdb"
)

func TestGetMissingIsNotAnError(t *testing.T) {
	svc := NewService(nil, memdb.New())
	value, ok, err := svc.Get(context.Background(), KeyGeminiModel)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, value)
}

func TestGeminiSettings(t *testing.T) {
	store := memdb.New()
	store.SetSystemSetting(KeyGeminiAPIKey, "  admin-key ")
	store.SetSystemSetting(KeyGeminiModel, "gemini-1.5-pro")
	svc := NewService(nil, store)

	assert.Equal(t, "admin-key", svc.GeminiAPIKey(context.Background()))
	assert.Equal(t, "gemini-1.5-pro", svc.GeminiModel(context.Background()))
}

func TestLookupFailureTreatedAsUnset(t *testing.T) {
	store := memdb.New()
	store.SetSystemSetting(KeyGeminiAPIKey, "admin-key")
	store.FailOn("GetSystemSetting", errors.New("db down"))
	svc := NewService(nil, store)

	assert.Empty(t, svc.GeminiAPIKey(context.Background()))
	_, _, err := svc.Get(context.Background(), KeyGeminiAPIKey)
	assert.Error(t, err)
}
