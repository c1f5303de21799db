package settings

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/beybot/beybot/internal/db/sqlc"
)

// Admin-wide setting keys.
const (
	KeyGeminiAPIKey = "gemini_api_key"
	KeyGeminiModel  = "gemini_model"
)

// Service reads admin-wide settings from system_settings.
type Service struct {
	queries sqlc.Querier
	logger  *slog.Logger
}

func NewService(log *slog.Logger, queries sqlc.Querier) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		queries: queries,
		logger:  log.With(slog.String("service", "settings")),
	}
}

// Get returns the trimmed value for key. A missing row is ("", false, nil).
func (s *Service) Get(ctx context.Context, key string) (string, bool, error) {
	row, err := s.queries.GetSystemSetting(ctx, key)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	value := strings.TrimSpace(row.SettingValue)
	return value, value != "", nil
}

// GeminiAPIKey returns the admin-wide Gemini key, or "" when unset. Lookup
// failures are logged and treated as unset so a settings outage only
// disables the fallback.
func (s *Service) GeminiAPIKey(ctx context.Context) string {
	return s.lookup(ctx, KeyGeminiAPIKey)
}

// GeminiModel returns the admin-wide model name, or "" when unset.
func (s *Service) GeminiModel(ctx context.Context) string {
	return s.lookup(ctx, KeyGeminiModel)
}

func (s *Service) lookup(ctx context.Context, key string) string {
	value, _, err := s.Get(ctx, key)
	if err != nil {
		s.logger.Warn("read system setting failed", slog.String("key", key), slog.Any("error", err))
		return ""
	}
	return value
}
