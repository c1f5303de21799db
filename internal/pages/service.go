// Package pages reads connected Facebook pages and their webhook subscriptions.
package pages

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"

	dbpkg "github.com/beybot/beybot/internal/db"
	"github.com/beybot/beybot/internal/db/sqlc"
	"github.com/beybot/beybot/internal/platform"
)

var ErrNotFound = errors.New("page not found")

// Page is a connected page and the credential used to reply through it.
type Page struct {
	ID               string `json:"id"`
	AccountID        string `json:"account_id"`
	PageID           string `json:"page_id"`
	Name             string `json:"page_name"`
	AccessToken      string `json:"-"`
	MessengerEnabled bool   `json:"messenger_enabled"`
	InstagramEnabled bool   `json:"instagram_enabled"`
}

// Enabled reports whether processing is switched on for kind.
func (p Page) Enabled(kind platform.Kind) bool {
	switch kind {
	case platform.Messenger:
		return p.MessengerEnabled
	case platform.Instagram:
		return p.InstagramEnabled
	default:
		return false
	}
}

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
		logger:  log.With(slog.String("service", "pages")),
	}
}

// GetByPageID resolves the platform page id to a connected page.
func (s *Service) GetByPageID(ctx context.Context, pageID string) (Page, error) {
	pageID = strings.TrimSpace(pageID)
	if pageID == "" {
		return Page{}, ErrNotFound
	}
	row, err := s.queries.GetPageByPageID(ctx, pageID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Page{}, ErrNotFound
		}
		return Page{}, err
	}
	return Page{
		ID:               dbpkg.UUIDToString(row.ID),
		AccountID:        dbpkg.UUIDToString(row.UserID),
		PageID:           row.PageID,
		Name:             row.PageName,
		AccessToken:      row.PageAccessToken,
		MessengerEnabled: row.MessengerEnabled,
		InstagramEnabled: row.InstagramEnabled,
	}, nil
}

// HasSubscriptionToken reports whether an active subscription uses token.
func (s *Service) HasSubscriptionToken(ctx context.Context, token string) (bool, error) {
	if strings.TrimSpace(token) == "" {
		return false, nil
	}
	n, err := s.queries.CountActiveSubscriptionsByVerifyToken(ctx, token)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// HasSubscriptions reports whether any active subscription exists.
func (s *Service) HasSubscriptions(ctx context.Context) (bool, error) {
	n, err := s.queries.CountActiveSubscriptions(ctx)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
