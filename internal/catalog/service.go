// Package catalog reads the product catalog used to ground AI replies.
package catalog

import (
	"context"
	"log/slog"

	dbpkg "github.com/beybot/beybot/internal/db"
	"github.com/beybot/beybot/internal/db/sqlc"
)

// ContextLimit caps how many products are put in front of the model.
const ContextLimit = 50

type Product struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Price       float64 `json:"price"`
	Stock       int     `json:"stock"`
	Category    string  `json:"category,omitempty"`
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
		logger:  log.With(slog.String("service", "catalog")),
	}
}

// ListForContext returns up to ContextLimit products of the account.
func (s *Service) ListForContext(ctx context.Context, accountID string) ([]Product, error) {
	pgAccountID, err := dbpkg.ParseUUID(accountID)
	if err != nil {
		return nil, err
	}
	rows, err := s.queries.ListProductsForContext(ctx, sqlc.ListProductsForContextParams{
		UserID: pgAccountID,
		Limit:  ContextLimit,
	})
	if err != nil {
		return nil, err
	}
	products := make([]Product, 0, len(rows))
	for _, row := range rows {
		products = append(products, Product{
			ID:          dbpkg.UUIDToString(row.ID),
			Name:        row.Name,
			Description: dbpkg.TextToString(row.Description),
			Price:       row.Price,
			Stock:       int(row.Stock),
			Category:    dbpkg.TextToString(row.Category),
		})
	}
	return products, nil
}
