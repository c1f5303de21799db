package agentconfig

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	dbpkg "github.com/beybot/beybot/internal/db"
	"github.com/beybot/beybot/internal/db/sqlc"
)

var modelNamePattern = regexp.MustCompile(`^([A-Za-z0-9][A-Za-z0-9._\-]{0,99})?$`)

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("model_name", func(fl validator.FieldLevel) bool {
		return modelNamePattern.MatchString(fl.Field().String())
	})
	return v
}

type Service struct {
	queries  sqlc.Querier
	logger   *slog.Logger
	validate *validator.Validate
}

func NewService(log *slog.Logger, queries sqlc.Querier) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		queries:  queries,
		logger:   log.With(slog.String("service", "agentconfig")),
		validate: newValidator(),
	}
}

// Get returns the stored configuration. The bool is false when the account
// has never saved one.
func (s *Service) Get(ctx context.Context, accountID string) (Config, bool, error) {
	pgAccountID, err := dbpkg.ParseUUID(accountID)
	if err != nil {
		return Config{}, false, err
	}
	row, err := s.queries.GetAgentConfig(ctx, pgAccountID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Config{}, false, nil
		}
		return Config{}, false, err
	}
	return toConfig(row), true, nil
}

// GetOrDefault returns the stored configuration or Defaults.
func (s *Service) GetOrDefault(ctx context.Context, accountID string) (Config, error) {
	cfg, ok, err := s.Get(ctx, accountID)
	if err != nil {
		return Config{}, err
	}
	if !ok {
		return Defaults(accountID), nil
	}
	return cfg, nil
}

// Upsert validates req, merges it over the current configuration and saves it.
func (s *Service) Upsert(ctx context.Context, accountID string, req UpsertRequest) (Config, error) {
	if err := s.validate.Struct(req); err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrInvalid, err.Error())
	}
	pgAccountID, err := dbpkg.ParseUUID(accountID)
	if err != nil {
		return Config{}, err
	}
	current, err := s.GetOrDefault(ctx, accountID)
	if err != nil {
		return Config{}, err
	}
	merged := applyRequest(current, req)

	params := sqlc.UpsertAgentConfigParams{
		UserID:            pgAccountID,
		SystemPrompt:      merged.SystemPrompt,
		Language:          merged.Language,
		Tone:              merged.Tone,
		Personality:       merged.Personality,
		AutoRespond:       merged.AutoRespond,
		OrderConfirmation: merged.OrderConfirmation,
		FollowUp:          merged.FollowUp,
		Escalation:        merged.Escalation,
		GeminiModel:       dbpkg.StringToText(merged.GeminiModel),
	}
	if req.GeminiAPIKey != nil {
		params.GeminiApiKey = pgtype.Text{String: strings.TrimSpace(*req.GeminiAPIKey), Valid: true}
	}
	row, err := s.queries.UpsertAgentConfig(ctx, params)
	if err != nil {
		return Config{}, fmt.Errorf("save agent config: %w", err)
	}
	s.logger.Info("agent config saved",
		slog.String("account_id", accountID),
		slog.Bool("auto_respond", row.AutoRespond),
	)
	return toConfig(row), nil
}

func applyRequest(cfg Config, req UpsertRequest) Config {
	if req.SystemPrompt != nil {
		cfg.SystemPrompt = strings.TrimSpace(*req.SystemPrompt)
	}
	if req.Language != nil {
		cfg.Language = *req.Language
	}
	if req.Tone != nil {
		cfg.Tone = *req.Tone
	}
	if req.Personality != nil {
		cfg.Personality = strings.TrimSpace(*req.Personality)
	}
	if req.AutoRespond != nil {
		cfg.AutoRespond = *req.AutoRespond
	}
	if req.OrderConfirmation != nil {
		cfg.OrderConfirmation = *req.OrderConfirmation
	}
	if req.FollowUp != nil {
		cfg.FollowUp = *req.FollowUp
	}
	if req.Escalation != nil {
		cfg.Escalation = *req.Escalation
	}
	if req.GeminiModel != nil {
		cfg.GeminiModel = strings.TrimSpace(*req.GeminiModel)
	}
	return cfg
}

func toConfig(row sqlc.AgentConfig) Config {
	apiKey := strings.TrimSpace(dbpkg.TextToString(row.GeminiApiKey))
	return Config{
		AccountID:         dbpkg.UUIDToString(row.UserID),
		SystemPrompt:      row.SystemPrompt,
		Language:          row.Language,
		Tone:              row.Tone,
		Personality:       row.Personality,
		AutoRespond:       row.AutoRespond,
		OrderConfirmation: row.OrderConfirmation,
		FollowUp:          row.FollowUp,
		Escalation:        row.Escalation,
		GeminiModel:       strings.TrimSpace(dbpkg.TextToString(row.GeminiModel)),
		GeminiAPIKey:      apiKey,
		HasGeminiAPIKey:   apiKey != "",
		Configured:        true,
		UpdatedAt:         row.UpdatedAt.Time,
	}
}
