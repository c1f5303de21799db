package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/beybot/beybot/internal/agentconfig"
	"github.com/beybot/beybot/internal/auth"
)

type AgentConfigStore interface {
	GetOrDefault(ctx context.Context, accountID string) (agentconfig.Config, error)
	Upsert(ctx context.Context, accountID string, req agentconfig.UpsertRequest) (agentconfig.Config, error)
}

type AgentConfigHandler struct {
	service AgentConfigStore
	logger  *slog.Logger
}

func NewAgentConfigHandler(log *slog.Logger, service AgentConfigStore) *AgentConfigHandler {
	return &AgentConfigHandler{
		service: service,
		logger:  log.With(slog.String("handler", "agent_config")),
	}
}

func (h *AgentConfigHandler) Register(e *echo.Echo) {
	group := e.Group("/api/agent/config")
	group.GET("", h.Get)
	group.PUT("", h.Put)
}

// Get godoc
// @Summary Get the caller's agent configuration
// @Tags agent
// @Success 200 {object} agentconfig.Config
// @Router /api/agent/config [get]
func (h *AgentConfigHandler) Get(c echo.Context) error {
	accountID, err := auth.UserIDFromContext(c)
	if err != nil {
		return err
	}
	cfg, err := h.service.GetOrDefault(c.Request().Context(), accountID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, cfg)
}

// Put godoc
// @Summary Create or update the caller's agent configuration
// @Tags agent
// @Param payload body agentconfig.UpsertRequest true "Fields to change"
// @Success 200 {object} agentconfig.Config
// @Failure 400 {object} ErrorResponse
// @Router /api/agent/config [put]
func (h *AgentConfigHandler) Put(c echo.Context) error {
	accountID, err := auth.UserIDFromContext(c)
	if err != nil {
		return err
	}
	var req agentconfig.UpsertRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	cfg, err := h.service.Upsert(c.Request().Context(), accountID, req)
	if err != nil {
		if errors.Is(err, agentconfig.ErrInvalid) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		h.logger.Error("save agent config failed", slog.String("account_id", accountID), slog.Any("error", err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to save agent config")
	}
	return c.JSON(http.StatusOK, cfg)
}
