package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/beybot/beybot/internal/agent"
	"github.com/beybot/beybot/internal/auth"
	"github.com/beybot/beybot/internal/conversation"
	dbpkg "github.com/beybot/beybot/internal/db"
)

// Responder generates and delivers an AI reply.
type Responder interface {
	Respond(ctx context.Context, req agent.Request) (agent.Result, error)
}

// ConversationGetter loads a conversation by id.
type ConversationGetter interface {
	Get(ctx context.Context, conversationID string) (conversation.Conversation, error)
}

// AIHandler exposes the orchestrator for synchronous server-to-server calls.
type AIHandler struct {
	responder     Responder
	conversations ConversationGetter
	logger        *slog.Logger
}

func NewAIHandler(log *slog.Logger, responder Responder, conversations ConversationGetter) *AIHandler {
	return &AIHandler{
		responder:     responder,
		conversations: conversations,
		logger:        log.With(slog.String("handler", "ai")),
	}
}

func (h *AIHandler) Register(e *echo.Echo) {
	e.POST("/api/ai/respond", h.Respond)
}

// RespondRequest mirrors the payload of the reply trigger. agentConfig is
// accepted for compatibility but the stored configuration is always used.
type RespondRequest struct {
	ConversationID string         `json:"conversationId"`
	MessageText    string         `json:"messageText"`
	SenderID       string         `json:"senderId"`
	AgentConfig    map[string]any `json:"agentConfig,omitempty"`
	PageData       struct {
		PageID string `json:"page_id"`
		UserID string `json:"user_id"`
	} `json:"pageData"`
}

type RespondResponse struct {
	Success   bool   `json:"success"`
	Response  string `json:"response"`
	Delivered bool   `json:"delivered"`
}

// Respond godoc
// @Summary Generate, store and send an AI reply
// @Tags ai
// @Param payload body RespondRequest true "Reply trigger"
// @Success 200 {object} RespondResponse
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /api/ai/respond [post]
func (h *AIHandler) Respond(c echo.Context) error {
	accountID, err := auth.UserIDFromContext(c)
	if err != nil {
		return err
	}
	var req RespondRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorJSON("invalid request body"))
	}
	if owner := strings.TrimSpace(req.PageData.UserID); owner != "" && owner != accountID {
		return c.JSON(http.StatusForbidden, errorJSON("page belongs to another account"))
	}
	if strings.TrimSpace(req.ConversationID) == "" || strings.TrimSpace(req.MessageText) == "" ||
		strings.TrimSpace(req.SenderID) == "" || strings.TrimSpace(req.PageData.PageID) == "" {
		return c.JSON(http.StatusBadRequest, errorJSON("conversationId, messageText, senderId and pageData.page_id are required"))
	}

	target := agent.Request{
		ConversationID: strings.TrimSpace(req.ConversationID),
		AccountID:      accountID,
		PageID:         strings.TrimSpace(req.PageData.PageID),
		SenderID:       strings.TrimSpace(req.SenderID),
		MessageText:    req.MessageText,
	}
	if err := h.checkThread(c.Request().Context(), target); err != nil {
		if errors.Is(err, conversation.ErrNotFound) {
			return c.JSON(http.StatusNotFound, errorJSON("Conversation not found"))
		}
		h.logger.Error("load conversation failed",
			slog.String("conversation_id", target.ConversationID),
			slog.Any("error", err),
		)
		return c.JSON(http.StatusInternalServerError, errorJSON(err.Error()))
	}

	result, err := h.responder.Respond(c.Request().Context(), target)
	if err != nil {
		if !errors.Is(err, agent.ErrSkipped) {
			h.logger.Error("ai response failed",
				slog.String("conversation_id", req.ConversationID),
				slog.Any("error", err),
			)
		}
		return c.JSON(http.StatusInternalServerError, errorJSON(err.Error()))
	}
	return c.JSON(http.StatusOK, RespondResponse{
		Success:   true,
		Response:  result.Response,
		Delivered: result.Delivered,
	})
}

// checkThread requires the conversation to belong to the caller and to be the
// thread between req.PageID and req.SenderID. Anything else is reported as
// conversation.ErrNotFound.
func (h *AIHandler) checkThread(ctx context.Context, req agent.Request) error {
	if _, err := dbpkg.ParseUUID(req.ConversationID); err != nil {
		return conversation.ErrNotFound
	}
	conv, err := h.conversations.Get(ctx, req.ConversationID)
	if err != nil {
		return err
	}
	if conv.AccountID != req.AccountID || conv.PageID != req.PageID || conv.PlatformConversationID != req.SenderID {
		return conversation.ErrNotFound
	}
	return nil
}

func errorJSON(message string) map[string]string {
	return map[string]string{"error": message}
}
