package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/beybot/beybot/internal/auth"
	"github.com/beybot/beybot/internal/conversation"
	messagepkg "github.com/beybot/beybot/internal/message"
	messageevent "github.com/beybot/beybot/internal/message/event"
)

const (
	streamBuffer    = 64
	streamWriteWait = 10 * time.Second
	streamPingEvery = 30 * time.Second
	streamReadWait  = 60 * time.Second
	maxListLimit    = 500
)

type ConversationStore interface {
	Get(ctx context.Context, conversationID string) (conversation.Conversation, error)
	ListByAccount(ctx context.Context, accountID string, limit int32) ([]conversation.Conversation, error)
	SetStatus(ctx context.Context, conversationID, status string) (conversation.Conversation, error)
	MarkRead(ctx context.Context, conversationID string) (conversation.Conversation, error)
}

type MessageLister interface {
	List(ctx context.Context, conversationID string) ([]messagepkg.Message, error)
}

// ConversationsHandler is the inbox API: list, read and triage
// conversations, and follow new messages live.
type ConversationsHandler struct {
	conversations ConversationStore
	messages      MessageLister
	events        messageevent.Subscriber
	upgrader      websocket.Upgrader
	logger        *slog.Logger
}

func NewConversationsHandler(log *slog.Logger, conversations ConversationStore, messages MessageLister, events messageevent.Subscriber) *ConversationsHandler {
	return &ConversationsHandler{
		conversations: conversations,
		messages:      messages,
		events:        events,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		logger: log.With(slog.String("handler", "conversations")),
	}
}

func (h *ConversationsHandler) Register(e *echo.Echo) {
	group := e.Group("/api/conversations")
	group.GET("", h.List)
	group.GET("/stream", h.Stream)
	group.GET("/:id", h.Get)
	group.PATCH("/:id", h.Update)
}

type ConversationDetail struct {
	Conversation conversation.Conversation `json:"conversation"`
	Messages     []messagepkg.Message      `json:"messages"`
}

type UpdateConversationRequest struct {
	Status   *string `json:"status,omitempty"`
	MarkRead bool    `json:"mark_read,omitempty"`
}

// List godoc
// @Summary List the caller's conversations, most recent first
// @Tags conversations
// @Param limit query int false "Max items (default 100)"
// @Success 200 {array} conversation.Conversation
// @Router /api/conversations [get]
func (h *ConversationsHandler) List(c echo.Context) error {
	accountID, err := auth.UserIDFromContext(c)
	if err != nil {
		return err
	}
	var limit int32
	if raw := strings.TrimSpace(c.QueryParam("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > maxListLimit {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be between 1 and 500")
		}
		limit = int32(n)
	}
	items, err := h.conversations.ListByAccount(c.Request().Context(), accountID, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, items)
}

// Get godoc
// @Summary Get one conversation with its messages
// @Tags conversations
// @Param id path string true "Conversation ID"
// @Success 200 {object} ConversationDetail
// @Failure 404 {object} ErrorResponse
// @Router /api/conversations/{id} [get]
func (h *ConversationsHandler) Get(c echo.Context) error {
	conv, err := h.owned(c)
	if err != nil {
		return err
	}
	msgs, err := h.messages.List(c.Request().Context(), conv.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, ConversationDetail{Conversation: conv, Messages: msgs})
}

// Update godoc
// @Summary Change status or mark a conversation read
// @Tags conversations
// @Param id path string true "Conversation ID"
// @Param payload body UpdateConversationRequest true "Changes"
// @Success 200 {object} conversation.Conversation
// @Failure 400 {object} ErrorResponse
// @Router /api/conversations/{id} [patch]
func (h *ConversationsHandler) Update(c echo.Context) error {
	conv, err := h.owned(c)
	if err != nil {
		return err
	}
	var req UpdateConversationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Status == nil && !req.MarkRead {
		return echo.NewHTTPError(http.StatusBadRequest, "status or mark_read is required")
	}
	ctx := c.Request().Context()
	if req.Status != nil {
		if !conversation.ValidStatus(strings.ToLower(strings.TrimSpace(*req.Status))) {
			return echo.NewHTTPError(http.StatusBadRequest, "status must be active, pending or resolved")
		}
		if conv, err = h.conversations.SetStatus(ctx, conv.ID, *req.Status); err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}
	if req.MarkRead {
		if conv, err = h.conversations.MarkRead(ctx, conv.ID); err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}
	return c.JSON(http.StatusOK, conv)
}

// owned loads the :id conversation and hides other accounts' rows as 404.
func (h *ConversationsHandler) owned(c echo.Context) (conversation.Conversation, error) {
	accountID, err := auth.UserIDFromContext(c)
	if err != nil {
		return conversation.Conversation{}, err
	}
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		return conversation.Conversation{}, echo.NewHTTPError(http.StatusBadRequest, "conversation id is required")
	}
	conv, err := h.conversations.Get(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, conversation.ErrNotFound) {
			return conversation.Conversation{}, echo.NewHTTPError(http.StatusNotFound, "conversation not found")
		}
		return conversation.Conversation{}, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if conv.AccountID != accountID {
		return conversation.Conversation{}, echo.NewHTTPError(http.StatusNotFound, "conversation not found")
	}
	return conv, nil
}

type streamFrame struct {
	Type    string              `json:"type"`
	Message *messagepkg.Message `json:"message,omitempty"`
}

// Stream upgrades to a websocket and pushes message.created frames for the
// caller's account until either side goes away.
func (h *ConversationsHandler) Stream(c echo.Context) error {
	accountID, err := auth.UserIDFromContext(c)
	if err != nil {
		return err
	}
	if h.events == nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "message events not configured")
	}
	ws, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade already wrote the response.
		return nil
	}
	defer func() { _ = ws.Close() }()

	_, stream, cancel := h.events.Subscribe(accountID, streamBuffer)
	defer cancel()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		ws.SetReadLimit(4096)
		_ = ws.SetReadDeadline(time.Now().Add(streamReadWait))
		ws.SetPongHandler(func(string) error {
			return ws.SetReadDeadline(time.Now().Add(streamReadWait))
		})
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := writeFrame(ws, streamFrame{Type: "connected"}); err != nil {
		return nil
	}

	ping := time.NewTicker(streamPingEvery)
	defer ping.Stop()
	for {
		select {
		case <-closed:
			return nil
		case <-c.Request().Context().Done():
			return nil
		case <-ping.C:
			_ = ws.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return nil
			}
		case ev, ok := <-stream:
			if !ok {
				return nil
			}
			if ev.Type != messageevent.EventTypeMessageCreated || len(ev.Data) == 0 {
				continue
			}
			var msg messagepkg.Message
			if err := json.Unmarshal(ev.Data, &msg); err != nil {
				h.logger.Warn("decode message event failed", slog.Any("error", err))
				continue
			}
			if err := writeFrame(ws, streamFrame{Type: string(ev.Type), Message: &msg}); err != nil {
				return nil
			}
		}
	}
}

func writeFrame(ws *websocket.Conn, frame streamFrame) error {
	if err := ws.SetWriteDeadline(time.Now().Add(streamWriteWait)); err != nil {
		return err
	}
	return ws.WriteJSON(frame)
}
