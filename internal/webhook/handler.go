// Package webhook receives Messenger and Instagram notifications from the
// Graph platform.
package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/beybot/beybot/internal/config"
	"github.com/beybot/beybot/internal/inbound"
	"github.com/beybot/beybot/internal/pages"
)

const (
	Path      = "/webhooks/facebook"
	AliasPath = "/api/facebook/webhook"

	bodyLimit       = "1M"
	signatureHeader = "X-Hub-Signature-256"
	objectPage      = "page"
	modeSubscribe   = "subscribe"
)

// PageStore resolves connected pages and verify tokens.
type PageStore interface {
	GetByPageID(ctx context.Context, pageID string) (pages.Page, error)
	HasSubscriptionToken(ctx context.Context, token string) (bool, error)
	HasSubscriptions(ctx context.Context) (bool, error)
}

// EventProcessor handles a single messaging event.
type EventProcessor interface {
	HandleEvent(ctx context.Context, page pages.Page, ev inbound.Event) (inbound.Outcome, error)
}

type Handler struct {
	cfg       config.WebhookConfig
	pages     PageStore
	processor EventProcessor
	logger    *slog.Logger
}

func NewHandler(log *slog.Logger, cfg config.WebhookConfig, pageStore PageStore, processor EventProcessor) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{
		cfg:       cfg,
		pages:     pageStore,
		processor: processor,
		logger:    log.With(slog.String("handler", "webhook")),
	}
}

func (h *Handler) Register(e *echo.Echo) {
	limit := middleware.BodyLimit(bodyLimit)
	for _, path := range []string{Path, AliasPath} {
		e.GET(path, h.Verify)
		e.POST(path, h.Receive, limit)
	}
}

// IsWebhookPath reports whether path is served by this handler. Such paths
// are authenticated by verify token or signature, not by JWT.
func IsWebhookPath(path string) bool {
	return path == Path || path == AliasPath
}

// Verify answers the subscription handshake by echoing hub.challenge.
func (h *Handler) Verify(c echo.Context) error {
	mode := c.QueryParam("hub.mode")
	token := c.QueryParam("hub.verify_token")
	challenge := c.QueryParam("hub.challenge")

	if mode == modeSubscribe {
		ok, err := h.tokenAccepted(c.Request().Context(), token)
		if err != nil {
			h.logger.Error("verify token lookup failed", slog.Any("error", err))
		}
		if ok {
			h.logger.Info("webhook verified")
			return c.String(http.StatusOK, challenge)
		}
	}
	h.logger.Warn("webhook verification failed", slog.String("mode", mode))
	return c.JSON(http.StatusForbidden, errorBody("Verification failed"))
}

// tokenAccepted matches the configured token or any active subscription
// token. Only when neither exists does allow_any_verify_token admit any
// non-empty token.
func (h *Handler) tokenAccepted(ctx context.Context, token string) (bool, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return false, nil
	}
	configured := strings.TrimSpace(h.cfg.VerifyToken)
	if configured != "" && subtle.ConstantTimeCompare([]byte(configured), []byte(token)) == 1 {
		return true, nil
	}
	if h.pages == nil {
		return configured == "" && h.cfg.AllowAnyVerifyToken, nil
	}
	matched, err := h.pages.HasSubscriptionToken(ctx, token)
	if err != nil {
		return false, err
	}
	if matched {
		return true, nil
	}
	if configured != "" || !h.cfg.AllowAnyVerifyToken {
		return false, nil
	}
	exists, err := h.pages.HasSubscriptions(ctx)
	if err != nil {
		return false, err
	}
	return !exists, nil
}

type notification struct {
	Object string  `json:"object"`
	Entry  []entry `json:"entry"`
}

type entry struct {
	ID        string           `json:"id"`
	Time      int64            `json:"time"`
	Messaging []messagingEvent `json:"messaging"`
}

type participant struct {
	ID string `json:"id"`
}

type messagingEvent struct {
	Sender    participant `json:"sender"`
	Recipient participant `json:"recipient"`
	Timestamp int64       `json:"timestamp"`
	Message   *struct {
		Mid    string `json:"mid"`
		Text   string `json:"text"`
		IsEcho bool   `json:"is_echo"`
	} `json:"message"`
}

func (m messagingEvent) toEvent() inbound.Event {
	ev := inbound.Event{
		SenderID:    m.Sender.ID,
		RecipientID: m.Recipient.ID,
		Timestamp:   m.Timestamp,
	}
	if m.Message != nil {
		ev.Text = m.Message.Text
		ev.MessageID = m.Message.Mid
		ev.IsEcho = m.Message.IsEcho
	}
	return ev
}

// Receive processes a notification batch. Failures of individual events are
// logged and never fail the request.
func (h *Handler) Receive(c echo.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("webhook processing panicked", slog.Any("panic", r))
			err = c.JSON(http.StatusInternalServerError, errorBody("Processing failed"))
		}
	}()

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		var httpErr *echo.HTTPError
		if errors.As(err, &httpErr) {
			return httpErr
		}
		h.logger.Error("read webhook body failed", slog.Any("error", err))
		return c.JSON(http.StatusInternalServerError, errorBody("Processing failed"))
	}
	if secret := strings.TrimSpace(h.cfg.AppSecret); secret != "" {
		if !validSignature(secret, body, c.Request().Header.Get(signatureHeader)) {
			h.logger.Warn("webhook signature mismatch")
			return c.JSON(http.StatusUnauthorized, errorBody("Invalid signature"))
		}
	}

	var payload notification
	if err := json.Unmarshal(body, &payload); err != nil {
		h.logger.Error("decode webhook body failed", slog.Any("error", err))
		return c.JSON(http.StatusInternalServerError, errorBody("Processing failed"))
	}
	if payload.Object != objectPage {
		return c.JSON(http.StatusBadRequest, errorBody("Invalid object type"))
	}

	ctx := c.Request().Context()
	for _, ent := range payload.Entry {
		h.processEntry(ctx, ent)
	}
	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) processEntry(ctx context.Context, ent entry) {
	page, err := h.pages.GetByPageID(ctx, ent.ID)
	if err != nil {
		if errors.Is(err, pages.ErrNotFound) {
			h.logger.Warn("webhook entry for unknown page", slog.String("page_id", ent.ID))
		} else {
			h.logger.Error("load page failed", slog.String("page_id", ent.ID), slog.Any("error", err))
		}
		return
	}
	for _, m := range ent.Messaging {
		outcome, err := h.processor.HandleEvent(ctx, page, m.toEvent())
		if err != nil {
			h.logger.Error("messaging event failed",
				slog.String("page_id", page.PageID),
				slog.String("sender_id", m.Sender.ID),
				slog.Any("error", err),
			)
			continue
		}
		h.logger.Debug("messaging event handled",
			slog.String("page_id", page.PageID),
			slog.String("outcome", string(outcome)),
		)
	}
}

func validSignature(secret string, body []byte, header string) bool {
	const prefix = "sha256="
	if !strings.HasPrefix(header, prefix) {
		return false
	}
	got, err := hex.DecodeString(strings.TrimPrefix(header, prefix))
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(got, mac.Sum(nil))
}

// Sign returns the X-Hub-Signature-256 value for body.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return fmt.Sprintf("sha256=%s", hex.EncodeToString(mac.Sum(nil)))
}

func errorBody(message string) map[string]string {
	return map[string]string{"error": message}
}
