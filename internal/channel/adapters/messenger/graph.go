package messenger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const maxErrorBody = 4096

// GraphClient talks to the Graph API Send endpoint.
type GraphClient struct {
	baseURL    string
	version    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewGraphClient builds a client. A zero timeout means no client-side timeout.
func NewGraphClient(log *slog.Logger, baseURL, version string, timeout time.Duration) *GraphClient {
	if log == nil {
		log = slog.Default()
	}
	return &GraphClient{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		version:    strings.Trim(strings.TrimSpace(version), "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     log.With(slog.String("component", "graph")),
	}
}

type sendRequest struct {
	Recipient     recipient   `json:"recipient"`
	Message       textMessage `json:"message"`
	MessagingType string      `json:"messaging_type"`
}

type recipient struct {
	ID string `json:"id"`
}

type textMessage struct {
	Text string `json:"text"`
}

// SendResult is the Send API success body.
type SendResult struct {
	RecipientID string `json:"recipient_id"`
	MessageID   string `json:"message_id"`
}

// GraphError is a non-2xx Send API answer.
type GraphError struct {
	StatusCode int
	Message    string
	Type       string
	Code       int
}

func (e *GraphError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("graph api error: status %d", e.StatusCode)
	}
	return fmt.Sprintf("graph api error: status %d: %s", e.StatusCode, e.Message)
}

// SendText posts one text message to recipientID as a RESPONSE message.
func (c *GraphClient) SendText(ctx context.Context, accessToken, recipientID, text string) (SendResult, error) {
	payload, err := json.Marshal(sendRequest{
		Recipient:     recipient{ID: recipientID},
		Message:       textMessage{Text: text},
		MessagingType: "RESPONSE",
	})
	if err != nil {
		return SendResult{}, fmt.Errorf("marshal send request: %w", err)
	}
	endpoint := fmt.Sprintf("%s/%s/me/messages?access_token=%s", c.baseURL, c.version, url.QueryEscape(accessToken))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return SendResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// url.Error embeds the request URL, which carries the page token.
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return SendResult{}, fmt.Errorf("graph send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		graphErr := parseGraphError(resp.StatusCode, raw)
		c.logger.Warn("send api rejected message",
			slog.Int("status", resp.StatusCode),
			slog.Int("code", graphErr.Code),
			slog.String("message", graphErr.Message),
		)
		return SendResult{}, graphErr
	}

	var out SendResult
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil && !errors.Is(err, io.EOF) {
		return SendResult{}, fmt.Errorf("decode send response: %w", err)
	}
	return out, nil
}

func parseGraphError(status int, raw []byte) *GraphError {
	var envelope struct {
		Error struct {
			Message string `json:"message"`
			Type    string `json:"type"`
			Code    int    `json:"code"`
		} `json:"error"`
	}
	graphErr := &GraphError{StatusCode: status}
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Error.Message != "" {
		graphErr.Message = envelope.Error.Message
		graphErr.Type = envelope.Error.Type
		graphErr.Code = envelope.Error.Code
		return graphErr
	}
	graphErr.Message = strings.TrimSpace(string(raw))
	if len(graphErr.Message) > 200 {
		graphErr.Message = graphErr.Message[:200] + "..."
	}
	return graphErr
}
