// Package agent turns a stored customer message into an AI reply that is
// persisted and delivered back to the customer.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/beybot/beybot/internal/agentconfig"
	"github.com/beybot/beybot/internal/catalog"
	"github.com/beybot/beybot/internal/channel"
	"github.com/beybot/beybot/internal/conversation"
	"github.com/beybot/beybot/internal/gemini"
	"github.com/beybot/beybot/internal/jobs"
	"github.com/beybot/beybot/internal/message"
	"github.com/beybot/beybot/internal/pages"
)

// JobTypeRespond is the background job that runs Respond.
const JobTypeRespond = "ai:respond"

// HistoryLimit is how many stored messages are read for context. The newest
// one is the message being answered and is sent as the final user turn.
const HistoryLimit = 20

var (
	// ErrSkipped means the account does not want or cannot get an AI reply.
	// Nothing was generated, stored or sent.
	ErrSkipped = errors.New("ai response skipped")
	// ErrNoCandidate means the model answered without any text.
	ErrNoCandidate = errors.New("no response generated")
)

type ConfigReader interface {
	Get(ctx context.Context, accountID string) (agentconfig.Config, bool, error)
}

type HistoryStore interface {
	message.Writer
	ListRecent(ctx context.Context, conversationID string, limit int32) ([]message.Message, error)
}

type ProductLister interface {
	ListForContext(ctx context.Context, accountID string) ([]catalog.Product, error)
}

// SettingsReader exposes the admin-wide Gemini fallbacks. Empty means unset.
type SettingsReader interface {
	GeminiAPIKey(ctx context.Context) string
	GeminiModel(ctx context.Context) string
}

type Generator interface {
	GenerateContent(ctx context.Context, req gemini.GenerateRequest) (gemini.GenerateResponse, error)
}

type PageLookup interface {
	GetByPageID(ctx context.Context, pageID string) (pages.Page, error)
}

type Dispatcher interface {
	Send(ctx context.Context, creds channel.Credentials, recipientID, text string) (channel.Delivery, error)
}

// Request identifies the message to answer. It is also the job payload.
type Request struct {
	ConversationID string `json:"conversation_id"`
	AccountID      string `json:"account_id"`
	PageID         string `json:"page_id"`
	SenderID       string `json:"sender_id"`
	MessageText    string `json:"message_text"`
}

type Result struct {
	Response  string `json:"response"`
	Model     string `json:"model"`
	Delivered bool   `json:"delivered"`
}

// Fallbacks are the process-wide values used when neither the account nor
// the system settings provide one.
type Fallbacks struct {
	APIKey string
	Model  string
}

type Deps struct {
	Configs    ConfigReader
	Messages   HistoryStore
	Products   ProductLister
	Settings   SettingsReader
	Generator  Generator
	Replies    conversation.ReplyRecorder
	Pages      PageLookup
	Dispatcher Dispatcher
	Fallbacks  Fallbacks
}

type Orchestrator struct {
	deps   Deps
	logger *slog.Logger
	now    func() time.Time
}

func NewOrchestrator(log *slog.Logger, deps Deps) *Orchestrator {
	if log == nil {
		log = slog.Default()
	}
	return &Orchestrator{
		deps:   deps,
		logger: log.With(slog.String("service", "agent")),
		now:    time.Now,
	}
}

// Respond generates, stores and delivers a reply to req.MessageText.
//
// Only steps before generation can fail the call. Once the model produced
// text, storage and delivery failures are logged and reflected in
// Result.Delivered.
func (o *Orchestrator) Respond(ctx context.Context, req Request) (Result, error) {
	if err := req.validate(); err != nil {
		return Result{}, err
	}
	logger := o.logger.With(
		slog.String("conversation_id", req.ConversationID),
		slog.String("account_id", req.AccountID),
	)

	cfg, found, err := o.deps.Configs.Get(ctx, req.AccountID)
	if err != nil {
		return Result{}, fmt.Errorf("load agent config: %w", err)
	}
	if !found {
		return Result{}, fmt.Errorf("%w: agent not configured", ErrSkipped)
	}
	if !cfg.AutoRespond {
		return Result{}, fmt.Errorf("%w: auto respond disabled", ErrSkipped)
	}
	apiKey := o.resolveAPIKey(ctx, cfg)
	if apiKey == "" {
		return Result{}, fmt.Errorf("%w: no gemini api key", ErrSkipped)
	}

	recent, err := o.deps.Messages.ListRecent(ctx, req.ConversationID, HistoryLimit)
	if err != nil {
		return Result{}, fmt.Errorf("load history: %w", err)
	}
	products, err := o.deps.Products.ListForContext(ctx, req.AccountID)
	if err != nil {
		return Result{}, fmt.Errorf("load products: %w", err)
	}

	model := o.resolveModel(ctx, cfg)
	resp, err := o.deps.Generator.GenerateContent(ctx, gemini.GenerateRequest{
		Model:             model,
		APIKey:            apiKey,
		Contents:          buildContents(recent, req.MessageText),
		SystemInstruction: BuildSystemPrompt(cfg, products),
		GenerationConfig:  gemini.DefaultGenerationConfig(),
	})
	if err != nil {
		return Result{}, fmt.Errorf("generate reply: %w", err)
	}
	reply := resp.FirstText()
	if strings.TrimSpace(reply) == "" {
		return Result{}, ErrNoCandidate
	}
	result := Result{Response: reply, Model: model}

	if _, err := o.deps.Messages.Persist(ctx, message.PersistInput{
		ConversationID: req.ConversationID,
		AccountID:      req.AccountID,
		Sender:         message.SenderAgent,
		Content:        reply,
	}); err != nil {
		logger.Error("save agent message failed", slog.Any("error", err))
	}
	if _, err := o.deps.Replies.RecordReply(ctx, req.ConversationID, reply, o.now()); err != nil {
		logger.Error("update conversation failed", slog.Any("error", err))
	}

	result.Delivered = o.deliver(ctx, logger, req, reply)
	return result, nil
}

func (o *Orchestrator) deliver(ctx context.Context, logger *slog.Logger, req Request, reply string) bool {
	if o.deps.Pages == nil || o.deps.Dispatcher == nil {
		return false
	}
	page, err := o.deps.Pages.GetByPageID(ctx, req.PageID)
	if err != nil {
		logger.Error("load page credential failed", slog.String("page_id", req.PageID), slog.Any("error", err))
		return false
	}
	delivery, err := o.deps.Dispatcher.Send(ctx, channel.Credentials{
		PageID:      page.PageID,
		AccessToken: page.AccessToken,
	}, req.SenderID, reply)
	if err != nil {
		logger.Error("deliver reply failed", slog.String("page_id", req.PageID), slog.Any("error", err))
		return false
	}
	logger.Info("reply delivered",
		slog.String("channel", delivery.Channel.String()),
		slog.Int("chunks", delivery.Chunks),
	)
	return true
}

func (o *Orchestrator) resolveAPIKey(ctx context.Context, cfg agentconfig.Config) string {
	if key := strings.TrimSpace(cfg.GeminiAPIKey); key != "" {
		return key
	}
	if o.deps.Settings != nil {
		if key := o.deps.Settings.GeminiAPIKey(ctx); key != "" {
			return key
		}
	}
	return strings.TrimSpace(o.deps.Fallbacks.APIKey)
}

func (o *Orchestrator) resolveModel(ctx context.Context, cfg agentconfig.Config) string {
	if model := strings.TrimSpace(cfg.GeminiModel); model != "" {
		return model
	}
	if o.deps.Settings != nil {
		if model := o.deps.Settings.GeminiModel(ctx); model != "" {
			return model
		}
	}
	return strings.TrimSpace(o.deps.Fallbacks.Model)
}

// buildContents maps stored history to model turns. The newest stored message
// is the one being answered, so it is replaced by text as the final turn.
func buildContents(recent []message.Message, text string) []gemini.Content {
	if len(recent) > 0 {
		recent = recent[:len(recent)-1]
	}
	contents := make([]gemini.Content, 0, len(recent)+1)
	for _, msg := range recent {
		role := gemini.RoleModel
		if msg.Sender == message.SenderCustomer {
			role = gemini.RoleUser
		}
		contents = append(contents, gemini.Content{
			Role:  role,
			Parts: []gemini.Part{{Text: msg.Content}},
		})
	}
	return append(contents, gemini.Content{
		Role:  gemini.RoleUser,
		Parts: []gemini.Part{{Text: text}},
	})
}

func (r Request) validate() error {
	switch {
	case strings.TrimSpace(r.ConversationID) == "":
		return errors.New("conversation id is required")
	case strings.TrimSpace(r.AccountID) == "":
		return errors.New("account id is required")
	case strings.TrimSpace(r.MessageText) == "":
		return errors.New("message text is required")
	}
	return nil
}

// NewRespondJob encodes req as an ai:respond job.
func NewRespondJob(req Request) (jobs.Job, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return jobs.Job{}, err
	}
	return jobs.Job{Type: JobTypeRespond, Payload: payload}, nil
}

// HandleJob is the jobs.Handler for ai:respond. Skips are not failures.
func (o *Orchestrator) HandleJob(ctx context.Context, job jobs.Job) error {
	var req Request
	if err := json.Unmarshal(job.Payload, &req); err != nil {
		return fmt.Errorf("decode %s payload: %w", JobTypeRespond, err)
	}
	result, err := o.Respond(ctx, req)
	if errors.Is(err, ErrSkipped) {
		o.logger.Debug("ai response skipped",
			slog.String("conversation_id", req.ConversationID),
			slog.String("reason", err.Error()),
		)
		return nil
	}
	if err != nil {
		return err
	}
	o.logger.Info("ai response generated",
		slog.String("conversation_id", req.ConversationID),
		slog.String("model", result.Model),
		slog.Bool("delivered", result.Delivered),
	)
	return nil
}
