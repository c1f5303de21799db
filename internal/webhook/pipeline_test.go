package webhook_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beybot/beybot/internal/agent"
	"github.com/beybot/beybot/internal/agentconfig"
	"github.com/beybot/beybot/internal/catalog"
	"github.com/beybot/beybot/internal/channel"
	"github.com/beybot/beybot/internal/channel/adapters/messenger"
	"github.com/beybot/beybot/internal/config"
	"github.com/beybot/beybot/internal/conversation"
	dbpkg "github.com/beybot/beybot/internal/db"
	"github.com/beybot/beybot/internal/db/memdb"
	"github.com/beybot/beybot/internal/db/sqlc"
	"github.com/beybot/beybot/internal/gemini"
	"github.com/beybot/beybot/internal/inbound"
	"github.com/beybot/beybot/internal/jobs"
	"github.com/beybot/beybot/internal/message"
	"github.com/beybot/beybot/internal/pages"
	"github.com/beybot/beybot/internal/settings"
	"github.com/beybot/beybot/internal/webhook"
)

type graphCall struct {
	Token     string
	Recipient string
	Text      string
}

type pipeline struct {
	e         *echo.Echo
	store     *memdb.Store
	pool      *jobs.Pool
	accountID string

	geminiCalls atomic.Int32
	geminiBody  string

	mu    sync.Mutex
	graph []graphCall
}

// newPipeline wires the webhook, the inbound processor, the job pool and the
// orchestrator over an in-memory store, with fake Gemini and Graph servers.
func newPipeline(t *testing.T, geminiBody string) *pipeline {
	t.Helper()
	p := &pipeline{store: memdb.New(), geminiBody: geminiBody}

	geminiSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		p.geminiCalls.Add(1)
		_, _ = w.Write([]byte(p.geminiBody))
	}))
	t.Cleanup(geminiSrv.Close)
	graphSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Recipient struct {
				ID string `json:"id"`
			} `json:"recipient"`
			Message struct {
				Text string `json:"text"`
			} `json:"message"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		p.mu.Lock()
		p.graph = append(p.graph, graphCall{
			Token:     r.URL.Query().Get("access_token"),
			Recipient: body.Recipient.ID,
			Text:      body.Message.Text,
		})
		p.mu.Unlock()
		_, _ = w.Write([]byte(`{"recipient_id":"` + body.Recipient.ID + `","message_id":"m.out"}`))
	}))
	t.Cleanup(graphSrv.Close)

	pageUUID := dbpkg.NewUUID()
	p.accountID = dbpkg.UUIDToString(pageUUID)
	p.store.AddPage(sqlc.FacebookPage{
		UserID:           pageUUID,
		PageID:           "PAGE1",
		PageName:         "Shop",
		PageAccessToken:  "page-token",
		MessengerEnabled: true,
		InstagramEnabled: true,
	})

	conversations := conversation.NewService(nil, p.store)
	messages := message.NewService(nil, p.store)
	pageService := pages.NewService(nil, p.store)

	registry := channel.NewRegistry()
	messenger.Register(nil, registry, messenger.NewGraphClient(nil, graphSrv.URL, "v18.0", time.Second))

	orch := agent.NewOrchestrator(nil, agent.Deps{
		Configs:    agentconfig.NewService(nil, p.store),
		Messages:   messages,
		Products:   catalog.NewService(nil, p.store),
		Settings:   settings.NewService(nil, p.store),
		Generator:  gemini.NewClient(nil, geminiSrv.URL, time.Second),
		Replies:    conversations,
		Pages:      pageService,
		Dispatcher: channel.NewDispatcher(nil, registry),
		Fallbacks:  agent.Fallbacks{Model: config.DefaultGeminiModel},
	})

	p.pool = jobs.NewPool(nil, jobs.PoolConfig{Workers: 1, Buffer: 8})
	p.pool.Register(agent.JobTypeRespond, orch.HandleJob)
	require.NoError(t, p.pool.Start(context.Background()))

	processor := inbound.NewProcessor(nil, conversations, messages, p.pool)
	p.e = echo.New()
	webhook.NewHandler(nil, config.WebhookConfig{}, pageService, processor).Register(p.e)
	return p
}

func (p *pipeline) configureAgent(t *testing.T, autoRespond bool) {
	t.Helper()
	key := "x"
	_, err := agentconfig.NewService(nil, p.store).Upsert(context.Background(), p.accountID, agentconfig.UpsertRequest{
		AutoRespond:  &autoRespond,
		GeminiAPIKey: &key,
	})
	require.NoError(t, err)
}

// deliver posts one messaging event and waits for the queued reply job.
func (p *pipeline) deliver(t *testing.T, senderID, text, mid string) {
	t.Helper()
	body := `{"object":"page","entry":[{"id":"PAGE1","time":1700000000000,"messaging":[` +
		`{"sender":{"id":"` + senderID + `"},"recipient":{"id":"PAGE1"},"timestamp":1700000000000,` +
		`"message":{"mid":"` + mid + `","text":"` + text + `"}}]}]}`
	req := httptest.NewRequest(http.MethodPost, webhook.Path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	p.e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true}`, rec.Body.String())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, p.pool.Stop(ctx))
}

func (p *pipeline) graphCalls() []graphCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]graphCall(nil), p.graph...)
}

func TestPipelineMessengerReplyRoundTrip(t *testing.T) {
	t.Parallel()
	p := newPipeline(t, `{"candidates":[{"content":{"role":"model","parts":[{"text":"Bonjour, comment puis-je vous aider ?"}]}}]}`)
	p.configureAgent(t, true)

	p.deliver(t, "123456", "Hello", "m1")

	convs := p.store.Conversations()
	require.Len(t, convs, 1)
	conv := convs[0]
	assert.Equal(t, "messenger", conv.Platform)
	assert.Equal(t, "messenger User 123456", conv.CustomerName)
	assert.Equal(t, int32(1), conv.UnreadCount)
	assert.Equal(t, "active", conv.Status)
	assert.Equal(t, "Bonjour, comment puis-je vous aider ?", conv.LastMessage)
	assert.True(t, conv.LastMessageAt.Time.After(time.UnixMilli(1_700_000_000_000)))

	msgs := p.store.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "customer", msgs[0].Sender)
	assert.Equal(t, "Hello", msgs[0].Content)
	assert.Equal(t, "agent", msgs[1].Sender)

	assert.Equal(t, int32(1), p.geminiCalls.Load())
	assert.Equal(t, []graphCall{{
		Token:     "page-token",
		Recipient: "123456",
		Text:      "Bonjour, comment puis-je vous aider ?",
	}}, p.graphCalls())
}

func TestPipelineInstagramNoCandidate(t *testing.T) {
	t.Parallel()
	p := newPipeline(t, `{"candidates":[]}`)
	p.configureAgent(t, true)

	p.deliver(t, "987_654", "Hello", "m1")

	convs := p.store.Conversations()
	require.Len(t, convs, 1)
	assert.Equal(t, "instagram", convs[0].Platform)
	assert.Equal(t, "instagram User 87_654", convs[0].CustomerName)
	assert.Equal(t, "Hello", convs[0].LastMessage)

	msgs := p.store.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "customer", msgs[0].Sender)
	assert.Equal(t, int32(1), p.geminiCalls.Load())
	assert.Empty(t, p.graphCalls())
}

func TestPipelineAutoRespondOffNeverCallsGemini(t *testing.T) {
	t.Parallel()
	p := newPipeline(t, `{"candidates":[{"content":{"parts":[{"text":"unused"}]}}]}`)
	p.configureAgent(t, false)

	p.deliver(t, "123456", "Hello", "m1")

	assert.Len(t, p.store.Messages(), 1)
	assert.Zero(t, p.geminiCalls.Load())
	assert.Empty(t, p.graphCalls())
}
