// Package memdb is an in-memory sqlc.Querier used by tests in place of Postgres.
package memdb

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/beybot/beybot/internal/db"
	"github.com/beybot/beybot/internal/db/sqlc"
)

// Store mirrors the schema closely enough for service-level tests: unique
// thread tuples, the partial message index and pgx.ErrNoRows on misses.
type Store struct {
	mu sync.Mutex

	conversations []sqlc.Conversation
	messages      []sqlc.Message
	agentConfigs  map[[16]byte]sqlc.AgentConfig
	products      []sqlc.Product
	pages         map[string]sqlc.FacebookPage
	subscriptions []sqlc.WebhookSubscription
	settings      map[string]sqlc.SystemSetting

	failures map[string]error
	calls    map[string]int
	now      func() time.Time
}

var _ sqlc.Querier = (*Store)(nil)

func New() *Store {
	return &Store{
		agentConfigs: map[[16]byte]sqlc.AgentConfig{},
		pages:        map[string]sqlc.FacebookPage{},
		settings:     map[string]sqlc.SystemSetting{},
		failures:     map[string]error{},
		calls:        map[string]int{},
		now:          time.Now,
	}
}

// FailOn makes the named query method return err until cleared with nil.
func (s *Store) FailOn(method string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, method)
		return
	}
	s.failures[method] = err
}

// Calls reports how many times the named query method was invoked.
func (s *Store) Calls(method string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[method]
}

func (s *Store) enter(method string) error {
	s.calls[method]++
	return s.failures[method]
}

func (s *Store) stamp() pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: s.now().UTC(), Valid: true}
}

// AddPage registers a connected page.
func (s *Store) AddPage(page sqlc.FacebookPage) sqlc.FacebookPage {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !page.ID.Valid {
		page.ID = db.NewUUID()
	}
	if !page.CreatedAt.Valid {
		page.CreatedAt = s.stamp()
	}
	s.pages[page.PageID] = page
	return page
}

// AddSubscription registers a webhook subscription row.
func (s *Store) AddSubscription(sub sqlc.WebhookSubscription) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !sub.ID.Valid {
		sub.ID = db.NewUUID()
	}
	s.subscriptions = append(s.subscriptions, sub)
}

// AddProduct registers a catalog row.
func (s *Store) AddProduct(p sqlc.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !p.ID.Valid {
		p.ID = db.NewUUID()
	}
	if !p.CreatedAt.Valid {
		p.CreatedAt = s.stamp()
	}
	s.products = append(s.products, p)
}

// SetSystemSetting stores an admin-wide key/value pair.
func (s *Store) SetSystemSetting(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings[key] = sqlc.SystemSetting{SettingKey: key, SettingValue: value, UpdatedAt: s.stamp()}
}

// Conversations returns a snapshot of every stored conversation.
func (s *Store) Conversations() []sqlc.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sqlc.Conversation(nil), s.conversations...)
}

// Messages returns a snapshot of every stored message in insertion order.
func (s *Store) Messages() []sqlc.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sqlc.Message(nil), s.messages...)
}

func (s *Store) CountActiveSubscriptions(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("CountActiveSubscriptions"); err != nil {
		return 0, err
	}
	var n int64
	for _, sub := range s.subscriptions {
		if sub.IsActive {
			n++
		}
	}
	return n, nil
}

func (s *Store) CountActiveSubscriptionsByVerifyToken(_ context.Context, verifyToken string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("CountActiveSubscriptionsByVerifyToken"); err != nil {
		return 0, err
	}
	var n int64
	for _, sub := range s.subscriptions {
		if sub.IsActive && sub.VerifyToken == verifyToken {
			n++
		}
	}
	return n, nil
}

func (s *Store) CreateConversation(_ context.Context, arg sqlc.CreateConversationParams) (sqlc.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("CreateConversation"); err != nil {
		return sqlc.Conversation{}, err
	}
	for i, c := range s.conversations {
		if c.UserID == arg.UserID && c.Platform == arg.Platform &&
			c.PlatformConversationID == arg.PlatformConversationID && c.PageID == arg.PageID {
			c.LastMessage = arg.LastMessage
			c.LastMessageAt = arg.LastMessageAt
			c.UnreadCount++
			c.Status = "active"
			c.UpdatedAt = s.stamp()
			s.conversations[i] = c
			return c, nil
		}
	}
	now := s.stamp()
	c := sqlc.Conversation{
		ID:                     db.NewUUID(),
		UserID:                 arg.UserID,
		CustomerName:           arg.CustomerName,
		Platform:               arg.Platform,
		PlatformConversationID: arg.PlatformConversationID,
		PageID:                 arg.PageID,
		Status:                 "active",
		LastMessage:            arg.LastMessage,
		LastMessageAt:          arg.LastMessageAt,
		UnreadCount:            1,
		CreatedAt:              now,
		UpdatedAt:              now,
	}
	s.conversations = append(s.conversations, c)
	return c, nil
}

func (s *Store) CreateMessage(_ context.Context, arg sqlc.CreateMessageParams) (sqlc.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("CreateMessage"); err != nil {
		return sqlc.Message{}, err
	}
	if s.findConversation(arg.ConversationID) < 0 {
		return sqlc.Message{}, &pgconn.PgError{Code: "23503", Message: "conversation does not exist"}
	}
	if arg.PlatformMessageID.Valid {
		for _, m := range s.messages {
			if m.ConversationID == arg.ConversationID && m.PlatformMessageID.Valid &&
				m.PlatformMessageID.String == arg.PlatformMessageID.String {
				return sqlc.Message{}, &pgconn.PgError{Code: "23505", Message: "duplicate platform message id"}
			}
		}
	}
	createdAt := arg.CreatedAt
	if !createdAt.Valid {
		createdAt = s.stamp()
	}
	m := sqlc.Message{
		ID:                db.NewUUID(),
		ConversationID:    arg.ConversationID,
		Sender:            arg.Sender,
		Content:           arg.Content,
		PlatformMessageID: arg.PlatformMessageID,
		CreatedAt:         createdAt,
	}
	s.messages = append(s.messages, m)
	return m, nil
}

func (s *Store) ExistsMessageByPlatformID(_ context.Context, arg sqlc.ExistsMessageByPlatformIDParams) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("ExistsMessageByPlatformID"); err != nil {
		return false, err
	}
	if !arg.PlatformMessageID.Valid {
		return false, nil
	}
	for _, m := range s.messages {
		if !m.PlatformMessageID.Valid || m.PlatformMessageID.String != arg.PlatformMessageID.String {
			continue
		}
		if idx := s.findConversation(m.ConversationID); idx >= 0 && s.conversations[idx].PageID == arg.PageID {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) GetAgentConfig(_ context.Context, userID pgtype.UUID) (sqlc.AgentConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("GetAgentConfig"); err != nil {
		return sqlc.AgentConfig{}, err
	}
	cfg, ok := s.agentConfigs[userID.Bytes]
	if !ok || !userID.Valid {
		return sqlc.AgentConfig{}, pgx.ErrNoRows
	}
	return cfg, nil
}

func (s *Store) GetConversationByID(_ context.Context, id pgtype.UUID) (sqlc.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("GetConversationByID"); err != nil {
		return sqlc.Conversation{}, err
	}
	idx := s.findConversation(id)
	if idx < 0 {
		return sqlc.Conversation{}, pgx.ErrNoRows
	}
	return s.conversations[idx], nil
}

func (s *Store) GetConversationByThread(_ context.Context, arg sqlc.GetConversationByThreadParams) (sqlc.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("GetConversationByThread"); err != nil {
		return sqlc.Conversation{}, err
	}
	for _, c := range s.conversations {
		if c.UserID == arg.UserID && c.Platform == arg.Platform &&
			c.PlatformConversationID == arg.PlatformConversationID && c.PageID == arg.PageID {
			return c, nil
		}
	}
	return sqlc.Conversation{}, pgx.ErrNoRows
}

func (s *Store) GetPageByPageID(_ context.Context, pageID string) (sqlc.FacebookPage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("GetPageByPageID"); err != nil {
		return sqlc.FacebookPage{}, err
	}
	page, ok := s.pages[pageID]
	if !ok {
		return sqlc.FacebookPage{}, pgx.ErrNoRows
	}
	return page, nil
}

func (s *Store) GetSystemSetting(_ context.Context, settingKey string) (sqlc.SystemSetting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("GetSystemSetting"); err != nil {
		return sqlc.SystemSetting{}, err
	}
	setting, ok := s.settings[settingKey]
	if !ok {
		return sqlc.SystemSetting{}, pgx.ErrNoRows
	}
	return setting, nil
}

func (s *Store) ListConversationsByUser(_ context.Context, arg sqlc.ListConversationsByUserParams) ([]sqlc.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("ListConversationsByUser"); err != nil {
		return nil, err
	}
	var items []sqlc.Conversation
	for _, c := range s.conversations {
		if c.UserID == arg.UserID {
			items = append(items, c)
		}
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].LastMessageAt.Time.After(items[j].LastMessageAt.Time)
	})
	if arg.Limit > 0 && len(items) > int(arg.Limit) {
		items = items[:arg.Limit]
	}
	return items, nil
}

func (s *Store) ListMessagesByConversation(_ context.Context, conversationID pgtype.UUID) ([]sqlc.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("ListMessagesByConversation"); err != nil {
		return nil, err
	}
	return s.messagesFor(conversationID), nil
}

func (s *Store) ListProductsForContext(_ context.Context, arg sqlc.ListProductsForContextParams) ([]sqlc.ListProductsForContextRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("ListProductsForContext"); err != nil {
		return nil, err
	}
	var items []sqlc.ListProductsForContextRow
	for _, p := range s.products {
		if p.UserID != arg.UserID {
			continue
		}
		price, _ := p.Price.Float64Value()
		items = append(items, sqlc.ListProductsForContextRow{
			ID:          p.ID,
			Name:        p.Name,
			Description: p.Description,
			Price:       price.Float64,
			Stock:       p.Stock,
			Category:    p.Category,
		})
		if arg.Limit > 0 && len(items) == int(arg.Limit) {
			break
		}
	}
	return items, nil
}

func (s *Store) ListRecentMessages(_ context.Context, arg sqlc.ListRecentMessagesParams) ([]sqlc.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("ListRecentMessages"); err != nil {
		return nil, err
	}
	items := s.messagesFor(arg.ConversationID)
	if arg.Limit > 0 && len(items) > int(arg.Limit) {
		items = items[len(items)-int(arg.Limit):]
	}
	return items, nil
}

func (s *Store) MarkConversationRead(_ context.Context, id pgtype.UUID) (sqlc.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("MarkConversationRead"); err != nil {
		return sqlc.Conversation{}, err
	}
	return s.mutateConversation(id, func(c *sqlc.Conversation) {
		c.UnreadCount = 0
	})
}

func (s *Store) UpdateConversationInbound(_ context.Context, arg sqlc.UpdateConversationInboundParams) (sqlc.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("UpdateConversationInbound"); err != nil {
		return sqlc.Conversation{}, err
	}
	return s.mutateConversation(arg.ID, func(c *sqlc.Conversation) {
		c.LastMessage = arg.LastMessage
		c.LastMessageAt = arg.LastMessageAt
		c.UnreadCount++
		c.Status = "active"
	})
}

func (s *Store) UpdateConversationLastMessage(_ context.Context, arg sqlc.UpdateConversationLastMessageParams) (sqlc.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("UpdateConversationLastMessage"); err != nil {
		return sqlc.Conversation{}, err
	}
	return s.mutateConversation(arg.ID, func(c *sqlc.Conversation) {
		c.LastMessage = arg.LastMessage
		c.LastMessageAt = arg.LastMessageAt
	})
}

func (s *Store) UpdateConversationStatus(_ context.Context, arg sqlc.UpdateConversationStatusParams) (sqlc.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("UpdateConversationStatus"); err != nil {
		return sqlc.Conversation{}, err
	}
	return s.mutateConversation(arg.ID, func(c *sqlc.Conversation) {
		c.Status = arg.Status
	})
}

func (s *Store) UpsertAgentConfig(_ context.Context, arg sqlc.UpsertAgentConfigParams) (sqlc.AgentConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("UpsertAgentConfig"); err != nil {
		return sqlc.AgentConfig{}, err
	}
	apiKey := arg.GeminiApiKey
	if existing, ok := s.agentConfigs[arg.UserID.Bytes]; ok && !apiKey.Valid {
		apiKey = existing.GeminiApiKey
	}
	cfg := sqlc.AgentConfig{
		UserID:            arg.UserID,
		SystemPrompt:      arg.SystemPrompt,
		Language:          arg.Language,
		Tone:              arg.Tone,
		Personality:       arg.Personality,
		AutoRespond:       arg.AutoRespond,
		OrderConfirmation: arg.OrderConfirmation,
		FollowUp:          arg.FollowUp,
		Escalation:        arg.Escalation,
		GeminiModel:       arg.GeminiModel,
		GeminiApiKey:      apiKey,
		UpdatedAt:         s.stamp(),
	}
	s.agentConfigs[arg.UserID.Bytes] = cfg
	return cfg, nil
}

func (s *Store) findConversation(id pgtype.UUID) int {
	for i, c := range s.conversations {
		if c.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) mutateConversation(id pgtype.UUID, fn func(*sqlc.Conversation)) (sqlc.Conversation, error) {
	idx := s.findConversation(id)
	if idx < 0 {
		return sqlc.Conversation{}, pgx.ErrNoRows
	}
	c := s.conversations[idx]
	fn(&c)
	c.UpdatedAt = s.stamp()
	s.conversations[idx] = c
	return c, nil
}

func (s *Store) messagesFor(conversationID pgtype.UUID) []sqlc.Message {
	var items []sqlc.Message
	for _, m := range s.messages {
		if m.ConversationID == conversationID {
			items = append(items, m)
		}
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAt.Time.Before(items[j].CreatedAt.Time)
	})
	return items
}
