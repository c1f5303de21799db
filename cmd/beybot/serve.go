package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/beybot/beybot/internal/agent"
	"github.com/beybot/beybot/internal/agentconfig"
	"github.com/beybot/beybot/internal/catalog"
	"github.com/beybot/beybot/internal/channel"
	"github.com/beybot/beybot/internal/channel/adapters/messenger"
	"github.com/beybot/beybot/internal/config"
	"github.com/beybot/beybot/internal/conversation"
	"github.com/beybot/beybot/internal/db"
	dbsqlc "github.com/beybot/beybot/internal/db/sqlc"
	"github.com/beybot/beybot/internal/gemini"
	"github.com/beybot/beybot/internal/handlers"
	"github.com/beybot/beybot/internal/inbound"
	"github.com/beybot/beybot/internal/jobs"
	"github.com/beybot/beybot/internal/logger"
	"github.com/beybot/beybot/internal/message"
	"github.com/beybot/beybot/internal/message/event"
	"github.com/beybot/beybot/internal/pages"
	"github.com/beybot/beybot/internal/ratelimit"
	"github.com/beybot/beybot/internal/server"
	"github.com/beybot/beybot/internal/settings"
	"github.com/beybot/beybot/internal/version"
	"github.com/beybot/beybot/internal/webhook"
)

func runServe() {
	fx.New(
		fx.Provide(
			provideConfig,
			provideLogger,
			provideDBConn,
			provideDBQueries,
			event.NewHub,
			provideMessageService,
			conversation.NewService,
			settings.NewService,
			pages.NewService,
			catalog.NewService,
			agentconfig.NewService,
			provideGeminiClient,
			provideChannelRegistry,
			channel.NewDispatcher,
			provideQueue,
			provideOrchestrator,
			provideProcessor,
			provideLimiter,
			provideServerHandler(providePingHandler),
			provideServerHandler(provideAIHandler),
			provideServerHandler(provideAgentConfigHandler),
			provideServerHandler(provideConversationsHandler),
			provideServerHandler(provideAuthHandler),
			provideServerHandler(provideWebhookHandler),
			provideServer,
		),
		fx.Invoke(
			registerJobs,
			startQueue,
			startServer,
		),
		fx.WithLogger(func(logger *slog.Logger) fxevent.Logger {
			return &fxevent.SlogLogger{Logger: logger.With(slog.String("component", "fx"))}
		}),
	).Run()
}

func provideServerHandler(fn any) any {
	return fx.Annotate(
		fn,
		fx.As(new(server.Handler)),
		fx.ResultTags(`group:"server_handlers"`),
	)
}

func provideConfig() (config.Config, error) {
	cfgPath := os.Getenv("CONFIG_PATH")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func provideLogger(cfg config.Config) *slog.Logger {
	logger.Init(cfg.Log.Level, cfg.Log.Format, logger.RotatingFile(cfg.Log.File, cfg.Log.MaxSizeMB, cfg.Log.MaxBackups))
	return logger.L
}

func provideDBConn(lc fx.Lifecycle, log *slog.Logger, cfg config.Config) (*pgxpool.Pool, error) {
	if cfg.Postgres.AutoMigrate {
		if err := db.Migrate(log, cfg.Postgres.DSN(), db.MigrateUp); err != nil {
			return nil, fmt.Errorf("db migrate: %w", err)
		}
	}
	conn, err := db.Open(context.Background(), cfg.Postgres)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	lc.Append(fx.Hook{OnStop: func(ctx context.Context) error { conn.Close(); return nil }})
	return conn, nil
}

func provideDBQueries(conn *pgxpool.Pool) dbsqlc.Querier { return dbsqlc.New(conn) }

func provideMessageService(log *slog.Logger, queries dbsqlc.Querier, hub *event.Hub) *message.DBService {
	return message.NewService(log, queries, hub)
}

func provideGeminiClient(log *slog.Logger, cfg config.Config) *gemini.Client {
	return gemini.NewClient(log, cfg.Gemini.BaseURL, seconds(cfg.Gemini.TimeoutSeconds))
}

func provideChannelRegistry(log *slog.Logger, cfg config.Config) *channel.Registry {
	registry := channel.NewRegistry()
	client := messenger.NewGraphClient(log, cfg.Graph.BaseURL, cfg.Graph.Version, seconds(cfg.Graph.TimeoutSeconds))
	messenger.Register(log, registry, client)
	return registry
}

func provideQueue(log *slog.Logger, cfg config.Config) (jobs.Queue, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Queue.Backend)) {
	case "asynq":
		queue, err := jobs.NewAsynqQueue(log, jobs.AsynqConfig{
			RedisURL:    cfg.Redis.URL,
			Queue:       cfg.Queue.Name,
			Concurrency: cfg.Queue.Workers,
		})
		if err != nil {
			return nil, err
		}
		return queue, nil
	case "", "memory":
		return jobs.NewPool(log, jobs.PoolConfig{
			Workers:    cfg.Queue.Workers,
			Buffer:     cfg.Queue.Buffer,
			JobTimeout: 2 * seconds(cfg.Gemini.TimeoutSeconds),
		}), nil
	default:
		return nil, fmt.Errorf("unknown queue backend %q", cfg.Queue.Backend)
	}
}

type orchestratorParams struct {
	fx.In

	Logger        *slog.Logger
	Config        config.Config
	AgentConfigs  *agentconfig.Service
	Messages      *message.DBService
	Products      *catalog.Service
	Settings      *settings.Service
	Gemini        *gemini.Client
	Conversations *conversation.DBService
	Pages         *pages.Service
	Dispatcher    *channel.Dispatcher
}

func provideOrchestrator(p orchestratorParams) *agent.Orchestrator {
	return agent.NewOrchestrator(p.Logger, agent.Deps{
		Configs:    p.AgentConfigs,
		Messages:   p.Messages,
		Products:   p.Products,
		Settings:   p.Settings,
		Generator:  p.Gemini,
		Replies:    p.Conversations,
		Pages:      p.Pages,
		Dispatcher: p.Dispatcher,
		Fallbacks: agent.Fallbacks{
			APIKey: p.Config.Gemini.APIKey,
			Model:  p.Config.Gemini.DefaultModel,
		},
	})
}

func provideProcessor(log *slog.Logger, conversations *conversation.DBService, messages *message.DBService, queue jobs.Queue) *inbound.Processor {
	return inbound.NewProcessor(log, conversations, messages, queue)
}

func provideLimiter(lc fx.Lifecycle, log *slog.Logger, cfg config.Config) (ratelimit.Limiter, error) {
	if !cfg.RateLimit.Enabled {
		return nil, nil
	}
	rule := ratelimit.Rule{Max: cfg.RateLimit.Max, Window: seconds(cfg.RateLimit.WindowSeconds)}
	if strings.TrimSpace(cfg.Redis.URL) != "" {
		client, err := ratelimit.NewRedisClient(context.Background(), cfg.Redis.URL)
		if err != nil {
			return nil, fmt.Errorf("rate limit redis: %w", err)
		}
		lc.Append(fx.Hook{OnStop: func(ctx context.Context) error { return client.Close() }})
		return ratelimit.NewRedisLimiter(log, client, rule), nil
	}
	limiter := ratelimit.NewMemoryLimiter(log, rule)
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error { return limiter.Start() },
		OnStop:  limiter.Stop,
	})
	return limiter, nil
}

func providePingHandler(log *slog.Logger, conn *pgxpool.Pool) *handlers.PingHandler {
	return handlers.NewPingHandler(log, conn)
}

func provideAIHandler(log *slog.Logger, orchestrator *agent.Orchestrator, conversations *conversation.DBService) *handlers.AIHandler {
	return handlers.NewAIHandler(log, orchestrator, conversations)
}

func provideAgentConfigHandler(log *slog.Logger, service *agentconfig.Service) *handlers.AgentConfigHandler {
	return handlers.NewAgentConfigHandler(log, service)
}

func provideConversationsHandler(log *slog.Logger, conversations *conversation.DBService, messages *message.DBService, hub *event.Hub) *handlers.ConversationsHandler {
	return handlers.NewConversationsHandler(log, conversations, messages, hub)
}

func provideAuthHandler(log *slog.Logger, cfg config.Config) (*handlers.AuthHandler, error) {
	expiresIn, err := time.ParseDuration(cfg.Auth.JWTExpiresIn)
	if err != nil {
		return nil, fmt.Errorf("invalid jwt expires in: %w", err)
	}
	return handlers.NewAuthHandler(log, cfg.Auth.JWTSecret, expiresIn), nil
}

func provideWebhookHandler(log *slog.Logger, cfg config.Config, pageService *pages.Service, processor *inbound.Processor) *webhook.Handler {
	return webhook.NewHandler(log, cfg.Webhook, pageService, processor)
}

type serverParams struct {
	fx.In

	Logger   *slog.Logger
	Config   config.Config
	Limiter  ratelimit.Limiter
	Handlers []server.Handler `group:"server_handlers"`
}

func provideServer(params serverParams) (*server.Server, error) {
	if strings.TrimSpace(params.Config.Auth.JWTSecret) == "" {
		return nil, errors.New("auth.jwt_secret is required")
	}
	return server.NewServer(server.Options{
		Addr:      params.Config.Server.Addr,
		JWTSecret: params.Config.Auth.JWTSecret,
		Logger:    params.Logger,
		Limiter:   params.Limiter,
		Handlers:  params.Handlers,
	}), nil
}

func registerJobs(queue jobs.Queue, orchestrator *agent.Orchestrator) {
	queue.Register(agent.JobTypeRespond, orchestrator.HandleJob)
}

func startQueue(lc fx.Lifecycle, queue jobs.Queue) {
	lc.Append(fx.Hook{
		OnStart: queue.Start,
		OnStop:  queue.Stop,
	})
}

func startServer(lc fx.Lifecycle, logger *slog.Logger, srv *server.Server, shutdowner fx.Shutdowner, cfg config.Config) {
	fmt.Printf("Starting BeyBot %s\n", version.GetInfo())
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("http server listening", slog.String("addr", cfg.Server.Addr))
			go func() {
				if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("server failed", slog.Any("error", err))
					_ = shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if err := srv.Stop(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server stop: %w", err)
			}
			return nil
		},
	})
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}
