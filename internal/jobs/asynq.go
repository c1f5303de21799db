package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/hibiken/asynq"
)

// AsynqConfig configures the Redis-backed queue.
type AsynqConfig struct {
	RedisURL    string
	Queue       string
	Concurrency int
}

// AsynqQueue runs jobs through hibiken/asynq on Redis. Tasks are enqueued
// with MaxRetry(0); a failed job is logged and dropped.
type AsynqQueue struct {
	client *asynq.Client
	server *asynq.Server
	mux    *asynq.ServeMux
	queue  string
	logger *slog.Logger

	mu       sync.Mutex
	handlers map[string]struct{}
}

var _ Queue = (*AsynqQueue)(nil)

func NewAsynqQueue(log *slog.Logger, cfg AsynqConfig) (*AsynqQueue, error) {
	if log == nil {
		log = slog.Default()
	}
	if strings.TrimSpace(cfg.RedisURL) == "" {
		return nil, errors.New("asynq: redis url is required")
	}
	opt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("asynq: parse redis url: %w", err)
	}
	queue := strings.TrimSpace(cfg.Queue)
	if queue == "" {
		queue = "default"
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}
	logger := log.With(slog.String("component", "jobs"), slog.String("backend", "asynq"))
	srv := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues:      map[string]int{queue: 1},
		Logger:      slogAsynqLogger{logger: logger},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			logger.Error("job failed", slog.String("type", task.Type()), slog.Any("error", err))
		}),
	})
	return &AsynqQueue{
		client:   asynq.NewClient(opt),
		server:   srv,
		mux:      asynq.NewServeMux(),
		queue:    queue,
		logger:   logger,
		handlers: map[string]struct{}{},
	}, nil
}

func (q *AsynqQueue) Register(jobType string, h Handler) {
	q.mu.Lock()
	q.handlers[jobType] = struct{}{}
	q.mu.Unlock()
	q.mux.HandleFunc(jobType, func(ctx context.Context, t *asynq.Task) error {
		return h(ctx, Job{Type: t.Type(), Payload: t.Payload()})
	})
}

func (q *AsynqQueue) Enqueue(ctx context.Context, job Job) error {
	if strings.TrimSpace(job.Type) == "" {
		return errors.New("asynq: job type is required")
	}
	q.mu.Lock()
	_, known := q.handlers[job.Type]
	q.mu.Unlock()
	if !known {
		return fmt.Errorf("%w: %s", ErrUnknownJobType, job.Type)
	}
	info, err := q.client.EnqueueContext(ctx, asynq.NewTask(job.Type, job.Payload),
		asynq.Queue(q.queue),
		asynq.MaxRetry(0),
	)
	if err != nil {
		return fmt.Errorf("asynq: enqueue %s: %w", job.Type, err)
	}
	q.logger.Debug("job enqueued", slog.String("type", job.Type), slog.String("id", info.ID))
	return nil
}

func (q *AsynqQueue) Start(_ context.Context) error {
	if err := q.server.Start(q.mux); err != nil {
		return fmt.Errorf("asynq: start server: %w", err)
	}
	q.logger.Info("asynq worker started", slog.String("queue", q.queue))
	return nil
}

// Stop shuts the worker down and closes the client. asynq's Shutdown takes
// no context; it waits for in-flight tasks up to its own timeout.
func (q *AsynqQueue) Stop(_ context.Context) error {
	q.server.Shutdown()
	return q.client.Close()
}

type slogAsynqLogger struct {
	logger *slog.Logger
}

func (l slogAsynqLogger) Debug(args ...any) { l.logger.Debug(fmt.Sprint(args...)) }
func (l slogAsynqLogger) Info(args ...any)  { l.logger.Info(fmt.Sprint(args...)) }
func (l slogAsynqLogger) Warn(args ...any)  { l.logger.Warn(fmt.Sprint(args...)) }
func (l slogAsynqLogger) Error(args ...any) { l.logger.Error(fmt.Sprint(args...)) }

func (l slogAsynqLogger) Fatal(args ...any) {
	l.logger.Error(fmt.Sprint(args...))
	os.Exit(1)
}
