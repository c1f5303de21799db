package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"
)

// PoolConfig sizes the in-process worker pool.
type PoolConfig struct {
	Workers int
	Buffer  int
	// JobTimeout bounds a single job. Zero means no bound.
	JobTimeout time.Duration
}

// Pool is an in-process bounded worker pool. Jobs run on a context detached
// from the enqueuing request.
type Pool struct {
	cfg    PoolConfig
	logger *slog.Logger

	mu       sync.RWMutex
	handlers map[string]Handler
	jobs     chan Job
	closed   bool
	started  bool

	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

var _ Queue = (*Pool)(nil)

func NewPool(log *slog.Logger, cfg PoolConfig) *Pool {
	if log == nil {
		log = slog.Default()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.Buffer < 0 {
		cfg.Buffer = 0
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		cfg:      cfg,
		logger:   log.With(slog.String("component", "jobs"), slog.String("backend", "memory")),
		handlers: map[string]Handler{},
		jobs:     make(chan Job, cfg.Buffer),
		baseCtx:  ctx,
		cancel:   cancel,
	}
}

func (p *Pool) Register(jobType string, h Handler) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handlers[jobType] = h
}

// Enqueue hands job to the pool without blocking. A full buffer returns
// ErrQueueFull.
func (p *Pool) Enqueue(_ context.Context, job Job) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrQueueClosed
	}
	if _, ok := p.handlers[job.Type]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownJobType, job.Type)
	}
	select {
	case p.jobs <- job:
		return nil
	default:
		return ErrQueueFull
	}
}

// Start launches the workers. Calling it more than once is a no-op.
func (p *Pool) Start(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrQueueClosed
	}
	if p.started {
		return nil
	}
	p.started = true
	for i := 0; i < p.cfg.Workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	p.logger.Info("job pool started", slog.Int("workers", p.cfg.Workers), slog.Int("buffer", p.cfg.Buffer))
	return nil
}

// Stop refuses new jobs and waits for queued ones to finish. When ctx ends
// first, running jobs are cancelled and Stop returns ctx.Err().
func (p *Pool) Stop(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.jobs)
	started := p.started
	p.mu.Unlock()

	if !started {
		p.cancel()
		return nil
	}
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		p.cancel()
		return nil
	case <-ctx.Done():
		p.cancel()
		return ctx.Err()
	}
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for job := range p.jobs {
		p.run(job)
	}
}

func (p *Pool) run(job Job) {
	p.mu.RLock()
	h := p.handlers[job.Type]
	p.mu.RUnlock()
	if h == nil {
		p.logger.Warn("dropping job without handler", slog.String("type", job.Type))
		return
	}

	ctx := p.baseCtx
	if p.cfg.JobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.JobTimeout)
		defer cancel()
	}
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("job panicked",
				slog.String("type", job.Type),
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())),
			)
		}
	}()
	start := time.Now()
	if err := h(ctx, job); err != nil {
		p.logger.Error("job failed",
			slog.String("type", job.Type),
			slog.Duration("elapsed", time.Since(start)),
			slog.Any("error", err),
		)
		return
	}
	p.logger.Debug("job done", slog.String("type", job.Type), slog.Duration("elapsed", time.Since(start)))
}
