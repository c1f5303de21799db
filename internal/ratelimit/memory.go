package ratelimit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

type window struct {
	count   int
	resetAt time.Time
}

// MemoryLimiter keeps windows in process memory. Expired windows are purged
// by a cron job every minute while the limiter is started.
type MemoryLimiter struct {
	rule   Rule
	logger *slog.Logger
	now    func() time.Time

	mu      sync.Mutex
	windows map[string]window

	cron *cron.Cron
}

var _ Limiter = (*MemoryLimiter)(nil)

func NewMemoryLimiter(log *slog.Logger, rule Rule) *MemoryLimiter {
	if log == nil {
		log = slog.Default()
	}
	return &MemoryLimiter{
		rule:    rule.normalized(),
		logger:  log.With(slog.String("component", "ratelimit"), slog.String("backend", "memory")),
		now:     time.Now,
		windows: map[string]window{},
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (Decision, error) {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[key]
	if !ok || !now.Before(w.resetAt) {
		w = window{resetAt: now.Add(l.rule.Window)}
	}
	if w.count >= l.rule.Max {
		l.windows[key] = w
		return Decision{Allowed: false, Limit: l.rule.Max, Remaining: 0, ResetAt: w.resetAt}, nil
	}
	w.count++
	l.windows[key] = w
	return Decision{
		Allowed:   true,
		Limit:     l.rule.Max,
		Remaining: l.rule.Max - w.count,
		ResetAt:   w.resetAt,
	}, nil
}

// Purge drops every window that has expired and returns how many went.
func (l *MemoryLimiter) Purge() int {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()
	removed := 0
	for key, w := range l.windows {
		if !now.Before(w.resetAt) {
			delete(l.windows, key)
			removed++
		}
	}
	return removed
}

// Start schedules the periodic purge.
func (l *MemoryLimiter) Start() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cron != nil {
		return nil
	}
	c := cron.New()
	if _, err := c.AddFunc("@every 1m", func() {
		if n := l.Purge(); n > 0 {
			l.logger.Debug("purged expired rate limit windows", slog.Int("count", n))
		}
	}); err != nil {
		return err
	}
	c.Start()
	l.cron = c
	return nil
}

// Stop halts the purge job and waits for a running purge to finish.
func (l *MemoryLimiter) Stop(ctx context.Context) error {
	l.mu.Lock()
	c := l.cron
	l.cron = nil
	l.mu.Unlock()
	if c == nil {
		return nil
	}
	select {
	case <-c.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *MemoryLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.windows)
}
