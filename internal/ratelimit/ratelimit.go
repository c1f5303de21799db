// Package ratelimit provides fixed-window request limiting.
package ratelimit

import (
	"context"
	"time"
)

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// Limiter counts requests per key in fixed windows.
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

// Rule is the per-key budget.
type Rule struct {
	Max    int
	Window time.Duration
}

func (r Rule) normalized() Rule {
	if r.Max <= 0 {
		r.Max = 60
	}
	if r.Window <= 0 {
		r.Window = time.Minute
	}
	return r
}
