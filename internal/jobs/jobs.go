// Package jobs runs background work outside the request that triggered it.
package jobs

import (
	"context"
	"errors"
)

var (
	ErrQueueFull      = errors.New("job queue is full")
	ErrQueueClosed    = errors.New("job queue is closed")
	ErrUnknownJobType = errors.New("no handler registered for job type")
)

// Job is one unit of background work. Payload encoding is up to the producer
// and the registered handler.
type Job struct {
	Type    string
	Payload []byte
}

// Handler processes a Job. Returned errors are logged; jobs are not retried.
type Handler func(ctx context.Context, job Job) error

// Queue accepts jobs and runs them on registered handlers. Ordering between
// jobs is not guaranteed.
type Queue interface {
	Register(jobType string, h Handler)
	Enqueue(ctx context.Context, job Job) error
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}
