package ner

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/gonkalabs/safedata/internal/sanitize"
)

// maxAttempts bounds how many replicas one prediction is tried on.
const maxAttempts = 3

// Pool spreads predictions across several sidecar replicas using atomic
// round-robin selection. A failed call is retried on the next replica.
type Pool struct {
	replicas []sanitize.EntityModel
	counter  atomic.Uint64
}

// NewPool creates a Pool with one Client per base URL.
// At least one URL is required.
func NewPool(urls []string, timeout time.Duration) (*Pool, error) {
	if len(urls) == 0 {
		return nil, fmt.Errorf("ner pool: at least one sidecar URL is required")
	}
	replicas := make([]sanitize.EntityModel, len(urls))
	for i, u := range urls {
		replicas[i] = New(u, timeout)
		slog.Info("ner: replica registered", "index", i, "url", u)
	}
	return &Pool{replicas: replicas}, nil
}

// Len returns the number of replicas in the pool.
func (p *Pool) Len() int {
	return len(p.replicas)
}

// next returns the next replica index. Safe for concurrent use.
func (p *Pool) next() int {
	return int((p.counter.Add(1) - 1) % uint64(len(p.replicas)))
}

// Predict implements sanitize.EntityModel. It tries up to three distinct
// replicas and returns the last error if all of them fail.
func (p *Pool) Predict(ctx context.Context, text string, labels []string, threshold float64) ([]sanitize.Finding, error) {
	var lastErr error
	attempts := min(maxAttempts, len(p.replicas))
	start := p.next()
	for attempt := 0; attempt < attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		idx := (start + attempt) % len(p.replicas)
		found, err := p.replicas[idx].Predict(ctx, text, labels, threshold)
		if err == nil {
			return found, nil
		}
		slog.Warn("ner: replica failed, retrying with next", "attempt", attempt+1, "replica", idx, "err", err)
		lastErr = err
	}
	return nil, lastErr
}
