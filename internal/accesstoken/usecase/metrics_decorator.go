package usecase

import (
	"context"
	"time"

	"github.com/allisson/ocpi/internal/accesstoken/domain"
	"github.com/allisson/ocpi/internal/metrics"
)

// directoryWithMetrics decorates Directory with metrics instrumentation.
// Lookups sit on the request path and are passed through unmeasured.
type directoryWithMetrics struct {
	next    Directory
	metrics metrics.BusinessMetrics
}

// NewDirectoryWithMetrics wraps a Directory with metrics recording.
func NewDirectoryWithMetrics(directory Directory, m metrics.BusinessMetrics) Directory {
	return &directoryWithMetrics{
		next:    directory,
		metrics: m,
	}
}

func (d *directoryWithMetrics) record(ctx context.Context, operation string, start time.Time, err error) {
	metrics.Observe(ctx, d.metrics, "access_tokens", operation, start, metrics.StatusFromError(err))
}

// Set records metrics for token status changes.
func (d *directoryWithMetrics) Set(ctx context.Context, token string, status domain.AccessStatus) error {
	start := time.Now()
	err := d.next.Set(ctx, token, status)
	d.record(ctx, "access_token_set", start, err)
	return err
}

// Remove records metrics for token removals.
func (d *directoryWithMetrics) Remove(ctx context.Context, token string) (bool, error) {
	start := time.Now()
	removed, err := d.next.Remove(ctx, token)
	d.record(ctx, "access_token_remove", start, err)
	return removed, err
}

// Replay records metrics for restoring the directory.
func (d *directoryWithMetrics) Replay(ctx context.Context) (int, error) {
	start := time.Now()
	n, err := d.next.Replay(ctx)
	d.record(ctx, "access_token_replay", start, err)
	return n, err
}

func (d *directoryWithMetrics) Query(token string) domain.AccessStatus { return d.next.Query(token) }

func (d *directoryWithMetrics) IsAllowed(token string) bool { return d.next.IsAllowed(token) }

func (d *directoryWithMetrics) IsBlocked(token string) bool { return d.next.IsBlocked(token) }

func (d *directoryWithMetrics) List() []domain.AccessToken { return d.next.List() }

func (d *directoryWithMetrics) DefaultStatus() domain.AccessStatus { return d.next.DefaultStatus() }
