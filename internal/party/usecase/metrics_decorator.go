package usecase

import (
	"context"
	"iter"
	"time"

	accessTokenDomain "github.com/allisson/ocpi/internal/accesstoken/domain"
	commandlogDomain "github.com/allisson/ocpi/internal/commandlog/domain"
	"github.com/allisson/ocpi/internal/metrics"
	partyDomain "github.com/allisson/ocpi/internal/party/domain"
)

const metricsDomain = "remote_parties"

// registryWithMetrics decorates Registry with metrics instrumentation.
type registryWithMetrics struct {
	next    Registry
	metrics metrics.BusinessMetrics
}

// NewRegistryWithMetrics wraps a Registry with metrics recording.
func NewRegistryWithMetrics(registry Registry, m metrics.BusinessMetrics) Registry {
	return &registryWithMetrics{
		next:    registry,
		metrics: m,
	}
}

// recordResult labels mutations with their outcome, or "error" on durability failures.
func (r *registryWithMetrics) recordResult(
	ctx context.Context,
	operation string,
	start time.Time,
	result partyDomain.Result,
	err error,
) {
	status := string(result.Outcome)
	if err != nil {
		status = metrics.StatusError
	}
	metrics.Observe(ctx, r.metrics, metricsDomain, operation, start, status)
}

// Add records metrics for party inserts.
func (r *registryWithMetrics) Add(ctx context.Context, input partyDomain.PartyInput) (partyDomain.Result, error) {
	start := time.Now()
	result, err := r.next.Add(ctx, input)
	r.recordResult(ctx, "party_add", start, result, err)
	return result, err
}

// AddIfNotExists records metrics for idempotent party inserts.
func (r *registryWithMetrics) AddIfNotExists(
	ctx context.Context,
	input partyDomain.PartyInput,
) (partyDomain.Result, error) {
	start := time.Now()
	result, err := r.next.AddIfNotExists(ctx, input)
	r.recordResult(ctx, "party_add_if_not_exists", start, result, err)
	return result, err
}

// AddOrUpdate records metrics for party upserts.
func (r *registryWithMetrics) AddOrUpdate(
	ctx context.Context,
	input partyDomain.PartyInput,
) (partyDomain.Result, error) {
	start := time.Now()
	result, err := r.next.AddOrUpdate(ctx, input)
	r.recordResult(ctx, "party_add_or_update", start, result, err)
	return result, err
}

// Update records metrics for compare-and-swap updates.
func (r *registryWithMetrics) Update(
	ctx context.Context,
	expected *partyDomain.RemoteParty,
	input partyDomain.PartyInput,
) (partyDomain.Result, error) {
	start := time.Now()
	result, err := r.next.Update(ctx, expected, input)
	r.recordResult(ctx, "party_update", start, result, err)
	return result, err
}

// Remove records metrics for party removals.
func (r *registryWithMetrics) Remove(ctx context.Context, id string) (partyDomain.Result, error) {
	start := time.Now()
	result, err := r.next.Remove(ctx, id)
	r.recordResult(ctx, "party_remove", start, result, err)
	return result, err
}

// RemoveAll records metrics for clearing the registry.
func (r *registryWithMetrics) RemoveAll(ctx context.Context) (partyDomain.Result, error) {
	start := time.Now()
	result, err := r.next.RemoveAll(ctx)
	r.recordResult(ctx, "party_remove_all", start, result, err)
	return result, err
}

// TryGetByAccessToken records metrics for credential lookups.
func (r *registryWithMetrics) TryGetByAccessToken(
	ctx context.Context,
	token, totpCode string,
) ([]partyDomain.PartyAccess, error) {
	start := time.Now()
	matches, err := r.next.TryGetByAccessToken(ctx, token, totpCode)
	metrics.Observe(ctx, r.metrics, metricsDomain, "party_authenticate", start, metrics.StatusFromError(err))

	return matches, err
}

// Replay records metrics for restoring the registry.
func (r *registryWithMetrics) Replay(
	ctx context.Context,
	commands iter.Seq2[commandlogDomain.CommandWithMetadata, error],
) (ReplayReport, error) {
	start := time.Now()
	report, err := r.next.Replay(ctx, commands)
	metrics.Observe(ctx, r.metrics, metricsDomain, "party_replay", start, metrics.StatusFromError(err))

	return report, err
}

func (r *registryWithMetrics) Get(id string) (*partyDomain.RemoteParty, error) { return r.next.Get(id) }

func (r *registryWithMetrics) TryGet(id string) (*partyDomain.RemoteParty, bool) { return r.next.TryGet(id) }

func (r *registryWithMetrics) Contains(id string) bool { return r.next.Contains(id) }

func (r *registryWithMetrics) List() []*partyDomain.RemoteParty { return r.next.List() }

func (r *registryWithMetrics) ListByAccessToken(token string) []*partyDomain.RemoteParty {
	return r.next.ListByAccessToken(token)
}

func (r *registryWithMetrics) ListByAccessTokenAndStatus(
	token string,
	status accessTokenDomain.AccessStatus,
) []*partyDomain.RemoteParty {
	return r.next.ListByAccessTokenAndStatus(token, status)
}
