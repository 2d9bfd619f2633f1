package usecase

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"sort"
	"sync"
	"time"

	"go.uber.org/atomic"

	accessTokenDomain "github.com/allisson/ocpi/internal/accesstoken/domain"
	"github.com/allisson/ocpi/internal/commandlog"
	commandlogDomain "github.com/allisson/ocpi/internal/commandlog/domain"
	apperrors "github.com/allisson/ocpi/internal/errors"
	partyDomain "github.com/allisson/ocpi/internal/party/domain"
	"github.com/allisson/ocpi/internal/totp"
)

// Command names written to the remote party log file.
const (
	CommandAddRemoteParty            = "addRemoteParty"
	CommandAddRemotePartyIfNotExists = "addRemotePartyIfNotExists"
	CommandAddOrUpdateRemoteParty    = "addOrUpdateRemoteParty"
	CommandUpdateRemoteParty         = "updateRemoteParty"
	CommandRemoveRemoteParty         = "removeRemoteParty"
	CommandRemoveAllRemoteParties    = "removeAllRemoteParties"
)

// registry keeps immutable *RemoteParty values in a sync.Map so readers never
// block. Writers for one id are serialized by a per-id mutex, which keeps the
// map equal to the last record appended for that id. RemoveAll and Replay
// exclude all writers through mu. Versions come from one registry-wide
// sequence, so a party that is removed and added again never reuses a version
// an earlier snapshot carried.
type registry struct {
	log    CommandLog
	file   string
	logger *slog.Logger
	now    func() time.Time

	parties sync.Map // map[string]*partyDomain.RemoteParty
	locks   sync.Map // map[string]*sync.Mutex
	mu      sync.RWMutex
	version atomic.Int64
}

// NewRegistry creates an empty registry that persists to file through log.
func NewRegistry(log CommandLog, file string, logger *slog.Logger) Registry {
	return &registry{
		log:    log,
		file:   file,
		logger: logger,
		now:    time.Now,
	}
}

// lockID serializes writers of id and returns the matching unlock.
func (r *registry) lockID(id string) func() {
	r.mu.RLock()
	m, _ := r.locks.LoadOrStore(id, &sync.Mutex{})
	idLock := m.(*sync.Mutex)
	idLock.Lock()
	return func() {
		idLock.Unlock()
		r.mu.RUnlock()
	}
}

func (r *registry) load(id string) (*partyDomain.RemoteParty, bool) {
	v, ok := r.parties.Load(id)
	if !ok {
		return nil, false
	}
	return v.(*partyDomain.RemoteParty), true
}

// build materializes input on top of the current state of the id.
func (r *registry) build(input partyDomain.PartyInput, current *partyDomain.RemoteParty) *partyDomain.RemoteParty {
	now := r.now().UTC()

	p := &partyDomain.RemoteParty{
		ID:                input.ID,
		LocalAccessInfos:  input.LocalAccessInfos,
		RemoteAccessInfos: input.RemoteAccessInfos,
		Status:            input.Status,
		Created:           now,
		LastUpdated:       now,
		Version:           r.version.Inc(),
	}
	if p.Status == "" {
		p.Status = partyDomain.PartyEnabled
	}
	if current != nil {
		p.Created = current.Created
	}
	if input.Created != nil {
		p.Created = input.Created.UTC()
	}
	if input.LastUpdated != nil {
		p.LastUpdated = input.LastUpdated.UTC()
	}
	return p.Clone()
}

// persist appends a snapshot command and waits until it is durable.
func (r *registry) persist(ctx context.Context, name string, payload commandlogDomain.Payload) error {
	future := r.log.Append(ctx, r.file, name, payload, commandlog.EventTrackingID(ctx), commandlog.UserID(ctx))
	// Once queued the line is either skipped (ctx ended first) or written, so
	// waiting past cancellation keeps memory in step with the file.
	if err := future.Wait(context.WithoutCancel(ctx)); err != nil {
		return apperrors.Wrapf(err, "failed to persist %s", name)
	}
	return nil
}

func (r *registry) persistParty(ctx context.Context, name string, p *partyDomain.RemoteParty) error {
	payload, err := commandlogDomain.ObjectPayload(p)
	if err != nil {
		return err
	}
	return r.persist(ctx, name, payload)
}

func invalid(err error) partyDomain.Result {
	return partyDomain.Failed(err.Error())
}

func durabilityFailure(err error) (partyDomain.Result, error) {
	return partyDomain.Failed(err.Error()), err
}

// Add implements Registry.
func (r *registry) Add(ctx context.Context, input partyDomain.PartyInput) (partyDomain.Result, error) {
	return r.insert(ctx, CommandAddRemoteParty, input, false)
}

// AddIfNotExists implements Registry.
func (r *registry) AddIfNotExists(ctx context.Context, input partyDomain.PartyInput) (partyDomain.Result, error) {
	return r.insert(ctx, CommandAddRemotePartyIfNotExists, input, true)
}

func (r *registry) insert(
	ctx context.Context,
	name string,
	input partyDomain.PartyInput,
	idempotent bool,
) (partyDomain.Result, error) {
	if err := input.Validate(); err != nil {
		return invalid(err), nil
	}

	unlock := r.lockID(input.ID)
	defer unlock()

	if _, exists := r.load(input.ID); exists {
		msg := fmt.Sprintf("remote party %s already exists", input.ID)
		if idempotent {
			return partyDomain.NoOperation(msg), nil
		}
		return partyDomain.Failed(msg), nil
	}

	p := r.build(input, nil)
	if err := r.persistParty(ctx, name, p); err != nil {
		return durabilityFailure(err)
	}
	r.parties.Store(p.ID, p)

	return partyDomain.Result{Outcome: partyDomain.OutcomeCreated, Party: p.Clone()}, nil
}

// AddOrUpdate implements Registry.
func (r *registry) AddOrUpdate(ctx context.Context, input partyDomain.PartyInput) (partyDomain.Result, error) {
	if err := input.Validate(); err != nil {
		return invalid(err), nil
	}

	unlock := r.lockID(input.ID)
	defer unlock()

	current, exists := r.load(input.ID)
	p := r.build(input, current)
	if err := r.persistParty(ctx, CommandAddOrUpdateRemoteParty, p); err != nil {
		return durabilityFailure(err)
	}
	r.parties.Store(p.ID, p)

	outcome := partyDomain.OutcomeCreated
	if exists {
		outcome = partyDomain.OutcomeUpdated
	}
	return partyDomain.Result{Outcome: outcome, Party: p.Clone()}, nil
}

// Update implements Registry.
func (r *registry) Update(
	ctx context.Context,
	expected *partyDomain.RemoteParty,
	input partyDomain.PartyInput,
) (partyDomain.Result, error) {
	if expected == nil {
		return partyDomain.Failed("expected remote party is required"), nil
	}
	if expected.ID != input.ID {
		return partyDomain.Failed(
			fmt.Sprintf("remote party id %s does not match expected %s", input.ID, expected.ID),
		), nil
	}
	if err := input.Validate(); err != nil {
		return invalid(err), nil
	}

	unlock := r.lockID(input.ID)
	defer unlock()

	current, exists := r.load(input.ID)
	if !exists {
		return partyDomain.Failed(fmt.Sprintf("remote party %s does not exist", input.ID)), nil
	}
	if current.Version != expected.Version {
		return partyDomain.Failed(fmt.Sprintf(
			"remote party %s was modified concurrently (expected version %d, found %d)",
			input.ID, expected.Version, current.Version,
		)), nil
	}

	p := r.build(input, current)
	if err := r.persistParty(ctx, CommandUpdateRemoteParty, p); err != nil {
		return durabilityFailure(err)
	}
	r.parties.Store(p.ID, p)

	return partyDomain.Result{Outcome: partyDomain.OutcomeUpdated, Party: p.Clone()}, nil
}

// Remove implements Registry.
func (r *registry) Remove(ctx context.Context, id string) (partyDomain.Result, error) {
	unlock := r.lockID(id)
	defer unlock()

	current, exists := r.load(id)
	if !exists {
		return partyDomain.NoOperation(fmt.Sprintf("remote party %s does not exist", id)), nil
	}

	if err := r.persistParty(ctx, CommandRemoveRemoteParty, current); err != nil {
		return durabilityFailure(err)
	}
	r.parties.Delete(id)

	return partyDomain.Result{Outcome: partyDomain.OutcomeSuccess, Party: current.Clone()}, nil
}

// RemoveAll implements Registry.
func (r *registry) RemoveAll(ctx context.Context) (partyDomain.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.isEmpty() {
		return partyDomain.NoOperation("no remote parties registered"), nil
	}

	if err := r.persist(ctx, CommandRemoveAllRemoteParties, commandlogDomain.NoPayload()); err != nil {
		return durabilityFailure(err)
	}
	r.parties.Clear()

	return partyDomain.Result{Outcome: partyDomain.OutcomeSuccess}, nil
}

func (r *registry) isEmpty() bool {
	empty := true
	r.parties.Range(func(_, _ any) bool {
		empty = false
		return false
	})
	return empty
}

// Get implements Registry.
func (r *registry) Get(id string) (*partyDomain.RemoteParty, error) {
	p, ok := r.load(id)
	if !ok {
		return nil, apperrors.Wrapf(partyDomain.ErrPartyNotFound, "%s", id)
	}
	return p.Clone(), nil
}

// TryGet implements Registry.
func (r *registry) TryGet(id string) (*partyDomain.RemoteParty, bool) {
	p, ok := r.load(id)
	if !ok {
		return nil, false
	}
	return p.Clone(), true
}

// Contains implements Registry.
func (r *registry) Contains(id string) bool {
	_, ok := r.parties.Load(id)
	return ok
}

// snapshot returns the live parties sorted by id. The values are shared and
// must be cloned before leaving the package.
func (r *registry) snapshot() []*partyDomain.RemoteParty {
	var parties []*partyDomain.RemoteParty
	r.parties.Range(func(_, v any) bool {
		parties = append(parties, v.(*partyDomain.RemoteParty))
		return true
	})
	sort.Slice(parties, func(i, j int) bool { return parties[i].ID < parties[j].ID })
	return parties
}

func (r *registry) filter(match func(*partyDomain.RemoteParty) bool) []*partyDomain.RemoteParty {
	parties := make([]*partyDomain.RemoteParty, 0)
	for _, p := range r.snapshot() {
		if match(p) {
			parties = append(parties, p.Clone())
		}
	}
	return parties
}

// List implements Registry.
func (r *registry) List() []*partyDomain.RemoteParty {
	return r.filter(func(*partyDomain.RemoteParty) bool { return true })
}

// ListByAccessToken implements Registry.
func (r *registry) ListByAccessToken(token string) []*partyDomain.RemoteParty {
	return r.filter(func(p *partyDomain.RemoteParty) bool {
		return p.HasAccessToken(token)
	})
}

// ListByAccessTokenAndStatus implements Registry.
func (r *registry) ListByAccessTokenAndStatus(
	token string,
	status accessTokenDomain.AccessStatus,
) []*partyDomain.RemoteParty {
	return r.filter(func(p *partyDomain.RemoteParty) bool {
		for _, l := range p.LocalAccessInfos {
			if l.AccessToken == token && l.Status == status {
				return true
			}
		}
		return false
	})
}

// TryGetByAccessToken implements Registry. Credentials outside their
// NotBefore/NotAfter window are ignored. A wrong TOTP code on any matching
// credential fails the whole call.
func (r *registry) TryGetByAccessToken(
	ctx context.Context,
	token, totpCode string,
) ([]partyDomain.PartyAccess, error) {
	if token == "" {
		return nil, partyDomain.ErrUnknownAccessToken
	}

	now := r.now()
	var matches []partyDomain.PartyAccess
	for _, p := range r.snapshot() {
		for _, l := range p.LocalAccessInfos {
			if l.AccessToken != token || !l.ValidAt(now) {
				continue
			}
			if l.TOTPConfig != nil {
				ok, err := totp.Verify(*l.TOTPConfig, totpCode, now)
				if err != nil || !ok {
					r.logger.WarnContext(ctx, "rejected TOTP code",
						slog.String("party_id", p.ID),
						slog.Any("error", err),
					)
					return nil, partyDomain.ErrInvalidTOTP
				}
			}
			clone := p.Clone()
			matches = append(matches, partyDomain.PartyAccess{Party: clone, LocalAccessInfo: l})
		}
	}

	if len(matches) == 0 {
		return nil, partyDomain.ErrUnknownAccessToken
	}
	return matches, nil
}

// Replay implements Registry. Records are applied in order with add-if-absent
// semantics for inserts and direct application for everything else. Commands
// that are unknown or carry an unusable payload are logged and skipped.
func (r *registry) Replay(
	ctx context.Context,
	commands iter.Seq2[commandlogDomain.CommandWithMetadata, error],
) (ReplayReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var report ReplayReport
	for cmd, err := range commands {
		if err != nil {
			return report, err
		}
		if err := ctx.Err(); err != nil {
			return report, err
		}

		if err := r.apply(cmd.Command); err != nil {
			report.Skipped++
			r.logger.WarnContext(ctx, "skipping remote party command",
				slog.String("command", cmd.Name),
				slog.String("event_tracking_id", cmd.EventTrackingID),
				slog.Any("error", err),
			)
			continue
		}
		report.Applied++
	}

	r.logger.InfoContext(ctx, "remote parties restored",
		slog.String("file", r.file),
		slog.Int("applied", report.Applied),
		slog.Int("skipped", report.Skipped),
	)
	return report, nil
}

func (r *registry) apply(cmd commandlogDomain.Command) error {
	switch cmd.Name {
	case CommandRemoveAllRemoteParties:
		r.parties.Clear()
		return nil
	case CommandAddRemoteParty, CommandAddRemotePartyIfNotExists,
		CommandAddOrUpdateRemoteParty, CommandUpdateRemoteParty, CommandRemoveRemoteParty:
	default:
		return apperrors.Wrapf(apperrors.ErrInvalidInput, "unknown command %q", cmd.Name)
	}

	var p partyDomain.RemoteParty
	if err := cmd.Payload.Decode(&p); err != nil {
		return err
	}
	if p.ID == "" {
		return apperrors.Wrap(apperrors.ErrInvalidInput, "remote party snapshot without id")
	}
	stored := p.Clone()
	if stored.Version > r.version.Load() {
		r.version.Store(stored.Version)
	}

	switch cmd.Name {
	case CommandAddRemoteParty, CommandAddRemotePartyIfNotExists:
		r.parties.LoadOrStore(stored.ID, stored)
	case CommandAddOrUpdateRemoteParty, CommandUpdateRemoteParty:
		r.parties.Store(stored.ID, stored)
	case CommandRemoveRemoteParty:
		r.parties.Delete(stored.ID)
	}
	return nil
}
