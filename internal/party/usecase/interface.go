// Package usecase implements the remote party registry: an in-memory map of
// parties whose every mutation is first made durable in the command log.
package usecase

import (
	"context"
	"iter"

	accessTokenDomain "github.com/allisson/ocpi/internal/accesstoken/domain"
	"github.com/allisson/ocpi/internal/commandlog"
	commandlogDomain "github.com/allisson/ocpi/internal/commandlog/domain"
	partyDomain "github.com/allisson/ocpi/internal/party/domain"
)

// CommandLog is the subset of the command log the registry writes to.
type CommandLog interface {
	Append(
		ctx context.Context,
		file, name string,
		payload commandlogDomain.Payload,
		eventTrackingID, userID string,
	) *commandlog.Future
}

// Registry tracks the remote parties this node exchanges data with.
//
// Mutations return a Result describing the domain outcome; the error return is
// reserved for durability failures of the command log, in which case the
// mutation was not applied.
type Registry interface {
	// Add inserts a new party and fails if the id is taken.
	Add(ctx context.Context, input partyDomain.PartyInput) (partyDomain.Result, error)

	// AddIfNotExists inserts a new party or does nothing if the id is taken.
	AddIfNotExists(ctx context.Context, input partyDomain.PartyInput) (partyDomain.Result, error)

	// AddOrUpdate inserts or replaces a party, reporting which happened.
	AddOrUpdate(ctx context.Context, input partyDomain.PartyInput) (partyDomain.Result, error)

	// Update replaces a party only if it still has the version of expected.
	Update(
		ctx context.Context,
		expected *partyDomain.RemoteParty,
		input partyDomain.PartyInput,
	) (partyDomain.Result, error)

	// Remove deletes one party. Removing an unknown id is a no-op.
	Remove(ctx context.Context, id string) (partyDomain.Result, error)

	// RemoveAll deletes every party.
	RemoveAll(ctx context.Context) (partyDomain.Result, error)

	// Get returns the party or ErrPartyNotFound.
	Get(id string) (*partyDomain.RemoteParty, error)

	// TryGet returns the party and whether it exists.
	TryGet(id string) (*partyDomain.RemoteParty, bool)

	// Contains reports whether id is registered.
	Contains(id string) bool

	// List returns every party sorted by id.
	List() []*partyDomain.RemoteParty

	// ListByAccessToken returns the parties that accept token.
	ListByAccessToken(token string) []*partyDomain.RemoteParty

	// ListByAccessTokenAndStatus returns the parties that accept token with status.
	ListByAccessTokenAndStatus(token string, status accessTokenDomain.AccessStatus) []*partyDomain.RemoteParty

	// TryGetByAccessToken authenticates token and, where configured, a TOTP code.
	TryGetByAccessToken(ctx context.Context, token, totpCode string) ([]partyDomain.PartyAccess, error)

	// Replay applies logged commands without writing to the log.
	Replay(
		ctx context.Context,
		commands iter.Seq2[commandlogDomain.CommandWithMetadata, error],
	) (ReplayReport, error)
}

// ReplayReport summarizes a Replay run.
type ReplayReport struct {
	Applied int
	Skipped int
}
