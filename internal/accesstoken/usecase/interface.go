// Package usecase implements the access token directory: a cheap allow/block
// gate consulted before any party specific authentication.
package usecase

import (
	"context"
	"iter"

	"github.com/allisson/ocpi/internal/accesstoken/domain"
	"github.com/allisson/ocpi/internal/commandlog"
	commandlogDomain "github.com/allisson/ocpi/internal/commandlog/domain"
)

// CommandLog is the subset of the command log the directory persists through.
type CommandLog interface {
	Append(
		ctx context.Context,
		file, name string,
		payload commandlogDomain.Payload,
		eventTrackingID, userID string,
	) *commandlog.Future
	Load(file string) iter.Seq2[commandlogDomain.CommandWithMetadata, error]
}

// Directory maps bearer tokens to an access status. Unknown tokens resolve to
// the configured default, so Query is total.
type Directory interface {
	// Set inserts or replaces the status of token.
	Set(ctx context.Context, token string, status domain.AccessStatus) error

	// Remove forgets token. It reports whether the token was known.
	Remove(ctx context.Context, token string) (bool, error)

	// Query returns the status of token, or the default when unknown.
	Query(token string) domain.AccessStatus

	// IsAllowed reports whether Query(token) is ALLOWED.
	IsAllowed(token string) bool

	// IsBlocked reports whether Query(token) is BLOCKED.
	IsBlocked(token string) bool

	// List returns the explicitly configured tokens sorted by token.
	List() []domain.AccessToken

	// DefaultStatus is the status of unknown tokens.
	DefaultStatus() domain.AccessStatus

	// Replay restores the directory from its command log file.
	Replay(ctx context.Context) (int, error)
}
