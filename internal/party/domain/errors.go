package domain

import (
	"github.com/allisson/ocpi/internal/errors"
)

// Remote party errors.
var (
	// ErrPartyNotFound indicates no party is registered under the id.
	ErrPartyNotFound = errors.Wrap(errors.ErrNotFound, "remote party not found")

	// ErrUnknownAccessToken indicates no party accepts the access token.
	ErrUnknownAccessToken = errors.Wrap(errors.ErrUnauthorized, "unknown access token")

	// ErrInvalidTOTP indicates a party matched the token but the TOTP code was wrong.
	ErrInvalidTOTP = errors.Wrap(errors.ErrUnauthorized, "invalid TOTP code")
)
