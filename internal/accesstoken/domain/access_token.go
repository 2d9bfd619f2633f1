// Package domain defines the access token allow/block model shared by the
// access token directory and remote party credentials.
package domain

import (
	"encoding/json"
	"strings"

	apperrors "github.com/allisson/ocpi/internal/errors"
)

// AccessStatus is the gate decision for a bearer token.
type AccessStatus string

const (
	// StatusAllowed lets requests bearing the token through.
	StatusAllowed AccessStatus = "ALLOWED"
	// StatusBlocked rejects requests bearing the token.
	StatusBlocked AccessStatus = "BLOCKED"
)

// ErrInvalidAccessStatus is returned for unknown status names.
var ErrInvalidAccessStatus = apperrors.Wrap(apperrors.ErrInvalidInput, "invalid access status")

// ParseAccessStatus parses a status name case-insensitively.
func ParseAccessStatus(s string) (AccessStatus, error) {
	switch AccessStatus(strings.ToUpper(strings.TrimSpace(s))) {
	case StatusAllowed:
		return StatusAllowed, nil
	case StatusBlocked:
		return StatusBlocked, nil
	default:
		return "", apperrors.Wrapf(ErrInvalidAccessStatus, "%q", s)
	}
}

// IsValid reports whether s is a known status.
func (s AccessStatus) IsValid() bool {
	return s == StatusAllowed || s == StatusBlocked
}

// UnmarshalJSON accepts any casing and rejects unknown names.
func (s *AccessStatus) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseAccessStatus(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// AccessToken is an opaque bearer credential with its gate status.
type AccessToken struct {
	Token  string       `json:"token"`
	Status AccessStatus `json:"status"`
}
