// Package domain defines the protocol versions this node exposes.
package domain

import (
	"strconv"
	"strings"

	validation "github.com/jellydator/validation"

	"github.com/allisson/ocpi/internal/errors"
	customValidation "github.com/allisson/ocpi/internal/validation"
)

// ErrDuplicateVersion indicates the version id is already registered.
var ErrDuplicateVersion = errors.Wrap(errors.ErrConflict, "version already registered")

// VersionInformation points a client at the endpoint list of one version.
type VersionInformation struct {
	ID  string `json:"version"`
	URL string `json:"url"`
}

// Validate checks the version id and endpoint URL.
func (v VersionInformation) Validate() error {
	err := validation.ValidateStruct(&v,
		validation.Field(&v.ID,
			validation.Required,
			customValidation.VersionID,
		),
		validation.Field(&v.URL,
			validation.Required,
			customValidation.HTTPURL,
		),
	)
	return customValidation.WrapValidationError(err)
}

// CompareIDs orders dotted version ids segment by segment, numerically where
// both segments are numbers, so 2.10 sorts after 2.9.
func CompareIDs(a, b string) int {
	as := strings.Split(a, ".")
	bs := strings.Split(b, ".")
	for i := 0; i < len(as) && i < len(bs); i++ {
		if c := compareSegment(as[i], bs[i]); c != 0 {
			return c
		}
	}
	switch {
	case len(as) < len(bs):
		return -1
	case len(as) > len(bs):
		return 1
	default:
		return 0
	}
}

func compareSegment(a, b string) int {
	an, aErr := strconv.Atoi(a)
	bn, bErr := strconv.Atoi(b)
	if aErr == nil && bErr == nil {
		switch {
		case an < bn:
			return -1
		case an > bn:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(a, b)
}
