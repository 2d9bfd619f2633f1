// Package validation provides custom validation rules for the application.
package validation

import (
	"net/url"
	"regexp"
	"strings"

	validation "github.com/jellydator/validation"

	apperrors "github.com/allisson/ocpi/internal/errors"
)

var (
	// partyIDRegex matches COUNTRY-PARTY identifiers such as DE-GEF.
	partyIDRegex = regexp.MustCompile(`^[A-Z]{2}-[A-Z0-9]{3}$`)

	// versionIDRegex matches dotted numeric version ids such as 2.2.1.
	versionIDRegex = regexp.MustCompile(`^[0-9]+(\.[0-9]+)*$`)
)

// WrapValidationError wraps validation errors as domain ErrInvalidInput
func WrapValidationError(err error) error {
	if err == nil {
		return nil
	}
	return apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
}

// PartyID validates the COUNTRY-PARTY format
var PartyID = validation.NewStringRuleWithError(
	func(s string) bool {
		return partyIDRegex.MatchString(s)
	},
	validation.NewError("validation_party_id", "must be a party id like DE-GEF"),
)

// VersionID validates dotted numeric protocol versions
var VersionID = validation.NewStringRuleWithError(
	func(s string) bool {
		return versionIDRegex.MatchString(s)
	},
	validation.NewError("validation_version_id", "must be a dotted numeric version like 2.2.1"),
)

// HTTPURL validates an absolute http or https URL
var HTTPURL = validation.NewStringRuleWithError(
	func(s string) bool {
		u, err := url.Parse(s)
		if err != nil {
			return false
		}
		return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
	},
	validation.NewError("validation_http_url", "must be an absolute http(s) URL"),
)

// NoWhitespace validates that string doesn't contain leading/trailing whitespace
var NoWhitespace = validation.NewStringRuleWithError(
	func(s string) bool {
		return s == strings.TrimSpace(s)
	},
	validation.NewError("validation_no_whitespace", "must not contain leading or trailing whitespace"),
)

// NotBlank validates that a string is not empty after trimming whitespace
var NotBlank = validation.NewStringRuleWithError(
	func(s string) bool {
		return strings.TrimSpace(s) != ""
	},
	validation.NewError("validation_not_blank", "must not be blank"),
)
