package domain

import (
	"fmt"
	"time"

	validation "github.com/jellydator/validation"

	accessTokenDomain "github.com/allisson/ocpi/internal/accesstoken/domain"
	customValidation "github.com/allisson/ocpi/internal/validation"
)

// PartyInput carries the caller supplied fields of a party mutation. Status
// defaults to ENABLED; Created and LastUpdated default to the registry clock.
type PartyInput struct {
	ID                string             `json:"id"`
	LocalAccessInfos  []LocalAccessInfo  `json:"localAccessInfos"`
	RemoteAccessInfos []RemoteAccessInfo `json:"remoteAccessInfos"`
	Status            PartyStatus        `json:"status,omitempty"`
	Created           *time.Time         `json:"created,omitempty"`
	LastUpdated       *time.Time         `json:"lastUpdated,omitempty"`
}

// Validate checks the party id format and every credential.
func (in PartyInput) Validate() error {
	errs := validation.Errors{}

	err := validation.ValidateStruct(&in,
		validation.Field(&in.ID,
			validation.Required,
			customValidation.PartyID,
		),
		validation.Field(&in.Status,
			validation.In(PartyEnabled, PartyDisabled),
		),
	)
	if fieldErrs, ok := err.(validation.Errors); ok {
		for k, v := range fieldErrs {
			errs[k] = v
		}
	} else if err != nil {
		return customValidation.WrapValidationError(err)
	}

	for i, l := range in.LocalAccessInfos {
		if err := validateLocalAccessInfo(l); err != nil {
			errs[fmt.Sprintf("localAccessInfos[%d]", i)] = err
		}
	}
	for i, r := range in.RemoteAccessInfos {
		if err := validateRemoteAccessInfo(r); err != nil {
			errs[fmt.Sprintf("remoteAccessInfos[%d]", i)] = err
		}
	}

	return customValidation.WrapValidationError(errs.Filter())
}

func validateLocalAccessInfo(l LocalAccessInfo) error {
	err := validation.ValidateStruct(&l,
		validation.Field(&l.AccessToken,
			validation.Required,
			customValidation.NoWhitespace,
		),
		validation.Field(&l.Status,
			validation.Required,
			validation.In(accessTokenDomain.StatusAllowed, accessTokenDomain.StatusBlocked),
		),
	)
	if err != nil {
		return err
	}
	if l.TOTPConfig != nil {
		if err := l.TOTPConfig.Validate(); err != nil {
			return err
		}
	}
	return validateWindow(l.NotBefore, l.NotAfter)
}

func validateRemoteAccessInfo(r RemoteAccessInfo) error {
	err := validation.ValidateStruct(&r,
		validation.Field(&r.VersionsURL,
			validation.Required,
			customValidation.HTTPURL,
		),
		validation.Field(&r.AccessToken,
			validation.Required,
			customValidation.NoWhitespace,
		),
		validation.Field(&r.SelectedVersion,
			customValidation.VersionID,
		),
		validation.Field(&r.Status,
			validation.Required,
			validation.In(RemoteOnline, RemoteOffline),
		),
	)
	if err != nil {
		return err
	}
	return validateWindow(r.NotBefore, r.NotAfter)
}

func validateWindow(notBefore, notAfter *time.Time) error {
	if notBefore != nil && notAfter != nil && notAfter.Before(*notBefore) {
		return validation.NewError("validation_window", "notAfter must not be before notBefore")
	}
	return nil
}
