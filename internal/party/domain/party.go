// Package domain defines the remote party aggregate and the credentials
// exchanged with it.
//
// A RemoteParty owns any number of LocalAccessInfos (credentials we accept from
// the party, several at once during token rotation) and RemoteAccessInfos
// (credentials we present to the party). Parties are replaced wholesale on
// update; Version is bumped on every accepted mutation and is what Update
// compares against.
package domain

import (
	"slices"
	"time"

	accessTokenDomain "github.com/allisson/ocpi/internal/accesstoken/domain"
	"github.com/allisson/ocpi/internal/totp"
)

// PartyStatus enables or disables a party as a whole.
type PartyStatus string

const (
	PartyEnabled  PartyStatus = "ENABLED"
	PartyDisabled PartyStatus = "DISABLED"
)

// IsValid reports whether s is a known status.
func (s PartyStatus) IsValid() bool {
	return s == PartyEnabled || s == PartyDisabled
}

// RemoteAccessStatus tracks whether the party's endpoints are reachable.
type RemoteAccessStatus string

const (
	RemoteOnline  RemoteAccessStatus = "ONLINE"
	RemoteOffline RemoteAccessStatus = "OFFLINE"
)

// IsValid reports whether s is a known status.
func (s RemoteAccessStatus) IsValid() bool {
	return s == RemoteOnline || s == RemoteOffline
}

// LocalAccessInfo is a credential this node accepts from the party.
type LocalAccessInfo struct {
	AccessToken     string                         `json:"accessToken"`
	TOTPConfig      *totp.Config                   `json:"totpConfig,omitempty"`
	NotBefore       *time.Time                     `json:"notBefore,omitempty"`
	NotAfter        *time.Time                     `json:"notAfter,omitempty"`
	AllowDowngrades *bool                          `json:"allowDowngrades,omitempty"`
	Status          accessTokenDomain.AccessStatus `json:"status"`
}

// ValidAt reports whether t lies within the optional NotBefore/NotAfter window.
func (l LocalAccessInfo) ValidAt(t time.Time) bool {
	if l.NotBefore != nil && t.Before(*l.NotBefore) {
		return false
	}
	if l.NotAfter != nil && t.After(*l.NotAfter) {
		return false
	}
	return true
}

// RemoteAccessInfo is a credential this node presents to the party.
type RemoteAccessInfo struct {
	VersionsURL     string             `json:"versionsURL"`
	AccessToken     string             `json:"accessToken"`
	SelectedVersion string             `json:"selectedVersion,omitempty"`
	Status          RemoteAccessStatus `json:"status"`
	NotBefore       *time.Time         `json:"notBefore,omitempty"`
	NotAfter        *time.Time         `json:"notAfter,omitempty"`
	AllowDowngrades *bool              `json:"allowDowngrades,omitempty"`
}

// RemoteParty is a registered OCPI counterparty.
type RemoteParty struct {
	ID                string             `json:"id"`
	LocalAccessInfos  []LocalAccessInfo  `json:"localAccessInfos"`
	RemoteAccessInfos []RemoteAccessInfo `json:"remoteAccessInfos"`
	Status            PartyStatus        `json:"status"`
	Created           time.Time          `json:"created"`
	LastUpdated       time.Time          `json:"lastUpdated"`
	Version           int64              `json:"version"`
}

// Clone returns a deep copy so callers can never mutate registry state.
func (p *RemoteParty) Clone() *RemoteParty {
	if p == nil {
		return nil
	}
	c := *p
	c.LocalAccessInfos = make([]LocalAccessInfo, len(p.LocalAccessInfos))
	for i, l := range p.LocalAccessInfos {
		if l.TOTPConfig != nil {
			cfg := *l.TOTPConfig
			l.TOTPConfig = &cfg
		}
		l.NotBefore = cloneTime(l.NotBefore)
		l.NotAfter = cloneTime(l.NotAfter)
		l.AllowDowngrades = cloneBool(l.AllowDowngrades)
		c.LocalAccessInfos[i] = l
	}
	c.RemoteAccessInfos = make([]RemoteAccessInfo, len(p.RemoteAccessInfos))
	for i, r := range p.RemoteAccessInfos {
		r.NotBefore = cloneTime(r.NotBefore)
		r.NotAfter = cloneTime(r.NotAfter)
		r.AllowDowngrades = cloneBool(r.AllowDowngrades)
		c.RemoteAccessInfos[i] = r
	}
	return &c
}

// HasAccessToken reports whether any LocalAccessInfo carries token.
func (p *RemoteParty) HasAccessToken(token string) bool {
	return slices.ContainsFunc(p.LocalAccessInfos, func(l LocalAccessInfo) bool {
		return l.AccessToken == token
	})
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func cloneBool(b *bool) *bool {
	if b == nil {
		return nil
	}
	v := *b
	return &v
}
