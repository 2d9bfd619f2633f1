package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	accessTokenDomain "github.com/allisson/ocpi/internal/accesstoken/domain"
	partyDomain "github.com/allisson/ocpi/internal/party/domain"
	partyMocks "github.com/allisson/ocpi/internal/party/usecase/mocks"
	"github.com/allisson/ocpi/internal/totp"
)

func TestRunAddRemoteParty(t *testing.T) {
	ctx := context.Background()
	logger := slog.Default()

	t.Run("add-text", func(t *testing.T) {
		registry := &partyMocks.MockRegistry{}
		input := partyDomain.PartyInput{
			ID: "DE-GEF",
			LocalAccessInfos: []partyDomain.LocalAccessInfo{
				{AccessToken: "t1", Status: accessTokenDomain.StatusAllowed},
			},
			Status: partyDomain.PartyEnabled,
		}
		registry.On("Add", ctx, input).Return(partyDomain.Result{
			Outcome: partyDomain.OutcomeCreated,
			Party:   testParty("DE-GEF", "t1"),
		}, nil)

		var out bytes.Buffer
		err := RunAddRemoteParty(ctx, registry, logger, &out, AddRemotePartyOptions{
			ID:          "de-gef",
			Token:       "t1",
			TokenStatus: "allowed",
			Status:      "enabled",
		}, "text")

		require.NoError(t, err)
		require.Contains(t, out.String(), "Remote party DE-GEF: created")
		registry.AssertExpectations(t)
	})

	t.Run("if-not-exists-json", func(t *testing.T) {
		registry := &partyMocks.MockRegistry{}
		registry.On("AddIfNotExists", ctx, mock.AnythingOfType("domain.PartyInput")).
			Return(partyDomain.NoOperation("remote party DE-GEF already exists"), nil)

		var out bytes.Buffer
		err := RunAddRemoteParty(ctx, registry, logger, &out, AddRemotePartyOptions{
			ID:          "DE-GEF",
			Token:       "t1",
			TokenStatus: "ALLOWED",
			Status:      "ENABLED",
			IfNotExists: true,
		}, "json")
		require.NoError(t, err)

		var result map[string]any
		require.NoError(t, json.Unmarshal(out.Bytes(), &result))
		require.Equal(t, "no_operation", result["outcome"])
		registry.AssertExpectations(t)
	})

	t.Run("totp-and-remote", func(t *testing.T) {
		registry := &partyMocks.MockRegistry{}
		registry.On("Add", ctx, mock.MatchedBy(func(in partyDomain.PartyInput) bool {
			cfg := totp.NewConfig("secret")
			return len(in.LocalAccessInfos) == 1 &&
				in.LocalAccessInfos[0].TOTPConfig != nil &&
				*in.LocalAccessInfos[0].TOTPConfig == cfg &&
				len(in.RemoteAccessInfos) == 1 &&
				in.RemoteAccessInfos[0].VersionsURL == "https://remote.example/versions" &&
				in.RemoteAccessInfos[0].AccessToken == "r1" &&
				in.RemoteAccessInfos[0].Status == partyDomain.RemoteOffline
		})).Return(partyDomain.Result{Outcome: partyDomain.OutcomeCreated}, nil)

		var out bytes.Buffer
		err := RunAddRemoteParty(ctx, registry, logger, &out, AddRemotePartyOptions{
			ID:          "DE-GEF",
			Token:       "t1",
			TokenStatus: "ALLOWED",
			TOTPSecret:  "secret",
			VersionsURL: "https://remote.example/versions",
			RemoteToken: "r1",
			Status:      "ENABLED",
		}, "text")

		require.NoError(t, err)
		registry.AssertExpectations(t)
	})

	t.Run("failed-result", func(t *testing.T) {
		registry := &partyMocks.MockRegistry{}
		registry.On("Add", ctx, mock.AnythingOfType("domain.PartyInput")).
			Return(partyDomain.Failed("remote party DE-GEF already exists"), nil)

		var out bytes.Buffer
		err := RunAddRemoteParty(ctx, registry, logger, &out, AddRemotePartyOptions{
			ID:          "DE-GEF",
			Token:       "t1",
			TokenStatus: "ALLOWED",
			Status:      "ENABLED",
		}, "text")

		require.Error(t, err)
		require.Contains(t, err.Error(), "already exists")
		require.Empty(t, out.String())
	})

	t.Run("registry-error", func(t *testing.T) {
		registry := &partyMocks.MockRegistry{}
		registry.On("Add", ctx, mock.AnythingOfType("domain.PartyInput")).
			Return(partyDomain.Result{}, errors.New("log closed"))

		var out bytes.Buffer
		err := RunAddRemoteParty(ctx, registry, logger, &out, AddRemotePartyOptions{
			ID:          "DE-GEF",
			Token:       "t1",
			TokenStatus: "ALLOWED",
			Status:      "ENABLED",
		}, "text")

		require.Error(t, err)
		require.Contains(t, err.Error(), "log closed")
	})

	t.Run("invalid-token-status", func(t *testing.T) {
		registry := &partyMocks.MockRegistry{}

		var out bytes.Buffer
		err := RunAddRemoteParty(ctx, registry, logger, &out, AddRemotePartyOptions{
			ID:          "DE-GEF",
			Token:       "t1",
			TokenStatus: "MAYBE",
			Status:      "ENABLED",
		}, "text")

		require.Error(t, err)
		registry.AssertNotCalled(t, "Add", mock.Anything, mock.Anything)
	})
}
