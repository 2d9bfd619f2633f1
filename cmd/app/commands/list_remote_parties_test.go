package commands

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	accessTokenDomain "github.com/allisson/ocpi/internal/accesstoken/domain"
	partyDomain "github.com/allisson/ocpi/internal/party/domain"
	partyMocks "github.com/allisson/ocpi/internal/party/usecase/mocks"
)

func testParty(id, token string) *partyDomain.RemoteParty {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	return &partyDomain.RemoteParty{
		ID: id,
		LocalAccessInfos: []partyDomain.LocalAccessInfo{
			{AccessToken: token, Status: accessTokenDomain.StatusAllowed},
		},
		Status:      partyDomain.PartyEnabled,
		Created:     now,
		LastUpdated: now,
		Version:     1,
	}
}

func TestRunListRemoteParties(t *testing.T) {
	t.Run("text", func(t *testing.T) {
		registry := &partyMocks.MockRegistry{}
		registry.On("List").Return([]*partyDomain.RemoteParty{
			testParty("DE-AAA", "t1"),
			testParty("DE-BBB", "t2"),
		})

		var out bytes.Buffer
		err := RunListRemoteParties(registry, &out, "", "text")

		require.NoError(t, err)
		require.Contains(t, out.String(), "DE-AAA")
		require.Contains(t, out.String(), "DE-BBB")
		require.Contains(t, out.String(), "ENABLED")
		registry.AssertExpectations(t)
	})

	t.Run("by-token-json", func(t *testing.T) {
		registry := &partyMocks.MockRegistry{}
		registry.On("ListByAccessToken", "t2").Return([]*partyDomain.RemoteParty{
			testParty("DE-BBB", "t2"),
		})

		var out bytes.Buffer
		err := RunListRemoteParties(registry, &out, "t2", "json")
		require.NoError(t, err)

		var parties []partyDomain.RemoteParty
		require.NoError(t, json.Unmarshal(out.Bytes(), &parties))
		require.Len(t, parties, 1)
		require.Equal(t, "DE-BBB", parties[0].ID)
		registry.AssertExpectations(t)
	})

	t.Run("empty-json", func(t *testing.T) {
		registry := &partyMocks.MockRegistry{}
		registry.On("List").Return(nil)

		var out bytes.Buffer
		require.NoError(t, RunListRemoteParties(registry, &out, "", "json"))
		require.JSONEq(t, "[]", out.String())
	})

	t.Run("empty-text", func(t *testing.T) {
		registry := &partyMocks.MockRegistry{}
		registry.On("List").Return(nil)

		var out bytes.Buffer
		require.NoError(t, RunListRemoteParties(registry, &out, "", "text"))
		require.Contains(t, out.String(), "No remote parties registered.")
	})
}
