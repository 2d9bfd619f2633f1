// Package mocks provides mock implementations of the remote party use cases.
package mocks

import (
	"context"
	"iter"

	"github.com/stretchr/testify/mock"

	accessTokenDomain "github.com/allisson/ocpi/internal/accesstoken/domain"
	commandlogDomain "github.com/allisson/ocpi/internal/commandlog/domain"
	partyDomain "github.com/allisson/ocpi/internal/party/domain"
	"github.com/allisson/ocpi/internal/party/usecase"
)

// MockRegistry is a mock implementation of Registry for testing.
type MockRegistry struct {
	mock.Mock
}

func (m *MockRegistry) result(args mock.Arguments) (partyDomain.Result, error) {
	return args.Get(0).(partyDomain.Result), args.Error(1)
}

// Add mocks the Add method of Registry.
func (m *MockRegistry) Add(ctx context.Context, input partyDomain.PartyInput) (partyDomain.Result, error) {
	return m.result(m.Called(ctx, input))
}

// AddIfNotExists mocks the AddIfNotExists method of Registry.
func (m *MockRegistry) AddIfNotExists(ctx context.Context, input partyDomain.PartyInput) (partyDomain.Result, error) {
	return m.result(m.Called(ctx, input))
}

// AddOrUpdate mocks the AddOrUpdate method of Registry.
func (m *MockRegistry) AddOrUpdate(ctx context.Context, input partyDomain.PartyInput) (partyDomain.Result, error) {
	return m.result(m.Called(ctx, input))
}

// Update mocks the Update method of Registry.
func (m *MockRegistry) Update(
	ctx context.Context,
	expected *partyDomain.RemoteParty,
	input partyDomain.PartyInput,
) (partyDomain.Result, error) {
	return m.result(m.Called(ctx, expected, input))
}

// Remove mocks the Remove method of Registry.
func (m *MockRegistry) Remove(ctx context.Context, id string) (partyDomain.Result, error) {
	return m.result(m.Called(ctx, id))
}

// RemoveAll mocks the RemoveAll method of Registry.
func (m *MockRegistry) RemoveAll(ctx context.Context) (partyDomain.Result, error) {
	return m.result(m.Called(ctx))
}

// Get mocks the Get method of Registry.
func (m *MockRegistry) Get(id string) (*partyDomain.RemoteParty, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partyDomain.RemoteParty), args.Error(1)
}

// TryGet mocks the TryGet method of Registry.
func (m *MockRegistry) TryGet(id string) (*partyDomain.RemoteParty, bool) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Bool(1)
	}
	return args.Get(0).(*partyDomain.RemoteParty), args.Bool(1)
}

// Contains mocks the Contains method of Registry.
func (m *MockRegistry) Contains(id string) bool {
	return m.Called(id).Bool(0)
}

func parties(args mock.Arguments) []*partyDomain.RemoteParty {
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]*partyDomain.RemoteParty)
}

// List mocks the List method of Registry.
func (m *MockRegistry) List() []*partyDomain.RemoteParty {
	return parties(m.Called())
}

// ListByAccessToken mocks the ListByAccessToken method of Registry.
func (m *MockRegistry) ListByAccessToken(token string) []*partyDomain.RemoteParty {
	return parties(m.Called(token))
}

// ListByAccessTokenAndStatus mocks the ListByAccessTokenAndStatus method of Registry.
func (m *MockRegistry) ListByAccessTokenAndStatus(
	token string,
	status accessTokenDomain.AccessStatus,
) []*partyDomain.RemoteParty {
	return parties(m.Called(token, status))
}

// TryGetByAccessToken mocks the TryGetByAccessToken method of Registry.
func (m *MockRegistry) TryGetByAccessToken(
	ctx context.Context,
	token, totpCode string,
) ([]partyDomain.PartyAccess, error) {
	args := m.Called(ctx, token, totpCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]partyDomain.PartyAccess), args.Error(1)
}

// Replay mocks the Replay method of Registry.
func (m *MockRegistry) Replay(
	ctx context.Context,
	commands iter.Seq2[commandlogDomain.CommandWithMetadata, error],
) (usecase.ReplayReport, error) {
	args := m.Called(ctx, commands)
	return args.Get(0).(usecase.ReplayReport), args.Error(1)
}
