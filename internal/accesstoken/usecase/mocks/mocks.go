// Package mocks provides mock implementations of the access token use cases.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/allisson/ocpi/internal/accesstoken/domain"
)

// MockDirectory is a mock implementation of Directory for testing.
type MockDirectory struct {
	mock.Mock
}

// Set mocks the Set method of Directory.
func (m *MockDirectory) Set(ctx context.Context, token string, status domain.AccessStatus) error {
	args := m.Called(ctx, token, status)
	return args.Error(0)
}

// Remove mocks the Remove method of Directory.
func (m *MockDirectory) Remove(ctx context.Context, token string) (bool, error) {
	args := m.Called(ctx, token)
	return args.Bool(0), args.Error(1)
}

// Query mocks the Query method of Directory.
func (m *MockDirectory) Query(token string) domain.AccessStatus {
	args := m.Called(token)
	return args.Get(0).(domain.AccessStatus)
}

// IsAllowed mocks the IsAllowed method of Directory.
func (m *MockDirectory) IsAllowed(token string) bool {
	args := m.Called(token)
	return args.Bool(0)
}

// IsBlocked mocks the IsBlocked method of Directory.
func (m *MockDirectory) IsBlocked(token string) bool {
	args := m.Called(token)
	return args.Bool(0)
}

// List mocks the List method of Directory.
func (m *MockDirectory) List() []domain.AccessToken {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]domain.AccessToken)
}

// DefaultStatus mocks the DefaultStatus method of Directory.
func (m *MockDirectory) DefaultStatus() domain.AccessStatus {
	args := m.Called()
	return args.Get(0).(domain.AccessStatus)
}

// Replay mocks the Replay method of Directory.
func (m *MockDirectory) Replay(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}
