package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	partyDomain "github.com/allisson/ocpi/internal/party/domain"
	"github.com/allisson/ocpi/internal/party/usecase"
	usecaseMocks "github.com/allisson/ocpi/internal/party/usecase/mocks"
)

type mockBusinessMetrics struct {
	mock.Mock
}

func (m *mockBusinessMetrics) RecordOperation(ctx context.Context, domain, operation, status string) {
	m.Called(ctx, domain, operation, status)
}

func (m *mockBusinessMetrics) RecordDuration(
	ctx context.Context,
	domain, operation string,
	duration time.Duration,
	status string,
) {
	m.Called(ctx, domain, operation, duration, status)
}

func expectMetrics(ctx context.Context, m *mockBusinessMetrics, operation, status string) {
	m.On("RecordOperation", ctx, "remote_parties", operation, status).Return().Once()
	m.On("RecordDuration", ctx, "remote_parties", operation, mock.AnythingOfType("time.Duration"), status).
		Return().
		Once()
}

func TestRegistryWithMetrics(t *testing.T) {
	mockNext := &usecaseMocks.MockRegistry{}
	mockMetrics := &mockBusinessMetrics{}
	r := usecase.NewRegistryWithMetrics(mockNext, mockMetrics)

	ctx := context.Background()
	input := partyDomain.PartyInput{ID: "DE-GEF"}

	t.Run("Add labels the outcome", func(t *testing.T) {
		expected := partyDomain.Result{Outcome: partyDomain.OutcomeCreated, Party: &partyDomain.RemoteParty{ID: "DE-GEF"}}
		mockNext.On("Add", ctx, input).Return(expected, nil).Once()
		expectMetrics(ctx, mockMetrics, "party_add", "created")

		result, err := r.Add(ctx, input)
		assert.NoError(t, err)
		assert.Equal(t, expected, result)
		mockNext.AssertExpectations(t)
		mockMetrics.AssertExpectations(t)
	})

	t.Run("AddIfNotExists no-op", func(t *testing.T) {
		expected := partyDomain.NoOperation("exists")
		mockNext.On("AddIfNotExists", ctx, input).Return(expected, nil).Once()
		expectMetrics(ctx, mockMetrics, "party_add_if_not_exists", "no_operation")

		result, err := r.AddIfNotExists(ctx, input)
		assert.NoError(t, err)
		assert.Equal(t, expected, result)
		mockMetrics.AssertExpectations(t)
	})

	t.Run("Remove durability error", func(t *testing.T) {
		expectedErr := errors.New("disk full")
		mockNext.On("Remove", ctx, "DE-GEF").Return(partyDomain.Failed("disk full"), expectedErr).Once()
		expectMetrics(ctx, mockMetrics, "party_remove", "error")

		_, err := r.Remove(ctx, "DE-GEF")
		assert.ErrorIs(t, err, expectedErr)
		mockMetrics.AssertExpectations(t)
	})

	t.Run("TryGetByAccessToken error", func(t *testing.T) {
		mockNext.On("TryGetByAccessToken", ctx, "T1", "code").Return(nil, partyDomain.ErrInvalidTOTP).Once()
		expectMetrics(ctx, mockMetrics, "party_authenticate", "error")

		matches, err := r.TryGetByAccessToken(ctx, "T1", "code")
		assert.ErrorIs(t, err, partyDomain.ErrInvalidTOTP)
		assert.Nil(t, matches)
		mockMetrics.AssertExpectations(t)
	})

	t.Run("lookups pass through", func(t *testing.T) {
		mockNext.On("Contains", "DE-GEF").Return(true).Once()

		assert.True(t, r.Contains("DE-GEF"))
		mockNext.AssertExpectations(t)
	})
}
