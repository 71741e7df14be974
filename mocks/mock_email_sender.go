package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"propval/internal/port"
)

// MockEmailSender is a mock implementation of port.EmailSender.
type MockEmailSender struct {
	mock.Mock
}

func (m *MockEmailSender) SendDecisionEmail(ctx context.Context, n port.DecisionNotification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}
