package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"propval/internal/domain"
)

// MockAttachmentRepo is a mock implementation of port.AttachmentRepository.
type MockAttachmentRepo struct {
	mock.Mock
}

func (m *MockAttachmentRepo) Create(ctx context.Context, att *domain.Attachment) error {
	args := m.Called(ctx, att)
	return args.Error(0)
}

func (m *MockAttachmentRepo) GetByID(ctx context.Context, clientID string, attID uuid.UUID) (*domain.Attachment, error) {
	args := m.Called(ctx, clientID, attID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Attachment), args.Error(1)
}

func (m *MockAttachmentRepo) ListByRecord(ctx context.Context, clientID string, recordID uuid.UUID) ([]domain.Attachment, error) {
	args := m.Called(ctx, clientID, recordID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Attachment), args.Error(1)
}

func (m *MockAttachmentRepo) Delete(ctx context.Context, clientID string, attID uuid.UUID) error {
	args := m.Called(ctx, clientID, attID)
	return args.Error(0)
}
