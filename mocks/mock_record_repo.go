package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"propval/internal/domain"
)

// MockRecordRepo is a mock implementation of port.RecordRepository.
type MockRecordRepo struct {
	mock.Mock
	FormVariant domain.FormVariant
}

func (m *MockRecordRepo) Variant() domain.FormVariant {
	if m.FormVariant != "" {
		return m.FormVariant
	}
	return domain.VariantUBIAPF
}

func (m *MockRecordRepo) Create(ctx context.Context, rec *domain.ValuationRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *MockRecordRepo) GetByInternalID(ctx context.Context, clientID string, id uuid.UUID) (*domain.ValuationRecord, error) {
	args := m.Called(ctx, clientID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ValuationRecord), args.Error(1)
}

func (m *MockRecordRepo) GetByUniqueID(ctx context.Context, clientID, uniqueID string) (*domain.ValuationRecord, error) {
	args := m.Called(ctx, clientID, uniqueID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ValuationRecord), args.Error(1)
}

func (m *MockRecordRepo) List(ctx context.Context, filter domain.RecordFilter, offset, limit int) ([]domain.ValuationRecord, int, error) {
	args := m.Called(ctx, filter, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.ValuationRecord), args.Int(1), args.Error(2)
}

func (m *MockRecordRepo) Update(ctx context.Context, rec *domain.ValuationRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}
