package mocks

import (
	"context"
	"encoding/json"

	"github.com/stretchr/testify/mock"

	"propval/internal/domain"
)

// MockRecordService is a mock implementation of service.RecordService.
type MockRecordService struct {
	mock.Mock
	FormVariant domain.FormVariant
}

func (m *MockRecordService) Variant() domain.FormVariant {
	if m.FormVariant != "" {
		return m.FormVariant
	}
	return domain.VariantUBIAPF
}

func (m *MockRecordService) Create(ctx context.Context, id domain.Identity, uniqueID string, payload json.RawMessage) (*domain.ValuationRecord, error) {
	args := m.Called(ctx, id, uniqueID, payload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ValuationRecord), args.Error(1)
}

func (m *MockRecordService) GetByID(ctx context.Context, id domain.Identity, recordID string) (*domain.ValuationRecord, error) {
	args := m.Called(ctx, id, recordID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ValuationRecord), args.Error(1)
}

func (m *MockRecordService) List(ctx context.Context, id domain.Identity, state domain.RecordState, city, bankName string, offset, limit int) ([]domain.ValuationRecord, int, error) {
	args := m.Called(ctx, id, state, city, bankName, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.ValuationRecord), args.Int(1), args.Error(2)
}

func (m *MockRecordService) Update(ctx context.Context, id domain.Identity, recordID string, payload json.RawMessage) (*domain.ValuationRecord, error) {
	args := m.Called(ctx, id, recordID, payload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ValuationRecord), args.Error(1)
}

func (m *MockRecordService) ManagerSubmit(ctx context.Context, id domain.Identity, recordID string, action domain.ManagerAction, feedback string) (*domain.ValuationRecord, error) {
	args := m.Called(ctx, id, recordID, action, feedback)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ValuationRecord), args.Error(1)
}

func (m *MockRecordService) RequestRework(ctx context.Context, id domain.Identity, recordID string, comments string) (*domain.ValuationRecord, error) {
	args := m.Called(ctx, id, recordID, comments)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ValuationRecord), args.Error(1)
}
