package port

import (
	"context"

	"github.com/google/uuid"

	"propval/internal/domain"
)

// ClientRepository defines the contract for client (tenant) persistence.
// There is deliberately no create or cross-client list: tenants are
// provisioned out-of-band by the seed tooling, and callers only ever see
// their own client.
type ClientRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Client, error)
	Update(ctx context.Context, client *domain.Client) error
}

// UserRepository defines the contract for user persistence.
// All query methods include clientID to enforce tenant isolation at the data layer.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, clientID string, userID uuid.UUID) (*domain.User, error)
	GetByUsername(ctx context.Context, clientID, username string) (*domain.User, error)
	ListByClient(ctx context.Context, clientID string, offset, limit int) ([]domain.User, int, error)
	Update(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, clientID string, userID uuid.UUID) error
}

// RecordRepository defines the contract for valuation record persistence.
// One implementation exists per form variant, each backed by its own table
// with identical lifecycle columns.
//
// Update is a compare-and-swap on the record's version: it must persist the
// record only when the stored version still equals rec.Version, and return
// domain.ErrVersionConflict otherwise.
type RecordRepository interface {
	Variant() domain.FormVariant
	Create(ctx context.Context, rec *domain.ValuationRecord) error
	GetByInternalID(ctx context.Context, clientID string, id uuid.UUID) (*domain.ValuationRecord, error)
	GetByUniqueID(ctx context.Context, clientID, uniqueID string) (*domain.ValuationRecord, error)
	List(ctx context.Context, filter domain.RecordFilter, offset, limit int) ([]domain.ValuationRecord, int, error)
	Update(ctx context.Context, rec *domain.ValuationRecord) error
}

// AttachmentRepository defines the contract for attachment metadata persistence.
type AttachmentRepository interface {
	Create(ctx context.Context, att *domain.Attachment) error
	GetByID(ctx context.Context, clientID string, attID uuid.UUID) (*domain.Attachment, error)
	ListByRecord(ctx context.Context, clientID string, recordID uuid.UUID) ([]domain.Attachment, error)
	Delete(ctx context.Context, clientID string, attID uuid.UUID) error
}
