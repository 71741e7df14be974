package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Client represents an isolated client organization (tenant). Records of one
// client are never visible to another.
type Client struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	IsActive  bool      `db:"is_active" json:"is_active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// User represents an authenticated user belonging to a client.
type User struct {
	ID           uuid.UUID `db:"id" json:"id"`
	ClientID     string    `db:"client_id" json:"client_id"`
	Username     string    `db:"username" json:"username"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	FullName     string    `db:"full_name" json:"full_name"`
	Role         UserRole  `db:"role" json:"role"`
	IsActive     bool      `db:"is_active" json:"is_active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Identity is the trusted caller triple resolved from the request. Every
// record operation consumes this and nothing else about the transport.
type Identity struct {
	Username string   `json:"username"`
	Role     UserRole `json:"role"`
	ClientID string   `json:"client_id"`
}

// ValuationRecord is one valuation form submission. The payload is an opaque,
// variant-specific document; the core stores and returns it verbatim apart
// from the privileged fields it strips or sets itself.
type ValuationRecord struct {
	ID       uuid.UUID `db:"id" json:"id"`
	ClientID string    `db:"client_id" json:"client_id"`
	// UniqueID is the caller-supplied business key, unique per client.
	UniqueID      string      `db:"unique_id" json:"unique_id"`
	OwnerUsername string      `db:"owner_username" json:"owner_username"`
	State         RecordState `db:"state" json:"state"`

	LastUpdatedBy     string    `db:"last_updated_by" json:"last_updated_by"`
	LastUpdatedByRole UserRole  `db:"last_updated_by_role" json:"last_updated_by_role"`
	LastUpdatedAt     time.Time `db:"last_updated_at" json:"last_updated_at"`

	ManagerFeedback    string `db:"manager_feedback" json:"manager_feedback"`
	SubmittedByManager bool   `db:"submitted_by_manager" json:"submitted_by_manager"`

	ReworkComments        string     `db:"rework_comments" json:"rework_comments"`
	ReworkRequestedBy     string     `db:"rework_requested_by" json:"rework_requested_by"`
	ReworkRequestedByRole UserRole   `db:"rework_requested_by_role" json:"rework_requested_by_role"`
	ReworkRequestedAt     *time.Time `db:"rework_requested_at" json:"rework_requested_at"`

	Payload json.RawMessage `db:"payload" json:"payload"`

	// Version backs the compare-and-swap on update. Incremented on every
	// persisted mutation.
	Version   int       `db:"version" json:"version"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`

	// IsDuplicate is set on create responses when the record already existed.
	// Not persisted.
	IsDuplicate bool `db:"-" json:"is_duplicate,omitempty"`
}

// Attachment stores metadata about a property photo or scan uploaded against
// a valuation record.
type Attachment struct {
	ID           uuid.UUID   `db:"id" json:"id"`
	ClientID     string      `db:"client_id" json:"client_id"`
	RecordID     uuid.UUID   `db:"record_id" json:"record_id"`
	Variant      FormVariant `db:"variant" json:"variant"`
	FileName     string      `db:"file_name" json:"file_name"`
	OriginalName string      `db:"original_name" json:"original_name"`
	FileType     FileType    `db:"file_type" json:"file_type"`
	FileSize     int64       `db:"file_size" json:"file_size"`
	S3Bucket     string      `db:"s3_bucket" json:"s3_bucket"`
	S3Key        string      `db:"s3_key" json:"s3_key"`
	ContentType  string      `db:"content_type" json:"content_type"`
	UploadedBy   string      `db:"uploaded_by" json:"uploaded_by"`
	CreatedAt    time.Time   `db:"created_at" json:"created_at"`
}

// RecordFilter narrows record listings. ClientID is always set by the
// service from the caller's identity, never from raw input.
type RecordFilter struct {
	ClientID string
	// OwnerUsername restricts results to one owner; set for plain users.
	OwnerUsername string
	State         RecordState
	City          string
	BankName      string
}
