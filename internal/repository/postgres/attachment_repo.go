package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"propval/internal/domain"
	"propval/internal/port"
)

type attachmentRepo struct {
	db *sqlx.DB
}

// NewAttachmentRepo creates a new PostgreSQL-backed AttachmentRepository.
func NewAttachmentRepo(db *sqlx.DB) port.AttachmentRepository {
	return &attachmentRepo{db: db}
}

func (r *attachmentRepo) Create(ctx context.Context, att *domain.Attachment) error {
	att.CreatedAt = time.Now().UTC()

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO attachments (
			id, client_id, record_id, variant, file_name, original_name,
			file_type, file_size, s3_bucket, s3_key, content_type, uploaded_by, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		att.ID, att.ClientID, att.RecordID, att.Variant, att.FileName, att.OriginalName,
		att.FileType, att.FileSize, att.S3Bucket, att.S3Key, att.ContentType, att.UploadedBy, att.CreatedAt)
	if err != nil {
		return fmt.Errorf("attachmentRepo.Create: %w", err)
	}
	return nil
}

func (r *attachmentRepo) GetByID(ctx context.Context, clientID string, attID uuid.UUID) (*domain.Attachment, error) {
	var att domain.Attachment
	err := r.db.GetContext(ctx, &att,
		"SELECT * FROM attachments WHERE id = $1 AND client_id = $2", attID, clientID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("attachmentRepo.GetByID: %w", err)
	}
	return &att, nil
}

func (r *attachmentRepo) ListByRecord(ctx context.Context, clientID string, recordID uuid.UUID) ([]domain.Attachment, error) {
	var atts []domain.Attachment
	err := r.db.SelectContext(ctx, &atts,
		`SELECT * FROM attachments WHERE record_id = $1 AND client_id = $2
		 ORDER BY created_at DESC`, recordID, clientID)
	if err != nil {
		return nil, fmt.Errorf("attachmentRepo.ListByRecord: %w", err)
	}
	return atts, nil
}

func (r *attachmentRepo) Delete(ctx context.Context, clientID string, attID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM attachments WHERE id = $1 AND client_id = $2", attID, clientID)
	if err != nil {
		return fmt.Errorf("attachmentRepo.Delete: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}
