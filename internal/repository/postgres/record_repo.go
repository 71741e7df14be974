package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"propval/internal/domain"
	"propval/internal/port"
)

// recordColumns is the shared column list of every variant table.
const recordColumns = `id, client_id, unique_id, owner_username, state,
	last_updated_by, last_updated_by_role, last_updated_at,
	manager_feedback, submitted_by_manager,
	rework_comments, rework_requested_by, rework_requested_by_role, rework_requested_at,
	payload, version, created_at, updated_at`

type recordRepo struct {
	db      *sqlx.DB
	variant domain.FormVariant
	table   string
}

// NewRecordRepo creates a PostgreSQL-backed RecordRepository for one form
// variant. Each variant has its own table with identical lifecycle columns.
func NewRecordRepo(db *sqlx.DB, variant domain.FormVariant) (port.RecordRepository, error) {
	table, ok := domain.VariantTables[variant]
	if !ok {
		return nil, domain.ErrUnknownVariant
	}
	return &recordRepo{db: db, variant: variant, table: table}, nil
}

func (r *recordRepo) Variant() domain.FormVariant {
	return r.variant
}

func (r *recordRepo) Create(ctx context.Context, rec *domain.ValuationRecord) error {
	now := time.Now().UTC()
	rec.CreatedAt = now
	rec.UpdatedAt = now
	rec.Version = 1

	query := fmt.Sprintf(`INSERT INTO %s (
		id, client_id, unique_id, owner_username, state,
		last_updated_by, last_updated_by_role, last_updated_at,
		manager_feedback, submitted_by_manager,
		rework_comments, rework_requested_by, rework_requested_by_role, rework_requested_at,
		payload, version, created_at, updated_at
	) VALUES (
		$1, $2, $3, $4, $5,
		$6, $7, $8,
		$9, $10,
		$11, $12, $13, $14,
		$15, $16, $17, $18
	)`, r.table)

	_, err := r.db.ExecContext(ctx, query,
		rec.ID, rec.ClientID, rec.UniqueID, rec.OwnerUsername, rec.State,
		rec.LastUpdatedBy, rec.LastUpdatedByRole, rec.LastUpdatedAt,
		rec.ManagerFeedback, rec.SubmittedByManager,
		rec.ReworkComments, rec.ReworkRequestedBy, rec.ReworkRequestedByRole, rec.ReworkRequestedAt,
		rec.Payload, rec.Version, rec.CreatedAt, rec.UpdatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") && strings.Contains(err.Error(), "unique_id") {
			return domain.ErrDuplicateRecord
		}
		return fmt.Errorf("recordRepo[%s].Create: %w", r.variant, err)
	}
	return nil
}

func (r *recordRepo) GetByInternalID(ctx context.Context, clientID string, id uuid.UUID) (*domain.ValuationRecord, error) {
	var rec domain.ValuationRecord
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1 AND client_id = $2", recordColumns, r.table)
	err := r.db.GetContext(ctx, &rec, query, id, clientID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("recordRepo[%s].GetByInternalID: %w", r.variant, err)
	}
	return &rec, nil
}

func (r *recordRepo) GetByUniqueID(ctx context.Context, clientID, uniqueID string) (*domain.ValuationRecord, error) {
	var rec domain.ValuationRecord
	query := fmt.Sprintf("SELECT %s FROM %s WHERE unique_id = $1 AND client_id = $2", recordColumns, r.table)
	err := r.db.GetContext(ctx, &rec, query, uniqueID, clientID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("recordRepo[%s].GetByUniqueID: %w", r.variant, err)
	}
	return &rec, nil
}

func (r *recordRepo) List(ctx context.Context, filter domain.RecordFilter, offset, limit int) ([]domain.ValuationRecord, int, error) {
	where := []string{"client_id = $1"}
	args := []interface{}{filter.ClientID}

	if filter.OwnerUsername != "" {
		args = append(args, filter.OwnerUsername)
		where = append(where, fmt.Sprintf("owner_username = $%d", len(args)))
	}
	if filter.State != "" {
		args = append(args, filter.State)
		where = append(where, fmt.Sprintf("state = $%d", len(args)))
	}
	if filter.City != "" {
		args = append(args, filter.City)
		where = append(where, fmt.Sprintf("payload->>'city' = $%d", len(args)))
	}
	if filter.BankName != "" {
		args = append(args, filter.BankName)
		where = append(where, fmt.Sprintf("payload->>'bankName' = $%d", len(args)))
	}
	cond := strings.Join(where, " AND ")

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s", r.table, cond)
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("recordRepo[%s].List count: %w", r.variant, err)
	}

	args = append(args, limit, offset)
	listQuery := fmt.Sprintf(
		"SELECT %s FROM %s WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d",
		recordColumns, r.table, cond, len(args)-1, len(args))

	var recs []domain.ValuationRecord
	if err := r.db.SelectContext(ctx, &recs, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("recordRepo[%s].List: %w", r.variant, err)
	}
	return recs, total, nil
}

// Update persists every mutable field as a compare-and-swap on the record's
// version. The caller passes the version it read; a zero row count with the
// record still present means a concurrent writer won the race.
func (r *recordRepo) Update(ctx context.Context, rec *domain.ValuationRecord) error {
	rec.UpdatedAt = time.Now().UTC()

	query := fmt.Sprintf(`UPDATE %s SET
		state = $1,
		last_updated_by = $2, last_updated_by_role = $3, last_updated_at = $4,
		manager_feedback = $5, submitted_by_manager = $6,
		rework_comments = $7, rework_requested_by = $8,
		rework_requested_by_role = $9, rework_requested_at = $10,
		payload = $11, version = version + 1, updated_at = $12
	 WHERE id = $13 AND client_id = $14 AND version = $15`, r.table)

	result, err := r.db.ExecContext(ctx, query,
		rec.State,
		rec.LastUpdatedBy, rec.LastUpdatedByRole, rec.LastUpdatedAt,
		rec.ManagerFeedback, rec.SubmittedByManager,
		rec.ReworkComments, rec.ReworkRequestedBy,
		rec.ReworkRequestedByRole, rec.ReworkRequestedAt,
		rec.Payload, rec.UpdatedAt,
		rec.ID, rec.ClientID, rec.Version)
	if err != nil {
		return fmt.Errorf("recordRepo[%s].Update: %w", r.variant, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		if _, err := r.GetByInternalID(ctx, rec.ClientID, rec.ID); err != nil {
			return err
		}
		return domain.ErrVersionConflict
	}
	rec.Version++
	return nil
}
