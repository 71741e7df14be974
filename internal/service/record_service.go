package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"propval/internal/domain"
	"propval/internal/port"
)

// reservedPayloadKeys are transport and lifecycle fields that may arrive
// mixed into a form payload but are never stored inside it. State and audit
// fields are owned by this service; identity fields come from the resolved
// caller identity only.
var reservedPayloadKeys = []string{
	"id", "clientId", "uniqueId", "username", "userRole",
	"state", "lastUpdatedBy", "lastUpdatedByRole", "lastUpdatedAt",
}

// privilegedPayloadKeys may only be written through manager-driven
// transitions; they are stripped from every non-admin payload.
var privilegedPayloadKeys = []string{"managerFeedback", "submittedByManager"}

// RecordService is the lifecycle façade for one form variant. It is the only
// entry point transport handlers use, and the only code path that writes a
// record's state.
type RecordService interface {
	Variant() domain.FormVariant
	Create(ctx context.Context, id domain.Identity, uniqueID string, payload json.RawMessage) (*domain.ValuationRecord, error)
	GetByID(ctx context.Context, id domain.Identity, recordID string) (*domain.ValuationRecord, error)
	List(ctx context.Context, id domain.Identity, state domain.RecordState, city, bankName string, offset, limit int) ([]domain.ValuationRecord, int, error)
	Update(ctx context.Context, id domain.Identity, recordID string, payload json.RawMessage) (*domain.ValuationRecord, error)
	ManagerSubmit(ctx context.Context, id domain.Identity, recordID string, action domain.ManagerAction, feedback string) (*domain.ValuationRecord, error)
	RequestRework(ctx context.Context, id domain.Identity, recordID string, comments string) (*domain.ValuationRecord, error)
}

type recordService struct {
	repo     port.RecordRepository
	userRepo port.UserRepository
	email    port.EmailSender
}

// NewRecordService creates a RecordService over one variant's repository.
// userRepo and email are used for owner notifications and may be nil.
func NewRecordService(
	repo port.RecordRepository,
	userRepo port.UserRepository,
	email port.EmailSender,
) RecordService {
	return &recordService{
		repo:     repo,
		userRepo: userRepo,
		email:    email,
	}
}

func (s *recordService) Variant() domain.FormVariant {
	return s.repo.Variant()
}

// requireIdentity rejects calls whose resolved identity is incomplete.
// Missing username or role is an authentication failure; a missing client id
// is reported separately so operators can tell the two apart.
func requireIdentity(id domain.Identity) error {
	if id.Username == "" || id.Role == "" || !domain.ValidRoles[id.Role] {
		return domain.ErrUnauthenticated
	}
	if id.ClientID == "" {
		return domain.ErrMissingTenant
	}
	return nil
}

// guardClient enforces tenant isolation after every fetch, before any
// permission or state logic. Even admins cannot cross clients.
func guardClient(id domain.Identity, rec *domain.ValuationRecord) error {
	if rec.ClientID != id.ClientID {
		return domain.ErrClientMismatch
	}
	return nil
}

// resolve finds a record by either identifier: the storage-internal UUID
// first, then the caller-supplied business key. Both lookups are scoped to
// the caller's client, composed as indexed lookups with a fallback rather
// than exception-driven control flow.
func (s *recordService) resolve(ctx context.Context, clientID, recordID string) (*domain.ValuationRecord, error) {
	if internalID, err := uuid.Parse(recordID); err == nil {
		rec, err := s.repo.GetByInternalID(ctx, clientID, internalID)
		if err == nil {
			return rec, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
	}
	return s.repo.GetByUniqueID(ctx, clientID, recordID)
}

// sanitizePayload drops reserved keys from the incoming payload, and the
// privileged manager fields unless the caller is an admin. A nil or empty
// payload sanitizes to an empty object.
func sanitizePayload(payload json.RawMessage, role domain.UserRole) (map[string]interface{}, error) {
	fields := map[string]interface{}{}
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &fields); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidPayload, err)
		}
	}
	for _, k := range reservedPayloadKeys {
		delete(fields, k)
	}
	if role != domain.RoleAdmin {
		for _, k := range privilegedPayloadKeys {
			delete(fields, k)
		}
	}
	return fields, nil
}

// stampAudit overwrites the audit trail from the resolved identity. Callers
// can never set these through raw input.
func stampAudit(rec *domain.ValuationRecord, id domain.Identity) {
	rec.LastUpdatedBy = id.Username
	rec.LastUpdatedByRole = id.Role
	rec.LastUpdatedAt = time.Now().UTC()
}

func (s *recordService) Create(ctx context.Context, id domain.Identity, uniqueID string, payload json.RawMessage) (*domain.ValuationRecord, error) {
	if err := requireIdentity(id); err != nil {
		return nil, err
	}
	if uniqueID == "" {
		return nil, domain.ErrMissingUniqueID
	}

	// Duplicate create is an idempotent success: return the stored record
	// untouched rather than surfacing a constraint violation.
	existing, err := s.repo.GetByUniqueID(ctx, id.ClientID, uniqueID)
	if err == nil {
		existing.IsDuplicate = true
		return existing, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	fields, err := sanitizePayload(payload, id.Role)
	if err != nil {
		return nil, err
	}
	payloadJSON, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("encoding payload: %w", err)
	}

	rec := &domain.ValuationRecord{
		ID:            uuid.New(),
		ClientID:      id.ClientID,
		UniqueID:      uniqueID,
		OwnerUsername: id.Username,
		State:         domain.StatePending,
		Payload:       payloadJSON,
	}
	stampAudit(rec, id)

	if err := s.repo.Create(ctx, rec); err != nil {
		// A concurrent create won the unique index race; same idempotent
		// answer as the read-then-compare path above.
		if errors.Is(err, domain.ErrDuplicateRecord) {
			winner, getErr := s.repo.GetByUniqueID(ctx, id.ClientID, uniqueID)
			if getErr != nil {
				return nil, getErr
			}
			winner.IsDuplicate = true
			return winner, nil
		}
		return nil, fmt.Errorf("creating record: %w", err)
	}

	log.Printf("recordService[%s].Create: record %s (%s) created by %s for client %s",
		s.Variant(), rec.ID, rec.UniqueID, id.Username, id.ClientID)

	return rec, nil
}

func (s *recordService) GetByID(ctx context.Context, id domain.Identity, recordID string) (*domain.ValuationRecord, error) {
	if err := requireIdentity(id); err != nil {
		return nil, err
	}
	rec, err := s.resolve(ctx, id.ClientID, recordID)
	if err != nil {
		return nil, err
	}
	if err := guardClient(id, rec); err != nil {
		return nil, err
	}
	if err := domain.CheckTransition(domain.OpRead, id, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *recordService) List(ctx context.Context, id domain.Identity, state domain.RecordState, city, bankName string, offset, limit int) ([]domain.ValuationRecord, int, error) {
	if err := requireIdentity(id); err != nil {
		return nil, 0, err
	}
	filter := domain.RecordFilter{
		ClientID: id.ClientID,
		State:    state,
		City:     city,
		BankName: bankName,
	}
	// Plain users only ever see their own records.
	if id.Role == domain.RoleUser {
		filter.OwnerUsername = id.Username
	}
	return s.repo.List(ctx, filter, offset, limit)
}

func (s *recordService) Update(ctx context.Context, id domain.Identity, recordID string, payload json.RawMessage) (*domain.ValuationRecord, error) {
	if err := requireIdentity(id); err != nil {
		return nil, err
	}
	rec, err := s.resolve(ctx, id.ClientID, recordID)
	if err != nil {
		return nil, err
	}
	if err := guardClient(id, rec); err != nil {
		return nil, err
	}
	if err := domain.CheckTransition(domain.OpEdit, id, rec); err != nil {
		return nil, err
	}

	incoming, err := sanitizePayload(payload, id.Role)
	if err != nil {
		return nil, err
	}

	// Fields present in the request replace their stored counterparts;
	// everything else in the stored payload survives.
	merged := map[string]interface{}{}
	if len(rec.Payload) > 0 {
		if err := json.Unmarshal(rec.Payload, &merged); err != nil {
			return nil, fmt.Errorf("decoding stored payload: %w", err)
		}
	}
	for k, v := range incoming {
		merged[k] = v
	}
	mergedJSON, err := json.Marshal(merged)
	if err != nil {
		return nil, fmt.Errorf("encoding payload: %w", err)
	}

	rec.Payload = mergedJSON
	// Every accepted edit reopens the workflow, whatever state the record
	// was in. The caller cannot set state.
	next, _ := domain.ResultingState(domain.OpEdit)
	rec.State = next
	stampAudit(rec, id)

	if err := s.repo.Update(ctx, rec); err != nil {
		return nil, err
	}

	log.Printf("recordService[%s].Update: record %s updated by %s (%s), state %s",
		s.Variant(), rec.UniqueID, id.Username, id.Role, rec.State)

	return rec, nil
}

func (s *recordService) ManagerSubmit(ctx context.Context, id domain.Identity, recordID string, action domain.ManagerAction, feedback string) (*domain.ValuationRecord, error) {
	if err := requireIdentity(id); err != nil {
		return nil, err
	}
	// Reject non-privileged callers before touching storage so they cannot
	// learn whether the record exists.
	if !domain.RoleMayPerform(domain.OpApprove, id.Role) {
		return nil, domain.ErrForbidden
	}
	op, err := domain.DecisionOperation(action)
	if err != nil {
		return nil, err
	}

	rec, err := s.resolve(ctx, id.ClientID, recordID)
	if err != nil {
		return nil, err
	}
	if err := guardClient(id, rec); err != nil {
		return nil, err
	}
	if err := domain.CheckTransition(op, id, rec); err != nil {
		return nil, err
	}

	next, _ := domain.ResultingState(op)
	rec.State = next
	rec.ManagerFeedback = feedback
	rec.SubmittedByManager = true
	stampAudit(rec, id)

	if err := s.repo.Update(ctx, rec); err != nil {
		return nil, err
	}

	log.Printf("recordService[%s].ManagerSubmit: record %s %s by %s (%s)",
		s.Variant(), rec.UniqueID, rec.State, id.Username, id.Role)

	s.notifyOwner(rec, id)

	return rec, nil
}

func (s *recordService) RequestRework(ctx context.Context, id domain.Identity, recordID string, comments string) (*domain.ValuationRecord, error) {
	if err := requireIdentity(id); err != nil {
		return nil, err
	}
	if !domain.RoleMayPerform(domain.OpRework, id.Role) {
		return nil, domain.ErrForbidden
	}

	rec, err := s.resolve(ctx, id.ClientID, recordID)
	if err != nil {
		return nil, err
	}
	if err := guardClient(id, rec); err != nil {
		return nil, err
	}
	if err := domain.CheckTransition(domain.OpRework, id, rec); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	next, _ := domain.ResultingState(domain.OpRework)
	rec.State = next
	rec.ReworkComments = comments
	rec.ReworkRequestedBy = id.Username
	rec.ReworkRequestedByRole = id.Role
	rec.ReworkRequestedAt = &now
	// managerFeedback is deliberately left untouched.
	stampAudit(rec, id)

	if err := s.repo.Update(ctx, rec); err != nil {
		return nil, err
	}

	log.Printf("recordService[%s].RequestRework: record %s sent to rework by %s (%s)",
		s.Variant(), rec.UniqueID, id.Username, id.Role)

	s.notifyOwner(rec, id)

	return rec, nil
}

// notifyOwner emails the record owner about a decision or rework request.
// Failures are logged but never block the transition.
func (s *recordService) notifyOwner(rec *domain.ValuationRecord, decidedBy domain.Identity) {
	if s.email == nil || s.userRepo == nil {
		return
	}
	variant := s.Variant()
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		owner, err := s.userRepo.GetByUsername(ctx, rec.ClientID, rec.OwnerUsername)
		if err != nil {
			log.Printf("recordService[%s].notifyOwner: owner %s lookup failed for %s: %v",
				variant, rec.OwnerUsername, rec.UniqueID, err)
			return
		}

		feedback := rec.ManagerFeedback
		if rec.State == domain.StateRework {
			feedback = rec.ReworkComments
		}
		err = s.email.SendDecisionEmail(ctx, port.DecisionNotification{
			ToEmail:   owner.Email,
			ToName:    owner.FullName,
			UniqueID:  rec.UniqueID,
			Variant:   variant,
			State:     rec.State,
			Feedback:  feedback,
			DecidedBy: decidedBy.Username,
		})
		if err != nil {
			log.Printf("recordService[%s].notifyOwner: email to %s failed for %s: %v",
				variant, owner.Email, rec.UniqueID, err)
		}
	}()
}
