package port

import (
	"context"

	"propval/internal/domain"
)

// DecisionNotification carries everything needed to notify a record owner
// about a manager decision or rework request.
type DecisionNotification struct {
	ToEmail   string
	ToName    string
	UniqueID  string
	Variant   domain.FormVariant
	State     domain.RecordState
	Feedback  string
	DecidedBy string
}

// EmailSender defines the contract for sending notification emails.
type EmailSender interface {
	SendDecisionEmail(ctx context.Context, n DecisionNotification) error
}
