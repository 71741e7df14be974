package noop

import (
	"context"
	"log"

	"propval/internal/port"
)

type noopSender struct{}

// NewNoopSender creates a no-op EmailSender that logs decisions to stdout.
func NewNoopSender() port.EmailSender {
	return &noopSender{}
}

func (s *noopSender) SendDecisionEmail(_ context.Context, n port.DecisionNotification) error {
	log.Printf("[NOOP EMAIL] Decision notification for %s (%s): report %s/%s is now %s",
		n.ToName, n.ToEmail, n.Variant, n.UniqueID, n.State)
	return nil
}
