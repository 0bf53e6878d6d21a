package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"pixelwallet/internal/amqp"
	applog "pixelwallet/internal/log"
)

// AuditStore is the piece of storage the audit worker writes to.
type AuditStore interface {
	RecordAuditEvent(ctx context.Context, userID int64, action string, transactionID int64, occurredAt time.Time) error
	PruneAuditEvents(ctx context.Context, before time.Time) (int64, error)
}

// AuditWorker consumes transaction lifecycle events and records them in the
// audit trail.
type AuditWorker struct {
	store     AuditStore
	retention time.Duration
}

func NewAuditWorker(store AuditStore, retention time.Duration) *AuditWorker {
	return &AuditWorker{store: store, retention: retention}
}

// HandleEvent processes a single transaction event from the queue.
func (w *AuditWorker) HandleEvent(ctx context.Context, msg *amqp.TransactionEventMessage) error {
	if err := msg.Validate(); err != nil {
		return fmt.Errorf("validate event: %w", err)
	}

	if err := w.store.RecordAuditEvent(ctx, msg.UserID, msg.Action, msg.TransactionID, msg.Timestamp); err != nil {
		return fmt.Errorf("record event: %w", err)
	}

	fields := applog.NewFields().WithComponent(applog.ComponentWorker)
	fields[applog.FieldAction] = msg.Action
	fields[applog.FieldUserID] = msg.UserID
	fields[applog.FieldTransactionID] = msg.TransactionID
	slog.InfoContext(ctx, "Audit event recorded", fields.ToSlice()...)

	return nil
}

// Sweep removes audit rows older than the retention window. A retention of
// zero disables pruning.
func (w *AuditWorker) Sweep(ctx context.Context) error {
	if w.retention <= 0 {
		return nil
	}

	cutoff := time.Now().Add(-w.retention)
	pruned, err := w.store.PruneAuditEvents(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("sweep audit trail: %w", err)
	}

	if pruned > 0 {
		slog.InfoContext(ctx, "Audit trail pruned", "removed", pruned, "cutoff", cutoff)
	}
	return nil
}
