package audit

import (
	"context"
	"time"

	"github.com/louisbranch/gangledger/internal/services/roster/storage"
)

// Severity describes the audit severity level.
type Severity string

const (
	SeverityInfo  Severity = "INFO"
	SeverityWarn  Severity = "WARN"
	SeverityError Severity = "ERROR"
)

// Emitter records operational audit events.
type Emitter struct {
	store storage.AuditEventStore
	clock func() time.Time
}

// NewEmitter creates a new audit event emitter.
func NewEmitter(store storage.AuditEventStore) *Emitter {
	return &Emitter{store: store, clock: time.Now}
}

// Emit records an audit event. It is a no-op when the store is nil.
func (e *Emitter) Emit(ctx context.Context, evt storage.AuditEvent) error {
	if e == nil || e.store == nil {
		return nil
	}
	if evt.CreatedAt.IsZero() {
		if e.clock == nil {
			evt.CreatedAt = time.Now().UTC()
		} else {
			evt.CreatedAt = e.clock().UTC()
		}
	}
	return e.store.AppendAuditEvent(ctx, evt)
}

// Warn records a WARN severity event for a gang.
func (e *Emitter) Warn(ctx context.Context, code, message, gangID string, metadata map[string]string) error {
	return e.Emit(ctx, storage.AuditEvent{
		Severity: string(SeverityWarn),
		Code:     code,
		Message:  message,
		GangID:   gangID,
		Metadata: metadata,
	})
}
