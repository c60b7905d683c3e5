package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/louisbranch/gangledger/internal/services/roster/storage"
)

const insertAuditEventSQL = `
INSERT INTO audit_events (id, severity, code, message, gang_id, metadata_json, created_at)
VALUES (:id, :severity, :code, :message, :gang_id, :metadata_json, :created_at)`

// AppendAuditEvent records one operational diagnostic. The event ID and
// timestamp are filled in when the caller leaves them empty.
func (s *Store) AppendAuditEvent(ctx context.Context, event storage.AuditEvent) error {
	if err := s.ready(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if strings.TrimSpace(event.ID) == "" {
		eventID, err := s.newID()
		if err != nil {
			return fmt.Errorf("generate audit event id: %w", err)
		}
		event.ID = eventID
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = s.now()
	}
	metadata := "{}"
	if len(event.Metadata) > 0 {
		encoded, err := encodeJSONMap(event.Metadata)
		if err != nil {
			return fmt.Errorf("marshal audit metadata: %w", err)
		}
		metadata = encoded
	}

	row := auditEventRow{
		ID:           event.ID,
		Severity:     event.Severity,
		Code:         event.Code,
		Message:      event.Message,
		GangID:       event.GangID,
		MetadataJSON: metadata,
		CreatedAt:    toMillis(event.CreatedAt),
	}
	if _, err := s.db.NamedExecContext(ctx, insertAuditEventSQL, row); err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// ListAuditEvents returns a gang's diagnostics, newest first.
func (s *Store) ListAuditEvents(ctx context.Context, gangID string, limit int) ([]storage.AuditEvent, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}

	var rows []auditEventRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT * FROM audit_events WHERE gang_id = ? ORDER BY created_at DESC, id DESC LIMIT ?`,
		gangID, limit)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	events := make([]storage.AuditEvent, 0, len(rows))
	for _, row := range rows {
		event, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, nil
}
