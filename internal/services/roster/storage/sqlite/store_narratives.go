package sqlite

import (
	"context"
	"fmt"

	"github.com/louisbranch/gangledger/internal/services/roster/storage"
)

// ListNarrativeEntries returns a gang's narrative records, newest first.
func (s *Store) ListNarrativeEntries(ctx context.Context, gangID string, limit int) ([]storage.NarrativeEntry, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}

	var rows []narrativeRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT * FROM narratives WHERE gang_id = ? ORDER BY created_at DESC, id DESC LIMIT ?`,
		gangID, limit)
	if err != nil {
		return nil, fmt.Errorf("list narratives: %w", err)
	}
	entries := make([]storage.NarrativeEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, row.toDomain())
	}
	return entries, nil
}
