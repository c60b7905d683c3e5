package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/louisbranch/gangledger/internal/services/roster/storage"
)

// GetLatestGangSnapshot returns a gang's most recent roster snapshot.
func (s *Store) GetLatestGangSnapshot(ctx context.Context, gangID string) (storage.GangSnapshot, error) {
	if err := s.ready(); err != nil {
		return storage.GangSnapshot{}, err
	}
	if err := ctx.Err(); err != nil {
		return storage.GangSnapshot{}, err
	}

	var row snapshotRow
	err := s.db.GetContext(ctx, &row,
		`SELECT * FROM gang_snapshots WHERE gang_id = ? ORDER BY taken_at DESC, id DESC LIMIT 1`,
		gangID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.GangSnapshot{}, storage.ErrNotFound
		}
		return storage.GangSnapshot{}, fmt.Errorf("get latest snapshot: %w", err)
	}
	return row.toDomain(), nil
}
