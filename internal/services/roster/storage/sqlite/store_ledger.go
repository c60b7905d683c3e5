package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/louisbranch/gangledger/internal/services/roster/domain/ledger"
	"github.com/louisbranch/gangledger/internal/services/roster/storage"
)

// ListLedgerEntriesPage returns one page of a gang's ledger history. Filter
// translation and page token handling happen above the store; this method
// only assembles and runs the SQL.
func (s *Store) ListLedgerEntriesPage(ctx context.Context, req storage.ListLedgerEntriesPageRequest) (storage.ListLedgerEntriesPageResult, error) {
	if err := s.ready(); err != nil {
		return storage.ListLedgerEntriesPageResult{}, err
	}
	if err := ctx.Err(); err != nil {
		return storage.ListLedgerEntriesPageResult{}, err
	}
	if strings.TrimSpace(req.GangID) == "" {
		return storage.ListLedgerEntriesPageResult{}, fmt.Errorf("gang id is required")
	}
	if req.PageSize <= 0 {
		req.PageSize = 50
	}
	if req.PageSize > 200 {
		req.PageSize = 200
	}

	plan := buildListLedgerPageSQLPlan(req)

	query := fmt.Sprintf(
		"SELECT * FROM ledger_entries WHERE %s %s %s",
		plan.whereClause,
		plan.orderClause,
		plan.limitClause,
	)

	var rows []ledgerEntryRow
	if err := s.db.SelectContext(ctx, &rows, query, plan.params...); err != nil {
		return storage.ListLedgerEntriesPageResult{}, fmt.Errorf("query ledger entries: %w", err)
	}

	entries := make([]ledger.Entry, 0, req.PageSize)
	for _, row := range rows {
		entries = append(entries, row.toDomain())
	}

	hasMore := len(entries) > req.PageSize
	if hasMore {
		entries = entries[:req.PageSize]
	}

	// For previous-page navigation, reverse the results back to the
	// requested order.
	if req.CursorReverse {
		for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
			entries[i], entries[j] = entries[j], entries[i]
		}
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM ledger_entries WHERE %s", plan.countWhereClause)
	var totalCount int
	if err := s.db.GetContext(ctx, &totalCount, countQuery, plan.countParams...); err != nil {
		return storage.ListLedgerEntriesPageResult{}, fmt.Errorf("count ledger entries: %w", err)
	}

	result := storage.ListLedgerEntriesPageResult{
		Entries:    entries,
		TotalCount: totalCount,
	}
	if req.CursorReverse {
		result.HasNextPage = true // we navigated back from a next page
		result.HasPrevPage = hasMore
	} else {
		result.HasNextPage = hasMore
		result.HasPrevPage = req.CursorSeq > 0
	}
	return result, nil
}

// LatestLedgerEntry returns the highest-sequence entry for a gang, or nil
// when the gang has no history.
func (s *Store) LatestLedgerEntry(ctx context.Context, gangID string) (*ledger.Entry, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var row ledgerEntryRow
	err := s.db.GetContext(ctx, &row,
		`SELECT * FROM ledger_entries WHERE gang_id = ? ORDER BY seq DESC LIMIT 1`, gangID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get latest ledger entry: %w", err)
	}
	entry := row.toDomain()
	return &entry, nil
}
