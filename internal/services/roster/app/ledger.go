package app

import (
	"context"
	"strings"

	apperrors "github.com/louisbranch/gangledger/internal/platform/errors"
	"github.com/louisbranch/gangledger/internal/services/roster/domain/ledger"
	"github.com/louisbranch/gangledger/internal/services/roster/storage"
	"github.com/louisbranch/gangledger/internal/services/roster/storage/cursor"
	"github.com/louisbranch/gangledger/internal/services/roster/storage/filter"
)

const (
	defaultLedgerPageSize = 50
	maxLedgerPageSize     = 200
)

// ListLedgerEntriesRequest shapes a paginated ledger history read.
type ListLedgerEntriesRequest struct {
	GangID string
	// PageSize caps returned entries; zero means the default of 50,
	// values above 200 are clamped.
	PageSize int
	// PageToken resumes from a previous page's NextPageToken or
	// PrevPageToken. Tokens are bound to the filter and order they were
	// issued under.
	PageToken string
	// OrderBy is "seq" (default) or "seq desc".
	OrderBy string
	// Filter is an AIP-160 expression over kind, fighter_id,
	// assignment_id, actor, and ts.
	Filter string
}

// LedgerPage is one page of ledger history.
type LedgerPage struct {
	Entries       []ledger.Entry
	NextPageToken string
	PrevPageToken string
	// TotalCount is the number of entries matching the filter across all
	// pages.
	TotalCount int
}

// ListLedgerEntries returns a gang's ledger history page by page. Page
// tokens are opaque and invalidated when the filter or order changes.
func (s *Service) ListLedgerEntries(ctx context.Context, req ListLedgerEntriesRequest) (LedgerPage, error) {
	ctx, span := s.span(ctx, "ListLedgerEntries")
	defer span.End()

	pageSize := cursor.ClampPageSize(req.PageSize, cursor.PageSizeConfig{
		Default: defaultLedgerPageSize,
		Max:     maxLedgerPageSize,
	})

	orderBy, err := cursor.NormalizeOrderBy(strings.TrimSpace(req.OrderBy), cursor.OrderByConfig{
		Default: "seq",
		Allowed: []string{"seq", "seq desc"},
	})
	if err != nil {
		return LedgerPage{}, apperrors.Wrap(apperrors.CodeOrderByInvalid, "order_by must be 'seq' or 'seq desc'", err)
	}
	descending := orderBy == "seq desc"

	filterStr := strings.TrimSpace(req.Filter)
	var filterClause string
	var filterParams []any
	if filterStr != "" {
		cond, err := filter.ParseLedgerFilter(filterStr)
		if err != nil {
			return LedgerPage{}, apperrors.Wrap(apperrors.CodeFilterInvalid, "invalid filter", err)
		}
		filterClause = cond.Clause
		filterParams = cond.Params
	}

	var cursorSeq uint64
	var cursorDir string
	var cursorReverse bool
	pageToken := strings.TrimSpace(req.PageToken)
	if pageToken != "" {
		c, err := cursor.Decode(pageToken)
		if err != nil {
			return LedgerPage{}, apperrors.Wrap(apperrors.CodePageTokenInvalid, "invalid page token", err)
		}
		if err := cursor.ValidateFilterHash(c, filterStr); err != nil {
			return LedgerPage{}, apperrors.Wrap(apperrors.CodePageTokenInvalid, "page token does not match filter", err)
		}
		if err := cursor.ValidateOrderHash(c, orderBy); err != nil {
			return LedgerPage{}, apperrors.Wrap(apperrors.CodePageTokenInvalid, "page token does not match order", err)
		}
		cursorSeq = c.Seq
		cursorDir = string(c.Dir)
		cursorReverse = c.Reverse
	}

	result, err := s.store.ListLedgerEntriesPage(ctx, storage.ListLedgerEntriesPageRequest{
		GangID:        req.GangID,
		PageSize:      pageSize,
		CursorSeq:     cursorSeq,
		CursorDir:     cursorDir,
		CursorReverse: cursorReverse,
		Descending:    descending,
		FilterClause:  filterClause,
		FilterParams:  filterParams,
	})
	if err != nil {
		return LedgerPage{}, err
	}

	page := LedgerPage{
		Entries:    result.Entries,
		TotalCount: result.TotalCount,
	}
	if len(result.Entries) > 0 {
		if result.HasNextPage {
			last := result.Entries[len(result.Entries)-1].Seq
			token, err := cursor.Encode(cursor.NewNextPageCursor(last, descending, filterStr, orderBy))
			if err == nil {
				page.NextPageToken = token
			}
		}
		if result.HasPrevPage {
			first := result.Entries[0].Seq
			token, err := cursor.Encode(cursor.NewPrevPageCursor(first, descending, filterStr, orderBy))
			if err == nil {
				page.PrevPageToken = token
			}
		}
	}
	return page, nil
}

// LatestLedgerEntry returns a gang's most recent ledger entry, nil when the
// ledger is empty.
func (s *Service) LatestLedgerEntry(ctx context.Context, gangID string) (*ledger.Entry, error) {
	ctx, span := s.span(ctx, "LatestLedgerEntry")
	defer span.End()
	return s.store.LatestLedgerEntry(ctx, gangID)
}
