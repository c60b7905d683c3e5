package app

import (
	"context"
	"log"
	"strconv"
	"strings"

	"github.com/louisbranch/gangledger/internal/services/roster/domain/ledger"
	"github.com/louisbranch/gangledger/internal/services/roster/storage"
)

// auditCodeLedgerDrift marks a consistency check that found live totals out
// of sync with the recomputation or the ledger.
const auditCodeLedgerDrift = "LEDGER_DRIFT"

// CheckGangConsistency recomputes a gang's totals from its entity graph and
// compares them against the live totals and the latest ledger entry. Drift
// is recorded as a WARN audit event and logged; it is never returned as an
// error. Errors mean the check itself could not run.
func (s *Service) CheckGangConsistency(ctx context.Context, gangID string) (ledger.SyncResult, error) {
	ctx, span := s.span(ctx, "CheckGangConsistency")
	defer span.End()

	g, err := s.store.GetGang(ctx, gangID)
	if err != nil {
		return ledger.SyncResult{}, err
	}
	recomputed, err := s.store.RecomputeGangTotals(ctx, gangID)
	if err != nil {
		return ledger.SyncResult{}, err
	}
	latest, err := s.store.LatestLedgerEntry(ctx, gangID)
	if err != nil {
		return ledger.SyncResult{}, err
	}

	result := ledger.CheckSync(g, recomputed, latest)
	if result.Clean() {
		return result, nil
	}

	log.Printf("ledger drift on gang %s: %s", gangID, strings.Join(result.Issues, "; "))
	metadata := map[string]string{
		"issues":            strings.Join(result.Issues, "; "),
		"live_rating":       strconv.Itoa(result.Live.Rating),
		"live_stash":        strconv.Itoa(result.Live.Stash),
		"live_credits":      strconv.Itoa(result.Live.Credits),
		"recomputed_rating": strconv.Itoa(result.Recomputed.Rating),
		"recomputed_stash":  strconv.Itoa(result.Recomputed.Stash),
	}
	if emitErr := s.audit.Warn(ctx, auditCodeLedgerDrift, "gang totals out of sync", gangID, metadata); emitErr != nil {
		log.Printf("audit emit %s: %v", auditCodeLedgerDrift, emitErr)
	}
	return result, nil
}

// ListAuditEvents returns a gang's operational diagnostics, newest first.
func (s *Service) ListAuditEvents(ctx context.Context, gangID string, limit int) ([]storage.AuditEvent, error) {
	ctx, span := s.span(ctx, "ListAuditEvents")
	defer span.End()
	return s.store.ListAuditEvents(ctx, gangID, limit)
}
