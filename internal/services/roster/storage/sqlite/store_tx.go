package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/louisbranch/gangledger/internal/services/roster/domain/advancement"
	"github.com/louisbranch/gangledger/internal/services/roster/domain/equipment"
	"github.com/louisbranch/gangledger/internal/services/roster/domain/fighter"
	"github.com/louisbranch/gangledger/internal/services/roster/domain/gang"
	"github.com/louisbranch/gangledger/internal/services/roster/domain/ledger"
	"github.com/louisbranch/gangledger/internal/services/roster/storage"
)

const insertGangSQL = `
INSERT INTO gangs (id, owner, name, house, status, campaign_id, original_gang_id, rating, stash_value, credits, credits_earned, created_at, updated_at)
VALUES (:id, :owner, :name, :house, :status, :campaign_id, :original_gang_id, :rating, :stash_value, :credits, :credits_earned, :created_at, :updated_at)`

const updateGangSQL = `
UPDATE gangs
SET owner = :owner, name = :name, house = :house, status = :status, campaign_id = :campaign_id,
    original_gang_id = :original_gang_id, rating = :rating, stash_value = :stash_value,
    credits = :credits, credits_earned = :credits_earned, updated_at = :updated_at
WHERE id = :id`

const insertFighterSQL = `
INSERT INTO fighters (id, gang_id, template_ref, name, status, archival, xp, cost_override, category_override, is_stash, is_child, spawned_by_assignment_id, created_at, updated_at)
VALUES (:id, :gang_id, :template_ref, :name, :status, :archival, :xp, :cost_override, :category_override, :is_stash, :is_child, :spawned_by_assignment_id, :created_at, :updated_at)`

const updateFighterSQL = `
UPDATE fighters
SET template_ref = :template_ref, name = :name, status = :status, archival = :archival, xp = :xp,
    cost_override = :cost_override, category_override = :category_override,
    spawned_by_assignment_id = :spawned_by_assignment_id, updated_at = :updated_at
WHERE id = :id`

const insertAssignmentSQL = `
INSERT INTO assignments (id, fighter_id, equipment_ref, archival, base_cost_override, total_cost_override, child_cost_only, spawned_fighter_id, created_at, updated_at)
VALUES (:id, :fighter_id, :equipment_ref, :archival, :base_cost_override, :total_cost_override, :child_cost_only, :spawned_fighter_id, :created_at, :updated_at)`

const updateAssignmentSQL = `
UPDATE assignments
SET fighter_id = :fighter_id, equipment_ref = :equipment_ref, archival = :archival,
    base_cost_override = :base_cost_override, total_cost_override = :total_cost_override,
    child_cost_only = :child_cost_only, spawned_fighter_id = :spawned_fighter_id, updated_at = :updated_at
WHERE id = :id`

const insertComponentSQL = `
INSERT INTO assignment_components (assignment_id, kind, ref, cost_override, position)
VALUES (:assignment_id, :kind, :ref, :cost_override, :position)`

const insertAdvancementSQL = `
INSERT INTO advancements (id, fighter_id, type, selection, xp_cost, cost_increase, archival, created_at, updated_at)
VALUES (:id, :fighter_id, :type, :selection, :xp_cost, :cost_increase, :archival, :created_at, :updated_at)`

const updateAdvancementSQL = `
UPDATE advancements
SET type = :type, selection = :selection, xp_cost = :xp_cost, cost_increase = :cost_increase,
    archival = :archival, updated_at = :updated_at
WHERE id = :id`

const insertCaptureSQL = `
INSERT INTO captures (id, fighter_id, capturing_gang_id, outcome, ransom_paid, captured_at, resolved_at)
VALUES (:id, :fighter_id, :capturing_gang_id, :outcome, :ransom_paid, :captured_at, :resolved_at)`

const updateCaptureSQL = `
UPDATE captures
SET outcome = :outcome, ransom_paid = :ransom_paid, resolved_at = :resolved_at
WHERE id = :id`

const insertLedgerEntrySQL = `
INSERT INTO ledger_entries (gang_id, seq, id, kind, description, fighter_id, assignment_id, rating_before, rating_delta, stash_before, stash_delta, credits_before, credits_delta, actor, ts)
VALUES (:gang_id, :seq, :id, :kind, :description, :fighter_id, :assignment_id, :rating_before, :rating_delta, :stash_before, :stash_delta, :credits_before, :credits_delta, :actor, :ts)`

// nextLedgerSeqTx allocates the next per-gang ledger sequence number inside
// the current transaction.
func (s *Store) nextLedgerSeqTx(ctx context.Context, tx *sqlx.Tx, gangID string) (uint64, error) {
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO ledger_seq (gang_id, next_seq) VALUES (?, 1) ON CONFLICT(gang_id) DO NOTHING`,
		gangID); err != nil {
		return 0, fmt.Errorf("init ledger seq: %w", err)
	}
	var seq int64
	if err := tx.GetContext(ctx, &seq,
		`SELECT next_seq FROM ledger_seq WHERE gang_id = ?`, gangID); err != nil {
		return 0, fmt.Errorf("get ledger seq: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE ledger_seq SET next_seq = next_seq + 1 WHERE gang_id = ?`, gangID); err != nil {
		return 0, fmt.Errorf("increment ledger seq: %w", err)
	}
	return uint64(seq), nil
}

// appendEntryTx allocates the next sequence, runs the entry through the
// ledger, and persists the row. The returned entry is nil when the audit
// trail is disabled; the returned totals apply either way.
func (s *Store) appendEntryTx(ctx context.Context, tx *sqlx.Tx, g gang.Gang, input ledger.AppendInput) (*ledger.Entry, gang.Totals, error) {
	if s.audit {
		seq, err := s.nextLedgerSeqTx(ctx, tx, g.ID)
		if err != nil {
			return nil, gang.Totals{}, err
		}
		input.Seq = seq
	}
	entry, totals, err := s.ledger.Append(g, input)
	if err != nil {
		return nil, gang.Totals{}, err
	}
	if entry != nil {
		if _, err := tx.NamedExecContext(ctx, insertLedgerEntrySQL, newLedgerEntryRow(*entry)); err != nil {
			return nil, gang.Totals{}, fmt.Errorf("insert ledger entry: %w", err)
		}
	}
	return entry, totals, nil
}

// entryWriter threads gang totals through successive ledger appends within
// one transaction. Each append persists its entry row and advances the
// in-memory totals; finish writes the gang row once at the end.
type entryWriter struct {
	store   *Store
	tx      *sqlx.Tx
	gang    gang.Gang
	entries []ledger.Entry
	deltas  ledger.Deltas
}

func (s *Store) newEntryWriter(tx *sqlx.Tx, g gang.Gang) *entryWriter {
	return &entryWriter{store: s, tx: tx, gang: g}
}

func (w *entryWriter) append(ctx context.Context, input ledger.AppendInput) error {
	entry, totals, err := w.store.appendEntryTx(ctx, w.tx, w.gang, input)
	if err != nil {
		return err
	}
	w.gang.Totals = totals
	if entry != nil {
		w.entries = append(w.entries, *entry)
	}
	w.deltas.Rating += input.Deltas.Rating
	w.deltas.Stash += input.Deltas.Stash
	w.deltas.Credits += input.Deltas.Credits
	return nil
}

// finish stamps the gang row with the threaded totals and returns the
// up-to-date gang.
func (w *entryWriter) finish(ctx context.Context, now time.Time) (gang.Gang, error) {
	w.gang.UpdatedAt = now
	if _, err := w.tx.NamedExecContext(ctx, updateGangSQL, newGangRow(w.gang)); err != nil {
		return gang.Gang{}, fmt.Errorf("update gang: %w", err)
	}
	return w.gang, nil
}

// insertNarrativeTx stores the free-form note attached to an operation.
// Returns nil without writing when the note is empty.
func (s *Store) insertNarrativeTx(ctx context.Context, tx *sqlx.Tx, gangID, fighterID string, meta storage.OpMeta, now time.Time) (*storage.NarrativeEntry, error) {
	body := strings.TrimSpace(meta.Narrative)
	if body == "" {
		return nil, nil
	}
	narrativeID, err := s.newID()
	if err != nil {
		return nil, fmt.Errorf("generate narrative id: %w", err)
	}
	row := narrativeRow{
		ID:        narrativeID,
		GangID:    gangID,
		FighterID: fighterID,
		Body:      body,
		Actor:     strings.TrimSpace(meta.Actor),
		CreatedAt: toMillis(now),
	}
	if _, err := tx.NamedExecContext(ctx,
		`INSERT INTO narratives (id, gang_id, fighter_id, body, actor, created_at)
VALUES (:id, :gang_id, :fighter_id, :body, :actor, :created_at)`, row); err != nil {
		return nil, fmt.Errorf("insert narrative: %w", err)
	}
	entry := row.toDomain()
	return &entry, nil
}

func (s *Store) insertFighterTx(ctx context.Context, tx *sqlx.Tx, f fighter.Fighter) error {
	if _, err := tx.NamedExecContext(ctx, insertFighterSQL, newFighterRow(f)); err != nil {
		if isConstraintError(err) && f.IsStash {
			return gang.ErrStashFighterExists
		}
		return fmt.Errorf("insert fighter: %w", err)
	}
	return nil
}

func (s *Store) updateFighterTx(ctx context.Context, tx *sqlx.Tx, f fighter.Fighter) error {
	if _, err := tx.NamedExecContext(ctx, updateFighterSQL, newFighterRow(f)); err != nil {
		return fmt.Errorf("update fighter: %w", err)
	}
	return nil
}

func (s *Store) deleteFighterTx(ctx context.Context, tx *sqlx.Tx, fighterID string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM fighters WHERE id = ?`, fighterID); err != nil {
		return fmt.Errorf("delete fighter: %w", err)
	}
	return nil
}

// insertAssignmentTx writes the assignment row and its component rows.
func (s *Store) insertAssignmentTx(ctx context.Context, tx *sqlx.Tx, a equipment.Assignment) error {
	if _, err := tx.NamedExecContext(ctx, insertAssignmentSQL, newAssignmentRow(a)); err != nil {
		return fmt.Errorf("insert assignment: %w", err)
	}
	return s.replaceComponentsTx(ctx, tx, a)
}

func (s *Store) updateAssignmentTx(ctx context.Context, tx *sqlx.Tx, a equipment.Assignment) error {
	if _, err := tx.NamedExecContext(ctx, updateAssignmentSQL, newAssignmentRow(a)); err != nil {
		return fmt.Errorf("update assignment: %w", err)
	}
	return s.replaceComponentsTx(ctx, tx, a)
}

// replaceComponentsTx rewrites the component rows wholesale. Component sets
// are small; diffing them is not worth the bookkeeping.
func (s *Store) replaceComponentsTx(ctx context.Context, tx *sqlx.Tx, a equipment.Assignment) error {
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM assignment_components WHERE assignment_id = ?`, a.ID); err != nil {
		return fmt.Errorf("clear assignment components: %w", err)
	}
	for _, row := range componentRows(a) {
		if _, err := tx.NamedExecContext(ctx, insertComponentSQL, row); err != nil {
			return fmt.Errorf("insert assignment component: %w", err)
		}
	}
	return nil
}

func (s *Store) deleteAssignmentTx(ctx context.Context, tx *sqlx.Tx, assignmentID string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM assignments WHERE id = ?`, assignmentID); err != nil {
		return fmt.Errorf("delete assignment: %w", err)
	}
	return nil
}

func (s *Store) insertAdvancementTx(ctx context.Context, tx *sqlx.Tx, adv advancement.Advancement) error {
	if _, err := tx.NamedExecContext(ctx, insertAdvancementSQL, newAdvancementRow(adv)); err != nil {
		return fmt.Errorf("insert advancement: %w", err)
	}
	return nil
}

func (s *Store) updateAdvancementTx(ctx context.Context, tx *sqlx.Tx, adv advancement.Advancement) error {
	if _, err := tx.NamedExecContext(ctx, updateAdvancementSQL, newAdvancementRow(adv)); err != nil {
		return fmt.Errorf("update advancement: %w", err)
	}
	return nil
}

func (s *Store) insertCaptureTx(ctx context.Context, tx *sqlx.Tx, c fighter.Capture) error {
	if _, err := tx.NamedExecContext(ctx, insertCaptureSQL, newCaptureRow(c)); err != nil {
		if isConstraintError(err) {
			return fighter.ErrAlreadyCaptive
		}
		return fmt.Errorf("insert capture: %w", err)
	}
	return nil
}

func (s *Store) updateCaptureTx(ctx context.Context, tx *sqlx.Tx, c fighter.Capture) error {
	if _, err := tx.NamedExecContext(ctx, updateCaptureSQL, newCaptureRow(c)); err != nil {
		return fmt.Errorf("update capture: %w", err)
	}
	return nil
}
