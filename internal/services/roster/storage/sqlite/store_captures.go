package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/louisbranch/gangledger/internal/services/roster/domain/equipment"
	"github.com/louisbranch/gangledger/internal/services/roster/domain/fighter"
	"github.com/louisbranch/gangledger/internal/services/roster/domain/gang"
	"github.com/louisbranch/gangledger/internal/services/roster/domain/ledger"
	"github.com/louisbranch/gangledger/internal/services/roster/storage"
)

// CaptureFighter opens a capture record binding a fighter to a rival gang.
// The fighter stays on its roster at cost 0. Any other fighter's assignment
// that spawned this fighter as its child is orphaned and removed with its
// own ledger entry.
func (s *Store) CaptureFighter(ctx context.Context, params storage.CaptureFighterParams) (*storage.OpResult, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	now := s.now()
	var result *storage.OpResult
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		agg, err := s.loadAggregateTx(ctx, tx, params.GangID)
		if err != nil {
			return err
		}
		f, ok := findFighter(agg, params.FighterID)
		if !ok {
			return storage.ErrNotFound
		}
		if _, open := openCapture(agg, f.ID); open {
			return fighter.ErrAlreadyCaptive
		}
		captor, err := s.getGangTx(ctx, tx, params.CapturingGangID)
		if err != nil {
			return err
		}

		c, err := fighter.NewCapture(f, captor.ID, s.now, s.newID)
		if err != nil {
			return err
		}

		tracker := newTotalsTracker(&agg)
		appendCapture(&agg, c)
		ratingDelta, stashDelta := tracker.diff()

		if err := s.insertCaptureTx(ctx, tx, c); err != nil {
			return err
		}

		writer := s.newEntryWriter(tx, agg.Gang)
		err = writer.append(ctx, ledger.AppendInput{
			Kind:        ledger.KindFighterCaptured,
			Description: fmt.Sprintf("%s captured by %s", f.Name, captor.Name),
			FighterID:   f.ID,
			Deltas:      ledger.Deltas{Rating: ratingDelta, Stash: stashDelta},
			Actor:       params.Meta.Actor,
		})
		if err != nil {
			return err
		}

		// Orphan rule: assignments elsewhere in the gang that spawned this
		// fighter as their child lose their reason to exist.
		for _, other := range agg.Fighters {
			if other.ID == f.ID {
				continue
			}
			held := append([]equipment.Assignment(nil), agg.Assignments[other.ID]...)
			for _, a := range held {
				if a.SpawnedFighterID != f.ID || a.Archival == equipment.ArchivalArchived {
					continue
				}
				orphaned, err := equipment.Archive(a, s.now)
				if err != nil {
					return err
				}
				replaceAssignment(&agg, orphaned)
				orphanRating, orphanStash := tracker.diff()
				if err := s.updateAssignmentTx(ctx, tx, orphaned); err != nil {
					return err
				}
				err = writer.append(ctx, ledger.AppendInput{
					Kind:         ledger.KindEquipmentRemoved,
					Description:  fmt.Sprintf("removed %s, its crew member %s was captured", a.EquipmentRef, f.Name),
					FighterID:    other.ID,
					AssignmentID: a.ID,
					Deltas:       ledger.Deltas{Rating: orphanRating, Stash: orphanStash},
					Actor:        params.Meta.Actor,
				})
				if err != nil {
					return err
				}
			}
		}

		updated, err := writer.finish(ctx, now)
		if err != nil {
			return err
		}
		narrative, err := s.insertNarrativeTx(ctx, tx, updated.ID, f.ID, params.Meta, now)
		if err != nil {
			return err
		}
		result = &storage.OpResult{
			Gang:            updated,
			CounterpartGang: &captor,
			Fighter:         &f,
			Capture:         &c,
			Entries:         writer.entries,
			Narrative:       narrative,
			Deltas:          writer.deltas,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// SellCapturedFighter resolves an open capture as sold to a third party.
// The captor pockets the sale amount; the original gang records the
// terminal outcome with no totals movement, since the fighter's cost was
// already zeroed at capture.
func (s *Store) SellCapturedFighter(ctx context.Context, params storage.SellCapturedFighterParams) (*storage.OpResult, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if params.Amount < 0 {
		return nil, fighter.ErrNegativeAmount
	}

	now := s.now()
	var result *storage.OpResult
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		agg, err := s.loadAggregateTx(ctx, tx, params.GangID)
		if err != nil {
			return err
		}
		f, ok := findFighter(agg, params.FighterID)
		if !ok {
			return storage.ErrNotFound
		}
		c, open := openCapture(agg, f.ID)
		if !open {
			return fighter.ErrNotCaptive
		}

		resolved, err := fighter.ResolveCapture(c, fighter.OutcomeSoldToThirdParty, 0, s.now)
		if err != nil {
			return err
		}

		tracker := newTotalsTracker(&agg)
		replaceCapture(&agg, resolved)
		ratingDelta, stashDelta := tracker.diff()

		if err := s.updateCaptureTx(ctx, tx, resolved); err != nil {
			return err
		}

		captor, err := s.getGangTx(ctx, tx, c.CapturingGangID)
		if err != nil {
			return err
		}

		ownerWriter := s.newEntryWriter(tx, agg.Gang)
		err = ownerWriter.append(ctx, ledger.AppendInput{
			Kind:        ledger.KindCaptiveSold,
			Description: fmt.Sprintf("%s sold to a third party by %s", f.Name, captor.Name),
			FighterID:   f.ID,
			Deltas:      ledger.Deltas{Rating: ratingDelta, Stash: stashDelta},
			Actor:       params.Meta.Actor,
		})
		if err != nil {
			return err
		}

		captorWriter := s.newEntryWriter(tx, captor)
		err = captorWriter.append(ctx, ledger.AppendInput{
			Kind:        ledger.KindCaptiveSold,
			Description: fmt.Sprintf("sold captive %s for %d credits", f.Name, params.Amount),
			FighterID:   f.ID,
			Deltas:      ledger.Deltas{Credits: params.Amount},
			Actor:       params.Meta.Actor,
		})
		if err != nil {
			return err
		}

		owner, err := ownerWriter.finish(ctx, now)
		if err != nil {
			return err
		}
		captorUpdated, err := captorWriter.finish(ctx, now)
		if err != nil {
			return err
		}
		narrative, err := s.insertNarrativeTx(ctx, tx, owner.ID, f.ID, params.Meta, now)
		if err != nil {
			return err
		}
		entries := append(ownerWriter.entries, captorWriter.entries...)
		result = &storage.OpResult{
			Gang:            owner,
			CounterpartGang: &captorUpdated,
			Fighter:         &f,
			Capture:         &resolved,
			Entries:         entries,
			Narrative:       narrative,
			Deltas:          ownerWriter.deltas,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ReturnCapturedFighter resolves an open capture as returned, optionally
// against a ransom. The ransom moves from the original gang to the captor
// inside the same transaction; an unaffordable ransom aborts both sides.
func (s *Store) ReturnCapturedFighter(ctx context.Context, params storage.ReturnCapturedFighterParams) (*storage.OpResult, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	now := s.now()
	var result *storage.OpResult
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		agg, err := s.loadAggregateTx(ctx, tx, params.GangID)
		if err != nil {
			return err
		}
		f, ok := findFighter(agg, params.FighterID)
		if !ok {
			return storage.ErrNotFound
		}
		c, open := openCapture(agg, f.ID)
		if !open {
			return fighter.ErrNotCaptive
		}

		resolved, err := fighter.ResolveCapture(c, fighter.OutcomeReturned, params.Ransom, s.now)
		if err != nil {
			return err
		}
		if params.Ransom > 0 && !agg.Gang.CanAfford(params.Ransom) {
			return gang.ErrInsufficientCredits
		}

		tracker := newTotalsTracker(&agg)
		replaceCapture(&agg, resolved)
		ratingDelta, stashDelta := tracker.diff()

		if err := s.updateCaptureTx(ctx, tx, resolved); err != nil {
			return err
		}

		captor, err := s.getGangTx(ctx, tx, c.CapturingGangID)
		if err != nil {
			return err
		}

		description := fmt.Sprintf("%s returned by %s", f.Name, captor.Name)
		if params.Ransom > 0 {
			description = fmt.Sprintf("%s returned by %s for a %d credit ransom", f.Name, captor.Name, params.Ransom)
		}

		ownerWriter := s.newEntryWriter(tx, agg.Gang)
		err = ownerWriter.append(ctx, ledger.AppendInput{
			Kind:        ledger.KindCaptiveReturned,
			Description: description,
			FighterID:   f.ID,
			Deltas:      ledger.Deltas{Rating: ratingDelta, Stash: stashDelta, Credits: -params.Ransom},
			Actor:       params.Meta.Actor,
		})
		if err != nil {
			return err
		}

		captorWriter := s.newEntryWriter(tx, captor)
		if params.Ransom > 0 {
			err = captorWriter.append(ctx, ledger.AppendInput{
				Kind:        ledger.KindCaptiveReturned,
				Description: fmt.Sprintf("collected %d credit ransom for %s", params.Ransom, f.Name),
				FighterID:   f.ID,
				Deltas:      ledger.Deltas{Credits: params.Ransom},
				Actor:       params.Meta.Actor,
			})
			if err != nil {
				return err
			}
		}

		owner, err := ownerWriter.finish(ctx, now)
		if err != nil {
			return err
		}
		captorUpdated := captor
		if params.Ransom > 0 {
			captorUpdated, err = captorWriter.finish(ctx, now)
			if err != nil {
				return err
			}
		}
		narrative, err := s.insertNarrativeTx(ctx, tx, owner.ID, f.ID, params.Meta, now)
		if err != nil {
			return err
		}
		entries := append(ownerWriter.entries, captorWriter.entries...)
		result = &storage.OpResult{
			Gang:            owner,
			CounterpartGang: &captorUpdated,
			Fighter:         &f,
			Capture:         &resolved,
			Entries:         entries,
			Narrative:       narrative,
			Deltas:          ownerWriter.deltas,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ReleaseCapturedFighter resolves an open capture as released, with no
// payment. The fighter's freshly recomputed cost returns to the rating.
func (s *Store) ReleaseCapturedFighter(ctx context.Context, params storage.ReleaseCapturedFighterParams) (*storage.OpResult, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	now := s.now()
	var result *storage.OpResult
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		agg, err := s.loadAggregateTx(ctx, tx, params.GangID)
		if err != nil {
			return err
		}
		f, ok := findFighter(agg, params.FighterID)
		if !ok {
			return storage.ErrNotFound
		}
		c, open := openCapture(agg, f.ID)
		if !open {
			return fighter.ErrNotCaptive
		}

		resolved, err := fighter.ResolveCapture(c, fighter.OutcomeReleased, 0, s.now)
		if err != nil {
			return err
		}

		tracker := newTotalsTracker(&agg)
		replaceCapture(&agg, resolved)
		ratingDelta, stashDelta := tracker.diff()

		if err := s.updateCaptureTx(ctx, tx, resolved); err != nil {
			return err
		}

		captor, err := s.getGangTx(ctx, tx, c.CapturingGangID)
		if err != nil {
			return err
		}

		writer := s.newEntryWriter(tx, agg.Gang)
		err = writer.append(ctx, ledger.AppendInput{
			Kind:        ledger.KindCaptiveReleased,
			Description: fmt.Sprintf("%s released by %s", f.Name, captor.Name),
			FighterID:   f.ID,
			Deltas:      ledger.Deltas{Rating: ratingDelta, Stash: stashDelta},
			Actor:       params.Meta.Actor,
		})
		if err != nil {
			return err
		}
		updated, err := writer.finish(ctx, now)
		if err != nil {
			return err
		}
		narrative, err := s.insertNarrativeTx(ctx, tx, updated.ID, f.ID, params.Meta, now)
		if err != nil {
			return err
		}
		result = &storage.OpResult{
			Gang:            updated,
			CounterpartGang: &captor,
			Fighter:         &f,
			Capture:         &resolved,
			Entries:         writer.entries,
			Narrative:       narrative,
			Deltas:          writer.deltas,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// GetOpenCapture returns the unresolved capture for a fighter.
func (s *Store) GetOpenCapture(ctx context.Context, fighterID string) (fighter.Capture, error) {
	if err := s.ready(); err != nil {
		return fighter.Capture{}, err
	}
	if err := ctx.Err(); err != nil {
		return fighter.Capture{}, err
	}

	var row captureRow
	err := s.db.GetContext(ctx, &row,
		`SELECT * FROM captures WHERE fighter_id = ? AND resolved_at IS NULL`, fighterID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fighter.Capture{}, storage.ErrNotFound
		}
		return fighter.Capture{}, fmt.Errorf("get open capture: %w", err)
	}
	return row.toDomain(), nil
}

// ListCaptures returns a fighter's capture history, newest first.
func (s *Store) ListCaptures(ctx context.Context, fighterID string) ([]fighter.Capture, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var rows []captureRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT * FROM captures WHERE fighter_id = ? ORDER BY captured_at DESC, id DESC`, fighterID)
	if err != nil {
		return nil, fmt.Errorf("list captures: %w", err)
	}
	captures := make([]fighter.Capture, 0, len(rows))
	for _, row := range rows {
		captures = append(captures, row.toDomain())
	}
	return captures, nil
}
