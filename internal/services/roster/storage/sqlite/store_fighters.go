package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/louisbranch/gangledger/internal/services/roster/domain/cost"
	"github.com/louisbranch/gangledger/internal/services/roster/domain/equipment"
	"github.com/louisbranch/gangledger/internal/services/roster/domain/fighter"
	"github.com/louisbranch/gangledger/internal/services/roster/domain/gang"
	"github.com/louisbranch/gangledger/internal/services/roster/domain/ledger"
	"github.com/louisbranch/gangledger/internal/services/roster/storage"
)

// The stash fighter is a synthetic roster member holding unassigned
// equipment. It is created on first use and has no catalog template.
const (
	stashTemplateRef = "stash"
	stashFighterName = "Stash"
)

// HireFighter adds a fighter to the gang. In CampaignMode the hire price is
// checked against credits and deducted; in Building mode no credits move.
func (s *Store) HireFighter(ctx context.Context, params storage.HireFighterParams) (*storage.OpResult, error) {
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

		input := params.Input
		input.GangID = params.GangID
		if !input.IsStash {
			if _, err := agg.Catalog.TemplateByRef(input.TemplateRef); err != nil {
				return err
			}
		}
		if input.IsStash {
			if _, ok := stashFighter(agg); ok {
				return gang.ErrStashFighterExists
			}
		}

		f, err := fighter.CreateFighter(input, s.now, s.newID)
		if err != nil {
			return err
		}

		tracker := newTotalsTracker(&agg)
		replaceFighter(&agg, f)
		ratingDelta, stashDelta := tracker.diff()

		price := ratingDelta
		creditsDelta := 0
		if agg.Gang.Status == gang.StatusCampaignMode && price > 0 {
			if !agg.Gang.CanAfford(price) {
				return gang.ErrInsufficientCredits
			}
			creditsDelta = -price
		}

		if err := s.insertFighterTx(ctx, tx, f); err != nil {
			return err
		}

		description := fmt.Sprintf("hired %s (%s)", f.Name, f.TemplateRef)
		if creditsDelta != 0 {
			description = fmt.Sprintf("hired %s (%s) for %d credits", f.Name, f.TemplateRef, price)
		}

		writer := s.newEntryWriter(tx, agg.Gang)
		err = writer.append(ctx, ledger.AppendInput{
			Kind:        ledger.KindFighterHired,
			Description: description,
			FighterID:   f.ID,
			Deltas:      ledger.Deltas{Rating: ratingDelta, Stash: stashDelta, Credits: creditsDelta},
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
			Gang:      updated,
			Fighter:   &f,
			Entries:   writer.entries,
			Narrative: narrative,
			Deltas:    writer.deltas,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// GetFighter retrieves a fighter by ID.
func (s *Store) GetFighter(ctx context.Context, id string) (fighter.Fighter, error) {
	if err := s.ready(); err != nil {
		return fighter.Fighter{}, err
	}
	if err := ctx.Err(); err != nil {
		return fighter.Fighter{}, err
	}

	var row fighterRow
	err := s.db.GetContext(ctx, &row, `SELECT * FROM fighters WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fighter.Fighter{}, storage.ErrNotFound
		}
		return fighter.Fighter{}, fmt.Errorf("get fighter: %w", err)
	}
	return row.toDomain(), nil
}

// ListFighters returns a gang's fighters, oldest first. Archived fighters
// are excluded unless requested.
func (s *Store) ListFighters(ctx context.Context, req storage.ListFightersRequest) ([]fighter.Fighter, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	query := `SELECT * FROM fighters WHERE gang_id = ? ORDER BY created_at, id`
	if !req.IncludeArchived {
		query = `SELECT * FROM fighters WHERE gang_id = ? AND archival = 0 ORDER BY created_at, id`
	}
	var rows []fighterRow
	if err := s.db.SelectContext(ctx, &rows, query, req.GangID); err != nil {
		return nil, fmt.Errorf("list fighters: %w", err)
	}
	fighters := make([]fighter.Fighter, 0, len(rows))
	for _, row := range rows {
		fighters = append(fighters, row.toDomain())
	}
	return fighters, nil
}

// KillFighter transitions a fighter to dead and moves its live equipment to
// the gang's stash fighter, creating the stash fighter on first use.
func (s *Store) KillFighter(ctx context.Context, params storage.KillFighterParams) (*storage.OpResult, error) {
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

		killed, err := fighter.Kill(f, s.now)
		if err != nil {
			return err
		}

		stash, err := s.ensureStashFighterTx(ctx, tx, &agg)
		if err != nil {
			return err
		}

		tracker := newTotalsTracker(&agg)
		replaceFighter(&agg, killed)

		// Copy the slice up front; moving assignments splices the original.
		held := append([]equipment.Assignment(nil), agg.Assignments[killed.ID]...)
		moved := 0
		for _, a := range held {
			if a.Archival == equipment.ArchivalArchived {
				continue
			}
			reassigned, err := equipment.Reassign(a, stash.ID, s.now)
			if err != nil {
				return err
			}
			if err := s.updateAssignmentTx(ctx, tx, reassigned); err != nil {
				return err
			}
			moveAssignment(&agg, killed.ID, reassigned)
			moved++
		}
		ratingDelta, stashDelta := tracker.diff()

		if err := s.updateFighterTx(ctx, tx, killed); err != nil {
			return err
		}

		description := fmt.Sprintf("killed %s", killed.Name)
		if moved > 0 {
			description = fmt.Sprintf("killed %s, moved equipment to the stash", killed.Name)
		}

		writer := s.newEntryWriter(tx, agg.Gang)
		err = writer.append(ctx, ledger.AppendInput{
			Kind:        ledger.KindFighterKilled,
			Description: description,
			FighterID:   killed.ID,
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
		narrative, err := s.insertNarrativeTx(ctx, tx, updated.ID, killed.ID, params.Meta, now)
		if err != nil {
			return err
		}
		result = &storage.OpResult{
			Gang:      updated,
			Fighter:   &killed,
			Entries:   writer.entries,
			Narrative: narrative,
			Deltas:    writer.deltas,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ResurrectFighter revives a dead fighter at its freshly recomputed cost.
// Equipment moved to the stash at death stays there.
func (s *Store) ResurrectFighter(ctx context.Context, params storage.ResurrectFighterParams) (*storage.OpResult, error) {
	return s.fighterLifecycleOp(ctx, params.GangID, params.FighterID, params.Meta,
		ledger.KindFighterResurrected,
		func(f fighter.Fighter) (fighter.Fighter, string, error) {
			updated, err := fighter.Resurrect(f, s.now)
			return updated, fmt.Sprintf("resurrected %s", f.Name), err
		})
}

// ArchiveFighter soft-deletes a fighter, removing it and its equipment from
// the totals.
func (s *Store) ArchiveFighter(ctx context.Context, params storage.ArchiveFighterParams) (*storage.OpResult, error) {
	return s.fighterLifecycleOp(ctx, params.GangID, params.FighterID, params.Meta,
		ledger.KindFighterArchived,
		func(f fighter.Fighter) (fighter.Fighter, string, error) {
			updated, err := fighter.Archive(f, s.now)
			return updated, fmt.Sprintf("archived %s", f.Name), err
		})
}

// RestoreFighter reverses an archive at the freshly recomputed cost.
func (s *Store) RestoreFighter(ctx context.Context, params storage.RestoreFighterParams) (*storage.OpResult, error) {
	return s.fighterLifecycleOp(ctx, params.GangID, params.FighterID, params.Meta,
		ledger.KindFighterRestored,
		func(f fighter.Fighter) (fighter.Fighter, string, error) {
			updated, err := fighter.Restore(f, s.now)
			return updated, fmt.Sprintf("restored %s", f.Name), err
		})
}

// fighterLifecycleOp runs a single-fighter status mutation: apply the domain
// transition, persist the row, and ledger the recomputed totals movement.
func (s *Store) fighterLifecycleOp(ctx context.Context, gangID, fighterID string, meta storage.OpMeta, kind ledger.Kind, transition func(fighter.Fighter) (fighter.Fighter, string, error)) (*storage.OpResult, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	now := s.now()
	var result *storage.OpResult
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		agg, err := s.loadAggregateTx(ctx, tx, gangID)
		if err != nil {
			return err
		}
		f, ok := findFighter(agg, fighterID)
		if !ok {
			return storage.ErrNotFound
		}

		updated, description, err := transition(f)
		if err != nil {
			return err
		}

		tracker := newTotalsTracker(&agg)
		replaceFighter(&agg, updated)
		ratingDelta, stashDelta := tracker.diff()

		if err := s.updateFighterTx(ctx, tx, updated); err != nil {
			return err
		}

		writer := s.newEntryWriter(tx, agg.Gang)
		err = writer.append(ctx, ledger.AppendInput{
			Kind:        kind,
			Description: description,
			FighterID:   updated.ID,
			Deltas:      ledger.Deltas{Rating: ratingDelta, Stash: stashDelta},
			Actor:       meta.Actor,
		})
		if err != nil {
			return err
		}
		g, err := writer.finish(ctx, now)
		if err != nil {
			return err
		}
		narrative, err := s.insertNarrativeTx(ctx, tx, g.ID, updated.ID, meta, now)
		if err != nil {
			return err
		}
		result = &storage.OpResult{
			Gang:      g,
			Fighter:   &updated,
			Entries:   writer.entries,
			Narrative: narrative,
			Deltas:    writer.deltas,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// DeleteFighter hard-deletes a fighter. Assignments, advancements, and
// captures cascade; ledger entries survive as plain references.
func (s *Store) DeleteFighter(ctx context.Context, params storage.DeleteFighterParams) (*storage.OpResult, error) {
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
		if f.IsStash {
			return fighter.ErrStashFighter
		}

		tracker := newTotalsTracker(&agg)
		removeFighter(&agg, f.ID)
		ratingDelta, stashDelta := tracker.diff()

		if err := s.deleteFighterTx(ctx, tx, f.ID); err != nil {
			return err
		}

		writer := s.newEntryWriter(tx, agg.Gang)
		err = writer.append(ctx, ledger.AppendInput{
			Kind:        ledger.KindFighterDeleted,
			Description: fmt.Sprintf("deleted %s", f.Name),
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
			Gang:      updated,
			Fighter:   &f,
			Entries:   writer.entries,
			Narrative: narrative,
			Deltas:    writer.deltas,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// SetFighterCostOverride pins or clears a manual fighter cost. Setting the
// current value is a no-op: nil result, nothing written.
func (s *Store) SetFighterCostOverride(ctx context.Context, params storage.SetFighterCostOverrideParams) (*storage.OpResult, error) {
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

		updated, changed, err := fighter.SetCostOverride(f, params.Value, s.now)
		if err != nil {
			return err
		}
		if !changed {
			return nil
		}

		tracker := newTotalsTracker(&agg)
		replaceFighter(&agg, updated)
		ratingDelta, stashDelta := tracker.diff()

		if err := s.updateFighterTx(ctx, tx, updated); err != nil {
			return err
		}

		description := fmt.Sprintf("cleared cost override on %s", updated.Name)
		if params.Value != nil {
			description = fmt.Sprintf("set cost override on %s to %d", updated.Name, *params.Value)
		}

		writer := s.newEntryWriter(tx, agg.Gang)
		err = writer.append(ctx, ledger.AppendInput{
			Kind:        ledger.KindCostOverrideSet,
			Description: description,
			FighterID:   updated.ID,
			Deltas:      ledger.Deltas{Rating: ratingDelta, Stash: stashDelta},
			Actor:       params.Meta.Actor,
		})
		if err != nil {
			return err
		}
		g, err := writer.finish(ctx, now)
		if err != nil {
			return err
		}
		narrative, err := s.insertNarrativeTx(ctx, tx, g.ID, updated.ID, params.Meta, now)
		if err != nil {
			return err
		}
		result = &storage.OpResult{
			Gang:      g,
			Fighter:   &updated,
			Entries:   writer.entries,
			Narrative: narrative,
			Deltas:    writer.deltas,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// GrantXp adds experience to a fighter. XP is not a credit total, so no
// ledger entry is appended.
func (s *Store) GrantXp(ctx context.Context, params storage.GrantXpParams) (*storage.OpResult, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(params.Meta.Actor) == "" {
		return nil, ledger.ErrEmptyActor
	}

	now := s.now()
	var result *storage.OpResult
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		g, err := s.getGangTx(ctx, tx, params.GangID)
		if err != nil {
			return err
		}
		f, err := s.getFighterScopedTx(ctx, tx, params.GangID, params.FighterID)
		if err != nil {
			return err
		}

		updated, err := fighter.GrantXp(f, params.Amount, s.now)
		if err != nil {
			return err
		}
		if err := s.updateFighterTx(ctx, tx, updated); err != nil {
			return err
		}
		narrative, err := s.insertNarrativeTx(ctx, tx, g.ID, updated.ID, params.Meta, now)
		if err != nil {
			return err
		}
		result = &storage.OpResult{Gang: g, Fighter: &updated, Narrative: narrative}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// getFighterScopedTx fetches a fighter within its gang; a fighter belonging
// to another gang reads as not found.
func (s *Store) getFighterScopedTx(ctx context.Context, tx *sqlx.Tx, gangID, fighterID string) (fighter.Fighter, error) {
	var row fighterRow
	err := tx.GetContext(ctx, &row,
		`SELECT * FROM fighters WHERE id = ? AND gang_id = ?`, fighterID, gangID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fighter.Fighter{}, storage.ErrNotFound
		}
		return fighter.Fighter{}, fmt.Errorf("get fighter: %w", err)
	}
	return row.toDomain(), nil
}

// ensureStashFighterTx returns the gang's stash fighter, creating it on
// first use.
func (s *Store) ensureStashFighterTx(ctx context.Context, tx *sqlx.Tx, agg *cost.Aggregate) (fighter.Fighter, error) {
	if sf, ok := stashFighter(*agg); ok {
		return sf, nil
	}
	sf, err := fighter.CreateFighter(fighter.CreateFighterInput{
		GangID:      agg.Gang.ID,
		TemplateRef: stashTemplateRef,
		Name:        stashFighterName,
		IsStash:     true,
	}, s.now, s.newID)
	if err != nil {
		return fighter.Fighter{}, err
	}
	if err := s.insertFighterTx(ctx, tx, sf); err != nil {
		return fighter.Fighter{}, err
	}
	replaceFighter(agg, sf)
	return sf, nil
}
