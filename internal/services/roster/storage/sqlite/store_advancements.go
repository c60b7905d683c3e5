package sqlite

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/louisbranch/gangledger/internal/services/roster/domain/advancement"
	"github.com/louisbranch/gangledger/internal/services/roster/domain/fighter"
	"github.com/louisbranch/gangledger/internal/services/roster/domain/ledger"
	"github.com/louisbranch/gangledger/internal/services/roster/storage"
)

// ApplyAdvancement spends fighter XP on an advancement and raises the
// fighter's cost by the advancement's increase. XP overdraft aborts the
// whole operation.
func (s *Store) ApplyAdvancement(ctx context.Context, params storage.ApplyAdvancementParams) (*storage.OpResult, error) {
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
		f, ok := findFighter(agg, params.Input.FighterID)
		if !ok {
			return storage.ErrNotFound
		}
		if f.Archival == fighter.ArchivalArchived {
			return fighter.ErrArchived
		}

		adv, err := advancement.CreateAdvancement(params.Input, s.now, s.newID)
		if err != nil {
			return err
		}
		spent, err := fighter.SpendXp(f, adv.XpCost, s.now)
		if err != nil {
			return err
		}

		tracker := newTotalsTracker(&agg)
		replaceFighter(&agg, spent)
		replaceAdvancement(&agg, adv)
		ratingDelta, stashDelta := tracker.diff()

		if err := s.updateFighterTx(ctx, tx, spent); err != nil {
			return err
		}
		if err := s.insertAdvancementTx(ctx, tx, adv); err != nil {
			return err
		}

		writer := s.newEntryWriter(tx, agg.Gang)
		err = writer.append(ctx, ledger.AppendInput{
			Kind:        ledger.KindAdvancementApplied,
			Description: fmt.Sprintf("advanced %s: %s for %d xp", spent.Name, adv.Selection, adv.XpCost),
			FighterID:   spent.ID,
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
		narrative, err := s.insertNarrativeTx(ctx, tx, updated.ID, spent.ID, params.Meta, now)
		if err != nil {
			return err
		}
		result = &storage.OpResult{
			Gang:        updated,
			Fighter:     &spent,
			Advancement: &adv,
			Entries:     writer.entries,
			Narrative:   narrative,
			Deltas:      writer.deltas,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ReverseAdvancement archives an advancement and refunds its XP. The
// fighter's cost drops by the recomputed difference.
func (s *Store) ReverseAdvancement(ctx context.Context, params storage.ReverseAdvancementParams) (*storage.OpResult, error) {
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
		adv, ok := findAdvancement(agg, params.AdvancementID)
		if !ok {
			return storage.ErrNotFound
		}
		f, ok := findFighter(agg, adv.FighterID)
		if !ok {
			return storage.ErrNotFound
		}

		archived, err := advancement.Archive(adv, s.now)
		if err != nil {
			return err
		}
		refunded, err := fighter.GrantXp(f, adv.XpCost, s.now)
		if err != nil {
			return err
		}

		tracker := newTotalsTracker(&agg)
		replaceAdvancement(&agg, archived)
		replaceFighter(&agg, refunded)
		ratingDelta, stashDelta := tracker.diff()

		if err := s.updateAdvancementTx(ctx, tx, archived); err != nil {
			return err
		}
		if err := s.updateFighterTx(ctx, tx, refunded); err != nil {
			return err
		}

		writer := s.newEntryWriter(tx, agg.Gang)
		err = writer.append(ctx, ledger.AppendInput{
			Kind:        ledger.KindAdvancementReversed,
			Description: fmt.Sprintf("reversed advancement %s on %s, refunded %d xp", archived.Selection, refunded.Name, archived.XpCost),
			FighterID:   refunded.ID,
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
		narrative, err := s.insertNarrativeTx(ctx, tx, updated.ID, refunded.ID, params.Meta, now)
		if err != nil {
			return err
		}
		result = &storage.OpResult{
			Gang:        updated,
			Fighter:     &refunded,
			Advancement: &archived,
			Entries:     writer.entries,
			Narrative:   narrative,
			Deltas:      writer.deltas,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ListAdvancements returns a fighter's advancements, oldest first. Archived
// advancements are excluded unless requested.
func (s *Store) ListAdvancements(ctx context.Context, fighterID string, includeArchived bool) ([]advancement.Advancement, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	query := `SELECT * FROM advancements WHERE fighter_id = ? ORDER BY created_at, id`
	if !includeArchived {
		query = `SELECT * FROM advancements WHERE fighter_id = ? AND archival = 0 ORDER BY created_at, id`
	}
	var rows []advancementRow
	if err := s.db.SelectContext(ctx, &rows, query, fighterID); err != nil {
		return nil, fmt.Errorf("list advancements: %w", err)
	}
	advancements := make([]advancement.Advancement, 0, len(rows))
	for _, row := range rows {
		advancements = append(advancements, row.toDomain())
	}
	return advancements, nil
}
