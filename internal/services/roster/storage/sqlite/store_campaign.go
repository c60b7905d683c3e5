package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	apperrors "github.com/louisbranch/gangledger/internal/platform/errors"
	"github.com/louisbranch/gangledger/internal/services/roster/domain/advancement"
	"github.com/louisbranch/gangledger/internal/services/roster/domain/cost"
	"github.com/louisbranch/gangledger/internal/services/roster/domain/equipment"
	"github.com/louisbranch/gangledger/internal/services/roster/domain/fighter"
	"github.com/louisbranch/gangledger/internal/services/roster/domain/gang"
	"github.com/louisbranch/gangledger/internal/services/roster/domain/ledger"
	"github.com/louisbranch/gangledger/internal/services/roster/snapshot"
	"github.com/louisbranch/gangledger/internal/services/roster/storage"
)

const insertSnapshotSQL = `
INSERT INTO gang_snapshots (id, gang_id, taken_at, payload)
VALUES (:id, :gang_id, :taken_at, :payload)`

// StartCampaign clones every Building gang attached to the campaign into a
// CampaignMode copy. Each clone gets fresh IDs for its whole roster graph, a
// ledger seeded with a genesis entry carrying the copied totals, a budget
// top-up of max(budget - roster value, 0) credits, and a compressed roster
// snapshot. Originals stay in Building mode; a campaign with existing clones
// cannot start again.
func (s *Store) StartCampaign(ctx context.Context, params storage.StartCampaignParams) (*storage.CampaignStartResult, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	campaignID := strings.TrimSpace(params.CampaignID)
	if campaignID == "" {
		return nil, apperrors.New(apperrors.CodeCampaignEmptyID, "campaign id is required")
	}

	var result *storage.CampaignStartResult
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		var rows []gangRow
		err := tx.SelectContext(ctx, &rows,
			`SELECT * FROM gangs WHERE campaign_id = ? ORDER BY created_at, id`, campaignID)
		if err != nil {
			return fmt.Errorf("list campaign gangs: %w", err)
		}

		var originals []gang.Gang
		for _, row := range rows {
			g := row.toDomain()
			if g.IsClone() {
				return apperrors.WithMetadata(
					apperrors.CodeGangAlreadyInCampaign,
					fmt.Sprintf("campaign %s already started", campaignID),
					map[string]string{"CampaignID": campaignID, "GangID": g.ID},
				)
			}
			originals = append(originals, g)
		}
		if len(originals) == 0 {
			return apperrors.WithMetadata(
				apperrors.CodeCampaignNoGangs,
				fmt.Sprintf("campaign %s has no gangs", campaignID),
				map[string]string{"CampaignID": campaignID},
			)
		}

		clones := make([]storage.GangCloneResult, 0, len(originals))
		for _, original := range originals {
			cloneResult, err := s.cloneGangTx(ctx, tx, original, params)
			if err != nil {
				return err
			}
			clones = append(clones, cloneResult)
		}

		result = &storage.CampaignStartResult{
			CampaignID: campaignID,
			Budget:     params.Budget,
			Clones:     clones,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// cloneGangTx copies one Building gang into a CampaignMode clone inside the
// campaign-start transaction. The roster graph is rewritten with fresh IDs,
// keeping the fighter/assignment cross links intact. The clone's totals are
// rebuilt through its ledger: rating and stash come from a recomputation of
// the cloned graph rather than the source's running totals, so any drift on
// the original does not carry into the campaign.
func (s *Store) cloneGangTx(ctx context.Context, tx *sqlx.Tx, original gang.Gang, params storage.StartCampaignParams) (storage.GangCloneResult, error) {
	clone, err := gang.Clone(original, s.now, s.newID)
	if err != nil {
		return storage.GangCloneResult{}, err
	}

	agg, err := s.loadAggregateTx(ctx, tx, original.ID)
	if err != nil {
		return storage.GangCloneResult{}, err
	}

	fighterIDs := make(map[string]string, len(agg.Fighters))
	assignmentIDs := make(map[string]string)
	for _, f := range agg.Fighters {
		newID, err := s.newID()
		if err != nil {
			return storage.GangCloneResult{}, fmt.Errorf("generate fighter id: %w", err)
		}
		fighterIDs[f.ID] = newID
		for _, a := range agg.Assignments[f.ID] {
			newAssignmentID, err := s.newID()
			if err != nil {
				return storage.GangCloneResult{}, fmt.Errorf("generate assignment id: %w", err)
			}
			assignmentIDs[a.ID] = newAssignmentID
		}
	}

	// The gang row goes first so the roster rows have their foreign key.
	// Totals start at zero; the genesis and top-up entries rebuild them.
	seeded := clone
	seeded.Totals = gang.Totals{}
	if _, err := tx.NamedExecContext(ctx, insertGangSQL, newGangRow(seeded)); err != nil {
		return storage.GangCloneResult{}, fmt.Errorf("insert gang clone: %w", err)
	}

	cloneFighters := make([]fighter.Fighter, 0, len(agg.Fighters))
	cloneAssignments := make(map[string][]equipment.Assignment)
	cloneAdvancements := make(map[string][]advancement.Advancement)
	for _, f := range agg.Fighters {
		cf := f
		cf.ID = fighterIDs[f.ID]
		cf.GangID = seeded.ID
		if f.SpawnedByAssignmentID != "" {
			cf.SpawnedByAssignmentID = assignmentIDs[f.SpawnedByAssignmentID]
		}
		cf.CreatedAt = s.now()
		cf.UpdatedAt = cf.CreatedAt
		if err := s.insertFighterTx(ctx, tx, cf); err != nil {
			return storage.GangCloneResult{}, err
		}
		cloneFighters = append(cloneFighters, cf)

		for _, a := range agg.Assignments[f.ID] {
			ca := a
			ca.ID = assignmentIDs[a.ID]
			ca.FighterID = cf.ID
			if a.SpawnedFighterID != "" {
				ca.SpawnedFighterID = fighterIDs[a.SpawnedFighterID]
			}
			ca.CreatedAt = cf.CreatedAt
			ca.UpdatedAt = cf.CreatedAt
			if err := s.insertAssignmentTx(ctx, tx, ca); err != nil {
				return storage.GangCloneResult{}, err
			}
			cloneAssignments[cf.ID] = append(cloneAssignments[cf.ID], ca)
		}

		for _, adv := range agg.Advancements[f.ID] {
			cadv := adv
			newAdvancementID, err := s.newID()
			if err != nil {
				return storage.GangCloneResult{}, fmt.Errorf("generate advancement id: %w", err)
			}
			cadv.ID = newAdvancementID
			cadv.FighterID = cf.ID
			cadv.CreatedAt = cf.CreatedAt
			cadv.UpdatedAt = cf.CreatedAt
			if err := s.insertAdvancementTx(ctx, tx, cadv); err != nil {
				return storage.GangCloneResult{}, err
			}
			cloneAdvancements[cf.ID] = append(cloneAdvancements[cf.ID], cadv)
		}
	}

	// Price the clone's own graph. Open captures are not carried into the
	// campaign, so a captive on the original counts at full cost here.
	recomputed := cost.GangTotals(cost.Aggregate{
		Gang:         seeded,
		Fighters:     cloneFighters,
		Assignments:  cloneAssignments,
		Advancements: cloneAdvancements,
		Catalog:      agg.Catalog,
	})
	rosterValue := recomputed.Rating + recomputed.Stash
	topUp := params.Budget - rosterValue
	if topUp < 0 {
		topUp = 0
	}

	writer := s.newEntryWriter(tx, seeded)
	err = writer.append(ctx, ledger.AppendInput{
		Kind:        ledger.KindCampaignGenesis,
		Description: fmt.Sprintf("campaign genesis, cloned from %s", original.Name),
		Deltas: ledger.Deltas{
			Rating:  recomputed.Rating,
			Stash:   recomputed.Stash,
			Credits: original.Totals.Credits,
		},
		EarnMode: ledger.EarnModeNone,
		Actor:    params.Meta.Actor,
	})
	if err != nil {
		return storage.GangCloneResult{}, err
	}
	err = writer.append(ctx, ledger.AppendInput{
		Kind:        ledger.KindCampaignBudgetTopUp,
		Description: fmt.Sprintf("campaign budget top-up of %d credits", topUp),
		Deltas:      ledger.Deltas{Credits: topUp},
		EarnMode:    ledger.EarnModeDefault,
		Actor:       params.Meta.Actor,
	})
	if err != nil {
		return storage.GangCloneResult{}, err
	}
	updated, err := writer.finish(ctx, s.now())
	if err != nil {
		return storage.GangCloneResult{}, err
	}

	if err := s.insertSnapshotTx(ctx, tx, updated, cloneFighters, cloneAssignments, cloneAdvancements); err != nil {
		return storage.GangCloneResult{}, err
	}

	return storage.GangCloneResult{
		Original: original,
		Clone:    updated,
		Entries:  writer.entries,
	}, nil
}

// insertSnapshotTx compresses the clone's roster graph and stores it.
func (s *Store) insertSnapshotTx(ctx context.Context, tx *sqlx.Tx, g gang.Gang, fighters []fighter.Fighter, assignments map[string][]equipment.Assignment, advancements map[string][]advancement.Advancement) error {
	takenAt := s.now()
	payload, err := snapshot.Encode(snapshot.Capture(g, fighters, assignments, advancements, takenAt))
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	snapshotID, err := s.newID()
	if err != nil {
		return fmt.Errorf("generate snapshot id: %w", err)
	}
	row := snapshotRow{
		ID:      snapshotID,
		GangID:  g.ID,
		TakenAt: toMillis(takenAt),
		Payload: payload,
	}
	if _, err := tx.NamedExecContext(ctx, insertSnapshotSQL, row); err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	return nil
}
