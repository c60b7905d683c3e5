package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	apperrors "github.com/louisbranch/gangledger/internal/platform/errors"
	"github.com/louisbranch/gangledger/internal/services/roster/domain/cost"
	"github.com/louisbranch/gangledger/internal/services/roster/domain/equipment"
	"github.com/louisbranch/gangledger/internal/services/roster/domain/fighter"
	"github.com/louisbranch/gangledger/internal/services/roster/domain/gang"
	"github.com/louisbranch/gangledger/internal/services/roster/domain/ledger"
	"github.com/louisbranch/gangledger/internal/services/roster/storage"
)

// PurchaseEquipment assigns catalog equipment to a fighter, optionally
// spawning a linked child fighter. In CampaignMode the assignment cost is
// checked against credits and deducted.
func (s *Store) PurchaseEquipment(ctx context.Context, params storage.PurchaseEquipmentParams) (*storage.OpResult, error) {
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
		holder, ok := findFighter(agg, input.FighterID)
		if !ok {
			return storage.ErrNotFound
		}
		if holder.Archival == fighter.ArchivalArchived {
			return fighter.ErrArchived
		}

		entry, err := agg.Catalog.EquipmentByRef(input.EquipmentRef)
		if err != nil {
			return err
		}
		if err := validateSelections(entry, input); err != nil {
			return err
		}

		a, err := equipment.CreateAssignment(input, s.now, s.newID)
		if err != nil {
			return err
		}

		var child *fighter.Fighter
		if params.SpawnChild != nil {
			if _, err := agg.Catalog.TemplateByRef(params.SpawnChild.TemplateRef); err != nil {
				return err
			}
			c, err := fighter.CreateFighter(fighter.CreateFighterInput{
				GangID:                agg.Gang.ID,
				TemplateRef:           params.SpawnChild.TemplateRef,
				Name:                  params.SpawnChild.Name,
				IsChild:               true,
				SpawnedByAssignmentID: a.ID,
			}, s.now, s.newID)
			if err != nil {
				return err
			}
			child = &c
			a.SpawnedFighterID = c.ID
		}

		price := cost.AssignmentCost(a, agg.Catalog, agg.Gang.House, holder.TemplateRef)
		creditsDelta := 0
		if agg.Gang.Status == gang.StatusCampaignMode && price > 0 {
			if !agg.Gang.CanAfford(price) {
				return gang.ErrInsufficientCredits
			}
			creditsDelta = -price
		}

		if err := s.insertAssignmentTx(ctx, tx, a); err != nil {
			return err
		}
		if child != nil {
			if err := s.insertFighterTx(ctx, tx, *child); err != nil {
				return err
			}
		}

		tracker := newTotalsTracker(&agg)
		replaceAssignment(&agg, a)
		ratingDelta, stashDelta := tracker.diff()

		description := fmt.Sprintf("purchased %s for %s", a.EquipmentRef, holder.Name)
		if creditsDelta != 0 {
			description = fmt.Sprintf("purchased %s for %s at %d credits", a.EquipmentRef, holder.Name, price)
		}

		writer := s.newEntryWriter(tx, agg.Gang)
		err = writer.append(ctx, ledger.AppendInput{
			Kind:         ledger.KindEquipmentPurchased,
			Description:  description,
			FighterID:    holder.ID,
			AssignmentID: a.ID,
			Deltas:       ledger.Deltas{Rating: ratingDelta, Stash: stashDelta, Credits: creditsDelta},
			Actor:        params.Meta.Actor,
		})
		if err != nil {
			return err
		}

		if child != nil {
			replaceFighter(&agg, *child)
			childRating, childStash := tracker.diff()
			err = writer.append(ctx, ledger.AppendInput{
				Kind:        ledger.KindFighterHired,
				Description: fmt.Sprintf("spawned %s (%s) from %s", child.Name, child.TemplateRef, a.EquipmentRef),
				FighterID:   child.ID,
				Deltas:      ledger.Deltas{Rating: childRating, Stash: childStash},
				Actor:       params.Meta.Actor,
			})
			if err != nil {
				return err
			}
		}

		updated, err := writer.finish(ctx, now)
		if err != nil {
			return err
		}
		narrative, err := s.insertNarrativeTx(ctx, tx, updated.ID, holder.ID, params.Meta, now)
		if err != nil {
			return err
		}
		result = &storage.OpResult{
			Gang:       updated,
			Fighter:    child,
			Assignment: &a,
			Entries:    writer.entries,
			Narrative:  narrative,
			Deltas:     writer.deltas,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// GetAssignment retrieves an assignment with its component selections.
func (s *Store) GetAssignment(ctx context.Context, id string) (equipment.Assignment, error) {
	if err := s.ready(); err != nil {
		return equipment.Assignment{}, err
	}
	if err := ctx.Err(); err != nil {
		return equipment.Assignment{}, err
	}

	var row assignmentRow
	err := s.db.GetContext(ctx, &row, `SELECT * FROM assignments WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return equipment.Assignment{}, storage.ErrNotFound
		}
		return equipment.Assignment{}, fmt.Errorf("get assignment: %w", err)
	}
	a := row.toDomain()

	var compRows []componentRow
	err = s.db.SelectContext(ctx, &compRows,
		`SELECT * FROM assignment_components WHERE assignment_id = ? ORDER BY position`, id)
	if err != nil {
		return equipment.Assignment{}, fmt.Errorf("list assignment components: %w", err)
	}
	attachComponents(&a, compRows)
	return a, nil
}

// ListAssignments returns a fighter's assignments, oldest first. Archived
// assignments are excluded unless requested.
func (s *Store) ListAssignments(ctx context.Context, fighterID string, includeArchived bool) ([]equipment.Assignment, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	query := `SELECT * FROM assignments WHERE fighter_id = ? ORDER BY created_at, id`
	if !includeArchived {
		query = `SELECT * FROM assignments WHERE fighter_id = ? AND archival = 0 ORDER BY created_at, id`
	}
	var rows []assignmentRow
	if err := s.db.SelectContext(ctx, &rows, query, fighterID); err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}

	assignments := make([]equipment.Assignment, 0, len(rows))
	for _, row := range rows {
		a := row.toDomain()
		var compRows []componentRow
		err := s.db.SelectContext(ctx, &compRows,
			`SELECT * FROM assignment_components WHERE assignment_id = ? ORDER BY position`, a.ID)
		if err != nil {
			return nil, fmt.Errorf("list assignment components: %w", err)
		}
		attachComponents(&a, compRows)
		assignments = append(assignments, a)
	}
	return assignments, nil
}

// RemoveEquipment archives an assignment. Credits move back only when a
// refund is explicitly requested and the gang is in CampaignMode.
func (s *Store) RemoveEquipment(ctx context.Context, params storage.RemoveEquipmentParams) (*storage.OpResult, error) {
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
		holderID, a, ok := findAssignment(agg, params.AssignmentID)
		if !ok {
			return storage.ErrNotFound
		}
		holder, _ := findFighter(agg, holderID)

		refund := 0
		if params.RefundCredits && agg.Gang.Status == gang.StatusCampaignMode {
			refund = cost.AssignmentCost(a, agg.Catalog, agg.Gang.House, holder.TemplateRef)
		}

		archived, err := equipment.Archive(a, s.now)
		if err != nil {
			return err
		}

		tracker := newTotalsTracker(&agg)
		replaceAssignment(&agg, archived)
		ratingDelta, stashDelta := tracker.diff()

		if err := s.updateAssignmentTx(ctx, tx, archived); err != nil {
			return err
		}

		description := fmt.Sprintf("removed %s from %s", a.EquipmentRef, holder.Name)
		if refund > 0 {
			description = fmt.Sprintf("removed %s from %s, refunded %d credits", a.EquipmentRef, holder.Name, refund)
		}

		writer := s.newEntryWriter(tx, agg.Gang)
		err = writer.append(ctx, ledger.AppendInput{
			Kind:         ledger.KindEquipmentRemoved,
			Description:  description,
			FighterID:    holder.ID,
			AssignmentID: archived.ID,
			Deltas:       ledger.Deltas{Rating: ratingDelta, Stash: stashDelta, Credits: refund},
			EarnMode:     ledger.EarnModeNone,
			Actor:        params.Meta.Actor,
		})
		if err != nil {
			return err
		}
		updated, err := writer.finish(ctx, now)
		if err != nil {
			return err
		}
		narrative, err := s.insertNarrativeTx(ctx, tx, updated.ID, holder.ID, params.Meta, now)
		if err != nil {
			return err
		}
		result = &storage.OpResult{
			Gang:       updated,
			Fighter:    &holder,
			Assignment: &archived,
			Entries:    writer.entries,
			Narrative:  narrative,
			Deltas:     writer.deltas,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// AddComponent adds a profile, accessory, or upgrade selection to an
// assignment, spending the cost difference in CampaignMode.
func (s *Store) AddComponent(ctx context.Context, params storage.AddComponentParams) (*storage.OpResult, error) {
	return s.componentOp(ctx, params.GangID, params.AssignmentID, params.Meta,
		func(agg cost.Aggregate, holder fighter.Fighter, a equipment.Assignment) (equipment.Assignment, componentChange, error) {
			entry, err := agg.Catalog.EquipmentByRef(a.EquipmentRef)
			if err != nil {
				return equipment.Assignment{}, componentChange{}, err
			}
			if !entry.HasComponent(params.Kind, params.Selection.Ref) {
				return equipment.Assignment{}, componentChange{}, unknownComponentError(a.EquipmentRef, params.Kind, params.Selection.Ref)
			}
			updated, err := equipment.AddComponent(a, params.Kind, params.Selection, s.now)
			if err != nil {
				return equipment.Assignment{}, componentChange{}, err
			}
			return updated, componentChange{
				kind:  ledger.KindComponentAdded,
				ref:   params.Selection.Ref,
				label: equipment.ComponentKindLabel(params.Kind),
				added: true,
				spend: true,
			}, nil
		})
}

// RemoveComponent drops a selection from an assignment. Credits move back
// only when a refund is explicitly requested.
func (s *Store) RemoveComponent(ctx context.Context, params storage.RemoveComponentParams) (*storage.OpResult, error) {
	return s.componentOp(ctx, params.GangID, params.AssignmentID, params.Meta,
		func(agg cost.Aggregate, holder fighter.Fighter, a equipment.Assignment) (equipment.Assignment, componentChange, error) {
			updated, _, err := equipment.RemoveComponent(a, params.Kind, params.Ref, s.now)
			if err != nil {
				return equipment.Assignment{}, componentChange{}, err
			}
			return updated, componentChange{
				kind:   ledger.KindComponentRemoved,
				ref:    params.Ref,
				label:  equipment.ComponentKindLabel(params.Kind),
				refund: params.RefundCredits,
			}, nil
		})
}

// componentChange describes how a component mutation settles credits.
type componentChange struct {
	kind   ledger.Kind
	ref    string
	label  string
	added  bool
	spend  bool
	refund bool
}

// componentOp applies a component mutation and ledgers the assignment's cost
// difference. The credit movement is the catalog price difference, not the
// rating movement, so override and blocked-fighter cases still settle at the
// right price.
func (s *Store) componentOp(ctx context.Context, gangID, assignmentID string, meta storage.OpMeta, mutate func(cost.Aggregate, fighter.Fighter, equipment.Assignment) (equipment.Assignment, componentChange, error)) (*storage.OpResult, error) {
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
		holderID, a, ok := findAssignment(agg, assignmentID)
		if !ok {
			return storage.ErrNotFound
		}
		holder, _ := findFighter(agg, holderID)

		before := cost.AssignmentCost(a, agg.Catalog, agg.Gang.House, holder.TemplateRef)
		updated, change, err := mutate(agg, holder, a)
		if err != nil {
			return err
		}
		after := cost.AssignmentCost(updated, agg.Catalog, agg.Gang.House, holder.TemplateRef)
		difference := after - before

		creditsDelta := 0
		earnMode := ledger.EarnModeDefault
		if agg.Gang.Status == gang.StatusCampaignMode {
			if change.spend && difference > 0 {
				if !agg.Gang.CanAfford(difference) {
					return gang.ErrInsufficientCredits
				}
				creditsDelta = -difference
			}
			if change.refund && difference < 0 {
				creditsDelta = -difference
				earnMode = ledger.EarnModeNone
			}
		}

		tracker := newTotalsTracker(&agg)
		replaceAssignment(&agg, updated)
		ratingDelta, stashDelta := tracker.diff()

		if err := s.updateAssignmentTx(ctx, tx, updated); err != nil {
			return err
		}

		verb := "removed"
		preposition := "from"
		if change.added {
			verb = "added"
			preposition = "to"
		}
		description := fmt.Sprintf("%s %s %s %s %s", verb, strings.ToLower(change.label), change.ref, preposition, updated.EquipmentRef)

		writer := s.newEntryWriter(tx, agg.Gang)
		err = writer.append(ctx, ledger.AppendInput{
			Kind:         change.kind,
			Description:  description,
			FighterID:    holder.ID,
			AssignmentID: updated.ID,
			Deltas:       ledger.Deltas{Rating: ratingDelta, Stash: stashDelta, Credits: creditsDelta},
			EarnMode:     earnMode,
			Actor:        meta.Actor,
		})
		if err != nil {
			return err
		}
		g, err := writer.finish(ctx, now)
		if err != nil {
			return err
		}
		narrative, err := s.insertNarrativeTx(ctx, tx, g.ID, holder.ID, meta, now)
		if err != nil {
			return err
		}
		result = &storage.OpResult{
			Gang:       g,
			Fighter:    &holder,
			Assignment: &updated,
			Entries:    writer.entries,
			Narrative:  narrative,
			Deltas:     writer.deltas,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ReassignEquipment moves an assignment to another fighter in the same
// gang. Moving to the current holder is a no-op.
func (s *Store) ReassignEquipment(ctx context.Context, params storage.ReassignEquipmentParams) (*storage.OpResult, error) {
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
		holderID, a, ok := findAssignment(agg, params.AssignmentID)
		if !ok {
			return storage.ErrNotFound
		}
		if holderID == params.ToFighterID {
			return nil
		}
		holder, _ := findFighter(agg, holderID)
		target, ok := findFighter(agg, params.ToFighterID)
		if !ok {
			return storage.ErrNotFound
		}
		if target.Archival == fighter.ArchivalArchived {
			return fighter.ErrArchived
		}

		moved, err := equipment.Reassign(a, target.ID, s.now)
		if err != nil {
			return err
		}

		tracker := newTotalsTracker(&agg)
		moveAssignment(&agg, holderID, moved)
		ratingDelta, stashDelta := tracker.diff()

		if err := s.updateAssignmentTx(ctx, tx, moved); err != nil {
			return err
		}

		writer := s.newEntryWriter(tx, agg.Gang)
		err = writer.append(ctx, ledger.AppendInput{
			Kind:         ledger.KindEquipmentReassigned,
			Description:  fmt.Sprintf("moved %s from %s to %s", moved.EquipmentRef, holder.Name, target.Name),
			FighterID:    target.ID,
			AssignmentID: moved.ID,
			Deltas:       ledger.Deltas{Rating: ratingDelta, Stash: stashDelta},
			Actor:        params.Meta.Actor,
		})
		if err != nil {
			return err
		}
		updated, err := writer.finish(ctx, now)
		if err != nil {
			return err
		}
		narrative, err := s.insertNarrativeTx(ctx, tx, updated.ID, target.ID, params.Meta, now)
		if err != nil {
			return err
		}
		result = &storage.OpResult{
			Gang:       updated,
			Fighter:    &target,
			Assignment: &moved,
			Entries:    writer.entries,
			Narrative:  narrative,
			Deltas:     writer.deltas,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// SetAssignmentCostOverride pins or clears a manual assignment cost, either
// the whole assignment or just its base. Setting the current value is a
// no-op: nil result, nothing written.
func (s *Store) SetAssignmentCostOverride(ctx context.Context, params storage.SetAssignmentCostOverrideParams) (*storage.OpResult, error) {
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
		holderID, a, ok := findAssignment(agg, params.AssignmentID)
		if !ok {
			return storage.ErrNotFound
		}
		holder, _ := findFighter(agg, holderID)

		var updated equipment.Assignment
		var changed bool
		var label string
		switch params.Target {
		case storage.OverrideTargetBase:
			updated, changed, err = equipment.SetBaseCostOverride(a, params.Value, s.now)
			label = "base cost override"
		default:
			updated, changed, err = equipment.SetTotalCostOverride(a, params.Value, s.now)
			label = "total cost override"
		}
		if err != nil {
			return err
		}
		if !changed {
			return nil
		}

		tracker := newTotalsTracker(&agg)
		replaceAssignment(&agg, updated)
		ratingDelta, stashDelta := tracker.diff()

		if err := s.updateAssignmentTx(ctx, tx, updated); err != nil {
			return err
		}

		description := fmt.Sprintf("cleared %s on %s", label, updated.EquipmentRef)
		if params.Value != nil {
			description = fmt.Sprintf("set %s on %s to %d", label, updated.EquipmentRef, *params.Value)
		}

		writer := s.newEntryWriter(tx, agg.Gang)
		err = writer.append(ctx, ledger.AppendInput{
			Kind:         ledger.KindCostOverrideSet,
			Description:  description,
			FighterID:    holder.ID,
			AssignmentID: updated.ID,
			Deltas:       ledger.Deltas{Rating: ratingDelta, Stash: stashDelta},
			Actor:        params.Meta.Actor,
		})
		if err != nil {
			return err
		}
		g, err := writer.finish(ctx, now)
		if err != nil {
			return err
		}
		narrative, err := s.insertNarrativeTx(ctx, tx, g.ID, holder.ID, params.Meta, now)
		if err != nil {
			return err
		}
		result = &storage.OpResult{
			Gang:       g,
			Fighter:    &holder,
			Assignment: &updated,
			Entries:    writer.entries,
			Narrative:  narrative,
			Deltas:     writer.deltas,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// validateSelections checks every requested component against the catalog
// entry before the assignment is created.
func validateSelections(entry cost.Equipment, input equipment.CreateAssignmentInput) error {
	check := func(kind equipment.ComponentKind, selections []equipment.Selection) error {
		for _, sel := range selections {
			if !entry.HasComponent(kind, sel.Ref) {
				return unknownComponentError(entry.Ref, kind, sel.Ref)
			}
		}
		return nil
	}
	if err := check(equipment.ComponentProfile, input.Profiles); err != nil {
		return err
	}
	if err := check(equipment.ComponentAccessory, input.Accessories); err != nil {
		return err
	}
	return check(equipment.ComponentUpgrade, input.Upgrades)
}

func unknownComponentError(equipmentRef string, kind equipment.ComponentKind, ref string) error {
	return apperrors.WithMetadata(
		apperrors.CodeContentInvalid,
		fmt.Sprintf("equipment %s has no %s %q", equipmentRef, strings.ToLower(equipment.ComponentKindLabel(kind)), ref),
		map[string]string{"Equipment": equipmentRef, "Kind": equipment.ComponentKindLabel(kind), "Ref": ref},
	)
}
