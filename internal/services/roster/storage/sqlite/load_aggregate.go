package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/louisbranch/gangledger/internal/services/roster/domain/advancement"
	"github.com/louisbranch/gangledger/internal/services/roster/domain/cost"
	"github.com/louisbranch/gangledger/internal/services/roster/domain/equipment"
	"github.com/louisbranch/gangledger/internal/services/roster/domain/fighter"
	"github.com/louisbranch/gangledger/internal/services/roster/domain/gang"
	"github.com/louisbranch/gangledger/internal/services/roster/storage"
)

func (s *Store) getGangTx(ctx context.Context, tx *sqlx.Tx, gangID string) (gang.Gang, error) {
	var row gangRow
	err := tx.GetContext(ctx, &row, `SELECT * FROM gangs WHERE id = ?`, gangID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return gang.Gang{}, storage.ErrNotFound
		}
		return gang.Gang{}, fmt.Errorf("get gang: %w", err)
	}
	return row.toDomain(), nil
}

// loadAggregateTx loads the full cost graph for one gang: fighters, their
// assignments with components, advancements, captures, and the catalog.
// Advancements and captures arrive from their own scoped queries, one row per
// record, so no join can multiply their sums.
func (s *Store) loadAggregateTx(ctx context.Context, tx *sqlx.Tx, gangID string) (cost.Aggregate, error) {
	g, err := s.getGangTx(ctx, tx, gangID)
	if err != nil {
		return cost.Aggregate{}, err
	}

	agg := cost.Aggregate{
		Gang:         g,
		Assignments:  map[string][]equipment.Assignment{},
		Advancements: map[string][]advancement.Advancement{},
		Captures:     map[string][]fighter.Capture{},
	}

	var fighterRows []fighterRow
	err = tx.SelectContext(ctx, &fighterRows,
		`SELECT * FROM fighters WHERE gang_id = ? ORDER BY created_at, id`, gangID)
	if err != nil {
		return cost.Aggregate{}, fmt.Errorf("list fighters: %w", err)
	}
	for _, row := range fighterRows {
		agg.Fighters = append(agg.Fighters, row.toDomain())
	}

	var assignmentRows []assignmentRow
	err = tx.SelectContext(ctx, &assignmentRows, `
SELECT a.* FROM assignments a
JOIN fighters f ON f.id = a.fighter_id
WHERE f.gang_id = ?
ORDER BY a.created_at, a.id`, gangID)
	if err != nil {
		return cost.Aggregate{}, fmt.Errorf("list assignments: %w", err)
	}

	var compRows []componentRow
	err = tx.SelectContext(ctx, &compRows, `
SELECT c.* FROM assignment_components c
JOIN assignments a ON a.id = c.assignment_id
JOIN fighters f ON f.id = a.fighter_id
WHERE f.gang_id = ?
ORDER BY c.position`, gangID)
	if err != nil {
		return cost.Aggregate{}, fmt.Errorf("list assignment components: %w", err)
	}
	compsByAssignment := map[string][]componentRow{}
	for _, row := range compRows {
		compsByAssignment[row.AssignmentID] = append(compsByAssignment[row.AssignmentID], row)
	}

	for _, row := range assignmentRows {
		a := row.toDomain()
		attachComponents(&a, compsByAssignment[a.ID])
		agg.Assignments[a.FighterID] = append(agg.Assignments[a.FighterID], a)
	}

	var advRows []advancementRow
	err = tx.SelectContext(ctx, &advRows, `
SELECT adv.* FROM advancements adv
JOIN fighters f ON f.id = adv.fighter_id
WHERE f.gang_id = ?
ORDER BY adv.created_at, adv.id`, gangID)
	if err != nil {
		return cost.Aggregate{}, fmt.Errorf("list advancements: %w", err)
	}
	for _, row := range advRows {
		adv := row.toDomain()
		agg.Advancements[adv.FighterID] = append(agg.Advancements[adv.FighterID], adv)
	}

	var capRows []captureRow
	err = tx.SelectContext(ctx, &capRows, `
SELECT c.* FROM captures c
JOIN fighters f ON f.id = c.fighter_id
WHERE f.gang_id = ?
ORDER BY c.captured_at, c.id`, gangID)
	if err != nil {
		return cost.Aggregate{}, fmt.Errorf("list captures: %w", err)
	}
	for _, row := range capRows {
		c := row.toDomain()
		agg.Captures[c.FighterID] = append(agg.Captures[c.FighterID], c)
	}

	catalog, err := s.loadCatalogTx(ctx, tx)
	if err != nil {
		return cost.Aggregate{}, err
	}
	agg.Catalog = catalog

	return agg, nil
}

func (s *Store) loadCatalogTx(ctx context.Context, tx *sqlx.Tx) (cost.Catalog, error) {
	catalog := cost.Catalog{
		Templates: map[string]cost.Template{},
		Equipment: map[string]cost.Equipment{},
	}

	var templateRows []contentTemplateRow
	if err := tx.SelectContext(ctx, &templateRows, `SELECT * FROM content_templates`); err != nil {
		return cost.Catalog{}, fmt.Errorf("list content templates: %w", err)
	}
	for _, row := range templateRows {
		t, err := row.toDomain()
		if err != nil {
			return cost.Catalog{}, err
		}
		catalog.Templates[t.Ref] = t
	}

	var equipmentRows []contentEquipmentRow
	if err := tx.SelectContext(ctx, &equipmentRows, `SELECT * FROM content_equipment`); err != nil {
		return cost.Catalog{}, fmt.Errorf("list content equipment: %w", err)
	}
	for _, row := range equipmentRows {
		e, err := row.toDomain()
		if err != nil {
			return cost.Catalog{}, err
		}
		catalog.Equipment[e.Ref] = e
	}

	return catalog, nil
}

func findFighter(agg cost.Aggregate, fighterID string) (fighter.Fighter, bool) {
	for _, f := range agg.Fighters {
		if f.ID == fighterID {
			return f, true
		}
	}
	return fighter.Fighter{}, false
}

func replaceFighter(agg *cost.Aggregate, f fighter.Fighter) {
	for i := range agg.Fighters {
		if agg.Fighters[i].ID == f.ID {
			agg.Fighters[i] = f
			return
		}
	}
	agg.Fighters = append(agg.Fighters, f)
}

func removeFighter(agg *cost.Aggregate, fighterID string) {
	for i := range agg.Fighters {
		if agg.Fighters[i].ID == fighterID {
			agg.Fighters = append(agg.Fighters[:i], agg.Fighters[i+1:]...)
			break
		}
	}
	delete(agg.Assignments, fighterID)
	delete(agg.Advancements, fighterID)
	delete(agg.Captures, fighterID)
}

// findAssignment returns the assignment and the fighter currently holding it.
func findAssignment(agg cost.Aggregate, assignmentID string) (string, equipment.Assignment, bool) {
	for fighterID, assignments := range agg.Assignments {
		for _, a := range assignments {
			if a.ID == assignmentID {
				return fighterID, a, true
			}
		}
	}
	return "", equipment.Assignment{}, false
}

func replaceAssignment(agg *cost.Aggregate, a equipment.Assignment) {
	assignments := agg.Assignments[a.FighterID]
	for i := range assignments {
		if assignments[i].ID == a.ID {
			assignments[i] = a
			return
		}
	}
	agg.Assignments[a.FighterID] = append(assignments, a)
}

func removeAssignment(agg *cost.Aggregate, fighterID, assignmentID string) {
	assignments := agg.Assignments[fighterID]
	for i := range assignments {
		if assignments[i].ID == assignmentID {
			agg.Assignments[fighterID] = append(assignments[:i], assignments[i+1:]...)
			return
		}
	}
}

// moveAssignment rehomes an assignment whose FighterID already points at the
// destination fighter.
func moveAssignment(agg *cost.Aggregate, fromFighterID string, a equipment.Assignment) {
	removeAssignment(agg, fromFighterID, a.ID)
	agg.Assignments[a.FighterID] = append(agg.Assignments[a.FighterID], a)
}

func findAdvancement(agg cost.Aggregate, advancementID string) (advancement.Advancement, bool) {
	for _, advancements := range agg.Advancements {
		for _, adv := range advancements {
			if adv.ID == advancementID {
				return adv, true
			}
		}
	}
	return advancement.Advancement{}, false
}

func replaceAdvancement(agg *cost.Aggregate, adv advancement.Advancement) {
	advancements := agg.Advancements[adv.FighterID]
	for i := range advancements {
		if advancements[i].ID == adv.ID {
			advancements[i] = adv
			return
		}
	}
	agg.Advancements[adv.FighterID] = append(advancements, adv)
}

func appendCapture(agg *cost.Aggregate, c fighter.Capture) {
	agg.Captures[c.FighterID] = append(agg.Captures[c.FighterID], c)
}

func replaceCapture(agg *cost.Aggregate, c fighter.Capture) {
	captures := agg.Captures[c.FighterID]
	for i := range captures {
		if captures[i].ID == c.ID {
			captures[i] = c
			return
		}
	}
	agg.Captures[c.FighterID] = append(captures, c)
}

// openCapture returns the unresolved capture for a fighter, if any.
func openCapture(agg cost.Aggregate, fighterID string) (fighter.Capture, bool) {
	for _, c := range agg.Captures[fighterID] {
		if !c.Resolved() {
			return c, true
		}
	}
	return fighter.Capture{}, false
}

// stashFighter returns the gang's stash fighter, if one exists.
func stashFighter(agg cost.Aggregate) (fighter.Fighter, bool) {
	for _, f := range agg.Fighters {
		if f.IsStash {
			return f, true
		}
	}
	return fighter.Fighter{}, false
}

// totalsTracker diffs freshly recomputed totals between mutation steps so
// each ledger entry carries exactly the change its step caused.
type totalsTracker struct {
	agg  *cost.Aggregate
	last gang.Totals
}

func newTotalsTracker(agg *cost.Aggregate) *totalsTracker {
	return &totalsTracker{agg: agg, last: cost.GangTotals(*agg)}
}

// diff recomputes gang totals and returns the rating and stash movement
// since the previous call. Credits never move through recomputation.
func (t *totalsTracker) diff() (ratingDelta, stashDelta int) {
	next := cost.GangTotals(*t.agg)
	ratingDelta = next.Rating - t.last.Rating
	stashDelta = next.Stash - t.last.Stash
	t.last = next
	return ratingDelta, stashDelta
}
