// Package cost derives equipment, fighter, and gang costs from an explicitly
// loaded aggregate. All functions are pure; nothing here caches or mutates.
package cost

import (
	"github.com/louisbranch/gangledger/internal/services/roster/domain/advancement"
	"github.com/louisbranch/gangledger/internal/services/roster/domain/equipment"
	"github.com/louisbranch/gangledger/internal/services/roster/domain/fighter"
	"github.com/louisbranch/gangledger/internal/services/roster/domain/gang"
)

// Aggregate is one gang's fully loaded graph. Stores load it in a single
// transaction; the cost engine prices it without further queries.
type Aggregate struct {
	Gang     gang.Gang
	Fighters []fighter.Fighter
	// Assignments, Advancements, and Captures are keyed by fighter ID.
	Assignments  map[string][]equipment.Assignment
	Advancements map[string][]advancement.Advancement
	Captures     map[string][]fighter.Capture
	Catalog      Catalog
}

// AssignmentCost prices one equipment assignment. A total override wins
// outright; otherwise the resolved base cost plus every selected profile,
// accessory, and upgrade. Base resolution prefers the assignment's own
// override, then the holder template's price, then the gang house's price,
// then the catalog base.
func AssignmentCost(a equipment.Assignment, catalog Catalog, house, holderTemplateRef string) int {
	if a.TotalCostOverride != nil {
		return *a.TotalCostOverride
	}

	entry := catalog.Equipment[a.EquipmentRef]
	base := assignmentBase(a, entry, house, holderTemplateRef)
	total := base

	for _, sel := range a.Profiles {
		var modifiers []Modifier
		if sel.CostOverride != nil {
			modifiers = append(modifiers, Override(*sel.CostOverride))
		}
		total += Apply(entry.Profiles[sel.Ref], modifiers...)
	}

	for _, sel := range a.Accessories {
		acc := entry.Accessories[sel.Ref]
		value := acc.Cost
		var modifiers []Modifier
		if acc.CostExpr != "" {
			// Expression accessories price themselves against the
			// assignment's base cost, not their own flat cost.
			value = base
			modifiers = append(modifiers, Expression(acc.CostExpr))
		}
		if sel.CostOverride != nil {
			modifiers = append(modifiers, Override(*sel.CostOverride))
		}
		total += Apply(value, modifiers...)
	}

	total += upgradeContribution(a, entry)
	return total
}

// upgradeContribution sums the selected upgrades, capping single-mode
// equipment to its most expensive selection.
func upgradeContribution(a equipment.Assignment, entry Equipment) int {
	if len(a.Upgrades) == 0 {
		return 0
	}

	sum := 0
	most := 0
	for _, sel := range a.Upgrades {
		var modifiers []Modifier
		if sel.CostOverride != nil {
			modifiers = append(modifiers, Override(*sel.CostOverride))
		}
		value := Apply(entry.Upgrades[sel.Ref].Cost, modifiers...)
		sum += value
		if value > most {
			most = value
		}
	}

	if entry.UpgradeMode == UpgradeModeSingle {
		return most
	}
	return sum
}

func assignmentBase(a equipment.Assignment, entry Equipment, house, holderTemplateRef string) int {
	if a.BaseCostOverride != nil {
		return *a.BaseCostOverride
	}
	if c, ok := entry.TemplateCosts[holderTemplateRef]; ok {
		return c
	}
	if c, ok := entry.HouseCosts[house]; ok {
		return c
	}
	return entry.BaseCost
}

// FighterCost prices one fighter. Dead fighters, fighters blocked by an
// open or sold capture, and child fighters cost 0 no matter what they
// carry. A cost override beats the computed value. Otherwise the template
// base (house aware) plus every live assignment not flagged child-cost-only
// plus every live advancement's cost increase.
func FighterCost(f fighter.Fighter, captures []fighter.Capture, assignments []equipment.Assignment, advancements []advancement.Advancement, catalog Catalog, house string) int {
	if f.Status == fighter.StatusDead {
		return 0
	}
	for _, c := range captures {
		if c.Blocks() {
			return 0
		}
	}
	if f.IsChild {
		return 0
	}
	if f.CostOverride != nil {
		return *f.CostOverride
	}

	total := templateBase(catalog.Templates[f.TemplateRef], house)
	for _, a := range assignments {
		if a.Archival == equipment.ArchivalArchived || a.ChildCostOnly {
			continue
		}
		total += AssignmentCost(a, catalog, house, f.TemplateRef)
	}
	for _, adv := range advancements {
		if adv.Archival == advancement.ArchivalArchived {
			continue
		}
		total += adv.CostIncrease
	}
	return total
}

func templateBase(t Template, house string) int {
	if c, ok := t.HouseCosts[house]; ok {
		return c
	}
	return t.BaseCost
}

// FighterCost prices one fighter of the aggregate.
func (agg Aggregate) FighterCost(f fighter.Fighter) int {
	return FighterCost(f, agg.Captures[f.ID], agg.Assignments[f.ID], agg.Advancements[f.ID], agg.Catalog, agg.Gang.House)
}

// AssignmentCost prices one assignment as held by the given fighter.
func (agg Aggregate) AssignmentCost(f fighter.Fighter, a equipment.Assignment) int {
	return AssignmentCost(a, agg.Catalog, agg.Gang.House, f.TemplateRef)
}

// GangTotals recomputes rating and stash from scratch. Rating sums fighter
// costs over live non-stash fighters; stash sums assignment costs over the
// stash fighter's live assignments. Credits pass through from the gang row,
// which tracks them independently.
func GangTotals(agg Aggregate) gang.Totals {
	totals := gang.Totals{
		Credits:       agg.Gang.Totals.Credits,
		CreditsEarned: agg.Gang.Totals.CreditsEarned,
	}

	for _, f := range agg.Fighters {
		if f.Archival == fighter.ArchivalArchived {
			continue
		}
		if f.IsStash {
			for _, a := range agg.Assignments[f.ID] {
				if a.Archival == equipment.ArchivalArchived {
					continue
				}
				totals.Stash += agg.AssignmentCost(f, a)
			}
			continue
		}
		totals.Rating += agg.FighterCost(f)
	}
	return totals
}
