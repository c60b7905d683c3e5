package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/louisbranch/gangledger/internal/services/roster/domain/advancement"
	"github.com/louisbranch/gangledger/internal/services/roster/domain/cost"
	"github.com/louisbranch/gangledger/internal/services/roster/domain/equipment"
	"github.com/louisbranch/gangledger/internal/services/roster/domain/fighter"
	"github.com/louisbranch/gangledger/internal/services/roster/domain/gang"
	"github.com/louisbranch/gangledger/internal/services/roster/domain/ledger"
	"github.com/louisbranch/gangledger/internal/services/roster/storage"
)

type gangRow struct {
	ID             string `db:"id"`
	Owner          string `db:"owner"`
	Name           string `db:"name"`
	House          string `db:"house"`
	Status         int    `db:"status"`
	CampaignID     string `db:"campaign_id"`
	OriginalGangID string `db:"original_gang_id"`
	Rating         int    `db:"rating"`
	StashValue     int    `db:"stash_value"`
	Credits        int    `db:"credits"`
	CreditsEarned  int    `db:"credits_earned"`
	CreatedAt      int64  `db:"created_at"`
	UpdatedAt      int64  `db:"updated_at"`
}

func newGangRow(g gang.Gang) gangRow {
	return gangRow{
		ID:             g.ID,
		Owner:          g.Owner,
		Name:           g.Name,
		House:          g.House,
		Status:         int(g.Status),
		CampaignID:     g.CampaignID,
		OriginalGangID: g.OriginalGangID,
		Rating:         g.Totals.Rating,
		StashValue:     g.Totals.Stash,
		Credits:        g.Totals.Credits,
		CreditsEarned:  g.Totals.CreditsEarned,
		CreatedAt:      toMillis(g.CreatedAt),
		UpdatedAt:      toMillis(g.UpdatedAt),
	}
}

func (r gangRow) toDomain() gang.Gang {
	return gang.Gang{
		ID:             r.ID,
		Owner:          r.Owner,
		Name:           r.Name,
		House:          r.House,
		Status:         gang.Status(r.Status),
		CampaignID:     r.CampaignID,
		OriginalGangID: r.OriginalGangID,
		Totals: gang.Totals{
			Rating:        r.Rating,
			Stash:         r.StashValue,
			Credits:       r.Credits,
			CreditsEarned: r.CreditsEarned,
		},
		CreatedAt: fromMillis(r.CreatedAt),
		UpdatedAt: fromMillis(r.UpdatedAt),
	}
}

type fighterRow struct {
	ID                    string        `db:"id"`
	GangID                string        `db:"gang_id"`
	TemplateRef           string        `db:"template_ref"`
	Name                  string        `db:"name"`
	Status                int           `db:"status"`
	Archival              int           `db:"archival"`
	Xp                    int           `db:"xp"`
	CostOverride          sql.NullInt64 `db:"cost_override"`
	CategoryOverride      string        `db:"category_override"`
	IsStash               bool          `db:"is_stash"`
	IsChild               bool          `db:"is_child"`
	SpawnedByAssignmentID string        `db:"spawned_by_assignment_id"`
	CreatedAt             int64         `db:"created_at"`
	UpdatedAt             int64         `db:"updated_at"`
}

func newFighterRow(f fighter.Fighter) fighterRow {
	return fighterRow{
		ID:                    f.ID,
		GangID:                f.GangID,
		TemplateRef:           f.TemplateRef,
		Name:                  f.Name,
		Status:                int(f.Status),
		Archival:              int(f.Archival),
		Xp:                    f.Xp,
		CostOverride:          toNullInt(f.CostOverride),
		CategoryOverride:      f.CategoryOverride,
		IsStash:               f.IsStash,
		IsChild:               f.IsChild,
		SpawnedByAssignmentID: f.SpawnedByAssignmentID,
		CreatedAt:             toMillis(f.CreatedAt),
		UpdatedAt:             toMillis(f.UpdatedAt),
	}
}

func (r fighterRow) toDomain() fighter.Fighter {
	return fighter.Fighter{
		ID:                    r.ID,
		GangID:                r.GangID,
		TemplateRef:           r.TemplateRef,
		Name:                  r.Name,
		Status:                fighter.Status(r.Status),
		Archival:              fighter.Archival(r.Archival),
		Xp:                    r.Xp,
		CostOverride:          fromNullInt(r.CostOverride),
		CategoryOverride:      r.CategoryOverride,
		IsStash:               r.IsStash,
		IsChild:               r.IsChild,
		SpawnedByAssignmentID: r.SpawnedByAssignmentID,
		CreatedAt:             fromMillis(r.CreatedAt),
		UpdatedAt:             fromMillis(r.UpdatedAt),
	}
}

type assignmentRow struct {
	ID                string        `db:"id"`
	FighterID         string        `db:"fighter_id"`
	EquipmentRef      string        `db:"equipment_ref"`
	Archival          int           `db:"archival"`
	BaseCostOverride  sql.NullInt64 `db:"base_cost_override"`
	TotalCostOverride sql.NullInt64 `db:"total_cost_override"`
	ChildCostOnly     bool          `db:"child_cost_only"`
	SpawnedFighterID  string        `db:"spawned_fighter_id"`
	CreatedAt         int64         `db:"created_at"`
	UpdatedAt         int64         `db:"updated_at"`
}

func newAssignmentRow(a equipment.Assignment) assignmentRow {
	return assignmentRow{
		ID:                a.ID,
		FighterID:         a.FighterID,
		EquipmentRef:      a.EquipmentRef,
		Archival:          int(a.Archival),
		BaseCostOverride:  toNullInt(a.BaseCostOverride),
		TotalCostOverride: toNullInt(a.TotalCostOverride),
		ChildCostOnly:     a.ChildCostOnly,
		SpawnedFighterID:  a.SpawnedFighterID,
		CreatedAt:         toMillis(a.CreatedAt),
		UpdatedAt:         toMillis(a.UpdatedAt),
	}
}

// toDomain returns the assignment without its component selections; those
// live in assignment_components and are attached by the loader.
func (r assignmentRow) toDomain() equipment.Assignment {
	return equipment.Assignment{
		ID:                r.ID,
		FighterID:         r.FighterID,
		EquipmentRef:      r.EquipmentRef,
		Archival:          equipment.Archival(r.Archival),
		BaseCostOverride:  fromNullInt(r.BaseCostOverride),
		TotalCostOverride: fromNullInt(r.TotalCostOverride),
		ChildCostOnly:     r.ChildCostOnly,
		SpawnedFighterID:  r.SpawnedFighterID,
		CreatedAt:         fromMillis(r.CreatedAt),
		UpdatedAt:         fromMillis(r.UpdatedAt),
	}
}

type componentRow struct {
	AssignmentID string        `db:"assignment_id"`
	Kind         int           `db:"kind"`
	Ref          string        `db:"ref"`
	CostOverride sql.NullInt64 `db:"cost_override"`
	Position     int           `db:"position"`
}

// componentRows flattens an assignment's selections into rows, preserving
// slice order through the position column.
func componentRows(a equipment.Assignment) []componentRow {
	var rows []componentRow
	appendKind := func(kind equipment.ComponentKind, selections []equipment.Selection) {
		for i, sel := range selections {
			rows = append(rows, componentRow{
				AssignmentID: a.ID,
				Kind:         int(kind),
				Ref:          sel.Ref,
				CostOverride: toNullInt(sel.CostOverride),
				Position:     i,
			})
		}
	}
	appendKind(equipment.ComponentProfile, a.Profiles)
	appendKind(equipment.ComponentAccessory, a.Accessories)
	appendKind(equipment.ComponentUpgrade, a.Upgrades)
	return rows
}

// attachComponents distributes component rows onto the assignment's
// selection slices in stored order.
func attachComponents(a *equipment.Assignment, rows []componentRow) {
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Position < rows[j].Position })
	for _, row := range rows {
		sel := equipment.Selection{Ref: row.Ref, CostOverride: fromNullInt(row.CostOverride)}
		switch equipment.ComponentKind(row.Kind) {
		case equipment.ComponentProfile:
			a.Profiles = append(a.Profiles, sel)
		case equipment.ComponentAccessory:
			a.Accessories = append(a.Accessories, sel)
		case equipment.ComponentUpgrade:
			a.Upgrades = append(a.Upgrades, sel)
		}
	}
}

type advancementRow struct {
	ID           string `db:"id"`
	FighterID    string `db:"fighter_id"`
	Type         int    `db:"type"`
	Selection    string `db:"selection"`
	XpCost       int    `db:"xp_cost"`
	CostIncrease int    `db:"cost_increase"`
	Archival     int    `db:"archival"`
	CreatedAt    int64  `db:"created_at"`
	UpdatedAt    int64  `db:"updated_at"`
}

func newAdvancementRow(a advancement.Advancement) advancementRow {
	return advancementRow{
		ID:           a.ID,
		FighterID:    a.FighterID,
		Type:         int(a.Type),
		Selection:    a.Selection,
		XpCost:       a.XpCost,
		CostIncrease: a.CostIncrease,
		Archival:     int(a.Archival),
		CreatedAt:    toMillis(a.CreatedAt),
		UpdatedAt:    toMillis(a.UpdatedAt),
	}
}

func (r advancementRow) toDomain() advancement.Advancement {
	return advancement.Advancement{
		ID:           r.ID,
		FighterID:    r.FighterID,
		Type:         advancement.Type(r.Type),
		Selection:    r.Selection,
		XpCost:       r.XpCost,
		CostIncrease: r.CostIncrease,
		Archival:     advancement.Archival(r.Archival),
		CreatedAt:    fromMillis(r.CreatedAt),
		UpdatedAt:    fromMillis(r.UpdatedAt),
	}
}

type captureRow struct {
	ID              string        `db:"id"`
	FighterID       string        `db:"fighter_id"`
	CapturingGangID string        `db:"capturing_gang_id"`
	Outcome         int           `db:"outcome"`
	RansomPaid      int           `db:"ransom_paid"`
	CapturedAt      int64         `db:"captured_at"`
	ResolvedAt      sql.NullInt64 `db:"resolved_at"`
}

func newCaptureRow(c fighter.Capture) captureRow {
	return captureRow{
		ID:              c.ID,
		FighterID:       c.FighterID,
		CapturingGangID: c.CapturingGangID,
		Outcome:         int(c.Outcome),
		RansomPaid:      c.RansomPaid,
		CapturedAt:      toMillis(c.CapturedAt),
		ResolvedAt:      toNullMillis(c.ResolvedAt),
	}
}

func (r captureRow) toDomain() fighter.Capture {
	return fighter.Capture{
		ID:              r.ID,
		FighterID:       r.FighterID,
		CapturingGangID: r.CapturingGangID,
		Outcome:         fighter.CaptureOutcome(r.Outcome),
		RansomPaid:      r.RansomPaid,
		CapturedAt:      fromMillis(r.CapturedAt),
		ResolvedAt:      fromNullMillis(r.ResolvedAt),
	}
}

type ledgerEntryRow struct {
	GangID        string `db:"gang_id"`
	Seq           int64  `db:"seq"`
	ID            string `db:"id"`
	Kind          string `db:"kind"`
	Description   string `db:"description"`
	FighterID     string `db:"fighter_id"`
	AssignmentID  string `db:"assignment_id"`
	RatingBefore  int    `db:"rating_before"`
	RatingDelta   int    `db:"rating_delta"`
	StashBefore   int    `db:"stash_before"`
	StashDelta    int    `db:"stash_delta"`
	CreditsBefore int    `db:"credits_before"`
	CreditsDelta  int    `db:"credits_delta"`
	Actor         string `db:"actor"`
	Ts            int64  `db:"ts"`
}

func newLedgerEntryRow(e ledger.Entry) ledgerEntryRow {
	return ledgerEntryRow{
		GangID:        e.GangID,
		Seq:           int64(e.Seq),
		ID:            e.ID,
		Kind:          string(e.Kind),
		Description:   e.Description,
		FighterID:     e.FighterID,
		AssignmentID:  e.AssignmentID,
		RatingBefore:  e.RatingBefore,
		RatingDelta:   e.RatingDelta,
		StashBefore:   e.StashBefore,
		StashDelta:    e.StashDelta,
		CreditsBefore: e.CreditsBefore,
		CreditsDelta:  e.CreditsDelta,
		Actor:         e.Actor,
		Ts:            toMillis(e.CreatedAt),
	}
}

func (r ledgerEntryRow) toDomain() ledger.Entry {
	return ledger.Entry{
		ID:            r.ID,
		GangID:        r.GangID,
		Seq:           uint64(r.Seq),
		Kind:          ledger.Kind(r.Kind),
		Description:   r.Description,
		FighterID:     r.FighterID,
		AssignmentID:  r.AssignmentID,
		RatingBefore:  r.RatingBefore,
		RatingDelta:   r.RatingDelta,
		StashBefore:   r.StashBefore,
		StashDelta:    r.StashDelta,
		CreditsBefore: r.CreditsBefore,
		CreditsDelta:  r.CreditsDelta,
		Actor:         r.Actor,
		CreatedAt:     fromMillis(r.Ts),
	}
}

type narrativeRow struct {
	ID        string `db:"id"`
	GangID    string `db:"gang_id"`
	FighterID string `db:"fighter_id"`
	Body      string `db:"body"`
	Actor     string `db:"actor"`
	CreatedAt int64  `db:"created_at"`
}

func (r narrativeRow) toDomain() storage.NarrativeEntry {
	return storage.NarrativeEntry{
		ID:        r.ID,
		GangID:    r.GangID,
		FighterID: r.FighterID,
		Body:      r.Body,
		Actor:     r.Actor,
		CreatedAt: fromMillis(r.CreatedAt),
	}
}

type auditEventRow struct {
	ID           string `db:"id"`
	Severity     string `db:"severity"`
	Code         string `db:"code"`
	Message      string `db:"message"`
	GangID       string `db:"gang_id"`
	MetadataJSON string `db:"metadata_json"`
	CreatedAt    int64  `db:"created_at"`
}

func (r auditEventRow) toDomain() (storage.AuditEvent, error) {
	metadata := map[string]string{}
	if r.MetadataJSON != "" {
		if err := json.Unmarshal([]byte(r.MetadataJSON), &metadata); err != nil {
			return storage.AuditEvent{}, fmt.Errorf("unmarshal audit metadata: %w", err)
		}
	}
	return storage.AuditEvent{
		ID:        r.ID,
		Severity:  r.Severity,
		Code:      r.Code,
		Message:   r.Message,
		GangID:    r.GangID,
		Metadata:  metadata,
		CreatedAt: fromMillis(r.CreatedAt),
	}, nil
}

type snapshotRow struct {
	ID      string `db:"id"`
	GangID  string `db:"gang_id"`
	TakenAt int64  `db:"taken_at"`
	Payload []byte `db:"payload"`
}

func (r snapshotRow) toDomain() storage.GangSnapshot {
	return storage.GangSnapshot{
		ID:      r.ID,
		GangID:  r.GangID,
		TakenAt: fromMillis(r.TakenAt),
		Payload: r.Payload,
	}
}

type contentTemplateRow struct {
	Ref            string `db:"ref"`
	House          string `db:"house"`
	Category       string `db:"category"`
	BaseCost       int    `db:"base_cost"`
	HouseCostsJSON string `db:"house_costs_json"`
}

func newContentTemplateRow(t cost.Template) (contentTemplateRow, error) {
	houseCosts, err := encodeJSONMap(t.HouseCosts)
	if err != nil {
		return contentTemplateRow{}, fmt.Errorf("marshal template house costs: %w", err)
	}
	return contentTemplateRow{
		Ref:            t.Ref,
		House:          t.House,
		Category:       t.Category,
		BaseCost:       t.BaseCost,
		HouseCostsJSON: houseCosts,
	}, nil
}

func (r contentTemplateRow) toDomain() (cost.Template, error) {
	houseCosts, err := decodeJSONIntMap(r.HouseCostsJSON)
	if err != nil {
		return cost.Template{}, fmt.Errorf("unmarshal template house costs: %w", err)
	}
	return cost.Template{
		Ref:        r.Ref,
		House:      r.House,
		Category:   r.Category,
		BaseCost:   r.BaseCost,
		HouseCosts: houseCosts,
	}, nil
}

type contentEquipmentRow struct {
	Ref               string `db:"ref"`
	BaseCost          int    `db:"base_cost"`
	UpgradeMode       int    `db:"upgrade_mode"`
	HouseCostsJSON    string `db:"house_costs_json"`
	TemplateCostsJSON string `db:"template_costs_json"`
	ProfilesJSON      string `db:"profiles_json"`
	AccessoriesJSON   string `db:"accessories_json"`
	UpgradesJSON      string `db:"upgrades_json"`
}

func newContentEquipmentRow(e cost.Equipment) (contentEquipmentRow, error) {
	houseCosts, err := encodeJSONMap(e.HouseCosts)
	if err != nil {
		return contentEquipmentRow{}, fmt.Errorf("marshal equipment house costs: %w", err)
	}
	templateCosts, err := encodeJSONMap(e.TemplateCosts)
	if err != nil {
		return contentEquipmentRow{}, fmt.Errorf("marshal equipment template costs: %w", err)
	}
	profiles, err := encodeJSONMap(e.Profiles)
	if err != nil {
		return contentEquipmentRow{}, fmt.Errorf("marshal equipment profiles: %w", err)
	}
	accessories, err := encodeJSONMap(e.Accessories)
	if err != nil {
		return contentEquipmentRow{}, fmt.Errorf("marshal equipment accessories: %w", err)
	}
	upgrades, err := encodeJSONMap(e.Upgrades)
	if err != nil {
		return contentEquipmentRow{}, fmt.Errorf("marshal equipment upgrades: %w", err)
	}
	return contentEquipmentRow{
		Ref:               e.Ref,
		BaseCost:          e.BaseCost,
		UpgradeMode:       int(e.UpgradeMode),
		HouseCostsJSON:    houseCosts,
		TemplateCostsJSON: templateCosts,
		ProfilesJSON:      profiles,
		AccessoriesJSON:   accessories,
		UpgradesJSON:      upgrades,
	}, nil
}

func (r contentEquipmentRow) toDomain() (cost.Equipment, error) {
	out := cost.Equipment{
		Ref:         r.Ref,
		BaseCost:    r.BaseCost,
		UpgradeMode: cost.UpgradeMode(r.UpgradeMode),
	}
	var err error
	if out.HouseCosts, err = decodeJSONIntMap(r.HouseCostsJSON); err != nil {
		return cost.Equipment{}, fmt.Errorf("unmarshal equipment house costs: %w", err)
	}
	if out.TemplateCosts, err = decodeJSONIntMap(r.TemplateCostsJSON); err != nil {
		return cost.Equipment{}, fmt.Errorf("unmarshal equipment template costs: %w", err)
	}
	if out.Profiles, err = decodeJSONIntMap(r.ProfilesJSON); err != nil {
		return cost.Equipment{}, fmt.Errorf("unmarshal equipment profiles: %w", err)
	}
	if err = decodeJSONInto(r.AccessoriesJSON, &out.Accessories); err != nil {
		return cost.Equipment{}, fmt.Errorf("unmarshal equipment accessories: %w", err)
	}
	if err = decodeJSONInto(r.UpgradesJSON, &out.Upgrades); err != nil {
		return cost.Equipment{}, fmt.Errorf("unmarshal equipment upgrades: %w", err)
	}
	return out, nil
}

func encodeJSONMap(value any) (string, error) {
	encoded, err := json.Marshal(value)
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}

func decodeJSONIntMap(value string) (map[string]int, error) {
	if value == "" || value == "{}" || value == "null" {
		return nil, nil
	}
	var out map[string]int
	if err := json.Unmarshal([]byte(value), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func decodeJSONInto(value string, target any) error {
	if value == "" || value == "{}" || value == "null" {
		return nil
	}
	return json.Unmarshal([]byte(value), target)
}
