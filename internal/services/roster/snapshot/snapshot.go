// Package snapshot encodes point-in-time roster snapshots.
//
// A snapshot freezes a gang's full roster graph as zstd-compressed JSON. One
// is taken for every clone at campaign start so the genesis state stays
// reconstructable even after fighters are hard-deleted or archived. Snapshot
// types are versioned and decoupled from the domain structs so old payloads
// keep decoding as the domain evolves.
package snapshot

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/louisbranch/gangledger/internal/services/roster/domain/advancement"
	"github.com/louisbranch/gangledger/internal/services/roster/domain/equipment"
	"github.com/louisbranch/gangledger/internal/services/roster/domain/fighter"
	"github.com/louisbranch/gangledger/internal/services/roster/domain/gang"
)

// Version is the current snapshot payload version.
const Version = 1

// RosterV1 is the version-1 snapshot payload.
type RosterV1 struct {
	Version int       `json:"version"`
	TakenAt time.Time `json:"taken_at"`

	Gang         GangV1          `json:"gang"`
	Fighters     []FighterV1     `json:"fighters,omitempty"`
	Assignments  []AssignmentV1  `json:"assignments,omitempty"`
	Advancements []AdvancementV1 `json:"advancements,omitempty"`
}

// GangV1 mirrors the gang row at snapshot time.
type GangV1 struct {
	ID             string `json:"id"`
	Owner          string `json:"owner"`
	Name           string `json:"name"`
	House          string `json:"house"`
	Status         string `json:"status"`
	CampaignID     string `json:"campaign_id,omitempty"`
	OriginalGangID string `json:"original_gang_id,omitempty"`
	Rating         int    `json:"rating"`
	Stash          int    `json:"stash"`
	Credits        int    `json:"credits"`
	CreditsEarned  int    `json:"credits_earned"`
}

// FighterV1 mirrors one fighter row at snapshot time.
type FighterV1 struct {
	ID                    string `json:"id"`
	TemplateRef           string `json:"template_ref"`
	Name                  string `json:"name"`
	Status                string `json:"status"`
	Archived              bool   `json:"archived,omitempty"`
	Xp                    int    `json:"xp,omitempty"`
	CostOverride          *int   `json:"cost_override,omitempty"`
	CategoryOverride      string `json:"category_override,omitempty"`
	IsStash               bool   `json:"is_stash,omitempty"`
	IsChild               bool   `json:"is_child,omitempty"`
	SpawnedByAssignmentID string `json:"spawned_by_assignment_id,omitempty"`
}

// AssignmentV1 mirrors one equipment assignment at snapshot time.
type AssignmentV1 struct {
	ID                string        `json:"id"`
	FighterID         string        `json:"fighter_id"`
	EquipmentRef      string        `json:"equipment_ref"`
	Archived          bool          `json:"archived,omitempty"`
	BaseCostOverride  *int          `json:"base_cost_override,omitempty"`
	TotalCostOverride *int          `json:"total_cost_override,omitempty"`
	ChildCostOnly     bool          `json:"child_cost_only,omitempty"`
	SpawnedFighterID  string        `json:"spawned_fighter_id,omitempty"`
	Profiles          []SelectionV1 `json:"profiles,omitempty"`
	Accessories       []SelectionV1 `json:"accessories,omitempty"`
	Upgrades          []SelectionV1 `json:"upgrades,omitempty"`
}

// SelectionV1 is one chosen component on an assignment.
type SelectionV1 struct {
	Ref          string `json:"ref"`
	CostOverride *int   `json:"cost_override,omitempty"`
}

// AdvancementV1 mirrors one advancement row at snapshot time.
type AdvancementV1 struct {
	ID           string `json:"id"`
	FighterID    string `json:"fighter_id"`
	Type         string `json:"type"`
	Selection    string `json:"selection,omitempty"`
	XpCost       int    `json:"xp_cost"`
	CostIncrease int    `json:"cost_increase"`
	Archived     bool   `json:"archived,omitempty"`
}

// Capture builds a snapshot payload from domain records. Assignments are
// passed per holding fighter, advancements likewise; both flatten in roster
// order.
func Capture(g gang.Gang, fighters []fighter.Fighter, assignments map[string][]equipment.Assignment, advancements map[string][]advancement.Advancement, takenAt time.Time) RosterV1 {
	snap := RosterV1{
		Version: Version,
		TakenAt: takenAt.UTC(),
		Gang: GangV1{
			ID:             g.ID,
			Owner:          g.Owner,
			Name:           g.Name,
			House:          g.House,
			Status:         gang.StatusLabel(g.Status),
			CampaignID:     g.CampaignID,
			OriginalGangID: g.OriginalGangID,
			Rating:         g.Totals.Rating,
			Stash:          g.Totals.Stash,
			Credits:        g.Totals.Credits,
			CreditsEarned:  g.Totals.CreditsEarned,
		},
	}

	for _, f := range fighters {
		snap.Fighters = append(snap.Fighters, FighterV1{
			ID:                    f.ID,
			TemplateRef:           f.TemplateRef,
			Name:                  f.Name,
			Status:                fighter.StatusLabel(f.Status),
			Archived:              f.Archival == fighter.ArchivalArchived,
			Xp:                    f.Xp,
			CostOverride:          f.CostOverride,
			CategoryOverride:      f.CategoryOverride,
			IsStash:               f.IsStash,
			IsChild:               f.IsChild,
			SpawnedByAssignmentID: f.SpawnedByAssignmentID,
		})
		for _, a := range assignments[f.ID] {
			snap.Assignments = append(snap.Assignments, AssignmentV1{
				ID:                a.ID,
				FighterID:         a.FighterID,
				EquipmentRef:      a.EquipmentRef,
				Archived:          a.Archival == equipment.ArchivalArchived,
				BaseCostOverride:  a.BaseCostOverride,
				TotalCostOverride: a.TotalCostOverride,
				ChildCostOnly:     a.ChildCostOnly,
				SpawnedFighterID:  a.SpawnedFighterID,
				Profiles:          selectionsV1(a.Profiles),
				Accessories:       selectionsV1(a.Accessories),
				Upgrades:          selectionsV1(a.Upgrades),
			})
		}
		for _, adv := range advancements[f.ID] {
			snap.Advancements = append(snap.Advancements, AdvancementV1{
				ID:           adv.ID,
				FighterID:    adv.FighterID,
				Type:         advancement.TypeLabel(adv.Type),
				Selection:    adv.Selection,
				XpCost:       adv.XpCost,
				CostIncrease: adv.CostIncrease,
				Archived:     adv.Archival == advancement.ArchivalArchived,
			})
		}
	}

	return snap
}

func selectionsV1(selections []equipment.Selection) []SelectionV1 {
	if len(selections) == 0 {
		return nil
	}
	out := make([]SelectionV1, len(selections))
	for i, sel := range selections {
		out[i] = SelectionV1{Ref: sel.Ref, CostOverride: sel.CostOverride}
	}
	return out
}

// Encode serializes a snapshot to zstd-compressed JSON.
func Encode(snap RosterV1) ([]byte, error) {
	raw, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}

	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("new zstd writer: %w", err)
	}
	defer enc.Close()

	return enc.EncodeAll(raw, nil), nil
}

// Decode deserializes a zstd-compressed JSON snapshot payload.
func Decode(payload []byte) (RosterV1, error) {
	var snap RosterV1

	dec, err := zstd.NewReader(nil)
	if err != nil {
		return snap, fmt.Errorf("new zstd reader: %w", err)
	}
	defer dec.Close()

	raw, err := dec.DecodeAll(payload, nil)
	if err != nil {
		return snap, fmt.Errorf("decompress snapshot: %w", err)
	}
	if err := json.Unmarshal(raw, &snap); err != nil {
		return snap, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	if snap.Version != Version {
		return snap, fmt.Errorf("unsupported snapshot version %d", snap.Version)
	}
	return snap, nil
}
