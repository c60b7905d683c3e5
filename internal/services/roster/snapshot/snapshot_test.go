package snapshot

import (
	"bytes"
	"testing"
	"time"

	"github.com/louisbranch/gangledger/internal/services/roster/domain/advancement"
	"github.com/louisbranch/gangledger/internal/services/roster/domain/equipment"
	"github.com/louisbranch/gangledger/internal/services/roster/domain/fighter"
	"github.com/louisbranch/gangledger/internal/services/roster/domain/gang"
)

func TestCaptureFlattensRosterGraph(t *testing.T) {
	takenAt := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	override := 85

	g := gang.Gang{
		ID:             "clone-1",
		Owner:          "arbitrator",
		Name:           "Sump Dogs",
		House:          "orlock",
		Status:         gang.StatusCampaignMode,
		CampaignID:     "camp-1",
		OriginalGangID: "gang-1",
		Totals:         gang.Totals{Rating: 1000, Stash: 50, Credits: 500, CreditsEarned: 500},
	}
	fighters := []fighter.Fighter{
		{ID: "f-1", GangID: "clone-1", TemplateRef: "leader", Name: "Axle", Status: fighter.StatusActive, Xp: 3},
		{ID: "f-2", GangID: "clone-1", TemplateRef: "ganger", Name: "Brick", Status: fighter.StatusDead, CostOverride: &override},
	}
	assignments := map[string][]equipment.Assignment{
		"f-1": {{
			ID:           "a-1",
			FighterID:    "f-1",
			EquipmentRef: "lasgun",
			Profiles:     []equipment.Selection{{Ref: "hotshot"}},
		}},
	}
	advancements := map[string][]advancement.Advancement{
		"f-1": {{
			ID:           "adv-1",
			FighterID:    "f-1",
			Type:         advancement.TypeCharacteristic,
			Selection:    "strength",
			XpCost:       6,
			CostIncrease: 20,
		}},
	}

	snap := Capture(g, fighters, assignments, advancements, takenAt)

	if snap.Version != Version {
		t.Fatalf("expected version %d, got %d", Version, snap.Version)
	}
	if !snap.TakenAt.Equal(takenAt) {
		t.Fatalf("expected taken at %v, got %v", takenAt, snap.TakenAt)
	}
	if snap.Gang.Status != "CAMPAIGN_MODE" {
		t.Fatalf("expected campaign mode status label, got %q", snap.Gang.Status)
	}
	if snap.Gang.Rating != 1000 || snap.Gang.Credits != 500 {
		t.Fatalf("unexpected gang totals: %+v", snap.Gang)
	}
	if len(snap.Fighters) != 2 {
		t.Fatalf("expected 2 fighters, got %d", len(snap.Fighters))
	}
	if snap.Fighters[1].Status != "DEAD" {
		t.Fatalf("expected dead status label, got %q", snap.Fighters[1].Status)
	}
	if snap.Fighters[1].CostOverride == nil || *snap.Fighters[1].CostOverride != override {
		t.Fatalf("expected cost override %d, got %v", override, snap.Fighters[1].CostOverride)
	}
	if len(snap.Assignments) != 1 || snap.Assignments[0].EquipmentRef != "lasgun" {
		t.Fatalf("unexpected assignments: %+v", snap.Assignments)
	}
	if len(snap.Assignments[0].Profiles) != 1 || snap.Assignments[0].Profiles[0].Ref != "hotshot" {
		t.Fatalf("unexpected profile selections: %+v", snap.Assignments[0].Profiles)
	}
	if len(snap.Advancements) != 1 || snap.Advancements[0].Type != "CHARACTERISTIC" {
		t.Fatalf("unexpected advancements: %+v", snap.Advancements)
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	takenAt := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	g := gang.Gang{
		ID:     "clone-1",
		Owner:  "arbitrator",
		Name:   "Sump Dogs",
		House:  "orlock",
		Status: gang.StatusCampaignMode,
		Totals: gang.Totals{Rating: 750, Credits: 250},
	}
	fighters := []fighter.Fighter{
		{ID: "f-1", GangID: "clone-1", TemplateRef: "leader", Name: "Axle", Status: fighter.StatusActive},
	}

	snap := Capture(g, fighters, nil, nil, takenAt)

	payload, err := Encode(snap)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(payload) == 0 {
		t.Fatal("expected non-empty payload")
	}
	if !bytes.HasPrefix(payload, []byte{0x28, 0xb5, 0x2f, 0xfd}) {
		t.Fatal("expected a zstd frame")
	}

	decoded, err := Decode(payload)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if decoded.Gang.ID != "clone-1" || decoded.Gang.Rating != 750 {
		t.Fatalf("unexpected decoded gang: %+v", decoded.Gang)
	}
	if len(decoded.Fighters) != 1 || decoded.Fighters[0].Name != "Axle" {
		t.Fatalf("unexpected decoded fighters: %+v", decoded.Fighters)
	}
	if !decoded.TakenAt.Equal(takenAt) {
		t.Fatalf("expected taken at %v, got %v", takenAt, decoded.TakenAt)
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	if _, err := Decode([]byte("not a zstd frame")); err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestDecodeRejectsUnknownVersion(t *testing.T) {
	snap := Capture(gang.Gang{ID: "g-1", Status: gang.StatusBuilding}, nil, nil, nil, time.Now())
	snap.Version = 99

	payload, err := Encode(snap)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if _, err := Decode(payload); err == nil {
		t.Fatal("expected error, got nil")
	}
}
