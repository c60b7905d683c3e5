package sqlite

import (
	"context"
	"errors"
	"testing"

	apperrors "github.com/louisbranch/gangledger/internal/platform/errors"
	"github.com/louisbranch/gangledger/internal/services/roster/domain/equipment"
	"github.com/louisbranch/gangledger/internal/services/roster/domain/fighter"
	"github.com/louisbranch/gangledger/internal/services/roster/domain/gang"
	"github.com/louisbranch/gangledger/internal/services/roster/domain/ledger"
	"github.com/louisbranch/gangledger/internal/services/roster/storage"
)

func TestHireFighterBuildingMode(t *testing.T) {
	store := openTestStore(t)
	seedCatalog(t, store)
	g := seedGang(t, store, "Sump Dogs")

	result, err := store.HireFighter(context.Background(), storage.HireFighterParams{
		GangID: g.ID,
		Input:  fighter.CreateFighterInput{TemplateRef: "leader", Name: "Axle"},
		Meta:   storage.OpMeta{Actor: "owner-1"},
	})
	if err != nil {
		t.Fatalf("hire fighter: %v", err)
	}
	if result.Gang.Totals.Rating != 100 || result.Gang.Totals.Credits != 0 {
		t.Fatalf("expected rating 100 and no credit movement, got %+v", result.Gang.Totals)
	}
	if result.Deltas != (ledger.Deltas{Rating: 100}) {
		t.Fatalf("expected rating-only delta, got %+v", result.Deltas)
	}
	if len(result.Entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(result.Entries))
	}
	entry := result.Entries[0]
	if entry.Kind != ledger.KindFighterHired {
		t.Fatalf("expected fighter hired kind, got %v", entry.Kind)
	}
	if entry.Description != "hired Axle (leader)" {
		t.Fatalf("unexpected description %q", entry.Description)
	}
	if entry.FighterID != result.Fighter.ID {
		t.Fatalf("expected entry to reference the fighter")
	}
}

func TestHireFighterCampaignModeSpendsCredits(t *testing.T) {
	store := openTestStore(t)
	seedCatalog(t, store)
	g := seedCampaignGang(t, store, "Sump Dogs", "camp-1")
	hireFighter(t, store, g.ID, "leader", "Axle")

	started, err := store.StartCampaign(context.Background(), storage.StartCampaignParams{
		CampaignID: "camp-1",
		Budget:     150,
		Meta:       storage.OpMeta{Actor: "arbitrator"},
	})
	if err != nil {
		t.Fatalf("start campaign: %v", err)
	}
	clone := started.Clones[0].Clone
	if clone.Totals.Credits != 50 {
		t.Fatalf("expected 50 credits after top-up, got %d", clone.Totals.Credits)
	}

	result, err := store.HireFighter(context.Background(), storage.HireFighterParams{
		GangID: clone.ID,
		Input:  fighter.CreateFighterInput{TemplateRef: "juve", Name: "Scrap"},
		Meta:   storage.OpMeta{Actor: "owner-1"},
	})
	if err != nil {
		t.Fatalf("hire fighter: %v", err)
	}
	if result.Gang.Totals.Credits != 25 || result.Gang.Totals.Rating != 125 {
		t.Fatalf("expected hire to spend 25 credits, got %+v", result.Gang.Totals)
	}
	if result.Entries[0].Description != "hired Scrap (juve) for 25 credits" {
		t.Fatalf("unexpected description %q", result.Entries[0].Description)
	}
	if result.Deltas != (ledger.Deltas{Rating: 25, Credits: -25}) {
		t.Fatalf("expected spend delta, got %+v", result.Deltas)
	}
	// Spending does not earn.
	if result.Gang.Totals.CreditsEarned != 50 {
		t.Fatalf("expected earned counter untouched, got %d", result.Gang.Totals.CreditsEarned)
	}

	_, err = store.HireFighter(context.Background(), storage.HireFighterParams{
		GangID: clone.ID,
		Input:  fighter.CreateFighterInput{TemplateRef: "ganger", Name: "Brick"},
		Meta:   storage.OpMeta{Actor: "owner-1"},
	})
	if !errors.Is(err, gang.ErrInsufficientCredits) {
		t.Fatalf("expected insufficient credits, got %v", err)
	}
}

func TestHireFighterUnknownTemplate(t *testing.T) {
	store := openTestStore(t)
	seedCatalog(t, store)
	g := seedGang(t, store, "Sump Dogs")

	_, err := store.HireFighter(context.Background(), storage.HireFighterParams{
		GangID: g.ID,
		Input:  fighter.CreateFighterInput{TemplateRef: "warboss", Name: "Gork"},
		Meta:   storage.OpMeta{Actor: "owner-1"},
	})
	var domainErr *apperrors.Error
	if !errors.As(err, &domainErr) {
		t.Fatalf("expected domain error, got %T", err)
	}
	if domainErr.Code != apperrors.CodeTemplateUnknown {
		t.Fatalf("expected code %s, got %s", apperrors.CodeTemplateUnknown, domainErr.Code)
	}
}

func TestKillFighterMovesEquipmentToStash(t *testing.T) {
	store := openTestStore(t)
	seedCatalog(t, store)
	g := seedGang(t, store, "Sump Dogs")
	leader := hireFighter(t, store, g.ID, "leader", "Axle")

	input := equipmentInput(leader.ID, "lasgun")
	input.Accessories = []equipment.Selection{{Ref: "scope"}}
	assignment := purchaseEquipment(t, store, g.ID, input)

	result, err := store.KillFighter(context.Background(), storage.KillFighterParams{
		GangID:    g.ID,
		FighterID: leader.ID,
		Meta:      storage.OpMeta{Actor: "arbitrator"},
	})
	if err != nil {
		t.Fatalf("kill fighter: %v", err)
	}
	if result.Fighter.Status != fighter.StatusDead {
		t.Fatalf("expected dead fighter, got %v", result.Fighter.Status)
	}
	if result.Deltas != (ledger.Deltas{Rating: -125, Stash: 25}) {
		t.Fatalf("expected equipment value to move to stash, got %+v", result.Deltas)
	}
	if result.Gang.Totals.Rating != 0 || result.Gang.Totals.Stash != 25 {
		t.Fatalf("expected totals rating 0 stash 25, got %+v", result.Gang.Totals)
	}
	if result.Entries[0].Description != "killed Axle, moved equipment to the stash" {
		t.Fatalf("unexpected description %q", result.Entries[0].Description)
	}

	fighters, err := store.ListFighters(context.Background(), storage.ListFightersRequest{GangID: g.ID})
	if err != nil {
		t.Fatalf("list fighters: %v", err)
	}
	var stash *fighter.Fighter
	for i := range fighters {
		if fighters[i].IsStash {
			stash = &fighters[i]
		}
	}
	if stash == nil {
		t.Fatal("expected a stash fighter to be created")
	}
	moved, err := store.GetAssignment(context.Background(), assignment.ID)
	if err != nil {
		t.Fatalf("get assignment: %v", err)
	}
	if moved.FighterID != stash.ID {
		t.Fatalf("expected assignment on stash fighter, got %s", moved.FighterID)
	}
}

func TestKillThenResurrectRestoresCost(t *testing.T) {
	store := openTestStore(t)
	seedCatalog(t, store)
	g := seedGang(t, store, "Sump Dogs")
	leader := hireFighter(t, store, g.ID, "leader", "Axle")

	if _, err := store.KillFighter(context.Background(), storage.KillFighterParams{
		GangID: g.ID, FighterID: leader.ID, Meta: storage.OpMeta{Actor: "arbitrator"},
	}); err != nil {
		t.Fatalf("kill fighter: %v", err)
	}

	result, err := store.ResurrectFighter(context.Background(), storage.ResurrectFighterParams{
		GangID: g.ID, FighterID: leader.ID, Meta: storage.OpMeta{Actor: "arbitrator"},
	})
	if err != nil {
		t.Fatalf("resurrect fighter: %v", err)
	}
	if result.Fighter.Status != fighter.StatusActive {
		t.Fatalf("expected active fighter, got %v", result.Fighter.Status)
	}
	if result.Gang.Totals.Rating != 100 {
		t.Fatalf("expected rating restored to 100, got %d", result.Gang.Totals.Rating)
	}
	if result.Entries[0].Description != "resurrected Axle" {
		t.Fatalf("unexpected description %q", result.Entries[0].Description)
	}
}

func TestArchiveAndRestoreFighter(t *testing.T) {
	store := openTestStore(t)
	seedCatalog(t, store)
	g := seedGang(t, store, "Sump Dogs")
	hireFighter(t, store, g.ID, "leader", "Axle")
	ganger := hireFighter(t, store, g.ID, "ganger", "Brick")

	archived, err := store.ArchiveFighter(context.Background(), storage.ArchiveFighterParams{
		GangID: g.ID, FighterID: ganger.ID, Meta: storage.OpMeta{Actor: "owner-1"},
	})
	if err != nil {
		t.Fatalf("archive fighter: %v", err)
	}
	if archived.Gang.Totals.Rating != 100 {
		t.Fatalf("expected archived fighter out of the rating, got %d", archived.Gang.Totals.Rating)
	}
	if archived.Entries[0].Kind != ledger.KindFighterArchived {
		t.Fatalf("expected archived kind, got %v", archived.Entries[0].Kind)
	}

	visible, err := store.ListFighters(context.Background(), storage.ListFightersRequest{GangID: g.ID})
	if err != nil {
		t.Fatalf("list fighters: %v", err)
	}
	if len(visible) != 1 {
		t.Fatalf("expected archived fighter hidden, got %d fighters", len(visible))
	}
	all, err := store.ListFighters(context.Background(), storage.ListFightersRequest{GangID: g.ID, IncludeArchived: true})
	if err != nil {
		t.Fatalf("list fighters: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 fighters including archived, got %d", len(all))
	}

	restored, err := store.RestoreFighter(context.Background(), storage.RestoreFighterParams{
		GangID: g.ID, FighterID: ganger.ID, Meta: storage.OpMeta{Actor: "owner-1"},
	})
	if err != nil {
		t.Fatalf("restore fighter: %v", err)
	}
	if restored.Gang.Totals.Rating != 150 {
		t.Fatalf("expected rating restored to 150, got %d", restored.Gang.Totals.Rating)
	}
	if restored.Entries[0].Description != "restored Brick" {
		t.Fatalf("unexpected description %q", restored.Entries[0].Description)
	}
}

func TestDeleteFighterCascadesButLedgerSurvives(t *testing.T) {
	store := openTestStore(t)
	seedCatalog(t, store)
	g := seedGang(t, store, "Sump Dogs")
	leader := hireFighter(t, store, g.ID, "leader", "Axle")
	assignment := purchaseEquipment(t, store, g.ID, equipmentInput(leader.ID, "lasgun"))

	result, err := store.DeleteFighter(context.Background(), storage.DeleteFighterParams{
		GangID: g.ID, FighterID: leader.ID, Meta: storage.OpMeta{Actor: "owner-1"},
	})
	if err != nil {
		t.Fatalf("delete fighter: %v", err)
	}
	if result.Gang.Totals.Rating != 0 {
		t.Fatalf("expected rating back to 0, got %d", result.Gang.Totals.Rating)
	}
	if result.Deltas != (ledger.Deltas{Rating: -110}) {
		t.Fatalf("expected deletion delta, got %+v", result.Deltas)
	}

	if _, err := store.GetFighter(context.Background(), leader.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected fighter row gone, got %v", err)
	}
	if _, err := store.GetAssignment(context.Background(), assignment.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected assignment cascade, got %v", err)
	}

	// The history keeps the full trail, deletion included.
	entry, err := store.LatestLedgerEntry(context.Background(), g.ID)
	if err != nil {
		t.Fatalf("latest ledger entry: %v", err)
	}
	if entry == nil || entry.Kind != ledger.KindFighterDeleted {
		t.Fatalf("expected deletion entry, got %+v", entry)
	}
	if entry.Description != "deleted Axle" {
		t.Fatalf("unexpected description %q", entry.Description)
	}
	if entry.FighterID != leader.ID {
		t.Fatalf("expected entry to keep the fighter reference")
	}
}

func TestDeleteStashFighterRejected(t *testing.T) {
	store := openTestStore(t)
	seedCatalog(t, store)
	g := seedGang(t, store, "Sump Dogs")

	result, err := store.HireFighter(context.Background(), storage.HireFighterParams{
		GangID: g.ID,
		Input:  fighter.CreateFighterInput{TemplateRef: "stash", Name: "Stash", IsStash: true},
		Meta:   storage.OpMeta{Actor: "owner-1"},
	})
	if err != nil {
		t.Fatalf("hire stash fighter: %v", err)
	}

	_, err = store.DeleteFighter(context.Background(), storage.DeleteFighterParams{
		GangID: g.ID, FighterID: result.Fighter.ID, Meta: storage.OpMeta{Actor: "owner-1"},
	})
	if !errors.Is(err, fighter.ErrStashFighter) {
		t.Fatalf("expected stash fighter rejection, got %v", err)
	}

	// A second stash fighter is not allowed either.
	_, err = store.HireFighter(context.Background(), storage.HireFighterParams{
		GangID: g.ID,
		Input:  fighter.CreateFighterInput{TemplateRef: "stash", Name: "Stash", IsStash: true},
		Meta:   storage.OpMeta{Actor: "owner-1"},
	})
	if !errors.Is(err, gang.ErrStashFighterExists) {
		t.Fatalf("expected stash uniqueness error, got %v", err)
	}
}

func TestSetFighterCostOverride(t *testing.T) {
	store := openTestStore(t)
	seedCatalog(t, store)
	g := seedGang(t, store, "Sump Dogs")
	leader := hireFighter(t, store, g.ID, "leader", "Axle")

	value := 150
	result, err := store.SetFighterCostOverride(context.Background(), storage.SetFighterCostOverrideParams{
		GangID: g.ID, FighterID: leader.ID, Value: &value, Meta: storage.OpMeta{Actor: "owner-1"},
	})
	if err != nil {
		t.Fatalf("set cost override: %v", err)
	}
	if result.Gang.Totals.Rating != 150 {
		t.Fatalf("expected rating 150, got %d", result.Gang.Totals.Rating)
	}
	if result.Entries[0].Description != "set cost override on Axle to 150" {
		t.Fatalf("unexpected description %q", result.Entries[0].Description)
	}

	// Writing the current value again is a no-op.
	noop, err := store.SetFighterCostOverride(context.Background(), storage.SetFighterCostOverrideParams{
		GangID: g.ID, FighterID: leader.ID, Value: &value, Meta: storage.OpMeta{Actor: "owner-1"},
	})
	if err != nil {
		t.Fatalf("set cost override: %v", err)
	}
	if noop != nil {
		t.Fatalf("expected nil result for unchanged override, got %+v", noop)
	}

	cleared, err := store.SetFighterCostOverride(context.Background(), storage.SetFighterCostOverrideParams{
		GangID: g.ID, FighterID: leader.ID, Value: nil, Meta: storage.OpMeta{Actor: "owner-1"},
	})
	if err != nil {
		t.Fatalf("clear cost override: %v", err)
	}
	if cleared.Gang.Totals.Rating != 100 {
		t.Fatalf("expected rating back to 100, got %d", cleared.Gang.Totals.Rating)
	}
	if cleared.Entries[0].Description != "cleared cost override on Axle" {
		t.Fatalf("unexpected description %q", cleared.Entries[0].Description)
	}
}

func TestGrantXpWritesNoLedgerEntry(t *testing.T) {
	store := openTestStore(t)
	seedCatalog(t, store)
	g := seedGang(t, store, "Sump Dogs")
	leader := hireFighter(t, store, g.ID, "leader", "Axle")

	result, err := store.GrantXp(context.Background(), storage.GrantXpParams{
		GangID: g.ID, FighterID: leader.ID, Amount: 5,
		Meta: storage.OpMeta{Actor: "arbitrator", Narrative: "survived the ambush"},
	})
	if err != nil {
		t.Fatalf("grant xp: %v", err)
	}
	if result.Fighter.Xp != 5 {
		t.Fatalf("expected 5 xp, got %d", result.Fighter.Xp)
	}
	if len(result.Entries) != 0 {
		t.Fatalf("expected no ledger entries, got %d", len(result.Entries))
	}
	if result.Narrative == nil || result.Narrative.Body != "survived the ambush" {
		t.Fatalf("expected narrative record, got %+v", result.Narrative)
	}

	// XP is not a credit total; the last entry is still the hire.
	entry, err := store.LatestLedgerEntry(context.Background(), g.ID)
	if err != nil {
		t.Fatalf("latest ledger entry: %v", err)
	}
	if entry == nil || entry.Kind != ledger.KindFighterHired {
		t.Fatalf("expected hire to stay the latest entry, got %+v", entry)
	}

	_, err = store.GrantXp(context.Background(), storage.GrantXpParams{
		GangID: g.ID, FighterID: leader.ID, Amount: 5, Meta: storage.OpMeta{},
	})
	if !errors.Is(err, ledger.ErrEmptyActor) {
		t.Fatalf("expected empty actor rejection, got %v", err)
	}

	_, err = store.GrantXp(context.Background(), storage.GrantXpParams{
		GangID: g.ID, FighterID: leader.ID, Amount: -1, Meta: storage.OpMeta{Actor: "arbitrator"},
	})
	if !errors.Is(err, fighter.ErrNegativeXp) {
		t.Fatalf("expected negative xp rejection, got %v", err)
	}
}
