package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/louisbranch/gangledger/internal/services/roster/domain/equipment"
	"github.com/louisbranch/gangledger/internal/services/roster/domain/fighter"
	"github.com/louisbranch/gangledger/internal/services/roster/domain/gang"
	"github.com/louisbranch/gangledger/internal/services/roster/domain/ledger"
	"github.com/louisbranch/gangledger/internal/services/roster/storage"
)

func TestCaptureFighterZeroesCost(t *testing.T) {
	store := openTestStore(t)
	seedCatalog(t, store)
	owner := seedGang(t, store, "Sump Dogs")
	captor := seedGang(t, store, "Rust Rats")
	leader := hireFighter(t, store, owner.ID, "leader", "Axle")

	result, err := store.CaptureFighter(context.Background(), storage.CaptureFighterParams{
		GangID:          owner.ID,
		FighterID:       leader.ID,
		CapturingGangID: captor.ID,
		Meta:            storage.OpMeta{Actor: "arbitrator"},
	})
	if err != nil {
		t.Fatalf("capture fighter: %v", err)
	}
	if result.Deltas != (ledger.Deltas{Rating: -100}) {
		t.Fatalf("expected captive cost zeroed, got %+v", result.Deltas)
	}
	if result.Gang.Totals.Rating != 0 {
		t.Fatalf("expected rating 0, got %d", result.Gang.Totals.Rating)
	}
	if result.Entries[0].Description != "Axle captured by Rust Rats" {
		t.Fatalf("unexpected description %q", result.Entries[0].Description)
	}
	if result.CounterpartGang == nil || result.CounterpartGang.ID != captor.ID {
		t.Fatalf("expected captor as counterpart, got %+v", result.CounterpartGang)
	}
	if result.Capture.Outcome != fighter.OutcomeInCaptivity {
		t.Fatalf("expected open capture, got %v", result.Capture.Outcome)
	}

	open, err := store.GetOpenCapture(context.Background(), leader.ID)
	if err != nil {
		t.Fatalf("get open capture: %v", err)
	}
	if open.CapturingGangID != captor.ID {
		t.Fatalf("expected capture held by %s, got %s", captor.ID, open.CapturingGangID)
	}

	_, err = store.CaptureFighter(context.Background(), storage.CaptureFighterParams{
		GangID:          owner.ID,
		FighterID:       leader.ID,
		CapturingGangID: captor.ID,
		Meta:            storage.OpMeta{Actor: "arbitrator"},
	})
	if !errors.Is(err, fighter.ErrAlreadyCaptive) {
		t.Fatalf("expected already captive, got %v", err)
	}

	// A gang cannot capture its own fighter, and the dead are beyond ransom.
	ganger := hireFighter(t, store, owner.ID, "ganger", "Brick")
	_, err = store.CaptureFighter(context.Background(), storage.CaptureFighterParams{
		GangID:          owner.ID,
		FighterID:       ganger.ID,
		CapturingGangID: owner.ID,
		Meta:            storage.OpMeta{Actor: "arbitrator"},
	})
	if !errors.Is(err, fighter.ErrCaptureSameGang) {
		t.Fatalf("expected same gang rejection, got %v", err)
	}
	if _, err := store.KillFighter(context.Background(), storage.KillFighterParams{
		GangID: owner.ID, FighterID: ganger.ID, Meta: storage.OpMeta{Actor: "arbitrator"},
	}); err != nil {
		t.Fatalf("kill fighter: %v", err)
	}
	_, err = store.CaptureFighter(context.Background(), storage.CaptureFighterParams{
		GangID:          owner.ID,
		FighterID:       ganger.ID,
		CapturingGangID: captor.ID,
		Meta:            storage.OpMeta{Actor: "arbitrator"},
	})
	if !errors.Is(err, fighter.ErrCaptureDead) {
		t.Fatalf("expected dead fighter rejection, got %v", err)
	}
}

func TestSellCapturedFighter(t *testing.T) {
	store := openTestStore(t)
	seedCatalog(t, store)
	owner := seedGang(t, store, "Sump Dogs")
	captor := seedGang(t, store, "Rust Rats")
	leader := hireFighter(t, store, owner.ID, "leader", "Axle")

	if _, err := store.CaptureFighter(context.Background(), storage.CaptureFighterParams{
		GangID: owner.ID, FighterID: leader.ID, CapturingGangID: captor.ID,
		Meta: storage.OpMeta{Actor: "arbitrator"},
	}); err != nil {
		t.Fatalf("capture fighter: %v", err)
	}

	_, err := store.SellCapturedFighter(context.Background(), storage.SellCapturedFighterParams{
		GangID: owner.ID, FighterID: leader.ID, Amount: -1,
		Meta: storage.OpMeta{Actor: "arbitrator"},
	})
	if !errors.Is(err, fighter.ErrNegativeAmount) {
		t.Fatalf("expected negative amount rejection, got %v", err)
	}

	result, err := store.SellCapturedFighter(context.Background(), storage.SellCapturedFighterParams{
		GangID: owner.ID, FighterID: leader.ID, Amount: 30,
		Meta: storage.OpMeta{Actor: "arbitrator"},
	})
	if err != nil {
		t.Fatalf("sell captive: %v", err)
	}
	// The fighter's cost was zeroed at capture and stays zeroed after the
	// sale, so the owner's totals do not move.
	if result.Deltas != (ledger.Deltas{}) {
		t.Fatalf("expected no owner movement, got %+v", result.Deltas)
	}
	if result.Gang.Totals.Rating != 0 {
		t.Fatalf("expected rating still 0, got %d", result.Gang.Totals.Rating)
	}
	if result.CounterpartGang.Totals.Credits != 30 || result.CounterpartGang.Totals.CreditsEarned != 30 {
		t.Fatalf("expected captor to pocket 30, got %+v", result.CounterpartGang.Totals)
	}
	if len(result.Entries) != 2 {
		t.Fatalf("expected owner and captor entries, got %d", len(result.Entries))
	}
	if result.Entries[0].Description != "Axle sold to a third party by Rust Rats" {
		t.Fatalf("unexpected owner description %q", result.Entries[0].Description)
	}
	if result.Entries[1].Description != "sold captive Axle for 30 credits" {
		t.Fatalf("unexpected captor description %q", result.Entries[1].Description)
	}
	if result.Entries[1].GangID != captor.ID {
		t.Fatalf("expected captor entry on captor ledger, got %s", result.Entries[1].GangID)
	}

	if _, err := store.GetOpenCapture(context.Background(), leader.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected capture resolved, got %v", err)
	}
	history, err := store.ListCaptures(context.Background(), leader.ID)
	if err != nil {
		t.Fatalf("list captures: %v", err)
	}
	if len(history) != 1 || history[0].Outcome != fighter.OutcomeSoldToThirdParty {
		t.Fatalf("expected sold capture on record, got %+v", history)
	}

	_, err = store.SellCapturedFighter(context.Background(), storage.SellCapturedFighterParams{
		GangID: owner.ID, FighterID: leader.ID, Amount: 30,
		Meta: storage.OpMeta{Actor: "arbitrator"},
	})
	if !errors.Is(err, fighter.ErrNotCaptive) {
		t.Fatalf("expected not captive, got %v", err)
	}
}

func TestReturnCapturedFighterRansom(t *testing.T) {
	store := openTestStore(t)
	seedCatalog(t, store)
	owner := seedGang(t, store, "Sump Dogs")
	captor := seedGang(t, store, "Rust Rats")
	leader := hireFighter(t, store, owner.ID, "leader", "Axle")

	if _, err := store.CaptureFighter(context.Background(), storage.CaptureFighterParams{
		GangID: owner.ID, FighterID: leader.ID, CapturingGangID: captor.ID,
		Meta: storage.OpMeta{Actor: "arbitrator"},
	}); err != nil {
		t.Fatalf("capture fighter: %v", err)
	}

	// No credits yet; the ransom aborts both sides.
	_, err := store.ReturnCapturedFighter(context.Background(), storage.ReturnCapturedFighterParams{
		GangID: owner.ID, FighterID: leader.ID, Ransom: 50,
		Meta: storage.OpMeta{Actor: "arbitrator"},
	})
	if !errors.Is(err, gang.ErrInsufficientCredits) {
		t.Fatalf("expected insufficient credits, got %v", err)
	}
	if _, err := store.GetOpenCapture(context.Background(), leader.ID); err != nil {
		t.Fatalf("expected capture still open, got %v", err)
	}

	if _, err := store.AdjustCredits(context.Background(), storage.AdjustCreditsParams{
		GangID: owner.ID, Amount: 80, Meta: storage.OpMeta{Actor: "arbitrator"},
	}); err != nil {
		t.Fatalf("adjust credits: %v", err)
	}

	result, err := store.ReturnCapturedFighter(context.Background(), storage.ReturnCapturedFighterParams{
		GangID: owner.ID, FighterID: leader.ID, Ransom: 50,
		Meta: storage.OpMeta{Actor: "arbitrator"},
	})
	if err != nil {
		t.Fatalf("return captive: %v", err)
	}
	// The ransom moves exactly once on each side; the fighter's recomputed
	// cost returns to the rating.
	if result.Deltas != (ledger.Deltas{Rating: 100, Credits: -50}) {
		t.Fatalf("expected ransom and rating restore, got %+v", result.Deltas)
	}
	if result.Gang.Totals.Rating != 100 || result.Gang.Totals.Credits != 30 {
		t.Fatalf("expected rating 100 credits 30, got %+v", result.Gang.Totals)
	}
	if result.CounterpartGang.Totals.Credits != 50 || result.CounterpartGang.Totals.CreditsEarned != 50 {
		t.Fatalf("expected captor ransom 50, got %+v", result.CounterpartGang.Totals)
	}
	if len(result.Entries) != 2 {
		t.Fatalf("expected owner and captor entries, got %d", len(result.Entries))
	}
	if result.Entries[0].Description != "Axle returned by Rust Rats for a 50 credit ransom" {
		t.Fatalf("unexpected owner description %q", result.Entries[0].Description)
	}
	if result.Entries[1].Description != "collected 50 credit ransom for Axle" {
		t.Fatalf("unexpected captor description %q", result.Entries[1].Description)
	}
	if result.Capture.RansomPaid != 50 {
		t.Fatalf("expected ransom on record, got %d", result.Capture.RansomPaid)
	}
}

func TestReturnCapturedFighterWithoutRansom(t *testing.T) {
	store := openTestStore(t)
	seedCatalog(t, store)
	owner := seedGang(t, store, "Sump Dogs")
	captor := seedGang(t, store, "Rust Rats")
	leader := hireFighter(t, store, owner.ID, "leader", "Axle")

	if _, err := store.CaptureFighter(context.Background(), storage.CaptureFighterParams{
		GangID: owner.ID, FighterID: leader.ID, CapturingGangID: captor.ID,
		Meta: storage.OpMeta{Actor: "arbitrator"},
	}); err != nil {
		t.Fatalf("capture fighter: %v", err)
	}

	result, err := store.ReturnCapturedFighter(context.Background(), storage.ReturnCapturedFighterParams{
		GangID: owner.ID, FighterID: leader.ID,
		Meta: storage.OpMeta{Actor: "arbitrator"},
	})
	if err != nil {
		t.Fatalf("return captive: %v", err)
	}
	if result.Deltas != (ledger.Deltas{Rating: 100}) {
		t.Fatalf("expected rating restore only, got %+v", result.Deltas)
	}
	if result.Entries[0].Description != "Axle returned by Rust Rats" {
		t.Fatalf("unexpected description %q", result.Entries[0].Description)
	}
	// No ransom, no captor entry.
	if len(result.Entries) != 1 {
		t.Fatalf("expected owner entry only, got %d", len(result.Entries))
	}
	if result.CounterpartGang.Totals.Credits != 0 {
		t.Fatalf("expected captor untouched, got %+v", result.CounterpartGang.Totals)
	}
}

func TestReleaseCapturedFighter(t *testing.T) {
	store := openTestStore(t)
	seedCatalog(t, store)
	owner := seedGang(t, store, "Sump Dogs")
	captor := seedGang(t, store, "Rust Rats")
	leader := hireFighter(t, store, owner.ID, "leader", "Axle")

	if _, err := store.CaptureFighter(context.Background(), storage.CaptureFighterParams{
		GangID: owner.ID, FighterID: leader.ID, CapturingGangID: captor.ID,
		Meta: storage.OpMeta{Actor: "arbitrator"},
	}); err != nil {
		t.Fatalf("capture fighter: %v", err)
	}

	result, err := store.ReleaseCapturedFighter(context.Background(), storage.ReleaseCapturedFighterParams{
		GangID: owner.ID, FighterID: leader.ID,
		Meta: storage.OpMeta{Actor: "arbitrator"},
	})
	if err != nil {
		t.Fatalf("release captive: %v", err)
	}
	if result.Deltas != (ledger.Deltas{Rating: 100}) {
		t.Fatalf("expected rating restore, got %+v", result.Deltas)
	}
	if result.Entries[0].Kind != ledger.KindCaptiveReleased {
		t.Fatalf("expected release kind, got %v", result.Entries[0].Kind)
	}
	if result.Entries[0].Description != "Axle released by Rust Rats" {
		t.Fatalf("unexpected description %q", result.Entries[0].Description)
	}

	history, err := store.ListCaptures(context.Background(), leader.ID)
	if err != nil {
		t.Fatalf("list captures: %v", err)
	}
	if len(history) != 1 || history[0].Outcome != fighter.OutcomeReleased {
		t.Fatalf("expected released capture on record, got %+v", history)
	}
	if history[0].ResolvedAt == nil {
		t.Fatal("expected resolution timestamp")
	}
}

func TestCaptureOrphansSpawningAssignment(t *testing.T) {
	store := openTestStore(t)
	seedCatalog(t, store)
	owner := seedGang(t, store, "Sump Dogs")
	captor := seedGang(t, store, "Rust Rats")
	leader := hireFighter(t, store, owner.ID, "leader", "Axle")

	purchased, err := store.PurchaseEquipment(context.Background(), storage.PurchaseEquipmentParams{
		GangID:     owner.ID,
		Input:      equipmentInput(leader.ID, "ridgerunner"),
		SpawnChild: &storage.SpawnChildSpec{TemplateRef: "crew", Name: "Dusty"},
		Meta:       storage.OpMeta{Actor: "owner-1"},
	})
	if err != nil {
		t.Fatalf("purchase equipment: %v", err)
	}
	child := purchased.Fighter

	result, err := store.CaptureFighter(context.Background(), storage.CaptureFighterParams{
		GangID:          owner.ID,
		FighterID:       child.ID,
		CapturingGangID: captor.ID,
		Meta:            storage.OpMeta{Actor: "arbitrator"},
	})
	if err != nil {
		t.Fatalf("capture fighter: %v", err)
	}

	// The child itself costs nothing; the vehicle that spawned it is
	// orphaned and its value leaves the rating.
	if len(result.Entries) != 2 {
		t.Fatalf("expected capture and orphan entries, got %d", len(result.Entries))
	}
	if result.Entries[0].Kind != ledger.KindFighterCaptured {
		t.Fatalf("expected capture entry first, got %v", result.Entries[0].Kind)
	}
	if result.Entries[0].RatingDelta != 0 || result.Entries[0].StashDelta != 0 {
		t.Fatalf("expected no movement for the child, got %+v", result.Entries[0])
	}
	if result.Entries[1].Kind != ledger.KindEquipmentRemoved {
		t.Fatalf("expected orphan entry second, got %v", result.Entries[1].Kind)
	}
	if result.Entries[1].Description != "removed ridgerunner, its crew member Dusty was captured" {
		t.Fatalf("unexpected description %q", result.Entries[1].Description)
	}
	if result.Deltas != (ledger.Deltas{Rating: -55}) {
		t.Fatalf("expected the vehicle value gone, got %+v", result.Deltas)
	}
	if result.Gang.Totals.Rating != 100 {
		t.Fatalf("expected rating 100, got %d", result.Gang.Totals.Rating)
	}

	live, err := store.ListAssignments(context.Background(), leader.ID, false)
	if err != nil {
		t.Fatalf("list assignments: %v", err)
	}
	if len(live) != 0 {
		t.Fatalf("expected the spawning assignment archived, got %d live", len(live))
	}
	all, err := store.ListAssignments(context.Background(), leader.ID, true)
	if err != nil {
		t.Fatalf("list assignments: %v", err)
	}
	if len(all) != 1 || all[0].Archival != equipment.ArchivalArchived {
		t.Fatalf("expected one archived assignment, got %+v", all)
	}
}
