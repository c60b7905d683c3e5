// Package ledger holds the append-only action ledger's entry math: before
// and delta bookkeeping for the three gang totals, clamping, and the
// earned-credits accounting. Persistence and sequencing live in the store.
package ledger

import (
	"fmt"
	"strings"
	"time"

	apperrors "github.com/louisbranch/gangledger/internal/platform/errors"
	"github.com/louisbranch/gangledger/internal/platform/id"
	"github.com/louisbranch/gangledger/internal/services/roster/domain/gang"
)

// Kind identifies what operation produced a ledger entry.
type Kind string

const (
	KindFighterHired        Kind = "FIGHTER_HIRED"
	KindEquipmentPurchased  Kind = "EQUIPMENT_PURCHASED"
	KindEquipmentRemoved    Kind = "EQUIPMENT_REMOVED"
	KindEquipmentReassigned Kind = "EQUIPMENT_REASSIGNED"
	KindComponentAdded      Kind = "COMPONENT_ADDED"
	KindComponentRemoved    Kind = "COMPONENT_REMOVED"
	KindCostOverrideSet     Kind = "COST_OVERRIDE_SET"
	KindFighterArchived     Kind = "FIGHTER_ARCHIVED"
	KindFighterRestored     Kind = "FIGHTER_RESTORED"
	KindFighterDeleted      Kind = "FIGHTER_DELETED"
	KindAdvancementApplied  Kind = "ADVANCEMENT_APPLIED"
	KindAdvancementReversed Kind = "ADVANCEMENT_REVERSED"
	KindCreditsAdjusted     Kind = "CREDITS_ADJUSTED"
	KindFighterKilled       Kind = "FIGHTER_KILLED"
	KindFighterResurrected  Kind = "FIGHTER_RESURRECTED"
	KindFighterCaptured     Kind = "FIGHTER_CAPTURED"
	KindCaptiveSold         Kind = "CAPTIVE_SOLD"
	KindCaptiveReturned     Kind = "CAPTIVE_RETURNED"
	KindCaptiveReleased     Kind = "CAPTIVE_RELEASED"
	KindCampaignGenesis     Kind = "CAMPAIGN_GENESIS"
	KindCampaignBudgetTopUp Kind = "CAMPAIGN_BUDGET_TOPUP"
)

var knownKinds = map[Kind]bool{
	KindFighterHired:        true,
	KindEquipmentPurchased:  true,
	KindEquipmentRemoved:    true,
	KindEquipmentReassigned: true,
	KindComponentAdded:      true,
	KindComponentRemoved:    true,
	KindCostOverrideSet:     true,
	KindFighterArchived:     true,
	KindFighterRestored:     true,
	KindFighterDeleted:      true,
	KindAdvancementApplied:  true,
	KindAdvancementReversed: true,
	KindCreditsAdjusted:     true,
	KindFighterKilled:       true,
	KindFighterResurrected:  true,
	KindFighterCaptured:     true,
	KindCaptiveSold:         true,
	KindCaptiveReturned:     true,
	KindCaptiveReleased:     true,
	KindCampaignGenesis:     true,
	KindCampaignBudgetTopUp: true,
}

// KnownKind reports whether a kind belongs to the ledger vocabulary.
func KnownKind(k Kind) bool {
	return knownKinds[k]
}

// EarnMode controls how a credit delta feeds the monotonic credits-earned
// counter.
type EarnMode int

const (
	// EarnModeDefault counts positive credit deltas as earnings. Spends
	// never reduce the earned counter.
	EarnModeDefault EarnMode = iota
	// EarnModeNone marks a non-earning movement, e.g. refunds or seeded
	// clone totals.
	EarnModeNone
	// EarnModeReduce mirrors the credit delta into the earned counter,
	// clamped at 0. Reserved for audit corrections.
	EarnModeReduce
)

// Deltas is one operation's effect on the three running totals.
type Deltas struct {
	Rating  int
	Stash   int
	Credits int
}

// IsZero reports whether the operation moved no value at all.
func (d Deltas) IsZero() bool {
	return d.Rating == 0 && d.Stash == 0 && d.Credits == 0
}

// Entry is one immutable ledger record. Deltas are stored exactly as
// computed, even when applying them clamped a total at 0, so the history
// preserves the true arithmetic.
type Entry struct {
	ID     string
	GangID string
	// Seq is the per-gang append sequence, allocated by the store.
	Seq         uint64
	Kind        Kind
	Description string
	// FighterID and AssignmentID tie the entry to the entities it touched.
	// Either may be empty. They are plain references, not foreign keys:
	// entries outlive hard-deleted fighters.
	FighterID     string
	AssignmentID  string
	RatingBefore  int
	RatingDelta   int
	StashBefore   int
	StashDelta    int
	CreditsBefore int
	CreditsDelta  int
	Actor         string
	CreatedAt     time.Time
}

// ImpliedAfter returns the totals the entry implies once its deltas are
// applied with the 0 floor.
func (e Entry) ImpliedAfter() (rating, stash, credits int) {
	return clamp(e.RatingBefore + e.RatingDelta),
		clamp(e.StashBefore + e.StashDelta),
		clamp(e.CreditsBefore + e.CreditsDelta)
}

var (
	// ErrInvalidKind indicates a kind outside the ledger vocabulary.
	ErrInvalidKind = apperrors.New(apperrors.CodeLedgerInvalidKind, "unknown ledger entry kind")
	// ErrEmptyActor indicates an append without an acting identity.
	ErrEmptyActor = apperrors.New(apperrors.CodeLedgerActorEmpty, "ledger actor is required")
)

// Config controls ledger behavior. Whether the audit trail is kept is
// explicit constructor-time configuration; applying totals never is.
type Config struct {
	AuditEnabled bool
}

// Ledger builds entries and applies their deltas to gang totals.
type Ledger struct {
	cfg   Config
	now   func() time.Time
	newID func() (string, error)
}

// New creates a Ledger. now and idGenerator default to the clock and the
// platform ID generator when nil.
func New(cfg Config, now func() time.Time, idGenerator func() (string, error)) *Ledger {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}
	return &Ledger{cfg: cfg, now: now, newID: idGenerator}
}

// AppendInput describes one entry to append.
type AppendInput struct {
	Kind         Kind
	Description  string
	FighterID    string
	AssignmentID string
	Deltas       Deltas
	EarnMode     EarnMode
	Actor        string
	// Seq is the next per-gang sequence number, allocated by the store.
	Seq uint64
}

// Append builds the entry for one operation and returns the gang totals
// with the deltas applied. When the audit trail is disabled the entry is
// nil but the returned totals still carry the applied deltas.
func (l *Ledger) Append(g gang.Gang, input AppendInput) (*Entry, gang.Totals, error) {
	if !KnownKind(input.Kind) {
		return nil, gang.Totals{}, apperrors.WithMetadata(
			apperrors.CodeLedgerInvalidKind,
			fmt.Sprintf("unknown ledger entry kind: %s", input.Kind),
			map[string]string{"Kind": string(input.Kind)},
		)
	}
	input.Actor = strings.TrimSpace(input.Actor)
	if input.Actor == "" {
		return nil, gang.Totals{}, ErrEmptyActor
	}

	totals := ApplyDeltas(g.Totals, input.Deltas, input.EarnMode)
	if !l.cfg.AuditEnabled {
		return nil, totals, nil
	}

	entryID, err := l.newID()
	if err != nil {
		return nil, gang.Totals{}, fmt.Errorf("generate ledger entry id: %w", err)
	}

	return &Entry{
		ID:            entryID,
		GangID:        g.ID,
		Seq:           input.Seq,
		Kind:          input.Kind,
		Description:   input.Description,
		FighterID:     input.FighterID,
		AssignmentID:  input.AssignmentID,
		RatingBefore:  g.Totals.Rating,
		RatingDelta:   input.Deltas.Rating,
		StashBefore:   g.Totals.Stash,
		StashDelta:    input.Deltas.Stash,
		CreditsBefore: g.Totals.Credits,
		CreditsDelta:  input.Deltas.Credits,
		Actor:         input.Actor,
		CreatedAt:     l.now().UTC(),
	}, totals, nil
}

// ApplyDeltas applies an operation's deltas to gang totals, clamping each
// running total at a floor of 0. The earned counter moves per the mode.
func ApplyDeltas(totals gang.Totals, d Deltas, mode EarnMode) gang.Totals {
	totals.Rating = clamp(totals.Rating + d.Rating)
	totals.Stash = clamp(totals.Stash + d.Stash)
	totals.Credits = clamp(totals.Credits + d.Credits)

	switch mode {
	case EarnModeDefault:
		if d.Credits > 0 {
			totals.CreditsEarned += d.Credits
		}
	case EarnModeReduce:
		totals.CreditsEarned = clamp(totals.CreditsEarned + d.Credits)
	case EarnModeNone:
	}
	return totals
}

func clamp(value int) int {
	if value < 0 {
		return 0
	}
	return value
}

// SyncResult reports a consistency check of live totals against a fresh
// recomputation and the latest ledger entry's implied after-values.
type SyncResult struct {
	GangID     string
	Live       gang.Totals
	Recomputed gang.Totals
	Latest     *Entry
	Issues     []string
}

// Clean reports whether the check found no drift.
func (r SyncResult) Clean() bool {
	return len(r.Issues) == 0
}

// CheckSync compares a gang's live totals against recomputed ones and,
// when a latest entry exists, against that entry's implied after-values.
// Drift is reported for diagnostics, never raised.
func CheckSync(g gang.Gang, recomputed gang.Totals, latest *Entry) SyncResult {
	result := SyncResult{GangID: g.ID, Live: g.Totals, Recomputed: recomputed, Latest: latest}

	if g.Totals.Rating != recomputed.Rating {
		result.Issues = append(result.Issues, fmt.Sprintf("live rating %d != recomputed %d", g.Totals.Rating, recomputed.Rating))
	}
	if g.Totals.Stash != recomputed.Stash {
		result.Issues = append(result.Issues, fmt.Sprintf("live stash %d != recomputed %d", g.Totals.Stash, recomputed.Stash))
	}

	if latest != nil {
		rating, stash, credits := latest.ImpliedAfter()
		if g.Totals.Rating != rating {
			result.Issues = append(result.Issues, fmt.Sprintf("live rating %d != ledger implied %d", g.Totals.Rating, rating))
		}
		if g.Totals.Stash != stash {
			result.Issues = append(result.Issues, fmt.Sprintf("live stash %d != ledger implied %d", g.Totals.Stash, stash))
		}
		if g.Totals.Credits != credits {
			result.Issues = append(result.Issues, fmt.Sprintf("live credits %d != ledger implied %d", g.Totals.Credits, credits))
		}
	}
	return result
}
