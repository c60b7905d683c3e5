// Package storage defines the persistence contracts for the roster service.
//
// Mutating operations are store methods because each one is a single
// database transaction: load the gang's aggregate, compute cost deltas
// against persisted state, verify affordability, mutate rows, and append
// ledger entries, committing or rolling back as one unit. The app layer
// validates input, shapes results, and owns tracing; stores own atomicity.
package storage

import (
	"context"
	"time"

	apperrors "github.com/louisbranch/gangledger/internal/platform/errors"
	"github.com/louisbranch/gangledger/internal/services/roster/domain/advancement"
	"github.com/louisbranch/gangledger/internal/services/roster/domain/cost"
	"github.com/louisbranch/gangledger/internal/services/roster/domain/equipment"
	"github.com/louisbranch/gangledger/internal/services/roster/domain/fighter"
	"github.com/louisbranch/gangledger/internal/services/roster/domain/gang"
	"github.com/louisbranch/gangledger/internal/services/roster/domain/ledger"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = apperrors.New(apperrors.CodeNotFound, "record not found")

// OpMeta carries the fields every mutating operation shares.
type OpMeta struct {
	// Actor identifies who performed the operation. Recorded on ledger
	// entries and narratives.
	Actor string
	// Narrative, when non-empty, is appended to the gang's campaign
	// history in the same transaction as the operation.
	Narrative string
}

// OpResult reports one committed operation. Mutating store methods return
// nil when the operation was a no-op (nothing written, no entry appended).
type OpResult struct {
	// Gang is the primary gang after the operation.
	Gang gang.Gang
	// CounterpartGang is the second gang touched by cross-gang operations
	// (capture, sale, ransom return). Nil otherwise.
	CounterpartGang *gang.Gang
	Fighter         *fighter.Fighter
	Assignment      *equipment.Assignment
	Advancement     *advancement.Advancement
	Capture         *fighter.Capture
	// Entries are the ledger entries appended by the operation in append
	// order, both gangs' included. Empty when the audit trail is disabled.
	Entries []ledger.Entry
	// Narrative is the history record written for the operation, if any.
	Narrative *NarrativeEntry
	// Deltas is the net effect on the primary gang's totals.
	Deltas ledger.Deltas
}

// NarrativeEntry is one free-text campaign history record.
type NarrativeEntry struct {
	ID        string
	GangID    string
	FighterID string
	Body      string
	Actor     string
	CreatedAt time.Time
}

// AuditEvent captures operational observations such as ledger consistency
// warnings, persisted for incident analysis.
type AuditEvent struct {
	ID        string
	Severity  string
	Code      string
	Message   string
	GangID    string
	Metadata  map[string]string
	CreatedAt time.Time
}

// GangSnapshot is a compressed JSON roster snapshot, taken when a gang
// enters a campaign.
type GangSnapshot struct {
	ID      string
	GangID  string
	TakenAt time.Time
	// Payload is zstd-compressed JSON.
	Payload []byte
}

// AssignmentOverrideTarget selects which assignment override to set.
type AssignmentOverrideTarget int

const (
	// OverrideTargetTotal sets the whole-assignment cost override.
	OverrideTargetTotal AssignmentOverrideTarget = iota
	// OverrideTargetBase sets the base-cost override, leaving component
	// costs to apply on top.
	OverrideTargetBase
)

// CreateGangParams creates a gang in Building mode with zeroed totals.
type CreateGangParams struct {
	Input gang.CreateGangInput
	Meta  OpMeta
}

// HireFighterParams adds a fighter to a gang. In CampaignMode the hire
// spends credits equal to the fighter's cost.
type HireFighterParams struct {
	GangID string
	Input  fighter.CreateFighterInput
	Meta   OpMeta
}

// SpawnChildSpec describes the child fighter an equipment purchase creates.
type SpawnChildSpec struct {
	TemplateRef string
	Name        string
}

// PurchaseEquipmentParams assigns equipment to a fighter, optionally
// spawning a linked child fighter.
type PurchaseEquipmentParams struct {
	GangID string
	Input  equipment.CreateAssignmentInput
	// SpawnChild, when set, creates a child fighter linked to the new
	// assignment in the same transaction.
	SpawnChild *SpawnChildSpec
	Meta       OpMeta
}

// RemoveEquipmentParams archives an assignment. Credits move only when a
// refund is explicitly requested.
type RemoveEquipmentParams struct {
	GangID       string
	AssignmentID string
	// RefundCredits returns the assignment's current cost to the gang as a
	// non-earning credit movement.
	RefundCredits bool
	Meta          OpMeta
}

// AddComponentParams adds one component selection to an assignment.
type AddComponentParams struct {
	GangID       string
	AssignmentID string
	Kind         equipment.ComponentKind
	Selection    equipment.Selection
	Meta         OpMeta
}

// RemoveComponentParams removes one component selection from an assignment.
type RemoveComponentParams struct {
	GangID        string
	AssignmentID  string
	Kind          equipment.ComponentKind
	Ref           string
	RefundCredits bool
	Meta          OpMeta
}

// SetFighterCostOverrideParams replaces a fighter's cost override. Setting
// the current value is a no-op.
type SetFighterCostOverrideParams struct {
	GangID    string
	FighterID string
	// Value replaces the override; nil clears it.
	Value *int
	Meta  OpMeta
}

// SetAssignmentCostOverrideParams replaces an assignment override. Setting
// the current value is a no-op.
type SetAssignmentCostOverrideParams struct {
	GangID       string
	AssignmentID string
	Target       AssignmentOverrideTarget
	// Value replaces the override; nil clears it.
	Value *int
	Meta  OpMeta
}

// ReassignEquipmentParams moves an assignment to another fighter of the
// same gang, stash fighter included.
type ReassignEquipmentParams struct {
	GangID       string
	AssignmentID string
	ToFighterID  string
	Meta         OpMeta
}

// ArchiveFighterParams soft-deletes a fighter, removing its rating
// contribution.
type ArchiveFighterParams struct {
	GangID    string
	FighterID string
	Meta      OpMeta
}

// RestoreFighterParams reverses an archive, restoring the freshly
// recomputed cost.
type RestoreFighterParams struct {
	GangID    string
	FighterID string
	Meta      OpMeta
}

// DeleteFighterParams hard-deletes a fighter and cascades its assignments,
// advancements, and captures. Ledger history survives.
type DeleteFighterParams struct {
	GangID    string
	FighterID string
	Meta      OpMeta
}

// ApplyAdvancementParams spends fighter XP on an advancement.
type ApplyAdvancementParams struct {
	GangID string
	Input  advancement.CreateAdvancementInput
	Meta   OpMeta
}

// ReverseAdvancementParams archives an advancement and refunds its XP.
type ReverseAdvancementParams struct {
	GangID        string
	AdvancementID string
	Meta          OpMeta
}

// GrantXpParams adds experience to a fighter. No ledger entry: XP is not a
// credit total.
type GrantXpParams struct {
	GangID    string
	FighterID string
	Amount    int
	Meta      OpMeta
}

// AdjustCreditsParams moves credits directly, in either mode.
type AdjustCreditsParams struct {
	GangID string
	Amount int
	// EarnMode controls the earned-credits counter; audit corrections use
	// ledger.EarnModeReduce.
	EarnMode ledger.EarnMode
	// Reason feeds the entry description.
	Reason string
	Meta   OpMeta
}

// KillFighterParams kills a fighter and moves its equipment to the stash.
type KillFighterParams struct {
	GangID    string
	FighterID string
	Meta      OpMeta
}

// ResurrectFighterParams revives a dead fighter. Equipment stays in the
// stash.
type ResurrectFighterParams struct {
	GangID    string
	FighterID string
	Meta      OpMeta
}

// CaptureFighterParams opens a capture record held by a rival gang.
type CaptureFighterParams struct {
	GangID          string
	FighterID       string
	CapturingGangID string
	Meta            OpMeta
}

// SellCapturedFighterParams sells a captive to a third party for a chosen
// amount, credited to the captor. Terminal.
type SellCapturedFighterParams struct {
	GangID    string
	FighterID string
	Amount    int
	Meta      OpMeta
}

// ReturnCapturedFighterParams returns a captive to its gang, moving the
// ransom between the two gangs when one is asked.
type ReturnCapturedFighterParams struct {
	GangID    string
	FighterID string
	Ransom    int
	Meta      OpMeta
}

// ReleaseCapturedFighterParams releases a captive for nothing.
type ReleaseCapturedFighterParams struct {
	GangID    string
	FighterID string
	Meta      OpMeta
}

// StartCampaignParams transitions every Building gang of a campaign into
// CampaignMode clones, seeded with the campaign budget.
type StartCampaignParams struct {
	CampaignID string
	Budget     int
	Meta       OpMeta
}

// GangCloneResult pairs one original gang with its campaign clone.
type GangCloneResult struct {
	Original gang.Gang
	Clone    gang.Gang
	// Entries are the clone's genesis and budget top-up ledger entries.
	Entries []ledger.Entry
}

// CampaignStartResult reports a committed campaign start.
type CampaignStartResult struct {
	CampaignID string
	Budget     int
	Clones     []GangCloneResult
}

// ListFightersRequest scopes a fighter listing.
type ListFightersRequest struct {
	GangID string
	// IncludeArchived includes soft-deleted fighters.
	IncludeArchived bool
}

// ListLedgerEntriesPageRequest describes a filtered ledger history read.
// The opaque page token is decoded and the filter expression translated
// before the request reaches the store.
type ListLedgerEntriesPageRequest struct {
	// GangID scopes the query to one gang (required).
	GangID string
	// PageSize is the maximum number of entries to return.
	PageSize int
	// CursorSeq is the sequence number to paginate from (0 for first page).
	CursorSeq uint64
	// CursorDir is the pagination direction ("fwd" = seq > cursor, "bwd" =
	// seq < cursor).
	CursorDir string
	// CursorReverse temporarily reverses the sort order to fetch the items
	// nearest the cursor for previous-page navigation.
	CursorReverse bool
	// Descending orders results by seq desc (newest first) when true.
	Descending bool
	// FilterClause is an optional SQL WHERE fragment, already translated
	// and parameterized.
	FilterClause string
	// FilterParams are the positional parameters for the filter clause.
	FilterParams []any
}

// ListLedgerEntriesPageResult contains one page of ledger history.
type ListLedgerEntriesPageResult struct {
	Entries []ledger.Entry
	// HasNextPage indicates more results exist in the forward direction.
	HasNextPage bool
	// HasPrevPage indicates more results exist in the backward direction.
	HasPrevPage bool
	// TotalCount is the total number of entries matching the filter.
	TotalCount int
}

// GangStore persists gangs and their running totals.
type GangStore interface {
	// CreateGang creates a Building-mode gang with zeroed totals.
	CreateGang(ctx context.Context, params CreateGangParams) (*OpResult, error)
	// GetGang retrieves a gang by ID.
	GetGang(ctx context.Context, id string) (gang.Gang, error)
	// ListGangs returns every gang, oldest first.
	ListGangs(ctx context.Context) ([]gang.Gang, error)
	// ListGangsByCampaign returns the gangs linked to a campaign, originals
	// and clones alike.
	ListGangsByCampaign(ctx context.Context, campaignID string) ([]gang.Gang, error)
	// AdjustCredits moves credits directly on one gang.
	AdjustCredits(ctx context.Context, params AdjustCreditsParams) (*OpResult, error)
	// RecomputeGangTotals independently recomputes rating and stash from
	// the entity graph, bypassing the running totals. It is the reference
	// value for the ledger consistency check.
	RecomputeGangTotals(ctx context.Context, gangID string) (gang.Totals, error)
}

// FighterStore persists fighters and runs their lifecycle operations.
type FighterStore interface {
	// HireFighter adds a fighter, spending credits in CampaignMode.
	HireFighter(ctx context.Context, params HireFighterParams) (*OpResult, error)
	// GetFighter retrieves a fighter by ID.
	GetFighter(ctx context.Context, id string) (fighter.Fighter, error)
	// ListFighters returns a gang's fighters.
	ListFighters(ctx context.Context, req ListFightersRequest) ([]fighter.Fighter, error)
	// KillFighter kills a fighter, moving its equipment to the stash.
	KillFighter(ctx context.Context, params KillFighterParams) (*OpResult, error)
	// ResurrectFighter revives a dead fighter at its recomputed cost.
	ResurrectFighter(ctx context.Context, params ResurrectFighterParams) (*OpResult, error)
	// ArchiveFighter soft-deletes a fighter.
	ArchiveFighter(ctx context.Context, params ArchiveFighterParams) (*OpResult, error)
	// RestoreFighter reverses an archive.
	RestoreFighter(ctx context.Context, params RestoreFighterParams) (*OpResult, error)
	// DeleteFighter hard-deletes a fighter and its dependents.
	DeleteFighter(ctx context.Context, params DeleteFighterParams) (*OpResult, error)
	// SetFighterCostOverride replaces the fighter's cost override; nil on
	// no-op.
	SetFighterCostOverride(ctx context.Context, params SetFighterCostOverrideParams) (*OpResult, error)
	// GrantXp adds experience to a fighter.
	GrantXp(ctx context.Context, params GrantXpParams) (*OpResult, error)
}

// EquipmentStore persists equipment assignments and their components.
type EquipmentStore interface {
	// PurchaseEquipment assigns equipment to a fighter, spending credits in
	// CampaignMode and optionally spawning a child fighter.
	PurchaseEquipment(ctx context.Context, params PurchaseEquipmentParams) (*OpResult, error)
	// GetAssignment retrieves an assignment by ID.
	GetAssignment(ctx context.Context, id string) (equipment.Assignment, error)
	// ListAssignments returns a fighter's assignments.
	ListAssignments(ctx context.Context, fighterID string, includeArchived bool) ([]equipment.Assignment, error)
	// RemoveEquipment archives an assignment, optionally refunding credits.
	RemoveEquipment(ctx context.Context, params RemoveEquipmentParams) (*OpResult, error)
	// AddComponent adds one component selection.
	AddComponent(ctx context.Context, params AddComponentParams) (*OpResult, error)
	// RemoveComponent removes one component selection.
	RemoveComponent(ctx context.Context, params RemoveComponentParams) (*OpResult, error)
	// ReassignEquipment moves an assignment between fighters of one gang.
	ReassignEquipment(ctx context.Context, params ReassignEquipmentParams) (*OpResult, error)
	// SetAssignmentCostOverride replaces an assignment override; nil on
	// no-op.
	SetAssignmentCostOverride(ctx context.Context, params SetAssignmentCostOverrideParams) (*OpResult, error)
}

// AdvancementStore persists advancements.
type AdvancementStore interface {
	// ApplyAdvancement spends XP on an advancement, raising the rating.
	ApplyAdvancement(ctx context.Context, params ApplyAdvancementParams) (*OpResult, error)
	// ReverseAdvancement archives an advancement and refunds its XP.
	ReverseAdvancement(ctx context.Context, params ReverseAdvancementParams) (*OpResult, error)
	// ListAdvancements returns a fighter's advancements.
	ListAdvancements(ctx context.Context, fighterID string, includeArchived bool) ([]advancement.Advancement, error)
}

// CaptureStore persists capture records and runs their resolutions.
type CaptureStore interface {
	// CaptureFighter opens a capture record against a rival gang's fighter.
	CaptureFighter(ctx context.Context, params CaptureFighterParams) (*OpResult, error)
	// SellCapturedFighter sells a captive to a third party. Terminal.
	SellCapturedFighter(ctx context.Context, params SellCapturedFighterParams) (*OpResult, error)
	// ReturnCapturedFighter returns a captive, moving the ransom between
	// both gangs in one transaction.
	ReturnCapturedFighter(ctx context.Context, params ReturnCapturedFighterParams) (*OpResult, error)
	// ReleaseCapturedFighter releases a captive for nothing.
	ReleaseCapturedFighter(ctx context.Context, params ReleaseCapturedFighterParams) (*OpResult, error)
	// GetOpenCapture returns a fighter's open capture, ErrNotFound when
	// none.
	GetOpenCapture(ctx context.Context, fighterID string) (fighter.Capture, error)
	// ListCaptures returns a fighter's capture history, newest first.
	ListCaptures(ctx context.Context, fighterID string) ([]fighter.Capture, error)
}

// LedgerStore reads the append-only action ledger.
type LedgerStore interface {
	// ListLedgerEntriesPage returns a paginated, filtered ledger history.
	ListLedgerEntriesPage(ctx context.Context, req ListLedgerEntriesPageRequest) (ListLedgerEntriesPageResult, error)
	// LatestLedgerEntry returns a gang's most recent entry, nil when the
	// ledger is empty.
	LatestLedgerEntry(ctx context.Context, gangID string) (*ledger.Entry, error)
}

// CampaignStore runs the campaign-level gang transition.
type CampaignStore interface {
	// StartCampaign clones every Building gang of the campaign into
	// CampaignMode, seeds ledgers, and snapshots rosters, all in one
	// transaction.
	StartCampaign(ctx context.Context, params StartCampaignParams) (*CampaignStartResult, error)
}

// NarrativeStore reads campaign history records.
type NarrativeStore interface {
	// ListNarrativeEntries returns a gang's narrative records, newest
	// first.
	ListNarrativeEntries(ctx context.Context, gangID string, limit int) ([]NarrativeEntry, error)
}

// AuditEventStore persists operational diagnostics.
type AuditEventStore interface {
	// AppendAuditEvent records one diagnostic event.
	AppendAuditEvent(ctx context.Context, event AuditEvent) error
	// ListAuditEvents returns a gang's diagnostics, newest first.
	ListAuditEvents(ctx context.Context, gangID string, limit int) ([]AuditEvent, error)
}

// SnapshotStore reads roster snapshots.
type SnapshotStore interface {
	// GetLatestGangSnapshot returns a gang's most recent snapshot.
	GetLatestGangSnapshot(ctx context.Context, gangID string) (GangSnapshot, error)
}

// ContentStore persists the read-only content catalog.
type ContentStore interface {
	// PutTemplate upserts a fighter template.
	PutTemplate(ctx context.Context, template cost.Template) error
	// PutEquipment upserts an equipment entry with its component prices.
	PutEquipment(ctx context.Context, entry cost.Equipment) error
	// LoadCatalog loads the whole catalog for the cost engine.
	LoadCatalog(ctx context.Context) (cost.Catalog, error)
}

// Store aggregates every persistence concern of the roster service.
type Store interface {
	GangStore
	FighterStore
	EquipmentStore
	AdvancementStore
	CaptureStore
	LedgerStore
	CampaignStore
	NarrativeStore
	AuditEventStore
	SnapshotStore
	ContentStore

	// Close releases the underlying database.
	Close() error
}
