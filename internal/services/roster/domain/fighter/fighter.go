// Package fighter models roster members, their lifecycle, and capture records.
package fighter

import (
	"fmt"
	"strings"
	"time"

	apperrors "github.com/louisbranch/gangledger/internal/platform/errors"
	"github.com/louisbranch/gangledger/internal/platform/id"
)

// Status describes the alive/dead lifecycle of a fighter.
type Status int

const (
	// StatusUnspecified represents an invalid fighter status value.
	StatusUnspecified Status = iota
	// StatusActive indicates a fighter available to the roster.
	StatusActive
	// StatusDead indicates a killed fighter. Dead fighters cost 0.
	StatusDead
)

// Archival is the soft-delete lifecycle tag. Archived entities are kept for
// history and excluded from cost at every query boundary.
type Archival int

const (
	// ArchivalActive indicates a live entity.
	ArchivalActive Archival = iota
	// ArchivalArchived indicates a soft-deleted entity.
	ArchivalArchived
)

var (
	// ErrEmptyGangID indicates a fighter without an owning gang.
	ErrEmptyGangID = apperrors.New(apperrors.CodeFighterEmptyGangID, "fighter gang id is required")
	// ErrEmptyName indicates a missing fighter name.
	ErrEmptyName = apperrors.New(apperrors.CodeFighterNameEmpty, "fighter name is required")
	// ErrEmptyTemplate indicates a missing cost/stat template reference.
	ErrEmptyTemplate = apperrors.New(apperrors.CodeFighterTemplateEmpty, "fighter template is required")
	// ErrInvalidStatusTransition indicates a disallowed fighter lifecycle move.
	ErrInvalidStatusTransition = apperrors.New(apperrors.CodeFighterInvalidStatusTransition, "fighter status transition is not allowed")
	// ErrArchived indicates an operation on an archived fighter.
	ErrArchived = apperrors.New(apperrors.CodeFighterArchived, "fighter is archived")
	// ErrNotArchived indicates a restore of a fighter that is not archived.
	ErrNotArchived = apperrors.New(apperrors.CodeFighterNotArchived, "fighter is not archived")
	// ErrStashFighter indicates a lifecycle operation aimed at the stash fighter.
	ErrStashFighter = apperrors.New(apperrors.CodeFighterIsStash, "operation not allowed on the stash fighter")
	// ErrInsufficientXp indicates an XP spend larger than the fighter's pool.
	ErrInsufficientXp = apperrors.New(apperrors.CodeFighterInsufficientXp, "fighter does not have enough xp")
	// ErrNegativeXp indicates a negative XP amount.
	ErrNegativeXp = apperrors.New(apperrors.CodeFighterXpNegative, "xp amount must not be negative")
)

// Fighter represents one roster member.
type Fighter struct {
	ID     string
	GangID string
	// TemplateRef identifies the cost/stat template in the content catalog.
	TemplateRef string
	Name        string
	Status      Status
	Archival    Archival
	// Xp is the fighter's unspent experience pool.
	Xp int
	// CostOverride replaces the computed cost outright when set.
	CostOverride *int
	// CategoryOverride replaces the template category label when set.
	CategoryOverride string
	// IsStash marks the synthetic fighter that holds unequipped gear.
	// At most one per gang.
	IsStash bool
	// IsChild marks a fighter generated by another fighter's equipment.
	// Child fighters always cost 0 themselves.
	IsChild bool
	// SpawnedByAssignmentID links a child fighter back to the equipment
	// assignment that created it. Empty for regular fighters.
	SpawnedByAssignmentID string
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// CreateFighterInput describes the metadata needed to create a fighter.
type CreateFighterInput struct {
	GangID      string
	TemplateRef string
	Name        string
	IsStash     bool
	IsChild     bool
	// SpawnedByAssignmentID is set when the fighter is created as the child
	// of an equipment assignment.
	SpawnedByAssignmentID string
}

// CreateFighter creates a new active fighter with a generated ID.
func CreateFighter(input CreateFighterInput, now func() time.Time, idGenerator func() (string, error)) (Fighter, error) {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}

	normalized, err := NormalizeCreateFighterInput(input)
	if err != nil {
		return Fighter{}, err
	}

	fighterID, err := idGenerator()
	if err != nil {
		return Fighter{}, fmt.Errorf("generate fighter id: %w", err)
	}

	createdAt := now().UTC()
	return Fighter{
		ID:                    fighterID,
		GangID:                normalized.GangID,
		TemplateRef:           normalized.TemplateRef,
		Name:                  normalized.Name,
		Status:                StatusActive,
		Archival:              ArchivalActive,
		IsStash:               normalized.IsStash,
		IsChild:               normalized.IsChild,
		SpawnedByAssignmentID: normalized.SpawnedByAssignmentID,
		CreatedAt:             createdAt,
		UpdatedAt:             createdAt,
	}, nil
}

// NormalizeCreateFighterInput trims and validates fighter input metadata.
func NormalizeCreateFighterInput(input CreateFighterInput) (CreateFighterInput, error) {
	input.GangID = strings.TrimSpace(input.GangID)
	if input.GangID == "" {
		return CreateFighterInput{}, ErrEmptyGangID
	}
	input.TemplateRef = strings.TrimSpace(input.TemplateRef)
	if input.TemplateRef == "" {
		return CreateFighterInput{}, ErrEmptyTemplate
	}
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return CreateFighterInput{}, ErrEmptyName
	}
	input.SpawnedByAssignmentID = strings.TrimSpace(input.SpawnedByAssignmentID)
	return input, nil
}

// Kill transitions a fighter to dead and pins its cost to 0 via an override.
// Equipment is not touched here; the caller moves it to the stash.
func Kill(f Fighter, now func() time.Time) (Fighter, error) {
	if now == nil {
		now = time.Now
	}
	if f.Archival == ArchivalArchived {
		return Fighter{}, ErrArchived
	}
	if f.IsStash {
		return Fighter{}, ErrStashFighter
	}
	if !isStatusTransitionAllowed(f.Status, StatusDead) {
		return Fighter{}, transitionError(f.Status, StatusDead)
	}

	zero := 0
	updated := f
	updated.Status = StatusDead
	updated.CostOverride = &zero
	updated.UpdatedAt = now().UTC()
	return updated, nil
}

// Resurrect transitions a dead fighter back to active and clears the kill
// override so its cost is computed fresh again.
func Resurrect(f Fighter, now func() time.Time) (Fighter, error) {
	if now == nil {
		now = time.Now
	}
	if f.Archival == ArchivalArchived {
		return Fighter{}, ErrArchived
	}
	if !isStatusTransitionAllowed(f.Status, StatusActive) {
		return Fighter{}, transitionError(f.Status, StatusActive)
	}

	updated := f
	updated.Status = StatusActive
	updated.CostOverride = nil
	updated.UpdatedAt = now().UTC()
	return updated, nil
}

// Archive soft-deletes a fighter. Archived fighters keep their history and
// stop contributing to gang totals.
func Archive(f Fighter, now func() time.Time) (Fighter, error) {
	if now == nil {
		now = time.Now
	}
	if f.Archival == ArchivalArchived {
		return Fighter{}, ErrArchived
	}
	if f.IsStash {
		return Fighter{}, ErrStashFighter
	}

	updated := f
	updated.Archival = ArchivalArchived
	updated.UpdatedAt = now().UTC()
	return updated, nil
}

// Restore reverses an archive.
func Restore(f Fighter, now func() time.Time) (Fighter, error) {
	if now == nil {
		now = time.Now
	}
	if f.Archival != ArchivalArchived {
		return Fighter{}, ErrNotArchived
	}

	updated := f
	updated.Archival = ArchivalActive
	updated.UpdatedAt = now().UTC()
	return updated, nil
}

// SetCostOverride replaces the fighter's cost override. The boolean reports
// whether anything changed; setting the current value is a no-op.
func SetCostOverride(f Fighter, value *int, now func() time.Time) (Fighter, bool, error) {
	if now == nil {
		now = time.Now
	}
	if f.Archival == ArchivalArchived {
		return Fighter{}, false, ErrArchived
	}
	if overrideEqual(f.CostOverride, value) {
		return f, false, nil
	}

	updated := f
	if value == nil {
		updated.CostOverride = nil
	} else {
		v := *value
		updated.CostOverride = &v
	}
	updated.UpdatedAt = now().UTC()
	return updated, true, nil
}

// GrantXp adds experience to the fighter's pool.
func GrantXp(f Fighter, amount int, now func() time.Time) (Fighter, error) {
	if now == nil {
		now = time.Now
	}
	if amount < 0 {
		return Fighter{}, ErrNegativeXp
	}
	if f.Archival == ArchivalArchived {
		return Fighter{}, ErrArchived
	}

	updated := f
	updated.Xp += amount
	updated.UpdatedAt = now().UTC()
	return updated, nil
}

// SpendXp removes experience from the fighter's pool, rejecting overdrafts.
func SpendXp(f Fighter, amount int, now func() time.Time) (Fighter, error) {
	if now == nil {
		now = time.Now
	}
	if amount < 0 {
		return Fighter{}, ErrNegativeXp
	}
	if f.Xp < amount {
		return Fighter{}, apperrors.WithMetadata(
			apperrors.CodeFighterInsufficientXp,
			fmt.Sprintf("fighter %s has %d xp, needs %d", f.ID, f.Xp, amount),
			map[string]string{"FighterID": f.ID, "Available": fmt.Sprint(f.Xp), "Needed": fmt.Sprint(amount)},
		)
	}

	updated := f
	updated.Xp -= amount
	updated.UpdatedAt = now().UTC()
	return updated, nil
}

func overrideEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// isStatusTransitionAllowed reports whether a status transition is permitted.
func isStatusTransitionAllowed(from, to Status) bool {
	switch from {
	case StatusActive:
		return to == StatusDead
	case StatusDead:
		return to == StatusActive
	default:
		return false
	}
}

func transitionError(from, to Status) error {
	fromStatus := StatusLabel(from)
	toStatus := StatusLabel(to)
	return apperrors.WithMetadata(
		apperrors.CodeFighterInvalidStatusTransition,
		fmt.Sprintf("fighter status transition not allowed: %s -> %s", fromStatus, toStatus),
		map[string]string{"FromStatus": fromStatus, "ToStatus": toStatus},
	)
}

// StatusLabel returns a stable label for a fighter status.
func StatusLabel(status Status) string {
	switch status {
	case StatusActive:
		return "ACTIVE"
	case StatusDead:
		return "DEAD"
	default:
		return "UNSPECIFIED"
	}
}

// StatusFromLabel parses a string label into a Status.
func StatusFromLabel(value string) (Status, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return StatusUnspecified, fmt.Errorf("fighter status is required")
	}
	switch strings.ToUpper(trimmed) {
	case "ACTIVE":
		return StatusActive, nil
	case "DEAD":
		return StatusDead, nil
	default:
		return StatusUnspecified, fmt.Errorf("unknown fighter status: %s", trimmed)
	}
}

// ArchivalLabel returns a stable label for an archival tag.
func ArchivalLabel(a Archival) string {
	if a == ArchivalArchived {
		return "ARCHIVED"
	}
	return "ACTIVE"
}

// ArchivalFromLabel parses a string label into an Archival tag.
func ArchivalFromLabel(value string) (Archival, error) {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case "ACTIVE":
		return ArchivalActive, nil
	case "ARCHIVED":
		return ArchivalArchived, nil
	default:
		return ArchivalActive, fmt.Errorf("unknown archival tag: %s", value)
	}
}
