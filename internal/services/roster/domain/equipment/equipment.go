// Package equipment models equipment assignments and their components.
//
// An assignment binds one piece of catalog equipment to one fighter and
// carries the component selections (profiles, accessories, upgrades) that
// shape its cost. Assignments move between fighters as whole units.
package equipment

import (
	"fmt"
	"strings"
	"time"

	apperrors "github.com/louisbranch/gangledger/internal/platform/errors"
	"github.com/louisbranch/gangledger/internal/platform/id"
)

// Archival is the soft-delete lifecycle tag for assignments.
type Archival int

const (
	// ArchivalActive indicates a live assignment.
	ArchivalActive Archival = iota
	// ArchivalArchived indicates a soft-deleted assignment.
	ArchivalArchived
)

// ComponentKind identifies which component list a selection belongs to.
type ComponentKind int

const (
	// ComponentUnspecified represents an invalid component kind.
	ComponentUnspecified ComponentKind = iota
	// ComponentProfile selects a firing or damage profile.
	ComponentProfile
	// ComponentAccessory selects an add-on with its own cost.
	ComponentAccessory
	// ComponentUpgrade selects an upgrade tier.
	ComponentUpgrade
)

var (
	// ErrEmptyFighterID indicates an assignment without a holding fighter.
	ErrEmptyFighterID = apperrors.New(apperrors.CodeAssignmentEmptyFighterID, "assignment fighter id is required")
	// ErrEmptyEquipment indicates a missing catalog equipment reference.
	ErrEmptyEquipment = apperrors.New(apperrors.CodeAssignmentEquipmentEmpty, "equipment reference is required")
	// ErrArchived indicates an operation on an archived assignment.
	ErrArchived = apperrors.New(apperrors.CodeAssignmentArchived, "assignment is archived")
	// ErrComponentUnknown indicates a component kind outside the known set.
	ErrComponentUnknown = apperrors.New(apperrors.CodeAssignmentComponentUnknown, "unknown component kind")
	// ErrComponentDuplicate indicates adding a component ref twice.
	ErrComponentDuplicate = apperrors.New(apperrors.CodeAssignmentComponentDuplicate, "component is already selected")
	// ErrComponentMissing indicates removing a component ref that is not selected.
	ErrComponentMissing = apperrors.New(apperrors.CodeAssignmentComponentMissing, "component is not selected")
)

// Selection is one chosen component on an assignment.
type Selection struct {
	// Ref identifies the component within the equipment's catalog entry.
	Ref string
	// CostOverride replaces the component's resolved cost when set.
	CostOverride *int
}

// Assignment binds a piece of equipment to a fighter.
type Assignment struct {
	ID        string
	FighterID string
	// EquipmentRef identifies the equipment in the content catalog.
	EquipmentRef string
	Archival     Archival
	// BaseCostOverride replaces the equipment's base cost when set.
	// Component costs still apply on top.
	BaseCostOverride *int
	// TotalCostOverride replaces the assignment's whole cost when set,
	// components included.
	TotalCostOverride *int
	// ChildCostOnly excludes the assignment from its holder's cost. Used
	// for gear whose value is represented by a spawned child fighter.
	ChildCostOnly bool
	// SpawnedFighterID links to the child fighter this assignment
	// generated, if any.
	SpawnedFighterID string
	Profiles         []Selection
	Accessories      []Selection
	Upgrades         []Selection
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// CreateAssignmentInput describes a new equipment assignment.
type CreateAssignmentInput struct {
	FighterID    string
	EquipmentRef string
	// ChildCostOnly marks gear whose value lives on a spawned child fighter.
	ChildCostOnly bool
	Profiles      []Selection
	Accessories   []Selection
	Upgrades      []Selection
}

// CreateAssignment creates a new assignment with a generated ID.
func CreateAssignment(input CreateAssignmentInput, now func() time.Time, idGenerator func() (string, error)) (Assignment, error) {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}

	normalized, err := NormalizeCreateAssignmentInput(input)
	if err != nil {
		return Assignment{}, err
	}

	assignmentID, err := idGenerator()
	if err != nil {
		return Assignment{}, fmt.Errorf("generate assignment id: %w", err)
	}

	createdAt := now().UTC()
	return Assignment{
		ID:            assignmentID,
		FighterID:     normalized.FighterID,
		EquipmentRef:  normalized.EquipmentRef,
		Archival:      ArchivalActive,
		ChildCostOnly: normalized.ChildCostOnly,
		Profiles:      normalized.Profiles,
		Accessories:   normalized.Accessories,
		Upgrades:      normalized.Upgrades,
		CreatedAt:     createdAt,
		UpdatedAt:     createdAt,
	}, nil
}

// NormalizeCreateAssignmentInput trims and validates assignment input,
// rejecting duplicate component refs within a kind.
func NormalizeCreateAssignmentInput(input CreateAssignmentInput) (CreateAssignmentInput, error) {
	input.FighterID = strings.TrimSpace(input.FighterID)
	if input.FighterID == "" {
		return CreateAssignmentInput{}, ErrEmptyFighterID
	}
	input.EquipmentRef = strings.TrimSpace(input.EquipmentRef)
	if input.EquipmentRef == "" {
		return CreateAssignmentInput{}, ErrEmptyEquipment
	}

	for _, selections := range [][]Selection{input.Profiles, input.Accessories, input.Upgrades} {
		seen := make(map[string]bool, len(selections))
		for _, s := range selections {
			ref := strings.TrimSpace(s.Ref)
			if ref == "" {
				return CreateAssignmentInput{}, ErrComponentMissing
			}
			if seen[ref] {
				return CreateAssignmentInput{}, duplicateError(ref)
			}
			seen[ref] = true
		}
	}
	return input, nil
}

// AddComponent appends a selection to the assignment's list for the kind.
// Adding a ref that is already selected fails.
func AddComponent(a Assignment, kind ComponentKind, selection Selection, now func() time.Time) (Assignment, error) {
	if now == nil {
		now = time.Now
	}
	if a.Archival == ArchivalArchived {
		return Assignment{}, ErrArchived
	}
	selection.Ref = strings.TrimSpace(selection.Ref)
	if selection.Ref == "" {
		return Assignment{}, ErrComponentMissing
	}

	list, err := componentList(&a, kind)
	if err != nil {
		return Assignment{}, err
	}
	for _, s := range *list {
		if s.Ref == selection.Ref {
			return Assignment{}, duplicateError(selection.Ref)
		}
	}

	*list = append(*list, selection)
	a.UpdatedAt = now().UTC()
	return a, nil
}

// RemoveComponent drops a selection from the assignment's list for the kind.
// Removing a ref that is not selected fails.
func RemoveComponent(a Assignment, kind ComponentKind, ref string, now func() time.Time) (Assignment, Selection, error) {
	if now == nil {
		now = time.Now
	}
	if a.Archival == ArchivalArchived {
		return Assignment{}, Selection{}, ErrArchived
	}
	ref = strings.TrimSpace(ref)

	list, err := componentList(&a, kind)
	if err != nil {
		return Assignment{}, Selection{}, err
	}
	for i, s := range *list {
		if s.Ref == ref {
			removed := s
			*list = append(append([]Selection{}, (*list)[:i]...), (*list)[i+1:]...)
			a.UpdatedAt = now().UTC()
			return a, removed, nil
		}
	}

	return Assignment{}, Selection{}, apperrors.WithMetadata(
		apperrors.CodeAssignmentComponentMissing,
		fmt.Sprintf("component %s is not selected", ref),
		map[string]string{"Ref": ref, "Kind": ComponentKindLabel(kind)},
	)
}

// Reassign moves the assignment to another fighter. Gang membership checks
// belong to the caller.
func Reassign(a Assignment, fighterID string, now func() time.Time) (Assignment, error) {
	if now == nil {
		now = time.Now
	}
	if a.Archival == ArchivalArchived {
		return Assignment{}, ErrArchived
	}
	fighterID = strings.TrimSpace(fighterID)
	if fighterID == "" {
		return Assignment{}, ErrEmptyFighterID
	}

	a.FighterID = fighterID
	a.UpdatedAt = now().UTC()
	return a, nil
}

// Archive soft-deletes an assignment.
func Archive(a Assignment, now func() time.Time) (Assignment, error) {
	if now == nil {
		now = time.Now
	}
	if a.Archival == ArchivalArchived {
		return Assignment{}, ErrArchived
	}

	a.Archival = ArchivalArchived
	a.UpdatedAt = now().UTC()
	return a, nil
}

// SetBaseCostOverride replaces the base cost override. The boolean reports
// whether anything changed.
func SetBaseCostOverride(a Assignment, value *int, now func() time.Time) (Assignment, bool, error) {
	if now == nil {
		now = time.Now
	}
	if a.Archival == ArchivalArchived {
		return Assignment{}, false, ErrArchived
	}
	if overrideEqual(a.BaseCostOverride, value) {
		return a, false, nil
	}

	a.BaseCostOverride = copyOverride(value)
	a.UpdatedAt = now().UTC()
	return a, true, nil
}

// SetTotalCostOverride replaces the total cost override. The boolean reports
// whether anything changed.
func SetTotalCostOverride(a Assignment, value *int, now func() time.Time) (Assignment, bool, error) {
	if now == nil {
		now = time.Now
	}
	if a.Archival == ArchivalArchived {
		return Assignment{}, false, ErrArchived
	}
	if overrideEqual(a.TotalCostOverride, value) {
		return a, false, nil
	}

	a.TotalCostOverride = copyOverride(value)
	a.UpdatedAt = now().UTC()
	return a, true, nil
}

func componentList(a *Assignment, kind ComponentKind) (*[]Selection, error) {
	switch kind {
	case ComponentProfile:
		return &a.Profiles, nil
	case ComponentAccessory:
		return &a.Accessories, nil
	case ComponentUpgrade:
		return &a.Upgrades, nil
	default:
		return nil, ErrComponentUnknown
	}
}

func duplicateError(ref string) error {
	return apperrors.WithMetadata(
		apperrors.CodeAssignmentComponentDuplicate,
		fmt.Sprintf("component %s is already selected", ref),
		map[string]string{"Ref": ref},
	)
}

func overrideEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func copyOverride(value *int) *int {
	if value == nil {
		return nil
	}
	v := *value
	return &v
}

// ComponentKindLabel returns a stable label for a component kind.
func ComponentKindLabel(kind ComponentKind) string {
	switch kind {
	case ComponentProfile:
		return "PROFILE"
	case ComponentAccessory:
		return "ACCESSORY"
	case ComponentUpgrade:
		return "UPGRADE"
	default:
		return "UNSPECIFIED"
	}
}

// ComponentKindFromLabel parses a string label into a ComponentKind.
func ComponentKindFromLabel(value string) (ComponentKind, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ComponentUnspecified, fmt.Errorf("component kind is required")
	}
	switch strings.ToUpper(trimmed) {
	case "PROFILE":
		return ComponentProfile, nil
	case "ACCESSORY":
		return ComponentAccessory, nil
	case "UPGRADE":
		return ComponentUpgrade, nil
	default:
		return ComponentUnspecified, fmt.Errorf("unknown component kind: %s", trimmed)
	}
}
