// Package advancement models fighter advancements bought with experience.
package advancement

import (
	"fmt"
	"strings"
	"time"

	apperrors "github.com/louisbranch/gangledger/internal/platform/errors"
	"github.com/louisbranch/gangledger/internal/platform/id"
)

// Type describes what kind of improvement an advancement grants.
type Type int

const (
	// TypeUnspecified represents an invalid advancement type.
	TypeUnspecified Type = iota
	// TypeCharacteristic raises one of the fighter's stats.
	TypeCharacteristic
	// TypeSkill grants a named skill.
	TypeSkill
	// TypeOther covers freeform advancements.
	TypeOther
)

// Archival is the soft-delete lifecycle tag for advancements. Reversing an
// advancement archives it rather than deleting it.
type Archival int

const (
	// ArchivalActive indicates a live advancement.
	ArchivalActive Archival = iota
	// ArchivalArchived indicates a reversed advancement.
	ArchivalArchived
)

var (
	// ErrEmptyFighterID indicates an advancement without a fighter.
	ErrEmptyFighterID = apperrors.New(apperrors.CodeAdvancementEmptyFighterID, "advancement fighter id is required")
	// ErrEmptyType indicates a missing advancement type.
	ErrEmptyType = apperrors.New(apperrors.CodeAdvancementTypeEmpty, "advancement type is required")
	// ErrInvalidSelection indicates a selection the type does not allow.
	ErrInvalidSelection = apperrors.New(apperrors.CodeAdvancementSelectionInvalid, "advancement selection is invalid")
	// ErrNegativeXpCost indicates a negative experience cost.
	ErrNegativeXpCost = apperrors.New(apperrors.CodeAdvancementXpNegative, "advancement xp cost must not be negative")
	// ErrArchived indicates an operation on a reversed advancement.
	ErrArchived = apperrors.New(apperrors.CodeAdvancementArchived, "advancement is archived")
)

// characteristics is the set of stats a characteristic advancement can raise.
var characteristics = map[string]bool{
	"movement":        true,
	"weapon-skill":    true,
	"ballistic-skill": true,
	"strength":        true,
	"toughness":       true,
	"wounds":          true,
	"initiative":      true,
	"attacks":         true,
	"leadership":      true,
	"cool":            true,
	"willpower":       true,
	"intelligence":    true,
}

// Advancement records one improvement purchased for a fighter.
type Advancement struct {
	ID        string
	FighterID string
	Type      Type
	// Selection names the stat or skill the advancement grants. Free text
	// for TypeOther.
	Selection string
	// XpCost is the experience spent to buy the advancement.
	XpCost int
	// CostIncrease is how much the advancement raises the fighter's cost.
	CostIncrease int
	Archival     Archival
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CreateAdvancementInput describes a new advancement.
type CreateAdvancementInput struct {
	FighterID    string
	Type         Type
	Selection    string
	XpCost       int
	CostIncrease int
}

// CreateAdvancement creates a new advancement with a generated ID.
func CreateAdvancement(input CreateAdvancementInput, now func() time.Time, idGenerator func() (string, error)) (Advancement, error) {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}

	normalized, err := NormalizeCreateAdvancementInput(input)
	if err != nil {
		return Advancement{}, err
	}

	advancementID, err := idGenerator()
	if err != nil {
		return Advancement{}, fmt.Errorf("generate advancement id: %w", err)
	}

	createdAt := now().UTC()
	return Advancement{
		ID:           advancementID,
		FighterID:    normalized.FighterID,
		Type:         normalized.Type,
		Selection:    normalized.Selection,
		XpCost:       normalized.XpCost,
		CostIncrease: normalized.CostIncrease,
		Archival:     ArchivalActive,
		CreatedAt:    createdAt,
		UpdatedAt:    createdAt,
	}, nil
}

// NormalizeCreateAdvancementInput trims and validates advancement input.
// Characteristic advancements must select a known stat; skill advancements
// must select something; freeform advancements may leave it empty.
func NormalizeCreateAdvancementInput(input CreateAdvancementInput) (CreateAdvancementInput, error) {
	input.FighterID = strings.TrimSpace(input.FighterID)
	if input.FighterID == "" {
		return CreateAdvancementInput{}, ErrEmptyFighterID
	}
	if input.XpCost < 0 {
		return CreateAdvancementInput{}, ErrNegativeXpCost
	}

	input.Selection = strings.TrimSpace(input.Selection)
	switch input.Type {
	case TypeCharacteristic:
		if !characteristics[strings.ToLower(input.Selection)] {
			return CreateAdvancementInput{}, apperrors.WithMetadata(
				apperrors.CodeAdvancementSelectionInvalid,
				fmt.Sprintf("unknown characteristic: %s", input.Selection),
				map[string]string{"Selection": input.Selection},
			)
		}
		input.Selection = strings.ToLower(input.Selection)
	case TypeSkill:
		if input.Selection == "" {
			return CreateAdvancementInput{}, ErrInvalidSelection
		}
	case TypeOther:
	default:
		return CreateAdvancementInput{}, ErrEmptyType
	}
	return input, nil
}

// Archive marks an advancement as reversed. The caller refunds the XP and
// backs the cost increase out of the gang rating.
func Archive(a Advancement, now func() time.Time) (Advancement, error) {
	if now == nil {
		now = time.Now
	}
	if a.Archival == ArchivalArchived {
		return Advancement{}, ErrArchived
	}

	a.Archival = ArchivalArchived
	a.UpdatedAt = now().UTC()
	return a, nil
}

// TypeLabel returns a stable label for an advancement type.
func TypeLabel(t Type) string {
	switch t {
	case TypeCharacteristic:
		return "CHARACTERISTIC"
	case TypeSkill:
		return "SKILL"
	case TypeOther:
		return "OTHER"
	default:
		return "UNSPECIFIED"
	}
}

// TypeFromLabel parses a string label into a Type.
func TypeFromLabel(value string) (Type, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return TypeUnspecified, fmt.Errorf("advancement type is required")
	}
	switch strings.ToUpper(trimmed) {
	case "CHARACTERISTIC":
		return TypeCharacteristic, nil
	case "SKILL":
		return TypeSkill, nil
	case "OTHER":
		return TypeOther, nil
	default:
		return TypeUnspecified, fmt.Errorf("unknown advancement type: %s", trimmed)
	}
}
