package cost

import (
	"fmt"
	"strings"

	apperrors "github.com/louisbranch/gangledger/internal/platform/errors"
	"github.com/louisbranch/gangledger/internal/services/roster/domain/equipment"
)

// UpgradeMode controls how selected upgrades stack on one assignment.
type UpgradeMode int

const (
	// UpgradeModeUnspecified stacks like UpgradeModeMulti.
	UpgradeModeUnspecified UpgradeMode = iota
	// UpgradeModeSingle caps the contribution to the single most expensive
	// selected upgrade.
	UpgradeModeSingle
	// UpgradeModeMulti sums every selected upgrade.
	UpgradeModeMulti
)

// Catalog is the read-only content the cost engine prices against. It is
// loaded once from the content pipeline and shared across gangs.
type Catalog struct {
	Templates map[string]Template
	Equipment map[string]Equipment
}

// Template is a fighter cost/stat template.
type Template struct {
	Ref      string
	House    string
	Category string
	BaseCost int
	// HouseCosts replaces BaseCost for gangs of the named house.
	HouseCosts map[string]int
}

// Equipment is one catalog entry with its component price lists.
type Equipment struct {
	Ref         string
	BaseCost    int
	UpgradeMode UpgradeMode
	// HouseCosts replaces BaseCost for gangs of the named house.
	HouseCosts map[string]int
	// TemplateCosts replaces BaseCost for holders of the named template.
	// More specific than HouseCosts.
	TemplateCosts map[string]int
	// Profiles maps profile refs to flat costs.
	Profiles map[string]int
	// Accessories maps accessory refs to their pricing.
	Accessories map[string]Accessory
	// Upgrades maps upgrade refs to their pricing.
	Upgrades map[string]Upgrade
}

// Accessory prices an equipment add-on, either flat or relative to the
// assignment's base cost via a cost expression.
type Accessory struct {
	Ref  string
	Cost int
	// CostExpr, when set, prices the accessory by evaluating the
	// expression against the assignment's base cost.
	CostExpr string
}

// Upgrade prices one upgrade tier.
type Upgrade struct {
	Ref  string
	Cost int
	// Position orders tiers within the equipment entry.
	Position int
}

// TemplateByRef looks up a fighter template.
func (c Catalog) TemplateByRef(ref string) (Template, error) {
	t, ok := c.Templates[ref]
	if !ok {
		return Template{}, apperrors.WithMetadata(
			apperrors.CodeTemplateUnknown,
			fmt.Sprintf("unknown fighter template: %s", ref),
			map[string]string{"Ref": ref},
		)
	}
	return t, nil
}

// EquipmentByRef looks up an equipment entry.
func (c Catalog) EquipmentByRef(ref string) (Equipment, error) {
	e, ok := c.Equipment[ref]
	if !ok {
		return Equipment{}, apperrors.WithMetadata(
			apperrors.CodeEquipmentUnknown,
			fmt.Sprintf("unknown equipment: %s", ref),
			map[string]string{"Ref": ref},
		)
	}
	return e, nil
}

// HasComponent reports whether the equipment entry defines the component.
func (e Equipment) HasComponent(kind equipment.ComponentKind, ref string) bool {
	switch kind {
	case equipment.ComponentProfile:
		_, ok := e.Profiles[ref]
		return ok
	case equipment.ComponentAccessory:
		_, ok := e.Accessories[ref]
		return ok
	case equipment.ComponentUpgrade:
		_, ok := e.Upgrades[ref]
		return ok
	default:
		return false
	}
}

// UpgradeModeLabel returns a stable label for an upgrade mode.
func UpgradeModeLabel(mode UpgradeMode) string {
	switch mode {
	case UpgradeModeSingle:
		return "SINGLE"
	case UpgradeModeMulti:
		return "MULTI"
	default:
		return "UNSPECIFIED"
	}
}

// UpgradeModeFromLabel parses a string label into an UpgradeMode.
func UpgradeModeFromLabel(value string) (UpgradeMode, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return UpgradeModeUnspecified, nil
	}
	switch strings.ToUpper(trimmed) {
	case "SINGLE":
		return UpgradeModeSingle, nil
	case "MULTI":
		return UpgradeModeMulti, nil
	default:
		return UpgradeModeUnspecified, fmt.Errorf("unknown upgrade mode: %s", trimmed)
	}
}
