// Package content reads YAML catalog documents, validates them against an
// embedded JSON schema, and converts them into the cost engine's lookup
// form. Documents are authored externally; this package is the only door
// they enter through.
package content

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/louisbranch/gangledger/internal/services/roster/domain/cost"
)

// Version is the catalog document version this package accepts.
const Version = "v1"

// Document is one decoded catalog document.
type Document struct {
	Version   string            `yaml:"version"`
	Source    string            `yaml:"source"`
	Templates []TemplateRecord  `yaml:"templates"`
	Equipment []EquipmentRecord `yaml:"equipment"`
}

// TemplateRecord is a fighter template as authored.
type TemplateRecord struct {
	Ref        string         `yaml:"ref"`
	House      string         `yaml:"house"`
	Category   string         `yaml:"category"`
	BaseCost   int            `yaml:"base_cost"`
	HouseCosts map[string]int `yaml:"house_costs"`
}

// EquipmentRecord is an equipment entry as authored.
type EquipmentRecord struct {
	Ref           string            `yaml:"ref"`
	BaseCost      int               `yaml:"base_cost"`
	UpgradeMode   string            `yaml:"upgrade_mode"`
	HouseCosts    map[string]int    `yaml:"house_costs"`
	TemplateCosts map[string]int    `yaml:"template_costs"`
	Profiles      []ProfileRecord   `yaml:"profiles"`
	Accessories   []AccessoryRecord `yaml:"accessories"`
	Upgrades      []UpgradeRecord   `yaml:"upgrades"`
}

// ProfileRecord prices one weapon profile.
type ProfileRecord struct {
	Ref  string `yaml:"ref"`
	Cost int    `yaml:"cost"`
}

// AccessoryRecord prices one accessory, flat or by expression. When both
// are present the expression wins, matching the cost engine.
type AccessoryRecord struct {
	Ref      string `yaml:"ref"`
	Cost     int    `yaml:"cost"`
	CostExpr string `yaml:"cost_expr"`
}

// UpgradeRecord prices one upgrade tier.
type UpgradeRecord struct {
	Ref      string `yaml:"ref"`
	Cost     int    `yaml:"cost"`
	Position int    `yaml:"position"`
}

// Decode validates raw YAML against the catalog schema and decodes it.
func Decode(raw []byte) (Document, error) {
	if err := validateDocument(raw); err != nil {
		return Document{}, err
	}

	var doc Document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return Document{}, fmt.Errorf("decode catalog document: %w", err)
	}
	if doc.Version != Version {
		return Document{}, fmt.Errorf("unsupported catalog version %s", doc.Version)
	}
	return doc, nil
}

// Load reads and decodes a catalog document from disk.
func Load(path string) (Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Document{}, err
	}
	doc, err := Decode(raw)
	if err != nil {
		return Document{}, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Catalog converts the document into the cost engine's lookup form,
// rejecting duplicate refs across the document.
func (d Document) Catalog() (cost.Catalog, error) {
	catalog := cost.Catalog{
		Templates: make(map[string]cost.Template, len(d.Templates)),
		Equipment: make(map[string]cost.Equipment, len(d.Equipment)),
	}

	for _, record := range d.Templates {
		template, err := record.template()
		if err != nil {
			return cost.Catalog{}, err
		}
		if _, ok := catalog.Templates[template.Ref]; ok {
			return cost.Catalog{}, fmt.Errorf("duplicate template ref %s", template.Ref)
		}
		catalog.Templates[template.Ref] = template
	}

	for _, record := range d.Equipment {
		entry, err := record.equipment()
		if err != nil {
			return cost.Catalog{}, err
		}
		if _, ok := catalog.Equipment[entry.Ref]; ok {
			return cost.Catalog{}, fmt.Errorf("duplicate equipment ref %s", entry.Ref)
		}
		catalog.Equipment[entry.Ref] = entry
	}

	return catalog, nil
}

func (r TemplateRecord) template() (cost.Template, error) {
	ref := strings.TrimSpace(r.Ref)
	if ref == "" {
		return cost.Template{}, fmt.Errorf("template ref is required")
	}
	return cost.Template{
		Ref:        ref,
		House:      strings.TrimSpace(r.House),
		Category:   strings.TrimSpace(r.Category),
		BaseCost:   r.BaseCost,
		HouseCosts: copyCosts(r.HouseCosts),
	}, nil
}

func (r EquipmentRecord) equipment() (cost.Equipment, error) {
	ref := strings.TrimSpace(r.Ref)
	if ref == "" {
		return cost.Equipment{}, fmt.Errorf("equipment ref is required")
	}
	mode, err := cost.UpgradeModeFromLabel(r.UpgradeMode)
	if err != nil {
		return cost.Equipment{}, fmt.Errorf("equipment %s: %w", ref, err)
	}

	entry := cost.Equipment{
		Ref:           ref,
		BaseCost:      r.BaseCost,
		UpgradeMode:   mode,
		HouseCosts:    copyCosts(r.HouseCosts),
		TemplateCosts: copyCosts(r.TemplateCosts),
	}

	if len(r.Profiles) > 0 {
		entry.Profiles = make(map[string]int, len(r.Profiles))
		for _, profile := range r.Profiles {
			pref := strings.TrimSpace(profile.Ref)
			if pref == "" {
				return cost.Equipment{}, fmt.Errorf("equipment %s: profile ref is required", ref)
			}
			if _, ok := entry.Profiles[pref]; ok {
				return cost.Equipment{}, fmt.Errorf("equipment %s: duplicate profile ref %s", ref, pref)
			}
			entry.Profiles[pref] = profile.Cost
		}
	}

	if len(r.Accessories) > 0 {
		entry.Accessories = make(map[string]cost.Accessory, len(r.Accessories))
		for _, accessory := range r.Accessories {
			aref := strings.TrimSpace(accessory.Ref)
			if aref == "" {
				return cost.Equipment{}, fmt.Errorf("equipment %s: accessory ref is required", ref)
			}
			if _, ok := entry.Accessories[aref]; ok {
				return cost.Equipment{}, fmt.Errorf("equipment %s: duplicate accessory ref %s", ref, aref)
			}
			entry.Accessories[aref] = cost.Accessory{
				Ref:      aref,
				Cost:     accessory.Cost,
				CostExpr: strings.TrimSpace(accessory.CostExpr),
			}
		}
	}

	if len(r.Upgrades) > 0 {
		entry.Upgrades = make(map[string]cost.Upgrade, len(r.Upgrades))
		for _, upgrade := range r.Upgrades {
			uref := strings.TrimSpace(upgrade.Ref)
			if uref == "" {
				return cost.Equipment{}, fmt.Errorf("equipment %s: upgrade ref is required", ref)
			}
			if _, ok := entry.Upgrades[uref]; ok {
				return cost.Equipment{}, fmt.Errorf("equipment %s: duplicate upgrade ref %s", ref, uref)
			}
			entry.Upgrades[uref] = cost.Upgrade{
				Ref:      uref,
				Cost:     upgrade.Cost,
				Position: upgrade.Position,
			}
		}
	}

	return entry, nil
}

func copyCosts(costs map[string]int) map[string]int {
	if len(costs) == 0 {
		return nil
	}
	out := make(map[string]int, len(costs))
	for key, value := range costs {
		out[key] = value
	}
	return out
}
