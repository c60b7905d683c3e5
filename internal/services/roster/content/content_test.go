package content

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/louisbranch/gangledger/internal/services/roster/domain/cost"
)

const sampleDocument = `
version: v1
source: house-lists-2026
templates:
  - ref: leader
    category: LEADER
    base_cost: 100
    house_costs:
      goliath: 120
  - ref: ganger
    category: GANGER
    base_cost: 50
equipment:
  - ref: lasgun
    base_cost: 10
    profiles:
      - ref: hotshot
        cost: 5
    accessories:
      - ref: scope
        cost: 15
      - ref: master-crafted
        cost_expr: "ceil(cost * 0.25 / 5) * 5"
  - ref: combi-weapon
    base_cost: 40
    upgrade_mode: SINGLE
    template_costs:
      leader: 35
    upgrades:
      - ref: melta
        cost: 30
        position: 1
      - ref: plasma
        cost: 20
        position: 2
`

func TestDecodeCatalogDocument(t *testing.T) {
	doc, err := Decode([]byte(sampleDocument))
	if err != nil {
		t.Fatalf("decode document: %v", err)
	}
	if doc.Source != "house-lists-2026" {
		t.Fatalf("expected source, got %q", doc.Source)
	}
	if len(doc.Templates) != 2 || len(doc.Equipment) != 2 {
		t.Fatalf("expected 2 templates and 2 equipment entries, got %d and %d", len(doc.Templates), len(doc.Equipment))
	}

	catalog, err := doc.Catalog()
	if err != nil {
		t.Fatalf("convert catalog: %v", err)
	}

	leader, err := catalog.TemplateByRef("leader")
	if err != nil {
		t.Fatalf("template lookup: %v", err)
	}
	if leader.BaseCost != 100 || leader.HouseCosts["goliath"] != 120 {
		t.Fatalf("unexpected leader pricing: %+v", leader)
	}

	lasgun, err := catalog.EquipmentByRef("lasgun")
	if err != nil {
		t.Fatalf("equipment lookup: %v", err)
	}
	if lasgun.Profiles["hotshot"] != 5 {
		t.Fatalf("unexpected profile cost: %+v", lasgun.Profiles)
	}
	if lasgun.Accessories["scope"].Cost != 15 {
		t.Fatalf("unexpected accessory cost: %+v", lasgun.Accessories)
	}
	if lasgun.Accessories["master-crafted"].CostExpr != "ceil(cost * 0.25 / 5) * 5" {
		t.Fatalf("unexpected accessory expression: %+v", lasgun.Accessories)
	}
	if lasgun.UpgradeMode != cost.UpgradeModeUnspecified {
		t.Fatalf("expected unspecified upgrade mode, got %v", lasgun.UpgradeMode)
	}

	combi, err := catalog.EquipmentByRef("combi-weapon")
	if err != nil {
		t.Fatalf("equipment lookup: %v", err)
	}
	if combi.UpgradeMode != cost.UpgradeModeSingle {
		t.Fatalf("expected single upgrade mode, got %v", combi.UpgradeMode)
	}
	if combi.TemplateCosts["leader"] != 35 {
		t.Fatalf("unexpected template cost: %+v", combi.TemplateCosts)
	}
	if combi.Upgrades["plasma"].Position != 2 {
		t.Fatalf("unexpected upgrade position: %+v", combi.Upgrades)
	}
}

func TestDecodeSchemaViolations(t *testing.T) {
	cases := []struct {
		name string
		doc  string
	}{
		{
			name: "missing version",
			doc:  "source: x\ntemplates: []\n",
		},
		{
			name: "missing source",
			doc:  "version: v1\ntemplates: []\n",
		},
		{
			name: "template without ref",
			doc:  "version: v1\nsource: x\ntemplates:\n  - base_cost: 10\n",
		},
		{
			name: "template without base cost",
			doc:  "version: v1\nsource: x\ntemplates:\n  - ref: leader\n",
		},
		{
			name: "negative base cost",
			doc:  "version: v1\nsource: x\ntemplates:\n  - ref: leader\n    base_cost: -5\n",
		},
		{
			name: "fractional base cost",
			doc:  "version: v1\nsource: x\ntemplates:\n  - ref: leader\n    base_cost: 10.5\n",
		},
		{
			name: "unknown field",
			doc:  "version: v1\nsource: x\ntemplates:\n  - ref: leader\n    base_cost: 10\n    rating: 3\n",
		},
		{
			name: "bad upgrade mode",
			doc:  "version: v1\nsource: x\nequipment:\n  - ref: gun\n    base_cost: 10\n    upgrade_mode: STACKED\n",
		},
		{
			name: "upgrade without cost",
			doc:  "version: v1\nsource: x\nequipment:\n  - ref: gun\n    base_cost: 10\n    upgrades:\n      - ref: melta\n",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Decode([]byte(tc.doc)); err == nil {
				t.Fatalf("expected schema error")
			}
		})
	}
}

func TestDecodeRejectsUnknownVersion(t *testing.T) {
	doc := "version: v2\nsource: x\n"
	_, err := Decode([]byte(doc))
	if err == nil || !strings.Contains(err.Error(), "unsupported catalog version v2") {
		t.Fatalf("expected version error, got %v", err)
	}
}

func TestDecodeRejectsMalformedYAML(t *testing.T) {
	if _, err := Decode([]byte("version: [unclosed")); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestCatalogRejectsDuplicateRefs(t *testing.T) {
	doc := Document{
		Version: Version,
		Source:  "x",
		Templates: []TemplateRecord{
			{Ref: "leader", BaseCost: 100},
			{Ref: "leader", BaseCost: 90},
		},
	}
	if _, err := doc.Catalog(); err == nil || !strings.Contains(err.Error(), "duplicate template ref leader") {
		t.Fatalf("expected duplicate error, got %v", err)
	}

	doc = Document{
		Version: Version,
		Source:  "x",
		Equipment: []EquipmentRecord{
			{Ref: "gun", BaseCost: 10, Upgrades: []UpgradeRecord{
				{Ref: "melta", Cost: 30},
				{Ref: "melta", Cost: 25},
			}},
		},
	}
	if _, err := doc.Catalog(); err == nil || !strings.Contains(err.Error(), "duplicate upgrade ref melta") {
		t.Fatalf("expected duplicate error, got %v", err)
	}
}

func TestLoadReadsDocumentFromDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	if err := os.WriteFile(path, []byte(sampleDocument), 0o600); err != nil {
		t.Fatalf("write document: %v", err)
	}

	doc, err := Load(path)
	if err != nil {
		t.Fatalf("load document: %v", err)
	}
	if len(doc.Templates) != 2 {
		t.Fatalf("expected 2 templates, got %d", len(doc.Templates))
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
