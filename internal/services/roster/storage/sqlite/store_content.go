package sqlite

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/louisbranch/gangledger/internal/services/roster/domain/cost"
)

const upsertTemplateSQL = `
INSERT INTO content_templates (ref, house, category, base_cost, house_costs_json)
VALUES (:ref, :house, :category, :base_cost, :house_costs_json)
ON CONFLICT(ref) DO UPDATE SET
    house = excluded.house, category = excluded.category,
    base_cost = excluded.base_cost, house_costs_json = excluded.house_costs_json`

const upsertEquipmentSQL = `
INSERT INTO content_equipment (ref, base_cost, upgrade_mode, house_costs_json, template_costs_json, profiles_json, accessories_json, upgrades_json)
VALUES (:ref, :base_cost, :upgrade_mode, :house_costs_json, :template_costs_json, :profiles_json, :accessories_json, :upgrades_json)
ON CONFLICT(ref) DO UPDATE SET
    base_cost = excluded.base_cost, upgrade_mode = excluded.upgrade_mode,
    house_costs_json = excluded.house_costs_json, template_costs_json = excluded.template_costs_json,
    profiles_json = excluded.profiles_json, accessories_json = excluded.accessories_json,
    upgrades_json = excluded.upgrades_json`

// PutTemplate upserts one fighter template into the content catalog.
func (s *Store) PutTemplate(ctx context.Context, template cost.Template) error {
	if err := s.ready(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	row, err := newContentTemplateRow(template)
	if err != nil {
		return err
	}
	if _, err := s.db.NamedExecContext(ctx, upsertTemplateSQL, row); err != nil {
		return fmt.Errorf("upsert content template: %w", err)
	}
	return nil
}

// PutEquipment upserts one equipment entry with its component prices.
func (s *Store) PutEquipment(ctx context.Context, entry cost.Equipment) error {
	if err := s.ready(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	row, err := newContentEquipmentRow(entry)
	if err != nil {
		return err
	}
	if _, err := s.db.NamedExecContext(ctx, upsertEquipmentSQL, row); err != nil {
		return fmt.Errorf("upsert content equipment: %w", err)
	}
	return nil
}

// LoadCatalog loads the whole content catalog for the cost engine.
func (s *Store) LoadCatalog(ctx context.Context) (cost.Catalog, error) {
	if err := s.ready(); err != nil {
		return cost.Catalog{}, err
	}
	if err := ctx.Err(); err != nil {
		return cost.Catalog{}, err
	}

	var catalog cost.Catalog
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		loaded, err := s.loadCatalogTx(ctx, tx)
		if err != nil {
			return err
		}
		catalog = loaded
		return nil
	})
	if err != nil {
		return cost.Catalog{}, err
	}
	return catalog, nil
}
