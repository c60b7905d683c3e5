package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/louisbranch/gangledger/internal/services/roster/domain/cost"
	"github.com/louisbranch/gangledger/internal/services/roster/domain/gang"
	"github.com/louisbranch/gangledger/internal/services/roster/domain/ledger"
	"github.com/louisbranch/gangledger/internal/services/roster/storage"
)

// CreateGang creates a Building-mode gang with zeroed totals.
func (s *Store) CreateGang(ctx context.Context, params storage.CreateGangParams) (*storage.OpResult, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	g, err := gang.CreateGang(params.Input, s.now, s.newID)
	if err != nil {
		return nil, err
	}

	var result *storage.OpResult
	err = s.inTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.NamedExecContext(ctx, insertGangSQL, newGangRow(g)); err != nil {
			return fmt.Errorf("insert gang: %w", err)
		}
		narrative, err := s.insertNarrativeTx(ctx, tx, g.ID, "", params.Meta, s.now())
		if err != nil {
			return err
		}
		result = &storage.OpResult{Gang: g, Narrative: narrative}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// GetGang retrieves a gang by ID.
func (s *Store) GetGang(ctx context.Context, id string) (gang.Gang, error) {
	if err := s.ready(); err != nil {
		return gang.Gang{}, err
	}
	if err := ctx.Err(); err != nil {
		return gang.Gang{}, err
	}

	var row gangRow
	err := s.db.GetContext(ctx, &row, `SELECT * FROM gangs WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return gang.Gang{}, storage.ErrNotFound
		}
		return gang.Gang{}, fmt.Errorf("get gang: %w", err)
	}
	return row.toDomain(), nil
}

// ListGangs returns every gang, oldest first.
func (s *Store) ListGangs(ctx context.Context) ([]gang.Gang, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var rows []gangRow
	err := s.db.SelectContext(ctx, &rows, `SELECT * FROM gangs ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list gangs: %w", err)
	}
	gangs := make([]gang.Gang, 0, len(rows))
	for _, row := range rows {
		gangs = append(gangs, row.toDomain())
	}
	return gangs, nil
}

// ListGangsByCampaign returns the gangs linked to a campaign, originals and
// clones alike.
func (s *Store) ListGangsByCampaign(ctx context.Context, campaignID string) ([]gang.Gang, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var rows []gangRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT * FROM gangs WHERE campaign_id = ? ORDER BY created_at, id`, campaignID)
	if err != nil {
		return nil, fmt.Errorf("list gangs by campaign: %w", err)
	}
	gangs := make([]gang.Gang, 0, len(rows))
	for _, row := range rows {
		gangs = append(gangs, row.toDomain())
	}
	return gangs, nil
}

// AdjustCredits moves credits directly on one gang. It works in either gang
// status; EarnMode controls whether the lifetime earned counter follows.
func (s *Store) AdjustCredits(ctx context.Context, params storage.AdjustCreditsParams) (*storage.OpResult, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if params.Amount == 0 {
		return nil, nil
	}

	now := s.now()
	var result *storage.OpResult
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		g, err := s.getGangTx(ctx, tx, params.GangID)
		if err != nil {
			return err
		}

		description := strings.TrimSpace(params.Reason)
		if description == "" {
			description = fmt.Sprintf("adjusted credits by %d", params.Amount)
		}

		writer := s.newEntryWriter(tx, g)
		err = writer.append(ctx, ledger.AppendInput{
			Kind:        ledger.KindCreditsAdjusted,
			Description: description,
			Deltas:      ledger.Deltas{Credits: params.Amount},
			EarnMode:    params.EarnMode,
			Actor:       params.Meta.Actor,
		})
		if err != nil {
			return err
		}
		updated, err := writer.finish(ctx, now)
		if err != nil {
			return err
		}
		narrative, err := s.insertNarrativeTx(ctx, tx, g.ID, "", params.Meta, now)
		if err != nil {
			return err
		}
		result = &storage.OpResult{
			Gang:      updated,
			Entries:   writer.entries,
			Narrative: narrative,
			Deltas:    writer.deltas,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// RecomputeGangTotals independently recomputes rating and stash from the
// entity graph, bypassing the running totals. Credits pass through from the
// gang row. The whole read happens in one transaction so the graph is a
// single consistent snapshot.
func (s *Store) RecomputeGangTotals(ctx context.Context, gangID string) (gang.Totals, error) {
	if err := s.ready(); err != nil {
		return gang.Totals{}, err
	}
	if err := ctx.Err(); err != nil {
		return gang.Totals{}, err
	}

	var totals gang.Totals
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		agg, err := s.loadAggregateTx(ctx, tx, gangID)
		if err != nil {
			return err
		}
		totals = cost.GangTotals(agg)
		return nil
	})
	if err != nil {
		return gang.Totals{}, err
	}
	return totals, nil
}
