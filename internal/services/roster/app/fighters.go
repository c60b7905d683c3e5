package app

import (
	"context"

	"github.com/louisbranch/gangledger/internal/services/roster/domain/fighter"
	"github.com/louisbranch/gangledger/internal/services/roster/storage"
)

// HireFighter adds a fighter to the roster, spending credits in CampaignMode.
func (s *Service) HireFighter(ctx context.Context, params storage.HireFighterParams) (*storage.OpResult, error) {
	ctx, span := s.span(ctx, "HireFighter")
	defer span.End()
	return s.store.HireFighter(ctx, params)
}

// GetFighter retrieves a fighter by ID.
func (s *Service) GetFighter(ctx context.Context, id string) (fighter.Fighter, error) {
	ctx, span := s.span(ctx, "GetFighter")
	defer span.End()
	return s.store.GetFighter(ctx, id)
}

// ListFighters returns a gang's fighters.
func (s *Service) ListFighters(ctx context.Context, req storage.ListFightersRequest) ([]fighter.Fighter, error) {
	ctx, span := s.span(ctx, "ListFighters")
	defer span.End()
	return s.store.ListFighters(ctx, req)
}

// KillFighter kills a fighter, moving its equipment to the gang stash.
func (s *Service) KillFighter(ctx context.Context, params storage.KillFighterParams) (*storage.OpResult, error) {
	ctx, span := s.span(ctx, "KillFighter")
	defer span.End()
	return s.store.KillFighter(ctx, params)
}

// ResurrectFighter revives a dead fighter at its recomputed cost.
func (s *Service) ResurrectFighter(ctx context.Context, params storage.ResurrectFighterParams) (*storage.OpResult, error) {
	ctx, span := s.span(ctx, "ResurrectFighter")
	defer span.End()
	return s.store.ResurrectFighter(ctx, params)
}

// ArchiveFighter soft-deletes a fighter.
func (s *Service) ArchiveFighter(ctx context.Context, params storage.ArchiveFighterParams) (*storage.OpResult, error) {
	ctx, span := s.span(ctx, "ArchiveFighter")
	defer span.End()
	return s.store.ArchiveFighter(ctx, params)
}

// RestoreFighter reverses an archive.
func (s *Service) RestoreFighter(ctx context.Context, params storage.RestoreFighterParams) (*storage.OpResult, error) {
	ctx, span := s.span(ctx, "RestoreFighter")
	defer span.End()
	return s.store.RestoreFighter(ctx, params)
}

// DeleteFighter hard-deletes a fighter and its dependents.
func (s *Service) DeleteFighter(ctx context.Context, params storage.DeleteFighterParams) (*storage.OpResult, error) {
	ctx, span := s.span(ctx, "DeleteFighter")
	defer span.End()
	return s.store.DeleteFighter(ctx, params)
}

// SetFighterCostOverride replaces a fighter's cost override. Setting the
// current value is a no-op returning a nil result.
func (s *Service) SetFighterCostOverride(ctx context.Context, params storage.SetFighterCostOverrideParams) (*storage.OpResult, error) {
	ctx, span := s.span(ctx, "SetFighterCostOverride")
	defer span.End()
	return s.store.SetFighterCostOverride(ctx, params)
}

// GrantXp adds experience to a fighter.
func (s *Service) GrantXp(ctx context.Context, params storage.GrantXpParams) (*storage.OpResult, error) {
	ctx, span := s.span(ctx, "GrantXp")
	defer span.End()
	return s.store.GrantXp(ctx, params)
}
