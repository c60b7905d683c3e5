package app

import (
	"context"

	"github.com/louisbranch/gangledger/internal/services/roster/domain/advancement"
	"github.com/louisbranch/gangledger/internal/services/roster/storage"
)

// ApplyAdvancement spends XP on an advancement, raising the fighter's cost.
func (s *Service) ApplyAdvancement(ctx context.Context, params storage.ApplyAdvancementParams) (*storage.OpResult, error) {
	ctx, span := s.span(ctx, "ApplyAdvancement")
	defer span.End()
	return s.store.ApplyAdvancement(ctx, params)
}

// ReverseAdvancement archives an advancement and refunds its XP.
func (s *Service) ReverseAdvancement(ctx context.Context, params storage.ReverseAdvancementParams) (*storage.OpResult, error) {
	ctx, span := s.span(ctx, "ReverseAdvancement")
	defer span.End()
	return s.store.ReverseAdvancement(ctx, params)
}

// ListAdvancements returns a fighter's advancements.
func (s *Service) ListAdvancements(ctx context.Context, fighterID string, includeArchived bool) ([]advancement.Advancement, error) {
	ctx, span := s.span(ctx, "ListAdvancements")
	defer span.End()
	return s.store.ListAdvancements(ctx, fighterID, includeArchived)
}
