package app

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/louisbranch/gangledger/internal/services/roster/domain/gang"
	"github.com/louisbranch/gangledger/internal/services/roster/observability/audit"
	"github.com/louisbranch/gangledger/internal/services/roster/storage"
)

var tracer = otel.Tracer("gangledger/roster")

// Service runs roster operations against a store.
type Service struct {
	store storage.Store
	audit *audit.Emitter
}

// New creates a roster service over the given store.
func New(store storage.Store) *Service {
	return &Service{
		store: store,
		audit: audit.NewEmitter(store),
	}
}

func (s *Service) span(ctx context.Context, name string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "roster."+name)
}

// CreateGang creates a Building-mode gang with zeroed totals.
func (s *Service) CreateGang(ctx context.Context, params storage.CreateGangParams) (*storage.OpResult, error) {
	ctx, span := s.span(ctx, "CreateGang")
	defer span.End()
	return s.store.CreateGang(ctx, params)
}

// GetGang retrieves a gang by ID.
func (s *Service) GetGang(ctx context.Context, id string) (gang.Gang, error) {
	ctx, span := s.span(ctx, "GetGang")
	defer span.End()
	return s.store.GetGang(ctx, id)
}

// ListGangs returns every gang, oldest first.
func (s *Service) ListGangs(ctx context.Context) ([]gang.Gang, error) {
	ctx, span := s.span(ctx, "ListGangs")
	defer span.End()
	return s.store.ListGangs(ctx)
}

// ListGangsByCampaign returns the gangs linked to a campaign.
func (s *Service) ListGangsByCampaign(ctx context.Context, campaignID string) ([]gang.Gang, error) {
	ctx, span := s.span(ctx, "ListGangsByCampaign")
	defer span.End()
	return s.store.ListGangsByCampaign(ctx, campaignID)
}

// AdjustCredits moves credits directly on one gang.
func (s *Service) AdjustCredits(ctx context.Context, params storage.AdjustCreditsParams) (*storage.OpResult, error) {
	ctx, span := s.span(ctx, "AdjustCredits")
	defer span.End()
	return s.store.AdjustCredits(ctx, params)
}
