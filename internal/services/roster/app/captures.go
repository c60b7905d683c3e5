package app

import (
	"context"

	"github.com/louisbranch/gangledger/internal/services/roster/domain/fighter"
	"github.com/louisbranch/gangledger/internal/services/roster/storage"
)

// CaptureFighter opens a capture record against a rival gang's fighter.
func (s *Service) CaptureFighter(ctx context.Context, params storage.CaptureFighterParams) (*storage.OpResult, error) {
	ctx, span := s.span(ctx, "CaptureFighter")
	defer span.End()
	return s.store.CaptureFighter(ctx, params)
}

// SellCapturedFighter sells a captive to a third party. Terminal.
func (s *Service) SellCapturedFighter(ctx context.Context, params storage.SellCapturedFighterParams) (*storage.OpResult, error) {
	ctx, span := s.span(ctx, "SellCapturedFighter")
	defer span.End()
	return s.store.SellCapturedFighter(ctx, params)
}

// ReturnCapturedFighter returns a captive, moving any ransom between both
// gangs in one transaction.
func (s *Service) ReturnCapturedFighter(ctx context.Context, params storage.ReturnCapturedFighterParams) (*storage.OpResult, error) {
	ctx, span := s.span(ctx, "ReturnCapturedFighter")
	defer span.End()
	return s.store.ReturnCapturedFighter(ctx, params)
}

// ReleaseCapturedFighter releases a captive for nothing.
func (s *Service) ReleaseCapturedFighter(ctx context.Context, params storage.ReleaseCapturedFighterParams) (*storage.OpResult, error) {
	ctx, span := s.span(ctx, "ReleaseCapturedFighter")
	defer span.End()
	return s.store.ReleaseCapturedFighter(ctx, params)
}

// ListCaptures returns a fighter's capture history, newest first.
func (s *Service) ListCaptures(ctx context.Context, fighterID string) ([]fighter.Capture, error) {
	ctx, span := s.span(ctx, "ListCaptures")
	defer span.End()
	return s.store.ListCaptures(ctx, fighterID)
}
