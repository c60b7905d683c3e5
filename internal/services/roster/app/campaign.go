package app

import (
	"context"

	"github.com/louisbranch/gangledger/internal/services/roster/storage"
)

// StartCampaign clones every Building gang of the campaign into CampaignMode,
// seeds their ledgers, and snapshots the cloned rosters.
func (s *Service) StartCampaign(ctx context.Context, params storage.StartCampaignParams) (*storage.CampaignStartResult, error) {
	ctx, span := s.span(ctx, "StartCampaign")
	defer span.End()
	return s.store.StartCampaign(ctx, params)
}

// ListNarrativeEntries returns a gang's campaign history records, newest first.
func (s *Service) ListNarrativeEntries(ctx context.Context, gangID string, limit int) ([]storage.NarrativeEntry, error) {
	ctx, span := s.span(ctx, "ListNarrativeEntries")
	defer span.End()
	return s.store.ListNarrativeEntries(ctx, gangID, limit)
}

// GetLatestGangSnapshot returns a gang's most recent roster snapshot.
func (s *Service) GetLatestGangSnapshot(ctx context.Context, gangID string) (storage.GangSnapshot, error) {
	ctx, span := s.span(ctx, "GetLatestGangSnapshot")
	defer span.End()
	return s.store.GetLatestGangSnapshot(ctx, gangID)
}
