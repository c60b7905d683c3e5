package app

import (
	"context"

	"github.com/louisbranch/gangledger/internal/services/roster/domain/equipment"
	"github.com/louisbranch/gangledger/internal/services/roster/storage"
)

// PurchaseEquipment assigns equipment to a fighter, spending credits in
// CampaignMode and optionally spawning a child fighter.
func (s *Service) PurchaseEquipment(ctx context.Context, params storage.PurchaseEquipmentParams) (*storage.OpResult, error) {
	ctx, span := s.span(ctx, "PurchaseEquipment")
	defer span.End()
	return s.store.PurchaseEquipment(ctx, params)
}

// ListAssignments returns a fighter's equipment assignments.
func (s *Service) ListAssignments(ctx context.Context, fighterID string, includeArchived bool) ([]equipment.Assignment, error) {
	ctx, span := s.span(ctx, "ListAssignments")
	defer span.End()
	return s.store.ListAssignments(ctx, fighterID, includeArchived)
}

// RemoveEquipment archives an assignment, optionally refunding credits.
func (s *Service) RemoveEquipment(ctx context.Context, params storage.RemoveEquipmentParams) (*storage.OpResult, error) {
	ctx, span := s.span(ctx, "RemoveEquipment")
	defer span.End()
	return s.store.RemoveEquipment(ctx, params)
}

// AddComponent adds one component selection to an assignment.
func (s *Service) AddComponent(ctx context.Context, params storage.AddComponentParams) (*storage.OpResult, error) {
	ctx, span := s.span(ctx, "AddComponent")
	defer span.End()
	return s.store.AddComponent(ctx, params)
}

// RemoveComponent removes one component selection from an assignment.
func (s *Service) RemoveComponent(ctx context.Context, params storage.RemoveComponentParams) (*storage.OpResult, error) {
	ctx, span := s.span(ctx, "RemoveComponent")
	defer span.End()
	return s.store.RemoveComponent(ctx, params)
}

// ReassignEquipment moves an assignment between fighters of one gang.
func (s *Service) ReassignEquipment(ctx context.Context, params storage.ReassignEquipmentParams) (*storage.OpResult, error) {
	ctx, span := s.span(ctx, "ReassignEquipment")
	defer span.End()
	return s.store.ReassignEquipment(ctx, params)
}

// SetAssignmentCostOverride replaces an assignment's cost override. Setting
// the current value is a no-op returning a nil result.
func (s *Service) SetAssignmentCostOverride(ctx context.Context, params storage.SetAssignmentCostOverrideParams) (*storage.OpResult, error) {
	ctx, span := s.span(ctx, "SetAssignmentCostOverride")
	defer span.End()
	return s.store.SetAssignmentCostOverride(ctx, params)
}
