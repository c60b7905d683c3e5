package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/louisbranch/gangledger/internal/services/roster/domain/cost"
	"github.com/louisbranch/gangledger/internal/services/roster/domain/fighter"
	"github.com/louisbranch/gangledger/internal/services/roster/domain/gang"
	"github.com/louisbranch/gangledger/internal/services/roster/storage"
	"github.com/louisbranch/gangledger/internal/services/roster/storage/sqlite"
)

func openTestStore(t *testing.T) *sqlite.Store {
	t.Helper()

	store, err := sqlite.Open(filepath.Join(t.TempDir(), "roster.sqlite"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Fatalf("close store: %v", err)
		}
	})

	templates := []cost.Template{
		{Ref: "leader", Category: "LEADER", BaseCost: 100},
		{Ref: "ganger", Category: "GANGER", BaseCost: 50},
	}
	for _, tmpl := range templates {
		if err := store.PutTemplate(context.Background(), tmpl); err != nil {
			t.Fatalf("put template: %v", err)
		}
	}
	if err := store.PutEquipment(context.Background(), cost.Equipment{Ref: "lasgun", BaseCost: 10}); err != nil {
		t.Fatalf("put equipment: %v", err)
	}
	return store
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	return New(openTestStore(t))
}

func seedGang(t *testing.T, svc *Service, name string) gang.Gang {
	t.Helper()

	result, err := svc.CreateGang(context.Background(), storage.CreateGangParams{
		Input: gang.CreateGangInput{Owner: "owner-1", Name: name, House: "orlock"},
		Meta:  storage.OpMeta{Actor: "owner-1"},
	})
	if err != nil {
		t.Fatalf("create gang: %v", err)
	}
	return result.Gang
}

func hireFighter(t *testing.T, svc *Service, gangID, templateRef, name string) fighter.Fighter {
	t.Helper()

	result, err := svc.HireFighter(context.Background(), storage.HireFighterParams{
		GangID: gangID,
		Input:  fighter.CreateFighterInput{TemplateRef: templateRef, Name: name},
		Meta:   storage.OpMeta{Actor: "owner-1"},
	})
	if err != nil {
		t.Fatalf("hire fighter: %v", err)
	}
	return *result.Fighter
}
