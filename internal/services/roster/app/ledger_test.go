package app

import (
	"context"
	"errors"
	"fmt"
	"testing"

	apperrors "github.com/louisbranch/gangledger/internal/platform/errors"
	"github.com/louisbranch/gangledger/internal/services/roster/domain/gang"
	"github.com/louisbranch/gangledger/internal/services/roster/storage"
)

func seedLedgerHistory(t *testing.T, svc *Service, entries int) gang.Gang {
	t.Helper()

	g := seedGang(t, svc, "Sump Dogs")
	for i := 0; i < entries; i++ {
		hireFighter(t, svc, g.ID, "ganger", fmt.Sprintf("Ganger %d", i+1))
	}
	return g
}

func pageSeqs(page LedgerPage) []uint64 {
	seqs := make([]uint64, 0, len(page.Entries))
	for _, entry := range page.Entries {
		seqs = append(seqs, entry.Seq)
	}
	return seqs
}

func TestListLedgerEntriesWalksPagesBothWays(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	g := seedLedgerHistory(t, svc, 5)

	first, err := svc.ListLedgerEntries(ctx, ListLedgerEntriesRequest{GangID: g.ID, PageSize: 2})
	if err != nil {
		t.Fatalf("list first page: %v", err)
	}
	if got := pageSeqs(first); len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Fatalf("expected seqs [1 2], got %v", got)
	}
	if first.TotalCount != 5 {
		t.Fatalf("expected total count 5, got %d", first.TotalCount)
	}
	if first.NextPageToken == "" {
		t.Fatal("expected next page token")
	}
	if first.PrevPageToken != "" {
		t.Fatalf("unexpected prev page token %q", first.PrevPageToken)
	}

	second, err := svc.ListLedgerEntries(ctx, ListLedgerEntriesRequest{GangID: g.ID, PageSize: 2, PageToken: first.NextPageToken})
	if err != nil {
		t.Fatalf("list second page: %v", err)
	}
	if got := pageSeqs(second); len(got) != 2 || got[0] != 3 || got[1] != 4 {
		t.Fatalf("expected seqs [3 4], got %v", got)
	}
	if second.NextPageToken == "" || second.PrevPageToken == "" {
		t.Fatalf("expected both tokens, got next=%q prev=%q", second.NextPageToken, second.PrevPageToken)
	}

	third, err := svc.ListLedgerEntries(ctx, ListLedgerEntriesRequest{GangID: g.ID, PageSize: 2, PageToken: second.NextPageToken})
	if err != nil {
		t.Fatalf("list third page: %v", err)
	}
	if got := pageSeqs(third); len(got) != 1 || got[0] != 5 {
		t.Fatalf("expected seqs [5], got %v", got)
	}
	if third.NextPageToken != "" {
		t.Fatalf("unexpected next page token %q", third.NextPageToken)
	}
	if third.PrevPageToken == "" {
		t.Fatal("expected prev page token")
	}

	back, err := svc.ListLedgerEntries(ctx, ListLedgerEntriesRequest{GangID: g.ID, PageSize: 2, PageToken: third.PrevPageToken})
	if err != nil {
		t.Fatalf("list back page: %v", err)
	}
	if got := pageSeqs(back); len(got) != 2 || got[0] != 3 || got[1] != 4 {
		t.Fatalf("expected seqs [3 4], got %v", got)
	}
	if back.NextPageToken == "" || back.PrevPageToken == "" {
		t.Fatalf("expected both tokens, got next=%q prev=%q", back.NextPageToken, back.PrevPageToken)
	}

	start, err := svc.ListLedgerEntries(ctx, ListLedgerEntriesRequest{GangID: g.ID, PageSize: 2, PageToken: back.PrevPageToken})
	if err != nil {
		t.Fatalf("list start page: %v", err)
	}
	if got := pageSeqs(start); len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Fatalf("expected seqs [1 2], got %v", got)
	}
	if start.PrevPageToken != "" {
		t.Fatalf("unexpected prev page token %q", start.PrevPageToken)
	}
	if start.NextPageToken == "" {
		t.Fatal("expected next page token")
	}
}

func TestListLedgerEntriesDescending(t *testing.T) {
	svc := newTestService(t)
	g := seedLedgerHistory(t, svc, 3)

	page, err := svc.ListLedgerEntries(context.Background(), ListLedgerEntriesRequest{
		GangID:   g.ID,
		PageSize: 2,
		OrderBy:  "seq desc",
	})
	if err != nil {
		t.Fatalf("list descending: %v", err)
	}
	if got := pageSeqs(page); len(got) != 2 || got[0] != 3 || got[1] != 2 {
		t.Fatalf("expected seqs [3 2], got %v", got)
	}

	next, err := svc.ListLedgerEntries(context.Background(), ListLedgerEntriesRequest{
		GangID:    g.ID,
		PageSize:  2,
		OrderBy:   "seq desc",
		PageToken: page.NextPageToken,
	})
	if err != nil {
		t.Fatalf("list descending next: %v", err)
	}
	if got := pageSeqs(next); len(got) != 1 || got[0] != 1 {
		t.Fatalf("expected seqs [1], got %v", got)
	}
}

func TestListLedgerEntriesFilters(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	g := seedLedgerHistory(t, svc, 2)

	if _, err := svc.AdjustCredits(ctx, storage.AdjustCreditsParams{
		GangID: g.ID,
		Amount: 100,
		Reason: "job payout",
		Meta:   storage.OpMeta{Actor: "owner-1"},
	}); err != nil {
		t.Fatalf("adjust credits: %v", err)
	}

	page, err := svc.ListLedgerEntries(ctx, ListLedgerEntriesRequest{
		GangID: g.ID,
		Filter: `kind = "CREDITS_ADJUSTED"`,
	})
	if err != nil {
		t.Fatalf("list filtered: %v", err)
	}
	if len(page.Entries) != 1 || page.Entries[0].Seq != 3 {
		t.Fatalf("expected the credits entry, got %+v", page.Entries)
	}
	if page.TotalCount != 1 {
		t.Fatalf("expected total count 1, got %d", page.TotalCount)
	}
}

func TestListLedgerEntriesTokenBoundToFilter(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	g := seedLedgerHistory(t, svc, 3)

	page, err := svc.ListLedgerEntries(ctx, ListLedgerEntriesRequest{
		GangID:   g.ID,
		PageSize: 1,
		Filter:   `kind = "FIGHTER_HIRED"`,
	})
	if err != nil {
		t.Fatalf("list filtered: %v", err)
	}
	if page.NextPageToken == "" {
		t.Fatal("expected next page token")
	}

	_, err = svc.ListLedgerEntries(ctx, ListLedgerEntriesRequest{
		GangID:    g.ID,
		PageSize:  1,
		PageToken: page.NextPageToken,
	})
	assertCode(t, err, apperrors.CodePageTokenInvalid)

	_, err = svc.ListLedgerEntries(ctx, ListLedgerEntriesRequest{
		GangID:    g.ID,
		PageSize:  1,
		Filter:    `kind = "FIGHTER_HIRED"`,
		OrderBy:   "seq desc",
		PageToken: page.NextPageToken,
	})
	assertCode(t, err, apperrors.CodePageTokenInvalid)
}

func TestListLedgerEntriesRejectsBadInput(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	g := seedLedgerHistory(t, svc, 1)

	_, err := svc.ListLedgerEntries(ctx, ListLedgerEntriesRequest{GangID: g.ID, PageToken: "%%%not-a-token%%%"})
	assertCode(t, err, apperrors.CodePageTokenInvalid)

	_, err = svc.ListLedgerEntries(ctx, ListLedgerEntriesRequest{GangID: g.ID, Filter: "kind ==="})
	assertCode(t, err, apperrors.CodeFilterInvalid)

	_, err = svc.ListLedgerEntries(ctx, ListLedgerEntriesRequest{GangID: g.ID, OrderBy: "created_at desc"})
	assertCode(t, err, apperrors.CodeOrderByInvalid)
}

func assertCode(t *testing.T, err error, code apperrors.Code) {
	t.Helper()

	var appErr *apperrors.Error
	if !errors.As(err, &appErr) {
		t.Fatalf("expected domain error, got %v", err)
	}
	if appErr.Code != code {
		t.Fatalf("expected code %s, got %s", code, appErr.Code)
	}
}
