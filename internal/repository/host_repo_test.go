package repository

import (
	"context"
	"testing"
	"time"

	"github.com/givebase/settler/internal/domain"
)

func TestHostRepo(t *testing.T) {
	db := newTestDB(t)
	repo := NewHostRepo(db)
	ctx := context.Background()

	hosts := []domain.Host{
		{ID: "H-2", Name: "Zen Garden", Slug: "zen-garden", Currency: "USD",
			Plan: "scale", PayoutMethod: domain.PayoutPaypal, Active: true,
			CreatedAt: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
		{ID: "H-1", Name: "Open Arts", Slug: "open-arts", Currency: "GBP",
			Plan: "grow", PayoutMethod: domain.PayoutBankAccount, Active: true,
			CreatedAt: time.Date(2023, 1, 15, 0, 0, 0, 0, time.UTC)},
		{ID: "H-3", Name: "Wound Down", Slug: "wound-down", Currency: "EUR",
			Plan: "grow", PayoutMethod: domain.PayoutOther, Active: false,
			CreatedAt: time.Date(2022, 6, 1, 0, 0, 0, 0, time.UTC)},
	}
	for i := range hosts {
		if err := repo.Insert(ctx, &hosts[i]); err != nil {
			t.Fatalf("insert %s: %v", hosts[i].ID, err)
		}
	}
	// Re-inserting an existing slug is a no-op, not an error.
	if err := repo.Insert(ctx, &hosts[0]); err != nil {
		t.Fatalf("duplicate insert: %v", err)
	}

	active, err := repo.ListActive(ctx)
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	if len(active) != 2 {
		t.Fatalf("active hosts = %d, want 2", len(active))
	}
	if active[0].Slug != "open-arts" || active[1].Slug != "zen-garden" {
		t.Errorf("order = %s, %s; want slug order", active[0].Slug, active[1].Slug)
	}
	if active[0].PayoutMethod != domain.PayoutBankAccount || !active[0].Active {
		t.Errorf("row = %+v", active[0])
	}

	n, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 3 {
		t.Errorf("count = %d, want 3 including inactive", n)
	}
}

func TestCollectiveRepoInsert(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	host := domain.Host{ID: "H-1", Name: "Open Arts", Slug: "open-arts", Currency: "GBP",
		Plan: "grow", PayoutMethod: domain.PayoutBankAccount, Active: true}
	if err := NewHostRepo(db).Insert(ctx, &host); err != nil {
		t.Fatalf("insert host: %v", err)
	}

	repo := NewCollectiveRepo(db)
	c := domain.Collective{ID: "C-1", HostID: "H-1", Name: "Street Murals",
		Slug: "street-murals", CreatedAt: time.Now().UTC()}
	if err := repo.Insert(ctx, &c); err != nil {
		t.Fatalf("insert collective: %v", err)
	}
	if err := repo.Insert(ctx, &c); err != nil {
		t.Fatalf("duplicate collective insert: %v", err)
	}
}
