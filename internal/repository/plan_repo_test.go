package repository

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/givebase/settler/internal/domain"
)

func TestPlanRepo(t *testing.T) {
	db := newTestDB(t)
	repo := NewPlanRepo(db)
	ctx := context.Background()

	grow := domain.Plan{Slug: "grow", Name: "Grow",
		SharePercent: decimal.RequireFromString("15"),
		CreatedAt:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	scale := domain.Plan{Slug: "scale", Name: "Scale",
		SharePercent: decimal.RequireFromString("8.5"),
		CreatedAt:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}

	for _, p := range []domain.Plan{scale, grow} {
		p := p
		if err := repo.Insert(ctx, &p); err != nil {
			t.Fatalf("insert %s: %v", p.Slug, err)
		}
	}
	if err := repo.Insert(ctx, &grow); err != nil {
		t.Fatalf("duplicate insert: %v", err)
	}

	plans, err := repo.ListAll(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(plans) != 2 {
		t.Fatalf("plans = %d, want 2", len(plans))
	}
	if plans[0].Slug != "grow" || plans[1].Slug != "scale" {
		t.Errorf("order = %s, %s; want slug order", plans[0].Slug, plans[1].Slug)
	}
	if !plans[0].SharePercent.Equal(decimal.RequireFromString("15")) {
		t.Errorf("grow percent = %s, want 15", plans[0].SharePercent)
	}
	// The fractional percentage survives the TEXT column exactly.
	if !plans[1].SharePercent.Equal(decimal.RequireFromString("8.5")) {
		t.Errorf("scale percent = %s, want 8.5", plans[1].SharePercent)
	}
}
