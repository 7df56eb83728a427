package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/givebase/settler/internal/domain"
)

type PlanRepo struct {
	db *sql.DB
}

func NewPlanRepo(db *sql.DB) *PlanRepo {
	return &PlanRepo{db: db}
}

func (r *PlanRepo) Insert(ctx context.Context, p *domain.Plan) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO plans (slug, name, share_percent, created_at)
		VALUES (?,?,?,?)`,
		p.Slug, p.Name, p.SharePercent.String(),
		p.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("insert plan: %w", err)
	}
	return nil
}

// ListAll returns the whole plan catalog; the orchestrator snapshots it
// once per run.
func (r *PlanRepo) ListAll(ctx context.Context) ([]domain.Plan, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT * FROM plans ORDER BY slug")
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	var plans []domain.Plan
	for rows.Next() {
		var p domain.Plan
		var percent, createdAt string
		if err := rows.Scan(&p.Slug, &p.Name, &percent, &createdAt); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		p.SharePercent, err = decimal.NewFromString(percent)
		if err != nil {
			return nil, fmt.Errorf("parse share percent for plan %s: %w", p.Slug, err)
		}
		p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		plans = append(plans, p)
	}
	return plans, rows.Err()
}
