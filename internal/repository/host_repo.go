package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/givebase/settler/internal/domain"
)

type HostRepo struct {
	db *sql.DB
}

func NewHostRepo(db *sql.DB) *HostRepo {
	return &HostRepo{db: db}
}

func (r *HostRepo) Insert(ctx context.Context, h *domain.Host) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO hosts
		(id, name, slug, currency, plan, payout_method, active, created_at)
		VALUES (?,?,?,?,?,?,?,?)`,
		h.ID, h.Name, h.Slug, h.Currency, h.Plan, string(h.PayoutMethod),
		h.Active, h.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("insert host: %w", err)
	}
	return nil
}

// ListActive returns every host that participates in settlement runs, in
// stable slug order.
func (r *HostRepo) ListActive(ctx context.Context) ([]domain.Host, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT * FROM hosts WHERE active = 1 ORDER BY slug")
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	var hosts []domain.Host
	for rows.Next() {
		h, err := scanHostRows(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		hosts = append(hosts, *h)
	}
	return hosts, rows.Err()
}

func (r *HostRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM hosts").Scan(&count)
	return count, err
}

func scanHostRows(rows *sql.Rows) (*domain.Host, error) {
	var h domain.Host
	var payout, createdAt string

	err := rows.Scan(&h.ID, &h.Name, &h.Slug, &h.Currency, &h.Plan,
		&payout, &h.Active, &createdAt)
	if err != nil {
		return nil, err
	}

	h.PayoutMethod = domain.PayoutMethod(payout)
	h.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &h, nil
}
