package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/givebase/settler/internal/domain"
)

type RunRepo struct {
	db *sql.DB
}

func NewRunRepo(db *sql.DB) *RunRepo {
	return &RunRepo{db: db}
}

func (r *RunRepo) Insert(ctx context.Context, run *domain.SettlementRun) error {
	failures, err := json.Marshal(run.Failures)
	if err != nil {
		return fmt.Errorf("marshal failures: %w", err)
	}
	flagged, err := json.Marshal(run.Flagged)
	if err != nil {
		return fmt.Errorf("marshal flagged: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO settlement_runs
		(id, period_start, period_end, started_at, finished_at, hosts_total,
		 hosts_settled, hosts_skipped, hosts_failed, tips_flagged, failures,
		 flagged, error)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		run.ID,
		run.PeriodStart.UTC().Format(time.RFC3339),
		run.PeriodEnd.UTC().Format(time.RFC3339),
		run.StartedAt.UTC().Format(time.RFC3339),
		run.FinishedAt.UTC().Format(time.RFC3339),
		run.HostsTotal, run.HostsSettled, run.HostsSkipped, run.HostsFailed,
		run.TipsFlagged, string(failures), string(flagged), run.Error,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// List returns the most recent runs, newest first.
func (r *RunRepo) List(ctx context.Context, limit int) ([]domain.SettlementRun, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx,
		"SELECT * FROM settlement_runs ORDER BY started_at DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	var runs []domain.SettlementRun
	for rows.Next() {
		run, err := scanRunRows(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

func (r *RunRepo) GetByID(ctx context.Context, id string) (*domain.SettlementRun, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT * FROM settlement_runs WHERE id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, sql.ErrNoRows
	}
	return scanRunRows(rows)
}

func scanRunRows(rows *sql.Rows) (*domain.SettlementRun, error) {
	var run domain.SettlementRun
	var periodStart, periodEnd, startedAt, finishedAt, failures, flagged string

	err := rows.Scan(
		&run.ID, &periodStart, &periodEnd, &startedAt, &finishedAt,
		&run.HostsTotal, &run.HostsSettled, &run.HostsSkipped, &run.HostsFailed,
		&run.TipsFlagged, &failures, &flagged, &run.Error,
	)
	if err != nil {
		return nil, err
	}

	run.PeriodStart, _ = time.Parse(time.RFC3339, periodStart)
	run.PeriodEnd, _ = time.Parse(time.RFC3339, periodEnd)
	run.StartedAt, _ = time.Parse(time.RFC3339, startedAt)
	run.FinishedAt, _ = time.Parse(time.RFC3339, finishedAt)

	if err := json.Unmarshal([]byte(failures), &run.Failures); err != nil {
		return nil, fmt.Errorf("unmarshal failures for %s: %w", run.ID, err)
	}
	if err := json.Unmarshal([]byte(flagged), &run.Flagged); err != nil {
		return nil, fmt.Errorf("unmarshal flagged for %s: %w", run.ID, err)
	}

	return &run, nil
}
