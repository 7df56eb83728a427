package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/givebase/settler/internal/domain"
)

type CollectiveRepo struct {
	db *sql.DB
}

func NewCollectiveRepo(db *sql.DB) *CollectiveRepo {
	return &CollectiveRepo{db: db}
}

func (r *CollectiveRepo) Insert(ctx context.Context, c *domain.Collective) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO collectives (id, host_id, name, slug, created_at)
		VALUES (?,?,?,?,?)`,
		c.ID, c.HostID, c.Name, c.Slug, c.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("insert collective: %w", err)
	}
	return nil
}
