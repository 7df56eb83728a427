// Package seed loads ledger fixtures into the store for local runs and
// demos.
package seed

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"

	"github.com/givebase/settler/internal/domain"
	"github.com/givebase/settler/internal/repository"
)

// Fixture is the JSON shape of a seed file.
type Fixture struct {
	Hosts        []domain.Host        `json:"hosts"`
	Collectives  []domain.Collective  `json:"collectives"`
	Plans        []domain.Plan        `json:"plans"`
	Transactions []domain.Transaction `json:"transactions"`
}

// Counts reports the rows applied per table. Transactions counts only newly
// inserted rows; re-applying a fixture inserts none.
type Counts struct {
	Hosts        int
	Collectives  int
	Plans        int
	Transactions int
}

// LoadFile reads a fixture from disk.
func LoadFile(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	var fx Fixture
	if err := json.Unmarshal(data, &fx); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	return &fx, nil
}

// Apply inserts the fixture rows. Every insert ignores rows that already
// exist, so applying the same fixture twice leaves the store unchanged.
func Apply(ctx context.Context, db *sql.DB, fx *Fixture) (Counts, error) {
	var c Counts

	hosts := repository.NewHostRepo(db)
	for i := range fx.Hosts {
		if err := hosts.Insert(ctx, &fx.Hosts[i]); err != nil {
			return c, fmt.Errorf("host %s: %w", fx.Hosts[i].ID, err)
		}
		c.Hosts++
	}

	collectives := repository.NewCollectiveRepo(db)
	for i := range fx.Collectives {
		if err := collectives.Insert(ctx, &fx.Collectives[i]); err != nil {
			return c, fmt.Errorf("collective %s: %w", fx.Collectives[i].ID, err)
		}
		c.Collectives++
	}

	plans := repository.NewPlanRepo(db)
	for i := range fx.Plans {
		if err := plans.Insert(ctx, &fx.Plans[i]); err != nil {
			return c, fmt.Errorf("plan %s: %w", fx.Plans[i].Slug, err)
		}
		c.Plans++
	}

	txns := repository.NewTransactionRepo(db)
	n, err := txns.BulkInsert(ctx, fx.Transactions)
	if err != nil {
		return c, fmt.Errorf("transactions: %w", err)
	}
	c.Transactions = n

	return c, nil
}
