package repository

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/givebase/settler/internal/domain"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := InitDB(filepath.Join(t.TempDir(), "settler.db"))
	if err != nil {
		t.Fatalf("init db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// testTxn builds a confirmed in-window credit for July 2026.
func testTxn(id, hostID, group string) domain.Transaction {
	return domain.Transaction{
		ID:                   id,
		Type:                 domain.TypeCredit,
		Status:               domain.StatusConfirmed,
		CollectiveID:         "C-ARTS",
		HostID:               hostID,
		Amount:               10000,
		Currency:             "GBP",
		AmountInHostCurrency: 10000,
		HostCurrency:         "GBP",
		TransactionGroup:     group,
		Description:          "Contribution",
		CreatedAt:            time.Date(2026, 7, 10, 12, 0, 0, 0, time.UTC),
	}
}

func TestInitDBReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "settler.db")

	db, err := InitDB(path)
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	h := domain.Host{ID: "H-1", Name: "One", Slug: "one", Currency: "USD",
		Plan: "grow", PayoutMethod: domain.PayoutBankAccount, Active: true}
	if err := NewHostRepo(db).Insert(ctx, &h); err != nil {
		t.Fatalf("insert: %v", err)
	}
	db.Close()

	// Schema setup is idempotent and existing data survives a reopen.
	db, err = InitDB(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db.Close()
	n, err := NewHostRepo(db).Count(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Errorf("count after reopen = %d, want 1", n)
	}
}
