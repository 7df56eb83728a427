package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/givebase/settler/internal/domain"
)

type TransactionRepo struct {
	db *sql.DB
}

func NewTransactionRepo(db *sql.DB) *TransactionRepo {
	return &TransactionRepo{db: db}
}

const insertTransactionSQL = `INSERT OR IGNORE INTO transactions
	(id, type, status, collective_id, host_id, amount, currency,
	 amount_in_host_currency, host_currency, platform_fee_in_host_currency,
	 host_fee_in_host_currency, transaction_group, platform_tip_for_group,
	 description, data, settled, settlement_id, created_at)
	VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`

func (r *TransactionRepo) Insert(ctx context.Context, t *domain.Transaction) error {
	args, err := transactionArgs(t)
	if err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, insertTransactionSQL, args...); err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

func (r *TransactionRepo) BulkInsert(ctx context.Context, txns []domain.Transaction) (int, error) {
	sqlTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer sqlTx.Rollback()

	stmt, err := sqlTx.PrepareContext(ctx, insertTransactionSQL)
	if err != nil {
		return 0, fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for i := range txns {
		args, err := transactionArgs(&txns[i])
		if err != nil {
			return inserted, fmt.Errorf("row %d: %w", i, err)
		}
		res, err := stmt.ExecContext(ctx, args...)
		if err != nil {
			return inserted, fmt.Errorf("insert row %d: %w", i, err)
		}
		ra, _ := res.RowsAffected()
		inserted += int(ra)
	}

	if err := sqlTx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return inserted, nil
}

func (r *TransactionRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM transactions").Scan(&count)
	return count, err
}

func (r *TransactionRepo) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT * FROM transactions WHERE id = ?", id)
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
	return scanTransactionRows(rows)
}

// ListQualifying returns a host's confirmed credit transactions created in
// [start, end), plus the platform-tip counterparts referencing those rows'
// transaction groups, wherever the tip rows themselves were created.
// Settled rows are included: the classifier needs them to resolve tip
// back-references before excluding them from billing. Order is
// deterministic.
func (r *TransactionRepo) ListQualifying(ctx context.Context, hostID string, start, end time.Time) ([]domain.Transaction, error) {
	query := `
		SELECT t.* FROM transactions t
		WHERE t.status = 'confirmed' AND t.type = 'CREDIT'
		  AND (
		       (t.host_id = ? AND t.platform_tip_for_group IS NULL
		        AND t.created_at >= ? AND t.created_at < ?)
		    OR t.platform_tip_for_group IN (
		        SELECT c.transaction_group FROM transactions c
		        WHERE c.host_id = ? AND c.status = 'confirmed' AND c.type = 'CREDIT'
		          AND c.platform_tip_for_group IS NULL
		          AND c.created_at >= ? AND c.created_at < ?
		      )
		  )
		ORDER BY t.created_at, t.id
	`
	from := start.UTC().Format(time.RFC3339)
	to := end.UTC().Format(time.RFC3339)

	rows, err := r.db.QueryContext(ctx, query, hostID, from, to, hostID, from, to)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	return collectTransactions(rows)
}

// ListBySettlement returns the rows marked settled under the given
// settlement reference (expense or run ID), in the audit export order.
func (r *TransactionRepo) ListBySettlement(ctx context.Context, ref string) ([]domain.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT * FROM transactions WHERE settlement_id = ? ORDER BY created_at, id", ref)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	return collectTransactions(rows)
}

// --- helpers ---

func transactionArgs(t *domain.Transaction) ([]any, error) {
	data, err := json.Marshal(t.Data)
	if err != nil {
		return nil, fmt.Errorf("marshal data for %s: %w", t.ID, err)
	}
	return []any{
		t.ID, string(t.Type), string(t.Status), t.CollectiveID, t.HostID,
		t.Amount, t.Currency, t.AmountInHostCurrency, t.HostCurrency,
		nullableInt(t.PlatformFeeInHostCurrency), nullableInt(t.HostFeeInHostCurrency),
		t.TransactionGroup, nullableString(t.PlatformTipForGroup),
		t.Description, string(data), t.Settled, nullableString(t.SettlementID),
		t.CreatedAt.UTC().Format(time.RFC3339),
	}, nil
}

func nullableInt(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullableString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func collectTransactions(rows *sql.Rows) ([]domain.Transaction, error) {
	var txns []domain.Transaction
	for rows.Next() {
		t, err := scanTransactionRows(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		txns = append(txns, *t)
	}
	return txns, rows.Err()
}

func scanTransactionRows(rows *sql.Rows) (*domain.Transaction, error) {
	var t domain.Transaction
	var typ, status, data, createdAt string
	var platformFee, hostFee sql.NullInt64
	var tipFor, settlementID sql.NullString

	err := rows.Scan(
		&t.ID, &typ, &status, &t.CollectiveID, &t.HostID,
		&t.Amount, &t.Currency, &t.AmountInHostCurrency, &t.HostCurrency,
		&platformFee, &hostFee, &t.TransactionGroup, &tipFor,
		&t.Description, &data, &t.Settled, &settlementID, &createdAt,
	)
	if err != nil {
		return nil, err
	}

	t.Type = domain.TransactionType(typ)
	t.Status = domain.TransactionStatus(status)
	t.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)

	if platformFee.Valid {
		v := platformFee.Int64
		t.PlatformFeeInHostCurrency = &v
	}
	if hostFee.Valid {
		v := hostFee.Int64
		t.HostFeeInHostCurrency = &v
	}
	if tipFor.Valid {
		s := tipFor.String
		t.PlatformTipForGroup = &s
	}
	if settlementID.Valid {
		s := settlementID.String
		t.SettlementID = &s
	}
	if data != "" {
		if err := json.Unmarshal([]byte(data), &t.Data); err != nil {
			return nil, fmt.Errorf("unmarshal data for %s: %w", t.ID, err)
		}
	}

	return &t, nil
}
