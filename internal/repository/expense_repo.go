package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/givebase/settler/internal/domain"
)

// ErrAlreadySettled aborts a settlement write that touched a transaction
// some other run settled first.
var ErrAlreadySettled = errors.New("transaction already settled")

type ExpenseRepo struct {
	db *sql.DB
}

func NewExpenseRepo(db *sql.DB) *ExpenseRepo {
	return &ExpenseRepo{db: db}
}

// SettlementWrite is the atomic financial write for one host and period.
// Expense is nil when the payable total is zero; Credit is nil when the
// collected total is zero.
type SettlementWrite struct {
	Ref             string // settlement reference stamped on contributing rows
	Expense         *domain.Expense
	Credit          *domain.Transaction
	ContributingIDs []string
}

// CreateSettlement commits one host's settlement in a single transaction:
// contributing rows are marked settled, the expense with its items is
// inserted, and the platform-side credit is recorded. Marking is
// conditional on settled = 0; a row claimed by another run aborts the whole
// write with ErrAlreadySettled and nothing is billed.
func (r *ExpenseRepo) CreateSettlement(ctx context.Context, w SettlementWrite) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	mark, err := tx.PrepareContext(ctx,
		"UPDATE transactions SET settled = 1, settlement_id = ? WHERE id = ? AND settled = 0")
	if err != nil {
		return fmt.Errorf("prepare mark: %w", err)
	}
	defer mark.Close()

	for _, id := range w.ContributingIDs {
		res, err := mark.ExecContext(ctx, w.Ref, id)
		if err != nil {
			return fmt.Errorf("mark %s settled: %w", id, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected for %s: %w", id, err)
		}
		if n != 1 {
			return fmt.Errorf("mark %s settled: %w", id, ErrAlreadySettled)
		}
	}

	if w.Expense != nil {
		if err := insertExpenseTx(ctx, tx, w.Expense); err != nil {
			return err
		}
	}

	if w.Credit != nil {
		args, err := transactionArgs(w.Credit)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, insertTransactionSQL, args...); err != nil {
			return fmt.Errorf("insert credit: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func insertExpenseTx(ctx context.Context, tx *sql.Tx, e *domain.Expense) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO expenses
		(id, host_id, kind, status, description, currency, total_amount,
		 payout_method, period_start, period_end, export_pending, created_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
		e.ID, e.HostID, string(e.Kind), string(e.Status), e.Description,
		e.Currency, e.TotalAmount, string(e.PayoutMethod),
		e.PeriodStart.UTC().Format(time.RFC3339), e.PeriodEnd.UTC().Format(time.RFC3339),
		e.ExportPending, e.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("insert expense: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO expense_items
		(id, expense_id, description, amount, position, incurred_at)
		VALUES (?,?,?,?,?,?)`)
	if err != nil {
		return fmt.Errorf("prepare items: %w", err)
	}
	defer stmt.Close()

	for i := range e.Items {
		it := &e.Items[i]
		_, err := stmt.ExecContext(ctx, it.ID, it.ExpenseID, it.Description,
			it.Amount, it.Position, it.IncurredAt.UTC().Format(time.RFC3339))
		if err != nil {
			return fmt.Errorf("insert item %d: %w", i, err)
		}
	}
	return nil
}

// AttachFile records an audit file on an expense and clears its pending
// export flag in the same transaction.
func (r *ExpenseRepo) AttachFile(ctx context.Context, f *domain.AttachedFile) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO attached_files (id, expense_id, filename, url, created_at)
		VALUES (?,?,?,?,?)`,
		f.ID, f.ExpenseID, f.Filename, f.URL, f.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("insert attached file: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE expenses SET export_pending = 0 WHERE id = ?", f.ExpenseID); err != nil {
		return fmt.Errorf("clear export pending: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// ListPendingExport returns expenses whose audit CSV has not been attached
// yet, oldest first.
func (r *ExpenseRepo) ListPendingExport(ctx context.Context) ([]domain.Expense, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT * FROM expenses WHERE export_pending = 1 ORDER BY created_at")
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	var expenses []domain.Expense
	for rows.Next() {
		e, err := scanExpenseRows(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		expenses = append(expenses, *e)
	}
	return expenses, rows.Err()
}

type ExpenseFilter struct {
	HostID      string
	PeriodStart *time.Time
	Page        int
	Limit       int
}

// List returns settlement expenses with their items and attachments.
func (r *ExpenseRepo) List(ctx context.Context, f ExpenseFilter) ([]domain.Expense, int, error) {
	where, args := buildExpenseWhere(f)

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM expenses"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count: %w", err)
	}

	if f.Limit <= 0 {
		f.Limit = 50
	}
	if f.Page <= 0 {
		f.Page = 1
	}
	offset := (f.Page - 1) * f.Limit

	q := "SELECT * FROM expenses" + where + " ORDER BY created_at DESC LIMIT ? OFFSET ?"
	args = append(args, f.Limit, offset)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	var expenses []domain.Expense
	for rows.Next() {
		e, err := scanExpenseRows(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan: %w", err)
		}
		expenses = append(expenses, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	for i := range expenses {
		if err := r.hydrate(ctx, &expenses[i]); err != nil {
			return nil, 0, err
		}
	}
	return expenses, total, nil
}

func (r *ExpenseRepo) GetByID(ctx context.Context, id string) (*domain.Expense, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT * FROM expenses WHERE id = ?", id)
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
	e, err := scanExpenseRows(rows)
	if err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}
	rows.Close()

	if err := r.hydrate(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// --- helpers ---

func buildExpenseWhere(f ExpenseFilter) (string, []any) {
	var clauses []string
	var args []any

	if f.HostID != "" {
		clauses = append(clauses, "host_id = ?")
		args = append(args, f.HostID)
	}
	if f.PeriodStart != nil {
		clauses = append(clauses, "period_start = ?")
		args = append(args, f.PeriodStart.UTC().Format(time.RFC3339))
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func (r *ExpenseRepo) hydrate(ctx context.Context, e *domain.Expense) error {
	itemRows, err := r.db.QueryContext(ctx,
		"SELECT * FROM expense_items WHERE expense_id = ? ORDER BY position", e.ID)
	if err != nil {
		return fmt.Errorf("query items: %w", err)
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var it domain.ExpenseItem
		var incurredAt string
		if err := itemRows.Scan(&it.ID, &it.ExpenseID, &it.Description,
			&it.Amount, &it.Position, &incurredAt); err != nil {
			return fmt.Errorf("scan item: %w", err)
		}
		it.IncurredAt, _ = time.Parse(time.RFC3339, incurredAt)
		e.Items = append(e.Items, it)
	}
	if err := itemRows.Err(); err != nil {
		return err
	}

	fileRows, err := r.db.QueryContext(ctx,
		"SELECT * FROM attached_files WHERE expense_id = ? ORDER BY created_at", e.ID)
	if err != nil {
		return fmt.Errorf("query files: %w", err)
	}
	defer fileRows.Close()

	for fileRows.Next() {
		var af domain.AttachedFile
		var createdAt string
		if err := fileRows.Scan(&af.ID, &af.ExpenseID, &af.Filename,
			&af.URL, &createdAt); err != nil {
			return fmt.Errorf("scan file: %w", err)
		}
		af.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		e.Files = append(e.Files, af)
	}
	return fileRows.Err()
}

func scanExpenseRows(rows *sql.Rows) (*domain.Expense, error) {
	var e domain.Expense
	var kind, status, payout, periodStart, periodEnd, createdAt string

	err := rows.Scan(
		&e.ID, &e.HostID, &kind, &status, &e.Description, &e.Currency,
		&e.TotalAmount, &payout, &periodStart, &periodEnd,
		&e.ExportPending, &createdAt,
	)
	if err != nil {
		return nil, err
	}

	e.Kind = domain.ExpenseKind(kind)
	e.Status = domain.ExpenseStatus(status)
	e.PayoutMethod = domain.PayoutMethod(payout)
	e.PeriodStart, _ = time.Parse(time.RFC3339, periodStart)
	e.PeriodEnd, _ = time.Parse(time.RFC3339, periodEnd)
	e.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)

	return &e, nil
}
