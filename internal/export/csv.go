// Package export builds the per-host audit CSV and writes it through a
// pluggable file store.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/givebase/settler/internal/domain"
)

var csvHeader = []string{"id", "created_at", "type", "amount", "currency", "transaction_group"}

// BuildCSV renders the contributing transactions of one settlement. Rows
// are sorted by (created_at, id) so the same settlement always produces the
// same bytes.
func BuildCSV(txns []domain.Transaction) ([]byte, error) {
	sorted := make([]domain.Transaction, len(txns))
	copy(sorted, txns)
	sort.Slice(sorted, func(i, j int) bool {
		if !sorted[i].CreatedAt.Equal(sorted[j].CreatedAt) {
			return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
		}
		return sorted[i].ID < sorted[j].ID
	})

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(csvHeader); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	for _, t := range sorted {
		row := []string{
			t.ID,
			t.CreatedAt.UTC().Format(time.RFC3339),
			string(t.Type),
			strconv.FormatInt(t.Amount, 10),
			t.Currency,
			t.TransactionGroup,
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("write row %s: %w", t.ID, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush: %w", err)
	}
	return buf.Bytes(), nil
}

// Filename names the audit CSV for one host and period.
func Filename(hostID, period string) string {
	return fmt.Sprintf("settlement-%s-%s.csv", hostID, period)
}
