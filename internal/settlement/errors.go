package settlement

import (
	"errors"
	"fmt"
)

// ErrRunInProgress is returned when a run is requested while another run
// holds the in-process lock.
var ErrRunInProgress = errors.New("settlement run already in progress")

// DataIntegrityError reports a ledger row violating an assumption the
// settlement arithmetic depends on. The host is failed and nothing is
// billed for it; the row needs manual repair.
type DataIntegrityError struct {
	TransactionID string
	Reason        string
}

func (e *DataIntegrityError) Error() string {
	return fmt.Sprintf("data integrity: transaction %s: %s", e.TransactionID, e.Reason)
}

// ConversionError reports a currency conversion whose result cannot be
// represented as positive integer minor units.
type ConversionError struct {
	TransactionID string
	Err           error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("convert transaction %s: %v", e.TransactionID, e.Err)
}

func (e *ConversionError) Unwrap() error { return e.Err }

// StoreError wraps a failed store operation. The orchestrator retries the
// host once before failing it.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// ExportError wraps a failed audit export. Exports are retried out-of-band,
// so this never fails a host.
type ExportError struct {
	ExpenseID string
	Err       error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export for expense %s: %v", e.ExpenseID, e.Err)
}

func (e *ExportError) Unwrap() error { return e.Err }
