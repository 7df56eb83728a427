package settlement

import (
	"fmt"

	"github.com/givebase/settler/internal/domain"
)

type EntryKind string

const (
	KindCollectedPlatformFee EntryKind = "COLLECTED_PLATFORM_FEE"
	KindUncollectedHostFee   EntryKind = "UNCOLLECTED_HOST_FEE"
	KindPlatformTip          EntryKind = "PLATFORM_TIP"
)

// Entry is one classified ledger row. Downstream components work from the
// kind and amount alone and never re-inspect raw fee fields.
type Entry struct {
	Kind EntryKind
	Txn  domain.Transaction
	// Amount is host currency minor units for fee kinds and the tip's own
	// currency for KindPlatformTip.
	Amount int64
}

// Classify buckets a host's qualifying transactions. Settled rows are
// dropped before any bucketing; they still anchor tip back-references, so a
// tip whose contribution settled in an earlier run remains billable. A host
// fee is counted only when no platform fee was collected on the same row.
func Classify(txns []domain.Transaction) ([]Entry, error) {
	groups := make(map[string]bool, len(txns))
	for _, t := range txns {
		if !t.IsTipCounterpart() {
			groups[t.TransactionGroup] = true
		}
	}

	var entries []Entry
	for _, t := range txns {
		if t.IsSettled() {
			continue
		}
		switch {
		case t.IsTipCounterpart():
			ref := *t.PlatformTipForGroup
			if !groups[ref] {
				return nil, &DataIntegrityError{
					TransactionID: t.ID,
					Reason:        fmt.Sprintf("platform tip references unknown transaction group %s", ref),
				}
			}
			entries = append(entries, Entry{Kind: KindPlatformTip, Txn: t, Amount: t.Amount})
		case t.PlatformFee() != 0:
			entries = append(entries, Entry{Kind: KindCollectedPlatformFee, Txn: t, Amount: abs(t.PlatformFee())})
		case t.HostFee() != 0:
			entries = append(entries, Entry{Kind: KindUncollectedHostFee, Txn: t, Amount: abs(t.HostFee())})
		}
	}
	return entries, nil
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
