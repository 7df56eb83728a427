package settlement

import (
	"errors"
	"log/slog"

	"github.com/givebase/settler/internal/currency"
	"github.com/givebase/settler/internal/domain"
)

// Totals are the per-host bucket sums in host currency minor units.
type Totals struct {
	CollectedPlatformFees int64 `json:"collected_platform_fees"`
	UncollectedHostFees   int64 `json:"uncollected_host_fees"`
	PlatformTips          int64 `json:"platform_tips"`
	SharedRevenue         int64 `json:"shared_revenue"`
}

// Collected is what already sits with the host but belongs to the platform;
// it drives the platform-side credit.
func (t Totals) Collected() int64 { return t.CollectedPlatformFees + t.PlatformTips }

// Payable is what the host owes the platform; it drives the expense.
func (t Totals) Payable() int64 { return t.UncollectedHostFees + t.PlatformTips + t.SharedRevenue }

func (t Totals) IsZero() bool {
	return t.CollectedPlatformFees == 0 && t.UncollectedHostFees == 0 &&
		t.PlatformTips == 0 && t.SharedRevenue == 0
}

// Aggregate is the outcome of one host's classification and conversion pass.
type Aggregate struct {
	Host         domain.Host
	Totals       Totals
	Contributing []domain.Transaction // rows to be marked settled
	Flagged      []domain.FlaggedTip  // excluded tips awaiting rate repair
}

// BuildAggregate folds classified entries into bucket totals. Summation is
// commutative, so entry order never changes the result.
func BuildAggregate(host domain.Host, entries []Entry, plans *PlanCatalog, log *slog.Logger) (*Aggregate, error) {
	agg := &Aggregate{Host: host}
	for _, e := range entries {
		switch e.Kind {
		case KindCollectedPlatformFee:
			agg.Totals.CollectedPlatformFees += e.Amount
			agg.Contributing = append(agg.Contributing, e.Txn)
		case KindUncollectedHostFee:
			agg.Totals.UncollectedHostFees += e.Amount
			slug := ResolvePlanSlug(host, e.Txn)
			if pct, ok := plans.SharePercent(slug); ok {
				agg.Totals.SharedRevenue += ShareAmount(e.Amount, pct)
			} else {
				log.Warn("unknown plan, assuming no revenue share",
					"plan", slug, "transaction", e.Txn.ID)
			}
			agg.Contributing = append(agg.Contributing, e.Txn)
		case KindPlatformTip:
			amount, flagged, err := convertTip(host, e.Txn)
			if err != nil {
				return nil, err
			}
			if flagged {
				agg.Flagged = append(agg.Flagged, domain.FlaggedTip{
					HostID:        host.ID,
					TransactionID: e.Txn.ID,
					Reason:        "cross-currency tip without recorded conversion rate",
				})
				continue
			}
			agg.Totals.PlatformTips += amount
			agg.Contributing = append(agg.Contributing, e.Txn)
		}
	}
	return agg, nil
}

// convertTip brings a tip into host currency using the rate recorded on the
// transaction. A missing rate flags the tip for manual review instead of
// failing the host; the rate is never estimated or looked up live.
func convertTip(host domain.Host, t domain.Transaction) (amount int64, flagged bool, err error) {
	if t.Currency == host.Currency {
		if t.Amount < 0 {
			return 0, false, &ConversionError{TransactionID: t.ID, Err: currency.ErrAmountRange}
		}
		return t.Amount, false, nil
	}
	rate, ok, err := t.TipFxRate()
	if err != nil {
		return 0, false, &DataIntegrityError{TransactionID: t.ID, Reason: err.Error()}
	}
	if !ok {
		return 0, true, nil
	}
	converted, err := currency.ConvertMinor(t.Amount, rate)
	if err != nil {
		if errors.Is(err, currency.ErrInvalidRate) {
			return 0, false, &DataIntegrityError{TransactionID: t.ID, Reason: "recorded conversion rate is not positive"}
		}
		return 0, false, &ConversionError{TransactionID: t.ID, Err: err}
	}
	return converted, false, nil
}
