package settlement

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/givebase/settler/internal/domain"
)

// Settlement is the pair of financial artifacts built for one host: the
// expense billing the host and the platform-side credit recording funds the
// host already collected. Either side may be nil when its total is zero.
type Settlement struct {
	Ref     string // settlement reference stamped on contributing rows
	Expense *domain.Expense
	Credit  *domain.Transaction
}

// BuildSettlement assembles the expense and credit for one host's totals.
// Zero-amount items are omitted. When the whole payable side is zero no
// expense is built and contributing rows reference the run instead.
func BuildSettlement(host domain.Host, period Period, totals Totals, cfg Config, runID string, now time.Time) *Settlement {
	s := &Settlement{Ref: runID}

	if payable := totals.Payable(); payable > 0 {
		exp := &domain.Expense{
			ID:            uuid.NewString(),
			HostID:        host.ID,
			Kind:          domain.KindPlatformTipSettlement,
			Status:        domain.ExpensePending,
			Description:   fmt.Sprintf("Platform settlement for %s", period.Label()),
			Currency:      host.Currency,
			TotalAmount:   payable,
			PayoutMethod:  host.PayoutMethod,
			PeriodStart:   period.Start,
			PeriodEnd:     period.End,
			ExportPending: true,
			CreatedAt:     now,
		}

		incurred := period.End.AddDate(0, 0, -1)
		position := 0
		for _, it := range []struct {
			description string
			amount      int64
		}{
			{domain.ItemPlatformFees, totals.UncollectedHostFees},
			{domain.ItemPlatformTips, totals.PlatformTips},
			{domain.ItemSharedRevenue, totals.SharedRevenue},
		} {
			if it.amount == 0 {
				continue
			}
			position++
			exp.Items = append(exp.Items, domain.ExpenseItem{
				ID:          uuid.NewString(),
				ExpenseID:   exp.ID,
				Description: it.description,
				Amount:      it.amount,
				Position:    position,
				IncurredAt:  incurred,
			})
		}

		s.Expense = exp
		s.Ref = exp.ID
	}

	if collected := totals.Collected(); collected > 0 {
		s.Credit = &domain.Transaction{
			ID:                   uuid.NewString(),
			Type:                 domain.TypeCredit,
			Status:               domain.StatusConfirmed,
			CollectiveID:         cfg.PlatformAccountID,
			HostID:               cfg.PlatformAccountID,
			Amount:               collected,
			Currency:             host.Currency,
			AmountInHostCurrency: collected,
			HostCurrency:         host.Currency,
			TransactionGroup:     uuid.NewString(),
			Description:          fmt.Sprintf("Collected platform fees and tips for %s (%s)", period.Label(), host.Name),
			CreatedAt:            now,
		}
	}

	return s
}
