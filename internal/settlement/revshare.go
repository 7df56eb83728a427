package settlement

import (
	"github.com/shopspring/decimal"

	"github.com/givebase/settler/internal/domain"
)

var oneHundred = decimal.NewFromInt(100)

// PlanCatalog is the per-run snapshot of the pricing plans. Every share
// computation in a run reads the same snapshot, so a plan edited mid-run
// cannot split a host's transactions across two percentages.
type PlanCatalog struct {
	percents map[string]decimal.Decimal
}

func NewPlanCatalog(plans []domain.Plan) *PlanCatalog {
	m := make(map[string]decimal.Decimal, len(plans))
	for _, p := range plans {
		m[p.Slug] = p.SharePercent
	}
	return &PlanCatalog{percents: m}
}

func (c *PlanCatalog) SharePercent(slug string) (decimal.Decimal, bool) {
	pct, ok := c.percents[slug]
	return pct, ok
}

func (c *PlanCatalog) Len() int { return len(c.percents) }

// ResolvePlanSlug returns the plan governing a transaction: the slug
// captured on the transaction at creation time wins over the host's
// current plan.
func ResolvePlanSlug(host domain.Host, t domain.Transaction) string {
	if t.Data.Plan != "" {
		return t.Data.Plan
	}
	return host.Plan
}

// ShareAmount computes the platform's share of an uncollected host fee:
// round(hostFee * percent / 100), half away from zero.
func ShareAmount(hostFee int64, percent decimal.Decimal) int64 {
	if percent.IsZero() {
		return 0
	}
	return decimal.NewFromInt(hostFee).Mul(percent).DivRound(oneHundred, 0).IntPart()
}
