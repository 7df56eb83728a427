package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type PayoutMethod string

const (
	PayoutBankAccount PayoutMethod = "BANK_ACCOUNT"
	PayoutPaypal      PayoutMethod = "PAYPAL"
	PayoutOther       PayoutMethod = "OTHER"
)

type Host struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Slug         string       `json:"slug"`
	Currency     string       `json:"currency"`
	Plan         string       `json:"plan"`
	PayoutMethod PayoutMethod `json:"payout_method"`
	Active       bool         `json:"active"`
	CreatedAt    time.Time    `json:"created_at"`
}

type Collective struct {
	ID        string    `json:"id"`
	HostID    string    `json:"host_id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"created_at"`
}

// Plan is a read-only pricing catalog entry. SharePercent is the percentage
// of uncollected host fees owed back to the platform, e.g. "15" for 15%.
type Plan struct {
	Slug         string          `json:"slug"`
	Name         string          `json:"name"`
	SharePercent decimal.Decimal `json:"share_percent"`
	CreatedAt    time.Time       `json:"created_at"`
}
