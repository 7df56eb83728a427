package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TypeCredit TransactionType = "CREDIT"
	TypeDebit  TransactionType = "DEBIT"
)

type TransactionStatus string

const (
	StatusPending   TransactionStatus = "pending"
	StatusConfirmed TransactionStatus = "confirmed"
	StatusVoided    TransactionStatus = "voided"
)

// TransactionData is the free-form annotation bag attached to a ledger row.
// The recorded conversion rate is kept raw so a malformed value surfaces when
// the settlement pipeline inspects it, not when the row is scanned.
type TransactionData struct {
	HostToPlatformFxRate json.RawMessage `json:"hostToPlatformFxRate,omitempty"`
	Plan                 string          `json:"plan,omitempty"`
	Settled              bool            `json:"settled,omitempty"`
}

// Transaction is an immutable ledger row. All amounts are integer minor
// units. The settlement engine only ever touches Settled and SettlementID.
type Transaction struct {
	ID                        string            `json:"id"`
	Type                      TransactionType   `json:"type"`
	Status                    TransactionStatus `json:"status"`
	CollectiveID              string            `json:"collective_id"`
	HostID                    string            `json:"host_id"`
	Amount                    int64             `json:"amount"`
	Currency                  string            `json:"currency"`
	AmountInHostCurrency      int64             `json:"amount_in_host_currency"`
	HostCurrency              string            `json:"host_currency"`
	PlatformFeeInHostCurrency *int64            `json:"platform_fee_in_host_currency,omitempty"`
	HostFeeInHostCurrency     *int64            `json:"host_fee_in_host_currency,omitempty"`
	TransactionGroup          string            `json:"transaction_group"`
	PlatformTipForGroup       *string           `json:"platform_tip_for_group,omitempty"`
	Description               string            `json:"description,omitempty"`
	Data                      TransactionData   `json:"data"`
	Settled                   bool              `json:"settled"`
	SettlementID              *string           `json:"settlement_id,omitempty"`
	CreatedAt                 time.Time         `json:"created_at"`
}

// IsSettled also honors the legacy data.settled annotation written before the
// settlement state became an explicit column.
func (t Transaction) IsSettled() bool {
	return t.Settled || t.Data.Settled
}

func (t Transaction) IsTipCounterpart() bool {
	return t.PlatformTipForGroup != nil && *t.PlatformTipForGroup != ""
}

func (t Transaction) PlatformFee() int64 {
	if t.PlatformFeeInHostCurrency == nil {
		return 0
	}
	return *t.PlatformFeeInHostCurrency
}

func (t Transaction) HostFee() int64 {
	if t.HostFeeInHostCurrency == nil {
		return 0
	}
	return *t.HostFeeInHostCurrency
}

// TipFxRate returns the conversion rate recorded on the annotation bag at
// transaction time. ok is false when no rate was recorded. Accepts both
// number and quoted-string encodings.
func (t Transaction) TipFxRate() (rate decimal.Decimal, ok bool, err error) {
	raw := strings.TrimSpace(string(t.Data.HostToPlatformFxRate))
	if raw == "" || raw == "null" {
		return decimal.Decimal{}, false, nil
	}
	raw = strings.Trim(raw, `"`)
	rate, err = decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, false, fmt.Errorf("parse hostToPlatformFxRate %q: %w", raw, err)
	}
	return rate, true, nil
}
