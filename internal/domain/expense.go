package domain

import "time"

type ExpenseKind string

const KindPlatformTipSettlement ExpenseKind = "PLATFORM_TIP_SETTLEMENT"

type ExpenseStatus string

const (
	ExpensePending  ExpenseStatus = "PENDING"
	ExpenseApproved ExpenseStatus = "APPROVED"
	ExpensePaid     ExpenseStatus = "PAID"
)

// Fixed item descriptions; the builder emits them in this order.
const (
	ItemPlatformFees  = "Platform Fees"
	ItemPlatformTips  = "Platform Tips"
	ItemSharedRevenue = "Shared Revenue"
)

type Expense struct {
	ID            string         `json:"id"`
	HostID        string         `json:"host_id"`
	Kind          ExpenseKind    `json:"kind"`
	Status        ExpenseStatus  `json:"status"`
	Description   string         `json:"description"`
	Currency      string         `json:"currency"`
	TotalAmount   int64          `json:"total_amount"`
	PayoutMethod  PayoutMethod   `json:"payout_method"`
	PeriodStart   time.Time      `json:"period_start"`
	PeriodEnd     time.Time      `json:"period_end"`
	ExportPending bool           `json:"export_pending"`
	CreatedAt     time.Time      `json:"created_at"`
	Items         []ExpenseItem  `json:"items,omitempty"`
	Files         []AttachedFile `json:"files,omitempty"`
}

type ExpenseItem struct {
	ID          string    `json:"id"`
	ExpenseID   string    `json:"expense_id"`
	Description string    `json:"description"`
	Amount      int64     `json:"amount"`
	Position    int       `json:"position"`
	IncurredAt  time.Time `json:"incurred_at"`
}

type AttachedFile struct {
	ID        string    `json:"id"`
	ExpenseID string    `json:"expense_id"`
	Filename  string    `json:"filename"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"created_at"`
}
