package domain

import "time"

type HostStatus string

const (
	HostPending    HostStatus = "PENDING"
	HostProcessing HostStatus = "PROCESSING"
	HostSettled    HostStatus = "SETTLED"
	HostSkipped    HostStatus = "SKIPPED"
	HostFailed     HostStatus = "FAILED"
)

type HostFailure struct {
	HostID string `json:"host_id"`
	Reason string `json:"reason"`
}

// FlaggedTip records a cross-currency tip that carried no recorded
// conversion rate. The tip stays unsettled until the rate is repaired.
type FlaggedTip struct {
	HostID        string `json:"host_id"`
	TransactionID string `json:"transaction_id"`
	Reason        string `json:"reason"`
}

type SettlementRun struct {
	ID           string        `json:"id"`
	PeriodStart  time.Time     `json:"period_start"`
	PeriodEnd    time.Time     `json:"period_end"`
	StartedAt    time.Time     `json:"started_at"`
	FinishedAt   time.Time     `json:"finished_at"`
	HostsTotal   int           `json:"hosts_total"`
	HostsSettled int           `json:"hosts_settled"`
	HostsSkipped int           `json:"hosts_skipped"`
	HostsFailed  int           `json:"hosts_failed"`
	TipsFlagged  int           `json:"tips_flagged"`
	Failures     []HostFailure `json:"failures,omitempty"`
	Flagged      []FlaggedTip  `json:"flagged,omitempty"`
	Error        string        `json:"error,omitempty"`
}

func (r SettlementRun) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
