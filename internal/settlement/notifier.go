package settlement

import (
	"context"
	"log/slog"

	"github.com/givebase/settler/internal/domain"
)

// Notifier is informed after a settlement expense is committed. Host-facing
// delivery (email, webhooks) lives outside this engine; implementations
// here only need to record that the event happened.
type Notifier interface {
	SettlementCreated(ctx context.Context, host domain.Host, exp *domain.Expense)
}

// LogNotifier is the default Notifier; it writes the event to the log.
type LogNotifier struct {
	Log *slog.Logger
}

func (n LogNotifier) SettlementCreated(_ context.Context, host domain.Host, exp *domain.Expense) {
	n.Log.Info("settlement expense created",
		"host", host.Slug,
		"expense_id", exp.ID,
		"total", exp.TotalAmount,
		"currency", exp.Currency,
	)
}
