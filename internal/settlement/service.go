package settlement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/givebase/settler/internal/domain"
	"github.com/givebase/settler/internal/export"
	"github.com/givebase/settler/internal/metrics"
	"github.com/givebase/settler/internal/repository"
)

// Stores groups the repositories a settlement run reads and writes.
type Stores struct {
	Hosts    *repository.HostRepo
	Plans    *repository.PlanRepo
	Txns     *repository.TransactionRepo
	Expenses *repository.ExpenseRepo
	Runs     *repository.RunRepo
}

// Service orchestrates settlement runs across all active hosts.
type Service struct {
	cfg      Config
	st       Stores
	files    export.FileStore
	notifier Notifier
	metrics  *metrics.Metrics
	log      *slog.Logger

	mu sync.Mutex // held for the duration of a run
}

func NewService(cfg Config, st Stores, files export.FileStore, notifier Notifier, m *metrics.Metrics, log *slog.Logger) *Service {
	return &Service{
		cfg:      cfg.withDefaults(),
		st:       st,
		files:    files,
		notifier: notifier,
		metrics:  m,
		log:      log.With("component", "settlement"),
	}
}

// Run settles one period across all active hosts and returns the run
// report. Only one run may be in flight per process; concurrent calls get
// ErrRunInProgress. A non-nil error means the run itself could not proceed;
// individual host failures are reported, not returned.
func (s *Service) Run(ctx context.Context, period Period) (*domain.SettlementRun, error) {
	if !s.mu.TryLock() {
		return nil, ErrRunInProgress
	}
	defer s.mu.Unlock()

	started := time.Now().UTC()
	runID := fmt.Sprintf("RUN-%s-%s", period, uuid.NewString()[:8])
	log := s.log.With("run", runID)
	log.Info("starting settlement run",
		"period", period.String(), "parallelism", s.cfg.Parallelism)

	run := &domain.SettlementRun{
		ID:          runID,
		PeriodStart: period.Start,
		PeriodEnd:   period.End,
		StartedAt:   started,
	}

	// Pick up audit exports a previous run left pending.
	if n, err := s.RetryPendingExports(ctx); err != nil {
		log.Warn("pending export sweep failed", "error", err)
	} else if n > 0 {
		log.Info("re-attached pending audit exports", "count", n)
	}

	hosts, err := s.st.Hosts.ListActive(ctx)
	if err != nil {
		return s.finishFatal(ctx, run, log, fmt.Errorf("list hosts: %w", err))
	}
	plans, err := s.st.Plans.ListAll(ctx)
	if err != nil {
		return s.finishFatal(ctx, run, log, fmt.Errorf("snapshot plans: %w", err))
	}
	catalog := NewPlanCatalog(plans)
	run.HostsTotal = len(hosts)
	log.Info("run inputs loaded", "hosts", len(hosts), "plans", catalog.Len())

	results := make([]hostResult, len(hosts))
	var g errgroup.Group
	g.SetLimit(s.cfg.Parallelism)
	for i := range hosts {
		// A cancelled run stops submitting hosts; started hosts finish.
		if ctx.Err() != nil {
			results[i] = hostResult{host: hosts[i], status: domain.HostFailed,
				reason: "run cancelled before host started"}
			continue
		}
		i := i
		g.Go(func() error {
			results[i] = s.runHost(ctx, runID, period, hosts[i], catalog)
			return nil
		})
	}
	g.Wait()

	for _, res := range results {
		switch res.status {
		case domain.HostSettled:
			run.HostsSettled++
		case domain.HostSkipped:
			run.HostsSkipped++
		case domain.HostFailed:
			run.HostsFailed++
			run.Failures = append(run.Failures, domain.HostFailure{
				HostID: res.host.ID,
				Reason: res.reason,
			})
		}
		run.Flagged = append(run.Flagged, res.flagged...)
	}
	run.TipsFlagged = len(run.Flagged)
	run.FinishedAt = time.Now().UTC()

	s.observe(run)
	s.persist(ctx, run, log)

	log.Info("settlement run complete",
		"hosts", run.HostsTotal, "settled", run.HostsSettled,
		"skipped", run.HostsSkipped, "failed", run.HostsFailed,
		"tips_flagged", run.TipsFlagged, "duration", run.Duration())

	return run, nil
}

type hostResult struct {
	host    domain.Host
	status  domain.HostStatus
	reason  string
	flagged []domain.FlaggedTip
}

// runHost walks one host from Pending through Processing to a terminal
// state. Failures stay inside the host: panics are recovered and store
// errors are retried once before the host is marked failed.
func (s *Service) runHost(ctx context.Context, runID string, period Period, host domain.Host, plans *PlanCatalog) (res hostResult) {
	log := s.log.With("run", runID, "host", host.Slug)
	defer func() {
		if p := recover(); p != nil {
			log.Error("panic while settling host", "panic", p)
			res = hostResult{host: host, status: domain.HostFailed,
				reason: fmt.Sprintf("panic: %v", p)}
		}
	}()

	if ctx.Err() != nil {
		return hostResult{host: host, status: domain.HostFailed,
			reason: "run cancelled before host started"}
	}

	log.Debug("host state change", "state", domain.HostProcessing)

	// A host that starts is allowed to finish. Cancelling the run must not
	// abandon a half-written host mid-pipeline.
	hctx := context.WithoutCancel(ctx)

	res, err := s.settleHost(hctx, runID, period, host, plans, log)
	if err != nil {
		var se *StoreError
		if errors.As(err, &se) {
			log.Warn("store error, retrying host once",
				"op", se.Op, "error", se.Err, "backoff", s.cfg.RetryBackoff)
			time.Sleep(s.cfg.RetryBackoff)
			res, err = s.settleHost(hctx, runID, period, host, plans, log)
		}
	}
	if err != nil {
		log.Error("host settlement failed", "error", err)
		return hostResult{host: host, status: domain.HostFailed,
			reason: err.Error(), flagged: res.flagged}
	}

	log.Debug("host state change", "state", res.status)
	return res
}

// settleHost runs the read, classify, convert, aggregate, build, write,
// export pipeline for one host.
func (s *Service) settleHost(ctx context.Context, runID string, period Period, host domain.Host, plans *PlanCatalog, log *slog.Logger) (hostResult, error) {
	res := hostResult{host: host}

	txns, err := s.st.Txns.ListQualifying(ctx, host.ID, period.Start, period.End)
	if err != nil {
		return res, &StoreError{Op: "list qualifying transactions", Err: err}
	}

	entries, err := Classify(txns)
	if err != nil {
		return res, err
	}

	agg, err := BuildAggregate(host, entries, plans, log)
	if err != nil {
		return res, err
	}
	res.flagged = agg.Flagged

	if agg.Totals.IsZero() {
		res.status = domain.HostSkipped
		res.reason = "no qualifying activity"
		return res, nil
	}

	stl := BuildSettlement(host, period, agg.Totals, s.cfg, runID, time.Now().UTC())
	write := repository.SettlementWrite{
		Ref:             stl.Ref,
		Expense:         stl.Expense,
		Credit:          stl.Credit,
		ContributingIDs: transactionIDs(agg.Contributing),
	}
	if err := s.st.Expenses.CreateSettlement(ctx, write); err != nil {
		if errors.Is(err, repository.ErrAlreadySettled) {
			res.status = domain.HostSkipped
			res.reason = "transactions claimed by another run"
			return res, nil
		}
		return res, &StoreError{Op: "create settlement", Err: err}
	}

	log.Info("settlement committed",
		"collected", agg.Totals.Collected(), "payable", agg.Totals.Payable(),
		"currency", host.Currency, "transactions", len(agg.Contributing))

	if stl.Expense != nil {
		s.notifier.SettlementCreated(ctx, host, stl.Expense)
		if err := s.exportAudit(ctx, stl.Expense, agg.Contributing, period); err != nil {
			log.Warn("audit export failed, left pending for retry", "error", err)
			s.metrics.ExportFailures.Inc()
		}
	}

	res.status = domain.HostSettled
	return res, nil
}

// exportAudit writes the contributing-transaction CSV and attaches it to
// the expense. Money is already committed at this point, so a failure
// leaves the expense pending export instead of failing the host.
func (s *Service) exportAudit(ctx context.Context, exp *domain.Expense, contributing []domain.Transaction, period Period) error {
	data, err := export.BuildCSV(contributing)
	if err != nil {
		return &ExportError{ExpenseID: exp.ID, Err: err}
	}
	name := export.Filename(exp.HostID, period.String())
	url, err := s.files.Put(ctx, name, data)
	if err != nil {
		return &ExportError{ExpenseID: exp.ID, Err: err}
	}
	file := &domain.AttachedFile{
		ID:        uuid.NewString(),
		ExpenseID: exp.ID,
		Filename:  name,
		URL:       url,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.st.Expenses.AttachFile(ctx, file); err != nil {
		return &ExportError{ExpenseID: exp.ID, Err: err}
	}
	return nil
}

// RetryPendingExports re-attempts audit exports whose attach never made it.
// It runs at the start of every settlement run and behind the ops API.
func (s *Service) RetryPendingExports(ctx context.Context) (int, error) {
	pending, err := s.st.Expenses.ListPendingExport(ctx)
	if err != nil {
		return 0, &StoreError{Op: "list pending exports", Err: err}
	}

	attached := 0
	for i := range pending {
		exp := &pending[i]
		contributing, err := s.st.Txns.ListBySettlement(ctx, exp.ID)
		if err != nil {
			return attached, &StoreError{Op: "list settled transactions", Err: err}
		}
		period := Period{Start: exp.PeriodStart, End: exp.PeriodEnd}
		if err := s.exportAudit(ctx, exp, contributing, period); err != nil {
			s.log.Warn("pending export retry failed", "expense_id", exp.ID, "error", err)
			s.metrics.ExportFailures.Inc()
			continue
		}
		attached++
	}
	return attached, nil
}

// --- helpers ---

func (s *Service) finishFatal(ctx context.Context, run *domain.SettlementRun, log *slog.Logger, err error) (*domain.SettlementRun, error) {
	run.Error = err.Error()
	run.FinishedAt = time.Now().UTC()
	s.persist(ctx, run, log)
	log.Error("settlement run aborted", "error", err)
	return run, err
}

// persist writes the run report. A failure here loses only the report,
// never money, so it is logged and swallowed.
func (s *Service) persist(ctx context.Context, run *domain.SettlementRun, log *slog.Logger) {
	if err := s.st.Runs.Insert(context.WithoutCancel(ctx), run); err != nil {
		log.Error("persist run report", "error", err)
	}
}

func (s *Service) observe(run *domain.SettlementRun) {
	s.metrics.HostsSettled.Add(float64(run.HostsSettled))
	s.metrics.HostsSkipped.Add(float64(run.HostsSkipped))
	s.metrics.HostsFailed.Add(float64(run.HostsFailed))
	s.metrics.TipsFlagged.Add(float64(run.TipsFlagged))
	s.metrics.RunDuration.Observe(run.Duration().Seconds())
}

func transactionIDs(txns []domain.Transaction) []string {
	ids := make([]string, len(txns))
	for i, t := range txns {
		ids[i] = t.ID
	}
	return ids
}
