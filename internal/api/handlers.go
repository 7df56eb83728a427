package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/givebase/settler/internal/repository"
	"github.com/givebase/settler/internal/settlement"
)

// Handlers groups all HTTP handler methods and their dependencies.
type Handlers struct {
	svc      *settlement.Service
	expenses *repository.ExpenseRepo
	runs     *repository.RunRepo
	log      *slog.Logger
}

// --- helpers ---

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error("encode response", "error", err)
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, map[string]string{"error": msg})
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 1 {
		return def
	}
	return v
}

// --- Healthz ---

func (h *Handlers) Healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// --- TriggerRun ---

// TriggerRun starts a settlement run and blocks until it finishes. The
// period defaults to the previous calendar month.
func (h *Handlers) TriggerRun(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Period string `json:"period"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	period := settlement.PreviousMonth(time.Now())
	if req.Period != "" {
		var err error
		period, err = settlement.ParsePeriod(req.Period)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	run, err := h.svc.Run(r.Context(), period)
	if errors.Is(err, settlement.ErrRunInProgress) {
		h.writeError(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, run)
}

// --- ListRuns ---

func (h *Handlers) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit := parseIntDefault(r.URL.Query().Get("limit"), 20)

	runs, err := h.runs.List(r.Context(), limit)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"runs":  runs,
		"limit": limit,
	})
}

// --- GetRun ---

func (h *Handlers) GetRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	run, err := h.runs.GetByID(r.Context(), id)
	if errors.Is(err, sql.ErrNoRows) {
		h.writeError(w, http.StatusNotFound, "run not found")
		return
	}
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, run)
}

// --- ListExpenses ---

func (h *Handlers) ListExpenses(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := repository.ExpenseFilter{
		HostID: q.Get("host_id"),
		Page:   parseIntDefault(q.Get("page"), 1),
		Limit:  parseIntDefault(q.Get("limit"), 50),
	}
	if s := q.Get("period"); s != "" {
		period, err := settlement.ParsePeriod(s)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		filter.PeriodStart = &period.Start
	}

	expenses, total, err := h.expenses.List(r.Context(), filter)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"expenses": expenses,
		"total":    total,
		"page":     filter.Page,
		"limit":    filter.Limit,
	})
}

// --- RetryExports ---

func (h *Handlers) RetryExports(w http.ResponseWriter, r *http.Request) {
	attached, err := h.svc.RetryPendingExports(r.Context())
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]int{"attached": attached})
}
