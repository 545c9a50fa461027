// Package health derives operator-facing health from persisted run metadata.
// Monitoring failures never reach end users directly; this view is the
// primary detection mechanism for them.
package health

import (
	"context"
	"fmt"
	"time"

	"levelwatch/internal/marketcal"
	"levelwatch/internal/store"
)

type Status string

const (
	StatusHealthy  Status = "healthy"
	StatusWarning  Status = "warning"
	StatusCritical Status = "critical"
)

// Report is the health endpoint payload.
type Report struct {
	Status       Status              `json:"status"`
	Reason       string              `json:"reason,omitempty"`
	Enabled      bool                `json:"enabled"`
	MarketOpen   bool                `json:"market_open"`
	LastRunAt    *time.Time          `json:"last_run_at,omitempty"`
	LastPrice    string              `json:"last_price,omitempty"`
	LastError    string              `json:"last_error,omitempty"`
	PendingCount int                 `json:"pending_count"`
	Triggers24h  []store.LevelRecord `json:"triggers_24h"`
}

type Storage interface {
	store.RunStatusStore
	store.LevelStore
}

type Reporter struct {
	storage    Storage
	cal        *marketcal.Calendar
	job        string
	staleAfter time.Duration
	now        func() time.Time
}

func NewReporter(storage Storage, cal *marketcal.Calendar, job string, staleAfter time.Duration) *Reporter {
	if staleAfter <= 0 {
		staleAfter = 5 * time.Minute
	}
	return &Reporter{
		storage:    storage,
		cal:        cal,
		job:        job,
		staleAfter: staleAfter,
		now:        time.Now,
	}
}

// Report computes the three-state health. Staleness only escalates to
// critical during market hours; an idle overnight monitor is expected.
func (r *Reporter) Report(ctx context.Context) (Report, error) {
	now := r.now()
	out := Report{MarketOpen: r.cal.Open(now)}

	status, found, err := r.storage.RunStatus(ctx, r.job)
	if err != nil {
		return out, fmt.Errorf("health: loading run status: %w", err)
	}

	pending, err := r.storage.CountPending(ctx)
	if err != nil {
		return out, fmt.Errorf("health: counting pending levels: %w", err)
	}
	out.PendingCount = pending

	triggers, err := r.storage.TriggeredSince(ctx, now.Add(-24*time.Hour))
	if err != nil {
		return out, fmt.Errorf("health: loading recent triggers: %w", err)
	}
	if triggers == nil {
		triggers = []store.LevelRecord{}
	}
	out.Triggers24h = triggers

	if !found {
		out.Status = StatusWarning
		out.Reason = "monitor has never run"
		return out, nil
	}

	out.Enabled = status.Enabled
	out.LastError = status.LastError
	if !status.LastRunAt.IsZero() {
		ts := status.LastRunAt
		out.LastRunAt = &ts
		out.LastPrice = status.LastPrice.String()
	}

	switch {
	case !status.Enabled:
		out.Status = StatusWarning
		out.Reason = "monitor disabled"
	case r.stale(status, now) && out.MarketOpen:
		out.Status = StatusCritical
		out.Reason = fmt.Sprintf("last run %s ago during market hours", r.sinceLast(status, now))
	case status.LastError != "":
		out.Status = StatusWarning
		out.Reason = "last tick failed: " + status.LastError
	default:
		out.Status = StatusHealthy
	}
	return out, nil
}

func (r *Reporter) stale(status store.RunStatus, now time.Time) bool {
	if status.LastRunAt.IsZero() {
		return true
	}
	return now.Sub(status.LastRunAt) > r.staleAfter
}

func (r *Reporter) sinceLast(status store.RunStatus, now time.Time) time.Duration {
	if status.LastRunAt.IsZero() {
		return 0
	}
	return now.Sub(status.LastRunAt).Truncate(time.Second)
}
