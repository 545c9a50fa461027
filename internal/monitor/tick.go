// Package monitor implements the stateless price-monitor tick. Every tick is
// an isolated invocation: all state it needs is loaded from the store at the
// start and written back at the end, so overlapping or retried ticks stay
// safe without any in-process coordination.
package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"levelwatch/internal/logger"
	"levelwatch/internal/notify"
	"levelwatch/internal/pricing"
	"levelwatch/internal/store"
)

const DefaultJobName = "price-monitor"

// Storage is the slice of the store the tick needs.
type Storage interface {
	store.LevelStore
	store.SampleStore
	store.RunStatusStore
}

// Dispatcher decouples the tick from delivery plumbing.
type Dispatcher interface {
	DispatchTrigger(ctx context.Context, ev notify.TriggerEvent) []notify.ChannelResult
}

type Params struct {
	Storage    Storage
	Source     pricing.Source
	Dispatcher Dispatcher
	Symbol     string
	Job        string
	Now        func() time.Time
}

type Monitor struct {
	storage    Storage
	source     pricing.Source
	dispatcher Dispatcher
	symbol     string
	job        string
	now        func() time.Time
}

func New(p Params) (*Monitor, error) {
	if p.Storage == nil {
		return nil, fmt.Errorf("monitor: storage is required")
	}
	if p.Source == nil {
		return nil, fmt.Errorf("monitor: price source is required")
	}
	if p.Symbol == "" {
		return nil, fmt.Errorf("monitor: symbol is required")
	}
	if p.Job == "" {
		p.Job = DefaultJobName
	}
	if p.Now == nil {
		p.Now = time.Now
	}
	return &Monitor{
		storage:    p.Storage,
		source:     p.Source,
		dispatcher: p.Dispatcher,
		symbol:     p.Symbol,
		job:        p.Job,
		now:        p.Now,
	}, nil
}

// TickResult summarizes one tick for logging and the manual-run endpoint.
type TickResult struct {
	Skipped    bool            `json:"skipped"`
	Price      decimal.Decimal `json:"price"`
	Provider   string          `json:"provider,omitempty"`
	Checked    int             `json:"checked"`
	Triggered  int             `json:"triggered"`
	ColdStarts int             `json:"cold_starts"`
	Elapsed    time.Duration   `json:"elapsed"`
}

// Tick runs one monitoring pass. Safe to invoke concurrently: the only
// cross-invocation coordination is the store's conditional MarkTriggered and
// the last-write-wins sample row.
func (m *Monitor) Tick(ctx context.Context) (TickResult, error) {
	start := m.now()
	var res TickResult

	status, found, err := m.storage.RunStatus(ctx, m.job)
	if err != nil {
		return res, fmt.Errorf("monitor: loading run status: %w", err)
	}
	if found && !status.Enabled {
		res.Skipped = true
		logger.Debugf("monitor: job %s disabled, skipping tick", m.job)
		return res, nil
	}

	lastSample, haveLast, err := m.storage.LastSample(ctx, m.symbol)
	if err != nil {
		return res, fmt.Errorf("monitor: loading last sample: %w", err)
	}

	quote, err := m.source.Quote(ctx, m.symbol)
	if err != nil {
		// Abort with no state mutated; the next scheduled tick is the retry.
		// LastRunAt stays put so the outage shows up as staleness.
		m.recordFailure(err)
		return res, fmt.Errorf("monitor: fetching price: %w", err)
	}
	res.Price = quote.Price
	res.Provider = quote.Provider

	pending, err := m.storage.PendingLevels(ctx)
	if err != nil {
		return res, fmt.Errorf("monitor: loading pending levels: %w", err)
	}
	res.Checked = len(pending)

	var lastPrice *decimal.Decimal
	if haveLast {
		lastPrice = &lastSample.Price
	}
	crossings := DetectCrossings(lastPrice, quote.Price, pending)

	for _, crossing := range crossings {
		if m.handleCrossing(ctx, crossing, quote) {
			res.Triggered++
			if crossing.ColdStart {
				res.ColdStarts++
			}
		}
	}

	// Overwrite the sample even when nothing crossed, so the next tick
	// brackets against an accurate floor/ceiling.
	if err := m.storage.SaveSample(ctx, store.PriceSample{
		Symbol:     m.symbol,
		Price:      quote.Price,
		ObservedAt: quote.ObservedAt,
	}); err != nil {
		return res, fmt.Errorf("monitor: saving sample: %w", err)
	}

	// RunStatus goes last: a crash anywhere above leaves LastRunAt stale,
	// which is exactly what the health reporter watches for.
	if err := m.storage.UpdateRunStatus(ctx, store.RunStatus{
		Job:       m.job,
		Enabled:   true,
		LastRunAt: m.now(),
		LastPrice: quote.Price,
	}); err != nil {
		return res, fmt.Errorf("monitor: updating run status: %w", err)
	}

	res.Elapsed = m.now().Sub(start)
	logger.Infof("monitor: tick done symbol=%s price=%s provider=%s checked=%d triggered=%d elapsed=%s",
		m.symbol, quote.Price, quote.Provider, res.Checked, res.Triggered, res.Elapsed.Truncate(time.Millisecond))
	return res, nil
}

// handleCrossing claims the level and, only if this invocation won the
// conditional update, dispatches notifications. Failures are isolated per
// level so one bad write cannot starve the rest of the tick.
func (m *Monitor) handleCrossing(ctx context.Context, crossing Crossing, quote pricing.Quote) bool {
	level := crossing.Level
	won, err := m.storage.MarkTriggered(ctx, level.ID, m.now())
	if err != nil {
		logger.Errorf("monitor: marking level %d (%s) triggered failed: %v", level.ID, level.LevelName, err)
		return false
	}
	if !won {
		// Another invocation got there first.
		logger.Debugf("monitor: level %d (%s) already triggered elsewhere", level.ID, level.LevelName)
		return false
	}
	if crossing.ColdStart {
		logger.Warnf("monitor: cold-start trigger for %s at %s (no prior sample; point-in-time check)",
			level.LevelName, level.Price)
	} else {
		logger.Infof("monitor: level crossed %s %s at price=%s", level.LevelName, level.Price, quote.Price)
	}
	if m.dispatcher == nil {
		return true
	}
	m.dispatcher.DispatchTrigger(ctx, notify.TriggerEvent{
		TraceID:    uuid.NewString(),
		LevelID:    level.ID,
		LevelName:  level.LevelName,
		Symbol:     m.symbol,
		LevelPrice: level.Price,
		Direction:  level.Direction,
		Action:     level.Action,
		Reason:     level.Reason,
		Price:      quote.Price,
		ColdStart:  crossing.ColdStart,
		At:         m.now(),
	})
	return true
}

// recordFailure surfaces a provider outage on the status row without bumping
// LastRunAt, so staleness keeps accumulating while the upstream is down.
func (m *Monitor) recordFailure(cause error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	status, found, err := m.storage.RunStatus(ctx, m.job)
	if err != nil {
		logger.Errorf("monitor: loading run status for failure record: %v", err)
		return
	}
	if !found {
		status = store.RunStatus{Job: m.job, Enabled: true}
	}
	status.LastError = cause.Error()
	if err := m.storage.UpdateRunStatus(ctx, status); err != nil {
		logger.Errorf("monitor: recording failure: %v", err)
	}
}
