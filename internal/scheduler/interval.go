// Package scheduler drives the monitor tick on a fixed cadence. There is no
// long-lived monitor process to protect: each invocation of the task is
// self-contained, so the scheduler only decides when, never what.
package scheduler

import (
	"context"
	"time"

	"levelwatch/internal/logger"
	"levelwatch/internal/marketcal"
)

type IntervalScheduler struct {
	// ActiveInterval applies while the market is open, IdleInterval outside
	// the session. Polling continues off-hours so extended moves still get
	// a bracket, just at a gentler cadence.
	ActiveInterval time.Duration
	IdleInterval   time.Duration
	RunImmediately bool

	cal   *marketcal.Calendar
	nowFn func() time.Time
}

func NewIntervalScheduler(cal *marketcal.Calendar, active, idle time.Duration) *IntervalScheduler {
	if active <= 0 {
		active = time.Minute
	}
	if idle <= 0 {
		idle = 15 * time.Minute
	}
	return &IntervalScheduler{
		ActiveInterval: active,
		IdleInterval:   idle,
		cal:            cal,
		nowFn:          time.Now,
	}
}

// Start blocks until ctx is done, invoking task at the cadence the calendar
// dictates. A slow task simply delays the next wake-up; overlap safety is the
// task's own concern (and the tick is built for it).
func (s *IntervalScheduler) Start(ctx context.Context, task func()) {
	if s == nil || task == nil {
		return
	}
	if s.nowFn == nil {
		s.nowFn = time.Now
	}
	logger.Infof("scheduler: started active=%s idle=%s", s.ActiveInterval, s.IdleInterval)

	if s.RunImmediately {
		task()
	}
	for {
		wait := s.intervalAt(s.nowFn())
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			logger.Infof("scheduler: ctx done, exit")
			return
		case <-timer.C:
		}
		task()
	}
}

func (s *IntervalScheduler) intervalAt(now time.Time) time.Duration {
	if s.cal.Open(now) {
		return s.ActiveInterval
	}
	return s.IdleInterval
}
