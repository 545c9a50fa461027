// Package marketcal answers one question: is the market open at a given
// instant. The scheduler uses it to pick its cadence and the health reporter
// uses it to decide whether staleness is an incident or just overnight.
package marketcal

import (
	"fmt"
	"time"
)

type Calendar struct {
	loc       *time.Location
	openMins  int // minutes after midnight, local
	closeMins int
	weekdays  map[time.Weekday]bool
}

// New builds a calendar for a session like ("America/New_York", "09:30",
// "16:00"). Weekends are always closed.
func New(timezone, open, close string) (*Calendar, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("marketcal: loading timezone %q: %w", timezone, err)
	}
	openMins, err := parseClock(open)
	if err != nil {
		return nil, fmt.Errorf("marketcal: open time: %w", err)
	}
	closeMins, err := parseClock(close)
	if err != nil {
		return nil, fmt.Errorf("marketcal: close time: %w", err)
	}
	if closeMins <= openMins {
		return nil, fmt.Errorf("marketcal: close %s must be after open %s", close, open)
	}
	return &Calendar{
		loc:       loc,
		openMins:  openMins,
		closeMins: closeMins,
		weekdays: map[time.Weekday]bool{
			time.Monday: true, time.Tuesday: true, time.Wednesday: true,
			time.Thursday: true, time.Friday: true,
		},
	}, nil
}

// AlwaysOpen suits 24/7 venues (crypto symbols monitored via binance).
func AlwaysOpen() *Calendar {
	return nil
}

// Open reports whether t falls inside the trading session. A nil calendar is
// always open.
func (c *Calendar) Open(t time.Time) bool {
	if c == nil {
		return true
	}
	local := t.In(c.loc)
	if !c.weekdays[local.Weekday()] {
		return false
	}
	mins := local.Hour()*60 + local.Minute()
	return mins >= c.openMins && mins < c.closeMins
}

func parseClock(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}
