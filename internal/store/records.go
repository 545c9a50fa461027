// Package store defines the persisted records and storage contracts shared by
// the publish pipeline, the price monitor and the ops surface. Implementations
// live in subpackages (gormstore).
package store

import (
	"time"

	"github.com/shopspring/decimal"

	"levelwatch/internal/report"
)

// ReportRecord is one trading day's report. Date is the natural key: a
// re-publish for the same date replaces the previous version wholesale.
type ReportRecord struct {
	ID          int64
	Date        string // YYYY-MM-DD, unique
	RawText     string
	Extracted   report.ExtractedFields
	Warnings    []string
	PublishedAt time.Time
}

// LevelRecord is a persisted alert level. TriggeredAt moves nil→set exactly
// once and is never unset; the store enforces that with a conditional update.
type LevelRecord struct {
	ID          int64
	ReportID    int64
	LevelName   string
	Price       decimal.Decimal
	Direction   report.Direction
	Action      string
	Reason      string
	TriggeredAt *time.Time
	CreatedAt   time.Time
}

func (l LevelRecord) Triggered() bool {
	return l.TriggeredAt != nil
}

// PriceSample is the single piece of cross-tick memory the monitor keeps:
// the last observed price per symbol, overwritten every tick.
type PriceSample struct {
	Symbol     string
	Price      decimal.Decimal
	ObservedAt time.Time
}

// RunStatus is the singleton health row for a scheduled job.
type RunStatus struct {
	Job       string
	Enabled   bool
	LastRunAt time.Time
	LastPrice decimal.Decimal
	LastError string
}

type NotificationStatus string

const (
	NotificationSuccess NotificationStatus = "success"
	NotificationFailed  NotificationStatus = "failed"
)

// NotificationEntry is one delivery attempt. AlertLevelID is nil for system
// notices that are not tied to a level trigger. Append-only.
type NotificationEntry struct {
	ID           int64
	AlertLevelID *int64
	Channel      string
	Status       NotificationStatus
	ErrorMessage string
	Payload      string
	CreatedAt    time.Time
}
