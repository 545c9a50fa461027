package store

import (
	"context"
	"time"

	"levelwatch/internal/report"
)

// ReportStore persists daily reports keyed by date (latest-wins).
type ReportStore interface {
	// SaveReport upserts by date and returns the stored record with its ID.
	SaveReport(ctx context.Context, rec ReportRecord) (ReportRecord, error)
	// LatestReport returns the most recently published report, if any.
	LatestReport(ctx context.Context) (ReportRecord, bool, error)
	ReportByDate(ctx context.Context, date string) (ReportRecord, bool, error)
}

// LevelStore owns the trigger-exactly-once invariant.
type LevelStore interface {
	// ReplaceLevels transactionally swaps the level set for a report.
	// Idempotent per report: re-publishing replaces, never accumulates.
	ReplaceLevels(ctx context.Context, reportID int64, specs []report.AlertLevelSpec) ([]LevelRecord, error)
	// PendingLevels returns untriggered levels belonging to the latest
	// published report only; superseded reports' levels are void for alerting.
	PendingLevels(ctx context.Context) ([]LevelRecord, error)
	// MarkTriggered performs a conditional update (set triggered_at where
	// triggered_at is null). false means another invocation already won;
	// that is expected, not an error.
	MarkTriggered(ctx context.Context, levelID int64, at time.Time) (bool, error)
	LevelsForReport(ctx context.Context, reportID int64) ([]LevelRecord, error)
	TriggeredSince(ctx context.Context, since time.Time) ([]LevelRecord, error)
	CountPending(ctx context.Context) (int, error)
}

// SampleStore keeps exactly one last-known sample per symbol.
type SampleStore interface {
	LastSample(ctx context.Context, symbol string) (PriceSample, bool, error)
	SaveSample(ctx context.Context, sample PriceSample) error
}

// RunStatusStore keeps one status row per job name.
type RunStatusStore interface {
	RunStatus(ctx context.Context, job string) (RunStatus, bool, error)
	// UpdateRunStatus upserts run metadata. On an existing row the enabled
	// flag is left untouched; SetJobEnabled owns it, so a tick finishing
	// after an operator disable cannot revert the disable.
	UpdateRunStatus(ctx context.Context, status RunStatus) error
	SetJobEnabled(ctx context.Context, job string, enabled bool) error
}

// NotificationLog is the append-only delivery audit trail.
type NotificationLog interface {
	AppendNotification(ctx context.Context, entry NotificationEntry) error
	RecentNotifications(ctx context.Context, limit int) ([]NotificationEntry, error)
}

// Store is the full persistence surface the app wires together.
type Store interface {
	ReportStore
	LevelStore
	SampleStore
	RunStatusStore
	NotificationLog
}
