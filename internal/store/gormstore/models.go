package gormstore

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"levelwatch/internal/report"
	"levelwatch/internal/store"
)

type reportModel struct {
	ID            int64          `gorm:"column:id;primaryKey"`
	Date          string         `gorm:"column:date;uniqueIndex"`
	RawText       string         `gorm:"column:raw_text"`
	Extracted     datatypes.JSON `gorm:"column:extracted"`
	Warnings      datatypes.JSON `gorm:"column:warnings"`
	PublishedAtMs int64          `gorm:"column:published_at;index"`
}

func (reportModel) TableName() string { return "reports" }

type alertLevelModel struct {
	ID            int64  `gorm:"column:id;primaryKey"`
	ReportID      int64  `gorm:"column:report_id;index"`
	LevelName     string `gorm:"column:level_name"`
	Price         string `gorm:"column:price"`
	Direction     string `gorm:"column:direction"`
	Action        string `gorm:"column:action"`
	Reason        string `gorm:"column:reason"`
	TriggeredAtMs *int64 `gorm:"column:triggered_at;index"`
	CreatedAtMs   int64  `gorm:"column:created_at"`
}

func (alertLevelModel) TableName() string { return "alert_levels" }

type priceSampleModel struct {
	Symbol       string `gorm:"column:symbol;primaryKey"`
	Price        string `gorm:"column:price"`
	ObservedAtMs int64  `gorm:"column:observed_at"`
}

func (priceSampleModel) TableName() string { return "price_samples" }

type runStatusModel struct {
	Job         string `gorm:"column:job;primaryKey"`
	Enabled     int    `gorm:"column:enabled"`
	LastRunAtMs int64  `gorm:"column:last_run_at"`
	LastPrice   string `gorm:"column:last_price"`
	LastError   string `gorm:"column:last_error"`
}

func (runStatusModel) TableName() string { return "run_status" }

type notificationModel struct {
	ID           int64          `gorm:"column:id;primaryKey"`
	AlertLevelID *int64         `gorm:"column:alert_level_id;index"`
	Channel      string         `gorm:"column:channel"`
	Status       string         `gorm:"column:status"`
	ErrorMessage string         `gorm:"column:error_message"`
	Payload      datatypes.JSON `gorm:"column:payload"`
	CreatedAtMs  int64          `gorm:"column:created_at;index"`
}

func (notificationModel) TableName() string { return "notification_log" }

// --------------------------- Model Conversion ------------------------------

func newReportModel(rec store.ReportRecord) (reportModel, error) {
	extracted, err := json.Marshal(rec.Extracted)
	if err != nil {
		return reportModel{}, err
	}
	warnings := rec.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	warnBytes, err := json.Marshal(warnings)
	if err != nil {
		return reportModel{}, err
	}
	if rec.PublishedAt.IsZero() {
		rec.PublishedAt = time.Now()
	}
	return reportModel{
		ID:            rec.ID,
		Date:          rec.Date,
		RawText:       rec.RawText,
		Extracted:     datatypes.JSON(extracted),
		Warnings:      datatypes.JSON(warnBytes),
		PublishedAtMs: rec.PublishedAt.UnixMilli(),
	}, nil
}

func reportModelToRecord(m reportModel) store.ReportRecord {
	rec := store.ReportRecord{
		ID:          m.ID,
		Date:        m.Date,
		RawText:     m.RawText,
		PublishedAt: millisToTime(m.PublishedAtMs),
	}
	if len(m.Extracted) > 0 {
		_ = json.Unmarshal(m.Extracted, &rec.Extracted)
	}
	if len(m.Warnings) > 0 {
		_ = json.Unmarshal(m.Warnings, &rec.Warnings)
	}
	return rec
}

func newLevelModel(reportID int64, spec report.AlertLevelSpec, now time.Time) alertLevelModel {
	return alertLevelModel{
		ReportID:    reportID,
		LevelName:   spec.LevelName,
		Price:       spec.Price.String(),
		Direction:   string(spec.Direction),
		Action:      spec.Action,
		Reason:      spec.Reason,
		CreatedAtMs: now.UnixMilli(),
	}
}

func levelModelToRecord(m alertLevelModel) store.LevelRecord {
	rec := store.LevelRecord{
		ID:        m.ID,
		ReportID:  m.ReportID,
		LevelName: m.LevelName,
		Price:     parseStoredDecimal(m.Price),
		Direction: report.Direction(m.Direction),
		Action:    m.Action,
		Reason:    m.Reason,
		CreatedAt: millisToTime(m.CreatedAtMs),
	}
	if m.TriggeredAtMs != nil && *m.TriggeredAtMs > 0 {
		ts := millisToTime(*m.TriggeredAtMs)
		rec.TriggeredAt = &ts
	}
	return rec
}

func parseStoredDecimal(raw string) decimal.Decimal {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func millisToTime(v int64) time.Time {
	if v <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(v)
}
