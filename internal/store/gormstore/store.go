// Package gormstore implements the store contracts on Gorm + SQLite.
package gormstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"levelwatch/internal/report"
	"levelwatch/internal/store"
)

type Store struct {
	db *gorm.DB
}

var _ store.Store = (*Store)(nil)

// Open initializes the SQLite database at path, migrating the schema.
func Open(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("gorm store: database path cannot be empty")
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&cache=shared", path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, err
	}
	models := []interface{}{
		&reportModel{},
		&alertLevelModel{},
		&priceSampleModel{},
		&runStatusModel{},
		&notificationModel{},
	}
	if err := db.AutoMigrate(models...); err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// SQLite + WAL: keep a small pool so overlapping ticks and HTTP reads
	// don't pile up on the write lock.
	sqlDB.SetMaxOpenConns(2)
	sqlDB.SetMaxIdleConns(2)
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// --------------------------- ReportStore -----------------------------------

func (s *Store) SaveReport(ctx context.Context, rec store.ReportRecord) (store.ReportRecord, error) {
	if s == nil || s.db == nil {
		return store.ReportRecord{}, fmt.Errorf("gorm store not initialized")
	}
	rec.Date = strings.TrimSpace(rec.Date)
	if rec.Date == "" {
		return store.ReportRecord{}, fmt.Errorf("report date is required")
	}
	model, err := newReportModel(rec)
	if err != nil {
		return store.ReportRecord{}, fmt.Errorf("encoding report: %w", err)
	}
	model.ID = 0
	err = s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "date"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"raw_text", "extracted", "warnings", "published_at",
			}),
		}).
		Create(&model).Error
	if err != nil {
		return store.ReportRecord{}, err
	}
	// On conflict the insert ID is not populated; re-read by the natural key.
	var stored reportModel
	if err := s.db.WithContext(ctx).Where("date = ?", rec.Date).First(&stored).Error; err != nil {
		return store.ReportRecord{}, err
	}
	return reportModelToRecord(stored), nil
}

func (s *Store) LatestReport(ctx context.Context) (store.ReportRecord, bool, error) {
	if s == nil || s.db == nil {
		return store.ReportRecord{}, false, fmt.Errorf("gorm store not initialized")
	}
	var model reportModel
	err := s.db.WithContext(ctx).Order("date DESC").First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return store.ReportRecord{}, false, nil
		}
		return store.ReportRecord{}, false, err
	}
	return reportModelToRecord(model), true, nil
}

func (s *Store) ReportByDate(ctx context.Context, date string) (store.ReportRecord, bool, error) {
	if s == nil || s.db == nil {
		return store.ReportRecord{}, false, fmt.Errorf("gorm store not initialized")
	}
	var model reportModel
	err := s.db.WithContext(ctx).Where("date = ?", strings.TrimSpace(date)).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return store.ReportRecord{}, false, nil
		}
		return store.ReportRecord{}, false, err
	}
	return reportModelToRecord(model), true, nil
}

// --------------------------- LevelStore ------------------------------------

func (s *Store) ReplaceLevels(ctx context.Context, reportID int64, specs []report.AlertLevelSpec) ([]store.LevelRecord, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("gorm store not initialized")
	}
	if reportID <= 0 {
		return nil, fmt.Errorf("report id is required")
	}
	now := time.Now()
	models := make([]alertLevelModel, 0, len(specs))
	for _, spec := range specs {
		models = append(models, newLevelModel(reportID, spec, now))
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("report_id = ?", reportID).Delete(&alertLevelModel{}).Error; err != nil {
			return err
		}
		if len(models) == 0 {
			return nil
		}
		return tx.Create(&models).Error
	})
	if err != nil {
		return nil, err
	}
	out := make([]store.LevelRecord, 0, len(models))
	for _, m := range models {
		out = append(out, levelModelToRecord(m))
	}
	return out, nil
}

func (s *Store) PendingLevels(ctx context.Context) ([]store.LevelRecord, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("gorm store not initialized")
	}
	latest, ok, err := s.LatestReport(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	var models []alertLevelModel
	if err := s.db.WithContext(ctx).
		Where("report_id = ? AND triggered_at IS NULL", latest.ID).
		Order("id ASC").
		Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]store.LevelRecord, 0, len(models))
	for _, m := range models {
		out = append(out, levelModelToRecord(m))
	}
	return out, nil
}

// MarkTriggered is the at-most-once gate: the WHERE clause only matches an
// untriggered row, so of any number of concurrent callers exactly one sees
// RowsAffected == 1.
func (s *Store) MarkTriggered(ctx context.Context, levelID int64, at time.Time) (bool, error) {
	if s == nil || s.db == nil {
		return false, fmt.Errorf("gorm store not initialized")
	}
	if levelID <= 0 {
		return false, fmt.Errorf("level id is required")
	}
	if at.IsZero() {
		at = time.Now()
	}
	res := s.db.WithContext(ctx).Model(&alertLevelModel{}).
		Where("id = ? AND triggered_at IS NULL", levelID).
		Update("triggered_at", at.UnixMilli())
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (s *Store) LevelsForReport(ctx context.Context, reportID int64) ([]store.LevelRecord, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("gorm store not initialized")
	}
	var models []alertLevelModel
	if err := s.db.WithContext(ctx).
		Where("report_id = ?", reportID).
		Order("id ASC").
		Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]store.LevelRecord, 0, len(models))
	for _, m := range models {
		out = append(out, levelModelToRecord(m))
	}
	return out, nil
}

func (s *Store) TriggeredSince(ctx context.Context, since time.Time) ([]store.LevelRecord, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("gorm store not initialized")
	}
	var models []alertLevelModel
	if err := s.db.WithContext(ctx).
		Where("triggered_at IS NOT NULL AND triggered_at >= ?", since.UnixMilli()).
		Order("triggered_at DESC").
		Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]store.LevelRecord, 0, len(models))
	for _, m := range models {
		out = append(out, levelModelToRecord(m))
	}
	return out, nil
}

func (s *Store) CountPending(ctx context.Context) (int, error) {
	if s == nil || s.db == nil {
		return 0, fmt.Errorf("gorm store not initialized")
	}
	latest, ok, err := s.LatestReport(ctx)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	var total int64
	err = s.db.WithContext(ctx).Model(&alertLevelModel{}).
		Where("report_id = ? AND triggered_at IS NULL", latest.ID).
		Count(&total).Error
	if err != nil {
		return 0, err
	}
	return int(total), nil
}

// --------------------------- SampleStore -----------------------------------

func (s *Store) LastSample(ctx context.Context, symbol string) (store.PriceSample, bool, error) {
	if s == nil || s.db == nil {
		return store.PriceSample{}, false, fmt.Errorf("gorm store not initialized")
	}
	var model priceSampleModel
	err := s.db.WithContext(ctx).Where("symbol = ?", normalizeSymbol(symbol)).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return store.PriceSample{}, false, nil
		}
		return store.PriceSample{}, false, err
	}
	return store.PriceSample{
		Symbol:     model.Symbol,
		Price:      parseStoredDecimal(model.Price),
		ObservedAt: millisToTime(model.ObservedAtMs),
	}, true, nil
}

// SaveSample is a last-write-wins overwrite; the sample only shapes the next
// tick's bracket, so no conditional update is needed.
func (s *Store) SaveSample(ctx context.Context, sample store.PriceSample) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("gorm store not initialized")
	}
	sym := normalizeSymbol(sample.Symbol)
	if sym == "" {
		return fmt.Errorf("sample symbol is required")
	}
	if sample.ObservedAt.IsZero() {
		sample.ObservedAt = time.Now()
	}
	model := priceSampleModel{
		Symbol:       sym,
		Price:        sample.Price.String(),
		ObservedAtMs: sample.ObservedAt.UnixMilli(),
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "symbol"}},
			DoUpdates: clause.AssignmentColumns([]string{"price", "observed_at"}),
		}).
		Create(&model).Error
}

// --------------------------- RunStatusStore --------------------------------

func (s *Store) RunStatus(ctx context.Context, job string) (store.RunStatus, bool, error) {
	if s == nil || s.db == nil {
		return store.RunStatus{}, false, fmt.Errorf("gorm store not initialized")
	}
	var model runStatusModel
	err := s.db.WithContext(ctx).Where("job = ?", strings.TrimSpace(job)).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return store.RunStatus{}, false, nil
		}
		return store.RunStatus{}, false, err
	}
	return store.RunStatus{
		Job:       model.Job,
		Enabled:   model.Enabled != 0,
		LastRunAt: millisToTime(model.LastRunAtMs),
		LastPrice: parseStoredDecimal(model.LastPrice),
		LastError: model.LastError,
	}, true, nil
}

func (s *Store) UpdateRunStatus(ctx context.Context, status store.RunStatus) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("gorm store not initialized")
	}
	job := strings.TrimSpace(status.Job)
	if job == "" {
		return fmt.Errorf("job name is required")
	}
	enabled := 0
	if status.Enabled {
		enabled = 1
	}
	model := runStatusModel{
		Job:         job,
		Enabled:     enabled,
		LastRunAtMs: status.LastRunAt.UnixMilli(),
		LastPrice:   status.LastPrice.String(),
		LastError:   status.LastError,
	}
	if status.LastRunAt.IsZero() {
		model.LastRunAtMs = 0
	}
	// enabled is deliberately absent from the conflict assignments: a tick
	// finishing after an operator disable must not revert the flag.
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "job"}},
			DoUpdates: clause.AssignmentColumns([]string{"last_run_at", "last_price", "last_error"}),
		}).
		Create(&model).Error
}

func (s *Store) SetJobEnabled(ctx context.Context, job string, enabled bool) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("gorm store not initialized")
	}
	job = strings.TrimSpace(job)
	if job == "" {
		return fmt.Errorf("job name is required")
	}
	val := 0
	if enabled {
		val = 1
	}
	model := runStatusModel{Job: job, Enabled: val}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "job"}},
			DoUpdates: clause.AssignmentColumns([]string{"enabled"}),
		}).
		Create(&model).Error
}

// --------------------------- NotificationLog -------------------------------

func (s *Store) AppendNotification(ctx context.Context, entry store.NotificationEntry) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("gorm store not initialized")
	}
	if strings.TrimSpace(entry.Channel) == "" {
		return fmt.Errorf("notification channel is required")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	payload := strings.TrimSpace(entry.Payload)
	if payload == "" {
		payload = "{}"
	}
	model := notificationModel{
		AlertLevelID: entry.AlertLevelID,
		Channel:      entry.Channel,
		Status:       string(entry.Status),
		ErrorMessage: entry.ErrorMessage,
		Payload:      []byte(payload),
		CreatedAtMs:  entry.CreatedAt.UnixMilli(),
	}
	return s.db.WithContext(ctx).Create(&model).Error
}

func (s *Store) RecentNotifications(ctx context.Context, limit int) ([]store.NotificationEntry, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("gorm store not initialized")
	}
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	var models []notificationModel
	if err := s.db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]store.NotificationEntry, 0, len(models))
	for _, m := range models {
		out = append(out, store.NotificationEntry{
			ID:           m.ID,
			AlertLevelID: m.AlertLevelID,
			Channel:      m.Channel,
			Status:       store.NotificationStatus(m.Status),
			ErrorMessage: m.ErrorMessage,
			Payload:      string(m.Payload),
			CreatedAt:    millisToTime(m.CreatedAtMs),
		})
	}
	return out, nil
}

func normalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
