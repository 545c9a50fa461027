// Package publish owns the two-step ingest flow: preview (parse only) and
// publish (persist the report and spawn its alert levels, gated on parse
// confidence).
package publish

import (
	"context"
	"fmt"
	"strings"
	"time"

	"levelwatch/internal/logger"
	"levelwatch/internal/report"
	"levelwatch/internal/store"
)

const DefaultWarningThreshold = 3

type Storage interface {
	store.ReportStore
	store.LevelStore
}

type Service struct {
	parser    *report.Parser
	storage   Storage
	threshold int
	loc       *time.Location
	now       func() time.Time
}

func NewService(parser *report.Parser, storage Storage, warningThreshold int, loc *time.Location) (*Service, error) {
	if parser == nil {
		return nil, fmt.Errorf("publish: parser is required")
	}
	if storage == nil {
		return nil, fmt.Errorf("publish: storage is required")
	}
	if warningThreshold <= 0 {
		warningThreshold = DefaultWarningThreshold
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		parser:    parser,
		storage:   storage,
		threshold: warningThreshold,
		loc:       loc,
		now:       time.Now,
	}, nil
}

// Preview parses without persisting anything.
type Preview struct {
	Fields   report.ExtractedFields `json:"fields"`
	Warnings []string               `json:"warnings"`
}

func (s *Service) Preview(rawText string) Preview {
	fields, warnings := s.parser.Parse(rawText)
	if warnings == nil {
		warnings = []string{}
	}
	return Preview{Fields: fields, Warnings: warnings}
}

// Result reports what a publish attempt did.
type Result struct {
	Published  bool     `json:"published"`
	Gated      bool     `json:"gated"`
	GateReason string   `json:"gate_reason,omitempty"`
	ReportID   int64    `json:"report_id,omitempty"`
	Date       string   `json:"date,omitempty"`
	LevelCount int      `json:"level_count"`
	Warnings   []string `json:"warnings"`
}

// Publish parses and persists the report for date (today in the market
// timezone when empty), replacing any prior version and its level set. Too
// many parse warnings block the publish unless force is set: an unreliable
// level extraction silently monitored is worse than a delayed report.
func (s *Service) Publish(ctx context.Context, date, rawText string, force bool) (Result, error) {
	if strings.TrimSpace(rawText) == "" {
		return Result{}, fmt.Errorf("publish: report text is empty")
	}
	date = strings.TrimSpace(date)
	if date == "" {
		date = s.now().In(s.loc).Format("2006-01-02")
	} else if _, err := time.Parse("2006-01-02", date); err != nil {
		return Result{}, fmt.Errorf("publish: bad date %q: %w", date, err)
	}

	fields, warnings := s.parser.Parse(rawText)
	if warnings == nil {
		warnings = []string{}
	}
	res := Result{Date: date, Warnings: warnings}

	if len(warnings) > s.threshold && !force {
		res.Gated = true
		res.GateReason = fmt.Sprintf("%d parse warnings exceed threshold %d; re-check the report or force", len(warnings), s.threshold)
		logger.Warnf("publish: report for %s gated (%d warnings)", date, len(warnings))
		return res, nil
	}

	rec, err := s.storage.SaveReport(ctx, store.ReportRecord{
		Date:        date,
		RawText:     rawText,
		Extracted:   fields,
		Warnings:    warnings,
		PublishedAt: s.now(),
	})
	if err != nil {
		return res, fmt.Errorf("publish: saving report: %w", err)
	}
	res.ReportID = rec.ID

	levels, err := s.storage.ReplaceLevels(ctx, rec.ID, fields.AlertLevels)
	if err != nil {
		return res, fmt.Errorf("publish: creating levels: %w", err)
	}
	res.Published = true
	res.LevelCount = len(levels)
	logger.Infof("publish: report %s published id=%d levels=%d warnings=%d force=%v",
		date, rec.ID, len(levels), len(warnings), force)
	return res, nil
}
