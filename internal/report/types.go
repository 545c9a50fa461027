package report

import "github.com/shopspring/decimal"

// Direction tells the monitor which side of the level a crossing must come from.
type Direction string

const (
	DirectionUpside   Direction = "upside"
	DirectionDownside Direction = "downside"
)

// RegimeMode is the closed set of market modes a report can declare.
type RegimeMode string

const (
	RegimeCalm      RegimeMode = "calm"
	RegimeCaution   RegimeMode = "caution"
	RegimeElevated  RegimeMode = "elevated_risk"
	RegimeDefensive RegimeMode = "defensive"
)

// regimeSeverity orders modes from most to least conservative. Extraction
// scans in this order so that a report mentioning both ends resolves toward
// the defensive side.
var regimeSeverity = []RegimeMode{RegimeDefensive, RegimeElevated, RegimeCaution, RegimeCalm}

type KeyMetrics struct {
	Close     *decimal.Decimal `json:"close,omitempty"`
	Open      *decimal.Decimal `json:"open,omitempty"`
	High      *decimal.Decimal `json:"high,omitempty"`
	Low       *decimal.Decimal `json:"low,omitempty"`
	ChangePct *float64         `json:"change_pct,omitempty"`
	Volume    *float64         `json:"volume,omitempty"`
}

type Regime struct {
	Mode    RegimeMode `json:"mode"`
	Label   string     `json:"label"`
	Reasons []string   `json:"reasons,omitempty"`
}

type EntryQuality struct {
	Score int    `json:"score"`
	Label string `json:"label"`
}

// AlertLevelSpec is a single actionable price level lifted out of the report
// text. Specs become persisted alert levels at publish time.
type AlertLevelSpec struct {
	LevelName string          `json:"level_name"`
	Price     decimal.Decimal `json:"price"`
	Direction Direction       `json:"direction"`
	Action    string          `json:"action"`
	Reason    string          `json:"reason,omitempty"`
}

type PositionGuidance struct {
	Stance           string   `json:"stance,omitempty"`
	MaxAllocationPct *float64 `json:"max_allocation_pct,omitempty"`
	Sizing           string   `json:"sizing,omitempty"`
}

type Scenario struct {
	Condition string `json:"condition"`
	Action    string `json:"action"`
}

type ForecastOutcome struct {
	Forecast string `json:"forecast"`
	Correct  bool   `json:"correct"`
}

type PerformanceReview struct {
	Correct  int               `json:"correct"`
	Total    int               `json:"total"`
	Outcomes []ForecastOutcome `json:"outcomes,omitempty"`
}

// ExtractedFields is the structured payload produced by Parse. Every field is
// best-effort; absent sections are zero values, never errors.
type ExtractedFields struct {
	KeyMetrics        KeyMetrics         `json:"key_metrics"`
	Regime            Regime             `json:"regime"`
	EntryQuality      EntryQuality       `json:"entry_quality"`
	AlertLevels       []AlertLevelSpec   `json:"alert_levels,omitempty"`
	PositionGuidance  PositionGuidance   `json:"position_guidance"`
	Scenarios         []Scenario         `json:"scenarios,omitempty"`
	PerformanceReview *PerformanceReview `json:"performance_review,omitempty"`
}
