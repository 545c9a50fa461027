// Package notify fans trigger events out to delivery channels and records
// every attempt in the notification log.
package notify

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"levelwatch/internal/report"
)

// TriggerEvent is a level crossing the monitor confirmed it owns (its
// conditional MarkTriggered succeeded).
type TriggerEvent struct {
	TraceID    string
	LevelID    int64
	LevelName  string
	Symbol     string
	LevelPrice decimal.Decimal
	Direction  report.Direction
	Action     string
	Reason     string
	Price      decimal.Decimal
	ColdStart  bool
	At         time.Time
}

// Channel delivers one rendered message. Implementations report failure as an
// error result; they do not retry, because re-sending a user-facing alert
// risks duplicate delivery.
type Channel interface {
	Name() string
	Send(ctx context.Context, msg Message) error
}

// Message is channel-agnostic rendered content.
type Message struct {
	Subject string
	Body    string
}

// ChannelResult is the per-channel outcome of one dispatch.
type ChannelResult struct {
	Channel string
	Err     error
}
