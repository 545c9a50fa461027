package monitor

import (
	"github.com/shopspring/decimal"

	"levelwatch/internal/report"
	"levelwatch/internal/store"
)

// Crossing is one level the price moved through between two observations.
type Crossing struct {
	Level store.LevelRecord
	// ColdStart marks a point-in-time trigger taken without a prior sample.
	// It can mis-fire on a level the price was already past when monitoring
	// began; that tradeoff is accepted and surfaced for audit instead of
	// being hidden.
	ColdStart bool
}

// DetectCrossings compares each pending level against the bracket formed by
// the last sample and the current price. Checking the bracket, not just the
// snapshot, catches a level breached and reversed within one polling
// interval. last is nil on cold start.
func DetectCrossings(last *decimal.Decimal, current decimal.Decimal, levels []store.LevelRecord) []Crossing {
	var out []Crossing
	for _, level := range levels {
		if level.Triggered() {
			continue
		}
		crossed, cold := crossed(last, current, level.Price, level.Direction)
		if crossed {
			out = append(out, Crossing{Level: level, ColdStart: cold})
		}
	}
	return out
}

func crossed(last *decimal.Decimal, current, price decimal.Decimal, dir report.Direction) (bool, bool) {
	switch dir {
	case report.DirectionDownside:
		// was above, now at or below
		if last == nil {
			return current.LessThanOrEqual(price), true
		}
		return last.GreaterThan(price) && current.LessThanOrEqual(price), false
	case report.DirectionUpside:
		// was below, now at or above
		if last == nil {
			return current.GreaterThanOrEqual(price), true
		}
		return last.LessThan(price) && current.GreaterThanOrEqual(price), false
	default:
		return false, false
	}
}
