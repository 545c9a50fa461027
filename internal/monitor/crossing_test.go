package monitor

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"levelwatch/internal/report"
	"levelwatch/internal/store"
)

func level(id int64, price float64, dir report.Direction) store.LevelRecord {
	return store.LevelRecord{
		ID:        id,
		LevelName: "L",
		Price:     decimal.NewFromFloat(price),
		Direction: dir,
	}
}

func dec(v float64) *decimal.Decimal {
	d := decimal.NewFromFloat(v)
	return &d
}

func TestDetectCrossings_Downside(t *testing.T) {
	levels := []store.LevelRecord{level(1, 95, report.DirectionDownside)}

	// 100 -> 94 moves through 95.
	out := DetectCrossings(dec(100), decimal.NewFromFloat(94), levels)
	require.Len(t, out, 1)
	assert.False(t, out[0].ColdStart)

	// Landing exactly on the level counts.
	out = DetectCrossings(dec(100), decimal.NewFromFloat(95), levels)
	assert.Len(t, out, 1)

	// Already below last tick: no re-fire.
	out = DetectCrossings(dec(94), decimal.NewFromFloat(93), levels)
	assert.Empty(t, out)

	// Moving up through a downside level does not fire.
	out = DetectCrossings(dec(90), decimal.NewFromFloat(100), levels)
	assert.Empty(t, out)
}

func TestDetectCrossings_Upside(t *testing.T) {
	levels := []store.LevelRecord{level(2, 105, report.DirectionUpside)}

	out := DetectCrossings(dec(100), decimal.NewFromFloat(106), levels)
	require.Len(t, out, 1)

	out = DetectCrossings(dec(100), decimal.NewFromFloat(105), levels)
	assert.Len(t, out, 1)

	out = DetectCrossings(dec(106), decimal.NewFromFloat(110), levels)
	assert.Empty(t, out)

	// Falling through an upside level does not fire.
	out = DetectCrossings(dec(110), decimal.NewFromFloat(100), levels)
	assert.Empty(t, out)
}

func TestDetectCrossings_BothDirectionsOneTick(t *testing.T) {
	levels := []store.LevelRecord{
		level(1, 95, report.DirectionDownside),
		level(2, 105, report.DirectionUpside),
	}
	// A wild tick from 100 to 94 should fire the downside level only.
	out := DetectCrossings(dec(100), decimal.NewFromFloat(94), levels)
	require.Len(t, out, 1)
	assert.Equal(t, int64(1), out[0].Level.ID)

	out = DetectCrossings(dec(100), decimal.NewFromFloat(106), levels)
	require.Len(t, out, 1)
	assert.Equal(t, int64(2), out[0].Level.ID)
}

func TestDetectCrossings_ColdStart(t *testing.T) {
	levels := []store.LevelRecord{level(1, 380, report.DirectionDownside)}

	// No prior sample, price already under the level: point-in-time trigger.
	out := DetectCrossings(nil, decimal.NewFromFloat(379), levels)
	require.Len(t, out, 1)
	assert.True(t, out[0].ColdStart)

	out = DetectCrossings(nil, decimal.NewFromFloat(381), levels)
	assert.Empty(t, out)
}

func TestDetectCrossings_SkipsTriggered(t *testing.T) {
	at := time.Now()
	lv := level(1, 95, report.DirectionDownside)
	lv.TriggeredAt = &at
	out := DetectCrossings(dec(100), decimal.NewFromFloat(94), []store.LevelRecord{lv})
	assert.Empty(t, out)
}

func TestDetectCrossings_Stable(t *testing.T) {
	levels := []store.LevelRecord{
		level(1, 95, report.DirectionDownside),
		level(2, 105, report.DirectionUpside),
	}
	// Price drifting between the levels never fires anything.
	last := dec(100)
	for _, p := range []float64{101, 99, 100.5, 96, 104} {
		cur := decimal.NewFromFloat(p)
		assert.Empty(t, DetectCrossings(last, cur, levels), "at %v", p)
		last = &cur
	}
}
