package health

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"levelwatch/internal/marketcal"
	"levelwatch/internal/report"
	"levelwatch/internal/store"
)

type mockStorage struct {
	mock.Mock
}

func (m *mockStorage) RunStatus(ctx context.Context, job string) (store.RunStatus, bool, error) {
	args := m.Called(ctx, job)
	return args.Get(0).(store.RunStatus), args.Bool(1), args.Error(2)
}

func (m *mockStorage) UpdateRunStatus(ctx context.Context, status store.RunStatus) error {
	return m.Called(ctx, status).Error(0)
}

func (m *mockStorage) SetJobEnabled(ctx context.Context, job string, enabled bool) error {
	return m.Called(ctx, job, enabled).Error(0)
}

func (m *mockStorage) ReplaceLevels(ctx context.Context, reportID int64, specs []report.AlertLevelSpec) ([]store.LevelRecord, error) {
	args := m.Called(ctx, reportID, specs)
	return args.Get(0).([]store.LevelRecord), args.Error(1)
}

func (m *mockStorage) PendingLevels(ctx context.Context) ([]store.LevelRecord, error) {
	args := m.Called(ctx)
	return args.Get(0).([]store.LevelRecord), args.Error(1)
}

func (m *mockStorage) MarkTriggered(ctx context.Context, levelID int64, at time.Time) (bool, error) {
	args := m.Called(ctx, levelID, at)
	return args.Bool(0), args.Error(1)
}

func (m *mockStorage) LevelsForReport(ctx context.Context, reportID int64) ([]store.LevelRecord, error) {
	args := m.Called(ctx, reportID)
	return args.Get(0).([]store.LevelRecord), args.Error(1)
}

func (m *mockStorage) TriggeredSince(ctx context.Context, since time.Time) ([]store.LevelRecord, error) {
	args := m.Called(ctx, since)
	return args.Get(0).([]store.LevelRecord), args.Error(1)
}

func (m *mockStorage) CountPending(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

// Friday 2026-08-28, 14:00 New York: mid-session.
func duringMarket(t *testing.T) time.Time {
	t.Helper()
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	return time.Date(2026, 8, 28, 14, 0, 0, 0, ny)
}

func newReporter(t *testing.T, st *mockStorage, now time.Time) *Reporter {
	t.Helper()
	cal, err := marketcal.New("America/New_York", "09:30", "16:00")
	require.NoError(t, err)
	r := NewReporter(st, cal, "price-monitor", 5*time.Minute)
	r.now = func() time.Time { return now }
	return r
}

func baseExpectations(st *mockStorage, status store.RunStatus, found bool) {
	st.On("RunStatus", mock.Anything, "price-monitor").Return(status, found, nil)
	st.On("CountPending", mock.Anything).Return(2, nil)
	st.On("TriggeredSince", mock.Anything, mock.Anything).Return([]store.LevelRecord{}, nil)
}

func TestReport_Healthy(t *testing.T) {
	now := duringMarket(t)
	st := &mockStorage{}
	baseExpectations(st, store.RunStatus{
		Job:       "price-monitor",
		Enabled:   true,
		LastRunAt: now.Add(-time.Minute),
		LastPrice: decimal.NewFromFloat(431.5),
	}, true)

	rep, err := newReporter(t, st, now).Report(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusHealthy, rep.Status)
	assert.True(t, rep.MarketOpen)
	assert.Equal(t, 2, rep.PendingCount)
	assert.Equal(t, "431.5", rep.LastPrice)
}

func TestReport_NeverRun(t *testing.T) {
	st := &mockStorage{}
	baseExpectations(st, store.RunStatus{}, false)

	rep, err := newReporter(t, st, duringMarket(t)).Report(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusWarning, rep.Status)
	assert.Contains(t, rep.Reason, "never run")
}

func TestReport_StaleDuringMarketHours(t *testing.T) {
	now := duringMarket(t)
	st := &mockStorage{}
	baseExpectations(st, store.RunStatus{
		Job:       "price-monitor",
		Enabled:   true,
		LastRunAt: now.Add(-30 * time.Minute),
	}, true)

	rep, err := newReporter(t, st, now).Report(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusCritical, rep.Status)
	assert.Contains(t, rep.Reason, "market hours")
}

func TestReport_StaleOvernightIsNotCritical(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	// Friday 22:00 New York: market closed, hours since the last tick.
	now := time.Date(2026, 8, 28, 22, 0, 0, 0, ny)
	st := &mockStorage{}
	baseExpectations(st, store.RunStatus{
		Job:       "price-monitor",
		Enabled:   true,
		LastRunAt: now.Add(-6 * time.Hour),
	}, true)

	rep, err := newReporter(t, st, now).Report(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusHealthy, rep.Status)
	assert.False(t, rep.MarketOpen)
}

func TestReport_Disabled(t *testing.T) {
	now := duringMarket(t)
	st := &mockStorage{}
	baseExpectations(st, store.RunStatus{Job: "price-monitor", Enabled: false, LastRunAt: now.Add(-time.Minute)}, true)

	rep, err := newReporter(t, st, now).Report(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusWarning, rep.Status)
	assert.Contains(t, rep.Reason, "disabled")
}

func TestReport_LastErrorIsWarning(t *testing.T) {
	now := duringMarket(t)
	st := &mockStorage{}
	baseExpectations(st, store.RunStatus{
		Job:       "price-monitor",
		Enabled:   true,
		LastRunAt: now.Add(-time.Minute),
		LastError: "all providers failed for SPY",
	}, true)

	rep, err := newReporter(t, st, now).Report(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusWarning, rep.Status)
	assert.Contains(t, rep.Reason, "last tick failed")
}
