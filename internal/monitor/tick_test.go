package monitor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"levelwatch/internal/notify"
	"levelwatch/internal/pricing"
	"levelwatch/internal/report"
	"levelwatch/internal/store"
)

type mockStorage struct {
	mock.Mock
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

func (m *mockStorage) LastSample(ctx context.Context, symbol string) (store.PriceSample, bool, error) {
	args := m.Called(ctx, symbol)
	return args.Get(0).(store.PriceSample), args.Bool(1), args.Error(2)
}

func (m *mockStorage) SaveSample(ctx context.Context, sample store.PriceSample) error {
	return m.Called(ctx, sample).Error(0)
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

type mockSource struct {
	mock.Mock
}

func (m *mockSource) Quote(ctx context.Context, symbol string) (pricing.Quote, error) {
	args := m.Called(ctx, symbol)
	return args.Get(0).(pricing.Quote), args.Error(1)
}

type mockDispatcher struct {
	mock.Mock
}

func (m *mockDispatcher) DispatchTrigger(ctx context.Context, ev notify.TriggerEvent) []notify.ChannelResult {
	args := m.Called(ctx, ev)
	return args.Get(0).([]notify.ChannelResult)
}

func newTestMonitor(t *testing.T, st *mockStorage, src *mockSource, d Dispatcher) *Monitor {
	t.Helper()
	m, err := New(Params{
		Storage:    st,
		Source:     src,
		Dispatcher: d,
		Symbol:     "SPY",
		Now:        func() time.Time { return time.Date(2026, 8, 28, 14, 0, 0, 0, time.UTC) },
	})
	require.NoError(t, err)
	return m
}

func TestTick_TriggersAndDispatches(t *testing.T) {
	st := &mockStorage{}
	src := &mockSource{}
	d := &mockDispatcher{}

	lv := level(7, 380, report.DirectionDownside)
	lv.LevelName = "Master Eject"

	st.On("RunStatus", mock.Anything, DefaultJobName).Return(store.RunStatus{}, false, nil)
	st.On("LastSample", mock.Anything, "SPY").
		Return(store.PriceSample{Symbol: "SPY", Price: decimal.NewFromFloat(382)}, true, nil)
	src.On("Quote", mock.Anything, "SPY").
		Return(pricing.Quote{Symbol: "SPY", Price: decimal.NewFromFloat(379.5), Provider: "finnhub"}, nil)
	st.On("PendingLevels", mock.Anything).Return([]store.LevelRecord{lv}, nil)
	st.On("MarkTriggered", mock.Anything, int64(7), mock.Anything).Return(true, nil)
	d.On("DispatchTrigger", mock.Anything, mock.MatchedBy(func(ev notify.TriggerEvent) bool {
		return ev.LevelID == 7 && ev.LevelName == "Master Eject" && !ev.ColdStart && ev.TraceID != ""
	})).Return([]notify.ChannelResult{{Channel: "discord"}})
	st.On("SaveSample", mock.Anything, mock.Anything).Return(nil)
	st.On("UpdateRunStatus", mock.Anything, mock.Anything).Return(nil)

	res, err := newTestMonitor(t, st, src, d).Tick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Checked)
	assert.Equal(t, 1, res.Triggered)
	assert.Equal(t, 0, res.ColdStarts)
	st.AssertExpectations(t)
	d.AssertExpectations(t)
}

func TestTick_LostRaceDoesNotDispatch(t *testing.T) {
	st := &mockStorage{}
	src := &mockSource{}
	d := &mockDispatcher{}

	lv := level(7, 380, report.DirectionDownside)

	st.On("RunStatus", mock.Anything, DefaultJobName).Return(store.RunStatus{}, false, nil)
	st.On("LastSample", mock.Anything, "SPY").
		Return(store.PriceSample{Symbol: "SPY", Price: decimal.NewFromFloat(382)}, true, nil)
	src.On("Quote", mock.Anything, "SPY").
		Return(pricing.Quote{Symbol: "SPY", Price: decimal.NewFromFloat(379)}, nil)
	st.On("PendingLevels", mock.Anything).Return([]store.LevelRecord{lv}, nil)
	// A concurrent invocation already claimed the level.
	st.On("MarkTriggered", mock.Anything, int64(7), mock.Anything).Return(false, nil)
	st.On("SaveSample", mock.Anything, mock.Anything).Return(nil)
	st.On("UpdateRunStatus", mock.Anything, mock.Anything).Return(nil)

	res, err := newTestMonitor(t, st, src, d).Tick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, res.Triggered)
	d.AssertNotCalled(t, "DispatchTrigger", mock.Anything, mock.Anything)
}

func TestTick_ColdStart(t *testing.T) {
	st := &mockStorage{}
	src := &mockSource{}
	d := &mockDispatcher{}

	lv := level(3, 380, report.DirectionDownside)

	st.On("RunStatus", mock.Anything, DefaultJobName).Return(store.RunStatus{}, false, nil)
	st.On("LastSample", mock.Anything, "SPY").Return(store.PriceSample{}, false, nil)
	src.On("Quote", mock.Anything, "SPY").
		Return(pricing.Quote{Symbol: "SPY", Price: decimal.NewFromFloat(379)}, nil)
	st.On("PendingLevels", mock.Anything).Return([]store.LevelRecord{lv}, nil)
	st.On("MarkTriggered", mock.Anything, int64(3), mock.Anything).Return(true, nil)
	d.On("DispatchTrigger", mock.Anything, mock.MatchedBy(func(ev notify.TriggerEvent) bool {
		return ev.ColdStart
	})).Return([]notify.ChannelResult(nil))
	st.On("SaveSample", mock.Anything, mock.Anything).Return(nil)
	st.On("UpdateRunStatus", mock.Anything, mock.Anything).Return(nil)

	res, err := newTestMonitor(t, st, src, d).Tick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Triggered)
	assert.Equal(t, 1, res.ColdStarts)
}

func TestTick_ProviderFailureMutatesNothing(t *testing.T) {
	st := &mockStorage{}
	src := &mockSource{}

	prior := store.RunStatus{Job: DefaultJobName, Enabled: true, LastRunAt: time.Date(2026, 8, 28, 13, 0, 0, 0, time.UTC)}
	st.On("RunStatus", mock.Anything, DefaultJobName).Return(prior, true, nil)
	st.On("LastSample", mock.Anything, "SPY").Return(store.PriceSample{}, false, nil)
	src.On("Quote", mock.Anything, "SPY").Return(pricing.Quote{}, errors.New("all providers down"))
	// The error lands on the status row; LastRunAt must not move.
	st.On("UpdateRunStatus", mock.Anything, mock.MatchedBy(func(s store.RunStatus) bool {
		return s.LastError != "" && s.LastRunAt.Equal(prior.LastRunAt)
	})).Return(nil)

	_, err := newTestMonitor(t, st, src, nil).Tick(context.Background())
	require.Error(t, err)
	st.AssertNotCalled(t, "SaveSample", mock.Anything, mock.Anything)
	st.AssertNotCalled(t, "MarkTriggered", mock.Anything, mock.Anything, mock.Anything)
	st.AssertExpectations(t)
}

func TestTick_DisabledSkips(t *testing.T) {
	st := &mockStorage{}
	src := &mockSource{}

	st.On("RunStatus", mock.Anything, DefaultJobName).
		Return(store.RunStatus{Job: DefaultJobName, Enabled: false}, true, nil)

	res, err := newTestMonitor(t, st, src, nil).Tick(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Skipped)
	src.AssertNotCalled(t, "Quote", mock.Anything, mock.Anything)
}

func TestTick_MarkErrorIsolatedPerLevel(t *testing.T) {
	st := &mockStorage{}
	src := &mockSource{}
	d := &mockDispatcher{}

	bad := level(1, 381, report.DirectionDownside)
	good := level(2, 380, report.DirectionDownside)

	st.On("RunStatus", mock.Anything, DefaultJobName).Return(store.RunStatus{}, false, nil)
	st.On("LastSample", mock.Anything, "SPY").
		Return(store.PriceSample{Symbol: "SPY", Price: decimal.NewFromFloat(385)}, true, nil)
	src.On("Quote", mock.Anything, "SPY").
		Return(pricing.Quote{Symbol: "SPY", Price: decimal.NewFromFloat(379)}, nil)
	st.On("PendingLevels", mock.Anything).Return([]store.LevelRecord{bad, good}, nil)
	st.On("MarkTriggered", mock.Anything, int64(1), mock.Anything).Return(false, errors.New("db locked"))
	st.On("MarkTriggered", mock.Anything, int64(2), mock.Anything).Return(true, nil)
	d.On("DispatchTrigger", mock.Anything, mock.MatchedBy(func(ev notify.TriggerEvent) bool {
		return ev.LevelID == 2
	})).Return([]notify.ChannelResult(nil))
	st.On("SaveSample", mock.Anything, mock.Anything).Return(nil)
	st.On("UpdateRunStatus", mock.Anything, mock.Anything).Return(nil)

	res, err := newTestMonitor(t, st, src, d).Tick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Triggered)
	d.AssertExpectations(t)
}
