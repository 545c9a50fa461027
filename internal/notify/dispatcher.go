package notify

import (
	"context"
	"encoding/json"
	"time"

	"golang.org/x/sync/errgroup"

	"levelwatch/internal/logger"
	"levelwatch/internal/store"
)

const defaultDispatchTimeout = 20 * time.Second

// Dispatcher fans one event out to every configured channel in parallel.
// Channels fail independently; a partial-failure dispatch is a normal
// outcome, not an error. Every attempt lands in the notification log.
type Dispatcher struct {
	channels []Channel
	log      store.NotificationLog
	timeout  time.Duration
}

func NewDispatcher(log store.NotificationLog, timeout time.Duration, channels ...Channel) *Dispatcher {
	if timeout <= 0 {
		timeout = defaultDispatchTimeout
	}
	return &Dispatcher{channels: channels, log: log, timeout: timeout}
}

func (d *Dispatcher) ChannelCount() int {
	if d == nil {
		return 0
	}
	return len(d.channels)
}

// DispatchTrigger delivers a level-trigger event.
func (d *Dispatcher) DispatchTrigger(ctx context.Context, ev TriggerEvent) []ChannelResult {
	levelID := ev.LevelID
	return d.dispatch(ctx, RenderTrigger(ev), &levelID, triggerPayload(ev))
}

// DispatchNotice delivers a system notice not tied to any level.
func (d *Dispatcher) DispatchNotice(ctx context.Context, subject, body string) []ChannelResult {
	return d.dispatch(ctx, RenderSystemNotice(subject, body), nil, "")
}

func (d *Dispatcher) dispatch(ctx context.Context, msg Message, levelID *int64, payload string) []ChannelResult {
	if d == nil || len(d.channels) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	results := make([]ChannelResult, len(d.channels))
	var group errgroup.Group
	for i, ch := range d.channels {
		i, ch := i, ch // per-iteration copies: the go directive predates Go 1.22 loop scoping
		group.Go(func() error {
			err := ch.Send(ctx, msg)
			results[i] = ChannelResult{Channel: ch.Name(), Err: err}
			d.record(ch.Name(), levelID, payload, err)
			if err != nil {
				logger.Warnf("notify: channel %s failed: %v", ch.Name(), err)
			}
			return nil // one channel's failure must not affect the others
		})
	}
	_ = group.Wait()
	return results
}

func (d *Dispatcher) record(channel string, levelID *int64, payload string, sendErr error) {
	if d.log == nil {
		return
	}
	entry := store.NotificationEntry{
		AlertLevelID: levelID,
		Channel:      channel,
		Status:       store.NotificationSuccess,
		Payload:      payload,
	}
	if sendErr != nil {
		entry.Status = store.NotificationFailed
		entry.ErrorMessage = sendErr.Error()
	}
	// The log write gets its own context: a dispatch deadline already spent
	// on a slow channel should not lose the audit record.
	logCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := d.log.AppendNotification(logCtx, entry); err != nil {
		logger.Errorf("notify: appending notification log failed: %v", err)
	}
}

func triggerPayload(ev TriggerEvent) string {
	raw, err := json.Marshal(map[string]any{
		"trace_id":    ev.TraceID,
		"level_id":    ev.LevelID,
		"level_name":  ev.LevelName,
		"symbol":      ev.Symbol,
		"level_price": ev.LevelPrice,
		"direction":   ev.Direction,
		"price":       ev.Price,
		"cold_start":  ev.ColdStart,
	})
	if err != nil {
		return "{}"
	}
	return string(raw)
}
