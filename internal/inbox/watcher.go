// Package inbox auto-ingests report text files dropped into a watched
// directory. Successful publishes move the file aside; gated ones stay put
// for the operator to inspect and force by hand.
package inbox

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"levelwatch/internal/logger"
	"levelwatch/internal/publish"
)

// settleDelay gives the writer time to finish before we read: editors and
// scp produce several write events per file.
const settleDelay = 500 * time.Millisecond

type Watcher struct {
	dir     string
	service *publish.Service
	// Notify is optional; when set, gate rejections are surfaced through it.
	Notice func(subject, body string)
}

func NewWatcher(dir string, service *publish.Service) (*Watcher, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, fmt.Errorf("inbox: directory is required")
	}
	if service == nil {
		return nil, fmt.Errorf("inbox: publish service is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("inbox: creating directory: %w", err)
	}
	return &Watcher{dir: dir, service: service}, nil
}

// Run watches until ctx is done. Files already present at startup are
// processed first so a restart never strands a dropped report.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("inbox: starting watcher: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(w.dir); err != nil {
		return fmt.Errorf("inbox: watching %s: %w", w.dir, err)
	}
	logger.Infof("inbox: watching %s", w.dir)

	w.sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if !isReportFile(event.Name) {
				continue
			}
			timer := time.NewTimer(settleDelay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil
			case <-timer.C:
			}
			w.ingest(ctx, event.Name)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Errorf("inbox: watcher error: %v", err)
		}
	}
}

// sweep handles files that predate the watch.
func (w *Watcher) sweep(ctx context.Context) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		logger.Errorf("inbox: reading directory: %v", err)
		return
	}
	for _, entry := range entries {
		if entry.IsDir() || !isReportFile(entry.Name()) {
			continue
		}
		w.ingest(ctx, filepath.Join(w.dir, entry.Name()))
	}
}

func (w *Watcher) ingest(ctx context.Context, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Errorf("inbox: reading %s: %v", path, err)
		}
		return
	}
	date := dateFromFilename(path)
	res, err := w.service.Publish(ctx, date, string(data), false)
	if err != nil {
		logger.Errorf("inbox: publishing %s: %v", filepath.Base(path), err)
		return
	}
	if res.Gated {
		logger.Warnf("inbox: %s gated: %s", filepath.Base(path), res.GateReason)
		if w.Notice != nil {
			w.Notice("report gated", fmt.Sprintf("%s: %s", filepath.Base(path), res.GateReason))
		}
		return
	}
	logger.Infof("inbox: published %s (report id=%d, %d levels)", filepath.Base(path), res.ReportID, res.LevelCount)
	done := path + ".published"
	if err := os.Rename(path, done); err != nil {
		logger.Errorf("inbox: archiving %s: %v", path, err)
	}
}

func isReportFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".txt")
}

// dateFromFilename accepts names like 2026-08-28.txt or report-2026-08-28.txt;
// anything else publishes under today's date.
func dateFromFilename(path string) string {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	for i := 0; i+10 <= len(base); i++ {
		candidate := base[i : i+10]
		if _, err := time.Parse("2006-01-02", candidate); err == nil {
			return candidate
		}
	}
	return ""
}
