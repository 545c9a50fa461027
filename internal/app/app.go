// Package app wires configuration into running services.
package app

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"levelwatch/internal/config"
	"levelwatch/internal/health"
	"levelwatch/internal/inbox"
	"levelwatch/internal/logger"
	"levelwatch/internal/marketcal"
	"levelwatch/internal/monitor"
	"levelwatch/internal/notify"
	"levelwatch/internal/pricing"
	"levelwatch/internal/publish"
	"levelwatch/internal/report"
	"levelwatch/internal/scheduler"
	"levelwatch/internal/store/gormstore"
	httpapi "levelwatch/internal/transport/http"
)

type App struct {
	cfg        *config.Config
	db         *gormstore.Store
	monitor    *monitor.Monitor
	scheduler  *scheduler.IntervalScheduler
	httpServer *httpapi.Server
	inbox      *inbox.Watcher
	dispatcher *notify.Dispatcher
}

func NewApp(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	logger.SetLevel(cfg.App.LogLevel)

	var cal *marketcal.Calendar
	if !cfg.Market.AlwaysOpen {
		var err error
		cal, err = marketcal.New(cfg.Market.Timezone, cfg.Market.SessionOpen, cfg.Market.SessionClose)
		if err != nil {
			return nil, err
		}
	}

	db, err := gormstore.Open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	parser, err := buildParser(cfg.Parser)
	if err != nil {
		db.Close()
		return nil, err
	}

	loc := time.UTC
	if cfg.Market.Timezone != "" {
		if l, err := time.LoadLocation(cfg.Market.Timezone); err == nil {
			loc = l
		}
	}
	publishSvc, err := publish.NewService(parser, db, cfg.Publish.WarningThreshold, loc)
	if err != nil {
		db.Close()
		return nil, err
	}

	source, err := buildPriceChain(cfg.Pricing)
	if err != nil {
		db.Close()
		return nil, err
	}

	dispatcher := buildDispatcher(cfg.Notify, db)
	if dispatcher.ChannelCount() == 0 {
		logger.Warnf("app: no notification channels configured; triggers will only be logged")
	}

	mon, err := monitor.New(monitor.Params{
		Storage:    db,
		Source:     source,
		Dispatcher: dispatcher,
		Symbol:     cfg.Market.Symbol,
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	reporter := health.NewReporter(db, cal, monitor.DefaultJobName, cfg.Monitor.StaleAfter)

	sched := scheduler.NewIntervalScheduler(cal, cfg.Monitor.ActiveInterval, cfg.Monitor.IdleInterval)
	sched.RunImmediately = cfg.Monitor.RunImmediately

	server, err := httpapi.NewServer(httpapi.ServerConfig{
		Addr:    cfg.Server.Addr,
		Publish: publishSvc,
		Health:  reporter,
		Monitor: mon,
		Storage: db,
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	app := &App{
		cfg:        cfg,
		db:         db,
		monitor:    mon,
		scheduler:  sched,
		httpServer: server,
		dispatcher: dispatcher,
	}

	if cfg.Inbox.Enabled {
		watcher, err := inbox.NewWatcher(cfg.Inbox.Dir, publishSvc)
		if err != nil {
			db.Close()
			return nil, err
		}
		watcher.Notice = func(subject, body string) {
			noticeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			dispatcher.DispatchNotice(noticeCtx, subject, body)
		}
		app.inbox = watcher
	}
	return app, nil
}

func buildParser(cfg config.ParserConfig) (*report.Parser, error) {
	if cfg.RulesPath == "" {
		return report.NewParser(), nil
	}
	rules, err := report.LoadRules(cfg.RulesPath)
	if err != nil {
		return nil, fmt.Errorf("loading parser rules: %w", err)
	}
	return report.NewParserWithRules(rules), nil
}

func buildPriceChain(cfg config.PricingConfig) (pricing.Source, error) {
	specs := make([]pricing.ProviderSpec, 0, len(cfg.Providers))
	for _, p := range cfg.Providers {
		specs = append(specs, pricing.ProviderSpec{
			Type:    p.Type,
			APIKey:  p.APIKey,
			BaseURL: p.BaseURL,
			Timeout: p.Timeout,
		})
	}
	return pricing.NewChainFromSpecs(specs, cfg.Timeout)
}

func buildDispatcher(cfg config.NotifyConfig, db *gormstore.Store) *notify.Dispatcher {
	var channels []notify.Channel
	if cfg.Discord.WebhookURL != "" {
		channels = append(channels, notify.NewDiscord(cfg.Discord.WebhookURL))
	}
	if cfg.Email.Host != "" {
		channels = append(channels, notify.NewEmail(
			cfg.Email.Host, cfg.Email.Port, cfg.Email.Username,
			cfg.Email.Password, cfg.Email.From, cfg.Email.To))
	}
	return notify.NewDispatcher(db, cfg.Timeout, channels...)
}

// Run starts the HTTP server, the monitor schedule and the report inbox, and
// blocks until ctx cancels or a component fails.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.cfg == nil {
		return fmt.Errorf("app not initialized")
	}
	defer a.db.Close()

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		if err := a.httpServer.Start(ctx); err != nil {
			return fmt.Errorf("http server error: %w", err)
		}
		return nil
	})

	group.Go(func() error {
		a.scheduler.Start(ctx, func() {
			tickCtx, cancel := context.WithTimeout(ctx, a.cfg.Monitor.ActiveInterval)
			defer cancel()
			if _, err := a.monitor.Tick(tickCtx); err != nil {
				logger.Errorf("app: monitor tick failed: %v", err)
			}
		})
		return nil
	})

	if a.inbox != nil {
		group.Go(func() error {
			if err := a.inbox.Run(ctx); err != nil {
				return fmt.Errorf("inbox watcher error: %w", err)
			}
			return nil
		})
	}

	logger.Infof("app: running symbol=%s addr=%s", a.cfg.Market.Symbol, a.httpServer.Addr())
	return group.Wait()
}
