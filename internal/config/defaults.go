package config

import "time"

func (c *Config) applyDefaults() {
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8087"
	}
	if c.Database.Path == "" {
		c.Database.Path = "data/levelwatch.db"
	}
	if c.Market.Symbol == "" {
		c.Market.Symbol = "SPY"
	}
	if c.Market.Timezone == "" {
		c.Market.Timezone = "America/New_York"
	}
	if c.Market.SessionOpen == "" {
		c.Market.SessionOpen = "09:30"
	}
	if c.Market.SessionClose == "" {
		c.Market.SessionClose = "16:00"
	}
	if c.Monitor.ActiveInterval <= 0 {
		c.Monitor.ActiveInterval = time.Minute
	}
	if c.Monitor.IdleInterval <= 0 {
		c.Monitor.IdleInterval = 15 * time.Minute
	}
	if c.Monitor.StaleAfter <= 0 {
		c.Monitor.StaleAfter = 5 * time.Minute
	}
	if c.Pricing.Timeout <= 0 {
		c.Pricing.Timeout = 10 * time.Second
	}
	if c.Publish.WarningThreshold <= 0 {
		c.Publish.WarningThreshold = 3
	}
	if c.Inbox.Dir == "" {
		c.Inbox.Dir = "data/inbox"
	}
	if c.Notify.Timeout <= 0 {
		c.Notify.Timeout = 20 * time.Second
	}
	if c.Notify.Email.Port == 0 {
		c.Notify.Email.Port = 587
	}
}
