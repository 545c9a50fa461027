package config

import (
	"fmt"
	"strings"
	"time"
)

var knownProviderTypes = map[string]bool{
	"finnhub": true,
	"yahoo":   true,
	"binance": true,
}

// validate catches misconfiguration that would guarantee a broken runtime;
// these fail startup instead of surfacing later as monitor errors.
func validate(c *Config) error {
	if len(c.Pricing.Providers) == 0 {
		return fmt.Errorf("config: at least one pricing provider is required")
	}
	for i, p := range c.Pricing.Providers {
		t := strings.ToLower(strings.TrimSpace(p.Type))
		if !knownProviderTypes[t] {
			return fmt.Errorf("config: pricing provider %d: unknown type %q", i, p.Type)
		}
		if t == "finnhub" && strings.TrimSpace(p.APIKey) == "" {
			return fmt.Errorf("config: pricing provider %d: finnhub requires api_key", i)
		}
	}
	if !c.Market.AlwaysOpen {
		if _, err := time.Parse("15:04", c.Market.SessionOpen); err != nil {
			return fmt.Errorf("config: market.session_open %q: %w", c.Market.SessionOpen, err)
		}
		if _, err := time.Parse("15:04", c.Market.SessionClose); err != nil {
			return fmt.Errorf("config: market.session_close %q: %w", c.Market.SessionClose, err)
		}
	}
	if c.Notify.Email.Host != "" {
		if c.Notify.Email.From == "" || len(c.Notify.Email.To) == 0 {
			return fmt.Errorf("config: notify.email requires from and to when host is set")
		}
	}
	return nil
}
