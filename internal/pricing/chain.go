package pricing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"levelwatch/internal/logger"
	"levelwatch/internal/pkg/circuit"
)

const (
	defaultProviderTimeout = 10 * time.Second
	breakerThreshold       = 3
	breakerCooldown        = 2 * time.Minute
)

// Chain tries providers in order; the first usable quote wins and later
// providers are never called. All providers failing is the only error case,
// so a flaky primary degrades to its fallback instead of aborting the tick.
// Each provider sits behind a circuit breaker so a dead upstream stops
// costing its full timeout on every tick.
type Chain struct {
	providers []chainEntry
	timeout   time.Duration
}

type chainEntry struct {
	provider Provider
	breaker  *circuit.Breaker
}

var _ Source = (*Chain)(nil)

func NewChain(timeout time.Duration, providers ...Provider) (*Chain, error) {
	if len(providers) == 0 {
		return nil, fmt.Errorf("pricing: at least one provider is required")
	}
	if timeout <= 0 {
		timeout = defaultProviderTimeout
	}
	entries := make([]chainEntry, 0, len(providers))
	for _, p := range providers {
		entries = append(entries, chainEntry{
			provider: p,
			breaker:  circuit.NewBreaker("pricing/"+p.Name(), breakerThreshold, breakerCooldown),
		})
	}
	return &Chain{providers: entries, timeout: timeout}, nil
}

// NewChainFromSpecs builds the chain from configuration.
func NewChainFromSpecs(specs []ProviderSpec, timeout time.Duration) (*Chain, error) {
	providers := make([]Provider, 0, len(specs))
	for _, spec := range specs {
		p, err := newProvider(spec)
		if err != nil {
			return nil, err
		}
		providers = append(providers, p)
	}
	return NewChain(timeout, providers...)
}

func newProvider(spec ProviderSpec) (Provider, error) {
	timeout := spec.Timeout
	if timeout <= 0 {
		timeout = defaultProviderTimeout
	}
	switch strings.ToLower(strings.TrimSpace(spec.Type)) {
	case "finnhub":
		return NewFinnhub(spec.APIKey, spec.BaseURL, timeout)
	case "yahoo":
		return NewYahoo(spec.BaseURL, timeout), nil
	case "binance":
		return NewBinance(), nil
	default:
		return nil, fmt.Errorf("pricing: unknown provider type %q", spec.Type)
	}
}

func (c *Chain) Quote(ctx context.Context, symbol string) (Quote, error) {
	lastErr := fmt.Errorf("no provider attempted")
	for _, entry := range c.providers {
		if !entry.breaker.Allow() {
			logger.Debugf("pricing: provider %s benched by circuit breaker", entry.provider.Name())
			continue
		}
		quote, err := c.quoteOne(ctx, entry.provider, symbol)
		if err == nil {
			entry.breaker.RecordSuccess()
			return quote, nil
		}
		entry.breaker.RecordFailure()
		lastErr = err
		logger.Warnf("pricing: provider %s failed for %s: %v", entry.provider.Name(), symbol, err)
		if ctx.Err() != nil {
			break
		}
	}
	return Quote{}, fmt.Errorf("pricing: all providers failed for %s: %w", symbol, lastErr)
}

func (c *Chain) quoteOne(ctx context.Context, p Provider, symbol string) (Quote, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	quote, err := p.Quote(ctx, symbol)
	if err != nil {
		return Quote{}, err
	}
	if quote.Price.IsZero() || quote.Price.IsNegative() {
		return Quote{}, fmt.Errorf("unusable price %s", quote.Price)
	}
	if quote.ObservedAt.IsZero() {
		quote.ObservedAt = time.Now()
	}
	quote.Provider = p.Name()
	return quote, nil
}
