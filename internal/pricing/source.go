// Package pricing abstracts upstream quote providers behind an ordered
// fallback chain.
package pricing

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Quote is one observed price for a symbol.
type Quote struct {
	Symbol     string
	Price      decimal.Decimal
	ObservedAt time.Time
	Provider   string
}

// Source is what the monitor depends on.
type Source interface {
	Quote(ctx context.Context, symbol string) (Quote, error)
}

// Provider is a single upstream quote API.
type Provider interface {
	Name() string
	Quote(ctx context.Context, symbol string) (Quote, error)
}

// ProviderSpec configures one provider in the chain.
type ProviderSpec struct {
	Type    string // finnhub, yahoo, binance
	APIKey  string
	BaseURL string // override for tests; empty means the provider default
	Timeout time.Duration
}
