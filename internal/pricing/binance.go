package pricing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/shopspring/decimal"
)

// Binance serves crypto symbols (e.g. BTCUSDT) through the public ticker
// endpoint; no credentials needed for reads.
type Binance struct {
	client *binance.Client
}

func NewBinance() *Binance {
	return &Binance{client: binance.NewClient("", "")}
}

func (b *Binance) Name() string { return "binance" }

func (b *Binance) Quote(ctx context.Context, symbol string) (Quote, error) {
	sym := strings.ToUpper(strings.TrimSpace(symbol))
	prices, err := b.client.NewListPricesService().Symbol(sym).Do(ctx)
	if err != nil {
		return Quote{}, fmt.Errorf("binance: %w", err)
	}
	if len(prices) == 0 {
		return Quote{}, fmt.Errorf("binance: no price for %s", sym)
	}
	price, err := decimal.NewFromString(prices[0].Price)
	if err != nil {
		return Quote{}, fmt.Errorf("binance: bad price %q: %w", prices[0].Price, err)
	}
	return Quote{
		Symbol:     sym,
		Price:      price,
		ObservedAt: time.Now(),
	}, nil
}
