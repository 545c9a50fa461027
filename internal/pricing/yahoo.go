package pricing

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
)

const yahooBaseURL = "https://query1.finance.yahoo.com"

// Yahoo quotes via the unauthenticated chart endpoint. Used as a fallback
// behind providers with an API key.
type Yahoo struct {
	baseURL string
	client  *http.Client
}

func NewYahoo(baseURL string, timeout time.Duration) *Yahoo {
	if baseURL == "" {
		baseURL = yahooBaseURL
	}
	return &Yahoo{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

func (y *Yahoo) Name() string { return "yahoo" }

func (y *Yahoo) Quote(ctx context.Context, symbol string) (Quote, error) {
	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1m&range=1d",
		y.baseURL, url.PathEscape(strings.ToUpper(symbol)))
	body, err := fetchBody(ctx, y.client, endpoint)
	if err != nil {
		return Quote{}, fmt.Errorf("yahoo: %w", err)
	}
	meta := gjson.GetBytes(body, "chart.result.0.meta")
	price := meta.Get("regularMarketPrice")
	if !price.Exists() || price.Float() <= 0 {
		return Quote{}, fmt.Errorf("yahoo: no usable price in response")
	}
	observedAt := time.Now()
	if ts := meta.Get("regularMarketTime"); ts.Exists() && ts.Int() > 0 {
		observedAt = time.Unix(ts.Int(), 0)
	}
	return Quote{
		Symbol:     strings.ToUpper(symbol),
		Price:      decimal.NewFromFloat(price.Float()),
		ObservedAt: observedAt,
	}, nil
}
