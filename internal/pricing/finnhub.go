package pricing

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
)

const finnhubBaseURL = "https://finnhub.io/api/v1"

// Finnhub quotes equities via the /quote endpoint.
type Finnhub struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewFinnhub(apiKey, baseURL string, timeout time.Duration) (*Finnhub, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("finnhub: api key is required")
	}
	if baseURL == "" {
		baseURL = finnhubBaseURL
	}
	return &Finnhub{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}, nil
}

func (f *Finnhub) Name() string { return "finnhub" }

func (f *Finnhub) Quote(ctx context.Context, symbol string) (Quote, error) {
	endpoint := fmt.Sprintf("%s/quote?symbol=%s&token=%s",
		f.baseURL, url.QueryEscape(strings.ToUpper(symbol)), url.QueryEscape(f.apiKey))
	body, err := fetchBody(ctx, f.client, endpoint)
	if err != nil {
		return Quote{}, fmt.Errorf("finnhub: %w", err)
	}
	// c = current price, t = unix timestamp of the quote.
	current := gjson.GetBytes(body, "c")
	if !current.Exists() || current.Float() <= 0 {
		return Quote{}, fmt.Errorf("finnhub: no usable price in response")
	}
	observedAt := time.Now()
	if ts := gjson.GetBytes(body, "t"); ts.Exists() && ts.Int() > 0 {
		observedAt = time.Unix(ts.Int(), 0)
	}
	return Quote{
		Symbol:     strings.ToUpper(symbol),
		Price:      decimal.NewFromFloat(current.Float()),
		ObservedAt: observedAt,
	}, nil
}

func fetchBody(ctx context.Context, client *http.Client, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("status=%d", resp.StatusCode)
	}
	return body, nil
}
