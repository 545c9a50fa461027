package pricing

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFinnhub_Quote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/quote", r.URL.Path)
		assert.Equal(t, "SPY", r.URL.Query().Get("symbol"))
		assert.Equal(t, "key123", r.URL.Query().Get("token"))
		fmt.Fprint(w, `{"c":431.27,"h":433.5,"l":426.8,"o":428.0,"t":1756389600}`)
	}))
	defer srv.Close()

	p, err := NewFinnhub("key123", srv.URL, time.Second)
	require.NoError(t, err)

	quote, err := p.Quote(context.Background(), "spy")
	require.NoError(t, err)
	assert.Equal(t, "SPY", quote.Symbol)
	assert.Equal(t, "431.27", quote.Price.String())
	assert.Equal(t, int64(1756389600), quote.ObservedAt.Unix())
}

func TestFinnhub_NoPrice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Finnhub answers zeros for unknown symbols instead of an error status.
		fmt.Fprint(w, `{"c":0,"t":0}`)
	}))
	defer srv.Close()

	p, err := NewFinnhub("key123", srv.URL, time.Second)
	require.NoError(t, err)
	_, err = p.Quote(context.Background(), "NOPE")
	assert.Error(t, err)
}

func TestFinnhub_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	p, err := NewFinnhub("key123", srv.URL, time.Second)
	require.NoError(t, err)
	_, err = p.Quote(context.Background(), "SPY")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status=429")
}

func TestFinnhub_RequiresAPIKey(t *testing.T) {
	_, err := NewFinnhub("  ", "", time.Second)
	assert.Error(t, err)
}

func TestYahoo_Quote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v8/finance/chart/SPY", r.URL.Path)
		fmt.Fprint(w, `{"chart":{"result":[{"meta":{"regularMarketPrice":430.55,"regularMarketTime":1756389600}}]}}`)
	}))
	defer srv.Close()

	quote, err := NewYahoo(srv.URL, time.Second).Quote(context.Background(), "spy")
	require.NoError(t, err)
	assert.Equal(t, "430.55", quote.Price.String())
	assert.Equal(t, "yahoo", NewYahoo(srv.URL, time.Second).Name())
}

func TestYahoo_MalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"chart":{"error":"not found","result":null}}`)
	}))
	defer srv.Close()

	_, err := NewYahoo(srv.URL, time.Second).Quote(context.Background(), "SPY")
	assert.Error(t, err)
}
