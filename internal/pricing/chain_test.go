package pricing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	name  string
	price decimal.Decimal
	err   error
	calls int
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Quote(ctx context.Context, symbol string) (Quote, error) {
	s.calls++
	if s.err != nil {
		return Quote{}, s.err
	}
	return Quote{Symbol: symbol, Price: s.price, ObservedAt: time.Now()}, nil
}

func TestChain_PrimaryWins(t *testing.T) {
	primary := &stubProvider{name: "primary", price: decimal.NewFromFloat(431.2)}
	fallback := &stubProvider{name: "fallback", price: decimal.NewFromFloat(400)}
	chain, err := NewChain(time.Second, primary, fallback)
	require.NoError(t, err)

	quote, err := chain.Quote(context.Background(), "SPY")
	require.NoError(t, err)
	assert.Equal(t, "primary", quote.Provider)
	assert.True(t, quote.Price.Equal(decimal.NewFromFloat(431.2)))
	assert.Zero(t, fallback.calls, "fallback must not be consulted when the primary answers")
}

func TestChain_FallsBackInOrder(t *testing.T) {
	primary := &stubProvider{name: "primary", err: errors.New("rate limited")}
	fallback := &stubProvider{name: "fallback", price: decimal.NewFromFloat(430)}
	chain, err := NewChain(time.Second, primary, fallback)
	require.NoError(t, err)

	quote, err := chain.Quote(context.Background(), "SPY")
	require.NoError(t, err)
	assert.Equal(t, "fallback", quote.Provider)
	assert.Equal(t, 1, primary.calls)
}

func TestChain_AllFail(t *testing.T) {
	a := &stubProvider{name: "a", err: errors.New("down")}
	b := &stubProvider{name: "b", err: errors.New("also down")}
	chain, err := NewChain(time.Second, a, b)
	require.NoError(t, err)

	_, err = chain.Quote(context.Background(), "SPY")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all providers failed")
	assert.Contains(t, err.Error(), "also down")
}

func TestChain_RejectsUnusablePrice(t *testing.T) {
	zero := &stubProvider{name: "zero", price: decimal.Zero}
	good := &stubProvider{name: "good", price: decimal.NewFromFloat(101)}
	chain, err := NewChain(time.Second, zero, good)
	require.NoError(t, err)

	quote, err := chain.Quote(context.Background(), "SPY")
	require.NoError(t, err)
	assert.Equal(t, "good", quote.Provider)
}

func TestChain_BreakerBenchesRepeatOffender(t *testing.T) {
	flaky := &stubProvider{name: "flaky", err: errors.New("timeout")}
	good := &stubProvider{name: "good", price: decimal.NewFromFloat(100)}
	chain, err := NewChain(time.Second, flaky, good)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		_, err := chain.Quote(context.Background(), "SPY")
		require.NoError(t, err)
	}
	// After the failure threshold the breaker opens and the flaky provider
	// stops being called at all.
	assert.Equal(t, 3, flaky.calls)
	assert.Equal(t, 5, good.calls)
}

func TestChain_RequiresProviders(t *testing.T) {
	_, err := NewChain(time.Second)
	assert.Error(t, err)
}

func TestNewProvider_UnknownType(t *testing.T) {
	_, err := newProvider(ProviderSpec{Type: "carrier-pigeon"})
	assert.Error(t, err)
}
