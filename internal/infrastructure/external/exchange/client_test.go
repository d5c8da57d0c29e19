package exchange

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newRateServer(t *testing.T, hits *int32) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		assert.Equal(t, "/USD", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"base":"USD","rates":{"USD":1,"EUR":0.9,"GBP":0.8,"JPY":150}}`))
	}))
	t.Cleanup(server.Close)
	return server
}

func newTestClient(baseURL string) *Client {
	return NewClient(Config{
		BaseURL:      baseURL,
		BaseCurrency: "USD",
		CacheTTL:     time.Hour,
	}, zap.NewNop())
}

func TestConvert(t *testing.T) {
	var hits int32
	client := newTestClient(newRateServer(t, &hits).URL)

	converted, err := client.Convert(context.Background(), 100, "EUR", "GBP")
	require.NoError(t, err)
	assert.InDelta(t, 100*0.8/0.9, converted, 0.0001)
}

func TestConvert_SameCurrencySkipsFetch(t *testing.T) {
	var hits int32
	client := newTestClient(newRateServer(t, &hits).URL)

	converted, err := client.Convert(context.Background(), 50, "EUR", "EUR")
	require.NoError(t, err)
	assert.Equal(t, 50.0, converted)
	assert.Zero(t, atomic.LoadInt32(&hits))
}

func TestConvert_UsesCacheWithinTTL(t *testing.T) {
	var hits int32
	client := newTestClient(newRateServer(t, &hits).URL)
	ctx := context.Background()

	_, err := client.Convert(ctx, 10, "USD", "EUR")
	require.NoError(t, err)
	_, err = client.Convert(ctx, 20, "USD", "JPY")
	require.NoError(t, err)

	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestConvert_UnknownCurrencyReturnsAmount(t *testing.T) {
	var hits int32
	client := newTestClient(newRateServer(t, &hits).URL)

	converted, err := client.Convert(context.Background(), 75, "XXX", "USD")
	assert.Error(t, err)
	assert.Equal(t, 75.0, converted)
}

func TestConvert_ServerDownReturnsAmount(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)
	client := newTestClient(server.URL)

	converted, err := client.Convert(context.Background(), 75, "EUR", "USD")
	assert.Error(t, err)
	assert.Equal(t, 75.0, converted)
}

func TestRefresh_KeepsOldCacheOnFailure(t *testing.T) {
	var failing atomic.Bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if failing.Load() {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"base":"USD","rates":{"USD":1,"EUR":0.9}}`))
	}))
	t.Cleanup(server.Close)

	client := newTestClient(server.URL)
	require.NoError(t, client.Refresh(context.Background()))

	failing.Store(true)
	assert.Error(t, client.Refresh(context.Background()))

	// The stale table still serves conversions.
	converted, err := client.Convert(context.Background(), 10, "USD", "EUR")
	require.NoError(t, err)
	assert.InDelta(t, 9, converted, 0.0001)
}

func TestCurrencies(t *testing.T) {
	var hits int32
	client := newTestClient(newRateServer(t, &hits).URL)

	currencies, err := client.Currencies(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"EUR", "GBP", "JPY", "USD"}, currencies)
}

func TestCurrencies_FallbackBeforeFirstFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(server.Close)
	client := newTestClient(server.URL)

	currencies, err := client.Currencies(context.Background())
	require.NoError(t, err)
	assert.Contains(t, currencies, "USD")
	assert.Contains(t, currencies, "EUR")
}
