package marketdata

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/folioworks/folio/internal/clientdata"
	testutil "github.com/folioworks/folio/internal/testing"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// quoteServer serves prices for the given symbols and counts requests
func quoteServer(t *testing.T, prices map[string]string, status map[string]int) (*httptest.Server, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		symbol := strings.TrimPrefix(r.URL.Path, "/quote/")
		if code, ok := status[symbol]; ok {
			w.WriteHeader(code)
			_, _ = w.Write([]byte("upstream says no"))
			return
		}
		price, ok := prices[symbol]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"symbol": symbol, "price": json.Number(price)})
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func newTestClient(srv *httptest.Server, opts ...ClientOption) *Client {
	opts = append([]ClientOption{WithRateLimit(1000)}, opts...)
	return NewClient(srv.URL+"/", "test-key", zerolog.Nop(), opts...)
}

func TestGetQuote(t *testing.T) {
	srv, _ := quoteServer(t, map[string]string{"VTI": "251.37"}, nil)
	client := newTestClient(srv)

	q, err := client.GetQuote(context.Background(), "VTI")
	require.NoError(t, err)
	assert.Equal(t, "VTI", q.Symbol)
	assert.True(t, decimal.RequireFromString("251.37").Equal(q.Price))
}

func TestGetQuote_Errors(t *testing.T) {
	srv, _ := quoteServer(t,
		map[string]string{"ZERO": "0"},
		map[string]int{"BUSY": http.StatusTooManyRequests, "BROKEN": http.StatusBadGateway},
	)
	client := newTestClient(srv)
	ctx := context.Background()

	_, err := client.GetQuote(ctx, "BUSY")
	assert.ErrorIs(t, err, ErrRateLimited)

	_, err = client.GetQuote(ctx, "MISSING")
	assert.ErrorIs(t, err, ErrUnknownSymbol)

	_, err = client.GetQuote(ctx, "BROKEN")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Equal(t, "upstream says no", apiErr.Message)

	_, err = client.GetQuote(ctx, "ZERO")
	assert.Error(t, err)
}

func TestGetPrices_ToleratesPerSymbolFailures(t *testing.T) {
	srv, _ := quoteServer(t,
		map[string]string{"VTI": "250", "BND": "72.5"},
		map[string]int{"BROKEN": http.StatusInternalServerError},
	)
	client := newTestClient(srv)

	prices, err := client.GetPrices(context.Background(), []string{"VTI", "MISSING", "BND", "BROKEN"})
	require.NoError(t, err)
	assert.Len(t, prices, 2)
	assert.True(t, decimal.NewFromInt(250).Equal(prices["VTI"]))
	assert.True(t, decimal.RequireFromString("72.5").Equal(prices["BND"]))
}

func TestGetPrices_AllFailed(t *testing.T) {
	srv, _ := quoteServer(t, nil, map[string]int{"A": http.StatusBadGateway, "B": http.StatusBadGateway})
	client := newTestClient(srv)

	_, err := client.GetPrices(context.Background(), []string{"A", "B"})
	assert.Error(t, err)
}

func TestGetPrices_UnknownSymbolsAreNotAnError(t *testing.T) {
	srv, _ := quoteServer(t, nil, nil)
	client := newTestClient(srv)

	prices, err := client.GetPrices(context.Background(), []string{"A"})
	require.NoError(t, err)
	assert.Empty(t, prices)
}

func TestGetPrices_ServesFreshCache(t *testing.T) {
	srv, calls := quoteServer(t, map[string]string{"VTI": "250"}, nil)
	cache := clientdata.NewRepository(testutil.NewTestDB(t).Conn())
	client := newTestClient(srv, WithCache(cache))
	ctx := context.Background()

	_, err := client.GetPrices(ctx, []string{"VTI"})
	require.NoError(t, err)
	prices, err := client.GetPrices(ctx, []string{"VTI"})
	require.NoError(t, err)

	assert.Equal(t, int32(1), atomic.LoadInt32(calls))
	assert.True(t, decimal.NewFromInt(250).Equal(prices["VTI"]))
}

func TestGetPrices_FallsBackToStaleCache(t *testing.T) {
	srv, _ := quoteServer(t, nil, map[string]int{"VTI": http.StatusServiceUnavailable})
	cache := clientdata.NewRepository(testutil.NewTestDB(t).Conn())
	require.NoError(t, cache.Store(clientdata.QuoteTable, "VTI", Quote{Symbol: "VTI", Price: decimal.NewFromInt(240)}, -time.Minute))

	client := newTestClient(srv, WithCache(cache))

	prices, err := client.GetPrices(context.Background(), []string{"VTI"})
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(240).Equal(prices["VTI"]))
}

func TestGetPrices_ContextCancelled(t *testing.T) {
	srv, _ := quoteServer(t, map[string]string{"VTI": "250"}, nil)
	client := newTestClient(srv)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.GetPrices(ctx, []string{"VTI"})
	assert.ErrorIs(t, err, context.Canceled)
}
