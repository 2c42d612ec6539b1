package market

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/coins/markets", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("ids") != "" {
			assert.Equal(t, "bitcoin,ethereum,ghost", r.URL.Query().Get("ids"))
			_, _ = w.Write([]byte(`[
				{"id":"bitcoin","current_price":65000.12,"price_change_percentage_24h":-2.5},
				{"id":"ethereum","current_price":3200,"price_change_percentage_24h":null},
				{"id":"ghost","current_price":null,"price_change_percentage_24h":1}
			]`))
			return
		}
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "10", r.URL.Query().Get("per_page"))
		_, _ = w.Write([]byte(`[{"id":"bitcoin","symbol":"btc","name":"Bitcoin","current_price":65000,"market_cap_rank":1,"max_supply":21000000}]`))
	})
	mux.HandleFunc("/coins/solana", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "false", r.URL.Query().Get("tickers"))
		_, _ = w.Write([]byte(`{"symbol":"sol","name":"Solana","image":{"small":"https://img/sol.png"}}`))
	})
	mux.HandleFunc("/coins/unknown", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"coin not found"}`))
	})
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "sol", r.URL.Query().Get("query"))
		_, _ = w.Write([]byte(`{"coins":[{"id":"solana","symbol":"SOL","name":"Solana","thumb":"t"}]}`))
	})
	mux.HandleFunc("/dolares/blue", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"moneda":"USD","casa":"blue","nombre":"Blue","compra":1180,"venta":1200.5,"fechaActualizacion":"2025-05-10T14:57:00.000Z"}`))
	})
	return httptest.NewServer(mux)
}

func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	c, err := NewClient(srv.URL, srv.URL, 2*time.Second)
	require.NoError(t, err)
	return c
}

func TestClientPrices(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()
	c := newTestClient(t, srv)

	quotes, err := c.Prices(context.Background(), []string{"bitcoin", "ethereum", "ghost"})
	require.NoError(t, err)
	require.Len(t, quotes, 2)
	assert.Equal(t, "65000.12", quotes["bitcoin"].CurrentPrice.String())
	assert.Equal(t, "-2.5", quotes["bitcoin"].Change24hPct.String())
	assert.True(t, quotes["ethereum"].Change24hPct.IsZero())
	_, ok := quotes["ghost"]
	assert.False(t, ok)
}

func TestClientPricesOverTLS(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/coins/markets", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":"bitcoin","current_price":65000,"price_change_percentage_24h":1.5}]`))
	}))
	defer srv.Close()

	roots := x509.NewCertPool()
	roots.AddCert(srv.Certificate())
	c, err := NewClientWithTLS(srv.URL, srv.URL, 3*time.Second, &tls.Config{RootCAs: roots})
	require.NoError(t, err)

	quotes, err := c.Prices(context.Background(), []string{"bitcoin"})
	require.NoError(t, err)
	assert.Equal(t, "65000", quotes["bitcoin"].CurrentPrice.String())
}

func TestClientPricesEmpty(t *testing.T) {
	c, err := NewClient("http://127.0.0.1:1", "http://127.0.0.1:1", time.Second)
	require.NoError(t, err)
	quotes, err := c.Prices(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, quotes)
}

func TestClientAssetMetadata(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()
	c := newTestClient(t, srv)

	meta, err := c.AssetMetadata(context.Background(), "solana")
	require.NoError(t, err)
	assert.Equal(t, "SOL", meta.Symbol)
	assert.Equal(t, "Solana", meta.Name)
	assert.Equal(t, "https://img/sol.png", meta.ImageURL)

	_, err = c.AssetMetadata(context.Background(), "unknown")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
}

func TestClientExchangeQuote(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()
	c := newTestClient(t, srv)

	q, err := c.ExchangeQuote(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "blue", q.House)
	assert.Equal(t, "1180", q.Buy.String())
	assert.Equal(t, "1200.5", q.Sell.String())
	assert.Equal(t, 2025, q.UpdatedAt.Year())
}

func TestClientMarketsAndSearch(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()
	c := newTestClient(t, srv)

	coins, err := c.Markets(context.Background(), 2, 10)
	require.NoError(t, err)
	require.Len(t, coins, 1)
	assert.Equal(t, "bitcoin", coins[0].ID)
	require.NotNil(t, coins[0].MaxSupply)

	results, err := c.Search(context.Background(), "sol")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "solana", results[0].ID)
}
