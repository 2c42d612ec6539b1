package market

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/hertz/pkg/app/client"
	"github.com/cloudwego/hertz/pkg/network/standard"
	"github.com/cloudwego/hertz/pkg/protocol"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/shopspring/decimal"
)

const maxSearchResults = 20

// Client 通过 CoinGecko 与 DolarAPI 获取行情
type Client struct {
	cli          *client.Client
	coinGeckoURL string
	dolarAPIURL  string
	timeout      time.Duration
}

func NewClient(coinGeckoURL, dolarAPIURL string, timeout time.Duration) (*Client, error) {
	return NewClientWithTLS(coinGeckoURL, dolarAPIURL, timeout, &tls.Config{MinVersion: tls.VersionTLS12})
}

// NewClientWithTLS 使用 standard 拨号器，netpoll 拨号器不支持 https
func NewClientWithTLS(coinGeckoURL, dolarAPIURL string, timeout time.Duration, tlsCfg *tls.Config) (*Client, error) {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	cli, err := client.NewClient(
		client.WithDialer(standard.NewDialer()),
		client.WithTLSConfig(tlsCfg),
		client.WithDialTimeout(timeout),
		client.WithClientReadTimeout(timeout),
		client.WithWriteTimeout(timeout),
	)
	if err != nil {
		return nil, err
	}
	return &Client{
		cli:          cli,
		coinGeckoURL: strings.TrimRight(coinGeckoURL, "/"),
		dolarAPIURL:  strings.TrimRight(dolarAPIURL, "/"),
		timeout:      timeout,
	}, nil
}

type coinMarketRow struct {
	ID                       string              `json:"id"`
	CurrentPrice             decimal.NullDecimal `json:"current_price"`
	PriceChangePercentage24h decimal.NullDecimal `json:"price_change_percentage_24h"`
}

func (c *Client) Prices(ctx context.Context, ids []string) (map[string]Quote, error) {
	out := make(map[string]Quote, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	q := url.Values{}
	q.Set("vs_currency", "usd")
	q.Set("ids", strings.Join(ids, ","))
	q.Set("order", "market_cap_desc")
	q.Set("sparkline", "false")

	var rows []coinMarketRow
	if err := c.getJSON(ctx, "coingecko", c.coinGeckoURL+"/coins/markets", q, &rows); err != nil {
		return nil, err
	}
	for _, r := range rows {
		if !r.CurrentPrice.Valid {
			continue
		}
		out[r.ID] = Quote{
			CurrentPrice: r.CurrentPrice.Decimal,
			Change24hPct: r.PriceChangePercentage24h.Decimal,
		}
	}
	return out, nil
}

type coinDetail struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
	Image  struct {
		Small string `json:"small"`
	} `json:"image"`
}

func (c *Client) AssetMetadata(ctx context.Context, id string) (*AssetMetadata, error) {
	q := url.Values{}
	q.Set("localization", "false")
	q.Set("tickers", "false")
	q.Set("community_data", "false")
	q.Set("developer_data", "false")

	var d coinDetail
	if err := c.getJSON(ctx, "coingecko", c.coinGeckoURL+"/coins/"+url.PathEscape(id), q, &d); err != nil {
		return nil, err
	}
	if d.Symbol == "" || d.Name == "" {
		return nil, fmt.Errorf("coingecko: incomplete metadata for %s", id)
	}
	return &AssetMetadata{
		Symbol:   strings.ToUpper(d.Symbol),
		Name:     d.Name,
		ImageURL: d.Image.Small,
	}, nil
}

type dolarQuote struct {
	Moneda             string          `json:"moneda"`
	Casa               string          `json:"casa"`
	Nombre             string          `json:"nombre"`
	Compra             decimal.Decimal `json:"compra"`
	Venta              decimal.Decimal `json:"venta"`
	FechaActualizacion time.Time       `json:"fechaActualizacion"`
}

// ExchangeQuote 返回 "blue" 汇率
func (c *Client) ExchangeQuote(ctx context.Context) (*ExchangeQuote, error) {
	var d dolarQuote
	if err := c.getJSON(ctx, "dolarapi", c.dolarAPIURL+"/dolares/blue", nil, &d); err != nil {
		return nil, err
	}
	return &ExchangeQuote{
		Currency:  d.Moneda,
		House:     d.Casa,
		Name:      d.Nombre,
		Buy:       d.Compra,
		Sell:      d.Venta,
		UpdatedAt: d.FechaActualizacion,
	}, nil
}

func (c *Client) Markets(ctx context.Context, page, perPage int) ([]Coin, error) {
	if page <= 0 {
		page = 1
	}
	if perPage <= 0 || perPage > 250 {
		perPage = 50
	}
	q := url.Values{}
	q.Set("vs_currency", "usd")
	q.Set("order", "market_cap_desc")
	q.Set("per_page", strconv.Itoa(perPage))
	q.Set("page", strconv.Itoa(page))
	q.Set("sparkline", "false")

	var coins []Coin
	if err := c.getJSON(ctx, "coingecko", c.coinGeckoURL+"/coins/markets", q, &coins); err != nil {
		return nil, err
	}
	return coins, nil
}

func (c *Client) Search(ctx context.Context, query string) ([]SearchResult, error) {
	q := url.Values{}
	q.Set("query", query)
	var resp struct {
		Coins []SearchResult `json:"coins"`
	}
	if err := c.getJSON(ctx, "coingecko", c.coinGeckoURL+"/search", q, &resp); err != nil {
		return nil, err
	}
	if len(resp.Coins) > maxSearchResults {
		resp.Coins = resp.Coins[:maxSearchResults]
	}
	return resp.Coins, nil
}

func (c *Client) getJSON(ctx context.Context, service, rawURL string, query url.Values, out interface{}) error {
	if len(query) > 0 {
		rawURL = rawURL + "?" + query.Encode()
	}
	req := protocol.AcquireRequest()
	resp := protocol.AcquireResponse()
	defer protocol.ReleaseRequest(req)
	defer protocol.ReleaseResponse(resp)

	req.SetRequestURI(rawURL)
	req.SetMethod(consts.MethodGet)
	req.Header.Set("Accept", "application/json")

	if err := c.cli.DoTimeout(ctx, req, resp, c.timeout); err != nil {
		return fmt.Errorf("%s request failed: %w", service, err)
	}
	if resp.StatusCode() != consts.StatusOK {
		return &APIError{Service: service, Status: resp.StatusCode(), Body: string(resp.Body())}
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("%s decode failed: %w", service, err)
	}
	return nil
}
