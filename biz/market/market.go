// Package market fetches prices, asset metadata and the USD/ARS quote.
package market

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Quote 当前价格与24小时涨跌幅(百分比)
type Quote struct {
	CurrentPrice decimal.Decimal `json:"current_price"`
	Change24hPct decimal.Decimal `json:"change_24h_pct"`
}

type AssetMetadata struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	ImageURL string `json:"image_url"`
}

// ExchangeQuote 美元兑阿根廷比索报价
type ExchangeQuote struct {
	Currency  string          `json:"currency"`
	House     string          `json:"house"`
	Name      string          `json:"name"`
	Buy       decimal.Decimal `json:"buy"`
	Sell      decimal.Decimal `json:"sell"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Coin 行情列表条目，仅用于展示
type Coin struct {
	ID                       string   `json:"id"`
	Symbol                   string   `json:"symbol"`
	Name                     string   `json:"name"`
	Image                    string   `json:"image"`
	CurrentPrice             float64  `json:"current_price"`
	MarketCap                float64  `json:"market_cap"`
	MarketCapRank            int      `json:"market_cap_rank"`
	TotalVolume              float64  `json:"total_volume"`
	PriceChangePercentage24h float64  `json:"price_change_percentage_24h"`
	High24h                  float64  `json:"high_24h"`
	Low24h                   float64  `json:"low_24h"`
	CirculatingSupply        float64  `json:"circulating_supply"`
	MaxSupply                *float64 `json:"max_supply"`
}

type SearchResult struct {
	ID     string `json:"id"`
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
	Thumb  string `json:"thumb"`
}

// Gateway 行情源。Prices 对单个资产缺失是容忍的，只有整批失败才返回错误
type Gateway interface {
	Prices(ctx context.Context, ids []string) (map[string]Quote, error)
	AssetMetadata(ctx context.Context, id string) (*AssetMetadata, error)
	ExchangeQuote(ctx context.Context) (*ExchangeQuote, error)
	Markets(ctx context.Context, page, perPage int) ([]Coin, error)
	Search(ctx context.Context, query string) ([]SearchResult, error)
}

type APIError struct {
	Service string
	Status  int
	Body    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API error (%d): %s", e.Service, e.Status, e.Body)
}
