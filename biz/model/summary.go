package model

import "github.com/shopspring/decimal"

// PositionValuation 单个持仓结合实时价格后的估值
type PositionValuation struct {
	ID                   string          `json:"id"`
	AssetID              string          `json:"asset_id"`
	CoinGeckoID          string          `json:"coin_gecko_id"`
	Symbol               string          `json:"symbol"`
	Name                 string          `json:"name"`
	Image                *string         `json:"image"`
	Quantity             decimal.Decimal `json:"quantity"`
	AverageBuyPrice      decimal.Decimal `json:"average_buy_price"`
	CurrentPrice         decimal.Decimal `json:"current_price"`
	TotalValue           decimal.Decimal `json:"total_value"`
	TotalCost            decimal.Decimal `json:"total_cost"`
	ProfitLoss           decimal.Decimal `json:"profit_loss"`
	ProfitLossPercentage decimal.Decimal `json:"profit_loss_percentage"`
	PriceChange24h       decimal.Decimal `json:"price_change_24h"`
	Allocation           decimal.Decimal `json:"allocation"`
}

// PortfolioSummary 组合汇总。Positions 按 Allocation 降序，顾问评分依赖这个顺序
type PortfolioSummary struct {
	TotalValue                decimal.Decimal     `json:"total_value"`
	TotalCost                 decimal.Decimal     `json:"total_cost"`
	TotalProfitLoss           decimal.Decimal     `json:"total_profit_loss"`
	TotalProfitLossPercentage decimal.Decimal     `json:"total_profit_loss_percentage"`
	CashBalanceUSD            decimal.Decimal     `json:"cash_balance_usd"`
	CashBalanceARS            decimal.Decimal     `json:"cash_balance_ars"`
	TotalPatrimony            decimal.Decimal     `json:"total_patrimony"`
	PositionCount             int                 `json:"position_count"`
	Positions                 []PositionValuation `json:"positions"`
}
