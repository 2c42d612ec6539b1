package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// LedgerEvent 账本变更提交后的通知消息
type LedgerEvent struct {
	EventID        uint64          `json:"event_id"`
	UserID         string          `json:"user_id"`
	ExternalID     string          `json:"external_id"`
	TransactionID  string          `json:"transaction_id"`
	Type           TransactionType `json:"type"`
	CoinGeckoID    string          `json:"coin_gecko_id,omitempty"`
	Symbol         string          `json:"symbol,omitempty"`
	Quantity       decimal.Decimal `json:"quantity"`
	PricePerUnit   decimal.Decimal `json:"price_per_unit"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	Currency       Currency        `json:"currency"`
	CashBalanceUSD decimal.Decimal `json:"cash_balance_usd"`
	CashBalanceARS decimal.Decimal `json:"cash_balance_ars"`
	Timestamp      time.Time       `json:"timestamp"`
}
