package handler

import (
	"context"
	"strings"

	"horizon-finance/biz/engine"
	"horizon-finance/biz/model"
	"horizon-finance/middleware"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/shopspring/decimal"
	"gopkg.in/validator.v2"
)

type DepositRequest struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency" validate:"nonzero"`
}

type TradeRequest struct {
	CoinGeckoID  string          `json:"coin_gecko_id" validate:"nonzero"`
	Type         string          `json:"type" validate:"nonzero"`
	Quantity     decimal.Decimal `json:"quantity"`
	CurrentPrice decimal.Decimal `json:"current_price"`
}

// Deposit POST /api/deposit
func (h *Handlers) Deposit(ctx context.Context, c *app.RequestContext) {
	var req DepositRequest
	if err := c.BindJSON(&req); err != nil {
		badRequest(ctx, c, err)
		return
	}
	if err := validator.Validate(req); err != nil {
		badRequest(ctx, c, err)
		return
	}
	currency := model.Currency(strings.ToUpper(req.Currency))
	txn, err := h.Ledger.Deposit(ctx, middleware.UserID(c), req.Amount, currency)
	if err != nil {
		fail(ctx, c, err)
		return
	}
	ok(c, txn)
}

// Trade POST /api/trade
func (h *Handlers) Trade(ctx context.Context, c *app.RequestContext) {
	var req TradeRequest
	if err := c.BindJSON(&req); err != nil {
		badRequest(ctx, c, err)
		return
	}
	if err := validator.Validate(req); err != nil {
		badRequest(ctx, c, err)
		return
	}
	txn, err := h.Ledger.Trade(ctx, engine.TradeRequest{
		UserID:      middleware.UserID(c),
		CoinGeckoID: strings.TrimSpace(req.CoinGeckoID),
		Side:        model.TransactionType(strings.ToUpper(req.Type)),
		Quantity:    req.Quantity,
		Price:       req.CurrentPrice,
	})
	if err != nil {
		fail(ctx, c, err)
		return
	}
	ok(c, txn)
}
