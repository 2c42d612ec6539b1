package handler

import (
	"context"

	"horizon-finance/biz/engine"
	"horizon-finance/biz/errno"
	"horizon-finance/biz/market"
	"horizon-finance/biz/model"
	"horizon-finance/biz/service"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/shopspring/decimal"
)

type Ledger interface {
	Deposit(ctx context.Context, userID string, amount decimal.Decimal, currency model.Currency) (*model.Transaction, error)
	Trade(ctx context.Context, req engine.TradeRequest) (*model.Transaction, error)
}

type Portfolios interface {
	Summarize(ctx context.Context, externalID string) (*model.PortfolioSummary, error)
}

type Advisor interface {
	Report(ctx context.Context, externalID string) (*model.AdvisorReport, error)
}

type History interface {
	List(ctx context.Context, externalID string, q service.TransactionQuery) (*service.TransactionPage, error)
}

type Accounts interface {
	Sync(ctx context.Context, p service.Profile) (*model.User, error)
	ClaimDemo(ctx context.Context, externalID string) error
}

// Handlers 持有各接口依赖的服务
type Handlers struct {
	Ledger     Ledger
	Portfolios Portfolios
	Advisor    Advisor
	History    History
	Accounts   Accounts
	Market     market.Gateway
	Ping       func(ctx context.Context) error
}

func ok(c *app.RequestContext, data interface{}) {
	c.JSON(consts.StatusOK, utils.H{"success": true, "data": data})
}

// fail 按错误类型返回状态码，只暴露面向用户的消息
func fail(ctx context.Context, c *app.RequestContext, err error) {
	kind := errno.KindOf(err)
	status := errno.HTTPStatus(kind)
	if status >= consts.StatusInternalServerError {
		hlog.CtxErrorf(ctx, "request failed, path=%s, err=%v", c.Path(), err)
	}
	c.JSON(status, utils.H{
		"success": false,
		"error":   errno.Message(err),
		"kind":    kind,
	})
}

func badRequest(ctx context.Context, c *app.RequestContext, err error) {
	fail(ctx, c, errno.New(errno.KindValidation, "invalid request: %v", err))
}
