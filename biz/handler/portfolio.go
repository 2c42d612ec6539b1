package handler

import (
	"context"
	"strconv"

	"horizon-finance/biz/errno"
	"horizon-finance/biz/model"
	"horizon-finance/biz/service"
	"horizon-finance/middleware"

	"github.com/cloudwego/hertz/pkg/app"
)

// Portfolio GET /api/portfolio
func (h *Handlers) Portfolio(ctx context.Context, c *app.RequestContext) {
	summary, err := h.Portfolios.Summarize(ctx, middleware.UserID(c))
	if err != nil {
		fail(ctx, c, err)
		return
	}
	ok(c, summary)
}

// AdvisorReport GET /api/advisor
func (h *Handlers) AdvisorReport(ctx context.Context, c *app.RequestContext) {
	report, err := h.Advisor.Report(ctx, middleware.UserID(c))
	if err != nil {
		fail(ctx, c, err)
		return
	}
	ok(c, report)
}

// Transactions GET /api/transactions?page=&limit=&type=
func (h *Handlers) Transactions(ctx context.Context, c *app.RequestContext) {
	page, err := queryInt(c, "page")
	if err != nil {
		fail(ctx, c, err)
		return
	}
	limit, err := queryInt(c, "limit")
	if err != nil {
		fail(ctx, c, err)
		return
	}
	result, err := h.History.List(ctx, middleware.UserID(c), service.TransactionQuery{
		Page:  page,
		Limit: limit,
		Type:  model.TransactionType(c.Query("type")),
	})
	if err != nil {
		fail(ctx, c, err)
		return
	}
	ok(c, result)
}

// queryInt 参数缺省时返回 0
func queryInt(c *app.RequestContext, key string) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errno.New(errno.KindValidation, "%s must be an integer", key)
	}
	return v, nil
}
