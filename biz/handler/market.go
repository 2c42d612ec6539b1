package handler

import (
	"context"
	"strings"

	"horizon-finance/biz/errno"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

const (
	defaultPerPage = 50
	maxPerPage     = 250
)

// Markets GET /api/market?page=&per_page=
func (h *Handlers) Markets(ctx context.Context, c *app.RequestContext) {
	page, err := queryInt(c, "page")
	if err != nil {
		fail(ctx, c, err)
		return
	}
	perPage, err := queryInt(c, "per_page")
	if err != nil {
		fail(ctx, c, err)
		return
	}
	if page <= 0 {
		page = 1
	}
	if perPage <= 0 {
		perPage = defaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}
	coins, err := h.Market.Markets(ctx, page, perPage)
	if err != nil {
		fail(ctx, c, errno.Wrap(errno.KindUpstreamUnavailable, err, "error fetching market data"))
		return
	}
	ok(c, coins)
}

// Search GET /api/market/search?q=
func (h *Handlers) Search(ctx context.Context, c *app.RequestContext) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		fail(ctx, c, errno.New(errno.KindValidation, "query is required"))
		return
	}
	results, err := h.Market.Search(ctx, q)
	if err != nil {
		fail(ctx, c, errno.Wrap(errno.KindUpstreamUnavailable, err, "error searching assets"))
		return
	}
	ok(c, results)
}

// Dolar GET /api/dolar
func (h *Handlers) Dolar(ctx context.Context, c *app.RequestContext) {
	quote, err := h.Market.ExchangeQuote(ctx)
	if err != nil {
		fail(ctx, c, errno.Wrap(errno.KindUpstreamUnavailable, err, "error fetching dolar data"))
		return
	}
	ok(c, quote)
}

// HealthCheck GET /ping
func (h *Handlers) HealthCheck(ctx context.Context, c *app.RequestContext) {
	if h.Ping != nil {
		if err := h.Ping(ctx); err != nil {
			c.JSON(consts.StatusServiceUnavailable, utils.H{"success": false, "error": "database unavailable"})
			return
		}
	}
	c.JSON(consts.StatusOK, utils.H{"message": "pong"})
}
