package router

import (
	"horizon-finance/biz/handler"
	"horizon-finance/conf"
	"horizon-finance/middleware"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/middlewares/server/recovery"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/route"
	"github.com/hertz-contrib/cors"
	"github.com/hertz-contrib/gzip"
	"github.com/hertz-contrib/logger/accesslog"
	"github.com/hertz-contrib/pprof"
)

// RegisterMiddleware 按配置挂载通用中间件
func RegisterMiddleware(h *server.Hertz, c conf.Hertz) {
	// pprof
	if c.EnablePprof {
		pprof.Register(h)
	}
	// gzip
	if c.EnableGzip {
		h.Use(gzip.Gzip(gzip.DefaultCompression))
	}
	// access log
	if c.EnableAccessLog {
		h.Use(accesslog.New())
	}
	// recovery
	h.Use(recovery.Recovery())
	// cors
	if c.EnableCORS {
		cfg := cors.DefaultConfig()
		cfg.AllowAllOrigins = true
		cfg.AddAllowHeaders(middleware.UserIDHeader, "X-User-Email", "X-User-First-Name", "X-User-Last-Name")
		h.Use(cors.New(cfg))
	}
}

// Register 注册业务路由。/api/market 和 /api/dolar 不需要登录
func Register(r *route.RouterGroup, hd *handler.Handlers, ws app.HandlerFunc) {
	r.GET("/ping", hd.HealthCheck)

	public := r.Group("/api")
	public.GET("/market", hd.Markets)
	public.GET("/market/search", hd.Search)
	public.GET("/dolar", hd.Dolar)

	authed := r.Group("/api", middleware.UserIdentity(false))
	authed.POST("/deposit", hd.Deposit)
	authed.POST("/trade", hd.Trade)
	authed.GET("/portfolio", hd.Portfolio)
	authed.GET("/advisor", hd.AdvisorReport)
	authed.GET("/transactions", hd.Transactions)
	authed.GET("/user/sync", hd.SyncUser)
	authed.POST("/user/claim-demo", hd.ClaimDemo)

	if ws != nil {
		r.GET("/ws", middleware.UserIdentity(true), ws)
	}
}
