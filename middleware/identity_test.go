package middleware

import (
	"context"
	"net/http"
	"testing"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/config"
	"github.com/cloudwego/hertz/pkg/common/ut"
	"github.com/cloudwego/hertz/pkg/route"
	"github.com/stretchr/testify/assert"
)

func newEngine() *route.Engine {
	r := route.NewEngine(config.NewOptions([]config.Option{}))
	who := func(ctx context.Context, c *app.RequestContext) {
		c.String(http.StatusOK, UserID(c))
	}
	r.GET("/who", UserIdentity(false), who)
	r.POST("/trade", UserIdentity(false), who)
	r.GET("/ws", UserIdentity(true), who)
	return r
}

func TestUserIdentityHeader(t *testing.T) {
	w := ut.PerformRequest(newEngine(), http.MethodGet, "/who", nil,
		ut.Header{Key: UserIDHeader, Value: "user_1"})
	resp := w.Result()
	assert.Equal(t, http.StatusOK, resp.StatusCode())
	assert.Equal(t, "user_1", string(resp.Body()))
}

func TestUserIdentityQueryFallback(t *testing.T) {
	w := ut.PerformRequest(newEngine(), http.MethodGet, "/ws?user_id=user_2", nil)
	assert.Equal(t, http.StatusOK, w.Result().StatusCode())
	assert.Equal(t, "user_2", string(w.Result().Body()))
}

func TestUserIdentityQueryIgnoredOutsideWS(t *testing.T) {
	e := newEngine()
	w := ut.PerformRequest(e, http.MethodPost, "/trade?user_id=victim", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Result().StatusCode())

	w = ut.PerformRequest(e, http.MethodGet, "/who?user_id=victim", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Result().StatusCode())

	// 请求头优先于查询参数
	w = ut.PerformRequest(e, http.MethodGet, "/ws?user_id=victim", nil,
		ut.Header{Key: UserIDHeader, Value: "user_1"})
	assert.Equal(t, "user_1", string(w.Result().Body()))
}

func TestUserIdentityMissing(t *testing.T) {
	w := ut.PerformRequest(newEngine(), http.MethodGet, "/who", nil,
		ut.Header{Key: UserIDHeader, Value: "   "})
	resp := w.Result()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode())
	assert.JSONEq(t, `{"success":false,"error":"Unauthorized","kind":"unauthorized"}`, string(resp.Body()))
}
