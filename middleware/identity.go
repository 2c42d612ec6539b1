package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
)

const (
	UserIDHeader = "X-User-Id"
	userIDKey    = "user_id"
)

// UserIdentity 读取外部鉴权层写入的用户标识，缺失时返回 401。
// allowQuery 只应在 /ws 上开启：浏览器 WebSocket 无法设置自定义请求头
func UserIdentity(allowQuery bool) app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		id := strings.TrimSpace(string(c.GetHeader(UserIDHeader)))
		if id == "" && allowQuery {
			id = strings.TrimSpace(c.Query(userIDKey))
		}
		if id == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, utils.H{
				"success": false,
				"error":   "Unauthorized",
				"kind":    "unauthorized",
			})
			return
		}
		c.Set(userIDKey, id)
		c.Next(ctx)
	}
}

// UserID 返回 UserIdentity 写入的用户标识
func UserID(c *app.RequestContext) string {
	return c.GetString(userIDKey)
}
