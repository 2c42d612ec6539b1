package handler

import (
	"context"

	"horizon-finance/biz/service"
	"horizon-finance/middleware"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
)

// 鉴权层转发的用户资料
const (
	emailHeader     = "X-User-Email"
	firstNameHeader = "X-User-First-Name"
	lastNameHeader  = "X-User-Last-Name"
)

// SyncUser GET /api/user/sync
func (h *Handlers) SyncUser(ctx context.Context, c *app.RequestContext) {
	user, err := h.Accounts.Sync(ctx, service.Profile{
		ExternalID: middleware.UserID(c),
		Email:      string(c.GetHeader(emailHeader)),
		FirstName:  string(c.GetHeader(firstNameHeader)),
		LastName:   string(c.GetHeader(lastNameHeader)),
	})
	if err != nil {
		fail(ctx, c, err)
		return
	}
	ok(c, user)
}

// ClaimDemo POST /api/user/claim-demo
func (h *Handlers) ClaimDemo(ctx context.Context, c *app.RequestContext) {
	if err := h.Accounts.ClaimDemo(ctx, middleware.UserID(c)); err != nil {
		fail(ctx, c, err)
		return
	}
	ok(c, utils.H{"message": "Demo data claimed successfully"})
}
