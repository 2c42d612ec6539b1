package service

import (
	"context"
	"errors"
	"testing"

	"horizon-finance/biz/dal/pg/pgtest"
	"horizon-finance/biz/engine"
	"horizon-finance/biz/errno"
	"horizon-finance/biz/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const demoID = "demo_user_clerk_id"

func positionsByCoin(t *testing.T, l *ledger, userID string) map[string]model.Position {
	t.Helper()
	out := map[string]model.Position{}
	for _, p := range pgtest.Positions(t, l.store, userID) {
		out[p.Asset.CoinGeckoID] = p
	}
	return out
}

func TestSyncCreatesUserOnce(t *testing.T) {
	l := newLedger(t)
	svc := NewAccountService(l.store, demoID)

	u, err := svc.Sync(context.Background(), Profile{ExternalID: "user_1", FirstName: "Ana"})
	require.NoError(t, err)
	assert.NotEmpty(t, u.ID)
	assert.Equal(t, unknownEmail, u.Email)
	assertDec(t, "0", u.CashBalanceUSD)

	again, err := svc.Sync(context.Background(), Profile{ExternalID: "user_1", Email: "other@example.com"})
	require.NoError(t, err)
	assert.Equal(t, u.ID, again.ID)
	assert.Equal(t, unknownEmail, again.Email)

	var portfolios []model.Portfolio
	require.NoError(t, l.store.DB().Where("user_id = ?", u.ID).Find(&portfolios).Error)
	require.Len(t, portfolios, 1)
	assert.Equal(t, DefaultPortfolioName, portfolios[0].Name)

	_, err = svc.Sync(context.Background(), Profile{ExternalID: "  "})
	assert.True(t, errors.Is(err, errno.ErrValidation))
}

func TestClaimDemoMergesLedger(t *testing.T) {
	l := newLedger(t)
	demo := pgtest.SeedUser(t, l.store, demoID, "5000", "100")
	l.buy(t, demoID, "bitcoin", "1", "1000")
	l.buy(t, demoID, "ethereum", "2", "100")

	cur := pgtest.SeedUser(t, l.store, "user_1", "10000", "0")
	l.buy(t, "user_1", "bitcoin", "1", "3000")

	require.NoError(t, NewAccountService(l.store, demoID).ClaimDemo(context.Background(), "user_1"))

	got := pgtest.Reload(t, l.store, "user_1")
	assertDec(t, "3800", got.CashBalanceUSD)
	assertDec(t, "100", got.CashBalanceARS)

	positions := positionsByCoin(t, l, cur.ID)
	require.Len(t, positions, 2)
	assertDec(t, "2", positions["bitcoin"].Quantity)
	assertDec(t, "2000", positions["bitcoin"].AverageBuyPrice)
	assertDec(t, "2", positions["ethereum"].Quantity)
	assertDec(t, "100", positions["ethereum"].AverageBuyPrice)

	assert.Len(t, pgtest.Transactions(t, l.store, cur.ID), 3)
	assert.Empty(t, pgtest.Transactions(t, l.store, demo.ID))

	_, err := l.store.UserByExternalID(context.Background(), demoID)
	assert.ErrorIs(t, err, engine.ErrNoRecord)
	var count int64
	require.NoError(t, l.store.DB().Model(&model.Portfolio{}).Where("user_id = ?", demo.ID).Count(&count).Error)
	assert.Zero(t, count)
	require.NoError(t, l.store.DB().Model(&model.Position{}).Count(&count).Error)
	assert.EqualValues(t, 2, count)
}

func TestClaimDemoRejections(t *testing.T) {
	l := newLedger(t)
	svc := NewAccountService(l.store, demoID)
	pgtest.SeedUser(t, l.store, "user_1", "10", "0")

	err := svc.ClaimDemo(context.Background(), "user_1")
	assert.True(t, errors.Is(err, errno.ErrNotFound), "err=%v", err)
	assert.Equal(t, "no demo data found to claim", errno.Message(err))

	pgtest.SeedUser(t, l.store, demoID, "500", "0")
	err = svc.ClaimDemo(context.Background(), "ghost")
	assert.True(t, errors.Is(err, errno.ErrNotFound), "err=%v", err)
	// 失败后演示账户保持不变
	assertDec(t, "500", pgtest.Reload(t, l.store, demoID).CashBalanceUSD)

	err = svc.ClaimDemo(context.Background(), demoID)
	assert.True(t, errors.Is(err, errno.ErrValidation), "err=%v", err)
}
