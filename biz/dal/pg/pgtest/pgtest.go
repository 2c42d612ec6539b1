// Package pgtest opens the ledger schema on an in-memory SQLite database for tests.
package pgtest

import (
	"context"
	"fmt"
	"testing"

	"horizon-finance/biz/dal/pg"
	"horizon-finance/biz/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:ledger_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// 单连接，事务内外不会互相锁表
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, pg.AutoMigrate(db))
	return db
}

func NewStore(t testing.TB) *pg.LedgerStore {
	return pg.NewLedgerStore(NewDB(t))
}

// SeedUser 创建用户和组合并设置初始余额
func SeedUser(t testing.TB, store *pg.LedgerStore, externalID, usd, ars string) *model.User {
	t.Helper()
	u, err := store.CreateUserWithPortfolio(context.Background(), &model.User{
		ExternalID: externalID,
		Email:      externalID + "@example.com",
	}, "Mi Portfolio")
	require.NoError(t, err)

	u.CashBalanceUSD = decimal.RequireFromString(usd)
	u.CashBalanceARS = decimal.RequireFromString(ars)
	require.NoError(t, store.DB().Model(&model.User{}).Where("id = ?", u.ID).Updates(map[string]interface{}{
		"cash_balance_usd": u.CashBalanceUSD,
		"cash_balance_ars": u.CashBalanceARS,
	}).Error)
	return u
}

func Positions(t testing.TB, store *pg.LedgerStore, userID string) []model.Position {
	t.Helper()
	var p model.Portfolio
	require.NoError(t, store.DB().Where("user_id = ?", userID).First(&p).Error)
	var positions []model.Position
	require.NoError(t, store.DB().Preload("Asset").Where("portfolio_id = ?", p.ID).Order("id").Find(&positions).Error)
	return positions
}

func Transactions(t testing.TB, store *pg.LedgerStore, userID string) []model.Transaction {
	t.Helper()
	var txns []model.Transaction
	require.NoError(t, store.DB().Where("user_id = ?", userID).Order("created_at").Find(&txns).Error)
	return txns
}

func Reload(t testing.TB, store *pg.LedgerStore, externalID string) *model.User {
	t.Helper()
	u, err := store.UserByExternalID(context.Background(), externalID)
	require.NoError(t, err)
	return u
}
