package pg

import (
	"context"
	"errors"

	"horizon-finance/biz/engine"
	"horizon-finance/biz/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LedgerStore 基于 GORM 事务实现 engine.LedgerStore
type LedgerStore struct {
	db *gorm.DB
}

func NewLedgerStore(db *gorm.DB) *LedgerStore {
	return &LedgerStore{db: db}
}

func (s *LedgerStore) DB() *gorm.DB {
	return s.db
}

// RunAtomic fn 返回错误或 panic 时整个事务回滚
func (s *LedgerStore) RunAtomic(ctx context.Context, fn func(tx engine.LedgerTx) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&ledgerTx{db: tx})
	})
}

type ledgerTx struct {
	db *gorm.DB
}

var forUpdate = clause.Locking{Strength: "UPDATE"}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return engine.ErrNoRecord
	}
	return err
}

func (t *ledgerTx) LockUser(ctx context.Context, externalID string) (*model.User, error) {
	var u model.User
	err := t.db.WithContext(ctx).Clauses(forUpdate).Where("clerk_id = ?", externalID).First(&u).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (t *ledgerTx) SaveBalances(ctx context.Context, user *model.User) error {
	return t.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", user.ID).Updates(map[string]interface{}{
		"cash_balance_usd": user.CashBalanceUSD,
		"cash_balance_ars": user.CashBalanceARS,
	}).Error
}

func (t *ledgerTx) DeleteUser(ctx context.Context, userID string) error {
	return t.db.WithContext(ctx).Where("id = ?", userID).Delete(&model.User{}).Error
}

func (t *ledgerTx) PortfolioByUser(ctx context.Context, userID string) (*model.Portfolio, error) {
	var p model.Portfolio
	if err := t.db.WithContext(ctx).Where("user_id = ?", userID).First(&p).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (t *ledgerTx) DeletePortfolio(ctx context.Context, portfolioID string) error {
	return t.db.WithContext(ctx).Where("id = ?", portfolioID).Delete(&model.Portfolio{}).Error
}

func (t *ledgerTx) AssetByExternalID(ctx context.Context, coinGeckoID string) (*model.Asset, error) {
	var a model.Asset
	if err := t.db.WithContext(ctx).Where("coin_gecko_id = ?", coinGeckoID).First(&a).Error; err != nil {
		return nil, notFound(err)
	}
	return &a, nil
}

// CreateAsset 并发首笔交易可能同时创建同一资产，冲突时读回已存在的行
func (t *ledgerTx) CreateAsset(ctx context.Context, asset *model.Asset) (*model.Asset, error) {
	err := t.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "coin_gecko_id"}},
		DoNothing: true,
	}).Create(asset).Error
	if err != nil {
		return nil, err
	}
	return t.AssetByExternalID(ctx, asset.CoinGeckoID)
}

func (t *ledgerTx) LockPosition(ctx context.Context, portfolioID, assetID string) (*model.Position, error) {
	var p model.Position
	err := t.db.WithContext(ctx).Clauses(forUpdate).
		Where("portfolio_id = ? AND asset_id = ?", portfolioID, assetID).First(&p).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (t *ledgerTx) LockPositions(ctx context.Context, portfolioID string) ([]model.Position, error) {
	var positions []model.Position
	err := t.db.WithContext(ctx).Clauses(forUpdate).
		Where("portfolio_id = ?", portfolioID).Order("id").Find(&positions).Error
	return positions, err
}

func (t *ledgerTx) CreatePosition(ctx context.Context, position *model.Position) error {
	return t.db.WithContext(ctx).Create(position).Error
}

func (t *ledgerTx) UpdatePosition(ctx context.Context, position *model.Position) error {
	return t.db.WithContext(ctx).Model(&model.Position{}).Where("id = ?", position.ID).Updates(map[string]interface{}{
		"quantity":          position.Quantity,
		"average_buy_price": position.AverageBuyPrice,
	}).Error
}

func (t *ledgerTx) MovePosition(ctx context.Context, positionID, portfolioID string) error {
	return t.db.WithContext(ctx).Model(&model.Position{}).Where("id = ?", positionID).
		Update("portfolio_id", portfolioID).Error
}

func (t *ledgerTx) DeletePosition(ctx context.Context, positionID string) error {
	return t.db.WithContext(ctx).Where("id = ?", positionID).Delete(&model.Position{}).Error
}

func (t *ledgerTx) AppendTransaction(ctx context.Context, txn *model.Transaction) error {
	return t.db.WithContext(ctx).Create(txn).Error
}

func (t *ledgerTx) ReassignTransactions(ctx context.Context, fromUserID, toUserID string) error {
	return t.db.WithContext(ctx).Model(&model.Transaction{}).Where("user_id = ?", fromUserID).
		Update("user_id", toUserID).Error
}
