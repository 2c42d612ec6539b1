// Package engine applies deposits and trades to the ledger.
//
// All writes of one operation run inside LedgerStore.RunAtomic, so a failed
// operation leaves balances, positions and the transaction log untouched.
package engine

import (
	"context"
	"errors"

	"horizon-finance/biz/market"
	"horizon-finance/biz/model"

	"github.com/panjf2000/ants/v2"
)

// ErrNoRecord is returned by LedgerTx lookups that find nothing.
var ErrNoRecord = errors.New("record not found")

// LedgerStore 提供原子写入单元，fn 内所有写操作要么全部提交要么全部回滚
type LedgerStore interface {
	RunAtomic(ctx context.Context, fn func(tx LedgerTx) error) error
}

// LedgerTx 是一个事务内可用的读写操作。Lock* 方法会对行加锁直到事务结束
type LedgerTx interface {
	LockUser(ctx context.Context, externalID string) (*model.User, error)
	SaveBalances(ctx context.Context, user *model.User) error
	DeleteUser(ctx context.Context, userID string) error

	PortfolioByUser(ctx context.Context, userID string) (*model.Portfolio, error)
	DeletePortfolio(ctx context.Context, portfolioID string) error

	AssetByExternalID(ctx context.Context, coinGeckoID string) (*model.Asset, error)
	CreateAsset(ctx context.Context, asset *model.Asset) (*model.Asset, error)

	LockPosition(ctx context.Context, portfolioID, assetID string) (*model.Position, error)
	LockPositions(ctx context.Context, portfolioID string) ([]model.Position, error)
	CreatePosition(ctx context.Context, position *model.Position) error
	UpdatePosition(ctx context.Context, position *model.Position) error
	MovePosition(ctx context.Context, positionID, portfolioID string) error
	DeletePosition(ctx context.Context, positionID string) error

	AppendTransaction(ctx context.Context, txn *model.Transaction) error
	ReassignTransactions(ctx context.Context, fromUserID, toUserID string) error
}

// AssetCatalog 首次交易某资产时用来获取元数据
type AssetCatalog interface {
	AssetMetadata(ctx context.Context, coinGeckoID string) (*market.AssetMetadata, error)
}

// Notifier 接收已提交的账本事件，不能影响已提交的数据
type Notifier interface {
	Notify(ctx context.Context, event model.LedgerEvent)
}

type Notifiers []Notifier

func (ns Notifiers) Notify(ctx context.Context, event model.LedgerEvent) {
	for _, n := range ns {
		n.Notify(ctx, event)
	}
}

func NewBroadcastPool(size int) (*ants.Pool, error) {
	return ants.NewPool(size)
}
