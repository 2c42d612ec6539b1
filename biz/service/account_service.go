package service

import (
	"context"
	"errors"
	"strings"

	"horizon-finance/biz/engine"
	"horizon-finance/biz/errno"
	"horizon-finance/biz/model"

	"github.com/cloudwego/hertz/pkg/common/hlog"
)

const unknownEmail = "unknown@email.com"

type AccountStore interface {
	engine.LedgerStore
	CreateUserWithPortfolio(ctx context.Context, user *model.User, portfolioName string) (*model.User, error)
}

// AccountService 管理用户生命周期: 首次登录同步和演示账户认领
type AccountService struct {
	store      AccountStore
	demoUserID string
}

func NewAccountService(store AccountStore, demoUserID string) *AccountService {
	return &AccountService{store: store, demoUserID: demoUserID}
}

type Profile struct {
	ExternalID string
	Email      string
	FirstName  string
	LastName   string
}

// Sync 用户不存在时创建用户和默认组合，重复调用返回同一用户
func (s *AccountService) Sync(ctx context.Context, p Profile) (*model.User, error) {
	if strings.TrimSpace(p.ExternalID) == "" {
		return nil, errno.New(errno.KindValidation, "user id is required")
	}
	email := p.Email
	if email == "" {
		email = unknownEmail
	}
	user, err := s.store.CreateUserWithPortfolio(ctx, &model.User{
		ExternalID: p.ExternalID,
		Email:      email,
		FirstName:  p.FirstName,
		LastName:   p.LastName,
	}, DefaultPortfolioName)
	if err != nil {
		hlog.CtxErrorf(ctx, "sync user failed, user=%s, err=%v", p.ExternalID, err)
		return nil, errno.Wrap(errno.KindStoreFailure, err, "could not sync user")
	}
	return user, nil
}

// ClaimDemo 将演示账户的余额、持仓和流水转移给当前用户，然后删除演示账户。
// 双方持有同一资产时按加权平均合并为一个持仓
func (s *AccountService) ClaimDemo(ctx context.Context, externalID string) error {
	if externalID == s.demoUserID {
		return errno.New(errno.KindValidation, "the demo account cannot claim itself")
	}
	moved := 0
	err := s.store.RunAtomic(ctx, func(tx engine.LedgerTx) error {
		// 固定先锁演示账户，避免并发认领互相等待
		demo, err := tx.LockUser(ctx, s.demoUserID)
		if err != nil {
			return notFoundOr(err, "no demo data found to claim")
		}
		current, err := tx.LockUser(ctx, externalID)
		if err != nil {
			return notFoundOr(err, "current user not found")
		}

		current.CashBalanceUSD = demo.CashBalanceUSD
		current.CashBalanceARS = demo.CashBalanceARS
		if err := tx.SaveBalances(ctx, current); err != nil {
			return err
		}

		demoPortfolio, err := tx.PortfolioByUser(ctx, demo.ID)
		switch {
		case errors.Is(err, engine.ErrNoRecord):
			demoPortfolio = nil
		case err != nil:
			return err
		}
		if demoPortfolio != nil {
			target, err := tx.PortfolioByUser(ctx, current.ID)
			if err != nil {
				return notFoundOr(err, "portfolio not found")
			}
			if moved, err = mergePositions(ctx, tx, demoPortfolio.ID, target.ID); err != nil {
				return err
			}
		}

		if err := tx.ReassignTransactions(ctx, demo.ID, current.ID); err != nil {
			return err
		}
		if demoPortfolio != nil {
			if err := tx.DeletePortfolio(ctx, demoPortfolio.ID); err != nil {
				return err
			}
		}
		return tx.DeleteUser(ctx, demo.ID)
	})
	if err != nil {
		hlog.CtxWarnf(ctx, "claim demo failed, user=%s, err=%v", externalID, err)
		var e *errno.Error
		if errors.As(err, &e) {
			return e
		}
		return errno.Wrap(errno.KindStoreFailure, err, "could not claim demo data")
	}
	hlog.CtxInfof(ctx, "demo data claimed, user=%s, positions=%d", externalID, moved)
	return nil
}

func mergePositions(ctx context.Context, tx engine.LedgerTx, fromPortfolioID, toPortfolioID string) (int, error) {
	from, err := tx.LockPositions(ctx, fromPortfolioID)
	if err != nil {
		return 0, err
	}
	to, err := tx.LockPositions(ctx, toPortfolioID)
	if err != nil {
		return 0, err
	}
	held := make(map[string]*model.Position, len(to))
	for i := range to {
		held[to[i].AssetID] = &to[i]
	}
	for _, p := range from {
		existing, ok := held[p.AssetID]
		if !ok {
			if err := tx.MovePosition(ctx, p.ID, toPortfolioID); err != nil {
				return 0, err
			}
			continue
		}
		existing.AverageBuyPrice = engine.WeightedAverage(existing.Quantity, existing.AverageBuyPrice, p.Quantity, p.AverageBuyPrice)
		existing.Quantity = existing.Quantity.Add(p.Quantity)
		if err := tx.UpdatePosition(ctx, existing); err != nil {
			return 0, err
		}
		if err := tx.DeletePosition(ctx, p.ID); err != nil {
			return 0, err
		}
	}
	return len(from), nil
}

func notFoundOr(err error, msg string) error {
	if errors.Is(err, engine.ErrNoRecord) {
		return errno.New(errno.KindNotFound, "%s", msg)
	}
	return err
}
