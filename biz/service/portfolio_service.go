package service

import (
	"context"
	"errors"
	"sort"

	"horizon-finance/biz/engine"
	"horizon-finance/biz/errno"
	"horizon-finance/biz/market"
	"horizon-finance/biz/model"

	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/shopspring/decimal"
)

const DefaultPortfolioName = "Mi Portfolio"

var hundred = decimal.NewFromInt(100)

type HoldingsReader interface {
	UserByExternalID(ctx context.Context, externalID string) (*model.User, error)
	PortfolioWithPositions(ctx context.Context, userID, defaultName string) (*model.Portfolio, error)
}

type PriceSource interface {
	Prices(ctx context.Context, ids []string) (map[string]market.Quote, error)
}

// PortfolioService 结合持仓与实时价格计算组合估值，只读
type PortfolioService struct {
	store  HoldingsReader
	prices PriceSource
}

func NewPortfolioService(store HoldingsReader, prices PriceSource) *PortfolioService {
	return &PortfolioService{store: store, prices: prices}
}

func (s *PortfolioService) Summarize(ctx context.Context, externalID string) (*model.PortfolioSummary, error) {
	user, err := s.store.UserByExternalID(ctx, externalID)
	if err != nil {
		if errors.Is(err, engine.ErrNoRecord) {
			return nil, errno.New(errno.KindNotFound, "user not found")
		}
		return nil, errno.Wrap(errno.KindStoreFailure, err, "could not load user")
	}
	portfolio, err := s.store.PortfolioWithPositions(ctx, user.ID, DefaultPortfolioName)
	if err != nil {
		return nil, errno.Wrap(errno.KindStoreFailure, err, "could not load portfolio")
	}
	if len(portfolio.Positions) == 0 {
		return Valuate(user, nil, nil), nil
	}

	ids := make([]string, 0, len(portfolio.Positions))
	seen := make(map[string]struct{}, len(portfolio.Positions))
	for _, p := range portfolio.Positions {
		if p.Asset == nil {
			continue
		}
		if _, ok := seen[p.Asset.CoinGeckoID]; ok {
			continue
		}
		seen[p.Asset.CoinGeckoID] = struct{}{}
		ids = append(ids, p.Asset.CoinGeckoID)
	}
	quotes, err := s.prices.Prices(ctx, ids)
	if err != nil {
		hlog.CtxErrorf(ctx, "price batch failed, user=%s, assets=%v, err=%v", externalID, ids, err)
		return nil, errno.Wrap(errno.KindUpstreamUnavailable, err, "market data is unavailable")
	}
	return Valuate(user, portfolio.Positions, quotes), nil
}

// Valuate 计算估值。缺少报价的资产按持仓均价估值，即该资产浮动盈亏为 0
func Valuate(user *model.User, positions []model.Position, quotes map[string]market.Quote) *model.PortfolioSummary {
	summary := &model.PortfolioSummary{
		CashBalanceUSD: user.CashBalanceUSD,
		CashBalanceARS: user.CashBalanceARS,
		Positions:      []model.PositionValuation{},
	}

	totalValue := decimal.Zero
	totalCost := decimal.Zero
	for _, p := range positions {
		v := model.PositionValuation{
			ID:              p.ID,
			AssetID:         p.AssetID,
			Quantity:        p.Quantity,
			AverageBuyPrice: p.AverageBuyPrice,
			CurrentPrice:    p.AverageBuyPrice,
		}
		if p.Asset != nil {
			v.CoinGeckoID = p.Asset.CoinGeckoID
			v.Symbol = p.Asset.Symbol
			v.Name = p.Asset.Name
			v.Image = p.Asset.Image
			if q, ok := quotes[p.Asset.CoinGeckoID]; ok {
				v.CurrentPrice = q.CurrentPrice
				v.PriceChange24h = q.Change24hPct
			}
		}
		v.TotalValue = v.Quantity.Mul(v.CurrentPrice)
		v.TotalCost = v.Quantity.Mul(v.AverageBuyPrice)
		v.ProfitLoss = v.TotalValue.Sub(v.TotalCost)
		v.ProfitLossPercentage = percentOf(v.ProfitLoss, v.TotalCost)

		totalValue = totalValue.Add(v.TotalValue)
		totalCost = totalCost.Add(v.TotalCost)
		summary.Positions = append(summary.Positions, v)
	}

	// 总值确定后再计算占比
	for i := range summary.Positions {
		summary.Positions[i].Allocation = percentOf(summary.Positions[i].TotalValue, totalValue)
	}
	sort.SliceStable(summary.Positions, func(i, j int) bool {
		return summary.Positions[i].Allocation.GreaterThan(summary.Positions[j].Allocation)
	})

	summary.TotalValue = totalValue
	summary.TotalCost = totalCost
	summary.TotalProfitLoss = totalValue.Sub(totalCost)
	summary.TotalProfitLossPercentage = percentOf(summary.TotalProfitLoss, totalCost)
	summary.TotalPatrimony = totalValue.Add(user.CashBalanceUSD)
	summary.PositionCount = len(summary.Positions)
	return summary
}

func percentOf(part, whole decimal.Decimal) decimal.Decimal {
	if !whole.IsPositive() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(hundred)
}
