package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"horizon-finance/biz/dal/pg"
	"horizon-finance/biz/dal/pg/pgtest"
	"horizon-finance/biz/engine"
	"horizon-finance/biz/errno"
	"horizon-finance/biz/market"
	"horizon-finance/biz/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCatalog struct{}

func (stubCatalog) AssetMetadata(_ context.Context, id string) (*market.AssetMetadata, error) {
	switch id {
	case "bitcoin":
		return &market.AssetMetadata{Symbol: "btc", Name: "Bitcoin"}, nil
	case "ethereum":
		return &market.AssetMetadata{Symbol: "eth", Name: "Ethereum"}, nil
	case "solana":
		return &market.AssetMetadata{Symbol: "sol", Name: "Solana"}, nil
	}
	return nil, errors.New("unknown coin")
}

type stubPrices struct {
	mu     sync.Mutex
	quotes map[string]market.Quote
	err    error
	asked  [][]string
}

func (p *stubPrices) Prices(_ context.Context, ids []string) (map[string]market.Quote, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.asked = append(p.asked, ids)
	if p.err != nil {
		return nil, p.err
	}
	out := make(map[string]market.Quote, len(ids))
	for _, id := range ids {
		if q, ok := p.quotes[id]; ok {
			out[id] = q
		}
	}
	return out, nil
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDec(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.Truef(t, dec(want).Equal(got), "want %s, got %s", want, got)
}

func clock() func() time.Time {
	var mu sync.Mutex
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	n := 0
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		n++
		return base.Add(time.Duration(n) * time.Minute)
	}
}

type ledger struct {
	store  *pg.LedgerStore
	engine *engine.Engine
}

func newLedger(t *testing.T) *ledger {
	store := pgtest.NewStore(t)
	return &ledger{store: store, engine: engine.New(store, stubCatalog{}, engine.WithClock(clock()))}
}

func (l *ledger) buy(t *testing.T, user, asset, qty, price string) {
	t.Helper()
	_, err := l.engine.Trade(context.Background(), engine.TradeRequest{
		UserID:      user,
		CoinGeckoID: asset,
		Side:        model.TransactionBuy,
		Quantity:    dec(qty),
		Price:       dec(price),
	})
	require.NoError(t, err)
}

func TestSummarizeValuesPositions(t *testing.T) {
	l := newLedger(t)
	pgtest.SeedUser(t, l.store, "user_1", "100000", "2500")
	l.buy(t, "user_1", "ethereum", "10", "2000")
	l.buy(t, "user_1", "bitcoin", "1", "40000")

	prices := &stubPrices{quotes: map[string]market.Quote{
		"bitcoin": {CurrentPrice: dec("50000"), Change24hPct: dec("3.5")},
	}}
	svc := NewPortfolioService(l.store, prices)

	s, err := svc.Summarize(context.Background(), "user_1")
	require.NoError(t, err)
	require.Len(t, prices.asked, 1)
	assert.ElementsMatch(t, []string{"bitcoin", "ethereum"}, prices.asked[0])

	assert.Equal(t, 2, s.PositionCount)
	require.Len(t, s.Positions, 2)
	assertDec(t, "70000", s.TotalValue)
	assertDec(t, "60000", s.TotalCost)
	assertDec(t, "10000", s.TotalProfitLoss)
	assert.InDelta(t, 16.6666, s.TotalProfitLossPercentage.InexactFloat64(), 1e-3)
	assertDec(t, "40000", s.CashBalanceUSD)
	assertDec(t, "2500", s.CashBalanceARS)
	assertDec(t, "110000", s.TotalPatrimony)

	btc, eth := s.Positions[0], s.Positions[1]
	assert.Equal(t, "BTC", btc.Symbol)
	assertDec(t, "50000", btc.CurrentPrice)
	assertDec(t, "10000", btc.ProfitLoss)
	assertDec(t, "25", btc.ProfitLossPercentage)
	assertDec(t, "3.5", btc.PriceChange24h)

	// 无报价时按均价估值
	assert.Equal(t, "ETH", eth.Symbol)
	assertDec(t, "2000", eth.CurrentPrice)
	assertDec(t, "0", eth.ProfitLoss)
	assertDec(t, "0", eth.ProfitLossPercentage)

	assert.True(t, btc.Allocation.GreaterThan(eth.Allocation))
	assert.InDelta(t, 100, btc.Allocation.Add(eth.Allocation).InexactFloat64(), 1e-9)
}

func TestSummarizeIsIdempotent(t *testing.T) {
	l := newLedger(t)
	pgtest.SeedUser(t, l.store, "user_1", "10000", "0")
	l.buy(t, "user_1", "bitcoin", "0.1", "30000")
	l.buy(t, "user_1", "solana", "5", "100")

	prices := &stubPrices{quotes: map[string]market.Quote{
		"bitcoin": {CurrentPrice: dec("31000"), Change24hPct: dec("-1.2")},
		"solana":  {CurrentPrice: dec("150"), Change24hPct: dec("16")},
	}}
	svc := NewPortfolioService(l.store, prices)

	first, err := svc.Summarize(context.Background(), "user_1")
	require.NoError(t, err)
	second, err := svc.Summarize(context.Background(), "user_1")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assertDec(t, "6500", pgtest.Reload(t, l.store, "user_1").CashBalanceUSD)
}

func TestSummarizeEmptyPortfolio(t *testing.T) {
	l := newLedger(t)
	pgtest.SeedUser(t, l.store, "user_1", "1234.5", "99")
	prices := &stubPrices{}

	s, err := NewPortfolioService(l.store, prices).Summarize(context.Background(), "user_1")
	require.NoError(t, err)
	assert.Empty(t, prices.asked)
	assert.NotNil(t, s.Positions)
	assert.Empty(t, s.Positions)
	assert.Zero(t, s.PositionCount)
	assertDec(t, "0", s.TotalValue)
	assertDec(t, "1234.5", s.TotalPatrimony)
	assertDec(t, "99", s.CashBalanceARS)
}

func TestSummarizeCreatesMissingPortfolio(t *testing.T) {
	l := newLedger(t)
	u := pgtest.SeedUser(t, l.store, "user_1", "0", "0")
	require.NoError(t, l.store.DB().Where("user_id = ?", u.ID).Delete(&model.Portfolio{}).Error)

	_, err := NewPortfolioService(l.store, &stubPrices{}).Summarize(context.Background(), "user_1")
	require.NoError(t, err)

	var p model.Portfolio
	require.NoError(t, l.store.DB().Where("user_id = ?", u.ID).First(&p).Error)
	assert.Equal(t, DefaultPortfolioName, p.Name)
}

func TestSummarizeFailures(t *testing.T) {
	l := newLedger(t)
	pgtest.SeedUser(t, l.store, "user_1", "1000", "0")
	l.buy(t, "user_1", "bitcoin", "0.01", "30000")

	svc := NewPortfolioService(l.store, &stubPrices{err: errors.New("coingecko: 429")})
	_, err := svc.Summarize(context.Background(), "user_1")
	assert.True(t, errors.Is(err, errno.ErrUpstreamUnavailable), "err=%v", err)

	_, err = svc.Summarize(context.Background(), "nobody")
	assert.True(t, errors.Is(err, errno.ErrNotFound), "err=%v", err)
}

func TestValuateZeroPrices(t *testing.T) {
	user := &model.User{CashBalanceUSD: dec("10")}
	positions := []model.Position{
		{ID: "p1", Quantity: dec("1"), AverageBuyPrice: dec("5"), Asset: &model.Asset{CoinGeckoID: "a", Symbol: "A"}},
		{ID: "p2", Quantity: dec("2"), AverageBuyPrice: dec("7"), Asset: &model.Asset{CoinGeckoID: "b", Symbol: "B"}},
	}
	quotes := map[string]market.Quote{
		"a": {CurrentPrice: decimal.Zero},
		"b": {CurrentPrice: decimal.Zero},
	}

	s := Valuate(user, positions, quotes)
	assertDec(t, "0", s.TotalValue)
	assertDec(t, "19", s.TotalCost)
	assertDec(t, "-100", s.TotalProfitLossPercentage)
	assertDec(t, "10", s.TotalPatrimony)
	for _, p := range s.Positions {
		assertDec(t, "0", p.Allocation)
	}
	// 占比相同时保持原顺序
	assert.Equal(t, "p1", s.Positions[0].ID)
}

func TestValuateSortsByAllocation(t *testing.T) {
	user := &model.User{}
	positions := []model.Position{
		{ID: "small", Quantity: dec("1"), AverageBuyPrice: dec("10"), Asset: &model.Asset{CoinGeckoID: "s"}},
		{ID: "large", Quantity: dec("3"), AverageBuyPrice: dec("10"), Asset: &model.Asset{CoinGeckoID: "l"}},
		{ID: "mid", Quantity: dec("2"), AverageBuyPrice: dec("10"), Asset: &model.Asset{CoinGeckoID: "m"}},
	}

	s := Valuate(user, positions, nil)
	ids := []string{s.Positions[0].ID, s.Positions[1].ID, s.Positions[2].ID}
	assert.Equal(t, []string{"large", "mid", "small"}, ids)
	assertDec(t, "50", s.Positions[0].Allocation)

	total := decimal.Zero
	for _, p := range s.Positions {
		total = total.Add(p.Allocation)
	}
	assert.InDelta(t, 100, total.InexactFloat64(), 1e-9)
}
