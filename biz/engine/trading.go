package engine

import (
	"context"
	"errors"
	"strings"
	"time"

	"horizon-finance/biz/errno"
	"horizon-finance/biz/model"
	"horizon-finance/biz/util"

	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/panjf2000/ants/v2"
	"github.com/shopspring/decimal"
)

// 数量、价格保留 8 位小数
const ledgerScale = 8

// MaxAmount 单笔数量或金额上限
var MaxAmount = decimal.NewFromInt(999999999)

type TradeRequest struct {
	UserID      string
	CoinGeckoID string
	Side        model.TransactionType
	Quantity    decimal.Decimal
	Price       decimal.Decimal
}

type Engine struct {
	store    LedgerStore
	catalog  AssetCatalog
	notifier Notifier
	pool     *ants.Pool
	now      func() time.Time
}

type Option func(*Engine)

func WithNotifier(n Notifier) Option {
	return func(e *Engine) { e.notifier = n }
}

// WithPool 通知在协程池中异步执行；未设置时同步执行
func WithPool(p *ants.Pool) Option {
	return func(e *Engine) { e.pool = p }
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func New(store LedgerStore, catalog AssetCatalog, opts ...Option) *Engine {
	e := &Engine{store: store, catalog: catalog, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Deposit 入金：增加对应币种余额并追加一条 DEPOSIT_* 流水
func (e *Engine) Deposit(ctx context.Context, userID string, amount decimal.Decimal, currency model.Currency) (*model.Transaction, error) {
	if !currency.Valid() {
		return nil, errno.New(errno.KindValidation, "unsupported currency %q", currency)
	}
	if err := checkAmount("amount", amount); err != nil {
		return nil, err
	}
	amount = amount.Round(currency.Scale())
	if !amount.IsPositive() {
		return nil, errno.New(errno.KindValidation, "amount must be greater than 0")
	}

	var (
		user *model.User
		txn  *model.Transaction
	)
	err := e.store.RunAtomic(ctx, func(tx LedgerTx) error {
		var err error
		user, err = tx.LockUser(ctx, userID)
		if err != nil {
			return lookupErr(err, "user not found")
		}
		txType := model.TransactionDepositUSD
		if currency == model.CurrencyARS {
			txType = model.TransactionDepositARS
			user.CashBalanceARS = user.CashBalanceARS.Add(amount)
		} else {
			user.CashBalanceUSD = user.CashBalanceUSD.Add(amount)
		}
		if err := tx.SaveBalances(ctx, user); err != nil {
			return err
		}
		txn = &model.Transaction{
			UserID:      user.ID,
			Type:        txType,
			TotalAmount: amount,
			Currency:    currency,
			CreatedAt:   e.now(),
		}
		return tx.AppendTransaction(ctx, txn)
	})
	if err != nil {
		hlog.CtxWarnf(ctx, "deposit failed, user=%s, amount=%s, currency=%s, err=%v", userID, amount, currency, err)
		return nil, storeErr(err, "could not apply deposit")
	}
	hlog.CtxInfof(ctx, "deposit applied, user=%s, amount=%s, currency=%s", userID, amount, currency)
	e.emit(user, txn, nil)
	return txn, nil
}

// Trade 按当前价格买入或卖出。买入按数量加权更新均价，卖出不改变均价
func (e *Engine) Trade(ctx context.Context, req TradeRequest) (*model.Transaction, error) {
	if err := validateTrade(req); err != nil {
		return nil, err
	}

	var (
		user  *model.User
		asset *model.Asset
		txn   *model.Transaction
	)
	err := e.store.RunAtomic(ctx, func(tx LedgerTx) error {
		var err error
		user, err = tx.LockUser(ctx, req.UserID)
		if err != nil {
			return lookupErr(err, "user not found")
		}
		portfolio, err := tx.PortfolioByUser(ctx, user.ID)
		if err != nil {
			return lookupErr(err, "portfolio not found")
		}
		asset, err = e.resolveAsset(ctx, tx, req.CoinGeckoID)
		if err != nil {
			return err
		}
		position, err := tx.LockPosition(ctx, portfolio.ID, asset.ID)
		switch {
		case errors.Is(err, ErrNoRecord):
			position = nil
		case err != nil:
			return err
		}

		if req.Side == model.TransactionBuy {
			txn, err = e.buy(ctx, tx, user, portfolio, asset, position, req)
		} else {
			txn, err = e.sell(ctx, tx, user, asset, position, req)
		}
		return err
	})
	if err != nil {
		hlog.CtxWarnf(ctx, "trade rejected, user=%s, asset=%s, side=%s, quantity=%s, price=%s, err=%v",
			req.UserID, req.CoinGeckoID, req.Side, req.Quantity, req.Price, err)
		return nil, storeErr(err, "could not apply trade")
	}
	hlog.CtxInfof(ctx, "trade executed, user=%s, asset=%s, side=%s, quantity=%s, price=%s, total=%s",
		req.UserID, req.CoinGeckoID, req.Side, req.Quantity, req.Price, txn.TotalAmount)
	e.emit(user, txn, asset)
	return txn, nil
}

func (e *Engine) buy(ctx context.Context, tx LedgerTx, user *model.User, portfolio *model.Portfolio,
	asset *model.Asset, position *model.Position, req TradeRequest) (*model.Transaction, error) {
	totalCost := req.Quantity.Mul(req.Price).Round(ledgerScale)
	if user.CashBalanceUSD.LessThan(totalCost) {
		return nil, errno.New(errno.KindInsufficientFunds,
			"insufficient funds: need $%s USD but have $%s USD",
			totalCost.String(), user.CashBalanceUSD.String())
	}

	user.CashBalanceUSD = user.CashBalanceUSD.Sub(totalCost)
	if err := tx.SaveBalances(ctx, user); err != nil {
		return nil, err
	}

	if position != nil {
		newQty := position.Quantity.Add(req.Quantity)
		position.AverageBuyPrice = WeightedAverage(position.Quantity, position.AverageBuyPrice, req.Quantity, req.Price)
		position.Quantity = newQty
		if err := tx.UpdatePosition(ctx, position); err != nil {
			return nil, err
		}
	} else {
		position = &model.Position{
			PortfolioID:     portfolio.ID,
			AssetID:         asset.ID,
			Quantity:        req.Quantity,
			AverageBuyPrice: req.Price.Round(ledgerScale),
		}
		if err := tx.CreatePosition(ctx, position); err != nil {
			return nil, err
		}
	}

	txn := e.tradeTransaction(user, asset, model.TransactionBuy, req, totalCost)
	return txn, tx.AppendTransaction(ctx, txn)
}

func (e *Engine) sell(ctx context.Context, tx LedgerTx, user *model.User,
	asset *model.Asset, position *model.Position, req TradeRequest) (*model.Transaction, error) {
	if position == nil {
		return nil, errno.New(errno.KindPositionNotFound, "you do not hold %s in your portfolio", asset.Symbol)
	}
	if req.Quantity.GreaterThan(position.Quantity) {
		return nil, errno.New(errno.KindInsufficientHolding,
			"cannot sell %s %s: only %s held", req.Quantity, asset.Symbol, position.Quantity)
	}

	proceeds := req.Quantity.Mul(req.Price).Round(ledgerScale)
	user.CashBalanceUSD = user.CashBalanceUSD.Add(proceeds)
	if err := tx.SaveBalances(ctx, user); err != nil {
		return nil, err
	}

	remaining := position.Quantity.Sub(req.Quantity)
	if remaining.IsZero() {
		if err := tx.DeletePosition(ctx, position.ID); err != nil {
			return nil, err
		}
	} else {
		position.Quantity = remaining
		if err := tx.UpdatePosition(ctx, position); err != nil {
			return nil, err
		}
	}

	txn := e.tradeTransaction(user, asset, model.TransactionSell, req, proceeds)
	return txn, tx.AppendTransaction(ctx, txn)
}

func (e *Engine) tradeTransaction(user *model.User, asset *model.Asset, side model.TransactionType,
	req TradeRequest, total decimal.Decimal) *model.Transaction {
	assetID := asset.ID
	return &model.Transaction{
		UserID:       user.ID,
		AssetID:      &assetID,
		Type:         side,
		Quantity:     decimal.NewNullDecimal(req.Quantity),
		PricePerUnit: decimal.NewNullDecimal(req.Price.Round(ledgerScale)),
		TotalAmount:  total,
		Currency:     model.CurrencyUSD,
		CreatedAt:    e.now(),
	}
}

// resolveAsset 查找资产，不存在则拉取元数据并创建，与交易处于同一事务
func (e *Engine) resolveAsset(ctx context.Context, tx LedgerTx, coinGeckoID string) (*model.Asset, error) {
	asset, err := tx.AssetByExternalID(ctx, coinGeckoID)
	if err == nil {
		return asset, nil
	}
	if !errors.Is(err, ErrNoRecord) {
		return nil, err
	}
	meta, err := e.catalog.AssetMetadata(ctx, coinGeckoID)
	if err != nil {
		return nil, errno.Wrap(errno.KindAssetResolution, err, "could not resolve asset %s", coinGeckoID)
	}
	asset = &model.Asset{
		CoinGeckoID: coinGeckoID,
		Symbol:      strings.ToUpper(meta.Symbol),
		Name:        meta.Name,
	}
	if meta.ImageURL != "" {
		image := meta.ImageURL
		asset.Image = &image
	}
	return tx.CreateAsset(ctx, asset)
}

// WeightedAverage 加权平均成本: (q1*p1 + q2*p2) / (q1+q2)
func WeightedAverage(oldQty, oldAvg, qty, price decimal.Decimal) decimal.Decimal {
	newQty := oldQty.Add(qty)
	if newQty.IsZero() {
		return decimal.Zero
	}
	return oldQty.Mul(oldAvg).Add(qty.Mul(price)).Div(newQty).Round(ledgerScale)
}

func (e *Engine) emit(user *model.User, txn *model.Transaction, asset *model.Asset) {
	if e.notifier == nil || txn == nil {
		return
	}
	event := model.LedgerEvent{
		UserID:         user.ID,
		ExternalID:     user.ExternalID,
		TransactionID:  txn.ID,
		Type:           txn.Type,
		Quantity:       txn.Quantity.Decimal,
		PricePerUnit:   txn.PricePerUnit.Decimal,
		TotalAmount:    txn.TotalAmount,
		Currency:       txn.Currency,
		CashBalanceUSD: user.CashBalanceUSD,
		CashBalanceARS: user.CashBalanceARS,
		Timestamp:      txn.CreatedAt,
	}
	if asset != nil {
		event.CoinGeckoID = asset.CoinGeckoID
		event.Symbol = asset.Symbol
	}
	if id, err := util.GenerateEventID(); err == nil {
		event.EventID = id
	} else {
		hlog.Warnf("generate event id failed: %v", err)
	}

	notify := func() { e.notifier.Notify(context.Background(), event) }
	if e.pool == nil {
		notify()
		return
	}
	if err := e.pool.Submit(notify); err != nil {
		hlog.Errorf("submit ledger event failed, transaction_id=%s, err=%v", txn.ID, err)
	}
}

func validateTrade(req TradeRequest) error {
	if strings.TrimSpace(req.CoinGeckoID) == "" {
		return errno.New(errno.KindValidation, "asset id is required")
	}
	if req.Side != model.TransactionBuy && req.Side != model.TransactionSell {
		return errno.New(errno.KindValidation, "unsupported trade side %q", req.Side)
	}
	if err := checkAmount("quantity", req.Quantity); err != nil {
		return err
	}
	if !req.Quantity.Equal(req.Quantity.Round(ledgerScale)) {
		return errno.New(errno.KindValidation, "quantity supports at most %d decimal places", ledgerScale)
	}
	if !req.Price.IsPositive() {
		return errno.New(errno.KindValidation, "price must be greater than 0")
	}
	return nil
}

func checkAmount(field string, v decimal.Decimal) error {
	if !v.IsPositive() {
		return errno.New(errno.KindValidation, "%s must be greater than 0", field)
	}
	if v.GreaterThan(MaxAmount) {
		return errno.New(errno.KindValidation, "%s is too large", field)
	}
	return nil
}

func lookupErr(err error, msg string) error {
	if errors.Is(err, ErrNoRecord) {
		return errno.New(errno.KindNotFound, "%s", msg)
	}
	return err
}

// storeErr 保留业务错误，其它错误统一包装为 store_failure
func storeErr(err error, msg string) error {
	var e *errno.Error
	if errors.As(err, &e) {
		return e
	}
	return errno.Wrap(errno.KindStoreFailure, err, "%s", msg)
}
