// Package audit writes committed ledger events to a rotating JSON log.
package audit

import (
	"context"

	"horizon-finance/biz/model"
	"horizon-finance/conf"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Logger struct {
	log *zap.Logger
}

// New 审计日志独立于 hertz 日志，按大小滚动
func New(c conf.Audit) *Logger {
	sink := &lumberjack.Logger{
		Filename:   c.FileName,
		MaxSize:    c.MaxSize,
		MaxBackups: c.MaxBackups,
		MaxAge:     c.MaxAge,
		LocalTime:  true,
		Compress:   true,
	}
	enc := zap.NewProductionEncoderConfig()
	enc.TimeKey = "ts"
	enc.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(enc), zapcore.AddSync(sink), zap.InfoLevel)
	return NewWithLogger(zap.New(core).Named("ledger"))
}

func NewWithLogger(l *zap.Logger) *Logger {
	return &Logger{log: l}
}

func (a *Logger) Notify(_ context.Context, ev model.LedgerEvent) {
	fields := []zap.Field{
		zap.Uint64("event_id", ev.EventID),
		zap.String("user_id", ev.UserID),
		zap.String("external_id", ev.ExternalID),
		zap.String("transaction_id", ev.TransactionID),
		zap.String("type", string(ev.Type)),
		zap.String("currency", string(ev.Currency)),
		zap.String("total_amount", ev.TotalAmount.String()),
		zap.String("cash_balance_usd", ev.CashBalanceUSD.String()),
		zap.String("cash_balance_ars", ev.CashBalanceARS.String()),
		zap.Time("committed_at", ev.Timestamp),
	}
	if ev.CoinGeckoID != "" {
		fields = append(fields,
			zap.String("asset", ev.CoinGeckoID),
			zap.String("symbol", ev.Symbol),
			zap.String("quantity", ev.Quantity.String()),
			zap.String("price_per_unit", ev.PricePerUnit.String()),
		)
	}
	a.log.Info("ledger", fields...)
}

func (a *Logger) Sync() error {
	return a.log.Sync()
}
