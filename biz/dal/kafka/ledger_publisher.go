package kafka

import (
	"context"
	"encoding/json"

	"horizon-finance/biz/model"

	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/segmentio/kafka-go"
)

// MessageWriter 是 *kafka.Writer 的子集
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// LedgerPublisher 将账本事件以 JSON 写入 kafka，按用户分区保证同一用户有序
type LedgerPublisher struct {
	w MessageWriter
}

func NewLedgerPublisher(w MessageWriter) *LedgerPublisher {
	return &LedgerPublisher{w: w}
}

func (p *LedgerPublisher) Notify(ctx context.Context, event model.LedgerEvent) {
	value, err := json.Marshal(event)
	if err != nil {
		hlog.CtxErrorf(ctx, "marshal ledger event failed, transaction_id=%s, err=%v", event.TransactionID, err)
		return
	}
	msg := kafka.Message{
		Key:   []byte(event.UserID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(event.Type)},
		},
		Time: event.Timestamp,
	}
	if err := p.w.WriteMessages(ctx, msg); err != nil {
		hlog.CtxErrorf(ctx, "publish ledger event failed, transaction_id=%s, err=%v", event.TransactionID, err)
	}
}
