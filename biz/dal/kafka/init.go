package kafka

import (
	"context"
	"fmt"
	"sync"

	"horizon-finance/conf"

	"github.com/segmentio/kafka-go"
)

var (
	writers sync.Map // map[string]*kafka.Writer
)

// GetWriter 获取指定 topic 的 kafka.Writer，自动复用
func GetWriter(topic string) *kafka.Writer {
	val, ok := writers.Load(topic)
	if ok {
		return val.(*kafka.Writer)
	}
	brokers := conf.GetConf().Kafka.Brokers
	if len(brokers) == 0 {
		panic("Kafka brokers not configured")
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		Async:        true,
		RequiredAcks: kafka.RequireOne,
	}
	actual, _ := writers.LoadOrStore(topic, writer)
	return actual.(*kafka.Writer)
}

// InitWriters 预初始化配置中所有 topic 的 writer
func InitWriters() {
	for _, topic := range conf.GetConf().Kafka.Topics {
		GetWriter(topic)
	}
}

// CheckConnection 拨号第一个 broker
func CheckConnection(ctx context.Context) error {
	brokers := conf.GetConf().Kafka.Brokers
	if len(brokers) == 0 {
		return fmt.Errorf("kafka brokers not configured")
	}
	conn, err := kafka.DialContext(ctx, "tcp", brokers[0])
	if err != nil {
		return fmt.Errorf("failed to connect to kafka: %w", err)
	}
	return conn.Close()
}

func CloseAllWriters() {
	writers.Range(func(key, value interface{}) bool {
		if w, ok := value.(*kafka.Writer); ok {
			_ = w.Close()
		}
		return true
	})
}

// Init 连接测试并预建 writer
func Init() {
	if err := CheckConnection(context.Background()); err != nil {
		panic(err)
	}
	InitWriters()
}
