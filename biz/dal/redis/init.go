package redis

import (
	"context"

	"horizon-finance/conf"

	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/redis/go-redis/v9"
)

var Client *redis.Client

// Init 连接行情缓存。Redis 不可用时只告警，行情直接回源
func Init() {
	c := conf.GetConf().Redis
	Client = redis.NewClient(&redis.Options{
		Addr:     c.Address,
		Username: c.Username,
		Password: c.Password,
		DB:       c.DB,
	})
	if err := Client.Ping(context.Background()).Err(); err != nil {
		hlog.Warnf("redis ping failed, market cache degraded: %v", err)
		return
	}
	hlog.Infof("redis ready, addr=%s", c.Address)
}

func Close() {
	if Client != nil {
		_ = Client.Close()
	}
}
