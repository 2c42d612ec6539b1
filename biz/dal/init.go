package dal

import (
	"horizon-finance/biz/dal/kafka"
	"horizon-finance/biz/dal/pg"
	"horizon-finance/biz/dal/redis"
)

func Init() {
	pg.Init()
	redis.Init()
	kafka.Init()
}

func Close() {
	kafka.CloseAllWriters()
	redis.Close()
	pg.Close()
}
