package util

import (
	"sync"

	"github.com/sony/sonyflake"
)

var (
	sonyFlake *sonyflake.Sonyflake
	once      sync.Once
)

func initSonyFlake() {
	once.Do(func() {
		sonyFlake = sonyflake.NewSonyflake(sonyflake.Settings{})
	})
}

// GenerateEventID 生成按时间递增的账本事件ID
func GenerateEventID() (uint64, error) {
	initSonyFlake()
	if sonyFlake == nil {
		return 0, errSonyflakeUnavailable
	}
	return sonyFlake.NextID()
}
