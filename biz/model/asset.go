package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Asset 外部行情目录中的资产，CoinGeckoID 唯一
type Asset struct {
	ID          string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	CoinGeckoID string    `gorm:"column:coin_gecko_id;uniqueIndex;not null" json:"coin_gecko_id"`
	Symbol      string    `gorm:"column:symbol;not null" json:"symbol"`
	Name        string    `gorm:"column:name;not null" json:"name"`
	Image       *string   `gorm:"column:image" json:"image"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Asset) TableName() string {
	return "assets"
}

func (a *Asset) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
