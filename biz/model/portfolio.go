package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Portfolio 与 User 一对一
type Portfolio struct {
	ID        string     `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID    string     `gorm:"column:user_id;uniqueIndex;not null" json:"user_id"`
	Name      string     `gorm:"column:name;not null" json:"name"`
	Positions []Position `gorm:"foreignKey:PortfolioID" json:"positions,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (Portfolio) TableName() string {
	return "portfolios"
}

func (p *Portfolio) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// Position 持仓，(portfolio_id, asset_id) 唯一。数量归零时删除该行
type Position struct {
	ID              string          `gorm:"primaryKey;type:varchar(36)" json:"id"`
	PortfolioID     string          `gorm:"column:portfolio_id;uniqueIndex:idx_portfolio_asset;not null" json:"portfolio_id"`
	AssetID         string          `gorm:"column:asset_id;uniqueIndex:idx_portfolio_asset;not null" json:"asset_id"`
	Asset           *Asset          `gorm:"foreignKey:AssetID" json:"asset,omitempty"`
	Quantity        decimal.Decimal `gorm:"column:quantity;type:numeric(36,8);not null" json:"quantity"`
	AverageBuyPrice decimal.Decimal `gorm:"column:average_buy_price;type:numeric(36,8);not null" json:"average_buy_price"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func (Position) TableName() string {
	return "positions"
}

func (p *Position) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}
