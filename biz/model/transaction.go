package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type TransactionType string

const (
	TransactionBuy        TransactionType = "BUY"
	TransactionSell       TransactionType = "SELL"
	TransactionDepositUSD TransactionType = "DEPOSIT_USD"
	TransactionDepositARS TransactionType = "DEPOSIT_ARS"
)

func (t TransactionType) Valid() bool {
	switch t {
	case TransactionBuy, TransactionSell, TransactionDepositUSD, TransactionDepositARS:
		return true
	}
	return false
}

// Transaction 只追加的流水记录。买卖带 asset/quantity/price，入金不带
type Transaction struct {
	ID           string              `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID       string              `gorm:"column:user_id;index;not null" json:"user_id"`
	AssetID      *string             `gorm:"column:asset_id" json:"asset_id,omitempty"`
	Asset        *Asset              `gorm:"foreignKey:AssetID" json:"asset,omitempty"`
	Type         TransactionType     `gorm:"column:type;index;not null" json:"type"`
	Quantity     decimal.NullDecimal `gorm:"column:quantity;type:numeric(36,8)" json:"quantity"`
	PricePerUnit decimal.NullDecimal `gorm:"column:price_per_unit;type:numeric(36,8)" json:"price_per_unit"`
	TotalAmount  decimal.Decimal     `gorm:"column:total_amount;type:numeric(36,8);not null" json:"total_amount"`
	Currency     Currency            `gorm:"column:currency;not null" json:"currency"`
	CreatedAt    time.Time           `gorm:"index" json:"created_at"`
}

func (Transaction) TableName() string {
	return "transactions"
}

func (t *Transaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}
