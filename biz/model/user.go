package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyARS Currency = "ARS"
)

// Scale 返回该币种余额保留的小数位
func (c Currency) Scale() int32 {
	if c == CurrencyARS {
		return 2
	}
	return 8
}

func (c Currency) Valid() bool {
	return c == CurrencyUSD || c == CurrencyARS
}

// User 用户及其现金余额，余额只会被入金和买卖修改
type User struct {
	ID             string          `gorm:"primaryKey;type:varchar(36)" json:"id"`
	ExternalID     string          `gorm:"column:clerk_id;uniqueIndex;not null" json:"external_id"`
	Email          string          `gorm:"column:email" json:"email"`
	FirstName      string          `gorm:"column:first_name" json:"first_name"`
	LastName       string          `gorm:"column:last_name" json:"last_name"`
	CashBalanceUSD decimal.Decimal `gorm:"column:cash_balance_usd;type:numeric(36,8);not null" json:"cash_balance_usd"`
	CashBalanceARS decimal.Decimal `gorm:"column:cash_balance_ars;type:numeric(36,2);not null" json:"cash_balance_ars"`
	Portfolio      *Portfolio      `gorm:"foreignKey:UserID" json:"portfolio,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// Balance 返回指定币种的余额
func (u *User) Balance(c Currency) decimal.Decimal {
	if c == CurrencyARS {
		return u.CashBalanceARS
	}
	return u.CashBalanceUSD
}
