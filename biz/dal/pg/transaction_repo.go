package pg

import (
	"context"

	"horizon-finance/biz/model"

	"gorm.io/gorm"
)

type TransactionFilter struct {
	Type   model.TransactionType
	Offset int
	Limit  int
}

// ListTransactions 按创建时间倒序分页查询流水，附带资产信息
func (s *LedgerStore) ListTransactions(ctx context.Context, userID string, f TransactionFilter) ([]model.Transaction, int64, error) {
	db := s.db.WithContext(ctx).Model(&model.Transaction{}).Where("user_id = ?", userID)
	if f.Type != "" {
		db = db.Where("type = ?", f.Type)
	}
	// Count 与 Find 共用条件
	db = db.Session(&gorm.Session{})
	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var txns []model.Transaction
	err := db.Preload("Asset").Order("created_at desc").Order("id desc").
		Offset(f.Offset).Limit(f.Limit).Find(&txns).Error
	return txns, total, err
}
