package pg

import (
	"context"
	"errors"

	"horizon-finance/biz/engine"
	"horizon-finance/biz/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserByExternalID 按外部身份查询用户
func (s *LedgerStore) UserByExternalID(ctx context.Context, externalID string) (*model.User, error) {
	var u model.User
	if err := s.db.WithContext(ctx).Where("clerk_id = ?", externalID).First(&u).Error; err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

// CreateUserWithPortfolio 首次登录时创建用户和组合，已存在则原样返回
func (s *LedgerStore) CreateUserWithPortfolio(ctx context.Context, user *model.User, portfolioName string) (*model.User, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "clerk_id"}},
			DoNothing: true,
		}).Create(user)
		if res.Error != nil {
			return res.Error
		}
		var stored model.User
		if err := tx.Where("clerk_id = ?", user.ExternalID).First(&stored).Error; err != nil {
			return err
		}
		*user = stored

		var count int64
		if err := tx.Model(&model.Portfolio{}).Where("user_id = ?", stored.ID).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}
		return tx.Create(&model.Portfolio{UserID: stored.ID, Name: portfolioName}).Error
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// PortfolioWithPositions 读取组合及其持仓和资产信息，组合不存在时创建
func (s *LedgerStore) PortfolioWithPositions(ctx context.Context, userID, defaultName string) (*model.Portfolio, error) {
	var p model.Portfolio
	err := s.db.WithContext(ctx).Preload("Positions", func(db *gorm.DB) *gorm.DB {
		return db.Order("id")
	}).Preload("Positions.Asset").Where("user_id = ?", userID).First(&p).Error
	if err == nil {
		return &p, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	p = model.Portfolio{UserID: userID, Name: defaultName}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Create(&p).Error
	if err != nil {
		return nil, err
	}
	// p.ID 已由 BeforeCreate 填充，并发创建时库里的是另一行
	var stored model.Portfolio
	err = s.db.WithContext(ctx).Preload("Positions", func(db *gorm.DB) *gorm.DB {
		return db.Order("id")
	}).Preload("Positions.Asset").Where("user_id = ?", userID).First(&stored).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &stored, nil
}

var _ engine.LedgerStore = (*LedgerStore)(nil)
