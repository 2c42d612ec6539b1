package service

import (
	"context"
	"errors"

	"horizon-finance/biz/dal/pg"
	"horizon-finance/biz/engine"
	"horizon-finance/biz/errno"
	"horizon-finance/biz/model"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

type HistoryReader interface {
	UserByExternalID(ctx context.Context, externalID string) (*model.User, error)
	ListTransactions(ctx context.Context, userID string, f pg.TransactionFilter) ([]model.Transaction, int64, error)
}

type TransactionQuery struct {
	Page  int
	Limit int
	Type  model.TransactionType
}

type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"total_pages"`
}

type TransactionPage struct {
	Transactions []model.Transaction `json:"transactions"`
	Pagination   Pagination          `json:"pagination"`
}

type TransactionService struct {
	store HistoryReader
}

func NewTransactionService(store HistoryReader) *TransactionService {
	return &TransactionService{store: store}
}

// List 分页查询流水。page 从 1 开始，limit 为 0 时取默认值
func (s *TransactionService) List(ctx context.Context, externalID string, q TransactionQuery) (*TransactionPage, error) {
	if q.Page == 0 {
		q.Page = 1
	}
	if q.Limit == 0 {
		q.Limit = DefaultPageSize
	}
	if q.Page < 0 {
		return nil, errno.New(errno.KindValidation, "page must be greater than 0")
	}
	if q.Limit < 0 || q.Limit > MaxPageSize {
		return nil, errno.New(errno.KindValidation, "limit must be between 1 and %d", MaxPageSize)
	}
	if q.Type != "" && !q.Type.Valid() {
		return nil, errno.New(errno.KindValidation, "unsupported transaction type %q", q.Type)
	}

	user, err := s.store.UserByExternalID(ctx, externalID)
	if err != nil {
		if errors.Is(err, engine.ErrNoRecord) {
			return nil, errno.New(errno.KindNotFound, "user not found")
		}
		return nil, errno.Wrap(errno.KindStoreFailure, err, "could not load user")
	}
	txns, total, err := s.store.ListTransactions(ctx, user.ID, pg.TransactionFilter{
		Type:   q.Type,
		Offset: (q.Page - 1) * q.Limit,
		Limit:  q.Limit,
	})
	if err != nil {
		return nil, errno.Wrap(errno.KindStoreFailure, err, "could not list transactions")
	}
	if txns == nil {
		txns = []model.Transaction{}
	}
	limit := int64(q.Limit)
	return &TransactionPage{
		Transactions: txns,
		Pagination: Pagination{
			Page:       q.Page,
			Limit:      q.Limit,
			Total:      total,
			TotalPages: (total + limit - 1) / limit,
		},
	}, nil
}
