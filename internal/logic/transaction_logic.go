package logic

import (
	"context"
	"fmt"

	"github.com/blues/smartfarmer/internal/model"
	"gorm.io/gorm"
)

// TransactionLogic 资金流水查询
type TransactionLogic struct {
	db *gorm.DB
}

// NewTransactionLogic 创建流水业务逻辑
func NewTransactionLogic(db *gorm.DB) *TransactionLogic {
	return &TransactionLogic{db: db}
}

// GetUserTransactions 获取用户流水，最新的在前，txType 为空时不过滤
func (t *TransactionLogic) GetUserTransactions(ctx context.Context, uid string, txType model.TransactionType, page, pageSize int) ([]model.TransactionModel, int64, error) {
	if uid == "" {
		return nil, 0, validationError("user id is required")
	}
	return t.list(ctx, uid, txType, page, pageSize)
}

// GetAllTransactions 管理员查看全部流水
func (t *TransactionLogic) GetAllTransactions(ctx context.Context, txType model.TransactionType, page, pageSize int) ([]model.TransactionModel, int64, error) {
	return t.list(ctx, "", txType, page, pageSize)
}

func (t *TransactionLogic) list(ctx context.Context, uid string, txType model.TransactionType, page, pageSize int) ([]model.TransactionModel, int64, error) {
	if txType != "" && !txType.Valid() {
		return nil, 0, validationError("invalid transaction type: %s", txType)
	}
	page, pageSize = normalizePage(page, pageSize)

	scoped := func() *gorm.DB {
		query := t.db.WithContext(ctx).Model(&model.TransactionModel{})
		if uid != "" {
			query = query.Where("user_id = ?", uid)
		}
		if txType != "" {
			query = query.Where("type = ?", txType)
		}
		return query
	}

	var total int64
	if err := scoped().Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("获取流水总数失败: %w", err)
	}

	var transactions []model.TransactionModel
	if err := scoped().
		Order("created_at DESC, id DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&transactions).Error; err != nil {
		return nil, 0, fmt.Errorf("获取流水列表失败: %w", err)
	}

	return transactions, total, nil
}
