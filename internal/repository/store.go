package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/blues/smartfarmer/internal/config"
	"github.com/blues/smartfarmer/internal/logger"
	"github.com/blues/smartfarmer/internal/model"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Store 持久化抽象，ReadModifyWrite 保证读-校验-写整体原子
type Store interface {
	ReadModifyWrite(ctx context.Context, fn func(tx Tx) error) error
	GetProject(ctx context.Context, id int64) (*model.ProjectModel, error)
	GetUser(ctx context.Context, uid string) (*model.UserModel, error)
	ListInvestmentsByStatus(ctx context.Context, status model.InvestmentStatus) ([]model.InvestmentModel, error)
}

// Tx 事务内的读写，写入都是条件写入，条件不满足返回 ErrConflict
type Tx interface {
	GetProject(id int64) (*model.ProjectModel, error)
	GetUser(uid string) (*model.UserModel, error)
	GetInvestment(id int64) (*model.InvestmentModel, error)
	GetWithdrawal(id int64) (*model.WithdrawalModel, error)
	GetManualDeposit(id int64) (*model.ManualDepositModel, error)

	UpdateProject(p *model.ProjectModel) error
	UpdateUser(u *model.UserModel) error
	CompleteInvestment(inv *model.InvestmentModel, payout decimal.Decimal, at time.Time) error
	SetWithdrawalStatus(w *model.WithdrawalModel, status model.RequestStatus, at time.Time) error
	SetManualDepositStatus(d *model.ManualDepositModel, status model.RequestStatus, at time.Time) error

	CreateInvestment(inv *model.InvestmentModel) error
	CreateTransaction(t *model.TransactionModel) error
	TransactionExists(reference string) (bool, error)

	CountActiveInvestments(uid string) (int64, error)
	CountPendingRequests(uid string) (int64, error)
	DeleteUser(u *model.UserModel) error
}

// GormStore 基于 GORM 的 Store 实现
type GormStore struct {
	db         *gorm.DB
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
}

// NewGormStore 创建 Store
func NewGormStore(db *gorm.DB, cfg config.InvestmentConfig) *GormStore {
	s := &GormStore{
		db:         db,
		maxRetries: cfg.MaxRetries,
		baseDelay:  time.Duration(cfg.RetryBaseMs) * time.Millisecond,
		maxDelay:   time.Duration(cfg.RetryMaxMs) * time.Millisecond,
	}
	if s.maxRetries < 0 {
		s.maxRetries = 0
	}
	if s.baseDelay <= 0 {
		s.baseDelay = 20 * time.Millisecond
	}
	if s.maxDelay < s.baseDelay {
		s.maxDelay = s.baseDelay
	}
	return s
}

// DB 底层连接，供只读查询使用
func (s *GormStore) DB() *gorm.DB {
	return s.db
}

// ReadModifyWrite 在事务中执行 fn，遇到并发冲突时整体重跑
func (s *GormStore) ReadModifyWrite(ctx context.Context, fn func(tx Tx) error) error {
	delay := s.baseDelay

	for attempt := 0; ; attempt++ {
		err := s.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
			return fn(&gormTx{db: db})
		})
		if err == nil || !IsConflict(err) {
			return err
		}
		if attempt >= s.maxRetries {
			logger.Warn("Read-modify-write gave up after %d attempts: %v", attempt+1, err)
			return fmt.Errorf("%w: gave up after %d attempts", ErrConflict, attempt+1)
		}

		logger.Debug("Read-modify-write conflict on attempt %d, retrying in %s", attempt+1, delay)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}

		delay *= 2
		if delay > s.maxDelay {
			delay = s.maxDelay
		}
	}
}

func (s *GormStore) GetProject(ctx context.Context, id int64) (*model.ProjectModel, error) {
	var p model.ProjectModel
	if err := s.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (s *GormStore) GetUser(ctx context.Context, uid string) (*model.UserModel, error) {
	var u model.UserModel
	if err := s.db.WithContext(ctx).Where("uid = ?", uid).First(&u).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

// ListInvestmentsByStatus 按状态扫描投资记录
func (s *GormStore) ListInvestmentsByStatus(ctx context.Context, status model.InvestmentStatus) ([]model.InvestmentModel, error) {
	var investments []model.InvestmentModel
	err := s.db.WithContext(ctx).
		Where("status = ?", status).
		Order("id ASC").
		Find(&investments).Error
	if err != nil {
		return nil, err
	}
	return investments, nil
}
