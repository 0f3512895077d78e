package logic

import (
	"context"
	"fmt"
	"time"

	"github.com/blues/smartfarmer/internal/logger"
	"github.com/blues/smartfarmer/internal/model"
	"github.com/blues/smartfarmer/internal/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// WithdrawalLogic 提现申请与审核
type WithdrawalLogic struct {
	db    *gorm.DB
	store repository.Store
	now   func() time.Time
}

// NewWithdrawalLogic 创建提现业务逻辑
func NewWithdrawalLogic(db *gorm.DB, store repository.Store) *WithdrawalLogic {
	return &WithdrawalLogic{db: db, store: store, now: time.Now}
}

// RequestWithdrawal 提交提现申请，审核通过前不扣款
func (w *WithdrawalLogic) RequestWithdrawal(ctx context.Context, session *model.Session, amount decimal.Decimal) (*model.WithdrawalModel, error) {
	if !amount.IsPositive() {
		return nil, validationError("Please enter a valid amount.")
	}

	user, err := w.store.GetUser(ctx, session.Uid)
	if err != nil {
		return nil, notFound(err, "user %s", session.Uid)
	}
	if amount.GreaterThan(user.WalletBalance) {
		return nil, fmt.Errorf("%w: withdrawal amount exceeds your wallet balance", ErrInsufficientFunds)
	}
	if user.WithdrawalSettings.AccountNumber == "" {
		return nil, validationError("Please add your bank account details in Settings before making a withdrawal.")
	}

	request := &model.WithdrawalModel{
		UserId:      user.Uid,
		Email:       user.Email,
		Amount:      amount,
		Status:      model.RequestStatusPending,
		BankDetails: user.WithdrawalSettings,
		Reference:   uuid.NewString(),
	}
	if err := w.db.WithContext(ctx).Create(request).Error; err != nil {
		return nil, fmt.Errorf("创建提现申请失败: %w", err)
	}

	logger.Info("Withdrawal %d requested by %s for %s", request.Id, user.Uid, amount)
	return request, nil
}

// ProcessWithdrawal 审核提现，通过时重新校验余额并扣款记账
func (w *WithdrawalLogic) ProcessWithdrawal(ctx context.Context, id int64, decision model.RequestStatus) (*model.WithdrawalModel, error) {
	if !decision.Decided() {
		return nil, validationError("status must be approved or rejected")
	}

	var processed *model.WithdrawalModel
	err := w.store.ReadModifyWrite(ctx, func(tx repository.Tx) error {
		request, err := tx.GetWithdrawal(id)
		if err != nil {
			return notFound(err, "withdrawal %d", id)
		}
		if request.Status != model.RequestStatusPending {
			return fmt.Errorf("%w: withdrawal %d already %s", ErrInvalidState, id, request.Status)
		}

		if decision == model.RequestStatusApproved {
			user, err := tx.GetUser(request.UserId)
			if err != nil {
				return notFound(err, "user %s", request.UserId)
			}
			if request.Amount.GreaterThan(user.WalletBalance) {
				return ErrInsufficientFunds
			}

			user.WalletBalance = user.WalletBalance.Sub(request.Amount)
			if err := tx.UpdateUser(user); err != nil {
				return err
			}

			entry := &model.TransactionModel{
				UserId:    user.Uid,
				Type:      model.TransactionTypeWithdrawal,
				Amount:    request.Amount,
				Status:    model.TransactionStatusCompleted,
				Details:   fmt.Sprintf("Withdrawal to %s %s", request.BankDetails.BankName, request.BankDetails.AccountNumber),
				Reference: request.Reference,
			}
			if err := tx.CreateTransaction(entry); err != nil {
				return fmt.Errorf("create ledger entry: %w", err)
			}
		}

		if err := tx.SetWithdrawalStatus(request, decision, w.now()); err != nil {
			return err
		}
		processed = request
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Withdrawal %d %s", id, decision)
	return processed, nil
}

// ListWithdrawals 管理员查看提现申请，status 为空时返回全部
func (w *WithdrawalLogic) ListWithdrawals(ctx context.Context, status model.RequestStatus) ([]model.WithdrawalModel, error) {
	query := w.db.WithContext(ctx)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var requests []model.WithdrawalModel
	if err := query.Order("created_at DESC, id DESC").Find(&requests).Error; err != nil {
		return nil, fmt.Errorf("获取提现申请失败: %w", err)
	}
	return requests, nil
}
