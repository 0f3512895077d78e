package logic

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/blues/smartfarmer/internal/logger"
	"github.com/blues/smartfarmer/internal/model"
	"github.com/blues/smartfarmer/internal/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DepositLogic 入金：线下转账审核与支付网关回调
type DepositLogic struct {
	db    *gorm.DB
	store repository.Store
	now   func() time.Time
}

// NewDepositLogic 创建入金业务逻辑
func NewDepositLogic(db *gorm.DB, store repository.Store) *DepositLogic {
	return &DepositLogic{db: db, store: store, now: time.Now}
}

// ManualDepositInput 线下转账申请参数
type ManualDepositInput struct {
	Amount        decimal.Decimal
	SenderName    string
	TransferredTo string
}

// SubmitManualDeposit 提交线下转账入金申请
func (d *DepositLogic) SubmitManualDeposit(ctx context.Context, session *model.Session, input ManualDepositInput) (*model.ManualDepositModel, error) {
	if !input.Amount.IsPositive() {
		return nil, validationError("Please enter a valid amount.")
	}
	sender := strings.TrimSpace(input.SenderName)
	if sender == "" {
		return nil, validationError("sender name is required")
	}

	user, err := d.store.GetUser(ctx, session.Uid)
	if err != nil {
		return nil, notFound(err, "user %s", session.Uid)
	}

	request := &model.ManualDepositModel{
		UserId:        user.Uid,
		Email:         user.Email,
		Amount:        input.Amount,
		SenderName:    sender,
		TransferredTo: strings.TrimSpace(input.TransferredTo),
		Status:        model.RequestStatusPending,
		Reference:     uuid.NewString(),
	}
	if err := d.db.WithContext(ctx).Create(request).Error; err != nil {
		return nil, fmt.Errorf("创建入金申请失败: %w", err)
	}

	logger.Info("Manual deposit %d submitted by %s for %s", request.Id, user.Uid, input.Amount)
	return request, nil
}

// ProcessManualDeposit 审核线下转账，通过时入账
func (d *DepositLogic) ProcessManualDeposit(ctx context.Context, id int64, decision model.RequestStatus) (*model.ManualDepositModel, error) {
	if !decision.Decided() {
		return nil, validationError("status must be approved or rejected")
	}

	var processed *model.ManualDepositModel
	err := d.store.ReadModifyWrite(ctx, func(tx repository.Tx) error {
		request, err := tx.GetManualDeposit(id)
		if err != nil {
			return notFound(err, "manual deposit %d", id)
		}
		if request.Status != model.RequestStatusPending {
			return fmt.Errorf("%w: manual deposit %d already %s", ErrInvalidState, id, request.Status)
		}

		if decision == model.RequestStatusApproved {
			details := fmt.Sprintf("Manual deposit from %s", request.SenderName)
			if err := credit(tx, request.UserId, request.Amount, request.Reference, details); err != nil {
				return err
			}
		}

		if err := tx.SetManualDepositStatus(request, decision, d.now()); err != nil {
			return err
		}
		processed = request
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Manual deposit %d %s", id, decision)
	return processed, nil
}

// CreditGatewayDeposit 支付网关确认到账后入账，按 reference 幂等
func (d *DepositLogic) CreditGatewayDeposit(ctx context.Context, uid string, amount decimal.Decimal, reference string) (bool, error) {
	if uid == "" || reference == "" {
		return false, validationError("user id and reference are required")
	}
	if !amount.IsPositive() {
		return false, validationError("amount must be greater than 0")
	}

	credited := false
	err := d.store.ReadModifyWrite(ctx, func(tx repository.Tx) error {
		credited = false

		exists, err := tx.TransactionExists(reference)
		if err != nil {
			return err
		}
		if exists {
			return nil
		}

		if err := credit(tx, uid, amount, reference, "Wallet funding via payment gateway"); err != nil {
			return err
		}
		credited = true
		return nil
	})
	if errors.Is(err, repository.ErrDuplicate) {
		// 并发投递时另一方已写入同一 reference
		credited, err = false, nil
	}
	if err != nil {
		return false, err
	}

	if credited {
		logger.Info("Credited %s to user %s from gateway reference %s", amount, uid, reference)
	} else {
		logger.Info("Gateway reference %s already credited, skipping", reference)
	}
	return credited, nil
}

// ListManualDeposits 管理员查看入金申请，status 为空时返回全部
func (d *DepositLogic) ListManualDeposits(ctx context.Context, status model.RequestStatus) ([]model.ManualDepositModel, error) {
	query := d.db.WithContext(ctx)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var requests []model.ManualDepositModel
	if err := query.Order("created_at DESC, id DESC").Find(&requests).Error; err != nil {
		return nil, fmt.Errorf("获取入金申请失败: %w", err)
	}
	return requests, nil
}

// credit 钱包入账并记一笔 Deposit 流水
func credit(tx repository.Tx, uid string, amount decimal.Decimal, reference, details string) error {
	user, err := tx.GetUser(uid)
	if err != nil {
		return notFound(err, "user %s", uid)
	}

	user.WalletBalance = user.WalletBalance.Add(amount)
	if err := tx.UpdateUser(user); err != nil {
		return err
	}

	entry := &model.TransactionModel{
		UserId:    uid,
		Type:      model.TransactionTypeDeposit,
		Amount:    amount,
		Status:    model.TransactionStatusCompleted,
		Details:   details,
		Reference: reference,
	}
	if err := tx.CreateTransaction(entry); err != nil {
		return fmt.Errorf("create ledger entry: %w", err)
	}
	return nil
}
