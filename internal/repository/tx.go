package repository

import (
	"time"

	"github.com/blues/smartfarmer/internal/model"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type gormTx struct {
	db *gorm.DB
}

func (t *gormTx) GetProject(id int64) (*model.ProjectModel, error) {
	var p model.ProjectModel
	if err := t.db.First(&p, id).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (t *gormTx) GetUser(uid string) (*model.UserModel, error) {
	var u model.UserModel
	if err := t.db.Where("uid = ?", uid).First(&u).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (t *gormTx) GetInvestment(id int64) (*model.InvestmentModel, error) {
	var inv model.InvestmentModel
	if err := t.db.First(&inv, id).Error; err != nil {
		return nil, translate(err)
	}
	return &inv, nil
}

func (t *gormTx) GetWithdrawal(id int64) (*model.WithdrawalModel, error) {
	var w model.WithdrawalModel
	if err := t.db.First(&w, id).Error; err != nil {
		return nil, translate(err)
	}
	return &w, nil
}

func (t *gormTx) GetManualDeposit(id int64) (*model.ManualDepositModel, error) {
	var d model.ManualDepositModel
	if err := t.db.First(&d, id).Error; err != nil {
		return nil, translate(err)
	}
	return &d, nil
}

// UpdateProject 按版本号条件更新全部可变字段
func (t *gormTx) UpdateProject(p *model.ProjectModel) error {
	prev := p.Version
	p.Version = prev + 1

	res := t.db.Model(p).
		Select("*").
		Omit("id", "created_at").
		Where("version = ?", prev).
		Updates(p)
	if res.Error != nil || res.RowsAffected == 0 {
		p.Version = prev
		if res.Error != nil {
			return translate(res.Error)
		}
		return ErrConflict
	}
	return nil
}

// UpdateUser 按版本号条件更新全部可变字段
func (t *gormTx) UpdateUser(u *model.UserModel) error {
	prev := u.Version
	u.Version = prev + 1

	res := t.db.Model(u).
		Select("*").
		Omit("uid", "created_at").
		Where("version = ?", prev).
		Updates(u)
	if res.Error != nil || res.RowsAffected == 0 {
		u.Version = prev
		if res.Error != nil {
			return translate(res.Error)
		}
		return ErrConflict
	}
	return nil
}

// CompleteInvestment active -> completed
func (t *gormTx) CompleteInvestment(inv *model.InvestmentModel, payout decimal.Decimal, at time.Time) error {
	res := t.db.Model(&model.InvestmentModel{}).
		Where("id = ? AND status = ?", inv.Id, model.InvestmentStatusActive).
		Updates(map[string]interface{}{
			"status":        model.InvestmentStatusCompleted,
			"payout_amount": payout,
			"completed_at":  at,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrConflict
	}

	inv.Status = model.InvestmentStatusCompleted
	inv.PayoutAmount = payout
	inv.CompletedAt = &at
	return nil
}

// SetWithdrawalStatus pending -> approved/rejected
func (t *gormTx) SetWithdrawalStatus(w *model.WithdrawalModel, status model.RequestStatus, at time.Time) error {
	res := t.db.Model(&model.WithdrawalModel{}).
		Where("id = ? AND status = ?", w.Id, model.RequestStatusPending).
		Updates(map[string]interface{}{
			"status":       status,
			"processed_at": at,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrConflict
	}

	w.Status = status
	w.ProcessedAt = &at
	return nil
}

// SetManualDepositStatus pending -> approved/rejected
func (t *gormTx) SetManualDepositStatus(d *model.ManualDepositModel, status model.RequestStatus, at time.Time) error {
	res := t.db.Model(&model.ManualDepositModel{}).
		Where("id = ? AND status = ?", d.Id, model.RequestStatusPending).
		Updates(map[string]interface{}{
			"status":       status,
			"processed_at": at,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrConflict
	}

	d.Status = status
	d.ProcessedAt = &at
	return nil
}

func (t *gormTx) CreateInvestment(inv *model.InvestmentModel) error {
	return translate(t.db.Create(inv).Error)
}

func (t *gormTx) CreateTransaction(tr *model.TransactionModel) error {
	return translate(t.db.Create(tr).Error)
}

// TransactionExists 按外部引用号判断流水是否已入账
func (t *gormTx) TransactionExists(reference string) (bool, error) {
	var count int64
	err := t.db.Model(&model.TransactionModel{}).
		Where("reference = ?", reference).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// CountActiveInvestments 用户尚未兑付的投资数量
func (t *gormTx) CountActiveInvestments(uid string) (int64, error) {
	var count int64
	err := t.db.Model(&model.InvestmentModel{}).
		Where("user_id = ? AND status = ?", uid, model.InvestmentStatusActive).
		Count(&count).Error
	return count, err
}

// CountPendingRequests 用户待审核的提现与线下入金申请数量
func (t *gormTx) CountPendingRequests(uid string) (int64, error) {
	var withdrawals, deposits int64
	if err := t.db.Model(&model.WithdrawalModel{}).
		Where("user_id = ? AND status = ?", uid, model.RequestStatusPending).
		Count(&withdrawals).Error; err != nil {
		return 0, err
	}
	if err := t.db.Model(&model.ManualDepositModel{}).
		Where("user_id = ? AND status = ?", uid, model.RequestStatusPending).
		Count(&deposits).Error; err != nil {
		return 0, err
	}
	return withdrawals + deposits, nil
}

// DeleteUser 按版本号条件删除，期间有并发写入则返回 ErrConflict
func (t *gormTx) DeleteUser(u *model.UserModel) error {
	res := t.db.Where("uid = ? AND version = ?", u.Uid, u.Version).Delete(&model.UserModel{})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrConflict
	}
	return nil
}
