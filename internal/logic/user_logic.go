package logic

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/blues/smartfarmer/internal/logger"
	"github.com/blues/smartfarmer/internal/model"
	"github.com/blues/smartfarmer/internal/repository"
	"gorm.io/gorm"
)

// UserLogic 用户资料、推荐关系与角色管理
type UserLogic struct {
	db    *gorm.DB
	store repository.Store
}

// NewUserLogic 创建用户业务逻辑
func NewUserLogic(db *gorm.DB, store repository.Store) *UserLogic {
	return &UserLogic{db: db, store: store}
}

// RegisterInput 注册参数
type RegisterInput struct {
	FirstName  string
	LastName   string
	Phone      string
	ReferredBy string
}

// ProfileUpdate 资料部分更新
type ProfileUpdate struct {
	FirstName *string
	LastName  *string
	Phone     *string
}

// Register 为已通过身份校验的会话建立用户记录
func (u *UserLogic) Register(ctx context.Context, session *model.Session, input RegisterInput) (*model.UserModel, error) {
	if session == nil || session.Uid == "" {
		return nil, validationError("session is required")
	}

	user := model.NewUser(session.Uid, session.Email)
	user.FirstName = strings.TrimSpace(input.FirstName)
	user.LastName = strings.TrimSpace(input.LastName)
	user.Phone = strings.TrimSpace(input.Phone)

	if code := strings.ToUpper(strings.TrimSpace(input.ReferredBy)); code != "" {
		if code == user.ReferralCode {
			return nil, validationError("cannot use your own referral code")
		}
		user.ReferredBy = &code
	}

	if err := u.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: user %s already registered", ErrInvalidState, session.Uid)
		}
		return nil, fmt.Errorf("创建用户失败: %w", err)
	}

	logger.Info("User %s registered", user.Uid)
	return user, nil
}

// GetProfile 获取用户资料，缺少推荐码时补齐并保存
func (u *UserLogic) GetProfile(ctx context.Context, session *model.Session) (*model.UserModel, error) {
	user, err := u.store.GetUser(ctx, session.Uid)
	if err != nil {
		return nil, notFound(err, "user %s", session.Uid)
	}
	if user.ReferralCode != "" {
		return user, nil
	}

	return u.modify(ctx, session.Uid, func(user *model.UserModel) error {
		if user.ReferralCode == "" {
			user.ReferralCode = model.DeriveReferralCode(user.Uid)
			logger.Info("Generated referral code for user %s", user.Uid)
		}
		return nil
	})
}

// UpdateProfile 更新姓名与电话
func (u *UserLogic) UpdateProfile(ctx context.Context, session *model.Session, update ProfileUpdate) (*model.UserModel, error) {
	return u.modify(ctx, session.Uid, func(user *model.UserModel) error {
		if update.FirstName != nil {
			user.FirstName = strings.TrimSpace(*update.FirstName)
		}
		if update.LastName != nil {
			user.LastName = strings.TrimSpace(*update.LastName)
		}
		if update.Phone != nil {
			user.Phone = strings.TrimSpace(*update.Phone)
		}
		return nil
	})
}

// UpdateWithdrawalSettings 更新提现银行信息
func (u *UserLogic) UpdateWithdrawalSettings(ctx context.Context, session *model.Session, bank model.BankDetails) (*model.UserModel, error) {
	bank.BankName = strings.TrimSpace(bank.BankName)
	bank.AccountNumber = strings.TrimSpace(bank.AccountNumber)
	bank.AccountName = strings.TrimSpace(bank.AccountName)
	if bank.BankName == "" || bank.AccountNumber == "" || bank.AccountName == "" {
		return nil, validationError("bank name, account number and account name are required")
	}

	return u.modify(ctx, session.Uid, func(user *model.UserModel) error {
		user.WithdrawalSettings = bank
		return nil
	})
}

// UpdateNotificationPrefs 更新通知偏好
func (u *UserLogic) UpdateNotificationPrefs(ctx context.Context, session *model.Session, prefs model.NotificationPrefs) (*model.UserModel, error) {
	return u.modify(ctx, session.Uid, func(user *model.UserModel) error {
		user.NotificationPrefs = prefs
		return nil
	})
}

// GetReferredUsers 使用当前用户推荐码注册的用户
func (u *UserLogic) GetReferredUsers(ctx context.Context, session *model.Session) ([]model.UserModel, error) {
	user, err := u.GetProfile(ctx, session)
	if err != nil {
		return nil, err
	}

	var users []model.UserModel
	if err := u.db.WithContext(ctx).
		Where("referred_by = ?", user.ReferralCode).
		Order("created_at DESC").
		Find(&users).Error; err != nil {
		return nil, fmt.Errorf("获取推荐用户失败: %w", err)
	}
	return users, nil
}

// ListUsers 管理员分页查看用户
func (u *UserLogic) ListUsers(ctx context.Context, page, pageSize int) ([]model.UserModel, int64, error) {
	page, pageSize = normalizePage(page, pageSize)

	var total int64
	if err := u.db.WithContext(ctx).Model(&model.UserModel{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("获取用户总数失败: %w", err)
	}

	var users []model.UserModel
	if err := u.db.WithContext(ctx).
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&users).Error; err != nil {
		return nil, 0, fmt.Errorf("获取用户列表失败: %w", err)
	}
	return users, total, nil
}

// SetRole 管理员设置用户角色
func (u *UserLogic) SetRole(ctx context.Context, uid string, role model.UserRole) (*model.UserModel, error) {
	if role != model.UserRoleUser && role != model.UserRoleAdmin {
		return nil, validationError("invalid role: %s", role)
	}

	user, err := u.modify(ctx, uid, func(user *model.UserModel) error {
		user.Role = role
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("User %s role set to %s", uid, role)
	return user, nil
}

// DeleteUser 删除账户。钱包有余额、存在未兑付投资或待审核申请时拒绝，流水保留
func (u *UserLogic) DeleteUser(ctx context.Context, uid string) error {
	err := u.store.ReadModifyWrite(ctx, func(tx repository.Tx) error {
		user, err := tx.GetUser(uid)
		if err != nil {
			return notFound(err, "user %s", uid)
		}

		if user.WalletBalance.IsPositive() {
			return fmt.Errorf("%w: Please withdraw your wallet balance before deleting your account.", ErrInvalidState)
		}

		active, err := tx.CountActiveInvestments(uid)
		if err != nil {
			return err
		}
		if active > 0 {
			return fmt.Errorf("%w: Accounts with active investments cannot be deleted until they mature.", ErrInvalidState)
		}

		pending, err := tx.CountPendingRequests(uid)
		if err != nil {
			return err
		}
		if pending > 0 {
			return fmt.Errorf("%w: Accounts with pending withdrawal or deposit requests cannot be deleted.", ErrInvalidState)
		}

		return tx.DeleteUser(user)
	})
	if err != nil {
		return err
	}

	logger.Info("User %s deleted", uid)
	return nil
}

// IsAdmin 按存储中的角色判断是否管理员
func (u *UserLogic) IsAdmin(ctx context.Context, uid string) (bool, error) {
	user, err := u.store.GetUser(ctx, uid)
	if err != nil {
		return false, notFound(err, "user %s", uid)
	}
	return user.IsAdmin(), nil
}

// modify 在条件写入事务中修改用户
func (u *UserLogic) modify(ctx context.Context, uid string, fn func(user *model.UserModel) error) (*model.UserModel, error) {
	var updated *model.UserModel
	err := u.store.ReadModifyWrite(ctx, func(tx repository.Tx) error {
		user, err := tx.GetUser(uid)
		if err != nil {
			return notFound(err, "user %s", uid)
		}
		if err := fn(user); err != nil {
			return err
		}
		if err := tx.UpdateUser(user); err != nil {
			return err
		}
		updated = user
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}
