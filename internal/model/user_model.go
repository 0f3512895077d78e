package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// UserModel 平台用户，主键为身份服务下发的 uid
type UserModel struct {
	Uid       string    `json:"uid" gorm:"primaryKey;size:128"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Email         string          `json:"email" gorm:"index"`
	WalletBalance decimal.Decimal `json:"wallet_balance" gorm:"type:decimal(20,2);not null;default:0"`
	Role          UserRole        `json:"role" gorm:"default:'user'"`

	// 推荐关系
	ReferralCode string  `json:"referral_code" gorm:"size:16;index"`
	ReferredBy   *string `json:"referred_by" gorm:"size:16;index"`

	// 个人资料
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`

	WithdrawalSettings BankDetails       `json:"withdrawal_settings" gorm:"embedded;embeddedPrefix:withdrawal_"`
	NotificationPrefs  NotificationPrefs `json:"notification_prefs" gorm:"embedded;embeddedPrefix:notify_"`

	Version int64 `json:"-" gorm:"not null;default:0"`
}

// UserRole 用户角色
type UserRole string

const (
	UserRoleUser  UserRole = "user"
	UserRoleAdmin UserRole = "admin"
)

// BankDetails 提现银行信息
type BankDetails struct {
	BankName      string `json:"bank_name"`
	AccountNumber string `json:"account_number"`
	AccountName   string `json:"account_name"`
}

// NotificationPrefs 通知偏好
type NotificationPrefs struct {
	Activity   bool `json:"activity"`
	Investment bool `json:"investment"`
	Promotions bool `json:"promotions"`
}

// DefaultNotificationPrefs 新用户默认通知偏好
func DefaultNotificationPrefs() NotificationPrefs {
	return NotificationPrefs{Activity: true, Investment: true, Promotions: false}
}

// DeriveReferralCode 由 uid 前 6 位生成推荐码
func DeriveReferralCode(uid string) string {
	code := uid
	if len(code) > 6 {
		code = code[:6]
	}
	return strings.ToUpper(code)
}

// NewUser 创建带默认值的用户
func NewUser(uid, email string) *UserModel {
	return &UserModel{
		Uid:               uid,
		Email:             email,
		WalletBalance:     decimal.Zero,
		Role:              UserRoleUser,
		ReferralCode:      DeriveReferralCode(uid),
		NotificationPrefs: DefaultNotificationPrefs(),
	}
}

// BeforeCreate 补齐默认值
func (u *UserModel) BeforeCreate(tx *gorm.DB) error {
	if u.Role == "" {
		u.Role = UserRoleUser
	}
	if u.ReferralCode == "" {
		u.ReferralCode = DeriveReferralCode(u.Uid)
	}
	return nil
}

// IsAdmin 是否管理员
func (u *UserModel) IsAdmin() bool {
	return u.Role == UserRoleAdmin
}

// TableName 自定义表名
func (UserModel) TableName() string {
	return "user_account"
}
