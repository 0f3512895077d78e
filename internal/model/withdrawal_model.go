package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// WithdrawalModel 提现申请
type WithdrawalModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	UserId      string          `json:"user_id" gorm:"size:128;not null;index"`
	Email       string          `json:"email"`
	Amount      decimal.Decimal `json:"amount" gorm:"type:decimal(20,2);not null"`
	Status      RequestStatus   `json:"status" gorm:"index;default:'pending'"`
	BankDetails BankDetails     `json:"bank_details" gorm:"embedded;embeddedPrefix:bank_"`
	Reference   string          `json:"reference" gorm:"size:64;uniqueIndex"`
	ProcessedAt *time.Time      `json:"processed_at"`
}

// RequestStatus 人工审核类申请的状态
type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "pending"  // 待审核
	RequestStatusApproved RequestStatus = "approved" // 已通过
	RequestStatusRejected RequestStatus = "rejected" // 已拒绝
)

// Decided 是否为审核终态
func (s RequestStatus) Decided() bool {
	return s == RequestStatusApproved || s == RequestStatusRejected
}

// TableName 自定义表名
func (WithdrawalModel) TableName() string {
	return "withdrawal"
}
