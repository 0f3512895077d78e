package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ManualDepositModel 线下转账入金申请
type ManualDepositModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	UserId        string          `json:"user_id" gorm:"size:128;not null;index"`
	Email         string          `json:"email"`
	Amount        decimal.Decimal `json:"amount" gorm:"type:decimal(20,2);not null"`
	SenderName    string          `json:"sender_name" gorm:"not null"`
	TransferredTo string          `json:"transferred_to"`
	Status        RequestStatus   `json:"status" gorm:"index;default:'pending'"`
	Reference     string          `json:"reference" gorm:"size:64;uniqueIndex"`
	ProcessedAt   *time.Time      `json:"processed_at"`
}

// TableName 自定义表名
func (ManualDepositModel) TableName() string {
	return "manual_deposit"
}
