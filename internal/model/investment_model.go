package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvestmentModel 投资记录，只由份额购买创建，只由到期兑付修改状态
type InvestmentModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at" gorm:"index"` // 购买时间，到期计算以此为准
	UpdatedAt time.Time `json:"updated_at"`

	UserId    string           `json:"user_id" gorm:"size:128;not null;index"`
	ProjectId int64            `json:"project_id" gorm:"not null;index"`
	Amount    decimal.Decimal  `json:"amount" gorm:"type:decimal(20,2);not null"`
	Units     int64            `json:"units" gorm:"not null"`
	Status    InvestmentStatus `json:"status" gorm:"index;default:'active'"`

	// 兑付信息
	PayoutAmount decimal.Decimal `json:"payout_amount" gorm:"type:decimal(20,2);not null;default:0"`
	CompletedAt  *time.Time      `json:"completed_at"`
}

// InvestmentStatus 投资状态，只允许 active -> completed
type InvestmentStatus string

const (
	InvestmentStatusActive    InvestmentStatus = "active"    // 持有中
	InvestmentStatusCompleted InvestmentStatus = "completed" // 已兑付
)

// MaturityTime 到期时间
func (i *InvestmentModel) MaturityTime(durationDays int) time.Time {
	return i.CreatedAt.Add(time.Duration(durationDays) * 24 * time.Hour)
}

// TableName 自定义表名
func (InvestmentModel) TableName() string {
	return "investment"
}
