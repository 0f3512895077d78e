package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionModel 资金流水，只追加不修改
type TransactionModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`

	UserId       string            `json:"user_id" gorm:"size:128;not null;index"`
	Type         TransactionType   `json:"type" gorm:"not null;index"`
	Amount       decimal.Decimal   `json:"amount" gorm:"type:decimal(20,2);not null"`
	Status       TransactionStatus `json:"status" gorm:"not null"`
	Details      string            `json:"details"`
	Reference    string            `json:"reference" gorm:"size:128;uniqueIndex"`
	InvestmentId *int64            `json:"investment_id,omitempty"`
}

// TransactionType 流水类型
type TransactionType string

const (
	TransactionTypeDeposit    TransactionType = "Deposit"
	TransactionTypeWithdrawal TransactionType = "Withdrawal"
	TransactionTypeInvestment TransactionType = "Investment"
	TransactionTypePayout     TransactionType = "Payout"
)

// Valid 流水类型是否合法
func (t TransactionType) Valid() bool {
	switch t {
	case TransactionTypeDeposit, TransactionTypeWithdrawal, TransactionTypeInvestment, TransactionTypePayout:
		return true
	}
	return false
}

// TransactionStatus 流水状态
type TransactionStatus string

const (
	TransactionStatusCompleted TransactionStatus = "Completed"
	TransactionStatusPending   TransactionStatus = "Pending"
	TransactionStatusFailed    TransactionStatus = "Failed"
)

// TableName 自定义表名
func (TransactionModel) TableName() string {
	return "ledger_transaction"
}
