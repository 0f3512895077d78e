package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ProjectModel 农业投资项目
type ProjectModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// 基本信息
	Name        string `json:"name" gorm:"not null"`
	Description string `json:"description" gorm:"type:text"`
	ImageURL    string `json:"image_url"`

	// 份额信息
	PricePerUnit   decimal.Decimal `json:"price_per_unit" gorm:"type:decimal(20,2);not null"`
	AvailableUnits int64           `json:"available_units" gorm:"not null;default:0"`
	CurrentAmount  decimal.Decimal `json:"current_amount" gorm:"type:decimal(20,2);not null;default:0"`
	TargetAmount   decimal.Decimal `json:"target_amount" gorm:"type:decimal(20,2);not null"`

	// 收益信息
	ReturnPercentage decimal.Decimal `json:"return_percentage" gorm:"type:decimal(7,2);not null"`
	DurationDays     int             `json:"duration_days" gorm:"not null"`
	RiskLevel        RiskLevel       `json:"risk_level" gorm:"default:'Low'"`

	Status ProjectStatus `json:"status" gorm:"index;default:'Open'"`

	// 乐观锁版本号，每次条件更新 +1
	Version int64 `json:"-" gorm:"not null;default:0"`
}

// ProjectStatus 项目状态
type ProjectStatus string

const (
	ProjectStatusOpen   ProjectStatus = "Open"   // 募集中
	ProjectStatusFunded ProjectStatus = "Funded" // 份额售罄
	ProjectStatusClosed ProjectStatus = "Closed" // 已关闭
)

// RiskLevel 风险等级
type RiskLevel string

const (
	RiskLevelLow    RiskLevel = "Low"
	RiskLevelMedium RiskLevel = "Medium"
	RiskLevelHigh   RiskLevel = "High"
)

// Valid 风险等级是否合法
func (r RiskLevel) Valid() bool {
	switch r {
	case RiskLevelLow, RiskLevelMedium, RiskLevelHigh:
		return true
	}
	return false
}

// BeforeCreate 补齐默认值
func (p *ProjectModel) BeforeCreate(tx *gorm.DB) error {
	if p.Status == "" {
		p.Status = ProjectStatusOpen
	}
	if p.RiskLevel == "" {
		p.RiskLevel = RiskLevelLow
	}
	return nil
}

// FundingPercentage 募集进度百分比，不做截断
func (p *ProjectModel) FundingPercentage() float64 {
	if !p.TargetAmount.IsPositive() {
		return 0
	}
	pct, _ := p.CurrentAmount.Div(p.TargetAmount).Mul(decimal.NewFromInt(100)).Float64()
	return pct
}

// TableName 自定义表名
func (ProjectModel) TableName() string {
	return "project"
}
