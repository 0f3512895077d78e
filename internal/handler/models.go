package handler

import (
	"time"

	"github.com/blues/smartfarmer/internal/logic"
	"github.com/blues/smartfarmer/internal/model"
	"github.com/shopspring/decimal"
)

// 通用响应结构
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// 分页信息结构
type Pagination struct {
	Page      int   `json:"page"`
	PageSize  int   `json:"pageSize"`
	Total     int64 `json:"total"`
	TotalPage int64 `json:"totalPage"`
}

// 请求模型

// CreateProjectRequest 创建项目请求
type CreateProjectRequest struct {
	Name             string          `json:"name" binding:"required"`
	Description      string          `json:"description"`
	PricePerUnit     decimal.Decimal `json:"pricePerUnit"`
	AvailableUnits   int64           `json:"availableUnits"`
	ReturnPercentage decimal.Decimal `json:"returnPercentage"`
	DurationDays     int             `json:"durationDays"`
	RiskLevel        model.RiskLevel `json:"riskLevel"`
}

// UpdateProjectRequest 更新项目请求，缺省字段不修改
type UpdateProjectRequest struct {
	Name             *string              `json:"name"`
	Description      *string              `json:"description"`
	PricePerUnit     *decimal.Decimal     `json:"pricePerUnit"`
	AvailableUnits   *int64               `json:"availableUnits"`
	ReturnPercentage *decimal.Decimal     `json:"returnPercentage"`
	DurationDays     *int                 `json:"durationDays"`
	RiskLevel        *model.RiskLevel     `json:"riskLevel"`
	Status           *model.ProjectStatus `json:"status"`
}

// InvestRequest 购买份额请求
type InvestRequest struct {
	Units int64 `json:"units"`
}

// RegisterRequest 注册请求
type RegisterRequest struct {
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Phone      string `json:"phone"`
	ReferredBy string `json:"referredBy"`
}

// UpdateProfileRequest 更新资料请求
type UpdateProfileRequest struct {
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	Phone     *string `json:"phone"`
}

// WithdrawalSettingsRequest 提现银行信息
type WithdrawalSettingsRequest struct {
	BankName      string `json:"bankName"`
	AccountNumber string `json:"accountNumber"`
	AccountName   string `json:"accountName"`
}

// NotificationPrefsRequest 通知偏好
type NotificationPrefsRequest struct {
	Activity   bool `json:"activity"`
	Investment bool `json:"investment"`
	Promotions bool `json:"promotions"`
}

// WithdrawalRequest 提现申请
type WithdrawalRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// ManualDepositRequest 线下转账申请
type ManualDepositRequest struct {
	Amount        decimal.Decimal `json:"amount"`
	SenderName    string          `json:"senderName"`
	TransferredTo string          `json:"transferredTo"`
}

// DecisionRequest 审核请求
type DecisionRequest struct {
	Status model.RequestStatus `json:"status" binding:"required"`
}

// SetRoleRequest 设置角色请求
type SetRoleRequest struct {
	Role model.UserRole `json:"role" binding:"required"`
}

// 响应模型

// ProjectResponse 项目响应模型
type ProjectResponse struct {
	ID                int64           `json:"id"`
	Name              string          `json:"name"`
	Description       string          `json:"description"`
	ImageURL          string          `json:"imageUrl"`
	PricePerUnit      decimal.Decimal `json:"pricePerUnit"`
	AvailableUnits    int64           `json:"availableUnits"`
	CurrentAmount     decimal.Decimal `json:"currentAmount"`
	TargetAmount      decimal.Decimal `json:"targetAmount"`
	FundingPercentage float64         `json:"fundingPercentage"`
	ReturnPercentage  decimal.Decimal `json:"returnPercentage"`
	DurationDays      int             `json:"durationDays"`
	RiskLevel         string          `json:"riskLevel"`
	Status            string          `json:"status"`
	CreatedAt         time.Time       `json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`
}

// GetProjectsResponse 获取项目列表响应
type GetProjectsResponse struct {
	Projects   []ProjectResponse `json:"projects"`
	Pagination Pagination        `json:"pagination"`
}

// ProjectStatsResponse 项目统计响应
type ProjectStatsResponse struct {
	ProjectID         int64           `json:"projectId"`
	CurrentAmount     decimal.Decimal `json:"currentAmount"`
	TargetAmount      decimal.Decimal `json:"targetAmount"`
	FundingPercentage float64         `json:"fundingPercentage"`
	AvailableUnits    int64           `json:"availableUnits"`
	UnitsSold         int64           `json:"unitsSold"`
	InvestorCount     int64           `json:"investorCount"`
	Status            string          `json:"status"`
}

// ROIResponse 收益测算响应
type ROIResponse struct {
	ProjectID        int64           `json:"projectId"`
	Units            int64           `json:"units"`
	InvestmentAmount decimal.Decimal `json:"investmentAmount"`
	ExpectedProfit   decimal.Decimal `json:"expectedProfit"`
	TotalPayout      decimal.Decimal `json:"totalPayout"`
	ReturnPercentage decimal.Decimal `json:"returnPercentage"`
	DurationDays     int             `json:"durationDays"`
	MaturityDate     time.Time       `json:"maturityDate"`
}

// InvestmentResponse 投资记录响应
type InvestmentResponse struct {
	ID           int64           `json:"id"`
	ProjectID    int64           `json:"projectId"`
	ProjectName  string          `json:"projectName,omitempty"`
	Amount       decimal.Decimal `json:"amount"`
	Units        int64           `json:"units"`
	Status       string          `json:"status"`
	PayoutAmount decimal.Decimal `json:"payoutAmount"`
	CreatedAt    time.Time       `json:"createdAt"`
	CompletedAt  *time.Time      `json:"completedAt,omitempty"`
	MaturityDate *time.Time      `json:"maturityDate,omitempty"`
	Progress     float64         `json:"progress"`
	DaysLeft     int             `json:"daysLeft"`
}

// PurchaseResponse 购买份额响应
type PurchaseResponse struct {
	Investment     InvestmentResponse  `json:"investment"`
	Transaction    TransactionResponse `json:"transaction"`
	WalletBalance  decimal.Decimal     `json:"walletBalance"`
	AvailableUnits int64               `json:"availableUnits"`
	CurrentAmount  decimal.Decimal     `json:"currentAmount"`
}

// TransactionResponse 流水响应
type TransactionResponse struct {
	ID           int64           `json:"id"`
	UserID       string          `json:"userId"`
	Type         string          `json:"type"`
	Amount       decimal.Decimal `json:"amount"`
	Status       string          `json:"status"`
	Details      string          `json:"details"`
	Reference    string          `json:"reference"`
	InvestmentID *int64          `json:"investmentId,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
}

// GetTransactionsResponse 流水列表响应
type GetTransactionsResponse struct {
	Transactions []TransactionResponse `json:"transactions"`
	Pagination   Pagination            `json:"pagination"`
}

// UserResponse 用户响应
type UserResponse struct {
	UID                string                    `json:"uid"`
	Email              string                    `json:"email"`
	WalletBalance      decimal.Decimal           `json:"walletBalance"`
	Role               string                    `json:"role"`
	ReferralCode       string                    `json:"referralCode"`
	ReferredBy         *string                   `json:"referredBy"`
	FirstName          string                    `json:"firstName"`
	LastName           string                    `json:"lastName"`
	Phone              string                    `json:"phone"`
	WithdrawalSettings WithdrawalSettingsRequest `json:"withdrawalSettings"`
	NotificationPrefs  NotificationPrefsRequest  `json:"notificationPrefs"`
	CreatedAt          time.Time                 `json:"createdAt"`
}

// GetUsersResponse 用户列表响应
type GetUsersResponse struct {
	Users      []UserResponse `json:"users"`
	Pagination Pagination     `json:"pagination"`
}

// WithdrawalResponse 提现申请响应
type WithdrawalResponse struct {
	ID          int64                     `json:"id"`
	UserID      string                    `json:"userId"`
	Email       string                    `json:"email"`
	Amount      decimal.Decimal           `json:"amount"`
	Status      string                    `json:"status"`
	BankDetails WithdrawalSettingsRequest `json:"bankDetails"`
	Reference   string                    `json:"reference"`
	CreatedAt   time.Time                 `json:"createdAt"`
	ProcessedAt *time.Time                `json:"processedAt,omitempty"`
}

// ManualDepositResponse 线下转账申请响应
type ManualDepositResponse struct {
	ID            int64           `json:"id"`
	UserID        string          `json:"userId"`
	Email         string          `json:"email"`
	Amount        decimal.Decimal `json:"amount"`
	SenderName    string          `json:"senderName"`
	TransferredTo string          `json:"transferredTo"`
	Status        string          `json:"status"`
	Reference     string          `json:"reference"`
	CreatedAt     time.Time       `json:"createdAt"`
	ProcessedAt   *time.Time      `json:"processedAt,omitempty"`
}

// PayoutItemResponse 单笔兑付结果
type PayoutItemResponse struct {
	InvestmentID int64           `json:"investmentId"`
	UserID       string          `json:"userId"`
	ProjectID    int64           `json:"projectId"`
	Status       string          `json:"status"`
	Payout       decimal.Decimal `json:"payout"`
	Error        string          `json:"error,omitempty"`
}

// PayoutSummaryResponse 兑付汇总
type PayoutSummaryResponse struct {
	Scanned    int                  `json:"scanned"`
	PaidOut    int                  `json:"paidOut"`
	NotMatured int                  `json:"notMatured"`
	Skipped    int                  `json:"skipped"`
	Flagged    int                  `json:"flagged"`
	Failed     int                  `json:"failed"`
	TotalPaid  decimal.Decimal      `json:"totalPaid"`
	Items      []PayoutItemResponse `json:"items"`
	StartedAt  time.Time            `json:"startedAt"`
	FinishedAt time.Time            `json:"finishedAt"`
}

// 转换函数

// ToProjectResponse 将数据库模型转换为响应模型
func ToProjectResponse(project *model.ProjectModel) ProjectResponse {
	return ProjectResponse{
		ID:                project.Id,
		Name:              project.Name,
		Description:       project.Description,
		ImageURL:          project.ImageURL,
		PricePerUnit:      project.PricePerUnit,
		AvailableUnits:    project.AvailableUnits,
		CurrentAmount:     project.CurrentAmount,
		TargetAmount:      project.TargetAmount,
		FundingPercentage: project.FundingPercentage(),
		ReturnPercentage:  project.ReturnPercentage,
		DurationDays:      project.DurationDays,
		RiskLevel:         string(project.RiskLevel),
		Status:            string(project.Status),
		CreatedAt:         project.CreatedAt,
		UpdatedAt:         project.UpdatedAt,
	}
}

// ToProjectResponseList 将数据库模型列表转换为响应模型列表
func ToProjectResponseList(projects []model.ProjectModel) []ProjectResponse {
	result := make([]ProjectResponse, len(projects))
	for i := range projects {
		result[i] = ToProjectResponse(&projects[i])
	}
	return result
}

// ToProjectStatsResponse 统计转换
func ToProjectStatsResponse(stats *logic.ProjectStats) ProjectStatsResponse {
	return ProjectStatsResponse{
		ProjectID:         stats.ProjectId,
		CurrentAmount:     stats.CurrentAmount,
		TargetAmount:      stats.TargetAmount,
		FundingPercentage: stats.FundingPercentage,
		AvailableUnits:    stats.AvailableUnits,
		UnitsSold:         stats.UnitsSold,
		InvestorCount:     stats.InvestorCount,
		Status:            string(stats.Status),
	}
}

// ToROIResponse 收益测算转换
func ToROIResponse(roi *logic.ROIResult) ROIResponse {
	return ROIResponse{
		ProjectID:        roi.ProjectId,
		Units:            roi.Units,
		InvestmentAmount: roi.InvestmentAmount,
		ExpectedProfit:   roi.ExpectedProfit,
		TotalPayout:      roi.TotalPayout,
		ReturnPercentage: roi.ReturnPercentage,
		DurationDays:     roi.DurationDays,
		MaturityDate:     roi.MaturityDate,
	}
}

// ToInvestmentResponse 投资记录转换
func ToInvestmentResponse(inv *model.InvestmentModel) InvestmentResponse {
	return InvestmentResponse{
		ID:           inv.Id,
		ProjectID:    inv.ProjectId,
		Amount:       inv.Amount,
		Units:        inv.Units,
		Status:       string(inv.Status),
		PayoutAmount: inv.PayoutAmount,
		CreatedAt:    inv.CreatedAt,
		CompletedAt:  inv.CompletedAt,
	}
}

// ToPortfolioResponseList 持仓列表转换
func ToPortfolioResponseList(items []logic.PortfolioItem) []InvestmentResponse {
	result := make([]InvestmentResponse, len(items))
	for i := range items {
		resp := ToInvestmentResponse(&items[i].Investment)
		resp.ProjectName = items[i].ProjectName
		if !items[i].MaturityDate.IsZero() {
			maturity := items[i].MaturityDate
			resp.MaturityDate = &maturity
		}
		resp.Progress = items[i].Progress
		resp.DaysLeft = items[i].DaysLeft
		result[i] = resp
	}
	return result
}

// ToPurchaseResponse 购买结果转换
func ToPurchaseResponse(result *logic.PurchaseResult) PurchaseResponse {
	return PurchaseResponse{
		Investment:     ToInvestmentResponse(result.Investment),
		Transaction:    ToTransactionResponse(result.Transaction),
		WalletBalance:  result.WalletBalance,
		AvailableUnits: result.AvailableUnits,
		CurrentAmount:  result.CurrentAmount,
	}
}

// ToTransactionResponse 流水转换
func ToTransactionResponse(tr *model.TransactionModel) TransactionResponse {
	return TransactionResponse{
		ID:           tr.Id,
		UserID:       tr.UserId,
		Type:         string(tr.Type),
		Amount:       tr.Amount,
		Status:       string(tr.Status),
		Details:      tr.Details,
		Reference:    tr.Reference,
		InvestmentID: tr.InvestmentId,
		CreatedAt:    tr.CreatedAt,
	}
}

// ToTransactionResponseList 流水列表转换
func ToTransactionResponseList(transactions []model.TransactionModel) []TransactionResponse {
	result := make([]TransactionResponse, len(transactions))
	for i := range transactions {
		result[i] = ToTransactionResponse(&transactions[i])
	}
	return result
}

func toBankDetails(b model.BankDetails) WithdrawalSettingsRequest {
	return WithdrawalSettingsRequest{
		BankName:      b.BankName,
		AccountNumber: b.AccountNumber,
		AccountName:   b.AccountName,
	}
}

// ToUserResponse 用户转换
func ToUserResponse(user *model.UserModel) UserResponse {
	return UserResponse{
		UID:                user.Uid,
		Email:              user.Email,
		WalletBalance:      user.WalletBalance,
		Role:               string(user.Role),
		ReferralCode:       user.ReferralCode,
		ReferredBy:         user.ReferredBy,
		FirstName:          user.FirstName,
		LastName:           user.LastName,
		Phone:              user.Phone,
		WithdrawalSettings: toBankDetails(user.WithdrawalSettings),
		NotificationPrefs: NotificationPrefsRequest{
			Activity:   user.NotificationPrefs.Activity,
			Investment: user.NotificationPrefs.Investment,
			Promotions: user.NotificationPrefs.Promotions,
		},
		CreatedAt: user.CreatedAt,
	}
}

// ToUserResponseList 用户列表转换
func ToUserResponseList(users []model.UserModel) []UserResponse {
	result := make([]UserResponse, len(users))
	for i := range users {
		result[i] = ToUserResponse(&users[i])
	}
	return result
}

// ToWithdrawalResponse 提现申请转换
func ToWithdrawalResponse(w *model.WithdrawalModel) WithdrawalResponse {
	return WithdrawalResponse{
		ID:          w.Id,
		UserID:      w.UserId,
		Email:       w.Email,
		Amount:      w.Amount,
		Status:      string(w.Status),
		BankDetails: toBankDetails(w.BankDetails),
		Reference:   w.Reference,
		CreatedAt:   w.CreatedAt,
		ProcessedAt: w.ProcessedAt,
	}
}

// ToWithdrawalResponseList 提现申请列表转换
func ToWithdrawalResponseList(requests []model.WithdrawalModel) []WithdrawalResponse {
	result := make([]WithdrawalResponse, len(requests))
	for i := range requests {
		result[i] = ToWithdrawalResponse(&requests[i])
	}
	return result
}

// ToManualDepositResponse 线下转账申请转换
func ToManualDepositResponse(d *model.ManualDepositModel) ManualDepositResponse {
	return ManualDepositResponse{
		ID:            d.Id,
		UserID:        d.UserId,
		Email:         d.Email,
		Amount:        d.Amount,
		SenderName:    d.SenderName,
		TransferredTo: d.TransferredTo,
		Status:        string(d.Status),
		Reference:     d.Reference,
		CreatedAt:     d.CreatedAt,
		ProcessedAt:   d.ProcessedAt,
	}
}

// ToManualDepositResponseList 线下转账申请列表转换
func ToManualDepositResponseList(requests []model.ManualDepositModel) []ManualDepositResponse {
	result := make([]ManualDepositResponse, len(requests))
	for i := range requests {
		result[i] = ToManualDepositResponse(&requests[i])
	}
	return result
}

// ToPayoutSummaryResponse 兑付汇总转换
func ToPayoutSummaryResponse(s *logic.PayoutSummary) PayoutSummaryResponse {
	items := make([]PayoutItemResponse, len(s.Items))
	for i, item := range s.Items {
		items[i] = PayoutItemResponse{
			InvestmentID: item.InvestmentId,
			UserID:       item.UserId,
			ProjectID:    item.ProjectId,
			Status:       string(item.Status),
			Payout:       item.Payout,
			Error:        item.Error,
		}
	}
	return PayoutSummaryResponse{
		Scanned:    s.Scanned,
		PaidOut:    s.PaidOut,
		NotMatured: s.NotMatured,
		Skipped:    s.Skipped,
		Flagged:    s.Flagged,
		Failed:     s.Failed,
		TotalPaid:  s.TotalPaid,
		Items:      items,
		StartedAt:  s.StartedAt,
		FinishedAt: s.FinishedAt,
	}
}
