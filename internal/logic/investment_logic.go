package logic

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/blues/smartfarmer/internal/logger"
	"github.com/blues/smartfarmer/internal/model"
	"github.com/blues/smartfarmer/internal/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// InvestmentLogic 份额购买与持仓查询
type InvestmentLogic struct {
	store repository.Store
	db    *gorm.DB
	now   func() time.Time
}

// NewInvestmentLogic 创建投资业务逻辑
func NewInvestmentLogic(store repository.Store, db *gorm.DB) *InvestmentLogic {
	return &InvestmentLogic{store: store, db: db, now: time.Now}
}

// PurchaseResult 购买成功后的结果
type PurchaseResult struct {
	Investment     *model.InvestmentModel
	Transaction    *model.TransactionModel
	WalletBalance  decimal.Decimal
	AvailableUnits int64
	CurrentAmount  decimal.Decimal
}

// Purchase 原子地购买项目份额：扣减份额、扣款、生成投资记录与流水
func (l *InvestmentLogic) Purchase(ctx context.Context, session *model.Session, projectId int64, units int64) (*PurchaseResult, error) {
	if session == nil || session.Uid == "" {
		return nil, validationError("session is required")
	}
	if units <= 0 {
		return nil, validationError("units must be a positive integer")
	}

	var result *PurchaseResult
	err := l.store.ReadModifyWrite(ctx, func(tx repository.Tx) error {
		result = nil

		project, err := tx.GetProject(projectId)
		if err != nil {
			return notFound(err, "project %d", projectId)
		}
		user, err := tx.GetUser(session.Uid)
		if err != nil {
			return notFound(err, "user %s", session.Uid)
		}

		amount := project.PricePerUnit.Mul(decimal.NewFromInt(units))
		if amount.GreaterThan(user.WalletBalance) {
			return ErrInsufficientFunds
		}
		if units > project.AvailableUnits {
			return ErrUnitsUnavailable
		}

		project.CurrentAmount = project.CurrentAmount.Add(amount)
		project.AvailableUnits -= units
		if err := tx.UpdateProject(project); err != nil {
			return err
		}

		user.WalletBalance = user.WalletBalance.Sub(amount)
		if err := tx.UpdateUser(user); err != nil {
			return err
		}

		investment := &model.InvestmentModel{
			CreatedAt: l.now(),
			UserId:    user.Uid,
			ProjectId: project.Id,
			Amount:    amount,
			Units:     units,
			Status:    model.InvestmentStatusActive,
		}
		if err := tx.CreateInvestment(investment); err != nil {
			return fmt.Errorf("create investment: %w", err)
		}

		entry := &model.TransactionModel{
			UserId:       user.Uid,
			Type:         model.TransactionTypeInvestment,
			Amount:       amount,
			Status:       model.TransactionStatusCompleted,
			Details:      fmt.Sprintf("%d units in %s", units, project.Name),
			Reference:    uuid.NewString(),
			InvestmentId: &investment.Id,
		}
		if err := tx.CreateTransaction(entry); err != nil {
			return fmt.Errorf("create ledger entry: %w", err)
		}

		result = &PurchaseResult{
			Investment:     investment,
			Transaction:    entry,
			WalletBalance:  user.WalletBalance,
			AvailableUnits: project.AvailableUnits,
			CurrentAmount:  project.CurrentAmount,
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrInsufficientFunds) && !errors.Is(err, ErrUnitsUnavailable) && !errors.Is(err, ErrNotFound) {
			logger.Error("Purchase of %d units in project %d by %s failed: %v", units, projectId, session.Uid, err)
		}
		return nil, err
	}

	logger.Info("User %s bought %d units of project %d for %s", session.Uid, units, projectId, result.Investment.Amount)
	return result, nil
}

// PortfolioItem 持仓视图，带到期进度
type PortfolioItem struct {
	Investment   model.InvestmentModel
	ProjectName  string
	DurationDays int
	MaturityDate time.Time
	Progress     float64 // 0-100，按已过时间比例计算
	DaysLeft     int
}

// GetUserInvestments 获取用户持仓，status 为空时返回全部
func (l *InvestmentLogic) GetUserInvestments(ctx context.Context, uid string, status model.InvestmentStatus) ([]PortfolioItem, error) {
	query := l.db.WithContext(ctx).Where("user_id = ?", uid)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var investments []model.InvestmentModel
	if err := query.Order("created_at DESC, id DESC").Find(&investments).Error; err != nil {
		return nil, fmt.Errorf("获取投资列表失败: %w", err)
	}

	projectIds := make([]int64, 0, len(investments))
	for _, inv := range investments {
		projectIds = append(projectIds, inv.ProjectId)
	}

	projects := make(map[int64]model.ProjectModel)
	if len(projectIds) > 0 {
		var rows []model.ProjectModel
		if err := l.db.WithContext(ctx).Where("id IN ?", projectIds).Find(&rows).Error; err != nil {
			return nil, fmt.Errorf("获取项目信息失败: %w", err)
		}
		for _, p := range rows {
			projects[p.Id] = p
		}
	}

	now := l.now()
	items := make([]PortfolioItem, 0, len(investments))
	for _, inv := range investments {
		item := PortfolioItem{Investment: inv}
		if p, ok := projects[inv.ProjectId]; ok {
			item.ProjectName = p.Name
			item.DurationDays = p.DurationDays
			item.MaturityDate = inv.MaturityTime(p.DurationDays)
			item.Progress = maturityProgress(inv.CreatedAt, item.MaturityDate, now)
			item.DaysLeft = int(math.Ceil(item.MaturityDate.Sub(now).Hours() / 24))
			if item.DaysLeft < 0 {
				item.DaysLeft = 0
			}
		}
		items = append(items, item)
	}

	return items, nil
}

// maturityProgress 已过时间占总期限的百分比，截断在 [0, 100]
func maturityProgress(start, maturity, now time.Time) float64 {
	total := maturity.Sub(start)
	if total <= 0 {
		return 100
	}
	elapsed := now.Sub(start)
	if elapsed <= 0 {
		return 0
	}
	pct := float64(elapsed) / float64(total) * 100
	return math.Min(pct, 100)
}
