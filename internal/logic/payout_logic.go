package logic

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/blues/smartfarmer/internal/logger"
	"github.com/blues/smartfarmer/internal/model"
	"github.com/blues/smartfarmer/internal/repository"
	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"github.com/shopspring/decimal"
)

const defaultPayoutWorkers = 4

var hundred = decimal.NewFromInt(100)

// PayoutItemStatus 单笔投资在一次兑付中的处理结果
type PayoutItemStatus string

const (
	PayoutItemPaidOut    PayoutItemStatus = "paid_out"
	PayoutItemNotMatured PayoutItemStatus = "not_matured"
	PayoutItemSkipped    PayoutItemStatus = "skipped" // 已被其他兑付处理
	PayoutItemFlagged    PayoutItemStatus = "flagged" // 项目已删除，需人工处理
	PayoutItemFailed     PayoutItemStatus = "failed"
)

// PayoutItem 单笔投资的兑付结果
type PayoutItem struct {
	InvestmentId int64
	UserId       string
	ProjectId    int64
	Status       PayoutItemStatus
	Payout       decimal.Decimal
	Error        string
}

// PayoutSummary 一次兑付的汇总
type PayoutSummary struct {
	Scanned    int
	PaidOut    int
	NotMatured int
	Skipped    int
	Flagged    int
	Failed     int
	TotalPaid  decimal.Decimal
	Items      []PayoutItem
	Message    string
	StartedAt  time.Time
	FinishedAt time.Time
}

// PayoutLogic 到期兑付
type PayoutLogic struct {
	store   repository.Store
	workers int
	now     func() time.Time
}

// PayoutOption 兑付配置项
type PayoutOption func(*PayoutLogic)

// WithClock 替换时钟，测试用
func WithClock(now func() time.Time) PayoutOption {
	return func(l *PayoutLogic) {
		l.now = now
	}
}

// WithWorkers 设置协程池大小
func WithWorkers(n int) PayoutOption {
	return func(l *PayoutLogic) {
		if n > 0 {
			l.workers = n
		}
	}
}

// NewPayoutLogic 创建兑付业务逻辑
func NewPayoutLogic(store repository.Store, opts ...PayoutOption) *PayoutLogic {
	l := &PayoutLogic{
		store:   store,
		workers: defaultPayoutWorkers,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// ComputePayout 本金加收益，保留两位小数
func ComputePayout(amount, returnPercentage decimal.Decimal) decimal.Decimal {
	profit := amount.Mul(returnPercentage).Div(hundred)
	return amount.Add(profit).Round(2)
}

// Sweep 扫描所有 active 投资，到期的逐笔兑付；单笔失败不影响其他投资
func (l *PayoutLogic) Sweep(ctx context.Context) (*PayoutSummary, error) {
	startedAt := l.now()
	logger.Info("Starting payout sweep")

	investments, err := l.store.ListInvestmentsByStatus(ctx, model.InvestmentStatusActive)
	if err != nil {
		return nil, fmt.Errorf("list active investments: %w", err)
	}

	pool, err := ants.NewPool(l.workers)
	if err != nil {
		return nil, fmt.Errorf("create payout pool: %w", err)
	}
	defer pool.Release()

	items := make([]PayoutItem, len(investments))
	var wg sync.WaitGroup
	for i := range investments {
		idx := i
		inv := investments[i]
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			items[idx] = l.payoutOne(ctx, inv.Id, startedAt)
		})
		if submitErr != nil {
			wg.Done()
			items[idx] = PayoutItem{
				InvestmentId: inv.Id,
				UserId:       inv.UserId,
				ProjectId:    inv.ProjectId,
				Status:       PayoutItemFailed,
				Error:        submitErr.Error(),
			}
		}
	}
	wg.Wait()

	summary := &PayoutSummary{
		Scanned:   len(investments),
		TotalPaid: decimal.Zero,
		Items:     items,
		StartedAt: startedAt,
	}
	for _, item := range items {
		switch item.Status {
		case PayoutItemPaidOut:
			summary.PaidOut++
			summary.TotalPaid = summary.TotalPaid.Add(item.Payout)
		case PayoutItemNotMatured:
			summary.NotMatured++
		case PayoutItemSkipped:
			summary.Skipped++
		case PayoutItemFlagged:
			summary.Flagged++
		case PayoutItemFailed:
			summary.Failed++
		}
	}
	summary.Message = payoutMessage(summary)
	summary.FinishedAt = l.now()

	logger.Info("Payout sweep completed. Scanned %d, paid out %d (total %s), not matured %d, skipped %d, flagged %d, failed %d",
		summary.Scanned, summary.PaidOut, summary.TotalPaid, summary.NotMatured, summary.Skipped, summary.Flagged, summary.Failed)

	return summary, nil
}

// payoutOne 在独立事务中兑付一笔投资
func (l *PayoutLogic) payoutOne(ctx context.Context, investmentId int64, now time.Time) PayoutItem {
	var item PayoutItem
	err := l.store.ReadModifyWrite(ctx, func(tx repository.Tx) error {
		item = PayoutItem{InvestmentId: investmentId}

		inv, err := tx.GetInvestment(investmentId)
		if err != nil {
			return notFound(err, "investment %d", investmentId)
		}
		item.UserId = inv.UserId
		item.ProjectId = inv.ProjectId

		if inv.Status != model.InvestmentStatusActive {
			item.Status = PayoutItemSkipped
			return nil
		}

		project, err := tx.GetProject(inv.ProjectId)
		if errors.Is(err, repository.ErrNotFound) {
			item.Status = PayoutItemFlagged
			item.Error = fmt.Sprintf("project %d not found", inv.ProjectId)
			return nil
		}
		if err != nil {
			return err
		}

		if now.Before(inv.MaturityTime(project.DurationDays)) {
			item.Status = PayoutItemNotMatured
			return nil
		}

		user, err := tx.GetUser(inv.UserId)
		if err != nil {
			return notFound(err, "user %s", inv.UserId)
		}

		payout := ComputePayout(inv.Amount, project.ReturnPercentage)
		user.WalletBalance = user.WalletBalance.Add(payout)
		if err := tx.UpdateUser(user); err != nil {
			return err
		}
		if err := tx.CompleteInvestment(inv, payout, now); err != nil {
			return err
		}

		entry := &model.TransactionModel{
			UserId:       user.Uid,
			Type:         model.TransactionTypePayout,
			Amount:       payout,
			Status:       model.TransactionStatusCompleted,
			Details:      fmt.Sprintf("Payout for %d units in %s", inv.Units, project.Name),
			Reference:    uuid.NewString(),
			InvestmentId: &inv.Id,
		}
		if err := tx.CreateTransaction(entry); err != nil {
			return fmt.Errorf("create ledger entry: %w", err)
		}

		item.Status = PayoutItemPaidOut
		item.Payout = payout
		return nil
	})

	switch {
	case err != nil:
		item.Status = PayoutItemFailed
		item.Error = err.Error()
		logger.Error("Failed to pay out investment %d: %v", investmentId, err)
	case item.Status == PayoutItemFlagged:
		logger.Warn("Investment %d references missing project %d, flagged for review", investmentId, item.ProjectId)
	case item.Status == PayoutItemPaidOut:
		logger.Info("Paid out investment %d: %s to user %s", investmentId, item.Payout, item.UserId)
	}

	return item
}

func payoutMessage(s *PayoutSummary) string {
	msg := fmt.Sprintf("Payout process complete. %d investment(s) paid out.", s.PaidOut)
	if s.Flagged > 0 {
		msg += fmt.Sprintf(" %d investment(s) flagged for review.", s.Flagged)
	}
	if s.Failed > 0 {
		msg += fmt.Sprintf(" %d investment(s) failed.", s.Failed)
	}
	return msg
}
