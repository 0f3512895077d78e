package scheduler

import (
	"context"
	"time"

	"github.com/blues/smartfarmer/internal/config"
	"github.com/blues/smartfarmer/internal/logger"
	"github.com/blues/smartfarmer/internal/logic"
	"github.com/go-co-op/gocron/v2"
)

// PayoutJob 定时执行到期兑付
type PayoutJob struct {
	payout   *logic.PayoutLogic
	interval time.Duration
}

// NewPayoutJob 创建兑付任务
func NewPayoutJob(payout *logic.PayoutLogic, cfg config.PayoutConfig) *PayoutJob {
	interval := time.Duration(cfg.Interval) * time.Second
	if interval <= 0 {
		interval = time.Hour
	}
	return &PayoutJob{payout: payout, interval: interval}
}

// GetName 获取任务名称
func (j *PayoutJob) GetName() string {
	return "maturity_payout"
}

// GetSchedule 获取调度配置
func (j *PayoutJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(j.interval)
}

// Execute 执行任务
func (j *PayoutJob) Execute() {
	summary, err := j.payout.Sweep(context.Background())
	if err != nil {
		logger.Error("Scheduled payout failed: %v", err)
		return
	}
	logger.Info("Scheduled payout: %s", summary.Message)
}
