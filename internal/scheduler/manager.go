package scheduler

import (
	"fmt"

	"github.com/blues/smartfarmer/internal/config"
	"github.com/blues/smartfarmer/internal/logger"
	"github.com/blues/smartfarmer/internal/logic"
	"github.com/blues/smartfarmer/internal/repository"
	"github.com/go-co-op/gocron/v2"
	"gorm.io/gorm"
)

// Job 定时任务
type Job interface {
	GetName() string
	GetSchedule() gocron.JobDefinition
	Execute()
}

// Manager 任务管理器
type Manager struct {
	scheduler gocron.Scheduler
	db        *gorm.DB
	store     repository.Store
	payout    *logic.PayoutLogic
	config    *config.Config
}

// NewManager 创建新的任务管理器
func NewManager(db *gorm.DB, store repository.Store, payout *logic.PayoutLogic, cfg *config.Config) (*Manager, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	return &Manager{
		scheduler: s,
		db:        db,
		store:     store,
		payout:    payout,
		config:    cfg,
	}, nil
}

// Start 注册任务并启动调度器
func Start(db *gorm.DB, store repository.Store, payout *logic.PayoutLogic, cfg *config.Config) (*Manager, error) {
	manager, err := NewManager(db, store, payout, cfg)
	if err != nil {
		return nil, err
	}

	// 注册所有任务
	manager.RegisterJobs()

	// 启动调度器
	manager.scheduler.Start()

	logger.Info("Task manager started with %d job(s)", len(manager.scheduler.Jobs()))
	return manager, nil
}

// RegisterJobs 注册所有任务
func (m *Manager) RegisterJobs() {
	m.register(NewProjectStatusJob(m.db, m.store, m.config.Task))

	// 默认只由管理员手动触发兑付
	if m.config.Payout.AutoEnabled {
		m.register(NewPayoutJob(m.payout, m.config.Payout))
	} else {
		logger.Info("Automatic payouts disabled, sweep runs only on admin request")
	}
}

// register 以单例模式注册任务，上一次未结束时顺延
func (m *Manager) register(job Job) {
	_, err := m.scheduler.NewJob(
		job.GetSchedule(),
		gocron.NewTask(job.Execute),
		gocron.WithName(job.GetName()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		logger.Error("Failed to register job %s: %v", job.GetName(), err)
		return
	}
	logger.Info("Registered job %s", job.GetName())
}

// Stop 停止任务管理器
func (m *Manager) Stop() {
	if err := m.scheduler.Shutdown(); err != nil {
		logger.Error("Failed to shutdown scheduler: %v", err)
	}
	logger.Info("Task manager stopped")
}
