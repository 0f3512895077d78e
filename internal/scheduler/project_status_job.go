package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/blues/smartfarmer/internal/config"
	"github.com/blues/smartfarmer/internal/logger"
	"github.com/blues/smartfarmer/internal/model"
	"github.com/blues/smartfarmer/internal/repository"
	"github.com/go-co-op/gocron/v2"
	"gorm.io/gorm"
)

var errStatusChanged = errors.New("project no longer sold out")

// ProjectStatusJob 份额售罄的项目标记为 Funded
type ProjectStatusJob struct {
	db       *gorm.DB
	store    repository.Store
	interval time.Duration
}

// NewProjectStatusJob 创建项目状态更新任务
func NewProjectStatusJob(db *gorm.DB, store repository.Store, cfg config.TaskConfig) *ProjectStatusJob {
	interval := time.Duration(cfg.Interval) * time.Second
	if interval <= 0 {
		interval = time.Minute
	}
	return &ProjectStatusJob{
		db:       db,
		store:    store,
		interval: interval,
	}
}

// GetName 获取任务名称
func (j *ProjectStatusJob) GetName() string {
	return "project_status_updater"
}

// GetSchedule 获取调度配置
func (j *ProjectStatusJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(j.interval)
}

// Execute 执行任务
func (j *ProjectStatusJob) Execute() {
	updated, err := j.Run(context.Background())
	if err != nil {
		logger.Error("Project status update failed: %v", err)
		return
	}
	if updated > 0 {
		logger.Info("Project status update completed, %d project(s) funded", updated)
	}
}

// Run 扫描售罄项目并逐个条件更新，返回更新数量
func (j *ProjectStatusJob) Run(ctx context.Context) (int, error) {
	var ids []int64
	err := j.db.WithContext(ctx).Model(&model.ProjectModel{}).
		Where("status = ? AND available_units = 0", model.ProjectStatusOpen).
		Pluck("id", &ids).Error
	if err != nil {
		return 0, err
	}

	updatedCount := 0
	for _, id := range ids {
		err := j.store.ReadModifyWrite(ctx, func(tx repository.Tx) error {
			project, err := tx.GetProject(id)
			if err != nil {
				return err
			}
			// 管理员可能已补充份额或关闭项目
			if project.Status != model.ProjectStatusOpen || project.AvailableUnits > 0 {
				return errStatusChanged
			}
			project.Status = model.ProjectStatusFunded
			return tx.UpdateProject(project)
		})
		switch {
		case err == nil:
			updatedCount++
			logger.Info("Project %d sold out, status set to %s", id, model.ProjectStatusFunded)
		case errors.Is(err, errStatusChanged), errors.Is(err, repository.ErrNotFound):
		default:
			logger.Warn("Failed to update project %d status: %v", id, err)
		}
	}

	return updatedCount, nil
}
