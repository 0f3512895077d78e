package logic

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/blues/smartfarmer/internal/logger"
	"github.com/blues/smartfarmer/internal/model"
	"github.com/blues/smartfarmer/internal/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ImageStore 项目图片存储
type ImageStore interface {
	Upload(ctx context.Context, key string, body io.Reader) error
	PresignGet(ctx context.Context, key string) (string, error)
}

// ProjectLogic 项目业务逻辑
type ProjectLogic struct {
	db     *gorm.DB
	store  repository.Store
	images ImageStore
	now    func() time.Time
}

// NewProjectLogic 创建项目业务逻辑，images 可以为 nil
func NewProjectLogic(db *gorm.DB, store repository.Store, images ImageStore) *ProjectLogic {
	return &ProjectLogic{db: db, store: store, images: images, now: time.Now}
}

// ProjectInput 创建项目参数
type ProjectInput struct {
	Name             string
	Description      string
	PricePerUnit     decimal.Decimal
	AvailableUnits   int64
	ReturnPercentage decimal.Decimal
	DurationDays     int
	RiskLevel        model.RiskLevel
}

// ProjectUpdate 部分更新，nil 字段不修改
type ProjectUpdate struct {
	Name             *string
	Description      *string
	PricePerUnit     *decimal.Decimal
	AvailableUnits   *int64
	ReturnPercentage *decimal.Decimal
	DurationDays     *int
	RiskLevel        *model.RiskLevel
	Status           *model.ProjectStatus
}

// ProjectStats 募集统计
type ProjectStats struct {
	ProjectId         int64
	CurrentAmount     decimal.Decimal
	TargetAmount      decimal.Decimal
	FundingPercentage float64
	AvailableUnits    int64
	UnitsSold         int64
	InvestorCount     int64
	Status            model.ProjectStatus
}

// ROIResult 收益测算
type ROIResult struct {
	ProjectId        int64
	Units            int64
	InvestmentAmount decimal.Decimal
	ExpectedProfit   decimal.Decimal
	TotalPayout      decimal.Decimal
	ReturnPercentage decimal.Decimal
	DurationDays     int
	MaturityDate     time.Time
}

// CreateProject 创建项目，目标金额 = 单价 × 份额
func (p *ProjectLogic) CreateProject(ctx context.Context, input ProjectInput) (*model.ProjectModel, error) {
	if input.RiskLevel == "" {
		input.RiskLevel = model.RiskLevelLow
	}
	if err := validateProjectInput(input); err != nil {
		return nil, err
	}

	project := &model.ProjectModel{
		Name:             strings.TrimSpace(input.Name),
		Description:      input.Description,
		PricePerUnit:     input.PricePerUnit,
		AvailableUnits:   input.AvailableUnits,
		CurrentAmount:    decimal.Zero,
		TargetAmount:     input.PricePerUnit.Mul(decimal.NewFromInt(input.AvailableUnits)),
		ReturnPercentage: input.ReturnPercentage,
		DurationDays:     input.DurationDays,
		RiskLevel:        input.RiskLevel,
		Status:           model.ProjectStatusOpen,
	}

	if err := p.db.WithContext(ctx).Create(project).Error; err != nil {
		return nil, fmt.Errorf("创建项目失败: %w", err)
	}

	logger.Info("Project %d created: %s, %d units at %s", project.Id, project.Name, project.AvailableUnits, project.PricePerUnit)
	return project, nil
}

// UpdateProject 管理员编辑项目，条件写入保证不覆盖并发购买
func (p *ProjectLogic) UpdateProject(ctx context.Context, id int64, update ProjectUpdate) (*model.ProjectModel, error) {
	if err := validateProjectUpdate(update); err != nil {
		return nil, err
	}

	var updated *model.ProjectModel
	err := p.store.ReadModifyWrite(ctx, func(tx repository.Tx) error {
		project, err := tx.GetProject(id)
		if err != nil {
			return notFound(err, "project %d", id)
		}

		if update.Name != nil {
			project.Name = strings.TrimSpace(*update.Name)
		}
		if update.Description != nil {
			project.Description = *update.Description
		}
		if update.ReturnPercentage != nil {
			project.ReturnPercentage = *update.ReturnPercentage
		}
		if update.DurationDays != nil {
			project.DurationDays = *update.DurationDays
		}
		if update.RiskLevel != nil {
			project.RiskLevel = *update.RiskLevel
		}
		if update.Status != nil {
			project.Status = *update.Status
		}

		// 单价或份额变化时按剩余份额重算目标金额
		if update.PricePerUnit != nil || update.AvailableUnits != nil {
			if update.PricePerUnit != nil {
				project.PricePerUnit = *update.PricePerUnit
			}
			if update.AvailableUnits != nil {
				project.AvailableUnits = *update.AvailableUnits
			}
			remaining := project.PricePerUnit.Mul(decimal.NewFromInt(project.AvailableUnits))
			project.TargetAmount = project.CurrentAmount.Add(remaining)
		}

		if err := tx.UpdateProject(project); err != nil {
			return err
		}
		updated = project
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Project %d updated", id)
	return updated, nil
}

// DeleteProject 删除项目，关联投资会在兑付时被标记
func (p *ProjectLogic) DeleteProject(ctx context.Context, id int64) error {
	res := p.db.WithContext(ctx).Delete(&model.ProjectModel{}, id)
	if res.Error != nil {
		return fmt.Errorf("删除项目失败: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: project %d", ErrNotFound, id)
	}

	var active int64
	err := p.db.WithContext(ctx).Model(&model.InvestmentModel{}).
		Where("project_id = ? AND status = ?", id, model.InvestmentStatusActive).
		Count(&active).Error
	if err != nil {
		logger.Warn("Project %d deleted but active investments could not be counted: %v", id, err)
		return nil
	}
	if active > 0 {
		logger.Warn("Project %d deleted with %d active investments", id, active)
	} else {
		logger.Info("Project %d deleted", id)
	}
	return nil
}

// GetProjects 分页获取项目列表，search 按名称模糊匹配
func (p *ProjectLogic) GetProjects(ctx context.Context, search string, page, pageSize int) ([]model.ProjectModel, int64, error) {
	page, pageSize = normalizePage(page, pageSize)

	search = strings.TrimSpace(search)
	scoped := func() *gorm.DB {
		query := p.db.WithContext(ctx).Model(&model.ProjectModel{})
		if search != "" {
			query = query.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(search)+"%")
		}
		return query
	}

	var total int64
	if err := scoped().Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("获取项目总数失败: %w", err)
	}

	var projects []model.ProjectModel
	if err := scoped().Order("created_at DESC, id DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&projects).Error; err != nil {
		return nil, 0, fmt.Errorf("获取项目列表失败: %w", err)
	}

	for i := range projects {
		p.resolveImage(ctx, &projects[i])
	}
	return projects, total, nil
}

// GetProject 获取项目详情
func (p *ProjectLogic) GetProject(ctx context.Context, id int64) (*model.ProjectModel, error) {
	project, err := p.store.GetProject(ctx, id)
	if err != nil {
		return nil, notFound(err, "project %d", id)
	}
	p.resolveImage(ctx, project)
	return project, nil
}

// GetProjectStats 获取项目募集统计
func (p *ProjectLogic) GetProjectStats(ctx context.Context, id int64) (*ProjectStats, error) {
	project, err := p.store.GetProject(ctx, id)
	if err != nil {
		return nil, notFound(err, "project %d", id)
	}

	var agg struct {
		InvestorCount int64
		UnitsSold     int64
	}
	err = p.db.WithContext(ctx).Model(&model.InvestmentModel{}).
		Select("COUNT(DISTINCT user_id) AS investor_count, COALESCE(SUM(units), 0) AS units_sold").
		Where("project_id = ?", id).
		Scan(&agg).Error
	if err != nil {
		return nil, fmt.Errorf("获取项目统计信息失败: %w", err)
	}

	return &ProjectStats{
		ProjectId:         project.Id,
		CurrentAmount:     project.CurrentAmount,
		TargetAmount:      project.TargetAmount,
		FundingPercentage: project.FundingPercentage(),
		AvailableUnits:    project.AvailableUnits,
		UnitsSold:         agg.UnitsSold,
		InvestorCount:     agg.InvestorCount,
		Status:            project.Status,
	}, nil
}

// CalculateROI 按当前时间测算购买 units 份的收益
func (p *ProjectLogic) CalculateROI(ctx context.Context, id int64, units int64) (*ROIResult, error) {
	if units <= 0 {
		return nil, validationError("units must be a positive integer")
	}

	project, err := p.store.GetProject(ctx, id)
	if err != nil {
		return nil, notFound(err, "project %d", id)
	}

	amount := project.PricePerUnit.Mul(decimal.NewFromInt(units))
	payout := ComputePayout(amount, project.ReturnPercentage)
	now := p.now()

	return &ROIResult{
		ProjectId:        project.Id,
		Units:            units,
		InvestmentAmount: amount,
		ExpectedProfit:   payout.Sub(amount),
		TotalPayout:      payout,
		ReturnPercentage: project.ReturnPercentage,
		DurationDays:     project.DurationDays,
		MaturityDate:     now.Add(time.Duration(project.DurationDays) * 24 * time.Hour),
	}, nil
}

// SetProjectImage 上传项目图片并记录对象 key
func (p *ProjectLogic) SetProjectImage(ctx context.Context, id int64, filename string, body io.Reader) (*model.ProjectModel, error) {
	if p.images == nil {
		return nil, fmt.Errorf("%w: image storage is not configured", ErrInvalidState)
	}
	if _, err := p.store.GetProject(ctx, id); err != nil {
		return nil, notFound(err, "project %d", id)
	}

	key := fmt.Sprintf("projects/%d/%s%s", id, uuid.NewString(), strings.ToLower(path.Ext(filename)))
	if err := p.images.Upload(ctx, key, body); err != nil {
		return nil, err
	}

	var updated *model.ProjectModel
	err := p.store.ReadModifyWrite(ctx, func(tx repository.Tx) error {
		project, err := tx.GetProject(id)
		if err != nil {
			return notFound(err, "project %d", id)
		}
		project.ImageURL = key
		if err := tx.UpdateProject(project); err != nil {
			return err
		}
		updated = project
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Project %d image uploaded to %s", id, key)
	p.resolveImage(ctx, updated)
	return updated, nil
}

// resolveImage 把对象 key 换成限时地址，外链地址原样返回
func (p *ProjectLogic) resolveImage(ctx context.Context, project *model.ProjectModel) {
	if p.images == nil || project.ImageURL == "" || strings.HasPrefix(project.ImageURL, "http") {
		return
	}
	url, err := p.images.PresignGet(ctx, project.ImageURL)
	if err != nil {
		logger.Warn("Failed to presign image for project %d: %v", project.Id, err)
		return
	}
	project.ImageURL = url
}

// validateProjectInput 验证项目数据
func validateProjectInput(input ProjectInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return validationError("project name is required")
	}
	if !input.PricePerUnit.IsPositive() {
		return validationError("price per unit must be greater than 0")
	}
	if input.AvailableUnits <= 0 {
		return validationError("available units must be greater than 0")
	}
	if input.ReturnPercentage.IsNegative() {
		return validationError("return percentage must not be negative")
	}
	if input.DurationDays <= 0 {
		return validationError("duration days must be greater than 0")
	}
	if !input.RiskLevel.Valid() {
		return validationError("invalid risk level: %s", input.RiskLevel)
	}
	return nil
}

func validateProjectUpdate(u ProjectUpdate) error {
	if u.Name != nil && strings.TrimSpace(*u.Name) == "" {
		return validationError("project name is required")
	}
	if u.PricePerUnit != nil && !u.PricePerUnit.IsPositive() {
		return validationError("price per unit must be greater than 0")
	}
	if u.AvailableUnits != nil && *u.AvailableUnits < 0 {
		return validationError("available units must not be negative")
	}
	if u.ReturnPercentage != nil && u.ReturnPercentage.IsNegative() {
		return validationError("return percentage must not be negative")
	}
	if u.DurationDays != nil && *u.DurationDays <= 0 {
		return validationError("duration days must be greater than 0")
	}
	if u.RiskLevel != nil && !u.RiskLevel.Valid() {
		return validationError("invalid risk level: %s", *u.RiskLevel)
	}
	if u.Status != nil {
		switch *u.Status {
		case model.ProjectStatusOpen, model.ProjectStatusFunded, model.ProjectStatusClosed:
		default:
			return validationError("invalid project status: %s", *u.Status)
		}
	}
	return nil
}

// normalizePage 分页参数兜底
func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return page, pageSize
}
