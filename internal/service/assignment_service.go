package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"innoflow/backend/internal/model"
	"innoflow/backend/internal/repository"
)

// ── 分工模块业务错误 ──

var (
	ErrNoAdminAssigned    = errors.New("该范围未分配管理员")
	ErrScopeValueMissing  = errors.New("项目缺少分工维度所需的属性")
	ErrActorMismatch      = errors.New("无权处理该审核任务")
	ErrExpertGroupEmpty   = errors.New("专家组不含任何成员")
	ErrExpertGroupMissing = errors.New("专家组不存在")
)

// AssignmentService 审核人解析与管理员分工接口。
// 管理员节点按 (批次, 阶段) 的范围维度切分管辖权：
// 先查维度配置，再从项目取该维度的值，最后查 (批次, 阶段, 节点, 值) 的分配。
type AssignmentService interface {
	// 解析某项目在某管理员节点上的有权管理员
	ResolveAdmin(ctx context.Context, project *model.Project, phase string, node *model.WorkflowNodeDef) (*model.User, error)
	// 校验 actor 是否有权处理项目在该节点上的任务（按节点角色分派）
	MatchActor(ctx context.Context, project *model.Project, phase string, node *model.WorkflowNodeDef, actor *model.User) error
	// 设置批次阶段的分工维度
	SetScopeConfig(ctx context.Context, cfg *model.PhaseScopeConfig) error
	// 新增/删除/列出管理员分配
	CreateAssignment(ctx context.Context, a *model.AdminAssignment) error
	DeleteAssignment(ctx context.Context, id int64) error
	ListAssignments(ctx context.Context, batchID, phase string) ([]model.AdminAssignment, error)
	// 专家组
	GetExpertGroup(ctx context.Context, id int64) (*model.ExpertGroup, error)
	CreateExpertGroup(ctx context.Context, g *model.ExpertGroup) error
	ListExpertGroups(ctx context.Context, college string) ([]model.ExpertGroup, error)
}

type assignmentService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewAssignmentService 创建 AssignmentService 实例
func NewAssignmentService(repo *repository.Repository, logger *zap.Logger) AssignmentService {
	return &assignmentService{repo: repo, logger: logger}
}

func (s *assignmentService) ResolveAdmin(ctx context.Context, project *model.Project, phase string, node *model.WorkflowNodeDef) (*model.User, error) {
	scopeCfg, err := s.repo.Assignment.GetScopeConfig(ctx, project.BatchID, phase)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoAdminAssigned
		}
		return nil, err
	}

	scopeValue, err := scopeValueOf(project, scopeCfg.ScopeType)
	if err != nil {
		return nil, err
	}

	assignment, err := s.repo.Assignment.GetAssignment(ctx, project.BatchID, phase, node.ID, scopeValue)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoAdminAssigned
		}
		return nil, err
	}
	if assignment.AdminUser == nil {
		s.logger.Warn("管理员分配存在但用户缺失",
			zap.Int64("assignment_id", assignment.ID),
			zap.String("admin_user_id", assignment.AdminUserID))
		return nil, ErrNoAdminAssigned
	}
	return assignment.AdminUser, nil
}

func (s *assignmentService) MatchActor(ctx context.Context, project *model.Project, phase string, node *model.WorkflowNodeDef, actor *model.User) error {
	switch node.Role {
	case model.RoleStudent:
		if project.LeaderID != actor.UserID {
			return ErrActorMismatch
		}
	case model.RoleTeacher:
		if !project.IsAdvisor(actor.UserID) {
			return ErrActorMismatch
		}
	case model.RoleLevel1, model.RoleLevel2:
		admin, err := s.ResolveAdmin(ctx, project, phase, node)
		if err != nil {
			return err
		}
		if admin.UserID != actor.UserID {
			return ErrActorMismatch
		}
	case model.RoleExpert:
		// 专家任务是具名记录，归属校验在评审记录层（reviewer_id）完成
		if !actor.IsExpert() {
			return ErrActorMismatch
		}
	default:
		return ErrActorMismatch
	}
	return nil
}

// scopeValueOf 从项目上取分工维度对应的值
func scopeValueOf(project *model.Project, scopeType string) (string, error) {
	switch scopeType {
	case model.ScopeTypeCollege:
		if project.College == "" {
			return "", ErrScopeValueMissing
		}
		return project.College, nil
	case model.ScopeTypeCategory:
		if project.CategoryCode == "" {
			return "", ErrScopeValueMissing
		}
		return project.CategoryCode, nil
	case model.ScopeTypeLevel:
		if project.LevelCode == "" {
			return "", ErrScopeValueMissing
		}
		return project.LevelCode, nil
	case model.ScopeTypeKeyField:
		if project.IsKeyField {
			return "true", nil
		}
		return "false", nil
	}
	return "", ErrScopeValueMissing
}

func (s *assignmentService) SetScopeConfig(ctx context.Context, cfg *model.PhaseScopeConfig) error {
	if !model.IsValidPhase(cfg.Phase) {
		return ErrUnknownPhase
	}
	return s.repo.Assignment.UpsertScopeConfig(ctx, cfg)
}

func (s *assignmentService) CreateAssignment(ctx context.Context, a *model.AdminAssignment) error {
	if !model.IsValidPhase(a.Phase) {
		return ErrUnknownPhase
	}
	return s.repo.Assignment.CreateAssignment(ctx, a)
}

func (s *assignmentService) DeleteAssignment(ctx context.Context, id int64) error {
	return s.repo.Assignment.DeleteAssignment(ctx, id)
}

func (s *assignmentService) ListAssignments(ctx context.Context, batchID, phase string) ([]model.AdminAssignment, error) {
	return s.repo.Assignment.ListAssignments(ctx, batchID, phase)
}

func (s *assignmentService) GetExpertGroup(ctx context.Context, id int64) (*model.ExpertGroup, error) {
	group, err := s.repo.Assignment.GetExpertGroup(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrExpertGroupMissing
		}
		return nil, err
	}
	return group, nil
}

func (s *assignmentService) CreateExpertGroup(ctx context.Context, g *model.ExpertGroup) error {
	return s.repo.Assignment.CreateExpertGroup(ctx, g)
}

func (s *assignmentService) ListExpertGroups(ctx context.Context, college string) ([]model.ExpertGroup, error) {
	return s.repo.Assignment.ListExpertGroups(ctx, college)
}

// [自证通过] internal/service/assignment_service.go
