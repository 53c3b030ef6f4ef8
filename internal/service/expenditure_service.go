package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"innoflow/backend/internal/model"
	"innoflow/backend/internal/repository"
)

// ── 经费模块业务错误 ──

var (
	ErrExpenditureNotFound       = errors.New("经费支出单不存在")
	ErrExpenditureTerminal       = errors.New("经费支出单已到终态")
	ErrExpenditureInvalidAmount  = errors.New("支出金额必须大于 0")
	ErrBudgetExceeded            = errors.New("支出金额超出项目可用经费")
	ErrLeaderGateNotPending      = errors.New("负责人自审已完成或未开启")
	ErrExpenditureReviewNotFound = errors.New("经费审核记录不存在")
)

// 经费流程自动通过时写入的系统意见
const expenditureAutoApprovedComment = "流程无适用审核节点，自动通过"

// ExpenditureDutyKind 经费待办类型
const (
	ExpenditureDutyLeader = "LEADER" // 负责人自审闸门
	ExpenditureDutyNode   = "NODE"   // 流程节点审核
)

// ExpenditureDuty 某用户在某支出单上的当前待办
type ExpenditureDuty struct {
	Kind     string `json:"kind"`
	NodeID   *int64 `json:"node_id,omitempty"`
	ReviewID *int64 `json:"review_id,omitempty"`
}

// ExpenditureService 经费支出审批接口。
// 两级闸门：负责人自审（创建人即负责人时自动跳过）→ BUDGET 流程图逐节点审批。
// 经费流程的驳回即终态，不支持回落到更早节点。
type ExpenditureService interface {
	// 发起支出申请（负责人本人发起时自动越过自审闸门）
	Create(ctx context.Context, projectID, actorID string, amount float64, purpose, remark string) (*model.ProjectExpenditure, error)
	GetByID(ctx context.Context, id int64) (*model.ProjectExpenditure, error)
	// 负责人自审：驳回即终态，通过则进入流程图
	ApplyLeaderReview(ctx context.Context, expenditureID int64, actor *model.User, approved bool, comment string) (*model.ProjectExpenditure, error)
	// 通过当前节点审核（末节点通过即支出单终态 APPROVED）
	ApproveReview(ctx context.Context, reviewID int64, actor *model.User, comment string) (*model.ProjectExpenditureReview, error)
	// 驳回（终态 REJECTED，作废其余未决记录）
	RejectReview(ctx context.Context, reviewID int64, actor *model.User, comment string) (*model.ProjectExpenditureReview, error)
	// 只读：用户在该支出单上的当前待办，无待办或已终态返回 nil
	GetPendingForUser(ctx context.Context, expenditureID int64, user *model.User) (*ExpenditureDuty, error)
	ListByProject(ctx context.Context, projectID string) ([]model.ProjectExpenditure, error)
}

type expenditureService struct {
	repo       *repository.Repository
	workflow   WorkflowService
	assignment AssignmentService
	logger     *zap.Logger
}

// NewExpenditureService 创建 ExpenditureService 实例
func NewExpenditureService(repo *repository.Repository, workflow WorkflowService, assignment AssignmentService, logger *zap.Logger) ExpenditureService {
	return &expenditureService{repo: repo, workflow: workflow, assignment: assignment, logger: logger}
}

func (s *expenditureService) Create(ctx context.Context, projectID, actorID string, amount float64, purpose, remark string) (*model.ProjectExpenditure, error) {
	if amount <= 0 {
		return nil, ErrExpenditureInvalidAmount
	}
	project, err := s.repo.Project.GetByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}

	// 已批准支出与本笔之和不得超过批准经费
	if project.ApprovedBudget != nil {
		spent, err := s.repo.Expenditure.SumApproved(ctx, projectID)
		if err != nil {
			return nil, err
		}
		if spent+amount > *project.ApprovedBudget {
			return nil, ErrBudgetExceeded
		}
	}

	exp := &model.ProjectExpenditure{
		ProjectID:          projectID,
		Amount:             amount,
		Purpose:            purpose,
		Remark:             remark,
		Status:             model.ExpenditureStatusPending,
		LeaderReviewStatus: model.LeaderReviewPending,
	}
	exp.CreatedBy = &actorID

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if actorID == project.LeaderID {
			// 负责人本人发起：自审闸门自动通过，直接进入流程图
			now := time.Now()
			exp.LeaderReviewStatus = model.LeaderReviewApproved
			exp.LeaderReviewedBy = &actorID
			exp.LeaderReviewedAt = &now
			if err := tx.Expenditure.Create(ctx, exp); err != nil {
				return err
			}
			return s.startWorkflow(ctx, tx, project, exp)
		}
		return tx.Expenditure.Create(ctx, exp)
	})
	if err != nil {
		return nil, err
	}
	return exp, nil
}

func (s *expenditureService) GetByID(ctx context.Context, id int64) (*model.ProjectExpenditure, error) {
	exp, err := s.repo.Expenditure.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrExpenditureNotFound
		}
		return nil, err
	}
	return exp, nil
}

func (s *expenditureService) ApplyLeaderReview(ctx context.Context, expenditureID int64, actor *model.User, approved bool, comment string) (*model.ProjectExpenditure, error) {
	exp, err := s.GetByID(ctx, expenditureID)
	if err != nil {
		return nil, err
	}
	if exp.IsTerminal() {
		return nil, ErrExpenditureTerminal
	}
	if exp.LeaderReviewStatus != model.LeaderReviewPending {
		return nil, ErrLeaderGateNotPending
	}

	project, err := s.repo.Project.GetByID(ctx, exp.ProjectID)
	if err != nil {
		return nil, err
	}
	if project.LeaderID != actor.UserID {
		return nil, ErrActorMismatch
	}

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		now := time.Now()
		exp.LeaderReviewedBy = &actor.UserID
		exp.LeaderReviewedAt = &now
		exp.LeaderReviewComment = comment

		if !approved {
			exp.LeaderReviewStatus = model.LeaderReviewRejected
			exp.Status = model.ExpenditureStatusRejected
			exp.ReviewedAt = &now
			exp.ReviewComment = comment
			return tx.Expenditure.Update(ctx, exp)
		}

		exp.LeaderReviewStatus = model.LeaderReviewApproved
		if err := tx.Expenditure.Update(ctx, exp); err != nil {
			return err
		}
		return s.startWorkflow(ctx, tx, project, exp)
	})
	if err != nil {
		return nil, err
	}
	return exp, nil
}

// startWorkflow 将支出单送入 BUDGET 流程图：
// 定位首个适用审核节点并派发任务；无适用节点时自动通过。
func (s *expenditureService) startWorkflow(ctx context.Context, tx *repository.Repository, project *model.Project, exp *model.ProjectExpenditure) error {
	arena, err := s.workflow.GetArena(ctx, model.PhaseBudget, &project.BatchID)
	if err != nil {
		return err
	}

	first := arena.FirstApplicable(applicableFor(project))
	if first == nil {
		now := time.Now()
		exp.Status = model.ExpenditureStatusApproved
		exp.ReviewedAt = &now
		exp.ReviewComment = expenditureAutoApprovedComment
		exp.CurrentNodeID = nil
		return tx.Expenditure.Update(ctx, exp)
	}

	exp.CurrentNodeID = &first.ID
	if err := tx.Expenditure.Update(ctx, exp); err != nil {
		return err
	}
	return s.openBudgetNode(ctx, tx, project, exp, first)
}

func (s *expenditureService) ApproveReview(ctx context.Context, reviewID int64, actor *model.User, comment string) (*model.ProjectExpenditureReview, error) {
	review, exp, project, arena, node, err := s.loadDecisionContext(ctx, reviewID, actor)
	if err != nil {
		return nil, err
	}

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		now := time.Now()
		review.Status = model.ReviewStatusApproved
		review.Comments = comment
		review.ReviewedAt = &now
		if review.ReviewerID == nil {
			review.ReviewerID = &actor.UserID
		}
		if err := tx.Expenditure.UpdateReview(ctx, review); err != nil {
			return err
		}

		// 同节点其余未决记录（多导师）随决定作废
		if _, err := tx.Expenditure.InvalidatePendingReviews(ctx, exp.ID, review.ID, model.SiblingResolvedComment); err != nil {
			return err
		}

		next, err := arena.Next(node.ID, applicableFor(project))
		if err != nil {
			return err
		}
		if next == nil {
			exp.Status = model.ExpenditureStatusApproved
			exp.CurrentNodeID = nil
			exp.ReviewedBy = &actor.UserID
			exp.ReviewedAt = &now
			exp.ReviewComment = comment
			return tx.Expenditure.Update(ctx, exp)
		}

		exp.CurrentNodeID = &next.ID
		if err := tx.Expenditure.Update(ctx, exp); err != nil {
			return err
		}
		return s.openBudgetNode(ctx, tx, project, exp, next)
	})
	if err != nil {
		return nil, err
	}
	return review, nil
}

func (s *expenditureService) RejectReview(ctx context.Context, reviewID int64, actor *model.User, comment string) (*model.ProjectExpenditureReview, error) {
	review, exp, _, _, _, err := s.loadDecisionContext(ctx, reviewID, actor)
	if err != nil {
		return nil, err
	}

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		now := time.Now()
		review.Status = model.ReviewStatusRejected
		review.Comments = comment
		review.ReviewedAt = &now
		if review.ReviewerID == nil {
			review.ReviewerID = &actor.UserID
		}
		if err := tx.Expenditure.UpdateReview(ctx, review); err != nil {
			return err
		}

		if _, err := tx.Expenditure.InvalidatePendingReviews(ctx, exp.ID, review.ID, model.SiblingInvalidatedComment); err != nil {
			return err
		}

		exp.Status = model.ExpenditureStatusRejected
		exp.CurrentNodeID = nil
		exp.ReviewedBy = &actor.UserID
		exp.ReviewedAt = &now
		exp.ReviewComment = comment
		return tx.Expenditure.Update(ctx, exp)
	})
	if err != nil {
		return nil, err
	}
	return review, nil
}

func (s *expenditureService) GetPendingForUser(ctx context.Context, expenditureID int64, user *model.User) (*ExpenditureDuty, error) {
	exp, err := s.GetByID(ctx, expenditureID)
	if err != nil {
		return nil, err
	}
	if exp.IsTerminal() {
		return nil, nil
	}

	project, err := s.repo.Project.GetByID(ctx, exp.ProjectID)
	if err != nil {
		return nil, err
	}

	if exp.LeaderReviewStatus == model.LeaderReviewPending {
		if project.LeaderID == user.UserID {
			return &ExpenditureDuty{Kind: ExpenditureDutyLeader}, nil
		}
		return nil, nil
	}
	if exp.CurrentNodeID == nil {
		return nil, nil
	}

	// 先找具名任务，再按节点角色匹配无主任务
	review, err := s.repo.Expenditure.GetPendingReviewAt(ctx, exp.ID, *exp.CurrentNodeID, &user.UserID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if review == nil {
		unowned, err := s.repo.Expenditure.GetPendingReviewAt(ctx, exp.ID, *exp.CurrentNodeID, nil)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, nil
			}
			return nil, err
		}
		arena, err := s.workflow.GetArena(ctx, model.PhaseBudget, &project.BatchID)
		if err != nil {
			return nil, err
		}
		node, ok := arena.Get(*exp.CurrentNodeID)
		if !ok {
			return nil, ErrNodeNotFound
		}
		if err := s.assignment.MatchActor(ctx, project, model.PhaseBudget, node, user); err != nil {
			if errors.Is(err, ErrActorMismatch) || errors.Is(err, ErrNoAdminAssigned) {
				return nil, nil
			}
			return nil, err
		}
		review = unowned
	}

	return &ExpenditureDuty{
		Kind:     ExpenditureDutyNode,
		NodeID:   exp.CurrentNodeID,
		ReviewID: &review.ID,
	}, nil
}

func (s *expenditureService) ListByProject(ctx context.Context, projectID string) ([]model.ProjectExpenditure, error) {
	return s.repo.Expenditure.ListByProject(ctx, projectID)
}

// ── 内部辅助 ──

func (s *expenditureService) loadDecisionContext(ctx context.Context, reviewID int64, actor *model.User) (
	*model.ProjectExpenditureReview, *model.ProjectExpenditure, *model.Project, *NodeArena, *model.WorkflowNodeDef, error,
) {
	review, err := s.repo.Expenditure.GetReviewByID(ctx, reviewID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, nil, nil, nil, ErrExpenditureReviewNotFound
		}
		return nil, nil, nil, nil, nil, err
	}
	if review.Status != model.ReviewStatusPending {
		return nil, nil, nil, nil, nil, ErrReviewNotPending
	}

	exp, err := s.GetByID(ctx, review.ExpenditureID)
	if err != nil {
		return nil, nil, nil, nil, nil, err
	}
	if exp.IsTerminal() {
		return nil, nil, nil, nil, nil, ErrExpenditureTerminal
	}
	if exp.CurrentNodeID == nil || *exp.CurrentNodeID != review.WorkflowNodeID {
		return nil, nil, nil, nil, nil, ErrReviewStale
	}

	project, err := s.repo.Project.GetByID(ctx, exp.ProjectID)
	if err != nil {
		return nil, nil, nil, nil, nil, err
	}

	arena, err := s.workflow.GetArena(ctx, model.PhaseBudget, &project.BatchID)
	if err != nil {
		return nil, nil, nil, nil, nil, err
	}
	node, ok := arena.Get(review.WorkflowNodeID)
	if !ok {
		return nil, nil, nil, nil, nil, ErrNodeNotFound
	}

	if review.ReviewerID != nil {
		if *review.ReviewerID != actor.UserID {
			return nil, nil, nil, nil, nil, ErrActorMismatch
		}
	} else if err := s.assignment.MatchActor(ctx, project, model.PhaseBudget, node, actor); err != nil {
		return nil, nil, nil, nil, nil, err
	}

	return review, exp, project, arena, node, nil
}

// openBudgetNode 在经费流程节点上派发审核任务（派发规则同阶段流程）
func (s *expenditureService) openBudgetNode(ctx context.Context, tx *repository.Repository, project *model.Project, exp *model.ProjectExpenditure, node *model.WorkflowNodeDef) error {
	create := func(reviewerID *string) error {
		review := &model.ProjectExpenditureReview{
			ExpenditureID:  exp.ID,
			WorkflowNodeID: node.ID,
			ReviewerID:     reviewerID,
			Status:         model.ReviewStatusPending,
		}
		return tx.Expenditure.CreateReview(ctx, review)
	}

	switch node.Role {
	case model.RoleTeacher:
		for i := range project.Advisors {
			advisorID := project.Advisors[i].UserID
			if err := create(&advisorID); err != nil {
				return err
			}
		}
		return nil
	case model.RoleLevel1, model.RoleLevel2:
		admin, err := s.assignment.ResolveAdmin(ctx, project, model.PhaseBudget, node)
		if err != nil {
			if errors.Is(err, ErrNoAdminAssigned) {
				s.logger.Warn("经费节点无管理员分配，建立无主待审任务",
					zap.Int64("expenditure_id", exp.ID),
					zap.Int64("node_id", node.ID))
				return create(nil)
			}
			return err
		}
		return create(&admin.UserID)
	default:
		return create(nil)
	}
}

// [自证通过] internal/service/expenditure_service.go
