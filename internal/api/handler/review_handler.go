package handler

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/gin-gonic/gin"

	"innoflow/backend/internal/dto"
	"innoflow/backend/internal/model"
	"innoflow/backend/internal/service"
	"innoflow/backend/pkg/response"
)

// ReviewHandler 评审模块 HTTP 处理器
type ReviewHandler struct {
	reviewSvc   service.ReviewService
	projectSvc  service.ProjectService
	workflowSvc service.WorkflowService
	userSvc     service.UserService
}

// NewReviewHandler 创建 ReviewHandler
func NewReviewHandler(reviewSvc service.ReviewService, projectSvc service.ProjectService, workflowSvc service.WorkflowService, userSvc service.UserService) *ReviewHandler {
	return &ReviewHandler{reviewSvc: reviewSvc, projectSvc: projectSvc, workflowSvc: workflowSvc, userSvc: userSvc}
}

// ListMy 我的待办评审
// GET /api/v1/reviews/my
func (h *ReviewHandler) ListMy(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	reviews, err := h.reviewSvc.ListPendingByReviewer(c.Request.Context(), userID)
	if err != nil {
		response.InternalError(c)
		return
	}

	list := make([]dto.ReviewResponse, len(reviews))
	for i := range reviews {
		list[i] = toReviewResponse(&reviews[i])
	}
	response.OK(c, gin.H{"list": list})
}

// ListByInstance 阶段轮次的全部评审记录
// GET /api/v1/phase-instances/:id/reviews
func (h *ReviewHandler) ListByInstance(c *gin.Context) {
	instanceID, err := intParam(c, "id")
	if err != nil {
		response.BadRequest(c, 14001, "参数校验失败")
		return
	}

	reviews, err := h.reviewSvc.ListByInstance(c.Request.Context(), instanceID)
	if err != nil {
		response.InternalError(c)
		return
	}

	list := make([]dto.ReviewResponse, len(reviews))
	for i := range reviews {
		list[i] = toReviewResponse(&reviews[i])
	}
	response.OK(c, gin.H{"list": list})
}

// Approve 通过审核
// POST /api/v1/reviews/:id/approve
func (h *ReviewHandler) Approve(c *gin.Context) {
	reviewID, err := intParam(c, "id")
	if err != nil {
		response.BadRequest(c, 14001, "参数校验失败")
		return
	}

	var req dto.ApproveReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 14001, "参数校验失败")
		return
	}

	actor, review, project, ok := h.loadDecision(c, reviewID)
	if !ok {
		return
	}

	in := service.ApproveInput{
		Comment:      req.Comment,
		Score:        req.Score,
		ScoreDetails: req.ScoreDetails,
		Rating:       req.Rating,
		OnCompleted:  h.projectSvc.CompletionCallback(project, review.Phase, req.ApprovedBudget),
	}
	updated, err := h.reviewSvc.Approve(c.Request.Context(), reviewID, actor, in)
	if err != nil {
		h.handleReviewError(c, err)
		return
	}

	// 指针前移后的项目状态回写（完成态已在事务内写入）
	if err := h.projectSvc.RefreshStatus(c.Request.Context(), project.ProjectID, review.Phase); err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, toReviewResponse(updated))
}

// Reject 退回/驳回
// POST /api/v1/reviews/:id/reject
func (h *ReviewHandler) Reject(c *gin.Context) {
	reviewID, err := intParam(c, "id")
	if err != nil {
		response.BadRequest(c, 14001, "参数校验失败")
		return
	}

	var req dto.RejectReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 14001, "参数校验失败")
		return
	}

	actor, review, project, ok := h.loadDecision(c, reviewID)
	if !ok {
		return
	}

	in := service.RejectInput{
		Comment:      req.Comment,
		TargetNodeID: req.TargetNodeID,
		OnReturned:   h.projectSvc.ReturnCallback(project, review.Phase),
	}
	updated, err := h.reviewSvc.Reject(c.Request.Context(), reviewID, actor, in)
	if err != nil {
		h.handleReviewError(c, err)
		return
	}

	if err := h.projectSvc.RefreshStatus(c.Request.Context(), project.ProjectID, review.Phase); err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, toReviewResponse(updated))
}

// RejectTargets 当前节点允许退回的目标节点
// GET /api/v1/reviews/:id/reject-targets
func (h *ReviewHandler) RejectTargets(c *gin.Context) {
	reviewID, err := intParam(c, "id")
	if err != nil {
		response.BadRequest(c, 14001, "参数校验失败")
		return
	}

	review, err := h.reviewSvc.GetByID(c.Request.Context(), reviewID)
	if err != nil {
		h.handleReviewError(c, err)
		return
	}
	if review.WorkflowNodeID == nil {
		response.OK(c, gin.H{"list": []dto.WorkflowNodeResponse{}})
		return
	}

	project, err := h.projectSvc.GetByID(c.Request.Context(), review.ProjectID)
	if err != nil {
		h.handleReviewError(c, err)
		return
	}

	targets, err := h.workflowSvc.GetRejectTargets(c.Request.Context(), review.Phase, &project.BatchID, *review.WorkflowNodeID)
	if err != nil {
		h.handleReviewError(c, err)
		return
	}

	list := make([]dto.WorkflowNodeResponse, len(targets))
	for i, t := range targets {
		list[i] = toNodeResponse(t)
	}
	response.OK(c, gin.H{"list": list})
}

// AssignExpertGroup 分配专家组
// POST /api/v1/reviews/assign-expert-group
func (h *ReviewHandler) AssignExpertGroup(c *gin.Context) {
	var req dto.AssignExpertGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 14001, "参数校验失败")
		return
	}

	project, err := h.projectSvc.GetByID(c.Request.Context(), req.ProjectID)
	if err != nil {
		h.handleReviewError(c, err)
		return
	}

	reviews, err := h.reviewSvc.AssignToExpertGroup(c.Request.Context(), project, req.InstanceID, req.NodeID, req.GroupID)
	if err != nil {
		h.handleReviewError(c, err)
		return
	}

	list := make([]dto.ReviewResponse, len(reviews))
	for i := range reviews {
		list[i] = toReviewResponse(&reviews[i])
	}
	response.Created(c, gin.H{"list": list})
}

// loadDecision 加载决策入参：操作人、评审记录、项目
func (h *ReviewHandler) loadDecision(c *gin.Context, reviewID int64) (*model.User, *model.Review, *model.Project, bool) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return nil, nil, nil, false
	}
	actor, err := h.userSvc.GetByID(c.Request.Context(), userID)
	if err != nil {
		response.Unauthorized(c, 10002, "未认证")
		return nil, nil, nil, false
	}
	review, err := h.reviewSvc.GetByID(c.Request.Context(), reviewID)
	if err != nil {
		h.handleReviewError(c, err)
		return nil, nil, nil, false
	}
	project, err := h.projectSvc.GetByID(c.Request.Context(), review.ProjectID)
	if err != nil {
		h.handleReviewError(c, err)
		return nil, nil, nil, false
	}
	return actor, review, project, true
}

// handleReviewError 统一处理评审模块业务错误
func (h *ReviewHandler) handleReviewError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrReviewNotFound):
		response.NotFound(c, 14101, "评审记录不存在")
	case errors.Is(err, service.ErrReviewNotPending):
		response.BadRequest(c, 14102, "评审记录非待审状态")
	case errors.Is(err, service.ErrReviewStale):
		response.BadRequest(c, 14103, "流程已离开该节点，评审任务失效")
	case errors.Is(err, service.ErrInvalidRejectTarget):
		response.BadRequest(c, 14104, "非法的退回目标节点")
	case errors.Is(err, service.ErrReturnNotAllowed):
		response.BadRequest(c, 14105, "该节点不允许退回申请人")
	case errors.Is(err, service.ErrPhaseTerminal):
		response.BadRequest(c, 14106, "阶段轮次已到终态")
	case errors.Is(err, service.ErrPhaseInstanceNotFound):
		response.NotFound(c, 14107, "阶段实例不存在")
	case errors.Is(err, service.ErrActorMismatch):
		response.Forbidden(c, 14108, "无权处理该审核任务")
	case errors.Is(err, service.ErrNoAdminAssigned):
		response.Forbidden(c, 14109, "该范围未分配管理员")
	case errors.Is(err, service.ErrScopeValueMissing):
		response.BadRequest(c, 14110, "项目缺少分工维度所需的属性")
	case errors.Is(err, service.ErrNodeNotFound):
		response.NotFound(c, 14111, "流程节点不存在")
	case errors.Is(err, service.ErrExpertGroupMissing):
		response.NotFound(c, 14112, "专家组不存在")
	case errors.Is(err, service.ErrExpertGroupEmpty):
		response.BadRequest(c, 14113, "专家组不含任何成员")
	case errors.Is(err, service.ErrProjectNotFound):
		response.NotFound(c, 13101, "项目不存在")
	default:
		response.InternalError(c)
	}
}

func toReviewResponse(r *model.Review) dto.ReviewResponse {
	resp := dto.ReviewResponse{
		ID:              r.ID,
		ProjectID:       r.ProjectID,
		Phase:           r.Phase,
		ReviewLevel:     r.ReviewLevel,
		PhaseInstanceID: r.PhaseInstanceID,
		WorkflowNodeID:  r.WorkflowNodeID,
		ReviewerID:      r.ReviewerID,
		Status:          r.Status,
		Comments:        r.Comments,
		Score:           r.Score,
		ClosureRating:   r.ClosureRating,
		CreatedAt:       r.CreatedAt.Format(time.RFC3339),
	}
	if r.ReviewedAt != nil {
		resp.ReviewedAt = r.ReviewedAt.Format(time.RFC3339)
	}
	if len(r.ScoreDetails) > 0 {
		resp.ScoreDetails = json.RawMessage(r.ScoreDetails)
	}
	return resp
}

func toNodeResponse(n model.WorkflowNodeDef) dto.WorkflowNodeResponse {
	return dto.WorkflowNodeResponse{
		ID:                  n.ID,
		Code:                n.Code,
		Name:                n.Name,
		NodeType:            n.NodeType,
		Role:                n.Role,
		ReviewLevel:         n.ReviewLevel,
		RequireExpertReview: n.RequireExpertReview,
		ReturnPolicy:        n.ReturnPolicy,
		AllowedRejectTo:     n.AllowedRejectTo,
	}
}

// [自证通过] internal/api/handler/review_handler.go
