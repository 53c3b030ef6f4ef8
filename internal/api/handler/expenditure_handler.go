package handler

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"

	"innoflow/backend/internal/dto"
	"innoflow/backend/internal/model"
	"innoflow/backend/internal/service"
	"innoflow/backend/pkg/response"
)

// ExpenditureHandler 经费模块 HTTP 处理器
type ExpenditureHandler struct {
	expenditureSvc service.ExpenditureService
	userSvc        service.UserService
}

// NewExpenditureHandler 创建 ExpenditureHandler
func NewExpenditureHandler(expenditureSvc service.ExpenditureService, userSvc service.UserService) *ExpenditureHandler {
	return &ExpenditureHandler{expenditureSvc: expenditureSvc, userSvc: userSvc}
}

// Create 发起支出申请
// POST /api/v1/expenditures
func (h *ExpenditureHandler) Create(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.CreateExpenditureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 15001, "参数校验失败")
		return
	}

	exp, err := h.expenditureSvc.Create(c.Request.Context(), req.ProjectID, userID, req.Amount, req.Purpose, req.Remark)
	if err != nil {
		h.handleExpenditureError(c, err)
		return
	}
	response.Created(c, toExpenditureResponse(exp))
}

// Get 支出单详情
// GET /api/v1/expenditures/:id
func (h *ExpenditureHandler) Get(c *gin.Context) {
	id, err := intParam(c, "id")
	if err != nil {
		response.BadRequest(c, 15001, "参数校验失败")
		return
	}

	exp, err := h.expenditureSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleExpenditureError(c, err)
		return
	}
	response.OK(c, toExpenditureResponse(exp))
}

// ListByProject 项目支出列表
// GET /api/v1/expenditures?project_id=
func (h *ExpenditureHandler) ListByProject(c *gin.Context) {
	projectID := c.Query("project_id")
	if projectID == "" {
		response.BadRequest(c, 15001, "project_id不能为空")
		return
	}

	exps, err := h.expenditureSvc.ListByProject(c.Request.Context(), projectID)
	if err != nil {
		response.InternalError(c)
		return
	}

	list := make([]dto.ExpenditureResponse, len(exps))
	for i := range exps {
		list[i] = toExpenditureResponse(&exps[i])
	}
	response.OK(c, gin.H{"list": list})
}

// LeaderReview 负责人自审
// POST /api/v1/expenditures/:id/leader-review
func (h *ExpenditureHandler) LeaderReview(c *gin.Context) {
	id, err := intParam(c, "id")
	if err != nil {
		response.BadRequest(c, 15001, "参数校验失败")
		return
	}

	var req dto.LeaderReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 15001, "参数校验失败")
		return
	}

	actor, ok := h.loadActor(c)
	if !ok {
		return
	}

	exp, err := h.expenditureSvc.ApplyLeaderReview(c.Request.Context(), id, actor, req.Approved, req.Comment)
	if err != nil {
		h.handleExpenditureError(c, err)
		return
	}
	response.OK(c, toExpenditureResponse(exp))
}

// ApproveReview 通过节点审核
// POST /api/v1/expenditure-reviews/:id/approve
func (h *ExpenditureHandler) ApproveReview(c *gin.Context) {
	id, err := intParam(c, "id")
	if err != nil {
		response.BadRequest(c, 15001, "参数校验失败")
		return
	}

	var req dto.ExpenditureDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 15001, "参数校验失败")
		return
	}

	actor, ok := h.loadActor(c)
	if !ok {
		return
	}

	review, err := h.expenditureSvc.ApproveReview(c.Request.Context(), id, actor, req.Comment)
	if err != nil {
		h.handleExpenditureError(c, err)
		return
	}
	response.OK(c, review)
}

// RejectReview 驳回（终态）
// POST /api/v1/expenditure-reviews/:id/reject
func (h *ExpenditureHandler) RejectReview(c *gin.Context) {
	id, err := intParam(c, "id")
	if err != nil {
		response.BadRequest(c, 15001, "参数校验失败")
		return
	}

	var req dto.ExpenditureDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 15001, "参数校验失败")
		return
	}

	actor, ok := h.loadActor(c)
	if !ok {
		return
	}

	review, err := h.expenditureSvc.RejectReview(c.Request.Context(), id, actor, req.Comment)
	if err != nil {
		h.handleExpenditureError(c, err)
		return
	}
	response.OK(c, review)
}

// MyDuty 当前用户在支出单上的待办
// GET /api/v1/expenditures/:id/my-duty
func (h *ExpenditureHandler) MyDuty(c *gin.Context) {
	id, err := intParam(c, "id")
	if err != nil {
		response.BadRequest(c, 15001, "参数校验失败")
		return
	}

	actor, ok := h.loadActor(c)
	if !ok {
		return
	}

	duty, err := h.expenditureSvc.GetPendingForUser(c.Request.Context(), id, actor)
	if err != nil {
		h.handleExpenditureError(c, err)
		return
	}
	response.OK(c, gin.H{"duty": duty})
}

func (h *ExpenditureHandler) loadActor(c *gin.Context) (*model.User, bool) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return nil, false
	}
	actor, err := h.userSvc.GetByID(c.Request.Context(), userID)
	if err != nil {
		response.Unauthorized(c, 10002, "未认证")
		return nil, false
	}
	return actor, true
}

// handleExpenditureError 统一处理经费模块业务错误
func (h *ExpenditureHandler) handleExpenditureError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrExpenditureNotFound):
		response.NotFound(c, 15101, "经费支出单不存在")
	case errors.Is(err, service.ErrExpenditureReviewNotFound):
		response.NotFound(c, 15102, "经费审核记录不存在")
	case errors.Is(err, service.ErrExpenditureTerminal):
		response.BadRequest(c, 15103, "经费支出单已到终态")
	case errors.Is(err, service.ErrExpenditureInvalidAmount):
		response.BadRequest(c, 15104, "支出金额必须大于 0")
	case errors.Is(err, service.ErrBudgetExceeded):
		response.BadRequest(c, 15105, "支出金额超出项目可用经费")
	case errors.Is(err, service.ErrLeaderGateNotPending):
		response.BadRequest(c, 15106, "负责人自审已完成或未开启")
	case errors.Is(err, service.ErrReviewNotPending):
		response.BadRequest(c, 15107, "审核记录非待审状态")
	case errors.Is(err, service.ErrReviewStale):
		response.BadRequest(c, 15108, "流程已离开该节点，审核任务失效")
	case errors.Is(err, service.ErrActorMismatch):
		response.Forbidden(c, 15109, "无权处理该审核任务")
	case errors.Is(err, service.ErrNoAdminAssigned):
		response.Forbidden(c, 15110, "该范围未分配管理员")
	case errors.Is(err, service.ErrProjectNotFound):
		response.NotFound(c, 13101, "项目不存在")
	default:
		response.InternalError(c)
	}
}

func toExpenditureResponse(e *model.ProjectExpenditure) dto.ExpenditureResponse {
	return dto.ExpenditureResponse{
		ID:                 e.ID,
		ProjectID:          e.ProjectID,
		Amount:             e.Amount,
		Purpose:            e.Purpose,
		Remark:             e.Remark,
		Status:             e.Status,
		CurrentNodeID:      e.CurrentNodeID,
		LeaderReviewStatus: e.LeaderReviewStatus,
		ReviewComment:      e.ReviewComment,
		CreatedAt:          e.CreatedAt.Format(time.RFC3339),
	}
}

// [自证通过] internal/api/handler/expenditure_handler.go
