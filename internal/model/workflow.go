package model

// ── 阶段常量 ──

const (
	PhaseApplication = "APPLICATION" // 立项
	PhaseMidTerm     = "MID_TERM"    // 中期
	PhaseClosure     = "CLOSURE"     // 结题
	PhaseBudget      = "BUDGET"      // 经费支出
)

// Phases 项目阶段的封闭集合（不含经费流程）
var Phases = []string{PhaseApplication, PhaseMidTerm, PhaseClosure}

// IsValidPhase 判断阶段标签是否合法
func IsValidPhase(phase string) bool {
	switch phase {
	case PhaseApplication, PhaseMidTerm, PhaseClosure, PhaseBudget:
		return true
	}
	return false
}

// ── 节点类型常量 ──

const (
	NodeTypeSubmit   = "SUBMIT"   // 提交节点（流程入口，学生/负责人）
	NodeTypeReview   = "REVIEW"   // 审核节点
	NodeTypeApproval = "APPROVAL" // 管理员确认节点
)

// ── 退回规则常量 ──

const (
	ReturnPolicyNone     = "NONE"     // 不允许退回
	ReturnPolicyStudent  = "STUDENT"  // 退回学生
	ReturnPolicyTeacher  = "TEACHER"  // 退回导师
	ReturnPolicyPrevious = "PREVIOUS" // 退回上一级
)

// WorkflowConfig 流程配置表 — 对应 workflow_configs
// 同一 (phase, batch) 允许多个版本，取 is_active 且版本号最大的一个；
// batch 为空表示全局默认配置。
type WorkflowConfig struct {
	ID       int64   `gorm:"primaryKey"                           json:"id"`
	Name     string  `gorm:"type:varchar(100);not null"           json:"name"`
	Phase    string  `gorm:"type:varchar(20);not null"            json:"phase"`
	Version  int     `gorm:"not null;default:1"                   json:"version"`
	BatchID  *string `gorm:"type:uuid"                            json:"batch_id,omitempty"`
	IsActive bool    `gorm:"not null;default:true"                json:"is_active"`
	IsLocked bool    `gorm:"not null;default:false"               json:"is_locked"`
	AuditedModel

	// 关联
	Nodes []WorkflowNode `gorm:"foreignKey:WorkflowID" json:"nodes,omitempty"`
}

// TableName 指定表名
func (WorkflowConfig) TableName() string { return "workflow_configs" }

// WorkflowNode 流程节点表 — 对应 workflow_nodes
// AllowedRejectTo 为允许退回的目标节点 ID 集合，必须全部位于本节点之前。
type WorkflowNode struct {
	ID                  int64      `gorm:"primaryKey"                       json:"id"`
	WorkflowID          int64      `gorm:"not null;index"                   json:"workflow_id"`
	Code                string     `gorm:"type:varchar(50);not null"        json:"code"`
	Name                string     `gorm:"type:varchar(100);not null"       json:"name"`
	NodeType            string     `gorm:"type:varchar(20);not null"        json:"node_type"`
	Role                string     `gorm:"type:varchar(20);not null"        json:"role"`
	ReviewLevel         string     `gorm:"type:varchar(20)"                 json:"review_level,omitempty"`
	RequireExpertReview bool       `gorm:"not null;default:false"           json:"require_expert_review"`
	ReturnPolicy        string     `gorm:"type:varchar(20);not null;default:'NONE'" json:"return_policy"`
	AllowedRejectTo     Int64Array `gorm:"type:bigint[]"                    json:"allowed_reject_to,omitempty"`
	Notice              string     `gorm:"type:text"                        json:"notice,omitempty"`
	SortOrder           int        `gorm:"not null;default:0"               json:"sort_order"`
	IsActive            bool       `gorm:"not null;default:true"            json:"is_active"`
	BaseModel

	// 关联
	Workflow *WorkflowConfig `gorm:"foreignKey:WorkflowID" json:"-"`
}

// TableName 指定表名
func (WorkflowNode) TableName() string { return "workflow_nodes" }

// WorkflowNodeDef 节点快照 — 引擎遍历时使用的只读节点定义
// 由 WorkflowNode 或内置默认流程转换而来，脱离存储层传递。
type WorkflowNodeDef struct {
	ID                  int64      `json:"id"`
	Code                string     `json:"code"`
	Name                string     `json:"name"`
	NodeType            string     `json:"node_type"`
	Role                string     `json:"role"`
	ReviewLevel         string     `json:"review_level"`
	RequireExpertReview bool       `json:"require_expert_review"`
	ReturnPolicy        string     `json:"return_policy"`
	AllowedRejectTo     Int64Array `json:"allowed_reject_to,omitempty"`
}

// Def 将存储节点转换为只读节点定义
func (n *WorkflowNode) Def() WorkflowNodeDef {
	return WorkflowNodeDef{
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

// [自证通过] internal/model/workflow.go
