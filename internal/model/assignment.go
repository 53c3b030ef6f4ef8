package model

// ── 数据范围维度常量 ──

const (
	ScopeTypeCollege  = "COLLEGE"          // 按负责人学院
	ScopeTypeCategory = "PROJECT_CATEGORY" // 按项目类别
	ScopeTypeLevel    = "PROJECT_LEVEL"    // 按项目级别
	ScopeTypeKeyField = "KEY_FIELD"        // 按是否重点领域
)

// PhaseScopeConfig 阶段数据范围配置表 — 对应 phase_scope_configs
// 声明某批次某阶段按哪个维度切分管理员的管辖范围。
// 唯一约束 (batch_id, phase)。
type PhaseScopeConfig struct {
	ID        int64  `gorm:"primaryKey"                  json:"id"`
	BatchID   string `gorm:"type:uuid;not null;uniqueIndex:uniq_scope_batch_phase" json:"batch_id"`
	Phase     string `gorm:"type:varchar(20);not null;uniqueIndex:uniq_scope_batch_phase" json:"phase"`
	ScopeType string `gorm:"type:varchar(30);not null"   json:"scope_type"`
	BaseModel
}

// TableName 指定表名
func (PhaseScopeConfig) TableName() string { return "phase_scope_configs" }

// AdminAssignment 管理员分配表 — 对应 admin_assignments
// (批次, 阶段, 节点, 范围值) 唯一确定一名有权处理的管理员。
type AdminAssignment struct {
	ID             int64  `gorm:"primaryKey"                json:"id"`
	BatchID        string `gorm:"type:uuid;not null;index"  json:"batch_id"`
	Phase          string `gorm:"type:varchar(20);not null" json:"phase"`
	WorkflowNodeID int64  `gorm:"not null"                  json:"workflow_node_id"`
	ScopeValue     string `gorm:"type:varchar(100);not null" json:"scope_value"`
	AdminUserID    string `gorm:"type:uuid;not null"        json:"admin_user_id"`
	BaseModel

	// 关联
	AdminUser *User `gorm:"foreignKey:AdminUserID;references:UserID" json:"admin_user,omitempty"`
}

// TableName 指定表名
func (AdminAssignment) TableName() string { return "admin_assignments" }

// ExpertGroup 专家组表 — 对应 expert_groups
// 分配给专家组即为组内每位成员各建一条待决评审记录。
type ExpertGroup struct {
	ID      int64  `gorm:"primaryKey"                 json:"id"`
	Name    string `gorm:"type:varchar(100);not null" json:"name"`
	College string `gorm:"type:varchar(100)"          json:"college,omitempty"`
	BaseModel

	// 关联
	Members []User `gorm:"many2many:expert_group_members;foreignKey:ID;joinForeignKey:GroupID;references:UserID;joinReferences:UserID" json:"members,omitempty"`
}

// TableName 指定表名
func (ExpertGroup) TableName() string { return "expert_groups" }

// [自证通过] internal/model/assignment.go
