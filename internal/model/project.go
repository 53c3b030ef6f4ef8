package model

// ── 项目状态常量（由流程引擎的状态迁移推导，呈现层只读） ──

const (
	ProjectStatusDraft             = "DRAFT"                // 草稿
	ProjectStatusTeacherAuditing   = "TEACHER_AUDITING"     // 导师审核中
	ProjectStatusCollegeAuditing   = "COLLEGE_AUDITING"     // 学院审核中
	ProjectStatusLevel1Auditing    = "LEVEL1_AUDITING"      // 校级审核中
	ProjectStatusApplicationReturn = "APPLICATION_RETURNED" // 立项退回
	ProjectStatusInProgress        = "IN_PROGRESS"          // 立项通过，进行中
	ProjectStatusMidTermReviewing  = "MID_TERM_REVIEWING"   // 中期审核中
	ProjectStatusMidTermReturned   = "MID_TERM_RETURNED"    // 中期退回
	ProjectStatusReadyForClosure   = "READY_FOR_CLOSURE"    // 可申请结题
	ProjectStatusClosureReviewing  = "CLOSURE_REVIEWING"    // 结题审核中
	ProjectStatusClosureReturned   = "CLOSURE_RETURNED"     // 结题退回
	ProjectStatusClosed            = "CLOSED"               // 已结题
)

// Project 项目表 — 对应 projects
// 立项/中期/结题三个阶段各自拥有独立的阶段实例与审核历史。
type Project struct {
	ProjectID      string   `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"project_id"`
	ProjectNo      string   `gorm:"type:varchar(50);uniqueIndex"                   json:"project_no"`
	Title          string   `gorm:"type:varchar(200);not null"                     json:"title"`
	LeaderID       string   `gorm:"type:uuid;not null"                             json:"leader_id"`
	College        string   `gorm:"type:varchar(100)"                              json:"college,omitempty"`
	CategoryCode   string   `gorm:"type:varchar(50)"                               json:"category_code,omitempty"` // 项目类别字典编码
	LevelCode      string   `gorm:"type:varchar(50)"                               json:"level_code,omitempty"`    // 项目级别字典编码
	IsKeyField     bool     `gorm:"not null;default:false"                         json:"is_key_field"`            // 是否重点领域
	BatchID        string   `gorm:"type:uuid;not null"                             json:"batch_id"`
	Status         string   `gorm:"type:varchar(30);not null;default:'DRAFT'"      json:"status"`
	Budget         float64  `gorm:"type:numeric(12,2);not null;default:0"          json:"budget"`
	ApprovedBudget *float64 `gorm:"type:numeric(12,2)"                             json:"approved_budget,omitempty"`
	BaseModel

	// 关联
	Leader   *User         `gorm:"foreignKey:LeaderID;references:UserID" json:"leader,omitempty"`
	Batch    *ProjectBatch `gorm:"foreignKey:BatchID;references:BatchID" json:"batch,omitempty"`
	Advisors []User        `gorm:"many2many:project_advisors;foreignKey:ProjectID;joinForeignKey:ProjectID;references:UserID;joinReferences:UserID" json:"advisors,omitempty"`
}

// TableName 指定表名
func (Project) TableName() string { return "projects" }

// HasAdvisor 项目是否配有导师（流程遍历时跳过导师节点的判定依据）
func (p *Project) HasAdvisor() bool { return len(p.Advisors) > 0 }

// IsAdvisor 指定用户是否为本项目导师
func (p *Project) IsAdvisor(userID string) bool {
	for _, a := range p.Advisors {
		if a.UserID == userID {
			return true
		}
	}
	return false
}

// [自证通过] internal/model/project.go
