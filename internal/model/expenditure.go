package model

import "time"

// ── 经费支出状态常量 ──

const (
	ExpenditureStatusDraft    = "DRAFT"    // 草稿（尚未进入流程）
	ExpenditureStatusPending  = "PENDING"  // 流程审批中
	ExpenditureStatusApproved = "APPROVED" // 已通过（终态）
	ExpenditureStatusRejected = "REJECTED" // 已驳回（终态）
)

// ── 负责人自审状态常量 ──

const (
	LeaderReviewPending  = "PENDING"  // 待负责人审核
	LeaderReviewApproved = "APPROVED" // 负责人通过
	LeaderReviewRejected = "REJECTED" // 负责人驳回
)

// ProjectExpenditure 项目经费支出表 — 对应 project_expenditures
// 两级闸门：先由项目负责人自审（创建人即负责人时自动跳过），
// 通过后进入 BUDGET 流程图逐节点审批。
type ProjectExpenditure struct {
	ID                  int64      `gorm:"primaryKey"                                 json:"id"`
	ProjectID           string     `gorm:"type:uuid;not null;index"                   json:"project_id"`
	Amount              float64    `gorm:"type:numeric(12,2);not null"                json:"amount"`
	Purpose             string     `gorm:"type:varchar(200);not null"                 json:"purpose"`
	Remark              string     `gorm:"type:text;not null;default:''"              json:"remark,omitempty"`
	Status              string     `gorm:"type:varchar(20);not null;default:'DRAFT'"  json:"status"`
	CurrentNodeID       *int64     `json:"current_node_id,omitempty"`
	LeaderReviewStatus  string     `gorm:"type:varchar(20);not null;default:'PENDING'" json:"leader_review_status"`
	LeaderReviewedBy    *string    `gorm:"type:uuid"                                  json:"leader_reviewed_by,omitempty"`
	LeaderReviewedAt    *time.Time `json:"leader_reviewed_at,omitempty"`
	LeaderReviewComment string     `gorm:"type:text;not null;default:''"              json:"leader_review_comment,omitempty"`
	ReviewedBy          *string    `gorm:"type:uuid"                                  json:"reviewed_by,omitempty"`
	ReviewedAt          *time.Time `json:"reviewed_at,omitempty"`
	ReviewComment       string     `gorm:"type:text;not null;default:''"              json:"review_comment,omitempty"`
	AuditedModel

	// 关联
	Project *Project `gorm:"foreignKey:ProjectID;references:ProjectID" json:"-"`
}

// TableName 指定表名
func (ProjectExpenditure) TableName() string { return "project_expenditures" }

// IsTerminal 是否已到终态
func (e *ProjectExpenditure) IsTerminal() bool {
	return e.Status == ExpenditureStatusApproved || e.Status == ExpenditureStatusRejected
}

// ProjectExpenditureReview 经费审核记录表 — 对应 project_expenditure_reviews
type ProjectExpenditureReview struct {
	ID             int64      `gorm:"primaryKey"                                  json:"id"`
	ExpenditureID  int64      `gorm:"not null;index"                              json:"expenditure_id"`
	WorkflowNodeID int64      `gorm:"not null"                                    json:"workflow_node_id"`
	ReviewerID     *string    `gorm:"type:uuid"                                   json:"reviewer_id,omitempty"`
	Status         string     `gorm:"type:varchar(20);not null;default:'PENDING'" json:"status"`
	Comments       string     `gorm:"type:text;not null;default:''"               json:"comments,omitempty"`
	ReviewedAt     *time.Time `json:"reviewed_at,omitempty"`
	CreatedAt      time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP"          json:"created_at"`

	// 关联
	Expenditure  *ProjectExpenditure `gorm:"foreignKey:ExpenditureID"  json:"-"`
	WorkflowNode *WorkflowNode       `gorm:"foreignKey:WorkflowNodeID" json:"workflow_node,omitempty"`
}

// TableName 指定表名
func (ProjectExpenditureReview) TableName() string { return "project_expenditure_reviews" }

// [自证通过] internal/model/expenditure.go
