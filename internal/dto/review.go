package dto

import "encoding/json"

// ── 评审模块 DTO ──

// ApproveReviewRequest 通过审核请求
type ApproveReviewRequest struct {
	Comment string `json:"comment" binding:"max=2000"`
	Score   *int   `json:"score"   binding:"omitempty,gte=0,lte=100"`
	// ScoreDetails 分项评分明细（指标 → 得分），专家评分时提交
	ScoreDetails map[string]int `json:"score_details" binding:"omitempty,dive,gte=0,lte=100"`
	// Rating 结题评价等级，仅结题阶段有效
	Rating string `json:"rating" binding:"omitempty,oneof=EXCELLENT GOOD QUALIFIED UNQUALIFIED DEFERRED"`
	// ApprovedBudget 末节点通过立项时核定的经费
	ApprovedBudget *float64 `json:"approved_budget" binding:"omitempty,gte=0"`
}

// RejectReviewRequest 退回/驳回请求
type RejectReviewRequest struct {
	Comment string `json:"comment" binding:"required,max=2000"`
	// TargetNodeID 指定时流程回落到该更早节点，本轮继续
	TargetNodeID *int64 `json:"target_node_id"`
}

// AssignExpertGroupRequest 分配专家组请求
type AssignExpertGroupRequest struct {
	ProjectID  string `json:"project_id"  binding:"required,uuid"`
	InstanceID int64  `json:"instance_id" binding:"required"`
	NodeID     int64  `json:"node_id"     binding:"required"`
	GroupID    int64  `json:"group_id"    binding:"required"`
}

// ReviewResponse 评审记录响应
type ReviewResponse struct {
	ID              int64           `json:"id"`
	ProjectID       string          `json:"project_id"`
	Phase           string          `json:"phase"`
	ReviewLevel     string          `json:"review_level,omitempty"`
	PhaseInstanceID int64           `json:"phase_instance_id"`
	WorkflowNodeID  *int64          `json:"workflow_node_id,omitempty"`
	ReviewerID      *string         `json:"reviewer_id,omitempty"`
	Status          string          `json:"status"`
	Comments        string          `json:"comments,omitempty"`
	Score           *int            `json:"score,omitempty"`
	ScoreDetails    json.RawMessage `json:"score_details,omitempty"`
	ClosureRating   string          `json:"closure_rating,omitempty"`
	ReviewedAt      string          `json:"reviewed_at,omitempty"`
	CreatedAt       string          `json:"created_at"`
}

// [自证通过] internal/dto/review.go
