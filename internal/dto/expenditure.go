package dto

// ── 经费模块 DTO ──

// CreateExpenditureRequest 发起支出申请请求
type CreateExpenditureRequest struct {
	ProjectID string  `json:"project_id" binding:"required,uuid"`
	Amount    float64 `json:"amount"     binding:"required,gt=0"`
	Purpose   string  `json:"purpose"    binding:"required,max=200"`
	Remark    string  `json:"remark"     binding:"max=2000"`
}

// LeaderReviewRequest 负责人自审请求
type LeaderReviewRequest struct {
	Approved bool   `json:"approved"`
	Comment  string `json:"comment" binding:"max=2000"`
}

// ExpenditureDecisionRequest 经费节点审核请求
type ExpenditureDecisionRequest struct {
	Comment string `json:"comment" binding:"max=2000"`
}

// ExpenditureResponse 支出单响应
type ExpenditureResponse struct {
	ID                 int64   `json:"id"`
	ProjectID          string  `json:"project_id"`
	Amount             float64 `json:"amount"`
	Purpose            string  `json:"purpose"`
	Remark             string  `json:"remark,omitempty"`
	Status             string  `json:"status"`
	CurrentNodeID      *int64  `json:"current_node_id,omitempty"`
	LeaderReviewStatus string  `json:"leader_review_status"`
	ReviewComment      string  `json:"review_comment,omitempty"`
	CreatedAt          string  `json:"created_at"`
}

// [自证通过] internal/dto/expenditure.go
