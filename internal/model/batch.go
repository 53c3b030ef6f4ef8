package model

// ── 批次状态常量 ──

const (
	BatchStatusDraft     = "draft"     // 草稿
	BatchStatusPublished = "published" // 已发布
	BatchStatusRunning   = "running"   // 进行中
	BatchStatusArchived  = "archived"  // 已归档
)

// ProjectBatch 项目批次表（多批次/多年度） — 对应 project_batches
// 流程配置、阶段数据范围与管理员分配均挂在批次之下；
// 引擎的所有调用都显式传入批次，不存在"当前批次"全局态。
type ProjectBatch struct {
	BatchID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"batch_id"`
	Name    string `gorm:"type:varchar(100);not null"                     json:"name"`
	Year    int    `gorm:"not null"                                       json:"year"`
	Code    string `gorm:"type:varchar(50);not null;uniqueIndex"          json:"code"`
	Status  string `gorm:"type:varchar(20);not null;default:'draft'"      json:"status"`
	BaseModel
}

// TableName 指定表名
func (ProjectBatch) TableName() string { return "project_batches" }

// [自证通过] internal/model/batch.go
