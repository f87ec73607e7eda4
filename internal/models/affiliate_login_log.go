package models

import "time"

// AffiliateLoginLog 代理人登录日志
// 说明：记录身份解析成功或失败行为，用于后台审计。
type AffiliateLoginLog struct {
	ID          uint      `gorm:"primarykey" json:"id"`                       // 主键
	AffiliateID uint      `gorm:"column:afiliado_id;index" json:"afiliado_id"` // 代理人ID（失败时可为0）
	Identifier  string    `gorm:"index;not null" json:"identifier"`           // 登录标识（邮箱或推广码）
	Method      string    `gorm:"type:varchar(32);index;not null" json:"method"` // 登录方式（code/email_password）
	Status      string    `gorm:"index;not null" json:"status"`               // 登录结果（success/failed）
	FailReason  string    `gorm:"index" json:"fail_reason"`                   // 失败原因枚举
	ClientIP    string    `gorm:"type:varchar(64);index" json:"client_ip"`    // 客户端IP
	UserAgent   string    `gorm:"type:text" json:"user_agent"`                // 客户端UA
	RequestID   string    `gorm:"type:varchar(64);index" json:"request_id"`   // 请求追踪ID
	CreatedAt   time.Time `gorm:"index" json:"created_at"`                    // 记录时间
}

// TableName 指定表名
func (AffiliateLoginLog) TableName() string {
	return "afiliados_login_logs"
}
