package models

import (
	"time"

	"gorm.io/gorm"
)

// AffiliateProfile 推广代理人档案
// senha_hash 为空表示该档案仅通过推广码登录
type AffiliateProfile struct {
	ID            uint           `gorm:"primarykey" json:"id"`                                        // 主键
	Email         string         `gorm:"uniqueIndex;not null" json:"email"`                           // 邮箱（小写）
	NomeCompleto  string         `gorm:"column:nome_completo;not null" json:"nome_completo"`          // 姓名
	Telefone      string         `gorm:"column:telefone;not null" json:"telefone"`                    // 联系电话
	SenhaHash     string         `gorm:"column:senha_hash" json:"-"`                                  // 密码哈希（不返回给前端）
	AffiliateCode string         `gorm:"column:codigo_afiliado;type:varchar(8);not null;uniqueIndex" json:"codigo_afiliado"` // 推广码
	TotalCadastros int           `gorm:"column:total_cadastros;not null;default:0" json:"total_cadastros"` // 累计提交数
	UltimoAcesso  *time.Time     `gorm:"column:ultimo_acesso;index" json:"ultimo_acesso"`             // 最后访问时间
	CreatedAt     time.Time      `gorm:"index" json:"created_at"`                                     // 创建时间
	UpdatedAt     time.Time      `gorm:"index" json:"updated_at"`                                     // 更新时间
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`                                              // 软删除时间
}

// TableName 指定表名
func (AffiliateProfile) TableName() string {
	return "afiliados_perfis"
}
