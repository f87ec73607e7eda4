package models

import (
	"time"
)

// Registration 代理人产品登记
// 可选字段留空时落库为 NULL，保持“缺省即不存在”语义
type Registration struct {
	ID                uint        `gorm:"primarykey" json:"id"`                                                   // 主键
	AffiliateID       uint        `gorm:"column:afiliado_id;not null;uniqueIndex" json:"afiliado_id"`             // 所属代理人
	NomeAgente        string      `gorm:"column:nome_agente;not null" json:"nome_agente"`                         // 代理人昵称
	Whatsapp          string      `gorm:"column:whatsapp;not null" json:"whatsapp"`                               // WhatsApp 号码
	NomeProduto       string      `gorm:"column:nome_produto;not null" json:"nome_produto"`                       // 产品名称
	LinkPaginaVendas  string      `gorm:"column:link_pagina_vendas;not null" json:"link_pagina_vendas"`           // 销售页链接
	DescricaoProduto  string      `gorm:"column:descricao_produto;type:text;not null" json:"descricao_produto"`   // 产品描述
	Checkout01        string      `gorm:"column:checkout_01;not null" json:"checkout_01"`                         // 结算链接1
	Checkout02        *string     `gorm:"column:checkout_02" json:"checkout_02,omitempty"`                        // 结算链接2
	Checkout03        *string     `gorm:"column:checkout_03" json:"checkout_03,omitempty"`                        // 结算链接3
	Checkout04        *string     `gorm:"column:checkout_04" json:"checkout_04,omitempty"`                        // 结算链接4
	Checkout05        *string     `gorm:"column:checkout_05" json:"checkout_05,omitempty"`                        // 结算链接5
	LinkInstagram     *string     `gorm:"column:link_instagram" json:"link_instagram,omitempty"`                  // Instagram 链接
	VideosURLs        StringArray `gorm:"column:videos_urls;type:json" json:"videos_urls"`                        // 视频文件
	ImagensProdutoURLs StringArray `gorm:"column:imagens_produto_urls;type:json" json:"imagens_produto_urls"`     // 产品图片
	ImagensProvaURLs  StringArray `gorm:"column:imagens_prova_social_urls;type:json" json:"imagens_prova_social_urls"` // 社证图片
	DocumentosURLs    StringArray `gorm:"column:documentos_urls;type:json" json:"documentos_urls"`                // 文档文件
	CreatedAt         time.Time   `gorm:"index" json:"created_at"`                                                // 创建时间
	UpdatedAt         time.Time   `gorm:"index" json:"updated_at"`                                                // 更新时间
}

// TableName 指定表名
func (Registration) TableName() string {
	return "cadastros_afiliados"
}
