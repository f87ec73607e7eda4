package repository

import "time"

// AffiliateListFilter 查询代理人档案列表的过滤条件
type AffiliateListFilter struct {
	Page         int
	PageSize     int
	Keyword      string
	Code         string
	AccessFrom   *time.Time
	AccessTo     *time.Time
	CreatedFrom  *time.Time
	CreatedTo    *time.Time
}

// RegistrationListFilter 查询产品登记列表的过滤条件
type RegistrationListFilter struct {
	Page        int
	PageSize    int
	AffiliateID uint
	Keyword     string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// AffiliateLoginLogListFilter 查询登录日志列表的过滤条件
type AffiliateLoginLogListFilter struct {
	Page        int
	PageSize    int
	AffiliateID uint
	Identifier  string
	Method      string
	Status      string
	FailReason  string
	ClientIP    string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}
