package repository

import (
	"github.com/afiliados-next/internal/models"

	"gorm.io/gorm"
)

// AffiliateLoginLogRepository 代理人登录日志数据访问接口
type AffiliateLoginLogRepository interface {
	Create(log *models.AffiliateLoginLog) error
	ListAdmin(filter AffiliateLoginLogListFilter) ([]models.AffiliateLoginLog, int64, error)
	ListByAffiliate(affiliateID uint, page, pageSize int) ([]models.AffiliateLoginLog, int64, error)
}

// GormAffiliateLoginLogRepository GORM 实现
type GormAffiliateLoginLogRepository struct {
	db *gorm.DB
}

// NewAffiliateLoginLogRepository 创建登录日志仓库
func NewAffiliateLoginLogRepository(db *gorm.DB) *GormAffiliateLoginLogRepository {
	return &GormAffiliateLoginLogRepository{db: db}
}

// Create 创建登录日志
func (r *GormAffiliateLoginLogRepository) Create(log *models.AffiliateLoginLog) error {
	if log == nil {
		return nil
	}
	return r.db.Create(log).Error
}

// ListAdmin 管理端查询登录日志
func (r *GormAffiliateLoginLogRepository) ListAdmin(filter AffiliateLoginLogListFilter) ([]models.AffiliateLoginLog, int64, error) {
	query := r.db.Model(&models.AffiliateLoginLog{})
	if filter.AffiliateID != 0 {
		query = query.Where("afiliado_id = ?", filter.AffiliateID)
	}
	if filter.Identifier != "" {
		query = query.Where("identifier = ?", filter.Identifier)
	}
	if filter.Method != "" {
		query = query.Where("method = ?", filter.Method)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.FailReason != "" {
		query = query.Where("fail_reason = ?", filter.FailReason)
	}
	if filter.ClientIP != "" {
		query = query.Where("client_ip = ?", filter.ClientIP)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = applyPagination(query, filter.Page, filter.PageSize)

	var logs []models.AffiliateLoginLog
	if err := query.Order("id desc").Find(&logs).Error; err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}

// ListByAffiliate 代理人侧查询自己的登录日志
func (r *GormAffiliateLoginLogRepository) ListByAffiliate(affiliateID uint, page, pageSize int) ([]models.AffiliateLoginLog, int64, error) {
	query := r.db.Model(&models.AffiliateLoginLog{}).Where("afiliado_id = ?", affiliateID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	if offset < 0 {
		offset = 0
	}

	var logs []models.AffiliateLoginLog
	if err := query.Order("id desc").Limit(pageSize).Offset(offset).Find(&logs).Error; err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}
