package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/afiliados-next/internal/models"

	"gorm.io/gorm"
)

// AffiliateRepository 代理人档案数据访问接口
type AffiliateRepository interface {
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) AffiliateRepository

	GetByID(id uint) (*models.AffiliateProfile, error)
	GetByEmail(email string) (*models.AffiliateProfile, error)
	GetByCode(code string) (*models.AffiliateProfile, error)
	Create(profile *models.AffiliateProfile) error
	Update(profile *models.AffiliateProfile) error
	UpdateFields(id uint, updates map[string]interface{}) error
	StampAccess(id uint, at time.Time) error
	IncrementTotalCadastros(id uint, at time.Time) error
	List(filter AffiliateListFilter) ([]models.AffiliateProfile, int64, error)
}

// GormAffiliateRepository GORM 实现
type GormAffiliateRepository struct {
	db *gorm.DB
}

// NewAffiliateRepository 创建代理人档案仓库
func NewAffiliateRepository(db *gorm.DB) *GormAffiliateRepository {
	return &GormAffiliateRepository{db: db}
}

// WithTx 绑定事务
func (r *GormAffiliateRepository) WithTx(tx *gorm.DB) AffiliateRepository {
	if tx == nil {
		return r
	}
	return &GormAffiliateRepository{db: tx}
}

// Transaction 执行事务
func (r *GormAffiliateRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

// GetByID 按ID获取档案
func (r *GormAffiliateRepository) GetByID(id uint) (*models.AffiliateProfile, error) {
	if id == 0 {
		return nil, nil
	}
	var profile models.AffiliateProfile
	if err := r.db.First(&profile, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &profile, nil
}

// GetByEmail 按邮箱获取档案
func (r *GormAffiliateRepository) GetByEmail(email string) (*models.AffiliateProfile, error) {
	normalized := strings.ToLower(strings.TrimSpace(email))
	if normalized == "" {
		return nil, nil
	}
	var profile models.AffiliateProfile
	if err := r.db.Where("email = ?", normalized).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &profile, nil
}

// GetByCode 按推广码获取档案
func (r *GormAffiliateRepository) GetByCode(code string) (*models.AffiliateProfile, error) {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	if normalized == "" {
		return nil, nil
	}
	var profile models.AffiliateProfile
	if err := r.db.Where("codigo_afiliado = ?", normalized).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &profile, nil
}

// Create 创建档案
func (r *GormAffiliateRepository) Create(profile *models.AffiliateProfile) error {
	return r.db.Create(profile).Error
}

// Update 更新档案
func (r *GormAffiliateRepository) Update(profile *models.AffiliateProfile) error {
	return r.db.Save(profile).Error
}

// UpdateFields 按字段更新档案
func (r *GormAffiliateRepository) UpdateFields(id uint, updates map[string]interface{}) error {
	if id == 0 || len(updates) == 0 {
		return nil
	}
	return r.db.Model(&models.AffiliateProfile{}).Where("id = ?", id).Updates(updates).Error
}

// StampAccess 记录最后访问时间
func (r *GormAffiliateRepository) StampAccess(id uint, at time.Time) error {
	if id == 0 {
		return nil
	}
	return r.db.Model(&models.AffiliateProfile{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"ultimo_acesso": at,
			"updated_at":    at,
		}).Error
}

// IncrementTotalCadastros 累加提交数
func (r *GormAffiliateRepository) IncrementTotalCadastros(id uint, at time.Time) error {
	if id == 0 {
		return nil
	}
	return r.db.Model(&models.AffiliateProfile{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"total_cadastros": gorm.Expr("total_cadastros + 1"),
			"updated_at":      at,
		}).Error
}

// List 查询档案列表
func (r *GormAffiliateRepository) List(filter AffiliateListFilter) ([]models.AffiliateProfile, int64, error) {
	query := r.db.Model(&models.AffiliateProfile{})

	if code := strings.TrimSpace(filter.Code); code != "" {
		query = query.Where("codigo_afiliado = ?", strings.ToUpper(code))
	}
	if keyword := strings.TrimSpace(filter.Keyword); keyword != "" {
		like := "%" + keyword + "%"
		condition, argCount := buildKeywordLikeCondition(r.db, []string{"email", "nome_completo", "codigo_afiliado"})
		query = query.Where("("+condition+")", repeatLikeArgs(like, argCount)...)
	}
	if filter.AccessFrom != nil {
		query = query.Where("ultimo_acesso >= ?", *filter.AccessFrom)
	}
	if filter.AccessTo != nil {
		query = query.Where("ultimo_acesso <= ?", *filter.AccessTo)
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

	var rows []models.AffiliateProfile
	if err := query.Order("id DESC").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
