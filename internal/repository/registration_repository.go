package repository

import (
	"errors"
	"strings"

	"github.com/afiliados-next/internal/models"

	"gorm.io/gorm"
)

// RegistrationRepository 产品登记数据访问接口
type RegistrationRepository interface {
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) RegistrationRepository

	GetByID(id uint) (*models.Registration, error)
	GetByAffiliateID(affiliateID uint) (*models.Registration, error)
	Create(registration *models.Registration) error
	UpdateFields(id uint, updates map[string]interface{}) error
	CountByAffiliate(affiliateID uint) (int64, error)
	List(filter RegistrationListFilter) ([]models.Registration, int64, error)
}

// GormRegistrationRepository GORM 实现
type GormRegistrationRepository struct {
	db *gorm.DB
}

// NewRegistrationRepository 创建产品登记仓库
func NewRegistrationRepository(db *gorm.DB) *GormRegistrationRepository {
	return &GormRegistrationRepository{db: db}
}

// WithTx 绑定事务
func (r *GormRegistrationRepository) WithTx(tx *gorm.DB) RegistrationRepository {
	if tx == nil {
		return r
	}
	return &GormRegistrationRepository{db: tx}
}

// Transaction 执行事务
func (r *GormRegistrationRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

// GetByID 按ID获取登记
func (r *GormRegistrationRepository) GetByID(id uint) (*models.Registration, error) {
	if id == 0 {
		return nil, nil
	}
	var registration models.Registration
	if err := r.db.First(&registration, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &registration, nil
}

// GetByAffiliateID 按代理人获取登记
func (r *GormRegistrationRepository) GetByAffiliateID(affiliateID uint) (*models.Registration, error) {
	if affiliateID == 0 {
		return nil, nil
	}
	var registration models.Registration
	if err := r.db.Where("afiliado_id = ?", affiliateID).First(&registration).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &registration, nil
}

// Create 创建登记
func (r *GormRegistrationRepository) Create(registration *models.Registration) error {
	return r.db.Create(registration).Error
}

// UpdateFields 按字段部分更新登记
func (r *GormRegistrationRepository) UpdateFields(id uint, updates map[string]interface{}) error {
	if id == 0 || len(updates) == 0 {
		return nil
	}
	return r.db.Model(&models.Registration{}).Where("id = ?", id).Updates(updates).Error
}

// CountByAffiliate 统计代理人名下登记数量
func (r *GormRegistrationRepository) CountByAffiliate(affiliateID uint) (int64, error) {
	if affiliateID == 0 {
		return 0, nil
	}
	var total int64
	if err := r.db.Model(&models.Registration{}).Where("afiliado_id = ?", affiliateID).Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// List 查询登记列表
func (r *GormRegistrationRepository) List(filter RegistrationListFilter) ([]models.Registration, int64, error) {
	query := r.db.Model(&models.Registration{})

	if filter.AffiliateID != 0 {
		query = query.Where("afiliado_id = ?", filter.AffiliateID)
	}
	if keyword := strings.TrimSpace(filter.Keyword); keyword != "" {
		like := "%" + keyword + "%"
		condition, argCount := buildKeywordLikeCondition(r.db, []string{"nome_agente", "nome_produto", "whatsapp"})
		query = query.Where("("+condition+")", repeatLikeArgs(like, argCount)...)
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

	var rows []models.Registration
	if err := query.Order("id DESC").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
