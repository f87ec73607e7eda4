package service

import (
	"context"
	"time"

	"github.com/afiliados-next/internal/constants"
	"github.com/afiliados-next/internal/logger"
	"github.com/afiliados-next/internal/models"
	"github.com/afiliados-next/internal/queue"
	"github.com/afiliados-next/internal/repository"

	"gorm.io/gorm"
)

// 被移除文件的清理延迟，给仍缓存旧链接的客户端留出时间
const storageCleanupDelay = 10 * time.Minute

// RegistrationService 产品登记服务
// 负责创建与增量更新代理人的登记档案
type RegistrationService struct {
	registrationRepo repository.RegistrationRepository
	affiliateRepo    repository.AffiliateRepository
	notifier         Notifier
	queueClient      *queue.Client
}

// NewRegistrationService 创建产品登记服务
func NewRegistrationService(
	registrationRepo repository.RegistrationRepository,
	affiliateRepo repository.AffiliateRepository,
	notifier Notifier,
	queueClient *queue.Client,
) *RegistrationService {
	return &RegistrationService{
		registrationRepo: registrationRepo,
		affiliateRepo:    affiliateRepo,
		notifier:         notifier,
		queueClient:      queueClient,
	}
}

// RegistrationPreview 登记预览视图
type RegistrationPreview struct {
	Profile      *models.AffiliateProfile `json:"profile"`
	Registration *models.Registration     `json:"registration"`
}

// Save 保存登记档案
// 无现有档案时创建，有档案时仅更新变更字段
// 提交内容与现有档案完全一致时返回 ErrNoChanges，不产生写操作
func (s *RegistrationService) Save(ctx context.Context, affiliateID uint, input RegistrationInput) (*models.Registration, bool, error) {
	if affiliateID == 0 {
		return nil, false, ErrNotFound
	}
	profile, err := s.affiliateRepo.GetByID(affiliateID)
	if err != nil {
		return nil, false, err
	}
	if profile == nil {
		return nil, false, ErrNotFound
	}

	input = normalizeRegistrationInput(input)
	if errs := validateRegistrationInput(input); errs != nil {
		return nil, false, errs
	}

	existing, err := s.registrationRepo.GetByAffiliateID(affiliateID)
	if err != nil {
		return nil, false, err
	}

	if existing == nil {
		registration, createErr := s.create(ctx, profile, input)
		if createErr != nil {
			return nil, false, createErr
		}
		return registration, true, nil
	}

	registration, updateErr := s.update(ctx, profile, existing, input)
	if updateErr != nil {
		return nil, false, updateErr
	}
	return registration, false, nil
}

func (s *RegistrationService) create(ctx context.Context, profile *models.AffiliateProfile, input RegistrationInput) (*models.Registration, error) {
	registration := &models.Registration{
		AffiliateID:        profile.ID,
		NomeAgente:         input.NomeAgente,
		Whatsapp:           input.WhatsApp,
		NomeProduto:        input.NomeProduto,
		LinkPaginaVendas:   input.LinkPaginaVendas,
		DescricaoProduto:   input.DescricaoProduto,
		Checkout01:         input.Checkout01,
		Checkout02:         nullableString(input.Checkout02),
		Checkout03:         nullableString(input.Checkout03),
		Checkout04:         nullableString(input.Checkout04),
		Checkout05:         nullableString(input.Checkout05),
		LinkInstagram:      nullableString(input.LinkInstagram),
		VideosURLs:         models.StringArray(input.VideosURLs),
		ImagensProdutoURLs: models.StringArray(input.ImagensProduto),
		ImagensProvaURLs:   models.StringArray(input.ImagensProva),
		DocumentosURLs:     models.StringArray(input.Documentos),
	}

	now := time.Now()
	err := s.registrationRepo.Transaction(func(tx *gorm.DB) error {
		if err := s.registrationRepo.WithTx(tx).Create(registration); err != nil {
			return err
		}
		return s.affiliateRepo.WithTx(tx).IncrementTotalCadastros(profile.ID, now)
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, constants.NotificationEventRegistrationReceived, registration, profile)
	return registration, nil
}

func (s *RegistrationService) update(ctx context.Context, profile *models.AffiliateProfile, existing *models.Registration, input RegistrationInput) (*models.Registration, error) {
	updates := registrationUpdates(existing, input)
	if len(updates) == 0 {
		return existing, ErrNoChanges
	}

	removed := s.collectRemovedURLs(existing, input, updates)

	if err := s.registrationRepo.UpdateFields(existing.ID, updates); err != nil {
		return nil, err
	}

	if len(removed) > 0 {
		if err := s.queueClient.EnqueueStorageCleanup(queue.StorageCleanupPayload{URLs: removed}, storageCleanupDelay); err != nil {
			logger.Warnw("registration_enqueue_storage_cleanup_failed",
				"registration_id", existing.ID,
				"url_count", len(removed),
				"error", err)
		}
	}

	updated, err := s.registrationRepo.GetByID(existing.ID)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, ErrNotFound
	}

	s.notify(ctx, constants.NotificationEventRegistrationUpdated, updated, profile)
	return updated, nil
}

func (s *RegistrationService) collectRemovedURLs(existing *models.Registration, input RegistrationInput, updates map[string]interface{}) []string {
	var removed []string
	collections := []struct {
		column   string
		current  models.StringArray
		incoming []string
	}{
		{"videos_urls", existing.VideosURLs, input.VideosURLs},
		{"imagens_produto_urls", existing.ImagensProdutoURLs, input.ImagensProduto},
		{"imagens_prova_social_urls", existing.ImagensProvaURLs, input.ImagensProva},
		{"documentos_urls", existing.DocumentosURLs, input.Documentos},
	}
	for _, item := range collections {
		if _, changed := updates[item.column]; !changed {
			continue
		}
		removed = append(removed, removedURLs(item.current, item.incoming)...)
	}
	return removed
}

func (s *RegistrationService) notify(ctx context.Context, eventType string, registration *models.Registration, profile *models.AffiliateProfile) {
	if s.notifier == nil {
		return
	}
	event := NotificationEvent{
		EventType: eventType,
		BizType:   constants.NotificationBizTypeRegistration,
		BizID:     registration.ID,
		Data: models.JSON{
			"affiliate_id":    profile.ID,
			"codigo_afiliado": profile.AffiliateCode,
			"nome_agente":     registration.NomeAgente,
			"nome_produto":    registration.NomeProduto,
		},
	}
	if err := s.notifier.Notify(ctx, event); err != nil {
		logger.Warnw("registration_notify_failed",
			"event_type", eventType,
			"registration_id", registration.ID,
			"error", err)
	}
}

// Preview 返回代理人档案与登记的合并视图
func (s *RegistrationService) Preview(affiliateID uint) (*RegistrationPreview, error) {
	if affiliateID == 0 {
		return nil, ErrNotFound
	}
	profile, err := s.affiliateRepo.GetByID(affiliateID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, ErrNotFound
	}
	registration, err := s.registrationRepo.GetByAffiliateID(affiliateID)
	if err != nil {
		return nil, err
	}
	return &RegistrationPreview{
		Profile:      profile,
		Registration: registration,
	}, nil
}

// GetByAffiliate 获取代理人的登记档案
func (s *RegistrationService) GetByAffiliate(affiliateID uint) (*models.Registration, error) {
	if affiliateID == 0 {
		return nil, ErrNotFound
	}
	return s.registrationRepo.GetByAffiliateID(affiliateID)
}

// ListAdmin 管理端登记列表
func (s *RegistrationService) ListAdmin(filter repository.RegistrationListFilter) ([]models.Registration, int64, error) {
	return s.registrationRepo.List(filter)
}

// RecountTotal 按实际登记数重算代理人的累计提交数
func (s *RegistrationService) RecountTotal(affiliateID uint) (int, error) {
	if affiliateID == 0 {
		return 0, ErrNotFound
	}
	profile, err := s.affiliateRepo.GetByID(affiliateID)
	if err != nil {
		return 0, err
	}
	if profile == nil {
		return 0, ErrNotFound
	}
	count, err := s.registrationRepo.CountByAffiliate(affiliateID)
	if err != nil {
		return 0, err
	}
	total := int(count)
	if total == profile.TotalCadastros {
		return total, nil
	}
	if err := s.affiliateRepo.UpdateFields(affiliateID, map[string]interface{}{
		"total_cadastros": total,
		"updated_at":      time.Now(),
	}); err != nil {
		return 0, err
	}
	return total, nil
}
