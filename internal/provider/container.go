package provider

import (
	"github.com/afiliados-next/internal/cache"
	"github.com/afiliados-next/internal/config"
	"github.com/afiliados-next/internal/logger"
	"github.com/afiliados-next/internal/models"
	"github.com/afiliados-next/internal/queue"
	"github.com/afiliados-next/internal/repository"
	"github.com/afiliados-next/internal/service"
	"github.com/afiliados-next/internal/storage"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client
	Store       storage.Store

	// Repositories
	AdminRepo             repository.AdminRepository
	AffiliateRepo         repository.AffiliateRepository
	RegistrationRepo      repository.RegistrationRepository
	AffiliateLoginLogRepo repository.AffiliateLoginLogRepository

	// Services
	AuthService          *service.AuthService
	AffiliateAuthService *service.AffiliateAuthService
	RegistrationService  *service.RegistrationService
	UploadService        *service.UploadService
	EmailService         *service.EmailService
	NotificationService  *service.NotificationService
	CaptchaService       *service.CaptchaService
	Notifier             service.Notifier
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	store, err := storage.NewStore(&cfg.Storage)
	if err != nil {
		logger.Errorw("provider_init_storage_failed", "error", err)
		panic(err)
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
		Store:       store,
	}

	// 1. 初始化 Repositories
	c.initRepositories()

	// 2. 初始化 Services
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.AdminRepo = repository.NewAdminRepository(db)
	c.AffiliateRepo = repository.NewAffiliateRepository(db)
	c.RegistrationRepo = repository.NewRegistrationRepository(db)
	c.AffiliateLoginLogRepo = repository.NewAffiliateLoginLogRepository(db)
}

func (c *Container) initServices() {
	c.EmailService = service.NewEmailService(&c.Config.Email)
	c.NotificationService = service.NewNotificationService(&c.Config.Email, c.EmailService)
	c.CaptchaService = service.NewCaptchaService(c.Config.Captcha)
	c.Notifier = service.NewQueueNotifier(c.QueueClient)
	c.AuthService = service.NewAuthService(c.Config, c.AdminRepo)
	c.AffiliateAuthService = service.NewAffiliateAuthService(c.Config, c.AffiliateRepo, c.AffiliateLoginLogRepo, c.Notifier)
	c.RegistrationService = service.NewRegistrationService(c.RegistrationRepo, c.AffiliateRepo, c.Notifier, c.QueueClient)
	c.UploadService = service.NewUploadService(c.Config, c.Store, c.QueueClient)
}
