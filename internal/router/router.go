package router

import (
	"fmt"
	"strings"

	"github.com/afiliados-next/internal/cache"
	"github.com/afiliados-next/internal/config"
	"github.com/afiliados-next/internal/constants"
	adminhandlers "github.com/afiliados-next/internal/http/handlers/admin"
	publichandlers "github.com/afiliados-next/internal/http/handlers/public"
	"github.com/afiliados-next/internal/logger"
	"github.com/afiliados-next/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	// 初始化 Handler（按代理人侧/后台分组）
	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = constants.RedisPrefixDefault
	}
	redisClient := cache.Client()
	loginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:login", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
	}
	adminLoginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:admin_login", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
	}

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	// 本地存储驱动下直接暴露上传目录
	if strings.EqualFold(strings.TrimSpace(cfg.Storage.Driver), "local") {
		localDir := strings.TrimSpace(cfg.Storage.LocalDir)
		if localDir == "" {
			localDir = "./uploads"
		}
		r.Static("/uploads", localDir)
	}

	// API 路由组
	apiV1 := r.Group("/api/v1")
	{
		// 公开接口
		public := apiV1.Group("/public")
		{
			public.GET("/captcha/image", publicHandler.GetImageCaptcha)
		}

		// 代理人认证接口
		auth := apiV1.Group("/auth")
		{
			auth.POST("/register", publicHandler.AffiliateRegister)
			auth.POST("/login", RateLimitMiddleware(redisClient, loginRule, KeyByIPAndJSONField("email")), publicHandler.AffiliateLogin)
		}

		// 代理人接口（需鉴权）
		affiliate := apiV1.Group("")
		affiliate.Use(AffiliateJWTAuthMiddleware(cfg.AffiliateJWT.SecretKey, c.AffiliateRepo))
		{
			affiliate.GET("/me", publicHandler.GetCurrentAffiliate)
			affiliate.GET("/registration", publicHandler.GetRegistrationPreview)
			affiliate.POST("/registration", publicHandler.SaveRegistration)
			affiliate.POST("/uploads/batch", publicHandler.UploadBatch)
		}

		// 管理员接口
		admin := apiV1.Group("/admin")
		{
			// 登录接口（无需鉴权）
			admin.POST("/login", RateLimitMiddleware(redisClient, adminLoginRule, KeyByIP), adminHandler.AdminLogin)

			// 需要鉴权的接口
			authorized := admin.Use(JWTAuthMiddleware(cfg.JWT.SecretKey, c.AdminRepo))
			{
				authorized.PUT("/password", adminHandler.UpdateAdminPassword)

				// 代理人管理
				authorized.GET("/affiliates", adminHandler.GetAffiliates)
				authorized.GET("/affiliates/:id", adminHandler.GetAffiliate)
				authorized.POST("/affiliates/:id/recount", adminHandler.RecountAffiliateTotal)
				authorized.GET("/registrations", adminHandler.GetRegistrations)
				authorized.GET("/registrations/:id", adminHandler.GetRegistration)
				authorized.GET("/login-logs", adminHandler.GetAffiliateLoginLogs)
			}
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}
