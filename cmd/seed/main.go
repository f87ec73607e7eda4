package main

import (
	"fmt"
	"time"

	"github.com/afiliados-next/internal/config"
	"github.com/afiliados-next/internal/logger"
	"github.com/afiliados-next/internal/models"

	"golang.org/x/crypto/bcrypt"
)

func main() {
	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	// 默认管理员
	if err := models.InitDefaultAdmin("", ""); err != nil {
		stdLog.Printf("Failed to init default admin: %v", err)
	}

	demoHash, err := bcrypt.GenerateFromPassword([]byte("Demo@12345"), bcrypt.DefaultCost)
	if err != nil {
		stdLog.Fatalf("Failed to hash demo password: %v", err)
	}

	now := time.Now()
	lastAccess := now.Add(-3 * time.Hour)

	// 演示代理人档案
	profiles := []models.AffiliateProfile{
		{
			Email:         "joao.silva@example.com",
			NomeCompleto:  "João Silva",
			Telefone:      "+55 11 91234-5678",
			SenhaHash:     string(demoHash),
			AffiliateCode: "A1B2C3D4",
			UltimoAcesso:  &lastAccess,
		},
		{
			Email:         "maria.souza@example.com",
			NomeCompleto:  "Maria Souza",
			Telefone:      "+55 21 99876-5432",
			AffiliateCode: "E5F6G7H8",
		},
	}

	profileIDs := map[string]uint{}
	for _, profile := range profiles {
		var existing models.AffiliateProfile
		if err := models.DB.Where("email = ?", profile.Email).First(&existing).Error; err != nil {
			if err := models.DB.Create(&profile).Error; err != nil {
				stdLog.Printf("Failed to create affiliate %s: %v", profile.Email, err)
				continue
			}
			stdLog.Printf("Created affiliate: %s (%s)", profile.Email, profile.AffiliateCode)
			profileIDs[profile.Email] = profile.ID
		} else {
			stdLog.Printf("Affiliate already exists: %s", existing.Email)
			profileIDs[existing.Email] = existing.ID
		}
	}

	// 演示登记资料
	instagram := "https://instagram.com/joao.marketing"
	registrations := []models.Registration{
		{
			AffiliateID:      profileIDs["joao.silva@example.com"],
			NomeAgente:       "João",
			Whatsapp:         "+5511912345678",
			NomeProduto:      "Curso de Marketing Digital",
			LinkPaginaVendas: "https://exemplo.com/curso-marketing",
			DescricaoProduto: "Curso completo de marketing digital para iniciantes.",
			Checkout01:       "https://pay.exemplo.com/checkout/curso-marketing",
			LinkInstagram:    &instagram,
			VideosURLs: models.StringArray([]string{
				"https://cdn.exemplo.com/joao/videos/apresentacao.mp4",
			}),
			ImagensProdutoURLs: models.StringArray([]string{
				"https://cdn.exemplo.com/joao/imagens-produto/capa.jpg",
			}),
		},
	}

	for _, registration := range registrations {
		if registration.AffiliateID == 0 {
			stdLog.Printf("Skip registration %s: affiliate missing", registration.NomeProduto)
			continue
		}
		var existing models.Registration
		if err := models.DB.Where("afiliado_id = ?", registration.AffiliateID).First(&existing).Error; err != nil {
			if err := models.DB.Create(&registration).Error; err != nil {
				stdLog.Printf("Failed to create registration %s: %v", registration.NomeProduto, err)
			} else {
				stdLog.Printf("Created registration: %s", registration.NomeProduto)
				models.DB.Model(&models.AffiliateProfile{}).
					Where("id = ?", registration.AffiliateID).
					Update("total_cadastros", 1)
			}
		} else {
			stdLog.Printf("Registration already exists for affiliate %d", registration.AffiliateID)
		}
	}

	fmt.Println("\n✅ Seed data created successfully!")
	fmt.Println("Summary:")
	fmt.Println("- Default admin (admin/admin123 unless already present)")
	fmt.Println("- 2 Affiliate profiles (demo password: Demo@12345)")
	fmt.Println("- 1 Registration")
}
