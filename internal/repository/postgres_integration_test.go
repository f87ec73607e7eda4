//go:build integration
// +build integration

package repository

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/afiliados-next/internal/constants"
	"github.com/afiliados-next/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// setupPostgresIntegrationDB 初始化 PostgreSQL 集成测试数据库。
func setupPostgresIntegrationDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := strings.TrimSpace(os.Getenv("TEST_POSTGRES_DSN"))
	if dsn == "" {
		t.Skip("skip postgres integration test: TEST_POSTGRES_DSN is empty")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open postgres failed: %v", err)
	}

	cleanupModels := []interface{}{
		&models.AffiliateLoginLog{},
		&models.Registration{},
		&models.AffiliateProfile{},
	}
	_ = db.Migrator().DropTable(cleanupModels...)

	if err := db.AutoMigrate(
		&models.AffiliateProfile{},
		&models.Registration{},
		&models.AffiliateLoginLog{},
	); err != nil {
		t.Fatalf("migrate postgres models failed: %v", err)
	}

	t.Cleanup(func() {
		_ = db.Migrator().DropTable(cleanupModels...)
		sqlDB, err := db.DB()
		if err == nil {
			_ = sqlDB.Close()
		}
	})

	return db
}

func TestPostgresAffiliateAndRegistrationRepositories(t *testing.T) {
	db := setupPostgresIntegrationDB(t)

	affiliateRepo := NewAffiliateRepository(db)
	profile := &models.AffiliateProfile{
		Email:         "pg.joao@example.com",
		NomeCompleto:  "João Integração",
		Telefone:      "+55 11 90000-0001",
		AffiliateCode: "PGTEST01",
	}
	if err := affiliateRepo.Create(profile); err != nil {
		t.Fatalf("create affiliate failed: %v", err)
	}

	byCode, err := affiliateRepo.GetByCode("PGTEST01")
	if err != nil {
		t.Fatalf("get affiliate by code failed: %v", err)
	}
	if byCode == nil || byCode.Email != "pg.joao@example.com" {
		t.Fatalf("get affiliate by code returned wrong profile: %+v", byCode)
	}

	rows, total, err := affiliateRepo.List(AffiliateListFilter{Page: 1, PageSize: 10, Keyword: "Integração"})
	if err != nil {
		t.Fatalf("affiliate keyword search failed: %v", err)
	}
	if total != 1 || len(rows) != 1 {
		t.Fatalf("affiliate keyword search want 1 got total=%d len=%d", total, len(rows))
	}

	registrationRepo := NewRegistrationRepository(db)
	registration := &models.Registration{
		AffiliateID:      profile.ID,
		NomeAgente:       "João",
		Whatsapp:         "+5511900000001",
		NomeProduto:      "Produto Integração",
		LinkPaginaVendas: "https://exemplo.com/produto",
		DescricaoProduto: "Produto de teste de integração.",
		VideosURLs: models.StringArray([]string{
			"https://cdn.exemplo.com/joao/videos/a.mp4",
			"https://cdn.exemplo.com/joao/videos/b.mp4",
		}),
	}
	if err := registrationRepo.Create(registration); err != nil {
		t.Fatalf("create registration failed: %v", err)
	}

	stored, err := registrationRepo.GetByAffiliateID(profile.ID)
	if err != nil {
		t.Fatalf("get registration by affiliate failed: %v", err)
	}
	if stored == nil || len(stored.VideosURLs) != 2 {
		t.Fatalf("registration json column roundtrip failed: %+v", stored)
	}

	if err := registrationRepo.UpdateFields(stored.ID, map[string]interface{}{
		"nome_produto": "Produto Atualizado",
	}); err != nil {
		t.Fatalf("update registration fields failed: %v", err)
	}
	updated, err := registrationRepo.GetByID(stored.ID)
	if err != nil || updated == nil {
		t.Fatalf("reload registration failed: %v", err)
	}
	if updated.NomeProduto != "Produto Atualizado" {
		t.Fatalf("partial update not applied, got %s", updated.NomeProduto)
	}
	if len(updated.VideosURLs) != 2 {
		t.Fatalf("partial update must not touch untouched columns, videos=%d", len(updated.VideosURLs))
	}

	logRepo := NewAffiliateLoginLogRepository(db)
	if err := logRepo.Create(&models.AffiliateLoginLog{
		AffiliateID: profile.ID,
		Identifier:  "PGTEST01",
		Method:      constants.LoginMethodCode,
		Status:      constants.LoginLogStatusSuccess,
		ClientIP:    "10.0.0.1",
		CreatedAt:   time.Now(),
	}); err != nil {
		t.Fatalf("create login log failed: %v", err)
	}
	logs, logTotal, err := logRepo.ListByAffiliate(profile.ID, 1, 10)
	if err != nil {
		t.Fatalf("list login logs failed: %v", err)
	}
	if logTotal != 1 || len(logs) != 1 {
		t.Fatalf("login log list want 1 got total=%d len=%d", logTotal, len(logs))
	}
}
