package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/afiliados-next/internal/models"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupRegistrationRepositoryTest(t *testing.T) (*GormRegistrationRepository, *GormAffiliateRepository, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:registration_repo_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.AffiliateProfile{}, &models.Registration{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return NewRegistrationRepository(db), NewAffiliateRepository(db), db
}

func createTestProfile(t *testing.T, db *gorm.DB, email, code string) models.AffiliateProfile {
	t.Helper()

	row := models.AffiliateProfile{
		Email:         email,
		NomeCompleto:  "Maria Teste",
		Telefone:      "11999990000",
		AffiliateCode: code,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
	if err := db.Create(&row).Error; err != nil {
		t.Fatalf("create profile failed: %v", err)
	}
	return row
}

func TestRegistrationCreateAndGetByAffiliate(t *testing.T) {
	repo, _, db := setupRegistrationRepositoryTest(t)

	profile := createTestProfile(t, db, "maria@example.com", "ABCD2345")
	row := models.Registration{
		AffiliateID:      profile.ID,
		NomeAgente:       "Maria",
		Whatsapp:         "5511999990000",
		NomeProduto:      "Curso X",
		LinkPaginaVendas: "https://example.com/vendas",
		DescricaoProduto: "Curso completo de vendas",
		VideosURLs:       models.StringArray{"https://cdn.example.com/v1.mp4"},
	}
	if err := repo.Create(&row); err != nil {
		t.Fatalf("create registration failed: %v", err)
	}

	loaded, err := repo.GetByAffiliateID(profile.ID)
	if err != nil {
		t.Fatalf("get by affiliate failed: %v", err)
	}
	if loaded == nil || loaded.ID != row.ID {
		t.Fatalf("expected registration %d, got %+v", row.ID, loaded)
	}
	if len(loaded.VideosURLs) != 1 || loaded.VideosURLs[0] != "https://cdn.example.com/v1.mp4" {
		t.Fatalf("unexpected videos urls: %+v", loaded.VideosURLs)
	}

	missing, err := repo.GetByAffiliateID(profile.ID + 100)
	if err != nil {
		t.Fatalf("get missing failed: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for missing registration, got %+v", missing)
	}
}

func TestRegistrationUpdateFieldsPartial(t *testing.T) {
	repo, _, db := setupRegistrationRepositoryTest(t)

	profile := createTestProfile(t, db, "parcial@example.com", "EFGH2345")
	row := models.Registration{
		AffiliateID:      profile.ID,
		NomeAgente:       "Agente",
		Whatsapp:         "5511988880000",
		NomeProduto:      "Produto A",
		LinkPaginaVendas: "https://example.com/a",
		DescricaoProduto: "Descricao original longa",
	}
	if err := repo.Create(&row); err != nil {
		t.Fatalf("create registration failed: %v", err)
	}

	later := time.Now().Add(time.Minute)
	err := repo.UpdateFields(row.ID, map[string]interface{}{
		"nome_produto": "Produto B",
		"updated_at":   later,
	})
	if err != nil {
		t.Fatalf("update fields failed: %v", err)
	}

	reloaded, err := repo.GetByID(row.ID)
	if err != nil || reloaded == nil {
		t.Fatalf("reload registration failed: %v", err)
	}
	if reloaded.NomeProduto != "Produto B" {
		t.Fatalf("expected updated nome_produto, got %s", reloaded.NomeProduto)
	}
	if reloaded.NomeAgente != "Agente" {
		t.Fatalf("untouched field changed: %s", reloaded.NomeAgente)
	}
}

func TestAffiliateRepositoryLookups(t *testing.T) {
	_, repo, db := setupRegistrationRepositoryTest(t)

	profile := createTestProfile(t, db, "lookup@example.com", "JKLM2345")

	byEmail, err := repo.GetByEmail("  LOOKUP@example.com ")
	if err != nil || byEmail == nil || byEmail.ID != profile.ID {
		t.Fatalf("get by email failed: %v %+v", err, byEmail)
	}

	byCode, err := repo.GetByCode(" jklm2345 ")
	if err != nil || byCode == nil || byCode.ID != profile.ID {
		t.Fatalf("get by code failed: %v %+v", err, byCode)
	}

	missing, err := repo.GetByCode("ZZZZ9999")
	if err != nil {
		t.Fatalf("get missing code failed: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for unknown code, got %+v", missing)
	}
}

func TestAffiliateRepositoryStampAndIncrement(t *testing.T) {
	_, repo, db := setupRegistrationRepositoryTest(t)

	profile := createTestProfile(t, db, "stamp@example.com", "NPQR2345")

	at := time.Now().Truncate(time.Second)
	if err := repo.StampAccess(profile.ID, at); err != nil {
		t.Fatalf("stamp access failed: %v", err)
	}
	if err := repo.IncrementTotalCadastros(profile.ID, at); err != nil {
		t.Fatalf("increment failed: %v", err)
	}

	reloaded, err := repo.GetByID(profile.ID)
	if err != nil || reloaded == nil {
		t.Fatalf("reload profile failed: %v", err)
	}
	if reloaded.UltimoAcesso == nil {
		t.Fatalf("expected ultimo_acesso set")
	}
	if reloaded.TotalCadastros != 1 {
		t.Fatalf("expected total_cadastros 1, got %d", reloaded.TotalCadastros)
	}
}
