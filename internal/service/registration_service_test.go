package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/afiliados-next/internal/models"
	"github.com/afiliados-next/internal/queue"
	"github.com/afiliados-next/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

type recordingNotifier struct {
	events []NotificationEvent
}

func (n *recordingNotifier) Notify(_ context.Context, event NotificationEvent) error {
	n.events = append(n.events, event)
	return nil
}

func setupRegistrationServiceTest(t *testing.T) (*RegistrationService, *recordingNotifier, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:registration_service_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.AffiliateProfile{}, &models.Registration{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}

	notifier := &recordingNotifier{}
	queueClient, err := queue.NewClient(nil)
	if err != nil {
		t.Fatalf("create queue client failed: %v", err)
	}

	svc := NewRegistrationService(
		repository.NewRegistrationRepository(db),
		repository.NewAffiliateRepository(db),
		notifier,
		queueClient,
	)
	return svc, notifier, db
}

func createRegistrationTestProfile(t *testing.T, db *gorm.DB, email, code string) models.AffiliateProfile {
	t.Helper()
	profile := models.AffiliateProfile{
		Email:         email,
		NomeCompleto:  "Agente de Teste",
		Telefone:      "11999990000",
		AffiliateCode: code,
	}
	if err := db.Create(&profile).Error; err != nil {
		t.Fatalf("create profile failed: %v", err)
	}
	return profile
}

func validRegistrationInput() RegistrationInput {
	return RegistrationInput{
		NomeAgente:       "Carlos Mendes",
		WhatsApp:         "+55 (11) 98877-6655",
		NomeProduto:      "Curso de Marketing",
		LinkPaginaVendas: "https://exemplo.com/vendas",
		DescricaoProduto: "Curso completo de marketing digital para iniciantes.",
		Checkout01:       "https://pay.exemplo.com/checkout-1",
		VideosURLs:       []string{"https://cdn.exemplo.com/v/a.mp4", "https://cdn.exemplo.com/v/b.mp4"},
		ImagensProduto:   []string{"https://cdn.exemplo.com/i/p1.png"},
	}
}

func TestSaveRegistrationCreatesAndIncrementsCounter(t *testing.T) {
	svc, notifier, db := setupRegistrationServiceTest(t)
	profile := createRegistrationTestProfile(t, db, "create@example.com", "AAAA2222")

	registration, created, err := svc.Save(context.Background(), profile.ID, validRegistrationInput())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if !created {
		t.Fatal("expected created=true on first save")
	}
	if registration.AffiliateID != profile.ID {
		t.Fatalf("unexpected affiliate id: %d", registration.AffiliateID)
	}
	if len(registration.VideosURLs) != 2 {
		t.Fatalf("expected 2 video urls, got %d", len(registration.VideosURLs))
	}
	if registration.Checkout02 != nil {
		t.Fatalf("expected absent checkout_02, got %q", *registration.Checkout02)
	}

	// 可选字段缺省时落库为 NULL 而非空串
	var nullCount int64
	if err := db.Model(&models.Registration{}).
		Where("id = ? AND checkout_02 IS NULL AND link_instagram IS NULL", registration.ID).
		Count(&nullCount).Error; err != nil {
		t.Fatalf("count null optionals failed: %v", err)
	}
	if nullCount != 1 {
		t.Fatal("expected blank optionals stored as NULL")
	}

	var reloaded models.AffiliateProfile
	if err := db.First(&reloaded, profile.ID).Error; err != nil {
		t.Fatalf("reload profile failed: %v", err)
	}
	if reloaded.TotalCadastros != 1 {
		t.Fatalf("expected total_cadastros=1, got %d", reloaded.TotalCadastros)
	}

	if len(notifier.events) != 1 {
		t.Fatalf("expected 1 notification event, got %d", len(notifier.events))
	}
	if notifier.events[0].EventType != "registration_received" {
		t.Fatalf("unexpected event type: %s", notifier.events[0].EventType)
	}
}

func TestSaveRegistrationNoChanges(t *testing.T) {
	svc, notifier, db := setupRegistrationServiceTest(t)
	profile := createRegistrationTestProfile(t, db, "nochange@example.com", "BBBB3333")

	if _, _, err := svc.Save(context.Background(), profile.ID, validRegistrationInput()); err != nil {
		t.Fatalf("initial save failed: %v", err)
	}

	// 相同内容：标量加空白、集合乱序且含重复项，均视为无变更
	resubmission := validRegistrationInput()
	resubmission.NomeAgente = "  Carlos Mendes "
	resubmission.VideosURLs = []string{
		"https://cdn.exemplo.com/v/b.mp4",
		"https://cdn.exemplo.com/v/a.mp4",
		"https://cdn.exemplo.com/v/a.mp4",
	}

	_, _, err := svc.Save(context.Background(), profile.ID, resubmission)
	if !errors.Is(err, ErrNoChanges) {
		t.Fatalf("expected ErrNoChanges, got %v", err)
	}
	if len(notifier.events) != 1 {
		t.Fatalf("expected no extra notification, got %d events", len(notifier.events))
	}
}

func TestSaveRegistrationPartialUpdate(t *testing.T) {
	svc, _, db := setupRegistrationServiceTest(t)
	profile := createRegistrationTestProfile(t, db, "update@example.com", "CCCC4444")

	first, _, err := svc.Save(context.Background(), profile.ID, validRegistrationInput())
	if err != nil {
		t.Fatalf("initial save failed: %v", err)
	}

	changed := validRegistrationInput()
	changed.NomeProduto = "Curso Avançado"
	changed.VideosURLs = []string{"https://cdn.exemplo.com/v/a.mp4"}

	updated, created, err := svc.Save(context.Background(), profile.ID, changed)
	if err != nil {
		t.Fatalf("update save failed: %v", err)
	}
	if created {
		t.Fatal("expected created=false on update")
	}
	if updated.ID != first.ID {
		t.Fatalf("expected same registration row, got %d vs %d", updated.ID, first.ID)
	}
	if updated.NomeProduto != "Curso Avançado" {
		t.Fatalf("expected updated product name, got %q", updated.NomeProduto)
	}
	if updated.NomeAgente != first.NomeAgente {
		t.Fatalf("agent name should be untouched, got %q", updated.NomeAgente)
	}
	if len(updated.VideosURLs) != 1 {
		t.Fatalf("expected 1 video url after update, got %d", len(updated.VideosURLs))
	}

	var reloaded models.AffiliateProfile
	if err := db.First(&reloaded, profile.ID).Error; err != nil {
		t.Fatalf("reload profile failed: %v", err)
	}
	if reloaded.TotalCadastros != 1 {
		t.Fatalf("update should not increment counter, got %d", reloaded.TotalCadastros)
	}
}

func TestSaveRegistrationValidation(t *testing.T) {
	svc, _, db := setupRegistrationServiceTest(t)
	profile := createRegistrationTestProfile(t, db, "invalid@example.com", "DDDD5555")

	input := validRegistrationInput()
	input.NomeAgente = " "
	input.WhatsApp = "123"
	input.LinkPaginaVendas = "not-a-url"

	_, _, err := svc.Save(context.Background(), profile.ID, input)
	var fieldErrs FieldErrors
	if !errors.As(err, &fieldErrs) {
		t.Fatalf("expected FieldErrors, got %v", err)
	}
	for _, field := range []string{"nome_agente", "whatsapp", "link_pagina_vendas"} {
		if _, ok := fieldErrs[field]; !ok {
			t.Fatalf("expected error for field %s, got %v", field, fieldErrs)
		}
	}

	var count int64
	if err := db.Model(&models.Registration{}).Count(&count).Error; err != nil {
		t.Fatalf("count registrations failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("validation failure must not persist, got %d rows", count)
	}
}

func TestSaveRegistrationUnknownAffiliate(t *testing.T) {
	svc, _, _ := setupRegistrationServiceTest(t)

	if _, _, err := svc.Save(context.Background(), 9999, validRegistrationInput()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, _, err := svc.Save(context.Background(), 0, validRegistrationInput()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for zero id, got %v", err)
	}
}

func TestRecountTotal(t *testing.T) {
	svc, _, db := setupRegistrationServiceTest(t)
	profile := createRegistrationTestProfile(t, db, "recount@example.com", "FFFF7777")

	if _, _, err := svc.Save(context.Background(), profile.ID, validRegistrationInput()); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	// 人为制造计数漂移后重算
	if err := db.Model(&models.AffiliateProfile{}).Where("id = ?", profile.ID).
		Update("total_cadastros", 5).Error; err != nil {
		t.Fatalf("seed drifted counter failed: %v", err)
	}

	total, err := svc.RecountTotal(profile.ID)
	if err != nil {
		t.Fatalf("recount failed: %v", err)
	}
	if total != 1 {
		t.Fatalf("expected recounted total 1, got %d", total)
	}

	var reloaded models.AffiliateProfile
	if err := db.First(&reloaded, profile.ID).Error; err != nil {
		t.Fatalf("reload profile failed: %v", err)
	}
	if reloaded.TotalCadastros != 1 {
		t.Fatalf("expected persisted total 1, got %d", reloaded.TotalCadastros)
	}

	if _, err := svc.RecountTotal(9999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown affiliate, got %v", err)
	}
}

func TestRegistrationPreview(t *testing.T) {
	svc, _, db := setupRegistrationServiceTest(t)
	profile := createRegistrationTestProfile(t, db, "preview@example.com", "EEEE6666")

	preview, err := svc.Preview(profile.ID)
	if err != nil {
		t.Fatalf("preview failed: %v", err)
	}
	if preview.Profile == nil || preview.Profile.ID != profile.ID {
		t.Fatalf("expected profile in preview, got %+v", preview.Profile)
	}
	if preview.Registration != nil {
		t.Fatal("expected nil registration before first save")
	}

	if _, _, err := svc.Save(context.Background(), profile.ID, validRegistrationInput()); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	preview, err = svc.Preview(profile.ID)
	if err != nil {
		t.Fatalf("preview after save failed: %v", err)
	}
	if preview.Registration == nil || preview.Registration.AffiliateID != profile.ID {
		t.Fatalf("expected registration in preview, got %+v", preview.Registration)
	}
}
