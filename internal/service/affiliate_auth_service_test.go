package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/afiliados-next/internal/config"
	"github.com/afiliados-next/internal/constants"
	"github.com/afiliados-next/internal/models"
	"github.com/afiliados-next/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupAffiliateAuthServiceTest(t *testing.T) (*AffiliateAuthService, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:affiliate_auth_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.AffiliateProfile{}, &models.AffiliateLoginLog{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}

	cfg := &config.Config{}
	cfg.AffiliateJWT.SecretKey = "test-secret"
	cfg.AffiliateJWT.ExpireHours = 2

	svc := NewAffiliateAuthService(
		cfg,
		repository.NewAffiliateRepository(db),
		repository.NewAffiliateLoginLogRepository(db),
		nil,
	)
	return svc, db
}

func TestRegisterIssuesCodeAndToken(t *testing.T) {
	svc, _ := setupAffiliateAuthServiceTest(t)

	profile, token, expiresAt, err := svc.Register(context.Background(), RegisterInput{
		Email:        " Novo@Example.com ",
		NomeCompleto: "João da Silva",
		Telefone:     "11 98877-6655",
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if profile.Email != "novo@example.com" {
		t.Fatalf("expected normalized email, got %q", profile.Email)
	}
	if len(profile.AffiliateCode) != 8 {
		t.Fatalf("expected 8-char affiliate code, got %q", profile.AffiliateCode)
	}
	for _, r := range profile.AffiliateCode {
		if !strings.ContainsRune("ABCDEFGHJKLMNPQRSTUVWXYZ23456789", r) {
			t.Fatalf("code contains unexpected char %q", r)
		}
	}
	if profile.UltimoAcesso == nil {
		t.Fatal("expected ultimo_acesso stamped on register")
	}
	if expiresAt.Before(time.Now()) {
		t.Fatalf("token already expired: %v", expiresAt)
	}

	claims, err := svc.ParseAffiliateJWT(token)
	if err != nil {
		t.Fatalf("parse token failed: %v", err)
	}
	if claims.AffiliateID != profile.ID || claims.Code != profile.AffiliateCode {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestRegisterDuplicateEmailCarriesExistingCode(t *testing.T) {
	svc, _ := setupAffiliateAuthServiceTest(t)

	first, _, _, err := svc.Register(context.Background(), RegisterInput{
		Email:        "dup@example.com",
		NomeCompleto: "Maria Souza",
		Telefone:     "11988776655",
	})
	if err != nil {
		t.Fatalf("first register failed: %v", err)
	}

	_, _, _, err = svc.Register(context.Background(), RegisterInput{
		Email:        "DUP@example.com",
		NomeCompleto: "Outra Pessoa",
		Telefone:     "11988776000",
	})
	if !errors.Is(err, ErrEmailExists) {
		t.Fatalf("expected ErrEmailExists, got %v", err)
	}
	var dup *DuplicateIdentityError
	if !errors.As(err, &dup) {
		t.Fatalf("expected DuplicateIdentityError, got %T", err)
	}
	if dup.ExistingCode != first.AffiliateCode {
		t.Fatalf("expected hint code %s, got %s", first.AffiliateCode, dup.ExistingCode)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := setupAffiliateAuthServiceTest(t)

	if _, _, _, err := svc.Register(context.Background(), RegisterInput{
		Email:        "not-an-email",
		NomeCompleto: "Alguém",
		Telefone:     "11988776655",
	}); !errors.Is(err, ErrInvalidEmail) {
		t.Fatalf("expected ErrInvalidEmail, got %v", err)
	}

	_, _, _, err := svc.Register(context.Background(), RegisterInput{
		Email:    "ok@example.com",
		Telefone: "123",
	})
	var fieldErrs FieldErrors
	if !errors.As(err, &fieldErrs) {
		t.Fatalf("expected FieldErrors, got %v", err)
	}
	if _, ok := fieldErrs["nome_completo"]; !ok {
		t.Fatalf("expected nome_completo error, got %v", fieldErrs)
	}
	if _, ok := fieldErrs["telefone"]; !ok {
		t.Fatalf("expected telefone error, got %v", fieldErrs)
	}
}

func TestLoginByCode(t *testing.T) {
	svc, db := setupAffiliateAuthServiceTest(t)

	registered, _, _, err := svc.Register(context.Background(), RegisterInput{
		Email:        "code-login@example.com",
		NomeCompleto: "Pedro Alves",
		Telefone:     "11988776655",
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	// 推广码大小写与空白应被归一化
	loose := "  " + strings.ToLower(registered.AffiliateCode) + " "
	profile, token, _, err := svc.Login(context.Background(), LoginInput{Code: loose}, LoginContext{ClientIP: "10.0.0.9"})
	if err != nil {
		t.Fatalf("code login failed: %v", err)
	}
	if profile.ID != registered.ID {
		t.Fatalf("unexpected profile %d", profile.ID)
	}
	if token == "" {
		t.Fatal("expected token on login")
	}

	if _, _, _, err := svc.ResolveByCode(context.Background(), "ZZZZ9999", LoginContext{}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown code, got %v", err)
	}

	var logs []models.AffiliateLoginLog
	if err := db.Where("method = ?", constants.LoginMethodCode).Order("id asc").Find(&logs).Error; err != nil {
		t.Fatalf("load login logs failed: %v", err)
	}
	if len(logs) != 2 {
		t.Fatalf("expected 2 code login logs, got %d", len(logs))
	}
	if logs[0].Status != constants.LoginLogStatusSuccess || logs[0].ClientIP != "10.0.0.9" {
		t.Fatalf("unexpected success log: %+v", logs[0])
	}
	if logs[1].Status != constants.LoginLogStatusFailed || logs[1].FailReason != constants.LoginLogFailReasonCodeNotFound {
		t.Fatalf("unexpected failure log: %+v", logs[1])
	}
}

func TestLoginByEmailPassword(t *testing.T) {
	svc, _ := setupAffiliateAuthServiceTest(t)

	if _, _, _, err := svc.Register(context.Background(), RegisterInput{
		Email:        "senha@example.com",
		NomeCompleto: "Ana Lima",
		Telefone:     "11988776655",
		Senha:        "segredo-forte",
	}); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	profile, _, _, err := svc.Login(context.Background(), LoginInput{
		Email: "SENHA@example.com",
		Senha: "segredo-forte",
	}, LoginContext{})
	if err != nil {
		t.Fatalf("email login failed: %v", err)
	}
	if profile.Email != "senha@example.com" {
		t.Fatalf("unexpected profile email %q", profile.Email)
	}

	if _, _, _, err := svc.ResolveByEmailPassword(context.Background(), "senha@example.com", "errada", LoginContext{}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

type stampFailingAffiliateRepo struct {
	repository.AffiliateRepository
}

func (r *stampFailingAffiliateRepo) StampAccess(id uint, at time.Time) error {
	return errors.New("stamp unavailable")
}

func TestLoginSurvivesStampAccessFailure(t *testing.T) {
	svc, db := setupAffiliateAuthServiceTest(t)

	registered, _, _, err := svc.Register(context.Background(), RegisterInput{
		Email:        "stamp@example.com",
		NomeCompleto: "Bruno Rocha",
		Telefone:     "11988776655",
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	cfg := &config.Config{}
	cfg.AffiliateJWT.SecretKey = "test-secret"
	cfg.AffiliateJWT.ExpireHours = 2
	flaky := NewAffiliateAuthService(
		cfg,
		&stampFailingAffiliateRepo{repository.NewAffiliateRepository(db)},
		repository.NewAffiliateLoginLogRepository(db),
		nil,
	)

	// 访问时间打点失败不应中断登录
	profile, token, _, err := flaky.ResolveByCode(context.Background(), registered.AffiliateCode, LoginContext{})
	if err != nil {
		t.Fatalf("expected login to succeed despite stamp failure, got %v", err)
	}
	if profile.ID != registered.ID || token == "" {
		t.Fatalf("unexpected login result: profile=%d token=%q", profile.ID, token)
	}

	// 注册路径同理
	if _, _, _, err := flaky.Register(context.Background(), RegisterInput{
		Email:        "stamp2@example.com",
		NomeCompleto: "Clara Nunes",
		Telefone:     "11988776666",
	}); err != nil {
		t.Fatalf("expected register to succeed despite stamp failure, got %v", err)
	}
}

func TestLoginPasswordAgainstCodeOnlyProfile(t *testing.T) {
	svc, _ := setupAffiliateAuthServiceTest(t)

	if _, _, _, err := svc.Register(context.Background(), RegisterInput{
		Email:        "semsenha@example.com",
		NomeCompleto: "Rita Costa",
		Telefone:     "11988776655",
	}); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	// 未设置密码的档案不能通过密码口径登录
	if _, _, _, err := svc.ResolveByEmailPassword(context.Background(), "semsenha@example.com", "qualquer", LoginContext{}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}
