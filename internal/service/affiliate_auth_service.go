package service

import (
	"context"
	"crypto/rand"
	"errors"
	"math/big"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/afiliados-next/internal/cache"
	"github.com/afiliados-next/internal/config"
	"github.com/afiliados-next/internal/constants"
	"github.com/afiliados-next/internal/logger"
	"github.com/afiliados-next/internal/models"
	"github.com/afiliados-next/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const affiliateCodeLength = 8

// AffiliateAuthService 代理人身份服务
// 统一承载注册与两种登录方式（推广码 / 邮箱密码）
type AffiliateAuthService struct {
	cfg           *config.Config
	affiliateRepo repository.AffiliateRepository
	loginLogRepo  repository.AffiliateLoginLogRepository
	notifier      Notifier
}

// NewAffiliateAuthService 创建代理人身份服务
func NewAffiliateAuthService(
	cfg *config.Config,
	affiliateRepo repository.AffiliateRepository,
	loginLogRepo repository.AffiliateLoginLogRepository,
	notifier Notifier,
) *AffiliateAuthService {
	return &AffiliateAuthService{
		cfg:           cfg,
		affiliateRepo: affiliateRepo,
		loginLogRepo:  loginLogRepo,
		notifier:      notifier,
	}
}

// AffiliateJWTClaims 代理人 JWT 声明
type AffiliateJWTClaims struct {
	AffiliateID uint   `json:"affiliate_id"`
	Email       string `json:"email"`
	Code        string `json:"code"`
	jwt.RegisteredClaims
}

// RegisterInput 代理人注册载荷
// Senha 为可选项，留空表示仅能通过推广码登录
type RegisterInput struct {
	Email        string `json:"email"`
	NomeCompleto string `json:"nome_completo"`
	Telefone     string `json:"telefone"`
	Senha        string `json:"senha"`
}

// LoginInput 代理人登录载荷
// Method 留空时按载荷内容推断：有推广码走码登录，否则走邮箱密码
type LoginInput struct {
	Method string `json:"method"`
	Code   string `json:"codigo_afiliado"`
	Email  string `json:"email"`
	Senha  string `json:"senha"`
}

// LoginContext 登录请求上下文，用于审计日志
type LoginContext struct {
	ClientIP  string
	UserAgent string
	RequestID string
}

// GenerateAffiliateJWT 生成代理人 JWT Token
func (s *AffiliateAuthService) GenerateAffiliateJWT(profile *models.AffiliateProfile) (string, time.Time, error) {
	expireHours := s.cfg.AffiliateJWT.ExpireHours
	if expireHours <= 0 {
		expireHours = 24
	}
	expiresAt := time.Now().Add(time.Duration(expireHours) * time.Hour)
	claims := AffiliateJWTClaims{
		AffiliateID: profile.ID,
		Email:       profile.Email,
		Code:        profile.AffiliateCode,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.cfg.AffiliateJWT.SecretKey))
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// ParseAffiliateJWT 解析代理人 JWT Token
func (s *AffiliateAuthService) ParseAffiliateJWT(tokenString string) (*AffiliateJWTClaims, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	claims := &AffiliateJWTClaims{}
	token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.AffiliateJWT.SecretKey), nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(*AffiliateJWTClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}

// Register 代理人注册
// 邮箱已存在时返回 DuplicateIdentityError，携带既有推广码供前端提示
func (s *AffiliateAuthService) Register(ctx context.Context, input RegisterInput) (*models.AffiliateProfile, string, time.Time, error) {
	normalized, err := normalizeEmail(input.Email)
	if err != nil {
		return nil, "", time.Time{}, err
	}

	errs := FieldErrors{}
	nome := strings.TrimSpace(input.NomeCompleto)
	if nome == "" {
		errs["nome_completo"] = "full name required"
	} else if utf8.RuneCountInString(nome) < 2 {
		errs["nome_completo"] = "full name too short"
	}
	telefone := strings.TrimSpace(input.Telefone)
	if telefone == "" {
		errs["telefone"] = "phone required"
	} else if len(whatsappDigitPattern.FindAllString(telefone, -1)) < 8 {
		errs["telefone"] = "phone number incomplete"
	}
	if len(errs) > 0 {
		return nil, "", time.Time{}, errs
	}

	senha := strings.TrimSpace(input.Senha)
	if senha != "" {
		if err := validatePassword(s.cfg.Security.PasswordPolicy, senha); err != nil {
			return nil, "", time.Time{}, err
		}
	}

	exist, err := s.affiliateRepo.GetByEmail(normalized)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	if exist != nil {
		return nil, "", time.Time{}, &DuplicateIdentityError{ExistingCode: exist.AffiliateCode}
	}

	senhaHash := ""
	if senha != "" {
		hashed, hashErr := bcrypt.GenerateFromPassword([]byte(senha), bcrypt.DefaultCost)
		if hashErr != nil {
			return nil, "", time.Time{}, hashErr
		}
		senhaHash = string(hashed)
	}

	profile, err := s.createWithUniqueCode(normalized, nome, telefone, senhaHash)
	if err != nil {
		return nil, "", time.Time{}, err
	}

	// 访问时间打点失败不影响注册结果
	now := time.Now()
	if err := s.affiliateRepo.StampAccess(profile.ID, now); err != nil {
		logger.Warnw("affiliate_stamp_access_failed", "affiliate_id", profile.ID, "error", err)
	} else {
		profile.UltimoAcesso = &now
	}

	token, expiresAt, err := s.GenerateAffiliateJWT(profile)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	_ = cache.SetAffiliateAuthState(ctx, cache.BuildAffiliateAuthState(profile))

	if s.notifier != nil {
		if notifyErr := s.notifier.Notify(ctx, NotificationEvent{
			EventType: constants.NotificationEventAffiliateRegistered,
			BizType:   constants.NotificationBizTypeAffiliate,
			BizID:     profile.ID,
			Data: models.JSON{
				"email":           profile.Email,
				"nome_completo":   profile.NomeCompleto,
				"codigo_afiliado": profile.AffiliateCode,
			},
		}); notifyErr != nil {
			logger.Warnw("affiliate_register_notify_failed", "affiliate_id", profile.ID, "error", notifyErr)
		}
	}

	return profile, token, expiresAt, nil
}

func (s *AffiliateAuthService) createWithUniqueCode(email, nome, telefone, senhaHash string) (*models.AffiliateProfile, error) {
	const maxRetry = 8
	for attempt := 0; attempt < maxRetry; attempt++ {
		code, err := generateAffiliateCode()
		if err != nil {
			return nil, err
		}
		profile := &models.AffiliateProfile{
			Email:         email,
			NomeCompleto:  nome,
			Telefone:      telefone,
			SenhaHash:     senhaHash,
			AffiliateCode: code,
		}
		err = s.affiliateRepo.Create(profile)
		if err == nil {
			return profile, nil
		}
		if isUniqueViolation(err) {
			exist, lookupErr := s.affiliateRepo.GetByEmail(email)
			if lookupErr == nil && exist != nil {
				return nil, &DuplicateIdentityError{ExistingCode: exist.AffiliateCode}
			}
			continue
		}
		return nil, err
	}
	return nil, errors.New("failed to allocate affiliate code")
}

// Login 代理人登录统一入口
func (s *AffiliateAuthService) Login(ctx context.Context, input LoginInput, loginCtx LoginContext) (*models.AffiliateProfile, string, time.Time, error) {
	method := strings.TrimSpace(input.Method)
	if method == "" {
		if strings.TrimSpace(input.Code) != "" {
			method = constants.LoginMethodCode
		} else {
			method = constants.LoginMethodEmailPassword
		}
	}

	switch method {
	case constants.LoginMethodCode:
		return s.ResolveByCode(ctx, input.Code, loginCtx)
	case constants.LoginMethodEmailPassword:
		return s.ResolveByEmailPassword(ctx, input.Email, input.Senha, loginCtx)
	default:
		return nil, "", time.Time{}, ErrInvalidCredentials
	}
}

// ResolveByCode 推广码登录
func (s *AffiliateAuthService) ResolveByCode(ctx context.Context, code string, loginCtx LoginContext) (*models.AffiliateProfile, string, time.Time, error) {
	identifier := strings.ToUpper(strings.TrimSpace(code))
	if identifier == "" {
		s.recordLoginLog(0, identifier, constants.LoginMethodCode, constants.LoginLogStatusFailed, constants.LoginLogFailReasonBadRequest, loginCtx)
		return nil, "", time.Time{}, ErrInvalidCredentials
	}

	profile, err := s.affiliateRepo.GetByCode(identifier)
	if err != nil {
		s.recordLoginLog(0, identifier, constants.LoginMethodCode, constants.LoginLogStatusFailed, constants.LoginLogFailReasonInternalError, loginCtx)
		return nil, "", time.Time{}, err
	}
	if profile == nil {
		s.recordLoginLog(0, identifier, constants.LoginMethodCode, constants.LoginLogStatusFailed, constants.LoginLogFailReasonCodeNotFound, loginCtx)
		return nil, "", time.Time{}, ErrNotFound
	}

	return s.finishLogin(ctx, profile, identifier, constants.LoginMethodCode, loginCtx)
}

// ResolveByEmailPassword 邮箱密码登录
func (s *AffiliateAuthService) ResolveByEmailPassword(ctx context.Context, email, senha string, loginCtx LoginContext) (*models.AffiliateProfile, string, time.Time, error) {
	normalized, err := normalizeEmail(email)
	if err != nil {
		s.recordLoginLog(0, strings.TrimSpace(email), constants.LoginMethodEmailPassword, constants.LoginLogStatusFailed, constants.LoginLogFailReasonInvalidEmail, loginCtx)
		return nil, "", time.Time{}, err
	}

	profile, err := s.affiliateRepo.GetByEmail(normalized)
	if err != nil {
		s.recordLoginLog(0, normalized, constants.LoginMethodEmailPassword, constants.LoginLogStatusFailed, constants.LoginLogFailReasonInternalError, loginCtx)
		return nil, "", time.Time{}, err
	}
	if profile == nil || profile.SenhaHash == "" {
		s.recordLoginLog(0, normalized, constants.LoginMethodEmailPassword, constants.LoginLogStatusFailed, constants.LoginLogFailReasonInvalidCredentials, loginCtx)
		return nil, "", time.Time{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(profile.SenhaHash), []byte(senha)); err != nil {
		s.recordLoginLog(profile.ID, normalized, constants.LoginMethodEmailPassword, constants.LoginLogStatusFailed, constants.LoginLogFailReasonInvalidCredentials, loginCtx)
		return nil, "", time.Time{}, ErrInvalidCredentials
	}

	return s.finishLogin(ctx, profile, normalized, constants.LoginMethodEmailPassword, loginCtx)
}

func (s *AffiliateAuthService) finishLogin(ctx context.Context, profile *models.AffiliateProfile, identifier, method string, loginCtx LoginContext) (*models.AffiliateProfile, string, time.Time, error) {
	token, expiresAt, err := s.GenerateAffiliateJWT(profile)
	if err != nil {
		s.recordLoginLog(profile.ID, identifier, method, constants.LoginLogStatusFailed, constants.LoginLogFailReasonInternalError, loginCtx)
		return nil, "", time.Time{}, err
	}

	// 访问时间打点失败不影响登录结果
	now := time.Now()
	if err := s.affiliateRepo.StampAccess(profile.ID, now); err != nil {
		logger.Warnw("affiliate_stamp_access_failed", "affiliate_id", profile.ID, "error", err)
	} else {
		profile.UltimoAcesso = &now
	}

	_ = cache.SetAffiliateAuthState(ctx, cache.BuildAffiliateAuthState(profile))
	s.recordLoginLog(profile.ID, identifier, method, constants.LoginLogStatusSuccess, "", loginCtx)

	return profile, token, expiresAt, nil
}

func (s *AffiliateAuthService) recordLoginLog(affiliateID uint, identifier, method, status, failReason string, loginCtx LoginContext) {
	if s.loginLogRepo == nil {
		return
	}
	entry := &models.AffiliateLoginLog{
		AffiliateID: affiliateID,
		Identifier:  identifier,
		Method:      method,
		Status:      status,
		FailReason:  failReason,
		ClientIP:    loginCtx.ClientIP,
		UserAgent:   loginCtx.UserAgent,
		RequestID:   loginCtx.RequestID,
	}
	if err := s.loginLogRepo.Create(entry); err != nil {
		logger.Warnw("affiliate_login_log_create_failed",
			"identifier", identifier,
			"method", method,
			"status", status,
			"error", err)
	}
}

// GetProfileByID 获取代理人档案
func (s *AffiliateAuthService) GetProfileByID(id uint) (*models.AffiliateProfile, error) {
	if id == 0 {
		return nil, ErrNotFound
	}
	profile, err := s.affiliateRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, ErrNotFound
	}
	return profile, nil
}

// ListAdmin 管理端代理人列表
func (s *AffiliateAuthService) ListAdmin(filter repository.AffiliateListFilter) ([]models.AffiliateProfile, int64, error) {
	return s.affiliateRepo.List(filter)
}

func generateAffiliateCode() (string, error) {
	const alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	var builder strings.Builder
	builder.Grow(affiliateCodeLength)
	max := big.NewInt(int64(len(alphabet)))
	for i := 0; i < affiliateCodeLength; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		builder.WriteByte(alphabet[n.Int64()])
	}
	return builder.String(), nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate")
}

func normalizeEmail(email string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(email))
	if normalized == "" {
		return "", ErrInvalidEmail
	}
	if _, err := mail.ParseAddress(normalized); err != nil {
		return "", ErrInvalidEmail
	}
	return normalized, nil
}
