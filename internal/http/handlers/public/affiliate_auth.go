package public

import (
	"errors"

	"github.com/afiliados-next/internal/http/response"
	"github.com/afiliados-next/internal/models"
	"github.com/afiliados-next/internal/service"

	"github.com/gin-gonic/gin"
)

// AffiliateRegisterRequest 代理人注册请求
type AffiliateRegisterRequest struct {
	Email        string `json:"email" binding:"required"`
	NomeCompleto string `json:"nome_completo" binding:"required"`
	Telefone     string `json:"telefone" binding:"required"`
	Senha        string `json:"senha"`
}

// AffiliateRegister 代理人注册
// 邮箱已存在时返回该档案的推广码，便于前端引导改用码登录
func (h *Handler) AffiliateRegister(c *gin.Context) {
	var req AffiliateRegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	profile, token, expiresAt, err := h.AffiliateAuthService.Register(c.Request.Context(), service.RegisterInput{
		Email:        req.Email,
		NomeCompleto: req.NomeCompleto,
		Telefone:     req.Telefone,
		Senha:        req.Senha,
	})
	if err != nil {
		var dup *service.DuplicateIdentityError
		var fields service.FieldErrors
		switch {
		case errors.As(err, &dup):
			respondErrorWithData(c, response.CodeBadRequest, "email already registered", gin.H{
				"codigo_afiliado": dup.ExistingCode,
			}, nil)
		case errors.As(err, &fields):
			respondFieldErrors(c, fields)
		case errors.Is(err, service.ErrInvalidEmail):
			respondError(c, response.CodeBadRequest, "invalid email", nil)
		case errors.Is(err, service.ErrWeakPassword):
			respondError(c, response.CodeBadRequest, err.Error(), nil)
		default:
			respondError(c, response.CodeInternal, "register failed", err)
		}
		return
	}

	response.Success(c, gin.H{
		"affiliate":  affiliateProfileResponse(profile),
		"token":      token,
		"expires_at": expiresAt.Format("2006-01-02T15:04:05Z07:00"),
	})
}

// AffiliateLoginRequest 代理人登录请求
// method 留空时按载荷推断：有推广码走码登录，否则走邮箱密码
type AffiliateLoginRequest struct {
	Method         string `json:"method"`
	CodigoAfiliado string `json:"codigo_afiliado"`
	Email          string `json:"email"`
	Senha          string `json:"senha"`
}

// AffiliateLogin 代理人登录
func (h *Handler) AffiliateLogin(c *gin.Context) {
	var req AffiliateLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	profile, token, expiresAt, err := h.AffiliateAuthService.Login(c.Request.Context(), service.LoginInput{
		Method: req.Method,
		Code:   req.CodigoAfiliado,
		Email:  req.Email,
		Senha:  req.Senha,
	}, loginContext(c))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			respondError(c, response.CodeNotFound, "affiliate code not found", nil)
		case errors.Is(err, service.ErrInvalidCredentials):
			respondError(c, response.CodeUnauthorized, "invalid credentials", nil)
		default:
			respondError(c, response.CodeInternal, "login failed", err)
		}
		return
	}

	response.Success(c, gin.H{
		"affiliate":  affiliateProfileResponse(profile),
		"token":      token,
		"expires_at": expiresAt.Format("2006-01-02T15:04:05Z07:00"),
	})
}

// GetCurrentAffiliate 获取当前代理人档案
func (h *Handler) GetCurrentAffiliate(c *gin.Context) {
	id, ok := getAffiliateID(c)
	if !ok {
		return
	}

	profile, err := h.AffiliateAuthService.GetProfileByID(id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondError(c, response.CodeNotFound, "affiliate not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "affiliate fetch failed", err)
		return
	}

	response.Success(c, affiliateProfileResponse(profile))
}

func affiliateProfileResponse(profile *models.AffiliateProfile) gin.H {
	if profile == nil {
		return gin.H{}
	}
	return gin.H{
		"id":              profile.ID,
		"email":           profile.Email,
		"nome_completo":   profile.NomeCompleto,
		"telefone":        profile.Telefone,
		"codigo_afiliado": profile.AffiliateCode,
		"total_cadastros": profile.TotalCadastros,
		"ultimo_acesso":   profile.UltimoAcesso,
		"created_at":      profile.CreatedAt,
	}
}
