package admin

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/afiliados-next/internal/http/response"
	"github.com/afiliados-next/internal/repository"
	"github.com/afiliados-next/internal/service"

	"github.com/gin-gonic/gin"
)

// GetAffiliates 获取代理人列表 (Admin)
func (h *Handler) GetAffiliates(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	keyword := strings.TrimSpace(c.Query("keyword"))
	code := strings.TrimSpace(c.Query("codigo_afiliado"))
	createdFrom, err := parseTimeNullable(strings.TrimSpace(c.Query("created_from")))
	if err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	createdTo, err := parseTimeNullable(strings.TrimSpace(c.Query("created_to")))
	if err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	profiles, total, err := h.AffiliateAuthService.ListAdmin(repository.AffiliateListFilter{
		Page:        page,
		PageSize:    pageSize,
		Keyword:     keyword,
		Code:        code,
		CreatedFrom: createdFrom,
		CreatedTo:   createdTo,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "affiliate fetch failed", err)
		return
	}

	pagination := response.BuildPagination(page, pageSize, total)
	response.SuccessWithPage(c, profiles, pagination)
}

// GetAffiliate 获取代理人详情 (Admin)
// 返回档案、登记资料与最近登录记录
func (h *Handler) GetAffiliate(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	profile, err := h.AffiliateAuthService.GetProfileByID(uint(id))
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondError(c, response.CodeNotFound, "affiliate not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "affiliate fetch failed", err)
		return
	}

	registration, err := h.RegistrationService.GetByAffiliate(profile.ID)
	if err != nil {
		respondError(c, response.CodeInternal, "registration fetch failed", err)
		return
	}

	logs, _, err := h.AffiliateLoginLogRepo.ListByAffiliate(profile.ID, 1, 10)
	if err != nil {
		respondError(c, response.CodeInternal, "login log fetch failed", err)
		return
	}

	response.Success(c, gin.H{
		"profile":       profile,
		"registration":  registration,
		"recent_logins": logs,
	})
}

// GetRegistrations 获取登记列表 (Admin)
func (h *Handler) GetRegistrations(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	affiliateIDRaw := strings.TrimSpace(c.Query("affiliate_id"))
	var affiliateID uint
	if affiliateIDRaw != "" {
		raw, err := strconv.ParseUint(affiliateIDRaw, 10, 64)
		if err != nil {
			respondError(c, response.CodeBadRequest, "bad request", err)
			return
		}
		affiliateID = uint(raw)
	}

	createdFrom, err := parseTimeNullable(strings.TrimSpace(c.Query("created_from")))
	if err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	createdTo, err := parseTimeNullable(strings.TrimSpace(c.Query("created_to")))
	if err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	registrations, total, err := h.RegistrationService.ListAdmin(repository.RegistrationListFilter{
		Page:        page,
		PageSize:    pageSize,
		AffiliateID: affiliateID,
		Keyword:     strings.TrimSpace(c.Query("keyword")),
		CreatedFrom: createdFrom,
		CreatedTo:   createdTo,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "registration fetch failed", err)
		return
	}

	pagination := response.BuildPagination(page, pageSize, total)
	response.SuccessWithPage(c, registrations, pagination)
}

// GetRegistration 获取指定代理人的登记资料 (Admin)
func (h *Handler) GetRegistration(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	preview, err := h.RegistrationService.Preview(uint(id))
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondError(c, response.CodeNotFound, "affiliate not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "registration fetch failed", err)
		return
	}

	response.Success(c, preview)
}

// RecountAffiliateTotal 重算代理人的累计提交数 (Admin)
func (h *Handler) RecountAffiliateTotal(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	total, err := h.RegistrationService.RecountTotal(uint(id))
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondError(c, response.CodeNotFound, "affiliate not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "recount failed", err)
		return
	}

	response.Success(c, gin.H{
		"affiliate_id":    uint(id),
		"total_cadastros": total,
	})
}

// GetAffiliateLoginLogs 获取代理人登录日志列表 (Admin)
func (h *Handler) GetAffiliateLoginLogs(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	affiliateIDRaw := strings.TrimSpace(c.Query("affiliate_id"))
	var affiliateID uint
	if affiliateIDRaw != "" {
		raw, err := strconv.ParseUint(affiliateIDRaw, 10, 64)
		if err != nil {
			respondError(c, response.CodeBadRequest, "bad request", err)
			return
		}
		affiliateID = uint(raw)
	}

	createdFrom, err := parseTimeNullable(strings.TrimSpace(c.Query("created_from")))
	if err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	createdTo, err := parseTimeNullable(strings.TrimSpace(c.Query("created_to")))
	if err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	logs, total, err := h.AffiliateLoginLogRepo.ListAdmin(repository.AffiliateLoginLogListFilter{
		Page:        page,
		PageSize:    pageSize,
		AffiliateID: affiliateID,
		Identifier:  strings.TrimSpace(c.Query("identifier")),
		Method:      strings.TrimSpace(c.Query("method")),
		Status:      strings.TrimSpace(c.Query("status")),
		FailReason:  strings.TrimSpace(c.Query("fail_reason")),
		ClientIP:    strings.TrimSpace(c.Query("client_ip")),
		CreatedFrom: createdFrom,
		CreatedTo:   createdTo,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "login log fetch failed", err)
		return
	}

	pagination := response.BuildPagination(page, pageSize, total)
	response.SuccessWithPage(c, logs, pagination)
}

func parseTimeNullable(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}
