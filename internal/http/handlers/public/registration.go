package public

import (
	"errors"

	"github.com/afiliados-next/internal/http/response"
	"github.com/afiliados-next/internal/service"

	"github.com/gin-gonic/gin"
)

// SaveRegistration 保存登记档案
// 首次提交创建档案，再次提交仅写入有变化的字段
func (h *Handler) SaveRegistration(c *gin.Context) {
	id, ok := getAffiliateID(c)
	if !ok {
		return
	}

	var req service.RegistrationInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	registration, created, err := h.RegistrationService.Save(c.Request.Context(), id, req)
	if err != nil {
		var fields service.FieldErrors
		switch {
		case errors.As(err, &fields):
			respondFieldErrors(c, fields)
		case errors.Is(err, service.ErrNoChanges):
			respondError(c, response.CodeBadRequest, "no changes detected", nil)
		case errors.Is(err, service.ErrNotFound):
			respondError(c, response.CodeNotFound, "affiliate not found", nil)
		default:
			respondError(c, response.CodeInternal, "registration save failed", err)
		}
		return
	}

	response.Success(c, gin.H{
		"registration": registration,
		"created":      created,
	})
}

// GetRegistrationPreview 获取档案预览
// 返回代理人资料与登记档案的合并视图，未登记时 registration 为空
func (h *Handler) GetRegistrationPreview(c *gin.Context) {
	id, ok := getAffiliateID(c)
	if !ok {
		return
	}

	preview, err := h.RegistrationService.Preview(id)
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
