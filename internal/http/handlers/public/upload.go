package public

import (
	"errors"

	"github.com/afiliados-next/internal/http/response"
	"github.com/afiliados-next/internal/service"

	"github.com/gin-gonic/gin"
)

// UploadBatch 批量上传文件
// multipart 表单：owner_name + category + files[]
func (h *Handler) UploadBatch(c *gin.Context) {
	if _, ok := getAffiliateID(c); !ok {
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	results, err := h.UploadService.UploadBatch(c.Request.Context(), service.UploadBatchInput{
		OwnerName: c.PostForm("owner_name"),
		Category:  c.PostForm("category"),
		Files:     form.File["files"],
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOwnerNameMissing):
			respondError(c, response.CodeBadRequest, "owner name required", nil)
		case errors.Is(err, service.ErrUploadCategoryInvalid):
			respondError(c, response.CodeBadRequest, "invalid upload category", nil)
		case errors.Is(err, service.ErrUploadFileInvalid):
			respondError(c, response.CodeBadRequest, err.Error(), nil)
		default:
			respondError(c, response.CodeInternal, "upload failed", err)
		}
		return
	}

	urls := make([]string, 0, len(results))
	for _, result := range results {
		urls = append(urls, result.URL)
	}
	response.Success(c, gin.H{
		"files": results,
		"urls":  urls,
	})
}
