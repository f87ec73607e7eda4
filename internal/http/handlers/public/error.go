package public

import (
	handlershared "github.com/afiliados-next/internal/http/handlers/shared"
	"github.com/afiliados-next/internal/http/response"
	"github.com/afiliados-next/internal/service"

	"github.com/gin-gonic/gin"
)

func respondError(c *gin.Context, code int, msg string, err error) {
	handlershared.RespondError(c, code, msg, err)
}

func respondErrorWithData(c *gin.Context, code int, msg string, data interface{}, err error) {
	handlershared.RespondErrorWithData(c, code, msg, data, err)
}

// respondFieldErrors 返回字段级校验错误，data 中携带 fields 映射
func respondFieldErrors(c *gin.Context, fields service.FieldErrors) {
	respondErrorWithData(c, response.CodeBadRequest, "validation failed", gin.H{"fields": fields}, nil)
}
