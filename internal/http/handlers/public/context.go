package public

import (
	"strings"

	handlershared "github.com/afiliados-next/internal/http/handlers/shared"
	"github.com/afiliados-next/internal/service"

	"github.com/gin-gonic/gin"
)

func getAffiliateID(c *gin.Context) (uint, bool) {
	return handlershared.GetContextUint(c, "affiliate_id")
}

func loginContext(c *gin.Context) service.LoginContext {
	requestID := ""
	if rid, ok := c.Get("request_id"); ok {
		if value, ok := rid.(string); ok {
			requestID = strings.TrimSpace(value)
		}
	}
	return service.LoginContext{
		ClientIP:  c.ClientIP(),
		UserAgent: c.GetHeader("User-Agent"),
		RequestID: requestID,
	}
}
