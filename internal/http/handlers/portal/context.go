package portal

import (
	"strconv"

	handlershared "github.com/wholesale-portal/internal/http/handlers/shared"
	"github.com/wholesale-portal/internal/http/response"

	"github.com/gin-gonic/gin"
)

func respondError(c *gin.Context, code int, key string, err error) {
	handlershared.RespondError(c, code, key, err)
}

func getCompanyID(c *gin.Context) (uint, bool) {
	return handlershared.GetContextUintWithKeys(c, handlershared.ContextKeyCompanyID, "error.company_id_invalid", "error.company_id_type_invalid")
}

func parseUintParam(c *gin.Context, name string) (uint, bool) {
	value, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || value == 0 {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return 0, false
	}
	return uint(value), true
}
