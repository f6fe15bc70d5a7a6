package middleware

import (
	"regexp"
	"strconv"

	authutils "farm-ops-backend/lib/utils/auth-utils"

	"github.com/gofiber/fiber/v2"
)

// GetUserID идентификатор пользователя из токена, 0 если его нет
func GetUserID(ctx *fiber.Ctx) int64 {
	claims := authutils.GetClaims(ctx)
	switch sub := claims["sub"].(type) {
	case float64:
		return int64(sub)
	case string:
		id, _ := strconv.ParseInt(sub, 10, 64)
		return id
	}
	return 0
}

func IsSuperuser(ctx *fiber.Ctx) bool {
	claims := authutils.GetClaims(ctx)
	superuser, _ := claims["superuser"].(bool)
	return superuser
}

var companyPathRegexp = regexp.MustCompile(`/company/(\d+)(?:/|$)`)

// GetCompanyID компания из пути /company/{id}/..., иначе из query company_id
func GetCompanyID(ctx *fiber.Ctx) int64 {
	if match := companyPathRegexp.FindStringSubmatch(ctx.Path()); match != nil {
		id, err := strconv.ParseInt(match[1], 10, 64)
		if err == nil {
			return id
		}
	}
	id, _ := strconv.ParseInt(ctx.Query("company_id"), 10, 64)
	return id
}
