package middleware

import (
	authorityhandler "farm-ops-backend/lib/authority"
	"farm-ops-backend/lib/rbac"
	apperrors "farm-ops-backend/lib/utils/app-errors"
	apimodels "farm-ops-backend/models/api"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
)

const DecisionLocalKey = "authority_decision"

func RbacMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		rule, found := rbac.Instance.GetRule(ctx.Method(), ctx.Path())
		if !found {
			return ctx.Next()
		}
		userID := GetUserID(ctx)
		if userID == 0 {
			return ctx.Status(fiber.StatusForbidden).JSON(apimodels.NewError("RBAC_FORBIDDEN"))
		}
		companyID := GetCompanyID(ctx)
		if companyID == 0 {
			return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError("не указана компания"))
		}

		decision, err := authorityhandler.Instance.Resolve(ctx.UserContext(), authorityhandler.ResolveRequest{
			UserID:    userID,
			CompanyID: companyID,
			AppName:   rule.AppName,
			ModelName: rule.ModelName,
			Action:    rule.Action,
			MinLevel:  rule.MinLevel,
		})
		if err != nil {
			if apperrors.IsPermissionDenied(err) {
				return ctx.Status(fiber.StatusForbidden).JSON(apimodels.Response{
					Status:  "fail",
					Message: "RBAC_FORBIDDEN",
					Data:    authorityhandler.ToView(decision, err),
				})
			}
			if apperrors.IsNotFound(err) {
				return ctx.Status(fiber.StatusNotFound).JSON(apimodels.NewError(err.Error()))
			}
			log.
				WithError(err).
				WithField("company_id", companyID).
				WithField("user_id", userID).
				Error("ошибка проверки прав")
			return ctx.Status(fiber.StatusInternalServerError).JSON(apimodels.NewError(err.Error()))
		}
		ctx.Locals(DecisionLocalKey, decision)
		return ctx.Next()
	}
}
