package apiv1

import (
	"farm-ops-backend/middleware"

	"github.com/gofiber/fiber/v2"
)

// InitCompanyApiRouters маршруты управления компанией: права, баллы, вложения
func InitCompanyApiRouters(app *fiber.App) {
	app.Route("company/:company_id", func(router fiber.Router) {
		router.Use(middleware.AuthorizationRequired())
		router.Use(middleware.RbacMiddleware())

		initAuthorityRouters(router)
		initRewardsRouters(router)
		initMediaRouters(router)
	})
	initAuthorityResolveRouters(app)
}
