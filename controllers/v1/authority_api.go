package apiv1

import (
	"farm-ops-backend/controllers"
	authorityhandler "farm-ops-backend/lib/authority"
	apperrors "farm-ops-backend/lib/utils/app-errors"
	"farm-ops-backend/middleware"
	apimodels "farm-ops-backend/models/api"
	authorityapimodels "farm-ops-backend/models/api/authority"

	"github.com/gofiber/fiber/v2"
)

type authorityApiController struct {
	controllers.BaseAPIController
}

func initAuthorityRouters(router fiber.Router) {
	controller := authorityApiController{}
	router.Route("authority", func(authorityRoute fiber.Router) {
		authorityRoute.Get("list", controller.list)
		authorityRoute.Post("", controller.request)
		authorityRoute.Put(":id/approve", controller.approve)
	})
	router.Put("staff/:user_id/level", controller.setStaffLevel)
}

func initAuthorityResolveRouters(app *fiber.App) {
	controller := authorityApiController{}
	app.Route("authority", func(router fiber.Router) {
		router.Use(middleware.AuthorizationRequired())
		router.Post("resolve", controller.resolve)
	})
}

// @Summary Проверка прав
// @Tags Права доступа
// @Description Проверка прав текущего пользователя на действие с моделью
// @Param   Authorization		header		string	true	"Authorization token"
// @Param	body body	 authorityapimodels.ResolveRequest	true	"request body"
// @Success 200 {object} apimodels.Response{data=authorityapimodels.ResolveView}
// @Failure 400 {object} apimodels.Response
// @Failure 404 {object} apimodels.Response
// @Failure 500 {object} apimodels.Response
// @router /api/v1/authority/resolve [post]
func (c *authorityApiController) resolve(ctx *fiber.Ctx) error {
	var payload authorityapimodels.ResolveRequest
	if err := c.BodyParser(ctx, &payload); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	if err := payload.Validate(); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	decision, err := authorityhandler.Instance.Resolve(ctx.UserContext(), authorityhandler.ResolveRequest{
		UserID:    middleware.GetUserID(ctx),
		CompanyID: payload.CompanyID,
		AppName:   payload.AppName,
		ModelName: payload.ModelName,
		Action:    payload.Action,
		MinLevel:  payload.MinLevel,
	})
	if err != nil && !apperrors.IsPermissionDenied(err) {
		if apperrors.IsNotFound(err) {
			return ctx.Status(fiber.StatusNotFound).JSON(apimodels.NewError(err.Error()))
		}
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка проверки прав")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(authorityhandler.ToView(decision, err)))
}

// @Summary Список прав компании
// @Tags Права доступа
// @Description Список прав компании
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   company_id          path    int  true  "ID компании"
// @Success 200 {object} apimodels.Response{data=[]authorityapimodels.AuthorityView}
// @Failure 403 {object} apimodels.Response
// @Failure 500 {object} apimodels.Response
// @router /api/v1/company/{company_id}/authority/list [get]
func (c *authorityApiController) list(ctx *fiber.Ctx) error {
	list, err := authorityhandler.Instance.List(ctx.UserContext(), middleware.GetCompanyID(ctx))
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка получения списка прав")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(list))
}

// @Summary Запрос прав
// @Tags Права доступа
// @Description Запрос уровней доступа к модели; вступает в силу после утверждения
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   company_id          path    int  true  "ID компании"
// @Param	body body	 authorityapimodels.AuthorityData	true	"request body"
// @Success 200 {object} apimodels.Response{data=int64}
// @Failure 400 {object} apimodels.Response
// @Failure 403 {object} apimodels.Response
// @Failure 500 {object} apimodels.Response
// @router /api/v1/company/{company_id}/authority [post]
func (c *authorityApiController) request(ctx *fiber.Ctx) error {
	var payload authorityapimodels.AuthorityData
	if err := c.BodyParser(ctx, &payload); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	if err := payload.Validate(); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	id, hMsg, err := authorityhandler.Instance.RequestAuthority(ctx.UserContext(), middleware.GetUserID(ctx), middleware.GetCompanyID(ctx), payload)
	if err != nil {
		return c.sendAuthorityError(ctx, err, "Ошибка запроса прав")
	}
	if hMsg != "" {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(hMsg))
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(id))
}

// @Summary Утверждение прав
// @Tags Права доступа
// @Description Утверждение запрошенных прав с итоговыми уровнями
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   company_id          path    int  true  "ID компании"
// @Param   id          		path    int  true  "ID запроса прав"
// @Param	body body	 authorityapimodels.AuthorityData	true	"request body"
// @Success 200 {object} apimodels.Response
// @Failure 400 {object} apimodels.Response
// @Failure 403 {object} apimodels.Response
// @Failure 500 {object} apimodels.Response
// @router /api/v1/company/{company_id}/authority/{id}/approve [put]
func (c *authorityApiController) approve(ctx *fiber.Ctx) error {
	id, err := c.ParamsInt64(ctx, "id")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	var payload authorityapimodels.AuthorityData
	if err = c.BodyParser(ctx, &payload); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	if err = payload.Validate(); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	hMsg, err := authorityhandler.Instance.ApproveAuthority(ctx.UserContext(), middleware.GetUserID(ctx), id, payload)
	if err != nil {
		return c.sendAuthorityError(ctx, err, "Ошибка утверждения прав")
	}
	if hMsg != "" {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(hMsg))
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(nil))
}

// @Summary Уровень сотрудника
// @Tags Права доступа
// @Description Установка уровня сотрудника в компании
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   company_id          path    int  true  "ID компании"
// @Param   user_id          	path    int  true  "ID пользователя"
// @Param	body body	 authorityapimodels.StaffLevelRequest	true	"request body"
// @Success 200 {object} apimodels.Response
// @Failure 400 {object} apimodels.Response
// @Failure 403 {object} apimodels.Response
// @Failure 500 {object} apimodels.Response
// @router /api/v1/company/{company_id}/staff/{user_id}/level [put]
func (c *authorityApiController) setStaffLevel(ctx *fiber.Ctx) error {
	userID, err := c.ParamsInt64(ctx, "user_id")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	var payload authorityapimodels.StaffLevelRequest
	if err = c.BodyParser(ctx, &payload); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	payload.CompanyID = middleware.GetCompanyID(ctx)
	payload.UserID = userID
	if err = payload.Validate(); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	hMsg, err := authorityhandler.Instance.SetStaffLevel(ctx.UserContext(), middleware.GetUserID(ctx), payload.CompanyID, payload.UserID, payload.Level)
	if err != nil {
		return c.sendAuthorityError(ctx, err, "Ошибка установки уровня сотрудника")
	}
	if hMsg != "" {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(hMsg))
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(nil))
}

// sendAuthorityError отказ в правах - 403, отсутствующая запись - 404, остальное - 500
func (c *authorityApiController) sendAuthorityError(ctx *fiber.Ctx, err error, msg string) error {
	if apperrors.IsPermissionDenied(err) {
		return ctx.Status(fiber.StatusForbidden).JSON(apimodels.Response{
			Status:  "fail",
			Message: "RBAC_FORBIDDEN",
			Data:    authorityhandler.ToView(authorityhandler.Decision{}, err),
		})
	}
	if apperrors.IsNotFound(err) {
		return ctx.Status(fiber.StatusNotFound).JSON(apimodels.NewError(err.Error()))
	}
	return c.SendError(ctx, c.GetLogger(ctx), err, msg)
}
