package apiv1

import (
	"farm-ops-backend/controllers"
	mediahandler "farm-ops-backend/lib/media"
	apperrors "farm-ops-backend/lib/utils/app-errors"
	"farm-ops-backend/middleware"
	apimodels "farm-ops-backend/models/api"

	"github.com/gofiber/fiber/v2"
)

type mediaApiController struct {
	controllers.BaseAPIController
}

func initMediaRouters(router fiber.Router) {
	controller := mediaApiController{}
	router.Get("media/:id", controller.get)
}

// @Summary Файл вложения
// @Tags Вложения
// @Description Получить файл вложения задачи
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   company_id          path    int  true  "ID компании"
// @Param   id          		path    int  true  "ID вложения"
// @Success 200
// @Failure 400 {object} apimodels.Response
// @Failure 403 {object} apimodels.Response
// @Failure 404 {object} apimodels.Response
// @Failure 500 {object} apimodels.Response
// @router /api/v1/company/{company_id}/media/{id} [get]
func (c *mediaApiController) get(ctx *fiber.Ctx) error {
	mediaID, err := c.ParamsInt64(ctx, "id")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	body, media, err := mediahandler.Instance.GetFile(ctx.UserContext(), middleware.GetUserID(ctx), middleware.GetCompanyID(ctx), mediaID)
	if err != nil {
		if denied, ok := apperrors.AsPermissionDenied(err); ok {
			return ctx.Status(fiber.StatusForbidden).JSON(apimodels.NewError(denied.Reason))
		}
		if apperrors.IsNotFound(err) {
			return ctx.Status(fiber.StatusNotFound).JSON(apimodels.NewError(err.Error()))
		}
		return c.SendError(ctx, c.GetLogger(ctx).WithField("media_id", mediaID), err, "Ошибка получения файла")
	}
	if media.ContentType != "" {
		ctx.Set("Content-Type", media.ContentType)
	}
	return ctx.SendStream(body)
}
