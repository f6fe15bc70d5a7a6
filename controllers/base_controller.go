package controllers

import (
	"farm-ops-backend/middleware"
	apimodels "farm-ops-backend/models/api"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

type BaseAPIController struct{}

func (c *BaseAPIController) BodyParser(ctx *fiber.Ctx, out interface{}) error {
	if err := ctx.BodyParser(out); err != nil {
		log.WithError(err).Error("ошибка распознавания запроса")
		return errors.New("не удалось получить данные из запроса")
	}
	return nil
}

func (c *BaseAPIController) GetLogger(ctx *fiber.Ctx) *log.Entry {
	return log.
		WithField("user_id", middleware.GetUserID(ctx)).
		WithField("company_id", middleware.GetCompanyID(ctx)).
		WithField("path", ctx.Path())
}

// SendError пишет ошибку в лог и отдаёт клиенту только msg
func (c *BaseAPIController) SendError(ctx *fiber.Ctx, logger *log.Entry, err error, msg string) error {
	logger.WithError(err).Error(msg)
	return ctx.Status(fiber.StatusInternalServerError).JSON(apimodels.NewError(msg))
}

// ParamsInt64 положительный числовой параметр пути
func (c *BaseAPIController) ParamsInt64(ctx *fiber.Ctx, key string) (int64, error) {
	value, err := ctx.ParamsInt(key)
	if err != nil || value <= 0 {
		return 0, errors.Errorf("некорректный параметр %s", key)
	}
	return int64(value), nil
}
