package webhooksapi

import (
	"farm-ops-backend/controllers"
	"farm-ops-backend/lib/conversation"
	apimodels "farm-ops-backend/models/api"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
	twilioclient "github.com/twilio/twilio-go/client"
)

const twilioSignatureHeader = "X-Twilio-Signature"

type twilioWebhookController struct {
	controllers.BaseAPIController
	validator *twilioclient.RequestValidator
	publicURL string
}

// InitTwilioWebhookApiRouters authToken пустой - подпись не проверяется
func InitTwilioWebhookApiRouters(app *fiber.App, authToken, publicURL string) {
	controller := twilioWebhookController{publicURL: publicURL}
	if authToken != "" {
		validator := twilioclient.NewRequestValidator(authToken)
		controller.validator = &validator
	}
	app.Route("twilio", func(router fiber.Router) {
		router.Post("messages", controller.messages)
	})
}

// @Summary Входящие сообщения WebHookApi
// @Tags Webhooks. Twilio
// @Description Входящие сообщения мессенджера; ответ отправляется сообщением, статус HTTP всегда 200
// @Param   From          		formData    string  true  "Отправитель, например whatsapp:+15551234567"
// @Param   Body          		formData    string  false  "Текст сообщения"
// @Param   MediaUrl0          	formData    string  false  "Ссылка на вложение"
// @Param   MediaContentType0   formData    string  false  "Тип вложения"
// @Success 200 {object} apimodels.Response
// @router /api/v1/webhooks/twilio/messages [post]
func (c *twilioWebhookController) messages(ctx *fiber.Ctx) error {
	msg := conversation.InboundMessage{
		From:             ctx.FormValue("From"),
		Body:             ctx.FormValue("Body"),
		MediaURL:         ctx.FormValue("MediaUrl0"),
		MediaContentType: ctx.FormValue("MediaContentType0"),
	}
	logger := log.
		WithField("from", msg.From).
		WithField("message_sid", ctx.FormValue("MessageSid"))
	if !c.validSignature(ctx) {
		logger.Warn("Вебхук twilio с неверной подписью")
		return ctx.Status(fiber.StatusOK).JSON(apimodels.NewError("invalid signature"))
	}
	logger.Info("Получен вебхук twilio")
	if err := conversation.Instance.Process(ctx.UserContext(), msg); err != nil {
		logger.WithError(err).Error("ошибка отправки ответа")
		return ctx.Status(fiber.StatusOK).JSON(apimodels.NewError("reply not sent"))
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(nil))
}

func (c *twilioWebhookController) validSignature(ctx *fiber.Ctx) bool {
	if c.validator == nil {
		return true
	}
	params := map[string]string{}
	ctx.Request().PostArgs().VisitAll(func(key, value []byte) {
		params[string(key)] = string(value)
	})
	target := c.publicURL
	if target == "" {
		target = ctx.BaseURL() + ctx.OriginalURL()
	}
	return c.validator.Validate(target, params, ctx.Get(twilioSignatureHeader))
}
