package apiv1

import (
	"fmt"
	"time"

	"farm-ops-backend/controllers"
	pdfexport "farm-ops-backend/lib/export/pdf"
	xlsexport "farm-ops-backend/lib/export/xls"
	rewardshandler "farm-ops-backend/lib/rewards"
	apperrors "farm-ops-backend/lib/utils/app-errors"
	"farm-ops-backend/middleware"
	apimodels "farm-ops-backend/models/api"
	rewardsapimodels "farm-ops-backend/models/api/rewards"

	"github.com/gofiber/fiber/v2"
)

type rewardsApiController struct {
	controllers.BaseAPIController
}

func initRewardsRouters(router fiber.Router) {
	controller := rewardsApiController{}
	router.Route("rewards", func(rewardsRoute fiber.Router) {
		rewardsRoute.Route("task/:id", func(taskRoute fiber.Router) {
			taskRoute.Post("allocate", controller.allocate)
			taskRoute.Put("approve", controller.approve)
		})
		rewardsRoute.Get("summary", controller.summary)
		rewardsRoute.Get("report", controller.report)
		rewardsRoute.Get("statement/:user_id", controller.statement)
	})
}

// @Summary Начисление баллов
// @Tags Баллы
// @Description Начисление баллов по выполненной задаче исполнителю
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   company_id          path    int  true  "ID компании"
// @Param   id          		path    int  true  "ID задачи"
// @Success 200 {object} apimodels.Response{data=rewardshandler.AllocationResult}
// @Failure 400 {object} apimodels.Response
// @Failure 403 {object} apimodels.Response
// @Failure 500 {object} apimodels.Response
// @router /api/v1/company/{company_id}/rewards/task/{id}/allocate [post]
func (c *rewardsApiController) allocate(ctx *fiber.Ctx) error {
	taskID, err := c.ParamsInt64(ctx, "id")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	result, hMsg, err := rewardshandler.Instance.AllocateTask(ctx.UserContext(), middleware.GetCompanyID(ctx), taskID, middleware.GetUserID(ctx))
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx).WithField("task_id", taskID), err, "Ошибка начисления баллов")
	}
	if hMsg != "" {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(hMsg))
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(result))
}

// @Summary Подтверждение баллов
// @Tags Баллы
// @Description Перевод ожидающих баллов задачи в начисленные
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   company_id          path    int  true  "ID компании"
// @Param   id          		path    int  true  "ID задачи"
// @Success 200 {object} apimodels.Response
// @Failure 400 {object} apimodels.Response
// @Failure 403 {object} apimodels.Response
// @Failure 500 {object} apimodels.Response
// @router /api/v1/company/{company_id}/rewards/task/{id}/approve [put]
func (c *rewardsApiController) approve(ctx *fiber.Ctx) error {
	taskID, err := c.ParamsInt64(ctx, "id")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	hMsg, err := rewardshandler.Instance.ApproveTask(ctx.UserContext(), middleware.GetCompanyID(ctx), taskID, middleware.GetUserID(ctx))
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx).WithField("task_id", taskID), err, "Ошибка подтверждения баллов")
	}
	if hMsg != "" {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(hMsg))
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(nil))
}

// @Summary Итоги за месяц
// @Tags Баллы
// @Description Итоги начислений по сотрудникам за месяц
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   company_id          path    int  true  "ID компании"
// @Param   branch_id          	query   int  false  "ID филиала"
// @Param   month          		query   string  false  "Месяц ГГГГ-ММ"
// @Success 200 {object} apimodels.Response{data=rewardshandler.Summary}
// @Failure 400 {object} apimodels.Response
// @Failure 403 {object} apimodels.Response
// @Failure 500 {object} apimodels.Response
// @router /api/v1/company/{company_id}/rewards/summary [get]
func (c *rewardsApiController) summary(ctx *fiber.Ctx) error {
	summary, err := c.monthlySummary(ctx)
	if err != nil {
		return c.sendSummaryError(ctx, err)
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(summary))
}

// @Summary Выгрузка журнала баллов
// @Tags Баллы
// @Description Выгрузка итогов и журнала начислений за месяц в Excel
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   company_id          path    int  true  "ID компании"
// @Param   branch_id          	query   int  false  "ID филиала"
// @Param   month          		query   string  false  "Месяц ГГГГ-ММ"
// @Success 200
// @Failure 400 {object} apimodels.Response
// @Failure 403 {object} apimodels.Response
// @Failure 500 {object} apimodels.Response
// @router /api/v1/company/{company_id}/rewards/report [get]
func (c *rewardsApiController) report(ctx *fiber.Ctx) error {
	summary, err := c.monthlySummary(ctx)
	if err != nil {
		return c.sendSummaryError(ctx, err)
	}
	data, err := xlsexport.Instance.ExportRewardsSummary(summary)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка выгрузки журнала баллов в Excel")
	}
	fileName := fmt.Sprintf("rewards-%d-%s.xlsx", summary.CompanyID, summary.From.Format("2006-01"))
	ctx.Set("Content-Type", "application/vnd.ms-excel")
	ctx.Set(fiber.HeaderContentDisposition, `attachment; filename="`+fileName+`"`)
	return ctx.SendStream(data)
}

// @Summary Выписка сотрудника
// @Tags Баллы
// @Description Выписка начислений сотрудника за месяц в PDF
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   company_id          path    int  true  "ID компании"
// @Param   user_id          	path    int  true  "ID пользователя"
// @Param   month          		query   string  false  "Месяц ГГГГ-ММ"
// @Success 200
// @Failure 400 {object} apimodels.Response
// @Failure 403 {object} apimodels.Response
// @Failure 500 {object} apimodels.Response
// @router /api/v1/company/{company_id}/rewards/statement/{user_id} [get]
func (c *rewardsApiController) statement(ctx *fiber.Ctx) error {
	userID, err := c.ParamsInt64(ctx, "user_id")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	summary, err := c.monthlySummary(ctx)
	if err != nil {
		return c.sendSummaryError(ctx, err)
	}
	file, err := pdfexport.GenerateStatement(summary.CompanyName, summary, userID)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка формирования выписки")
	}
	fileName := fmt.Sprintf("statement-%d-%s.pdf", userID, summary.From.Format("2006-01"))
	ctx.Set("Content-Type", "application/pdf")
	ctx.Set(fiber.HeaderContentDisposition, `attachment; filename="`+fileName+`"`)
	return ctx.Send(file)
}

func (c *rewardsApiController) monthlySummary(ctx *fiber.Ctx) (rewardshandler.Summary, error) {
	var filter rewardsapimodels.SummaryFilter
	if err := ctx.QueryParser(&filter); err != nil {
		return rewardshandler.Summary{}, apperrors.NewValidationError("", "не удалось получить параметры запроса")
	}
	if err := filter.Validate(); err != nil {
		return rewardshandler.Summary{}, apperrors.NewValidationError("", err.Error())
	}
	return rewardshandler.Instance.MonthlySummary(ctx.UserContext(), middleware.GetCompanyID(ctx), filter.BranchID, filter.GetMonth(time.Now()))
}

func (c *rewardsApiController) sendSummaryError(ctx *fiber.Ctx, err error) error {
	if apperrors.IsValidation(err) {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	if apperrors.IsNotFound(err) {
		return ctx.Status(fiber.StatusNotFound).JSON(apimodels.NewError(err.Error()))
	}
	return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка получения итогов начислений")
}
