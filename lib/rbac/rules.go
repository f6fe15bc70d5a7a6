package rbac

import (
	"farm-ops-backend/models"
)

const (
	companyApp     = "company"
	rewardsApp     = "rewards"
	authorityModel = "authority"
	pointsModel    = "points"
)

func (i *impl) initRules() {
	i.authorityRules()
	i.rewardsRules()
}

func (i *impl) mustRegister(rule models.RbacRule, swaggerPattern string) {
	if err := i.RegisterRule(rule, swaggerPattern); err != nil {
		panic(err.Error())
	}
}

// запросы и утверждение уровней проверяются в обработчике: правило зависит от тела запроса
func (i *impl) authorityRules() {
	i.mustRegister(models.RbacRule{AppName: companyApp, ModelName: authorityModel, Action: models.ViewAction},
		"/api/v1/company/{company_id}/authority/list [get]")
}

func (i *impl) rewardsRules() {
	i.mustRegister(models.RbacRule{AppName: rewardsApp, ModelName: pointsModel, Action: models.AcceptAction},
		"/api/v1/company/{company_id}/rewards/task/{id}/allocate [post]")
	i.mustRegister(models.RbacRule{AppName: rewardsApp, ModelName: pointsModel, Action: models.ApproveAction},
		"/api/v1/company/{company_id}/rewards/task/{id}/approve [put]")
	i.mustRegister(models.RbacRule{AppName: rewardsApp, ModelName: pointsModel, Action: models.ViewAction},
		"/api/v1/company/{company_id}/rewards/summary [get]")
	i.mustRegister(models.RbacRule{AppName: rewardsApp, ModelName: pointsModel, Action: models.ViewAction},
		"/api/v1/company/{company_id}/rewards/report [get]")
	i.mustRegister(models.RbacRule{AppName: rewardsApp, ModelName: pointsModel, Action: models.ViewAction},
		"/api/v1/company/{company_id}/rewards/statement/{user_id} [get]")
}
