package existence

import (
	"context"
	"strings"

	"farm-ops-backend/db"
	apperrors "farm-ops-backend/lib/utils/app-errors"
	"farm-ops-backend/models"
	dbmodels "farm-ops-backend/models/db"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// Provider проверка, что введённое значение ссылается на существующую запись
type Provider interface {
	Exists(ctx context.Context, companyID int64, check dbmodels.ExistenceCheck, input string) (bool, error)
}

var Instance Provider

func NewHandler() {
	Instance = NewInstance(db.DB)
}

type entity struct {
	model  interface{}
	fields map[string]bool
}

type entityKey struct {
	appName   string
	modelName string
}

func NewInstance(tx *gorm.DB) Provider {
	i := &impl{
		db:       tx,
		entities: map[entityKey]entity{},
	}
	farmFields := map[string]bool{"id": true, "name": true, "code": true}
	for _, domain := range models.AllDomains {
		i.register(string(domain), "pond", entity{model: &dbmodels.Pond{}, fields: farmFields})
		i.register(string(domain), "net", entity{model: &dbmodels.Net{}, fields: farmFields})
		i.register(string(domain), "batch", entity{
			model:  &dbmodels.Batch{},
			fields: map[string]bool{"id": true, "name": true, "code": true, "species": true},
		})
	}
	return i
}

type impl struct {
	db       *gorm.DB
	entities map[entityKey]entity
}

func (i *impl) register(appName, modelName string, e entity) {
	i.entities[entityKey{appName: appName, modelName: strings.ToLower(modelName)}] = e
}

// Substitute подставляет ввод вместо * в шаблоне, пустой шаблон - ввод как есть
func Substitute(template, input string) string {
	if template == "" {
		return input
	}
	return strings.ReplaceAll(template, "*", input)
}

func (i *impl) Exists(ctx context.Context, companyID int64, check dbmodels.ExistenceCheck, input string) (bool, error) {
	e, ok := i.entities[entityKey{appName: check.AppName, modelName: strings.ToLower(check.ModelName)}]
	if !ok {
		return false, apperrors.NewValidationError("existence_check", "unknown entity "+check.AppName+"."+check.ModelName)
	}
	field := strings.ToLower(check.Field)
	if field == "" {
		field = "name"
	}
	if !e.fields[field] {
		return false, apperrors.NewValidationError("existence_check", "field "+check.Field+" is not searchable")
	}
	tx := i.db.WithContext(ctx).
		Model(e.model).
		Where("company_id = ?", companyID).
		Where(field+" = ?", Substitute(check.Template, input))
	if len(check.Statuses) > 0 {
		tx = tx.Where("status IN ?", []string(check.Statuses))
	}
	var count int64
	if err := tx.Count(&count).Error; err != nil {
		return false, errors.Wrap(err, "ошибка проверки существования записи")
	}
	return count > 0, nil
}
