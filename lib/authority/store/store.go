package authoritystore

import (
	dbmodels "farm-ops-backend/models/db"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type Provider interface {
	Create(rec dbmodels.Authority) (int64, error)
	Get(companyID int64, appName, modelName string) (rec *dbmodels.Authority, err error)
	GetByID(id int64) (rec *dbmodels.Authority, err error)
	Update(id int64, updMap map[string]interface{}) error
	List(companyID int64) (list []dbmodels.Authority, err error)
}

func NewInstance(DB *gorm.DB) Provider {
	return &impl{
		db: DB,
	}
}

type impl struct {
	db *gorm.DB
}

func (i impl) Create(rec dbmodels.Authority) (int64, error) {
	err := i.db.
		Create(&rec).
		Error
	if err != nil {
		return 0, err
	}
	return rec.ID, nil
}

func (i impl) Get(companyID int64, appName, modelName string) (rec *dbmodels.Authority, err error) {
	err = i.db.Model(dbmodels.Authority{}).
		Where("company_id = ?", companyID).
		Where("app_name = ?", appName).
		Where("model_name = ?", modelName).
		First(&rec).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return rec, nil
}

func (i impl) GetByID(id int64) (rec *dbmodels.Authority, err error) {
	err = i.db.Model(dbmodels.Authority{}).
		Where("id = ?", id).
		First(&rec).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return rec, nil
}

func (i impl) Update(id int64, updMap map[string]interface{}) error {
	if len(updMap) == 0 {
		return nil
	}
	return i.db.
		Model(&dbmodels.Authority{}).
		Where("id = ?", id).
		Updates(updMap).
		Error
}

func (i impl) List(companyID int64) (list []dbmodels.Authority, err error) {
	list = []dbmodels.Authority{}
	err = i.db.
		Where("company_id = ?", companyID).
		Order("app_name ASC, model_name ASC").
		Find(&list).
		Error
	if err != nil {
		return nil, err
	}
	return list, nil
}
