package mediastore

import (
	"farm-ops-backend/models"
	dbmodels "farm-ops-backend/models/db"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type Provider interface {
	Create(rec dbmodels.Media) (int64, error)
	GetByID(id int64) (rec *dbmodels.Media, err error)
	// ListActiveWithFile активные вложения с файлом среди ids
	ListActiveWithFile(ids []int64) (list []dbmodels.Media, err error)
	ListByOwner(appName, modelName string, modelID int64) (list []dbmodels.Media, err error)
}

func NewInstance(DB *gorm.DB) Provider {
	return &impl{
		db: DB,
	}
}

type impl struct {
	db *gorm.DB
}

func (i impl) Create(rec dbmodels.Media) (int64, error) {
	err := i.db.
		Create(&rec).
		Error
	if err != nil {
		return 0, err
	}
	return rec.ID, nil
}

func (i impl) GetByID(id int64) (rec *dbmodels.Media, err error) {
	err = i.db.Model(dbmodels.Media{}).
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

func (i impl) ListActiveWithFile(ids []int64) (list []dbmodels.Media, err error) {
	list = []dbmodels.Media{}
	if len(ids) == 0 {
		return list, nil
	}
	err = i.db.Model(dbmodels.Media{}).
		Where("id IN ?", ids).
		Where("status = ?", models.MediaStatusActive).
		Where("file <> ''").
		Find(&list).
		Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (i impl) ListByOwner(appName, modelName string, modelID int64) (list []dbmodels.Media, err error) {
	list = []dbmodels.Media{}
	err = i.db.Model(dbmodels.Media{}).
		Where("app_name = ?", appName).
		Where("model_name = ?", modelName).
		Where("model_id = ?", modelID).
		Order("id ASC").
		Find(&list).
		Error
	if err != nil {
		return nil, err
	}
	return list, nil
}
