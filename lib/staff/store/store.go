package staffstore

import (
	dbmodels "farm-ops-backend/models/db"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type Provider interface {
	Create(rec dbmodels.Staff) (int64, error)
	Get(companyID, userID int64) (rec *dbmodels.Staff, err error)
	ListByUser(userID int64) (list []dbmodels.Staff, err error)
	FindByPhone(phone string) (rec *dbmodels.Staff, err error)
}

func NewInstance(DB *gorm.DB) Provider {
	return &impl{
		db: DB,
	}
}

type impl struct {
	db *gorm.DB
}

func (i impl) Create(rec dbmodels.Staff) (int64, error) {
	err := i.db.
		Save(&rec).
		Error
	if err != nil {
		return 0, err
	}
	return rec.ID, nil
}

func (i impl) Get(companyID, userID int64) (rec *dbmodels.Staff, err error) {
	err = i.db.Model(dbmodels.Staff{}).
		Where("company_id = ?", companyID).
		Where("user_id = ?", userID).
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

func (i impl) ListByUser(userID int64) (list []dbmodels.Staff, err error) {
	list = []dbmodels.Staff{}
	err = i.db.Model(dbmodels.Staff{}).
		Where("user_id = ?", userID).
		Order("company_id ASC").
		Find(&list).
		Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (i impl) FindByPhone(phone string) (rec *dbmodels.Staff, err error) {
	err = i.db.Model(dbmodels.Staff{}).
		Where("phone_number = ?", phone).
		Order("id ASC").
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
