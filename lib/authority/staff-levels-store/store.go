package stafflevelsstore

import (
	dbmodels "farm-ops-backend/models/db"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type Provider interface {
	// SetActive добавляет активный уровень, предыдущие активные записи (user, company) гасятся
	SetActive(companyID, userID int64, level int) (int64, error)
	GetActive(companyID, userID int64) (rec *dbmodels.StaffLevel, err error)
	CountActive(companyID, userID int64) (int64, error)
}

func NewInstance(DB *gorm.DB) Provider {
	return &impl{
		db: DB,
	}
}

type impl struct {
	db *gorm.DB
}

func (i impl) SetActive(companyID, userID int64, level int) (id int64, err error) {
	err = i.db.Transaction(func(tx *gorm.DB) error {
		err := tx.
			Model(&dbmodels.StaffLevel{}).
			Where("company_id = ?", companyID).
			Where("user_id = ?", userID).
			Where("active = ?", true).
			Update("active", false).
			Error
		if err != nil {
			return errors.Wrap(err, "ошибка деактивации прежнего уровня")
		}
		rec := dbmodels.StaffLevel{
			BaseCompanyModel: dbmodels.BaseCompanyModel{CompanyID: companyID},
			UserID:           userID,
			Level:            level,
			Active:           true,
		}
		if err = tx.Create(&rec).Error; err != nil {
			return errors.Wrap(err, "ошибка сохранения уровня")
		}
		id = rec.ID
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (i impl) GetActive(companyID, userID int64) (rec *dbmodels.StaffLevel, err error) {
	err = i.db.Model(dbmodels.StaffLevel{}).
		Where("company_id = ?", companyID).
		Where("user_id = ?", userID).
		Where("active = ?", true).
		Order("id DESC").
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

func (i impl) CountActive(companyID, userID int64) (count int64, err error) {
	err = i.db.Model(dbmodels.StaffLevel{}).
		Where("company_id = ?", companyID).
		Where("user_id = ?", userID).
		Where("active = ?", true).
		Count(&count).
		Error
	return count, err
}
