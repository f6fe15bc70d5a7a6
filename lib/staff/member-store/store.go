package staffmemberstore

import (
	"farm-ops-backend/models"
	dbmodels "farm-ops-backend/models/db"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type Provider interface {
	Get(companyID int64, domain models.Domain, userID int64) (rec *dbmodels.StaffMember, err error)
	Save(rec dbmodels.StaffMember) (int64, error)
}

func NewInstance(DB *gorm.DB) Provider {
	return &impl{
		db: DB,
	}
}

type impl struct {
	db *gorm.DB
}

func (i impl) Get(companyID int64, domain models.Domain, userID int64) (rec *dbmodels.StaffMember, err error) {
	err = i.db.Model(dbmodels.StaffMember{}).
		Where("company_id = ?", companyID).
		Where("domain = ?", domain).
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

func (i impl) Save(rec dbmodels.StaffMember) (int64, error) {
	err := i.db.
		Save(&rec).
		Error
	if err != nil {
		return 0, err
	}
	return rec.ID, nil
}
