package companystore

import (
	dbmodels "farm-ops-backend/models/db"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type Provider interface {
	GetByID(companyID int64) (rec *dbmodels.Company, err error)
	GetBranch(companyID, branchID int64) (rec *dbmodels.Branch, err error)
}

func NewInstance(DB *gorm.DB) Provider {
	return &impl{
		db: DB,
	}
}

type impl struct {
	db *gorm.DB
}

func (i impl) GetByID(companyID int64) (rec *dbmodels.Company, err error) {
	err = i.db.Model(dbmodels.Company{}).
		Where("id = ?", companyID).
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

func (i impl) GetBranch(companyID, branchID int64) (rec *dbmodels.Branch, err error) {
	err = i.db.Model(dbmodels.Branch{}).
		Where("id = ?", branchID).
		Where("company_id = ?", companyID).
		Preload("Manager").
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
