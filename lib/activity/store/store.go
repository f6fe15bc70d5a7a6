package activitystore

import (
	"time"

	dbmodels "farm-ops-backend/models/db"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type Provider interface {
	Create(rec dbmodels.ActivityOwner) (int64, error)
	GetByID(id int64) (rec *dbmodels.ActivityOwner, err error)
	// TotalBranchWeight сумма importance_scale * min_estimated_count активных активностей филиала
	TotalBranchWeight(branchID int64) (float64, error)
	ListReoccurring() (list []dbmodels.ActivityOwner, err error)
	SetLastGenerated(id int64, at time.Time) error
}

func NewInstance(DB *gorm.DB) Provider {
	return &impl{
		db: DB,
	}
}

type impl struct {
	db *gorm.DB
}

func (i impl) Create(rec dbmodels.ActivityOwner) (int64, error) {
	err := i.db.
		Create(&rec).
		Error
	if err != nil {
		return 0, err
	}
	return rec.ID, nil
}

func (i impl) GetByID(id int64) (rec *dbmodels.ActivityOwner, err error) {
	err = i.db.Model(dbmodels.ActivityOwner{}).
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

func (i impl) TotalBranchWeight(branchID int64) (float64, error) {
	var total float64
	err := i.db.Model(dbmodels.ActivityOwner{}).
		Select("COALESCE(SUM(importance_scale * min_estimated_count), 0)").
		Where("branch_id = ?", branchID).
		Where("active = ?", true).
		Scan(&total).
		Error
	if err != nil {
		return 0, err
	}
	return total, nil
}

func (i impl) ListReoccurring() (list []dbmodels.ActivityOwner, err error) {
	list = []dbmodels.ActivityOwner{}
	err = i.db.Model(dbmodels.ActivityOwner{}).
		Where("active = ?", true).
		Where("reoccurring = ?", true).
		Order("id ASC").
		Find(&list).
		Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (i impl) SetLastGenerated(id int64, at time.Time) error {
	return i.db.
		Model(&dbmodels.ActivityOwner{}).
		Where("id = ?", id).
		Update("last_generated_at", at).
		Error
}
