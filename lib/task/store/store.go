package taskstore

import (
	"time"

	"farm-ops-backend/models"
	dbmodels "farm-ops-backend/models/db"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type Provider interface {
	Create(rec dbmodels.Task) (int64, error)
	GetByID(id int64) (rec *dbmodels.Task, err error)
	Update(id int64, updMap map[string]interface{}) error
	// ListForUser задачи, где пользователь исполнитель или помощник
	ListForUser(userID int64, statuses []models.TaskStatus) (list []dbmodels.Task, err error)
	ExistsForActivity(activityID int64, dueDate time.Time) (bool, error)
	ListCompletedInMonth(companyID, branchID int64, from, to time.Time) (list []dbmodels.Task, err error)
}

func NewInstance(DB *gorm.DB) Provider {
	return &impl{
		db: DB,
	}
}

type impl struct {
	db *gorm.DB
}

func (i impl) Create(rec dbmodels.Task) (int64, error) {
	err := i.db.
		Create(&rec).
		Error
	if err != nil {
		return 0, err
	}
	return rec.ID, nil
}

func (i impl) GetByID(id int64) (rec *dbmodels.Task, err error) {
	err = i.db.Model(dbmodels.Task{}).
		Where("id = ?", id).
		Preload("Branch").
		Preload("ActivityOwner").
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
		Model(&dbmodels.Task{}).
		Where("id = ?", id).
		Updates(updMap).
		Error
}

func (i impl) ListForUser(userID int64, statuses []models.TaskStatus) (list []dbmodels.Task, err error) {
	list = []dbmodels.Task{}
	tx := i.db.Model(dbmodels.Task{}).
		Where("assigned_to_id = ? OR assistant_id = ?", userID, userID)
	if len(statuses) > 0 {
		tx = tx.Where("status IN ?", statuses)
	}
	err = tx.
		Order("due_date ASC, id ASC").
		Find(&list).
		Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (i impl) ExistsForActivity(activityID int64, dueDate time.Time) (bool, error) {
	var count int64
	err := i.db.Model(dbmodels.Task{}).
		Where("activity_owner_id = ?", activityID).
		Where("due_date = ?", dueDate).
		Count(&count).
		Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (i impl) ListCompletedInMonth(companyID, branchID int64, from, to time.Time) (list []dbmodels.Task, err error) {
	list = []dbmodels.Task{}
	tx := i.db.Model(dbmodels.Task{}).
		Where("company_id = ?", companyID).
		Where("completed_date >= ? AND completed_date < ?", from, to)
	if branchID != 0 {
		tx = tx.Where("branch_id = ?", branchID)
	}
	err = tx.
		Order("completed_date ASC").
		Find(&list).
		Error
	if err != nil {
		return nil, err
	}
	return list, nil
}
