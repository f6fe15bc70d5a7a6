package rewardsstore

import (
	"time"

	dbmodels "farm-ops-backend/models/db"

	"gorm.io/gorm"
)

type Provider interface {
	Create(rec dbmodels.RewardsPointsTracker) (int64, error)
	ListByTask(taskID int64) (list []dbmodels.RewardsPointsTracker, err error)
	// MonthlyUsed credit + blocked + points_pending сотрудника за период [from, to)
	MonthlyUsed(userID int64, from, to time.Time) (float64, error)
	// MovePendingToCredit переносит points_pending в credit у строк задачи
	MovePendingToCredit(taskID int64, at time.Time) (int64, error)
	ListForPeriod(companyID, branchID int64, from, to time.Time) (list []dbmodels.RewardsPointsTracker, err error)
	SummaryByUser(companyID, branchID int64, from, to time.Time) (list []UserSummary, err error)
}

type UserSummary struct {
	UserID        int64
	Credit        float64
	Debit         float64
	Blocked       float64
	PointsPending float64
}

func NewInstance(DB *gorm.DB) Provider {
	return &impl{
		db: DB,
	}
}

type impl struct {
	db *gorm.DB
}

func (i impl) Create(rec dbmodels.RewardsPointsTracker) (int64, error) {
	err := i.db.
		Create(&rec).
		Error
	if err != nil {
		return 0, err
	}
	return rec.ID, nil
}

func (i impl) ListByTask(taskID int64) (list []dbmodels.RewardsPointsTracker, err error) {
	list = []dbmodels.RewardsPointsTracker{}
	err = i.db.
		Where("task_id = ?", taskID).
		Order("id ASC").
		Find(&list).
		Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (i impl) MonthlyUsed(userID int64, from, to time.Time) (float64, error) {
	var used float64
	err := i.db.Model(dbmodels.RewardsPointsTracker{}).
		Select("COALESCE(SUM(credit + blocked + points_pending), 0)").
		Where("user_id = ?", userID).
		Where("created_at >= ? AND created_at < ?", from, to).
		Scan(&used).
		Error
	if err != nil {
		return 0, err
	}
	return used, nil
}

func (i impl) MovePendingToCredit(taskID int64, at time.Time) (int64, error) {
	result := i.db.
		Model(&dbmodels.RewardsPointsTracker{}).
		Where("task_id = ?", taskID).
		Where("points_pending > 0").
		Updates(map[string]interface{}{
			"credit":         gorm.Expr("credit + points_pending"),
			"points_pending": 0,
			"credit_date":    at,
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (i impl) periodQuery(companyID, branchID int64, from, to time.Time) *gorm.DB {
	tx := i.db.Model(dbmodels.RewardsPointsTracker{}).
		Where("company_id = ?", companyID).
		Where("created_at >= ? AND created_at < ?", from, to)
	if branchID != 0 {
		tx = tx.Where("branch_id = ?", branchID)
	}
	return tx
}

func (i impl) ListForPeriod(companyID, branchID int64, from, to time.Time) (list []dbmodels.RewardsPointsTracker, err error) {
	list = []dbmodels.RewardsPointsTracker{}
	err = i.periodQuery(companyID, branchID, from, to).
		Order("id ASC").
		Find(&list).
		Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (i impl) SummaryByUser(companyID, branchID int64, from, to time.Time) (list []UserSummary, err error) {
	list = []UserSummary{}
	err = i.periodQuery(companyID, branchID, from, to).
		Select("user_id, SUM(credit) AS credit, SUM(debit) AS debit, SUM(blocked) AS blocked, SUM(points_pending) AS points_pending").
		Group("user_id").
		Order("user_id ASC").
		Scan(&list).
		Error
	if err != nil {
		return nil, err
	}
	return list, nil
}
