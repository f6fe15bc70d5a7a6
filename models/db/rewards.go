package dbmodels

import (
	"time"

	"farm-ops-backend/models"
)

// RewardsPointsTracker журнал начислений, строки только добавляются
type RewardsPointsTracker struct {
	BaseCompanyModel
	BranchID        int64 `gorm:"index"`
	UserID          int64 `gorm:"index"`
	TaskID          int64 `gorm:"index"`
	Credit          float64
	Debit           float64
	Blocked         float64
	PointsPending   float64
	CreditDate      *time.Time `gorm:"index"`
	DebitDate       *time.Time
	TransactionType models.TransactionType `gorm:"type:varchar(30)"`
}

func (RewardsPointsTracker) TableName() string {
	return "rewards_points_tracker"
}

func (r RewardsPointsTracker) OwnerUserID() int64 {
	return r.UserID
}
