package rewardshandler

import (
	"context"
	"time"

	companystore "farm-ops-backend/lib/company/store"
	rewardsstore "farm-ops-backend/lib/rewards/store"
	staffstore "farm-ops-backend/lib/staff/store"
	apperrors "farm-ops-backend/lib/utils/app-errors"
	"farm-ops-backend/lib/utils/helpers"
	dbmodels "farm-ops-backend/models/db"

	"github.com/pkg/errors"
)

type Summary struct {
	CompanyID   int64                           `json:"company_id"`
	CompanyName string                          `json:"company_name"`
	BranchID    int64                           `json:"branch_id,omitempty"`
	From        time.Time                       `json:"from"`
	To          time.Time                       `json:"to"`
	Users       []UserSummary                   `json:"users"`
	Rows        []dbmodels.RewardsPointsTracker `json:"-"`
}

type UserSummary struct {
	UserID        int64   `json:"user_id"`
	Name          string  `json:"name"`
	Credit        float64 `json:"credit"`
	Debit         float64 `json:"debit"`
	Blocked       float64 `json:"blocked"`
	PointsPending float64 `json:"points_pending"`
	MaxMonthly    float64 `json:"max_monthly"`
}

// Remaining остаток месячного лимита
func (u UserSummary) Remaining() float64 {
	return helpers.Round2(u.MaxMonthly - u.Credit - u.Blocked - u.PointsPending)
}

func (i impl) MonthlySummary(ctx context.Context, companyID, branchID int64, month time.Time) (Summary, error) {
	if err := ctx.Err(); err != nil {
		return Summary{}, err
	}
	from, to := helpers.MonthRange(month)
	company, err := companystore.NewInstance(i.db).GetByID(companyID)
	if err != nil {
		return Summary{}, errors.Wrap(err, "ошибка получения компании")
	}
	if company == nil {
		return Summary{}, apperrors.NewNotFound("company", companyID)
	}
	store := rewardsstore.NewInstance(i.db)
	rows, err := store.ListForPeriod(companyID, branchID, from, to)
	if err != nil {
		return Summary{}, errors.Wrap(err, "ошибка получения журнала начислений")
	}
	totals, err := store.SummaryByUser(companyID, branchID, from, to)
	if err != nil {
		return Summary{}, errors.Wrap(err, "ошибка расчёта итогов")
	}
	staff := staffstore.NewInstance(i.db)
	users := make([]UserSummary, 0, len(totals))
	for _, total := range totals {
		item := UserSummary{
			UserID:        total.UserID,
			Credit:        helpers.Round2(total.Credit),
			Debit:         helpers.Round2(total.Debit),
			Blocked:       helpers.Round2(total.Blocked),
			PointsPending: helpers.Round2(total.PointsPending),
		}
		rec, err := staff.Get(companyID, total.UserID)
		if err != nil {
			return Summary{}, err
		}
		if rec != nil {
			item.Name = rec.GetFullName()
			item.MaxMonthly = rec.MaxMonthlyPoints
		}
		users = append(users, item)
	}
	return Summary{
		CompanyID:   companyID,
		CompanyName: company.Name,
		BranchID:    branchID,
		From:        from,
		To:          to,
		Users:       users,
		Rows:        rows,
	}, nil
}
