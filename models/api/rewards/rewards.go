package rewardsapimodels

import (
	"time"

	"github.com/pkg/errors"
)

const monthLayout = "2006-01"

type SummaryFilter struct {
	BranchID int64  `query:"branch_id"`
	Month    string `query:"month"` // YYYY-MM, по умолчанию текущий месяц
}

func (r SummaryFilter) Validate() error {
	if r.BranchID < 0 {
		return errors.New("некорректный филиал")
	}
	if r.Month == "" {
		return nil
	}
	if _, err := time.Parse(monthLayout, r.Month); err != nil {
		return errors.New("месяц должен быть в формате ГГГГ-ММ")
	}
	return nil
}

func (r SummaryFilter) GetMonth(now time.Time) time.Time {
	if r.Month == "" {
		return now.UTC()
	}
	month, err := time.Parse(monthLayout, r.Month)
	if err != nil {
		return now.UTC()
	}
	return month
}
