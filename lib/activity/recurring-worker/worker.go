package recurringworker

import (
	"context"
	"time"

	"farm-ops-backend/db"
	activitystore "farm-ops-backend/lib/activity/store"
	taskstore "farm-ops-backend/lib/task/store"
	baseworker "farm-ops-backend/lib/utils/base-worker"
	"farm-ops-backend/lib/utils/helpers"
	"farm-ops-backend/models"
	dbmodels "farm-ops-backend/models/db"

	"gorm.io/gorm"
)

func StartWorker(ctx context.Context, runInterval time.Duration) {
	i := newInstance(db.DB, runInterval)
	go i.Run(ctx, i.handle)
}

func newInstance(tx *gorm.DB, runInterval time.Duration) *impl {
	return &impl{
		BaseImpl: *baseworker.NewInstance("RecurringTasksWorker", 20*time.Second, runInterval),
		db:       tx,
		now: func() time.Time {
			return time.Now().UTC()
		},
	}
}

type impl struct {
	baseworker.BaseImpl
	db  *gorm.DB
	now func() time.Time
}

func (i impl) handle(ctx context.Context) {
	created := i.generate(ctx)
	if created > 0 {
		i.GetLogger().Infof("Создано задач: %d", created)
	}
}

// generate создаёт задачи по повторяющимся активностям, у которых подошёл интервал
func (i impl) generate(ctx context.Context) (created int) {
	logger := i.GetLogger()
	today := helpers.TruncateToDay(i.now())
	list, err := activitystore.NewInstance(i.db).ListReoccurring()
	if err != nil {
		logger.WithError(err).Error("Ошибка получения списка повторяющихся активностей")
		return 0
	}
	for _, activity := range list {
		if helpers.IsContextDone(ctx) {
			break
		}
		if !isDue(activity, today) {
			continue
		}
		ok, err := i.createTask(activity, today)
		if err != nil {
			logger.
				WithError(err).
				WithField("activity_id", activity.ID).
				Error("Ошибка создания задачи по активности")
			continue
		}
		if ok {
			created++
		}
	}
	return created
}

func isDue(activity dbmodels.ActivityOwner, today time.Time) bool {
	if activity.IntervalDays <= 0 {
		return false
	}
	if activity.StartDate != nil && helpers.TruncateToDay(*activity.StartDate).After(today) {
		return false
	}
	if activity.EndDate != nil && helpers.TruncateToDay(*activity.EndDate).Before(today) {
		return false
	}
	if activity.LastGeneratedAt == nil {
		return true
	}
	return helpers.DaysBetween(*activity.LastGeneratedAt, today) >= activity.IntervalDays
}

func (i impl) createTask(activity dbmodels.ActivityOwner, today time.Time) (created bool, err error) {
	dueDate := today.AddDate(0, 0, activity.IntervalDays)
	err = i.db.Transaction(func(tx *gorm.DB) error {
		tasks := taskstore.NewInstance(tx)
		exists, txErr := tasks.ExistsForActivity(activity.ID, dueDate)
		if txErr != nil {
			return txErr
		}
		if !exists {
			activityID := activity.ID
			_, txErr = tasks.Create(dbmodels.Task{
				BaseCompanyModel: dbmodels.BaseCompanyModel{CompanyID: activity.CompanyID},
				BranchID:         activity.BranchID,
				ActivityOwnerID:  &activityID,
				Title:            activity.Activity,
				AppName:          activity.AppName,
				AssignedToID:     activity.OwnerID,
				AssistantID:      activity.AssistantID,
				Status:           models.TaskStatusActive,
				DueDate:          dueDate,
				DataQuantity:     activity.DataQuantity,
				Description:      activity.Description,
			})
			if txErr != nil {
				return txErr
			}
			created = true
		}
		return activitystore.NewInstance(tx).SetLastGenerated(activity.ID, today)
	})
	return created, err
}
