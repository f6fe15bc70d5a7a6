package db

import (
	dbmodels "farm-ops-backend/models/db"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// AllModels порядок важен: справочники раньше зависимых таблиц
func AllModels() []interface{} {
	return []interface{}{
		&dbmodels.User{},
		&dbmodels.Company{},
		&dbmodels.Branch{},
		&dbmodels.Staff{},
		&dbmodels.StaffLevel{},
		&dbmodels.StaffMember{},
		&dbmodels.Authority{},
		&dbmodels.ActivityOwner{},
		&dbmodels.Task{},
		&dbmodels.RewardsPointsTracker{},
		&dbmodels.Media{},
		&dbmodels.Pond{},
		&dbmodels.Net{},
		&dbmodels.Batch{},
	}
}

func AutoMigrateDB() error {
	return Migrate(DB)
}

func Migrate(tx *gorm.DB) error {
	log.Info("Запуск миграций")
	for _, model := range AllModels() {
		if err := tx.AutoMigrate(model); err != nil {
			return errors.Wrapf(err, "ошибка создания структуры %T", model)
		}
	}
	log.Info("Миграция прошла успешно")
	return nil
}
