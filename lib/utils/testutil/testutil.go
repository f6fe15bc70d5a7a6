package testutil

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"farm-ops-backend/db"
	"farm-ops-backend/models"
	dbmodels "farm-ops-backend/models/db"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupTestDB отдельная in-memory база на каждый тест со всеми миграциями
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())
	tx, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	require.NoError(t, err)
	sqlDB, err := tx.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	require.NoError(t, db.Migrate(tx))
	return tx
}

// Fixture типовая компания: создатель, филиал, сотрудники с уровнями
type Fixture struct {
	Creator   dbmodels.User
	Company   dbmodels.Company
	Branch    dbmodels.Branch
	Owner     dbmodels.User
	Assistant dbmodels.User
	Other     dbmodels.User
	Outsider  dbmodels.User
	Leader    dbmodels.User
	Activity  dbmodels.ActivityOwner
}

func CreateUser(t *testing.T, tx *gorm.DB, email, phone, passwordHash string) dbmodels.User {
	t.Helper()
	rec := dbmodels.User{
		Email:       email,
		Password:    passwordHash,
		FirstName:   strings.Split(email, "@")[0],
		PhoneNumber: phone,
		IsActive:    true,
	}
	require.NoError(t, tx.Create(&rec).Error)
	return rec
}

func CreateStaff(t *testing.T, tx *gorm.DB, companyID int64, user dbmodels.User, level int, maxMonthlyPoints float64) dbmodels.Staff {
	t.Helper()
	staff := dbmodels.Staff{
		BaseCompanyModel: dbmodels.BaseCompanyModel{CompanyID: companyID},
		UserID:           user.ID,
		FirstName:        user.FirstName,
		PhoneNumber:      user.PhoneNumber,
		Email:            user.Email,
		RewardEligible:   true,
		MaxMonthlyPoints: maxMonthlyPoints,
	}
	require.NoError(t, tx.Create(&staff).Error)
	if level > 0 {
		require.NoError(t, tx.Create(&dbmodels.StaffLevel{
			BaseCompanyModel: dbmodels.BaseCompanyModel{CompanyID: companyID},
			UserID:           user.ID,
			Level:            level,
			Active:           true,
		}).Error)
	}
	return staff
}

func NewFixture(t *testing.T, tx *gorm.DB) Fixture {
	t.Helper()
	f := Fixture{}
	f.Creator = CreateUser(t, tx, "creator@farm.io", "+10000000001", "")
	f.Company = dbmodels.Company{Name: "Blue Lake Farms", CreatorID: f.Creator.ID}
	require.NoError(t, tx.Create(&f.Company).Error)
	f.Branch = dbmodels.Branch{
		BaseCompanyModel: dbmodels.BaseCompanyModel{CompanyID: f.Company.ID},
		Name:             "North ponds",
		Domain:           models.AquacultureDomain,
	}
	require.NoError(t, tx.Create(&f.Branch).Error)

	f.Owner = CreateUser(t, tx, "owner@farm.io", "+10000000002", "")
	f.Assistant = CreateUser(t, tx, "assistant@farm.io", "+10000000003", "")
	f.Other = CreateUser(t, tx, "other@farm.io", "+10000000004", "")
	f.Leader = CreateUser(t, tx, "leader@farm.io", "+10000000005", "")
	f.Outsider = CreateUser(t, tx, "outsider@farm.io", "+10000000006", "")
	CreateStaff(t, tx, f.Company.ID, f.Owner, 2, 1000)
	CreateStaff(t, tx, f.Company.ID, f.Assistant, 2, 1000)
	CreateStaff(t, tx, f.Company.ID, f.Other, 2, 1000)
	CreateStaff(t, tx, f.Company.ID, f.Leader, 4, 1000)

	f.Activity = dbmodels.ActivityOwner{
		BaseCompanyModel:  dbmodels.BaseCompanyModel{CompanyID: f.Company.ID},
		BranchID:          f.Branch.ID,
		Activity:          "Harvest",
		AppName:           string(models.AquacultureDomain),
		ImportanceScale:   2,
		MinEstimatedCount: 5,
		OwnerID:           f.Owner.ID,
		AssistantID:       &f.Assistant.ID,
		Active:            true,
	}
	require.NoError(t, tx.Create(&f.Activity).Error)
	return f
}

// CreateTask активная задача владельца с помощником
func (f Fixture) CreateTask(t *testing.T, tx *gorm.DB, mutate func(task *dbmodels.Task)) dbmodels.Task {
	t.Helper()
	task := dbmodels.Task{
		BaseCompanyModel: dbmodels.BaseCompanyModel{CompanyID: f.Company.ID},
		BranchID:         f.Branch.ID,
		ActivityOwnerID:  &f.Activity.ID,
		Title:            "Harvest pond A",
		AppName:          string(models.AquacultureDomain),
		AssignedToID:     f.Owner.ID,
		AssistantID:      &f.Assistant.ID,
		Status:           models.TaskStatusActive,
		DueDate:          time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC),
		DataQuantity:     1,
	}
	if mutate != nil {
		mutate(&task)
	}
	require.NoError(t, tx.Create(&task).Error)
	return task
}
