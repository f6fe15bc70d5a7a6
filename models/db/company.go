package dbmodels

import (
	"fmt"
	"strings"

	"farm-ops-backend/models"
)

type Company struct {
	BaseModel
	Name      string `gorm:"type:varchar(255)"`
	CreatorID int64  `gorm:"index"`
}

type Branch struct {
	BaseCompanyModel
	Name      string        `gorm:"type:varchar(255)"`
	Domain    models.Domain `gorm:"type:varchar(50)"`
	ManagerID *int64
	Manager   *User `gorm:"foreignKey:ManagerID"`
}

// Staff членство пользователя в компании, контакты не зависят от учётки
type Staff struct {
	BaseCompanyModel
	UserID           int64  `gorm:"uniqueIndex:idx_staff_user_company"`
	FirstName        string `gorm:"type:varchar(150)"`
	LastName         string `gorm:"type:varchar(150)"`
	PhoneNumber      string `gorm:"type:varchar(20);index"`
	Email            string `gorm:"type:varchar(255)"`
	RewardEligible   bool
	MaxMonthlyPoints float64
}

func (Staff) TableName() string {
	return "staff"
}

// StaffLevel допуск сотрудника (1-5) в рамках компании, активна только одна запись
type StaffLevel struct {
	BaseCompanyModel
	UserID int64 `gorm:"index"`
	Level  int
	Active bool `gorm:"index"`
}

// StaffMember иерархия сотрудников в рамках направления (рыба/птица/насекомые)
type StaffMember struct {
	BaseCompanyModel
	Domain   models.Domain `gorm:"type:varchar(50);index"`
	UserID   int64         `gorm:"index"`
	LeaderID *int64
	Position string `gorm:"type:varchar(150)"`
}

func (r Staff) OwnerUserID() int64 {
	return r.UserID
}

func (r Staff) GetFullName() string {
	return strings.TrimSpace(fmt.Sprintf("%s %s", r.FirstName, r.LastName))
}
