package dbmodels

import (
	"fmt"
	"strings"
	"time"
)

type User struct {
	BaseModel
	Email       string `gorm:"type:varchar(255);uniqueIndex"`
	Password    string `gorm:"type:varchar(128)"`
	FirstName   string `gorm:"type:varchar(150)"`
	LastName    string `gorm:"type:varchar(150)"`
	PhoneNumber string `gorm:"type:varchar(20);index"`
	IsSuperuser bool
	IsActive    bool
	LastLogin   *time.Time
}

func (r User) GetFullName() string {
	return strings.TrimSpace(fmt.Sprintf("%s %s", r.FirstName, r.LastName))
}

// GetDisplayName имя для чата: ФИО, если не заполнено - почта
func (r User) GetDisplayName() string {
	if name := r.GetFullName(); name != "" {
		return name
	}
	return r.Email
}
