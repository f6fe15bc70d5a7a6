package dbmodels

import (
	"time"
)

type BaseModel struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type BaseCompanyModel struct {
	BaseModel
	CompanyID int64 `gorm:"index" json:"company_id"`
}
