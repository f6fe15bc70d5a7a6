package dbmodels

import "farm-ops-backend/models"

// Media вложение к любой модели (app_name, model_name, model_id)
type Media struct {
	BaseCompanyModel
	BranchID     int64              `gorm:"index"`
	AppName      string             `gorm:"type:varchar(100);index:idx_media_owner"`
	ModelName    string             `gorm:"type:varchar(100);index:idx_media_owner"`
	ModelID      int64              `gorm:"index:idx_media_owner"`
	File         string             `gorm:"type:varchar(500)"`
	ContentType  string             `gorm:"type:varchar(100)"`
	Status       models.MediaStatus `gorm:"type:varchar(20)"`
	UploadedByID int64
}

func (m Media) HasFile() bool {
	return m.File != ""
}

func (m Media) OwnerUserID() int64 {
	return m.UploadedByID
}
