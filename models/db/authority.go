package dbmodels

import "farm-ops-backend/models"

// Authority минимальные уровни доступа на действия с моделью приложения в рамках компании
type Authority struct {
	BaseModel
	CompanyID    int64  `gorm:"uniqueIndex:idx_authority_company_app_model"`
	AppName      string `gorm:"type:varchar(100);uniqueIndex:idx_authority_company_app_model"`
	ModelName    string `gorm:"type:varchar(100);uniqueIndex:idx_authority_company_app_model"`
	View         int
	Add          int
	Edit         int
	Delete       int
	Accept       int
	Approve      int
	RequestedBy  int64
	ApprovedByID *int64
}

func (a Authority) RequiredLevel(action models.Action) int {
	switch action {
	case models.ViewAction:
		return a.View
	case models.AddAction:
		return a.Add
	case models.EditAction:
		return a.Edit
	case models.DeleteAction:
		return a.Delete
	case models.AcceptAction:
		return a.Accept
	case models.ApproveAction:
		return a.Approve
	}
	return models.MaxStaffLevel
}
