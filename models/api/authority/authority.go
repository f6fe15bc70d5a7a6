package authorityapimodels

import (
	"fmt"

	"farm-ops-backend/models"

	"github.com/pkg/errors"
)

type AuthorityData struct {
	AppName   string `json:"app_name"`
	ModelName string `json:"model_name"`
	View      int    `json:"view"`
	Add       int    `json:"add"`
	Edit      int    `json:"edit"`
	Delete    int    `json:"delete"`
	Accept    int    `json:"accept"`
	Approve   int    `json:"approve"`
}

func (r AuthorityData) Validate() error {
	if r.AppName == "" {
		return errors.New("не указано приложение")
	}
	if r.ModelName == "" {
		return errors.New("не указана модель")
	}
	levels := map[string]int{
		"view":    r.View,
		"add":     r.Add,
		"edit":    r.Edit,
		"delete":  r.Delete,
		"accept":  r.Accept,
		"approve": r.Approve,
	}
	for name, level := range levels {
		if level < models.MinStaffLevel || level > models.MaxStaffLevel {
			return errors.New(fmt.Sprintf("уровень %s должен быть от %d до %d", name, models.MinStaffLevel, models.MaxStaffLevel))
		}
	}
	return nil
}

type AuthorityRequest struct {
	CompanyID int64 `json:"company_id"`
	AuthorityData
}

func (r AuthorityRequest) Validate() error {
	if r.CompanyID == 0 {
		return errors.New("не указана компания")
	}
	return r.AuthorityData.Validate()
}

type AuthorityView struct {
	ID        int64 `json:"id"`
	CompanyID int64 `json:"company_id"`
	AuthorityData
	RequestedBy int64  `json:"requested_by"`
	ApprovedBy  *int64 `json:"approved_by,omitempty"`
}

type ResolveRequest struct {
	CompanyID int64         `json:"company_id"`
	AppName   string        `json:"app_name"`
	ModelName string        `json:"model_name"`
	Action    models.Action `json:"action"`
	MinLevel  int           `json:"min_level"`
}

func (r ResolveRequest) Validate() error {
	if r.CompanyID == 0 {
		return errors.New("не указана компания")
	}
	if r.AppName == "" || r.ModelName == "" {
		return errors.New("не указаны приложение или модель")
	}
	if !r.Action.IsValid() {
		return errors.New("неизвестное действие")
	}
	if r.MinLevel < 0 || r.MinLevel > models.MaxStaffLevel {
		return errors.New("некорректный минимальный уровень")
	}
	return nil
}

type ResolveView struct {
	Allowed  bool   `json:"allowed"`
	Kind     string `json:"kind,omitempty"`
	Category string `json:"category,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

type StaffLevelRequest struct {
	CompanyID int64 `json:"company_id"`
	UserID    int64 `json:"user_id"`
	Level     int   `json:"level"`
}

func (r StaffLevelRequest) Validate() error {
	if r.CompanyID == 0 || r.UserID == 0 {
		return errors.New("не указаны компания или сотрудник")
	}
	if r.Level < models.MinStaffLevel || r.Level > models.MaxStaffLevel {
		return errors.New("уровень должен быть от 1 до 5")
	}
	return nil
}
