package dbmodels

import (
	"time"

	"farm-ops-backend/models"

	"github.com/lib/pq"
)

type Task struct {
	BaseCompanyModel
	BranchID        int64 `gorm:"index"`
	Branch          *Branch
	ActivityOwnerID *int64
	ActivityOwner   *ActivityOwner
	Title           string            `gorm:"type:varchar(255)"`
	AppName         string            `gorm:"type:varchar(100)"`
	AssignedToID    int64             `gorm:"index"`
	AssistantID     *int64            `gorm:"index"`
	Status          models.TaskStatus `gorm:"type:varchar(30);index"`
	DueDate         time.Time
	CompletedDate   *time.Time
	CompletedByID   *int64
	ApprovedByID    *int64
	ApprovedDate    *time.Time
	DataQuantity    int
	CompleteDetails string      `gorm:"type:text"`
	Description     *FormSchema `gorm:"type:text;serializer:json"`
}

func (t Task) IsAssignee(userID int64) bool {
	return t.AssignedToID == userID
}

func (t Task) IsAssistant(userID int64) bool {
	return t.AssistantID != nil && *t.AssistantID == userID
}

// FormSchema описание полей, которые сотрудник заполняет в чате
type FormSchema struct {
	Fields []FormField `json:"fields"`
}

func (s *FormSchema) IsEmpty() bool {
	return s == nil || len(s.Fields) == 0
}

func (s *FormSchema) Field(name string) (FormField, bool) {
	if s == nil {
		return FormField{}, false
	}
	for _, field := range s.Fields {
		if field.Name == name {
			return field, true
		}
	}
	return FormField{}, false
}

type FormField struct {
	Name           string           `json:"name"`
	Label          string           `json:"label,omitempty"`
	Type           models.FieldType `json:"type"`
	Required       bool             `json:"required"`
	Multiple       bool             `json:"multiple"`
	Options        pq.StringArray   `json:"options,omitempty"`
	ExistenceCheck *ExistenceCheck  `json:"existence_check,omitempty"`
}

func (f FormField) Prompt() string {
	if f.Label != "" {
		return f.Label
	}
	return f.Name
}

// ExistenceCheck проверка, что введённое значение ссылается на существующую сущность.
// В Template символ * заменяется введённым значением.
type ExistenceCheck struct {
	AppName   string         `json:"app_name"`
	ModelName string         `json:"model_name"`
	Statuses  pq.StringArray `json:"statuses,omitempty"`
	Field     string         `json:"field"`
	Template  string         `json:"template"`
}

type ActivityOwner struct {
	BaseCompanyModel
	BranchID          int64  `gorm:"index"`
	Activity          string `gorm:"type:varchar(255)"`
	AppName           string `gorm:"type:varchar(100)"`
	ImportanceScale   float64
	MinEstimatedCount int
	OwnerID           int64
	AssistantID       *int64
	Reoccurring       bool
	StartDate         *time.Time
	EndDate           *time.Time
	IntervalDays      int
	DataQuantity      int
	Active            bool `gorm:"index"`
	LastGeneratedAt   *time.Time
	Description       *FormSchema `gorm:"type:text;serializer:json"`
}

// Weight вес активности при распределении месячного бюджета филиала
func (a ActivityOwner) Weight() float64 {
	return a.ImportanceScale * float64(a.MinEstimatedCount)
}

func (t Task) OwnerUserID() int64 {
	return t.AssignedToID
}
