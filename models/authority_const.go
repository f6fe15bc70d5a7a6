package models

type Action string

const (
	ViewAction    Action = "view"
	AddAction     Action = "add"
	EditAction    Action = "edit"
	DeleteAction  Action = "delete"
	AcceptAction  Action = "accept"
	ApproveAction Action = "approve"
)

var AllActions = []Action{ViewAction, AddAction, EditAction, DeleteAction, AcceptAction, ApproveAction}

func (a Action) IsValid() bool {
	for _, action := range AllActions {
		if a == action {
			return true
		}
	}
	return false
}

const (
	MinStaffLevel = 1
	MaxStaffLevel = 5
)

// приложения и модели, которые защищает сам сервис
const (
	CompanyApp         = "company"
	AuthorityModel     = "authority"
	StaffLevelsModel   = "stafflevels"
	StaffModel         = "staff"
	TaskModel          = "task"
	RewardsModel       = "rewardspointstracker"
	MediaModel         = "media"
	ActivityOwnerModel = "activityowner"
)
