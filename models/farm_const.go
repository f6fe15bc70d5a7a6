package models

type TaskStatus string

const (
	TaskStatusActive        TaskStatus = "active"
	TaskStatusPending       TaskStatus = "pending"
	TaskStatusCompleted     TaskStatus = "completed"
	TaskStatusAppeal        TaskStatus = "appeal"
	TaskStatusRewardGranted TaskStatus = "rewardGranted"
	TaskStatusCancelled     TaskStatus = "cancelled"
)

var taskStatusHumanName = map[TaskStatus]string{
	TaskStatusActive:        "Active",
	TaskStatusPending:       "Pending approval",
	TaskStatusCompleted:     "Completed",
	TaskStatusAppeal:        "Appeal",
	TaskStatusRewardGranted: "Reward granted",
	TaskStatusCancelled:     "Cancelled",
}

func (s TaskStatus) ToHuman() string {
	if human, exist := taskStatusHumanName[s]; exist {
		return human
	}
	return string(s)
}

// IsRewardable задачи, по которым можно начислять баллы
func (s TaskStatus) IsRewardable() bool {
	return s == TaskStatusCompleted || s == TaskStatusAppeal
}

type Domain string

const (
	AquacultureDomain Domain = "aquaculture"
	PoultryDomain     Domain = "poultry"
	InsectDomain      Domain = "insect"
)

var AllDomains = []Domain{AquacultureDomain, PoultryDomain, InsectDomain}

func (d Domain) IsValid() bool {
	for _, domain := range AllDomains {
		if d == domain {
			return true
		}
	}
	return false
}

type MediaStatus string

const (
	MediaStatusActive   MediaStatus = "active"
	MediaStatusInactive MediaStatus = "inactive"
)

type TransactionType string

const (
	MeritTransaction TransactionType = "merit"
)

type FieldType string

const (
	TextField     FieldType = "text"
	DropdownField FieldType = "dropdown"
	MediaField    FieldType = "media"
)

func (t FieldType) IsValid() bool {
	return t == TextField || t == DropdownField || t == MediaField
}
