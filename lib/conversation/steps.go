package conversation

import (
	"fmt"
	"strings"

	"farm-ops-backend/lib/utils/helpers"
	"farm-ops-backend/models"
	dbmodels "farm-ops-backend/models/db"
)

type stepKind string

const (
	stepDate     stepKind = "date"
	stepDigits   stepKind = "digits"
	stepText     stepKind = "text"
	stepDropdown stepKind = "dropdown"
	stepMedia    stepKind = "media"
)

const (
	skipToken = "skip"
	doneToken = "done"
)

type step struct {
	name      string
	label     string
	kind      stepKind
	required  bool
	multiple  bool
	options   []string
	existence *dbmodels.ExistenceCheck
}

// шаги задачи без описания полей
var legacySteps = []step{
	{name: "end_date", label: "Enter the end date (YYYY-MM-DD)", kind: stepDate, required: true},
	{name: "harvest_weight", label: "Enter the harvest weight (digits only)", kind: stepDigits, required: true},
	{name: "harvest_date", label: "Enter the harvest date (YYYY-MM-DD)", kind: stepDate, required: true},
	{name: "media", label: "Send a photo", kind: stepMedia},
}

func stepsForTask(task dbmodels.Task) []step {
	if task.Description.IsEmpty() {
		return legacySteps
	}
	steps := make([]step, 0, len(task.Description.Fields))
	for _, field := range task.Description.Fields {
		s := step{
			name:      field.Name,
			label:     field.Prompt(),
			required:  field.Required,
			multiple:  field.Multiple,
			options:   field.Options,
			existence: field.ExistenceCheck,
		}
		switch field.Type {
		case models.DropdownField:
			s.kind = stepDropdown
		case models.MediaField:
			s.kind = stepMedia
		default:
			s.kind = stepText
		}
		steps = append(steps, s)
	}
	return steps
}

func stepIndex(steps []step, name string) int {
	for idx, s := range steps {
		if s.name == name {
			return idx
		}
	}
	return -1
}

func (s step) canSkip() bool {
	return s.kind == stepMedia || !s.required
}

func (s step) prompt() string {
	text := s.label
	if s.kind == stepMedia && !strings.HasPrefix(strings.ToLower(text), "send") {
		text = "Send a photo for " + text
	}
	if s.kind == stepDropdown && len(s.options) > 0 {
		text += fmt.Sprintf(" (options: %s)", strings.Join(s.options, ", "))
	}
	if s.multiple {
		text += ", one per message, then 'done'"
	}
	if s.canSkip() {
		text += " or type 'skip'"
	}
	return text
}

// validate проверяет ввод шага; value - что сохранить, hint - ответ при ошибке
func (s step) validate(body, mediaURL, mediaContentType string) (value string, hint string, ok bool) {
	body = strings.TrimSpace(body)
	if strings.EqualFold(body, skipToken) {
		if !s.canSkip() {
			return "", "Value is required", false
		}
		return skipToken, "", true
	}
	switch s.kind {
	case stepDate:
		if _, valid := helpers.ParseDate(body); !valid {
			return "", "Invalid date, use YYYY-MM-DD", false
		}
		return body, "", true
	case stepDigits:
		if !helpers.IsDigits(body) {
			return "", "Invalid number, send digits only", false
		}
		return body, "", true
	case stepDropdown:
		for _, option := range s.options {
			if strings.EqualFold(option, body) {
				return option, "", true
			}
		}
		return "", "Unknown option", false
	case stepMedia:
		if mediaURL == "" {
			return "", "Please attach a photo", false
		}
		return encodeMedia(mediaURL, mediaContentType), "", true
	}
	if body == "" {
		return "", "Value is required", false
	}
	return body, "", true
}

// значение медиа-шага хранится как "<content type>|<url>"
func encodeMedia(url, contentType string) string {
	return contentType + "|" + url
}

func decodeMedia(value string) (url, contentType string) {
	contentType, url, found := strings.Cut(value, "|")
	if !found {
		return value, ""
	}
	return url, contentType
}
