package session

import (
	"strconv"
	"strings"
	"time"
)

type Namespace string

const (
	LoginState          Namespace = "login_state"
	PendingConfirmation Namespace = "pending_confirmation"
	LoggedIn            Namespace = "logged_in"
	ActiveTask          Namespace = "active_task"
	TaskActiveLock      Namespace = "task_active_lock"
	Step                Namespace = "step"
	Field               Namespace = "field"
)

const keySeparator = ":"

var idEscaper = strings.NewReplacer(`\`, `\\`, keySeparator, `\:`)

// Key ключ сессии: пространство имён и кортеж идентификаторов.
// Разделитель внутри идентификатора экранируется, поэтому разные кортежи не дают один ключ.
func Key(ns Namespace, ids ...string) string {
	parts := make([]string, 0, len(ids)+1)
	parts = append(parts, string(ns))
	for _, id := range ids {
		parts = append(parts, idEscaper.Replace(id))
	}
	return strings.Join(parts, keySeparator)
}

func id(value int64) string {
	return strconv.FormatInt(value, 10)
}

func LoginStateKey(phone string) string {
	return Key(LoginState, phone)
}

func PendingConfirmationKey(phone string) string {
	return Key(PendingConfirmation, phone)
}

func LoggedInKey(phone string) string {
	return Key(LoggedIn, phone)
}

func ActiveTaskKey(userID int64) string {
	return Key(ActiveTask, id(userID))
}

func TaskLockKey(userID int64) string {
	return Key(TaskActiveLock, id(userID))
}

func StepKey(userID, taskID int64) string {
	return Key(Step, id(userID), id(taskID))
}

func FieldKey(userID, taskID int64, field string) string {
	return Key(Field, id(userID), id(taskID), field)
}

// FieldPrefix префикс всех полей пары (user, task)
func FieldPrefix(userID, taskID int64) string {
	return Key(Field, id(userID), id(taskID)) + keySeparator
}

// PhoneKeys все ключи, привязанные к номеру телефона
func PhoneKeys(phone string) []string {
	return []string{LoginStateKey(phone), PendingConfirmationKey(phone), LoggedInKey(phone)}
}

type TTLs struct {
	LoginState          time.Duration
	PendingConfirmation time.Duration
	LoggedIn            time.Duration
	TaskLock            time.Duration
	Step                time.Duration
}

func DefaultTTLs() TTLs {
	return TTLs{
		LoginState:          600 * time.Second,
		PendingConfirmation: 2 * time.Hour,
		LoggedIn:            24 * time.Hour,
		TaskLock:            15 * time.Minute,
		Step:                24 * time.Hour,
	}
}
