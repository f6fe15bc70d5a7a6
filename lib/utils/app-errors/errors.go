package apperrors

import (
	"fmt"

	"github.com/pkg/errors"
)

type DenyCategory string

const (
	DenyNotStaff           DenyCategory = "not-staff"
	DenyNoAuthorityDefined DenyCategory = "no-authority-defined"
	DenyInsufficientLevel  DenyCategory = "insufficient-level"
)

// PermissionDenied отказ в доступе, всегда с причиной
type PermissionDenied struct {
	Category DenyCategory
	Reason   string
}

func (e *PermissionDenied) Error() string {
	return fmt.Sprintf("permission denied (%s): %s", e.Category, e.Reason)
}

func NewPermissionDenied(category DenyCategory, reason string) error {
	return &PermissionDenied{Category: category, Reason: reason}
}

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

type NotFound struct {
	Entity string
	ID     string
}

func (e *NotFound) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

func NewNotFound(entity string, id interface{}) error {
	return &NotFound{Entity: entity, ID: fmt.Sprint(id)}
}

// TransientGatewayError сбой внешнего шлюза, операцию можно повторить
type TransientGatewayError struct {
	Op  string
	Err error
}

func (e *TransientGatewayError) Error() string {
	return fmt.Sprintf("gateway %s failed: %v", e.Op, e.Err)
}

func (e *TransientGatewayError) Unwrap() error {
	return e.Err
}

func NewTransientGatewayError(op string, err error) error {
	return &TransientGatewayError{Op: op, Err: err}
}

// StateConflict повтор без действий пользователя не поможет
type StateConflict struct {
	Reason string
}

func (e *StateConflict) Error() string {
	return e.Reason
}

func NewStateConflict(reason string) error {
	return &StateConflict{Reason: reason}
}

func AsPermissionDenied(err error) (*PermissionDenied, bool) {
	var target *PermissionDenied
	if errors.As(err, &target) {
		return target, true
	}
	return nil, false
}

func IsPermissionDenied(err error) bool {
	_, ok := AsPermissionDenied(err)
	return ok
}

func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

func IsNotFound(err error) bool {
	var target *NotFound
	return errors.As(err, &target)
}

func IsTransient(err error) bool {
	var target *TransientGatewayError
	return errors.As(err, &target)
}

func IsStateConflict(err error) bool {
	var target *StateConflict
	return errors.As(err, &target)
}
