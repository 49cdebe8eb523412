package models

import "fmt"

// NotFoundError indicates a referenced entity does not exist.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s not found", e.Entity)
	}
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// NewNotFoundError creates a NotFoundError for an entity
func NewNotFoundError(entity, id string) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id}
}

// ValidationError indicates a business-rule violation.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError creates a ValidationError with a formatted message
func NewValidationError(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// CapacityError indicates a seat reservation exceeded the trip's available seats.
type CapacityError struct {
	TripID    string
	Requested int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("trip %s does not have %d available seats", e.TripID, e.Requested)
}

// GatewayError indicates a payment processor transport or API failure.
// Message carries the processor's own error text when one was returned.
type GatewayError struct {
	Operation string
	Message   string
	Err       error
}

func (e *GatewayError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("payment gateway %s failed: %s", e.Operation, e.Message)
	}
	return fmt.Sprintf("payment gateway %s failed: %v", e.Operation, e.Err)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}
