package errors

import (
	"fmt"
	"strings"
)

// ErrorType represents different types of errors in the system
type ErrorType string

const (
	// ErrorTypeEncounterNotFound indicates the referenced encounter does not exist
	ErrorTypeEncounterNotFound ErrorType = "ENCOUNTER_NOT_FOUND"

	// ErrorTypeRoomNotFound indicates the referenced room does not exist
	ErrorTypeRoomNotFound ErrorType = "ROOM_NOT_FOUND"

	// ErrorTypeRoomUnavailable indicates the room is not accepting patients
	ErrorTypeRoomUnavailable ErrorType = "ROOM_UNAVAILABLE"

	// ErrorTypeRoomBusy indicates the room already has a current patient
	ErrorTypeRoomBusy ErrorType = "ROOM_BUSY"

	// ErrorTypeNotInQueue indicates the encounter is not in the room's queue
	ErrorTypeNotInQueue ErrorType = "NOT_IN_QUEUE"

	// ErrorTypeInvalidTransition indicates an illegal encounter status transition
	ErrorTypeInvalidTransition ErrorType = "INVALID_TRANSITION"

	// ErrorTypeValidation indicates a malformed request
	ErrorTypeValidation ErrorType = "VALIDATION"

	// ErrorTypeInternal indicates an internal server error
	ErrorTypeInternal ErrorType = "INTERNAL"
)

// AppError represents an application error
type AppError struct {
	Type    ErrorType
	Message string
	Err     error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements the unwrap interface
func (e *AppError) Unwrap() error {
	return e.Err
}

// IsType reports whether err is an *AppError of the given type
func IsType(err error, t ErrorType) bool {
	appErr, ok := err.(*AppError)
	return ok && appErr.Type == t
}

// NewEncounterNotFoundError creates an error for a missing encounter
func NewEncounterNotFoundError(encounterID string) *AppError {
	return &AppError{
		Type:    ErrorTypeEncounterNotFound,
		Message: fmt.Sprintf("encounter %s not found", encounterID),
	}
}

// NewRoomNotFoundError creates an error for a missing room
func NewRoomNotFoundError(roomID string) *AppError {
	return &AppError{
		Type:    ErrorTypeRoomNotFound,
		Message: fmt.Sprintf("room %s not found", roomID),
	}
}

// NewRoomUnavailableError creates an error for enqueueing onto an unavailable room
func NewRoomUnavailableError(roomID string) *AppError {
	return &AppError{
		Type:    ErrorTypeRoomUnavailable,
		Message: fmt.Sprintf("room %s is unavailable", roomID),
	}
}

// NewRoomBusyError creates an error for promoting into an occupied room
func NewRoomBusyError(roomID, currentEncounterID string) *AppError {
	return &AppError{
		Type:    ErrorTypeRoomBusy,
		Message: fmt.Sprintf("room %s is busy with encounter %s", roomID, currentEncounterID),
	}
}

// NewNotInQueueError creates an error for removing an encounter that is not queued
func NewNotInQueueError(roomID, encounterID string) *AppError {
	return &AppError{
		Type:    ErrorTypeNotInQueue,
		Message: fmt.Sprintf("encounter %s is not in the queue of room %s", encounterID, roomID),
	}
}

// NewInvalidTransitionError creates an error for an illegal status transition.
// The message names the current state, the attempted trigger, and the triggers
// allowed from that state so callers can see exactly what was rejected.
func NewInvalidTransitionError(currentState, trigger string, allowed []string) *AppError {
	allowedDesc := "none (terminal state)"
	if len(allowed) > 0 {
		allowedDesc = strings.Join(allowed, ", ")
	}
	return &AppError{
		Type: ErrorTypeInvalidTransition,
		Message: fmt.Sprintf("cannot apply %s in state %s; allowed triggers: %s",
			trigger, currentState, allowedDesc),
	}
}

// NewValidationError creates a new validation error
func NewValidationError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeValidation,
		Message: message,
	}
}

// NewInternalError creates a new internal error
func NewInternalError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeInternal,
		Message: message,
		Err:     err,
	}
}
