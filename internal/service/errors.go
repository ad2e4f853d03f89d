package service

import (
	"errors"
	"fmt"
)

// --- Error Definitions ---
var (
	ErrValidation = errors.New("validation error")
	ErrForbidden  = errors.New("access denied")

	ErrUserAlreadyExists    = errors.New("user with this email already exists")
	ErrAuthenticationFailed = errors.New("authentication failed: invalid email or password")
	ErrHashingFailed        = errors.New("failed to hash password")
	ErrTokenGeneration      = errors.New("failed to generate authentication token")

	ErrProfileNotFound = errors.New("profile not found")
	ErrNotProfessional = errors.New("only dietitians and trainers can perform this action")

	ErrClientNotFound      = errors.New("no client found with this email")
	ErrNotAClient          = errors.New("profile found but is not a client")
	ErrConnectionExists    = errors.New("a connection with this client already exists")
	ErrConnectionNotFound  = errors.New("connection not found")
	ErrNoAccess            = errors.New("no access: an active connection with this client is required")
	ErrMessageNotFound     = errors.New("message not found")
	ErrEmptyMessage        = errors.New("message cannot be empty")
	ErrInvalidRecipient    = errors.New("recipient is not the other party of this connection")
	ErrNoteNotFound        = errors.New("note not found")
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrMealNotFound        = errors.New("meal not found")
	ErrEntryNotFound       = errors.New("meal entry not found")
	ErrWaterNotFound       = errors.New("water log not found")
	ErrActivityNotFound    = errors.New("activity not found")
	ErrPhotoNotFound       = errors.New("no photo uploaded for this entry")
	ErrUploadURLError      = errors.New("failed to generate upload URL")
	ErrDownloadURLError    = errors.New("failed to generate download URL")
)

// invalid wraps ErrValidation with a message for the caller.
func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
