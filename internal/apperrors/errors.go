package apperrors

import (
	"errors"
)

var (
	ErrShutdown = errors.New("shutdown error")

	ErrMessageNotFound     = errors.New("message not found")
	ErrMissingFields       = errors.New("missing required fields: sender, content")
	ErrInvalidTimestamp    = errors.New("invalid timestamp")
	ErrEncryptionFailed    = errors.New("failed to encrypt message")
	ErrDatabaseUnavailable = errors.New("database is unavailable")
	ErrDuplicateInFlight   = errors.New("identical message is still being stored")

	ErrNoAllowedEmails = errors.New("allowed emails list is empty")
	ErrAccessDenied    = errors.New("access denied")
	ErrStateMismatch   = errors.New("oauth state mismatch")

	ErrContextValueDoesNotExist = errors.New("context value does not exist")
	ErrContextValueInvalidType  = errors.New("invalid context value type")
)
