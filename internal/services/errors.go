package services

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation matches every *ValidationError.
	ErrValidation = errors.New("validation failed")

	ErrEmailTaken          = errors.New("email already in use")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrPasswordNotSet      = errors.New("password not set, use the link sent by email")
	ErrPasswordAlreadySet  = errors.New("password already set")
	ErrSetupLinkExpired    = errors.New("link expired")
	ErrSetupLinkInvalid    = errors.New("invalid link")
	ErrUserNotFound        = errors.New("user not found")
	ErrUserOwnsGroups      = errors.New("user created groups that must be deleted first")
	ErrEmailDelivery       = errors.New("failed to send email")
	ErrGroupNotFound       = errors.New("group not found")
	ErrMemberNotFound      = errors.New("user is not a member of this group")
	ErrAlreadyMember       = errors.New("user is already a member of this group")
	ErrMembersNotFound     = errors.New("one or more users do not exist")
	ErrTaskNotFound        = errors.New("task not found")
	ErrOwnerNotFound       = errors.New("assigned user not found")
	ErrAssignedGroupAbsent = errors.New("assigned group not found")
)

// ValidationError carries a client-facing message naming the bad field.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}
