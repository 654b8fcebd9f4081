package services

import (
	"errors"
	"fmt"

	"github.com/afzalm/cclms/internal/repository"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired refresh token")
	ErrUserNotFound       = errors.New("user not found")
	ErrAccountSuspended   = errors.New("account suspended")
	ErrAccountPending     = errors.New("account awaiting activation")

	ErrCourseNotFound = errors.New("course not found")
	ErrReportNotFound = errors.New("report not found")
	ErrTicketNotFound = errors.New("ticket not found")

	ErrNotTicketOwner  = errors.New("ticket belongs to another user")
	ErrAlreadyAssigned = errors.New("ticket already has an assignee")
	ErrSelfAction      = errors.New("admins cannot apply this action to their own account")

	// ErrConcurrentChange means another request moved the entity first.
	ErrConcurrentChange = errors.New("state changed, refresh and retry")

	// ErrValidation wraps input problems that map to 400.
	ErrValidation = errors.New("invalid request")
)

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// storeErr translates repository sentinels into service errors.
func storeErr(err error, notFound error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return notFound
	case errors.Is(err, repository.ErrStaleState):
		return ErrConcurrentChange
	}
	return err
}
