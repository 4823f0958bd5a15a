package errors

import "errors"

var (
	ErrNotFound = errors.New("car not found")

	// ErrNotAuthorized means the requesting user holds no booking that
	// permits the transition.
	ErrNotAuthorized = errors.New("user is not authorized to operate this car")

	ErrAlreadyUnlocked = errors.New("car is already unlocked")

	ErrAlreadyLocked = errors.New("car is already locked")
)
