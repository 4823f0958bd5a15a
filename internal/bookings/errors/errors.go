package errors

import "errors"

var (
	ErrNotFound = errors.New("booking not found")

	ErrInvalidID = errors.New("invalid booking ID format")

	ErrCurrentlyBooked = errors.New("car is currently booked")

	ErrLockHeld = errors.New("booking lock already held")
)
