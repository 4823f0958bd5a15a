package errors

import "errors"

var (
	ErrNotFound = errors.New("user not found")

	ErrWrongPassword = errors.New("incorrect password")

	ErrMACNotRegistered = errors.New("bluetooth device is not registered to a user")
)
