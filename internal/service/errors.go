// Package service implements the account, listing, comment and rubric
// lifecycles together with the notifications they trigger
package service

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInactive           = errors.New("account is not active")

	// ErrDelivery wraps mail transport failures. The state change that
	// triggered the notification has already been committed when it shows up.
	ErrDelivery = errors.New("notification delivery failed")
)
