// Package common defines sentinel errors shared by the client layers.
// Callers match them with errors.Is.
package common

import "errors"

var (
	// repository errors
	ErrNotFound = errors.New("not found")

	// session errors
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
