package client

import "errors"

var (
	ErrUnknownDriver = errors.New("unknown driver")
	ErrMissingConfig = errors.New("missing configuration")
)
