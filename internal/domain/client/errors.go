package client

import "errors"

var (
	ErrClientNotFound = errors.New("client not found")
	ErrCodeExists     = errors.New("client code already exists")
	ErrValidation     = errors.New("validation error")
)
