package checklist

import "errors"

var (
	ErrChecklistNotFound = errors.New("checklist not found")
	ErrItemNotFound      = errors.New("checklist item not found")
	ErrClaimNotFound     = errors.New("claim not found")
	ErrValidation        = errors.New("validation error")
)
