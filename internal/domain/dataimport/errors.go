package dataimport

import "errors"

var (
	ErrUnknownKind  = errors.New("unknown import kind")
	ErrEmptyFile    = errors.New("file is empty")
	ErrFileTooLarge = errors.New("file exceeds maximum allowed size")
	ErrMalformedCSV = errors.New("malformed csv")
)
