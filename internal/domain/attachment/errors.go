package attachment

import "errors"

var (
	ErrInvalidMime      = errors.New("evidence must be a PDF document")
	ErrInvalidSize      = errors.New("file size is out of bounds")
	ErrInvalidHash      = errors.New("content hash must be 64 hex characters")
	ErrDuplicateContent = errors.New("this file has already been submitted")
)
