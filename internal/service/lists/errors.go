package lists

import "errors"

// Sentinel errors for the list service layer.
var (
	ErrNotFound       = errors.New("list not found")
	ErrTagNotFound    = errors.New("tag not found")
	ErrRecordNotFound = errors.New("record not found")
	ErrDuplicateTag   = errors.New("tag already exists")
	ErrInvalidInput   = errors.New("invalid input")
)
