package license

import "errors"

var (
	ErrInvalidDateRange  = errors.New("invalid date range")
	ErrIllegalTransition = errors.New("illegal status transition")
	ErrTerminalState     = errors.New("license is already resolved")
	ErrMissingReason     = errors.New("rejection reason is required")
	ErrUnexpectedReason  = errors.New("reason is only accepted when rejecting")
	ErrReasonTooLong     = errors.New("rejection reason is too long")
	ErrNotFound          = errors.New("license not found")
)
