package intake

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"medleave/internal/domain/access"
	"medleave/internal/domain/attachment"
	"medleave/internal/domain/folio"
	"medleave/internal/domain/license"
)

// ErrPersistence wraps any storage failure the caller cannot act on.
var ErrPersistence = errors.New("persistence failure")

type errorKind struct {
	err     error
	status  int
	code    string
	message string
}

// Order matters: the first match wins.
var errorKinds = []errorKind{
	{license.ErrInvalidDateRange, http.StatusBadRequest, "INVALID_DATE_RANGE", "Leave window is invalid"},
	{access.ErrForbidden, http.StatusForbidden, "FORBIDDEN", "Access denied"},
	{license.ErrNotFound, http.StatusNotFound, "NOT_FOUND", "License not found"},
	{attachment.ErrInvalidMime, http.StatusUnsupportedMediaType, "INVALID_MIME", "Evidence must be a PDF"},
	{attachment.ErrInvalidSize, http.StatusRequestEntityTooLarge, "INVALID_SIZE", "Evidence must be between 1 byte and 10 MiB"},
	{attachment.ErrInvalidHash, http.StatusBadRequest, "INVALID_HASH", "Content hash must be a 64 character hex SHA-256"},
	{attachment.ErrDuplicateContent, http.StatusConflict, "DUPLICATE_CONTENT", "This document was already submitted"},
	{license.ErrTerminalState, http.StatusConflict, "TERMINAL_STATE", "License is already resolved"},
	{license.ErrIllegalTransition, http.StatusUnprocessableEntity, "ILLEGAL_TRANSITION", "Status change not allowed"},
	{license.ErrMissingReason, http.StatusUnprocessableEntity, "MISSING_REASON", "A rejection reason is required"},
	{license.ErrUnexpectedReason, http.StatusUnprocessableEntity, "UNEXPECTED_REASON", "A reason is only allowed when rejecting"},
	{license.ErrReasonTooLong, http.StatusUnprocessableEntity, "REASON_TOO_LONG", "Rejection reason is too long"},
	{folio.ErrMalformed, http.StatusBadRequest, "INVALID_YEAR", "Year must have four digits"},
	{folio.ErrAllocationFailed, http.StatusServiceUnavailable, "FOLIO_ALLOCATION_FAILED", "Could not allocate a folio, try again"},
	{context.DeadlineExceeded, http.StatusServiceUnavailable, "TIMEOUT", "Request timed out"},
	{context.Canceled, http.StatusServiceUnavailable, "CANCELLED", "Request cancelled"},
	{ErrPersistence, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal error"},
}

// Classify maps an error from this package to an HTTP status, a stable code
// and a safe message.
func Classify(err error) (status int, code, message string) {
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			return k.status, k.code, k.message
		}
	}
	return http.StatusInternalServerError, "INTERNAL_ERROR", "Internal error"
}

// known reports whether err is a domain outcome that passes through
// unwrapped.
func known(err error) bool {
	for _, k := range errorKinds {
		if k.err != ErrPersistence && errors.Is(err, k.err) {
			return true
		}
	}
	return false
}

func persistence(err error) error {
	if err == nil || known(err) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrPersistence, err)
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	_, code, _ := Classify(err)
	return strings.ToLower(code)
}
