// Package apperr defines the categorized failure surfaced to the user.
//
// Every failure crossing the send-handler boundary is converted into exactly
// one *AppError. The category decides whether a manual retry makes sense.
package apperr

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Category classifies an AppError.
type Category string

const (
	CategoryAPI         Category = "API"
	CategoryNetwork     Category = "NETWORK"
	CategorySafety      Category = "SAFETY"
	CategoryPermissions Category = "PERMISSIONS"
	CategoryValidation  Category = "VALIDATION"
	CategoryAuth        Category = "AUTH"
)

// RateLimitMessage is shown when the provider signals quota exhaustion.
const RateLimitMessage = "Rate limit reached. The intelligence node is cooling down; wait a minute before retrying."

// AppError is a categorized failure. It is never persisted.
type AppError struct {
	Category    Category
	Message     string
	Retryable   bool
	RateLimited bool
	Timestamp   time.Time
	Err         error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Category, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Category, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches another *AppError by category only.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Category == e.Category && t.Message == ""
}

func newErr(cat Category, retryable bool, msg string, cause error) *AppError {
	return &AppError{
		Category:  cat,
		Message:   msg,
		Retryable: retryable,
		Timestamp: time.Now(),
		Err:       cause,
	}
}

// API reports a provider or transport fault. Retryable.
func API(msg string, cause error) *AppError { return newErr(CategoryAPI, true, msg, cause) }

// RateLimited reports provider quota exhaustion. Retryable after a cooldown.
func RateLimited(cause error) *AppError {
	e := newErr(CategoryAPI, true, RateLimitMessage, cause)
	e.RateLimited = true
	return e
}

// Network reports missing connectivity. Retryable once the link returns.
func Network(msg string, cause error) *AppError { return newErr(CategoryNetwork, true, msg, cause) }

// Safety reports a response blocked by content policy.
func Safety(msg string, cause error) *AppError { return newErr(CategorySafety, false, msg, cause) }

// Permissions reports a denied device capability.
func Permissions(msg string, cause error) *AppError {
	return newErr(CategoryPermissions, false, msg, cause)
}

// Validation reports malformed or oversized local input.
func Validation(msg string) *AppError { return newErr(CategoryValidation, false, msg, nil) }

// Validationf is Validation with formatting.
func Validationf(format string, args ...interface{}) *AppError {
	return Validation(fmt.Sprintf(format, args...))
}

// Auth reports a missing or invalid credential.
func Auth(msg string, cause error) *AppError { return newErr(CategoryAuth, false, msg, cause) }

// Sentinels for errors.Is checks by category.
var (
	ErrAPI         = &AppError{Category: CategoryAPI}
	ErrNetwork     = &AppError{Category: CategoryNetwork}
	ErrSafety      = &AppError{Category: CategorySafety}
	ErrPermissions = &AppError{Category: CategoryPermissions}
	ErrValidation  = &AppError{Category: CategoryValidation}
	ErrAuth        = &AppError{Category: CategoryAuth}
)

// As extracts an *AppError from err's chain.
func As(err error) (*AppError, bool) {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// Wrap converts any error into exactly one *AppError. nil stays nil.
func Wrap(err error) *AppError {
	if err == nil {
		return nil
	}
	if ae, ok := As(err); ok {
		return ae
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return API("Request timed out. The intelligence node did not answer in time.", err)
	}
	if errors.Is(err, context.Canceled) {
		return API("Request cancelled.", err)
	}
	return API("System node failure. Verification of data models failed.", err)
}

// CategoryOf returns the category of err, or "" when err is nil.
func CategoryOf(err error) Category {
	if err == nil {
		return ""
	}
	return Wrap(err).Category
}
