package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Every *Error matches exactly one of these with errors.Is.
var (
	ErrValidation      = errors.New("validation error")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("state conflict")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrBusinessRule    = errors.New("business rule violation")
	ErrSystem          = errors.New("system error")
)

// ErrRecordNotFound is returned by repositories when a lookup matches nothing.
var ErrRecordNotFound = errors.New("record not found")

// ErrVersionConflict is returned by repositories when a versioned update lost a race.
var ErrVersionConflict = errors.New("version conflict")

// Code is a domain status code, independent of the transport status.
type Code string

const (
	// Raw QC
	CodeQCPassed           Code = "QC100"
	CodeQCFailed           Code = "QC101"
	CodeQCAlreadyProcessed Code = "QC102"
	CodeQCInvalidResult    Code = "QC103"

	// Batches
	CodeBatchCreated   Code = "BAT100"
	CodeBatchNotFound  Code = "BAT101"
	CodeBatchPendingQC Code = "BAT102"
	CodeBatchNotFailed Code = "BAT103"

	// Dispute outcomes (issue types live in dispute.go)
	CodeDisputeFiled            Code = "DSP200"
	CodeDisputeWindowExpired    Code = "DSP201"
	CodeDisputeQuantityExceeded Code = "DSP202"
	CodeDisputeAlreadyResolved  Code = "DSP203"
	CodeDisputeResolved         Code = "DSP204"

	// Inventory
	CodeInventoryUpdated      Code = "INV100"
	CodeInventoryInsufficient Code = "INV101"
	CodeInventoryNotFound     Code = "INV102"

	// Credits
	CodeCreditOK           Code = "CRD100"
	CodeCreditInsufficient Code = "CRD101"
	CodeCreditFullyUsed    Code = "CRD102"

	// Products
	CodeProductCreated     Code = "PROD100"
	CodeProductNotFound    Code = "PROD101"
	CodeProductUpdated     Code = "PROD102"
	CodeProductDeactivated Code = "PROD103"
	CodeRecipeNotFound     Code = "PROD104"

	// Validation
	CodeRequiredField Code = "VAL100"
	CodeInvalidFormat Code = "VAL101"
	CodeInvalidValue  Code = "VAL102"
	CodeNotFound      Code = "VAL103"

	// Database
	CodeConcurrentUpdate Code = "DB100"
	CodeStoreUnavailable Code = "DB101"

	// System
	CodeInternal      Code = "SYS100"
	CodeNotConfigured Code = "SYS101"

	// Authentication
	CodeAuthSuccess            Code = "AUTH100"
	CodeAuthFailed             Code = "AUTH101"
	CodeAuthInvalidCredentials Code = "AUTH102"
	CodeAuthTokenExpired       Code = "AUTH103"
	CodeAuthTokenInvalid       Code = "AUTH104"
	CodeAuthRegistered         Code = "AUTH105"
	CodeAuthEmailExists        Code = "AUTH106"
	CodeAuthVerified           Code = "AUTH107"

	// Authorization
	CodeAuthzRequired     Code = "AUTHZ100"
	CodeAuthzInsufficient Code = "AUTHZ101"
	CodeAuthzDenied       Code = "AUTHZ102"
	CodeAuthzTokenExpired Code = "AUTHZ103"
	CodeAuthzTokenInvalid Code = "AUTHZ104"
)

// Error is the failure type returned by every use case.
type Error struct {
	Kind    error
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool { return target == e.Kind }

func newError(kind error, code Code, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Code: code, Message: fmt.Sprintf(format, args...)}
}

func Validation(code Code, format string, args ...interface{}) *Error {
	return newError(ErrValidation, code, format, args...)
}

func NotFound(code Code, format string, args ...interface{}) *Error {
	return newError(ErrNotFound, code, format, args...)
}

func Conflict(code Code, format string, args ...interface{}) *Error {
	return newError(ErrConflict, code, format, args...)
}

func Unauthenticated(code Code, format string, args ...interface{}) *Error {
	return newError(ErrUnauthenticated, code, format, args...)
}

func Forbidden(code Code, format string, args ...interface{}) *Error {
	return newError(ErrForbidden, code, format, args...)
}

func BusinessRule(code Code, format string, args ...interface{}) *Error {
	return newError(ErrBusinessRule, code, format, args...)
}

// System wraps an unexpected store or provider failure.
func System(err error, format string, args ...interface{}) *Error {
	e := newError(ErrSystem, CodeInternal, format, args...)
	e.Err = err
	return e
}

// AsError extracts the domain error from err, classifying anything else.
// Lost optimistic-concurrency races surface as conflicts with DB100.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var de *Error
	if errors.As(err, &de) {
		return de
	}
	if errors.Is(err, ErrVersionConflict) {
		return &Error{Kind: ErrConflict, Code: CodeConcurrentUpdate, Message: "concurrent update detected, retry the operation", Err: err}
	}
	return System(err, "unexpected failure")
}

// CodeOf returns the domain code carried by err. Unclassified errors report SYS100.
func CodeOf(err error) Code {
	if de := AsError(err); de != nil {
		return de.Code
	}
	return ""
}
