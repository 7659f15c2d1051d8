// Package errors provides standardized error handling for the placement core.
package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Error Kinds and Codes
// ==========================

// Kind classifies an error into one of the refusal categories the core
// surfaces to callers.
type Kind string

const (
	// KindInvalidArgument marks a local, immediately-surfaced caller error:
	// a blank required field, an unparseable enum, a bad date range.
	KindInvalidArgument Kind = "INVALID_ARGUMENT"
	// KindIllegalState marks a transition attempted from a state that
	// forbids it, or a cap/capacity refusal. Retrying without changing
	// facts will fail identically.
	KindIllegalState Kind = "ILLEGAL_STATE"
	// KindOwnership marks an actor acting on an aggregate another actor owns.
	KindOwnership Kind = "OWNERSHIP"
	// KindNotFound marks a lookup of an unknown aggregate id.
	KindNotFound Kind = "NOT_FOUND"
	// KindConflict marks a uniqueness refusal such as a duplicate
	// (student, internship) application pair.
	KindConflict Kind = "CONFLICT"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeValidationFailed   ErrorCode = "VALIDATION_FAILED"
	ErrCodeInvalidLevel       ErrorCode = "INVALID_LEVEL"
	ErrCodeInvalidDateRange   ErrorCode = "INVALID_DATE_RANGE"
	ErrCodeInvalidSlotCount   ErrorCode = "INVALID_SLOT_COUNT"
	ErrCodeMissingField       ErrorCode = "MISSING_REQUIRED_FIELD"
	ErrCodeInvalidTransition  ErrorCode = "INVALID_TRANSITION"
	ErrCodeCapacityExceeded   ErrorCode = "CAPACITY_EXCEEDED"
	ErrCodePostingCapExceeded ErrorCode = "POSTING_CAP_EXCEEDED"
	ErrCodeApplicationCap     ErrorCode = "APPLICATION_CAP_EXCEEDED"
	ErrCodeNotEligible        ErrorCode = "NOT_ELIGIBLE"
	ErrCodePostingNotOpen     ErrorCode = "POSTING_NOT_OPEN"
	ErrCodePlacementConfirmed ErrorCode = "PLACEMENT_ALREADY_CONFIRMED"
	ErrCodeOfferAccepted      ErrorCode = "OFFER_ALREADY_ACCEPTED"
	ErrCodeVisibilityDenied   ErrorCode = "VISIBILITY_DENIED"
	ErrCodeNotEditable        ErrorCode = "NOT_EDITABLE"
	ErrCodeNotDeletable       ErrorCode = "NOT_DELETABLE"
	ErrCodeDetachedInternship ErrorCode = "INTERNSHIP_NOT_ATTACHED"
	ErrCodeHandleMismatch     ErrorCode = "INTERNSHIP_HANDLE_MISMATCH"
	ErrCodeDuplicateApp       ErrorCode = "DUPLICATE_APPLICATION"
	ErrCodeDuplicateID        ErrorCode = "DUPLICATE_ID"
	ErrCodeWithdrawalPending  ErrorCode = "WITHDRAWAL_ALREADY_PENDING"
	ErrCodeNotOwner           ErrorCode = "NOT_OWNER"
	ErrCodeNotFound           ErrorCode = "RESOURCE_NOT_FOUND"
	ErrCodeStoreFailure       ErrorCode = "STORE_FAILURE"
)

// Error represents a structured placement error.
type Error struct {
	Kind      Kind      `json:"kind"`
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s[%s]: %s", e.Kind, e.Code, e.Message)
}

// ==========================
// 2. Error Constructors
// ==========================

func newError(kind Kind, code ErrorCode, message, details string) *Error {
	return &Error{
		Kind:      kind,
		Code:      code,
		Message:   message,
		Details:   details,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidArgumentError creates an invalid-argument error with a specific code.
func NewInvalidArgumentError(code ErrorCode, message, details string) *Error {
	return newError(KindInvalidArgument, code, message, details)
}

// NewMissingFieldError flags a blank or absent required field.
func NewMissingFieldError(field string) *Error {
	return newError(KindInvalidArgument, ErrCodeMissingField,
		"required field is missing or blank", fmt.Sprintf("field: %s", field))
}

// NewInvalidLevelError flags an unparseable internship level.
func NewInvalidLevelError(raw string) *Error {
	return newError(KindInvalidArgument, ErrCodeInvalidLevel,
		"unknown internship level", fmt.Sprintf("level: %q", raw))
}

// NewInvalidDateRangeError flags a close date earlier than the open date.
func NewInvalidDateRangeError(open, close string) *Error {
	return newError(KindInvalidArgument, ErrCodeInvalidDateRange,
		"close date precedes open date", fmt.Sprintf("openDate: %s, closeDate: %s", open, close))
}

// NewValidationFailedError wraps schema validation failures on an input payload.
func NewValidationFailedError(details string) *Error {
	return newError(KindInvalidArgument, ErrCodeValidationFailed,
		"input validation failed", details)
}

// NewInvalidTransitionError refuses a state transition, reporting the
// current state so the caller can explain the refusal.
func NewInvalidTransitionError(entity, id, from, attempted string) *Error {
	return newError(KindIllegalState, ErrCodeInvalidTransition,
		fmt.Sprintf("%s cannot %s", entity, attempted),
		fmt.Sprintf("id: %s, currentStatus: %s", id, from))
}

// NewCapacityExceededError refuses a slot increment on a full internship.
func NewCapacityExceededError(internshipID string, maxSlots int) *Error {
	return newError(KindIllegalState, ErrCodeCapacityExceeded,
		"internship has no remaining slots",
		fmt.Sprintf("internshipId: %s, maxSlots: %d", internshipID, maxSlots))
}

// NewPostingCapExceededError refuses a new posting for a company at its cap.
func NewPostingCapExceededError(companyName string, active, cap int) *Error {
	return newError(KindIllegalState, ErrCodePostingCapExceeded,
		"company has reached its active posting cap",
		fmt.Sprintf("company: %s, active: %d, cap: %d", companyName, active, cap))
}

// NewApplicationCapExceededError refuses a new application for a student at the active cap.
func NewApplicationCapExceededError(studentID string, active, cap int) *Error {
	return newError(KindIllegalState, ErrCodeApplicationCap,
		"student has reached the active application cap",
		fmt.Sprintf("studentId: %s, active: %d, cap: %d", studentID, active, cap))
}

// NewNotEligibleError refuses an application below the required year of study.
func NewNotEligibleError(level string, yearOfStudy int) *Error {
	return newError(KindIllegalState, ErrCodeNotEligible,
		"student is not eligible for this internship level",
		fmt.Sprintf("level: %s, yearOfStudy: %d", level, yearOfStudy))
}

// NewPostingNotOpenError refuses an application to a posting that is not
// open today (not approved, not visible, outside its window, or full).
func NewPostingNotOpenError(internshipID, status string) *Error {
	return newError(KindIllegalState, ErrCodePostingNotOpen,
		"internship is not open for applications",
		fmt.Sprintf("internshipId: %s, status: %s", internshipID, status))
}

// NewPlacementConfirmedError refuses an action for a student who already
// holds a confirmed placement.
func NewPlacementConfirmedError(studentID string) *Error {
	return newError(KindIllegalState, ErrCodePlacementConfirmed,
		"student already has a confirmed placement",
		fmt.Sprintf("studentId: %s", studentID))
}

// NewOfferAcceptedError refuses rescinding an offer the student has accepted.
func NewOfferAcceptedError(applicationID string) *Error {
	return newError(KindIllegalState, ErrCodeOfferAccepted,
		"offer has already been accepted by the student",
		fmt.Sprintf("applicationId: %s", applicationID))
}

// NewVisibilityDeniedError refuses making a non-approved posting visible.
func NewVisibilityDeniedError(internshipID, status string) *Error {
	return newError(KindIllegalState, ErrCodeVisibilityDenied,
		"only approved internships can be made visible",
		fmt.Sprintf("internshipId: %s, currentStatus: %s", internshipID, status))
}

// NewNotEditableError refuses editing a non-pending internship.
func NewNotEditableError(internshipID, status string) *Error {
	return newError(KindIllegalState, ErrCodeNotEditable,
		"only pending internships can be edited",
		fmt.Sprintf("internshipId: %s, currentStatus: %s", internshipID, status))
}

// NewNotDeletableError refuses deleting an approved or filled internship.
func NewNotDeletableError(internshipID, status string) *Error {
	return newError(KindIllegalState, ErrCodeNotDeletable,
		"only pending or rejected internships can be deleted",
		fmt.Sprintf("internshipId: %s, currentStatus: %s", internshipID, status))
}

// NewDetachedInternshipError refuses an acceptance operation while the
// internship handle has not been reattached.
func NewDetachedInternshipError(applicationID string) *Error {
	return newError(KindIllegalState, ErrCodeDetachedInternship,
		"internship handle is not attached to the application",
		fmt.Sprintf("applicationId: %s", applicationID))
}

// NewHandleMismatchError refuses attaching an internship handle whose id is
// not the application's durable internship reference.
func NewHandleMismatchError(applicationID, internshipID string) *Error {
	return newError(KindInvalidArgument, ErrCodeHandleMismatch,
		"internship handle does not match the application's internship id",
		fmt.Sprintf("applicationId: %s, internshipId: %s", applicationID, internshipID))
}

// NewDuplicateIDError refuses storing an aggregate under an id that is
// already present, matching the primary-key constraint of the SQL store.
func NewDuplicateIDError(resource, id string) *Error {
	return newError(KindConflict, ErrCodeDuplicateID,
		fmt.Sprintf("%s id already exists", resource), fmt.Sprintf("id: %s", id))
}

// NewDuplicateApplicationError refuses a second application for the same pair.
func NewDuplicateApplicationError(studentID, internshipID string) *Error {
	return newError(KindConflict, ErrCodeDuplicateApp,
		"student has already applied to this internship",
		fmt.Sprintf("studentId: %s, internshipId: %s", studentID, internshipID))
}

// NewWithdrawalPendingError refuses a second pending withdrawal request.
func NewWithdrawalPendingError(applicationID string) *Error {
	return newError(KindConflict, ErrCodeWithdrawalPending,
		"a pending withdrawal request already exists for this application",
		fmt.Sprintf("applicationId: %s", applicationID))
}

// NewOwnershipError refuses an actor acting on someone else's aggregate.
func NewOwnershipError(details string) *Error {
	return newError(KindOwnership, ErrCodeNotOwner,
		"actor does not own this resource", details)
}

// NewNotFoundError reports an unknown aggregate id.
func NewNotFoundError(resource, id string) *Error {
	return newError(KindNotFound, ErrCodeNotFound,
		fmt.Sprintf("%s not found", resource), fmt.Sprintf("id: %s", id))
}

// NewStoreFailureError wraps an unexpected storage error.
func NewStoreFailureError(operation string, err error) *Error {
	return newError(KindIllegalState, ErrCodeStoreFailure,
		"storage operation failed",
		fmt.Sprintf("operation: %s, error: %s", operation, err.Error()))
}

// ==========================
// 3. Utility Functions
// ==========================

// KindOf returns the Kind of err, or the empty string for untyped errors.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}

// IsKind reports whether err is a placement error of the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// CodeOf returns the ErrorCode of err, or the empty string for untyped errors.
func CodeOf(err error) ErrorCode {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Code
	}
	return ""
}

// GetErrorCategory returns the broad category of the error code, used for
// metric labels.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "CAP") || strings.Contains(codeStr, "CAPACITY"):
		return "CAPACITY"
	case strings.Contains(codeStr, "TRANSITION") || strings.Contains(codeStr, "ACCEPTED") || strings.Contains(codeStr, "PLACEMENT"):
		return "LIFECYCLE"
	case strings.Contains(codeStr, "OWNER"):
		return "OWNERSHIP"
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "VALIDATION") ||
		strings.Contains(codeStr, "MISSING") || strings.Contains(codeStr, "MISMATCH"):
		return "VALIDATION"
	case strings.Contains(codeStr, "DUPLICATE") || strings.Contains(codeStr, "PENDING"):
		return "CONFLICT"
	default:
		return "OTHER"
	}
}
