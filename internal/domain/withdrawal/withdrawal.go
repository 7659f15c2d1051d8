// Package withdrawal owns the staff-mediated exit process for an
// application.
package withdrawal

import (
	"strings"
	"time"

	"placement-core/internal/common/errors"
	"placement-core/internal/domain/application"
)

// Status is the adjudication state of a request.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

// MaxReasonLength caps the sanitized withdrawal reason.
const MaxReasonLength = 500

// Request is one student's ask to exit an application, adjudicated by staff.
type Request struct {
	ID            string    `json:"id"`
	ApplicationID string    `json:"applicationId"`
	StudentID     string    `json:"studentId"`
	RequestedOn   time.Time `json:"requestedOn"`
	Reason        string    `json:"reason"`
	Status        Status    `json:"status"`
	ProcessedBy   string    `json:"processedBy,omitempty"`
	ProcessedOn   time.Time `json:"processedOn,omitempty"`
	StaffNote     string    `json:"staffNote,omitempty"`
}

// SanitizeReason trims the reason and caps its length.
func SanitizeReason(reason string) string {
	reason = strings.TrimSpace(reason)
	if len(reason) > MaxReasonLength {
		reason = reason[:MaxReasonLength]
	}
	return reason
}

// New creates a PENDING request. The requester must own the application;
// the single-pending-request rule is the orchestrator's guard, not this one.
func New(id string, app *application.Application, studentID, reason string, requestedOn time.Time) (*Request, error) {
	if strings.TrimSpace(id) == "" {
		return nil, errors.NewMissingFieldError("id")
	}
	if app == nil {
		return nil, errors.NewMissingFieldError("application")
	}
	if app.StudentID != studentID {
		return nil, errors.NewOwnershipError(
			"applicationId: " + app.ID + ", requestedBy: " + studentID)
	}

	return &Request{
		ID:            id,
		ApplicationID: app.ID,
		StudentID:     studentID,
		RequestedOn:   requestedOn,
		Reason:        SanitizeReason(reason),
		Status:        StatusPending,
	}, nil
}

// UpdateReason replaces the reason while the request is still PENDING.
func (r *Request) UpdateReason(reason string) error {
	if r.Status != StatusPending {
		return errors.NewInvalidTransitionError("withdrawal request", r.ID, string(r.Status), "have its reason changed")
	}
	r.Reason = SanitizeReason(reason)
	return nil
}

// Approve grants the exit and applies the rollback to the application: an
// accepted application has its acceptance revoked (freeing the slot, status
// stays SUCCESSFUL); an unaccepted PENDING or SUCCESSFUL application is
// marked WITHDRAWN. This branch is the single place deciding "free a slot"
// versus "cancel an unconfirmed application".
func (r *Request) Approve(app *application.Application, staffID, note string, processedOn time.Time) error {
	if r.Status != StatusPending {
		return errors.NewInvalidTransitionError("withdrawal request", r.ID, string(r.Status), "be approved")
	}
	if app == nil || app.ID != r.ApplicationID {
		return errors.NewMissingFieldError("application")
	}

	if app.StudentAccepted {
		if err := app.RevokeAcceptanceAfterApprovedWithdrawal(); err != nil {
			return err
		}
	} else if app.Status == application.StatusPending || app.Status == application.StatusSuccessful {
		app.MarkWithdrawn()
	}

	r.Status = StatusApproved
	r.stamp(staffID, note, processedOn)
	return nil
}

// Reject refuses the exit with no side effect on the application.
func (r *Request) Reject(staffID, note string, processedOn time.Time) error {
	if r.Status != StatusPending {
		return errors.NewInvalidTransitionError("withdrawal request", r.ID, string(r.Status), "be rejected")
	}
	r.Status = StatusRejected
	r.stamp(staffID, note, processedOn)
	return nil
}

func (r *Request) stamp(staffID, note string, processedOn time.Time) {
	r.ProcessedBy = staffID
	r.ProcessedOn = processedOn
	r.StaffNote = SanitizeReason(note)
}
