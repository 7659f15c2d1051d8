// Package application owns one student-internship relationship through
// review, acceptance, and withdrawal.
package application

import (
	"context"
	"strings"
	"time"

	"placement-core/internal/common/errors"
	"placement-core/internal/domain/internship"
	"placement-core/internal/policy"
)

// Status is the review state of an application.
type Status string

const (
	StatusPending      Status = "PENDING"
	StatusSuccessful   Status = "SUCCESSFUL"
	StatusUnsuccessful Status = "UNSUCCESSFUL"
	StatusWithdrawn    Status = "WITHDRAWN"
)

// Application links one student to one internship. The internship is
// referenced durably by id; the object handle may be absent after a reload
// and must be reattached before any acceptance operation.
type Application struct {
	ID              string    `json:"id"`
	StudentID       string    `json:"studentId"`
	InternshipID    string    `json:"internshipId"`
	AppliedOn       time.Time `json:"appliedOn"`
	StudentAccepted bool      `json:"studentAccepted"`
	Status          Status    `json:"status"`

	intern *internship.Internship
}

// New creates a PENDING application after running the four creation-time
// checks: the posting is open today, the student is eligible for its level,
// the student holds no confirmed placement, and the student is under the
// active-application cap. Any failed check returns an error and leaves no
// partial application behind. Duplicate (student, internship) pairs are the
// caller's guard, not this one.
func New(ctx context.Context, id, studentID string, yearOfStudy int, in *internship.Internship, reads policy.ApplicationReads, appliedOn time.Time) (*Application, error) {
	if strings.TrimSpace(id) == "" {
		return nil, errors.NewMissingFieldError("id")
	}
	if strings.TrimSpace(studentID) == "" {
		return nil, errors.NewMissingFieldError("studentId")
	}
	if in == nil {
		return nil, errors.NewMissingFieldError("internship")
	}

	if !in.IsOpenForApplications(appliedOn) {
		return nil, errors.NewPostingNotOpenError(in.ID, string(in.Status))
	}
	if !policy.IsEligibleFor(in.Level, yearOfStudy) {
		return nil, errors.NewNotEligibleError(string(in.Level), yearOfStudy)
	}

	confirmed, err := reads.HasConfirmedPlacement(ctx, studentID)
	if err != nil {
		return nil, errors.NewStoreFailureError("hasConfirmedPlacement", err)
	}
	if confirmed {
		return nil, errors.NewPlacementConfirmedError(studentID)
	}

	active, err := reads.CountActiveApplications(ctx, studentID)
	if err != nil {
		return nil, errors.NewStoreFailureError("countActiveApplications", err)
	}
	if !policy.CanStartAnotherApplication(active) {
		return nil, errors.NewApplicationCapExceededError(studentID, active, policy.MaxActiveApplications)
	}

	return &Application{
		ID:           id,
		StudentID:    studentID,
		InternshipID: in.ID,
		AppliedOn:    appliedOn,
		Status:       StatusPending,
		intern:       in,
	}, nil
}

// Clone returns a detached copy: the durable internship id survives, the
// resolved handle does not. Callers must reattach before acceptance
// operations, mirroring a reload from storage.
func (a *Application) Clone() *Application {
	cp := *a
	cp.intern = nil
	return &cp
}

// AttachInternship resolves the durable internship reference to a live
// handle. Acceptance operations refuse explicitly while detached.
func (a *Application) AttachInternship(in *internship.Internship) error {
	if in == nil {
		return errors.NewMissingFieldError("internship")
	}
	if in.ID != a.InternshipID {
		return errors.NewHandleMismatchError(a.ID, in.ID)
	}
	a.intern = in
	return nil
}

// Internship returns the attached handle, nil when detached.
func (a *Application) Internship() *internship.Internship {
	return a.intern
}

// IsActive reports whether this application counts against the student's
// active cap: PENDING, or SUCCESSFUL not yet accepted.
func (a *Application) IsActive() bool {
	return a.Status == StatusPending || (a.Status == StatusSuccessful && !a.StudentAccepted)
}

// CanAccept reports whether the student may confirm this offer.
func (a *Application) CanAccept() bool {
	return a.Status == StatusSuccessful && !a.StudentAccepted
}

// MarkSuccessful records a company offer. Only PENDING applications qualify.
func (a *Application) MarkSuccessful() error {
	if a.Status != StatusPending {
		return errors.NewInvalidTransitionError("application", a.ID, string(a.Status), "be marked successful")
	}
	a.Status = StatusSuccessful
	return nil
}

// MarkUnsuccessful records a company rejection. An accepted offer can never
// be rescinded; the acceptance guard runs first so its refusal wins even
// though the PENDING-only guard already excludes accepted applications.
func (a *Application) MarkUnsuccessful() error {
	if a.StudentAccepted {
		return errors.NewOfferAcceptedError(a.ID)
	}
	if a.Status != StatusPending {
		return errors.NewInvalidTransitionError("application", a.ID, string(a.Status), "be marked unsuccessful")
	}
	a.Status = StatusUnsuccessful
	return nil
}

// MarkWithdrawn forces the application to WITHDRAWN from any state. Only
// the orchestrator's auto-withdrawal and an approved withdrawal request
// call this.
func (a *Application) MarkWithdrawn() {
	a.Status = StatusWithdrawn
}

// ConfirmAcceptance records the student taking the offer and consumes a
// slot on the internship. The no-confirmed-placement check here is defense
// in depth behind the orchestrator's exclusivity rule. Capacity errors from
// the internship propagate verbatim.
func (a *Application) ConfirmAcceptance(ctx context.Context, reads policy.ApplicationReads) error {
	if !a.CanAccept() {
		return errors.NewInvalidTransitionError("application", a.ID, string(a.Status), "be accepted")
	}

	confirmed, err := reads.HasConfirmedPlacement(ctx, a.StudentID)
	if err != nil {
		return errors.NewStoreFailureError("hasConfirmedPlacement", err)
	}
	if confirmed {
		return errors.NewPlacementConfirmedError(a.StudentID)
	}

	if a.intern == nil {
		return errors.NewDetachedInternshipError(a.ID)
	}
	if err := a.intern.IncrementConfirmedSlots(); err != nil {
		return err
	}
	a.StudentAccepted = true
	return nil
}

// RevokeAcceptanceAfterApprovedWithdrawal frees the slot and clears the
// acceptance flag. Status stays SUCCESSFUL: the offer historically existed.
func (a *Application) RevokeAcceptanceAfterApprovedWithdrawal() error {
	if !a.StudentAccepted {
		return errors.NewInvalidTransitionError("application", a.ID, string(a.Status), "have its acceptance revoked")
	}
	if a.intern == nil {
		return errors.NewDetachedInternshipError(a.ID)
	}
	a.intern.DecrementConfirmedSlots()
	a.StudentAccepted = false
	return nil
}
