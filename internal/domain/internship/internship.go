// Package internship owns the approval status and slot accounting for one
// posting.
package internship

import (
	"fmt"
	"strings"
	"time"

	"placement-core/internal/common/errors"
)

// Level is the required seniority of an internship posting.
type Level string

const (
	LevelBasic        Level = "BASIC"
	LevelIntermediate Level = "INTERMEDIATE"
	LevelAdvanced     Level = "ADVANCED"
)

// ParseLevel parses a level string case-insensitively.
func ParseLevel(raw string) (Level, error) {
	switch Level(strings.ToUpper(strings.TrimSpace(raw))) {
	case LevelBasic:
		return LevelBasic, nil
	case LevelIntermediate:
		return LevelIntermediate, nil
	case LevelAdvanced:
		return LevelAdvanced, nil
	default:
		return "", errors.NewInvalidLevelError(raw)
	}
}

// Status is the lifecycle state of a posting.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
	StatusClosed   Status = "CLOSED"
	StatusFilled   Status = "FILLED"
)

// Internship is the capacity state machine for one posting. Fields are
// exported for storage rehydration; all mutation goes through the methods
// below, which own the invariants.
type Internship struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Level          Level     `json:"level"`
	PreferredMajor string    `json:"preferredMajor"`
	OpenDate       time.Time `json:"openDate"`
	CloseDate      time.Time `json:"closeDate"`
	CompanyName    string    `json:"companyName"`
	MaxSlots       int       `json:"maxSlots"`
	ConfirmedSlots int       `json:"confirmedSlots"`
	Visible        bool      `json:"visible"`
	Status         Status    `json:"status"`
	CreatedAt      time.Time `json:"createdAt"`
}

// New creates a PENDING, invisible posting. The date range and slot count
// are checked here and not re-checked afterwards.
func New(id, title, description string, level Level, preferredMajor string, openDate, closeDate time.Time, companyName string, maxSlots int, now time.Time) (*Internship, error) {
	if strings.TrimSpace(id) == "" {
		return nil, errors.NewMissingFieldError("id")
	}
	if strings.TrimSpace(title) == "" {
		return nil, errors.NewMissingFieldError("title")
	}
	if strings.TrimSpace(companyName) == "" {
		return nil, errors.NewMissingFieldError("companyName")
	}
	if maxSlots < 1 {
		return nil, errors.NewInvalidArgumentError(errors.ErrCodeInvalidSlotCount,
			"maxSlots must be at least 1", fmt.Sprintf("maxSlots: %d", maxSlots))
	}
	if closeDate.Before(openDate) {
		return nil, errors.NewInvalidDateRangeError(
			openDate.Format("2006-01-02"), closeDate.Format("2006-01-02"))
	}

	return &Internship{
		ID:             id,
		Title:          strings.TrimSpace(title),
		Description:    strings.TrimSpace(description),
		Level:          level,
		PreferredMajor: strings.TrimSpace(preferredMajor),
		OpenDate:       openDate,
		CloseDate:      closeDate,
		CompanyName:    companyName,
		MaxSlots:       maxSlots,
		ConfirmedSlots: 0,
		Visible:        false,
		Status:         StatusPending,
		CreatedAt:      now,
	}, nil
}

// Clone returns a copy safe to hand across the storage boundary.
func (i *Internship) Clone() *Internship {
	cp := *i
	return &cp
}

// Approve transitions PENDING to APPROVED. Approving an already-approved
// posting is a no-op. Approval never alters visibility on its own.
func (i *Internship) Approve() error {
	switch i.Status {
	case StatusApproved:
		return nil
	case StatusPending:
		i.Status = StatusApproved
		return nil
	default:
		return errors.NewInvalidTransitionError("internship", i.ID, string(i.Status), "be approved")
	}
}

// Reject forces the posting to REJECTED and hides it. Re-rejecting is a
// state no-op but still clears visibility.
func (i *Internship) Reject() {
	i.Status = StatusRejected
	i.Visible = false
}

// Close ends an approved or filled posting. Closed postings keep their
// slot count but accept no further slot mutation through the open check.
func (i *Internship) Close() error {
	if i.Status != StatusApproved && i.Status != StatusFilled {
		return errors.NewInvalidTransitionError("internship", i.ID, string(i.Status), "be closed")
	}
	i.Status = StatusClosed
	i.Visible = false
	return nil
}

// SetVisible toggles student visibility. This is the single gate keeping
// non-approved postings out of student view.
func (i *Internship) SetVisible(visible bool) error {
	if visible && i.Status != StatusApproved {
		return errors.NewVisibilityDeniedError(i.ID, string(i.Status))
	}
	i.Visible = visible
	return nil
}

// IsOpenForApplications reports whether a student may apply today.
func (i *Internship) IsOpenForApplications(today time.Time) bool {
	if i.Status != StatusApproved || !i.Visible {
		return false
	}
	if today.Before(i.OpenDate) || today.After(i.CloseDate) {
		return false
	}
	return i.ConfirmedSlots < i.MaxSlots
}

// IncrementConfirmedSlots consumes one slot. A full posting refuses with a
// capacity error and is forced to FILLED, which closes the race where a
// second caller tries immediately after the fill.
func (i *Internship) IncrementConfirmedSlots() error {
	if i.ConfirmedSlots >= i.MaxSlots {
		if i.Status == StatusApproved {
			i.Status = StatusFilled
		}
		return errors.NewCapacityExceededError(i.ID, i.MaxSlots)
	}
	i.ConfirmedSlots++
	if i.ConfirmedSlots == i.MaxSlots && i.Status == StatusApproved {
		i.Status = StatusFilled
	}
	return nil
}

// DecrementConfirmedSlots frees one slot, flooring at zero, and reverts
// FILLED to APPROVED once capacity exists again.
func (i *Internship) DecrementConfirmedSlots() {
	if i.ConfirmedSlots > 0 {
		i.ConfirmedSlots--
	}
	if i.Status == StatusFilled && i.ConfirmedSlots < i.MaxSlots {
		i.Status = StatusApproved
	}
}

// IsEditable reports whether the posting may still be edited. Only PENDING
// postings are; editing recreates the posting under a new id.
func (i *Internship) IsEditable() bool {
	return i.Status == StatusPending
}

// CanBeDeleted reports whether the posting may be removed. APPROVED and
// FILLED postings are permanent to preserve application history.
func (i *Internship) CanBeDeleted() bool {
	return i.Status == StatusPending || i.Status == StatusRejected
}

// IsActivePosting reports whether this posting counts against the
// per-company posting cap.
func (i *Internship) IsActivePosting() bool {
	return i.Status == StatusPending || i.Status == StatusApproved
}
