// Package policy holds the eligibility and cap rules for the placement
// marketplace. The functions are pure and total; the counts they need come
// from read ports supplied by the caller.
package policy

import (
	"context"

	"placement-core/internal/domain/internship"
)

const (
	// MaxActiveApplications caps applications with status PENDING or
	// SUCCESSFUL-not-yet-accepted per student.
	MaxActiveApplications = 3

	// MaxActivePostings caps PENDING plus APPROVED postings per company.
	MaxActivePostings = 5
)

// ApplicationReads answers the student-side questions the policy checks
// need, backed by the full application set.
type ApplicationReads interface {
	CountActiveApplications(ctx context.Context, studentID string) (int, error)
	HasConfirmedPlacement(ctx context.Context, studentID string) (bool, error)
}

// PostingReads answers the per-company posting count for the cap guard,
// backed by the full posting set.
type PostingReads interface {
	CountActiveByCompany(ctx context.Context, companyName string) (int, error)
}

// IsEligibleFor reports whether a student in the given year of study may
// apply at the given level: years 1-2 only BASIC, years 3-4 any level.
func IsEligibleFor(level internship.Level, yearOfStudy int) bool {
	if yearOfStudy <= 2 {
		return level == internship.LevelBasic
	}
	return true
}

// CanStartAnotherApplication reports whether a student with the given
// number of active applications is under the cap.
func CanStartAnotherApplication(activeApplications int) bool {
	return activeApplications < MaxActiveApplications
}

// CanCreateAnotherPosting reports whether a company with the given number
// of active postings is under the cap.
func CanCreateAnotherPosting(activePostings int) bool {
	return activePostings < MaxActivePostings
}
