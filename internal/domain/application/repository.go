package application

import "context"

// Repository stores applications keyed by id.
type Repository interface {
	Create(ctx context.Context, app *Application) error
	GetByID(ctx context.Context, id string) (*Application, error)
	Update(ctx context.Context, app *Application) error
	// ExistsForPair reports whether a (student, internship) application
	// already exists, for the duplicate guard.
	ExistsForPair(ctx context.Context, studentID, internshipID string) (bool, error)
	// ListActiveByStudent returns PENDING and SUCCESSFUL-unaccepted
	// applications for the acceptance-exclusivity sweep.
	ListActiveByStudent(ctx context.Context, studentID string) ([]*Application, error)
	// CountActiveApplications and HasConfirmedPlacement implement the
	// student read port over the full application set.
	CountActiveApplications(ctx context.Context, studentID string) (int, error)
	HasConfirmedPlacement(ctx context.Context, studentID string) (bool, error)
}
