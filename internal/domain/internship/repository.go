package internship

import (
	"context"
	"time"
)

// Repository stores internship postings keyed by id.
type Repository interface {
	Create(ctx context.Context, in *Internship) error
	GetByID(ctx context.Context, id string) (*Internship, error)
	Update(ctx context.Context, in *Internship) error
	Delete(ctx context.Context, id string) error
	// CountActiveByCompany counts PENDING plus APPROVED postings for the
	// posting-cap guard.
	CountActiveByCompany(ctx context.Context, companyName string) (int, error)
	// ListOpen returns postings open for applications on the given day.
	ListOpen(ctx context.Context, today time.Time) ([]*Internship, error)
}
