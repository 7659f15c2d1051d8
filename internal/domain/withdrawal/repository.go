package withdrawal

import "context"

// Repository stores withdrawal requests keyed by id.
type Repository interface {
	Create(ctx context.Context, req *Request) error
	GetByID(ctx context.Context, id string) (*Request, error)
	Update(ctx context.Context, req *Request) error
	// HasPendingForApplication backs the single-pending-request guard.
	HasPendingForApplication(ctx context.Context, applicationID string) (bool, error)
}
