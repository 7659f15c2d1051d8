// Package memory is an id-keyed in-process arena implementing the
// placement repositories. Aggregates cross the boundary as copies, so a
// loaded application comes back with its internship handle detached, the
// same way a reload from persistent storage would.
package memory

import (
	"context"
	"sync"
	"time"

	"placement-core/internal/common/errors"
	"placement-core/internal/domain/application"
	"placement-core/internal/domain/internship"
	"placement-core/internal/domain/withdrawal"
)

// Store holds all three aggregate tables behind one lock.
type Store struct {
	mu          sync.RWMutex
	internships map[string]*internship.Internship
	apps        map[string]*application.Application
	withdrawals map[string]*withdrawal.Request
}

func New() *Store {
	return &Store{
		internships: make(map[string]*internship.Internship),
		apps:        make(map[string]*application.Application),
		withdrawals: make(map[string]*withdrawal.Request),
	}
}

// Internships returns the internship repository view of the store.
func (s *Store) Internships() internship.Repository { return (*internshipTable)(s) }

// Applications returns the application repository view of the store.
func (s *Store) Applications() application.Repository { return (*applicationTable)(s) }

// Withdrawals returns the withdrawal repository view of the store.
func (s *Store) Withdrawals() withdrawal.Repository { return (*withdrawalTable)(s) }

// --- internships ---

type internshipTable Store

func (t *internshipTable) Create(_ context.Context, in *internship.Internship) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.internships[in.ID]; ok {
		return errors.NewDuplicateIDError("internship", in.ID)
	}
	t.internships[in.ID] = in.Clone()
	return nil
}

func (t *internshipTable) GetByID(_ context.Context, id string) (*internship.Internship, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	in, ok := t.internships[id]
	if !ok {
		return nil, errors.NewNotFoundError("internship", id)
	}
	return in.Clone(), nil
}

func (t *internshipTable) Update(_ context.Context, in *internship.Internship) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.internships[in.ID]; !ok {
		return errors.NewNotFoundError("internship", in.ID)
	}
	t.internships[in.ID] = in.Clone()
	return nil
}

func (t *internshipTable) Delete(_ context.Context, id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.internships[id]; !ok {
		return errors.NewNotFoundError("internship", id)
	}
	delete(t.internships, id)
	return nil
}

func (t *internshipTable) CountActiveByCompany(_ context.Context, companyName string) (int, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	count := 0
	for _, in := range t.internships {
		if in.CompanyName == companyName && in.IsActivePosting() {
			count++
		}
	}
	return count, nil
}

func (t *internshipTable) ListOpen(_ context.Context, today time.Time) ([]*internship.Internship, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var out []*internship.Internship
	for _, in := range t.internships {
		if in.IsOpenForApplications(today) {
			out = append(out, in.Clone())
		}
	}
	return out, nil
}

// --- applications ---

type applicationTable Store

func (t *applicationTable) Create(_ context.Context, app *application.Application) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.apps[app.ID]; ok {
		return errors.NewDuplicateIDError("application", app.ID)
	}
	t.apps[app.ID] = app.Clone()
	return nil
}

func (t *applicationTable) GetByID(_ context.Context, id string) (*application.Application, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	app, ok := t.apps[id]
	if !ok {
		return nil, errors.NewNotFoundError("application", id)
	}
	return app.Clone(), nil
}

func (t *applicationTable) Update(_ context.Context, app *application.Application) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.apps[app.ID]; !ok {
		return errors.NewNotFoundError("application", app.ID)
	}
	t.apps[app.ID] = app.Clone()
	return nil
}

func (t *applicationTable) ExistsForPair(_ context.Context, studentID, internshipID string) (bool, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, app := range t.apps {
		if app.StudentID == studentID && app.InternshipID == internshipID {
			return true, nil
		}
	}
	return false, nil
}

func (t *applicationTable) ListActiveByStudent(_ context.Context, studentID string) ([]*application.Application, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var out []*application.Application
	for _, app := range t.apps {
		if app.StudentID == studentID && app.IsActive() {
			out = append(out, app.Clone())
		}
	}
	return out, nil
}

func (t *applicationTable) CountActiveApplications(ctx context.Context, studentID string) (int, error) {
	active, err := t.ListActiveByStudent(ctx, studentID)
	if err != nil {
		return 0, err
	}
	return len(active), nil
}

func (t *applicationTable) HasConfirmedPlacement(_ context.Context, studentID string) (bool, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, app := range t.apps {
		if app.StudentID == studentID && app.StudentAccepted {
			return true, nil
		}
	}
	return false, nil
}

// --- withdrawal requests ---

type withdrawalTable Store

func (t *withdrawalTable) Create(_ context.Context, req *withdrawal.Request) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.withdrawals[req.ID]; ok {
		return errors.NewDuplicateIDError("withdrawal request", req.ID)
	}
	cp := *req
	t.withdrawals[req.ID] = &cp
	return nil
}

func (t *withdrawalTable) GetByID(_ context.Context, id string) (*withdrawal.Request, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	req, ok := t.withdrawals[id]
	if !ok {
		return nil, errors.NewNotFoundError("withdrawal request", id)
	}
	cp := *req
	return &cp, nil
}

func (t *withdrawalTable) Update(_ context.Context, req *withdrawal.Request) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.withdrawals[req.ID]; !ok {
		return errors.NewNotFoundError("withdrawal request", req.ID)
	}
	cp := *req
	t.withdrawals[req.ID] = &cp
	return nil
}

func (t *withdrawalTable) HasPendingForApplication(_ context.Context, applicationID string) (bool, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, req := range t.withdrawals {
		if req.ApplicationID == applicationID && req.Status == withdrawal.StatusPending {
			return true, nil
		}
	}
	return false, nil
}
