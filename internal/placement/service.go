// Package placement is the consistency orchestrator over the three
// aggregates. It owns the cross-aggregate guards no single entity can see:
// posting caps, duplicate applications, single pending withdrawal, and
// acceptance exclusivity. Every mutating operation runs under one mutex,
// the serialization point that stands in for the storage-level constraints
// this system does not have.
package placement

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"placement-core/internal/common/errors"
	"placement-core/internal/common/ids"
	"placement-core/internal/common/logger"
	"placement-core/internal/common/metrics"
	"placement-core/internal/common/observability"
	"placement-core/internal/common/validation"
	"placement-core/internal/domain/application"
	"placement-core/internal/domain/internship"
	"placement-core/internal/domain/withdrawal"
	"placement-core/internal/models"
	"placement-core/internal/policy"
	"placement-core/internal/store/rediscache"
)

const dateLayout = "2006-01-02"

// Deps carries everything the service needs. Cache and Obs are optional.
type Deps struct {
	Internships    internship.Repository
	Applications   application.Repository
	Withdrawals    withdrawal.Repository
	InternshipIDs  ids.Generator
	ApplicationIDs ids.Generator
	WithdrawalIDs  ids.Generator
	Cache          *rediscache.Cache
	Obs            *observability.Observability
	Logger         logger.Logger
	Now            func() time.Time
}

// Service coordinates the placement lifecycle.
type Service struct {
	mu           sync.Mutex
	internships  internship.Repository
	applications application.Repository
	withdrawals  withdrawal.Repository
	postings     policy.PostingReads
	internIDs    ids.Generator
	appIDs       ids.Generator
	reqIDs       ids.Generator
	cache        *rediscache.Cache
	obs          *observability.Observability
	logger       logger.Logger
	reporter     *errors.Reporter
	now          func() time.Time
}

func NewService(d Deps) *Service {
	now := d.Now
	if now == nil {
		now = time.Now
	}
	log := d.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Service{
		internships:  d.Internships,
		applications: d.Applications,
		withdrawals:  d.Withdrawals,
		postings:     d.Internships,
		internIDs:    d.InternshipIDs,
		appIDs:       d.ApplicationIDs,
		reqIDs:       d.WithdrawalIDs,
		cache:        d.Cache,
		obs:          d.Obs,
		logger:       log.WithFields(map[string]interface{}{"component": "placement"}),
		reporter:     errors.NewReporter(log),
		now:          now,
	}
}

func (s *Service) begin(op string) *prometheus.Timer {
	metrics.OperationsTotal.WithLabelValues(op).Inc()
	return prometheus.NewTimer(metrics.OperationDuration.WithLabelValues(op))
}

func (s *Service) fail(op string, err error) error {
	return s.reporter.Report(op, err)
}

func (s *Service) invalidateOpenPostings(ctx context.Context) {
	if s.cache != nil {
		s.cache.InvalidateOpenPostings(ctx, s.now().Format(dateLayout))
	}
}

// ==========================
// Internship operations
// ==========================

// CreateInternshipInput is the posting payload a company rep submits.
type CreateInternshipInput struct {
	Title          string `json:"title"`
	Description    string `json:"description"`
	Level          string `json:"level"`
	PreferredMajor string `json:"preferredMajor"`
	OpenDate       string `json:"openDate"`
	CloseDate      string `json:"closeDate"`
	MaxSlots       int    `json:"maxSlots"`
}

func (s *Service) buildInternship(id string, companyName string, input CreateInternshipInput) (*internship.Internship, error) {
	result, err := validation.ValidateStruct(input, createInternshipSchema())
	if err != nil {
		return nil, errors.NewStoreFailureError("validateInput", err)
	}
	if !result.Valid {
		return nil, errors.NewValidationFailedError(result.String())
	}

	level, err := internship.ParseLevel(input.Level)
	if err != nil {
		return nil, err
	}
	openDate, err := time.Parse(dateLayout, input.OpenDate)
	if err != nil {
		return nil, errors.NewInvalidArgumentError(errors.ErrCodeInvalidDateRange,
			"unparseable open date", "openDate: "+input.OpenDate)
	}
	closeDate, err := time.Parse(dateLayout, input.CloseDate)
	if err != nil {
		return nil, errors.NewInvalidArgumentError(errors.ErrCodeInvalidDateRange,
			"unparseable close date", "closeDate: "+input.CloseDate)
	}

	return internship.New(id, input.Title, input.Description, level,
		input.PreferredMajor, openDate, closeDate, companyName, input.MaxSlots, s.now())
}

// CreateInternship creates a PENDING posting for the rep's company after
// the posting-cap guard.
func (s *Service) CreateInternship(ctx context.Context, rep models.CompanyRep, input CreateInternshipInput) (*internship.Internship, error) {
	const op = "create_internship"
	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.begin(op).ObserveDuration()

	active, err := s.postings.CountActiveByCompany(ctx, rep.CompanyName)
	if err != nil {
		return nil, s.fail(op, errors.NewStoreFailureError("countActivePostings", err))
	}
	if !policy.CanCreateAnotherPosting(active) {
		return nil, s.fail(op, errors.NewPostingCapExceededError(rep.CompanyName, active, policy.MaxActivePostings))
	}

	in, err := s.buildInternship(s.internIDs.Next(), rep.CompanyName, input)
	if err != nil {
		return nil, s.fail(op, err)
	}
	if err := s.internships.Create(ctx, in); err != nil {
		return nil, s.fail(op, err)
	}

	s.invalidateOpenPostings(ctx)
	s.logger.Info("internship created", map[string]interface{}{
		"internshipId": in.ID,
		"company":      rep.CompanyName,
		"repId":        rep.ID,
	})
	return in, nil
}

// EditInternship replaces a PENDING posting. The edit is a delete plus a
// recreate under a fresh id; ids are never mutated.
func (s *Service) EditInternship(ctx context.Context, rep models.CompanyRep, internshipID string, input CreateInternshipInput) (*internship.Internship, error) {
	const op = "edit_internship"
	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.begin(op).ObserveDuration()

	existing, err := s.ownedInternship(ctx, rep, internshipID)
	if err != nil {
		return nil, s.fail(op, err)
	}
	if !existing.IsEditable() {
		return nil, s.fail(op, errors.NewNotEditableError(existing.ID, string(existing.Status)))
	}

	replacement, err := s.buildInternship(s.internIDs.Next(), rep.CompanyName, input)
	if err != nil {
		return nil, s.fail(op, err)
	}
	if err := s.internships.Create(ctx, replacement); err != nil {
		return nil, s.fail(op, err)
	}
	if err := s.internships.Delete(ctx, existing.ID); err != nil {
		return nil, s.fail(op, err)
	}

	s.invalidateOpenPostings(ctx)
	s.logger.Info("internship edited", map[string]interface{}{
		"oldInternshipId": existing.ID,
		"newInternshipId": replacement.ID,
		"company":         rep.CompanyName,
	})
	return replacement, nil
}

// DeleteInternship removes a PENDING or REJECTED posting.
func (s *Service) DeleteInternship(ctx context.Context, rep models.CompanyRep, internshipID string) error {
	const op = "delete_internship"
	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.begin(op).ObserveDuration()

	in, err := s.ownedInternship(ctx, rep, internshipID)
	if err != nil {
		return s.fail(op, err)
	}
	if !in.CanBeDeleted() {
		return s.fail(op, errors.NewNotDeletableError(in.ID, string(in.Status)))
	}
	if err := s.internships.Delete(ctx, in.ID); err != nil {
		return s.fail(op, err)
	}

	s.invalidateOpenPostings(ctx)
	s.logger.Info("internship deleted", map[string]interface{}{
		"internshipId": in.ID,
		"company":      rep.CompanyName,
	})
	return nil
}

// ApproveInternship grants a posting. Approval never flips visibility.
func (s *Service) ApproveInternship(ctx context.Context, staff models.Staff, internshipID string) error {
	const op = "approve_internship"
	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.begin(op).ObserveDuration()

	in, err := s.internships.GetByID(ctx, internshipID)
	if err != nil {
		return s.fail(op, err)
	}
	if err := in.Approve(); err != nil {
		return s.fail(op, err)
	}
	if err := s.internships.Update(ctx, in); err != nil {
		return s.fail(op, err)
	}

	s.logger.Info("internship approved", map[string]interface{}{
		"internshipId": in.ID,
		"staffId":      staff.ID,
	})
	return nil
}

// RejectInternship refuses a posting and hides it.
func (s *Service) RejectInternship(ctx context.Context, staff models.Staff, internshipID string) error {
	const op = "reject_internship"
	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.begin(op).ObserveDuration()

	in, err := s.internships.GetByID(ctx, internshipID)
	if err != nil {
		return s.fail(op, err)
	}
	in.Reject()
	if err := s.internships.Update(ctx, in); err != nil {
		return s.fail(op, err)
	}

	s.invalidateOpenPostings(ctx)
	s.logger.Info("internship rejected", map[string]interface{}{
		"internshipId": in.ID,
		"staffId":      staff.ID,
	})
	return nil
}

// CloseInternship ends an approved or filled posting of the rep's company.
func (s *Service) CloseInternship(ctx context.Context, rep models.CompanyRep, internshipID string) error {
	const op = "close_internship"
	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.begin(op).ObserveDuration()

	in, err := s.ownedInternship(ctx, rep, internshipID)
	if err != nil {
		return s.fail(op, err)
	}
	if err := in.Close(); err != nil {
		return s.fail(op, err)
	}
	if err := s.internships.Update(ctx, in); err != nil {
		return s.fail(op, err)
	}

	s.invalidateOpenPostings(ctx)
	s.logger.Info("internship closed", map[string]interface{}{
		"internshipId": in.ID,
		"company":      rep.CompanyName,
	})
	return nil
}

// SetInternshipVisibility toggles student visibility on the rep's posting.
func (s *Service) SetInternshipVisibility(ctx context.Context, rep models.CompanyRep, internshipID string, visible bool) error {
	const op = "set_internship_visibility"
	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.begin(op).ObserveDuration()

	in, err := s.ownedInternship(ctx, rep, internshipID)
	if err != nil {
		return s.fail(op, err)
	}
	if err := in.SetVisible(visible); err != nil {
		return s.fail(op, err)
	}
	if err := s.internships.Update(ctx, in); err != nil {
		return s.fail(op, err)
	}

	s.invalidateOpenPostings(ctx)
	s.logger.Info("internship visibility changed", map[string]interface{}{
		"internshipId": in.ID,
		"visible":      visible,
	})
	return nil
}

// GetInternship loads one posting.
func (s *Service) GetInternship(ctx context.Context, internshipID string) (*internship.Internship, error) {
	return s.internships.GetByID(ctx, internshipID)
}

// ListOpenInternships returns the postings open for applications today,
// served from the projection cache when warm.
func (s *Service) ListOpenInternships(ctx context.Context) ([]*internship.Internship, error) {
	const op = "list_open_internships"
	defer s.begin(op).ObserveDuration()

	today := s.now()
	day := today.Format(dateLayout)
	if s.cache != nil {
		if postings, ok := s.cache.GetOpenPostings(ctx, day); ok {
			return postings, nil
		}
	}

	postings, err := s.internships.ListOpen(ctx, today)
	if err != nil {
		return nil, s.fail(op, err)
	}
	if s.cache != nil {
		s.cache.SetOpenPostings(ctx, day, postings)
	}
	return postings, nil
}

func (s *Service) ownedInternship(ctx context.Context, rep models.CompanyRep, internshipID string) (*internship.Internship, error) {
	in, err := s.internships.GetByID(ctx, internshipID)
	if err != nil {
		return nil, err
	}
	if in.CompanyName != rep.CompanyName {
		return nil, errors.NewOwnershipError(
			"internshipId: " + in.ID + ", company: " + in.CompanyName + ", repCompany: " + rep.CompanyName)
	}
	return in, nil
}

// ==========================
// Application operations
// ==========================

// applyInput is the application payload a student submits.
type applyInput struct {
	InternshipID string `json:"internshipId"`
}

// Apply creates a PENDING application for the student, guarded against
// duplicates. The aggregate's own constructor runs the remaining
// creation-time checks.
func (s *Service) Apply(ctx context.Context, student models.Student, internshipID string) (*application.Application, error) {
	const op = "apply"
	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.begin(op).ObserveDuration()

	internshipID = strings.TrimSpace(internshipID)
	result, err := validation.ValidateStruct(applyInput{InternshipID: internshipID}, applySchema())
	if err != nil {
		return nil, s.fail(op, errors.NewStoreFailureError("validateInput", err))
	}
	if !result.Valid {
		return nil, s.fail(op, errors.NewValidationFailedError(result.String()))
	}

	exists, err := s.applications.ExistsForPair(ctx, student.ID, internshipID)
	if err != nil {
		return nil, s.fail(op, errors.NewStoreFailureError("existsForPair", err))
	}
	if exists {
		return nil, s.fail(op, errors.NewDuplicateApplicationError(student.ID, internshipID))
	}

	in, err := s.internships.GetByID(ctx, internshipID)
	if err != nil {
		return nil, s.fail(op, err)
	}

	app, err := application.New(ctx, s.appIDs.Next(), student.ID, student.YearOfStudy, in, s.applications, s.now())
	if err != nil {
		return nil, s.fail(op, err)
	}
	if err := s.applications.Create(ctx, app); err != nil {
		return nil, s.fail(op, err)
	}

	s.logger.Info("application created", map[string]interface{}{
		"applicationId": app.ID,
		"studentId":     student.ID,
		"internshipId":  internshipID,
	})
	return app, nil
}

// MarkApplicationSuccessful records a company offer on a pending application.
func (s *Service) MarkApplicationSuccessful(ctx context.Context, rep models.CompanyRep, applicationID string) error {
	const op = "mark_application_successful"
	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.begin(op).ObserveDuration()

	app, err := s.repOwnedApplication(ctx, rep, applicationID)
	if err != nil {
		return s.fail(op, err)
	}
	if err := app.MarkSuccessful(); err != nil {
		return s.fail(op, err)
	}
	if err := s.applications.Update(ctx, app); err != nil {
		return s.fail(op, err)
	}

	s.logger.Info("application marked successful", map[string]interface{}{
		"applicationId": app.ID,
		"company":       rep.CompanyName,
	})
	return nil
}

// MarkApplicationUnsuccessful records a company rejection on a pending
// application. Accepted offers can never be rescinded.
func (s *Service) MarkApplicationUnsuccessful(ctx context.Context, rep models.CompanyRep, applicationID string) error {
	const op = "mark_application_unsuccessful"
	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.begin(op).ObserveDuration()

	app, err := s.repOwnedApplication(ctx, rep, applicationID)
	if err != nil {
		return s.fail(op, err)
	}
	if err := app.MarkUnsuccessful(); err != nil {
		return s.fail(op, err)
	}
	if err := s.applications.Update(ctx, app); err != nil {
		return s.fail(op, err)
	}

	s.logger.Info("application marked unsuccessful", map[string]interface{}{
		"applicationId": app.ID,
		"company":       rep.CompanyName,
	})
	return nil
}

// ConfirmAcceptance records the student taking an offer, consumes the
// internship slot, and then enforces acceptance exclusivity: every other
// PENDING or SUCCESSFUL application of the student is auto-withdrawn.
func (s *Service) ConfirmAcceptance(ctx context.Context, student models.Student, applicationID string) (*application.Application, error) {
	const op = "confirm_acceptance"
	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.begin(op).ObserveDuration()

	app, err := s.applications.GetByID(ctx, applicationID)
	if err != nil {
		return nil, s.fail(op, err)
	}
	if app.StudentID != student.ID {
		return nil, s.fail(op, errors.NewOwnershipError(
			"applicationId: "+app.ID+", studentId: "+app.StudentID+", actor: "+student.ID))
	}

	in, err := s.internships.GetByID(ctx, app.InternshipID)
	if err != nil {
		return nil, s.fail(op, err)
	}
	if err := app.AttachInternship(in); err != nil {
		return nil, s.fail(op, err)
	}

	if err := app.ConfirmAcceptance(ctx, s.applications); err != nil {
		// A failed increment may have flipped the internship to FILLED;
		// persist that before surfacing the capacity error.
		if errors.CodeOf(err) == errors.ErrCodeCapacityExceeded {
			_ = s.internships.Update(ctx, in)
		}
		return nil, s.fail(op, err)
	}

	if err := s.internships.Update(ctx, in); err != nil {
		return nil, s.fail(op, err)
	}
	if err := s.applications.Update(ctx, app); err != nil {
		return nil, s.fail(op, err)
	}

	// Acceptance exclusivity sweep.
	siblings, err := s.applications.ListActiveByStudent(ctx, student.ID)
	if err != nil {
		return nil, s.fail(op, errors.NewStoreFailureError("listActiveByStudent", err))
	}
	for _, sib := range siblings {
		if sib.ID == app.ID {
			continue
		}
		sib.MarkWithdrawn()
		if err := s.applications.Update(ctx, sib); err != nil {
			return nil, s.fail(op, errors.NewStoreFailureError("autoWithdraw", err))
		}
		metrics.AutoWithdrawals.Inc()
		s.logger.Info("application auto-withdrawn", map[string]interface{}{
			"applicationId": sib.ID,
			"studentId":     student.ID,
			"acceptedId":    app.ID,
		})
	}

	s.invalidateOpenPostings(ctx)
	if s.obs != nil {
		s.obs.RecordPlacementConfirmed(ctx, in.ID)
	}
	s.logger.Info("placement confirmed", map[string]interface{}{
		"applicationId": app.ID,
		"studentId":     student.ID,
		"internshipId":  in.ID,
	})
	return app, nil
}

func (s *Service) repOwnedApplication(ctx context.Context, rep models.CompanyRep, applicationID string) (*application.Application, error) {
	app, err := s.applications.GetByID(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	in, err := s.internships.GetByID(ctx, app.InternshipID)
	if err != nil {
		return nil, err
	}
	if in.CompanyName != rep.CompanyName {
		return nil, errors.NewOwnershipError(
			"applicationId: " + app.ID + ", company: " + in.CompanyName + ", repCompany: " + rep.CompanyName)
	}
	return app, nil
}

// ==========================
// Withdrawal operations
// ==========================

type withdrawalRequestInput struct {
	ApplicationID string `json:"applicationId"`
	Reason        string `json:"reason"`
}

// RequestWithdrawal opens a PENDING withdrawal request on the student's own
// application, guarded so at most one request per application is pending.
func (s *Service) RequestWithdrawal(ctx context.Context, student models.Student, applicationID, reason string) (*withdrawal.Request, error) {
	const op = "request_withdrawal"
	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.begin(op).ObserveDuration()

	result, err := validation.ValidateStruct(
		withdrawalRequestInput{ApplicationID: applicationID, Reason: reason},
		withdrawalRequestSchema())
	if err != nil {
		return nil, s.fail(op, errors.NewStoreFailureError("validateInput", err))
	}
	if !result.Valid {
		return nil, s.fail(op, errors.NewValidationFailedError(result.String()))
	}

	app, err := s.applications.GetByID(ctx, applicationID)
	if err != nil {
		return nil, s.fail(op, err)
	}

	pending, err := s.withdrawals.HasPendingForApplication(ctx, applicationID)
	if err != nil {
		return nil, s.fail(op, errors.NewStoreFailureError("hasPendingForApplication", err))
	}
	if pending {
		return nil, s.fail(op, errors.NewWithdrawalPendingError(applicationID))
	}

	req, err := withdrawal.New(s.reqIDs.Next(), app, student.ID, reason, s.now())
	if err != nil {
		return nil, s.fail(op, err)
	}
	if err := s.withdrawals.Create(ctx, req); err != nil {
		return nil, s.fail(op, err)
	}

	s.logger.Info("withdrawal requested", map[string]interface{}{
		"requestId":     req.ID,
		"applicationId": applicationID,
		"studentId":     student.ID,
	})
	return req, nil
}

// UpdateWithdrawalReason edits the reason while the request is pending.
func (s *Service) UpdateWithdrawalReason(ctx context.Context, student models.Student, requestID, reason string) error {
	const op = "update_withdrawal_reason"
	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.begin(op).ObserveDuration()

	req, err := s.withdrawals.GetByID(ctx, requestID)
	if err != nil {
		return s.fail(op, err)
	}
	if req.StudentID != student.ID {
		return s.fail(op, errors.NewOwnershipError(
			"requestId: "+req.ID+", studentId: "+req.StudentID+", actor: "+student.ID))
	}
	if err := req.UpdateReason(reason); err != nil {
		return s.fail(op, err)
	}
	if err := s.withdrawals.Update(ctx, req); err != nil {
		return s.fail(op, err)
	}
	return nil
}

// ApproveWithdrawal grants the exit: a confirmed placement is rolled back
// and its slot freed; an unconfirmed application is marked WITHDRAWN.
func (s *Service) ApproveWithdrawal(ctx context.Context, staff models.Staff, requestID, note string) error {
	const op = "approve_withdrawal"
	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.begin(op).ObserveDuration()

	req, err := s.withdrawals.GetByID(ctx, requestID)
	if err != nil {
		return s.fail(op, err)
	}

	app, err := s.applications.GetByID(ctx, req.ApplicationID)
	if err != nil {
		return s.fail(op, err)
	}
	in, err := s.internships.GetByID(ctx, app.InternshipID)
	if err != nil {
		return s.fail(op, err)
	}
	if err := app.AttachInternship(in); err != nil {
		return s.fail(op, err)
	}

	if err := req.Approve(app, staff.ID, note, s.now()); err != nil {
		return s.fail(op, err)
	}

	if err := s.applications.Update(ctx, app); err != nil {
		return s.fail(op, err)
	}
	if err := s.internships.Update(ctx, in); err != nil {
		return s.fail(op, err)
	}
	if err := s.withdrawals.Update(ctx, req); err != nil {
		return s.fail(op, err)
	}

	s.invalidateOpenPostings(ctx)
	if s.obs != nil {
		s.obs.RecordWithdrawalProcessed(ctx, "approved")
	}
	s.logger.Info("withdrawal approved", map[string]interface{}{
		"requestId":     req.ID,
		"applicationId": app.ID,
		"staffId":       staff.ID,
	})
	return nil
}

// RejectWithdrawal refuses the exit with no side effect on the application.
func (s *Service) RejectWithdrawal(ctx context.Context, staff models.Staff, requestID, note string) error {
	const op = "reject_withdrawal"
	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.begin(op).ObserveDuration()

	req, err := s.withdrawals.GetByID(ctx, requestID)
	if err != nil {
		return s.fail(op, err)
	}
	if err := req.Reject(staff.ID, note, s.now()); err != nil {
		return s.fail(op, err)
	}
	if err := s.withdrawals.Update(ctx, req); err != nil {
		return s.fail(op, err)
	}

	if s.obs != nil {
		s.obs.RecordWithdrawalProcessed(ctx, "rejected")
	}
	s.logger.Info("withdrawal rejected", map[string]interface{}{
		"requestId": req.ID,
		"staffId":   staff.ID,
	})
	return nil
}
