package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"placement-core/internal/common/errors"
	"placement-core/internal/common/logger"
	"placement-core/internal/domain/withdrawal"
)

// WithdrawalRepository stores requests in the withdrawal_requests table.
type WithdrawalRepository struct {
	db     *sql.DB
	logger logger.Logger
}

func NewWithdrawalRepository(db *sql.DB, log logger.Logger) *WithdrawalRepository {
	return &WithdrawalRepository{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"repository": "withdrawals"}),
	}
}

const withdrawalColumns = `id, application_id, student_id, requested_on,
	reason, status, processed_by, processed_on, staff_note`

func (r *WithdrawalRepository) Create(ctx context.Context, req *withdrawal.Request) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO withdrawal_requests (`+withdrawalColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		req.ID, req.ApplicationID, req.StudentID, req.RequestedOn,
		req.Reason, string(req.Status),
		nullString(req.ProcessedBy), nullTime(req.ProcessedOn), nullString(req.StaffNote),
	)
	if err != nil {
		return errors.NewStoreFailureError("withdrawals.create", err)
	}

	details, _ := json.Marshal(map[string]interface{}{
		"applicationId": req.ApplicationID,
		"studentId":     req.StudentID,
	})
	writeAudit(ctx, r.db, r.logger, "withdrawal_requested", "withdrawal_request", req.ID, details)
	return nil
}

func (r *WithdrawalRepository) GetByID(ctx context.Context, id string) (*withdrawal.Request, error) {
	var req withdrawal.Request
	var status string
	var processedBy, staffNote sql.NullString
	var processedOn sql.NullTime

	err := r.db.QueryRowContext(ctx, `
		SELECT `+withdrawalColumns+` FROM withdrawal_requests WHERE id = $1`, id).Scan(
		&req.ID, &req.ApplicationID, &req.StudentID, &req.RequestedOn,
		&req.Reason, &status, &processedBy, &processedOn, &staffNote,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NewNotFoundError("withdrawal request", id)
		}
		return nil, errors.NewStoreFailureError("withdrawals.get", err)
	}

	req.Status = withdrawal.Status(status)
	req.ProcessedBy = processedBy.String
	req.StaffNote = staffNote.String
	if processedOn.Valid {
		req.ProcessedOn = processedOn.Time
	}
	return &req, nil
}

func (r *WithdrawalRepository) Update(ctx context.Context, req *withdrawal.Request) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE withdrawal_requests SET
			reason = $2, status = $3, processed_by = $4, processed_on = $5, staff_note = $6
		WHERE id = $1`,
		req.ID, req.Reason, string(req.Status),
		nullString(req.ProcessedBy), nullTime(req.ProcessedOn), nullString(req.StaffNote),
	)
	if err != nil {
		return errors.NewStoreFailureError("withdrawals.update", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return errors.NewNotFoundError("withdrawal request", req.ID)
	}

	details, _ := json.Marshal(map[string]interface{}{
		"status":      string(req.Status),
		"processedBy": req.ProcessedBy,
	})
	writeAudit(ctx, r.db, r.logger, "withdrawal_processed", "withdrawal_request", req.ID, details)
	return nil
}

func (r *WithdrawalRepository) HasPendingForApplication(ctx context.Context, applicationID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM withdrawal_requests
			WHERE application_id = $1 AND status = 'PENDING'
		)`, applicationID).Scan(&exists)
	if err != nil {
		return false, errors.NewStoreFailureError("withdrawals.hasPending", err)
	}
	return exists, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
