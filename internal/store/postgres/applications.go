package postgres

import (
	"context"
	"database/sql"
	"encoding/json"

	"placement-core/internal/common/errors"
	"placement-core/internal/common/logger"
	"placement-core/internal/domain/application"
)

// ApplicationRepository stores applications in the applications table.
// Loaded applications come back with their internship handle detached;
// callers reattach before acceptance operations.
type ApplicationRepository struct {
	db     *sql.DB
	logger logger.Logger
}

func NewApplicationRepository(db *sql.DB, log logger.Logger) *ApplicationRepository {
	return &ApplicationRepository{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"repository": "applications"}),
	}
}

const applicationColumns = `id, student_id, internship_id, applied_on, student_accepted, status`

// activeStatusClause selects applications counting against the student cap:
// PENDING, or SUCCESSFUL not yet accepted.
const activeStatusClause = `(status = 'PENDING' OR (status = 'SUCCESSFUL' AND student_accepted = FALSE))`

func (r *ApplicationRepository) Create(ctx context.Context, app *application.Application) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO applications (`+applicationColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		app.ID, app.StudentID, app.InternshipID, app.AppliedOn,
		app.StudentAccepted, string(app.Status),
	)
	if err != nil {
		return errors.NewStoreFailureError("applications.create", err)
	}

	details, _ := json.Marshal(map[string]interface{}{
		"studentId":    app.StudentID,
		"internshipId": app.InternshipID,
	})
	writeAudit(ctx, r.db, r.logger, "application_created", "application", app.ID, details)
	return nil
}

func (r *ApplicationRepository) GetByID(ctx context.Context, id string) (*application.Application, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+applicationColumns+` FROM applications WHERE id = $1`, id)
	return scanApplication(row, id)
}

func (r *ApplicationRepository) Update(ctx context.Context, app *application.Application) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE applications SET student_accepted = $2, status = $3
		WHERE id = $1`,
		app.ID, app.StudentAccepted, string(app.Status),
	)
	if err != nil {
		return errors.NewStoreFailureError("applications.update", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return errors.NewNotFoundError("application", app.ID)
	}

	details, _ := json.Marshal(map[string]interface{}{
		"status":          string(app.Status),
		"studentAccepted": app.StudentAccepted,
	})
	writeAudit(ctx, r.db, r.logger, "application_updated", "application", app.ID, details)
	return nil
}

func (r *ApplicationRepository) ExistsForPair(ctx context.Context, studentID, internshipID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM applications
			WHERE student_id = $1 AND internship_id = $2
		)`, studentID, internshipID).Scan(&exists)
	if err != nil {
		return false, errors.NewStoreFailureError("applications.existsForPair", err)
	}
	return exists, nil
}

func (r *ApplicationRepository) ListActiveByStudent(ctx context.Context, studentID string) ([]*application.Application, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+applicationColumns+` FROM applications
		WHERE student_id = $1 AND `+activeStatusClause+`
		ORDER BY applied_on, id`, studentID)
	if err != nil {
		return nil, errors.NewStoreFailureError("applications.listActiveByStudent", err)
	}
	defer rows.Close()

	var out []*application.Application
	for rows.Next() {
		app, err := scanApplication(rows, "")
		if err != nil {
			return nil, err
		}
		out = append(out, app)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewStoreFailureError("applications.listActiveByStudent", err)
	}
	return out, nil
}

func (r *ApplicationRepository) CountActiveApplications(ctx context.Context, studentID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM applications
		WHERE student_id = $1 AND `+activeStatusClause, studentID).Scan(&count)
	if err != nil {
		return 0, errors.NewStoreFailureError("applications.countActive", err)
	}
	return count, nil
}

func (r *ApplicationRepository) HasConfirmedPlacement(ctx context.Context, studentID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM applications
			WHERE student_id = $1 AND student_accepted = TRUE
		)`, studentID).Scan(&exists)
	if err != nil {
		return false, errors.NewStoreFailureError("applications.hasConfirmedPlacement", err)
	}
	return exists, nil
}

func scanApplication(row rowScanner, id string) (*application.Application, error) {
	var app application.Application
	var status string
	err := row.Scan(
		&app.ID, &app.StudentID, &app.InternshipID, &app.AppliedOn,
		&app.StudentAccepted, &status,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NewNotFoundError("application", id)
		}
		return nil, errors.NewStoreFailureError("applications.scan", err)
	}
	app.Status = application.Status(status)
	return &app, nil
}
