// Package postgres implements the placement repositories over PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"placement-core/internal/common/errors"
	"placement-core/internal/common/logger"
	"placement-core/internal/domain/internship"
)

// InternshipRepository stores postings in the internships table.
type InternshipRepository struct {
	db     *sql.DB
	logger logger.Logger
}

func NewInternshipRepository(db *sql.DB, log logger.Logger) *InternshipRepository {
	return &InternshipRepository{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"repository": "internships"}),
	}
}

const internshipColumns = `id, title, description, level, preferred_major,
	open_date, close_date, company_name, max_slots, confirmed_slots,
	visible, status, created_at`

func (r *InternshipRepository) Create(ctx context.Context, in *internship.Internship) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO internships (`+internshipColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		in.ID, in.Title, in.Description, string(in.Level), in.PreferredMajor,
		in.OpenDate, in.CloseDate, in.CompanyName, in.MaxSlots, in.ConfirmedSlots,
		in.Visible, string(in.Status), in.CreatedAt,
	)
	if err != nil {
		return errors.NewStoreFailureError("internships.create", err)
	}

	details, _ := json.Marshal(map[string]interface{}{
		"company":  in.CompanyName,
		"level":    string(in.Level),
		"maxSlots": in.MaxSlots,
	})
	writeAudit(ctx, r.db, r.logger, "internship_created", "internship", in.ID, details)
	return nil
}

func (r *InternshipRepository) GetByID(ctx context.Context, id string) (*internship.Internship, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+internshipColumns+` FROM internships WHERE id = $1`, id)
	return scanInternship(row, id)
}

func (r *InternshipRepository) Update(ctx context.Context, in *internship.Internship) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE internships SET
			title = $2, description = $3, level = $4, preferred_major = $5,
			open_date = $6, close_date = $7, max_slots = $8,
			confirmed_slots = $9, visible = $10, status = $11
		WHERE id = $1`,
		in.ID, in.Title, in.Description, string(in.Level), in.PreferredMajor,
		in.OpenDate, in.CloseDate, in.MaxSlots, in.ConfirmedSlots,
		in.Visible, string(in.Status),
	)
	if err != nil {
		return errors.NewStoreFailureError("internships.update", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return errors.NewNotFoundError("internship", in.ID)
	}

	details, _ := json.Marshal(map[string]interface{}{
		"status":         string(in.Status),
		"confirmedSlots": in.ConfirmedSlots,
		"visible":        in.Visible,
	})
	writeAudit(ctx, r.db, r.logger, "internship_updated", "internship", in.ID, details)
	return nil
}

func (r *InternshipRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM internships WHERE id = $1`, id)
	if err != nil {
		return errors.NewStoreFailureError("internships.delete", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return errors.NewNotFoundError("internship", id)
	}
	writeAudit(ctx, r.db, r.logger, "internship_deleted", "internship", id, nil)
	return nil
}

func (r *InternshipRepository) CountActiveByCompany(ctx context.Context, companyName string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM internships
		WHERE company_name = $1 AND status IN ('PENDING', 'APPROVED')`,
		companyName).Scan(&count)
	if err != nil {
		return 0, errors.NewStoreFailureError("internships.countActiveByCompany", err)
	}
	return count, nil
}

func (r *InternshipRepository) ListOpen(ctx context.Context, today time.Time) ([]*internship.Internship, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+internshipColumns+` FROM internships
		WHERE status = 'APPROVED' AND visible = TRUE
		  AND open_date <= $1 AND close_date >= $1
		  AND confirmed_slots < max_slots
		ORDER BY open_date, id`, today)
	if err != nil {
		return nil, errors.NewStoreFailureError("internships.listOpen", err)
	}
	defer rows.Close()

	var out []*internship.Internship
	for rows.Next() {
		in, err := scanInternship(rows, "")
		if err != nil {
			return nil, err
		}
		out = append(out, in)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewStoreFailureError("internships.listOpen", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanInternship(row rowScanner, id string) (*internship.Internship, error) {
	var in internship.Internship
	var level, status string
	err := row.Scan(
		&in.ID, &in.Title, &in.Description, &level, &in.PreferredMajor,
		&in.OpenDate, &in.CloseDate, &in.CompanyName, &in.MaxSlots,
		&in.ConfirmedSlots, &in.Visible, &status, &in.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NewNotFoundError("internship", id)
		}
		return nil, errors.NewStoreFailureError("internships.scan", err)
	}
	in.Level = internship.Level(level)
	in.Status = internship.Status(status)
	return &in, nil
}
