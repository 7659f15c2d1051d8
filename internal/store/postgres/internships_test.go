package postgres

import (
	"context"
	"database/sql"
	stderrors "errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"placement-core/internal/common/errors"
	"placement-core/internal/common/logger"
	"placement-core/internal/domain/internship"
)

// ==========================
// Test Helper Functions
// ==========================

var testNow = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func createTestLogger(t *testing.T) logger.Logger {
	return logger.NewZapAdapter(zaptest.NewLogger(t))
}

func newMockDB(t *testing.T) (*InternshipRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	repo := NewInternshipRepository(db, createTestLogger(t))
	return repo, mock, func() { db.Close() }
}

func testInternship(t *testing.T) *internship.Internship {
	t.Helper()
	in, err := internship.New(
		"INT00001", "Backend Intern", "Go services", internship.LevelBasic, "CS",
		testNow, testNow.AddDate(0, 0, 30), "Acme Corp", 2, testNow,
	)
	require.NoError(t, err)
	return in
}

func expectAuditInsert(mock sqlmock.Sqlmock) {
	mock.ExpectExec(`INSERT INTO audit_log`).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
}

func internshipRows(in *internship.Internship) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "title", "description", "level", "preferred_major",
		"open_date", "close_date", "company_name", "max_slots",
		"confirmed_slots", "visible", "status", "created_at",
	}).AddRow(
		in.ID, in.Title, in.Description, string(in.Level), in.PreferredMajor,
		in.OpenDate, in.CloseDate, in.CompanyName, in.MaxSlots,
		in.ConfirmedSlots, in.Visible, string(in.Status), in.CreatedAt,
	)
}

// ==========================
// Create / Get / Update / Delete
// ==========================

func TestInternshipRepository_Create(t *testing.T) {
	repo, mock, cleanup := newMockDB(t)
	defer cleanup()
	in := testInternship(t)

	mock.ExpectExec(`INSERT INTO internships`).
		WithArgs(in.ID, in.Title, in.Description, "BASIC", in.PreferredMajor,
			in.OpenDate, in.CloseDate, in.CompanyName, in.MaxSlots, 0,
			false, "PENDING", in.CreatedAt).
		WillReturnResult(sqlmock.NewResult(1, 1))
	expectAuditInsert(mock)

	err := repo.Create(context.Background(), in)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInternshipRepository_Create_StoreFailure(t *testing.T) {
	repo, mock, cleanup := newMockDB(t)
	defer cleanup()
	in := testInternship(t)

	mock.ExpectExec(`INSERT INTO internships`).
		WillReturnError(stderrors.New("connection reset"))

	err := repo.Create(context.Background(), in)

	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeStoreFailure, errors.CodeOf(err))
}

func TestInternshipRepository_GetByID(t *testing.T) {
	repo, mock, cleanup := newMockDB(t)
	defer cleanup()
	in := testInternship(t)

	mock.ExpectQuery(`SELECT (.+) FROM internships WHERE id = \$1`).
		WithArgs(in.ID).
		WillReturnRows(internshipRows(in))

	got, err := repo.GetByID(context.Background(), in.ID)

	require.NoError(t, err)
	assert.Equal(t, in.ID, got.ID)
	assert.Equal(t, internship.LevelBasic, got.Level)
	assert.Equal(t, internship.StatusPending, got.Status)
	assert.Equal(t, 2, got.MaxSlots)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInternshipRepository_GetByID_NotFound(t *testing.T) {
	repo, mock, cleanup := newMockDB(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT (.+) FROM internships WHERE id = \$1`).
		WithArgs("INT99999").
		WillReturnError(sql.ErrNoRows)

	got, err := repo.GetByID(context.Background(), "INT99999")

	assert.Nil(t, got)
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindNotFound))
}

func TestInternshipRepository_Update(t *testing.T) {
	repo, mock, cleanup := newMockDB(t)
	defer cleanup()
	in := testInternship(t)
	require.NoError(t, in.Approve())

	mock.ExpectExec(`UPDATE internships SET`).
		WithArgs(in.ID, in.Title, in.Description, "BASIC", in.PreferredMajor,
			in.OpenDate, in.CloseDate, in.MaxSlots, 0, false, "APPROVED").
		WillReturnResult(sqlmock.NewResult(0, 1))
	expectAuditInsert(mock)

	err := repo.Update(context.Background(), in)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInternshipRepository_Update_NotFound(t *testing.T) {
	repo, mock, cleanup := newMockDB(t)
	defer cleanup()
	in := testInternship(t)

	mock.ExpectExec(`UPDATE internships SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), in)

	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindNotFound))
}

func TestInternshipRepository_Delete(t *testing.T) {
	repo, mock, cleanup := newMockDB(t)
	defer cleanup()

	mock.ExpectExec(`DELETE FROM internships WHERE id = \$1`).
		WithArgs("INT00001").
		WillReturnResult(sqlmock.NewResult(0, 1))
	expectAuditInsert(mock)

	require.NoError(t, repo.Delete(context.Background(), "INT00001"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInternshipRepository_Delete_NotFound(t *testing.T) {
	repo, mock, cleanup := newMockDB(t)
	defer cleanup()

	mock.ExpectExec(`DELETE FROM internships WHERE id = \$1`).
		WithArgs("INT99999").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "INT99999")

	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindNotFound))
}

// ==========================
// Queries
// ==========================

func TestInternshipRepository_CountActiveByCompany(t *testing.T) {
	repo, mock, cleanup := newMockDB(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM internships`).
		WithArgs("Acme Corp").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

	count, err := repo.CountActiveByCompany(context.Background(), "Acme Corp")

	require.NoError(t, err)
	assert.Equal(t, 4, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInternshipRepository_ListOpen(t *testing.T) {
	repo, mock, cleanup := newMockDB(t)
	defer cleanup()
	in := testInternship(t)
	require.NoError(t, in.Approve())
	require.NoError(t, in.SetVisible(true))

	mock.ExpectQuery(`SELECT (.+) FROM internships\s+WHERE status = 'APPROVED'`).
		WithArgs(testNow).
		WillReturnRows(internshipRows(in))

	out, err := repo.ListOpen(context.Background(), testNow)

	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, in.ID, out[0].ID)
	assert.True(t, out[0].Visible)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInternshipRepository_ListOpen_Empty(t *testing.T) {
	repo, mock, cleanup := newMockDB(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT (.+) FROM internships\s+WHERE status = 'APPROVED'`).
		WithArgs(testNow).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "title", "description", "level", "preferred_major",
			"open_date", "close_date", "company_name", "max_slots",
			"confirmed_slots", "visible", "status", "created_at",
		}))

	out, err := repo.ListOpen(context.Background(), testNow)

	require.NoError(t, err)
	assert.Empty(t, out)
}
