package postgres

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"placement-core/internal/common/errors"
	"placement-core/internal/domain/application"
)

// ==========================
// Test Helper Functions
// ==========================

func newAppMockDB(t *testing.T) (*ApplicationRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	repo := NewApplicationRepository(db, createTestLogger(t))
	return repo, mock, func() { db.Close() }
}

func applicationRows(rows ...[]driverValue) *sqlmock.Rows {
	out := sqlmock.NewRows([]string{
		"id", "student_id", "internship_id", "applied_on", "student_accepted", "status",
	})
	for _, r := range rows {
		out.AddRow(r[0], r[1], r[2], r[3], r[4], r[5])
	}
	return out
}

type driverValue = interface{}

func pendingRow(id, studentID string) []driverValue {
	return []driverValue{id, studentID, "INT00001", testNow, false, "PENDING"}
}

// ==========================
// Writes
// ==========================

func TestApplicationRepository_Create(t *testing.T) {
	repo, mock, cleanup := newAppMockDB(t)
	defer cleanup()

	app := &application.Application{
		ID:           "APP00001",
		StudentID:    "S1",
		InternshipID: "INT00001",
		AppliedOn:    testNow,
		Status:       application.StatusPending,
	}

	mock.ExpectExec(`INSERT INTO applications`).
		WithArgs("APP00001", "S1", "INT00001", testNow, false, "PENDING").
		WillReturnResult(sqlmock.NewResult(1, 1))
	expectAuditInsert(mock)

	err := repo.Create(context.Background(), app)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepository_Update(t *testing.T) {
	repo, mock, cleanup := newAppMockDB(t)
	defer cleanup()

	app := &application.Application{
		ID:              "APP00001",
		StudentID:       "S1",
		InternshipID:    "INT00001",
		StudentAccepted: true,
		Status:          application.StatusSuccessful,
	}

	mock.ExpectExec(`UPDATE applications SET student_accepted = \$2, status = \$3`).
		WithArgs("APP00001", true, "SUCCESSFUL").
		WillReturnResult(sqlmock.NewResult(0, 1))
	expectAuditInsert(mock)

	err := repo.Update(context.Background(), app)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepository_Update_NotFound(t *testing.T) {
	repo, mock, cleanup := newAppMockDB(t)
	defer cleanup()

	mock.ExpectExec(`UPDATE applications SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), &application.Application{ID: "APP99999"})

	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindNotFound))
}

// ==========================
// Reads
// ==========================

func TestApplicationRepository_GetByID(t *testing.T) {
	repo, mock, cleanup := newAppMockDB(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT (.+) FROM applications WHERE id = \$1`).
		WithArgs("APP00001").
		WillReturnRows(applicationRows(pendingRow("APP00001", "S1")))

	app, err := repo.GetByID(context.Background(), "APP00001")

	require.NoError(t, err)
	assert.Equal(t, "APP00001", app.ID)
	assert.Equal(t, application.StatusPending, app.Status)
	assert.Nil(t, app.Internship(), "loaded applications come back detached")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepository_GetByID_NotFound(t *testing.T) {
	repo, mock, cleanup := newAppMockDB(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT (.+) FROM applications WHERE id = \$1`).
		WithArgs("APP99999").
		WillReturnError(sql.ErrNoRows)

	app, err := repo.GetByID(context.Background(), "APP99999")

	assert.Nil(t, app)
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindNotFound))
}

func TestApplicationRepository_ExistsForPair(t *testing.T) {
	repo, mock, cleanup := newAppMockDB(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("S1", "INT00001").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.ExistsForPair(context.Background(), "S1", "INT00001")

	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepository_ListActiveByStudent(t *testing.T) {
	repo, mock, cleanup := newAppMockDB(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT (.+) FROM applications\s+WHERE student_id = \$1`).
		WithArgs("S1").
		WillReturnRows(applicationRows(
			pendingRow("APP00001", "S1"),
			[]driverValue{"APP00002", "S1", "INT00002", testNow, false, "SUCCESSFUL"},
		))

	out, err := repo.ListActiveByStudent(context.Background(), "S1")

	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, application.StatusPending, out[0].Status)
	assert.Equal(t, application.StatusSuccessful, out[1].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepository_CountActiveApplications(t *testing.T) {
	repo, mock, cleanup := newAppMockDB(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM applications`).
		WithArgs("S1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	count, err := repo.CountActiveApplications(context.Background(), "S1")

	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestApplicationRepository_HasConfirmedPlacement(t *testing.T) {
	repo, mock, cleanup := newAppMockDB(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("S1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	confirmed, err := repo.HasConfirmedPlacement(context.Background(), "S1")

	require.NoError(t, err)
	assert.False(t, confirmed)
}
