package postgres

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"placement-core/internal/common/errors"
)

func TestLastIssuedSequence(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT COALESCE\(MAX\(CAST\(SUBSTRING\(id FROM 4\) AS INTEGER\)\), 0\)\s+FROM internships WHERE id LIKE \$1`).
		WithArgs("INT%").
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(42))

	last, err := LastIssuedSequence(context.Background(), db, "internships", "INT")
	require.NoError(t, err)
	assert.Equal(t, 42, last)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLastIssuedSequence_EmptyTable(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT COALESCE`).
		WithArgs("APP%").
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(0))

	last, err := LastIssuedSequence(context.Background(), db, "applications", "APP")
	require.NoError(t, err)
	assert.Equal(t, 0, last)
}

func TestLastIssuedSequence_StoreFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT COALESCE`).
		WillReturnError(stderrors.New("connection reset"))

	_, err = LastIssuedSequence(context.Background(), db, "withdrawal_requests", "WDR")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeStoreFailure, errors.CodeOf(err))
}
