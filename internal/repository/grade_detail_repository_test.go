package repository

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/FleerJam/appGestionAcademica/internal/models"
)

func newGradeDetailRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestGradeDetailRepositoryUpsert(t *testing.T) {
	db, mock, cleanup := newGradeDetailRepoMock(t)
	defer cleanup()
	repo := NewGradeDetailRepository(db)

	mock.ExpectExec(`INSERT INTO grade_details .+ ON CONFLICT \(enrollment_id, evaluation_id\)`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	detail := &models.GradeDetail{EnrollmentID: "enr-1", EvaluationID: "ev-1", Score: 7.5}
	err := repo.Upsert(context.Background(), detail)
	require.NoError(t, err)
	require.NotEmpty(t, detail.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGradeDetailRepositoryZeroByEnrollment(t *testing.T) {
	db, mock, cleanup := newGradeDetailRepoMock(t)
	defer cleanup()
	repo := NewGradeDetailRepository(db)

	mock.ExpectExec(`UPDATE grade_details SET score = 0`).
		WithArgs("enr-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 3))

	err := repo.ZeroByEnrollment(context.Background(), "enr-1")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
