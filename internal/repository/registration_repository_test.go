package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-backoffice-api/internal/models"
)

func newRegistrationMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestRegistrationRepositoryExistsByPhone(t *testing.T) {
	db, mock, cleanup := newRegistrationMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	mock.ExpectQuery("SELECT 1 FROM student_registrations WHERE phone").
		WithArgs("08123").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	exists, err := repo.ExistsByPhone(context.Background(), "08123")
	require.NoError(t, err)
	assert.True(t, exists)

	mock.ExpectQuery("SELECT 1 FROM student_registrations WHERE phone").
		WithArgs("0999").
		WillReturnError(sql.ErrNoRows)

	exists, err = repo.ExistsByPhone(context.Background(), "0999")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistrationRepositoryApproveWithStudent(t *testing.T) {
	db, mock, cleanup := newRegistrationMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO students").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("UPDATE student_registrations SET status").
		WithArgs("reg-1", models.RegistrationStatusApproved, "admin-1", sqlmock.AnyArg(), models.RegistrationStatusPending).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	student := &models.Student{
		RegistrationID: strPtr("reg-1"),
		AdmissionNo:    "ADM-001",
		FullName:       "Student",
		ClassSection:   "5A",
		Status:         models.StudentStatusProvisional,
	}
	err := repo.ApproveWithStudent(context.Background(), "reg-1", student, "admin-1")
	require.NoError(t, err)
	assert.NotEmpty(t, student.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistrationRepositoryApproveWithStudentRollsBackWhenNotPending(t *testing.T) {
	db, mock, cleanup := newRegistrationMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO students").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("UPDATE student_registrations SET status").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	student := &models.Student{AdmissionNo: "ADM-002", FullName: "Student", Status: models.StudentStatusProvisional}
	err := repo.ApproveWithStudent(context.Background(), "reg-2", student, "admin-1")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistrationRepositoryUpdateStatusConflict(t *testing.T) {
	db, mock, cleanup := newRegistrationMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	mock.ExpectExec("UPDATE student_registrations SET status").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateStatus(context.Background(), "reg-3", models.RegistrationStatusPending, models.RegistrationStatusRejected, "admin-1", time.Now().UTC())
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistrationRepositoryMarkCompletedLeavesReviewColumns(t *testing.T) {
	db, mock, cleanup := newRegistrationMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	// Completion must not rewrite reviewed_by/reviewed_at.
	mock.ExpectExec(`UPDATE student_registrations SET status = \$2, updated_at = \$3 WHERE id = \$1 AND status = \$4`).
		WithArgs("reg-4", models.RegistrationStatusAdmissionDone, sqlmock.AnyArg(), models.RegistrationStatusApproved).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.MarkCompleted(context.Background(), "reg-4")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())

	mock.ExpectExec(`UPDATE student_registrations SET status = \$2, updated_at = \$3`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = repo.MarkCompleted(context.Background(), "reg-5")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func strPtr(s string) *string { return &s }
