package repository

import (
	"context"
	"database/sql"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-backoffice-api/internal/models"
)

func newEmployeeMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestEmployeeRepositoryExistsByEmployeeNo(t *testing.T) {
	db, mock, cleanup := newEmployeeMock(t)
	defer cleanup()
	repo := NewEmployeeRepository(db)

	mock.ExpectQuery("SELECT 1 FROM employees WHERE employee_no").
		WithArgs("EMP-001").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	exists, err := repo.ExistsByEmployeeNo(context.Background(), "EMP-001", "")
	require.NoError(t, err)
	assert.True(t, exists)

	mock.ExpectQuery("SELECT 1 FROM employees WHERE employee_no").
		WithArgs("EMP-002", "emp-id").
		WillReturnError(sql.ErrNoRows)

	exists, err = repo.ExistsByEmployeeNo(context.Background(), "EMP-002", "emp-id")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEmployeeRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newEmployeeMock(t)
	defer cleanup()
	repo := NewEmployeeRepository(db)

	mock.ExpectExec("INSERT INTO employees").
		WillReturnResult(sqlmock.NewResult(1, 1))

	employee := &models.Employee{
		EmployeeNo: "EMP-001",
		FullName:   "Teacher",
		Department: "teaching",
		Level:      "senior",
		Status:     models.EmployeeStatusActive,
	}
	err := repo.Create(context.Background(), employee)
	require.NoError(t, err)
	assert.NotEmpty(t, employee.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEmployeeRepositoryDeleteMissingRow(t *testing.T) {
	db, mock, cleanup := newEmployeeMock(t)
	defer cleanup()
	repo := NewEmployeeRepository(db)

	mock.ExpectExec("DELETE FROM employees").
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
