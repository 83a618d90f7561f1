package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sparc-center/sparc-api/internal/models"
)

func TestEnrollmentCreateLinksProgramsInOrder(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO enrollments").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO enrollment_programs (enrollment_id, program_id, position) VALUES ($1, $2, $3)")).
		WithArgs(sqlmock.AnyArg(), "p2", 0).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO enrollment_programs (enrollment_id, program_id, position) VALUES ($1, $2, $3)")).
		WithArgs(sqlmock.AnyArg(), "p1", 1).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	enrollment := &models.Enrollment{StudentID: "s1", EducatorID: "e1"}
	err := repo.Create(context.Background(), enrollment, []string{"p2", "p1"})
	require.NoError(t, err)
	assert.NotEmpty(t, enrollment.ID)
	assert.Equal(t, models.EnrollmentStatusActive, enrollment.Status)
	assert.Equal(t, 1, enrollment.Level)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentCreateRollsBackOnLinkFailure(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO enrollments").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO enrollment_programs").WillReturnError(assert.AnError)
	mock.ExpectRollback()

	enrollment := &models.Enrollment{StudentID: "s1", EducatorID: "e1"}
	err := repo.Create(context.Background(), enrollment, []string{"p1"})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentListForEducatorMatchesEitherRole(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "student_id", "educator_id", "secondary_educator_id",
		"level", "status", "created_at", "updated_at", "student_name", "student_code", "student_photo",
		"student_diagnosis", "educator_name", "educator_photo", "secondary_educator_name"}).
		AddRow("en1", "s1", "e1", nil, 1, string(models.EnrollmentStatusActive), now, now,
			"Asha Rao", "STU-0001", "", nil, "Ravi Kumar", "", nil)
	mock.ExpectQuery(regexp.QuoteMeta("(en.educator_id = $1 OR en.secondary_educator_id = $1)")).
		WithArgs("e1", string(models.EnrollmentStatusActive)).
		WillReturnRows(rows)

	programRows := sqlmock.NewRows([]string{"enrollment_id", "program_id", "program_name"}).
		AddRow("en1", "p1", "Communication")
	mock.ExpectQuery("FROM enrollment_programs ep").
		WithArgs("en1").
		WillReturnRows(programRows)

	details, err := repo.ListForEducator(context.Background(), "e1")
	require.NoError(t, err)
	require.Len(t, details, 1)
	require.Len(t, details[0].Programs, 1)
	assert.Equal(t, "Communication", details[0].Programs[0].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}
