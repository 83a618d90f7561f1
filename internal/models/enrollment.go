package models

import "time"

// EnrollmentStatus is the administrative lifecycle of an enrollment.
type EnrollmentStatus string

const (
	EnrollmentStatusActive    EnrollmentStatus = "Active"
	EnrollmentStatusInactive  EnrollmentStatus = "Inactive"
	EnrollmentStatusCompleted EnrollmentStatus = "Completed"
)

// ValidEnrollmentStatus reports whether s is one of the three enum values.
func ValidEnrollmentStatus(s EnrollmentStatus) bool {
	switch s {
	case EnrollmentStatusActive, EnrollmentStatusInactive, EnrollmentStatusCompleted:
		return true
	}
	return false
}

// Enrollment registers a student into one or more programs under a primary
// educator and an optional secondary educator.
type Enrollment struct {
	ID                  string           `db:"id" json:"id"`
	StudentID           string           `db:"student_id" json:"studentId"`
	EducatorID          string           `db:"educator_id" json:"educatorId"`
	SecondaryEducatorID *string          `db:"secondary_educator_id" json:"secondaryEducatorId,omitempty"`
	Level               int              `db:"level" json:"level"`
	Status              EnrollmentStatus `db:"status" json:"status"`
	CreatedAt           time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time        `db:"updated_at" json:"updated_at"`
}

// ProgramRef is the display projection of a linked program.
type ProgramRef struct {
	ID   string `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// CreateEnrollmentRequest registers a student into one or more programs. The
// program order is preserved through persistence and display.
type CreateEnrollmentRequest struct {
	StudentID           string   `json:"studentId" validate:"required"`
	EducatorID          string   `json:"educatorId" validate:"required"`
	SecondaryEducatorID *string  `json:"secondaryEducatorId,omitempty"`
	ProgramIDs          []string         `json:"programIds" validate:"required,min=1"`
	Level               int              `json:"level" validate:"omitempty,min=1"`
	Status              EnrollmentStatus `json:"status,omitempty"`
}

// EnrollmentDetail carries display-friendly projections of every reference:
// names and photos, not full documents.
type EnrollmentDetail struct {
	Enrollment
	StudentName           string      `db:"student_name" json:"studentName"`
	StudentCode           string      `db:"student_code" json:"studentID"`
	StudentPhoto          string      `db:"student_photo" json:"studentPhoto,omitempty"`
	StudentDiagnosis      *string     `db:"student_diagnosis" json:"studentDiagnosis,omitempty"`
	EducatorName          string      `db:"educator_name" json:"educatorName"`
	EducatorPhoto         string      `db:"educator_photo" json:"educatorPhoto,omitempty"`
	SecondaryEducatorName *string     `db:"secondary_educator_name" json:"secondaryEducatorName,omitempty"`
	Programs              []ProgramRef `db:"-" json:"programs"`
}
