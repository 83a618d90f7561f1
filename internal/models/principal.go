package models

import "time"

// Role identifies the kind of authenticated principal. Admins are employees
// whose designation carries the admin title; the role is resolved at login and
// denormalised into the token.
type Role string

const (
	RoleStudent  Role = "STUDENT"
	RoleEmployee Role = "EMPLOYEE"
	RoleAdmin    Role = "ADMIN"
)

// AdminDesignationTitle marks the designation that grants admin capability.
const AdminDesignationTitle = "Admin"

// PrincipalStatus is the soft-delete lifecycle shared by students and
// employees. Records flip to Inactive, never hard-delete.
type PrincipalStatus string

const (
	PrincipalStatusActive   PrincipalStatus = "Active"
	PrincipalStatusInactive PrincipalStatus = "Inactive"
)

// Student represents a student record in the students table. The studentID is
// the human-readable natural key used for login.
type Student struct {
	ID                 string          `db:"id" json:"id"`
	StudentCode        string          `db:"student_code" json:"studentID"`
	FirstName          string          `db:"first_name" json:"firstName"`
	LastName           string          `db:"last_name" json:"lastName"`
	Gender             string          `db:"gender" json:"gender"`
	DOB                *time.Time      `db:"dob" json:"dob,omitempty"`
	Phone              string          `db:"phone" json:"phoneNumber"`
	Email              string          `db:"email" json:"email"`
	ParentEmail        string          `db:"parent_email" json:"parentEmail,omitempty"`
	Photo              string          `db:"photo" json:"photo,omitempty"`
	PrimaryDiagnosisID *string         `db:"primary_diagnosis_id" json:"primaryDiagnosisId,omitempty"`
	ComorbidityID      *string         `db:"comorbidity_id" json:"comorbidityId,omitempty"`
	PasswordHash       string          `db:"password_hash" json:"-"`
	Status             PrincipalStatus `db:"status" json:"status"`
	CreatedAt          time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time       `db:"updated_at" json:"updated_at"`
}

// StudentDetail enriches Student with resolved diagnosis names.
type StudentDetail struct {
	Student
	PrimaryDiagnosis *string `db:"primary_diagnosis" json:"primaryDiagnosis,omitempty"`
	Comorbidity      *string `db:"comorbidity" json:"comorbidity,omitempty"`
}

// Employee represents an employee record. Email is the natural key for login.
type Employee struct {
	ID            string          `db:"id" json:"id"`
	EmployeeCode  string          `db:"employee_code" json:"employeeID"`
	FirstName     string          `db:"first_name" json:"firstName"`
	LastName      string          `db:"last_name" json:"lastName"`
	Email         string          `db:"email" json:"email"`
	Contact       string          `db:"contact" json:"contact"`
	Photo         string          `db:"photo" json:"photo,omitempty"`
	DesignationID *string         `db:"designation_id" json:"designationId,omitempty"`
	DepartmentID  *string         `db:"department_id" json:"departmentId,omitempty"`
	PasswordHash  string          `db:"password_hash" json:"-"`
	Status        PrincipalStatus `db:"status" json:"status"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updated_at"`
}

// EmployeeDetail enriches Employee with resolved designation and department.
type EmployeeDetail struct {
	Employee
	DesignationTitle *string `db:"designation_title" json:"designation,omitempty"`
	DepartmentName   *string `db:"department_name" json:"department,omitempty"`
}

// CreateEmployeeRequest onboards a new employee. The employeeID and the
// initial credential are generated server-side.
type CreateEmployeeRequest struct {
	FirstName     string  `json:"firstName" validate:"required"`
	LastName      string  `json:"lastName" validate:"required"`
	Email         string  `json:"email" validate:"required,email"`
	Contact       string  `json:"contact" validate:"required"`
	Photo         string  `json:"photo"`
	DesignationID *string `json:"designationId,omitempty"`
	DepartmentID  *string `json:"departmentId,omitempty"`
}

// CreateStudentRequest onboards a new student. The studentID is assigned by
// the admin; the initial credential is generated server-side.
type CreateStudentRequest struct {
	StudentCode        string  `json:"studentId" validate:"required"`
	FirstName          string  `json:"firstName" validate:"required"`
	LastName           string  `json:"lastName" validate:"required"`
	Gender             string  `json:"gender" validate:"required"`
	DOB                string  `json:"dob,omitempty"`
	Phone              string  `json:"phoneNumber" validate:"required"`
	Email              string  `json:"email" validate:"required,email"`
	ParentEmail        string  `json:"parentEmail,omitempty"`
	Photo              string  `json:"photo,omitempty"`
	PrimaryDiagnosisID *string `json:"primaryDiagnosisId,omitempty"`
	ComorbidityID      *string `json:"comorbidityId,omitempty"`
}

// FullName joins the name parts for display.
func (e Employee) FullName() string {
	return e.FirstName + " " + e.LastName
}

// FullName joins the name parts for display.
func (s Student) FullName() string {
	return s.FirstName + " " + s.LastName
}
