package models

import "time"

// AppointmentStatus models the request-to-session lifecycle. An appointment
// never re-enters pending once scheduled.
type AppointmentStatus string

const (
	AppointmentStatusPending   AppointmentStatus = "pending"
	AppointmentStatusScheduled AppointmentStatus = "scheduled"
	AppointmentStatusCompleted AppointmentStatus = "completed"
)

// ValidAppointmentStatus reports whether s is one of the three states.
func ValidAppointmentStatus(s AppointmentStatus) bool {
	switch s {
	case AppointmentStatusPending, AppointmentStatusScheduled, AppointmentStatusCompleted:
		return true
	}
	return false
}

// Verdict classifies the outcome once a consultation has occurred.
type Verdict string

const (
	VerdictJoined         Verdict = "joined"
	VerdictRecommendation Verdict = "recommendation"
)

// ValidVerdict reports whether v is a recognised outcome.
func ValidVerdict(v Verdict) bool {
	return v == VerdictJoined || v == VerdictRecommendation
}

// Appointment is a parent/student consultation request.
type Appointment struct {
	ID          string            `db:"id" json:"id"`
	StudentName string            `db:"student_name" json:"studentName"`
	ParentName  string            `db:"parent_name" json:"parentName"`
	Email       string            `db:"email" json:"email"`
	Phone       string            `db:"phone" json:"phone"`
	Date        time.Time         `db:"date" json:"date"`
	TimeHr      int               `db:"time_hr" json:"timeHr"`
	TimeMin     int               `db:"time_min" json:"timeMin"`
	Message     string            `db:"message" json:"message,omitempty"`
	Status      AppointmentStatus `db:"status" json:"status"`
	EmployeeID  *string           `db:"employee_id" json:"employeeId,omitempty"`
	Verdict     *Verdict          `db:"verdict" json:"verdict,omitempty"`
	Remarks     *string           `db:"remarks" json:"remarks,omitempty"`
	CreatedAt   time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time         `db:"updated_at" json:"updated_at"`
}

// AppointmentDetail enriches Appointment with the assigned employee's name.
type AppointmentDetail struct {
	Appointment
	EmployeeName *string `db:"employee_name" json:"employeeName,omitempty"`
}

// AppointmentFilter scopes listings; employees only see their own assignments.
type AppointmentFilter struct {
	EmployeeID string
	Status     AppointmentStatus
}

// CreateAppointmentRequest is the public consultation request form. Time
// fields are pointers so a midnight slot survives the required check.
type CreateAppointmentRequest struct {
	StudentName string `json:"studentName" validate:"required"`
	ParentName  string `json:"parentName" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
	Phone       string `json:"phone" validate:"required,len=10,numeric"`
	Date        string `json:"date" validate:"required"`
	TimeHr      *int   `json:"timeHr" validate:"required"`
	TimeMin     *int   `json:"timeMin" validate:"required"`
	Message     string `json:"message"`
}

// ScheduleAppointmentRequest binds an employee and confirms the slot.
type ScheduleAppointmentRequest struct {
	EmployeeID string `json:"employeeId" validate:"required"`
	Date       string `json:"date" validate:"required"`
	TimeHr     *int   `json:"timeHr" validate:"required"`
	TimeMin    *int   `json:"timeMin" validate:"required"`
}

// UpdateAppointmentRequest is a partial update; nil fields stay untouched.
type UpdateAppointmentRequest struct {
	Status  *AppointmentStatus `json:"status,omitempty"`
	Verdict *Verdict           `json:"verdict,omitempty"`
	Remarks *string            `json:"remarks,omitempty"`
}
