package models

import "time"

// ReportJobStatus tracks a progress-report generation job.
type ReportJobStatus string

const (
	ReportJobStatusQueued     ReportJobStatus = "queued"
	ReportJobStatusProcessing ReportJobStatus = "processing"
	ReportJobStatusCompleted  ReportJobStatus = "completed"
	ReportJobStatusFailed     ReportJobStatus = "failed"
)

// ReportJob is the durable record behind the in-memory queue. A crash between
// PDF generation and this record completing leaves at worst an orphaned file,
// never a dangling database reference.
type ReportJob struct {
	ID          string          `db:"id" json:"id"`
	StudentID   string          `db:"student_id" json:"student_id"`
	Status      ReportJobStatus `db:"status" json:"status"`
	FilePath    *string         `db:"file_path" json:"-"`
	Error       *string         `db:"error" json:"error,omitempty"`
	RequestedBy string          `db:"requested_by" json:"requested_by"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
}
