package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/sparc-center/sparc-api/internal/models"
	appErrors "github.com/sparc-center/sparc-api/pkg/errors"
	"github.com/sparc-center/sparc-api/pkg/export"
	"github.com/sparc-center/sparc-api/pkg/jobs"
)

// JobTypeProgressReport tags report-generation jobs on the queue.
const JobTypeProgressReport = "progress_report"

type reportJobRepository interface {
	Create(ctx context.Context, job *models.ReportJob) error
	FindByID(ctx context.Context, id string) (*models.ReportJob, error)
	MarkProcessing(ctx context.Context, id string) error
	MarkCompleted(ctx context.Context, id, filePath string) error
	MarkFailed(ctx context.Context, id, reason string) error
}

type reportStudentReader interface {
	FindDetailByID(ctx context.Context, id string) (*models.StudentDetail, error)
}

type reportScoreReader interface {
	ListByStudent(ctx context.Context, studentID string) ([]models.ScoreCardDetail, error)
}

type reportProgramReader interface {
	ProgramNamesForStudent(ctx context.Context, studentID string) ([]string, error)
}

type reportQueue interface {
	Enqueue(job jobs.Job) error
}

type reportRenderer interface {
	Render(report export.ProgressReport) ([]byte, error)
}

type reportStore interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
}

type reportSigner interface {
	Generate(jobID, relPath string) (string, time.Time, error)
	Parse(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error)
}

// ReportStatus is the polling view of a report job. The download token only
// appears once generation has completed.
type ReportStatus struct {
	Job           *models.ReportJob `json:"job"`
	DownloadToken string            `json:"downloadToken,omitempty"`
	ExpiresAt     *time.Time        `json:"expiresAt,omitempty"`
}

// ReportService generates student progress reports asynchronously. The job
// record in the database is the durable source of truth; the in-memory queue
// only carries the work signal.
type ReportService struct {
	reports     reportJobRepository
	students    reportStudentReader
	scorecards  reportScoreReader
	enrollments reportProgramReader
	queue       reportQueue
	renderer    reportRenderer
	store       reportStore
	signer      reportSigner
	logger      *zap.Logger
	observe     func(outcome string)
}

// NewReportService constructs a ReportService instance. The queue is attached
// separately because the queue's handler needs the service.
func NewReportService(reports reportJobRepository, students reportStudentReader, scorecards reportScoreReader, enrollments reportProgramReader, renderer reportRenderer, store reportStore, signer reportSigner, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		reports:     reports,
		students:    students,
		scorecards:  scorecards,
		enrollments: enrollments,
		renderer:    renderer,
		store:       store,
		signer:      signer,
		logger:      logger,
	}
}

// AttachQueue wires the dispatch queue once it has been constructed.
func (s *ReportService) AttachQueue(queue reportQueue) {
	s.queue = queue
}

// AttachObserver wires an outcome counter for generated jobs.
func (s *ReportService) AttachObserver(observe func(outcome string)) {
	s.observe = observe
}

// Request records a report job and enqueues it for generation.
func (s *ReportService) Request(ctx context.Context, studentID, requestedBy string) (*models.ReportJob, error) {
	if _, err := s.students.FindDetailByID(ctx, studentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student does not exist")
		}
		return nil, internalError(err, "failed to verify student")
	}

	job := &models.ReportJob{
		StudentID:   studentID,
		Status:      models.ReportJobStatusQueued,
		RequestedBy: requestedBy,
	}
	if err := s.reports.Create(ctx, job); err != nil {
		return nil, internalError(err, "failed to create report job")
	}

	if s.queue == nil {
		_ = s.reports.MarkFailed(ctx, job.ID, "report queue unavailable")
		return nil, appErrors.Clone(appErrors.ErrInternal, "report queue unavailable")
	}
	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: JobTypeProgressReport, Payload: studentID}); err != nil {
		_ = s.reports.MarkFailed(ctx, job.ID, "enqueue failed")
		return nil, internalError(err, "failed to enqueue report job")
	}

	s.logger.Info("report job queued",
		zap.String("job_id", job.ID),
		zap.String("student_id", studentID))
	return job, nil
}

// Handle is the queue handler: it generates the PDF for one queued job.
func (s *ReportService) Handle(ctx context.Context, job jobs.Job) error {
	return s.generate(ctx, job.ID)
}

func (s *ReportService) generate(ctx context.Context, jobID string) error {
	job, err := s.reports.FindByID(ctx, jobID)
	if err != nil {
		return fmt.Errorf("load report job %s: %w", jobID, err)
	}
	if job.Status == models.ReportJobStatusCompleted {
		return nil
	}
	if err := s.reports.MarkProcessing(ctx, jobID); err != nil {
		return err
	}

	report, err := s.buildReport(ctx, job.StudentID)
	if err != nil {
		return s.fail(ctx, jobID, err)
	}
	data, err := s.renderer.Render(*report)
	if err != nil {
		return s.fail(ctx, jobID, err)
	}

	filename := fmt.Sprintf("progress/%s.pdf", jobID)
	if _, err := s.store.Save(filename, data); err != nil {
		return s.fail(ctx, jobID, err)
	}
	if err := s.reports.MarkCompleted(ctx, jobID, filename); err != nil {
		return err
	}
	if s.observe != nil {
		s.observe("completed")
	}

	s.logger.Info("report generated",
		zap.String("job_id", jobID),
		zap.String("file", filename),
		zap.Int("rows", len(report.Rows)))
	return nil
}

func (s *ReportService) fail(ctx context.Context, jobID string, cause error) error {
	if err := s.reports.MarkFailed(ctx, jobID, cause.Error()); err != nil {
		s.logger.Error("failed to mark report job failed", zap.String("job_id", jobID), zap.Error(err))
	}
	if s.observe != nil {
		s.observe("failed")
	}
	return cause
}

func (s *ReportService) buildReport(ctx context.Context, studentID string) (*export.ProgressReport, error) {
	student, err := s.students.FindDetailByID(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("load student %s: %w", studentID, err)
	}
	cards, err := s.scorecards.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("load scorecards: %w", err)
	}
	programs, err := s.enrollments.ProgramNamesForStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("load programs: %w", err)
	}

	rows, overall := aggregateScores(cards)
	return &export.ProgressReport{
		StudentName:    student.FullName(),
		StudentCode:    student.StudentCode,
		ProgramNames:   programs,
		Rows:           rows,
		OverallAverage: overall,
	}, nil
}

// aggregateScores folds raw entries into per skill-area/sub-task/month/week
// averages, preserving the chronological order the repository returns.
func aggregateScores(cards []models.ScoreCardDetail) ([]export.ProgressRow, float64) {
	type bucket struct {
		row   export.ProgressRow
		total int
	}
	var order []string
	buckets := make(map[string]*bucket)
	grandTotal := 0

	for _, card := range cards {
		skillArea := ""
		if card.SkillAreaName != nil {
			skillArea = *card.SkillAreaName
		}
		subTask := ""
		if card.SubTaskName != nil {
			subTask = *card.SubTaskName
		}
		key := fmt.Sprintf("%s|%s|%d|%s|%d", skillArea, subTask, card.Year, card.Month, card.Week)
		b, ok := buckets[key]
		if !ok {
			b = &bucket{row: export.ProgressRow{
				SkillArea: skillArea,
				SubTask:   subTask,
				Month:     fmt.Sprintf("%s %d", card.Month, card.Year),
				Week:      card.Week,
			}}
			buckets[key] = b
			order = append(order, key)
		}
		b.row.Entries++
		b.total += card.Score
		grandTotal += card.Score
	}

	rows := make([]export.ProgressRow, 0, len(order))
	for _, key := range order {
		b := buckets[key]
		b.row.Average = float64(b.total) / float64(b.row.Entries)
		rows = append(rows, b.row)
	}

	overall := 0.0
	if len(cards) > 0 {
		overall = float64(grandTotal) / float64(len(cards))
	}
	return rows, overall
}

// Status returns the job state plus, once completed, a signed download token.
func (s *ReportService) Status(ctx context.Context, jobID string) (*ReportStatus, error) {
	job, err := s.reports.FindByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "report job does not exist")
		}
		return nil, internalError(err, "failed to fetch report job")
	}

	status := &ReportStatus{Job: job}
	if job.Status == models.ReportJobStatusCompleted && job.FilePath != nil {
		token, expiresAt, err := s.signer.Generate(job.ID, *job.FilePath)
		if err != nil {
			return nil, internalError(err, "failed to sign download token")
		}
		status.DownloadToken = token
		status.ExpiresAt = &expiresAt
	}
	return status, nil
}

// Download validates a signed token and opens the generated file. The token
// is the only credential; the endpoint itself stays unauthenticated.
func (s *ReportService) Download(ctx context.Context, token string) (*os.File, string, error) {
	jobID, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, "", appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired download token")
	}

	job, err := s.reports.FindByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", appErrors.Clone(appErrors.ErrNotFound, "report job does not exist")
		}
		return nil, "", internalError(err, "failed to fetch report job")
	}
	if job.Status != models.ReportJobStatusCompleted || job.FilePath == nil || *job.FilePath != relPath {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "report is not available")
	}

	file, err := s.store.Open(relPath)
	if err != nil {
		return nil, "", internalError(err, "failed to open report file")
	}
	return file, fmt.Sprintf("progress-report-%s.pdf", job.StudentID), nil
}
