package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sparc-center/sparc-api/internal/models"
	appErrors "github.com/sparc-center/sparc-api/pkg/errors"
	"github.com/sparc-center/sparc-api/pkg/export"
	"github.com/sparc-center/sparc-api/pkg/jobs"
	"github.com/sparc-center/sparc-api/pkg/storage"
)

type fakeReportJobRepo struct {
	jobs map[string]*models.ReportJob
}

func newFakeReportJobRepo() *fakeReportJobRepo {
	return &fakeReportJobRepo{jobs: make(map[string]*models.ReportJob)}
}

func (f *fakeReportJobRepo) Create(ctx context.Context, job *models.ReportJob) error {
	if job.ID == "" {
		job.ID = "job1"
	}
	if job.Status == "" {
		job.Status = models.ReportJobStatusQueued
	}
	f.jobs[job.ID] = job
	return nil
}

func (f *fakeReportJobRepo) FindByID(ctx context.Context, id string) (*models.ReportJob, error) {
	job, ok := f.jobs[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return job, nil
}

func (f *fakeReportJobRepo) MarkProcessing(ctx context.Context, id string) error {
	f.jobs[id].Status = models.ReportJobStatusProcessing
	return nil
}

func (f *fakeReportJobRepo) MarkCompleted(ctx context.Context, id, filePath string) error {
	f.jobs[id].Status = models.ReportJobStatusCompleted
	f.jobs[id].FilePath = &filePath
	return nil
}

func (f *fakeReportJobRepo) MarkFailed(ctx context.Context, id, reason string) error {
	f.jobs[id].Status = models.ReportJobStatusFailed
	f.jobs[id].Error = &reason
	return nil
}

type fakeReportStudentReader struct {
	detail *models.StudentDetail
}

func (f *fakeReportStudentReader) FindDetailByID(ctx context.Context, id string) (*models.StudentDetail, error) {
	if f.detail == nil {
		return nil, sql.ErrNoRows
	}
	return f.detail, nil
}

type fakeReportScoreReader struct {
	cards []models.ScoreCardDetail
}

func (f *fakeReportScoreReader) ListByStudent(ctx context.Context, studentID string) ([]models.ScoreCardDetail, error) {
	return f.cards, nil
}

type fakeReportProgramReader struct {
	names []string
}

func (f *fakeReportProgramReader) ProgramNamesForStudent(ctx context.Context, studentID string) ([]string, error) {
	return f.names, nil
}

type captureQueue struct {
	enqueued []jobs.Job
}

func (q *captureQueue) Enqueue(job jobs.Job) error {
	q.enqueued = append(q.enqueued, job)
	return nil
}

func scoreDetail(skillArea, month string, week, score int) models.ScoreCardDetail {
	return models.ScoreCardDetail{
		ScoreCard:     models.ScoreCard{Year: 2026, Month: month, Week: week, Score: score},
		SkillAreaName: &skillArea,
	}
}

func newTestReportService(t *testing.T, repo *fakeReportJobRepo, cards []models.ScoreCardDetail) (*ReportService, *captureQueue) {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("test-secret", time.Hour)

	students := &fakeReportStudentReader{detail: &models.StudentDetail{Student: models.Student{
		ID:          "s1",
		StudentCode: "STU-0001",
		FirstName:   "Asha",
		LastName:    "Rao",
	}}}
	svc := NewReportService(repo, students, &fakeReportScoreReader{cards: cards}, &fakeReportProgramReader{names: []string{"Communication"}},
		export.NewPDFExporter(), store, signer, zap.NewNop())

	queue := &captureQueue{}
	svc.AttachQueue(queue)
	return svc, queue
}

func TestAggregateScoresAveragesBuckets(t *testing.T) {
	cards := []models.ScoreCardDetail{
		scoreDetail("Expressive Language", "March", 1, 2),
		scoreDetail("Expressive Language", "March", 1, 4),
		scoreDetail("Expressive Language", "March", 2, 5),
	}

	rows, overall := aggregateScores(cards)
	require.Len(t, rows, 2)
	assert.Equal(t, 2, rows[0].Entries)
	assert.InDelta(t, 3.0, rows[0].Average, 0.001)
	assert.Equal(t, 1, rows[1].Entries)
	assert.InDelta(t, 5.0, rows[1].Average, 0.001)
	assert.InDelta(t, 11.0/3.0, overall, 0.001)
}

func TestAggregateScoresEmpty(t *testing.T) {
	rows, overall := aggregateScores(nil)
	assert.Empty(t, rows)
	assert.Zero(t, overall)
}

func TestReportLifecycle(t *testing.T) {
	repo := newFakeReportJobRepo()
	svc, queue := newTestReportService(t, repo, []models.ScoreCardDetail{
		scoreDetail("Expressive Language", "March", 1, 3),
	})

	job, err := svc.Request(context.Background(), "s1", "e1")
	require.NoError(t, err)
	assert.Equal(t, models.ReportJobStatusQueued, job.Status)
	require.Len(t, queue.enqueued, 1)
	assert.Equal(t, JobTypeProgressReport, queue.enqueued[0].Type)

	require.NoError(t, svc.Handle(context.Background(), queue.enqueued[0]))
	stored := repo.jobs[job.ID]
	assert.Equal(t, models.ReportJobStatusCompleted, stored.Status)
	require.NotNil(t, stored.FilePath)

	status, err := svc.Status(context.Background(), job.ID)
	require.NoError(t, err)
	require.NotEmpty(t, status.DownloadToken)

	file, filename, err := svc.Download(context.Background(), status.DownloadToken)
	require.NoError(t, err)
	defer file.Close()
	assert.Contains(t, filename, "s1")

	header := make([]byte, 4)
	_, err = file.Read(header)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(header))
}

func TestReportRequestUnknownStudent(t *testing.T) {
	repo := newFakeReportJobRepo()
	svc, _ := newTestReportService(t, repo, nil)
	svc.students = &fakeReportStudentReader{}

	_, err := svc.Request(context.Background(), "ghost", "e1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestReportDownloadRejectsTamperedToken(t *testing.T) {
	repo := newFakeReportJobRepo()
	svc, queue := newTestReportService(t, repo, []models.ScoreCardDetail{
		scoreDetail("Expressive Language", "March", 1, 3),
	})

	job, err := svc.Request(context.Background(), "s1", "e1")
	require.NoError(t, err)
	require.NoError(t, svc.Handle(context.Background(), queue.enqueued[0]))

	status, err := svc.Status(context.Background(), job.ID)
	require.NoError(t, err)

	_, _, err = svc.Download(context.Background(), status.DownloadToken+"x")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestReportStatusPendingHasNoToken(t *testing.T) {
	repo := newFakeReportJobRepo()
	svc, _ := newTestReportService(t, repo, nil)

	job, err := svc.Request(context.Background(), "s1", "e1")
	require.NoError(t, err)

	status, err := svc.Status(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Empty(t, status.DownloadToken)
	assert.Nil(t, status.ExpiresAt)
}
