package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/acadops/defense-scheduler-api/internal/models"
	appErrors "github.com/acadops/defense-scheduler-api/pkg/errors"
)

type stubStorage struct {
	saved map[string][]byte
	err   error
}

func (s *stubStorage) Save(filename string, data []byte) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	if s.saved == nil {
		s.saved = make(map[string][]byte)
	}
	s.saved[filename] = data
	return filename, nil
}

func exportFixture(run *models.SolverRun, entries []models.ScheduleEntry) (*ExportService, *stubStorage) {
	storage := &stubStorage{}
	runs := &stubRunRepo{found: run}
	entryRepo := &stubEntryRepo{listed: entries}
	return NewExportService(runs, entryRepo, storage, zap.NewNop()), storage
}

func successfulRun() *models.SolverRun {
	return &models.SolverRun{ID: "run-1", Status: models.RunStatusSucceeded, Success: true}
}

func scheduleEntries() []models.ScheduleEntry {
	return []models.ScheduleEntry{
		{ProjectID: "prj-1", Topic: "ai", DefenseDate: "2026-01-12", TimeRange: "09:00-09:30", Room: "R1", Panelists: "lect-1, lect-2"},
		{ProjectID: "prj-2", Topic: "iot", DefenseDate: "2026-01-12", TimeRange: "10:00-10:30", Room: "R1", Panelists: "lect-1, lect-3"},
	}
}

func TestExportServiceCSV(t *testing.T) {
	svc, storage := exportFixture(successfulRun(), scheduleEntries())

	artifact, err := svc.Export(context.Background(), "run-1", "csv")
	require.NoError(t, err)

	assert.Equal(t, "defense-schedule-run-1.csv", artifact.Filename)
	assert.Equal(t, "text/csv", artifact.ContentType)
	assert.Contains(t, string(artifact.Content), "Project,Topic,Date,Time,Room,Panelists")
	assert.Contains(t, string(artifact.Content), "prj-1,ai,2026-01-12,09:00-09:30,R1")
	assert.Contains(t, storage.saved, artifact.Filename)
}

func TestExportServiceDefaultsToCSV(t *testing.T) {
	svc, _ := exportFixture(successfulRun(), scheduleEntries())

	artifact, err := svc.Export(context.Background(), "run-1", "")
	require.NoError(t, err)
	assert.Equal(t, "text/csv", artifact.ContentType)
}

func TestExportServicePDF(t *testing.T) {
	svc, _ := exportFixture(successfulRun(), scheduleEntries())

	artifact, err := svc.Export(context.Background(), "run-1", "pdf")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", artifact.ContentType)
	assert.True(t, bytes.HasPrefix(artifact.Content, []byte("%PDF")))
}

func TestExportServiceUnsupportedFormat(t *testing.T) {
	svc, _ := exportFixture(successfulRun(), scheduleEntries())

	_, err := svc.Export(context.Background(), "run-1", "xlsx")
	require.Error(t, err)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestExportServiceRunNotFound(t *testing.T) {
	storage := &stubStorage{}
	svc := NewExportService(&stubRunRepo{findErr: sql.ErrNoRows}, &stubEntryRepo{}, storage, zap.NewNop())

	_, err := svc.Export(context.Background(), "missing", "csv")
	require.Error(t, err)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestExportServiceFailedRunHasNoSchedule(t *testing.T) {
	run := &models.SolverRun{ID: "run-2", Status: models.RunStatusInfeasible, Success: false}
	svc, _ := exportFixture(run, nil)

	_, err := svc.Export(context.Background(), "run-2", "csv")
	require.Error(t, err)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErr.Code)
}

func TestExportServiceStorageFailureIsBestEffort(t *testing.T) {
	storage := &stubStorage{err: errors.New("disk full")}
	runs := &stubRunRepo{found: successfulRun()}
	svc := NewExportService(runs, &stubEntryRepo{listed: scheduleEntries()}, storage, zap.NewNop())

	artifact, err := svc.Export(context.Background(), "run-1", "csv")
	require.NoError(t, err)
	assert.NotEmpty(t, artifact.Content)
}
