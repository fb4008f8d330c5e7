package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/acadops/defense-scheduler-api/internal/models"
	appErrors "github.com/acadops/defense-scheduler-api/pkg/errors"
	"github.com/acadops/defense-scheduler-api/pkg/export"
)

type exportStorage interface {
	Save(filename string, data []byte) (string, error)
}

type runReader interface {
	FindByID(ctx context.Context, id string) (*models.SolverRun, error)
}

type entryReader interface {
	ListByRun(ctx context.Context, runID string) ([]models.ScheduleEntry, error)
}

// ExportArtifact is one rendered schedule document.
type ExportArtifact struct {
	Filename    string
	ContentType string
	Content     []byte
}

// ExportService renders stored defense schedules as CSV or PDF documents.
type ExportService struct {
	runs    runReader
	entries entryReader
	csv     *export.CSVExporter
	pdf     *export.PDFExporter
	storage exportStorage
	logger  *zap.Logger
}

// NewExportService constructs an ExportService instance.
func NewExportService(runs runReader, entries entryReader, storage exportStorage, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		runs:    runs,
		entries: entries,
		csv:     export.NewCSVExporter(),
		pdf:     export.NewPDFExporter(),
		storage: storage,
		logger:  logger,
	}
}

var exportHeaders = []string{"Project", "Topic", "Date", "Time", "Room", "Panelists"}

// Export renders the schedule of one successful run. The format is "csv" or
// "pdf"; anything else is a validation error.
func (s *ExportService) Export(ctx context.Context, runID, format string) (*ExportArtifact, error) {
	run, err := s.runs.FindByID(ctx, runID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("run %s not found", runID))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load run")
	}
	if !run.Success {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed,
			fmt.Sprintf("run %s produced no schedule (status %s)", runID, run.Status))
	}

	entries, err := s.entries.ListByRun(ctx, runID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule entries")
	}

	dataset := export.Dataset{Headers: exportHeaders, Rows: make([]map[string]string, len(entries))}
	for i, entry := range entries {
		dataset.Rows[i] = map[string]string{
			"Project":   entry.ProjectID,
			"Topic":     entry.Topic,
			"Date":      entry.DefenseDate,
			"Time":      entry.TimeRange,
			"Room":      entry.Room,
			"Panelists": entry.Panelists,
		}
	}

	artifact := &ExportArtifact{}
	switch format {
	case "csv", "":
		artifact.Filename = fmt.Sprintf("defense-schedule-%s.csv", runID)
		artifact.ContentType = "text/csv"
		artifact.Content, err = s.csv.Render(dataset)
	case "pdf":
		artifact.Filename = fmt.Sprintf("defense-schedule-%s.pdf", runID)
		artifact.ContentType = "application/pdf"
		artifact.Content, err = s.pdf.Render(dataset, "Capstone Defense Schedule")
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	if s.storage != nil {
		if _, err := s.storage.Save(artifact.Filename, artifact.Content); err != nil {
			s.logger.Warn("export archive failed", zap.String("run_id", runID), zap.Error(err))
		}
	}
	return artifact, nil
}
