package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"

	"github.com/acadops/defense-scheduler-api/internal/dto"
	"github.com/acadops/defense-scheduler-api/internal/models"
	appErrors "github.com/acadops/defense-scheduler-api/pkg/errors"
)

type pipelineRunner interface {
	Run(ctx context.Context, input models.ProblemInput, engines []string) (*models.ResultBundle, error)
}

type runRepository interface {
	Create(ctx context.Context, exec sqlx.ExtContext, run *models.SolverRun) error
	FindByID(ctx context.Context, id string) (*models.SolverRun, error)
	List(ctx context.Context, status string, page, pageSize int) ([]models.SolverRun, int, error)
}

type entryRepository interface {
	BulkInsert(ctx context.Context, exec sqlx.ExtContext, runID string, entries []models.ScheduleEntry) error
	ListByRun(ctx context.Context, runID string) ([]models.ScheduleEntry, error)
}

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

type resultCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// SolverService runs the scheduling pipeline and persists the outcome.
type SolverService struct {
	pipeline  pipelineRunner
	runs      runRepository
	entries   entryRepository
	tx        txProvider
	cache     resultCache
	cacheTTL  time.Duration
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSolverService constructs a SolverService instance.
func NewSolverService(
	pipeline pipelineRunner,
	runs runRepository,
	entries entryRepository,
	tx txProvider,
	cache resultCache,
	cacheTTL time.Duration,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
) *SolverService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 30 * time.Minute
	}
	return &SolverService{
		pipeline:  pipeline,
		runs:      runs,
		entries:   entries,
		tx:        tx,
		cache:     cache,
		cacheTTL:  cacheTTL,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
	}
}

func cacheKey(runID string) string {
	return "defense:run:" + runID
}

// Solve validates the problem input, runs the pipeline and stores the run
// with its schedule entries in one transaction. The run is persisted for
// every completed pipeline, including infeasible and unsolved ones.
func (s *SolverService) Solve(ctx context.Context, req dto.SolveRequest, requestedBy string) (*dto.SolveResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid solve payload")
	}

	started := time.Now()
	bundle, err := s.pipeline.Run(ctx, req.Input(), req.Engines)
	if err != nil {
		return nil, err
	}
	elapsed := time.Since(started)

	status := runStatus(bundle)
	s.metrics.ObserveSolve(bundle.Engine, string(status), elapsed)

	run := &models.SolverRun{
		ID:          uuid.NewString(),
		RequestedBy: requestedBy,
		Engine:      bundle.Engine,
		Status:      status,
		Stage:       bundle.State,
		Success:     bundle.Success,
	}
	if run.Meta, err = runMeta(bundle, req, elapsed); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode run metadata")
	}
	if len(bundle.Findings) > 0 {
		if run.Findings, err = json.Marshal(bundle.Findings); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode findings")
		}
	}

	if err := s.persist(ctx, run, bundle.Entries); err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey(run.ID), bundle, s.cacheTTL); err != nil {
			s.logger.Warn("result cache set failed", zap.String("run_id", run.ID), zap.Error(err))
		}
	}

	s.logger.Info("solve completed",
		zap.String("run_id", run.ID),
		zap.String("status", string(status)),
		zap.String("engine", bundle.Engine),
		zap.Duration("elapsed", elapsed),
	)
	return &dto.SolveResponse{RunID: run.ID, Status: status, Result: bundle}, nil
}

func (s *SolverService) persist(ctx context.Context, run *models.SolverRun, entries []models.ScheduleEntry) error {
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open transaction")
	}

	if err := s.runs.Create(ctx, tx, run); err != nil {
		_ = tx.Rollback()
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store run")
	}
	if err := s.entries.BulkInsert(ctx, tx, run.ID, entries); err != nil {
		_ = tx.Rollback()
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store schedule entries")
	}
	if err := tx.Commit(); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit run")
	}
	return nil
}

// GetRun loads one stored run with its schedule entries, consulting the
// result cache for the full bundle first.
func (s *SolverService) GetRun(ctx context.Context, id string) (*dto.RunDetail, error) {
	run, err := s.runs.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("run %s not found", id))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load run")
	}

	detail := &dto.RunDetail{Run: *run}

	if s.cache != nil {
		var bundle models.ResultBundle
		if err := s.cache.Get(ctx, cacheKey(id), &bundle); err == nil {
			s.metrics.CacheHit()
			detail.Entries = bundle.Entries
			return detail, nil
		}
		s.metrics.CacheMiss()
	}

	entries, err := s.entries.ListByRun(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule entries")
	}
	detail.Entries = entries
	return detail, nil
}

// ListRuns returns stored runs newest first.
func (s *SolverService) ListRuns(ctx context.Context, query dto.RunQuery) ([]models.SolverRun, *models.Pagination, error) {
	if query.Page < 1 {
		query.Page = 1
	}
	if query.PageSize < 1 || query.PageSize > 100 {
		query.PageSize = 20
	}

	runs, total, err := s.runs.List(ctx, query.Status, query.Page, query.PageSize)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list runs")
	}
	return runs, &models.Pagination{Page: query.Page, PageSize: query.PageSize, TotalCount: total}, nil
}

func runStatus(bundle *models.ResultBundle) models.RunStatus {
	if bundle.Success {
		return models.RunStatusSucceeded
	}
	if bundle.AssignmentStatus == "NOT_SOLVED" || bundle.ScheduleStatus == "NOT_SOLVED" {
		return models.RunStatusNotSolved
	}
	return models.RunStatusInfeasible
}

func runMeta(bundle *models.ResultBundle, req dto.SolveRequest, elapsed time.Duration) (types.JSONText, error) {
	meta := map[string]interface{}{
		"projects":             len(req.Projects),
		"panelists":            len(req.Panelists),
		"slots":                len(req.Slots),
		"assignment_status":    bundle.AssignmentStatus,
		"schedule_status":      bundle.ScheduleStatus,
		"max_concurrent_rooms": bundle.MaxConcurrentRooms,
		"elapsed_ms":           elapsed.Milliseconds(),
	}
	raw, err := json.Marshal(meta)
	if err != nil {
		return nil, err
	}
	return types.JSONText(raw), nil
}
