package scheduler

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/acadops/defense-scheduler-api/internal/models"
	"github.com/acadops/defense-scheduler-api/internal/solver"
	appErrors "github.com/acadops/defense-scheduler-api/pkg/errors"
)

// Pipeline drives a full run: topic indexing, panel assignment, slot
// scheduling and room allocation. Each solving stage gets a fresh engine
// because engines are single-use.
type Pipeline struct {
	engines []string
	opts    Options
	logger  *zap.Logger
}

// NewPipeline wires a pipeline over the named backend preference order. An
// empty list falls back to the solver package default.
func NewPipeline(engines []string, opts Options, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{engines: engines, opts: opts, logger: logger}
}

// Run executes the pipeline over one immutable problem input. A non-empty
// engines list overrides the configured backend preference order for this
// run only.
//
// A completed run always returns a bundle: on success it carries the room-
// allocated schedule, on an infeasible or unsolved model it carries the
// failure stage, the solver statuses and the diagnostics findings. An error
// is returned only when the pipeline could not run at all, i.e. a
// precondition violation or no constructible backend.
func (p *Pipeline) Run(ctx context.Context, input models.ProblemInput, engines []string) (*models.ResultBundle, error) {
	started := time.Now()
	bundle := &models.ResultBundle{State: models.StateStart}

	bundle.TopicGroups = BuildTopicGroups(input.Panelists, input.Expertise)
	bundle.State = models.StateTopicsIndexed
	p.logger.Info("topic index built",
		zap.Int("topics", len(bundle.TopicGroups)),
		zap.Int("panelists", len(input.Panelists)),
	)

	engine, err := p.newEngine(engines)
	if err != nil {
		return nil, err
	}
	bundle.Engine = engine.Name()

	assignments, assignStatus, err := AssignPanels(ctx, engine, input.Projects, input.Panelists, input.Expertise)
	bundle.AssignmentStatus = assignStatus.String()
	if err != nil {
		return nil, err
	}
	if !assignStatus.Solved() {
		p.logger.Warn("panel assignment failed",
			zap.String("status", assignStatus.String()),
			zap.String("engine", bundle.Engine),
		)
		bundle.State = models.StateFailed
		bundle.Findings = p.withEngineFinding(
			DiagnoseAssignment(input.Projects, input.Panelists, input.Expertise), engine)
		return bundle, nil
	}
	bundle.Assignments = assignments
	bundle.State = models.StatePanelsAssigned
	p.logger.Info("panels assigned",
		zap.Int("assignments", len(assignments)),
		zap.String("status", assignStatus.String()),
	)

	engine, err = p.newEngine(engines)
	if err != nil {
		return nil, err
	}
	entries, schedStatus, err := ScheduleDefenses(ctx, engine, input.Projects, assignments, input.Slots, input.Availability, p.opts)
	bundle.ScheduleStatus = schedStatus.String()
	if err != nil {
		return nil, err
	}
	if !schedStatus.Solved() {
		p.logger.Warn("slot scheduling failed",
			zap.String("status", schedStatus.String()),
			zap.String("engine", bundle.Engine),
		)
		bundle.State = models.StateFailed
		bundle.Findings = p.withEngineFinding(
			DiagnoseSchedule(input.Projects, assignments, input.Slots, input.Availability), engine)
		return bundle, nil
	}
	bundle.State = models.StateScheduled

	bundle.Entries, bundle.MaxConcurrentRooms = AssignRooms(entries)
	bundle.State = models.StateRoomsAssigned
	bundle.Success = true
	p.logger.Info("pipeline finished",
		zap.Int("defenses", len(bundle.Entries)),
		zap.Int("max_concurrent_rooms", bundle.MaxConcurrentRooms),
		zap.String("engine", bundle.Engine),
		zap.Duration("elapsed", time.Since(started)),
	)
	return bundle, nil
}

func (p *Pipeline) newEngine(override []string) (solver.Engine, error) {
	names := p.engines
	if len(override) > 0 {
		names = override
	}
	engine, err := solver.New(names)
	if err != nil {
		unavailable := appErrors.ErrBackendUnavailable
		return nil, appErrors.Wrap(err, unavailable.Code, unavailable.Status, unavailable.Message)
	}
	return engine, nil
}

func (p *Pipeline) withEngineFinding(findings []models.Finding, engine solver.Engine) []models.Finding {
	return append(findings, models.Finding{
		Kind:      models.FindingEngineIdentity,
		EntityIDs: []string{engine.Name()},
		Message:   fmt.Sprintf("model solved with the %s backend", engine.Name()),
	})
}
