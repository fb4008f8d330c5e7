package scheduler

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/acadops/defense-scheduler-api/internal/models"
	"github.com/acadops/defense-scheduler-api/internal/solver"
	appErrors "github.com/acadops/defense-scheduler-api/pkg/errors"
)

func feasibleInput() models.ProblemInput {
	slots := halfHourSlots()
	return models.ProblemInput{
		Projects: []models.Project{
			{ID: "prj-1", Topic: "ai", SupervisorID: "sup-1", RequiredPanelists: 2},
			{ID: "prj-2", Topic: "iot", SupervisorID: "sup-2", RequiredPanelists: 2},
		},
		Panelists: []models.Panelist{
			{ID: "lect-1", MaxPanels: 2},
			{ID: "lect-2", MaxPanels: 2},
			{ID: "lect-3", MaxPanels: 2},
		},
		Expertise: models.ExpertiseMatrix{
			"lect-1": {"ai": true, "iot": true},
			"lect-2": {"ai": true},
			"lect-3": {"iot": true},
		},
		Slots:        slots,
		Availability: fullAvailability([]string{"lect-1", "lect-2", "lect-3"}, slots),
	}
}

func TestPipelineRunSuccess(t *testing.T) {
	pipeline := NewPipeline(nil, Options{}, zap.NewNop())

	bundle, err := pipeline.Run(context.Background(), feasibleInput(), nil)
	require.NoError(t, err)
	require.NotNil(t, bundle)

	assert.True(t, bundle.Success)
	assert.Equal(t, models.StateRoomsAssigned, bundle.State)
	assert.Equal(t, "propagation", bundle.Engine)
	assert.Equal(t, "OPTIMAL", bundle.AssignmentStatus)
	assert.Equal(t, "OPTIMAL", bundle.ScheduleStatus)
	assert.Empty(t, bundle.Findings)

	assert.Equal(t, models.TopicGroups{
		"ai":  {"lect-1", "lect-2"},
		"iot": {"lect-1", "lect-3"},
	}, bundle.TopicGroups)

	require.Len(t, bundle.Entries, 2)
	assert.NotEqual(t, bundle.Entries[0].SlotID, bundle.Entries[1].SlotID)
	for _, entry := range bundle.Entries {
		assert.Equal(t, "R1", entry.Room)
		assert.NotEmpty(t, entry.Panelists)
	}
	assert.Equal(t, 1, bundle.MaxConcurrentRooms)
}

func TestPipelineRunAssignmentInfeasible(t *testing.T) {
	input := feasibleInput()
	// Strip everyone's iot expertise so prj-2 has no eligible pool.
	input.Expertise = models.ExpertiseMatrix{
		"lect-1": {"ai": true, "iot": false},
		"lect-2": {"ai": true, "iot": false},
		"lect-3": {"ai": true, "iot": false},
	}

	pipeline := NewPipeline(nil, Options{}, zap.NewNop())
	bundle, err := pipeline.Run(context.Background(), input, nil)
	require.NoError(t, err)
	require.NotNil(t, bundle)

	assert.False(t, bundle.Success)
	assert.Equal(t, models.StateFailed, bundle.State)
	assert.Equal(t, "INFEASIBLE", bundle.AssignmentStatus)
	assert.Empty(t, bundle.Entries)

	assert.NotEmpty(t, findingsOfKind(bundle.Findings, models.FindingNoEligiblePanelists))
	identity := findingsOfKind(bundle.Findings, models.FindingEngineIdentity)
	require.Len(t, identity, 1)
	assert.Equal(t, []string{"propagation"}, identity[0].EntityIDs)
}

func TestPipelineRunScheduleInfeasible(t *testing.T) {
	input := feasibleInput()
	// Feasible panels, but only a single slot for two defenses sharing lect-1.
	input.Slots = input.Slots[:1]
	input.Availability = fullAvailability([]string{"lect-1", "lect-2", "lect-3"}, input.Slots)

	pipeline := NewPipeline(nil, Options{}, zap.NewNop())
	bundle, err := pipeline.Run(context.Background(), input, nil)
	require.NoError(t, err)

	assert.False(t, bundle.Success)
	assert.Equal(t, models.StateFailed, bundle.State)
	assert.Equal(t, "OPTIMAL", bundle.AssignmentStatus)
	assert.Equal(t, "INFEASIBLE", bundle.ScheduleStatus)
	assert.NotEmpty(t, bundle.Assignments)
	assert.NotEmpty(t, findingsOfKind(bundle.Findings, models.FindingInsufficientSlots))
}

func TestPipelineRunPreconditionViolation(t *testing.T) {
	input := feasibleInput()
	input.Projects[0].Topic = "quantum"

	pipeline := NewPipeline(nil, Options{}, zap.NewNop())
	_, err := pipeline.Run(context.Background(), input, nil)
	require.Error(t, err)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErr.Code)
}

func TestPipelineRunEngineOverride(t *testing.T) {
	pipeline := NewPipeline([]string{"propagation"}, Options{}, zap.NewNop())

	bundle, err := pipeline.Run(context.Background(), feasibleInput(), []string{"enumeration"})
	require.NoError(t, err)
	assert.True(t, bundle.Success)
	assert.Equal(t, "enumeration", bundle.Engine)
}

func TestPipelineRunEngineOverrideUnavailable(t *testing.T) {
	// A bad override fails the run even though the configured order is fine.
	pipeline := NewPipeline([]string{"propagation"}, Options{}, zap.NewNop())

	_, err := pipeline.Run(context.Background(), feasibleInput(), []string{"scip"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, solver.ErrUnavailable))
}

func TestPipelineRunBackendUnavailable(t *testing.T) {
	pipeline := NewPipeline([]string{"scip", "cbc"}, Options{}, zap.NewNop())

	_, err := pipeline.Run(context.Background(), feasibleInput(), nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, solver.ErrUnavailable))

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrBackendUnavailable.Code, appErr.Code)
}
