package scheduler

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acadops/defense-scheduler-api/internal/models"
	"github.com/acadops/defense-scheduler-api/internal/solver"
	appErrors "github.com/acadops/defense-scheduler-api/pkg/errors"
)

func newTestEngine(t *testing.T) solver.Engine {
	t.Helper()
	engine, err := solver.New(nil)
	require.NoError(t, err)
	return engine
}

func panelOf(assignments []models.PanelAssignment, projectID string) []string {
	var panel []string
	for _, a := range assignments {
		if a.ProjectID == projectID {
			panel = append(panel, a.PanelistID)
		}
	}
	return panel
}

func TestAssignPanelsExactCountAndExpertise(t *testing.T) {
	projects := []models.Project{
		{ID: "prj-1", Topic: "ai", SupervisorID: "sup-1", RequiredPanelists: 2},
		{ID: "prj-2", Topic: "iot", SupervisorID: "sup-2", RequiredPanelists: 2},
	}
	panelists := []models.Panelist{
		{ID: "lect-1", MaxPanels: 2},
		{ID: "lect-2", MaxPanels: 2},
		{ID: "lect-3", MaxPanels: 2},
	}
	expertise := models.ExpertiseMatrix{
		"lect-1": {"ai": true, "iot": true},
		"lect-2": {"ai": true},
		"lect-3": {"iot": true},
	}

	assignments, status, err := AssignPanels(context.Background(), newTestEngine(t), projects, panelists, expertise)
	require.NoError(t, err)
	require.True(t, status.Solved())

	// Expertise forces both panels: ai has only lect-1/lect-2, iot only
	// lect-1/lect-3.
	assert.ElementsMatch(t, []string{"lect-1", "lect-2"}, panelOf(assignments, "prj-1"))
	assert.ElementsMatch(t, []string{"lect-1", "lect-3"}, panelOf(assignments, "prj-2"))
}

func TestAssignPanelsExcludesSupervisor(t *testing.T) {
	projects := []models.Project{
		{ID: "prj-1", Topic: "ai", SupervisorID: "lect-1", RequiredPanelists: 1},
	}
	panelists := []models.Panelist{
		{ID: "lect-1", MaxPanels: 3},
		{ID: "lect-2", MaxPanels: 3},
	}
	expertise := models.ExpertiseMatrix{
		"lect-1": {"ai": true},
		"lect-2": {"ai": true},
	}

	assignments, status, err := AssignPanels(context.Background(), newTestEngine(t), projects, panelists, expertise)
	require.NoError(t, err)
	require.True(t, status.Solved())
	assert.Equal(t, []string{"lect-2"}, panelOf(assignments, "prj-1"))
}

func TestAssignPanelsCapacityInfeasible(t *testing.T) {
	projects := []models.Project{
		{ID: "prj-1", Topic: "ai", SupervisorID: "sup-1", RequiredPanelists: 1},
		{ID: "prj-2", Topic: "ai", SupervisorID: "sup-2", RequiredPanelists: 1},
	}
	panelists := []models.Panelist{
		{ID: "lect-1", MaxPanels: 1},
	}
	expertise := models.ExpertiseMatrix{
		"lect-1": {"ai": true},
	}

	assignments, status, err := AssignPanels(context.Background(), newTestEngine(t), projects, panelists, expertise)
	require.NoError(t, err)
	assert.Equal(t, solver.StatusInfeasible, status)
	assert.Empty(t, assignments)
}

func TestAssignPanelsNoEligiblePanelistInfeasible(t *testing.T) {
	projects := []models.Project{
		{ID: "prj-1", Topic: "ai", SupervisorID: "lect-1", RequiredPanelists: 1},
	}
	panelists := []models.Panelist{
		{ID: "lect-1", MaxPanels: 3},
		{ID: "lect-2", MaxPanels: 3},
	}
	// Only the supervisor knows the topic; lect-2 has an explicit false.
	expertise := models.ExpertiseMatrix{
		"lect-1": {"ai": true},
		"lect-2": {"ai": false},
	}

	_, status, err := AssignPanels(context.Background(), newTestEngine(t), projects, panelists, expertise)
	require.NoError(t, err)
	assert.Equal(t, solver.StatusInfeasible, status)
}

func TestAssignPanelsRequiredBelowOne(t *testing.T) {
	projects := []models.Project{
		{ID: "prj-1", Topic: "ai", RequiredPanelists: 0},
	}
	expertise := models.ExpertiseMatrix{"lect-1": {"ai": true}}

	_, status, err := AssignPanels(context.Background(), newTestEngine(t), projects, nil, expertise)
	require.Error(t, err)
	assert.Equal(t, solver.StatusNotSolved, status)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErr.Code)
}

func TestAssignPanelsUnknownTopic(t *testing.T) {
	projects := []models.Project{
		{ID: "prj-1", Topic: "quantum", RequiredPanelists: 1},
	}
	expertise := models.ExpertiseMatrix{"lect-1": {"ai": true}}

	_, _, err := AssignPanels(context.Background(), newTestEngine(t), projects, nil, expertise)
	require.Error(t, err)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "quantum")
}

func TestAssignPanelsDeterministic(t *testing.T) {
	projects := []models.Project{
		{ID: "prj-1", Topic: "ai", SupervisorID: "sup-1", RequiredPanelists: 2},
	}
	panelists := []models.Panelist{
		{ID: "lect-1", MaxPanels: 2},
		{ID: "lect-2", MaxPanels: 2},
		{ID: "lect-3", MaxPanels: 2},
	}
	expertise := models.ExpertiseMatrix{
		"lect-1": {"ai": true},
		"lect-2": {"ai": true},
		"lect-3": {"ai": true},
	}

	first, status, err := AssignPanels(context.Background(), newTestEngine(t), projects, panelists, expertise)
	require.NoError(t, err)
	require.True(t, status.Solved())
	for i := 0; i < 3; i++ {
		again, _, err := AssignPanels(context.Background(), newTestEngine(t), projects, panelists, expertise)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}
