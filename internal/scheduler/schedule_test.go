package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acadops/defense-scheduler-api/internal/models"
	"github.com/acadops/defense-scheduler-api/internal/solver"
	appErrors "github.com/acadops/defense-scheduler-api/pkg/errors"
)

// stubEngine records model construction and returns a canned status.
type stubEngine struct {
	status      solver.Status
	vars        int
	constraints int
	timeLimit   time.Duration
}

func (s *stubEngine) NewBoolVar(string) solver.Var {
	s.vars++
	return solver.Var(s.vars - 1)
}

func (s *stubEngine) AddConstraint(*solver.LinearExpr, solver.Relation, int) { s.constraints++ }
func (s *stubEngine) SetTimeLimit(d time.Duration)                           { s.timeLimit = d }
func (s *stubEngine) Solve(context.Context) solver.Status                    { return s.status }
func (s *stubEngine) Value(solver.Var) int                                   { return 0 }
func (s *stubEngine) Name() string                                           { return "stub" }

func fullAvailability(panelists []string, slots []models.TimeSlot) models.AvailabilityMatrix {
	availability := make(models.AvailabilityMatrix, len(panelists))
	for _, panelist := range panelists {
		row := make(map[string]bool, len(slots))
		for _, slot := range slots {
			row[slot.ID] = true
		}
		availability[panelist] = row
	}
	return availability
}

func halfHourSlots() []models.TimeSlot {
	return []models.TimeSlot{
		{ID: "slot-1", Date: "2026-01-12", TimeRange: "09:00-09:30"},
		{ID: "slot-2", Date: "2026-01-12", TimeRange: "09:30-10:00"},
		{ID: "slot-3", Date: "2026-01-12", TimeRange: "10:00-10:30"},
	}
}

func TestScheduleDefensesRespectsAvailability(t *testing.T) {
	projects := []models.Project{{ID: "prj-1", Topic: "ai", RequiredPanelists: 1}}
	assignments := []models.PanelAssignment{{ProjectID: "prj-1", PanelistID: "lect-1"}}
	slots := []models.TimeSlot{
		{ID: "slot-1", Date: "2026-01-12", TimeRange: "09:00-10:00"},
		{ID: "slot-2", Date: "2026-01-12", TimeRange: "10:00-11:00"},
	}
	availability := models.AvailabilityMatrix{
		"lect-1": {"slot-1": false, "slot-2": true},
	}

	entries, status, err := ScheduleDefenses(context.Background(), newTestEngine(t), projects, assignments, slots, availability, Options{})
	require.NoError(t, err)
	require.True(t, status.Solved())
	require.Len(t, entries, 1)
	assert.Equal(t, "slot-2", entries[0].SlotID)
	assert.Equal(t, "2026-01-12", entries[0].DefenseDate)
	assert.Equal(t, "10:00-11:00", entries[0].TimeRange)
	assert.Equal(t, "lect-1", entries[0].Panelists)
}

func TestScheduleDefensesNoDoubleBooking(t *testing.T) {
	projects := []models.Project{
		{ID: "prj-1", Topic: "ai", RequiredPanelists: 1},
		{ID: "prj-2", Topic: "ai", RequiredPanelists: 1},
	}
	assignments := []models.PanelAssignment{
		{ProjectID: "prj-1", PanelistID: "lect-1"},
		{ProjectID: "prj-2", PanelistID: "lect-1"},
	}
	slots := []models.TimeSlot{
		{ID: "slot-1", Date: "2026-01-12", TimeRange: "09:00-10:00"},
		{ID: "slot-2", Date: "2026-01-12", TimeRange: "10:00-11:00"},
	}

	entries, status, err := ScheduleDefenses(context.Background(), newTestEngine(t), projects, assignments, slots, fullAvailability([]string{"lect-1"}, slots), Options{})
	require.NoError(t, err)
	require.True(t, status.Solved())
	require.Len(t, entries, 2)
	assert.NotEqual(t, entries[0].SlotID, entries[1].SlotID)
}

func TestScheduleDefensesConsecutiveSlotExclusion(t *testing.T) {
	projects := []models.Project{
		{ID: "prj-1", Topic: "ai", RequiredPanelists: 1},
		{ID: "prj-2", Topic: "ai", RequiredPanelists: 1},
	}
	assignments := []models.PanelAssignment{
		{ProjectID: "prj-1", PanelistID: "lect-1"},
		{ProjectID: "prj-2", PanelistID: "lect-1"},
	}
	slots := halfHourSlots()

	entries, status, err := ScheduleDefenses(context.Background(), newTestEngine(t), projects, assignments, slots, fullAvailability([]string{"lect-1"}, slots), Options{})
	require.NoError(t, err)
	require.True(t, status.Solved())
	require.Len(t, entries, 2)

	// On a half-hour grid the shared panelist's two defenses must leave a
	// gap: slot-1 and slot-3 is the only legal pair.
	got := []string{entries[0].SlotID, entries[1].SlotID}
	assert.ElementsMatch(t, []string{"slot-1", "slot-3"}, got)
}

func TestScheduleDefensesCoarseGridSkipsConsecutiveRule(t *testing.T) {
	projects := []models.Project{
		{ID: "prj-1", Topic: "ai", RequiredPanelists: 1},
		{ID: "prj-2", Topic: "ai", RequiredPanelists: 1},
	}
	assignments := []models.PanelAssignment{
		{ProjectID: "prj-1", PanelistID: "lect-1"},
		{ProjectID: "prj-2", PanelistID: "lect-1"},
	}
	// `HH-HH` ranges do not parse, so only exact-once and double-booking
	// apply and two adjacent hours are fine.
	slots := []models.TimeSlot{
		{ID: "slot-1", Date: "2026-01-12", TimeRange: "09-10"},
		{ID: "slot-2", Date: "2026-01-12", TimeRange: "10-11"},
	}

	entries, status, err := ScheduleDefenses(context.Background(), newTestEngine(t), projects, assignments, slots, fullAvailability([]string{"lect-1"}, slots), Options{})
	require.NoError(t, err)
	require.True(t, status.Solved())
	assert.Len(t, entries, 2)
}

func TestScheduleDefensesDisjointPanelsShareSlot(t *testing.T) {
	projects := []models.Project{
		{ID: "prj-1", Topic: "ai", RequiredPanelists: 1},
		{ID: "prj-2", Topic: "iot", RequiredPanelists: 1},
	}
	assignments := []models.PanelAssignment{
		{ProjectID: "prj-1", PanelistID: "lect-1"},
		{ProjectID: "prj-2", PanelistID: "lect-2"},
	}
	slots := []models.TimeSlot{
		{ID: "slot-1", Date: "2026-01-12", TimeRange: "09:00-09:30"},
		{ID: "slot-2", Date: "2026-01-12", TimeRange: "09:30-10:00"},
	}
	// Both panels are free in slot-1 only, so the defenses must run in
	// parallel: legal because the panels share no panelist.
	availability := models.AvailabilityMatrix{
		"lect-1": {"slot-1": true, "slot-2": false},
		"lect-2": {"slot-1": true, "slot-2": false},
	}

	entries, status, err := ScheduleDefenses(context.Background(), newTestEngine(t), projects, assignments, slots, availability, Options{})
	require.NoError(t, err)
	require.True(t, status.Solved())
	require.Len(t, entries, 2)
	assert.Equal(t, "slot-1", entries[0].SlotID)
	assert.Equal(t, "slot-1", entries[1].SlotID)

	allocated, maxConcurrent := AssignRooms(entries)
	assert.Equal(t, 2, maxConcurrent)
	assert.ElementsMatch(t, []string{"R1", "R2"}, []string{allocated[0].Room, allocated[1].Room})
}

func TestScheduleDefensesInfeasibleWhenSlotsRunOut(t *testing.T) {
	projects := []models.Project{
		{ID: "prj-1", Topic: "ai", RequiredPanelists: 1},
		{ID: "prj-2", Topic: "ai", RequiredPanelists: 1},
	}
	assignments := []models.PanelAssignment{
		{ProjectID: "prj-1", PanelistID: "lect-1"},
		{ProjectID: "prj-2", PanelistID: "lect-1"},
	}
	slots := []models.TimeSlot{
		{ID: "slot-1", Date: "2026-01-12", TimeRange: "09:00-10:00"},
	}

	entries, status, err := ScheduleDefenses(context.Background(), newTestEngine(t), projects, assignments, slots, fullAvailability([]string{"lect-1"}, slots), Options{})
	require.NoError(t, err)
	assert.Equal(t, solver.StatusInfeasible, status)
	assert.Empty(t, entries)
}

func TestScheduleDefensesEmptyAssignments(t *testing.T) {
	_, status, err := ScheduleDefenses(context.Background(), newTestEngine(t), nil, nil, nil, nil, Options{})
	require.Error(t, err)
	assert.Equal(t, solver.StatusNotSolved, status)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErr.Code)
}

func TestScheduleDefensesMissingAvailabilityRow(t *testing.T) {
	assignments := []models.PanelAssignment{{ProjectID: "prj-1", PanelistID: "lect-9"}}

	_, _, err := ScheduleDefenses(context.Background(), newTestEngine(t), nil, assignments, nil, models.AvailabilityMatrix{}, Options{})
	require.Error(t, err)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "lect-9")
}

func TestScheduleDefensesTimeLimitOnLargeInstances(t *testing.T) {
	projects := []models.Project{
		{ID: "prj-1", Topic: "ai", RequiredPanelists: 1},
		{ID: "prj-2", Topic: "ai", RequiredPanelists: 1},
	}
	assignments := []models.PanelAssignment{
		{ProjectID: "prj-1", PanelistID: "lect-1"},
		{ProjectID: "prj-2", PanelistID: "lect-2"},
	}
	slots := halfHourSlots()
	availability := fullAvailability([]string{"lect-1", "lect-2"}, slots)

	stub := &stubEngine{status: solver.StatusNotSolved}
	_, status, err := ScheduleDefenses(context.Background(), stub, projects, assignments, slots, availability,
		Options{TimeLimit: 5 * time.Second, LargeProblemThreshold: 1})
	require.NoError(t, err)
	assert.Equal(t, solver.StatusNotSolved, status)
	assert.Equal(t, 5*time.Second, stub.timeLimit)
}

func TestScheduleDefensesNoTimeLimitBelowThreshold(t *testing.T) {
	projects := []models.Project{{ID: "prj-1", Topic: "ai", RequiredPanelists: 1}}
	assignments := []models.PanelAssignment{{ProjectID: "prj-1", PanelistID: "lect-1"}}
	slots := halfHourSlots()

	stub := &stubEngine{status: solver.StatusOptimal}
	_, _, err := ScheduleDefenses(context.Background(), stub, projects, assignments, slots, fullAvailability([]string{"lect-1"}, slots), Options{})
	require.NoError(t, err)
	assert.Zero(t, stub.timeLimit)
}

func TestParseTimeRange(t *testing.T) {
	start, end, ok := parseTimeRange("09:00-09:30")
	require.True(t, ok)
	assert.Equal(t, 540, start)
	assert.Equal(t, 570, end)

	_, _, ok = parseTimeRange("09-10")
	assert.False(t, ok)

	_, _, ok = parseTimeRange("morning")
	assert.False(t, ok)
}

func TestConsecutivePairs(t *testing.T) {
	slots := []models.TimeSlot{
		{ID: "slot-1", Date: "2026-01-12", TimeRange: "09:00-09:30"},
		{ID: "slot-2", Date: "2026-01-12", TimeRange: "09:30-10:00"},
		{ID: "slot-3", Date: "2026-01-13", TimeRange: "09:30-10:00"},
	}

	pairs := consecutivePairs(slots)
	// Only the same-date half-hour step qualifies; the next-day slot does not.
	assert.Equal(t, [][2]int{{0, 1}}, pairs)
}
