package scheduler

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/acadops/defense-scheduler-api/internal/models"
	"github.com/acadops/defense-scheduler-api/internal/solver"
	appErrors "github.com/acadops/defense-scheduler-api/pkg/errors"
)

// Defaults mirroring the large-instance policy: above the threshold the
// backend gets a hard wall-clock budget and may come back unsolved.
const (
	DefaultTimeLimit             = 300 * time.Second
	DefaultLargeProblemThreshold = 50
)

// consecutiveGap is the spacing that makes two same-day slots back-to-back.
// Defenses run about an hour, so half-hour slots cannot be chained.
const consecutiveGap = 30

// Options tune the scheduling model.
type Options struct {
	// TimeLimit bounds the solve once the instance is large. Zero means
	// DefaultTimeLimit.
	TimeLimit time.Duration
	// LargeProblemThreshold is the project count above which TimeLimit
	// applies. Zero means DefaultLargeProblemThreshold.
	LargeProblemThreshold int
}

func (o Options) timeLimit() time.Duration {
	if o.TimeLimit > 0 {
		return o.TimeLimit
	}
	return DefaultTimeLimit
}

func (o Options) threshold() int {
	if o.LargeProblemThreshold > 0 {
		return o.LargeProblemThreshold
	}
	return DefaultLargeProblemThreshold
}

// ScheduleDefenses places every project into exactly one slot such that all
// assigned panelists are available, no panelist sits in two defenses at once
// and, for half-hour slot grids, no panelist gets back-to-back slots on the
// same date.
//
// The assignment set must be non-empty and the availability table must cover
// every panelist it references; both are precondition violations, not solver
// outcomes. Room labels on the returned entries are raw slot data; the room
// allocation pass replaces them.
func ScheduleDefenses(
	ctx context.Context,
	engine solver.Engine,
	projects []models.Project,
	assignments []models.PanelAssignment,
	slots []models.TimeSlot,
	availability models.AvailabilityMatrix,
	opts Options,
) ([]models.ScheduleEntry, solver.Status, error) {
	if len(assignments) == 0 {
		return nil, solver.StatusNotSolved,
			appErrors.Clone(appErrors.ErrPreconditionFailed, "no panel assignments available; run panel assignment first")
	}
	for _, assignment := range assignments {
		if !availability.Covers(assignment.PanelistID) {
			return nil, solver.StatusNotSolved, appErrors.Clone(appErrors.ErrPreconditionFailed,
				fmt.Sprintf("panelist %s is missing from the availability table", assignment.PanelistID))
		}
	}

	if len(projects) > opts.threshold() {
		engine.SetTimeLimit(opts.timeLimit())
	}

	projectIndex := make(map[string]int, len(projects))
	vars := make([][]solver.Var, len(projects))
	for i, project := range projects {
		projectIndex[project.ID] = i
		vars[i] = make([]solver.Var, len(slots))
		for t, slot := range slots {
			vars[i][t] = engine.NewBoolVar(fmt.Sprintf("x_%s_%s", project.ID, slot.ID))
		}
	}

	// Each project is scheduled exactly once.
	for i := range projects {
		engine.AddConstraint(solver.Sum(vars[i]...), solver.Equal, 1)
	}

	// Availability gating: a slot where any assigned panelist is busy is
	// closed for the whole project.
	panelistsByProject := groupAssignments(assignments)
	for i, project := range projects {
		blocked := make(map[int]bool)
		for _, panelistID := range panelistsByProject[project.ID] {
			for t, slot := range slots {
				if !availability.At(panelistID, slot.ID) {
					blocked[t] = true
				}
			}
		}
		for t := range slots {
			if blocked[t] {
				engine.AddConstraint(solver.Sum(vars[i][t]), solver.Equal, 0)
			}
		}
	}

	// No double-booking: a panelist on several panels can hold at most one
	// of them per slot. Single-panel members are covered by exact-once.
	projectsByPanelist := groupByPanelist(assignments)
	for _, shared := range projectsByPanelist {
		if len(shared.projects) < 2 {
			continue
		}
		for t := range slots {
			expr := solver.NewLinearExpr()
			for _, projectID := range shared.projects {
				expr.Add(vars[projectIndex[projectID]][t], 1)
			}
			engine.AddConstraint(expr, solver.LessOrEqual, 1)
		}
	}

	// Consecutive-slot exclusion activates only on a half-hour grid.
	if duration, ok := slotDuration(slots); ok && duration <= consecutiveGap {
		pairs := consecutivePairs(slots)
		for _, shared := range projectsByPanelist {
			if len(shared.projects) < 2 {
				continue
			}
			for _, pair := range pairs {
				expr := solver.NewLinearExpr()
				for _, projectID := range shared.projects {
					expr.Add(vars[projectIndex[projectID]][pair[0]], 1)
					expr.Add(vars[projectIndex[projectID]][pair[1]], 1)
				}
				engine.AddConstraint(expr, solver.LessOrEqual, 1)
			}
		}
	}

	status := engine.Solve(ctx)
	if !status.Solved() {
		return nil, status, nil
	}

	entries := make([]models.ScheduleEntry, 0, len(projects))
	for i, project := range projects {
		for t, slot := range slots {
			if engine.Value(vars[i][t]) != 1 {
				continue
			}
			entries = append(entries, models.ScheduleEntry{
				ProjectID:   project.ID,
				Topic:       project.Topic,
				SlotID:      slot.ID,
				DefenseDate: slot.Date,
				TimeRange:   slot.TimeRange,
				Room:        slot.Room,
				Panelists:   strings.Join(panelistsByProject[project.ID], ", "),
			})
			break
		}
	}
	return entries, status, nil
}

// groupAssignments keeps each project's panelists in assignment order.
func groupAssignments(assignments []models.PanelAssignment) map[string][]string {
	grouped := make(map[string][]string)
	for _, assignment := range assignments {
		grouped[assignment.ProjectID] = append(grouped[assignment.ProjectID], assignment.PanelistID)
	}
	return grouped
}

type panelistProjects struct {
	panelistID string
	projects   []string
}

// groupByPanelist returns each panelist's projects in first-seen order so the
// generated constraint order is stable.
func groupByPanelist(assignments []models.PanelAssignment) []panelistProjects {
	index := make(map[string]int)
	var grouped []panelistProjects
	for _, assignment := range assignments {
		i, ok := index[assignment.PanelistID]
		if !ok {
			i = len(grouped)
			index[assignment.PanelistID] = i
			grouped = append(grouped, panelistProjects{panelistID: assignment.PanelistID})
		}
		grouped[i].projects = append(grouped[i].projects, assignment.ProjectID)
	}
	return grouped
}

// slotDuration derives the grid granularity in minutes from the first slot
// whose time range parses as HH:MM-HH:MM. Coarse `HH-HH` ranges do not parse
// and disable the consecutive-slot constraint.
func slotDuration(slots []models.TimeSlot) (int, bool) {
	for _, slot := range slots {
		if start, end, ok := parseTimeRange(slot.TimeRange); ok {
			return end - start, true
		}
		return 0, false
	}
	return 0, false
}

// consecutivePairs lists index pairs of same-date slots whose start times sit
// exactly one half-hour step apart.
func consecutivePairs(slots []models.TimeSlot) [][2]int {
	starts := make([]int, len(slots))
	parsed := make([]bool, len(slots))
	for t, slot := range slots {
		starts[t], _, parsed[t] = parseTimeRange(slot.TimeRange)
	}

	var pairs [][2]int
	for a := range slots {
		if !parsed[a] {
			continue
		}
		for b := range slots {
			if a == b || !parsed[b] || slots[a].Date != slots[b].Date {
				continue
			}
			if starts[b] == starts[a]+consecutiveGap {
				pairs = append(pairs, [2]int{a, b})
			}
		}
	}
	return pairs
}

// parseTimeRange returns start and end minutes-of-day for a HH:MM-HH:MM range.
func parseTimeRange(raw string) (int, int, bool) {
	parts := strings.SplitN(raw, "-", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	start, ok := parseClock(parts[0])
	if !ok {
		return 0, 0, false
	}
	end, ok := parseClock(parts[1])
	if !ok {
		return 0, 0, false
	}
	return start, end, true
}

func parseClock(raw string) (int, bool) {
	pieces := strings.SplitN(strings.TrimSpace(raw), ":", 2)
	if len(pieces) != 2 {
		return 0, false
	}
	hours, err := strconv.Atoi(pieces[0])
	if err != nil {
		return 0, false
	}
	minutes, err := strconv.Atoi(pieces[1])
	if err != nil {
		return 0, false
	}
	return hours*60 + minutes, true
}
