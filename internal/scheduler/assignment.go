package scheduler

import (
	"context"
	"fmt"

	"github.com/acadops/defense-scheduler-api/internal/models"
	"github.com/acadops/defense-scheduler-api/internal/solver"
	appErrors "github.com/acadops/defense-scheduler-api/pkg/errors"
)

// AssignPanels formulates and solves the project-panelist matching as a
// binary program: one variable per (project, panelist) pair, constrained by
// exact panel size, topic expertise, supervisor exclusion and per-panelist
// capacity. Feasibility problem, no objective.
//
// On a solved status the returned assignments are ordered by project input
// order, then panelist input order. On infeasible/unsolved the assignment
// set is empty; the caller decides whether to run diagnostics.
func AssignPanels(
	ctx context.Context,
	engine solver.Engine,
	projects []models.Project,
	panelists []models.Panelist,
	expertise models.ExpertiseMatrix,
) ([]models.PanelAssignment, solver.Status, error) {
	if err := validateAssignmentInput(projects, expertise); err != nil {
		return nil, solver.StatusNotSolved, err
	}

	vars := make([][]solver.Var, len(projects))
	for i, project := range projects {
		vars[i] = make([]solver.Var, len(panelists))
		for j, panelist := range panelists {
			vars[i][j] = engine.NewBoolVar(fmt.Sprintf("y_%s_%s", project.ID, panelist.ID))
		}
	}

	for i, project := range projects {
		// Each panel has exactly the required number of members.
		engine.AddConstraint(solver.Sum(vars[i]...), solver.Equal, project.RequiredPanelists)

		for j, panelist := range panelists {
			// Supervisors are barred from their own panel even when they
			// hold matching expertise.
			if panelist.ID == project.SupervisorID {
				engine.AddConstraint(solver.Sum(vars[i][j]), solver.Equal, 0)
				continue
			}
			if !expertise.Has(panelist.ID, project.Topic) {
				engine.AddConstraint(solver.Sum(vars[i][j]), solver.Equal, 0)
			}
		}
	}

	for j, panelist := range panelists {
		expr := solver.NewLinearExpr()
		for i := range projects {
			expr.Add(vars[i][j], 1)
		}
		engine.AddConstraint(expr, solver.LessOrEqual, panelist.MaxPanels)
	}

	status := engine.Solve(ctx)
	if !status.Solved() {
		return nil, status, nil
	}

	var assignments []models.PanelAssignment
	for i, project := range projects {
		for j, panelist := range panelists {
			if engine.Value(vars[i][j]) == 1 {
				assignments = append(assignments, models.PanelAssignment{
					ProjectID:  project.ID,
					PanelistID: panelist.ID,
				})
			}
		}
	}
	return assignments, status, nil
}

func validateAssignmentInput(projects []models.Project, expertise models.ExpertiseMatrix) error {
	for _, project := range projects {
		if project.RequiredPanelists < 1 {
			return appErrors.Clone(appErrors.ErrPreconditionFailed,
				fmt.Sprintf("project %s requires at least one panelist", project.ID))
		}
		if !expertise.KnowsTopic(project.Topic) {
			return appErrors.Clone(appErrors.ErrPreconditionFailed,
				fmt.Sprintf("topic %q of project %s is missing from the expertise table", project.Topic, project.ID))
		}
	}
	return nil
}
