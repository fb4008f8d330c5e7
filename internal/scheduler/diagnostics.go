package scheduler

import (
	"fmt"

	"github.com/acadops/defense-scheduler-api/internal/models"
)

// DiagnoseAssignment inspects an infeasible panel-assignment model and
// reports the structural causes it can detect: projects with an empty or
// undersized eligible pool and a global capacity shortfall. Advisory only;
// findings never decide control flow and the list may be partial.
func DiagnoseAssignment(
	projects []models.Project,
	panelists []models.Panelist,
	expertise models.ExpertiseMatrix,
) []models.Finding {
	var findings []models.Finding

	for _, project := range projects {
		eligible := 0
		for _, panelist := range panelists {
			if panelist.ID == project.SupervisorID {
				continue
			}
			if expertise.Has(panelist.ID, project.Topic) {
				eligible++
			}
		}
		switch {
		case eligible == 0:
			findings = append(findings, models.Finding{
				Kind:      models.FindingNoEligiblePanelists,
				EntityIDs: []string{project.ID},
				Metrics: map[string]float64{
					"eligible": 0,
					"required": float64(project.RequiredPanelists),
				},
				Message: fmt.Sprintf("no panelist holds expertise in %q outside the supervisor", project.Topic),
			})
		case eligible < project.RequiredPanelists:
			findings = append(findings, models.Finding{
				Kind:      models.FindingInsufficientEligible,
				EntityIDs: []string{project.ID},
				Metrics: map[string]float64{
					"eligible": float64(eligible),
					"required": float64(project.RequiredPanelists),
				},
				Message: fmt.Sprintf("only %d eligible panelists for %q but %d required",
					eligible, project.Topic, project.RequiredPanelists),
			})
		}
	}

	demand, supply := 0, 0
	for _, project := range projects {
		demand += project.RequiredPanelists
	}
	for _, panelist := range panelists {
		supply += panelist.MaxPanels
	}
	if demand > supply {
		findings = append(findings, models.Finding{
			Kind: models.FindingCapacityShortfall,
			Metrics: map[string]float64{
				"seats_required": float64(demand),
				"seats_capacity": float64(supply),
			},
			Message: fmt.Sprintf("panels demand %d seats but combined panelist capacity is %d", demand, supply),
		})
	}
	return findings
}

// DiagnoseSchedule inspects an infeasible or unsolved scheduling model. It
// reports slot shortage, projects whose panel shares no available slot,
// unassigned projects, slot density per day, overall slot utilization and the
// parallel room capacity of the slot inventory.
func DiagnoseSchedule(
	projects []models.Project,
	assignments []models.PanelAssignment,
	slots []models.TimeSlot,
	availability models.AvailabilityMatrix,
) []models.Finding {
	var findings []models.Finding

	if len(slots) < len(projects) {
		findings = append(findings, models.Finding{
			Kind: models.FindingInsufficientSlots,
			Metrics: map[string]float64{
				"slots":    float64(len(slots)),
				"projects": float64(len(projects)),
			},
			Message: fmt.Sprintf("%d slots cannot host %d defenses", len(slots), len(projects)),
		})
	}

	panelistsByProject := groupAssignments(assignments)
	for _, project := range projects {
		panel := panelistsByProject[project.ID]
		if len(panel) == 0 {
			findings = append(findings, models.Finding{
				Kind:      models.FindingProjectUnassigned,
				EntityIDs: []string{project.ID},
				Message:   fmt.Sprintf("project %s has no panel assignment", project.ID),
			})
			continue
		}
		common := 0
		for _, slot := range slots {
			open := true
			for _, panelistID := range panel {
				if !availability.At(panelistID, slot.ID) {
					open = false
					break
				}
			}
			if open {
				common++
			}
		}
		if common == 0 {
			findings = append(findings, models.Finding{
				Kind:      models.FindingNoCommonAvailability,
				EntityIDs: append([]string{project.ID}, panel...),
				Metrics:   map[string]float64{"common_slots": 0},
				Message:   fmt.Sprintf("panel of project %s shares no available slot", project.ID),
			})
		}
	}

	slotsPerDay := make(map[string]int)
	for _, slot := range slots {
		slotsPerDay[slot.Date]++
	}
	if len(slotsPerDay) > 0 {
		minDay, maxDay := len(slots), 0
		for _, n := range slotsPerDay {
			if n < minDay {
				minDay = n
			}
			if n > maxDay {
				maxDay = n
			}
		}
		findings = append(findings, models.Finding{
			Kind: models.FindingSlotDensity,
			Metrics: map[string]float64{
				"days":              float64(len(slotsPerDay)),
				"min_slots_per_day": float64(minDay),
				"max_slots_per_day": float64(maxDay),
			},
			Message: fmt.Sprintf("slot inventory spans %d days (%d-%d slots per day)", len(slotsPerDay), minDay, maxDay),
		})
	}

	if len(slots) > 0 {
		pct := float64(len(projects)) / float64(len(slots)) * 100
		findings = append(findings, models.Finding{
			Kind: models.FindingSlotUtilization,
			Metrics: map[string]float64{
				"projects":        float64(len(projects)),
				"slots":           float64(len(slots)),
				"utilization_pct": pct,
			},
			Message: fmt.Sprintf("schedule would fill %.1f%% of the slot inventory", pct),
		})
	}

	// Room capacity is only reportable when the slot inventory carries room
	// labels at all.
	rooms := make(map[string]struct{})
	for _, slot := range slots {
		if slot.Room != "" {
			rooms[slot.Room] = struct{}{}
		}
	}
	if len(rooms) > 0 {
		parallel := make(map[string]int)
		maxParallel := 0
		for _, slot := range slots {
			key := slot.Date + "|" + slot.TimeRange
			parallel[key]++
			if parallel[key] > maxParallel {
				maxParallel = parallel[key]
			}
		}
		findings = append(findings, models.Finding{
			Kind: models.FindingRoomInventory,
			Metrics: map[string]float64{
				"rooms":          float64(len(rooms)),
				"parallel_slots": float64(maxParallel),
			},
			Message: fmt.Sprintf("%d distinct rooms; slot inventory peaks at %d concurrent defenses",
				len(rooms), maxParallel),
		})
	}
	return findings
}
