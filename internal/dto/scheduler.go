// Package dto defines the request and response payloads of the HTTP API.
package dto

import "github.com/acadops/defense-scheduler-api/internal/models"

// ProjectPayload describes one capstone project in a solve request.
type ProjectPayload struct {
	ProjectID         string `json:"project_id" validate:"required"`
	Topic             string `json:"topic" validate:"required"`
	SupervisorID      string `json:"supervisor_id" validate:"required"`
	RequiredPanelists int    `json:"required_panelists" validate:"required,min=1"`
}

// PanelistPayload describes one candidate evaluator. MaxPanels may be zero
// for a supervisor-only panelist who joins no panels.
type PanelistPayload struct {
	PanelistID string `json:"panelist_id" validate:"required"`
	MaxPanels  int    `json:"max_panels" validate:"min=0"`
}

// TimeSlotPayload describes one calendar slot.
type TimeSlotPayload struct {
	SlotID string `json:"slot_id" validate:"required"`
	Date   string `json:"date" validate:"required"`
	Time   string `json:"time" validate:"required"`
	Room   string `json:"room"`
}

// SolveRequest carries the full problem input for one pipeline run.
// Expertise maps panelist id -> topic -> has expertise; Availability maps
// panelist id -> slot id -> free.
type SolveRequest struct {
	Projects     []ProjectPayload           `json:"projects" validate:"required,min=1,dive"`
	Panelists    []PanelistPayload          `json:"panelists" validate:"required,min=1,dive"`
	Expertise    map[string]map[string]bool `json:"expertise" validate:"required"`
	Slots        []TimeSlotPayload          `json:"slots" validate:"required,min=1,dive"`
	Availability map[string]map[string]bool `json:"availability" validate:"required"`
	// Engines optionally overrides the configured backend preference order.
	Engines []string `json:"engines,omitempty"`
}

// Input converts the request into the immutable problem tables.
func (r SolveRequest) Input() models.ProblemInput {
	input := models.ProblemInput{
		Projects:     make([]models.Project, len(r.Projects)),
		Panelists:    make([]models.Panelist, len(r.Panelists)),
		Expertise:    models.ExpertiseMatrix(r.Expertise),
		Slots:        make([]models.TimeSlot, len(r.Slots)),
		Availability: models.AvailabilityMatrix(r.Availability),
	}
	for i, p := range r.Projects {
		input.Projects[i] = models.Project{
			ID:                p.ProjectID,
			Topic:             p.Topic,
			SupervisorID:      p.SupervisorID,
			RequiredPanelists: p.RequiredPanelists,
		}
	}
	for i, p := range r.Panelists {
		input.Panelists[i] = models.Panelist{ID: p.PanelistID, MaxPanels: p.MaxPanels}
	}
	for i, s := range r.Slots {
		input.Slots[i] = models.TimeSlot{ID: s.SlotID, Date: s.Date, TimeRange: s.Time, Room: s.Room}
	}
	return input
}

// SolveResponse returns the stored run id alongside the full result bundle.
type SolveResponse struct {
	RunID  string               `json:"run_id"`
	Status models.RunStatus     `json:"status"`
	Result *models.ResultBundle `json:"result"`
}

// RunQuery filters and paginates the stored run listing.
type RunQuery struct {
	Status   string `form:"status"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
}

// RunDetail combines a stored run with its schedule entries.
type RunDetail struct {
	Run     models.SolverRun       `json:"run"`
	Entries []models.ScheduleEntry `json:"entries"`
}
