package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// PipelineState tracks progress through the solving pipeline.
type PipelineState string

const (
	StateStart          PipelineState = "START"
	StateTopicsIndexed  PipelineState = "TOPICS_INDEXED"
	StatePanelsAssigned PipelineState = "PANELS_ASSIGNED"
	StateScheduled      PipelineState = "SCHEDULED"
	StateRoomsAssigned  PipelineState = "ROOMS_ASSIGNED"
	StateFailed         PipelineState = "FAILED"
)

// FindingKind classifies an infeasibility diagnostic.
type FindingKind string

const (
	FindingNoEligiblePanelists   FindingKind = "NO_ELIGIBLE_PANELISTS"
	FindingInsufficientEligible  FindingKind = "INSUFFICIENT_ELIGIBLE_PANELISTS"
	FindingCapacityShortfall     FindingKind = "CAPACITY_SHORTFALL"
	FindingInsufficientSlots     FindingKind = "INSUFFICIENT_SLOTS"
	FindingNoCommonAvailability  FindingKind = "NO_COMMON_AVAILABILITY"
	FindingSlotDensity           FindingKind = "SLOT_DENSITY"
	FindingSlotUtilization       FindingKind = "SLOT_UTILIZATION"
	FindingRoomInventory         FindingKind = "ROOM_INVENTORY"
	FindingProjectUnassigned     FindingKind = "PROJECT_UNASSIGNED"
	FindingEngineIdentity        FindingKind = "ENGINE_IDENTITY"
)

// Finding is one machine-inspectable diagnostic emitted after an infeasible
// or unsolved model. Advisory only; it never changes control flow.
type Finding struct {
	Kind      FindingKind        `json:"kind"`
	EntityIDs []string           `json:"entity_ids,omitempty"`
	Metrics   map[string]float64 `json:"metrics,omitempty"`
	Message   string             `json:"message"`
}

// ScheduleEntry is the terminal artifact for one project: its slot, derived
// date/time, allocated room, and the comma-joined panelist list.
type ScheduleEntry struct {
	ID          string    `db:"id" json:"id,omitempty"`
	RunID       string    `db:"run_id" json:"run_id,omitempty"`
	ProjectID   string    `db:"project_id" json:"project_id"`
	Topic       string    `db:"topic" json:"topic"`
	SlotID      string    `db:"slot_id" json:"slot_id"`
	DefenseDate string    `db:"defense_date" json:"date"`
	TimeRange   string    `db:"time_range" json:"time"`
	Room        string    `db:"room" json:"room"`
	Panelists   string    `db:"panelists" json:"panelists"`
	CreatedAt   time.Time `db:"created_at" json:"created_at,omitempty"`
}

// ProblemInput is the immutable table set consumed by one pipeline run.
type ProblemInput struct {
	Projects     []Project
	Panelists    []Panelist
	Expertise    ExpertiseMatrix
	Slots        []TimeSlot
	Availability AvailabilityMatrix
}

// ResultBundle is the full outcome of a pipeline run: topic groups, panel
// assignments, the allocated schedule and, on failure, diagnostics findings.
type ResultBundle struct {
	State              PipelineState     `json:"state"`
	Success            bool              `json:"success"`
	Engine             string            `json:"engine"`
	TopicGroups        TopicGroups       `json:"topic_groups"`
	Assignments        []PanelAssignment `json:"panel_assignments"`
	Entries            []ScheduleEntry   `json:"schedule"`
	Findings           []Finding         `json:"findings,omitempty"`
	AssignmentStatus   string            `json:"assignment_status,omitempty"`
	ScheduleStatus     string            `json:"schedule_status,omitempty"`
	MaxConcurrentRooms int               `json:"max_concurrent_rooms"`
}

// RunStatus summarises a stored pipeline execution.
type RunStatus string

const (
	RunStatusSucceeded  RunStatus = "SUCCEEDED"
	RunStatusInfeasible RunStatus = "INFEASIBLE"
	RunStatusNotSolved  RunStatus = "NOT_SOLVED"
)

// SolverRun is the persisted record of one pipeline execution.
type SolverRun struct {
	ID          string         `db:"id" json:"id"`
	RequestedBy string         `db:"requested_by" json:"requested_by"`
	Engine      string         `db:"engine" json:"engine"`
	Status      RunStatus      `db:"status" json:"status"`
	Stage       PipelineState  `db:"stage" json:"stage"`
	Success     bool           `db:"success" json:"success"`
	Meta        types.JSONText `db:"meta" json:"meta"`
	Findings    types.JSONText `db:"findings" json:"findings"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
}
