package models

// Project is a capstone defense awaiting a panel and a calendar slot.
type Project struct {
	ID                string `json:"project_id"`
	Topic             string `json:"topic"`
	SupervisorID      string `json:"supervisor_id"`
	RequiredPanelists int    `json:"required_panelists"`
}

// Panelist is an evaluator with a cap on how many panels they can join.
type Panelist struct {
	ID        string `json:"panelist_id"`
	MaxPanels int    `json:"max_panels"`
}

// ExpertiseMatrix maps panelist id -> topic -> has expertise. The topic set
// is open-ended and driven by the input, not a fixed enum.
type ExpertiseMatrix map[string]map[string]bool

// Has reports whether the panelist holds expertise in the topic.
func (m ExpertiseMatrix) Has(panelistID, topic string) bool {
	return m[panelistID][topic]
}

// KnowsTopic reports whether any expertise row carries the topic at all,
// regardless of value.
func (m ExpertiseMatrix) KnowsTopic(topic string) bool {
	for _, topics := range m {
		if _, ok := topics[topic]; ok {
			return true
		}
	}
	return false
}

// TimeSlot is a discrete calendar period. TimeRange uses `HH-HH` or
// `HH:MM-HH:MM`; Room is optional input data and is superseded by the room
// allocation pass.
type TimeSlot struct {
	ID        string `json:"slot_id"`
	Date      string `json:"date"`
	TimeRange string `json:"time"`
	Room      string `json:"room,omitempty"`
}

// AvailabilityMatrix maps panelist id -> slot id -> free. A missing slot key
// within an existing row means unavailable.
type AvailabilityMatrix map[string]map[string]bool

// At reports whether the panelist is free in the slot.
func (m AvailabilityMatrix) At(panelistID, slotID string) bool {
	return m[panelistID][slotID]
}

// Covers reports whether the matrix has a row for the panelist.
func (m AvailabilityMatrix) Covers(panelistID string) bool {
	_, ok := m[panelistID]
	return ok
}

// PanelAssignment pairs a project with one member of its panel.
type PanelAssignment struct {
	ProjectID  string `json:"project_id"`
	PanelistID string `json:"panelist_id"`
}

// TopicGroups maps each topic to the panelists holding expertise in it,
// in first-seen input order.
type TopicGroups map[string][]string
