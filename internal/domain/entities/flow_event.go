package entities

import (
	"time"

	"github.com/google/uuid"
)

// FlowEventType represents the type of patient-flow event
type FlowEventType string

const (
	FlowEventEncounterCreated      FlowEventType = "encounter_created"
	FlowEventVitalsRecorded        FlowEventType = "vitals_recorded"
	FlowEventEncounterRouted       FlowEventType = "encounter_routed"
	FlowEventEncounterReassigned   FlowEventType = "encounter_reassigned"
	FlowEventConsultationStarted   FlowEventType = "consultation_started"
	FlowEventConsultationCompleted FlowEventType = "consultation_completed"
	FlowEventEncounterCancelled    FlowEventType = "encounter_cancelled"
	FlowEventRoomUpdated           FlowEventType = "room_updated"
)

// FlowEvent is a real-time notification of a patient-flow state change,
// published after a mutation commits. It is an additive enhancement for
// dashboards; no core operation depends on its delivery.
type FlowEvent struct {
	ID            string                 `json:"id"`
	EncounterID   string                 `json:"encounter_id,omitempty"`
	RoomID        string                 `json:"room_id,omitempty"`
	EventType     FlowEventType          `json:"event_type"`
	Timestamp     time.Time              `json:"timestamp"`
	ChangedFields map[string]interface{} `json:"changed_fields,omitempty"`
}

// NewFlowEvent creates a new flow event
func NewFlowEvent(eventType FlowEventType, encounterID, roomID string, changedFields map[string]interface{}) *FlowEvent {
	return &FlowEvent{
		ID:            uuid.New().String(),
		EncounterID:   encounterID,
		RoomID:        roomID,
		EventType:     eventType,
		Timestamp:     time.Now(),
		ChangedFields: changedFields,
	}
}
