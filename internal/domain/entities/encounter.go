package entities

import (
	"sort"
	"time"

	apperrors "github.com/Ussyboy7/npa-emr-flow/pkg/errors"
)

// EncounterStatus represents where an encounter is in the patient flow
type EncounterStatus string

const (
	StatusAwaitingVitals       EncounterStatus = "Awaiting Vitals"
	StatusVitalsComplete       EncounterStatus = "Vitals Complete"
	StatusRoutedToConsultation EncounterStatus = "Routed to Consultation"
	StatusRoutedToInjection    EncounterStatus = "Routed to Injection"
	StatusRoutedToDressing     EncounterStatus = "Routed to Dressing"
	StatusRoutedToWard         EncounterStatus = "Routed to Ward"
	StatusCompleted            EncounterStatus = "Completed"
	StatusCancelled            EncounterStatus = "Cancelled"
)

// Priority represents the triage priority of an encounter
type Priority string

const (
	PriorityEmergency Priority = "Emergency"
	PriorityHigh      Priority = "High"
	PriorityMedium    Priority = "Medium"
	PriorityLow       Priority = "Low"
)

// Trigger represents a command that attempts to move an encounter between states
type Trigger string

const (
	TriggerRecordVitals         Trigger = "record_vitals"
	TriggerRouteConsultation    Trigger = "route_to_consultation"
	TriggerRouteInjection       Trigger = "route_to_injection"
	TriggerRouteDressing        Trigger = "route_to_dressing"
	TriggerRouteWard            Trigger = "route_to_ward"
	TriggerCompleteConsultation Trigger = "complete_consultation"
	TriggerCancel               Trigger = "cancel"
)

// AncillaryService is a non-room destination an encounter can be routed to
type AncillaryService string

const (
	ServiceInjection AncillaryService = "Injection"
	ServiceDressing  AncillaryService = "Dressing"
	ServiceWard      AncillaryService = "Ward"
)

// transitions is the full legal state machine. Terminal states have no entry.
// Cancellation is legal from every non-terminal state and is added uniformly
// rather than listed per state.
var transitions = map[EncounterStatus]map[Trigger]EncounterStatus{
	StatusAwaitingVitals: {
		TriggerRecordVitals: StatusVitalsComplete,
	},
	StatusVitalsComplete: {
		// Re-recording vitals is a self-loop: alerts are recomputed, status unchanged.
		TriggerRecordVitals:      StatusVitalsComplete,
		TriggerRouteConsultation: StatusRoutedToConsultation,
		TriggerRouteInjection:    StatusRoutedToInjection,
		TriggerRouteDressing:     StatusRoutedToDressing,
		TriggerRouteWard:         StatusRoutedToWard,
	},
	StatusRoutedToConsultation: {
		TriggerCompleteConsultation: StatusCompleted,
	},
	StatusRoutedToInjection: {},
	StatusRoutedToDressing:  {},
	StatusRoutedToWard:      {},
}

// Encounter is one active clinical visit moving through triage, queueing,
// consultation, and onward routing.
type Encounter struct {
	ID             string          `json:"id"`
	PatientID      string          `json:"patient_id"`
	PatientName    string          `json:"patient_name"`
	PersonalNumber string          `json:"personal_number,omitempty"`
	Clinic         string          `json:"clinic,omitempty"`
	VisitType      string          `json:"visit_type,omitempty"`
	Priority       Priority        `json:"priority"`
	ArrivalTime    time.Time       `json:"arrival_time"`
	Status         EncounterStatus `json:"status"`
	Vitals         *VitalsReading  `json:"vitals,omitempty"`
	Alerts         []string        `json:"alerts"`
	AssignedRoomID string          `json:"assigned_room_id,omitempty"`
	// QueuePosition is set iff the encounter occupies a slot in some room's
	// queue. -1 means unset. It is cleared the instant the encounter becomes
	// a room's current patient or leaves the room.
	QueuePosition int        `json:"queue_position"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
}

// NewEncounter creates an encounter in the intake state
func NewEncounter(id, patientID, patientName string, priority Priority, arrival time.Time) *Encounter {
	return &Encounter{
		ID:            id,
		PatientID:     patientID,
		PatientName:   patientName,
		Priority:      priority,
		ArrivalTime:   arrival,
		Status:        StatusAwaitingVitals,
		QueuePosition: -1,
	}
}

// IsTerminal reports whether the encounter has reached a terminal status
func (e *Encounter) IsTerminal() bool {
	return e.Status == StatusCompleted || e.Status == StatusCancelled
}

// IsQueued reports whether the encounter currently occupies a queue slot
func (e *Encounter) IsQueued() bool {
	return e.AssignedRoomID != "" && e.QueuePosition >= 0
}

// AllowedTriggers returns the triggers legal from the encounter's current
// state, in a stable order. Cancellation is included for every non-terminal
// state.
func (e *Encounter) AllowedTriggers() []Trigger {
	table, ok := transitions[e.Status]
	if !ok {
		return nil
	}
	allowed := make([]Trigger, 0, len(table)+1)
	for _, t := range []Trigger{
		TriggerRecordVitals,
		TriggerRouteConsultation,
		TriggerRouteInjection,
		TriggerRouteDressing,
		TriggerRouteWard,
		TriggerCompleteConsultation,
	} {
		if _, legal := table[t]; legal {
			allowed = append(allowed, t)
		}
	}
	return append(allowed, TriggerCancel)
}

// Apply attempts to move the encounter along the given trigger. An attempt
// whose source state does not permit the trigger fails with an
// InvalidTransition error; it never silently no-ops.
func (e *Encounter) Apply(trigger Trigger) error {
	if trigger == TriggerCancel {
		if e.IsTerminal() {
			return apperrors.NewInvalidTransitionError(string(e.Status), string(trigger), nil)
		}
		e.Status = StatusCancelled
		return nil
	}

	table, ok := transitions[e.Status]
	if !ok {
		return apperrors.NewInvalidTransitionError(string(e.Status), string(trigger), nil)
	}
	next, legal := table[trigger]
	if !legal {
		allowed := make([]string, 0, len(table)+1)
		for _, t := range e.AllowedTriggers() {
			allowed = append(allowed, string(t))
		}
		return apperrors.NewInvalidTransitionError(string(e.Status), string(trigger), allowed)
	}
	e.Status = next
	return nil
}

// RouteTrigger maps an ancillary service to its routing trigger
func RouteTrigger(service AncillaryService) (Trigger, bool) {
	switch service {
	case ServiceInjection:
		return TriggerRouteInjection, true
	case ServiceDressing:
		return TriggerRouteDressing, true
	case ServiceWard:
		return TriggerRouteWard, true
	default:
		return "", false
	}
}

// priorityRank orders priorities Emergency first. Unknown priorities sort last.
var priorityRank = map[Priority]int{
	PriorityEmergency: 0,
	PriorityHigh:      1,
	PriorityMedium:    2,
	PriorityLow:       3,
}

// ValidPriority reports whether p is one of the four triage priorities
func ValidPriority(p Priority) bool {
	_, ok := priorityRank[p]
	return ok
}

// PriorityRank returns the sort rank of a priority, Emergency lowest
func PriorityRank(p Priority) int {
	if rank, ok := priorityRank[p]; ok {
		return rank
	}
	return len(priorityRank)
}

// SortByPriority orders encounters for display: priority ascending
// (Emergency first), ties broken by earlier arrival. The sort is stable so
// the underlying FIFO insertion order is the final tie-break. This is the
// single priority comparator used by every queue view.
func SortByPriority(encounters []*Encounter) {
	sort.SliceStable(encounters, func(i, j int) bool {
		ri, rj := PriorityRank(encounters[i].Priority), PriorityRank(encounters[j].Priority)
		if ri != rj {
			return ri < rj
		}
		return encounters[i].ArrivalTime.Before(encounters[j].ArrivalTime)
	})
}

// Clone returns a deep copy of the encounter
func (e *Encounter) Clone() *Encounter {
	cp := *e
	if e.Vitals != nil {
		v := *e.Vitals
		cp.Vitals = &v
	}
	if e.Alerts != nil {
		cp.Alerts = append([]string(nil), e.Alerts...)
	}
	if e.CompletedAt != nil {
		t := *e.CompletedAt
		cp.CompletedAt = &t
	}
	return &cp
}
