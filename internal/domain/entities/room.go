package entities

import (
	"time"

	apperrors "github.com/Ussyboy7/npa-emr-flow/pkg/errors"
)

// RoomStatus represents the availability of a consultation room
type RoomStatus string

const (
	RoomAvailable   RoomStatus = "Available"
	RoomOccupied    RoomStatus = "Occupied"
	RoomUnavailable RoomStatus = "Unavailable"
)

// QueueEntry is one slot in a room's waiting queue. Position is the 0-based
// index in storage (FIFO insertion) order; priority ordering is applied on
// read, never persisted here.
type QueueEntry struct {
	EncounterID string `json:"encounter_id"`
	Position    int    `json:"position"`
}

// Room is a consultation location with at most one current patient and an
// ordered waiting queue. Room identity and name are configuration data;
// everything else is mutated exclusively through the flow coordinator.
type Room struct {
	ID                     string       `json:"id"`
	Name                   string       `json:"name"`
	Status                 RoomStatus   `json:"status"`
	CurrentEncounterID     string       `json:"current_encounter_id,omitempty"`
	Queue                  []QueueEntry `json:"queue"`
	ConsultationStartedAt  *time.Time   `json:"consultation_started_at,omitempty"`
	CompletedConsultations int          `json:"completed_consultations"`
	TotalConsultationTime  time.Duration `json:"-"`
}

// NewRoom creates an available, empty room
func NewRoom(id, name string) *Room {
	return &Room{
		ID:     id,
		Name:   name,
		Status: RoomAvailable,
	}
}

// Enqueue appends an encounter to the queue tail and returns its position.
// Queueing onto an occupied room is legal; only an unavailable room refuses.
func (r *Room) Enqueue(encounterID string) (int, error) {
	if r.Status == RoomUnavailable {
		return 0, apperrors.NewRoomUnavailableError(r.ID)
	}
	pos := len(r.Queue)
	r.Queue = append(r.Queue, QueueEntry{EncounterID: encounterID, Position: pos})
	return pos, nil
}

// PromoteNext pops the queue head into the consultation slot, stamping
// ConsultationStartedAt and renumbering the remaining entries. It fails with
// RoomBusy while a current encounter exists. An empty queue is not an error:
// the room simply stays idle and the returned ID is empty.
func (r *Room) PromoteNext(now time.Time) (string, error) {
	if r.CurrentEncounterID != "" {
		return "", apperrors.NewRoomBusyError(r.ID, r.CurrentEncounterID)
	}
	if len(r.Queue) == 0 {
		return "", nil
	}
	head := r.Queue[0]
	r.Queue = r.Queue[1:]
	r.renumber()
	r.CurrentEncounterID = head.EncounterID
	r.ConsultationStartedAt = &now
	if r.Status != RoomUnavailable {
		r.Status = RoomOccupied
	}
	return head.EncounterID, nil
}

// Release clears the consultation slot and returns the encounter that held
// it, accumulating the consultation duration for the room's statistics. A
// room marked Unavailable by an administrator stays Unavailable.
func (r *Room) Release(now time.Time) string {
	released := r.CurrentEncounterID
	if released != "" && r.ConsultationStartedAt != nil {
		r.CompletedConsultations++
		r.TotalConsultationTime += now.Sub(*r.ConsultationStartedAt)
	}
	r.CurrentEncounterID = ""
	r.ConsultationStartedAt = nil
	if r.Status != RoomUnavailable {
		r.Status = RoomAvailable
	}
	return released
}

// ClearCurrent abandons the current consultation without counting it as
// completed. Used when the current encounter is cancelled mid-consultation.
func (r *Room) ClearCurrent() string {
	released := r.CurrentEncounterID
	r.CurrentEncounterID = ""
	r.ConsultationStartedAt = nil
	if r.Status != RoomUnavailable {
		r.Status = RoomAvailable
	}
	return released
}

// RemoveFromQueue removes an encounter from an arbitrary queue position and
// renumbers the entries behind it. Used by reassignment and cancellation.
func (r *Room) RemoveFromQueue(encounterID string) error {
	for i, entry := range r.Queue {
		if entry.EncounterID == encounterID {
			r.Queue = append(r.Queue[:i], r.Queue[i+1:]...)
			r.renumber()
			return nil
		}
	}
	return apperrors.NewNotInQueueError(r.ID, encounterID)
}

// QueuePositionOf returns the stored position of an encounter, or -1
func (r *Room) QueuePositionOf(encounterID string) int {
	for _, entry := range r.Queue {
		if entry.EncounterID == encounterID {
			return entry.Position
		}
	}
	return -1
}

// AverageConsultationTime returns the mean completed-consultation duration
func (r *Room) AverageConsultationTime() time.Duration {
	if r.CompletedConsultations == 0 {
		return 0
	}
	return r.TotalConsultationTime / time.Duration(r.CompletedConsultations)
}

func (r *Room) renumber() {
	for i := range r.Queue {
		r.Queue[i].Position = i
	}
}

// Clone returns a deep copy of the room
func (r *Room) Clone() *Room {
	cp := *r
	if r.Queue != nil {
		cp.Queue = append([]QueueEntry(nil), r.Queue...)
	}
	if r.ConsultationStartedAt != nil {
		t := *r.ConsultationStartedAt
		cp.ConsultationStartedAt = &t
	}
	return &cp
}
