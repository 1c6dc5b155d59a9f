package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Ussyboy7/npa-emr-flow/internal/domain/entities"
	"github.com/Ussyboy7/npa-emr-flow/internal/domain/providers"
	"github.com/Ussyboy7/npa-emr-flow/internal/domain/repositories"
	apperrors "github.com/Ussyboy7/npa-emr-flow/pkg/errors"
)

// FlowService is the single mutation gateway for encounter and room state.
// Every command runs under one mutex and follows the same shape: load
// copies from the store, validate all preconditions, mutate the copies,
// commit them in one atomic step, then publish events. A command that fails
// validation returns before commit, so partial application cannot occur;
// a failed ReassignRoom leaves the source queue untouched.
// Readers go straight to the store and see either the pre- or post-commit
// state, never something in between.
type FlowService struct {
	mu        sync.Mutex
	store     repositories.FlowStore
	evaluator *VitalsEvaluator
	eventBus  providers.EventBus
	cache     providers.CacheProvider
	logger    zerolog.Logger
	now       func() time.Time
}

// NewFlowService creates the flow coordinator. eventBus and cache are
// optional; without them the service simply skips publishing and snapshot
// invalidation.
func NewFlowService(
	store repositories.FlowStore,
	evaluator *VitalsEvaluator,
	eventBus providers.EventBus,
	cache providers.CacheProvider,
	logger zerolog.Logger,
) *FlowService {
	return &FlowService{
		store:     store,
		evaluator: evaluator,
		eventBus:  eventBus,
		cache:     cache,
		logger:    logger,
		now:       time.Now,
	}
}

// CreateEncounterInput carries the fields the external intake process
// supplies when a visit is opened.
type CreateEncounterInput struct {
	ID             string
	PatientID      string
	PatientName    string
	PersonalNumber string
	Clinic         string
	VisitType      string
	Priority       entities.Priority
	ArrivalTime    time.Time
}

// CreateEncounter registers a new encounter in the Awaiting Vitals state
func (s *FlowService) CreateEncounter(ctx context.Context, input CreateEncounterInput) (*entities.Encounter, error) {
	if input.PatientID == "" {
		return nil, apperrors.NewValidationError("patient_id is required")
	}
	if !entities.ValidPriority(input.Priority) {
		return nil, apperrors.NewValidationError("unknown priority: " + string(input.Priority))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if input.ID == "" {
		input.ID = uuid.New().String()
	} else if _, err := s.store.GetEncounter(ctx, input.ID); err == nil {
		return nil, apperrors.NewValidationError("encounter " + input.ID + " already exists")
	}
	if input.ArrivalTime.IsZero() {
		input.ArrivalTime = s.now()
	}

	enc := entities.NewEncounter(input.ID, input.PatientID, input.PatientName, input.Priority, input.ArrivalTime)
	enc.PersonalNumber = input.PersonalNumber
	enc.Clinic = input.Clinic
	enc.VisitType = input.VisitType

	if err := s.store.Commit(ctx, []*entities.Encounter{enc}, nil); err != nil {
		return nil, err
	}
	s.afterCommit(ctx, entities.NewFlowEvent(entities.FlowEventEncounterCreated, enc.ID, "", map[string]interface{}{
		"status":   enc.Status,
		"priority": enc.Priority,
	}))

	s.logger.Info().Str("encounter_id", enc.ID).Str("priority", string(enc.Priority)).Msg("encounter created")
	return enc, nil
}

// RegisterRoom adds a consultation room to the registry
func (s *FlowService) RegisterRoom(ctx context.Context, id, name string) (*entities.Room, error) {
	if id == "" || name == "" {
		return nil, apperrors.NewValidationError("room id and name are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.store.GetRoom(ctx, id); err == nil {
		return nil, apperrors.NewValidationError("room " + id + " already exists")
	}

	room := entities.NewRoom(id, name)
	if err := s.store.Commit(ctx, nil, []*entities.Room{room}); err != nil {
		return nil, err
	}
	s.afterCommit(ctx, entities.NewFlowEvent(entities.FlowEventRoomUpdated, "", room.ID, map[string]interface{}{
		"status": room.Status,
	}))
	return room, nil
}

// SetRoomStatus marks a room Available or Unavailable. Occupied is derived
// from the consultation slot and cannot be set directly.
func (s *FlowService) SetRoomStatus(ctx context.Context, roomID string, status entities.RoomStatus) (*entities.Room, error) {
	if status != entities.RoomAvailable && status != entities.RoomUnavailable {
		return nil, apperrors.NewValidationError("room status must be Available or Unavailable")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	room, err := s.store.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if status == entities.RoomAvailable && room.CurrentEncounterID != "" {
		return nil, apperrors.NewValidationError("room " + roomID + " has an active consultation")
	}

	room.Status = status
	if err := s.store.Commit(ctx, nil, []*entities.Room{room}); err != nil {
		return nil, err
	}
	s.afterCommit(ctx, entities.NewFlowEvent(entities.FlowEventRoomUpdated, "", room.ID, map[string]interface{}{
		"status": room.Status,
	}))
	return room, nil
}

// RecordVitals stores a reading, recomputes alerts, and moves the encounter
// to Vitals Complete. Re-recording replaces the whole snapshot and keeps the
// encounter in Vitals Complete.
func (s *FlowService) RecordVitals(ctx context.Context, encounterID string, reading entities.VitalsReading) (*entities.Encounter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	enc, err := s.store.GetEncounter(ctx, encounterID)
	if err != nil {
		return nil, err
	}
	if err := enc.Apply(entities.TriggerRecordVitals); err != nil {
		return nil, err
	}

	if reading.RecordedAt.IsZero() {
		reading.RecordedAt = s.now()
	}
	if reading.BMI == "" {
		if bmi, ok := BMIFromReading(&reading); ok {
			reading.BMI = bmi
		}
	}

	statuses, alerts := s.evaluator.Evaluate(&reading)
	if alerts == nil {
		alerts = []string{}
	}
	enc.Vitals = &reading
	enc.Alerts = alerts

	if err := s.store.Commit(ctx, []*entities.Encounter{enc}, nil); err != nil {
		return nil, err
	}
	s.afterCommit(ctx, entities.NewFlowEvent(entities.FlowEventVitalsRecorded, enc.ID, "", map[string]interface{}{
		"status":  enc.Status,
		"overall": s.evaluator.Summarize(statuses),
		"alerts":  alerts,
	}))

	s.logger.Info().
		Str("encounter_id", enc.ID).
		Int("alerts", len(alerts)).
		Msg("vitals recorded")
	return enc, nil
}

// RouteToConsultation queues an encounter onto a room's waiting list
func (s *FlowService) RouteToConsultation(ctx context.Context, encounterID, roomID string) (*entities.Encounter, *entities.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	enc, err := s.store.GetEncounter(ctx, encounterID)
	if err != nil {
		return nil, nil, err
	}
	room, err := s.store.GetRoom(ctx, roomID)
	if err != nil {
		return nil, nil, err
	}
	if err := enc.Apply(entities.TriggerRouteConsultation); err != nil {
		return nil, nil, err
	}
	pos, err := room.Enqueue(enc.ID)
	if err != nil {
		return nil, nil, err
	}
	enc.AssignedRoomID = roomID
	enc.QueuePosition = pos

	if err := s.store.Commit(ctx, []*entities.Encounter{enc}, []*entities.Room{room}); err != nil {
		return nil, nil, err
	}
	s.afterCommit(ctx, entities.NewFlowEvent(entities.FlowEventEncounterRouted, enc.ID, room.ID, map[string]interface{}{
		"status":         enc.Status,
		"queue_position": pos,
	}))

	s.logger.Info().
		Str("encounter_id", enc.ID).
		Str("room_id", roomID).
		Int("queue_position", pos).
		Msg("encounter routed to consultation")
	return enc, room, nil
}

// RouteToAncillary sends an encounter to an injection, dressing, or ward
// service. Ancillary services are not room-queued in this model.
func (s *FlowService) RouteToAncillary(ctx context.Context, encounterID string, service entities.AncillaryService) (*entities.Encounter, error) {
	trigger, ok := entities.RouteTrigger(service)
	if !ok {
		return nil, apperrors.NewValidationError("unknown ancillary service: " + string(service))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	enc, err := s.store.GetEncounter(ctx, encounterID)
	if err != nil {
		return nil, err
	}
	if err := enc.Apply(trigger); err != nil {
		return nil, err
	}
	enc.AssignedRoomID = ""
	enc.QueuePosition = -1

	if err := s.store.Commit(ctx, []*entities.Encounter{enc}, nil); err != nil {
		return nil, err
	}
	s.afterCommit(ctx, entities.NewFlowEvent(entities.FlowEventEncounterRouted, enc.ID, "", map[string]interface{}{
		"status":  enc.Status,
		"service": service,
	}))

	s.logger.Info().
		Str("encounter_id", enc.ID).
		Str("service", string(service)).
		Msg("encounter routed to ancillary service")
	return enc, nil
}

// ReassignRoom moves a queued encounter from one room's queue to another's.
// Both queue operations are validated on copies before anything is written,
// so a failure on either side leaves the encounter exactly where it was,
// in the source queue only.
func (s *FlowService) ReassignRoom(ctx context.Context, encounterID, fromRoomID, toRoomID string) (*entities.Encounter, error) {
	if fromRoomID == toRoomID {
		return nil, apperrors.NewValidationError("source and target rooms are the same")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	enc, err := s.store.GetEncounter(ctx, encounterID)
	if err != nil {
		return nil, err
	}
	if enc.AssignedRoomID != fromRoomID || !enc.IsQueued() {
		return nil, apperrors.NewNotInQueueError(fromRoomID, encounterID)
	}
	from, err := s.store.GetRoom(ctx, fromRoomID)
	if err != nil {
		return nil, err
	}
	to, err := s.store.GetRoom(ctx, toRoomID)
	if err != nil {
		return nil, err
	}

	if err := from.RemoveFromQueue(enc.ID); err != nil {
		return nil, err
	}
	pos, err := to.Enqueue(enc.ID)
	if err != nil {
		return nil, err
	}
	enc.AssignedRoomID = toRoomID
	enc.QueuePosition = pos

	changed, err := s.syncQueuePositions(ctx, from, enc.ID)
	if err != nil {
		return nil, err
	}
	changed = append(changed, enc)

	if err := s.store.Commit(ctx, changed, []*entities.Room{from, to}); err != nil {
		return nil, err
	}
	s.afterCommit(ctx, entities.NewFlowEvent(entities.FlowEventEncounterReassigned, enc.ID, to.ID, map[string]interface{}{
		"from_room":      fromRoomID,
		"to_room":        toRoomID,
		"queue_position": pos,
	}))

	s.logger.Info().
		Str("encounter_id", enc.ID).
		Str("from_room", fromRoomID).
		Str("to_room", toRoomID).
		Msg("encounter reassigned")
	return enc, nil
}

// CompleteConsultation finishes a room's current consultation: the room is
// released, the former current encounter is completed, and the head of the
// queue, if any, is promoted into the consultation slot.
func (s *FlowService) CompleteConsultation(ctx context.Context, roomID string) (*entities.Room, *entities.Encounter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, err := s.store.GetRoom(ctx, roomID)
	if err != nil {
		return nil, nil, err
	}
	if room.CurrentEncounterID == "" {
		return nil, nil, apperrors.NewValidationError("room " + roomID + " has no active consultation")
	}

	now := s.now()
	completedID := room.Release(now)
	completed, err := s.store.GetEncounter(ctx, completedID)
	if err != nil {
		return nil, nil, err
	}
	if err := completed.Apply(entities.TriggerCompleteConsultation); err != nil {
		return nil, nil, err
	}
	completed.CompletedAt = &now
	completed.AssignedRoomID = ""
	completed.QueuePosition = -1

	changed := []*entities.Encounter{completed}

	promotedID, err := room.PromoteNext(now)
	if err != nil {
		return nil, nil, err
	}
	if promotedID != "" {
		promoted, err := s.store.GetEncounter(ctx, promotedID)
		if err != nil {
			return nil, nil, err
		}
		// Becoming the current patient vacates the queue slot.
		promoted.QueuePosition = -1
		changed = append(changed, promoted)

		rest, err := s.syncQueuePositions(ctx, room, promotedID)
		if err != nil {
			return nil, nil, err
		}
		changed = append(changed, rest...)
	}

	if err := s.store.Commit(ctx, changed, []*entities.Room{room}); err != nil {
		return nil, nil, err
	}
	s.afterCommit(ctx, entities.NewFlowEvent(entities.FlowEventConsultationCompleted, completedID, room.ID, map[string]interface{}{
		"completed_at": now,
	}))
	if promotedID != "" {
		s.afterCommit(ctx, entities.NewFlowEvent(entities.FlowEventConsultationStarted, promotedID, room.ID, nil))
	}

	s.logger.Info().
		Str("room_id", roomID).
		Str("completed_encounter", completedID).
		Str("promoted_encounter", promotedID).
		Msg("consultation completed")
	return room, completed, nil
}

// PromoteNext calls the next queued patient into a room's consultation slot.
// This is how an idle room with waiting patients starts its first
// consultation; CompleteConsultation performs the same promotion implicitly.
func (s *FlowService) PromoteNext(ctx context.Context, roomID string) (*entities.Room, *entities.Encounter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, err := s.store.GetRoom(ctx, roomID)
	if err != nil {
		return nil, nil, err
	}

	promotedID, err := room.PromoteNext(s.now())
	if err != nil {
		return nil, nil, err
	}
	if promotedID == "" {
		return room, nil, nil
	}

	promoted, err := s.store.GetEncounter(ctx, promotedID)
	if err != nil {
		return nil, nil, err
	}
	promoted.QueuePosition = -1

	changed := []*entities.Encounter{promoted}
	rest, err := s.syncQueuePositions(ctx, room, promotedID)
	if err != nil {
		return nil, nil, err
	}
	changed = append(changed, rest...)

	if err := s.store.Commit(ctx, changed, []*entities.Room{room}); err != nil {
		return nil, nil, err
	}
	s.afterCommit(ctx, entities.NewFlowEvent(entities.FlowEventConsultationStarted, promotedID, room.ID, nil))

	s.logger.Info().
		Str("room_id", roomID).
		Str("encounter_id", promotedID).
		Msg("consultation started")
	return room, promoted, nil
}

// CancelEncounter cancels an encounter from any non-terminal state. A queued
// encounter is removed from its room's queue so no dangling reference
// remains; cancelling a room's current patient frees the room and promotes
// the next queued encounter.
func (s *FlowService) CancelEncounter(ctx context.Context, encounterID string) (*entities.Encounter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	enc, err := s.store.GetEncounter(ctx, encounterID)
	if err != nil {
		return nil, err
	}
	if err := enc.Apply(entities.TriggerCancel); err != nil {
		return nil, err
	}

	changed := []*entities.Encounter{enc}
	var rooms []*entities.Room

	if enc.AssignedRoomID != "" {
		room, err := s.store.GetRoom(ctx, enc.AssignedRoomID)
		if err != nil {
			return nil, err
		}
		now := s.now()
		switch {
		case room.CurrentEncounterID == enc.ID:
			room.ClearCurrent()
			promotedID, err := room.PromoteNext(now)
			if err != nil {
				return nil, err
			}
			if promotedID != "" {
				promoted, err := s.store.GetEncounter(ctx, promotedID)
				if err != nil {
					return nil, err
				}
				promoted.QueuePosition = -1
				changed = append(changed, promoted)
			}
			rest, err := s.syncQueuePositions(ctx, room, enc.ID)
			if err != nil {
				return nil, err
			}
			changed = append(changed, rest...)
		case enc.IsQueued():
			if err := room.RemoveFromQueue(enc.ID); err != nil {
				return nil, err
			}
			rest, err := s.syncQueuePositions(ctx, room, enc.ID)
			if err != nil {
				return nil, err
			}
			changed = append(changed, rest...)
		}
		rooms = append(rooms, room)
	}

	enc.AssignedRoomID = ""
	enc.QueuePosition = -1

	if err := s.store.Commit(ctx, changed, rooms); err != nil {
		return nil, err
	}
	s.afterCommit(ctx, entities.NewFlowEvent(entities.FlowEventEncounterCancelled, enc.ID, "", nil))

	s.logger.Info().Str("encounter_id", enc.ID).Msg("encounter cancelled")
	return enc, nil
}

// GetEncounter retrieves an encounter by ID
func (s *FlowService) GetEncounter(ctx context.Context, encounterID string) (*entities.Encounter, error) {
	return s.store.GetEncounter(ctx, encounterID)
}

// ListEncounters returns encounters in the priority view order, optionally
// filtered by status.
func (s *FlowService) ListEncounters(ctx context.Context, status entities.EncounterStatus) ([]*entities.Encounter, error) {
	encounters, err := s.store.ListEncounters(ctx)
	if err != nil {
		return nil, err
	}
	if status != "" {
		filtered := encounters[:0]
		for _, enc := range encounters {
			if enc.Status == status {
				filtered = append(filtered, enc)
			}
		}
		encounters = filtered
	}
	entities.SortByPriority(encounters)
	return encounters, nil
}

// GetRoom retrieves a room by ID
func (s *FlowService) GetRoom(ctx context.Context, roomID string) (*entities.Room, error) {
	return s.store.GetRoom(ctx, roomID)
}

// ListRooms retrieves all configured rooms
func (s *FlowService) ListRooms(ctx context.Context) ([]*entities.Room, error) {
	return s.store.ListRooms(ctx)
}

// ListQueue returns the waiting encounters of a room in the display order:
// priority first (Emergency before High before Medium before Low), earlier
// arrival breaking ties. Storage order stays FIFO; the ordering is computed
// on every read.
func (s *FlowService) ListQueue(ctx context.Context, roomID string) ([]*entities.Encounter, error) {
	room, err := s.store.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	queue := make([]*entities.Encounter, 0, len(room.Queue))
	for _, entry := range room.Queue {
		enc, err := s.store.GetEncounter(ctx, entry.EncounterID)
		if err != nil {
			return nil, err
		}
		queue = append(queue, enc)
	}
	entities.SortByPriority(queue)
	return queue, nil
}

// syncQueuePositions reloads every encounter still queued in the room and
// realigns its QueuePosition with the room's renumbered queue. skipID is the
// encounter the caller already holds a mutated copy of.
func (s *FlowService) syncQueuePositions(ctx context.Context, room *entities.Room, skipID string) ([]*entities.Encounter, error) {
	var changed []*entities.Encounter
	for _, entry := range room.Queue {
		if entry.EncounterID == skipID {
			continue
		}
		enc, err := s.store.GetEncounter(ctx, entry.EncounterID)
		if err != nil {
			return nil, err
		}
		if enc.QueuePosition != entry.Position {
			enc.QueuePosition = entry.Position
			changed = append(changed, enc)
		}
	}
	return changed, nil
}

// afterCommit bumps the snapshot version and publishes an event. Both are
// best-effort: the mutation has already committed.
func (s *FlowService) afterCommit(ctx context.Context, event *entities.FlowEvent) {
	if s.cache != nil {
		if _, err := s.cache.Increment(ctx, providers.SnapshotVersionKey); err != nil {
			s.logger.Warn().Err(err).Msg("failed to bump snapshot version")
		}
	}
	if s.eventBus == nil {
		return
	}
	if err := s.eventBus.Publish(ctx, providers.EventChannelFlowUpdates, event); err != nil {
		s.logger.Warn().Err(err).Str("event_type", string(event.EventType)).Msg("failed to publish flow event")
	}
	if event.RoomID != "" {
		if err := s.eventBus.Publish(ctx, providers.GetRoomChannel(event.RoomID), event); err != nil {
			s.logger.Warn().Err(err).Str("room_id", event.RoomID).Msg("failed to publish room event")
		}
	}
}
