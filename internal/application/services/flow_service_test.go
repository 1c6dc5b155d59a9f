package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ussyboy7/npa-emr-flow/internal/adapters/memory"
	"github.com/Ussyboy7/npa-emr-flow/internal/application/services"
	"github.com/Ussyboy7/npa-emr-flow/internal/domain/entities"
	apperrors "github.com/Ussyboy7/npa-emr-flow/pkg/errors"
)

func newFlowService(t *testing.T) (*services.FlowService, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	flow := services.NewFlowService(store, services.NewVitalsEvaluator(), nil, nil, zerolog.Nop())
	return flow, store
}

func seedEncounter(t *testing.T, flow *services.FlowService, id string, priority entities.Priority, arrival time.Time) *entities.Encounter {
	t.Helper()
	enc, err := flow.CreateEncounter(context.Background(), services.CreateEncounterInput{
		ID:          id,
		PatientID:   "patient-" + id,
		PatientName: "Patient " + id,
		Priority:    priority,
		ArrivalTime: arrival,
	})
	require.NoError(t, err)
	return enc
}

func seedRoom(t *testing.T, flow *services.FlowService, id string) *entities.Room {
	t.Helper()
	room, err := flow.RegisterRoom(context.Background(), id, "Room "+id)
	require.NoError(t, err)
	return room
}

// routeReady takes an encounter through vitals so it can be routed.
func routeReady(t *testing.T, flow *services.FlowService, id string) {
	t.Helper()
	_, err := flow.RecordVitals(context.Background(), id, entities.VitalsReading{Temperature: "36.8"})
	require.NoError(t, err)
}

func TestFlowService_CreateEncounter(t *testing.T) {
	flow, _ := newFlowService(t)
	ctx := context.Background()

	enc, err := flow.CreateEncounter(ctx, services.CreateEncounterInput{
		PatientID:   "p1",
		PatientName: "Ada",
		Priority:    entities.PriorityHigh,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, enc.ID)
	assert.Equal(t, entities.StatusAwaitingVitals, enc.Status)
	assert.Equal(t, -1, enc.QueuePosition)
	assert.False(t, enc.ArrivalTime.IsZero())

	_, err = flow.CreateEncounter(ctx, services.CreateEncounterInput{PatientID: "p2", Priority: "Urgent"})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))

	_, err = flow.CreateEncounter(ctx, services.CreateEncounterInput{Priority: entities.PriorityLow})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}

func TestFlowService_RecordVitals_ComputesAlertsAndBMI(t *testing.T) {
	flow, _ := newFlowService(t)
	ctx := context.Background()
	seedEncounter(t, flow, "e1", entities.PriorityMedium, time.Now())

	enc, err := flow.RecordVitals(ctx, "e1", entities.VitalsReading{
		Temperature: "38.5",
		OxygenSat:   "88",
		Height:      "170",
		Weight:      "70",
	})
	require.NoError(t, err)

	assert.Equal(t, entities.StatusVitalsComplete, enc.Status)
	assert.Equal(t, []string{"High Temperature", "Critical Low O2 Saturation (<90%)"}, enc.Alerts)
	assert.Equal(t, "24.2", enc.Vitals.BMI)
	assert.False(t, enc.Vitals.RecordedAt.IsZero())
}

func TestFlowService_RecordVitals_RerecordReplacesAlerts(t *testing.T) {
	flow, _ := newFlowService(t)
	ctx := context.Background()
	seedEncounter(t, flow, "e1", entities.PriorityMedium, time.Now())

	_, err := flow.RecordVitals(ctx, "e1", entities.VitalsReading{Temperature: "38.5"})
	require.NoError(t, err)

	enc, err := flow.RecordVitals(ctx, "e1", entities.VitalsReading{Temperature: "36.8"})
	require.NoError(t, err)
	assert.Equal(t, entities.StatusVitalsComplete, enc.Status)
	assert.Empty(t, enc.Alerts)
}

func TestFlowService_RecordVitals_UnknownEncounter(t *testing.T) {
	flow, _ := newFlowService(t)

	_, err := flow.RecordVitals(context.Background(), "missing", entities.VitalsReading{})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeEncounterNotFound))
}

func TestFlowService_RouteToConsultation_BeforeVitalsFails(t *testing.T) {
	flow, store := newFlowService(t)
	ctx := context.Background()
	seedEncounter(t, flow, "e1", entities.PriorityMedium, time.Now())
	seedRoom(t, flow, "r1")

	_, _, err := flow.RouteToConsultation(ctx, "e1", "r1")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInvalidTransition))

	// Nothing was committed: the encounter is untouched and the room empty.
	enc, err := store.GetEncounter(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, entities.StatusAwaitingVitals, enc.Status)
	room, err := store.GetRoom(ctx, "r1")
	require.NoError(t, err)
	assert.Empty(t, room.Queue)
}

func TestFlowService_RouteToConsultation_QueuesAtTail(t *testing.T) {
	flow, _ := newFlowService(t)
	ctx := context.Background()
	seedRoom(t, flow, "r1")
	seedEncounter(t, flow, "e1", entities.PriorityMedium, time.Now())
	seedEncounter(t, flow, "e2", entities.PriorityMedium, time.Now())
	routeReady(t, flow, "e1")
	routeReady(t, flow, "e2")

	enc, room, err := flow.RouteToConsultation(ctx, "e1", "r1")
	require.NoError(t, err)
	assert.Equal(t, entities.StatusRoutedToConsultation, enc.Status)
	assert.Equal(t, "r1", enc.AssignedRoomID)
	assert.Equal(t, 0, enc.QueuePosition)
	assert.Len(t, room.Queue, 1)

	enc2, _, err := flow.RouteToConsultation(ctx, "e2", "r1")
	require.NoError(t, err)
	assert.Equal(t, 1, enc2.QueuePosition)
}

func TestFlowService_RouteToAncillary(t *testing.T) {
	flow, _ := newFlowService(t)
	ctx := context.Background()
	seedEncounter(t, flow, "e1", entities.PriorityMedium, time.Now())
	routeReady(t, flow, "e1")

	enc, err := flow.RouteToAncillary(ctx, "e1", entities.ServiceInjection)
	require.NoError(t, err)
	assert.Equal(t, entities.StatusRoutedToInjection, enc.Status)
	assert.Empty(t, enc.AssignedRoomID)
	assert.Equal(t, -1, enc.QueuePosition)

	seedEncounter(t, flow, "e2", entities.PriorityMedium, time.Now())
	routeReady(t, flow, "e2")
	_, err = flow.RouteToAncillary(ctx, "e2", "Pharmacy")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}

func TestFlowService_ReassignRoom_MovesAndRenumbers(t *testing.T) {
	flow, store := newFlowService(t)
	ctx := context.Background()
	seedRoom(t, flow, "r1")
	seedRoom(t, flow, "r2")
	for _, id := range []string{"e1", "e2", "e3"} {
		seedEncounter(t, flow, id, entities.PriorityMedium, time.Now())
		routeReady(t, flow, id)
		_, _, err := flow.RouteToConsultation(ctx, id, "r1")
		require.NoError(t, err)
	}

	enc, err := flow.ReassignRoom(ctx, "e2", "r1", "r2")
	require.NoError(t, err)
	assert.Equal(t, "r2", enc.AssignedRoomID)
	assert.Equal(t, 0, enc.QueuePosition)

	// The encounter behind the removed one moved up, and its stored
	// position reflects that.
	from, err := store.GetRoom(ctx, "r1")
	require.NoError(t, err)
	assert.Len(t, from.Queue, 2)
	assert.Equal(t, "e3", from.Queue[1].EncounterID)
	e3, err := store.GetEncounter(ctx, "e3")
	require.NoError(t, err)
	assert.Equal(t, 1, e3.QueuePosition)
}

func TestFlowService_ReassignRoom_TargetUnavailableRollsBack(t *testing.T) {
	flow, store := newFlowService(t)
	ctx := context.Background()
	seedRoom(t, flow, "r1")
	seedRoom(t, flow, "r2")
	seedEncounter(t, flow, "e1", entities.PriorityMedium, time.Now())
	routeReady(t, flow, "e1")
	_, _, err := flow.RouteToConsultation(ctx, "e1", "r1")
	require.NoError(t, err)

	_, err = flow.SetRoomStatus(ctx, "r2", entities.RoomUnavailable)
	require.NoError(t, err)

	_, err = flow.ReassignRoom(ctx, "e1", "r1", "r2")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeRoomUnavailable))

	// The failed reassignment left the encounter exactly where it was.
	enc, err := store.GetEncounter(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, "r1", enc.AssignedRoomID)
	assert.Equal(t, 0, enc.QueuePosition)
	from, err := store.GetRoom(ctx, "r1")
	require.NoError(t, err)
	require.Len(t, from.Queue, 1)
	assert.Equal(t, "e1", from.Queue[0].EncounterID)
	to, err := store.GetRoom(ctx, "r2")
	require.NoError(t, err)
	assert.Empty(t, to.Queue)
}

func TestFlowService_ReassignRoom_NotQueuedInSourceFails(t *testing.T) {
	flow, _ := newFlowService(t)
	ctx := context.Background()
	seedRoom(t, flow, "r1")
	seedRoom(t, flow, "r2")
	seedEncounter(t, flow, "e1", entities.PriorityMedium, time.Now())
	routeReady(t, flow, "e1")
	_, _, err := flow.RouteToConsultation(ctx, "e1", "r2")
	require.NoError(t, err)

	_, err = flow.ReassignRoom(ctx, "e1", "r1", "r2")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotInQueue))
}

func TestFlowService_PromoteNext_StartsConsultation(t *testing.T) {
	flow, _ := newFlowService(t)
	ctx := context.Background()
	seedRoom(t, flow, "r1")
	seedEncounter(t, flow, "e1", entities.PriorityMedium, time.Now())
	routeReady(t, flow, "e1")
	_, _, err := flow.RouteToConsultation(ctx, "e1", "r1")
	require.NoError(t, err)

	room, promoted, err := flow.PromoteNext(ctx, "r1")
	require.NoError(t, err)
	require.NotNil(t, promoted)
	assert.Equal(t, "e1", promoted.ID)
	assert.Equal(t, -1, promoted.QueuePosition)
	assert.Equal(t, "r1", promoted.AssignedRoomID)
	assert.Equal(t, entities.StatusRoutedToConsultation, promoted.Status)
	assert.Equal(t, "e1", room.CurrentEncounterID)
	assert.Equal(t, entities.RoomOccupied, room.Status)

	_, _, err = flow.PromoteNext(ctx, "r1")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeRoomBusy))
}

func TestFlowService_PromoteNext_EmptyQueueIsNoOp(t *testing.T) {
	flow, _ := newFlowService(t)
	seedRoom(t, flow, "r1")

	room, promoted, err := flow.PromoteNext(context.Background(), "r1")
	require.NoError(t, err)
	assert.Nil(t, promoted)
	assert.Empty(t, room.CurrentEncounterID)
}

func TestFlowService_CompleteConsultation_CompletesAndPromotes(t *testing.T) {
	flow, store := newFlowService(t)
	ctx := context.Background()
	seedRoom(t, flow, "r1")
	for _, id := range []string{"e1", "e2"} {
		seedEncounter(t, flow, id, entities.PriorityMedium, time.Now())
		routeReady(t, flow, id)
		_, _, err := flow.RouteToConsultation(ctx, id, "r1")
		require.NoError(t, err)
	}
	_, _, err := flow.PromoteNext(ctx, "r1")
	require.NoError(t, err)

	room, completed, err := flow.CompleteConsultation(ctx, "r1")
	require.NoError(t, err)

	assert.Equal(t, "e1", completed.ID)
	assert.Equal(t, entities.StatusCompleted, completed.Status)
	assert.NotNil(t, completed.CompletedAt)
	assert.Empty(t, completed.AssignedRoomID)
	assert.Equal(t, -1, completed.QueuePosition)

	// The next queued encounter went straight into the consultation slot.
	assert.Equal(t, "e2", room.CurrentEncounterID)
	assert.Empty(t, room.Queue)
	assert.Equal(t, 1, room.CompletedConsultations)

	e2, err := store.GetEncounter(ctx, "e2")
	require.NoError(t, err)
	assert.Equal(t, -1, e2.QueuePosition)
	assert.Equal(t, "r1", e2.AssignedRoomID)
}

func TestFlowService_CompleteConsultation_NoCurrentEncounterFails(t *testing.T) {
	flow, _ := newFlowService(t)
	seedRoom(t, flow, "r1")

	_, _, err := flow.CompleteConsultation(context.Background(), "r1")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}

func TestFlowService_CancelEncounter_WhileQueuedRemovesFromQueue(t *testing.T) {
	flow, store := newFlowService(t)
	ctx := context.Background()
	seedRoom(t, flow, "r1")
	for _, id := range []string{"e1", "e2"} {
		seedEncounter(t, flow, id, entities.PriorityMedium, time.Now())
		routeReady(t, flow, id)
		_, _, err := flow.RouteToConsultation(ctx, id, "r1")
		require.NoError(t, err)
	}

	enc, err := flow.CancelEncounter(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, entities.StatusCancelled, enc.Status)
	assert.Empty(t, enc.AssignedRoomID)
	assert.Equal(t, -1, enc.QueuePosition)

	// No dangling queue reference, and the survivor moved up.
	room, err := store.GetRoom(ctx, "r1")
	require.NoError(t, err)
	require.Len(t, room.Queue, 1)
	assert.Equal(t, "e2", room.Queue[0].EncounterID)
	e2, err := store.GetEncounter(ctx, "e2")
	require.NoError(t, err)
	assert.Equal(t, 0, e2.QueuePosition)
}

func TestFlowService_CancelEncounter_WhileCurrentFreesRoomAndPromotes(t *testing.T) {
	flow, store := newFlowService(t)
	ctx := context.Background()
	seedRoom(t, flow, "r1")
	for _, id := range []string{"e1", "e2"} {
		seedEncounter(t, flow, id, entities.PriorityMedium, time.Now())
		routeReady(t, flow, id)
		_, _, err := flow.RouteToConsultation(ctx, id, "r1")
		require.NoError(t, err)
	}
	_, _, err := flow.PromoteNext(ctx, "r1")
	require.NoError(t, err)

	_, err = flow.CancelEncounter(ctx, "e1")
	require.NoError(t, err)

	room, err := store.GetRoom(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "e2", room.CurrentEncounterID)
	assert.Empty(t, room.Queue)
	// An abandoned consultation does not count toward room statistics.
	assert.Zero(t, room.CompletedConsultations)
}

func TestFlowService_CancelEncounter_TerminalFails(t *testing.T) {
	flow, _ := newFlowService(t)
	ctx := context.Background()
	seedEncounter(t, flow, "e1", entities.PriorityMedium, time.Now())

	_, err := flow.CancelEncounter(ctx, "e1")
	require.NoError(t, err)

	_, err = flow.CancelEncounter(ctx, "e1")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInvalidTransition))
}

func TestFlowService_ListQueue_PriorityOrder(t *testing.T) {
	flow, _ := newFlowService(t)
	ctx := context.Background()
	seedRoom(t, flow, "r1")

	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	seedEncounter(t, flow, "e1", entities.PriorityHigh, base.Add(10*time.Minute))
	seedEncounter(t, flow, "e2", entities.PriorityEmergency, base.Add(20*time.Minute))
	seedEncounter(t, flow, "e3", entities.PriorityHigh, base.Add(5*time.Minute))
	for _, id := range []string{"e1", "e2", "e3"} {
		routeReady(t, flow, id)
		_, _, err := flow.RouteToConsultation(ctx, id, "r1")
		require.NoError(t, err)
	}

	queue, err := flow.ListQueue(ctx, "r1")
	require.NoError(t, err)
	require.Len(t, queue, 3)

	// Emergency outranks High even with a later arrival; equal priorities
	// order by arrival. Storage order stays FIFO.
	assert.Equal(t, "e2", queue[0].ID)
	assert.Equal(t, "e3", queue[1].ID)
	assert.Equal(t, "e1", queue[2].ID)
	assert.Equal(t, 0, queue[2].QueuePosition)
}

func TestFlowService_SetRoomStatus(t *testing.T) {
	flow, _ := newFlowService(t)
	ctx := context.Background()
	seedRoom(t, flow, "r1")

	room, err := flow.SetRoomStatus(ctx, "r1", entities.RoomUnavailable)
	require.NoError(t, err)
	assert.Equal(t, entities.RoomUnavailable, room.Status)

	_, err = flow.SetRoomStatus(ctx, "r1", entities.RoomOccupied)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))

	_, err = flow.SetRoomStatus(ctx, "missing", entities.RoomAvailable)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeRoomNotFound))
}

func TestFlowService_ListEncounters_FiltersByStatus(t *testing.T) {
	flow, _ := newFlowService(t)
	ctx := context.Background()
	seedEncounter(t, flow, "e1", entities.PriorityMedium, time.Now())
	seedEncounter(t, flow, "e2", entities.PriorityMedium, time.Now())
	routeReady(t, flow, "e2")

	all, err := flow.ListEncounters(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	waiting, err := flow.ListEncounters(ctx, entities.StatusAwaitingVitals)
	require.NoError(t, err)
	require.Len(t, waiting, 1)
	assert.Equal(t, "e1", waiting[0].ID)
}
