package entities_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Ussyboy7/npa-emr-flow/internal/domain/entities"
	apperrors "github.com/Ussyboy7/npa-emr-flow/pkg/errors"
)

func TestEncounter_Apply_HappyPath(t *testing.T) {
	enc := entities.NewEncounter("e1", "p1", "Ada", entities.PriorityMedium, time.Now())
	assert.Equal(t, entities.StatusAwaitingVitals, enc.Status)

	assert.NoError(t, enc.Apply(entities.TriggerRecordVitals))
	assert.Equal(t, entities.StatusVitalsComplete, enc.Status)

	assert.NoError(t, enc.Apply(entities.TriggerRouteConsultation))
	assert.Equal(t, entities.StatusRoutedToConsultation, enc.Status)

	assert.NoError(t, enc.Apply(entities.TriggerCompleteConsultation))
	assert.Equal(t, entities.StatusCompleted, enc.Status)
	assert.True(t, enc.IsTerminal())
}

func TestEncounter_Apply_RerecordVitalsIsSelfLoop(t *testing.T) {
	enc := entities.NewEncounter("e1", "p1", "Ada", entities.PriorityMedium, time.Now())
	assert.NoError(t, enc.Apply(entities.TriggerRecordVitals))
	assert.NoError(t, enc.Apply(entities.TriggerRecordVitals))
	assert.Equal(t, entities.StatusVitalsComplete, enc.Status)
}

func TestEncounter_Apply_RejectsIllegalTransition(t *testing.T) {
	enc := entities.NewEncounter("e1", "p1", "Ada", entities.PriorityMedium, time.Now())

	err := enc.Apply(entities.TriggerRouteConsultation)

	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInvalidTransition))
	// The error names the current state, the trigger, and what was allowed.
	assert.Contains(t, err.Error(), "route_to_consultation")
	assert.Contains(t, err.Error(), "Awaiting Vitals")
	assert.Contains(t, err.Error(), "record_vitals")
	// State is unchanged after a rejected transition.
	assert.Equal(t, entities.StatusAwaitingVitals, enc.Status)
}

func TestEncounter_Apply_CancelFromAnyNonTerminalState(t *testing.T) {
	for _, trigger := range []entities.Trigger{
		entities.TriggerRouteInjection,
		entities.TriggerRouteDressing,
		entities.TriggerRouteWard,
	} {
		enc := entities.NewEncounter("e1", "p1", "Ada", entities.PriorityLow, time.Now())
		assert.NoError(t, enc.Apply(entities.TriggerRecordVitals))
		assert.NoError(t, enc.Apply(trigger))
		assert.NoError(t, enc.Apply(entities.TriggerCancel))
		assert.Equal(t, entities.StatusCancelled, enc.Status)
	}
}

func TestEncounter_Apply_CancelFromTerminalStateFails(t *testing.T) {
	enc := entities.NewEncounter("e1", "p1", "Ada", entities.PriorityMedium, time.Now())
	assert.NoError(t, enc.Apply(entities.TriggerCancel))

	err := enc.Apply(entities.TriggerCancel)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInvalidTransition))
	assert.Contains(t, err.Error(), "terminal")
}

func TestEncounter_Apply_AncillaryStatesOnlyAllowCancel(t *testing.T) {
	enc := entities.NewEncounter("e1", "p1", "Ada", entities.PriorityMedium, time.Now())
	assert.NoError(t, enc.Apply(entities.TriggerRecordVitals))
	assert.NoError(t, enc.Apply(entities.TriggerRouteWard))

	err := enc.Apply(entities.TriggerCompleteConsultation)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInvalidTransition))

	assert.Equal(t, []entities.Trigger{entities.TriggerCancel}, enc.AllowedTriggers())
}

func TestSortByPriority_EmergencyBeforeEarlierArrival(t *testing.T) {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	e1 := entities.NewEncounter("e1", "p1", "Ada", entities.PriorityHigh, base.Add(10*time.Minute))
	e2 := entities.NewEncounter("e2", "p2", "Bayo", entities.PriorityEmergency, base.Add(20*time.Minute))

	queue := []*entities.Encounter{e1, e2}
	entities.SortByPriority(queue)

	assert.Equal(t, "e2", queue[0].ID)
	assert.Equal(t, "e1", queue[1].ID)
}

func TestSortByPriority_TiesBreakByArrivalThenInsertion(t *testing.T) {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	e1 := entities.NewEncounter("e1", "p1", "Ada", entities.PriorityMedium, base.Add(5*time.Minute))
	e2 := entities.NewEncounter("e2", "p2", "Bayo", entities.PriorityMedium, base)
	e3 := entities.NewEncounter("e3", "p3", "Chi", entities.PriorityMedium, base)

	queue := []*entities.Encounter{e1, e2, e3}
	entities.SortByPriority(queue)

	assert.Equal(t, "e2", queue[0].ID)
	assert.Equal(t, "e3", queue[1].ID)
	assert.Equal(t, "e1", queue[2].ID)
}

func TestEncounter_IsQueued(t *testing.T) {
	enc := entities.NewEncounter("e1", "p1", "Ada", entities.PriorityMedium, time.Now())
	assert.False(t, enc.IsQueued())

	enc.AssignedRoomID = "r1"
	enc.QueuePosition = 0
	assert.True(t, enc.IsQueued())

	enc.QueuePosition = -1
	assert.False(t, enc.IsQueued())
}

func TestEncounter_Clone_IsDeep(t *testing.T) {
	enc := entities.NewEncounter("e1", "p1", "Ada", entities.PriorityMedium, time.Now())
	enc.Vitals = &entities.VitalsReading{Temperature: "37.0"}
	enc.Alerts = []string{"High Temperature"}

	cp := enc.Clone()
	cp.Vitals.Temperature = "40.0"
	cp.Alerts[0] = "changed"

	assert.Equal(t, "37.0", enc.Vitals.Temperature)
	assert.Equal(t, "High Temperature", enc.Alerts[0])
}
