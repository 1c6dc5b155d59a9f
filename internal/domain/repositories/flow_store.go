package repositories

import (
	"context"

	"github.com/Ussyboy7/npa-emr-flow/internal/domain/entities"
)

// FlowStore is the single authoritative store for encounters and rooms. The
// flow coordinator is its only writer. Commit applies a multi-entity
// mutation atomically with respect to readers, so a concurrent View never
// observes a half-applied cross-queue movement.
type FlowStore interface {
	EncounterRepository
	RoomRepository

	// Commit writes the given encounters and rooms in one atomic step
	Commit(ctx context.Context, encounters []*entities.Encounter, rooms []*entities.Room) error

	// View returns a consistent copy of all encounters and rooms
	View(ctx context.Context) ([]*entities.Encounter, []*entities.Room, error)
}
