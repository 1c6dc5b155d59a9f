package memory

import (
	"context"
	"sync"

	"github.com/Ussyboy7/npa-emr-flow/internal/domain/entities"
	apperrors "github.com/Ussyboy7/npa-emr-flow/pkg/errors"
)

// Store is an in-process implementation of repositories.FlowStore: both
// entity maps behind one RWMutex so a multi-entity Commit is atomic with
// respect to every reader. All values crossing the boundary are deep copies;
// callers can mutate what they get back without affecting the store.
type Store struct {
	mu         sync.RWMutex
	encounters map[string]*entities.Encounter
	rooms      map[string]*entities.Room
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		encounters: make(map[string]*entities.Encounter),
		rooms:      make(map[string]*entities.Room),
	}
}

// GetEncounter retrieves an encounter by ID
func (s *Store) GetEncounter(ctx context.Context, id string) (*entities.Encounter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	enc, ok := s.encounters[id]
	if !ok {
		return nil, apperrors.NewEncounterNotFoundError(id)
	}
	return enc.Clone(), nil
}

// ListEncounters retrieves all encounters
func (s *Store) ListEncounters(ctx context.Context) ([]*entities.Encounter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*entities.Encounter, 0, len(s.encounters))
	for _, enc := range s.encounters {
		out = append(out, enc.Clone())
	}
	return out, nil
}

// GetRoom retrieves a room by ID
func (s *Store) GetRoom(ctx context.Context, id string) (*entities.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	room, ok := s.rooms[id]
	if !ok {
		return nil, apperrors.NewRoomNotFoundError(id)
	}
	return room.Clone(), nil
}

// ListRooms retrieves all configured rooms
func (s *Store) ListRooms(ctx context.Context) ([]*entities.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*entities.Room, 0, len(s.rooms))
	for _, room := range s.rooms {
		out = append(out, room.Clone())
	}
	return out, nil
}

// Commit writes the given encounters and rooms under one write lock
func (s *Store) Commit(ctx context.Context, encounters []*entities.Encounter, rooms []*entities.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, enc := range encounters {
		s.encounters[enc.ID] = enc.Clone()
	}
	for _, room := range rooms {
		s.rooms[room.ID] = room.Clone()
	}
	return nil
}

// View returns a consistent copy of all encounters and rooms
func (s *Store) View(ctx context.Context) ([]*entities.Encounter, []*entities.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	encounters := make([]*entities.Encounter, 0, len(s.encounters))
	for _, enc := range s.encounters {
		encounters = append(encounters, enc.Clone())
	}
	rooms := make([]*entities.Room, 0, len(s.rooms))
	for _, room := range s.rooms {
		rooms = append(rooms, room.Clone())
	}
	return encounters, rooms, nil
}
