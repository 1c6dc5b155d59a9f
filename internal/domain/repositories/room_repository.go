package repositories

import (
	"context"

	"github.com/Ussyboy7/npa-emr-flow/internal/domain/entities"
)

// RoomRepository defines read access to consultation rooms
type RoomRepository interface {
	// GetRoom retrieves a room by ID
	GetRoom(ctx context.Context, id string) (*entities.Room, error)

	// ListRooms retrieves all configured rooms
	ListRooms(ctx context.Context) ([]*entities.Room, error)
}
