package repositories

import (
	"context"

	"github.com/Ussyboy7/npa-emr-flow/internal/domain/entities"
)

// EncounterRepository defines read access to encounters
type EncounterRepository interface {
	// GetEncounter retrieves an encounter by ID
	GetEncounter(ctx context.Context, id string) (*entities.Encounter, error)

	// ListEncounters retrieves all non-archived encounters
	ListEncounters(ctx context.Context) ([]*entities.Encounter, error)
}
