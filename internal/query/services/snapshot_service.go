package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/Ussyboy7/npa-emr-flow/internal/domain/entities"
	"github.com/Ussyboy7/npa-emr-flow/internal/domain/providers"
	"github.com/Ussyboy7/npa-emr-flow/internal/domain/repositories"
	"github.com/Ussyboy7/npa-emr-flow/internal/infrastructure/observability"
)

// FlowSnapshot is the aggregate dashboard projection over all encounters
// and rooms, derived from one consistent store view.
type FlowSnapshot struct {
	GeneratedAt        time.Time                       `json:"generated_at"`
	Version            int64                           `json:"version"`
	TotalEncounters    int                             `json:"total_encounters"`
	ActiveEncounters   int                             `json:"active_encounters"`
	StatusCounts       map[entities.EncounterStatus]int `json:"status_counts"`
	PriorityCounts     map[entities.Priority]int       `json:"priority_counts"`
	AverageWaitMinutes float64                         `json:"average_wait_minutes"`
	Rooms              []RoomSnapshot                  `json:"rooms"`
}

// RoomSnapshot is the per-room slice of the projection
type RoomSnapshot struct {
	RoomID                     string              `json:"room_id"`
	Name                       string              `json:"name"`
	Status                     entities.RoomStatus `json:"status"`
	CurrentEncounterID         string              `json:"current_encounter_id,omitempty"`
	QueueLength                int                 `json:"queue_length"`
	CompletedConsultations     int                 `json:"completed_consultations"`
	AverageConsultationMinutes float64             `json:"average_consultation_minutes"`
}

// SnapshotService builds the flow snapshot, caching the marshalled
// projection under a version-stamped key. The flow coordinator bumps the
// version counter on every mutation, so a cached snapshot is served only
// while no state has changed since it was built. Without a cache the
// service degrades to rebuilding on every request.
type SnapshotService struct {
	store   repositories.FlowStore
	cache   providers.CacheProvider
	metrics *observability.Metrics
	logger  zerolog.Logger
	ttl     int
	now     func() time.Time
}

// NewSnapshotService creates the snapshot projector. cache and metrics are
// optional. ttlSeconds bounds how long a version-stamped snapshot lingers.
func NewSnapshotService(
	store repositories.FlowStore,
	cache providers.CacheProvider,
	metrics *observability.Metrics,
	logger zerolog.Logger,
	ttlSeconds int,
) *SnapshotService {
	return &SnapshotService{
		store:   store,
		cache:   cache,
		metrics: metrics,
		logger:  logger,
		ttl:     ttlSeconds,
		now:     time.Now,
	}
}

// GetSnapshot returns the current flow snapshot, from cache when the stored
// version still matches.
func (s *SnapshotService) GetSnapshot(ctx context.Context) (*FlowSnapshot, error) {
	version := s.currentVersion(ctx)
	cacheKey := fmt.Sprintf("flow:snapshot:v%d", version)

	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, cacheKey); err == nil && raw != nil {
			var snapshot FlowSnapshot
			decodeErr := json.Unmarshal(raw, &snapshot)
			if decodeErr == nil {
				if s.metrics != nil {
					observability.RecordCacheHit(ctx, s.metrics, cacheKey)
				}
				return &snapshot, nil
			}
			s.logger.Warn().Err(decodeErr).Str("key", cacheKey).Msg("discarding undecodable cached snapshot")
		}
		if s.metrics != nil {
			observability.RecordCacheMiss(ctx, s.metrics, cacheKey)
		}
	}

	snapshot, err := s.build(ctx, version)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if raw, err := json.Marshal(snapshot); err == nil {
			if err := s.cache.Set(ctx, cacheKey, raw, s.ttl); err != nil {
				s.logger.Warn().Err(err).Str("key", cacheKey).Msg("failed to cache snapshot")
			}
		}
	}

	return snapshot, nil
}

// build assembles the projection from a single consistent view of the store
func (s *SnapshotService) build(ctx context.Context, version int64) (*FlowSnapshot, error) {
	encounters, rooms, err := s.store.View(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	snapshot := &FlowSnapshot{
		GeneratedAt:     now,
		Version:         version,
		TotalEncounters: len(encounters),
		StatusCounts:    make(map[entities.EncounterStatus]int),
		PriorityCounts:  make(map[entities.Priority]int),
		Rooms:           make([]RoomSnapshot, 0, len(rooms)),
	}

	var totalWait time.Duration
	for _, enc := range encounters {
		snapshot.StatusCounts[enc.Status]++
		snapshot.PriorityCounts[enc.Priority]++
		if enc.IsTerminal() {
			continue
		}
		snapshot.ActiveEncounters++
		totalWait += now.Sub(enc.ArrivalTime)
	}
	if snapshot.ActiveEncounters > 0 {
		snapshot.AverageWaitMinutes = totalWait.Minutes() / float64(snapshot.ActiveEncounters)
	}

	// View hands rooms back in map order; sort for a stable projection.
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].ID < rooms[j].ID })
	for _, room := range rooms {
		snapshot.Rooms = append(snapshot.Rooms, RoomSnapshot{
			RoomID:                     room.ID,
			Name:                       room.Name,
			Status:                     room.Status,
			CurrentEncounterID:         room.CurrentEncounterID,
			QueueLength:                len(room.Queue),
			CompletedConsultations:     room.CompletedConsultations,
			AverageConsultationMinutes: room.AverageConsultationTime().Minutes(),
		})
	}

	return snapshot, nil
}

// currentVersion reads the mutation counter; 0 when the cache is absent or
// the counter has never been bumped.
func (s *SnapshotService) currentVersion(ctx context.Context) int64 {
	if s.cache == nil {
		return 0
	}
	raw, err := s.cache.Get(ctx, providers.SnapshotVersionKey)
	if err != nil || raw == nil {
		return 0
	}
	version, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return 0
	}
	return version
}
