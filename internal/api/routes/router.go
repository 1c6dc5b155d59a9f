package routes

import (
	"net/http"

	"github.com/Ussyboy7/npa-emr-flow/internal/api/handlers"
	"github.com/Ussyboy7/npa-emr-flow/internal/api/middleware"
	"github.com/Ussyboy7/npa-emr-flow/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	encounterHandler *handlers.EncounterHandler
	roomHandler      *handlers.RoomHandler
	snapshotHandler  *handlers.SnapshotHandler
	sseHandler       *handlers.SSEHandler

	metrics *observability.Metrics
}

// NewRouter creates a new router
func NewRouter(
	encounterHandler *handlers.EncounterHandler,
	roomHandler *handlers.RoomHandler,
	snapshotHandler *handlers.SnapshotHandler,
	sseHandler *handlers.SSEHandler,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux:              http.NewServeMux(),
		encounterHandler: encounterHandler,
		roomHandler:      roomHandler,
		snapshotHandler:  snapshotHandler,
		sseHandler:       sseHandler,
		metrics:          metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	// Health check endpoint
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}
	})

	// Encounter endpoints
	r.mux.HandleFunc("POST /api/encounters", r.encounterHandler.CreateEncounter)
	r.mux.HandleFunc("GET /api/encounters", r.encounterHandler.ListEncounters)
	r.mux.HandleFunc("GET /api/encounters/{id}", r.encounterHandler.GetEncounter)
	r.mux.HandleFunc("POST /api/encounters/{id}/vitals", r.encounterHandler.RecordVitals)
	r.mux.HandleFunc("POST /api/encounters/{id}/route/consultation", r.encounterHandler.RouteToConsultation)
	r.mux.HandleFunc("POST /api/encounters/{id}/route/ancillary", r.encounterHandler.RouteToAncillary)
	r.mux.HandleFunc("POST /api/encounters/{id}/reassign", r.encounterHandler.Reassign)
	r.mux.HandleFunc("POST /api/encounters/{id}/cancel", r.encounterHandler.Cancel)

	// Room endpoints
	r.mux.HandleFunc("POST /api/rooms", r.roomHandler.CreateRoom)
	r.mux.HandleFunc("GET /api/rooms", r.roomHandler.ListRooms)
	r.mux.HandleFunc("GET /api/rooms/{id}", r.roomHandler.GetRoom)
	r.mux.HandleFunc("GET /api/rooms/{id}/queue", r.roomHandler.GetQueue)
	r.mux.HandleFunc("PATCH /api/rooms/{id}/status", r.roomHandler.UpdateStatus)
	r.mux.HandleFunc("POST /api/rooms/{id}/promote", r.roomHandler.PromoteNext)
	r.mux.HandleFunc("POST /api/rooms/{id}/complete", r.roomHandler.CompleteConsultation)

	// Snapshot endpoint
	r.mux.HandleFunc("GET /api/snapshot", r.snapshotHandler.GetSnapshot)

	// SSE streaming endpoints
	if r.sseHandler != nil {
		r.mux.HandleFunc("GET /api/stream/flow", r.sseHandler.StreamFlowUpdates)
		r.mux.HandleFunc("GET /api/stream/rooms/{id}", r.sseHandler.StreamRoomUpdates)
	}

	// Apply middleware in reverse order (last middleware wraps first)
	// CORS must be outermost so every response gets CORS headers.
	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	handler = middleware.CORSMiddleware(handler)

	return handler
}
