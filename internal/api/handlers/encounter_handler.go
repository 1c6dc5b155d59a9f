package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/Ussyboy7/npa-emr-flow/internal/application/services"
	"github.com/Ussyboy7/npa-emr-flow/internal/domain/entities"
)

// FlowCoordinator is the command-and-query surface the HTTP layer drives
type FlowCoordinator interface {
	CreateEncounter(ctx context.Context, input services.CreateEncounterInput) (*entities.Encounter, error)
	GetEncounter(ctx context.Context, encounterID string) (*entities.Encounter, error)
	ListEncounters(ctx context.Context, status entities.EncounterStatus) ([]*entities.Encounter, error)
	RecordVitals(ctx context.Context, encounterID string, reading entities.VitalsReading) (*entities.Encounter, error)
	RouteToConsultation(ctx context.Context, encounterID, roomID string) (*entities.Encounter, *entities.Room, error)
	RouteToAncillary(ctx context.Context, encounterID string, service entities.AncillaryService) (*entities.Encounter, error)
	ReassignRoom(ctx context.Context, encounterID, fromRoomID, toRoomID string) (*entities.Encounter, error)
	CancelEncounter(ctx context.Context, encounterID string) (*entities.Encounter, error)
	RegisterRoom(ctx context.Context, id, name string) (*entities.Room, error)
	SetRoomStatus(ctx context.Context, roomID string, status entities.RoomStatus) (*entities.Room, error)
	CompleteConsultation(ctx context.Context, roomID string) (*entities.Room, *entities.Encounter, error)
	PromoteNext(ctx context.Context, roomID string) (*entities.Room, *entities.Encounter, error)
	ListQueue(ctx context.Context, roomID string) ([]*entities.Encounter, error)
	GetRoom(ctx context.Context, roomID string) (*entities.Room, error)
	ListRooms(ctx context.Context) ([]*entities.Room, error)
}

// EncounterHandler handles encounter-related HTTP requests
type EncounterHandler struct {
	flow FlowCoordinator
}

// NewEncounterHandler creates a new encounter handler
func NewEncounterHandler(flow FlowCoordinator) *EncounterHandler {
	return &EncounterHandler{
		flow: flow,
	}
}

// CreateEncounterRequest is the intake payload
type CreateEncounterRequest struct {
	ID             string    `json:"id,omitempty"`
	PatientID      string    `json:"patient_id"`
	PatientName    string    `json:"patient_name"`
	PersonalNumber string    `json:"personal_number,omitempty"`
	Clinic         string    `json:"clinic,omitempty"`
	VisitType      string    `json:"visit_type,omitempty"`
	Priority       string    `json:"priority"`
	ArrivalTime    time.Time `json:"arrival_time,omitempty"`
}

// CreateEncounter handles POST /api/encounters
func (h *EncounterHandler) CreateEncounter(w http.ResponseWriter, r *http.Request) {
	var req CreateEncounterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	encounter, err := h.flow.CreateEncounter(r.Context(), services.CreateEncounterInput{
		ID:             req.ID,
		PatientID:      req.PatientID,
		PatientName:    req.PatientName,
		PersonalNumber: req.PersonalNumber,
		Clinic:         req.Clinic,
		VisitType:      req.VisitType,
		Priority:       entities.Priority(req.Priority),
		ArrivalTime:    req.ArrivalTime,
	})
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, encounter)
}

// GetEncounter handles GET /api/encounters/{id}
func (h *EncounterHandler) GetEncounter(w http.ResponseWriter, r *http.Request) {
	encounterID := r.PathValue("id")
	if encounterID == "" {
		respondWithError(w, http.StatusBadRequest, "encounter ID is required")
		return
	}

	encounter, err := h.flow.GetEncounter(r.Context(), encounterID)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, encounter)
}

// ListEncounters handles GET /api/encounters?status=X
func (h *EncounterHandler) ListEncounters(w http.ResponseWriter, r *http.Request) {
	status := entities.EncounterStatus(r.URL.Query().Get("status"))

	encounters, err := h.flow.ListEncounters(r.Context(), status)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"encounters": encounters,
		"count":      len(encounters),
	})
}

// RecordVitals handles POST /api/encounters/{id}/vitals
func (h *EncounterHandler) RecordVitals(w http.ResponseWriter, r *http.Request) {
	encounterID := r.PathValue("id")
	if encounterID == "" {
		respondWithError(w, http.StatusBadRequest, "encounter ID is required")
		return
	}

	var reading entities.VitalsReading
	if err := json.NewDecoder(r.Body).Decode(&reading); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	encounter, err := h.flow.RecordVitals(r.Context(), encounterID, reading)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, encounter)
}

// RouteConsultationRequest names the room the encounter should queue for
type RouteConsultationRequest struct {
	RoomID string `json:"room_id"`
}

// RouteToConsultation handles POST /api/encounters/{id}/route/consultation
func (h *EncounterHandler) RouteToConsultation(w http.ResponseWriter, r *http.Request) {
	encounterID := r.PathValue("id")
	if encounterID == "" {
		respondWithError(w, http.StatusBadRequest, "encounter ID is required")
		return
	}

	var req RouteConsultationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RoomID == "" {
		respondWithError(w, http.StatusBadRequest, "room_id is required")
		return
	}

	encounter, room, err := h.flow.RouteToConsultation(r.Context(), encounterID, req.RoomID)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"encounter": encounter,
		"room":      room,
	})
}

// RouteAncillaryRequest names the ancillary service destination
type RouteAncillaryRequest struct {
	Service string `json:"service"`
}

// RouteToAncillary handles POST /api/encounters/{id}/route/ancillary
func (h *EncounterHandler) RouteToAncillary(w http.ResponseWriter, r *http.Request) {
	encounterID := r.PathValue("id")
	if encounterID == "" {
		respondWithError(w, http.StatusBadRequest, "encounter ID is required")
		return
	}

	var req RouteAncillaryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Service == "" {
		respondWithError(w, http.StatusBadRequest, "service is required")
		return
	}

	encounter, err := h.flow.RouteToAncillary(r.Context(), encounterID, entities.AncillaryService(req.Service))
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, encounter)
}

// ReassignRequest moves a queued encounter between room queues
type ReassignRequest struct {
	FromRoomID string `json:"from_room_id"`
	ToRoomID   string `json:"to_room_id"`
}

// Reassign handles POST /api/encounters/{id}/reassign
func (h *EncounterHandler) Reassign(w http.ResponseWriter, r *http.Request) {
	encounterID := r.PathValue("id")
	if encounterID == "" {
		respondWithError(w, http.StatusBadRequest, "encounter ID is required")
		return
	}

	var req ReassignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.FromRoomID == "" || req.ToRoomID == "" {
		respondWithError(w, http.StatusBadRequest, "from_room_id and to_room_id are required")
		return
	}

	encounter, err := h.flow.ReassignRoom(r.Context(), encounterID, req.FromRoomID, req.ToRoomID)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, encounter)
}

// Cancel handles POST /api/encounters/{id}/cancel
func (h *EncounterHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	encounterID := r.PathValue("id")
	if encounterID == "" {
		respondWithError(w, http.StatusBadRequest, "encounter ID is required")
		return
	}

	encounter, err := h.flow.CancelEncounter(r.Context(), encounterID)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, encounter)
}
