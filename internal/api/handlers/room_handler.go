package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/Ussyboy7/npa-emr-flow/internal/domain/entities"
)

// RoomHandler handles room-related HTTP requests
type RoomHandler struct {
	flow FlowCoordinator
}

// NewRoomHandler creates a new room handler
func NewRoomHandler(flow FlowCoordinator) *RoomHandler {
	return &RoomHandler{
		flow: flow,
	}
}

// CreateRoomRequest registers a consultation room
type CreateRoomRequest struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CreateRoom handles POST /api/rooms
func (h *RoomHandler) CreateRoom(w http.ResponseWriter, r *http.Request) {
	var req CreateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	room, err := h.flow.RegisterRoom(r.Context(), req.ID, req.Name)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, room)
}

// ListRooms handles GET /api/rooms
func (h *RoomHandler) ListRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.flow.ListRooms(r.Context())
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"rooms": rooms,
		"count": len(rooms),
	})
}

// GetRoom handles GET /api/rooms/{id}
func (h *RoomHandler) GetRoom(w http.ResponseWriter, r *http.Request) {
	roomID := r.PathValue("id")
	if roomID == "" {
		respondWithError(w, http.StatusBadRequest, "room ID is required")
		return
	}

	room, err := h.flow.GetRoom(r.Context(), roomID)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, room)
}

// GetQueue handles GET /api/rooms/{id}/queue. The queue is returned in
// display order: priority first, earlier arrival breaking ties.
func (h *RoomHandler) GetQueue(w http.ResponseWriter, r *http.Request) {
	roomID := r.PathValue("id")
	if roomID == "" {
		respondWithError(w, http.StatusBadRequest, "room ID is required")
		return
	}

	queue, err := h.flow.ListQueue(r.Context(), roomID)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"room_id": roomID,
		"queue":   queue,
		"count":   len(queue),
	})
}

// RoomStatusRequest sets a room Available or Unavailable
type RoomStatusRequest struct {
	Status string `json:"status"`
}

// UpdateStatus handles PATCH /api/rooms/{id}/status
func (h *RoomHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	roomID := r.PathValue("id")
	if roomID == "" {
		respondWithError(w, http.StatusBadRequest, "room ID is required")
		return
	}

	var req RoomStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Status == "" {
		respondWithError(w, http.StatusBadRequest, "status is required")
		return
	}

	room, err := h.flow.SetRoomStatus(r.Context(), roomID, entities.RoomStatus(req.Status))
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, room)
}

// PromoteNext handles POST /api/rooms/{id}/promote. Calling next on an
// empty queue succeeds with a null promoted encounter.
func (h *RoomHandler) PromoteNext(w http.ResponseWriter, r *http.Request) {
	roomID := r.PathValue("id")
	if roomID == "" {
		respondWithError(w, http.StatusBadRequest, "room ID is required")
		return
	}

	room, promoted, err := h.flow.PromoteNext(r.Context(), roomID)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"room":     room,
		"promoted": promoted,
	})
}

// CompleteConsultation handles POST /api/rooms/{id}/complete
func (h *RoomHandler) CompleteConsultation(w http.ResponseWriter, r *http.Request) {
	roomID := r.PathValue("id")
	if roomID == "" {
		respondWithError(w, http.StatusBadRequest, "room ID is required")
		return
	}

	room, completed, err := h.flow.CompleteConsultation(r.Context(), roomID)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"room":      room,
		"completed": completed,
	})
}
