package handlers

import (
	"context"
	"net/http"

	queryservices "github.com/Ussyboy7/npa-emr-flow/internal/query/services"
)

// SnapshotProvider builds the aggregate flow projection
type SnapshotProvider interface {
	GetSnapshot(ctx context.Context) (*queryservices.FlowSnapshot, error)
}

// SnapshotHandler serves the dashboard snapshot
type SnapshotHandler struct {
	snapshots SnapshotProvider
}

// NewSnapshotHandler creates a new snapshot handler
func NewSnapshotHandler(snapshots SnapshotProvider) *SnapshotHandler {
	return &SnapshotHandler{
		snapshots: snapshots,
	}
}

// GetSnapshot handles GET /api/snapshot
func (h *SnapshotHandler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.snapshots.GetSnapshot(r.Context())
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, snapshot)
}
