package api

import (
	"net/http"

	"github.com/Beastie7/FlashLearn/internal/api/shared"
	"github.com/Beastie7/FlashLearn/internal/service"
)

// ProgressHandler handles the aggregate statistics endpoints.
type ProgressHandler struct {
	progressService service.ProgressService
}

// NewProgressHandler creates a new ProgressHandler.
func NewProgressHandler(progressService service.ProgressService) *ProgressHandler {
	return &ProgressHandler{progressService: progressService}
}

// Get handles GET /progress.
func (h *ProgressHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	progress, err := h.progressService.GetProgress(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to load progress")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, newProgressResponse(progress))
}

// Recompute handles POST /progress/recompute, rebuilding the aggregate
// counters from the per-deck counters.
func (h *ProgressHandler) Recompute(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	progress, err := h.progressService.Recompute(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to recompute progress")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, newProgressResponse(progress))
}
