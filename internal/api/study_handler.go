package api

import (
	"errors"
	"net/http"

	"github.com/Beastie7/FlashLearn/internal/api/shared"
	"github.com/Beastie7/FlashLearn/internal/service"
)

// StudyHandler handles the study session endpoints. Sessions live in
// memory inside the study service; the handler only translates HTTP.
type StudyHandler struct {
	studyService service.StudyService
}

// NewStudyHandler creates a new StudyHandler.
func NewStudyHandler(studyService service.StudyService) *StudyHandler {
	return &StudyHandler{studyService: studyService}
}

// Begin handles POST /decks/{id}/study.
func (h *StudyHandler) Begin(w http.ResponseWriter, r *http.Request) {
	userID, deckID, ok := requireUserAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	state, err := h.studyService.Begin(r.Context(), userID, deckID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to start study session")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, state)
}

// Current handles GET /study/{id}.
func (h *StudyHandler) Current(w http.ResponseWriter, r *http.Request) {
	userID, sessionID, ok := requireUserAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	state, err := h.studyService.Current(r.Context(), userID, sessionID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to load study session")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, state)
}

// Flip handles POST /study/{id}/flip.
func (h *StudyHandler) Flip(w http.ResponseWriter, r *http.Request) {
	userID, sessionID, ok := requireUserAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	state, err := h.studyService.Flip(r.Context(), userID, sessionID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to flip card")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, state)
}

// MarkKnown handles POST /study/{id}/know.
func (h *StudyHandler) MarkKnown(w http.ResponseWriter, r *http.Request) {
	userID, sessionID, ok := requireUserAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	state, err := h.studyService.MarkKnown(r.Context(), userID, sessionID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to mark card known")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, state)
}

// MarkReview handles POST /study/{id}/review.
func (h *StudyHandler) MarkReview(w http.ResponseWriter, r *http.Request) {
	userID, sessionID, ok := requireUserAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	state, err := h.studyService.MarkReview(r.Context(), userID, sessionID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to defer card")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, state)
}

// Restart handles POST /study/{id}/restart.
func (h *StudyHandler) Restart(w http.ResponseWriter, r *http.Request) {
	userID, sessionID, ok := requireUserAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	state, err := h.studyService.Restart(r.Context(), userID, sessionID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to restart study session")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, state)
}

// Complete handles POST /study/{id}/complete. A stale streak conflict
// still returns the persisted progress so clients can show fresh totals.
func (h *StudyHandler) Complete(w http.ResponseWriter, r *http.Request) {
	userID, sessionID, ok := requireUserAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	progress, err := h.studyService.Complete(r.Context(), userID, sessionID)
	if err != nil {
		if errors.Is(err, service.ErrStaleStudyRecord) && progress != nil {
			shared.RespondWithJSON(w, r, http.StatusConflict, newProgressResponse(progress))
			return
		}
		HandleAPIError(w, r, err, "Failed to complete study session")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, newProgressResponse(progress))
}
