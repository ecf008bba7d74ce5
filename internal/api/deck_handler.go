package api

import (
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/Beastie7/FlashLearn/internal/api/shared"
	"github.com/Beastie7/FlashLearn/internal/service"
)

// defaultGenerationCount is used when a generate request omits count.
const defaultGenerationCount = 10

// DeckHandler handles deck CRUD and generation requests.
type DeckHandler struct {
	deckService service.DeckService
	validator   *validator.Validate
}

// NewDeckHandler creates a new DeckHandler.
func NewDeckHandler(deckService service.DeckService) *DeckHandler {
	return &DeckHandler{
		deckService: deckService,
		validator:   validator.New(),
	}
}

// Create handles POST /decks.
func (h *DeckHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req CreateDeckRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	cards := make([]service.CardInput, 0, len(req.Cards))
	for _, c := range req.Cards {
		cards = append(cards, service.CardInput{Front: c.Front, Back: c.Back})
	}

	deck, deckCards, err := h.deckService.CreateDeck(r.Context(), userID, req.Title, req.Description, cards)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create deck")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, newDeckResponse(deck, deckCards))
}

// Get handles GET /decks/{id}.
func (h *DeckHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, deckID, ok := requireUserAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	deck, cards, err := h.deckService.GetDeck(r.Context(), userID, deckID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to load deck")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, newDeckResponse(deck, cards))
}

// Update handles PUT /decks/{id}.
func (h *DeckHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, deckID, ok := requireUserAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	var req UpdateDeckRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	deck, err := h.deckService.UpdateDeck(r.Context(), userID, deckID, req.Title, req.Description)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update deck")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, newDeckResponse(deck, nil))
}

// Delete handles DELETE /decks/{id}.
func (h *DeckHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, deckID, ok := requireUserAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := h.deckService.DeleteDeck(r.Context(), userID, deckID); err != nil {
		HandleAPIError(w, r, err, "Failed to delete deck")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// List handles GET /decks.
func (h *DeckHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	summaries, err := h.deckService.ListDecks(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list decks")
		return
	}

	resp := make([]DeckSummaryResponse, 0, len(summaries))
	for _, s := range summaries {
		resp = append(resp, DeckSummaryResponse{
			ID:            s.ID,
			Title:         s.Title,
			CardCount:     s.CardCount,
			MasteredCount: s.MasteredCount,
		})
	}
	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}

// Generate handles POST /decks/generate, queueing background AI
// generation of a new deck.
func (h *DeckHandler) Generate(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req GenerateDeckRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}
	if req.Count == 0 {
		req.Count = defaultGenerationCount
	}

	if err := h.deckService.RequestGeneration(r.Context(), userID, req.Topic, req.Count); err != nil {
		HandleAPIError(w, r, err, "Failed to request deck generation")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusAccepted, map[string]string{
		"status": "generation queued",
	})
}
