package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/placechase/placechase-api/internal/game"
	"github.com/placechase/placechase-api/internal/geo"
	"github.com/placechase/placechase-api/internal/models"
)

// CreateGame starts a new session and returns its first-round snapshot.
// Creation is blocked until a map credential is configured, since no round
// can render without one.
// @Summary Start a new game
// @Tags Game
// @Produce json
// @Success 201 {object} models.GameSnapshot
// @Failure 409 {object} map[string]string "Setup required"
// @Router /games [post]
func (h *Handler) CreateGame(w http.ResponseWriter, r *http.Request) {
	if !h.mapsConfigured() {
		h.errorResponse(w, http.StatusConflict, "Map provider credential not configured")
		return
	}

	snap, err := h.manager.Create(r.Context())
	if err != nil {
		h.logger.Errorw("Failed to create game session", "error", err)
		h.errorResponse(w, http.StatusInternalServerError, "Could not start game")
		return
	}
	h.jsonResponse(w, http.StatusCreated, snap)
}

// GetGame returns the session snapshot.
func (h *Handler) GetGame(w http.ResponseWriter, r *http.Request) {
	machine, ok := h.machineFor(w, r)
	if !ok {
		return
	}
	h.jsonResponse(w, http.StatusOK, machine.Snapshot())
}

// ResolveLocation is the provider callback reporting the coordinate street
// imagery actually rendered at, or that none was found near the target.
func (h *Handler) ResolveLocation(w http.ResponseWriter, r *http.Request) {
	machine, ok := h.machineFor(w, r)
	if !ok {
		return
	}

	var req models.ResolveLocationRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	var err error
	if req.Unresolved {
		err = machine.MarkUnresolved(req.Round)
	} else {
		err = machine.ResolveLocation(req.Round, geo.Point{Lat: req.Lat, Lng: req.Lng})
	}
	if errors.Is(err, game.ErrStaleRound) {
		// Late callbacks for a finished round are expected; acknowledge
		// and drop them.
		h.jsonResponse(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}
	if err != nil {
		h.errorResponse(w, http.StatusConflict, err.Error())
		return
	}
	h.jsonResponse(w, http.StatusOK, machine.Snapshot())
}

// SubmitGuess places or replaces the player's pin for the current round.
func (h *Handler) SubmitGuess(w http.ResponseWriter, r *http.Request) {
	machine, ok := h.machineFor(w, r)
	if !ok {
		return
	}

	var req models.GuessRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	if err := machine.SubmitGuess(geo.Point{Lat: req.Lat, Lng: req.Lng}); err != nil {
		h.errorResponse(w, http.StatusConflict, err.Error())
		return
	}
	h.jsonResponse(w, http.StatusOK, machine.Snapshot())
}

// ConfirmGuess scores the current round against the freshest resolved
// location.
func (h *Handler) ConfirmGuess(w http.ResponseWriter, r *http.Request) {
	machine, ok := h.machineFor(w, r)
	if !ok {
		return
	}

	result, err := machine.ConfirmGuess()
	switch {
	case errors.Is(err, game.ErrNoGuess):
		// Confirm with no pin is a disabled action in the UI; nothing
		// changes server-side either.
		h.errorResponse(w, http.StatusConflict, "No guess placed")
		return
	case err != nil:
		h.errorResponse(w, http.StatusConflict, err.Error())
		return
	}

	h.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"result":   result,
		"snapshot": machine.Snapshot(),
	})
}

// AdvanceRound moves to the next round or to the complete state.
func (h *Handler) AdvanceRound(w http.ResponseWriter, r *http.Request) {
	machine, ok := h.machineFor(w, r)
	if !ok {
		return
	}

	snap, err := machine.Advance()
	if err != nil {
		h.errorResponse(w, http.StatusConflict, err.Error())
		return
	}
	h.jsonResponse(w, http.StatusOK, snap)
}

// SubmitPlayer records the player's name at game end and persists the
// result. Storage failure never blocks finishing the game.
func (h *Handler) SubmitPlayer(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req models.SubmitPlayerRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.manager.SubmitName(r.Context(), id, req.PlayerName)
	switch {
	case errors.Is(err, game.ErrSessionNotFound):
		h.errorResponse(w, http.StatusNotFound, "Game not found")
		return
	case errors.Is(err, game.ErrNotComplete):
		h.errorResponse(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		h.logger.Errorw("Name submission failed", "game", id, "error", err)
		h.errorResponse(w, http.StatusInternalServerError, "Could not finish game")
		return
	}

	if resp.Saved {
		if scores, err := h.rankedView(r.Context(), 0); err == nil {
			resp.HighScores = scores
		}
	}
	h.jsonResponse(w, http.StatusOK, resp)
}

// RestartGame resets the session for a fresh playthrough.
func (h *Handler) RestartGame(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	snap, err := h.manager.Restart(id)
	if errors.Is(err, game.ErrSessionNotFound) {
		h.errorResponse(w, http.StatusNotFound, "Game not found")
		return
	}
	if err != nil {
		h.errorResponse(w, http.StatusConflict, err.Error())
		return
	}
	h.jsonResponse(w, http.StatusOK, snap)
}

func (h *Handler) machineFor(w http.ResponseWriter, r *http.Request) (*game.Machine, bool) {
	id := chi.URLParam(r, "id")
	machine, err := h.manager.Get(id)
	if err != nil {
		h.errorResponse(w, http.StatusNotFound, "Game not found")
		return nil, false
	}
	return machine, true
}
