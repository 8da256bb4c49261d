package handlers

import (
	"net/http"

	"github.com/placechase/placechase-api/internal/config"
	"github.com/placechase/placechase-api/internal/models"
)

func (h *Handler) mapsConfigured() bool {
	h.credMu.RLock()
	defer h.credMu.RUnlock()
	return h.mapsAPIKey != ""
}

// SetupStatus tells the UI whether a usable map credential exists. While it
// does not, the UI shows the credential-entry prompt and no round can start.
func (h *Handler) SetupStatus(w http.ResponseWriter, r *http.Request) {
	h.jsonResponse(w, http.StatusOK, models.SetupStatusResponse{
		Configured: h.mapsConfigured(),
	})
}

// Setup accepts a map-provider credential entered at runtime. Placeholder
// values from setup templates are rejected.
func (h *Handler) Setup(w http.ResponseWriter, r *http.Request) {
	var req models.SetupRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	if !config.ValidMapsKey(req.APIKey) {
		h.errorResponse(w, http.StatusBadRequest, "Invalid map provider credential")
		return
	}

	h.credMu.Lock()
	h.mapsAPIKey = req.APIKey
	h.credMu.Unlock()

	h.logger.Infow("Map provider credential configured")
	h.jsonResponse(w, http.StatusOK, models.SetupStatusResponse{Configured: true})
}

// MapsKey hands the credential to the UI loader so it can bootstrap the map
// and panorama widgets.
func (h *Handler) MapsKey(w http.ResponseWriter, r *http.Request) {
	h.credMu.RLock()
	key := h.mapsAPIKey
	h.credMu.RUnlock()

	if key == "" {
		h.errorResponse(w, http.StatusNotFound, "No map provider credential configured")
		return
	}
	h.jsonResponse(w, http.StatusOK, map[string]string{"apiKey": key})
}
