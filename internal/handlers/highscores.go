package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/placechase/placechase-api/internal/geo"
	"github.com/placechase/placechase-api/internal/leaderboard"
	"github.com/placechase/placechase-api/internal/models"
)

// GetHighScores returns the ranked leaderboard view.
// @Summary Ranked high scores
// @Tags Leaderboard
// @Produce json
// @Param limit query int false "Limit" default(10)
// @Success 200 {object} map[string]interface{} "High scores"
// @Router /highscores [get]
func (h *Handler) GetHighScores(w http.ResponseWriter, r *http.Request) {
	limit := leaderboard.DefaultDisplayLimit
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}

	scores, err := h.rankedView(r.Context(), limit)
	if err != nil {
		h.logger.Errorw("Failed to fetch high scores", "error", err)
		h.errorResponse(w, http.StatusInternalServerError, "Could not load high scores")
		return
	}

	h.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"highScores": scores,
		"total":      len(scores),
	})
}

// DedupHighScores runs the duplicate-name maintenance pass: every player
// keeps only their lowest-distance entry. Safe to run repeatedly.
func (h *Handler) DedupHighScores(w http.ResponseWriter, r *http.Request) {
	result, err := h.store.RemoveDuplicatesByName(r.Context())
	if err != nil {
		h.logger.Errorw("Dedup maintenance failed", "error", err)
		h.errorResponse(w, http.StatusInternalServerError, "Dedup failed")
		return
	}
	h.jsonResponse(w, http.StatusOK, result)
}

// rankedView fetches the capped table and decorates it for display.
// A limit <= 0 applies the default display cap.
func (h *Handler) rankedView(ctx context.Context, limit int) ([]models.RankedEntry, error) {
	if limit <= 0 {
		limit = leaderboard.DefaultDisplayLimit
	}
	entries, err := h.store.FetchRanked(ctx, limit)
	if err != nil {
		return nil, err
	}

	ranked := make([]models.RankedEntry, 0, len(entries))
	for i, e := range entries {
		ranked = append(ranked, models.RankedEntry{
			LeaderboardEntry:  e,
			Rank:              i + 1,
			FormattedDistance: geo.FormatDistance(e.TotalDistance),
			FormattedDate:     e.RecordedAt.Format("2006-01-02"),
			FormattedTime:     e.RecordedAt.Format("15:04:05"),
		})
	}
	return ranked, nil
}
