package models

import "time"

// LeaderboardEntry is the persisted shape of one player's best result.
// Lower totalDistance is better; score is derived display data only.
// The JSON layout matches the existing stored data and must not change.
type LeaderboardEntry struct {
	ID            string    `json:"id"`
	PlayerName    string    `json:"playerName"`
	Score         int       `json:"score,omitempty"`
	TotalDistance float64   `json:"totalDistance"`
	RecordedAt    time.Time `json:"date"`
	Rounds        int       `json:"rounds"`
}

// LocalScores is the single blob the local fallback tier stores. It is
// replaced wholesale on every write.
type LocalScores struct {
	HighScores  []LeaderboardEntry `json:"highScores"`
	LastUpdated time.Time          `json:"lastUpdated"`
}

// UpsertStatus classifies the outcome of an upsert-best call.
type UpsertStatus string

const (
	UpsertInserted UpsertStatus = "inserted"
	UpsertImproved UpsertStatus = "improved"
	UpsertRejected UpsertStatus = "rejected"
)

// UpsertOutcome reports what an UpsertBest call did. OldDistance is set for
// improved and rejected outcomes; NewDistance for inserted and improved.
// Rank is the entry's 1-based position in the ranked table after the call
// (0 when it fell outside the capped view).
type UpsertOutcome struct {
	Status      UpsertStatus `json:"status"`
	OldDistance float64      `json:"oldDistance,omitempty"`
	NewDistance float64      `json:"newDistance,omitempty"`
	Rank        int          `json:"rank"`
	TopScore    bool         `json:"isHighScore"`
}

// DedupResult reports a RemoveDuplicatesByName maintenance run.
type DedupResult struct {
	RemovedCount   int                `json:"removedCount"`
	RemovedEntries []LeaderboardEntry `json:"removedEntries"`
}

// RankedEntry is the display projection of a leaderboard entry.
type RankedEntry struct {
	LeaderboardEntry
	Rank              int    `json:"rank"`
	FormattedDistance string `json:"formattedDistance"`
	FormattedDate     string `json:"formattedDate"`
	FormattedTime     string `json:"formattedTime"`
}
