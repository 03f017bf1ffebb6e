package tasks

import (
	"sort"

	"github.com/openclaw/playlister/internal/models"
)

// NormalizeReleaseDate pads a partial ISO-8601 release date to a full
// YYYY-MM-DD string so dates of mixed precision compare lexicographically.
//
// "2024" becomes "2024-01-01" and "2024-03" becomes "2024-03-01". Full dates
// and anything else (including the empty string) pass through unchanged.
func NormalizeReleaseDate(date string) string {
	switch len(date) {
	case 4:
		return date + "-01-01"
	case 7:
		return date + "-01"
	default:
		return date
	}
}

// SortEpisodesByRecency orders episodes newest first by normalized release
// date. The sort is stable, so episodes sharing a date keep the provider's
// relevance order. Episodes without a release date sort last.
func SortEpisodesByRecency(episodes []models.Episode) {
	sort.SliceStable(episodes, func(i, j int) bool {
		return NormalizeReleaseDate(episodes[i].ReleaseDate) > NormalizeReleaseDate(episodes[j].ReleaseDate)
	})
}
