package tasks

import (
	"fmt"

	"github.com/openclaw/playlister/internal/models"
)

// ProgressUpdate represents a progress event during a refresh run.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	SearchTopics Phase = iota
	FindPlaylist
	CreatePlaylist
	FetchSnapshot
	InsertEpisodes
	UpdateDescription
)

func (p Phase) String() string {
	switch p {
	case SearchTopics:
		return "search_topics"
	case FindPlaylist:
		return "find_playlist"
	case CreatePlaylist:
		return "create_playlist"
	case FetchSnapshot:
		return "fetch_snapshot"
	case InsertEpisodes:
		return "insert_episodes"
	case UpdateDescription:
		return "update_description"
	default:
		return ""
	}
}

func searchStartUpdate(total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SearchTopics,
		Step:    0,
		Total:   total,
		Message: fmt.Sprintf("Searching episodes for %d topics...", total),
	}
}

func searchDoneUpdate(total, found int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SearchTopics,
		Step:    total,
		Total:   total,
		Message: fmt.Sprintf("Found %d episodes across %d topics", found, total),
	}
}

func findPlaylistUpdate(name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FindPlaylist,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Looking up playlist %q...", name),
	}
}

func createPlaylistUpdate(pl *models.Playlist) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CreatePlaylist,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Playlist created: %s (ID: %s)", pl.Name, pl.ID),
		Data:    pl,
	}
}

func fetchSnapshotUpdate(itemCount int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchSnapshot,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Playlist currently holds %d items", itemCount),
	}
}

func insertChunkUpdate(step, total, count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   InsertEpisodes,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Inserting %d episodes...", step, total, count),
	}
}

func updateDescriptionUpdate(description string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   UpdateDescription,
		Step:    1,
		Total:   1,
		Message: "Updating playlist description...",
		Data:    description,
	}
}
