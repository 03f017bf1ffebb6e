package tasks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openclaw/playlister/internal/models"
	"github.com/openclaw/playlister/internal/services"
	"github.com/openclaw/playlister/internal/shared"
)

// writeBatchSize is the provider's cap on URIs per playlist write request.
const writeBatchSize = 100

// RefreshOptions configures a single refresh run.
type RefreshOptions struct {
	PlaylistName string   // Target playlist, matched by exact name
	Topics       []string // Normalized topics to search
	Strategy     Strategy // How queries are issued and capped
	Sort         SortMode // Ordering applied before selection
	Public       bool     // Visibility used when the playlist must be created
}

// RefreshResult contains the outcome of a refresh run.
type RefreshResult struct {
	TopicCounts    []models.TopicCount // Episodes contributed per topic
	Candidates     []models.Candidate  // The deduplicated batch, in insertion order
	Inserted       int                 // Episodes actually written to the playlist
	AlreadyPresent int                 // Batch episodes skipped because the playlist had them
	Created        bool                // Whether the playlist was created this run
	Playlist       *models.Playlist    // The target playlist after the run
	Description    string              // Description stamped on the playlist
}

// RefreshEngine syncs episode batches into the target playlist.
type RefreshEngine struct {
	searcher  *Searcher
	playlists services.PlaylistService
	now       func() time.Time
}

// NewRefreshEngine creates a [RefreshEngine] from a search provider and a
// playlist provider.
func NewRefreshEngine(search services.SearchService, playlists services.PlaylistService) *RefreshEngine {
	return &RefreshEngine{
		searcher:  NewSearcher(search),
		playlists: playlists,
		now:       time.Now,
	}
}

// PlanInserts returns the batch URIs absent from the snapshot, preserving
// batch order. The snapshot is the playlist's current contents; comparing
// URIs only makes the plan immune to renamed episodes or shows.
func PlanInserts(batch []string, snapshot []string) []string {
	present := make(map[string]bool, len(snapshot))
	for _, uri := range snapshot {
		present[uri] = true
	}

	var missing []string
	for _, uri := range batch {
		if !present[uri] {
			missing = append(missing, uri)
		}
	}
	return missing
}

// Refresh runs the full pipeline: collect a batch for the topics, then sync
// it into the playlist, creating the playlist if it does not exist.
//
// A batch where every episode is already present is a normal outcome with
// Inserted zero. An entirely empty batch returns an error wrapping
// [shared.ErrNoEpisodes] so callers can report it gently.
func (e *RefreshEngine) Refresh(ctx context.Context, progress chan<- ProgressUpdate, opts RefreshOptions) (*RefreshResult, error) {
	if len(opts.Topics) == 0 {
		return nil, fmt.Errorf("%w: add topics before refreshing", shared.ErrNoTopics)
	}
	if opts.Strategy == nil {
		return nil, fmt.Errorf("%w: search strategy is required", shared.ErrInvalidArgument)
	}

	sendProgress(progress, searchStartUpdate(len(opts.Topics)))

	batch, counts, err := e.searcher.Collect(ctx, opts.Strategy, opts.Topics, opts.Sort)
	if err != nil {
		return nil, err
	}

	sendProgress(progress, searchDoneUpdate(len(opts.Topics), len(batch)))

	result := &RefreshResult{
		TopicCounts: counts,
		Candidates:  batch,
		Description: e.describe(opts.Topics),
	}

	if len(batch) == 0 {
		return nil, fmt.Errorf("%w for topics: %s", shared.ErrNoEpisodes, strings.Join(opts.Topics, ", "))
	}

	uris := make([]string, len(batch))
	for i, c := range batch {
		uris[i] = c.Episode.URI
	}

	sendProgress(progress, findPlaylistUpdate(opts.PlaylistName))

	target, err := e.findPlaylist(ctx, opts.PlaylistName)
	if err != nil {
		return nil, err
	}

	if target == nil {
		// Creation already stamps the description, no separate update needed.
		if err := e.createAndFill(ctx, progress, opts, uris, result); err != nil {
			return nil, err
		}
		return result, nil
	}

	if err := e.mergeInto(ctx, progress, target, uris, result); err != nil {
		return nil, err
	}

	sendProgress(progress, updateDescriptionUpdate(result.Description))

	if err := e.playlists.UpdateDetails(ctx, target.ID, result.Description); err != nil {
		return nil, remediate(fmt.Errorf("failed to update playlist description: %w", err))
	}
	result.Playlist.Description = result.Description

	return result, nil
}

// findPlaylist returns the user's playlist with the exact name, or nil when
// no playlist matches.
func (e *RefreshEngine) findPlaylist(ctx context.Context, name string) (*models.Playlist, error) {
	playlists, err := e.playlists.GetPlaylists(ctx)
	if err != nil {
		return nil, remediate(fmt.Errorf("failed to list playlists: %w", err))
	}

	for i := range playlists {
		if playlists[i].Name == name {
			return &playlists[i], nil
		}
	}
	return nil, nil
}

// createAndFill creates the playlist and writes the whole batch: the first
// chunk replaces the (empty) contents, the rest append in order.
func (e *RefreshEngine) createAndFill(ctx context.Context, progress chan<- ProgressUpdate, opts RefreshOptions, uris []string, result *RefreshResult) error {
	created, err := e.playlists.CreatePlaylist(ctx, opts.PlaylistName, result.Description, opts.Public)
	if err != nil {
		return remediate(fmt.Errorf("failed to create playlist %q: %w", opts.PlaylistName, err))
	}

	sendProgress(progress, createPlaylistUpdate(created))

	chunks := chunkURIs(uris)
	for i, chunk := range chunks {
		sendProgress(progress, insertChunkUpdate(i+1, len(chunks), len(chunk)))
		if i == 0 {
			err = e.playlists.ReplaceItems(ctx, created.ID, chunk)
		} else {
			err = e.playlists.InsertItems(ctx, created.ID, chunk, -1)
		}
		if err != nil {
			return remediate(fmt.Errorf("failed to write episodes to playlist %q: %w", created.Name, err))
		}
	}

	created.ItemCount = len(uris)
	result.Created = true
	result.Inserted = len(uris)
	result.Playlist = created
	return nil
}

// mergeInto diffs the batch against the playlist's current contents and
// prepends only the missing episodes, chunked at the provider's write cap.
// Positions advance per chunk so the batch order survives at the top of the
// playlist.
func (e *RefreshEngine) mergeInto(ctx context.Context, progress chan<- ProgressUpdate, target *models.Playlist, uris []string, result *RefreshResult) error {
	snapshot, err := e.playlists.GetPlaylistItemURIs(ctx, target.ID)
	if err != nil {
		return remediate(fmt.Errorf("failed to read playlist %q: %w", target.Name, err))
	}

	sendProgress(progress, fetchSnapshotUpdate(len(snapshot)))

	missing := PlanInserts(uris, snapshot)
	result.AlreadyPresent = len(uris) - len(missing)
	result.Playlist = target

	chunks := chunkURIs(missing)
	position := 0
	for i, chunk := range chunks {
		sendProgress(progress, insertChunkUpdate(i+1, len(chunks), len(chunk)))
		if err := e.playlists.InsertItems(ctx, target.ID, chunk, position); err != nil {
			return remediate(fmt.Errorf("failed to insert episodes into playlist %q: %w", target.Name, err))
		}
		position += len(chunk)
	}

	target.ItemCount = len(snapshot) + len(missing)
	result.Inserted = len(missing)
	return nil
}

// describe builds the description stamped on the playlist after each run.
func (e *RefreshEngine) describe(topics []string) string {
	return fmt.Sprintf("Topics: %s. Last updated %s by playlister.",
		strings.Join(topics, ", "), e.now().Format("2006-01-02"))
}

func chunkURIs(uris []string) [][]string {
	var chunks [][]string
	for len(uris) > 0 {
		n := writeBatchSize
		if len(uris) < n {
			n = len(uris)
		}
		chunks = append(chunks, uris[:n])
		uris = uris[n:]
	}
	return chunks
}

// remediate appends actionable guidance when the provider refused a write.
// A 403 on playlist modification almost always means the account is not
// allowlisted on the app in development mode.
func remediate(err error) error {
	if !errors.Is(err, shared.ErrNotAuthorized) {
		return err
	}
	return fmt.Errorf(`%w

The Spotify app likely runs in development mode and this account is not allowlisted:
  1. Open https://developer.spotify.com/dashboard and select your app
  2. Go to Settings -> User Management
  3. Add this account's name and email, then save and retry`, err)
}

// sendProgress sends an update without blocking when the consumer is slow or absent.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}
