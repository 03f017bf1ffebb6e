package models

import (
	"fmt"
	"time"
)

// RefreshRecord is the persisted outcome of a single refresh run.
//
// Implements [Model]; stored by repositories.RefreshRepository.
type RefreshRecord struct {
	id           string
	sequence     int
	playlistID   string
	playlistName string
	strategy     string
	sortBy       string
	found        int
	inserted     int
	createdAt    time.Time
	updatedAt    time.Time
	deletedAt    *time.Time
}

// NewRefreshRecord creates a refresh record for the given run outcome.
// The ID is assigned by the repository on Create.
func NewRefreshRecord(sequence int, playlistID, playlistName, strategy, sortBy string, found, inserted int) *RefreshRecord {
	now := time.Now()
	return &RefreshRecord{
		sequence:     sequence,
		playlistID:   playlistID,
		playlistName: playlistName,
		strategy:     strategy,
		sortBy:       sortBy,
		found:        found,
		inserted:     inserted,
		createdAt:    now,
		updatedAt:    now,
	}
}

func (r *RefreshRecord) ID() string            { return r.id }
func (r *RefreshRecord) Sequence() int         { return r.sequence }
func (r *RefreshRecord) PlaylistID() string    { return r.playlistID }
func (r *RefreshRecord) PlaylistName() string  { return r.playlistName }
func (r *RefreshRecord) Strategy() string      { return r.strategy }
func (r *RefreshRecord) SortBy() string        { return r.sortBy }
func (r *RefreshRecord) Found() int            { return r.found }
func (r *RefreshRecord) Inserted() int         { return r.inserted }
func (r *RefreshRecord) CreatedAt() time.Time  { return r.createdAt }
func (r *RefreshRecord) UpdatedAt() time.Time  { return r.updatedAt }
func (r *RefreshRecord) DeletedAt() *time.Time { return r.deletedAt }

func (r *RefreshRecord) SetID(id string)             { r.id = id }
func (r *RefreshRecord) SetCreatedAt(t time.Time)    { r.createdAt = t }
func (r *RefreshRecord) SetUpdatedAt(t time.Time)    { r.updatedAt = t }
func (r *RefreshRecord) SetDeletedAt(t *time.Time)   { r.deletedAt = t }
func (r *RefreshRecord) SetCounts(found, ins int)    { r.found, r.inserted = found, ins }
func (r *RefreshRecord) SetSequence(sequence int)    { r.sequence = sequence }
func (r *RefreshRecord) SetPlaylistID(id string)     { r.playlistID = id }
func (r *RefreshRecord) SetPlaylistName(name string) { r.playlistName = name }

// Validate checks the record's data before persistence.
func (r *RefreshRecord) Validate() error {
	if r.playlistID == "" {
		return fmt.Errorf("playlist_id is required")
	}
	if r.playlistName == "" {
		return fmt.Errorf("playlist_name is required")
	}
	if r.strategy == "" {
		return fmt.Errorf("strategy is required")
	}
	if r.found < 0 || r.inserted < 0 {
		return fmt.Errorf("counts cannot be negative")
	}
	if r.inserted > r.found {
		return fmt.Errorf("inserted count %d exceeds found count %d", r.inserted, r.found)
	}
	return nil
}

// CachedEpisode is an episode row recorded when a refresh inserts it, keyed by URI.
type CachedEpisode struct {
	URI         string
	Name        string
	ShowName    string
	ReleaseDate string
	Topic       string
	RefreshID   string
	CreatedAt   time.Time
}
