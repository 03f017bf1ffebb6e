// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"testing"

	"github.com/openclaw/playlister/internal/models"
)

// MockSearchService is a test double for [services.SearchService] returning a
// scripted result set per query.
type MockSearchService struct {
	Results map[string][]models.Episode
	Err     error
	Queries []string
	Limits  []int
}

func (m *MockSearchService) SearchEpisodes(ctx context.Context, query string, limit int) ([]models.Episode, error) {
	m.Queries = append(m.Queries, query)
	m.Limits = append(m.Limits, limit)
	if m.Err != nil {
		return nil, m.Err
	}
	episodes := m.Results[query]
	if limit < len(episodes) {
		episodes = episodes[:limit]
	}
	return episodes, nil
}

// MockPlaylistService is a test double for [services.PlaylistService]. It keeps
// playlist contents in memory and records every write call.
type MockPlaylistService struct {
	Playlists []models.Playlist
	Items     map[string][]string
	Err       error

	Created  []models.Playlist
	Inserts  []InsertCall
	Replaces []ReplaceCall
	Details  map[string]string
}

// InsertCall records one InsertItems invocation.
type InsertCall struct {
	PlaylistID string
	URIs       []string
	Position   int
}

// ReplaceCall records one ReplaceItems invocation.
type ReplaceCall struct {
	PlaylistID string
	URIs       []string
}

func NewMockPlaylistService() *MockPlaylistService {
	return &MockPlaylistService{
		Items:   map[string][]string{},
		Details: map[string]string{},
	}
}

func (m *MockPlaylistService) GetPlaylists(ctx context.Context) ([]models.Playlist, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Playlists, nil
}

func (m *MockPlaylistService) GetPlaylistItemURIs(ctx context.Context, playlistID string) ([]string, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Items[playlistID], nil
}

func (m *MockPlaylistService) CreatePlaylist(ctx context.Context, name, description string, public bool) (*models.Playlist, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	playlist := models.Playlist{
		ID:          "created-" + name,
		Name:        name,
		Description: description,
		Public:      public,
		URL:         "https://open.spotify.com/playlist/created-" + name,
	}
	m.Created = append(m.Created, playlist)
	m.Playlists = append(m.Playlists, playlist)
	return &playlist, nil
}

func (m *MockPlaylistService) InsertItems(ctx context.Context, playlistID string, uris []string, position int) error {
	if m.Err != nil {
		return m.Err
	}
	m.Inserts = append(m.Inserts, InsertCall{PlaylistID: playlistID, URIs: uris, Position: position})
	existing := m.Items[playlistID]
	if position < 0 || position >= len(existing) {
		m.Items[playlistID] = append(existing, uris...)
	} else {
		updated := make([]string, 0, len(existing)+len(uris))
		updated = append(updated, existing[:position]...)
		updated = append(updated, uris...)
		updated = append(updated, existing[position:]...)
		m.Items[playlistID] = updated
	}
	return nil
}

func (m *MockPlaylistService) ReplaceItems(ctx context.Context, playlistID string, uris []string) error {
	if m.Err != nil {
		return m.Err
	}
	m.Replaces = append(m.Replaces, ReplaceCall{PlaylistID: playlistID, URIs: uris})
	m.Items[playlistID] = append([]string{}, uris...)
	return nil
}

func (m *MockPlaylistService) UpdateDetails(ctx context.Context, playlistID, description string) error {
	if m.Err != nil {
		return m.Err
	}
	m.Details[playlistID] = description
	return nil
}

func (m *MockPlaylistService) Name() string { return "mock" }

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// SeqRoundTripper returns a different response per request, in order,
// repeating the last one when the script runs out.
type SeqRoundTripper struct {
	responses []*http.Response
	calls     int
}

func NewSeqRoundTripper(responses ...*http.Response) *SeqRoundTripper {
	return &SeqRoundTripper{responses: responses}
}

func (s *SeqRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	idx := s.calls
	if idx >= len(s.responses) {
		idx = len(s.responses) - 1
	}
	s.calls++
	return s.responses[idx], nil
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
