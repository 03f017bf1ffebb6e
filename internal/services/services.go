package services

import (
	"context"

	"github.com/openclaw/playlister/internal/models"
	"golang.org/x/oauth2"
)

// SearchService is the episode search provider consumed by the search strategy.
type SearchService interface {
	// SearchEpisodes runs a provider query and returns episodes in the
	// provider's relevance order. The limit is capped at the provider's
	// maximum page size.
	SearchEpisodes(ctx context.Context, query string, limit int) ([]models.Episode, error)
}

// PlaylistService is the playlist provider consumed by playlist state sync.
type PlaylistService interface {
	// GetPlaylists retrieves all playlists for the authenticated user,
	// following pagination until exhausted.
	GetPlaylists(ctx context.Context) ([]models.Playlist, error)

	// GetPlaylistItemURIs returns the item URIs currently in a playlist, in order.
	GetPlaylistItemURIs(ctx context.Context, playlistID string) ([]string, error)

	// CreatePlaylist creates a playlist for the current user.
	CreatePlaylist(ctx context.Context, name, description string, public bool) (*models.Playlist, error)

	// InsertItems inserts URIs at the given position. A negative position appends.
	InsertItems(ctx context.Context, playlistID string, uris []string, position int) error

	// ReplaceItems replaces the playlist's entire contents with the given URIs.
	ReplaceItems(ctx context.Context, playlistID string, uris []string) error

	// UpdateDetails updates the playlist description. The name is never changed.
	UpdateDetails(ctx context.Context, playlistID, description string) error

	// Name returns the provider name (e.g. "Spotify").
	Name() string
}

// OAuthService is implemented by providers that authenticate via OAuth2
// authorization code flow with a local callback server.
type OAuthService interface {
	// GetAuthURL returns the provider authorization URL for the given state token.
	GetAuthURL(state string) string

	// GetOAuthConfig exposes the underlying [oauth2.Config] for the callback handler.
	GetOAuthConfig() *oauth2.Config

	// OAuthenticate installs a token (typically carrying a refresh token)
	// as the client's credential source.
	OAuthenticate(ctx context.Context, token *oauth2.Token) error
}
