// Spotify API implementation of [SearchService] and [PlaylistService]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/openclaw/playlister/internal/models"
	"github.com/openclaw/playlister/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"

	// Spotify caps search and pagination page sizes at 50 items.
	MaxPageSize = 50
)

// searchMarket scopes episode search results; release dates vary by market.
const searchMarket = "US"

type followers struct {
	Total int `json:"total"`
}

// SpotifyUser represents a Spotify user profile.
type SpotifyUser struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name"`
	Email       string    `json:"email"`
	Country     string    `json:"country"`
	Product     string    `json:"product"` // premium, free, etc.
	Followers   followers `json:"followers"`
}

// SpotifyShow represents the show a podcast episode belongs to.
type SpotifyShow struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Publisher string `json:"publisher"`
	URI       string `json:"uri"`
}

// SpotifyEpisode represents a podcast episode object.
type SpotifyEpisode struct {
	ID                   string      `json:"id"`
	Name                 string      `json:"name"`
	Description          string      `json:"description"`
	ReleaseDate          string      `json:"release_date"`
	ReleaseDatePrecision string      `json:"release_date_precision"`
	DurationMS           int         `json:"duration_ms"`
	URI                  string      `json:"uri"`
	Show                 SpotifyShow `json:"show"`
}

// episodeSearchResponse is the /search payload for type=episode.
// Items can contain JSON nulls, hence the pointer slice.
type episodeSearchResponse struct {
	Episodes struct {
		Items []*SpotifyEpisode `json:"items"`
		Total int               `json:"total"`
		Next  *string           `json:"next"`
	} `json:"episodes"`
}

type externalURLs struct {
	Spotify string `json:"spotify"`
}

type owner struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

type playlistTracks struct {
	Total int `json:"total"`
}

// SpotifyPlaylist represents a Spotify playlist.
type SpotifyPlaylist struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Description  string         `json:"description"`
	Owner        owner          `json:"owner"`
	Public       bool           `json:"public"`
	Tracks       playlistTracks `json:"tracks"`
	ExternalURLs externalURLs   `json:"external_urls"`
	URI          string         `json:"uri"`
}

// SpotifyPaginatedPlaylists represents a paginated response of playlists.
type SpotifyPaginatedPlaylists struct {
	Items    []*SpotifyPlaylist `json:"items"`
	Total    int                `json:"total"`
	Limit    int                `json:"limit"`
	Offset   int                `json:"offset"`
	Next     *string            `json:"next"`
	Previous *string            `json:"previous"`
}

// playlistItemsPage is the /playlists/{id}/items payload, narrowed by a
// fields parameter to the item URIs and the next cursor.
type playlistItemsPage struct {
	Items []struct {
		Track *struct {
			URI string `json:"uri"`
		} `json:"track"`
	} `json:"items"`
	Next *string `json:"next"`
}

// APIError is a non-2xx Spotify response carrying the method, path, and the
// provider's error detail message when the body had one.
type APIError struct {
	StatusCode int
	Method     string
	Path       string
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("spotify %d on %s %s: %s", e.StatusCode, e.Method, e.Path, e.Detail)
	}
	return fmt.Sprintf("spotify %d on %s %s", e.StatusCode, e.Method, e.Path)
}

// Unwrap maps authorization statuses onto shared sentinels so callers can
// use errors.Is without knowing HTTP codes.
func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusUnauthorized:
		return shared.ErrTokenExpired
	case http.StatusForbidden:
		return shared.ErrNotAuthorized
	default:
		return nil
	}
}

// spotifyErrorBody is the JSON error envelope Spotify returns on failures.
type spotifyErrorBody struct {
	Error struct {
		Status  int    `json:"status"`
		Message string `json:"message"`
	} `json:"error"`
}

// SpotifyService implements [SearchService] and [PlaylistService] against the
// Spotify Web API. Uses [oauth2] for authentication; requests are paced with a
// [rate.Limiter] so pagination loops stay polite.
type SpotifyService struct {
	config      *oauth2.Config
	token       *oauth2.Token
	httpClient  *http.Client
	limiter     *rate.Limiter
	credentials map[string]string
}

// NewSpotifyService creates a new Spotify service with the given OAuth2 credentials.
func NewSpotifyService(credentials map[string]string) (*SpotifyService, error) {
	clientID, ok := credentials["client_id"]
	if !ok || clientID == "" {
		return nil, fmt.Errorf("missing client_id in credentials")
	}

	clientSecret, ok := credentials["client_secret"]
	if !ok || clientSecret == "" {
		return nil, fmt.Errorf("missing client_secret in credentials")
	}

	redirectURI, ok := credentials["redirect_uri"]
	if !ok || redirectURI == "" {
		redirectURI = "http://localhost:8080/callback"
	}

	config := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURI,
		Scopes: []string{
			"playlist-modify-public",
			"playlist-modify-private",
			"playlist-read-private",
		},
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyAuthURL,
			TokenURL: spotifyTokenURL,
		},
	}

	return &SpotifyService{
		config:      config,
		httpClient:  http.DefaultClient,
		limiter:     rate.NewLimiter(rate.Limit(4), 2),
		credentials: credentials,
	}, nil
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// GetAuthURL returns the OAuth2 authorization URL for user login.
func (s *SpotifyService) GetAuthURL(state string) string {
	return s.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// GetOAuthConfig exposes the OAuth2 config for the callback handler.
func (s *SpotifyService) GetOAuthConfig() *oauth2.Config {
	return s.config
}

// OAuthenticate installs the given token as the client credential source.
//
// When the token carries a refresh token the underlying [oauth2.Config]
// client refreshes the short-lived bearer token automatically, which is what
// repeated daily refresh runs rely on.
func (s *SpotifyService) OAuthenticate(ctx context.Context, token *oauth2.Token) error {
	if token == nil || (token.AccessToken == "" && token.RefreshToken == "") {
		return fmt.Errorf("%w: empty token", shared.ErrInvalidArgument)
	}
	s.token = token
	s.httpClient = s.config.Client(ctx, token)
	return nil
}

// Authenticate performs OAuth2 authentication with Spotify. Expects an
// "access_token", "refresh_token", or "auth_code" in credentials.
func (s *SpotifyService) Authenticate(ctx context.Context, credentials map[string]string) error {
	if accessToken, ok := credentials["access_token"]; ok && accessToken != "" {
		return s.OAuthenticate(ctx, &oauth2.Token{
			AccessToken:  accessToken,
			RefreshToken: credentials["refresh_token"],
		})
	}

	if refreshToken, ok := credentials["refresh_token"]; ok && refreshToken != "" {
		return s.OAuthenticate(ctx, &oauth2.Token{RefreshToken: refreshToken})
	}

	if authCode, ok := credentials["auth_code"]; ok && authCode != "" {
		token, err := s.config.Exchange(ctx, authCode)
		if err != nil {
			return fmt.Errorf("failed to exchange auth code: %w", err)
		}
		return s.OAuthenticate(ctx, token)
	}

	return fmt.Errorf("%w: missing access_token, refresh_token, or auth_code", shared.ErrMissingCredentials)
}

// doRequest performs an authenticated HTTP request to the Spotify API.
//
// Non-2xx responses become an [*APIError] carrying the provider's detail
// message when the error body is parseable.
func (s *SpotifyService) doRequest(ctx context.Context, method, endpoint string, body any, result any) error {
	if s.token == nil {
		return fmt.Errorf("%w: call Authenticate first", shared.ErrNotAuthenticated)
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait failed: %w", err)
	}

	var reqBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, spotifyBaseURL+endpoint, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+s.token.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Method: method, Path: endpoint}
		var errBody spotifyErrorBody
		if data, readErr := io.ReadAll(resp.Body); readErr == nil {
			if json.Unmarshal(data, &errBody) == nil {
				apiErr.Detail = errBody.Error.Message
			}
		}
		return apiErr
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil && err != io.EOF {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// Me retrieves the current authenticated user's profile.
func (s *SpotifyService) Me(ctx context.Context) (*SpotifyUser, error) {
	var user SpotifyUser
	if err := s.doRequest(ctx, http.MethodGet, "/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// SearchEpisodes searches for podcast episodes matching the query.
//
// Results keep the provider's relevance order; their Rank records that
// position. Null items and items without a URI are dropped.
func (s *SpotifyService) SearchEpisodes(ctx context.Context, query string, limit int) ([]models.Episode, error) {
	if limit <= 0 {
		limit = 10
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("type", "episode")
	params.Set("market", searchMarket)
	params.Set("limit", fmt.Sprintf("%d", limit))

	var response episodeSearchResponse
	if err := s.doRequest(ctx, http.MethodGet, "/search?"+params.Encode(), nil, &response); err != nil {
		return nil, err
	}

	episodes := make([]models.Episode, 0, len(response.Episodes.Items))
	for _, item := range response.Episodes.Items {
		if item == nil || item.URI == "" {
			continue
		}
		episodes = append(episodes, models.Episode{
			URI:                  item.URI,
			Name:                 item.Name,
			ShowName:             item.Show.Name,
			ReleaseDate:          item.ReleaseDate,
			ReleaseDatePrecision: item.ReleaseDatePrecision,
			Rank:                 len(episodes),
		})
	}

	return episodes, nil
}

// GetPlaylists retrieves all playlists for the authenticated user, following
// pagination until the next cursor is exhausted.
func (s *SpotifyService) GetPlaylists(ctx context.Context) ([]models.Playlist, error) {
	var all []models.Playlist
	offset := 0

	for {
		endpoint := fmt.Sprintf("/me/playlists?limit=%d&offset=%d", MaxPageSize, offset)

		var page SpotifyPaginatedPlaylists
		if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &page); err != nil {
			return nil, err
		}

		for _, sp := range page.Items {
			if sp == nil {
				continue
			}
			all = append(all, toPlaylist(sp))
		}

		if page.Next == nil {
			break
		}
		offset += MaxPageSize
	}

	return all, nil
}

// GetPlaylistItemURIs returns all item URIs currently in a playlist, in order.
func (s *SpotifyService) GetPlaylistItemURIs(ctx context.Context, playlistID string) ([]string, error) {
	var uris []string
	offset := 0

	for {
		params := url.Values{}
		params.Set("limit", fmt.Sprintf("%d", MaxPageSize))
		params.Set("offset", fmt.Sprintf("%d", offset))
		params.Set("fields", "next,items(track(uri))")
		endpoint := fmt.Sprintf("/playlists/%s/items?%s", playlistID, params.Encode())

		var page playlistItemsPage
		if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &page); err != nil {
			return nil, err
		}

		for _, item := range page.Items {
			if item.Track != nil && item.Track.URI != "" {
				uris = append(uris, item.Track.URI)
			}
		}

		if page.Next == nil {
			break
		}
		offset += MaxPageSize
	}

	return uris, nil
}

// CreatePlaylist creates a new playlist for the current user.
func (s *SpotifyService) CreatePlaylist(ctx context.Context, name, description string, public bool) (*models.Playlist, error) {
	body := map[string]any{
		"name":        name,
		"description": description,
		"public":      public,
	}

	var created SpotifyPlaylist
	if err := s.doRequest(ctx, http.MethodPost, "/me/playlists", body, &created); err != nil {
		return nil, err
	}

	playlist := toPlaylist(&created)
	return &playlist, nil
}

// InsertItems inserts URIs into a playlist at the given position.
// A negative position appends to the end.
func (s *SpotifyService) InsertItems(ctx context.Context, playlistID string, uris []string, position int) error {
	body := map[string]any{"uris": uris}
	if position >= 0 {
		body["position"] = position
	}

	endpoint := fmt.Sprintf("/playlists/%s/items", playlistID)
	return s.doRequest(ctx, http.MethodPost, endpoint, body, nil)
}

// ReplaceItems replaces a playlist's entire contents with the given URIs.
func (s *SpotifyService) ReplaceItems(ctx context.Context, playlistID string, uris []string) error {
	if uris == nil {
		uris = []string{}
	}

	endpoint := fmt.Sprintf("/playlists/%s/items", playlistID)
	return s.doRequest(ctx, http.MethodPut, endpoint, map[string]any{"uris": uris}, nil)
}

// UpdateDetails updates a playlist's description. The name is never changed.
func (s *SpotifyService) UpdateDetails(ctx context.Context, playlistID, description string) error {
	endpoint := fmt.Sprintf("/playlists/%s", playlistID)
	return s.doRequest(ctx, http.MethodPut, endpoint, map[string]any{"description": description}, nil)
}

func toPlaylist(sp *SpotifyPlaylist) models.Playlist {
	return models.Playlist{
		ID:          sp.ID,
		Name:        sp.Name,
		Description: sp.Description,
		ItemCount:   sp.Tracks.Total,
		Public:      sp.Public,
		URL:         sp.ExternalURLs.Spotify,
	}
}
