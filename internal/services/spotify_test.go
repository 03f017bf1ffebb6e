package services

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/openclaw/playlister/internal/shared"
	helpers "github.com/openclaw/playlister/internal/testing"
	"golang.org/x/oauth2"
)

func newTestService(t *testing.T) *SpotifyService {
	t.Helper()
	svc, err := NewSpotifyService(map[string]string{
		"client_id":     "test_client",
		"client_secret": "test_secret",
	})
	if err != nil {
		t.Fatalf("NewSpotifyService failed: %v", err)
	}
	return svc
}

func authedService(t *testing.T, rt http.RoundTripper) *SpotifyService {
	t.Helper()
	svc := newTestService(t)
	svc.token = &oauth2.Token{AccessToken: "test_token"}
	svc.httpClient = &http.Client{Transport: rt}
	return svc
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}
}

func TestNewSpotifyService(t *testing.T) {
	t.Run("requires client_id", func(t *testing.T) {
		_, err := NewSpotifyService(map[string]string{"client_secret": "s"})
		if err == nil {
			t.Error("expected error for missing client_id")
		}
	})

	t.Run("requires client_secret", func(t *testing.T) {
		_, err := NewSpotifyService(map[string]string{"client_id": "c"})
		if err == nil {
			t.Error("expected error for missing client_secret")
		}
	})

	t.Run("defaults redirect URI", func(t *testing.T) {
		svc := newTestService(t)
		if svc.config.RedirectURL != "http://localhost:8080/callback" {
			t.Errorf("unexpected redirect URL: %s", svc.config.RedirectURL)
		}
	})

	t.Run("requests playlist scopes", func(t *testing.T) {
		svc := newTestService(t)
		want := []string{"playlist-modify-public", "playlist-modify-private", "playlist-read-private"}
		if len(svc.config.Scopes) != len(want) {
			t.Fatalf("got %d scopes, want %d", len(svc.config.Scopes), len(want))
		}
		for i, scope := range want {
			if svc.config.Scopes[i] != scope {
				t.Errorf("scope %d: got %s, want %s", i, svc.config.Scopes[i], scope)
			}
		}
	})
}

func TestGetAuthURL(t *testing.T) {
	svc := newTestService(t)
	authURL := svc.GetAuthURL("state_xyz")

	if !strings.HasPrefix(authURL, spotifyAuthURL) {
		t.Errorf("auth URL should start with %s, got %s", spotifyAuthURL, authURL)
	}
	if !strings.Contains(authURL, "state=state_xyz") {
		t.Errorf("auth URL missing state parameter: %s", authURL)
	}
	if !strings.Contains(authURL, "client_id=test_client") {
		t.Errorf("auth URL missing client_id: %s", authURL)
	}
}

func TestOAuthenticate(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if err := svc.OAuthenticate(ctx, nil); !errors.Is(err, shared.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument for nil token, got %v", err)
	}

	if err := svc.OAuthenticate(ctx, &oauth2.Token{}); !errors.Is(err, shared.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument for empty token, got %v", err)
	}

	if err := svc.OAuthenticate(ctx, &oauth2.Token{RefreshToken: "refresh"}); err != nil {
		t.Errorf("refresh-only token should be accepted: %v", err)
	}
}

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()

	t.Run("access token path", func(t *testing.T) {
		svc := newTestService(t)
		err := svc.Authenticate(ctx, map[string]string{"access_token": "tok"})
		if err != nil {
			t.Fatalf("Authenticate failed: %v", err)
		}
		if svc.token.AccessToken != "tok" {
			t.Errorf("token not installed: %v", svc.token)
		}
	})

	t.Run("missing credentials", func(t *testing.T) {
		svc := newTestService(t)
		err := svc.Authenticate(ctx, map[string]string{})
		if !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})
}

func TestAPIError(t *testing.T) {
	t.Run("formats with detail", func(t *testing.T) {
		err := &APIError{StatusCode: 403, Method: "POST", Path: "/playlists/x/items", Detail: "Insufficient client scope"}
		want := "spotify 403 on POST /playlists/x/items: Insufficient client scope"
		if err.Error() != want {
			t.Errorf("got %q, want %q", err.Error(), want)
		}
	})

	t.Run("formats without detail", func(t *testing.T) {
		err := &APIError{StatusCode: 500, Method: "GET", Path: "/me"}
		want := "spotify 500 on GET /me"
		if err.Error() != want {
			t.Errorf("got %q, want %q", err.Error(), want)
		}
	})

	tests := []struct {
		status int
		target error
	}{
		{http.StatusUnauthorized, shared.ErrTokenExpired},
		{http.StatusForbidden, shared.ErrNotAuthorized},
	}
	for _, tc := range tests {
		var err error = &APIError{StatusCode: tc.status, Method: "GET", Path: "/me"}
		if !errors.Is(err, tc.target) {
			t.Errorf("status %d should unwrap to %v", tc.status, tc.target)
		}
	}

	t.Run("other statuses stay opaque", func(t *testing.T) {
		var err error = &APIError{StatusCode: 429, Method: "GET", Path: "/search"}
		if errors.Is(err, shared.ErrTokenExpired) || errors.Is(err, shared.ErrNotAuthorized) {
			t.Error("429 should not unwrap to an auth sentinel")
		}
	})
}

func TestDoRequestUnauthenticated(t *testing.T) {
	svc := newTestService(t)
	err := svc.doRequest(context.Background(), http.MethodGet, "/me", nil, nil)
	if !errors.Is(err, shared.ErrNotAuthenticated) {
		t.Errorf("expected ErrNotAuthenticated, got %v", err)
	}
}

func TestDoRequestErrorBody(t *testing.T) {
	body := `{"error":{"status":403,"message":"User not registered in the Developer Dashboard"}}`
	svc := authedService(t, helpers.NewMockRoundTripper(jsonResponse(403, body), nil))

	err := svc.doRequest(context.Background(), http.MethodPost, "/playlists/p1/items", nil, nil)

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T", err)
	}
	if apiErr.Detail != "User not registered in the Developer Dashboard" {
		t.Errorf("detail not parsed from error body: %q", apiErr.Detail)
	}
	if !errors.Is(err, shared.ErrNotAuthorized) {
		t.Error("403 should satisfy errors.Is(err, ErrNotAuthorized)")
	}
}

func TestSearchEpisodes(t *testing.T) {
	body := `{"episodes":{"items":[
		{"id":"e1","name":"Ep One","uri":"spotify:episode:e1","release_date":"2024-03-15","release_date_precision":"day","show":{"name":"Show A"}},
		null,
		{"id":"e2","name":"Ep Two","uri":"","release_date":"2024-03-14","release_date_precision":"day","show":{"name":"Show B"}},
		{"id":"e3","name":"Ep Three","uri":"spotify:episode:e3","release_date":"2024","release_date_precision":"year","show":{"name":"Show C"}}
	],"total":4}}`
	svc := authedService(t, helpers.NewMockRoundTripper(jsonResponse(200, body), nil))

	episodes, err := svc.SearchEpisodes(context.Background(), "podcast technology", 10)
	if err != nil {
		t.Fatalf("SearchEpisodes failed: %v", err)
	}

	if len(episodes) != 2 {
		t.Fatalf("expected 2 episodes after dropping null and URI-less items, got %d", len(episodes))
	}
	if episodes[0].URI != "spotify:episode:e1" || episodes[1].URI != "spotify:episode:e3" {
		t.Errorf("unexpected episodes: %+v", episodes)
	}
	if episodes[0].Rank != 0 || episodes[1].Rank != 1 {
		t.Errorf("ranks should follow kept order: %d, %d", episodes[0].Rank, episodes[1].Rank)
	}
	if episodes[0].ShowName != "Show A" {
		t.Errorf("show name not mapped: %q", episodes[0].ShowName)
	}
}

func TestGetPlaylistsPagination(t *testing.T) {
	page1 := `{"items":[{"id":"p1","name":"First","tracks":{"total":10},"external_urls":{"spotify":"https://open.spotify.com/playlist/p1"}}],"next":"https://api.spotify.com/v1/me/playlists?offset=50"}`
	page2 := `{"items":[{"id":"p2","name":"Second","public":true,"tracks":{"total":3}}],"next":null}`
	svc := authedService(t, helpers.NewSeqRoundTripper(jsonResponse(200, page1), jsonResponse(200, page2)))

	playlists, err := svc.GetPlaylists(context.Background())
	if err != nil {
		t.Fatalf("GetPlaylists failed: %v", err)
	}

	if len(playlists) != 2 {
		t.Fatalf("expected 2 playlists across pages, got %d", len(playlists))
	}
	if playlists[0].ID != "p1" || playlists[1].ID != "p2" {
		t.Errorf("unexpected playlist order: %+v", playlists)
	}
	if playlists[0].URL != "https://open.spotify.com/playlist/p1" {
		t.Errorf("external URL not mapped: %q", playlists[0].URL)
	}
	if playlists[0].ItemCount != 10 {
		t.Errorf("item count not mapped: %d", playlists[0].ItemCount)
	}
}

func TestGetPlaylistItemURIs(t *testing.T) {
	body := `{"items":[{"track":{"uri":"spotify:episode:a"}},{"track":null},{"track":{"uri":"spotify:episode:b"}}],"next":null}`
	svc := authedService(t, helpers.NewMockRoundTripper(jsonResponse(200, body), nil))

	uris, err := svc.GetPlaylistItemURIs(context.Background(), "p1")
	if err != nil {
		t.Fatalf("GetPlaylistItemURIs failed: %v", err)
	}

	if len(uris) != 2 || uris[0] != "spotify:episode:a" || uris[1] != "spotify:episode:b" {
		t.Errorf("unexpected URIs: %v", uris)
	}
}

func TestCreatePlaylist(t *testing.T) {
	body := `{"id":"new1","name":"Daily Playlister","description":"d","public":true,"tracks":{"total":0},"external_urls":{"spotify":"https://open.spotify.com/playlist/new1"}}`
	svc := authedService(t, helpers.NewMockRoundTripper(jsonResponse(201, body), nil))

	playlist, err := svc.CreatePlaylist(context.Background(), "Daily Playlister", "d", true)
	if err != nil {
		t.Fatalf("CreatePlaylist failed: %v", err)
	}
	if playlist.ID != "new1" || !playlist.Public {
		t.Errorf("unexpected playlist: %+v", playlist)
	}
	if playlist.URL != "https://open.spotify.com/playlist/new1" {
		t.Errorf("URL not mapped: %q", playlist.URL)
	}
}

func TestMe(t *testing.T) {
	body := `{"id":"user1","display_name":"Test User","product":"premium","followers":{"total":5}}`
	svc := authedService(t, helpers.NewMockRoundTripper(jsonResponse(200, body), nil))

	user, err := svc.Me(context.Background())
	if err != nil {
		t.Fatalf("Me failed: %v", err)
	}
	if user.ID != "user1" || user.DisplayName != "Test User" {
		t.Errorf("unexpected user: %+v", user)
	}
}

func TestWriteEndpointsAcceptEmptyBody(t *testing.T) {
	svc := authedService(t, helpers.NewMockRoundTripper(jsonResponse(200, ""), nil))
	ctx := context.Background()

	if err := svc.InsertItems(ctx, "p1", []string{"spotify:episode:a"}, 0); err != nil {
		t.Errorf("InsertItems failed on empty response body: %v", err)
	}
	if err := svc.ReplaceItems(ctx, "p1", nil); err != nil {
		t.Errorf("ReplaceItems failed on empty response body: %v", err)
	}
	if err := svc.UpdateDetails(ctx, "p1", "updated"); err != nil {
		t.Errorf("UpdateDetails failed on empty response body: %v", err)
	}
}
