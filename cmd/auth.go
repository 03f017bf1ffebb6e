package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/openclaw/playlister/internal/server"
	"github.com/openclaw/playlister/internal/services"
	"github.com/openclaw/playlister/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// AuthLogin performs the OAuth2 authorization code flow for Spotify.
//
// Starts a local HTTP server, opens the browser for user authorization, and
// exchanges the auth code for tokens which are saved back to config.toml.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	config := r.loadConfig(cmd.String("config"))

	if config.Credentials.Spotify.ClientID == "" || config.Credentials.Spotify.ClientSecret == "" {
		return fmt.Errorf("%w: Spotify client_id and client_secret must be set in %s", shared.ErrMissingCredentials, r.configPath)
	}

	if r.oauth == nil {
		spotify, err := services.NewSpotifyService(config.Credentials.Spotify.Map())
		if err != nil {
			return fmt.Errorf("failed to create Spotify service: %w", err)
		}
		r.oauth = spotify
	}

	token, err := r.doOAuth(config, r.oauth, "authorization")
	if err != nil {
		return err
	}

	if err := r.saveTokens(ctx, token); err != nil {
		return err
	}

	r.writePlainln("✓ Authorization successful")
	r.writePlain("✓ Tokens saved to %s\n\n", r.configPath)
	r.writePlain("You can now run: playlister refresh\n")

	return nil
}

// AuthStatus checks the stored credentials against the Spotify profile endpoint.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	config := r.loadConfig(cmd.String("config"))

	if !config.Credentials.Spotify.Configured() {
		r.writePlain("✗ Not authenticated\n")
		r.writePlain("Run 'playlister auth login' to connect your Spotify account\n")
		return nil
	}

	if err := r.ensureAuthenticated(ctx); err != nil {
		return err
	}

	profiler, ok := r.oauth.(interface {
		Me(ctx context.Context) (*services.SpotifyUser, error)
	})
	if !ok {
		r.writePlain("✓ Credentials configured\n")
		return nil
	}

	user, err := profiler.Me(ctx)
	if err != nil {
		return fmt.Errorf("%w: stored tokens were rejected: %v", shared.ErrAuthFailed, err)
	}

	r.writePlain("✓ Authenticated\n")
	r.writePlain("User: %s (%s)\n", user.DisplayName, user.ID)
	if user.Product != "" {
		r.writePlain("Plan: %s\n", user.Product)
	}

	if config.Credentials.Spotify.UserID != user.ID {
		config.Credentials.Spotify.UserID = user.ID
		if err := r.saveConfig(); err != nil {
			r.logger.Warn("failed to save user id", "error", err)
		}
	}

	return nil
}

// ensureAuthenticated installs the stored token on the OAuth service so
// subsequent API calls carry credentials. Refreshing expired bearer tokens is
// handled by the underlying OAuth2 client.
func (r *Runner) ensureAuthenticated(ctx context.Context) error {
	if r.oauth == nil {
		return fmt.Errorf("%w: Spotify service not initialized", shared.ErrServiceUnavailable)
	}
	if !r.config.Credentials.Spotify.Configured() {
		return fmt.Errorf("%w: run 'playlister auth login' first", shared.ErrNotAuthenticated)
	}
	if err := r.oauth.OAuthenticate(ctx, r.config.Credentials.Spotify.Token()); err != nil {
		return fmt.Errorf("failed to install stored tokens: %w", err)
	}
	return nil
}

// saveTokens updates the config with tokens from a completed OAuth flow and
// installs them on the service.
func (r *Runner) saveTokens(ctx context.Context, token *oauth2.Token) error {
	if err := r.config.Credentials.Spotify.Update(token); err != nil {
		return fmt.Errorf("failed to update Spotify configuration: %w", err)
	}

	if err := r.saveConfig(); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	if err := r.oauth.OAuthenticate(ctx, token); err != nil {
		return fmt.Errorf("failed to authenticate with new tokens: %w", err)
	}

	return nil
}

// doOAuth executes the OAuth2 authorization flow with a local HTTP server
func (r *Runner) doOAuth(config *shared.Config, oauthSrv services.OAuthService, prefix string) (*oauth2.Token, error) {
	state, err := shared.GenerateState()
	if err != nil {
		return nil, fmt.Errorf("failed to generate state token: %w", err)
	}

	authURL := oauthSrv.GetAuthURL(state)
	oauthHandler := server.NewOAuthHandler(oauthSrv.GetOAuthConfig(), state)
	router := server.NewBasicRouter()
	router.Use(server.RequestLogger(r.logger))
	router.Handler(oauthHandler)

	serverAddr := fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)
	httpServer := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Infof("starting OAuth server for %s at %v", prefix, serverAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	time.Sleep(100 * time.Millisecond)

	r.writePlain("→ Opening browser for Spotify %s...\n", prefix)
	if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (2 minute timeout)...\n")

	timeout := time.NewTimer(2 * time.Minute)
	defer timeout.Stop()

	var result server.OAuthResult

	select {
	case result = <-oauthHandler.Result():
		// Got result from callback
	case err := <-serverErrors:
		return nil, fmt.Errorf("server error: %w", err)
	case <-timeout.C:
		return nil, fmt.Errorf("%w: authorization timed out after 2 minutes", shared.ErrTimeout)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		r.logger.Warn("error shutting down server", "error", err)
	}

	if result.Error() != nil {
		return nil, fmt.Errorf("authorization failed: %w", result.Error())
	}

	if result.Token == nil {
		return nil, fmt.Errorf("no token received")
	}

	return result.Token, nil
}
