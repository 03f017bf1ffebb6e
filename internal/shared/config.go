package shared

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"golang.org/x/oauth2"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Playlist    PlaylistConfig    `toml:"playlist"`
	Credentials CredentialsConfig `toml:"credentials"`
	Database    DatabaseConfig    `toml:"database"`
	Server      ServerConfig      `toml:"server"`
}

// PlaylistConfig contains the target playlist settings and topic keywords.
type PlaylistConfig struct {
	Name             string   `toml:"name"`
	Visibility       string   `toml:"visibility"` // "public" or "private"
	EpisodesPerTopic int      `toml:"episodes_per_topic"`
	SearchStrategy   string   `toml:"search_strategy"` // "individual" or "combined"
	SortBy           string   `toml:"sort_by"`         // "recency" or "relevance"
	Topics           []string `toml:"topics"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
}

// SpotifyConfig contains Spotify API credentials and stored OAuth tokens.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURI  string `toml:"redirect_uri"`
	AccessToken  string `toml:"access_token"`
	RefreshToken string `toml:"refresh_token"`
	UserID       string `toml:"user_id"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains OAuth callback server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// NormalizeTopic lowercases and trims a topic keyword so topics behave as a set.
func NormalizeTopic(topic string) string {
	return strings.ToLower(strings.TrimSpace(topic))
}

// AddTopic appends a normalized topic, preserving insertion order.
// Returns false if the topic is already present.
func (p *PlaylistConfig) AddTopic(topic string) bool {
	normalized := NormalizeTopic(topic)
	if normalized == "" || slices.Contains(p.Topics, normalized) {
		return false
	}
	p.Topics = append(p.Topics, normalized)
	return true
}

// RemoveTopic deletes a normalized topic. Returns false if the topic was not present.
func (p *PlaylistConfig) RemoveTopic(topic string) bool {
	normalized := NormalizeTopic(topic)
	idx := slices.Index(p.Topics, normalized)
	if idx < 0 {
		return false
	}
	p.Topics = slices.Delete(p.Topics, idx, idx+1)
	return true
}

// Public reports whether the configured visibility is "public".
func (p *PlaylistConfig) Public() bool {
	return p.Visibility != "private"
}

// Map converts Spotify credentials into the map form consumed by services.NewSpotifyService.
func (s *SpotifyConfig) Map() map[string]string {
	return map[string]string{
		"client_id":     s.ClientID,
		"client_secret": s.ClientSecret,
		"redirect_uri":  s.RedirectURI,
	}
}

// Token returns the stored OAuth tokens as an [oauth2.Token].
func (s *SpotifyConfig) Token() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
	}
}

// Update stores tokens from a completed OAuth flow.
// The refresh token is only overwritten when the provider issued a new one.
func (s *SpotifyConfig) Update(token *oauth2.Token) error {
	if token == nil {
		return fmt.Errorf("token cannot be nil")
	}
	s.AccessToken = token.AccessToken
	if token.RefreshToken != "" {
		s.RefreshToken = token.RefreshToken
	}
	return nil
}

// Configured reports whether credentials and a refresh token are present.
func (s *SpotifyConfig) Configured() bool {
	return s.ClientID != "" && s.RefreshToken != ""
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &config, nil
}

// SaveConfig serializes the configuration to TOML and writes it to the specified path.
func SaveConfig(path string, config *Config) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
