package main

import (
	"context"
	"fmt"
	"os"

	"github.com/openclaw/playlister/internal/repositories"
	"github.com/openclaw/playlister/internal/shared"
	"github.com/urfave/cli/v3"
)

// TopicAdd adds a normalized topic keyword to the config.
func (r *Runner) TopicAdd(ctx context.Context, cmd *cli.Command) error {
	topic := cmd.StringArg("topic")
	if topic == "" {
		return fmt.Errorf("%w: topic keyword is required", shared.ErrMissingArgument)
	}

	config := r.loadConfig(cmd.String("config"))

	normalized := shared.NormalizeTopic(topic)
	if !config.Playlist.AddTopic(topic) {
		r.writePlain("Topic %q is already configured\n", normalized)
		return nil
	}

	if err := r.saveConfig(); err != nil {
		return err
	}

	r.logger.Info("topic added", "topic", normalized)
	r.writePlain("✓ Added topic %q (%d total)\n", normalized, len(config.Playlist.Topics))
	return nil
}

// TopicRemove removes a topic keyword from the config.
func (r *Runner) TopicRemove(ctx context.Context, cmd *cli.Command) error {
	topic := cmd.StringArg("topic")
	if topic == "" {
		return fmt.Errorf("%w: topic keyword is required", shared.ErrMissingArgument)
	}

	config := r.loadConfig(cmd.String("config"))

	normalized := shared.NormalizeTopic(topic)
	if !config.Playlist.RemoveTopic(topic) {
		return fmt.Errorf("%w: topic %q is not configured", shared.ErrInvalidArgument, normalized)
	}

	if err := r.saveConfig(); err != nil {
		return err
	}

	r.logger.Info("topic removed", "topic", normalized)
	r.writePlain("✓ Removed topic %q (%d remaining)\n", normalized, len(config.Playlist.Topics))
	return nil
}

// TopicList prints the configured topics in insertion order.
func (r *Runner) TopicList(ctx context.Context, cmd *cli.Command) error {
	config := r.loadConfig(cmd.String("config"))

	if cmd.Bool("json") {
		return r.writeJSON(config.Playlist.Topics, true)
	}

	if len(config.Playlist.Topics) == 0 {
		r.writePlain("No topics configured. Add one with 'playlister topic add <keyword>'\n")
		return nil
	}

	r.writePlain("Topics for %q:\n\n", config.Playlist.Name)
	for i, topic := range config.Playlist.Topics {
		r.writePlain("%d. %s\n", i+1, topic)
	}
	return nil
}

// Status summarizes the playlist settings, topics, auth state, and the most
// recent refresh run when the local database exists.
func (r *Runner) Status(ctx context.Context, cmd *cli.Command) error {
	config := r.loadConfig(cmd.String("config"))

	r.writePlain("Playlist: %s (%s)\n", config.Playlist.Name, config.Playlist.Visibility)
	r.writePlain("Strategy: %s, sort by %s, %d episodes per topic\n",
		config.Playlist.SearchStrategy, config.Playlist.SortBy, config.Playlist.EpisodesPerTopic)

	if len(config.Playlist.Topics) == 0 {
		r.writePlain("Topics: none\n")
	} else {
		r.writePlain("Topics (%d):\n", len(config.Playlist.Topics))
		for _, topic := range config.Playlist.Topics {
			r.writePlain("  - %s\n", topic)
		}
	}

	if config.Credentials.Spotify.Configured() {
		r.writePlain("Auth: ✓ configured\n")
	} else {
		r.writePlain("Auth: ✗ not configured (run 'playlister auth login')\n")
	}

	if _, err := os.Stat(config.Database.Path); err != nil {
		return nil
	}

	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		r.logger.Warn("failed to open database", "error", err)
		return nil
	}
	defer db.Close()

	records, err := repositories.NewRefreshRepository(db).List(map[string]any{"limit": 1})
	if err != nil || len(records) == 0 {
		return nil
	}

	last := records[0]
	r.writePlain("Last refresh: %s (found %d, inserted %d)\n",
		last.CreatedAt().Format("2006-01-02 15:04"), last.Found(), last.Inserted())

	return nil
}
