package main

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/openclaw/playlister/internal/formatter"
	"github.com/openclaw/playlister/internal/models"
	"github.com/openclaw/playlister/internal/repositories"
	"github.com/openclaw/playlister/internal/shared"
	"github.com/openclaw/playlister/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Refresh searches the configured topics and merges fresh episodes into the
// target playlist, creating it when absent.
func (r *Runner) Refresh(ctx context.Context, cmd *cli.Command) error {
	config := r.loadConfig(cmd.String("config"))

	if r.engine == nil {
		return fmt.Errorf("%w: Spotify service not initialized", shared.ErrServiceUnavailable)
	}

	if err := r.ensureAuthenticated(ctx); err != nil {
		return err
	}

	opts, err := r.refreshOptions(cmd, config)
	if err != nil {
		return err
	}

	r.logger.Info("starting refresh",
		"playlist", opts.PlaylistName,
		"topics", len(opts.Topics),
		"strategy", opts.Strategy.Name(),
		"sort", opts.Sort.String(),
	)

	progress := make(chan tasks.ProgressUpdate, 50)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for update := range progress {
			r.writePlain("%s\n", update.Message)
		}
	}()

	result, err := r.engine.Refresh(ctx, progress, opts)
	close(progress)
	wg.Wait()

	if err != nil {
		if errors.Is(err, shared.ErrNoEpisodes) {
			r.writePlainln("No episodes found for the configured topics.")
			r.writePlain("Try broader keywords, or switch to --sort relevance\n")
			return nil
		}
		return err
	}

	if saveErr := r.recordRefresh(config, opts, result); saveErr != nil {
		r.logger.Warn("failed to record refresh history", "error", saveErr)
	}

	if cmd.Bool("save") {
		export, err := formatter.WriteExport(result, "")
		if err != nil {
			r.logger.Warn("failed to export batch", "error", err)
		} else {
			r.writePlain("Batch exported to %s and %s\n", export.EpisodesFile, export.MetadataFile)
		}
	}

	if cmd.Bool("json") {
		return r.writeJSON(result, cmd.Bool("pretty"))
	}

	return r.printResult(result)
}

// refreshOptions merges config defaults with command line overrides.
func (r *Runner) refreshOptions(cmd *cli.Command, config *shared.Config) (tasks.RefreshOptions, error) {
	playlist := config.Playlist

	name := playlist.Name
	if override := cmd.String("playlist"); override != "" {
		name = override
	}

	perTopic := playlist.EpisodesPerTopic
	if override := cmd.Int("max-episodes"); override > 0 {
		perTopic = override
	}

	strategyName := playlist.SearchStrategy
	if override := cmd.String("strategy"); override != "" {
		strategyName = override
	}

	sortName := playlist.SortBy
	if override := cmd.String("sort"); override != "" {
		sortName = override
	}

	strategy, err := tasks.StrategyFromConfig(strategyName, perTopic, len(playlist.Topics))
	if err != nil {
		return tasks.RefreshOptions{}, err
	}

	sortBy, err := tasks.ParseSortMode(sortName)
	if err != nil {
		return tasks.RefreshOptions{}, err
	}

	return tasks.RefreshOptions{
		PlaylistName: name,
		Topics:       playlist.Topics,
		Strategy:     strategy,
		Sort:         sortBy,
		Public:       playlist.Public(),
	}, nil
}

func (r *Runner) printResult(result *tasks.RefreshResult) error {
	if result.Created {
		r.writePlainln("✓ Created playlist %q", result.Playlist.Name)
	} else {
		r.writePlainln("✓ Refreshed playlist %q", result.Playlist.Name)
	}

	r.writePlain("Found %d episodes, inserted %d, %d already present\n\n",
		len(result.Candidates), result.Inserted, result.AlreadyPresent)

	for _, tc := range result.TopicCounts {
		r.writePlain("  %s: %d\n", tc.Topic, tc.Found)
	}
	if len(result.TopicCounts) > 0 {
		r.writePlain("\n")
	}

	for i, c := range result.Candidates {
		r.writePlain("%d. [%s] %s - %s\n", i+1, c.Topic, c.Episode.ShowName, c.Episode.Name)
	}

	if result.Playlist.URL != "" {
		r.writePlain("\n%s\n", result.Playlist.URL)
	}

	return nil
}

// recordRefresh persists the run outcome and its inserted episodes to the
// local database. Failures here never fail the refresh itself.
func (r *Runner) recordRefresh(config *shared.Config, opts tasks.RefreshOptions, result *tasks.RefreshResult) error {
	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	record := models.NewRefreshRecord(0,
		result.Playlist.ID,
		result.Playlist.Name,
		opts.Strategy.Name(),
		opts.Sort.String(),
		len(result.Candidates),
		result.Inserted,
	)

	if err := repositories.NewRefreshRepository(db).Create(record); err != nil {
		return fmt.Errorf("failed to save refresh record: %w", err)
	}

	episodes := repositories.NewEpisodeRepository(db)
	now := time.Now()
	for _, c := range result.Candidates {
		cached := &models.CachedEpisode{
			URI:         c.Episode.URI,
			Name:        c.Episode.Name,
			ShowName:    c.Episode.ShowName,
			ReleaseDate: c.Episode.ReleaseDate,
			Topic:       c.Topic,
			RefreshID:   record.ID(),
			CreatedAt:   now,
		}
		if err := episodes.Record(cached); err != nil {
			r.logger.Warn("failed to cache episode", "uri", c.Episode.URI, "error", err)
		}
	}

	return nil
}

// History prints past refresh runs from the local database.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	config := r.loadConfig(cmd.String("config"))

	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open database (run 'playlister setup database' first): %w", err)
	}
	defer db.Close()

	refreshes := repositories.NewRefreshRepository(db)
	records, err := refreshes.List(map[string]any{"limit": cmd.Int("limit")})
	if err != nil {
		return fmt.Errorf("failed to list refresh history: %w", err)
	}

	if cmd.Bool("json") {
		entries := make([]map[string]any, len(records))
		for i, record := range records {
			entries[i] = map[string]any{
				"id":            record.ID(),
				"playlist_name": record.PlaylistName(),
				"strategy":      record.Strategy(),
				"sort_by":       record.SortBy(),
				"found":         record.Found(),
				"inserted":      record.Inserted(),
				"created_at":    record.CreatedAt(),
			}
		}
		return r.writeJSON(entries, true)
	}

	if len(records) == 0 {
		r.writePlain("No refresh runs recorded yet\n")
		return nil
	}

	episodes := repositories.NewEpisodeRepository(db)
	showEpisodes := cmd.Bool("episodes")

	r.writePlain("Last %d refresh runs:\n\n", len(records))
	for _, record := range records {
		r.writePlain("%s  %s  %s/%s  found %d, inserted %d\n",
			record.CreatedAt().Format("2006-01-02 15:04"),
			record.PlaylistName(),
			record.Strategy(),
			record.SortBy(),
			record.Found(),
			record.Inserted(),
		)

		if !showEpisodes {
			continue
		}
		cached, err := episodes.ListByRefresh(record.ID())
		if err != nil {
			r.logger.Warn("failed to list episodes", "refresh", record.ID(), "error", err)
			continue
		}
		for _, ep := range cached {
			r.writePlain("    [%s] %s - %s\n", ep.Topic, ep.ShowName, ep.Name)
		}
	}

	return nil
}
