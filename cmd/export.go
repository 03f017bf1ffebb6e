package main

import (
	"context"
	"fmt"
	"os"

	"github.com/openclaw/playlister/internal/formatter"
	"github.com/openclaw/playlister/internal/models"
	"github.com/openclaw/playlister/internal/repositories"
	"github.com/openclaw/playlister/internal/shared"
	"github.com/openclaw/playlister/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Export renders a recorded refresh run in the requested format. Defaults to
// the most recent run when no id is given.
func (r *Runner) Export(ctx context.Context, cmd *cli.Command) error {
	config := r.loadConfig(cmd.String("config"))

	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open database (run 'playlister setup database' first): %w", err)
	}
	defer db.Close()

	refreshes := repositories.NewRefreshRepository(db)

	var record *models.RefreshRecord
	if id := cmd.String("id"); id != "" {
		record, err = refreshes.Get(id)
		if err != nil {
			return fmt.Errorf("failed to load refresh run %s: %w", id, err)
		}
	} else {
		records, err := refreshes.List(map[string]any{"limit": 1})
		if err != nil {
			return fmt.Errorf("failed to list refresh history: %w", err)
		}
		if len(records) == 0 {
			r.writePlain("No refresh runs recorded yet\n")
			return nil
		}
		record = records[0]
	}

	cached, err := repositories.NewEpisodeRepository(db).ListByRefresh(record.ID())
	if err != nil {
		return fmt.Errorf("failed to load episodes for run %s: %w", record.ID(), err)
	}

	result := rebuildResult(record, cached)

	format := cmd.String("format")
	var data []byte
	switch format {
	case "json":
		data, err = shared.MarshalJSON(result, true)
		if err == nil {
			data = append(data, '\n')
		}
	case "csv":
		data, err = formatter.ResultToCSV(result)
	case "markdown", "md":
		data, err = formatter.ResultToMarkdown(result)
	case "txt", "text":
		data, err = formatter.ResultToText(result)
	default:
		return fmt.Errorf("%w: unknown format %q (want json, csv, markdown, or txt)", shared.ErrInvalidArgument, format)
	}
	if err != nil {
		return fmt.Errorf("failed to render %s export: %w", format, err)
	}

	if path := cmd.String("output"); path != "" {
		if err := os.WriteFile(path, data, 0644); err != nil {
			return fmt.Errorf("failed to write export file: %w", err)
		}
		r.writePlain("✓ Exported run %s to %s\n", record.ID(), path)
		return nil
	}

	return r.writePlain("%s", data)
}

// rebuildResult reconstructs a refresh result from its persisted run record
// and cached episode rows.
func rebuildResult(record *models.RefreshRecord, cached []*models.CachedEpisode) *tasks.RefreshResult {
	result := &tasks.RefreshResult{
		Playlist: &models.Playlist{
			ID:   record.PlaylistID(),
			Name: record.PlaylistName(),
		},
		Inserted:       record.Inserted(),
		AlreadyPresent: record.Found() - record.Inserted(),
	}

	counts := map[string]int{}
	var order []string
	for _, ep := range cached {
		if _, seen := counts[ep.Topic]; !seen {
			order = append(order, ep.Topic)
		}
		counts[ep.Topic]++
		result.Candidates = append(result.Candidates, models.Candidate{
			Topic: ep.Topic,
			Episode: models.Episode{
				URI:         ep.URI,
				Name:        ep.Name,
				ShowName:    ep.ShowName,
				ReleaseDate: ep.ReleaseDate,
			},
		})
	}
	for _, topic := range order {
		result.TopicCounts = append(result.TopicCounts, models.TopicCount{Topic: topic, Found: counts[topic]})
	}

	return result
}
