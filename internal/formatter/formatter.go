// package formatter renders refresh results to various formats (CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"

	"github.com/openclaw/playlister/internal/models"
	"github.com/openclaw/playlister/internal/shared"
	"github.com/openclaw/playlister/internal/tasks"
)

// ResultToCSV converts a refresh batch to CSV with columns: Topic, Show, Episode, ReleaseDate, URI
func ResultToCSV(result *tasks.RefreshResult) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Topic", "Show", "Episode", "ReleaseDate", "URI"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, c := range result.Candidates {
		record := []string{
			c.Topic,
			c.Episode.ShowName,
			c.Episode.Name,
			c.Episode.ReleaseDate,
			c.Episode.URI,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ResultToMarkdown converts a refresh result to Markdown
func ResultToMarkdown(result *tasks.RefreshResult) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", result.Playlist.Name))

	if result.Description != "" {
		buf.WriteString(fmt.Sprintf("**Description**: %s\n\n", result.Description))
	}

	buf.WriteString(fmt.Sprintf("**Found**: %d\n", len(result.Candidates)))
	buf.WriteString(fmt.Sprintf("**Inserted**: %d\n", result.Inserted))
	buf.WriteString(fmt.Sprintf("**Already present**: %d\n", result.AlreadyPresent))
	buf.WriteString(fmt.Sprintf("**Visibility**: %s\n\n", shared.VisibilityString(result.Playlist.Public)))

	if len(result.TopicCounts) > 0 {
		buf.WriteString("## Topics\n\n")
		for _, tc := range result.TopicCounts {
			buf.WriteString(fmt.Sprintf("- %s: %d\n", tc.Topic, tc.Found))
		}
		buf.WriteString("\n")
	}

	buf.WriteString("## Episodes\n\n")
	for i, c := range result.Candidates {
		buf.WriteString(fmt.Sprintf("%d. [%s] %s - %s%s\n", i+1, c.Topic, c.Episode.ShowName, c.Episode.Name, datePart(c.Episode)))
	}

	return buf.Bytes(), nil
}

// ResultToText converts a refresh result to plain text
func ResultToText(result *tasks.RefreshResult) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Playlist: %s\n", result.Playlist.Name))
	if result.Description != "" {
		buf.WriteString(fmt.Sprintf("Description: %s\n", result.Description))
	}
	buf.WriteString(fmt.Sprintf("Found: %d  Inserted: %d  Already present: %d\n\n", len(result.Candidates), result.Inserted, result.AlreadyPresent))

	for i, c := range result.Candidates {
		buf.WriteString(fmt.Sprintf("%d. [%s] %s - %s\n", i+1, c.Topic, c.Episode.ShowName, c.Episode.Name))
	}

	return buf.Bytes(), nil
}

func datePart(ep models.Episode) string {
	if ep.ReleaseDate == "" {
		return ""
	}
	return fmt.Sprintf(" (%s)", ep.ReleaseDate)
}

// ToMetadataJSON generates a JSON representation of playlist metadata (without episodes)
func ToMetadataJSON(playlist models.Playlist) ([]byte, error) {
	return shared.MarshalJSON(playlist, true)
}

// ExportResult contains the paths of files created by WriteExport
type ExportResult struct {
	EpisodesFile string
	MetadataFile string
}

// WriteExport saves a refresh result to disk as {base}_episodes.csv and {base}_metadata.json.
//
// The base filename defaults to the playlist ID.
func WriteExport(result *tasks.RefreshResult, baseFilepath string) (*ExportResult, error) {
	if baseFilepath == "" {
		baseFilepath = result.Playlist.ID
	}

	csvData, err := ResultToCSV(result)
	if err != nil {
		return nil, fmt.Errorf("failed to generate CSV: %w", err)
	}

	episodesFile := baseFilepath + "_episodes.csv"
	if err := os.WriteFile(episodesFile, csvData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write CSV file: %w", err)
	}

	metadataJSON, err := ToMetadataJSON(*result.Playlist)
	if err != nil {
		return nil, fmt.Errorf("failed to generate metadata JSON: %w", err)
	}

	metadataFile := baseFilepath + "_metadata.json"
	if err := os.WriteFile(metadataFile, metadataJSON, 0644); err != nil {
		return nil, fmt.Errorf("failed to write metadata file: %w", err)
	}

	return &ExportResult{
		EpisodesFile: episodesFile,
		MetadataFile: metadataFile,
	}, nil
}
