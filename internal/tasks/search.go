package tasks

import (
	"context"
	"fmt"
	"strings"

	"github.com/openclaw/playlister/internal/models"
	"github.com/openclaw/playlister/internal/services"
	"github.com/openclaw/playlister/internal/shared"
)

// maxSearchLimit is the provider's hard cap on a single search request.
const maxSearchLimit = 50

// CombinedTopicLabel tags candidates found by a combined cross-topic query,
// where per-topic attribution is not meaningful.
const CombinedTopicLabel = "combined"

// SortMode selects the ordering applied to search results before selection.
type SortMode int

const (
	// SortRelevance keeps the provider's relevance ordering.
	SortRelevance SortMode = iota
	// SortRecency reorders results newest first by release date.
	SortRecency
)

func (m SortMode) String() string {
	if m == SortRecency {
		return "recency"
	}
	return "relevance"
}

// ParseSortMode parses a sort mode name from config or a CLI flag.
func ParseSortMode(name string) (SortMode, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "relevance":
		return SortRelevance, nil
	case "recency":
		return SortRecency, nil
	default:
		return SortRelevance, fmt.Errorf("%w: unknown sort mode %q (want relevance or recency)", shared.ErrInvalidArgument, name)
	}
}

// Strategy decides how topic queries are issued and how many episodes each
// contributes. Exactly two implementations exist: [Individual] and [Combined].
type Strategy interface {
	// Name returns the strategy name as it appears in config and history.
	Name() string

	collect(ctx context.Context, s *Searcher, topics []string, sortBy SortMode) ([]models.Candidate, []models.TopicCount, error)
}

// Individual issues one query per topic and keeps up to PerTopic episodes
// from each, so every topic gets a fair share of the batch.
type Individual struct {
	PerTopic int
}

func (Individual) Name() string { return "individual" }

// Combined issues a single query covering all topics and keeps up to
// TotalCap episodes overall. Topic attribution is lost.
type Combined struct {
	TotalCap int
}

func (Combined) Name() string { return "combined" }

// StrategyFromConfig builds a [Strategy] from its config name and the
// episodes-per-topic setting. The combined cap is derived from the topic
// count and clamped to the provider's search limit.
func StrategyFromConfig(name string, perTopic, topicCount int) (Strategy, error) {
	if perTopic <= 0 {
		return nil, fmt.Errorf("%w: episodes_per_topic must be positive, got %d", shared.ErrInvalidConfig, perTopic)
	}

	switch strings.ToLower(strings.TrimSpace(name)) {
	case "individual":
		return Individual{PerTopic: perTopic}, nil
	case "combined":
		cap := perTopic * topicCount
		if cap > maxSearchLimit {
			cap = maxSearchLimit
		}
		return Combined{TotalCap: cap}, nil
	default:
		return nil, fmt.Errorf("%w: unknown search strategy %q (want individual or combined)", shared.ErrInvalidConfig, name)
	}
}

// Searcher collects deduplicated episode batches from a search provider.
type Searcher struct {
	search services.SearchService
}

// NewSearcher creates a [Searcher] backed by the given search provider.
func NewSearcher(search services.SearchService) *Searcher {
	return &Searcher{search: search}
}

// Collect runs the strategy's queries and returns the candidate batch and
// per-topic contribution counts.
//
// The batch contains each episode URI exactly once. A topic finding nothing
// still appears in the counts with zero; the caller decides whether an
// entirely empty batch is worth reporting.
func (s *Searcher) Collect(ctx context.Context, strategy Strategy, topics []string, sortBy SortMode) ([]models.Candidate, []models.TopicCount, error) {
	if len(topics) == 0 {
		return nil, nil, shared.ErrNoTopics
	}
	return strategy.collect(ctx, s, topics, sortBy)
}

// topicQuery builds the provider query for a topic. The "podcast" prefix
// biases episode search toward shows rather than stray audio content.
func topicQuery(topic string) string {
	return "podcast " + topic
}

// fetchLimit widens the requested page so that deduplication and date
// sorting have enough raw material to fill the quota. Recency sorting always
// needs a wider net than relevance because the freshest episodes are rarely
// the most relevant ones.
func fetchLimit(quota, factor int, sortBy SortMode) int {
	if sortBy == SortRecency {
		factor = 3
	}
	limit := quota * factor
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}
	return limit
}

func (strat Individual) collect(ctx context.Context, s *Searcher, topics []string, sortBy SortMode) ([]models.Candidate, []models.TopicCount, error) {
	seen := make(map[string]bool)
	var batch []models.Candidate
	counts := make([]models.TopicCount, 0, len(topics))

	for _, topic := range topics {
		// Over-fetch so cross-topic dedup can still fill the quota.
		episodes, err := s.search.SearchEpisodes(ctx, topicQuery(topic), fetchLimit(strat.PerTopic, 2, sortBy))
		if err != nil {
			return nil, nil, fmt.Errorf("search for topic %q failed: %w", topic, err)
		}

		if sortBy == SortRecency {
			SortEpisodesByRecency(episodes)
		}

		// First topic to surface a URI owns it; later topics skip it
		// but may not recover the lost slot past their own results.
		kept := 0
		for _, ep := range episodes {
			if kept >= strat.PerTopic {
				break
			}
			if ep.URI == "" || seen[ep.URI] {
				continue
			}
			seen[ep.URI] = true
			batch = append(batch, models.Candidate{Topic: topic, Episode: ep})
			kept++
		}

		counts = append(counts, models.TopicCount{Topic: topic, Found: kept})
	}

	return batch, counts, nil
}

func (strat Combined) collect(ctx context.Context, s *Searcher, topics []string, sortBy SortMode) ([]models.Candidate, []models.TopicCount, error) {
	query := topicQuery(strings.Join(topics, " OR "))

	episodes, err := s.search.SearchEpisodes(ctx, query, fetchLimit(strat.TotalCap, 1, sortBy))
	if err != nil {
		return nil, nil, fmt.Errorf("combined search failed: %w", err)
	}

	if sortBy == SortRecency {
		SortEpisodesByRecency(episodes)
	}

	seen := make(map[string]bool)
	var batch []models.Candidate
	for _, ep := range episodes {
		if len(batch) >= strat.TotalCap {
			break
		}
		if ep.URI == "" || seen[ep.URI] {
			continue
		}
		seen[ep.URI] = true
		batch = append(batch, models.Candidate{Topic: CombinedTopicLabel, Episode: ep})
	}

	counts := []models.TopicCount{{Topic: CombinedTopicLabel, Found: len(batch)}}
	return batch, counts, nil
}
