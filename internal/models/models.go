package models

import (
	"time"
)

// Episode represents a podcast episode returned by the search provider.
//
// The URI is the provider's opaque, immutable identifier and is the only
// field dedup logic may rely on.
type Episode struct {
	URI                  string `json:"uri"`
	Name                 string `json:"name"`
	ShowName             string `json:"show_name"`
	ReleaseDate          string `json:"release_date"`           // ISO-8601, possibly partial ("2024", "2024-03")
	ReleaseDatePrecision string `json:"release_date_precision"` // "year", "month", or "day"
	Rank                 int    `json:"rank"`                   // position in the provider's relevance ordering
}

// Candidate pairs an episode with the topic whose query surfaced it.
//
// In individual search mode the first topic to surface a shared URI owns it
// for display purposes; combined mode tags every entry "combined".
type Candidate struct {
	Topic   string  `json:"topic"`
	Episode Episode `json:"episode"`
}

// TopicCount reports how many episodes a topic query contributed to a batch.
// A zero count is a normal outcome, not an error.
type TopicCount struct {
	Topic string `json:"topic"`
	Found int    `json:"found"`
}

// Playlist represents a playlist on the streaming service.
type Playlist struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	ItemCount   int    `json:"item_count"`
	Public      bool   `json:"public"`
	URL         string `json:"url"`
}

// Model defines the base interface for all persistent models.
type Model interface {
	ID() string           // ID returns the unique identifier for this model
	CreatedAt() time.Time // CreatedAt returns when this model was created
	UpdatedAt() time.Time // UpdatedAt returns when this model was last updated
	Validate() error      // Validate checks if the model's data is valid and returns an error if not
}

// Repository defines the interface for data access operations.
// Implementations handle database interactions for specific model types.
type Repository[T Model] interface {
	Create(model T) error                      // Create inserts a new model into the database
	Get(id string) (T, error)                  // Get retrieves a model by its ID
	Update(model T) error                      // Update modifies an existing model in the database
	Delete(id string) error                    // Delete removes a model from the database by its ID
	List(criteria map[string]any) ([]T, error) // List retrieves all models matching the given criteria
}
