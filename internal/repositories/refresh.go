package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/openclaw/playlister/internal/models"
	"github.com/openclaw/playlister/internal/shared"
)

// RefreshRepository implements models.Repository[*models.RefreshRecord] for refresh run history.
//
// Handles refresh record CRUD with soft delete support.
type RefreshRepository struct {
	db *sql.DB
}

// NewRefreshRepository creates a new RefreshRepository with the given database connection
func NewRefreshRepository(db *sql.DB) *RefreshRepository {
	return &RefreshRepository{db: db}
}

// Create inserts a new refresh record into the database with generated ID and sequence
func (r *RefreshRepository) Create(record *models.RefreshRecord) error {
	sequence, err := NextSequence(r.db, "refreshes")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}
	record.SetSequence(sequence)

	id := shared.GenerateID()
	record.SetID(id)

	if err := record.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO refreshes (id, sequence, playlist_id, playlist_name, strategy, sort_by, found, inserted, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		id,
		sequence,
		record.PlaylistID(),
		record.PlaylistName(),
		record.Strategy(),
		record.SortBy(),
		record.Found(),
		record.Inserted(),
		record.CreatedAt(),
		record.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert refresh record: %w", err)
	}

	return nil
}

// Get retrieves a refresh record by ID, excluding soft-deleted records
func (r *RefreshRepository) Get(id string) (*models.RefreshRecord, error) {
	query := `
		SELECT id, sequence, playlist_id, playlist_name, strategy, sort_by, found, inserted, created_at, updated_at, deleted_at
		FROM refreshes
		WHERE id = ? AND deleted_at IS NULL
	`

	record, err := scanRefresh(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("refresh record not found: %s", id)
	}
	return record, err
}

// Update modifies an existing refresh record in the database
func (r *RefreshRepository) Update(record *models.RefreshRecord) error {
	if err := record.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	record.SetUpdatedAt(now)

	query := `
		UPDATE refreshes
		SET playlist_id = ?, playlist_name = ?, strategy = ?, sort_by = ?, found = ?, inserted = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query,
		record.PlaylistID(),
		record.PlaylistName(),
		record.Strategy(),
		record.SortBy(),
		record.Found(),
		record.Inserted(),
		now,
		record.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update refresh record: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("refresh record not found or already deleted: %s", record.ID())
	}

	return nil
}

// Delete soft-deletes a refresh record by ID
func (r *RefreshRepository) Delete(id string) error {
	now := time.Now()

	query := `
		UPDATE refreshes
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, now, id)
	if err != nil {
		return fmt.Errorf("failed to delete refresh record: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("refresh record not found or already deleted: %s", id)
	}

	return nil
}

// List retrieves refresh records matching the given criteria, newest first,
// excluding soft-deleted records
func (r *RefreshRepository) List(criteria map[string]any) ([]*models.RefreshRecord, error) {
	query := `
		SELECT id, sequence, playlist_id, playlist_name, strategy, sort_by, found, inserted, created_at, updated_at, deleted_at
		FROM refreshes
		WHERE deleted_at IS NULL
	`

	args := []any{}

	if playlistName, ok := criteria["playlist_name"].(string); ok && playlistName != "" {
		query += " AND playlist_name = ?"
		args = append(args, playlistName)
	}

	query += " ORDER BY sequence DESC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query refresh records: %w", err)
	}
	defer rows.Close()

	var records []*models.RefreshRecord
	for rows.Next() {
		record, err := scanRefresh(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return records, nil
}

// scanner abstracts *sql.Row and *sql.Rows for shared scan logic
type scanner interface {
	Scan(dest ...any) error
}

func scanRefresh(row scanner) (*models.RefreshRecord, error) {
	var (
		id           string
		sequence     int
		playlistID   string
		playlistName string
		strategy     string
		sortBy       string
		found        int
		inserted     int
		createdAt    time.Time
		updatedAt    time.Time
		deletedAt    sql.NullTime
	)

	err := row.Scan(&id, &sequence, &playlistID, &playlistName, &strategy, &sortBy, &found, &inserted, &createdAt, &updatedAt, &deletedAt)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan refresh record: %w", err)
	}

	record := models.NewRefreshRecord(sequence, playlistID, playlistName, strategy, sortBy, found, inserted)
	record.SetID(id)
	record.SetCreatedAt(createdAt)
	record.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		record.SetDeletedAt(&deletedAt.Time)
	}

	return record, nil
}
