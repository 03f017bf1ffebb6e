package repositories

import (
	"database/sql"
	"strings"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/openclaw/playlister/internal/models"
	"github.com/openclaw/playlister/internal/shared"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

func newRecord(playlistID string) *models.RefreshRecord {
	return models.NewRefreshRecord(0, playlistID, "Daily Playlister", "individual", "recency", 9, 4)
}

func TestNextSequence(t *testing.T) {
	db := setupTestDB(t)

	first, err := NextSequence(db, "refreshes")
	if err != nil {
		t.Fatalf("NextSequence failed: %v", err)
	}
	second, err := NextSequence(db, "refreshes")
	if err != nil {
		t.Fatalf("NextSequence failed: %v", err)
	}

	if first != 1 || second != 2 {
		t.Errorf("sequences should start at 1 and increment: got %d, %d", first, second)
	}
}

func TestRefreshRepositoryCRUD(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRefreshRepository(db)

	t.Run("create assigns id and sequence", func(t *testing.T) {
		record := newRecord("pl1")
		if err := repo.Create(record); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		if record.ID() == "" {
			t.Error("Create should assign an ID")
		}
		if record.Sequence() == 0 {
			t.Error("Create should assign a sequence")
		}
	})

	t.Run("create rejects invalid record", func(t *testing.T) {
		bad := models.NewRefreshRecord(0, "", "", "individual", "recency", 1, 0)
		if err := repo.Create(bad); err == nil {
			t.Error("expected validation error for missing playlist fields")
		}
	})

	t.Run("get round trips", func(t *testing.T) {
		record := newRecord("pl2")
		if err := repo.Create(record); err != nil {
			t.Fatalf("Create failed: %v", err)
		}

		got, err := repo.Get(record.ID())
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if got.PlaylistID() != "pl2" || got.Found() != 9 || got.Inserted() != 4 {
			t.Errorf("unexpected record: %+v", got)
		}
		if got.Strategy() != "individual" || got.SortBy() != "recency" {
			t.Errorf("strategy fields lost in round trip: %s, %s", got.Strategy(), got.SortBy())
		}
	})

	t.Run("update modifies counts", func(t *testing.T) {
		record := newRecord("pl3")
		if err := repo.Create(record); err != nil {
			t.Fatalf("Create failed: %v", err)
		}

		record.SetCounts(12, 7)
		if err := repo.Update(record); err != nil {
			t.Fatalf("Update failed: %v", err)
		}

		got, err := repo.Get(record.ID())
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if got.Found() != 12 || got.Inserted() != 7 {
			t.Errorf("counts not updated: %d, %d", got.Found(), got.Inserted())
		}
	})

	t.Run("delete is soft", func(t *testing.T) {
		record := newRecord("pl4")
		if err := repo.Create(record); err != nil {
			t.Fatalf("Create failed: %v", err)
		}

		if err := repo.Delete(record.ID()); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		if _, err := repo.Get(record.ID()); err == nil {
			t.Error("Get should not return a soft-deleted record")
		}
		if err := repo.Delete(record.ID()); err == nil {
			t.Error("double delete should fail")
		}

		var deletedAt sql.NullTime
		err := db.QueryRow("SELECT deleted_at FROM refreshes WHERE id = ?", record.ID()).Scan(&deletedAt)
		if err != nil || !deletedAt.Valid {
			t.Errorf("row should survive with deleted_at set: %v, %v", err, deletedAt)
		}
	})

	t.Run("list newest first with limit", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewRefreshRepository(db)

		for i := 0; i < 3; i++ {
			if err := repo.Create(newRecord("pl-list")); err != nil {
				t.Fatalf("Create failed: %v", err)
			}
		}

		records, err := repo.List(map[string]any{"limit": 2})
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(records) != 2 {
			t.Fatalf("expected 2 records, got %d", len(records))
		}
		if records[0].Sequence() <= records[1].Sequence() {
			t.Errorf("records should be newest first: %d, %d", records[0].Sequence(), records[1].Sequence())
		}

		filtered, err := repo.List(map[string]any{"playlist_name": "no such playlist"})
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(filtered) != 0 {
			t.Errorf("expected no records for unknown playlist, got %d", len(filtered))
		}
	})
}

func TestEpisodeRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewEpisodeRepository(db)

	episode := &models.CachedEpisode{
		URI:         "spotify:episode:abc",
		Name:        "Deep Dive",
		ShowName:    "The Show",
		ReleaseDate: "2024-03-15",
		Topic:       "technology",
		RefreshID:   "refresh-1",
	}

	t.Run("record and get", func(t *testing.T) {
		if err := repo.Record(episode); err != nil {
			t.Fatalf("Record failed: %v", err)
		}

		got, err := repo.GetByURI("spotify:episode:abc")
		if err != nil {
			t.Fatalf("GetByURI failed: %v", err)
		}
		if got.Name != "Deep Dive" || got.Topic != "technology" {
			t.Errorf("unexpected episode: %+v", got)
		}
	})

	t.Run("record requires a URI", func(t *testing.T) {
		err := repo.Record(&models.CachedEpisode{Name: "no uri"})
		if err == nil || !strings.Contains(err.Error(), "URI") {
			t.Errorf("expected URI error, got %v", err)
		}
	})

	t.Run("duplicate URI keeps the original row", func(t *testing.T) {
		dup := *episode
		dup.Name = "Renamed Episode"
		dup.RefreshID = "refresh-2"
		if err := repo.Record(&dup); err != nil {
			t.Fatalf("Record failed: %v", err)
		}

		got, err := repo.GetByURI(episode.URI)
		if err != nil {
			t.Fatalf("GetByURI failed: %v", err)
		}
		if got.Name != "Deep Dive" || got.RefreshID != "refresh-1" {
			t.Errorf("duplicate insert should be ignored, got %+v", got)
		}
	})

	t.Run("list by refresh", func(t *testing.T) {
		second := &models.CachedEpisode{
			URI:       "spotify:episode:def",
			Name:      "Another",
			ShowName:  "The Show",
			Topic:     "science",
			RefreshID: "refresh-1",
			CreatedAt: time.Now().Add(time.Second),
		}
		if err := repo.Record(second); err != nil {
			t.Fatalf("Record failed: %v", err)
		}

		episodes, err := repo.ListByRefresh("refresh-1")
		if err != nil {
			t.Fatalf("ListByRefresh failed: %v", err)
		}
		if len(episodes) != 2 {
			t.Fatalf("expected 2 episodes, got %d", len(episodes))
		}
		if episodes[0].URI != "spotify:episode:abc" {
			t.Errorf("episodes should keep insertion order, got %s first", episodes[0].URI)
		}
	})

	t.Run("count by topic", func(t *testing.T) {
		counts, err := repo.CountByTopic()
		if err != nil {
			t.Fatalf("CountByTopic failed: %v", err)
		}
		if counts["technology"] != 1 || counts["science"] != 1 {
			t.Errorf("unexpected counts: %v", counts)
		}
	})
}
