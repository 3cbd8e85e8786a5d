package repositories

import (
	"database/sql"
	"fmt"

	"github.com/castctl/castctl/internal/models"
)

// EpisodeCacheRepository caches episode listings locally so the player can
// browse an album without refetching it on every launch. Entries are replaced
// wholesale per album; the backend remains the source of truth.
type EpisodeCacheRepository struct {
	db *sql.DB
}

// NewEpisodeCacheRepository creates a new [EpisodeCacheRepository] with the given database connection
func NewEpisodeCacheRepository(db *sql.DB) *EpisodeCacheRepository {
	return &EpisodeCacheRepository{db: db}
}

// ReplaceAlbum swaps the cached listing for one album with the given episodes.
func (r *EpisodeCacheRepository) ReplaceAlbum(albumID int, episodes []models.Episode) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM episode_cache WHERE album_id = ?", albumID); err != nil {
		return fmt.Errorf("failed to clear album cache: %w", err)
	}

	query := `
		INSERT INTO episode_cache (id, album_id, title, duration, sort_order, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	for _, ep := range episodes {
		if _, err := tx.Exec(query, ep.ID, albumID, ep.Title, ep.Duration, ep.SortOrder, ep.CreatedAt); err != nil {
			return fmt.Errorf("failed to cache episode %d: %w", ep.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit cache update: %w", err)
	}

	return nil
}

// ListByAlbum returns cached episodes for an album ordered by sort_order.
func (r *EpisodeCacheRepository) ListByAlbum(albumID int) ([]models.Episode, error) {
	query := `
		SELECT id, album_id, title, duration, sort_order, created_at
		FROM episode_cache
		WHERE album_id = ?
		ORDER BY sort_order ASC
	`

	rows, err := r.db.Query(query, albumID)
	if err != nil {
		return nil, fmt.Errorf("failed to query episode cache: %w", err)
	}
	defer rows.Close()

	var episodes []models.Episode
	for rows.Next() {
		var ep models.Episode
		if err := rows.Scan(&ep.ID, &ep.AlbumID, &ep.Title, &ep.Duration, &ep.SortOrder, &ep.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan episode: %w", err)
		}
		episodes = append(episodes, ep)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return episodes, nil
}

// Get retrieves a single cached episode by ID.
func (r *EpisodeCacheRepository) Get(id int) (*models.Episode, error) {
	query := `
		SELECT id, album_id, title, duration, sort_order, created_at
		FROM episode_cache
		WHERE id = ?
	`

	var ep models.Episode
	err := r.db.QueryRow(query, id).Scan(&ep.ID, &ep.AlbumID, &ep.Title, &ep.Duration, &ep.SortOrder, &ep.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("episode not cached: %d", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query episode cache: %w", err)
	}

	return &ep, nil
}

// Clear empties the whole cache.
func (r *EpisodeCacheRepository) Clear() error {
	if _, err := r.db.Exec("DELETE FROM episode_cache"); err != nil {
		return fmt.Errorf("failed to clear episode cache: %w", err)
	}
	return nil
}
