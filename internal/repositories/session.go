package repositories

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/castctl/castctl/internal/models"
)

// SessionRepository persists session credentials across process restarts.
//
// The token and user records occupy two rows of the session_state table and are
// always written or removed inside one transaction, so a crash can never leave
// a token without its user or vice versa.
type SessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a new [SessionRepository] with the given database connection
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Save stores the token and user atomically, replacing any prior session.
func (r *SessionRepository) Save(token string, user *models.User) error {
	if token == "" || user == nil {
		return fmt.Errorf("token and user must both be present")
	}

	userJSON, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to encode user: %w", err)
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO session_state (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`

	now := time.Now()
	if _, err := tx.Exec(query, sessionTokenKey, token, now); err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}
	if _, err := tx.Exec(query, sessionUserKey, string(userJSON), now); err != nil {
		return fmt.Errorf("failed to store user: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit session: %w", err)
	}

	return nil
}

// Load retrieves the persisted session. Returns empty values with a nil error
// when no session is stored.
func (r *SessionRepository) Load() (string, *models.User, error) {
	var token string
	err := r.db.QueryRow("SELECT value FROM session_state WHERE key = ?", sessionTokenKey).Scan(&token)
	if err == sql.ErrNoRows {
		return "", nil, nil
	}
	if err != nil {
		return "", nil, fmt.Errorf("failed to load token: %w", err)
	}

	var userJSON string
	err = r.db.QueryRow("SELECT value FROM session_state WHERE key = ?", sessionUserKey).Scan(&userJSON)
	if err == sql.ErrNoRows {
		// Half a session is no session; treat as logged out.
		return "", nil, nil
	}
	if err != nil {
		return "", nil, fmt.Errorf("failed to load user: %w", err)
	}

	var user models.User
	if err := json.Unmarshal([]byte(userJSON), &user); err != nil {
		return "", nil, fmt.Errorf("failed to decode user: %w", err)
	}

	return token, &user, nil
}

// Clear removes the persisted session atomically. Clearing an absent session is not an error.
func (r *SessionRepository) Clear() error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM session_state WHERE key IN (?, ?)", sessionTokenKey, sessionUserKey); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit session clear: %w", err)
	}

	return nil
}
