package session

import (
	"sync"

	"github.com/castctl/castctl/internal/models"
)

// MemoryStore is a non-durable [Store] used when no database is configured and
// by tests. Contents vanish with the process.
type MemoryStore struct {
	mu    sync.Mutex
	token string
	user  *models.User
}

// NewMemoryStore creates an empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Save(token string, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := *user
	s.token = token
	s.user = &u
	return nil
}

func (s *MemoryStore) Load() (string, *models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token == "" || s.user == nil {
		return "", nil, nil
	}
	u := *s.user
	return s.token, &u, nil
}

func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.user = nil
	return nil
}
