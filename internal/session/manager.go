// Session lifecycle: token issuance, keep-alive, eviction.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/castctl/castctl/internal/api"
	"github.com/castctl/castctl/internal/models"
	"github.com/castctl/castctl/internal/shared"
	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"
)

const (
	// DefaultHeartbeatInterval keeps one missed beat of margin against the
	// server's 5 minute session expiry.
	DefaultHeartbeatInterval = 3 * time.Minute

	heartbeatTimeout = 30 * time.Second
)

// Store persists session credentials across process restarts. Save and Clear
// act on token and user as a unit.
type Store interface {
	Save(token string, user *models.User) error
	Load() (string, *models.User, error)
	Clear() error
}

// LoginResponse is the backend's token issuance payload.
type LoginResponse struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	ExpiresIn   int         `json:"expires_in"` // seconds
	User        models.User `json:"user"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Manager owns the authenticated session: it is the only writer of the token,
// runs the keep-alive timer, and evicts the session on any authentication
// failure. It implements [api.TokenSource] so the HTTP client reads the current
// token at request-construction time.
type Manager struct {
	mu         sync.Mutex
	api        *api.Client
	store      Store
	logger     *log.Logger
	interval   time.Duration
	token      *oauth2.Token
	user       *models.User
	generation uint64
	stopBeat   chan struct{}
	onEvicted  func()
	inLogout   atomic.Bool
}

// Opts configures a [Manager].
type Opts struct {
	API    *api.Client
	Store  Store
	Logger *log.Logger
	// HeartbeatInterval defaults to [DefaultHeartbeatInterval].
	HeartbeatInterval time.Duration
	// OnEvicted fires after a silent eviction (heartbeat failure or observed
	// 401) so the UI layer can steer the user back to login. It does not fire
	// for explicit logout.
	OnEvicted func()
}

// NewManager creates a session manager, rehydrates any persisted session, and
// wires itself into the HTTP client as token source and 401 handler. A
// rehydrated token is trusted until the next heartbeat or API call; the
// keep-alive timer starts immediately.
func NewManager(opts Opts) (*Manager, error) {
	if opts.API == nil {
		return nil, fmt.Errorf("%w: API client is required", shared.ErrInvalidArgument)
	}
	if opts.Store == nil {
		opts.Store = NewMemoryStore()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.HeartbeatInterval <= 0 {
		opts.HeartbeatInterval = DefaultHeartbeatInterval
	}

	m := &Manager{
		api:       opts.API,
		store:     opts.Store,
		logger:    opts.Logger,
		interval:  opts.HeartbeatInterval,
		onEvicted: opts.OnEvicted,
	}

	opts.API.SetTokens(m)
	opts.API.SetOnUnauthorized(m.HandleUnauthorized)

	token, user, err := opts.Store.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load persisted session: %w", err)
	}
	if token != "" && user != nil {
		m.token = &oauth2.Token{AccessToken: token, TokenType: "Bearer"}
		m.user = user
		m.startHeartbeatLocked()
		m.logger.Debug("session rehydrated", "user", user.Username)
	}

	return m, nil
}

// Token returns the current bearer token, or "" when logged out.
func (m *Manager) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.token == nil {
		return ""
	}
	return m.token.AccessToken
}

// IsAuthenticated reports whether a token is present.
func (m *Manager) IsAuthenticated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token != nil
}

// CurrentUser returns a copy of the session's user record, or nil when logged out.
func (m *Manager) CurrentUser() *models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.user == nil {
		return nil
	}
	u := *m.user
	return &u
}

// Login exchanges credentials for a token. On success the token and user are
// stored together, persisted, and the keep-alive timer starts. On failure any
// prior session state is left untouched.
func (m *Manager) Login(ctx context.Context, username, password string) (*models.User, error) {
	resp, err := m.api.PostAnonymous(ctx, "/api/auth/login", loginRequest{Username: username, Password: password})
	if err != nil {
		return nil, fmt.Errorf("login request failed: %w", err)
	}
	if err := resp.Err(); err != nil {
		if errors.Is(err, shared.ErrUnauthorized) {
			return nil, fmt.Errorf("%w: invalid credentials", shared.ErrAuthFailed)
		}
		return nil, fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}

	var payload LoginResponse
	if err := resp.Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}
	if payload.AccessToken == "" {
		return nil, fmt.Errorf("%w: empty token in response", shared.ErrAuthFailed)
	}

	token := &oauth2.Token{
		AccessToken: payload.AccessToken,
		TokenType:   payload.TokenType,
	}
	if payload.ExpiresIn > 0 {
		token.Expiry = time.Now().Add(time.Duration(payload.ExpiresIn) * time.Second)
	}

	user := payload.User

	m.mu.Lock()
	m.token = token
	m.user = &user
	// Every token replacement starts a new generation so a heartbeat still in
	// flight with the superseded token cannot evict the fresh session. Any
	// running beat loop is pinned to the old generation, so restart it.
	m.generation++
	if m.stopBeat != nil {
		close(m.stopBeat)
		m.stopBeat = nil
	}
	if err := m.store.Save(token.AccessToken, &user); err != nil {
		m.logger.Warn("failed to persist session", "err", err)
	}
	m.startHeartbeatLocked()
	m.mu.Unlock()

	m.logger.Info("logged in", "user", user.Username, "role", user.Role)
	return &user, nil
}

// Logout notifies the server best-effort, then unconditionally clears local
// session state and stops the keep-alive timer. A 401 on the logout request
// means the server already dropped the session; it is not an eviction, so the
// unauthorized hook stays quiet for the duration of the call.
func (m *Manager) Logout(ctx context.Context) error {
	if m.IsAuthenticated() {
		m.inLogout.Store(true)
		if resp, err := m.api.Post(ctx, "/api/auth/logout", nil); err != nil {
			m.logger.Warn("logout notification failed", "err", err)
		} else if err := resp.Err(); err != nil && !errors.Is(err, shared.ErrUnauthorized) {
			m.logger.Warn("logout rejected by server", "err", err)
		}
		m.inLogout.Store(false)
	}

	m.mu.Lock()
	m.clearLocked()
	m.mu.Unlock()

	m.logger.Info("logged out")
	return nil
}

// RefreshUser fetches the current user record from the backend and updates the
// session copy. A 401 here evicts via the client hook like any other call.
func (m *Manager) RefreshUser(ctx context.Context) (*models.User, error) {
	if !m.IsAuthenticated() {
		return nil, shared.ErrNotAuthenticated
	}

	resp, err := m.api.Get(ctx, "/api/auth/me")
	if err != nil {
		return nil, err
	}
	if err := resp.Err(); err != nil {
		return nil, err
	}

	var user models.User
	if err := resp.Decode(&user); err != nil {
		return nil, err
	}

	m.mu.Lock()
	if m.token != nil {
		m.user = &user
		if err := m.store.Save(m.token.AccessToken, &user); err != nil {
			m.logger.Warn("failed to persist session", "err", err)
		}
	}
	m.mu.Unlock()

	return &user, nil
}

// StartHeartbeat starts the keep-alive timer if it is not already running.
func (m *Manager) StartHeartbeat() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.startHeartbeatLocked()
}

// StopHeartbeat cancels the keep-alive timer without touching session state.
func (m *Manager) StopHeartbeat() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopBeat != nil {
		close(m.stopBeat)
		m.stopBeat = nil
	}
}

// HandleUnauthorized is the eviction path shared with the HTTP client: any 401
// observed on any authenticated request lands here. During an explicit logout
// the session is being discarded on purpose, so the hook does nothing.
func (m *Manager) HandleUnauthorized() {
	if m.inLogout.Load() {
		return
	}
	m.evict("unauthorized response")
}

// startHeartbeatLocked is idempotent; callers hold m.mu.
func (m *Manager) startHeartbeatLocked() {
	if m.stopBeat != nil {
		return
	}
	stop := make(chan struct{})
	m.stopBeat = stop
	go m.beat(stop, m.generation)
}

// beat runs the keep-alive loop. gen pins the session generation the loop was
// started for: if the session is evicted while a request is in flight, the
// late result is ignored rather than applied to the successor session.
func (m *Manager) beat(stop chan struct{}, gen uint64) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), heartbeatTimeout)
			err := m.heartbeat(ctx)
			cancel()

			if err != nil {
				// Any failure is session loss: a stale token is unsafe to
				// keep presenting.
				m.evictIfCurrent(gen, err)
				return
			}
		}
	}
}

// heartbeat sends one keep-alive request. Success changes no state.
func (m *Manager) heartbeat(ctx context.Context) error {
	resp, err := m.api.Post(ctx, "/api/auth/heartbeat", nil)
	if err != nil {
		return err
	}
	return resp.Err()
}

// evict clears the session unless already logged out, then notifies.
func (m *Manager) evict(reason string) {
	m.mu.Lock()
	if m.token == nil {
		m.mu.Unlock()
		return
	}
	m.clearLocked()
	m.mu.Unlock()

	m.logger.Warn("session evicted", "reason", reason)
	if m.onEvicted != nil {
		m.onEvicted()
	}
}

// evictIfCurrent applies a heartbeat failure only if the session generation is
// unchanged since the failing beat started.
func (m *Manager) evictIfCurrent(gen uint64, cause error) {
	m.mu.Lock()
	if m.generation != gen || m.token == nil {
		m.mu.Unlock()
		return
	}
	m.clearLocked()
	m.mu.Unlock()

	m.logger.Warn("session evicted", "reason", "heartbeat failed", "err", cause)
	if m.onEvicted != nil {
		m.onEvicted()
	}
}

// clearLocked drops token and user together, bumps the generation, stops the
// timer, and clears durable storage. Callers hold m.mu.
func (m *Manager) clearLocked() {
	m.token = nil
	m.user = nil
	m.generation++
	if m.stopBeat != nil {
		close(m.stopBeat)
		m.stopBeat = nil
	}
	if err := m.store.Clear(); err != nil {
		m.logger.Warn("failed to clear persisted session", "err", err)
	}
}
