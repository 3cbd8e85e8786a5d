package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/castctl/castctl/internal/api"
	"github.com/castctl/castctl/internal/models"
	"github.com/castctl/castctl/internal/shared"
)

func adminUser() models.User {
	return models.User{ID: 1, Username: "admin", Role: "admin", IsActive: true}
}

// loginHandler answers /api/auth/login with a token for the given credentials
// and 401 for everything else.
func loginHandler(t *testing.T, wantUser, wantPass string) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		var creds struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
			t.Errorf("failed to decode login body: %v", err)
		}

		if creds.Username != wantUser || creds.Password != wantPass {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"detail": "Incorrect username or password"}`))
			return
		}

		json.NewEncoder(w).Encode(LoginResponse{
			AccessToken: "tok-abc",
			TokenType:   "bearer",
			ExpiresIn:   300,
			User:        adminUser(),
		})
	}
}

func newTestManager(t *testing.T, handler http.Handler, opts Opts) (*Manager, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	opts.API = api.NewClient(api.Opts{BaseURL: server.URL})
	manager, err := NewManager(opts)
	if err != nil {
		t.Fatalf("failed to create manager: %v", err)
	}
	t.Cleanup(manager.StopHeartbeat)

	return manager, server
}

func TestManager(t *testing.T) {
	ctx := context.Background()

	t.Run("Login", func(t *testing.T) {
		t.Run("stores token and user on success", func(t *testing.T) {
			store := NewMemoryStore()
			manager, _ := newTestManager(t, loginHandler(t, "admin", "secret"), Opts{Store: store})

			user, err := manager.Login(ctx, "admin", "secret")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if user.Username != "admin" {
				t.Errorf("expected admin user, got %s", user.Username)
			}
			if manager.Token() != "tok-abc" {
				t.Errorf("expected token to be stored, got %q", manager.Token())
			}
			if !manager.IsAuthenticated() {
				t.Error("expected authenticated state")
			}

			savedToken, savedUser, err := store.Load()
			if err != nil {
				t.Fatalf("failed to load store: %v", err)
			}
			if savedToken != "tok-abc" || savedUser == nil {
				t.Error("expected session to be persisted")
			}
		})

		t.Run("rejects bad credentials without evicting", func(t *testing.T) {
			evicted := false
			manager, _ := newTestManager(t, loginHandler(t, "admin", "secret"), Opts{
				OnEvicted: func() { evicted = true },
			})

			if _, err := manager.Login(ctx, "admin", "wrong"); !errors.Is(err, shared.ErrAuthFailed) {
				t.Errorf("expected ErrAuthFailed, got %v", err)
			}
			if evicted {
				t.Error("failed login must not trigger eviction")
			}
			if manager.IsAuthenticated() {
				t.Error("expected no session after failed login")
			}
		})

		t.Run("failed login leaves prior session untouched", func(t *testing.T) {
			manager, _ := newTestManager(t, loginHandler(t, "admin", "secret"), Opts{})

			if _, err := manager.Login(ctx, "admin", "secret"); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if _, err := manager.Login(ctx, "admin", "wrong"); err == nil {
				t.Fatal("expected failed login")
			}

			if manager.Token() != "tok-abc" {
				t.Error("expected prior token to survive failed login")
			}
		})

		t.Run("rejects empty token in response", func(t *testing.T) {
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"access_token": "", "token_type": "bearer"}`))
			})
			manager, _ := newTestManager(t, handler, Opts{})

			if _, err := manager.Login(ctx, "admin", "secret"); !errors.Is(err, shared.ErrAuthFailed) {
				t.Errorf("expected ErrAuthFailed, got %v", err)
			}
		})
	})

	t.Run("Logout", func(t *testing.T) {
		t.Run("clears state even when server errors", func(t *testing.T) {
			mux := http.NewServeMux()
			mux.HandleFunc("/api/auth/login", loginHandler(t, "admin", "secret"))
			mux.HandleFunc("/api/auth/logout", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			})

			store := NewMemoryStore()
			manager, _ := newTestManager(t, mux, Opts{Store: store})

			if _, err := manager.Login(ctx, "admin", "secret"); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if err := manager.Logout(ctx); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if manager.IsAuthenticated() {
				t.Error("expected session to be cleared")
			}
			if token, _, _ := store.Load(); token != "" {
				t.Error("expected persisted session to be cleared")
			}
		})

		t.Run("401 during logout is not an eviction", func(t *testing.T) {
			mux := http.NewServeMux()
			mux.HandleFunc("/api/auth/login", loginHandler(t, "admin", "secret"))
			mux.HandleFunc("/api/auth/logout", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"detail": "Could not validate credentials"}`))
			})

			evicted := false
			manager, _ := newTestManager(t, mux, Opts{OnEvicted: func() { evicted = true }})

			manager.Login(ctx, "admin", "secret")
			if err := manager.Logout(ctx); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if evicted {
				t.Error("401 on the logout request must not fire the eviction hook")
			}
			if manager.IsAuthenticated() {
				t.Error("expected session to be cleared")
			}
		})

		t.Run("does not fire eviction hook", func(t *testing.T) {
			mux := http.NewServeMux()
			mux.HandleFunc("/api/auth/login", loginHandler(t, "admin", "secret"))
			mux.HandleFunc("/api/auth/logout", func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{}`))
			})

			evicted := false
			manager, _ := newTestManager(t, mux, Opts{OnEvicted: func() { evicted = true }})

			manager.Login(ctx, "admin", "secret")
			manager.Logout(ctx)

			if evicted {
				t.Error("explicit logout must not fire the eviction hook")
			}
		})
	})

	t.Run("eviction", func(t *testing.T) {
		t.Run("401 on any request evicts the session", func(t *testing.T) {
			mux := http.NewServeMux()
			mux.HandleFunc("/api/auth/login", loginHandler(t, "admin", "secret"))
			mux.HandleFunc("/api/auth/me", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
			})

			evicted := false
			manager, _ := newTestManager(t, mux, Opts{OnEvicted: func() { evicted = true }})

			manager.Login(ctx, "admin", "secret")
			if _, err := manager.RefreshUser(ctx); err == nil {
				t.Fatal("expected refresh to fail")
			}

			if !evicted {
				t.Error("expected eviction hook to fire")
			}
			if manager.IsAuthenticated() {
				t.Error("expected session to be cleared after 401")
			}
		})

		t.Run("heartbeat failure evicts after a single miss", func(t *testing.T) {
			var beats atomic.Int64
			mux := http.NewServeMux()
			mux.HandleFunc("/api/auth/login", loginHandler(t, "admin", "secret"))
			mux.HandleFunc("/api/auth/heartbeat", func(w http.ResponseWriter, r *http.Request) {
				beats.Add(1)
				w.WriteHeader(http.StatusUnauthorized)
			})

			evictedCh := make(chan struct{})
			manager, _ := newTestManager(t, mux, Opts{
				HeartbeatInterval: 10 * time.Millisecond,
				OnEvicted:         func() { close(evictedCh) },
			})

			manager.Login(ctx, "admin", "secret")

			select {
			case <-evictedCh:
			case <-time.After(2 * time.Second):
				t.Fatal("expected eviction after heartbeat failure")
			}

			if manager.IsAuthenticated() {
				t.Error("expected session to be cleared")
			}
			if beats.Load() != 1 {
				t.Errorf("expected no retry after first failed beat, got %d beats", beats.Load())
			}
		})

		t.Run("stale heartbeat cannot evict a replaced session", func(t *testing.T) {
			manager, _ := newTestManager(t, loginHandler(t, "admin", "secret"), Opts{
				OnEvicted: func() { t.Error("stale heartbeat must not fire the eviction hook") },
			})

			manager.Login(ctx, "admin", "secret")
			manager.mu.Lock()
			staleGen := manager.generation
			manager.mu.Unlock()

			// A second login replaces the token; a beat that started under the
			// old token must not be able to clear the new session.
			manager.Login(ctx, "admin", "secret")
			manager.evictIfCurrent(staleGen, errors.New("request failed"))

			if !manager.IsAuthenticated() {
				t.Error("expected the replaced session to survive a stale heartbeat failure")
			}
		})

		t.Run("heartbeat success keeps the session alive", func(t *testing.T) {
			var beats atomic.Int64
			mux := http.NewServeMux()
			mux.HandleFunc("/api/auth/login", loginHandler(t, "admin", "secret"))
			mux.HandleFunc("/api/auth/heartbeat", func(w http.ResponseWriter, r *http.Request) {
				beats.Add(1)
				w.Write([]byte(`{}`))
			})

			manager, _ := newTestManager(t, mux, Opts{HeartbeatInterval: 10 * time.Millisecond})
			manager.Login(ctx, "admin", "secret")

			deadline := time.Now().Add(2 * time.Second)
			for beats.Load() < 3 && time.Now().Before(deadline) {
				time.Sleep(5 * time.Millisecond)
			}

			if beats.Load() < 3 {
				t.Fatalf("expected repeated heartbeats, got %d", beats.Load())
			}
			if !manager.IsAuthenticated() {
				t.Error("expected session to stay alive across successful beats")
			}
		})
	})

	t.Run("rehydration", func(t *testing.T) {
		t.Run("restores session from store", func(t *testing.T) {
			store := NewMemoryStore()
			user := adminUser()
			store.Save("tok-persisted", &user)

			manager, _ := newTestManager(t, http.NewServeMux(), Opts{Store: store})

			if manager.Token() != "tok-persisted" {
				t.Errorf("expected rehydrated token, got %q", manager.Token())
			}
			if current := manager.CurrentUser(); current == nil || current.Username != "admin" {
				t.Error("expected rehydrated user")
			}
		})

		t.Run("empty store starts logged out", func(t *testing.T) {
			manager, _ := newTestManager(t, http.NewServeMux(), Opts{})

			if manager.IsAuthenticated() {
				t.Error("expected logged out state")
			}
			if manager.Token() != "" {
				t.Errorf("expected empty token, got %q", manager.Token())
			}
		})
	})

	t.Run("RefreshUser", func(t *testing.T) {
		t.Run("requires authentication", func(t *testing.T) {
			manager, _ := newTestManager(t, http.NewServeMux(), Opts{})

			if _, err := manager.RefreshUser(ctx); !errors.Is(err, shared.ErrNotAuthenticated) {
				t.Errorf("expected ErrNotAuthenticated, got %v", err)
			}
		})

		t.Run("updates the session copy", func(t *testing.T) {
			mux := http.NewServeMux()
			mux.HandleFunc("/api/auth/login", loginHandler(t, "admin", "secret"))
			mux.HandleFunc("/api/auth/me", func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(models.User{ID: 1, Username: "admin-renamed", Role: "admin", IsActive: true})
			})

			manager, _ := newTestManager(t, mux, Opts{})
			manager.Login(ctx, "admin", "secret")

			user, err := manager.RefreshUser(ctx)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if user.Username != "admin-renamed" {
				t.Errorf("expected refreshed user, got %s", user.Username)
			}
			if current := manager.CurrentUser(); current.Username != "admin-renamed" {
				t.Error("expected session copy to be updated")
			}
		})
	})

	t.Run("CurrentUser returns a copy", func(t *testing.T) {
		manager, _ := newTestManager(t, loginHandler(t, "admin", "secret"), Opts{})
		manager.Login(ctx, "admin", "secret")

		first := manager.CurrentUser()
		first.Username = "mutated"

		if second := manager.CurrentUser(); second.Username != "admin" {
			t.Error("expected CurrentUser to return an independent copy")
		}
	})
}
