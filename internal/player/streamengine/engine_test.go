package streamengine

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/castctl/castctl/internal/player"
)

type staticTokens struct {
	token string
}

func (s staticTokens) Token() string { return s.token }

// streamServer answers HEAD probes with the given content length.
func streamServer(t *testing.T, size int64, wantAuth string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodHead {
			t.Errorf("expected HEAD probe, got %s", r.Method)
		}
		if wantAuth != "" && r.Header.Get("Authorization") != wantAuth {
			t.Errorf("expected auth header %q, got %q", wantAuth, r.Header.Get("Authorization"))
		}
		w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
	}))
	t.Cleanup(server.Close)
	return server
}

// waitFor reads events until one matches, failing the test on timeout.
func waitFor(t *testing.T, events <-chan player.Event, kind player.EventKind) player.Event {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				t.Fatalf("event stream closed while waiting for %v", kind)
			}
			if ev.Kind == kind {
				return ev
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %v", kind)
		}
	}
}

func TestEngine(t *testing.T) {
	t.Run("Load", func(t *testing.T) {
		t.Run("rejects an empty source", func(t *testing.T) {
			e := New(Opts{Tick: time.Millisecond})
			defer e.Close()

			if err := e.Load(""); err == nil {
				t.Error("expected error for empty source")
			}
		})

		t.Run("probe estimates duration from stream size", func(t *testing.T) {
			// 16384 bytes per second at the backend's 128 kbps fallback rate.
			server := streamServer(t, 163840, "")
			e := New(Opts{Tick: time.Hour})
			defer e.Close()

			if err := e.Load(server.URL); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			ev := waitFor(t, e.Events(), player.EventMetadata)
			if ev.Duration != 10 {
				t.Errorf("expected 10s duration for 160KiB stream, got %f", ev.Duration)
			}
			if ev.Source != server.URL {
				t.Errorf("expected event tagged with source, got %q", ev.Source)
			}
		})

		t.Run("probe sends the bearer token", func(t *testing.T) {
			server := streamServer(t, 16384, "Bearer tok-xyz")
			e := New(Opts{Tick: time.Hour, Tokens: staticTokens{token: "tok-xyz"}})
			defer e.Close()

			e.Load(server.URL)
			waitFor(t, e.Events(), player.EventMetadata)
		})

		t.Run("failed probe reports an error event", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			}))
			t.Cleanup(server.Close)

			e := New(Opts{Tick: time.Hour})
			defer e.Close()

			e.Load(server.URL)
			ev := waitFor(t, e.Events(), player.EventError)
			if ev.Err == nil {
				t.Error("expected error event to carry a cause")
			}
		})
	})

	t.Run("transport", func(t *testing.T) {
		t.Run("play refuses with no source", func(t *testing.T) {
			e := New(Opts{Tick: time.Hour})
			defer e.Close()

			if err := e.Play(); err == nil {
				t.Error("expected refusal with no source loaded")
			}
		})

		t.Run("play emits play-started and the clock advances", func(t *testing.T) {
			server := streamServer(t, 16384000, "")
			e := New(Opts{Tick: 5 * time.Millisecond})
			defer e.Close()

			e.Load(server.URL)
			waitFor(t, e.Events(), player.EventMetadata)

			if err := e.Play(); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			waitFor(t, e.Events(), player.EventPlayStarted)

			ev := waitFor(t, e.Events(), player.EventTimeUpdate)
			if ev.Position <= 0 {
				t.Errorf("expected playhead to advance, got %f", ev.Position)
			}
		})

		t.Run("pause stops the clock", func(t *testing.T) {
			server := streamServer(t, 16384000, "")
			e := New(Opts{Tick: 5 * time.Millisecond})
			defer e.Close()

			e.Load(server.URL)
			waitFor(t, e.Events(), player.EventMetadata)
			e.Play()
			waitFor(t, e.Events(), player.EventTimeUpdate)

			e.Pause()
			waitFor(t, e.Events(), player.EventPaused)
		})

		t.Run("reaching the duration emits ended", func(t *testing.T) {
			server := streamServer(t, 16384, "") // 1 second of audio
			e := New(Opts{Tick: 5 * time.Millisecond})
			defer e.Close()

			e.Load(server.URL)
			waitFor(t, e.Events(), player.EventMetadata)

			e.Seek(0.99)
			e.Play()

			waitFor(t, e.Events(), player.EventEnded)
		})

		t.Run("seek clamps into the stream's range", func(t *testing.T) {
			server := streamServer(t, 163840, "") // 10 seconds
			e := New(Opts{Tick: time.Hour})
			defer e.Close()

			e.Load(server.URL)
			waitFor(t, e.Events(), player.EventMetadata)

			e.Seek(500)
			ev := waitFor(t, e.Events(), player.EventTimeUpdate)
			if ev.Position != 10 {
				t.Errorf("expected position clamped to duration, got %f", ev.Position)
			}
		})
	})

	t.Run("Close", func(t *testing.T) {
		t.Run("closes the event stream", func(t *testing.T) {
			e := New(Opts{Tick: time.Millisecond})
			e.Close()

			deadline := time.After(2 * time.Second)
			for {
				select {
				case _, ok := <-e.Events():
					if !ok {
						return
					}
				case <-deadline:
					t.Fatal("expected event stream to close")
				}
			}
		})

		t.Run("is idempotent", func(t *testing.T) {
			e := New(Opts{Tick: time.Millisecond})
			e.Close()
			e.Close()
		})
	})
}
