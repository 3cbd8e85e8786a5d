// Package streamengine implements [player.Engine] over the backend's
// bearer-authenticated stream endpoint.
//
// The engine probes the stream source when a track loads and paces transport
// events against the wall clock: metadata-ready after the probe, one
// time-update per second while playing, ended when the playhead reaches the
// reported duration. Duration falls back to a 128 kbps estimate from the
// stream's byte size when the caller knows no better value, matching the
// backend's own estimation for unparsed audio. It verifies stream availability
// and models playback timing; audio decoding is outside its scope.
package streamengine

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/castctl/castctl/internal/api"
	"github.com/castctl/castctl/internal/player"
	"github.com/castctl/castctl/internal/shared"
	"github.com/charmbracelet/log"
)

// bytesPerSecond is the 128 kbps fallback rate used to estimate duration from
// stream size (the backend uses the same figure).
const bytesPerSecond = 16384

// Engine is a wall-clock pacing implementation of [player.Engine].
type Engine struct {
	mu         sync.Mutex
	httpClient *http.Client
	tokens     api.TokenSource
	logger     *log.Logger
	events     chan player.Event
	stop       chan struct{}
	tick       time.Duration

	src      string
	duration float64
	position float64
	playing  bool
	volume   float64
	closed   bool
}

// Opts configures an [Engine].
type Opts struct {
	HTTPClient *http.Client
	Tokens     api.TokenSource
	Logger     *log.Logger
	// Tick overrides the time-update cadence; defaults to one second.
	Tick time.Duration
}

// New creates a stream engine and starts its clock.
func New(opts Opts) *Engine {
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Tick <= 0 {
		opts.Tick = time.Second
	}

	e := &Engine{
		httpClient: opts.HTTPClient,
		tokens:     opts.Tokens,
		logger:     opts.Logger,
		events:     make(chan player.Event, 32),
		stop:       make(chan struct{}),
		tick:       opts.Tick,
		volume:     1.0,
	}

	go e.run()

	return e
}

// run advances the playhead while playing until the engine closes.
func (e *Engine) run() {
	ticker := time.NewTicker(e.tick)
	defer ticker.Stop()

	for {
		select {
		case <-e.stop:
			e.mu.Lock()
			close(e.events)
			e.mu.Unlock()
			return
		case <-ticker.C:
			e.advance()
		}
	}
}

// advance moves the playhead by one tick of seconds.
func (e *Engine) advance() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.playing || e.src == "" {
		return
	}

	e.position += e.tick.Seconds()

	if e.duration > 0 && e.position >= e.duration {
		e.position = 0
		e.playing = false
		e.emitLocked(player.Event{Kind: player.EventEnded, Source: e.src})
		return
	}

	e.emitLocked(player.Event{Kind: player.EventTimeUpdate, Source: e.src, Position: e.position})
}

// emitLocked sends without blocking; a full buffer drops the event rather than
// stalling the clock. Callers hold e.mu.
func (e *Engine) emitLocked(ev player.Event) {
	if e.closed {
		return
	}
	select {
	case e.events <- ev:
	default:
	}
}

// Load replaces the source and probes it asynchronously. The prior source is
// retired before Load returns: its events are no longer produced.
func (e *Engine) Load(src string) error {
	if src == "" {
		return fmt.Errorf("%w: empty source", shared.ErrPlaybackFailed)
	}

	e.mu.Lock()
	e.src = src
	e.position = 0
	e.duration = 0
	e.playing = false
	e.mu.Unlock()

	go e.probe(src)

	return nil
}

// probe checks the stream source and reports its metadata. A probe finishing
// after another Load is discarded.
func (e *Engine) probe(src string) {
	req, err := http.NewRequest(http.MethodHead, src, nil)
	if err != nil {
		e.probeFailed(src, err)
		return
	}
	if e.tokens != nil {
		if token := e.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		e.probeFailed(src, err)
		return
	}
	resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		e.probeFailed(src, fmt.Errorf("status %d", resp.StatusCode))
		return
	}

	var duration float64
	if resp.ContentLength > 0 {
		duration = float64(resp.ContentLength) / bytesPerSecond
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.src != src {
		return
	}
	e.duration = duration
	e.emitLocked(player.Event{Kind: player.EventMetadata, Source: src, Duration: duration})
}

func (e *Engine) probeFailed(src string, cause error) {
	e.logger.Warn("stream probe failed", "source", src, "err", cause)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.src != src {
		return
	}
	e.emitLocked(player.Event{
		Kind:   player.EventError,
		Source: src,
		Err:    fmt.Errorf("%w: %v", shared.ErrPlaybackFailed, cause),
	})
}

// Play starts the clock. Acceptance is signalled by the play-started event.
func (e *Engine) Play() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.src == "" {
		return fmt.Errorf("%w: no source loaded", shared.ErrPlaybackFailed)
	}

	e.playing = true
	e.emitLocked(player.Event{Kind: player.EventPlayStarted, Source: e.src, Position: e.position})
	return nil
}

// Pause stops the clock.
func (e *Engine) Pause() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.playing = false
	if e.src != "" {
		e.emitLocked(player.Event{Kind: player.EventPaused, Source: e.src, Position: e.position})
	}
	return nil
}

// Seek clamps into [0, duration] and reports the new position.
func (e *Engine) Seek(seconds float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if seconds < 0 {
		seconds = 0
	}
	if e.duration > 0 && seconds > e.duration {
		seconds = e.duration
	}
	e.position = seconds

	if e.src != "" {
		e.emitLocked(player.Event{Kind: player.EventTimeUpdate, Source: e.src, Position: e.position})
	}
	return nil
}

// SetVolume clamps into [0, 1].
func (e *Engine) SetVolume(level float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if level < 0 {
		level = 0
	}
	if level > 1 {
		level = 1
	}
	e.volume = level
	return nil
}

// Events returns the engine's event stream.
func (e *Engine) Events() <-chan player.Event {
	return e.events
}

// Close stops the clock and closes the event stream.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.mu.Unlock()

	close(e.stop)
	return nil
}

var _ player.Engine = (*Engine)(nil)
