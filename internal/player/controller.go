// Playback controller: a state reducer over engine events and user commands.
package player

import (
	"fmt"
	"sync"

	"github.com/castctl/castctl/internal/models"
	"github.com/castctl/castctl/internal/shared"
	"github.com/charmbracelet/log"
)

// Session is an observable snapshot of playback state. It is a projection of
// engine truth: fields change in response to engine events, never because a
// requested transition was assumed to succeed.
type Session struct {
	CurrentTrack *models.Episode
	Playing      bool // optimistic on request, converged to engine truth
	Requested    bool // a play request is outstanding
	Position     float64
	Duration     float64
	Volume       float64
}

// Resolver maps an episode to the media source URL handed to the engine.
type Resolver func(models.Episode) string

// Controller wraps a media [Engine] and exposes transport operations. The
// engine remains the single source of truth for time, duration, and actual
// play state; the controller folds its event stream into a [Session]
// projection. There is no playlist policy here; previous/next is the caller
// supplying another track via [Controller.Load].
type Controller struct {
	mu       sync.Mutex
	engine   Engine
	resolve  Resolver
	logger   *log.Logger
	onChange func(Session)

	track     *models.Episode
	source    string
	playing   bool
	requested bool
	position  float64
	duration  float64
	volume    float64

	pumpDone chan struct{}
}

// Opts configures a [Controller].
type Opts struct {
	Engine   Engine
	Resolver Resolver
	Logger   *log.Logger
	// OnChange fires after every applied state change, with the new snapshot.
	OnChange func(Session)
}

// NewController creates a controller and starts draining the engine's event
// stream. Call [Controller.Close] to release the engine.
func NewController(opts Opts) (*Controller, error) {
	if opts.Engine == nil {
		return nil, fmt.Errorf("%w: engine is required", shared.ErrInvalidArgument)
	}
	if opts.Resolver == nil {
		return nil, fmt.Errorf("%w: resolver is required", shared.ErrInvalidArgument)
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	c := &Controller{
		engine:   opts.Engine,
		resolve:  opts.Resolver,
		logger:   opts.Logger,
		onChange: opts.OnChange,
		volume:   1.0,
		pumpDone: make(chan struct{}),
	}

	go c.pump()

	return c, nil
}

// pump folds engine events into controller state until the stream closes.
func (c *Controller) pump() {
	defer close(c.pumpDone)
	for ev := range c.engine.Events() {
		c.HandleEvent(ev)
	}
}

// Load replaces the current track wholesale: position resets to zero, playback
// stops, and the engine begins buffering the new source. Valid from any state.
func (c *Controller) Load(track models.Episode) error {
	src := c.resolve(track)

	c.mu.Lock()
	t := track
	c.track = &t
	c.source = src
	c.position = 0
	c.duration = float64(track.Duration)
	c.playing = false
	c.requested = false
	c.mu.Unlock()

	c.notify()

	if err := c.engine.Load(src); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrPlaybackFailed, err)
	}
	return nil
}

// Play requests audio output. The playing flag is set optimistically but the
// engine's play-started event (or its refusal) settles the real state.
func (c *Controller) Play() error {
	c.mu.Lock()
	if c.track == nil {
		c.mu.Unlock()
		return shared.ErrNoTrackLoaded
	}
	c.playing = true
	c.requested = true
	c.mu.Unlock()

	c.notify()

	if err := c.engine.Play(); err != nil {
		// Engine refused outright; converge immediately.
		c.mu.Lock()
		c.playing = false
		c.requested = false
		c.mu.Unlock()
		c.notify()
		return fmt.Errorf("%w: %v", shared.ErrPlaybackFailed, err)
	}
	return nil
}

// Pause halts output.
func (c *Controller) Pause() error {
	c.mu.Lock()
	c.playing = false
	c.requested = false
	c.mu.Unlock()

	c.notify()

	if err := c.engine.Pause(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrPlaybackFailed, err)
	}
	return nil
}

// Toggle pauses when playing, plays otherwise.
func (c *Controller) Toggle() error {
	c.mu.Lock()
	playing := c.playing
	c.mu.Unlock()

	if playing {
		return c.Pause()
	}
	return c.Play()
}

// Seek moves the playhead, clamping into [0, duration]. Position updates
// immediately for responsive UI, independent of playback state.
func (c *Controller) Seek(seconds float64) error {
	c.mu.Lock()
	if seconds < 0 {
		seconds = 0
	}
	if c.duration > 0 && seconds > c.duration {
		seconds = c.duration
	}
	c.position = seconds
	c.mu.Unlock()

	c.notify()

	if err := c.engine.Seek(seconds); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrPlaybackFailed, err)
	}
	return nil
}

// SetVolume clamps level into [0, 1] and applies it immediately.
func (c *Controller) SetVolume(level float64) error {
	if level < 0 {
		level = 0
	}
	if level > 1 {
		level = 1
	}

	c.mu.Lock()
	c.volume = level
	c.mu.Unlock()

	c.notify()

	if err := c.engine.SetVolume(level); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrPlaybackFailed, err)
	}
	return nil
}

// HandleEvent applies one engine event to the session projection. Events from
// a source other than the currently loaded one are discarded: after two loads
// in quick succession, the first track leaves no residue.
func (c *Controller) HandleEvent(ev Event) {
	c.mu.Lock()

	if ev.Source != "" && ev.Source != c.source {
		c.mu.Unlock()
		return
	}

	switch ev.Kind {
	case EventTimeUpdate:
		c.position = ev.Position
	case EventMetadata:
		c.duration = ev.Duration
		if c.duration > 0 && c.position > c.duration {
			c.position = c.duration
		}
	case EventPlayStarted:
		c.playing = true
		c.requested = false
	case EventPaused:
		c.playing = false
		c.requested = false
	case EventEnded:
		c.playing = false
		c.requested = false
		c.position = 0
	case EventError:
		c.playing = false
		c.requested = false
		c.logger.Warn("playback error", "source", ev.Source, "err", ev.Err)
	}

	c.mu.Unlock()
	c.notify()
}

// Snapshot returns a copy of the current playback session.
func (c *Controller) Snapshot() Session {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Session{
		Playing:   c.playing,
		Requested: c.requested,
		Position:  c.position,
		Duration:  c.duration,
		Volume:    c.volume,
	}
	if c.track != nil {
		t := *c.track
		s.CurrentTrack = &t
	}
	return s
}

// Close releases the engine and waits for the event pump to drain.
func (c *Controller) Close() error {
	err := c.engine.Close()
	<-c.pumpDone
	return err
}

func (c *Controller) notify() {
	if c.onChange != nil {
		c.onChange(c.Snapshot())
	}
}
