package player

// EventKind enumerates the media engine's event stream.
type EventKind int

const (
	EventTimeUpdate EventKind = iota
	EventMetadata
	EventPlayStarted
	EventPaused
	EventEnded
	EventError
)

func (k EventKind) String() string {
	switch k {
	case EventTimeUpdate:
		return "time_update"
	case EventMetadata:
		return "metadata"
	case EventPlayStarted:
		return "play_started"
	case EventPaused:
		return "paused"
	case EventEnded:
		return "ended"
	case EventError:
		return "error"
	default:
		return ""
	}
}

// Event is one message from the engine. Source identifies the media source the
// event pertains to, so events from a retired source can be discarded after a
// new track is loaded.
type Event struct {
	Kind     EventKind
	Source   string
	Position float64 // seconds
	Duration float64 // seconds
	Err      error
}

// Engine abstracts the media subsystem. Implementations own actual playback;
// the controller only issues commands and folds the event stream back into
// observable state. An Engine instance is exclusively owned by one controller
// at a time; Load retires the prior source before attaching the new one.
type Engine interface {
	// Load replaces the engine's source and begins buffering. Always a full
	// replacement, never a merge.
	Load(src string) error

	// Play requests audio output to start. The engine may refuse; acceptance
	// is signalled by an [EventPlayStarted] event, not by a nil return.
	Play() error

	// Pause halts output.
	Pause() error

	// Seek moves the playhead, clamping into the valid range.
	Seek(seconds float64) error

	// SetVolume sets output gain in [0, 1].
	SetVolume(level float64) error

	// Events returns the engine's event stream. The channel closes when the
	// engine shuts down.
	Events() <-chan Event

	// Close releases the engine and its source.
	Close() error
}
