// Package player synchronizes an external media engine with observable
// playback state.
//
// The engine is treated as an external actor emitting a message stream
// ([Event]); [Controller] is a reducer over that stream plus user commands,
// which makes it testable by feeding a scripted event sequence without a real
// media engine. State transitions follow engine truth: a requested transition
// (optimistic Playing) converges to what the engine reports, including
// refusal. The ended event always yields playing=false and position=0; tracks
// never auto-advance; the caller observes ended and loads the next track.
//
// A concrete [Engine] over the backend's stream endpoint lives in the
// streamengine subpackage.
package player
