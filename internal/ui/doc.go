// package ui implements the interactive playback TUI with bubbletea.
//
// The application follows the Elm architecture: a single [Model] holds all
// view state, [Model.Update] consumes key presses and [Msg] values, and
// [Model.View] renders the current screen. Playback state flows in through
// a snapshots channel fed by the player controller's change hook, so the
// TUI never polls the engine.
package ui
