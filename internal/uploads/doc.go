// Package uploads moves local audio files into the catalog, one at a time.
//
// # Sequencing
//
// [Pipeline.UploadBatch] is strictly sequential: one file in flight,
// outcomes appended in submission order, and no early abort: a failed file is
// recorded and the batch moves on, so a batch of N always yields N results.
//
// # Progress
//
// Per-file progress is the rounded percentage of multipart body bytes
// transmitted, monotonically non-decreasing within a file. The aggregate
// completed count advances only on a file's terminal outcome. Updates flow
// through a non-blocking channel in [ProgressUpdate] form for CLI/TUI display.
//
// # Preflight
//
// Files are validated against the backend's constraints (size cap, allowed
// audio types, non-empty) before any bytes travel, turning a guaranteed server
// rejection into an immediate per-file failure.
package uploads
