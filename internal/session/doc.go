// Package session owns the authenticated session lifecycle.
//
// # Ownership
//
// [Manager] is the only writer of the bearer token. Every other component reads
// it immutably through [api.TokenSource] at request-construction time.
//
// # Keep-alive
//
// A recurring timer (3 minutes by default, against the server's 5 minute
// expiry) posts /api/auth/heartbeat. Success changes no state. Any failure,
// transport error or rejection, evicts the session immediately; there is no
// retry, because a token the server may have expired is unsafe to keep
// presenting. Overlapping beats under slow networks are tolerated via a
// session generation counter: a result from a beat started before an eviction
// is discarded rather than applied to a successor session.
//
// # Eviction
//
// Heartbeat failures and 401 responses observed by the HTTP client on any
// request share one eviction path: token and user are cleared together (in
// memory and in durable storage), the timer stops, and the OnEvicted callback
// lets the UI steer the user back to login. Evictions are silent (logged, not
// returned as errors) while login failures are reported to the caller.
//
// # Rehydration
//
// On startup a persisted session is loaded and trusted without server
// revalidation; the first heartbeat or API call settles its fate.
package session
