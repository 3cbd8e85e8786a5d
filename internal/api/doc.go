// Package api implements the authenticated HTTP core shared by every backend
// consumer.
//
// # Token injection
//
// [Client] reads the bearer token from its [TokenSource] when each request is
// constructed. The token is never cached inside the client: the session manager
// owns the value, the client only reads it.
//
// # Authentication failure
//
// Any authenticated request answered with 401 fires the OnUnauthorized hook
// exactly once before the response is handed back. The session manager installs
// its eviction path there, so a mid-session 401 on a catalog call degrades the
// session the same way a failed heartbeat does. Login uses
// [Client.PostAnonymous], which skips both the token and the hook; a 401 there
// means bad credentials, not a lost session.
//
// # Rate limiting
//
// An optional [rate.Limiter] throttles outbound requests; uploads of large
// batches stay polite to the backend without the callers coordinating.
package api
