// Package models defines the wire-format records shared across the admin client.
//
// All structs mirror the backend's JSON shapes (snake_case field tags). They are
// plain data carriers: validation and persistence live with their consumers
// ([internal/catalog], [internal/session], [internal/repositories]).
//
//   - [User] : administrator identity attached to a session
//   - [Album] / [AlbumCreate] : catalog album record and its write payload
//   - [Episode] / [EpisodeCreate] : audio episode record and its write payload
//   - [AlbumPage] / [EpisodePage] : list envelopes
//   - [BatchUploadResult] : server-side batch upload accounting
package models
