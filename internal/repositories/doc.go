// Package repositories implements SQLite persistence for playlist history and client feedback.
//
// Key Implementations:
//   - [PlaylistRunRepository] : finished pipeline runs with their full JSON response
//   - [FeedbackRepository] : free-text feedback submitted through the API
//
// Sequence numbers provide stable, human-readable ordering (e.g. playlist #15) independent of UUIDs and creation timestamps.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
// Playlist runs are soft deleted via a deleted_at timestamp and excluded from queries.
package repositories
