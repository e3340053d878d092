// Package models defines the domain entities of the StorySounds pipeline and the records it persists.
//
// The package contains three categories of types:
//
// 1. Pipeline values: request-scoped data flowing through resolution and enrichment
//   - [Recommendation] : an LLM-suggested (song, artist, reason) triple
//   - [CandidateTrack] : a catalog search result
//   - [ResolvedTrack] : a candidate accepted as the match for one recommendation
//   - [EnrichedTrack] : a resolved track with an optional backfilled [YouTubePreview]
//   - [Video] : a raw video search result
//
// 2. Wire output: [PlaylistResponse] with its flattened [TrackView] and [PlaylistSummary]
//
// 3. Persistent records: [PlaylistRun] (playlist history) and [Feedback]
package models
