// Package tasks implements the track-resolution pipeline that turns free text into a playable playlist.
//
// # Pipeline
//
// [PlaylistEngine.Run] drives one request through these stages:
//
//  1. [Recommender] : asks the completion provider for (song, artist, reason) triples
//     - extracts the first balanced JSON array from the reply
//     - drops malformed elements; retries when nothing usable came back
//  2. [CulturalFilter] : when the text names a culture, asks the provider to label each
//     recommendation VALID/INVALID, drops the invalid ones and backfills below the floor
//  3. [BatchResolver] : resolves every recommendation concurrently through a [TrackResolver],
//     which tries each [Strategy] in order and scores candidates with [matching.Scorer]
//  4. [Dedupe] : first occurrence wins per normalized name + primary artist
//  5. [PreviewEnricher] : attaches a scored video preview to tracks without a catalog preview
//
// # Failure Policy
//
// Only recommendation generation and catalog authorization end a run. Search failures yield no
// candidates, cultural validation fails open, and per-track enrichment failures are recorded in
// [EnrichStats]. A run that resolves nothing still succeeds with an empty track list.
//
// # Progress Reporting
//
// Every stage reports [ProgressUpdate] values on an optional channel. Sends never block: a full
// channel drops the update.
package tasks
