// Package matching scores catalog tracks and videos against a recommended (song, artist) pair.
//
// Everything here is pure and synchronous: no network, no logging.
//
// # Normalization
//
// [Normalize] lower-cases, folds diacritics, drops bracketed qualifiers such as "(Remix)" and turns punctuation into spaces.
// [StripFeaturing] removes trailing "feat./ft./&/and" clauses from an artist credit.
// [Key] builds the song+primary-artist identity used for deduplication.
//
// # Track scoring
//
// [Scorer] computes a song overlap and an artist overlap for a [models.CandidateTrack].
// A candidate is relevant only when one of the overlaps clears its gate in [Thresholds].
// Relevant candidates are placed in a [Tier] and ranked by tier, then catalog popularity, then artist overlap.
// When the intent text signals a party, child or sleep oriented tracks are rejected outright.
//
// # Video scoring
//
// [VideoScorer] applies the same gate to video titles and channels, then adds bonuses for official uploads
// and penalties for covers, karaoke, instrumentals and unofficial remixes.
package matching
