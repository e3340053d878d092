// Package services implements the outbound provider clients used by the resolution pipeline.
//
// # Providers
//
// The pipeline only depends on four narrow interfaces:
//   - [Catalog] : track search against the Spotify Web API ([SpotifyCatalog])
//   - [VideoSearcher] : video search against the YouTube Data API ([YouTubeSearcher])
//   - [Completer] : text completion for recommendations and cultural validation ([OpenAIClient], [OllamaClient])
//   - [Transcriber] : speech-to-text for uploaded audio ([OpenAIClient])
//
// # Transport
//
// Every client shares one JSON transport that applies, per call:
//   - a [rate.Limiter] for client-side pacing
//   - a per-request timeout
//   - retries on 429 and 5xx honouring Retry-After, with exponential backoff
//   - a [gobreaker.CircuitBreaker] that short-circuits calls to a failing provider
//
// # Authentication
//
// [SpotifyCatalog] authenticates with the client-credentials grant. The bearer token is held by a
// [TokenCache], which reuses it until five minutes before its advertised expiry.
//
// # Error Handling
//
// Non-2xx responses are returned as [*StatusError], which matches the shared sentinels with [errors.Is]:
//   - [shared.ErrRateLimited] : 429
//   - [shared.ErrProviderUnavailable] : 5xx, network failures, open circuit
//   - [shared.ErrAuthFailed] : 401 and 403
//   - [shared.ErrAPIRequest] : any non-2xx status
package services
