// Package server exposes the playlist pipeline, history and feedback over HTTP.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
// [BasicRouter] registers method patterns ("POST /api/recommend") on an [http.ServeMux]
// and wraps the whole mux in the [Middleware] chain, last added innermost.
//
// # Middleware
//
// [NewHandler] installs, outermost first: [RequestID], [Recover], [Logging], [CORS] (go-chi/cors),
// [RateLimit] (go-chi/httprate, keyed by client IP) and [Metrics].
//
// # Routes
//
//	GET  /health              liveness and configured providers
//	GET  /metrics             Prometheus exposition
//	POST /api/recommend       {"text": "..."} -> PlaylistResponse
//	POST /api/transcribe      multipart "file" -> {"text"}; ?recommend=true -> PlaylistResponse
//	POST /api/feedback        {"feedback", "email", "timestamp"} -> {"success": true}
//	GET  /api/playlists       paged history, newest first (?limit=&offset=)
//	GET  /api/playlists/{id}  one run by ID or sequence number
//
// Errors are JSON {"success": false, "error": "..."}. A run that resolves zero tracks is still a 200.
// Request cancellation propagates into the pipeline through the request context.
package server
