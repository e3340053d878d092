package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/storysounds/internal/server"
	"github.com/urfave/cli/v3"
)

// Serve runs the HTTP API until interrupted.
//
// Missing provider credentials do not stop the server: the affected routes answer 503 and /health reports them.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	if host := cmd.String("host"); host != "" {
		r.config.Server.Host = host
	}
	if port := cmd.Int("port"); port > 0 {
		r.config.Server.Port = int(port)
	}

	handler := r.handler()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(r.config.Server, handler, r.logger)
	r.writeStatus("Serving on http://%s\n", srv.Addr())
	return srv.Run(ctx)
}

// handler wires the engine and repositories into the API. Unavailable parts stay nil.
func (r *Runner) handler() http.Handler {
	var pipeline server.Pipeline
	if engine, err := r.pipeline(); err != nil {
		r.logger.Warn("playlist generation unavailable", "error", err)
	} else {
		pipeline = engine
	}

	var runs server.RunReader
	var feedback server.FeedbackStore
	if err := r.openStore(); err != nil {
		r.logger.Warn("history and feedback unavailable", "error", err)
	} else {
		runs, feedback = r.runs, r.feedback
	}

	health := server.NewHealthHandler(map[string]bool{
		"recommendations": pipeline != nil,
		"spotify":         r.config.HasSpotify(),
		"youtube":         r.config.HasYouTube() && r.config.Pipeline.PreviewEnabled,
		"transcription":   r.config.Credentials.OpenAI.APIKey != "",
		"history":         runs != nil,
	})

	api := server.NewAPI(pipeline, runs, feedback, r.config.Server.MaxUploadMB, r.logger)
	return server.NewHandler(r.config.Server, api, health, r.logger)
}
