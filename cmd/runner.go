package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/storysounds/internal/repositories"
	"github.com/desertthunder/storysounds/internal/services"
	"github.com/desertthunder/storysounds/internal/shared"
	"github.com/desertthunder/storysounds/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// Provider clients, the database and the engine are built on first use so that commands
// like setup and history work without credentials.
type Runner struct {
	config     *shared.Config
	configPath string
	deps       *tasks.Dependencies
	logger     *log.Logger
	input      io.Reader
	output     io.Writer
	status     io.Writer
	db         *sql.DB
	runs       *repositories.PlaylistRunRepository
	feedback   *repositories.FeedbackRepository
	engine     *tasks.PlaylistEngine
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config       *shared.Config      // nil loads --config in Before
	Dependencies *tasks.Dependencies // nil builds provider clients from the config
	Logger       *log.Logger
	Input        io.Reader // text read by "recommend -"
	Output       io.Writer // results
	Status       io.Writer // progress and confirmations
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Status == nil {
		opts.Status = os.Stderr
	}

	return &Runner{
		config: opts.Config,
		deps:   opts.Dependencies,
		logger: opts.Logger,
		input:  opts.Input,
		output: opts.Output,
		status: opts.Status,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, serveCommand, recommendCommand, resolveCommand, transcribeCommand, historyCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// Before loads the configuration named by --config, falling back to the embedded defaults when the file is missing.
func (r *Runner) Before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.Bool("verbose") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}

	r.configPath = cmd.String("config")
	if r.config == nil {
		config, err := loadConfig(r.configPath)
		if err != nil {
			return ctx, err
		}
		r.config = config
		r.config.ApplyEnv()
	}

	return ctx, r.config.Validate()
}

func loadConfig(path string) (*shared.Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return shared.DefaultConfig(), nil
	}
	return shared.LoadConfig(path)
}

// SetLogger replaces the logger, e.g. to keep log lines out of the TUI.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

// Close releases the database connection if one was opened.
func (r *Runner) Close() error {
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	return err
}

// openStore opens and migrates the history database once.
func (r *Runner) openStore() error {
	if r.db != nil {
		return nil
	}

	if path := r.config.Database.Path; path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := shared.OpenMigrated(r.config.Database)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	r.db = db
	r.runs = repositories.NewPlaylistRunRepository(db)
	r.feedback = repositories.NewFeedbackRepository(db)
	return nil
}

// catalog returns the injected catalog or builds the Spotify client.
func (r *Runner) catalog() (services.Catalog, error) {
	if r.deps != nil {
		if r.deps.Catalog == nil {
			return nil, fmt.Errorf("%w: catalog not initialized", shared.ErrServiceUnavailable)
		}
		return r.deps.Catalog, nil
	}

	cfg := r.config
	if !cfg.HasSpotify() {
		return nil, fmt.Errorf("%w: set credentials.spotify.client_id and client_secret (or SPOTIFY_CLIENT_ID/SPOTIFY_CLIENT_SECRET)", shared.ErrMissingCredentials)
	}

	tokens := services.NewTokenCache(
		services.NewClientCredentials(cfg.Credentials.Spotify),
		services.WithTokenLogger(r.logger),
	)
	return services.NewSpotifyCatalog(cfg.Credentials.Spotify, tokens,
		services.WithTimeout(cfg.Pipeline.RequestTimeout),
		services.WithLogger(r.logger),
	)
}

// dependencies assembles the provider clients for the engine.
//
// Video search and transcription are optional and left nil when not configured.
func (r *Runner) dependencies() (tasks.Dependencies, error) {
	if r.deps != nil {
		return *r.deps, nil
	}

	cfg := r.config
	var deps tasks.Dependencies

	catalog, err := r.catalog()
	if err != nil {
		return deps, err
	}
	deps.Catalog = catalog

	completer, err := services.NewCompleter(cfg, services.WithLogger(r.logger))
	if err != nil {
		return deps, err
	}
	deps.Completer = completer

	if client, ok := completer.(*services.OpenAIClient); ok {
		deps.Transcriber = client
	} else if cfg.Credentials.OpenAI.APIKey != "" {
		if client, err := services.NewOpenAIClient(cfg.Credentials.OpenAI, services.WithLogger(r.logger)); err == nil {
			deps.Transcriber = client
		}
	}

	if cfg.Pipeline.PreviewEnabled {
		if !cfg.HasYouTube() {
			r.logger.Info("YouTube API key not configured, previews limited to Spotify")
		} else if videos, err := services.NewYouTubeSearcher(cfg.Credentials.YouTube,
			services.WithTimeout(cfg.Pipeline.RequestTimeout),
			services.WithLogger(r.logger),
		); err == nil {
			deps.Videos = videos
		}
	}

	return deps, nil
}

// pipeline builds the engine once, attaching history when saving is enabled.
func (r *Runner) pipeline() (*tasks.PlaylistEngine, error) {
	if r.engine != nil {
		return r.engine, nil
	}

	deps, err := r.dependencies()
	if err != nil {
		return nil, err
	}

	if deps.Runs == nil && r.config.Pipeline.SaveRuns {
		if err := r.openStore(); err != nil {
			r.logger.Warn("playlist history disabled", "error", err)
		} else {
			deps.Runs = r.runs
		}
	}

	engine, err := tasks.NewPlaylistEngine(r.config, deps, r.logger)
	if err != nil {
		return nil, err
	}
	r.engine = engine
	return engine, nil
}

// watchProgress prints updates until the returned stop func is called.
//
// A nil channel is returned when show is false; the engine skips sends on it.
func (r *Runner) watchProgress(show bool) (chan tasks.ProgressUpdate, func()) {
	if !show {
		return nil, func() {}
	}

	progress := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			r.printUpdate(update)
		}
	}()

	return progress, func() {
		close(progress)
		<-done
	}
}

func (r *Runner) printUpdate(update tasks.ProgressUpdate) {
	switch update.Phase {
	case tasks.Transcribe:
		fmt.Fprintf(r.status, "🎙  %s\n", update.Message)
	case tasks.Recommend, tasks.Validate:
		fmt.Fprintf(r.status, "💡 %s\n", update.Message)
	case tasks.Authorize:
		fmt.Fprintf(r.status, "🔑 %s\n", update.Message)
	case tasks.Resolve, tasks.Enrich:
		if update.Step == 0 {
			fmt.Fprintf(r.status, "\n🔍 %s\n", update.Message)
		} else {
			fmt.Fprintf(r.status, "   %s\n", update.Message)
		}
	case tasks.Deduplicate, tasks.Save:
		fmt.Fprintf(r.status, "📝 %s\n", update.Message)
	case tasks.Complete:
		fmt.Fprintf(r.status, "\n✓ %s\n\n", update.Message)
	}
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(append(output, '\n')); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	if _, err := fmt.Fprintf(r.output, format, args...); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writeStatus(format string, args ...any) {
	fmt.Fprintf(r.status, format, args...)
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
