// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func formatFlag(value string) *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format: text, json, csv or markdown",
		Value:   value,
	}
}

func outputFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Usage:   "Write to this file (a directory for markdown) instead of stdout",
	}
}

func progressFlag() *cli.BoolFlag {
	return &cli.BoolFlag{
		Name:  "progress",
		Usage: "Print pipeline progress to stderr",
		Value: true,
	}
}

// setupCommand creates the config file and the history database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "setup",
		Usage:  "Create config.toml if missing, initialize the database and run migrations",
		Action: r.Setup,
	}
}

// serveCommand runs the HTTP API.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the playlist API over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Address to bind (overrides server.host)",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "Port to listen on (overrides server.port)",
			},
		},
		Action: r.Serve,
	}
}

// recommendCommand runs the full pipeline for text given as arguments, a file or stdin.
func recommendCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "recommend",
		Aliases:   []string{"rec"},
		Usage:     "Generate a playlist for a story or mood",
		ArgsUsage: "[text...]  (use - to read from stdin)",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "file",
				Usage: "Read the text from a file",
			},
			formatFlag("text"),
			outputFlag(),
			progressFlag(),
			&cli.BoolFlag{
				Name:  "save",
				Usage: "Save the playlist to history",
				Value: true,
			},
		},
		Action: r.Recommend,
	}
}

// resolveCommand resolves a single song against the catalog.
func resolveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "resolve",
		Usage: "Find the catalog track for one song and artist",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "song",
				Aliases:  []string{"s"},
				Usage:    "Song title",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "artist",
				Aliases:  []string{"a"},
				Usage:    "Artist name",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "intent",
				Usage: "Mood text used for content-safety checks",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Resolve,
	}
}

// transcribeCommand turns recorded audio into text, optionally running the pipeline on it.
func transcribeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "transcribe",
		Usage: "Transcribe an audio file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "file",
				Usage:    "Audio file to transcribe",
				Required: true,
			},
			&cli.BoolFlag{
				Name:  "recommend",
				Usage: "Also generate a playlist from the transcription",
			},
			formatFlag("text"),
			outputFlag(),
			progressFlag(),
		},
		Action: r.Transcribe,
	}
}

// historyCommand reads and manages saved playlists.
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Saved playlists",
		Commands: []*cli.Command{
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "List saved playlists, newest first",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of playlists to list",
						Value: 20,
					},
					&cli.IntFlag{
						Name:  "offset",
						Usage: "Number of playlists to skip",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.HistoryList,
			},
			{
				Name:      "show",
				Usage:     "Show a saved playlist by number or id",
				ArgsUsage: "<ref>",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "ref"},
				},
				Flags: []cli.Flag{
					formatFlag("text"),
					outputFlag(),
				},
				Action: r.HistoryShow,
			},
			{
				Name:      "delete",
				Aliases:   []string{"rm"},
				Usage:     "Delete a saved playlist by number or id",
				ArgsUsage: "<ref>",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "ref"},
				},
				Action: r.HistoryDelete,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command for interactive playlist generation.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive playlist browser",
		Action:  r.TUI,
	}
}
