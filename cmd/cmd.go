// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// configFlag is shared by every command that reads or writes config.toml
func configFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

// setupCommand handles setup operations for the database and config file.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "database",
				Usage:  "Initialize database and run migrations",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupDatabase,
			},
		},
	}
}

// authCommand handles Spotify authentication operations
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage Spotify authentication",
		Commands: []*cli.Command{
			{
				Name:   "login",
				Usage:  "Authenticate with Spotify using OAuth2",
				Flags:  []cli.Flag{configFlag()},
				Action: r.AuthLogin,
			},
			{
				Name:   "status",
				Usage:  "Check stored credentials against the Spotify API",
				Flags:  []cli.Flag{configFlag()},
				Action: r.AuthStatus,
			},
		},
	}
}

// topicCommand manages the topic keyword list
func topicCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "topic",
		Aliases: []string{"topics"},
		Usage:   "Manage topic keywords",
		Commands: []*cli.Command{
			{
				Name:  "add",
				Usage: "Add a topic keyword",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "topic"},
				},
				Flags:  []cli.Flag{configFlag()},
				Action: r.TopicAdd,
			},
			{
				Name:    "remove",
				Aliases: []string{"rm"},
				Usage:   "Remove a topic keyword",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "topic"},
				},
				Flags:  []cli.Flag{configFlag()},
				Action: r.TopicRemove,
			},
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "List configured topics",
				Flags: []cli.Flag{
					configFlag(),
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.TopicList,
			},
		},
	}
}

// refreshCommand runs the playlist refresh pipeline
func refreshCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "refresh",
		Usage: "Search topics and merge fresh episodes into the playlist",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:  "playlist",
				Usage: "Target playlist name (overrides config)",
			},
			&cli.IntFlag{
				Name:    "max-episodes",
				Aliases: []string{"n"},
				Usage:   "Episodes per topic (overrides config)",
			},
			&cli.StringFlag{
				Name:  "strategy",
				Usage: "Search strategy: individual or combined (overrides config)",
			},
			&cli.StringFlag{
				Name:  "sort",
				Usage: "Result ordering: relevance or recency (overrides config)",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output result as JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print JSON output",
				Value: true,
			},
			&cli.BoolFlag{
				Name:  "save",
				Usage: "Export the batch to CSV and metadata JSON",
			},
		},
		Action: r.Refresh,
	}
}

// historyCommand shows past refresh runs from the local database
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Show past refresh runs",
		Flags: []cli.Flag{
			configFlag(),
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of runs to show",
				Value: 10,
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "episodes",
				Usage: "Show the episodes each run inserted",
			},
		},
		Action: r.History,
	}
}

// exportCommand renders a recorded refresh run to a file or stdout
func exportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export a recorded refresh run",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:  "id",
				Usage: "Refresh run id (defaults to the most recent run)",
			},
			&cli.StringFlag{
				Name:  "format",
				Usage: "Output format: json, csv, markdown, or txt",
				Value: "txt",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write to a file instead of stdout",
			},
		},
		Action: r.Export,
	}
}

// statusCommand summarizes configuration and authentication state
func statusCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "status",
		Usage:  "Show playlist settings, topics, and auth state",
		Flags:  []cli.Flag{configFlag()},
		Action: r.Status,
	}
}

// tuiCommand returns the top-level TUI command for interactive refreshes.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch interactive TUI for playlist refresh",
		Flags:   []cli.Flag{configFlag()},
		Action:  r.TUI,
	}
}
