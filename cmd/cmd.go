// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// setupCommand handles local setup operations.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "database",
				Usage: "Initialize local database and run migrations",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.SetupDatabase,
			},
			{
				Name:  "config",
				Usage: "Create a config.toml from the embedded template",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output path for the configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.SetupConfig,
			},
			{
				Name:  "rollback",
				Usage: "Roll back the most recent database migration",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.SetupRollback,
			},
		},
	}
}

// authCommand handles session lifecycle operations.
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage the admin session",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Authenticate against the backend and persist the session",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "username",
						Aliases:  []string{"u"},
						Usage:    "Admin username",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "password",
						Aliases: []string{"p"},
						Usage:   "Admin password (read from stdin when omitted)",
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:   "logout",
				Usage:  "End the session locally and notify the backend",
				Action: r.AuthLogout,
			},
			{
				Name:    "whoami",
				Aliases: []string{"me"},
				Usage:   "Fetch the current user from the backend",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.AuthWhoAmI,
			},
			{
				Name:   "status",
				Usage:  "Show local session state without calling the backend",
				Action: r.AuthStatus,
			},
		},
	}
}

// albumsCommand handles album catalog operations.
func albumsCommand(r *Runner) *cli.Command {
	configFlag := &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}

	return &cli.Command{
		Name:    "albums",
		Aliases: []string{"album"},
		Usage:   "Manage the album catalog",
		Flags:   []cli.Flag{configFlag},
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List all albums",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.AlbumsList,
			},
			{
				Name:  "get",
				Usage: "Show a single album",
				Arguments: []cli.Argument{
					&cli.IntArg{Name: "id"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.AlbumsGet,
			},
			{
				Name:  "create",
				Usage: "Create a new album",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "title",
						Aliases:  []string{"t"},
						Usage:    "Album title",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "description",
						Aliases: []string{"d"},
						Usage:   "Album description",
					},
					&cli.IntFlag{
						Name:  "sort-order",
						Usage: "Sort position within the catalog",
					},
				},
				Action: r.AlbumsCreate,
			},
			{
				Name:  "update",
				Usage: "Update an existing album",
				Arguments: []cli.Argument{
					&cli.IntArg{Name: "id"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "title",
						Aliases:  []string{"t"},
						Usage:    "Album title",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "description",
						Aliases: []string{"d"},
						Usage:   "Album description",
					},
					&cli.IntFlag{
						Name:  "sort-order",
						Usage: "Sort position within the catalog",
					},
				},
				Action: r.AlbumsUpdate,
			},
			{
				Name:  "delete",
				Usage: "Delete an album and all of its episodes",
				Arguments: []cli.Argument{
					&cli.IntArg{Name: "id"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "yes",
						Aliases: []string{"y"},
						Usage:   "Skip the confirmation prompt",
					},
				},
				Action: r.AlbumsDelete,
			},
			{
				Name:  "export",
				Usage: "Export an album and its episodes to csv, markdown, or text",
				Arguments: []cli.Argument{
					&cli.IntArg{Name: "id"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Output format (csv, markdown, txt)",
						Value:   "csv",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path (stdout when omitted)",
					},
				},
				Action: r.AlbumsExport,
			},
		},
	}
}

// episodesCommand handles episode catalog operations.
func episodesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "episodes",
		Aliases: []string{"episode", "ep"},
		Usage:   "Manage episodes within albums",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List episodes for an album",
				Arguments: []cli.Argument{
					&cli.IntArg{Name: "album-id"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "cached",
						Usage: "Read from the local cache instead of the backend",
					},
				},
				Action: r.EpisodesList,
			},
			{
				Name:  "get",
				Usage: "Show a single episode",
				Arguments: []cli.Argument{
					&cli.IntArg{Name: "id"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.EpisodesGet,
			},
			{
				Name:  "create",
				Usage: "Create an episode without an audio file",
				Arguments: []cli.Argument{
					&cli.IntArg{Name: "album-id"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "title",
						Aliases:  []string{"t"},
						Usage:    "Episode title",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "sort-order",
						Usage: "Sort position within the album",
					},
				},
				Action: r.EpisodesCreate,
			},
			{
				Name:  "update",
				Usage: "Update an existing episode",
				Arguments: []cli.Argument{
					&cli.IntArg{Name: "id"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "title",
						Aliases:  []string{"t"},
						Usage:    "Episode title",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "sort-order",
						Usage: "Sort position within the album",
					},
				},
				Action: r.EpisodesUpdate,
			},
			{
				Name:  "delete",
				Usage: "Delete an episode and its audio file",
				Arguments: []cli.Argument{
					&cli.IntArg{Name: "id"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "yes",
						Aliases: []string{"y"},
						Usage:   "Skip the confirmation prompt",
					},
				},
				Action: r.EpisodesDelete,
			},
		},
	}
}

// uploadCommand handles audio file uploads.
func uploadCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "upload",
		Aliases: []string{"up"},
		Usage:   "Upload audio files into an album",
		Commands: []*cli.Command{
			{
				Name:  "file",
				Usage: "Upload a single audio file as a new episode",
				Arguments: []cli.Argument{
					&cli.IntArg{Name: "album-id"},
					&cli.StringArg{Name: "path"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "title",
						Aliases: []string{"t"},
						Usage:   "Episode title (defaults to the filename)",
					},
				},
				Action: r.UploadFile,
			},
			{
				Name:  "batch",
				Usage: "Upload multiple audio files sequentially",
				Arguments: []cli.Argument{
					&cli.IntArg{Name: "album-id"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "server-batch",
						Usage: "Send all files in one request and let the backend process them",
					},
				},
				Action: r.UploadBatch,
			},
		},
	}
}

// playCommand launches the interactive player.
func playCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "play",
		Aliases: []string{"tui", "player"},
		Usage:   "Launch the interactive episode player",
		Action:  r.Play,
	}
}
