package main

import "github.com/urfave/cli/v3"

func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "tui",
		Usage:  "Browse the active profile (default)",
		Action: r.TUI,
	}
}

func statusCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Print watch counts and what to watch next",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "refresh",
				Usage: "Reload even if the cached profile is fresh",
			},
		},
		Action: r.Status,
	}
}

func contentFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "kind",
			Aliases:  []string{"k"},
			Usage:    "Content kind: show or movie",
			Required: true,
		},
		&cli.IntFlag{
			Name:     "id",
			Usage:    "Show or movie id",
			Required: true,
		},
	}
}

func favoriteCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "favorite",
		Aliases: []string{"fav"},
		Usage:   "Add or remove favorites",
		Commands: []*cli.Command{
			{
				Name:   "add",
				Usage:  "Favorite a show or movie",
				Flags:  contentFlags(),
				Action: r.FavoriteAdd,
			},
			{
				Name:   "remove",
				Usage:  "Unfavorite a show or movie",
				Flags:  contentFlags(),
				Action: r.FavoriteRemove,
			},
		},
	}
}

func watchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Set the watch status of a show or movie",
		Flags: append(contentFlags(), &cli.StringFlag{
			Name:     "status",
			Aliases:  []string{"s"},
			Usage:    "WATCHED, WATCHING, NOT_WATCHED, UP_TO_DATE or UNAIRED",
			Required: true,
		}),
		Action: r.Watch,
	}
}

func loginCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "Save the server, token and profile to use",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "url",
				Usage:    "Tracking server URL",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "token",
				Usage:    "API token",
				Sources:  cli.EnvVars("SHOWTRACK_TOKEN"),
				Required: true,
			},
		},
		Action: r.Login,
	}
}

func logoutCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "logout",
		Usage:  "Sign out and forget the cached profile",
		Action: r.Logout,
	}
}
