// Package main provides the spotify-cli operator tool: credential
// bootstrap, dealer connect/watch, playback status, library sync, and
// the local introspection server, all driven from one binary.
package main

import (
	"fmt"
	"os"
	"runtime/debug"
	"time"

	"github.com/urfave/cli/v2"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func updateBuildInfo() {
	if info, ok := debug.ReadBuildInfo(); ok {
		if info.Main.Version != "" && info.Main.Version != "(devel)" {
			version = info.Main.Version
		}

		for _, setting := range info.Settings {
			switch setting.Key {
			case "vcs.revision":
				commit = setting.Value
			case "vcs.time":
				if t, err := time.Parse(time.RFC3339, setting.Value); err == nil {
					date = t.Format("2006-01-02_15:04:05")
				}
			}
		}
	}
}

func main() {
	updateBuildInfo()

	app := &cli.App{
		Name:    "spotify-cli",
		Usage:   "operate a headless Spotify Connect client: auth, dealer, playback, library sync",
		Version: version,
		Authors: []*cli.Author{
			{Name: "spotify-core contributors"},
		},
		Commands: []*cli.Command{
			loginCommand(),
			dealerCommand(),
			playbackCommand(),
			syncCommand(),
			serveCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "✗ %v\n", err)
		os.Exit(1)
	}
}
