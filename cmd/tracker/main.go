// Command tracker is the operator CLI: account setup, ledger import, refresh and
// provider maintenance against the same database as the server.
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"

	"github.com/ndewijer/invest-tracker/internal/app"
	"github.com/ndewijer/invest-tracker/internal/cli"
	"github.com/ndewijer/invest-tracker/internal/config"
	"github.com/ndewijer/invest-tracker/internal/logger"
)

func main() {
	verbose := flag.Bool("v", false, "Log at debug level.")

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")

	open := func(ctx context.Context) (*app.App, error) {
		cfg, err := config.Load()
		if err != nil {
			return nil, err
		}
		level := cfg.Log.Level
		if *verbose {
			level = "debug"
		}
		log := logger.New(logger.Config{Level: level, Pretty: true, Output: os.Stderr})
		return app.New(ctx, cfg, log)
	}
	cli.Register(commander, open, os.Stdout)

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
