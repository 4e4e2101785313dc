// Command folio runs portfolio analytics on snapshot files.
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/folioworks/folio/internal/cli"
	"github.com/folioworks/folio/pkg/logger"
	"github.com/google/subcommands"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	log := logger.New(logger.Config{Level: os.Getenv("LOG_LEVEL"), Pretty: true})
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")

	for _, c := range cli.Commands(os.Stdout, log) {
		commander.Register(c, "analytics")
	}

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
