// Command kakeibo keeps a personal ledger of work shifts, extra income and
// expenses, and reports balances, monthly summaries and calendars.
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"

	"kakeibo/internal/cli"
)

var plain = flag.Bool("plain", false, "print reports as raw markdown")

func main() {
	cli.LoadEnvFile()

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")

	flag.Parse()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)

	app := cli.NewApp(cfg, logger, cli.WithPlain(*plain))
	cli.Register(commander, app)

	status := commander.Execute(context.Background())
	if err := app.Close(); err != nil {
		logger.Error("Failed to close ledger", "error", err)
	}
	os.Exit(int(status))
}
