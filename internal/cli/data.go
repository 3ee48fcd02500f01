package cli

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/google/subcommands"

	"kakeibo/internal/amqp"
	"kakeibo/internal/log"
)

type prefsCmd struct {
	app *App
}

func (*prefsCmd) Name() string     { return "prefs" }
func (*prefsCmd) Synopsis() string { return "display the remembered wage and shift times" }
func (*prefsCmd) Usage() string {
	return `kakeibo prefs

  Displays the hourly wage and time ranges the shift command defaults to.
`
}

func (*prefsCmd) SetFlags(*flag.FlagSet) {}

func (c *prefsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	l, err := c.app.Ledger(ctx)
	if err != nil {
		return failure(err)
	}
	r, err := c.app.Renderer()
	if err != nil {
		return failure(err)
	}
	p, err := l.Preferences(ctx)
	if err != nil {
		return failure(err)
	}
	c.app.printMarkdown(r.PreferencesMarkdown(p))
	return subcommands.ExitSuccess
}

type clearCmd struct {
	app *App
	yes bool
}

func (*clearCmd) Name() string     { return "clear" }
func (*clearCmd) Synopsis() string { return "delete every shift, expense and extra income" }
func (*clearCmd) Usage() string {
	return `kakeibo clear -yes

  Deletes all ledger records and the remembered wage and shift times. The
  diary is kept. Requires -yes.
`
}

func (c *clearCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.yes, "yes", false, "confirm the deletion")
}

func (c *clearCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if !c.yes {
		return usageError(errors.New("refusing to clear without -yes"))
	}
	l, err := c.app.Ledger(ctx)
	if err != nil {
		return failure(err)
	}
	if err := l.Clear(ctx); err != nil {
		return failure(err)
	}
	c.app.printf("All ledger data deleted.\n")
	return subcommands.ExitSuccess
}

type exportCmd struct {
	app    *App
	output string
}

func (*exportCmd) Name() string     { return "export" }
func (*exportCmd) Synopsis() string { return "write every collection as JSON" }
func (*exportCmd) Usage() string {
	return `kakeibo export [-o FILE]

  Writes shifts, expenses, extra income and diary entries as one JSON
  document, to stdout by default.
`
}

func (c *exportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.output, "o", "", "output file (default stdout)")
}

func (c *exportCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	l, err := c.app.Ledger(ctx)
	if err != nil {
		return failure(err)
	}
	export, err := l.Export(ctx)
	if err != nil {
		return failure(err)
	}

	var w io.Writer = c.app.out
	if c.output != "" {
		file, err := os.Create(c.output)
		if err != nil {
			return failure(err)
		}
		defer file.Close()
		w = file
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(export); err != nil {
		return failure(fmt.Errorf("write export: %w", err))
	}
	return subcommands.ExitSuccess
}

type watchCmd struct {
	app *App
}

func (*watchCmd) Name() string     { return "watch" }
func (*watchCmd) Synopsis() string { return "follow record changes published by other sessions" }
func (*watchCmd) Usage() string {
	return `kakeibo watch

  Consumes record change notifications from AMQP_URL and prints each change
  with the balance read after it. Every watcher gets its own temporary
  queue, so concurrent watchers all see every change; changes made while no
  watcher runs are not replayed. Stops on SIGINT or SIGTERM.
`
}

func (*watchCmd) SetFlags(*flag.FlagSet) {}

func (c *watchCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	client, err := c.app.AMQP()
	if err != nil {
		return failure(err)
	}
	if client == nil {
		return usageError(errors.New("AMQP_URL is not set"))
	}
	l, err := c.app.Ledger(ctx)
	if err != nil {
		return failure(err)
	}
	r, err := c.app.Renderer()
	if err != nil {
		return failure(err)
	}

	ctx, cancel := GracefulShutdown(ctx, c.app.logger, nil)
	defer cancel()

	err = client.ConsumeRecordChanges(ctx, func(ctx context.Context, change amqp.RecordChange) error {
		c.app.logger.DebugContext(ctx, "Record change received",
			log.FieldKind, change.Kind, log.FieldRecordID, change.ID, log.FieldOperation, change.Operation)
		// The change only names the record; the balance is read fresh.
		b, err := l.Balance(ctx)
		if err != nil {
			return err
		}
		c.app.printf("%s %s %s %s -> balance %s\n",
			change.Timestamp.In(l.Clock().Location()).Format("2006-01-02 15:04:05"),
			change.Operation, change.Kind, change.ID, r.Signed(b.Balance))
		return nil
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		return failure(err)
	}
	return subcommands.ExitSuccess
}
