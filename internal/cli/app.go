package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/mattn/go-isatty"

	"kakeibo/internal/amqp"
	"kakeibo/internal/backend"
	"kakeibo/internal/clock"
	"kakeibo/internal/config"
	"kakeibo/internal/kv"
	"kakeibo/internal/ledger"
	"kakeibo/internal/log"
	"kakeibo/internal/render"
)

// App holds what the subcommands share. The backend and the AMQP client are
// opened on first use and released by Close.
type App struct {
	cfg    *config.Config
	logger *log.Logger
	out    io.Writer
	plain  bool

	factory backend.Factory
	store   kv.Store
	clock   *clock.Clock

	mu       sync.Mutex
	backend  *backend.Result
	amqp     *amqp.Client
	ledger   *ledger.Ledger
	renderer *render.Renderer
}

type AppOption func(*App)

// WithStore bypasses the backend factory.
func WithStore(store kv.Store) AppOption {
	return func(a *App) { a.store = store }
}

// WithOutput redirects reports to w and prints them as raw markdown.
func WithOutput(w io.Writer) AppOption {
	return func(a *App) {
		a.out = w
		a.plain = true
	}
}

// WithPlain prints raw markdown instead of styled terminal output.
func WithPlain(plain bool) AppOption {
	return func(a *App) { a.plain = a.plain || plain }
}

func WithClock(c clock.Clock) AppOption {
	return func(a *App) { a.clock = &c }
}

func NewApp(cfg *config.Config, logger *log.Logger, opts ...AppOption) *App {
	if logger == nil {
		logger = log.Discard()
	}
	a := &App{
		cfg:     cfg,
		logger:  logger,
		out:     os.Stdout,
		plain:   !isatty.IsTerminal(os.Stdout.Fd()),
		factory: backend.NewFactory(logger),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Ledger opens the configured backend and returns the ledger over it.
// When AMQP is configured but unreachable, the ledger works without
// notifications.
func (a *App) Ledger(ctx context.Context) (*ledger.Ledger, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.ledger != nil {
		return a.ledger, nil
	}

	store := a.store
	if store == nil {
		bcfg, err := backend.FromAppConfig(a.cfg)
		if err != nil {
			return nil, err
		}
		res, err := a.factory.CreateBackend(ctx, bcfg)
		if err != nil {
			return nil, err
		}
		a.backend = res
		store = res.Store
	}

	c := clock.New(a.cfg.UTCOffset)
	if a.clock != nil {
		c = *a.clock
	}
	opts := []ledger.Option{ledger.WithClock(c), ledger.WithLogger(a.logger)}
	if client, err := a.amqpLocked(); err != nil {
		a.logger.WarnContext(ctx, "Change notifications disabled", log.FieldError, err.Error())
	} else if client != nil {
		opts = append(opts, ledger.WithPublisher(client))
	}

	a.ledger = ledger.New(store, opts...)
	return a.ledger, nil
}

// AMQP returns the notification client, or nil when none is configured.
func (a *App) AMQP() (*amqp.Client, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.amqpLocked()
}

func (a *App) amqpLocked() (*amqp.Client, error) {
	if a.amqp != nil || !a.cfg.AMQPEnabled() {
		return a.amqp, nil
	}
	client, err := amqp.NewClient(a.cfg.AMQPURL, a.cfg.AMQPExchange, a.cfg.AMQPQueue, a.logger)
	if err != nil {
		return nil, fmt.Errorf("connect to AMQP: %w", err)
	}
	a.amqp = client
	return client, nil
}

func (a *App) Renderer() (*render.Renderer, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.renderer == nil {
		r, err := render.New(a.cfg.Currency)
		if err != nil {
			return nil, err
		}
		a.renderer = r
	}
	return a.renderer, nil
}

// Close releases the AMQP connection and the backend.
func (a *App) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	var firstErr error
	if a.amqp != nil {
		if err := a.amqp.Close(); err != nil {
			firstErr = err
		}
		a.amqp = nil
	}
	if err := a.backend.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	a.backend = nil
	a.ledger = nil
	return firstErr
}

// printMarkdown writes a report, styled for the terminal unless the app is
// in plain mode.
func (a *App) printMarkdown(markdown string) {
	if a.plain {
		fmt.Fprint(a.out, markdown)
		return
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err == nil {
		var styled string
		if styled, err = r.Render(markdown); err == nil {
			fmt.Fprint(a.out, styled)
			return
		}
	}
	a.logger.Debug("Falling back to raw markdown", log.FieldError, err.Error())
	fmt.Fprint(a.out, markdown)
}

// printf writes a status line.
func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}
