package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/pflag"

	"github.com/sellbook/sellbook/internal/backoffice"
	"github.com/sellbook/sellbook/internal/client"
	"github.com/sellbook/sellbook/internal/config"
	"github.com/sellbook/sellbook/internal/events"
	"github.com/sellbook/sellbook/internal/session"
)

// App runs one sellbook invocation.
type App struct {
	ctx    context.Context
	stdin  *bufio.Reader
	stdout io.Writer
	stderr io.Writer
	clock  clockwork.Clock

	// interactive reports whether stdin is a terminal.
	interactive bool

	configPath string
	apiURL     string
	verbose    bool

	env *env
}

type Option func(*App)

// WithIO replaces the standard streams. Input given this way is never
// treated as a terminal.
func WithIO(in io.Reader, out, errOut io.Writer) Option {
	return func(a *App) {
		a.stdin = bufio.NewReader(in)
		a.stdout = out
		a.stderr = errOut
		a.interactive = false
	}
}

func WithClock(c clockwork.Clock) Option {
	return func(a *App) { a.clock = c }
}

func New(ctx context.Context, opts ...Option) *App {
	a := &App{
		ctx:         ctx,
		stdin:       bufio.NewReader(os.Stdin),
		stdout:      os.Stdout,
		stderr:      os.Stderr,
		clock:       clockwork.NewRealClock(),
		interactive: isTerminal(os.Stdin),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// env is what a command needs to reach the API. It is built on first use
// so that help output never reads configuration.
type env struct {
	cfg     *config.ClientConfig
	logger  *slog.Logger
	session *session.Session
	api     *client.Client
	office  *backoffice.Backoffice
	notify  *notifier
}

// Run executes args and releases the back office afterwards.
func (a *App) Run(args []string) error {
	root := a.Root()
	root.SetHelpOutput(a.stderr)

	err := root.Execute(args)
	if a.env != nil {
		a.env.office.Close()
	}
	return err
}

func (a *App) Root() *Command {
	return &Command{
		Name:    "sellbook",
		Summary: "Travel ticket resale back office",
		Description: `Manage ticket resale records, booking portals and sales totals.

Sign in once with "sellbook login"; the token is kept in the token file
from the client configuration and used by every other command until it
expires or the server refuses it.`,
		Subcommands: []*Command{
			a.loginCommand(),
			a.logoutCommand(),
			a.whoamiCommand(),
			a.ticketsCommand(),
			a.portalsCommand(),
			a.statsCommand(),
		},
	}
}

// flags returns a flag set carrying the connection flags every command
// accepts.
func (a *App) flags(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SortFlags = false
	fs.StringVar(&a.configPath, "config", "", "client config file (default $SELLBOOK_CONFIG, then the user config dir)")
	fs.StringVar(&a.apiURL, "api-url", "", "API base URL, overrides the config file")
	fs.BoolVarP(&a.verbose, "verbose", "v", false, "log every API request")
	return fs
}

func (a *App) connect() (*env, error) {
	if a.env != nil {
		return a.env, nil
	}

	cfg, err := config.LoadClient(a.configPath)
	if err != nil {
		return nil, err
	}
	if a.apiURL != "" {
		cfg.APIURL = a.apiURL
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelWarn
	}
	if a.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(a.stderr, &slog.HandlerOptions{Level: level}))

	sess := session.New(session.NewFileStore(cfg.TokenFile), a.clock, logger)

	api, err := client.New(cfg.APIURL, sess,
		client.WithTimeout(cfg.Timeout),
		client.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}

	notify := newNotifier(a.stderr)

	a.env = &env{
		cfg:     cfg,
		logger:  logger,
		session: sess,
		api:     api,
		office:  backoffice.New(api, events.NewBus(), notify),
		notify:  notify,
	}
	return a.env, nil
}

// quiet detaches the views from invalidations. A one-shot command renders
// nothing after its mutation, so the refetch would be wasted.
func (e *env) quiet() {
	e.office.Close()
}

func (a *App) printTable(headers []string, rows [][]string) {
	fmt.Fprintln(a.stdout, newTheme(a.stdout).table(headers, rows))
}

// confirm asks prompt on stderr and reads a yes or no answer.
func (a *App) confirm(prompt string) (bool, error) {
	fmt.Fprintf(a.stderr, "%s [y/N]: ", prompt)

	line, err := a.stdin.ReadString('\n')
	if err != nil && line == "" {
		if err == io.EOF {
			return false, nil
		}
		return false, fmt.Errorf("read confirmation: %w", err)
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

func usageError(usage string, format string, args ...any) error {
	return fmt.Errorf(format+"\n\nUsage: "+usage, args...)
}
