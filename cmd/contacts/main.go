package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"
	"go.uber.org/zap"

	contacts "github.com/smileynet/contacts"
	"github.com/smileynet/contacts/internal/config"
	"github.com/smileynet/contacts/internal/contact"
	"github.com/smileynet/contacts/internal/kv"
	"github.com/smileynet/contacts/internal/locale"
	"github.com/smileynet/contacts/internal/logging"
	"github.com/smileynet/contacts/internal/store"
	"github.com/smileynet/contacts/internal/ui"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// errNotFound is returned when a command names a contact ID that does not exist.
var errNotFound = errors.New("contact not found")

// errNotConfirmed is returned when a delete is declined or cannot be confirmed.
var errNotConfirmed = errors.New("delete not confirmed")

// CLI is the top-level command structure for contacts.
type CLI struct {
	Globals

	Version kong.VersionFlag `help:"Show version." short:"V"`
	UI      UICmd            `cmd:"" default:"1" help:"Open the interactive contact manager (default)."`
	List    ListCmd          `cmd:"" help:"List all contacts."`
	Show    ShowCmd          `cmd:"" help:"Show one contact."`
	Add     AddCmd           `cmd:"" help:"Add a contact."`
	Edit    EditCmd          `cmd:"" help:"Edit a contact."`
	Delete  DeleteCmd        `cmd:"" help:"Delete a contact."`
}

// Globals are flags shared by every command. Set flags override config files
// and environment variables.
type Globals struct {
	Config    string `help:"Extra config file, applied after user and project config." type:"path" placeholder:"PATH"`
	DataDir   string `help:"Directory holding contact data." name:"data-dir" type:"path" placeholder:"DIR"`
	Backend   string `help:"Storage backend: file, sqlite or memory." placeholder:"NAME"`
	OnCorrupt string `help:"What to do with unreadable data: fail or reset." name:"on-corrupt" placeholder:"POLICY"`
	Locale    string `help:"Message language, e.g. en or vi." placeholder:"LANG"`
	Verbose   bool   `help:"Log at debug level." short:"v"`

	ctx    context.Context `kong:"-"`
	stdin  io.Reader       `kong:"-"`
	stdout io.Writer       `kong:"-"`
	isTTY  func() bool     `kong:"-"`
}

// app holds the dependencies a command runs against.
type app struct {
	logger  *zap.Logger
	storage kv.Storage
	store   *store.Store
	cat     *locale.Catalog
	stdout  io.Writer
}

// userConfigDir returns the directory holding the user config file and locale overrides.
func userConfigDir() string {
	return os.ExpandEnv("$HOME/.config/contacts")
}

// loadConfig loads layered config from user and project paths, the --config
// file, env overrides, and finally flag overrides.
func (g *Globals) loadConfig() (*config.Config, error) {
	cfg, err := config.LoadLayered(
		filepath.Join(userConfigDir(), "config.yaml"),
		".contacts/config.yaml",
		g.Config,
	)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv()

	if g.DataDir != "" {
		cfg.Storage.Dir = g.DataDir
	}
	if g.Backend != "" {
		cfg.Storage.Backend = g.Backend
	}
	if g.OnCorrupt != "" {
		cfg.Storage.OnCorrupt = g.OnCorrupt
	}
	if g.Locale != "" {
		cfg.UI.Locale = g.Locale
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// open builds the logger, storage backend, store and message catalog.
func (g *Globals) open() (*app, error) {
	cfg, err := g.loadConfig()
	if err != nil {
		return nil, err
	}

	logPath, err := cfg.LogPath()
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(logging.Options{Level: cfg.Log.Level, Path: logPath, Verbose: g.Verbose})
	if err != nil {
		return nil, err
	}

	dir, err := cfg.DataDir()
	if err != nil {
		return nil, err
	}
	storage, err := kv.Open(g.context(), kv.Options{
		Backend:    cfg.Storage.Backend,
		Dir:        dir,
		SQLiteFile: cfg.Storage.SQLiteFile,
	})
	if err != nil {
		_ = logger.Sync()
		return nil, err
	}

	cat, err := locale.Load(contacts.OverlayFS(filepath.Join(userConfigDir(), "locales"), contacts.Locales), cfg.UI.Locale)
	if err != nil {
		_ = storage.Close()
		_ = logger.Sync()
		return nil, err
	}

	logger.Debug("opened storage",
		zap.String("backend", cfg.Storage.Backend),
		zap.String("dir", dir),
		zap.String("locale", cat.Lang()))

	st := store.New(storage,
		store.WithLogger(logger.Named("store")),
		store.WithCorruptionPolicy(store.Policy(cfg.Storage.OnCorrupt)),
	)
	return &app{logger: logger, storage: storage, store: st, cat: cat, stdout: g.out()}, nil
}

// close releases storage and flushes the logger.
func (a *app) close() {
	if err := a.storage.Close(); err != nil {
		a.logger.Warn("closing storage", zap.Error(err))
	}
	_ = a.logger.Sync()
}

func (g *Globals) context() context.Context {
	if g.ctx == nil {
		return context.Background()
	}
	return g.ctx
}

func (g *Globals) out() io.Writer {
	if g.stdout == nil {
		return os.Stdout
	}
	return g.stdout
}

func (g *Globals) in() io.Reader {
	if g.stdin == nil {
		return os.Stdin
	}
	return g.stdin
}

func (g *Globals) interactive() bool {
	if g.isTTY == nil {
		return ui.IsTTY(os.Stdin) && ui.IsTTY(os.Stdout)
	}
	return g.isTTY()
}

// withApp opens the app, runs fn, and closes the app.
func (g *Globals) withApp(fn func(ctx context.Context, a *app) error) error {
	a, err := g.open()
	if err != nil {
		return err
	}
	defer a.close()
	return fn(g.context(), a)
}

// withLoadedApp is withApp after a successful store load.
func (g *Globals) withLoadedApp(fn func(ctx context.Context, a *app) error) error {
	return g.withApp(func(ctx context.Context, a *app) error {
		if err := a.store.Load(ctx); err != nil {
			return err
		}
		return fn(ctx, a)
	})
}

// --- ui ---

// UICmd opens the interactive contact manager, or prints the list when
// stdout is not a terminal.
type UICmd struct {
	Plain bool `help:"Print the list instead of opening the interactive UI." default:"false"`
}

// Run executes the ui command.
func (c *UICmd) Run(g *Globals) error {
	return g.withApp(func(ctx context.Context, a *app) error {
		return ui.Run(ctx, a.store, a.cat, ui.RunOptions{
			Writer:     a.stdout,
			ForcePlain: c.Plain,
		})
	})
}

// --- list / show ---

// ListCmd prints every contact.
type ListCmd struct {
	JSON bool `help:"Print JSON instead of text." name:"json"`
}

// Run executes the list command.
func (c *ListCmd) Run(g *Globals) error {
	return g.withLoadedApp(func(_ context.Context, a *app) error {
		list := a.store.List()
		if c.JSON {
			return writeJSON(a.stdout, list)
		}
		return ui.PrintList(a.stdout, a.cat, list)
	})
}

// ShowCmd prints a single contact.
type ShowCmd struct {
	ID   string `arg:"" help:"Contact ID."`
	JSON bool   `help:"Print JSON instead of text." name:"json"`
}

// Run executes the show command.
func (c *ShowCmd) Run(g *Globals) error {
	return g.withLoadedApp(func(_ context.Context, a *app) error {
		ct, ok := a.store.Get(c.ID)
		if !ok {
			return fmt.Errorf("show: %w: %q", errNotFound, c.ID)
		}
		if c.JSON {
			return writeJSON(a.stdout, ct)
		}
		return ui.PrintContact(a.stdout, a.cat, ct)
	})
}

// --- add / edit ---

// AddCmd creates a contact from flags.
type AddCmd struct {
	Name  string `help:"Contact name." required:""`
	Phone string `help:"Phone number." required:""`
	Email string `help:"Email address (optional)."`
}

// Run executes the add command.
func (c *AddCmd) Run(g *Globals) error {
	return g.withLoadedApp(func(ctx context.Context, a *app) error {
		data := contact.FormData{Name: c.Name, Phone: c.Phone, Email: c.Email}
		if err := validate(a.cat, data); err != nil {
			return fmt.Errorf("add: %w", err)
		}
		ct, err := a.store.Add(ctx, data)
		if err != nil {
			return fmt.Errorf("add: %w", err)
		}
		_, _ = fmt.Fprintf(a.stdout, "%s %s\n", a.cat.T("notify.added"), ct.ID)
		return nil
	})
}

// EditCmd changes the fields given as flags and keeps the rest.
type EditCmd struct {
	ID         string `arg:"" help:"Contact ID."`
	Name       string `help:"New name."`
	Phone      string `help:"New phone number."`
	Email      string `help:"New email address."`
	ClearEmail bool   `help:"Remove the email address." name:"clear-email"`
}

// Run executes the edit command.
func (c *EditCmd) Run(g *Globals) error {
	return g.withLoadedApp(func(ctx context.Context, a *app) error {
		current, ok := a.store.Get(c.ID)
		if !ok {
			return fmt.Errorf("edit: %w: %q", errNotFound, c.ID)
		}
		data := c.apply(current.Form())
		if err := validate(a.cat, data); err != nil {
			return fmt.Errorf("edit: %w", err)
		}
		if _, _, err := a.store.Update(ctx, c.ID, data); err != nil {
			return fmt.Errorf("edit: %w", err)
		}
		_, _ = fmt.Fprintln(a.stdout, a.cat.T("notify.updated"))
		return nil
	})
}

// apply overlays the set flags on data.
func (c *EditCmd) apply(data contact.FormData) contact.FormData {
	if c.Name != "" {
		data.Name = c.Name
	}
	if c.Phone != "" {
		data.Phone = c.Phone
	}
	if c.Email != "" {
		data.Email = c.Email
	}
	if c.ClearEmail {
		data.Email = ""
	}
	return data
}

// validate returns the localized field errors for data, or nil.
func validate(cat *locale.Catalog, data contact.FormData) error {
	errs := contact.Validate(data)
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", contact.ErrValidation, errs.Summary(cat.Reason))
}

// --- delete ---

// DeleteCmd removes a contact after confirmation.
type DeleteCmd struct {
	ID  string `arg:"" help:"Contact ID."`
	Yes bool   `help:"Delete without asking." short:"y"`
}

// Run executes the delete command.
func (c *DeleteCmd) Run(g *Globals) error {
	return g.withLoadedApp(func(ctx context.Context, a *app) error {
		ct, ok := a.store.Get(c.ID)
		if !ok {
			return fmt.Errorf("delete: %w: %q", errNotFound, c.ID)
		}
		if !c.Yes {
			if !g.interactive() {
				return fmt.Errorf("delete: %w: pass --yes when not running in a terminal", errNotConfirmed)
			}
			if !confirm(g.in(), a.stdout, a.cat.T("confirm.body", ct.Name)) {
				return fmt.Errorf("delete: %w", errNotConfirmed)
			}
		}
		if err := a.store.Delete(ctx, c.ID); err != nil {
			return fmt.Errorf("delete: %w", err)
		}
		_, _ = fmt.Fprintln(a.stdout, a.cat.T("notify.deleted"))
		return nil
	})
}

// confirm asks question on w and reports whether the answer read from r is yes.
func confirm(r io.Reader, w io.Writer, question string) bool {
	_, _ = fmt.Fprintf(w, "%s [y/N] ", question)
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

// writeJSON writes v as indented JSON.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Exit codes.
const (
	exitSuccess   = 0
	exitOperation = 1
	exitSetup     = 2
)

// exitCode maps an error to the appropriate exit code.
func exitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	switch {
	case errors.Is(err, errNotFound),
		errors.Is(err, errNotConfirmed),
		errors.Is(err, contact.ErrValidation),
		errors.Is(err, store.ErrPersistence),
		errors.Is(err, store.ErrIDGeneration),
		errors.Is(err, store.ErrNotLoaded),
		errors.Is(err, ui.ErrUnsaved),
		errors.Is(err, context.Canceled):
		return exitOperation
	}
	return exitSetup
}

func main() {
	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("contacts"),
		kong.Description("Manage a local list of contacts."),
		kong.UsageOnError(),
		kong.Vars{"version": version + " " + commit + " " + date},
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	cli.ctx = ctx
	err := kctx.Run(&cli.Globals)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(exitCode(err))
	}
}
