package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"

	"github.com/smileynet/contacts/internal/contact"
	"github.com/smileynet/contacts/internal/locale"
)

// ErrUnsaved is returned by Run when the session ended with changes that
// could not be written to storage.
var ErrUnsaved = errors.New("ui: changes were not saved")

// RunOptions configures Run.
type RunOptions struct {
	Writer     io.Writer // Output destination (default: os.Stdout).
	Input      io.Reader // Key input for the interactive program (default: os.Stdin).
	ForcePlain bool      // Print the list instead of starting the interactive UI.
}

// Run starts the interactive contact manager when the writer is a terminal,
// or prints the contact list otherwise. ForcePlain overrides TTY detection.
func Run(ctx context.Context, store ContactStore, cat *locale.Catalog, opts RunOptions) error {
	if opts.Writer == nil {
		opts.Writer = os.Stdout
	}

	if opts.ForcePlain || !IsTTY(opts.Writer) {
		return runPlain(ctx, store, cat, opts.Writer)
	}

	progOpts := []tea.ProgramOption{
		tea.WithAltScreen(),
		tea.WithContext(ctx),
		tea.WithOutput(opts.Writer),
	}
	if opts.Input != nil {
		progOpts = append(progOpts, tea.WithInput(opts.Input))
	}
	p := tea.NewProgram(NewModel(store, cat, WithContext(ctx)), progOpts...)

	if _, err := p.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		// Fall back to plain text when the terminal program cannot start.
		return runPlain(ctx, store, cat, opts.Writer)
	}

	if store.Dirty() {
		return ErrUnsaved
	}
	return nil
}

func runPlain(ctx context.Context, store ContactStore, cat *locale.Catalog, w io.Writer) error {
	if err := store.Load(ctx); err != nil {
		return err
	}
	return PrintList(w, cat, store.List())
}

// IsTTY reports whether w is connected to a terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// PrintList writes one line per contact, newest last.
func PrintList(w io.Writer, cat *locale.Catalog, list []contact.Contact) error {
	if len(list) == 0 {
		_, err := fmt.Fprintln(w, cat.T("list.empty"))
		return err
	}
	nameWidth := 0
	for _, c := range list {
		if n := len([]rune(c.Name)); n > nameWidth {
			nameWidth = n
		}
	}
	for _, c := range list {
		line := fmt.Sprintf("%s  %-*s  %s", c.ID, nameWidth, c.Name, c.Phone)
		if c.Email != "" {
			line += "  " + c.Email
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, cat.T("app.count", len(list)))
	return err
}

// PrintContact writes a labeled block for a single contact.
func PrintContact(w io.Writer, cat *locale.Catalog, c contact.Contact) error {
	_, err := fmt.Fprintf(w, "%s: %s\n%s: %s\n%s: %s\n%s: %s\n",
		cat.T("detail.id"), c.ID,
		cat.T("detail.name"), c.Name,
		cat.T("detail.phone"), c.Phone,
		cat.T("detail.email"), c.Email,
	)
	return err
}
