package ui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/smileynet/contacts/internal/contact"
)

// loadCmd returns a tea.Cmd that loads contacts asynchronously and wraps the
// result in a ContactsLoadedMsg.
func loadCmd(ctx context.Context, s ContactStore) tea.Cmd {
	return func() tea.Msg {
		err := s.Load(ctx)
		return ContactsLoadedMsg{Contacts: s.List(), Err: err}
	}
}

// saveCmd adds (empty id) or updates a contact and reports a ContactSavedMsg.
func saveCmd(ctx context.Context, s ContactStore, id string, data contact.FormData) tea.Cmd {
	return func() tea.Msg {
		if id == "" {
			c, err := s.Add(ctx, data)
			return ContactSavedMsg{Contact: c, Created: true, Found: true, Contacts: s.List(), Dirty: s.Dirty(), Err: err}
		}
		c, found, err := s.Update(ctx, id, data)
		return ContactSavedMsg{Contact: c, Found: found, Contacts: s.List(), Dirty: s.Dirty(), Err: err}
	}
}

// deleteCmd deletes a contact and reports a ContactDeletedMsg.
func deleteCmd(ctx context.Context, s ContactStore, id string) tea.Cmd {
	return func() tea.Msg {
		err := s.Delete(ctx, id)
		return ContactDeletedMsg{ID: id, Contacts: s.List(), Dirty: s.Dirty(), Err: err}
	}
}

// flushCmd rewrites unsaved changes and reports a FlushedMsg.
func flushCmd(ctx context.Context, s ContactStore) tea.Cmd {
	return func() tea.Msg {
		return FlushedMsg{Err: s.Flush(ctx)}
	}
}

// emit wraps msg in a tea.Cmd.
func emit(msg tea.Msg) tea.Cmd {
	return func() tea.Msg { return msg }
}
