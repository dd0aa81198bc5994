// Package ui implements the interactive contact manager: a two-pane list and
// detail view with a create/edit form and a delete confirmation screen.
package ui

import (
	"context"

	"github.com/smileynet/contacts/internal/contact"
)

// Mode represents the current view mode.
type Mode int

const (
	ModeBrowse  Mode = iota // Browsing the contact list with detail pane.
	ModeForm                // Create or edit form in the right pane.
	ModeConfirm             // Delete confirmation in the right pane.
)

// Focus represents which pane has keyboard focus in browse mode.
type Focus int

const (
	PaneLeft  Focus = iota // Contact list has focus.
	PaneRight              // Detail viewport has focus.
)

// --- Consumer-side interfaces ---

// ContactStore is the part of the contact store the UI drives.
type ContactStore interface {
	Load(ctx context.Context) error
	List() []contact.Contact
	Add(ctx context.Context, data contact.FormData) (contact.Contact, error)
	Update(ctx context.Context, id string, data contact.FormData) (contact.Contact, bool, error)
	Delete(ctx context.Context, id string) error
	Dirty() bool
	Flush(ctx context.Context) error
}

// --- tea.Msg types ---

// ContactsLoadedMsg carries the result of ContactStore.Load.
type ContactsLoadedMsg struct {
	Contacts []contact.Contact
	Err      error
}

// ContactSavedMsg carries the result of an add (Created) or update.
// Contacts is the collection snapshot taken after the operation.
type ContactSavedMsg struct {
	Contact  contact.Contact
	Created  bool
	Found    bool
	Contacts []contact.Contact
	Dirty    bool
	Err      error
}

// ContactDeletedMsg carries the result of ContactStore.Delete.
type ContactDeletedMsg struct {
	ID       string
	Contacts []contact.Contact
	Dirty    bool
	Err      error
}

// FlushedMsg carries the result of an explicit ContactStore.Flush.
type FlushedMsg struct {
	Err error
}

// NewContactMsg opens an empty form.
type NewContactMsg struct{}

// EditContactMsg opens the form pre-filled with Contact.
type EditContactMsg struct {
	Contact contact.Contact
}

// SubmitFormMsg is emitted by a form whose data passed validation.
// An empty ID means the form creates a new contact.
type SubmitFormMsg struct {
	ID   string
	Data contact.FormData
}

// CancelFormMsg closes the form without saving.
type CancelFormMsg struct{}

// RequestDeleteMsg asks for confirmation before deleting Contact.
type RequestDeleteMsg struct {
	Contact contact.Contact
}

// ConfirmDeleteMsg signals the user confirmed deletion of ID.
type ConfirmDeleteMsg struct {
	ID string
}

// CancelDeleteMsg closes the confirmation screen.
type CancelDeleteMsg struct{}

// RefreshMsg signals that contacts should be reloaded from storage.
// browseState emits this on 'r'; Model.Update intercepts it and calls loadCmd.
type RefreshMsg struct{}

// FlushMsg asks the store to rewrite unsaved changes.
type FlushMsg struct{}
