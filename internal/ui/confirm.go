package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/smileynet/contacts/internal/contact"
	"github.com/smileynet/contacts/internal/locale"
)

// confirmState holds the contact awaiting delete confirmation.
type confirmState struct {
	target contact.Contact
	keys   confirmKeys
}

func newConfirmState(c contact.Contact) confirmState {
	return confirmState{target: c, keys: ConfirmKeyMap()}
}

// Update processes key messages for the confirmation screen.
func (cs confirmState) Update(msg tea.Msg) (confirmState, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return cs, nil
	}
	switch {
	case key.Matches(keyMsg, cs.keys.Confirm):
		return cs, emit(ConfirmDeleteMsg{ID: cs.target.ID})
	case key.Matches(keyMsg, cs.keys.Cancel):
		return cs, emit(CancelDeleteMsg{})
	}
	return cs, nil
}

// View renders the confirmation screen.
func (cs confirmState) View(cat *locale.Catalog) string {
	var b strings.Builder
	b.WriteString(errorText.Bold(true).Render(cat.T("confirm.title")))
	b.WriteString("\n\n")
	b.WriteString(cat.T("confirm.body", cs.target.Name))
	fmt.Fprintf(&b, "\n\n  [Enter] %s   [Esc] %s", cat.T("confirm.delete"), cat.T("confirm.cancel"))
	return b.String()
}
