package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/smileynet/contacts/internal/contact"
	"github.com/smileynet/contacts/internal/locale"
)

// CursorMarker is the prefix shown on the selected contact row.
const CursorMarker = "▸ "

// rowHeight is the number of lines one contact occupies in the list.
const rowHeight = 2

// headerHeight is the number of lines used by the list header.
const headerHeight = 2

// browseState manages the contact list, cursor, and loading/error states
// for browse mode's left pane.
type browseState struct {
	contacts []contact.Contact
	cursor   int
	loading  bool
	err      error
	keys     browseKeys
}

// newBrowseState returns a browseState in the loading state.
func newBrowseState() browseState {
	return browseState{loading: true, keys: BrowseKeyMap()}
}

// Update processes messages for the browse state.
func (bs browseState) Update(msg tea.Msg) (browseState, tea.Cmd) {
	switch msg := msg.(type) {
	case ContactsLoadedMsg:
		return bs.applyList(msg.Contacts, msg.Err), nil

	case tea.KeyMsg:
		if bs.loading {
			return bs, nil
		}
		return bs.handleKey(msg)
	}

	return bs, nil
}

// applyList applies a loaded contact list (or error), clearing the loading
// indicator and resetting the cursor.
func (bs browseState) applyList(list []contact.Contact, err error) browseState {
	bs.loading = false
	if err != nil {
		bs.err = err
		bs.contacts = nil
		bs.cursor = 0
		return bs
	}
	bs.err = nil
	bs.contacts = append([]contact.Contact(nil), list...)
	bs.cursor = 0
	return bs
}

// replaceList swaps in a fresh snapshot after a mutation, keeping the cursor
// on selectID when present and otherwise clamping it to the list.
func (bs browseState) replaceList(list []contact.Contact, selectID string) browseState {
	bs.contacts = append([]contact.Contact(nil), list...)
	if selectID != "" {
		for i, c := range bs.contacts {
			if c.ID == selectID {
				bs.cursor = i
				return bs
			}
		}
	}
	if bs.cursor >= len(bs.contacts) {
		bs.cursor = len(bs.contacts) - 1
	}
	if bs.cursor < 0 {
		bs.cursor = 0
	}
	return bs
}

func (bs browseState) handleKey(msg tea.KeyMsg) (browseState, tea.Cmd) {
	switch {
	case key.Matches(msg, bs.keys.Up):
		if len(bs.contacts) > 0 {
			bs.cursor--
			if bs.cursor < 0 {
				bs.cursor = len(bs.contacts) - 1
			}
		}
		return bs, nil

	case key.Matches(msg, bs.keys.Down):
		if len(bs.contacts) > 0 {
			bs.cursor++
			if bs.cursor >= len(bs.contacts) {
				bs.cursor = 0
			}
		}
		return bs, nil

	case key.Matches(msg, bs.keys.Add):
		if bs.err != nil {
			return bs, nil
		}
		return bs, emit(NewContactMsg{})

	case key.Matches(msg, bs.keys.Edit):
		if c, ok := bs.Selected(); ok {
			return bs, emit(EditContactMsg{Contact: c})
		}
		return bs, nil

	case key.Matches(msg, bs.keys.Delete):
		if c, ok := bs.Selected(); ok {
			return bs, emit(RequestDeleteMsg{Contact: c})
		}
		return bs, nil

	case key.Matches(msg, bs.keys.Refresh):
		bs.loading = true
		bs.err = nil
		return bs, emit(RefreshMsg{})

	case key.Matches(msg, bs.keys.Retry):
		return bs, emit(FlushMsg{})
	}

	return bs, nil
}

// Selected returns the contact at the cursor, or false if the list is empty
// or still loading.
func (bs browseState) Selected() (contact.Contact, bool) {
	if bs.loading || len(bs.contacts) == 0 || bs.cursor < 0 || bs.cursor >= len(bs.contacts) {
		return contact.Contact{}, false
	}
	return bs.contacts[bs.cursor], true
}

// View renders the list pane for the given dimensions.
// spinnerView is the current spinner frame (may be empty when spinner is inactive).
func (bs browseState) View(cat *locale.Catalog, width, height int, spinnerView string) string {
	if bs.loading {
		return fmt.Sprintf("%s %s", spinnerView, cat.T("app.loading"))
	}

	if bs.err != nil {
		return fmt.Sprintf("%s\n\n%s\n\n%s",
			errorText.Render(cat.T("notify.load_failed")), bs.err, mutedText.Render(cat.T("list.retry_hint")))
	}

	var b strings.Builder
	b.WriteString(titleText.Render(cat.T("app.title")))
	b.WriteString("  ")
	b.WriteString(mutedText.Render(cat.T("app.count", len(bs.contacts))))
	b.WriteString("\n")

	if len(bs.contacts) == 0 {
		b.WriteString("\n")
		b.WriteString(cat.T("list.empty"))
		b.WriteString("\n")
		b.WriteString(mutedText.Render(cat.T("list.empty_hint")))
		return b.String()
	}

	start, end := bs.window(height)
	for i := start; i < end; i++ {
		c := bs.contacts[i]
		b.WriteByte('\n')
		if i == bs.cursor {
			b.WriteString(CursorMarker)
		} else {
			b.WriteString("  ")
		}
		b.WriteString(Avatar(c.Initial()))
		b.WriteString(" ")
		b.WriteString(truncate(c.Name, width-8))
		b.WriteString("\n      ")
		sub := c.Phone
		if c.Email != "" {
			sub += " · " + c.Email
		}
		b.WriteString(mutedText.Render(truncate(sub, width-8)))
	}
	return b.String()
}

// window returns the [start, end) range of rows that fit in height while
// keeping the cursor visible.
func (bs browseState) window(height int) (start, end int) {
	visible := (height - headerHeight) / rowHeight
	if visible < 1 {
		visible = 1
	}
	if bs.cursor >= visible {
		start = bs.cursor - visible + 1
	}
	end = start + visible
	if end > len(bs.contacts) {
		end = len(bs.contacts)
	}
	return start, end
}

// truncate shortens s to at most n runes, marking the cut with an ellipsis.
func truncate(s string, n int) string {
	if n <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n == 1 {
		return "…"
	}
	return string(r[:n-1]) + "…"
}
