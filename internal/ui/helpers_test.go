package ui

import (
	"context"
	"fmt"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	contacts "github.com/smileynet/contacts"
	"github.com/smileynet/contacts/internal/contact"
	"github.com/smileynet/contacts/internal/kv"
	"github.com/smileynet/contacts/internal/locale"
	"github.com/smileynet/contacts/internal/store"
)

// stripANSI removes ANSI escape sequences from a string.
func stripANSI(s string) string {
	var out []byte
	i := 0
	for i < len(s) {
		if s[i] == '\x1b' && i+1 < len(s) && s[i+1] == '[' {
			j := i + 2
			for j < len(s) && (s[j] < 'A' || s[j] > 'Z') && (s[j] < 'a' || s[j] > 'z') {
				j++
			}
			if j < len(s) {
				j++
			}
			i = j
		} else {
			out = append(out, s[i])
			i++
		}
	}
	return string(out)
}

// containsPlainText checks if s contains sub after stripping ANSI escapes.
func containsPlainText(s, sub string) bool {
	return strings.Contains(stripANSI(s), sub)
}

// testCatalog loads the embedded English catalog.
func testCatalog(t *testing.T) *locale.Catalog {
	t.Helper()
	cat, err := locale.Load(contacts.Locales, "en")
	if err != nil {
		t.Fatalf("loading catalog: %v", err)
	}
	return cat
}

// seqIDs returns a generator producing c1, c2, ...
func seqIDs() func() (string, error) {
	n := 0
	return func() (string, error) {
		n++
		return fmt.Sprintf("c%d", n), nil
	}
}

// newTestStore returns a store over memory storage seeded with the given contacts.
// The store is not loaded.
func newTestStore(t *testing.T, seed ...contact.Contact) (*store.Store, *kv.MemoryStorage) {
	t.Helper()
	mem := kv.NewMemoryStorage()
	if len(seed) > 0 {
		data, err := store.Encode(seed)
		if err != nil {
			t.Fatalf("encoding seed: %v", err)
		}
		if err := mem.SetItem(context.Background(), store.Key, string(data)); err != nil {
			t.Fatalf("seeding storage: %v", err)
		}
	}
	return store.New(mem, store.WithIDGenerator(seqIDs())), mem
}

// sampleContacts returns two contacts with stable IDs.
func sampleContacts() []contact.Contact {
	return []contact.Contact{
		{ID: "a1", Name: "Alice", Phone: "0901 234 567", Email: "alice@example.com"},
		{ID: "b2", Name: "Bob", Phone: "+84 (28) 1234"},
	}
}

// isModelMsg reports whether msg is produced by this package and should be
// fed back into Model.Update.
func isModelMsg(msg tea.Msg) bool {
	switch msg.(type) {
	case ContactsLoadedMsg, ContactSavedMsg, ContactDeletedMsg, FlushedMsg,
		NewContactMsg, EditContactMsg, SubmitFormMsg, CancelFormMsg,
		RequestDeleteMsg, ConfirmDeleteMsg, CancelDeleteMsg, RefreshMsg, FlushMsg:
		return true
	}
	return false
}

// settle runs cmd and feeds every package message it produces back into the
// model until no commands remain. Spinner ticks, cursor blinks, and other
// foreign messages are recorded but not processed.
func settle(t *testing.T, m Model, cmd tea.Cmd) (Model, []tea.Msg) {
	t.Helper()
	var seen []tea.Msg
	queue := []tea.Cmd{cmd}
	for steps := 0; len(queue) > 0; steps++ {
		if steps > 100 {
			t.Fatal("settle: too many steps")
		}
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		msg := c()
		if batch, ok := msg.(tea.BatchMsg); ok {
			queue = append(queue, batch...)
			continue
		}
		seen = append(seen, msg)
		if !isModelMsg(msg) {
			continue
		}
		updated, next := m.Update(msg)
		m = updated.(Model)
		queue = append(queue, next)
	}
	return m, seen
}

// send applies msg to m and settles the resulting commands.
func send(t *testing.T, m Model, msg tea.Msg) (Model, []tea.Msg) {
	t.Helper()
	updated, cmd := m.Update(msg)
	return settle(t, updated.(Model), cmd)
}

// press sends a key by its string name.
func press(t *testing.T, m Model, k string) (Model, []tea.Msg) {
	t.Helper()
	return send(t, m, keyMsg(k))
}

// typeText sends each rune of s as a key press.
func typeText(t *testing.T, m Model, s string) Model {
	t.Helper()
	for _, r := range s {
		m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return m
}

// keyMsg builds a tea.KeyMsg for names like "enter", "esc", "tab" or a rune.
func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "shift+tab":
		return tea.KeyMsg{Type: tea.KeyShiftTab}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	case "backspace":
		return tea.KeyMsg{Type: tea.KeyBackspace}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
}

// hasQuit reports whether msgs contains a tea.QuitMsg.
func hasQuit(msgs []tea.Msg) bool {
	for _, msg := range msgs {
		if _, ok := msg.(tea.QuitMsg); ok {
			return true
		}
	}
	return false
}

// loadedModel returns a sized model whose initial load has completed.
func loadedModel(t *testing.T, s ContactStore) Model {
	t.Helper()
	m := NewModel(s, testCatalog(t))
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	m = updated.(Model)
	m, _ = settle(t, m, m.Init())
	return m
}
