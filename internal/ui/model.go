package ui

import (
	"context"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/smileynet/contacts/internal/contact"
	"github.com/smileynet/contacts/internal/locale"
)

// helpBarHeight is the number of lines reserved for the help bar at the bottom.
const helpBarHeight = 1

// noticeHeight is the number of lines reserved for the notification line.
const noticeHeight = 1

// borderChrome is the number of lines consumed by top + bottom borders.
const borderChrome = 2

// notice is the one-line notification shown above the help bar.
type notice struct {
	text string
	err  bool
}

// Model is the root Bubble Tea model for the contact manager.
// It manages a two-pane layout with mode-based routing and focus management.
type Model struct {
	ctx   context.Context
	store ContactStore
	cat   *locale.Catalog

	mode   Mode
	focus  Focus
	width  int
	height int

	browse  browseState
	form    formState
	confirm confirmState
	notice  notice

	spinner  spinner.Model
	viewport viewport.Model
	help     help.Model
	keys     browseKeys
}

// Option configures a Model.
type Option func(*Model)

// WithContext sets the context passed to store operations.
func WithContext(ctx context.Context) Option {
	return func(m *Model) {
		m.ctx = ctx
	}
}

// NewModel creates a Model in browse mode with left-pane focus. Contacts are
// loaded by the command returned from Init.
func NewModel(store ContactStore, cat *locale.Catalog, opts ...Option) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	m := Model{
		ctx:      context.Background(),
		store:    store,
		cat:      cat,
		mode:     ModeBrowse,
		focus:    PaneLeft,
		browse:   newBrowseState(),
		spinner:  s,
		viewport: viewport.New(0, 0),
		help:     help.New(),
		keys:     BrowseKeyMap(),
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

// Init starts the spinner and the initial load.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, loadCmd(m.ctx, m.store))
}

// Update handles incoming messages with mode-based routing.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		_, rightWidth := PaneWidths(msg.Width)
		vpWidth := rightWidth - borderChrome
		if vpWidth < 0 {
			vpWidth = 0
		}
		m.viewport.Width = vpWidth
		m.viewport.Height = m.contentHeight()
		return m, nil

	case spinner.TickMsg:
		if !m.browse.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case ContactsLoadedMsg:
		m.browse, _ = m.browse.Update(msg)
		if msg.Err != nil {
			m.notice = notice{text: m.cat.T("notify.load_failed"), err: true}
		} else {
			m.notice = notice{}
		}
		m.syncDetail()
		return m, nil

	case RefreshMsg:
		// A reload would replace unsaved contacts with the stored snapshot.
		if m.store.Dirty() {
			m.browse.loading = false
			m.notice = notice{text: m.cat.T("notify.unsaved"), err: true}
			return m, nil
		}
		m.browse.loading = true
		m.notice = notice{}
		return m, tea.Batch(m.spinner.Tick, loadCmd(m.ctx, m.store))

	case FlushMsg:
		if !m.store.Dirty() {
			return m, nil
		}
		return m, flushCmd(m.ctx, m.store)

	case FlushedMsg:
		if msg.Err != nil {
			m.notice = notice{text: m.cat.T("notify.save_failed"), err: true}
		} else {
			m.notice = notice{text: m.cat.T("notify.flushed")}
		}
		return m, nil

	case NewContactMsg:
		return m.openForm("", contact.FormData{})

	case EditContactMsg:
		return m.openForm(msg.Contact.ID, msg.Contact.Form())

	case SubmitFormMsg:
		m.mode = ModeBrowse
		m.focus = PaneLeft
		m.notice = notice{}
		return m, saveCmd(m.ctx, m.store, msg.ID, msg.Data)

	case CancelFormMsg, CancelDeleteMsg:
		m.mode = ModeBrowse
		m.focus = PaneLeft
		return m, nil

	case ContactSavedMsg:
		return m.applySaved(msg), nil

	case RequestDeleteMsg:
		m.mode = ModeConfirm
		m.focus = PaneRight
		m.confirm = newConfirmState(msg.Contact)
		return m, nil

	case ConfirmDeleteMsg:
		m.mode = ModeBrowse
		m.focus = PaneLeft
		m.notice = notice{}
		return m, deleteCmd(m.ctx, m.store, msg.ID)

	case ContactDeletedMsg:
		m.browse = m.browse.replaceList(msg.Contacts, "")
		m.syncDetail()
		switch {
		case msg.Err != nil && msg.Dirty:
			m.notice = notice{text: m.cat.T("notify.delete_failed") + " " + m.cat.T("notify.unsaved"), err: true}
		case msg.Err != nil:
			m.notice = notice{text: m.cat.T("notify.delete_failed"), err: true}
		default:
			m.notice = notice{text: m.cat.T("notify.deleted")}
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	if m.mode == ModeForm {
		var cmd tea.Cmd
		m.form, cmd = m.form.Update(msg)
		return m, cmd
	}
	return m, nil
}

// openForm switches to form mode for id (empty for a new contact).
func (m Model) openForm(id string, data contact.FormData) (tea.Model, tea.Cmd) {
	m.mode = ModeForm
	m.focus = PaneRight
	m.form = newFormState(m.cat, id, data)
	return m, textinput.Blink
}

// applySaved folds the result of an add or update into the model.
func (m Model) applySaved(msg ContactSavedMsg) Model {
	selectID := ""
	if msg.Found {
		selectID = msg.Contact.ID
	}
	m.browse = m.browse.replaceList(msg.Contacts, selectID)
	m.syncDetail()

	switch {
	case msg.Err != nil && msg.Dirty:
		m.notice = notice{text: m.cat.T("notify.save_failed") + " " + m.cat.T("notify.unsaved"), err: true}
	case msg.Err != nil:
		m.notice = notice{text: m.cat.T("notify.save_failed"), err: true}
	case !msg.Found:
		m.notice = notice{text: m.cat.T("notify.not_found"), err: true}
	case msg.Created:
		m.notice = notice{text: m.cat.T("notify.added")}
	default:
		m.notice = notice{text: m.cat.T("notify.updated")}
	}
	return m
}

// handleKey processes key messages with global and mode-specific routing.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}

	switch m.mode {
	case ModeForm:
		var cmd tea.Cmd
		m.form, cmd = m.form.Update(msg)
		return m, cmd

	case ModeConfirm:
		var cmd tea.Cmd
		m.confirm, cmd = m.confirm.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Tab):
		if m.focus == PaneLeft {
			m.focus = PaneRight
		} else {
			m.focus = PaneLeft
		}
		return m, nil
	}

	if m.focus == PaneRight && (key.Matches(msg, m.keys.Up) || key.Matches(msg, m.keys.Down)) {
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	prev, _ := m.browse.Selected()
	var cmd tea.Cmd
	m.browse, cmd = m.browse.Update(msg)
	if cur, _ := m.browse.Selected(); cur.ID != prev.ID {
		m.syncDetail()
	}
	return m, cmd
}

// syncDetail refreshes the detail viewport from the selected contact.
func (m *Model) syncDetail() {
	if c, ok := m.browse.Selected(); ok {
		m.viewport.SetContent(renderDetail(m.cat, c))
	} else {
		m.viewport.SetContent(mutedText.Render(m.cat.T("detail.select")))
	}
	m.viewport.GotoTop()
}

// contentHeight returns the usable height for pane content,
// accounting for border chrome, the notice line, and the help bar.
func (m Model) contentHeight() int {
	h := m.height - borderChrome - noticeHeight - helpBarHeight
	if h < 1 {
		return 1
	}
	return h
}

// View renders the two-pane layout with notice line and help bar.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return m.cat.T("app.loading")
	}

	leftWidth, rightWidth := PaneWidths(m.width)
	contentHeight := m.contentHeight()

	var leftStyle, rightStyle lipgloss.Style
	if m.focus == PaneLeft {
		leftStyle = FocusedBorder()
		rightStyle = UnfocusedBorder()
	} else {
		leftStyle = UnfocusedBorder()
		rightStyle = FocusedBorder()
	}

	leftStyle = leftStyle.
		Width(leftWidth - borderChrome).
		Height(contentHeight)
	rightStyle = rightStyle.
		Width(rightWidth - borderChrome).
		Height(contentHeight)

	leftPane := leftStyle.Render(m.browse.View(m.cat, leftWidth-borderChrome, contentHeight, m.spinner.View()))
	rightPane := rightStyle.Render(m.viewRight(rightWidth - borderChrome))
	panes := lipgloss.JoinHorizontal(lipgloss.Top, leftPane, rightPane)
	helpView := m.help.View(HelpBindings(m.mode))

	return lipgloss.JoinVertical(lipgloss.Left, panes, m.viewNotice(), helpView)
}

// viewRight renders the right pane content based on mode.
func (m Model) viewRight(width int) string {
	switch m.mode {
	case ModeForm:
		return m.form.View(m.cat, width)
	case ModeConfirm:
		return m.confirm.View(m.cat)
	default:
		return m.viewport.View()
	}
}

func (m Model) viewNotice() string {
	if m.notice.text == "" {
		return ""
	}
	if m.notice.err {
		return errorText.Render(m.cat.T("notify.error") + ": " + m.notice.text)
	}
	return okText.Render(m.notice.text)
}
