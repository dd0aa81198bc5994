package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/smileynet/contacts/internal/contact"
	"github.com/smileynet/contacts/internal/locale"
)

// formFields lists the form inputs in tab order.
var formFields = []string{contact.FieldName, contact.FieldPhone, contact.FieldEmail}

// fieldCharLimit caps the length of every input.
const fieldCharLimit = 120

// formState is the create/edit form shown in the right pane.
// An empty id means the form creates a new contact.
type formState struct {
	id     string
	inputs []textinput.Model
	focus  int
	errs   contact.FieldErrors
	keys   formKeys
}

// newFormState builds a form pre-filled from data with the first field focused.
func newFormState(cat *locale.Catalog, id string, data contact.FormData) formState {
	values := []string{data.Name, data.Phone, data.Email}
	inputs := make([]textinput.Model, len(formFields))
	for i, field := range formFields {
		ti := textinput.New()
		ti.Prompt = "> "
		ti.CharLimit = fieldCharLimit
		ti.Placeholder = cat.T("form." + field + "_placeholder")
		ti.SetValue(values[i])
		inputs[i] = ti
	}
	inputs[0].Focus()
	return formState{
		id:     id,
		inputs: inputs,
		errs:   contact.FieldErrors{},
		keys:   FormKeyMap(),
	}
}

// Data returns the current input values as typed.
func (fs formState) Data() contact.FormData {
	return contact.FormData{
		Name:  fs.inputs[0].Value(),
		Phone: fs.inputs[1].Value(),
		Email: fs.inputs[2].Value(),
	}
}

// Editing reports whether the form edits an existing contact.
func (fs formState) Editing() bool {
	return fs.id != ""
}

// Update processes messages for the form.
func (fs formState) Update(msg tea.Msg) (formState, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return fs.updateInput(msg)
	}

	switch {
	case key.Matches(keyMsg, fs.keys.Cancel):
		return fs, emit(CancelFormMsg{})

	case key.Matches(keyMsg, fs.keys.Save):
		return fs.submit()

	case key.Matches(keyMsg, fs.keys.Next):
		return fs.focusField((fs.focus + 1) % len(fs.inputs)), nil

	case key.Matches(keyMsg, fs.keys.Prev):
		return fs.focusField((fs.focus - 1 + len(fs.inputs)) % len(fs.inputs)), nil
	}

	return fs.updateInput(msg)
}

// submit validates the inputs. Invalid forms stay open with the first
// failing field focused; valid forms emit SubmitFormMsg.
func (fs formState) submit() (formState, tea.Cmd) {
	data := fs.Data()
	errs := contact.Validate(data)
	if len(errs) > 0 {
		fs.errs = errs
		for i, field := range formFields {
			if _, bad := errs[field]; bad {
				fs = fs.focusField(i)
				break
			}
		}
		return fs, nil
	}
	fs.errs = contact.FieldErrors{}
	return fs, emit(SubmitFormMsg{ID: fs.id, Data: data})
}

// updateInput forwards msg to the focused input. A changed value clears the
// error shown for that field.
func (fs formState) updateInput(msg tea.Msg) (formState, tea.Cmd) {
	inputs := append([]textinput.Model(nil), fs.inputs...)
	before := inputs[fs.focus].Value()
	var cmd tea.Cmd
	inputs[fs.focus], cmd = inputs[fs.focus].Update(msg)
	fs.inputs = inputs
	if inputs[fs.focus].Value() != before && len(fs.errs) > 0 {
		errs := make(contact.FieldErrors, len(fs.errs))
		for k, v := range fs.errs {
			errs[k] = v
		}
		delete(errs, formFields[fs.focus])
		fs.errs = errs
	}
	return fs, cmd
}

// focusField moves focus to input i.
func (fs formState) focusField(i int) formState {
	inputs := append([]textinput.Model(nil), fs.inputs...)
	for j := range inputs {
		if j == i {
			inputs[j].Focus()
		} else {
			inputs[j].Blur()
		}
	}
	fs.inputs = inputs
	fs.focus = i
	return fs
}

// View renders the form for the given width.
func (fs formState) View(cat *locale.Catalog, width int) string {
	var b strings.Builder
	title := cat.T("form.title_new")
	if fs.Editing() {
		title = cat.T("form.title_edit")
	}
	b.WriteString(titleText.Render(title))
	b.WriteString("\n")

	for i, field := range formFields {
		in := fs.inputs[i]
		if width > 4 {
			in.Width = width - 4
		}
		b.WriteString("\n")
		b.WriteString(labelText.Render(cat.T("form." + field)))
		b.WriteString("\n")
		b.WriteString(in.View())
		b.WriteString("\n")
		if e, ok := fs.errs[field]; ok {
			b.WriteString(errorText.Render(cat.Reason(e.Reason)))
		}
		b.WriteString("\n")
	}

	b.WriteString(mutedText.Render("enter " + cat.T("form.save") + " · esc " + cat.T("form.cancel")))
	return b.String()
}
