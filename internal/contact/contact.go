// Package contact defines the contact record, the form data it is built from,
// and the field validation applied before a record reaches the store.
package contact

import "strings"

// Field names used as keys in FieldErrors and in the persisted JSON.
const (
	FieldName  = "name"
	FieldPhone = "phone"
	FieldEmail = "email"
)

// Contact is a persisted contact record. ID is assigned at creation and never changes.
type Contact struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

// FormData is the user-editable part of a contact, as typed.
type FormData struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

// Normalize returns a copy of d with all fields trimmed of surrounding whitespace.
// Invalid UTF-8 sequences become U+FFFD so a stored contact reads back unchanged.
func (d FormData) Normalize() FormData {
	return FormData{
		Name:  normalizeField(d.Name),
		Phone: normalizeField(d.Phone),
		Email: normalizeField(d.Email),
	}
}

func normalizeField(s string) string {
	return strings.TrimSpace(strings.ToValidUTF8(s, "\uFFFD"))
}

// New builds a contact with the given ID from normalized form data.
func New(id string, d FormData) Contact {
	d = d.Normalize()
	return Contact{ID: id, Name: d.Name, Phone: d.Phone, Email: d.Email}
}

// Form returns the editable fields of c, for pre-filling an edit form.
func (c Contact) Form() FormData {
	return FormData{Name: c.Name, Phone: c.Phone, Email: c.Email}
}

// WithForm returns c with every field except ID replaced by normalized d.
func (c Contact) WithForm(d FormData) Contact {
	return New(c.ID, d)
}

// Initial returns the upper-cased first letter of the name, or "?" for an empty name.
func (c Contact) Initial() string {
	for _, r := range strings.TrimSpace(c.Name) {
		return strings.ToUpper(string(r))
	}
	return "?"
}
