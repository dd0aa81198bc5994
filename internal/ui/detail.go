package ui

import (
	"fmt"
	"strings"

	"github.com/smileynet/contacts/internal/contact"
	"github.com/smileynet/contacts/internal/locale"
)

// renderDetail formats a single contact for the detail viewport.
func renderDetail(cat *locale.Catalog, c contact.Contact) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s\n\n", Avatar(c.Initial()), titleText.Render(c.Name))
	row := func(label, value string) {
		fmt.Fprintf(&b, "%s\n  %s\n\n", labelText.Render(label), value)
	}
	row(cat.T("detail.phone"), c.Phone)
	email := c.Email
	if email == "" {
		email = mutedText.Render("-")
	}
	row(cat.T("detail.email"), email)
	fmt.Fprintf(&b, "%s", mutedText.Render(cat.T("detail.id")+": "+c.ID))
	return b.String()
}
