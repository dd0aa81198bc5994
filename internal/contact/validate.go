package contact

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Reason identifies why a field failed validation. Values double as message keys.
type Reason string

const (
	EmptyName          Reason = "empty_name"
	EmptyPhone         Reason = "empty_phone"
	InvalidPhoneFormat Reason = "invalid_phone_format"
	InvalidEmailFormat Reason = "invalid_email_format"
)

// ErrValidation matches any *ValidationError via errors.Is.
var ErrValidation = errors.New("contact: invalid contact")

// RE2's \s is ASCII only; the classes below also admit \v, Unicode
// separators (NBSP, ideographic space) and the BOM.
var (
	phonePattern = regexp.MustCompile(`^[0-9+\-\s\v\p{Z}\x{FEFF}()]+$`)
	emailPattern = regexp.MustCompile(`^[^\s\v\p{Z}\x{FEFF}@]+@[^\s\v\p{Z}\x{FEFF}@]+\.[^\s\v\p{Z}\x{FEFF}@]+$`)
)

// defaultMessages are used by Error when no catalog is involved.
var defaultMessages = map[Reason]string{
	EmptyName:          "name is required",
	EmptyPhone:         "phone number is required",
	InvalidPhoneFormat: "phone number is invalid",
	InvalidEmailFormat: "email is invalid",
}

// ValidationError reports a single rejected field.
type ValidationError struct {
	Field  string
	Reason Reason
}

func (e *ValidationError) Error() string {
	msg, ok := defaultMessages[e.Reason]
	if !ok {
		msg = string(e.Reason)
	}
	return fmt.Sprintf("contact: %s: %s", e.Field, msg)
}

// Is reports whether target is ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// FieldErrors maps a field name to its validation error. An empty map means valid.
type FieldErrors map[string]*ValidationError

// fieldOrder fixes the reporting order of FieldErrors.Err.
var fieldOrder = []string{FieldName, FieldPhone, FieldEmail}

// Err returns nil when fe is empty, otherwise the field errors joined in form order.
func (fe FieldErrors) Err() error {
	if len(fe) == 0 {
		return nil
	}
	var errs []error
	for _, f := range fieldOrder {
		if e, ok := fe[f]; ok {
			errs = append(errs, e)
		}
	}
	return errors.Join(errs...)
}

// Validate checks the form-field constraints. Fields are trimmed before checking.
func Validate(d FormData) FieldErrors {
	d = d.Normalize()
	errs := FieldErrors{}

	if d.Name == "" {
		errs[FieldName] = &ValidationError{Field: FieldName, Reason: EmptyName}
	}

	switch {
	case d.Phone == "":
		errs[FieldPhone] = &ValidationError{Field: FieldPhone, Reason: EmptyPhone}
	case !phonePattern.MatchString(d.Phone):
		errs[FieldPhone] = &ValidationError{Field: FieldPhone, Reason: InvalidPhoneFormat}
	}

	if d.Email != "" && !emailPattern.MatchString(d.Email) {
		errs[FieldEmail] = &ValidationError{Field: FieldEmail, Reason: InvalidEmailFormat}
	}

	return errs
}

// Summary renders fe as "field: reason" pairs, mainly for CLI output.
func (fe FieldErrors) Summary(msg func(Reason) string) string {
	var parts []string
	for _, f := range fieldOrder {
		e, ok := fe[f]
		if !ok {
			continue
		}
		text := string(e.Reason)
		if msg != nil {
			text = msg(e.Reason)
		}
		parts = append(parts, f+": "+text)
	}
	return strings.Join(parts, "; ")
}
