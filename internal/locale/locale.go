// Package locale loads the UI message catalogs and resolves message keys for
// the selected language, falling back to English.
package locale

import (
	"errors"
	"fmt"
	"io/fs"

	"gopkg.in/yaml.v3"

	"github.com/smileynet/contacts/internal/contact"
)

// DefaultLang is the language every catalog falls back to.
const DefaultLang = "en"

// ErrUnknownLocale indicates no catalog file exists for the requested language.
var ErrUnknownLocale = errors.New("locale: unknown locale")

// Catalog resolves message keys like "notify.added" to localized text.
type Catalog struct {
	lang     string
	messages map[string]string
	fallback map[string]string
}

// Load reads "<lang>.yaml" and "en.yaml" from fsys. Nested YAML maps are
// flattened into dotted keys.
func Load(fsys fs.FS, lang string) (*Catalog, error) {
	if lang == "" {
		lang = DefaultLang
	}

	fallback, err := readCatalog(fsys, DefaultLang)
	if err != nil {
		return nil, err
	}
	if lang == DefaultLang {
		return &Catalog{lang: lang, messages: fallback, fallback: fallback}, nil
	}

	messages, err := readCatalog(fsys, lang)
	if err != nil {
		return nil, err
	}
	return &Catalog{lang: lang, messages: messages, fallback: fallback}, nil
}

// Lang returns the catalog's language code.
func (c *Catalog) Lang() string {
	return c.lang
}

// T returns the text for key formatted with args. Missing keys fall back to
// English, then to the key itself.
func (c *Catalog) T(key string, args ...any) string {
	msg, ok := c.messages[key]
	if !ok {
		msg, ok = c.fallback[key]
	}
	if !ok {
		return key
	}
	if len(args) == 0 {
		return msg
	}
	return fmt.Sprintf(msg, args...)
}

// Reason returns the localized message for a validation failure.
func (c *Catalog) Reason(r contact.Reason) string {
	return c.T("validation." + string(r))
}

func readCatalog(fsys fs.FS, lang string) (map[string]string, error) {
	name := lang + ".yaml"
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownLocale, lang)
		}
		return nil, fmt.Errorf("locale: reading %s: %w", name, err)
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("locale: parsing %s: %w", name, err)
	}

	out := make(map[string]string)
	flatten("", raw, out)
	return out, nil
}

// flatten walks nested maps, joining keys with dots. Scalar leaves are
// stored with their YAML string form.
func flatten(prefix string, node map[string]any, out map[string]string) {
	for k, v := range node {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch v := v.(type) {
		case map[string]any:
			flatten(key, v, out)
		case string:
			out[key] = v
		case nil:
			out[key] = ""
		default:
			out[key] = fmt.Sprint(v)
		}
	}
}
