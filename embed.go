// Package contacts provides embedded runtime resources (locale catalogs and the
// contacts blob schema) and an overlay filesystem that checks local disk first,
// falling back to embedded.
package contacts

import (
	"embed"
	"io/fs"
	"os"
	"path/filepath"
)

//go:embed locales/*.yaml
var rawLocales embed.FS

//go:embed schemas/contacts.schema.json
var ContactsSchema []byte

// Locales is the embedded locale catalog filesystem with the "locales/" prefix stripped.
var Locales = mustSub(rawLocales, "locales")

func mustSub(fsys fs.FS, dir string) fs.FS {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		panic(err)
	}
	return sub
}

// OverlayFS returns a filesystem that checks localDir on disk first,
// falling back to the embedded filesystem for files not found locally.
// An empty localDir disables the disk lookup.
func OverlayFS(localDir string, embedded fs.FS) fs.FS {
	return overlayFS{localDir: localDir, embedded: embedded}
}

type overlayFS struct {
	localDir string
	embedded fs.FS
}

func (o overlayFS) Open(name string) (fs.File, error) {
	if o.localDir != "" && fs.ValidPath(name) {
		f, err := os.Open(filepath.Join(o.localDir, filepath.FromSlash(name)))
		if err == nil {
			return f, nil
		}
	}
	return o.embedded.Open(name)
}
