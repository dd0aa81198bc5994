package contacts

import (
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"
)

func TestEmbeddedLocales(t *testing.T) {
	// Verify that every shipped locale is embedded and non-empty.
	for _, name := range []string{"en.yaml", "vi.yaml"} {
		data, err := fs.ReadFile(Locales, name)
		if err != nil {
			t.Fatalf("reading embedded %s: %v", name, err)
		}
		if len(data) == 0 {
			t.Errorf("embedded %s is empty", name)
		}
	}
}

func TestEmbeddedSchema(t *testing.T) {
	// The schema must be well-formed JSON describing an array.
	var schema map[string]any
	if err := json.Unmarshal(ContactsSchema, &schema); err != nil {
		t.Fatalf("embedded schema is not JSON: %v", err)
	}
	if schema["type"] != "array" {
		t.Errorf("schema type = %v, want array", schema["type"])
	}
}

func TestOverlayFS_EmbeddedOnly(t *testing.T) {
	// Given: an embedded FS with a file and a local dir without it
	embedded := fstest.MapFS{
		"en.yaml": &fstest.MapFile{Data: []byte("from embedded")},
	}
	localDir := t.TempDir() // empty

	// When: opening the file via overlay
	ofs := OverlayFS(localDir, embedded)
	data, err := fs.ReadFile(ofs, "en.yaml")
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}

	// Then: embedded content is returned
	if string(data) != "from embedded" {
		t.Errorf("got %q, want %q", string(data), "from embedded")
	}
}

func TestOverlayFS_LocalOverride(t *testing.T) {
	// Given: both local and embedded have the same file
	embedded := fstest.MapFS{
		"vi.yaml": &fstest.MapFile{Data: []byte("from embedded")},
	}
	localDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(localDir, "vi.yaml"), []byte("from local"), 0o644); err != nil {
		t.Fatal(err)
	}

	// When: opening the file via overlay
	ofs := OverlayFS(localDir, embedded)
	data, err := fs.ReadFile(ofs, "vi.yaml")
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}

	// Then: local file takes precedence
	if string(data) != "from local" {
		t.Errorf("got %q, want %q", string(data), "from local")
	}
}

func TestOverlayFS_EmptyLocalDir(t *testing.T) {
	// Given: an overlay with no local directory
	embedded := fstest.MapFS{
		"en.yaml": &fstest.MapFile{Data: []byte("embedded")},
	}
	ofs := OverlayFS("", embedded)

	// When/Then: files resolve from embedded
	data, err := fs.ReadFile(ofs, "en.yaml")
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(data) != "embedded" {
		t.Errorf("got %q, want %q", string(data), "embedded")
	}
}

func TestOverlayFS_NotFound(t *testing.T) {
	// Given: neither local nor embedded has the file
	ofs := OverlayFS(t.TempDir(), fstest.MapFS{})

	// When/Then: Open returns an error
	if _, err := fs.ReadFile(ofs, "missing.yaml"); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestOverlayFS_RejectsInvalidPath(t *testing.T) {
	// Given: a local dir with a file one level up from the overlay root
	parent := t.TempDir()
	localDir := filepath.Join(parent, "locales")
	if err := os.MkdirAll(localDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(parent, "secret.yaml"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	ofs := OverlayFS(localDir, fstest.MapFS{})

	// When/Then: paths escaping the overlay root are rejected
	for _, name := range []string{"../secret.yaml", "/absolute"} {
		if _, err := ofs.Open(name); err == nil {
			t.Errorf("Open(%q) should return error", name)
		}
	}
}
