package store

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/smileynet/contacts/internal/contact"
	"github.com/smileynet/contacts/internal/kv"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// newLoaded returns a loaded Store over a fresh MemoryStorage.
func newLoaded(t *testing.T, opts ...Option) (*Store, *kv.MemoryStorage) {
	t.Helper()
	mem := kv.NewMemoryStorage()
	s := New(mem, opts...)
	require.NoError(t, s.Load(context.Background()))
	return s, mem
}

// sequentialIDs returns a generator yielding id-1, id-2, ...
func sequentialIDs() func() (string, error) {
	n := 0
	return func() (string, error) {
		n++
		return fmt.Sprintf("id-%d", n), nil
	}
}

func byID(a, b contact.Contact) bool { return a.ID < b.ID }

func TestLoad_MissingBlobStartsEmpty(t *testing.T) {
	s, _ := newLoaded(t)

	assert.True(t, s.Loaded())
	assert.Equal(t, 0, s.Len())
	assert.NotNil(t, s.List())
}

func TestLoad_EmptyBlobStartsEmpty(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemoryStorage()
	require.NoError(t, mem.SetItem(ctx, Key, "  "))

	s := New(mem)
	require.NoError(t, s.Load(ctx))
	assert.Equal(t, 0, s.Len())
}

func TestLoad_ReadsPersistedContacts(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemoryStorage()
	require.NoError(t, mem.SetItem(ctx, Key,
		`[{"id":"1","name":"Al","phone":"123","email":""},{"id":"2","name":"Bea","phone":"456"}]`))

	s := New(mem)
	require.NoError(t, s.Load(ctx))

	want := []contact.Contact{
		{ID: "1", Name: "Al", Phone: "123"},
		{ID: "2", Name: "Bea", Phone: "456"},
	}
	if diff := cmp.Diff(want, s.List()); diff != "" {
		t.Errorf("List() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_Corruption(t *testing.T) {
	blobs := map[string]string{
		"not json":         `{{{`,
		"object not array": `{"id":"1"}`,
		"null":             `null`,
		"missing id":       `[{"name":"Al","phone":"1"}]`,
		"empty id":         `[{"id":"","name":"Al","phone":"1"}]`,
		"numeric phone":    `[{"id":"1","name":"Al","phone":123}]`,
		"duplicate ids":    `[{"id":"1","name":"Al","phone":"1"},{"id":"1","name":"Bo","phone":"2"}]`,
	}

	for name, blob := range blobs {
		t.Run(name+"/fail policy", func(t *testing.T) {
			ctx := context.Background()
			mem := kv.NewMemoryStorage()
			require.NoError(t, mem.SetItem(ctx, Key, blob))
			s := New(mem)

			err := s.Load(ctx)

			require.ErrorIs(t, err, ErrStorageCorruption)
			assert.False(t, s.Loaded())

			// The unreadable blob is never overwritten.
			_, err = s.Add(ctx, contact.FormData{Name: "New", Phone: "1"})
			assert.ErrorIs(t, err, ErrNotLoaded)
			got, _, _ := mem.GetItem(ctx, Key)
			assert.Equal(t, blob, got)
		})

		t.Run(name+"/reset policy", func(t *testing.T) {
			ctx := context.Background()
			mem := kv.NewMemoryStorage()
			require.NoError(t, mem.SetItem(ctx, Key, blob))
			core, logs := observer.New(zap.WarnLevel)
			s := New(mem, WithCorruptionPolicy(PolicyReset), WithLogger(zap.New(core)))

			require.NoError(t, s.Load(ctx))

			assert.True(t, s.Loaded())
			assert.Equal(t, 0, s.Len())
			assert.Equal(t, 1, logs.FilterMessage("discarding corrupt contacts blob").Len())
		})
	}
}

func TestLoad_ReadFailure(t *testing.T) {
	mem := kv.NewMemoryStorage()
	mem.FailReads(errors.New("io error"))
	s := New(mem)

	err := s.Load(context.Background())

	assert.ErrorIs(t, err, ErrStorageRead)
	assert.False(t, s.Loaded())
}

func TestMutationsBeforeLoad(t *testing.T) {
	ctx := context.Background()
	s := New(kv.NewMemoryStorage())

	_, err := s.Add(ctx, contact.FormData{Name: "Al", Phone: "1"})
	assert.ErrorIs(t, err, ErrNotLoaded)
	_, _, err = s.Update(ctx, "x", contact.FormData{})
	assert.ErrorIs(t, err, ErrNotLoaded)
	assert.ErrorIs(t, s.Delete(ctx, "x"), ErrNotLoaded)
	assert.ErrorIs(t, s.Flush(ctx), ErrNotLoaded)
}

func TestAdd_TrimsAndPersists(t *testing.T) {
	ctx := context.Background()
	s, mem := newLoaded(t, WithIDGenerator(sequentialIDs()))

	c, err := s.Add(ctx, contact.FormData{Name: " Al ", Phone: " 123 ", Email: ""})
	require.NoError(t, err)

	assert.Equal(t, contact.Contact{ID: "id-1", Name: "Al", Phone: "123"}, c)
	raw, ok, err := mem.GetItem(ctx, Key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `[{"id":"id-1","name":"Al","phone":"123","email":""}]`, raw)
}

func TestAdd_UniqueIDs(t *testing.T) {
	ctx := context.Background()
	s, _ := newLoaded(t)

	seen := make(map[string]bool)
	for i := range 200 {
		c, err := s.Add(ctx, contact.FormData{Name: fmt.Sprintf("c%d", i), Phone: "1"})
		require.NoError(t, err)
		require.NotEmpty(t, c.ID)
		require.False(t, seen[c.ID], "duplicate id %q", c.ID)
		seen[c.ID] = true
	}
	assert.Equal(t, 200, s.Len())
}

func TestAdd_RegeneratesCollidingID(t *testing.T) {
	ctx := context.Background()
	ids := []string{"dup", "dup", "fresh"}
	gen := func() (string, error) {
		id := ids[0]
		ids = ids[1:]
		return id, nil
	}
	s, _ := newLoaded(t, WithIDGenerator(gen))

	first, err := s.Add(ctx, contact.FormData{Name: "A", Phone: "1"})
	require.NoError(t, err)
	second, err := s.Add(ctx, contact.FormData{Name: "B", Phone: "2"})
	require.NoError(t, err)

	assert.Equal(t, "dup", first.ID)
	assert.Equal(t, "fresh", second.ID)
}

func TestAdd_IDGeneratorExhausted(t *testing.T) {
	ctx := context.Background()
	s, _ := newLoaded(t, WithIDGenerator(func() (string, error) { return "same", nil }))

	_, err := s.Add(ctx, contact.FormData{Name: "A", Phone: "1"})
	require.NoError(t, err)
	_, err = s.Add(ctx, contact.FormData{Name: "B", Phone: "2"})
	require.ErrorIs(t, err, ErrIDGeneration)
	assert.Equal(t, 1, s.Len())
}

func TestAdd_IDGeneratorFailure(t *testing.T) {
	boom := errors.New("entropy exhausted")
	s, _ := newLoaded(t, WithIDGenerator(func() (string, error) { return "", boom }))

	_, err := s.Add(context.Background(), contact.FormData{Name: "A", Phone: "1"})
	require.ErrorIs(t, err, ErrIDGeneration)
	require.ErrorIs(t, err, boom)
	assert.Zero(t, s.Len())
	assert.False(t, s.Dirty())
}

func TestAdd_PersistenceFailureKeepsMemoryAhead(t *testing.T) {
	ctx := context.Background()
	s, mem := newLoaded(t, WithIDGenerator(sequentialIDs()))
	mem.FailWrites(errors.New("disk full"))

	c, err := s.Add(ctx, contact.FormData{Name: "Al", Phone: "1"})

	require.ErrorIs(t, err, ErrPersistence)
	assert.Equal(t, "id-1", c.ID)
	assert.True(t, s.Dirty())
	_, ok := s.Get("id-1")
	assert.True(t, ok, "in-memory state keeps the unsaved contact")
	_, found, _ := mem.GetItem(ctx, Key)
	assert.False(t, found, "nothing was written")

	// Explicit flush once the backend recovers.
	mem.FailWrites(nil)
	require.NoError(t, s.Flush(ctx))
	assert.False(t, s.Dirty())

	reloaded := New(mem)
	require.NoError(t, reloaded.Load(ctx))
	assert.Equal(t, 1, reloaded.Len())
}

func TestUpdate_ReplacesFieldsKeepsID(t *testing.T) {
	ctx := context.Background()
	s, _ := newLoaded(t)

	added, err := s.Add(ctx, contact.FormData{Name: "Al", Phone: "123", Email: ""})
	require.NoError(t, err)

	updated, found, err := s.Update(ctx, added.ID, contact.FormData{Name: "Bea", Phone: "456", Email: "b@x.com"})
	require.NoError(t, err)
	require.True(t, found)

	got, ok := s.Get(added.ID)
	require.True(t, ok)
	want := contact.Contact{ID: added.ID, Name: "Bea", Phone: "456", Email: "b@x.com"}
	assert.Equal(t, want, got)
	assert.Equal(t, want, updated)
}

func TestUpdate_UnknownIDLeavesCollection(t *testing.T) {
	ctx := context.Background()
	s, mem := newLoaded(t)
	for _, n := range []string{"A", "B", "C"} {
		_, err := s.Add(ctx, contact.FormData{Name: n, Phone: "1"})
		require.NoError(t, err)
	}
	before := s.List()
	writes := mem.Writes()

	_, found, err := s.Update(ctx, "no-such-id", contact.FormData{Name: "X", Phone: "9"})

	require.NoError(t, err)
	assert.False(t, found)
	if diff := cmp.Diff(before, s.List(), cmpopts.SortSlices(byID)); diff != "" {
		t.Errorf("collection changed (-before +after):\n%s", diff)
	}
	assert.Equal(t, writes+1, mem.Writes(), "list is persisted regardless")
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	s, _ := newLoaded(t)
	a, err := s.Add(ctx, contact.FormData{Name: "A", Phone: "1"})
	require.NoError(t, err)
	b, err := s.Add(ctx, contact.FormData{Name: "B", Phone: "2"})
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, a.ID))

	_, ok := s.Get(a.ID)
	assert.False(t, ok)
	_, ok = s.Get(b.ID)
	assert.True(t, ok)

	// Deleting again is a no-op.
	require.NoError(t, s.Delete(ctx, a.ID))
	assert.Equal(t, 1, s.Len())
}

func TestDelete_PersistenceFailure(t *testing.T) {
	ctx := context.Background()
	s, mem := newLoaded(t)
	c, err := s.Add(ctx, contact.FormData{Name: "A", Phone: "1"})
	require.NoError(t, err)
	mem.FailWrites(errors.New("read-only"))

	err = s.Delete(ctx, c.ID)

	require.ErrorIs(t, err, ErrPersistence)
	assert.Equal(t, 0, s.Len())
	assert.True(t, s.Dirty())
}

func TestList_ReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s, _ := newLoaded(t)
	c, err := s.Add(ctx, contact.FormData{Name: "A", Phone: "1"})
	require.NoError(t, err)

	list := s.List()
	list[0].Name = "mutated"

	got, _ := s.Get(c.ID)
	assert.Equal(t, "A", got.Name)
}

func TestPersistedStateSurvivesReload(t *testing.T) {
	ctx := context.Background()
	s, mem := newLoaded(t)
	a, err := s.Add(ctx, contact.FormData{Name: "Al", Phone: "123"})
	require.NoError(t, err)
	_, err = s.Add(ctx, contact.FormData{Name: "Bea", Phone: "456", Email: "b@x.com"})
	require.NoError(t, err)
	require.NoError(t, s.Delete(ctx, a.ID))

	reloaded := New(mem)
	require.NoError(t, reloaded.Load(ctx))

	if diff := cmp.Diff(s.List(), reloaded.List()); diff != "" {
		t.Errorf("reloaded collection mismatch (-want +got):\n%s", diff)
	}
}

func TestInvalidUTF8SurvivesReload(t *testing.T) {
	ctx := context.Background()
	s, mem := newLoaded(t)
	c, err := s.Add(ctx, contact.FormData{Name: "Al\xff\xfe", Phone: "123", Email: "a\xc3@x.com"})
	require.NoError(t, err)
	assert.Equal(t, "Al\uFFFD\uFFFD", c.Name)

	reloaded := New(mem)
	require.NoError(t, reloaded.Load(ctx))

	if diff := cmp.Diff(s.List(), reloaded.List()); diff != "" {
		t.Errorf("reloaded collection mismatch (-want +got):\n%s", diff)
	}
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	list := []contact.Contact{
		{ID: "0190b7a2-0000-7000-8000-000000000001", Name: "Al", Phone: "+1 (555) 123-4567"},
		{ID: "legacy1718000000000abc123def", Name: "Đức", Phone: "0912 345 678", Email: "duc@example.vn"},
	}

	data, err := Encode(list)
	require.NoError(t, err)
	got, err := Decode(data)
	require.NoError(t, err)

	if diff := cmp.Diff(list, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestEncode_NilIsEmptyArray(t *testing.T) {
	data, err := Encode(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}

func TestDecode_ToleratesExtraFields(t *testing.T) {
	got, err := Decode([]byte(`[{"id":"1","name":"Al","phone":"1","email":"","starred":true}]`))
	require.NoError(t, err)
	assert.Equal(t, []contact.Contact{{ID: "1", Name: "Al", Phone: "1"}}, got)
}

func TestWithKey(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemoryStorage()
	s := New(mem, WithKey("@work-contacts"))
	require.NoError(t, s.Load(ctx))
	_, err := s.Add(ctx, contact.FormData{Name: "A", Phone: "1"})
	require.NoError(t, err)

	_, found, _ := mem.GetItem(ctx, "@work-contacts")
	assert.True(t, found)
	_, found, _ = mem.GetItem(ctx, Key)
	assert.False(t, found)
}
