package fixture

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const carsJSON = `[
  {"id": 1, "email": "first@example.com", "model": "Yaris", "owner": {"name": "Jo"}},
  {"id": 2, "email": "second@example.com", "model": "Golf"}
]`

func newStoreWith(t *testing.T, name, blob string) *Store {
	t.Helper()
	s := NewStore()
	_, err := s.Load(name, []byte(blob))
	require.NoError(t, err)
	return s
}

func TestStore_Load(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		blob    string
		wantErr bool
		records int
	}{
		{name: "array of objects", blob: carsJSON, records: 2},
		{name: "empty array", blob: `[]`, records: 0},
		{name: "not JSON", blob: `{not json`, wantErr: true},
		{name: "object instead of array", blob: `{"id": 1}`, wantErr: true},
		{name: "array of scalars", blob: `[1, 2, 3]`, wantErr: true},
		{name: "null record", blob: `[null]`, wantErr: true},
		{name: "null document", blob: `null`, wantErr: true},
		{name: "trailing garbage", blob: `[] []`, wantErr: true},
		{name: "empty blob", blob: ``, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := NewStore()
			doc, err := s.Load("cars", []byte(tt.blob))
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrFixtureLoad)
				assert.Empty(t, s.Names())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.records, doc.Len())
		})
	}
}

func TestStore_LoadDuplicate(t *testing.T) {
	t.Parallel()
	s := newStoreWith(t, "cars", carsJSON)

	_, err := s.Load("cars", []byte(`[]`))
	assert.ErrorIs(t, err, ErrDuplicateFixture)
}

func TestStore_LoadRequiresName(t *testing.T) {
	t.Parallel()
	_, err := NewStore().Load("", []byte(`[]`))
	assert.ErrorIs(t, err, ErrFixtureLoad)
}

func TestStore_GetUnknown(t *testing.T) {
	t.Parallel()
	s := NewStore()

	_, err := s.Get("planes")
	assert.ErrorIs(t, err, ErrUnknownFixture)

	_, err = s.Marshal("planes")
	assert.ErrorIs(t, err, ErrUnknownFixture)
}

func TestStore_GetReturnsCopy(t *testing.T) {
	t.Parallel()
	s := newStoreWith(t, "cars", carsJSON)

	doc, err := s.Get("cars")
	require.NoError(t, err)
	doc[0]["email"] = "changed"
	doc[0]["owner"].(map[string]any)["name"] = "changed"

	fresh, err := s.Get("cars")
	require.NoError(t, err)
	assert.Equal(t, "first@example.com", fresh[0]["email"])
	assert.Equal(t, "Jo", fresh[0]["owner"].(map[string]any)["name"])
}

func TestStore_MarshalIsStable(t *testing.T) {
	t.Parallel()
	s := newStoreWith(t, "cars", carsJSON)

	first, err := s.Marshal("cars")
	require.NoError(t, err)
	for range 10 {
		again, err := s.Marshal("cars")
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestStore_MarshalPreservesNumbersAndMarkup(t *testing.T) {
	t.Parallel()
	s := newStoreWith(t, "prices", `[{"price": 1.50, "big": 12345678901234567890, "note": "<b>&</b>"}]`)

	body, err := s.Marshal("prices")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"big":12345678901234567890,"note":"<b>&</b>","price":1.50}]`, string(body))
	assert.Contains(t, string(body), `"price":1.50`)
	assert.Contains(t, string(body), `<b>&</b>`)
}

func TestStore_SetField(t *testing.T) {
	t.Parallel()

	t.Run("plain key on record zero", func(t *testing.T) {
		t.Parallel()
		s := newStoreWith(t, "cars", carsJSON)

		require.NoError(t, s.SetField("cars", "email", "42"))

		doc, err := s.Get("cars")
		require.NoError(t, err)
		assert.Equal(t, "42", doc[0]["email"])
		assert.Equal(t, "second@example.com", doc[1]["email"])
	})

	t.Run("adds missing key", func(t *testing.T) {
		t.Parallel()
		s := newStoreWith(t, "passengers", `[{"name": "Ana"}]`)

		require.NoError(t, s.SetField("passengers", "company", "A320"))

		doc, err := s.Get("passengers")
		require.NoError(t, err)
		assert.Equal(t, "A320", doc[0]["company"])
	})

	t.Run("JSONPath into nested object", func(t *testing.T) {
		t.Parallel()
		s := newStoreWith(t, "cars", carsJSON)

		require.NoError(t, s.SetField("cars", "$.owner.name", "Ada"))

		doc, err := s.Get("cars")
		require.NoError(t, err)
		assert.Equal(t, "Ada", doc[0]["owner"].(map[string]any)["name"])
	})

	t.Run("last write wins", func(t *testing.T) {
		t.Parallel()
		s := newStoreWith(t, "cars", carsJSON)

		require.NoError(t, s.SetField("cars", "email", "a"))
		require.NoError(t, s.SetField("cars", "email", "b"))

		doc, err := s.Get("cars")
		require.NoError(t, err)
		assert.Equal(t, "b", doc[0]["email"])
	})

	t.Run("empty document", func(t *testing.T) {
		t.Parallel()
		s := newStoreWith(t, "empty", `[]`)
		assert.ErrorIs(t, s.SetField("empty", "email", "x"), ErrEmptyDocument)
	})

	t.Run("unknown fixture", func(t *testing.T) {
		t.Parallel()
		assert.ErrorIs(t, NewStore().SetField("nope", "email", "x"), ErrUnknownFixture)
	})

	t.Run("empty field", func(t *testing.T) {
		t.Parallel()
		s := newStoreWith(t, "cars", carsJSON)
		assert.ErrorIs(t, s.SetField("cars", " ", "x"), ErrInvalidField)
	})

	t.Run("bad JSONPath", func(t *testing.T) {
		t.Parallel()
		s := newStoreWith(t, "cars", carsJSON)
		assert.ErrorIs(t, s.SetField("cars", "$[", "x"), ErrInvalidField)
	})
}

func TestStore_SetFieldAndMarshal(t *testing.T) {
	t.Parallel()
	s := newStoreWith(t, "cars", carsJSON)

	body, err := s.SetFieldAndMarshal("cars", "email", "42")
	require.NoError(t, err)

	var doc []map[string]any
	require.NoError(t, json.Unmarshal(body, &doc))
	assert.Equal(t, "42", doc[0]["email"])

	again, err := s.Marshal("cars")
	require.NoError(t, err)
	assert.Equal(t, body, again)
}

func TestStore_ConcurrentSetField(t *testing.T) {
	t.Parallel()
	s := newStoreWith(t, "cars", carsJSON)

	const writers = 32
	values := make(map[string]bool, writers)
	for i := range writers {
		values[fmt.Sprintf("value-%02d", i)] = true
	}

	var wg sync.WaitGroup
	for v := range values {
		wg.Add(2)
		go func() {
			defer wg.Done()
			body, err := s.SetFieldAndMarshal("cars", "email", v)
			assert.NoError(t, err)

			var doc []map[string]any
			assert.NoError(t, json.Unmarshal(body, &doc))
			assert.Equal(t, v, doc[0]["email"], "response must show its own write")
		}()
		go func() {
			defer wg.Done()
			body, err := s.Marshal("cars")
			assert.NoError(t, err)
			assert.True(t, json.Valid(body))
		}()
	}
	wg.Wait()

	doc, err := s.Get("cars")
	require.NoError(t, err)
	assert.True(t, values[doc[0]["email"].(string)], "final value must be one of the writes")
}

func TestStore_Reset(t *testing.T) {
	t.Parallel()
	s := newStoreWith(t, "cars", carsJSON)
	require.NoError(t, s.SetField("cars", "email", "42"))

	require.NoError(t, s.Reset("cars"))

	doc, err := s.Get("cars")
	require.NoError(t, err)
	assert.Equal(t, "first@example.com", doc[0]["email"])

	assert.ErrorIs(t, s.Reset("nope"), ErrUnknownFixture)
}

func TestStore_Check(t *testing.T) {
	t.Parallel()
	s := newStoreWith(t, "cars", carsJSON)
	_, err := s.Load("empty", []byte(`[]`))
	require.NoError(t, err)

	assert.NoError(t, s.Check("cars", true))
	assert.NoError(t, s.Check("empty", false))
	assert.ErrorIs(t, s.Check("empty", true), ErrEmptyDocument)
	assert.ErrorIs(t, s.Check("planes", false), ErrUnknownFixture)
}

func TestStore_Names(t *testing.T) {
	t.Parallel()
	s := NewStore()
	for _, name := range []string{"rentals", "cars", "passengers"} {
		_, err := s.Load(name, []byte(`[]`))
		require.NoError(t, err)
	}
	assert.Equal(t, []string{"cars", "passengers", "rentals"}, s.Names())
}

func TestStore_LoadFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "cars.json")
	require.NoError(t, os.WriteFile(path, []byte(carsJSON), 0o600))

	s := NewStore()
	require.NoError(t, s.LoadFile("", path))
	assert.Equal(t, []string{"cars"}, s.Names())

	err := s.LoadFile("missing", filepath.Join(dir, "missing.json"))
	assert.ErrorIs(t, err, ErrFixtureLoad)
}

func TestStore_LoadGlob(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "v1", "nested"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "v1", "cars.json"), []byte(carsJSON), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "v1", "nested", "rentals.json"), []byte(`[{"id": 9}]`), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "v1", "notes.txt"), []byte(`ignored`), 0o600))

	s := NewStore()
	names, err := s.LoadGlob(filepath.Join(dir, "**", "*.json"))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"cars", "rentals"}, names)
	assert.Equal(t, []string{"cars", "rentals"}, s.Names())

	_, err = NewStore().LoadGlob(filepath.Join(dir, "**", "*.yaml"))
	assert.ErrorIs(t, err, ErrFixtureLoad)
}

func TestStore_LoadGlobStopsOnMalformed(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.json"), []byte(`[]`), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.json"), []byte(`{broken`), 0o600))

	_, err := NewStore().LoadGlob(filepath.Join(dir, "*.json"))
	assert.ErrorIs(t, err, ErrFixtureLoad)
}

func TestNameFromPath(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "cars", NameFromPath("data/cars.json"))
	assert.Equal(t, "example1", NameFromPath("example1.json"))
	assert.Equal(t, "noext", NameFromPath("/tmp/noext"))
}

func TestValidateField(t *testing.T) {
	t.Parallel()

	tests := []struct {
		field string
		valid bool
	}{
		{"email", true},
		{"$.owner.name", true},
		{"$['owner']['name']", true},
		{"$.tags[1]", true},
		{"", false},
		{"$", false},
		{"$[0]", false},
		{"$.*", false},
		{"$..email", false},
		{"$.owner.*", false},
	}
	for _, tt := range tests {
		err := ValidateField(tt.field)
		if tt.valid {
			assert.NoError(t, err, tt.field)
		} else {
			assert.ErrorIs(t, err, ErrInvalidField, tt.field)
		}
	}
}

func TestStore_SetFieldRejectsUnsettablePaths(t *testing.T) {
	t.Parallel()

	s := NewStore()
	_, err := s.Load("cars", []byte(`[{"email":"x"}]`))
	require.NoError(t, err)

	for _, field := range []string{"$", "$[0]"} {
		_, err := s.SetFieldAndMarshal("cars", field, "42")
		assert.ErrorIs(t, err, ErrInvalidField, field)
	}

	body, err := s.Marshal("cars")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"email":"x"}]`, string(body))
}
