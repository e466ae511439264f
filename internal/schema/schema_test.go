package schema

import (
	"errors"
	"testing"
	"testing/fstest"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

func TestBuiltin_OrderAndContent(t *testing.T) {
	descs, err := Builtin()
	require.NoError(t, err)
	require.Len(t, descs, 2)

	require.Equal(t, "person.yaml", descs[0].ID)
	require.Equal(t, "Person Schema", descs[0].DisplayName)
	require.Equal(t, []string{"person.yaml"}, descs[0].FileMatch)
	require.Equal(t, "https://example.com/person.json", descs[0].URI)
	require.Equal(t, []any{"name", "age", "occupation"}, descs[0].Document["required"])
	require.Equal(t, false, descs[0].Document["additionalProperties"])

	require.Equal(t, "object.yaml", descs[1].ID)
	require.Equal(t, "https://example.com/object.json", descs[1].URI)
}

func TestRegistry_ListAndGet(t *testing.T) {
	descs, err := Builtin()
	require.NoError(t, err)

	reg, err := NewRegistry(descs...)
	require.NoError(t, err)

	require.Equal(t, 2, reg.Len())
	require.Equal(t, "person.yaml", reg.Default().ID)

	got, err := reg.Get("object.yaml")
	require.NoError(t, err)
	require.Equal(t, "Object Schema", got.DisplayName)

	_, err = reg.Get("missing.yaml")
	require.True(t, errors.Is(err, ErrSchemaNotFound))
	require.False(t, reg.Has("missing.yaml"))

	// List returns a copy; reordering it must not affect the registry.
	list := reg.List()
	list[0], list[1] = list[1], list[0]
	require.Equal(t, "person.yaml", reg.List()[0].ID)
}

func TestNewRegistry_Rejects(t *testing.T) {
	doc := map[string]any{"type": "object"}

	tests := []struct {
		name  string
		descs []Descriptor
		want  string
	}{
		{name: "empty", descs: nil, want: "at least one"},
		{name: "no id", descs: []Descriptor{{Document: doc}}, want: "id is required"},
		{name: "path id", descs: []Descriptor{{ID: "a/b.yaml", Document: doc}}, want: "bare filename"},
		{name: "no document", descs: []Descriptor{{ID: "a.yaml"}}, want: "no validation document"},
		{name: "duplicate", descs: []Descriptor{{ID: "a.yaml", Document: doc}, {ID: "a.yaml", Document: doc}}, want: "duplicate"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRegistry(tt.descs...)
			require.ErrorContains(t, err, tt.want)
		})
	}
}

func TestNewRegistry_Defaults(t *testing.T) {
	reg, err := NewRegistry(Descriptor{ID: "deploy.yaml", Document: map[string]any{}})
	require.NoError(t, err)

	d := reg.Default()
	require.Equal(t, "deploy.yaml", d.DisplayName)
	require.Equal(t, []string{"deploy.yaml"}, d.FileMatch)
	require.Equal(t, "mem:///deploy.yaml", d.CanonicalURI())
	require.Equal(t, "file:///deploy.yaml", d.ResourceURI())
}

func TestLoadDir_SkipsNonDescriptorFiles(t *testing.T) {
	fsys := fstest.MapFS{
		"schemas/b.yaml":    {Data: []byte("id: b.yaml\nschema: {type: object}\n")},
		"schemas/a.json":    {Data: []byte(`{"id": "a.yaml", "schema": {"type": "object"}}`)},
		"schemas/README.md": {Data: []byte("# not a schema")},
	}

	descs, err := LoadDir(fsys, "schemas")
	require.NoError(t, err)
	require.Len(t, descs, 2)
	require.Equal(t, "a.yaml", descs[0].ID)
	require.Equal(t, "b.yaml", descs[1].ID)
}

func TestLoadDocument(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "/s/deploy.json", []byte(`{"type": "object", "required": ["image"]}`), 0o644))
	require.NoError(t, afero.WriteFile(fsys, "/s/empty.yaml", []byte(""), 0o644))

	doc, err := LoadDocument(fsys, "/s/deploy.json")
	require.NoError(t, err)
	require.Equal(t, "object", doc["type"])

	_, err = LoadDocument(fsys, "/s/empty.yaml")
	require.ErrorContains(t, err, "empty")

	_, err = LoadDocument(fsys, "/s/missing.yaml")
	require.Error(t, err)
}

func TestDescriptor_Markdown(t *testing.T) {
	descs, err := Builtin()
	require.NoError(t, err)

	md := descs[0].Markdown()
	require.Contains(t, md, "# Person Schema")
	require.Contains(t, md, "| `age` | integer | yes | How old is the person in years? |")
	require.Contains(t, md, "`Astronaut`")
	require.Contains(t, md, "No other properties are allowed.")

	md = descs[1].Markdown()
	require.Contains(t, md, "| `object_name` | string |  | The Object's display name |")
	require.NotContains(t, md, "No other properties")
}
