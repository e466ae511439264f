package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/yedit/internal/config"
	"github.com/zjrosen/yedit/internal/schema"
	"github.com/zjrosen/yedit/internal/session"
)

const serviceSchema = `type: object
required: [name]
properties:
  name:
    type: string
`

func TestBuildEditor_Defaults(t *testing.T) {
	ed, err := buildEditor(afero.NewMemMapFs(), config.Defaults(), editorOptions{Dir: "/work"})
	require.NoError(t, err)
	t.Cleanup(ed.Close)

	require.Equal(t, "person.yaml", ed.Session.ActiveSchemaID())
	require.Equal(t, session.WelcomeText, ed.Session.Buffer())
	require.True(t, ed.Session.IsDirty())
	require.NotNil(t, ed.Session.BoundModel())
	require.Equal(t, 2, ed.Registry.Len())

	appCfg := ed.appConfig(afero.NewMemMapFs(), "/work", true)
	require.Same(t, ed.Session, appCfg.Session)
	require.Same(t, ed.Picker, appCfg.Picker)
	require.Equal(t, "/work", appCfg.Dir)
	require.True(t, appCfg.Debug)
	require.False(t, appCfg.OpenOnStart)
}

func TestBuildEditor_StartSchema(t *testing.T) {
	ed, err := buildEditor(afero.NewMemMapFs(), config.Defaults(), editorOptions{Schema: "object.yaml"})
	require.NoError(t, err)
	t.Cleanup(ed.Close)

	require.Equal(t, "object.yaml", ed.Session.ActiveSchemaID())
	require.Equal(t, schema.ResourceURI("object.yaml"), string(ed.Session.BoundModel().URI()))
}

func TestBuildEditor_UnknownSchema(t *testing.T) {
	_, err := buildEditor(afero.NewMemMapFs(), config.Defaults(), editorOptions{Schema: "nope.yaml"})
	require.Error(t, err)
	require.True(t, errors.Is(err, schema.ErrSchemaNotFound))
}

func TestBuildEditor_StartTemplate(t *testing.T) {
	ed, err := buildEditor(afero.NewMemMapFs(), config.Defaults(), editorOptions{
		Schema:   "object.yaml",
		Template: "file_template",
	})
	require.NoError(t, err)
	t.Cleanup(ed.Close)

	require.Equal(t, "person.yaml", ed.Session.ActiveSchemaID())
	require.Equal(t, "name: Person\nage: 3\noccupation: Astronaut", ed.Session.Buffer())
}

func TestBuildEditor_UnknownTemplate(t *testing.T) {
	_, err := buildEditor(afero.NewMemMapFs(), config.Defaults(), editorOptions{Template: "missing"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "--template")
}

func TestBuildEditor_ConfiguredSchemaAndTemplate(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/cfg/service.schema.yaml", []byte(serviceSchema), 0o644))

	c := config.Defaults()
	c.Schemas = []config.SchemaConfig{{
		ID:          "service.yaml",
		DisplayName: "Service Schema",
		File:        "service.schema.yaml",
		FileMatch:   []string{"*.service.yaml"},
	}}
	c.Templates = []config.TemplateConfig{{ID: "svc", Schema: "service.yaml", Content: "name: api"}}

	ed, err := buildEditor(fs, c, editorOptions{BaseDir: "/cfg", Template: "svc"})
	require.NoError(t, err)
	t.Cleanup(ed.Close)

	require.Equal(t, 3, ed.Registry.Len())
	require.Equal(t, "service.yaml", ed.Session.ActiveSchemaID())
	require.Equal(t, "name: api", ed.Session.Buffer())
	require.Len(t, ed.Templates.List(), 2)
}

func TestWriteSchemas(t *testing.T) {
	reg, err := config.Defaults().BuildRegistry(afero.NewMemMapFs(), "")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, writeSchemas(&buf, reg))

	var got []schemaDTO
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 2)
	require.Equal(t, "person.yaml", got[0].ID)
	require.Equal(t, "Person Schema", got[0].DisplayName)
	require.Equal(t, []string{"person.yaml"}, got[0].FileMatch)
	require.Equal(t, "https://example.com/person.json", got[0].URI)
	require.Equal(t, "object.yaml", got[1].ID)
}

func TestWriteTemplates(t *testing.T) {
	fs := afero.NewMemMapFs()
	reg, err := config.Defaults().BuildRegistry(fs, "")
	require.NoError(t, err)
	catalog, err := config.Defaults().BuildTemplates(fs, "", reg)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, writeTemplates(&buf, catalog))

	var got []templateDTO
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Equal(t, []templateDTO{{
		ID:          "file_template",
		DisplayName: "File Template",
		Description: got[0].Description,
		Schema:      "person.yaml",
	}}, got)
}

func TestBuildEditor_ConfiguredSchemaValidatesItsOwnModel(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/cfg/service.schema.yaml", []byte(serviceSchema), 0o644))

	c := config.Defaults()
	c.Schemas = []config.SchemaConfig{{
		ID:        "service.yaml",
		File:      "service.schema.yaml",
		FileMatch: []string{"*.service.yaml"},
	}}

	ed, err := buildEditor(fs, c, editorOptions{BaseDir: "/cfg", Schema: "service.yaml"})
	require.NoError(t, err)
	t.Cleanup(ed.Close)

	uri := string(ed.Session.BoundModel().URI())
	require.Equal(t, schema.ResourceURI("service.yaml"), uri)

	markers := ed.Engine.Validate(uri, "name: 3\n")
	require.Len(t, markers, 1)
	require.Equal(t, "service.yaml", markers[0].Source)
	require.Equal(t, "/name", markers[0].Path)
}
