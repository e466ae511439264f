package cmd

import (
	"bytes"
	"errors"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/zjrosen/yedit/internal/config"
	"github.com/zjrosen/yedit/internal/schema"
	"github.com/zjrosen/yedit/internal/validate"
)

func newValidateEnv(t *testing.T) (afero.Fs, *validate.Engine) {
	t.Helper()
	fs := afero.NewMemMapFs()
	_, engine, err := buildEngine(fs, config.Defaults(), "", noop.NewTracerProvider().Tracer("test"))
	require.NoError(t, err)
	t.Cleanup(engine.Close)
	return fs, engine
}

func TestValidateFiles_Clean(t *testing.T) {
	fs, engine := newValidateEnv(t)
	require.NoError(t, afero.WriteFile(fs, "/work/person.yaml", []byte("name: Ada\nage: 36\noccupation: Astronaut\n"), 0o644))

	var out bytes.Buffer
	require.NoError(t, validateFiles(&out, fs, engine, "", []string{"/work/person.yaml"}))
	require.Empty(t, out.String())
}

func TestValidateFiles_ReportsMarkers(t *testing.T) {
	fs, engine := newValidateEnv(t)
	require.NoError(t, afero.WriteFile(fs, "/work/person.yaml", []byte("name: Ada\nage: old\noccupation: Astronaut\n"), 0o644))

	var out bytes.Buffer
	err := validateFiles(&out, fs, engine, "", []string{"/work/person.yaml"})
	require.True(t, errors.Is(err, errProblems))
	require.Contains(t, err.Error(), "1 of 1 files")
	require.Contains(t, out.String(), "/work/person.yaml:2:1: error: ")
}

func TestValidateFiles_SchemaFlagOverridesGlobs(t *testing.T) {
	fs, engine := newValidateEnv(t)
	content := []byte("name: Person\nage: 3\noccupation: Astronaut")
	require.NoError(t, afero.WriteFile(fs, "/work/notes.yaml", content, 0o644))

	var out bytes.Buffer
	require.NoError(t, validateFiles(&out, fs, engine, "person.yaml", []string{"/work/notes.yaml"}))

	out.Reset()
	err := validateFiles(&out, fs, engine, "object.yaml", []string{"/work/notes.yaml"})
	require.True(t, errors.Is(err, errProblems))
	require.Contains(t, out.String(), "/work/notes.yaml:3:1: error: ")
}

func TestValidateFiles_UnclaimedFile(t *testing.T) {
	fs, engine := newValidateEnv(t)
	require.NoError(t, afero.WriteFile(fs, "/work/notes.yaml", []byte("a: 1\n"), 0o644))

	var out bytes.Buffer
	err := validateFiles(&out, fs, engine, "", []string{"/work/notes.yaml"})
	require.True(t, errors.Is(err, errProblems))
	require.Contains(t, out.String(), "no schema matches this file")
}

func TestValidateFiles_MissingFileKeepsGoing(t *testing.T) {
	fs, engine := newValidateEnv(t)
	require.NoError(t, afero.WriteFile(fs, "/work/object.yaml", []byte("object_name: box\n"), 0o644))

	var out bytes.Buffer
	err := validateFiles(&out, fs, engine, "", []string{"/work/missing.yaml", "/work/object.yaml"})
	require.True(t, errors.Is(err, errProblems))
	require.Contains(t, err.Error(), "1 of 2 files")
	require.Contains(t, out.String(), "/work/missing.yaml: ")
}

func TestValidateFiles_UnknownSchema(t *testing.T) {
	fs, engine := newValidateEnv(t)
	require.NoError(t, afero.WriteFile(fs, "/work/a.yaml", []byte("a: 1\n"), 0o644))

	err := validateFiles(&bytes.Buffer{}, fs, engine, "nope.yaml", []string{"/work/a.yaml"})
	require.True(t, errors.Is(err, schema.ErrSchemaNotFound))
}
