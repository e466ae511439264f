package schema

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// builtinSchemas holds the schemas shipped with yedit. Files are read in
// lexical order, so the numeric prefix fixes registry order.
//
//go:embed builtin
var builtinSchemas embed.FS

// BuiltinFS returns the embedded filesystem of builtin schema descriptors.
func BuiltinFS() fs.FS {
	sub, err := fs.Sub(builtinSchemas, "builtin")
	if err != nil {
		panic(err)
	}
	return sub
}

// Builtin returns the builtin descriptors in registry order.
func Builtin() ([]Descriptor, error) {
	return LoadDir(BuiltinFS(), ".")
}

// LoadDir reads every *.yaml/*.yml/*.json descriptor file in dir, sorted by name.
func LoadDir(fsys fs.FS, dir string) ([]Descriptor, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("reading schema dir: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !isDescriptorFile(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	descs := make([]Descriptor, 0, len(names))
	for _, name := range names {
		data, err := fs.ReadFile(fsys, path.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", name, err)
		}
		d, err := ParseDescriptor(data)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", name, err)
		}
		descs = append(descs, d)
	}
	return descs, nil
}

// ParseDescriptor decodes a full descriptor (metadata plus "schema" body).
func ParseDescriptor(data []byte) (Descriptor, error) {
	var d Descriptor
	if err := yaml.Unmarshal(data, &d); err != nil {
		return Descriptor{}, err
	}
	if err := d.validate(); err != nil {
		return Descriptor{}, err
	}
	return d, nil
}

// LoadDocument reads a bare JSON or YAML schema document from path.
// JSON is a subset of YAML, so one decoder serves both.
func LoadDocument(fsys afero.Fs, p string) (map[string]any, error) {
	data, err := afero.ReadFile(fsys, p)
	if err != nil {
		return nil, fmt.Errorf("reading schema document: %w", err)
	}
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing schema document %s: %w", p, err)
	}
	if doc == nil {
		return nil, fmt.Errorf("schema document %s is empty", p)
	}
	return doc, nil
}

func isDescriptorFile(name string) bool {
	switch strings.ToLower(path.Ext(name)) {
	case ".yaml", ".yml", ".json":
		return true
	}
	return false
}
