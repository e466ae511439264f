// Package templates provides named starter documents, each pre-associated
// with a schema from the registry.
package templates

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/zjrosen/yedit/internal/schema"
)

// ErrTemplateNotFound is returned by Catalog.Get for unknown ids.
var ErrTemplateNotFound = errors.New("template not found")

// Template is an immutable starter document.
type Template struct {
	ID             string `yaml:"id"`
	DisplayName    string `yaml:"display_name"`
	Description    string `yaml:"description"`
	InitialContent string `yaml:"content"`
	SchemaID       string `yaml:"schema"`
}

// Catalog is an ordered list of templates whose schema ids all resolve in
// the registry it was built against.
type Catalog struct {
	templates []Template
}

// NewCatalog validates tmpls against reg and keeps them in order.
func NewCatalog(reg *schema.Registry, tmpls ...Template) (*Catalog, error) {
	seen := make(map[string]bool, len(tmpls))
	out := make([]Template, 0, len(tmpls))
	for _, t := range tmpls {
		if t.ID == "" {
			return nil, errors.New("template id is required")
		}
		if seen[t.ID] {
			return nil, fmt.Errorf("duplicate template id %q", t.ID)
		}
		if !reg.Has(t.SchemaID) {
			return nil, fmt.Errorf("template %q: %w: %q", t.ID, schema.ErrSchemaNotFound, t.SchemaID)
		}
		if t.DisplayName == "" {
			t.DisplayName = t.ID
		}
		seen[t.ID] = true
		out = append(out, t)
	}
	return &Catalog{templates: out}, nil
}

// List returns the templates in catalog order.
func (c *Catalog) List() []Template {
	out := make([]Template, len(c.templates))
	copy(out, c.templates)
	return out
}

// Get returns the template with id.
func (c *Catalog) Get(id string) (Template, error) {
	for _, t := range c.templates {
		if t.ID == id {
			return t, nil
		}
	}
	return Template{}, fmt.Errorf("%w: %q", ErrTemplateNotFound, id)
}

// Builtin returns the embedded templates sorted by file name.
func Builtin() ([]Template, error) {
	return LoadDir(BuiltinFS(), ".")
}

// LoadDir reads every *.yaml/*.yml template file in dir.
func LoadDir(fsys fs.FS, dir string) ([]Template, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("reading template dir: %w", err)
	}

	var names []string
	for _, e := range entries {
		ext := strings.ToLower(path.Ext(e.Name()))
		if e.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	tmpls := make([]Template, 0, len(names))
	for _, name := range names {
		data, err := fs.ReadFile(fsys, path.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", name, err)
		}
		var t Template
		if err := yaml.Unmarshal(data, &t); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", name, err)
		}
		tmpls = append(tmpls, t)
	}
	return tmpls, nil
}
