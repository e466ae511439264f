// Package schema holds the ordered catalog of validation schemas a document
// can be bound to.
package schema

import (
	"errors"
	"fmt"
	"strings"
)

// ErrSchemaNotFound is returned when an id is absent from the registry.
var ErrSchemaNotFound = errors.New("schema not found")

// Descriptor describes one schema. The registry never mutates a descriptor
// after construction; callers must treat Document as read-only.
type Descriptor struct {
	// ID is the filename used as the resource key, e.g. "person.yaml".
	ID          string         `yaml:"id"`
	DisplayName string         `yaml:"display_name"`
	Description string         `yaml:"description"`
	Document    map[string]any `yaml:"schema"`
	FileMatch   []string       `yaml:"file_match"`
	URI         string         `yaml:"uri"`
}

// ResourceURI is the synthetic model address for documents bound to id.
func ResourceURI(id string) string {
	return "file:///" + id
}

// ResourceURI returns the synthetic model address for this schema.
func (d Descriptor) ResourceURI() string {
	return ResourceURI(d.ID)
}

// CanonicalURI returns URI, falling back to a mem: address when unset.
func (d Descriptor) CanonicalURI() string {
	if d.URI != "" {
		return d.URI
	}
	return "mem:///" + d.ID
}

// Globs returns the fileMatch globs, defaulting to the schema id itself.
func (d Descriptor) Globs() []string {
	if len(d.FileMatch) == 0 {
		return []string{d.ID}
	}
	return append([]string(nil), d.FileMatch...)
}

func (d Descriptor) validate() error {
	if strings.TrimSpace(d.ID) == "" {
		return errors.New("schema id is required")
	}
	if strings.ContainsAny(d.ID, "/\\") {
		return fmt.Errorf("schema id %q must be a bare filename", d.ID)
	}
	if d.Document == nil {
		return fmt.Errorf("schema %q has no validation document", d.ID)
	}
	return nil
}

// Registry is an ordered, fixed catalog of descriptors. The first entry is
// the default active schema.
type Registry struct {
	descriptors []Descriptor
	byID        map[string]int
}

// NewRegistry builds a registry from descs in order. It fails on an empty
// catalog, duplicate ids, or malformed descriptors.
func NewRegistry(descs ...Descriptor) (*Registry, error) {
	if len(descs) == 0 {
		return nil, errors.New("registry needs at least one schema")
	}

	r := &Registry{
		descriptors: make([]Descriptor, 0, len(descs)),
		byID:        make(map[string]int, len(descs)),
	}
	for _, d := range descs {
		if err := d.validate(); err != nil {
			return nil, err
		}
		if _, dup := r.byID[d.ID]; dup {
			return nil, fmt.Errorf("duplicate schema id %q", d.ID)
		}
		if d.DisplayName == "" {
			d.DisplayName = d.ID
		}
		d.FileMatch = d.Globs()
		r.byID[d.ID] = len(r.descriptors)
		r.descriptors = append(r.descriptors, d)
	}
	return r, nil
}

// List returns the descriptors in registry order.
func (r *Registry) List() []Descriptor {
	out := make([]Descriptor, len(r.descriptors))
	copy(out, r.descriptors)
	return out
}

// Get returns the descriptor for id or ErrSchemaNotFound.
func (r *Registry) Get(id string) (Descriptor, error) {
	i, ok := r.byID[id]
	if !ok {
		return Descriptor{}, fmt.Errorf("%w: %q", ErrSchemaNotFound, id)
	}
	return r.descriptors[i], nil
}

// Has reports whether id is registered.
func (r *Registry) Has(id string) bool {
	_, ok := r.byID[id]
	return ok
}

// Default returns the first descriptor.
func (r *Registry) Default() Descriptor {
	return r.descriptors[0]
}

// Len returns the number of registered schemas.
func (r *Registry) Len() int {
	return len(r.descriptors)
}
