package config

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/zjrosen/yedit/internal/log"
	"github.com/zjrosen/yedit/internal/schema"
	"github.com/zjrosen/yedit/internal/templates"
)

// BuildRegistry returns the builtin schemas followed by the configured ones.
// Relative schema files resolve against baseDir.
func (c Config) BuildRegistry(fs afero.Fs, baseDir string) (*schema.Registry, error) {
	descs, err := schema.Builtin()
	if err != nil {
		return nil, fmt.Errorf("loading builtin schemas: %w", err)
	}
	for _, sc := range c.Schemas {
		doc, err := schema.LoadDocument(fs, resolve(baseDir, sc.File))
		if err != nil {
			return nil, fmt.Errorf("schema %s: %w", sc.ID, err)
		}
		descs = append(descs, schema.Descriptor{
			ID:          sc.ID,
			DisplayName: sc.DisplayName,
			Description: sc.Description,
			Document:    doc,
			FileMatch:   sc.FileMatch,
			URI:         sc.URI,
		})
		log.Debug(log.CatConfig, "registered schema from config", "id", sc.ID, "file", sc.File)
	}
	return schema.NewRegistry(descs...)
}

// BuildTemplates returns the builtin templates followed by the configured
// ones, checked against reg.
func (c Config) BuildTemplates(fs afero.Fs, baseDir string, reg *schema.Registry) (*templates.Catalog, error) {
	tmpls, err := templates.Builtin()
	if err != nil {
		return nil, fmt.Errorf("loading builtin templates: %w", err)
	}
	for _, tc := range c.Templates {
		content := tc.Content
		if tc.File != "" {
			data, err := afero.ReadFile(fs, resolve(baseDir, tc.File))
			if err != nil {
				return nil, fmt.Errorf("template %s: %w", tc.ID, err)
			}
			content = string(data)
		}
		tmpls = append(tmpls, templates.Template{
			ID:             tc.ID,
			DisplayName:    tc.DisplayName,
			Description:    tc.Description,
			InitialContent: content,
			SchemaID:       tc.Schema,
		})
	}
	return templates.NewCatalog(reg, tmpls...)
}

func resolve(baseDir, p string) string {
	if filepath.IsAbs(p) || baseDir == "" {
		return p
	}
	return filepath.Join(baseDir, p)
}
