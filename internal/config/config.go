// Package config provides configuration types and defaults for yedit.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/zjrosen/yedit/internal/tracing"
	"github.com/zjrosen/yedit/internal/validate"
)

// SchemaConfig registers a schema in addition to the builtin ones.
type SchemaConfig struct {
	ID          string   `mapstructure:"id"`
	DisplayName string   `mapstructure:"display_name"`
	Description string   `mapstructure:"description"`
	File        string   `mapstructure:"file"` // YAML or JSON schema document
	FileMatch   []string `mapstructure:"file_match"`
	URI         string   `mapstructure:"uri"`
}

// TemplateConfig registers a starter document. Exactly one of Content and
// File is set.
type TemplateConfig struct {
	ID          string `mapstructure:"id"`
	DisplayName string `mapstructure:"display_name"`
	Description string `mapstructure:"description"`
	Schema      string `mapstructure:"schema"`
	Content     string `mapstructure:"content"`
	File        string `mapstructure:"file"`
}

// ThemeConfig overrides individual colors with hex values.
type ThemeConfig struct {
	Accent  string `mapstructure:"accent"`
	Muted   string `mapstructure:"muted"`
	Error   string `mapstructure:"error"`
	Success string `mapstructure:"success"`
}

// Config holds all configuration options for yedit.
type Config struct {
	Debug      bool             `mapstructure:"debug"`
	Watch      bool             `mapstructure:"watch"`
	Validation validate.Config  `mapstructure:"validation"`
	Schemas    []SchemaConfig   `mapstructure:"schemas"`
	Templates  []TemplateConfig `mapstructure:"templates"`
	Theme      ThemeConfig      `mapstructure:"theme"`
	Tracing    tracing.Config   `mapstructure:"tracing"`
}

// Defaults returns a Config with sensible default values.
func Defaults() Config {
	return Config{
		Watch:      true,
		Validation: validate.DefaultConfig(),
		Tracing:    tracing.DefaultConfig(),
	}
}

// ConfigDir returns ~/.config/yedit or empty string if home dir unavailable.
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "yedit")
}

// DefaultTracesFilePath returns ~/.config/yedit/traces/traces.jsonl or empty
// string if home dir unavailable.
func DefaultTracesFilePath() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "traces", "traces.jsonl")
}

// Validate checks the whole configuration.
func Validate(cfg Config) error {
	if err := ValidateValidation(cfg.Validation); err != nil {
		return err
	}
	if err := ValidateSchemas(cfg.Schemas); err != nil {
		return err
	}
	if err := ValidateTemplates(cfg.Templates); err != nil {
		return err
	}
	if err := ValidateTheme(cfg.Theme); err != nil {
		return err
	}
	return ValidateTracing(cfg.Tracing)
}

// ValidateValidation rejects negative durations.
func ValidateValidation(v validate.Config) error {
	if v.Debounce < 0 {
		return fmt.Errorf("validation.debounce must not be negative, got %s", v.Debounce)
	}
	if v.CacheTTL < 0 {
		return fmt.Errorf("validation.cache_ttl must not be negative, got %s", v.CacheTTL)
	}
	if v.Debounce > 10*time.Second {
		return fmt.Errorf("validation.debounce must be at most 10s, got %s", v.Debounce)
	}
	return nil
}

// ValidateSchemas checks user schema entries. Duplicates against the builtin
// catalog are caught when the registry is built.
func ValidateSchemas(schemas []SchemaConfig) error {
	seen := make(map[string]bool, len(schemas))
	for i, s := range schemas {
		if s.ID == "" {
			return fmt.Errorf("schema %d: id is required", i)
		}
		if strings.ContainsAny(s.ID, `/\`) {
			return fmt.Errorf("schema %d: id %q must be a bare file name", i, s.ID)
		}
		if s.File == "" {
			return fmt.Errorf("schema %d (%s): file is required", i, s.ID)
		}
		if seen[s.ID] {
			return fmt.Errorf("schema %d: duplicate id %q", i, s.ID)
		}
		for _, glob := range s.FileMatch {
			if _, err := filepath.Match(glob, ""); err != nil {
				return fmt.Errorf("schema %d (%s): invalid file_match %q: %w", i, s.ID, glob, err)
			}
		}
		seen[s.ID] = true
	}
	return nil
}

// ValidateTemplates checks user template entries.
func ValidateTemplates(tmpls []TemplateConfig) error {
	seen := make(map[string]bool, len(tmpls))
	for i, t := range tmpls {
		if t.ID == "" {
			return fmt.Errorf("template %d: id is required", i)
		}
		if t.Schema == "" {
			return fmt.Errorf("template %d (%s): schema is required", i, t.ID)
		}
		if (t.Content == "") == (t.File == "") {
			return fmt.Errorf("template %d (%s): exactly one of content or file is required", i, t.ID)
		}
		if seen[t.ID] {
			return fmt.Errorf("template %d: duplicate id %q", i, t.ID)
		}
		seen[t.ID] = true
	}
	return nil
}

// ValidateTheme checks that every set color is a hex value.
func ValidateTheme(theme ThemeConfig) error {
	for name, value := range map[string]string{
		"accent":  theme.Accent,
		"muted":   theme.Muted,
		"error":   theme.Error,
		"success": theme.Success,
	} {
		if value != "" && !IsHexColor(value) {
			return fmt.Errorf("theme.%s must be a hex color like #RRGGBB, got %q", name, value)
		}
	}
	return nil
}

// IsHexColor reports #RGB or #RRGGBB.
func IsHexColor(s string) bool {
	if !strings.HasPrefix(s, "#") {
		return false
	}
	hex := s[1:]
	if len(hex) != 3 && len(hex) != 6 {
		return false
	}
	_, err := strconv.ParseUint(hex, 16, 64)
	return err == nil
}

// ValidateTracing checks tracing configuration for errors.
// Returns nil if the configuration is valid (empty values use defaults).
func ValidateTracing(t tracing.Config) error {
	if t.SampleRate < 0.0 || t.SampleRate > 1.0 {
		return fmt.Errorf("tracing.sample_rate must be between 0.0 and 1.0, got %v", t.SampleRate)
	}

	switch t.Exporter {
	case "", tracing.ExporterNone, tracing.ExporterFile, tracing.ExporterStdout, tracing.ExporterOTLP:
	default:
		return fmt.Errorf("tracing.exporter must be \"none\", \"file\", \"stdout\", or \"otlp\", got %q", t.Exporter)
	}

	if t.Enabled && t.Exporter == tracing.ExporterOTLP && t.OTLPEndpoint == "" {
		return fmt.Errorf("tracing.otlp_endpoint is required when exporter is \"otlp\"")
	}
	return nil
}

// DefaultConfigTemplate returns an example config as YAML with comments.
// yedit never writes it; `yedit config` prints it.
func DefaultConfigTemplate() string {
	return `# yedit configuration
# Looked up at --config, ./.yedit/config.yaml, then ~/.config/yedit/config.yaml

# Write a debug log to ./debug.log (same as --debug)
debug: false

# Warn when the open file changes on disk
watch: true

validation:
  debounce: 150ms   # delay after the last keystroke before validating
  cache_ttl: 10m    # reuse results for identical content

# Extra schemas, listed after the builtin Person and Object schemas
# schemas:
#   - id: service.yaml
#     display_name: Service Schema
#     description: Deployment descriptor for a service.
#     file: schemas/service.schema.yaml
#     file_match: ["service.yaml", "*.service.yaml"]
#     uri: https://example.com/service.json

# Extra templates, listed after the builtin File Template
# templates:
#   - id: service
#     display_name: Service
#     schema: service.yaml
#     content: |
#       name: api
#       replicas: 2

# Color overrides
# theme:
#   accent: "#54A0FF"
#   muted: "#696969"
#   error: "#FF8787"
#   success: "#73F59F"

# OpenTelemetry tracing of open, save and schema switches
tracing:
  enabled: false
  exporter: file          # none, file, stdout, otlp
  # file_path: ~/.config/yedit/traces/traces.jsonl
  otlp_endpoint: localhost:4317
  sample_rate: 1.0
`
}
