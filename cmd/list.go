package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/zjrosen/yedit/internal/config"
	"github.com/zjrosen/yedit/internal/schema"
	"github.com/zjrosen/yedit/internal/templates"
)

type schemaDTO struct {
	ID          string   `json:"id"`
	DisplayName string   `json:"display_name"`
	Description string   `json:"description,omitempty"`
	FileMatch   []string `json:"file_match"`
	URI         string   `json:"uri"`
}

type templateDTO struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Description string `json:"description,omitempty"`
	Schema      string `json:"schema"`
}

var schemasCmd = &cobra.Command{
	Use:   "schemas",
	Short: "List the available schemas as JSON",
	Long: `List the builtin and configured schemas as JSON, in palette order.

Examples:
  yedit schemas
  yedit schemas | jq '.[].id'`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfgErr != nil {
			return cfgErr
		}
		reg, err := cfg.BuildRegistry(afero.NewOsFs(), configBaseDir())
		if err != nil {
			return err
		}
		return writeSchemas(cmd.OutOrStdout(), reg)
	},
}

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "List the available templates as JSON",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfgErr != nil {
			return cfgErr
		}
		fs := afero.NewOsFs()
		reg, err := cfg.BuildRegistry(fs, configBaseDir())
		if err != nil {
			return err
		}
		catalog, err := cfg.BuildTemplates(fs, configBaseDir(), reg)
		if err != nil {
			return err
		}
		return writeTemplates(cmd.OutOrStdout(), catalog)
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print an example config file",
	Long: `Print a commented example config. yedit never writes config files;
redirect this into .yedit/config.yaml or ~/.config/yedit/config.yaml to start one.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := fmt.Fprint(cmd.OutOrStdout(), config.DefaultConfigTemplate())
		return err
	},
}

func init() {
	rootCmd.AddCommand(schemasCmd)
	rootCmd.AddCommand(templatesCmd)
	rootCmd.AddCommand(configCmd)
}

func writeSchemas(w io.Writer, reg *schema.Registry) error {
	descs := reg.List()
	out := make([]schemaDTO, 0, len(descs))
	for _, d := range descs {
		out = append(out, schemaDTO{
			ID:          d.ID,
			DisplayName: d.DisplayName,
			Description: d.Description,
			FileMatch:   d.Globs(),
			URI:         d.CanonicalURI(),
		})
	}
	return writeJSON(w, out)
}

func writeTemplates(w io.Writer, catalog *templates.Catalog) error {
	tmpls := catalog.List()
	out := make([]templateDTO, 0, len(tmpls))
	for _, t := range tmpls {
		out = append(out, templateDTO{
			ID:          t.ID,
			DisplayName: t.DisplayName,
			Description: t.Description,
			Schema:      t.SchemaID,
		})
	}
	return writeJSON(w, out)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
