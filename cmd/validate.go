package cmd

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/zjrosen/yedit/internal/validate"
)

// errProblems makes the command exit non-zero without cobra printing usage.
var errProblems = errors.New("validation failed")

var validateSchema string

var validateCmd = &cobra.Command{
	Use:   "validate FILE...",
	Short: "Validate YAML files without opening the editor",
	Long: `Validate each file against the schema whose file_match globs claim it,
or against --schema for every file. Problems are printed as
path:line:column: severity: message. The exit status is non-zero when any
file has an error-severity problem or cannot be read.

Examples:
  yedit validate person.yaml
  yedit validate --schema object.yaml fixtures/*.yaml`,
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfgErr != nil {
			return cfgErr
		}
		_, engine, err := buildEngine(afero.NewOsFs(), cfg, configBaseDir(), noop.NewTracerProvider().Tracer("yedit"))
		if err != nil {
			return err
		}
		defer engine.Close()
		return validateFiles(cmd.OutOrStdout(), afero.NewOsFs(), engine, validateSchema, args)
	},
}

func init() {
	validateCmd.Flags().StringVarP(&validateSchema, "schema", "s", "",
		"schema id to validate every file against")
	rootCmd.AddCommand(validateCmd)
}

// validateFiles prints every marker of every file and returns errProblems
// when at least one file failed.
func validateFiles(w io.Writer, fs afero.Fs, engine *validate.Engine, schemaID string, paths []string) error {
	failed := 0
	for _, p := range paths {
		ok, err := validateFile(w, fs, engine, schemaID, p)
		if err != nil {
			return err
		}
		if !ok {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%w: %d of %d files", errProblems, failed, len(paths))
	}
	return nil
}

func validateFile(w io.Writer, fs afero.Fs, engine *validate.Engine, schemaID, p string) (bool, error) {
	data, err := afero.ReadFile(fs, p)
	if err != nil {
		_, _ = fmt.Fprintf(w, "%s: %v\n", p, err)
		return false, nil
	}

	var markers []validate.Marker
	if schemaID != "" {
		markers, err = engine.ValidateAgainst(schemaID, string(data))
		if err != nil {
			return false, err
		}
	} else {
		abs, _ := filepath.Abs(p)
		if _, ok := engine.SchemaFor(filepath.ToSlash(abs)); !ok {
			_, _ = fmt.Fprintf(w, "%s: no schema matches this file; use --schema\n", p)
			return false, nil
		}
		markers = engine.Validate(filepath.ToSlash(abs), string(data))
	}

	ok := true
	for _, m := range markers {
		if m.Severity == validate.SeverityError {
			ok = false
		}
		_, _ = fmt.Fprintf(w, "%s:%d:%d: %s: %s\n", p, m.Line, m.Column+1, m.Severity, m.Message)
	}
	return ok, nil
}
