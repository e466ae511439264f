package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zjrosen/yedit/internal/app"
	"github.com/zjrosen/yedit/internal/config"
	"github.com/zjrosen/yedit/internal/log"
	"github.com/zjrosen/yedit/internal/tracing"
	"github.com/zjrosen/yedit/internal/ui/styles"
	"github.com/zjrosen/yedit/internal/watcher"
)

func init() {
	// Query the terminal background before Bubble Tea owns stdin, otherwise
	// the OSC 11 reply can land in the editor as typed text.
	//
	// See: https://github.com/charmbracelet/bubbletea/issues/1036
	_ = lipgloss.HasDarkBackground()
}

const debugLogFile = "debug.log"

var (
	version   = "dev"
	cfgFile   string
	cfg       config.Config
	cfgErr    error
	cfgSource string
)

var rootCmd = &cobra.Command{
	Use:     "yedit [file]",
	Short:   "A terminal editor for schema-validated YAML",
	Long:    `yedit edits a YAML document against one of several JSON schemas, showing validation errors as you type.`,
	Version: version,
	Args:    cobra.MaximumNArgs(1),
	RunE:    runApp,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: ./.yedit/config.yaml, then ~/.config/yedit/config.yaml)")
	rootCmd.PersistentFlags().Bool("debug", false,
		"write a debug log to "+debugLogFile)
	rootCmd.Flags().StringP("schema", "s", "",
		"schema id to start with")
	rootCmd.Flags().StringP("template", "t", "",
		"template id to start from")

	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
}

func initConfig() {
	cwd, _ := os.Getwd()
	home, _ := os.UserHomeDir()
	cfg, cfgSource, cfgErr = loadConfig(viper.GetViper(), cfgFile, cwd, home)
}

// loadConfig reads the first config file found and applies defaults. A
// missing file is not an error; yedit runs on defaults and never writes one.
func loadConfig(v *viper.Viper, explicit, cwd, home string) (config.Config, string, error) {
	setDefaults(v)

	switch {
	case explicit != "":
		v.SetConfigFile(explicit)
	case fileExists(filepath.Join(cwd, ".yedit", "config.yaml")):
		v.SetConfigFile(filepath.Join(cwd, ".yedit", "config.yaml"))
	default:
		if home != "" {
			v.AddConfigPath(filepath.Join(home, ".config", "yedit"))
		}
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || explicit != "" {
			return config.Defaults(), "", fmt.Errorf("reading config: %w", err)
		}
	}

	var c config.Config
	if err := v.Unmarshal(&c); err != nil {
		return config.Defaults(), "", fmt.Errorf("decoding config: %w", err)
	}
	return c, v.ConfigFileUsed(), nil
}

func setDefaults(v *viper.Viper) {
	defaults := config.Defaults()
	v.SetDefault("debug", defaults.Debug)
	v.SetDefault("watch", defaults.Watch)
	v.SetDefault("validation.debounce", defaults.Validation.Debounce)
	v.SetDefault("validation.cache_ttl", defaults.Validation.CacheTTL)
	v.SetDefault("tracing.enabled", defaults.Tracing.Enabled)
	v.SetDefault("tracing.exporter", defaults.Tracing.Exporter)
	v.SetDefault("tracing.file_path", defaults.Tracing.FilePath)
	v.SetDefault("tracing.otlp_endpoint", defaults.Tracing.OTLPEndpoint)
	v.SetDefault("tracing.sample_rate", defaults.Tracing.SampleRate)
	v.SetDefault("tracing.service_name", defaults.Tracing.ServiceName)
}

func fileExists(p string) bool {
	info, err := os.Stat(p)
	return err == nil && !info.IsDir()
}

// configBaseDir resolves relative schema and template files next to the
// config file that named them.
func configBaseDir() string {
	if cfgSource != "" {
		return filepath.Dir(cfgSource)
	}
	cwd, _ := os.Getwd()
	return cwd
}

func runApp(cmd *cobra.Command, args []string) error {
	if cfgErr != nil {
		return cfgErr
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if cfg.Debug || os.Getenv("YEDIT_DEBUG") == "1" {
		var opts []log.Option
		if name := os.Getenv("YEDIT_LOG_LEVEL"); name != "" {
			level, err := log.ParseLevel(name)
			if err != nil {
				return fmt.Errorf("YEDIT_LOG_LEVEL: %w", err)
			}
			opts = append(opts, log.WithMinLevel(level))
		}
		cleanup, err := log.Init(debugLogFile, opts...)
		if err != nil {
			return fmt.Errorf("opening debug log: %w", err)
		}
		defer cleanup()
		cfg.Debug = true
	}
	log.Info(log.CatConfig, "configuration loaded", "file", cfgSource)

	styles.ApplyTheme(styles.ThemeConfig{
		Accent:  cfg.Theme.Accent,
		Muted:   cfg.Theme.Muted,
		Error:   cfg.Theme.Error,
		Success: cfg.Theme.Success,
	})

	provider, err := newTracing(cfg.Tracing)
	if err != nil {
		return err
	}
	defer shutdownTracing(provider)

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	schemaID, _ := cmd.Flags().GetString("schema")
	templateID, _ := cmd.Flags().GetString("template")

	fs := afero.NewOsFs()
	ed, err := buildEditor(fs, cfg, editorOptions{
		BaseDir:  configBaseDir(),
		Dir:      cwd,
		Schema:   schemaID,
		Template: templateID,
		Tracer:   provider.Tracer(),
	})
	if err != nil {
		return err
	}
	defer ed.Close()

	appCfg := ed.appConfig(fs, cwd, cfg.Debug)
	if len(args) == 1 {
		ed.Picker.Preset(args[0])
		appCfg.OpenOnStart = true
	}
	if cfg.Watch {
		w, err := watcher.New(watcher.DefaultConfig())
		if err != nil {
			log.ErrorErr(log.CatWatcher, "file watcher unavailable", err)
		} else {
			defer func() { _ = w.Stop() }()
			appCfg.Watcher = w
		}
	}

	zone.NewGlobal()
	model := app.New(appCfg)
	defer model.Close()

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running program: %w", err)
	}
	return nil
}

func newTracing(tc tracing.Config) (*tracing.Provider, error) {
	if tc.Enabled && tc.Exporter == tracing.ExporterFile && tc.FilePath == "" {
		tc.FilePath = config.DefaultTracesFilePath()
	}
	provider, err := tracing.NewProvider(tc)
	if err != nil {
		return nil, fmt.Errorf("starting tracing: %w", err)
	}
	if provider.Enabled() {
		log.Info(log.CatTrace, "tracing enabled", "exporter", tc.Exporter)
	}
	return provider, nil
}

func shutdownTracing(p *tracing.Provider) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.Shutdown(ctx); err != nil {
		log.ErrorErr(log.CatTrace, "tracing shutdown failed", err)
	}
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
