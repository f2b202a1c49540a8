package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/healthsync/internal/config"
	"github.com/roach88/healthsync/internal/engine"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	NoColor    bool
	ConfigPath string
	Database   string
	User       string
	Timezone   string

	// Config is the effective configuration, resolved before any
	// subcommand runs.
	Config *config.Config

	// Clock overrides the system clock (for testing).
	// If nil, a SystemClock in the configured timezone is used.
	Clock engine.Clock
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the healthsync CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "healthsync",
		Short: "healthsync - plan and log meals, exercise, sleep and water",
		Long: `Plan meals, exercise, sleep and water per day, log what actually
happened, and let every log complete the plan items it satisfies.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			if err := resolveConfig(opts); err != nil {
				return WrapExitError(ExitCommandError, "configuration", err)
			}
			return setupLogging(opts, cmd)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().BoolVar(&opts.NoColor, "no-color", false, "disable colored text output")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "config file (default $XDG_CONFIG_HOME/healthsync/config.yaml)")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to SQLite database (overrides config and "+config.EnvDatabase+")")
	cmd.PersistentFlags().StringVarP(&opts.User, "user", "u", "", "user id (overrides config and "+config.EnvUser+")")
	cmd.PersistentFlags().StringVar(&opts.Timezone, "tz", "", "IANA timezone for today (overrides config and "+config.EnvTimezone+")")

	// Add subcommands
	cmd.AddCommand(NewLogCommand(opts))
	cmd.AddCommand(NewPlanCommand(opts))
	cmd.AddCommand(NewDayCommand(opts))
	cmd.AddCommand(NewWeekCommand(opts))
	cmd.AddCommand(NewReconcileCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// resolveConfig loads the config file and environment, then applies the
// command-line overrides.
func resolveConfig(opts *RootOptions) error {
	path := opts.ConfigPath
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}

	if opts.Database != "" {
		cfg.Database = opts.Database
	}
	if opts.User != "" {
		cfg.User = opts.User
	}
	if opts.Timezone != "" {
		cfg.Timezone = opts.Timezone
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	opts.Config = cfg
	return nil
}

// setupLogging installs a text slog handler on stderr. --verbose forces
// debug level.
func setupLogging(opts *RootOptions, cmd *cobra.Command) error {
	level, err := opts.Config.Level()
	if err != nil {
		return err
	}
	if opts.Verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))
	return nil
}

func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
		NoColor:   opts.NoColor,
	}
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
