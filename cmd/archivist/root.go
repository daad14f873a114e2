package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/archivist/internal/adapters/filesystem"
	"github.com/felixgeelhaar/archivist/internal/adapters/logging"
	"github.com/felixgeelhaar/archivist/internal/app"
	"github.com/felixgeelhaar/archivist/internal/domain/archive"
	"github.com/felixgeelhaar/archivist/internal/domain/config"
	"github.com/felixgeelhaar/archivist/internal/ports"
)

var (
	// Global flags
	manifestPath string
	settingsPath string
	envFiles     []string
	verbose      bool
)

var rootCmd = &cobra.Command{
	Use:   "archivist",
	Short: "Converge archive files declared in a manifest",
	Long: `Archivist downloads, verifies, extracts and removes archive files so that
the filesystem matches the archives declared in a manifest.

Each archive goes through the same pass:
  Validate → Probe → Decide → Narrate → Execute`,
	SilenceErrors: true, // We handle error formatting ourselves
	SilenceUsage:  true, // Don't show usage on error
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&manifestPath, "manifest", "m", "archives.yaml", "manifest file (.yaml, .yml or .toml)")
	rootCmd.PersistentFlags().StringVar(&settingsPath, "settings", config.DefaultSettingsFile, "settings file")
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", nil, "load environment variables from a .env file (repeatable)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	_ = rootCmd.RegisterFlagCompletionFunc("manifest", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"yaml", "yml", "toml"}, cobra.ShellCompDirectiveFilterFileExt
	})

	rootCmd.AddCommand(versionCmd)
}

// session is everything a command needs after flags are resolved.
type session struct {
	settings config.Settings
	logger   *logging.ZapLogger
	app      *app.Archivist
}

// newArchivist builds the application; tests replace it.
var newArchivist = func(out io.Writer, settings config.Settings, logger ports.Logger) (*app.Archivist, error) {
	return app.New(out, settings, logger, os.Stderr)
}

// openSession loads env files and settings, then builds the logger and app.
func openSession(cmd *cobra.Command) (*session, error) {
	if len(envFiles) > 0 {
		if err := godotenv.Load(envFiles...); err != nil {
			return nil, &config.UserError{
				Code:       config.ErrCodeConfigNotFound,
				Message:    "cannot load env file",
				Context:    fmt.Sprint(envFiles),
				Suggestion: "Check that every --env-file exists and uses KEY=value lines.",
				Underlying: err,
			}
		}
	}

	settings, err := config.LoadSettings(filesystem.NewRealFileSystem(), settingsPath, cmd.Flags().Changed("settings"))
	if err != nil {
		return nil, err
	}

	level := ports.ParseLevel(settings.Log.Level)
	if verbose {
		level = ports.LevelDebug
	}
	logger := logging.NewZapLogger(
		logging.WithOutput(cmd.ErrOrStderr()),
		logging.WithLevel(level),
		logging.WithJSONFormat(settings.Log.Format == "json"),
	)

	a, err := newArchivist(cmd.OutOrStdout(), settings, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, err
	}
	return &session{settings: settings, logger: logger, app: a}, nil
}

func (s *session) close() {
	_ = s.logger.Sync()
}

// failedError summarizes failed results for the exit status.
func failedError(results []archive.Result) error {
	n := 0
	for _, r := range results {
		if !r.Success() {
			n++
		}
	}
	if n == 0 {
		return nil
	}
	return fmt.Errorf("%d of %d archive(s) failed", n, len(results))
}

// formatError returns a user-friendly error message.
// With verbose=false: shows only the user message and suggestion.
// With verbose=true: also shows the underlying technical error.
func formatError(err error) string {
	var list *config.ErrorList
	if errors.As(err, &list) && list.Len() > 1 {
		if verbose {
			return list.Format()
		}
		return list.Error()
	}

	var userErr *config.UserError
	if errors.As(err, &userErr) {
		msg := userErr.Message
		if userErr.Context != "" {
			msg += fmt.Sprintf(" (at %s)", userErr.Context)
		}
		if userErr.Suggestion != "" {
			msg += fmt.Sprintf("\n\nSuggestion: %s", userErr.Suggestion)
		}
		if verbose && userErr.Underlying != nil {
			msg += fmt.Sprintf("\n\nTechnical details: %v", userErr.Underlying)
		}
		return msg
	}
	return err.Error()
}

// printError prints an error message to stderr with proper formatting.
func printError(err error) {
	printErrorTo(os.Stderr, err)
}

// printErrorTo prints an error message to the given writer.
func printErrorTo(w io.Writer, err error) {
	_, _ = fmt.Fprintf(w, "Error: %s\n", formatError(err))
}
