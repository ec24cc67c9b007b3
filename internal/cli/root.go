package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/kilnfs/internal/datamodel"
	"github.com/roach88/kilnfs/internal/graph"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	User    string // created_by for new entities; empty falls back to $KILN_USER

	// Registry relates the kinds commands operate on.
	// If nil, defaults to datamodel.Registry.
	Registry *graph.Registry
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the kiln CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "kiln",
		Short: "kiln - inspect and build kiln project trees",
		Long: `Inspect and build trees of kiln documents.

Every entity is one JSON file. Children live in directories next to their
parent's file, named after the relationship, so a whole project can be
browsed, diffed and versioned as plain files.`,
		SilenceErrors: true, // commands report their own errors; main prints the rest
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.User, "user", "", "attribution for created entities (default $KILN_USER or the OS user)")

	cmd.AddCommand(NewShowCommand(opts))
	cmd.AddCommand(NewParentCommand(opts))
	cmd.AddCommand(NewChildrenCommand(opts))
	cmd.AddCommand(NewTreeCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewCreateCommand(opts))
	cmd.AddCommand(NewWatchCommand(opts))

	return cmd
}

// registry returns the configured registry or the default one.
func (o *RootOptions) registry() *graph.Registry {
	if o.Registry != nil {
		return o.Registry
	}
	return datamodel.Registry
}

// logger writes diagnostics to the command's stderr, at debug level when
// verbose.
func (o *RootOptions) logger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelInfo
	if o.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}

// formatter builds the output formatter for cmd.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:  o.Format,
		Writer:  cmd.OutOrStdout(),
		Verbose: o.Verbose,
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
