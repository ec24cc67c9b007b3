package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <file>",
		Short: "Print an entity document",
		Long: `Load an entity document of any registered kind and print it.

The document is fully validated on load, so show doubles as a check that a
file is readable by this version of kiln.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			e, err := rootOpts.registry().LoadAny(args[0])
			if err != nil {
				return f.Fail(err)
			}
			rootOpts.logger(cmd).Debug("loaded entity", "kind", e.Kind().Name(), "id", e.Meta().ID)
			return printDocument(f, e)
		},
	}
}

// NewParentCommand creates the parent command.
func NewParentCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "parent <file>",
		Short: "Print an entity's parent",
		Long: `Resolve the parent of an entity from the directory layout and print it.

The parent document is expected three directories above the child's file.
Root entities have no parent.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			reg := rootOpts.registry()

			e, err := reg.LoadAny(args[0])
			if err != nil {
				return f.Fail(err)
			}
			parent, err := reg.Parent(e)
			if err != nil {
				return f.Fail(err)
			}
			if parent == nil {
				if f.Format == "json" {
					return f.Success(nil)
				}
				fmt.Fprintf(f.Writer, "%s has no parent\n", summary(e))
				return nil
			}
			return printDocument(f, parent)
		},
	}
}
