package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/kilnfs/internal/entity"
	"github.com/roach88/kilnfs/internal/nested"
)

// CreateOptions holds flags for the create command.
type CreateOptions struct {
	*RootOptions
	Path   string
	Parent string
}

// NewCreateCommand creates the create command.
func NewCreateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CreateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "create <kind> <payload>",
		Short: "Create an entity and its nested children",
		Long: `Create an entity, and every child nested under its relationship
keys, from one payload file (JSON or YAML, "-" for stdin).

The whole tree is validated first; nothing is written unless every node is
valid. Root kinds need --path; child kinds are placed under --parent.

Example:
  kiln create Project project.yaml --path ./demo/project.kiln
  kiln create Task task.json --parent ./demo/project.kiln`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCreate(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Path, "path", "", "file to store the new entity at")
	cmd.Flags().StringVar(&opts.Parent, "parent", "", "parent document to create the entity under")
	cmd.MarkFlagsMutuallyExclusive("path", "parent")

	return cmd
}

func runCreate(opts *CreateOptions, kindName, payloadPath string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	log := opts.logger(cmd)
	reg := opts.registry()

	if opts.User != "" {
		defer entity.UseCreatedBy(opts.User)()
	}

	kind, payload, parent, err := prepare(reg, kindName, payloadPath, opts.Parent, cmd)
	if err != nil {
		return f.Fail(err)
	}

	root, err := nested.ValidateAndSave(reg, kind, payload, opts.Path, parent)
	if err != nil {
		return f.Fail(err)
	}
	log.Info("created entity", "kind", kind.Name(), "id", root.Meta().ID, "path", root.Meta().Path())

	if f.Format == "json" {
		v, err := viewOf(root, false)
		if err != nil {
			return f.Fail(err)
		}
		return f.Success(v)
	}
	fmt.Fprintf(f.Writer, "✓ created %s\n  %s\n", summary(root), root.Meta().Path())
	return nil
}
