package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/kilnfs/internal/entity"
	"github.com/roach88/kilnfs/internal/graph"
	"github.com/roach88/kilnfs/internal/nested"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	Parent string
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <kind> <payload>",
		Short: "Validate a nested payload without writing anything",
		Long: `Validate a payload, and every child payload nested under its
relationship keys, against the constraints of each kind.

All violations are reported at once with their location in the payload,
e.g. requirements[1].name. With --parent, rules that depend on the parent
(such as a run's input matching its task's schema) are checked too.

Example:
  kiln validate Task task.yaml --parent project.kiln`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Parent, "parent", "", "parent document the payload would be created under")

	return cmd
}

func runValidate(opts *ValidateOptions, kindName, payloadPath string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	reg := opts.registry()

	kind, payload, parent, err := prepare(reg, kindName, payloadPath, opts.Parent, cmd)
	if err != nil {
		return f.Fail(err)
	}
	opts.logger(cmd).Debug("validating payload", "kind", kind.Name(), "payload", payloadPath)

	if err := nested.Validate(reg, kind, payload, parent); err != nil {
		return f.Fail(err)
	}

	if f.Format == "json" {
		return f.Success(ValidationResult{Valid: true})
	}
	fmt.Fprintf(f.Writer, "✓ %s payload valid\n", kind.Name())
	return nil
}

// prepare resolves the kind, reads the payload and loads the optional
// parent shared by validate and create.
func prepare(reg *graph.Registry, kindName, payloadPath, parentPath string, cmd *cobra.Command) (*entity.Kind, map[string]any, entity.Entity, error) {
	kind, ok := reg.KindByName(kindName)
	if !ok {
		return nil, nil, nil, fmt.Errorf("unknown kind %q", kindName)
	}

	payload, err := readPayload(payloadPath, cmd.InOrStdin())
	if err != nil {
		return nil, nil, nil, err
	}

	if parentPath == "" {
		return kind, payload, nil, nil
	}
	parent, err := reg.LoadAny(parentPath)
	if err != nil {
		return nil, nil, nil, err
	}
	return kind, payload, parent, nil
}
