package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/kilnfs/internal/entity"
	"github.com/roach88/kilnfs/internal/graph"
)

// NewChildrenCommand creates the children command.
func NewChildrenCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "children <file> <relationship>",
		Short: "List an entity's children in one relationship",
		Long: `List the children of an entity held under one relationship,
ordered by creation time, then id.

Example:
  kiln children project.kiln tasks
  kiln children "tasks/1a2b3c4d5e6f - Summarize/task.kiln" runs`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			reg := rootOpts.registry()

			parent, err := reg.LoadAny(args[0])
			if err != nil {
				return f.Fail(err)
			}
			kids, err := reg.Children(parent, args[1])
			if err != nil {
				return f.Fail(err)
			}
			sortByCreation(kids)
			rootOpts.logger(cmd).Debug("scanned children", "relationship", args[1], "count", len(kids))

			if f.Format == "json" {
				views := make([]EntityView, 0, len(kids))
				for _, k := range kids {
					v, err := viewOf(k, false)
					if err != nil {
						return f.Fail(err)
					}
					views = append(views, v)
				}
				return f.Success(views)
			}

			if len(kids) == 0 {
				fmt.Fprintf(f.Writer, "no %s\n", args[1])
				return nil
			}
			for _, k := range kids {
				fmt.Fprintf(f.Writer, "%s  %s\n", k.Meta().CreatedAt.Format("2006-01-02T15:04:05Z07:00"), summary(k))
			}
			return nil
		},
	}
}

// TreeNode is the JSON rendering of a subtree.
type TreeNode struct {
	EntityView
	Children map[string][]TreeNode `json:"children,omitempty"`
}

// NewTreeCommand creates the tree command.
func NewTreeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tree <file>",
		Short: "Print the subtree below an entity",
		Long: `Load an entity and every descendant, following each relationship
of each kind, and print the result as an indented tree.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			reg := rootOpts.registry()

			root, err := reg.LoadAny(args[0])
			if err != nil {
				return f.Fail(err)
			}
			node, err := buildTree(reg, root)
			if err != nil {
				return f.Fail(err)
			}

			if f.Format == "json" {
				return f.Success(node)
			}
			var b strings.Builder
			writeTree(&b, node, "")
			fmt.Fprint(f.Writer, b.String())
			return nil
		},
	}
}

func buildTree(reg *graph.Registry, e entity.Entity) (TreeNode, error) {
	v, err := viewOf(e, false)
	if err != nil {
		return TreeNode{}, err
	}
	node := TreeNode{EntityView: v}

	for _, rel := range reg.Relationships(e.Kind()) {
		kids, err := reg.Children(e, rel.Name)
		if err != nil {
			return TreeNode{}, err
		}
		if len(kids) == 0 {
			continue
		}
		sortByCreation(kids)

		if node.Children == nil {
			node.Children = make(map[string][]TreeNode)
		}
		for _, k := range kids {
			child, err := buildTree(reg, k)
			if err != nil {
				return TreeNode{}, err
			}
			node.Children[rel.Name] = append(node.Children[rel.Name], child)
		}
	}
	return node, nil
}

// writeTree renders node and its descendants, relationships sorted by name.
func writeTree(b *strings.Builder, node TreeNode, indent string) {
	line := fmt.Sprintf("%s %s", node.Kind, node.ID)
	if node.Name != "" {
		line += fmt.Sprintf(" %q", node.Name)
	}
	fmt.Fprintf(b, "%s%s\n", indent, line)

	for _, rel := range sortedKeys(node.Children) {
		fmt.Fprintf(b, "%s  %s:\n", indent, rel)
		for _, child := range node.Children[rel] {
			writeTree(b, child, indent+"    ")
		}
	}
}
