package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/kilnfs/internal/graph"
	"github.com/roach88/kilnfs/internal/watch"
)

// NewWatchCommand creates the watch command.
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "watch <dir>",
		Short: "Report document changes under a directory",
		Long: `Watch a directory tree and print one line per entity document
created, rewritten or removed, until interrupted.

With --format json each event is printed as one JSON object per line.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(rootOpts, args[0], cmd)
		},
	}
}

func runWatch(opts *RootOptions, dir string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	log := opts.logger(cmd)

	w, err := watch.New(documentMatcher(opts.registry()))
	if err != nil {
		return f.Fail(err)
	}
	if err := w.Start(dir); err != nil {
		_ = w.Stop()
		return f.Fail(err)
	}
	defer func() {
		if err := w.Stop(); err != nil {
			log.Error("error stopping watcher", "error", err)
		}
	}()

	// Use command's context if available (for testing), otherwise create one
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("watching", "dir", dir)
	enc := json.NewEncoder(f.Writer)
	for {
		select {
		case <-ctx.Done():
			log.Info("watch stopped")
			return nil

		case ev, ok := <-w.Events():
			if !ok {
				return nil
			}
			if f.Format == "json" {
				if err := enc.Encode(ev); err != nil {
					return err
				}
				continue
			}
			fmt.Fprintf(f.Writer, "%-6s %-16s %s\n", ev.Op, ev.Kind, ev.Path)

		case err, ok := <-w.Errors():
			if !ok {
				return nil
			}
			log.Warn("watch error", "error", err)
		}
	}
}

// documentMatcher recognizes the base filenames of every registered kind.
func documentMatcher(reg *graph.Registry) watch.Matcher {
	tags := make(map[string]string)
	for _, k := range reg.Kinds() {
		tags[k.BaseFilename()] = k.TypeTag()
	}
	return func(base string) (string, bool) {
		tag, ok := tags[base]
		return tag, ok
	}
}
