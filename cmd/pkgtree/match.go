package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dshills/pkgtree-mcp/internal/owner"
	"github.com/dshills/pkgtree-mcp/internal/pkgtree"
)

// errUnmatched makes `pkgtree match --strict` exit non-zero
var errUnmatched = errors.New("some identifiers have no owning namespace")

func newMatchCmd(a *app) *cobra.Command {
	var (
		namespaces []string
		separator  string
		project    string
		set        string
		strict     bool
	)

	cmd := &cobra.Command{
		Use:   "match <identifier>...",
		Short: "Print the owning registered namespace of each identifier",
		Long: `Print the owning registered namespace of each identifier.

With --namespaces, identifiers are fully qualified names split on the
separator and matched in memory. With --project and --set, identifiers are
Go identifiers resolved through the project index.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inMemory := cmd.Flags().Changed("namespaces")
			if inMemory == (project != "" || set != "") {
				return errors.New("use either --namespaces or --project with --set")
			}
			if !inMemory && (project == "" || set == "") {
				return errors.New("--project and --set are both required")
			}

			var (
				svc  *owner.Service
				tree *pkgtree.Tree
				err  error
			)
			if inMemory {
				if separator == "" {
					separator = a.cfg.Separator
				}
				svc = owner.NewService(nil, owner.Options{Separator: a.cfg.Separator, Logger: a.logger})
				tree, err = svc.MemoryTree(namespaces, separator)
			} else {
				store, serr := a.openStorage()
				if serr != nil {
					return serr
				}
				defer func() { _ = store.Close() }()

				svc = owner.NewService(store, owner.Options{CacheSize: a.cfg.CacheSize, Logger: a.logger})
				tree, err = svc.ProjectTree(cmd.Context(), project, set)
			}
			if err != nil {
				return err
			}

			matches, err := svc.MatchAll(cmd.Context(), tree, args)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			unmatched := 0
			for _, m := range matches {
				switch {
				case m.Err != nil:
					unmatched++
					fmt.Fprintf(w, "%s\t!\t%v\n", m.Identifier, m.Err)
				case m.Handle == nil:
					unmatched++
					fmt.Fprintf(w, "%s\t-\n", m.Identifier)
				default:
					fmt.Fprintf(w, "%s\t%s\n", m.Identifier, m.Handle.Name)
				}
			}
			if err := w.Flush(); err != nil {
				return err
			}

			if strict && unmatched > 0 {
				return fmt.Errorf("%w: %d of %d", errUnmatched, unmatched, len(matches))
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&namespaces, "namespaces", nil, "registered namespaces for in-memory matching")
	cmd.Flags().StringVar(&separator, "separator", "", "segment separator for in-memory matching (default from config)")
	cmd.Flags().StringVar(&project, "project", "", "root of an indexed Go module")
	cmd.Flags().StringVar(&set, "set", "", "registered namespace set of the project")
	cmd.Flags().BoolVar(&strict, "strict", false, "fail when any identifier has no owning namespace")
	return cmd
}
