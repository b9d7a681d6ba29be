package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dshills/pkgtree-mcp/internal/owner"
)

func newSetCmd(a *app) *cobra.Command {
	var project string

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Manage registered namespace sets of an indexed project",
	}
	cmd.PersistentFlags().StringVar(&project, "project", ".", "root of an indexed Go module")

	withService := func(run func(cmd *cobra.Command, svc *owner.Service, args []string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			store, err := a.openStorage()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()
			return run(cmd, owner.NewService(store, owner.Options{CacheSize: a.cfg.CacheSize, Logger: a.logger}), args)
		}
	}

	save := &cobra.Command{
		Use:   "save <name> <import-path>...",
		Short: "Register import paths under a name, replacing any set with that name",
		Args:  cobra.MinimumNArgs(2),
		RunE: withService(func(cmd *cobra.Command, svc *owner.Service, args []string) error {
			set, err := svc.SaveSet(cmd.Context(), project, args[0], args[1:])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "saved %s (%d namespaces)\n", set.Name, len(set.Namespaces))
			return nil
		}),
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List the namespace sets of the project",
		Args:  cobra.NoArgs,
		RunE: withService(func(cmd *cobra.Command, svc *owner.Service, _ []string) error {
			sets, err := svc.ListSets(cmd.Context(), project)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, set := range sets {
				fmt.Fprintf(out, "%s\n", set.Name)
				for _, ns := range set.Namespaces {
					fmt.Fprintf(out, "  %s\n", ns)
				}
			}
			return nil
		}),
	}

	del := &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a namespace set",
		Args:  cobra.ExactArgs(1),
		RunE: withService(func(cmd *cobra.Command, svc *owner.Service, args []string) error {
			name := strings.TrimSpace(args[0])
			if name == "" {
				return owner.ErrInvalidSetName
			}
			if err := svc.DeleteSet(cmd.Context(), project, name); err != nil {
				if errors.Is(err, owner.ErrSetNotFound) {
					return fmt.Errorf("no namespace set named %q", name)
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", name)
			return nil
		}),
	}

	cmd.AddCommand(save, list, del)
	return cmd
}
