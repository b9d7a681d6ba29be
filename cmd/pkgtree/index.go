package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/pkgtree-mcp/internal/indexer"
)

func newIndexCmd(a *app) *cobra.Command {
	var (
		includeTests  bool
		includeVendor bool
		workers       int
	)

	cmd := &cobra.Command{
		Use:   "index <path>",
		Short: "Index the packages of a Go module",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStorage()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			cfg := &indexer.Config{
				Workers:       a.cfg.Indexer.Workers,
				IncludeTests:  a.cfg.Indexer.IncludeTests,
				IncludeVendor: a.cfg.Indexer.IncludeVendor,
			}
			if cmd.Flags().Changed("tests") {
				cfg.IncludeTests = includeTests
			}
			if cmd.Flags().Changed("vendor") {
				cfg.IncludeVendor = includeVendor
			}
			if cmd.Flags().Changed("workers") {
				cfg.Workers = workers
			}

			stats, err := indexer.New(store, a.logger).IndexProject(cmd.Context(), args[0], cfg)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "module   %s\n", stats.ModulePath)
			fmt.Fprintf(out, "packages %d indexed, %d unchanged, %d removed\n",
				stats.PackagesIndexed, stats.PackagesSkipped, stats.PackagesRemoved)
			fmt.Fprintf(out, "files    %d indexed, %d unchanged, %d failed, %d removed\n",
				stats.FilesIndexed, stats.FilesSkipped, stats.FilesFailed, stats.FilesRemoved)
			fmt.Fprintf(out, "symbols  %d\n", stats.SymbolsExtracted)
			fmt.Fprintf(out, "took     %s\n", stats.Duration.Round(time.Millisecond))
			for _, msg := range stats.ErrorMessages {
				a.logger.Warn("file not indexed", "error", msg)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&includeTests, "tests", true, "index _test.go files")
	cmd.Flags().BoolVar(&includeVendor, "vendor", false, "index the vendor directory")
	cmd.Flags().IntVar(&workers, "workers", 0, "concurrent package workers (default from config)")
	return cmd
}
