package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/ajitpratap0/databuilder/pkg/extractor"
	"github.com/ajitpratap0/databuilder/pkg/loader"
	"github.com/ajitpratap0/databuilder/pkg/publisher"
	"github.com/ajitpratap0/databuilder/pkg/transformer"
)

var version = "0.1.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "databuilder",
		Short: "databuilder - metadata ingestion for data catalogs",
		Long: `databuilder extracts table, column, usage, ownership and lineage metadata
from warehouses and streams, turns it into graph nodes and relationships,
and publishes it into Neo4j, Neptune or a relational catalog store.`,
		SilenceUsage: true,
	}

	root.AddCommand(
		newVersionCmd(),
		newListCmd(),
		newRunCmd(),
		newConfigCmd(),
		newParseTypeCmd(),
		newColumnUsageCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "databuilder v%s\n", version)
			fmt.Fprintf(out, "Go version: %s\n", runtime.Version())
			fmt.Fprintf(out, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}

// newListCmd prints every registered component, grouped by kind.
func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List available extractors, transformers, loaders and publishers",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			groups := []struct {
				title string
				names []string
			}{
				{"Extractors", extractor.Registry.List()},
				{"Transformers", transformer.Registry.List()},
				{"Loaders", loader.Registry.List()},
				{"Publishers", publisher.Registry.List()},
			}
			for i, g := range groups {
				if i > 0 {
					fmt.Fprintln(out)
				}
				fmt.Fprintf(out, "Available %s:\n", g.title)
				for _, name := range g.names {
					fmt.Fprintf(out, "  - %s\n", name)
				}
			}
		},
	}
}
