package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ajitpratap0/databuilder/pkg/complextype"
	"github.com/ajitpratap0/databuilder/pkg/lineage"
	"github.com/ajitpratap0/databuilder/pkg/models"
)

// columnRef anchors a parsed type tree printed outside of any table.
type columnRef string

func (c columnRef) Key() string { return string(c) }

func newParseTypeCmd() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "parse-type <type>",
		Short: "Parse a Hive style column type and print its type tree",
		Example: `  databuilder parse-type 'struct<id:int,tags:array<string>>'
  databuilder parse-type --name payload 'map<string,struct<a:int>>'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := complextype.Parse(args[0], name, columnRef(name))
			if err != nil {
				return err
			}
			printType(cmd.OutOrStdout(), t, 0)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "col", "Column name for the root of the tree")
	return cmd
}

func printType(w io.Writer, t models.TypeMetadata, depth int) {
	fmt.Fprintf(w, "%s%s %s: %s\n", strings.Repeat("  ", depth), t.Kind(), t.Name(), t.DataType())
	for _, child := range t.Children() {
		printType(w, child, depth+1)
	}
}

func newColumnUsageCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "column-usage <sql>",
		Short:   "Resolve the source table of every output column of a SELECT",
		Example: `  databuilder column-usage 'SELECT o.id, c.name FROM orders o JOIN customers c ON o.cid = c.id'`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cols, err := lineage.GetColumns(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(cols) == 0 {
				fmt.Fprintln(out, "no resolvable columns")
				return nil
			}
			for _, c := range cols {
				fmt.Fprintln(out, c.String())
			}
			return nil
		},
	}
}
