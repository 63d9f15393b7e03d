package cli

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"druid-connect/internal/catalog"
	"druid-connect/internal/config"
)

func newMetadataCmd(cfg *config.Config, broker *string) *cobra.Command {
	var (
		notIndexed []string
		structures []string
	)

	cmd := &cobra.Command{
		Use:   "metadata <datasource>",
		Short: "Print the resolved column classification of a datasource",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			structureMap := make(map[string]string, len(cfg.Structures)+len(structures))
			for dim, structure := range cfg.Structures {
				structureMap[dim] = structure
			}
			for _, pair := range structures {
				dim, structure, ok := strings.Cut(pair, "=")
				if !ok {
					return fmt.Errorf("malformed --structure entry %q, want dim=column", pair)
				}
				structureMap[dim] = structure
			}

			client := newBrokerClient(cfg, *broker)
			loader := catalog.NewLoader(client, catalog.LoaderOptions{
				NotIndexed: append(cfg.NotIndexedDimensions, notIndexed...),
				Structures: structureMap,
			})

			ds, err := loader.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			names := make([]string, 0, len(ds.Columns))
			for n := range ds.Columns {
				names = append(names, n)
			}
			sort.Strings(names)

			fmt.Fprintf(os.Stdout, "%-24s %-10s %-12s %s\n", "COLUMN", "KIND", "TYPE", "NOTES")
			for _, n := range names {
				col := ds.Columns[n]
				var notes []string
				if col.NotIndexed {
					notes = append(notes, "not indexed")
				}
				if col.HLLMetric != "" {
					notes = append(notes, "hll="+col.HLLMetric)
				}
				if col.SketchMetric != "" {
					notes = append(notes, "sketch="+col.SketchMetric)
				}
				fmt.Fprintf(os.Stdout, "%-24s %-10s %-12s %s\n", col.Name, col.Kind, col.DruidType, strings.Join(notes, ", "))
			}

			if ds.Aggregators == nil {
				fmt.Fprintln(os.Stdout, "\n(no aggregator metadata; probabilistic structures resolved heuristically)")
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&notIndexed, "not-indexed", nil, "dimensions that exist but were never indexed")
	cmd.Flags().StringSliceVar(&structures, "structure", nil, "dim=column probabilistic structure associations")

	return cmd
}
