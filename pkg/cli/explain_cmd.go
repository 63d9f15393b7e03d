package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"druid-connect/internal/catalog"
	"druid-connect/internal/config"
	"druid-connect/internal/domain"
	"druid-connect/internal/druid"
	"druid-connect/internal/pushdown"
)

func newExplainCmd(cfg *config.Config, broker, timeZone *string) *cobra.Command {
	var planPath string

	cmd := &cobra.Command{
		Use:   "explain",
		Short: "Explain how an aggregation stage translates to a native query",
		Long: "Loads a YAML-described grouping/aggregation stage, translates it against datasource " +
			"metadata, and prints the native groupBy query, or the reason translation was refused.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			pf, err := LoadPlanFile(planPath)
			if err != nil {
				return err
			}

			node, err := pf.BuildPlan()
			if err != nil {
				return err
			}

			var ds *catalog.Datasource
			if pf.Metadata != nil {
				ds = pf.Metadata.BuildDatasource(pf.Datasource)
			} else {
				client := newBrokerClient(cfg, *broker)
				loader := catalog.NewLoader(client, catalog.LoaderOptions{
					NotIndexed: cfg.NotIndexedDimensions,
					Structures: cfg.Structures,
				})
				ds, err = loader.Load(cmd.Context(), pf.Datasource)
				if err != nil {
					return err
				}
			}

			translator := pushdown.NewTranslator(*timeZone)
			planner := pushdown.NewPlanner(translator)
			qb, err := translator.TransformAggregate(pushdown.NewQueryBuilder(ds), node, planner)

			var unsupported *domain.UnsupportedError
			if errors.As(err, &unsupported) {
				fmt.Fprintf(os.Stdout, "NOT COMPUTABLE: %s\n", unsupported.Message)
				return nil
			}
			if err != nil {
				return err
			}
			if qb == nil {
				fmt.Fprintln(os.Stdout, "NO PUSH-DOWN: stage is not expressible in the store, caller must evaluate it")
				return nil
			}

			out, err := json.MarshalIndent(qb.GroupByQuery(nil), "", "  ")
			if err != nil {
				return fmt.Errorf("marshal query: %w", err)
			}
			fmt.Fprintln(os.Stdout, string(out))

			fmt.Fprintln(os.Stdout, "\nOutput bindings:")
			for _, b := range qb.Bindings() {
				fmt.Fprintf(os.Stdout, "  %-12s %-10s %-12s\n", b.Name, b.LogicalType, b.DruidType)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&planPath, "file", "f", "", "plan YAML file (required)")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

// newBrokerClient builds a broker client honoring the configured timeouts and
// rate limits.
func newBrokerClient(cfg *config.Config, broker string) *druid.Client {
	return druid.NewClient(broker, druid.ClientOptions{
		Timeout:        cfg.QueryTimeout,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
	})
}
