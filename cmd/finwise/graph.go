package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/capitalize-ai/finwise-assistant/internal/extract"
	"github.com/capitalize-ai/finwise-assistant/internal/graph"
	"github.com/capitalize-ai/finwise-assistant/internal/query"
)

func newExtractCmd() *cobra.Command {
	var template bool

	cmd := &cobra.Command{
		Use:   "extract <text>",
		Short: "Show the entities and intent recognized in a question",
		Long:  "Show the entities and intent recognized in a question. Runs offline.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entities, intent := extract.NewExtractor(extract.DefaultResources()).Extract(strings.Join(args, " "))

			out := map[string]any{
				"entities": entities,
				"intent":   intent,
			}
			if template {
				out["query"] = query.NewTemplateGenerator().Generate(intent, entities)
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().BoolVar(&template, "template", false, "Also render the fixed template query for the extraction")
	return cmd
}

func newSchemaCmd() *cobra.Command {
	var (
		file     string
		examples bool
	)

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the knowledge graph schema shown to the model",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, err := graph.LoadSchema(file)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprint(out, schema.Describe())
			if examples {
				fmt.Fprintln(out)
				fmt.Fprint(out, schema.DescribeExamples())
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "Schema YAML file (default: built-in schema)")
	cmd.Flags().BoolVar(&examples, "examples", false, "Include the example queries")
	return cmd
}

func newStatsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Count the companies, metrics and reports in the knowledge graph",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := opts.setup()
			if err != nil {
				return err
			}

			executor, err := graph.NewNeo4jExecutor(graph.Config{
				URI:      cfg.Neo4jURI,
				Username: cfg.Neo4jUsername,
				Password: cfg.Neo4jPassword,
				Database: cfg.Neo4jDatabase,
			}, log)
			if err != nil {
				return err
			}
			defer executor.Close(cmd.Context())

			stats, err := executor.Stats(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), stats)
		},
	}
}
