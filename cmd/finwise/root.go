package main

import (
	"encoding/json"
	"io"

	"github.com/spf13/cobra"

	"github.com/capitalize-ai/finwise-assistant/internal/config"
	"github.com/capitalize-ai/finwise-assistant/pkg/logger"
)

type rootOptions struct {
	logLevel string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "finwise",
		Short:         "Ask questions about company financials",
		Long:          "finwise answers questions about listed companies from the financial knowledge graph.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	cmd.AddCommand(
		newChatCmd(opts),
		newAskCmd(opts),
		newInsightCmd(opts),
		newExtractCmd(),
		newSchemaCmd(),
		newStatsCmd(opts),
	)
	return cmd
}

// setup loads configuration and a console logger on stderr.
func (o *rootOptions) setup() (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	log, err := logger.NewDevelopment(o.logLevel)
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
