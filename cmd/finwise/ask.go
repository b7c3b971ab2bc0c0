package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newAskCmd(opts *rootOptions) *cobra.Command {
	var diagnostics bool

	cmd := &cobra.Command{
		Use:     "ask <question>",
		Short:   "Ask a single question",
		Example: `  finwise ask "What was the revenue of TCS in FY2023?"`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := opts.openRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()

			conv, err := rt.newConversation(cmd.Context())
			if err != nil {
				return err
			}
			return rt.ask(cmd.Context(), cmd.OutOrStdout(), conv.ID, strings.Join(args, " "), diagnostics)
		},
	}
	cmd.Flags().BoolVar(&diagnostics, "diagnostics", false, "Print the generated query and extracted entities")
	return cmd
}

func newInsightCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "insight",
		Short: "Print a short insight about the latest stored data",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := opts.openRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()

			fmt.Fprintln(cmd.OutOrStdout(), rt.messages.Insight(cmd.Context()))
			return nil
		},
	}
}
