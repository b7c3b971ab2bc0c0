package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newChatCmd(opts *rootOptions) *cobra.Command {
	var diagnostics bool

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive conversation",
		Long:  "Start a conversation that keeps context between questions. Type \"exit\" or press Ctrl-D to leave.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := opts.openRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()

			ctx := cmd.Context()
			conv, err := rt.newConversation(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, conv.Messages[0].Content)

			scanner := bufio.NewScanner(cmd.InOrStdin())
			for {
				fmt.Fprint(out, "> ")
				if !scanner.Scan() {
					fmt.Fprintln(out)
					return scanner.Err()
				}

				line := strings.TrimSpace(scanner.Text())
				switch line {
				case "":
					continue
				case "exit", "quit":
					return nil
				}

				if err := rt.ask(ctx, out, conv.ID, line, diagnostics); err != nil {
					return err
				}
			}
		},
	}
	cmd.Flags().BoolVar(&diagnostics, "diagnostics", false, "Print the generated query and extracted entities after each answer")
	return cmd
}
