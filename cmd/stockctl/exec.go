package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rl1809/stock-transfer/internal/adapter/handler"
)

func newExecCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "exec <command words...>",
		Short: "Run a single command against freshly seeded stock",
		Long: `Run a single command against freshly seeded stock and print the result,
for example:

  stockctl exec deliver 3 cookies from warehouse to shop

Amounts that start with "-" must follow "--" so they are not read as flags.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := opts.newApp(ctx)
			if err != nil {
				return err
			}
			defer closeApp(a)

			svc := a.Service()
			o := svc.Execute(ctx, args)

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, handler.Describe(o, a.Vocabulary()))
			if err := printStock(ctx, out, svc, a.Vocabulary()); err != nil {
				return err
			}
			return o.Err
		},
	}
}
