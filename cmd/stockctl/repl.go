package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rl1809/stock-transfer/internal/adapter/handler"
	"github.com/rl1809/stock-transfer/internal/core/command"
	"github.com/rl1809/stock-transfer/internal/core/domain"
	"github.com/rl1809/stock-transfer/internal/core/service"
)

const prompt = "> "

func newReplCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Read transfer commands from standard input",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer closeApp(a)

			return runREPL(cmd.Context(), a.Service(), cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

// runREPL executes one command per input line until EOF or the exit keyword.
// It stops with an error once the service reports an invariant violation.
func runREPL(ctx context.Context, svc *service.TransferService, in io.Reader, out io.Writer) error {
	vocab := svc.Vocabulary()
	printUsage(out, vocab)

	scanner := bufio.NewScanner(in)
	fmt.Fprint(out, prompt)
	for scanner.Scan() {
		line := scanner.Text()
		if vocab.IsExit(line) {
			return nil
		}
		if strings.TrimSpace(line) == "" {
			fmt.Fprint(out, prompt)
			continue
		}

		o := svc.Submit(ctx, line)
		fmt.Fprintln(out, handler.Describe(o, vocab))
		if err := printStock(ctx, out, svc, vocab); err != nil {
			return err
		}
		if o.Kind() == domain.KindInvariantViolation {
			return o.Err
		}
		fmt.Fprint(out, prompt)
	}
	return scanner.Err()
}

func printUsage(out io.Writer, vocab command.Vocabulary) {
	fmt.Fprintln(out, "Enter a command. Available forms:")
	for i, u := range vocab.Usage() {
		fmt.Fprintf(out, "  %d. %s\n", i+1, u)
	}
	fmt.Fprintf(out, "Type %q to quit.\n", vocab.Exit)
}

func printStock(ctx context.Context, out io.Writer, svc *service.TransferService, vocab command.Vocabulary) error {
	snap, err := svc.Snapshot(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s (%d free): %s\n", vocab.Warehouse, snap.WarehouseFree, handler.FormatItems(snap.Warehouse))
	fmt.Fprintf(out, "%s (%d free): %s\n", vocab.Shop, snap.ShopFree, handler.FormatItems(snap.Shop))
	return nil
}
