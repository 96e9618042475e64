package main

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"github.com/rl1809/stock-transfer/internal/adapter/handler"
)

type stressOptions struct {
	addr     string
	product  string
	amount   int
	requests int
	timeout  time.Duration
}

type stressResult struct {
	accepted int32
	rejected int32
	errors   int32
	elapsed  time.Duration
	before   int
	after    int
	shopFree int
	byCode   map[string]int32
}

func newStressCmd() *cobra.Command {
	o := &stressOptions{}
	cmd := &cobra.Command{
		Use:   "stress",
		Short: "Fire concurrent deliveries at a running server and check stock is conserved",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := grpc.NewClient(o.addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
			if err != nil {
				return fmt.Errorf("dial %s: %w", o.addr, err)
			}
			defer conn.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), o.timeout)
			defer cancel()

			res, err := runStress(ctx, handler.NewTransferClient(conn), o)
			if err != nil {
				return err
			}
			printStress(cmd.OutOrStdout(), o, res)
			if res.before != res.after {
				return fmt.Errorf("stock not conserved: %d units before, %d after", res.before, res.after)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&o.addr, "addr", "localhost:50051", "gRPC address of stockctl serve")
	cmd.Flags().StringVar(&o.product, "product", "trees", "product to deliver")
	cmd.Flags().IntVar(&o.amount, "amount", 1, "amount per delivery")
	cmd.Flags().IntVar(&o.requests, "requests", 50, "number of concurrent deliveries")
	cmd.Flags().DurationVar(&o.timeout, "timeout", 30*time.Second, "overall deadline")
	return cmd
}

func totalUnits(snap *handler.SnapshotResponse) int {
	total := 0
	for _, q := range snap.Warehouse {
		total += q
	}
	for _, q := range snap.Shop {
		total += q
	}
	return total
}

func runStress(ctx context.Context, client *handler.TransferClient, o *stressOptions) (stressResult, error) {
	var res stressResult

	snap, err := client.Snapshot(ctx, &handler.SnapshotRequest{})
	if err != nil {
		return res, fmt.Errorf("snapshot before: %w", err)
	}
	res.before = totalUnits(snap)

	line := fmt.Sprintf("deliver %d %s from warehouse to shop", o.amount, o.product)

	var (
		accepted, rejected, failed atomic.Int32
		mu                         sync.Mutex
		byCode                     = map[string]int32{}
		wg                         sync.WaitGroup
	)
	start := time.Now()

	for i := 0; i < o.requests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			_, err := client.Submit(ctx, &handler.SubmitRequest{Command: line})
			if err == nil {
				accepted.Add(1)
				return
			}
			st, ok := status.FromError(err)
			if !ok {
				failed.Add(1)
				return
			}
			rejected.Add(1)
			mu.Lock()
			byCode[st.Code().String()]++
			mu.Unlock()
		}()
	}
	wg.Wait()
	res.elapsed = time.Since(start)

	snap, err = client.Snapshot(ctx, &handler.SnapshotRequest{})
	if err != nil {
		return res, fmt.Errorf("snapshot after: %w", err)
	}
	res.after = totalUnits(snap)
	res.shopFree = snap.ShopFree
	res.accepted = accepted.Load()
	res.rejected = rejected.Load()
	res.errors = failed.Load()
	res.byCode = byCode
	return res, nil
}

func printStress(out io.Writer, o *stressOptions, res stressResult) {
	fmt.Fprintln(out, "========== STRESS TEST RESULTS ==========")
	fmt.Fprintf(out, "Command:          deliver %d %s\n", o.amount, o.product)
	fmt.Fprintf(out, "Total Requests:   %d\n", o.requests)
	fmt.Fprintf(out, "Accepted:         %d\n", res.accepted)
	fmt.Fprintf(out, "Rejected:         %d\n", res.rejected)
	for code, n := range res.byCode {
		fmt.Fprintf(out, "  %-16s%d\n", code+":", n)
	}
	if res.errors > 0 {
		fmt.Fprintf(out, "Transport errors: %d\n", res.errors)
	}
	fmt.Fprintf(out, "Duration:         %v\n", res.elapsed)
	fmt.Fprintf(out, "Shop free:        %d\n", res.shopFree)
	fmt.Fprintln(out, "==========================================")

	if res.before == res.after {
		fmt.Fprintf(out, "PASS: %d units before and after\n", res.before)
	} else {
		fmt.Fprintf(out, "FAIL: %d units before, %d after\n", res.before, res.after)
	}
}
