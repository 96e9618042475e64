package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/rl1809/stock-transfer/internal/adapter/handler"
	"github.com/rl1809/stock-transfer/internal/app"
	"github.com/rl1809/stock-transfer/internal/config"
)

// runCLI executes stockctl with args in an empty working directory so no
// stray stockctl.yaml is picked up.
func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Chdir(t.TempDir())
	t.Setenv("LOG_LEVEL", "error")

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := runCLI(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "stockctl dev\n", out)
}

func TestExec_Success(t *testing.T) {
	out, err := runCLI(t, "", "exec", "deliver", "3", "cookies", "from", "warehouse", "to", "shop")
	require.NoError(t, err)
	assert.Contains(t, out, "delivered 3 cookies from warehouse to shop")
	assert.Contains(t, out, "shop (22 free): cookies: 3")
	assert.Contains(t, out, "warehouse (22 free): boxes: 10, cacti: 13, puppies: 1, trees: 30, wafers: 24")
}

func TestExec_Failure(t *testing.T) {
	out, err := runCLI(t, "", "exec", "collect", "1", "cookies", "from", "shop")
	require.Error(t, err)
	assert.Contains(t, out, "product cookies not found")
	assert.Contains(t, out, "shop (25 free): (empty)")
}

func TestREPL_Session(t *testing.T) {
	input := strings.Join([]string{
		"deliver 3 cookies from warehouse to shop",
		"",
		"deliver 5 A from warehouse",
		"collect 1 cookies from shop",
		"EXIT",
		"deliver 1 trees from warehouse to shop",
	}, "\n")

	out, err := runCLI(t, input, "repl")
	require.NoError(t, err)

	assert.Contains(t, out, "1. deliver <n> <product> from warehouse to shop")
	assert.Contains(t, out, "2. collect <n> <product> from shop")
	assert.Contains(t, out, `Type "exit" to quit.`)
	assert.Contains(t, out, "delivered 3 cookies from warehouse to shop")
	assert.Contains(t, out, `a "deliver" command needs at least seven words`)
	assert.Contains(t, out, "collected 1 cookies from shop")
	assert.Contains(t, out, "shop (23 free): cookies: 2")
	// Input after the exit keyword is never read.
	assert.NotContains(t, out, "trees from warehouse to shop")
}

func TestREPL_RussianVocabulary(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stockctl.yaml")
	require.NoError(t, os.WriteFile(path, []byte("language: ru\n"), 0o644))

	input := "Доставить 2 boxes из склад в магазин\nвыход\n"
	out, err := runCLI(t, input, "--config", path, "repl")
	require.NoError(t, err)
	assert.Contains(t, out, "delivered 2 boxes from склад to магазин")
	assert.Contains(t, out, "магазин (23 free): boxes: 2")
}

func TestServe_HTTPAndGRPC(t *testing.T) {
	cfg := &config.Config{
		Language:  "en",
		Backend:   config.BackendMemory,
		Warehouse: config.WarehouseConfig{Capacity: 100, Seed: config.DefaultSeed()},
		Shop:      config.ShopConfig{Capacity: 25, MaxDistinct: 5},
		Journal:   config.JournalConfig{Driver: config.JournalNone},
	}
	reg := prometheus.NewRegistry()
	a, err := app.New(context.Background(), cfg, nil, reg)
	require.NoError(t, err)
	defer a.Close()

	httpLis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	grpcLis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- newServer(a, reg).Serve(ctx, httpLis, grpcLis) }()

	base := "http://" + httpLis.Addr().String()
	resp, err := http.Post(base+"/api/command", "application/json",
		strings.NewReader(`{"command":"deliver 2 wafers from warehouse to shop"}`))
	require.NoError(t, err)
	var cmdResp handler.CommandHTTPResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&cmdResp))
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, cmdResp.Success)

	conn, err := grpc.NewClient(grpcLis.Addr().String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	defer conn.Close()

	rpcCtx, rpcCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer rpcCancel()
	snap, err := handler.NewTransferClient(conn).Snapshot(rpcCtx, &handler.SnapshotRequest{})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"wafers": 2}, snap.Shop)
	assert.Equal(t, 22, snap.Warehouse["wafers"])

	resp, err = http.Get(base + "/metrics")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Contains(t, string(body), `stock_transfer_commands_total{outcome="accepted",verb="deliver"} 1`)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestStress_ConservesStock(t *testing.T) {
	cfg := &config.Config{
		Language:  "en",
		Backend:   config.BackendMemory,
		Warehouse: config.WarehouseConfig{Capacity: 100, Seed: config.DefaultSeed()},
		Shop:      config.ShopConfig{Capacity: 25, MaxDistinct: 5},
		Journal:   config.JournalConfig{Driver: config.JournalNone},
	}
	reg := prometheus.NewRegistry()
	a, err := app.New(context.Background(), cfg, nil, reg)
	require.NoError(t, err)
	defer a.Close()

	httpLis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	grpcLis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = newServer(a, reg).Serve(ctx, httpLis, grpcLis) }()

	out, err := runCLI(t, "", "stress", "--addr", grpcLis.Addr().String(), "--requests", "40", "--product", "trees")
	require.NoError(t, err)
	assert.Contains(t, out, "Accepted:         24")
	assert.Contains(t, out, "Rejected:         16")
	assert.Contains(t, out, "FailedPrecondition:")
	assert.Contains(t, out, "PASS: 81 units before and after")
}
