package app

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/stock-transfer/internal/config"
	"github.com/rl1809/stock-transfer/internal/core/domain"
	"github.com/rl1809/stock-transfer/internal/core/service"
)

func testConfig() *config.Config {
	return &config.Config{
		Language:  "en",
		Backend:   config.BackendMemory,
		Warehouse: config.WarehouseConfig{Capacity: 100, Seed: config.DefaultSeed()},
		Shop:      config.ShopConfig{Capacity: 25, MaxDistinct: 5},
		Journal:   config.JournalConfig{Driver: config.JournalNone},
	}
}

func newApp(t *testing.T, cfg *config.Config) *App {
	t.Helper()
	a, err := New(context.Background(), cfg, nil, prometheus.NewRegistry())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func TestNew_SeedsWarehouse(t *testing.T) {
	a := newApp(t, testConfig())

	snap, err := a.Service().Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]int{
		"cookies": 3, "puppies": 1, "boxes": 10, "trees": 30, "cacti": 13, "wafers": 24,
	}, snap.Warehouse)
	assert.Equal(t, 19, snap.WarehouseFree)
	assert.Empty(t, snap.Shop)
	assert.Equal(t, 25, snap.ShopFree)
	assert.Nil(t, a.JournalReader())
}

func TestNew_UnknownLanguage(t *testing.T) {
	cfg := testConfig()
	cfg.Language = "fr"
	_, err := New(context.Background(), cfg, nil, nil)
	assert.Error(t, err)
}

func TestNew_DuplicateMetricsRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	a, err := New(context.Background(), testConfig(), nil, reg)
	require.NoError(t, err)
	defer a.Close()

	_, err = New(context.Background(), testConfig(), nil, reg)
	assert.Error(t, err)
}

func TestIntegration_SessionWithSQLiteJournal(t *testing.T) {
	cfg := testConfig()
	cfg.Journal = config.JournalConfig{
		Driver: config.JournalSQLite,
		DSN:    filepath.Join(t.TempDir(), "journal.db"),
	}
	a := newApp(t, cfg)
	svc := a.Service()
	ctx := context.Background()

	steps := []struct {
		line       string
		wantKind   domain.Kind
		rolledBack bool
	}{
		{"deliver 3 cookies from warehouse to shop", "", false},
		{"deliver 1 puppies from warehouse to shop", "", false},
		{"deliver 5 boxes from warehouse to shop", "", false},
		{"deliver 5 trees from warehouse to shop", "", false},
		{"deliver 2 cacti from warehouse to shop", "", false},
		{"deliver 1 wafers from warehouse to shop", domain.KindTooManyDistinctItems, true},
		{"deliver 10 trees from warehouse to shop", domain.KindCapacityExceeded, true},
		{"deliver five trees from warehouse to shop", domain.KindNonIntegerAmount, false},
		{"collect 3 cookies from shop", "", false},
		{"deliver 1 wafers from warehouse to shop", "", false},
	}
	for _, s := range steps {
		out := svc.Submit(ctx, s.line)
		require.Equal(t, s.wantKind, out.Kind(), s.line)
		require.Equal(t, s.rolledBack, out.RolledBack, s.line)
	}

	snap, err := svc.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"puppies": 1, "boxes": 5, "trees": 5, "cacti": 2, "wafers": 1}, snap.Shop)
	assert.Equal(t, map[string]int{"boxes": 5, "trees": 25, "cacti": 11, "wafers": 23}, snap.Warehouse)

	reader := a.JournalReader()
	require.NotNil(t, reader)
	entries, err := reader.Recent(ctx, 50)
	require.NoError(t, err)
	// The rejected line never reached the containers and is not journaled.
	require.Len(t, entries, 9)
	assert.Equal(t, "wafers", entries[0].Product)
	assert.Equal(t, domain.OutcomeAccepted, entries[0].Outcome)

	rolledBack := 0
	for _, e := range entries {
		if e.RolledBack {
			rolledBack++
		}
	}
	assert.Equal(t, 2, rolledBack)
}

func TestIntegration_ConcurrentDeliveries(t *testing.T) {
	a := newApp(t, testConfig())
	d := service.NewDispatcher(a.Service())
	d.Start()
	defer d.Close()

	var accepted atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, err := d.Submit(context.Background(), "deliver 1 trees from warehouse to shop")
			if err == nil && out.Success() {
				accepted.Add(1)
			}
		}()
	}
	wg.Wait()

	// The shop takes an add only while free space exceeds the amount.
	assert.Equal(t, int32(24), accepted.Load())

	snap, err := d.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 6, snap.Warehouse["trees"])
	assert.Equal(t, 24, snap.Shop["trees"])
}

func TestIntegration_RedisBackend(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	probe := redis.NewClient(&redis.Options{Addr: addr})
	if err := probe.Ping(context.Background()).Err(); err != nil {
		probe.Close()
		t.Skipf("Redis not available: %v", err)
	}
	probe.Close()

	cfg := testConfig()
	cfg.Backend = config.BackendRedis
	cfg.Redis = config.RedisConfig{Addr: addr, Namespace: "it-" + t.Name()}
	a := newApp(t, cfg)
	ctx := context.Background()

	out := a.Service().Submit(ctx, "deliver 4 boxes from warehouse to shop")
	require.True(t, out.Success(), "%v", out.Err)

	out = a.Service().Submit(ctx, "collect 5 boxes from shop")
	assert.Equal(t, domain.KindInsufficientQuantity, out.Kind())

	snap, err := a.Service().Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 6, snap.Warehouse["boxes"])
	assert.Equal(t, map[string]int{"boxes": 4}, snap.Shop)
}
