package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcher_SerializesConcurrentCommands(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.warehouse.Add(ctx, "A", 60))

	d := NewDispatcher(f.svc)
	d.Start()
	defer d.Close()

	var wg sync.WaitGroup
	var mu sync.Mutex
	accepted := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, err := d.Submit(ctx, "deliver 1 A from warehouse to shop")
			if err != nil {
				t.Errorf("submit: %v", err)
				return
			}
			if out.Success() {
				mu.Lock()
				accepted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	// The shop accepts while free space exceeds the amount: 24 units of 25.
	assert.Equal(t, 24, accepted)

	snap, err := d.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 24, snap.Shop["A"])
	assert.Equal(t, 36, snap.Warehouse["A"])
}

func TestDispatcher_ClosedRejectsSubmit(t *testing.T) {
	f := newFixture(t)
	d := NewDispatcher(f.svc)
	d.Start()
	d.Close()
	d.Close()

	_, err := d.Submit(context.Background(), "collect 1 A from shop")
	assert.ErrorIs(t, err, ErrDispatcherClosed)
}

func TestDispatcher_ContextBoundsAcceptance(t *testing.T) {
	f := newFixture(t)
	d := NewDispatcher(f.svc) // not started: nobody accepts

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := d.Submit(ctx, "collect 1 A from shop")
	assert.ErrorIs(t, err, context.Canceled)
	d.Close()
}
