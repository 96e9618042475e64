package handler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rl1809/stock-transfer/internal/core/command"
	"github.com/rl1809/stock-transfer/internal/core/domain"
	"github.com/rl1809/stock-transfer/internal/core/service"
)

// newDispatcher builds a started dispatcher over a warehouse holding
// {A: 10, B: 5, C: 4} and an empty shop limited to two distinct products.
func newDispatcher(t *testing.T) *service.Dispatcher {
	t.Helper()
	ctx := context.Background()

	warehouse := domain.NewStock(100)
	require.NoError(t, warehouse.Add(ctx, "A", 10))
	require.NoError(t, warehouse.Add(ctx, "B", 5))
	require.NoError(t, warehouse.Add(ctx, "C", 4))
	shop := domain.NewVarietyLimit(domain.NewStock(25), 2)

	svc := service.NewTransferService(command.NewValidator(command.English), warehouse, shop)
	d := service.NewDispatcher(svc)
	d.Start()
	t.Cleanup(d.Close)
	return d
}

type fakeJournal struct {
	entries []domain.Transfer
	err     error
}

func (f *fakeJournal) Recent(_ context.Context, limit int) ([]domain.Transfer, error) {
	if f.err != nil {
		return nil, f.err
	}
	if limit < len(f.entries) {
		return f.entries[:limit], nil
	}
	return f.entries, nil
}

func sampleEntries() []domain.Transfer {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return []domain.Transfer{
		{ID: "2", Verb: domain.VerbCollect, Product: "A", Amount: 1, Outcome: domain.OutcomeAccepted, CreatedAt: now},
		{ID: "1", Verb: domain.VerbDeliver, Product: "A", Amount: 3, Outcome: domain.OutcomeAccepted, CreatedAt: now.Add(-time.Second)},
	}
}
