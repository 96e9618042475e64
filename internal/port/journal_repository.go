package port

import (
	"context"

	"github.com/rl1809/stock-transfer/internal/core/domain"
)

type JournalRepository interface {
	// Record appends one executed command to the journal
	Record(ctx context.Context, transfer domain.Transfer) error

	Close() error
}

// JournalReader is implemented by journals that can be queried back.
type JournalReader interface {
	// Recent returns up to limit entries, newest first
	Recent(ctx context.Context, limit int) ([]domain.Transfer, error)
}
