package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"

	"github.com/rl1809/stock-transfer/internal/core/domain"
)

const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

var ErrUnsupportedDriver = errors.New("unsupported journal driver")

const createTransfersTable = `
CREATE TABLE IF NOT EXISTS transfers (
	id          VARCHAR(36)  NOT NULL PRIMARY KEY,
	verb        VARCHAR(16)  NOT NULL,
	product     VARCHAR(255) NOT NULL,
	amount      INTEGER      NOT NULL,
	outcome     VARCHAR(64)  NOT NULL,
	rolled_back BOOLEAN      NOT NULL,
	created_at  BIGINT       NOT NULL
)`

// SQLJournal appends executed commands to a transfers table. The SQL is
// shared by the mysql and sqlite drivers.
type SQLJournal struct {
	db *sql.DB
}

func NewSQLJournal(db *sql.DB) *SQLJournal {
	return &SQLJournal{db: db}
}

// OpenSQLJournal connects with the given driver and creates the table if needed.
func OpenSQLJournal(ctx context.Context, driver, dsn string) (*SQLJournal, error) {
	if driver != DriverMySQL && driver != DriverSQLite {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if driver == DriverSQLite {
		// One connection, so an in-memory database is shared by every query.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}

	j := NewSQLJournal(db)
	if err := j.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return j, nil
}

func (j *SQLJournal) Migrate(ctx context.Context) error {
	if _, err := j.db.ExecContext(ctx, createTransfersTable); err != nil {
		return fmt.Errorf("create transfers table: %w", err)
	}
	return nil
}

func (j *SQLJournal) Record(ctx context.Context, t domain.Transfer) error {
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO transfers (id, verb, product, amount, outcome, rolled_back, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.ID, string(t.Verb), t.Product, t.Amount, t.Outcome, t.RolledBack, t.CreatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("insert transfer: %w", err)
	}
	return nil
}

func (j *SQLJournal) Recent(ctx context.Context, limit int) ([]domain.Transfer, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT id, verb, product, amount, outcome, rolled_back, created_at
		FROM transfers
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query transfers: %w", err)
	}
	defer rows.Close()

	var out []domain.Transfer
	for rows.Next() {
		var (
			t       domain.Transfer
			verb    string
			created int64
		)
		if err := rows.Scan(&t.ID, &verb, &t.Product, &t.Amount, &t.Outcome, &t.RolledBack, &created); err != nil {
			return nil, fmt.Errorf("scan transfer: %w", err)
		}
		t.Verb = domain.Verb(verb)
		t.CreatedAt = time.Unix(0, created).UTC()
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transfers: %w", err)
	}
	return out, nil
}

func (j *SQLJournal) Close() error {
	return j.db.Close()
}
