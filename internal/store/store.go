package store

import (
	"context"
	"embed"
	"fmt"
	"sort"

	"chainstats/internal/logger"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store reads and writes the two raw tables the dashboard is computed from:
// saved player records and the analytics event log.
type Store struct {
	db  *sqlx.DB
	log *logger.Logger
}

// Connect opens driver ("sqlite3" or "postgres") at dsn and pings it.
func Connect(ctx context.Context, driver, dsn string, log *logger.Logger) (*Store, error) {
	if log == nil {
		log = logger.Nop()
	}
	db, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", driver, err)
	}
	if driver == "sqlite3" {
		// one writer, and :memory: databases are per connection
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}
	log = log.Component("store")
	log.Info("connected", "driver", driver)
	return &Store{db: db, log: log}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Migrate applies every embedded migration in name order. Migrations are
// written to be re-runnable.
func (s *Store) Migrate(ctx context.Context) error {
	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("reading migrations dir: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, entry := range entries {
		content, err := migrationsFS.ReadFile("migrations/" + entry.Name())
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", entry.Name(), err)
		}
		if _, err := s.db.ExecContext(ctx, string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", entry.Name(), err)
		}
		s.log.Debug("applied migration", "name", entry.Name())
	}
	return nil
}
