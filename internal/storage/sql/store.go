package sql

import (
	"context"
	"embed"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"

	"github.com/bcnelson/firewall-ddns/internal/domain"
	"github.com/bcnelson/firewall-ddns/internal/storage"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// Store implements storage.AuditStore using SQL.
type Store struct {
	db     *sqlx.DB
	driver string
}

var _ storage.AuditStore = (*Store)(nil)

// New connects to the database and runs migrations.
func New(driver, dsn string) (*Store, error) {
	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	goose.SetBaseFS(embedMigrations)
	if err := goose.SetDialect(driver); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting goose dialect: %w", err)
	}

	if err := goose.Up(db.DB, "migrations"); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return &Store{db: db, driver: driver}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) RecordEvent(ctx context.Context, event *domain.AuditEvent) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO audit_events (id, caller_ip, provider, hostname, outcome, status, message, duration_ms, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		event.ID, event.CallerIP, event.Provider, event.Hostname, string(event.Outcome),
		event.Status, event.Message, event.DurationMS, event.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("inserting audit event: %w", err)
	}
	return nil
}

func (s *Store) ListEvents(ctx context.Context, limit, offset int) ([]*domain.AuditEvent, error) {
	limit, offset = storage.ClampPage(limit, offset)

	events := []*domain.AuditEvent{}
	err := s.db.SelectContext(ctx, &events,
		`SELECT id, caller_ip, provider, hostname, outcome, status, message, duration_ms, created_at
		 FROM audit_events ORDER BY created_at DESC, id DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing audit events: %w", err)
	}
	return events, nil
}
