package catalog

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	// SQLite driver
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLiteCatalog implements Catalog over the node's local SQLite catalog
// database. The apply stage writes identity through it after bootstrap and
// name assignment; the resolver only reads.
type SQLiteCatalog struct {
	db   *sql.DB
	path string
}

// Config holds SQLite catalog configuration.
type Config struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// NewSQLiteCatalog creates a new SQLite catalog instance. Init must be
// called before use.
func NewSQLiteCatalog(cfg Config) (*SQLiteCatalog, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("catalog database path is required")
	}
	return &SQLiteCatalog{path: cfg.Path}, nil
}

// Init opens the database connection and enables WAL mode.
func (c *SQLiteCatalog) Init(ctx context.Context) error {
	dsn := fmt.Sprintf("%s?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL&_txlock=immediate", c.path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open catalog database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping catalog database: %w", err)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	c.db = db
	return nil
}

// Close closes the database connection.
func (c *SQLiteCatalog) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Migrate runs catalog schema migrations.
func (c *SQLiteCatalog) Migrate(_ context.Context) error {
	if c.db == nil {
		return fmt.Errorf("catalog database not initialized")
	}

	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	driver, err := sqlite3.WithInstance(c.db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("failed to create database driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// Names returns the persisted identity, or nil when the node has never
// recorded one.
func (c *SQLiteCatalog) Names(ctx context.Context) (*SavedIdentity, error) {
	query := `
		SELECT instance_name, instance_uuid, replicaset_name, replicaset_uuid
		FROM identity
		WHERE id = 1
	`

	saved := &SavedIdentity{PeerUUIDs: make(map[string]string)}
	err := c.db.QueryRowContext(ctx, query).Scan(
		&saved.InstanceName,
		&saved.InstanceUUID,
		&saved.ReplicasetName,
		&saved.ReplicasetUUID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read identity: %w", err)
	}

	rows, err := c.db.QueryContext(ctx, `SELECT name, uuid FROM peers ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to read peers: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name, uuid string
		if err := rows.Scan(&name, &uuid); err != nil {
			return nil, fmt.Errorf("failed to scan peer: %w", err)
		}
		saved.PeerUUIDs[name] = uuid
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read peers: %w", err)
	}
	return saved, nil
}

// SaveIdentity records the node's identity. The identity table holds a
// single row; saving replaces it.
func (c *SQLiteCatalog) SaveIdentity(ctx context.Context, saved *SavedIdentity) error {
	query := `
		INSERT INTO identity (id, instance_name, instance_uuid, replicaset_name, replicaset_uuid, updated_at)
		VALUES (1, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			instance_name = excluded.instance_name,
			instance_uuid = excluded.instance_uuid,
			replicaset_name = excluded.replicaset_name,
			replicaset_uuid = excluded.replicaset_uuid,
			updated_at = excluded.updated_at
	`

	_, err := c.db.ExecContext(ctx, query,
		saved.InstanceName,
		saved.InstanceUUID,
		saved.ReplicasetName,
		saved.ReplicasetUUID,
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to save identity: %w", err)
	}

	for name, uuid := range saved.PeerUUIDs {
		if err := c.SavePeer(ctx, name, uuid); err != nil {
			return err
		}
	}
	return nil
}

// SavePeer records one peer's name-to-UUID mapping. It is the write half of
// the name-assignment step driven by MissingNames.
func (c *SQLiteCatalog) SavePeer(ctx context.Context, name, uuid string) error {
	query := `
		INSERT INTO peers (name, uuid, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			uuid = excluded.uuid,
			updated_at = excluded.updated_at
	`

	if _, err := c.db.ExecContext(ctx, query, name, uuid, time.Now()); err != nil {
		return fmt.Errorf("failed to save peer %s: %w", name, err)
	}
	return nil
}
