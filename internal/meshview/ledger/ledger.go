// Package ledger keeps a record of every upload the receiver handled.
package ledger

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Record is one handled upload, accepted or not.
type Record struct {
	ID        string    `json:"id"`
	Filename  string    `json:"fileName"`
	Size      int64     `json:"size"`
	Checksum  string    `json:"sha256"`
	ErrorCode int       `json:"errorCode"`
	Remote    string    `json:"remote"`
	CreatedAt time.Time `json:"createdAt"`
}

type Ledger struct {
	db *sql.DB
}

// Open opens (creating if needed) the sqlite file at path and applies
// pending migrations.
func Open(path string) (*Ledger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create ledger dir: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1) // sqlite
	db.SetConnMaxLifetime(0)

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate ledger: %w", err)
	}

	return &Ledger{db: db}, nil
}

func runMigrations(db *sql.DB) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return err
	}
	defer src.Close()

	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return err
	}

	// closing m would close db as well, so it is left to the GC
	m, err := migrate.NewWithInstance("iofs", src, "sqlite3", driver)
	if err != nil {
		return err
	}

	err = m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		return nil
	}
	return err
}

// Record stores rec, filling in ID and CreatedAt when zero.
func (l *Ledger) Record(ctx context.Context, rec Record) (Record, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC().Truncate(time.Second)
	}

	_, err := l.db.ExecContext(ctx, `
	INSERT INTO uploads(id, filename, size, sha256, error_code, remote, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Filename, rec.Size, rec.Checksum, rec.ErrorCode, rec.Remote, rec.CreatedAt)
	if err != nil {
		return Record{}, err
	}
	return rec, nil
}

// List returns the newest records first.
func (l *Ledger) List(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := l.db.QueryContext(ctx, `
	SELECT id, filename, size, sha256, error_code, remote, created_at
	FROM uploads ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.ID, &r.Filename, &r.Size, &r.Checksum, &r.ErrorCode, &r.Remote, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (l *Ledger) Close() error {
	return l.db.Close()
}
