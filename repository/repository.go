// Package repository implements the domain stores on PostgreSQL with pgx.
// The schema lives in the embedded goose migrations.
package repository

import (
	"context"
	"embed"
	"io/fs"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/upvote/pkg/pg"
)

//go:embed migrations/*.sql
var migrations embed.FS

// MigrationsDir is the directory of the migration files inside Migrations().
const MigrationsDir = "migrations"

// Migrations returns the embedded goose migrations.
func Migrations() fs.FS {
	return migrations
}

// Migrate applies every pending migration.
func Migrate(ctx context.Context, pool *pgxpool.Pool, cfg pg.Config, log *slog.Logger) error {
	return pg.Migrate(ctx, pool, migrations, MigrationsDir, cfg, log)
}

// DB is the subset of *pgxpool.Pool and pgx.Tx the stores use.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// inTx runs fn in a transaction and commits when it returns nil.
func inTx(ctx context.Context, db DB, fn func(tx pgx.Tx) error) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
