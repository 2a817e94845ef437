// internal/data/schema.go
package data

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS genres (
		id   bigserial PRIMARY KEY,
		name varchar(200) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS authors (
		id         bigserial PRIMARY KEY,
		first_name varchar(100) NOT NULL,
		last_name  varchar(100) NOT NULL,
		born       date,
		died       date
	)`,
	`CREATE TABLE IF NOT EXISTS books (
		id        bigserial PRIMARY KEY,
		title     varchar(200) NOT NULL,
		author_id bigint REFERENCES authors(id) ON DELETE SET NULL,
		summary   varchar(1000) NOT NULL,
		isbn      varchar(13) NOT NULL UNIQUE,
		language  varchar(50) NOT NULL DEFAULT 'English',
		published integer NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS book_genres (
		book_id  bigint NOT NULL REFERENCES books(id) ON DELETE CASCADE,
		genre_id bigint NOT NULL REFERENCES genres(id) ON DELETE CASCADE,
		PRIMARY KEY (book_id, genre_id)
	)`,
	`CREATE TABLE IF NOT EXISTS users (
		id            bigserial PRIMARY KEY,
		username      varchar(150) NOT NULL UNIQUE,
		password_hash bytea NOT NULL,
		created_at    timestamp(0) with time zone NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS user_permissions (
		user_id    bigint NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		permission varchar(50) NOT NULL,
		PRIMARY KEY (user_id, permission)
	)`,
	`CREATE TABLE IF NOT EXISTS book_instances (
		id          uuid PRIMARY KEY,
		book_id     bigint NOT NULL REFERENCES books(id) ON DELETE RESTRICT,
		due_back    date,
		borrower_id bigint REFERENCES users(id) ON DELETE SET NULL,
		status      varchar(1) NOT NULL DEFAULT 'm' CHECK (status IN ('m', 'c', 'a', 'h'))
	)`,
	`CREATE INDEX IF NOT EXISTS book_instances_due_back_idx ON book_instances (due_back)`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS genres (
		id   INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS authors (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		first_name TEXT NOT NULL,
		last_name  TEXT NOT NULL,
		born       DATE,
		died       DATE
	)`,
	`CREATE TABLE IF NOT EXISTS books (
		id        INTEGER PRIMARY KEY AUTOINCREMENT,
		title     TEXT NOT NULL,
		author_id INTEGER REFERENCES authors(id) ON DELETE SET NULL,
		summary   TEXT NOT NULL,
		isbn      TEXT NOT NULL UNIQUE,
		language  TEXT NOT NULL DEFAULT 'English',
		published INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS book_genres (
		book_id  INTEGER NOT NULL REFERENCES books(id) ON DELETE CASCADE,
		genre_id INTEGER NOT NULL REFERENCES genres(id) ON DELETE CASCADE,
		PRIMARY KEY (book_id, genre_id)
	)`,
	`CREATE TABLE IF NOT EXISTS users (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		username      TEXT NOT NULL UNIQUE,
		password_hash BLOB NOT NULL,
		created_at    TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS user_permissions (
		user_id    INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		permission TEXT NOT NULL,
		PRIMARY KEY (user_id, permission)
	)`,
	`CREATE TABLE IF NOT EXISTS book_instances (
		id          TEXT PRIMARY KEY,
		book_id     INTEGER NOT NULL REFERENCES books(id) ON DELETE RESTRICT,
		due_back    DATE,
		borrower_id INTEGER REFERENCES users(id) ON DELETE SET NULL,
		status      TEXT NOT NULL DEFAULT 'm' CHECK (status IN ('m', 'c', 'a', 'h'))
	)`,
	`CREATE INDEX IF NOT EXISTS book_instances_due_back_idx ON book_instances (due_back)`,
}

// Migrate creates any missing tables and indexes. It is safe to run repeatedly.
func (db *DB) Migrate(ctx context.Context) error {
	stmts := sqliteSchema
	if db.DriverName() == DriverPostgres {
		stmts = postgresSchema
	}

	return db.withTx(ctx, func(tx *sqlx.Tx) error {
		for _, stmt := range stmts {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("apply migration: %w", err)
			}
		}
		return nil
	})
}
