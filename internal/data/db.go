// internal/data/db.go
package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // Register the postgres SQL dialect.
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"  // Register the sqlite3 SQL dialect.
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

// Supported database/sql driver names. Each one doubles as the goqu dialect name.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

// DB couples a sqlx connection pool with the goqu dialect that matches its driver.
// Queries are built with goqu and executed (and scanned into structs) with sqlx.
type DB struct {
	*sqlx.DB
	dialect goqu.DialectWrapper
}

// Open opens a connection pool for driver and pings it with a 5-second timeout.
func Open(ctx context.Context, driver, dsn string) (*DB, error) {
	switch driver {
	case DriverPostgres, DriverSQLite:
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, err
	}

	if driver == DriverSQLite {
		// SQLite allows a single writer; one connection avoids SQLITE_BUSY under load.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(25)
		db.SetConnMaxIdleTime(15 * time.Minute)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return &DB{DB: db, dialect: goqu.Dialect(driver)}, nil
}

// SQLiteDSN builds a DSN for the SQLite file at path with foreign keys enforced.
func SQLiteDSN(path string) string {
	return fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=1", path)
}

func (db *DB) from(table any) *goqu.SelectDataset {
	return db.dialect.From(table).Prepared(true)
}

func (db *DB) insert(table string) *goqu.InsertDataset {
	return db.dialect.Insert(table).Prepared(true)
}

func (db *DB) update(table string) *goqu.UpdateDataset {
	return db.dialect.Update(table).Prepared(true)
}

func (db *DB) delete(table string) *goqu.DeleteDataset {
	return db.dialect.Delete(table).Prepared(true)
}

// sqlBuilder is satisfied by every goqu dataset.
type sqlBuilder interface {
	ToSQL() (string, []any, error)
}

func get(ctx context.Context, q sqlx.QueryerContext, dest any, b sqlBuilder) error {
	query, args, err := b.ToSQL()
	if err != nil {
		return err
	}
	return sqlx.GetContext(ctx, q, dest, query, args...)
}

func selectAll(ctx context.Context, q sqlx.QueryerContext, dest any, b sqlBuilder) error {
	query, args, err := b.ToSQL()
	if err != nil {
		return err
	}
	return sqlx.SelectContext(ctx, q, dest, query, args...)
}

func exec(ctx context.Context, e sqlx.ExecerContext, b sqlBuilder) (sql.Result, error) {
	query, args, err := b.ToSQL()
	if err != nil {
		return nil, err
	}
	return e.ExecContext(ctx, query, args...)
}

// execAffected runs b and returns ErrRecordNotFound when no row was touched.
func execAffected(ctx context.Context, e sqlx.ExecerContext, b sqlBuilder) error {
	result, err := exec(ctx, e, b)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// insertID runs ins and returns the generated id column. PostgreSQL reports it
// through RETURNING, SQLite through LastInsertId.
func (db *DB) insertID(ctx context.Context, q sqlx.ExtContext, ins *goqu.InsertDataset) (int64, error) {
	if db.DriverName() == DriverPostgres {
		var id int64
		err := get(ctx, q, &id, ins.Returning("id"))
		return id, err
	}

	result, err := exec(ctx, q, ins)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// withTx runs fn inside a transaction, committing only if fn returns nil.
func (db *DB) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// nullable converts an optional value into a query argument.
func nullable[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		// 23503 foreign_key_violation, 23001 restrict_violation
		return pqErr.Code == "23503" || pqErr.Code == "23001"
	}

	// SQLite reports immediate foreign key failures as CONSTRAINT_FOREIGNKEY,
	// but ON DELETE RESTRICT actions as CONSTRAINT_TRIGGER.
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey ||
			liteErr.ExtendedCode == sqlite3.ErrConstraintTrigger
	}
	return false
}
