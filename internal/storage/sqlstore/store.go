// Package sqlstore implements storage.Store on top of database/sql.
//
// The SQL is shared by every backend; a Dialect carries the few things that
// differ between them (row locking, error classification). Backends such as
// storage/sqlite and storage/mysql open the database, run their schema and
// hand the *sql.DB to New.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/mmynk/pms/internal/storage"
)

// Ensure Store implements storage.Store
var _ storage.Store = (*Store)(nil)

// Dialect describes backend-specific SQL behaviour.
type Dialect struct {
	// Name identifies the backend in logs.
	Name string

	// ForUpdate is appended to SELECTs that must lock the rows they read.
	// Backends that lock the whole database on write leave it empty.
	ForUpdate string

	// Retryable reports transient errors worth retrying the transaction for.
	Retryable func(error) bool

	// UniqueViolation reports errors caused by a uniqueness constraint.
	UniqueViolation func(error) bool
}

const (
	defaultMaxAttempts = 5
	initialBackoff     = 10 * time.Millisecond
	maxBackoff         = 500 * time.Millisecond
)

// Store implements storage.Store using a database/sql handle.
type Store struct {
	db          *sql.DB
	dialect     Dialect
	maxAttempts int
	onRetry     func()
}

// New wraps an open, migrated database.
func New(db *sql.DB, dialect Dialect) *Store {
	return &Store{db: db, dialect: dialect, maxAttempts: defaultMaxAttempts}
}

// OnRetry registers a hook called before each retried transaction.
func (s *Store) OnRetry(fn func()) {
	s.onRetry = fn
}

// DB returns the underlying database handle.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate executes schema statements in order.
func Migrate(ctx context.Context, db *sql.DB, statements []string) error {
	for i, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration statement %d failed: %w", i+1, err)
		}
	}
	return nil
}

// WithTx runs fn inside a transaction, retrying transient failures with
// exponential backoff. Any other error ends the loop on the first attempt.
func (s *Store) WithTx(ctx context.Context, fn func(tx storage.Tx) error) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = initialBackoff
	policy.MaxInterval = maxBackoff

	attempt := 0
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		attempt++
		err := s.runTx(ctx, fn)
		if err != nil && !s.retryable(err) {
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	},
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(uint(s.maxAttempts)),
		backoff.WithNotify(func(err error, wait time.Duration) {
			slog.Warn("Retrying transaction",
				"dialect", s.dialect.Name,
				"attempt", attempt,
				"backoff", wait,
				"error", err,
			)
			if s.onRetry != nil {
				s.onRetry()
			}
		}),
	)
	return err
}

func (s *Store) runTx(ctx context.Context, fn func(tx storage.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&txStore{tx: tx, dialect: s.dialect}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *Store) retryable(err error) bool {
	return s.dialect.Retryable != nil && s.dialect.Retryable(err)
}

// txStore implements storage.Tx on a single *sql.Tx.
type txStore struct {
	tx      *sql.Tx
	dialect Dialect
}

// Ensure txStore implements storage.Tx
var _ storage.Tx = (*txStore)(nil)

// writeErr classifies a failed INSERT/UPDATE.
func (t *txStore) writeErr(err error, what string) error {
	if t.dialect.UniqueViolation != nil && t.dialect.UniqueViolation(err) {
		return fmt.Errorf("%s: %w", what, storage.ErrAlreadyExists)
	}
	return fmt.Errorf("failed to insert %s: %w", what, err)
}

// forUpdate appends the dialect's row-lock clause to a query.
func (t *txStore) forUpdate(query string) string {
	if t.dialect.ForUpdate == "" {
		return query
	}
	return query + " " + t.dialect.ForUpdate
}

// nullString maps "" to SQL NULL for optional text columns.
func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// nullDate maps the zero time to SQL NULL for optional date columns.
func nullDate(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t.Format(dateLayout)
}

const dateLayout = "2006-01-02"

func formatDate(t time.Time) string {
	return t.Format(dateLayout)
}

// parseDate parses a stored date. MySQL may append a time component.
func parseDate(s string) (time.Time, error) {
	if len(s) > len(dateLayout) {
		s = s[:len(dateLayout)]
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse stored date %q: %w", s, err)
	}
	return t, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}
