// Package mysql provides a MySQL-backed implementation of the storage.Store interface.
package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/mmynk/pms/internal/storage/sqlstore"
)

// MySQL server error numbers.
const (
	errDupEntry        = 1062
	errLockWaitTimeout = 1205
	errLockDeadlock    = 1213
)

// Dialect is the MySQL flavour of the shared SQL. Writers lock the rows they
// validate against with SELECT ... FOR UPDATE.
var Dialect = sqlstore.Dialect{
	Name:            "mysql",
	ForUpdate:       "FOR UPDATE",
	Retryable:       isRetryable,
	UniqueViolation: isDuplicate,
}

// Config holds connection settings.
type Config struct {
	User     string
	Password string
	Host     string
	Port     string
	Name     string
}

// DSN builds the driver connection string.
//
// Dates are scanned as strings (parseTime off). Transactions run at
// READ COMMITTED so that reads issued after a row lock is granted see the
// rows committed by the previous lock holder.
func (c Config) DSN() string {
	cfg := mysql.NewConfig()
	cfg.User = c.User
	cfg.Passwd = c.Password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(c.Host, c.Port)
	cfg.DBName = c.Name
	cfg.Loc = time.UTC
	cfg.ParseTime = false
	cfg.Params = map[string]string{
		"charset":               "utf8mb4",
		"transaction_isolation": "'READ-COMMITTED'",
	}
	return cfg.FormatDSN()
}

// New connects to MySQL, verifies the connection and runs migrations.
func New(c Config) (*sqlstore.Store, error) {
	db, err := sql.Open("mysql", c.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := sqlstore.Migrate(ctx, db, migrations); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return sqlstore.New(db, Dialect), nil
}

func errNumber(err error) uint16 {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number
	}
	return 0
}

func isRetryable(err error) bool {
	switch errNumber(err) {
	case errLockDeadlock, errLockWaitTimeout:
		return true
	}
	return false
}

func isDuplicate(err error) bool {
	return errNumber(err) == errDupEntry
}
