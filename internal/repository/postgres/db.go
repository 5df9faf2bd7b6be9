package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"net"

	"github.com/lib/pq"

	"fleettrack/internal/repository"
)

// Querier is the subset of *sql.DB / *sql.Tx the repositories use,
// so the same implementation can run inside or outside a transaction.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const uniqueViolation = "23505"

// isUniqueViolation reports whether err is a Postgres unique constraint
// violation (duplicate registration, duplicate email, second ongoing trip).
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// translateErr maps connection-level failures (dropped connections,
// network timeouts) to ErrUnavailable. Constraint and not-found
// translation stays with the callers.
func translateErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return repository.ErrUnavailable
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return repository.ErrUnavailable
	}
	return err
}
