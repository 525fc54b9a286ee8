package mysql

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/go-sql-driver/mysql"

	"prod-dashboard/internal/apperr"
)

// Коды ошибок MySQL, означающие недоступность сервера, а не ошибку запроса.
var connectionErrorCodes = map[uint16]bool{
	1040: true, // too many connections
	1044: true, // access denied for database
	1045: true, // access denied for user
	1049: true, // unknown database
	1129: true, // host blocked
	1130: true, // host not allowed
	2002: true,
	2003: true,
	2006: true, // server has gone away
	2013: true, // lost connection during query
}

// readOnly runs fn inside a read-only transaction that is always rolled back.
func (s *Storage) readOnly(ctx context.Context, op string, fn func(tx *sql.Tx) error) error {
	start := time.Now()

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return classify(op, "begin read-only transaction", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if elapsed := time.Since(start); s.slowQuery > 0 && elapsed > s.slowQuery {
		s.log.Warn("slow query",
			slog.String("op", op),
			slog.Duration("elapsed", elapsed),
			slog.Duration("threshold", s.slowQuery),
		)
	}

	return nil
}

// classify wraps err into a connection or query kind.
func classify(op, msg string, err error) error {
	if isConnectionError(err) {
		return fmt.Errorf("%s: %s: %w", op, msg, apperr.Connection("database unreachable", apperr.WithCause(err)))
	}
	return fmt.Errorf("%s: %s: %w", op, msg, apperr.Query("database query failed", apperr.WithCause(err)))
}

func isConnectionError(err error) bool {
	if errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, mysql.ErrInvalidConn) ||
		errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return connectionErrorCodes[myErr.Number]
	}

	return false
}
